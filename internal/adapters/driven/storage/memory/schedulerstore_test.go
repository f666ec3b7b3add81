package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YX-UOM/Plithos/internal/core/domain"
)

func TestSchedulerStore_Tasks(t *testing.T) {
	store := NewSchedulerStore()
	ctx := context.Background()

	task, err := store.GetTask(ctx, domain.TaskIDWeeklyDigest)
	require.NoError(t, err)
	assert.Nil(t, task)

	week, err := domain.ParseDay("2026-01-08")
	require.NoError(t, err)
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{ID: "z-task"}))
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{
		ID:       domain.TaskIDWeeklyDigest,
		Name:     "Weekly Digest",
		Interval: domain.WeeklyInterval,
		Enabled:  true,
		LastWeek: week,
	}))

	task, err = store.GetTask(ctx, domain.TaskIDWeeklyDigest)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "Weekly Digest", task.Name)
	assert.True(t, task.LastWeek.Equal(week))

	// Callers get a copy.
	task.Name = "changed"
	again, _ := store.GetTask(ctx, domain.TaskIDWeeklyDigest)
	assert.Equal(t, "Weekly Digest", again.Name)

	tasks, err := store.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, domain.TaskIDWeeklyDigest, tasks[0].ID)

	assert.ErrorIs(t, store.SaveTask(ctx, nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.SaveTask(ctx, &domain.ScheduledTask{}), domain.ErrInvalidInput)
}

func TestSchedulerStore_HistoryAndPrune(t *testing.T) {
	store := NewSchedulerStore()
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.RecordResult(ctx, &domain.TaskResult{
			TaskID:        domain.TaskIDWeeklyDigest,
			StartedAt:     start.Add(time.Duration(i) * time.Hour),
			Success:       true,
			ItemsIncluded: i,
		}))
	}
	require.NoError(t, store.RecordResult(ctx, &domain.TaskResult{TaskID: "other", Success: true, Skipped: true}))
	assert.ErrorIs(t, store.RecordResult(ctx, &domain.TaskResult{}), domain.ErrInvalidInput)

	history, err := store.History(ctx, domain.TaskIDWeeklyDigest, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 4, history[0].ItemsIncluded)
	assert.Equal(t, 3, history[1].ItemsIncluded)

	require.NoError(t, store.PruneHistory(ctx, 3))

	history, err = store.History(ctx, domain.TaskIDWeeklyDigest, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 4, history[0].ItemsIncluded)
	assert.Equal(t, 2, history[2].ItemsIncluded)

	other, err := store.History(ctx, "other", 10)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, "skipped", other[0].Outcome())
}
