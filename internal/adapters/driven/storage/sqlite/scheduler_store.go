package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driven"
)

// schedulerStore implements driven.SchedulerStore over scheduled_tasks
// and task_runs.
type schedulerStore struct {
	store *Store
}

var _ driven.SchedulerStore = (*schedulerStore)(nil)

var (
	taskColumns = []string{
		"id", "name", "interval_seconds", "enabled",
		"last_run", "next_run", "last_success", "last_error", "last_week",
	}
	runColumns = []string{
		"task_id", "week_ending", "started_at", "ended_at",
		"success", "skipped", "error", "items_included",
	}
)

func (s *schedulerStore) GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error) {
	query, args, err := sq.Select(taskColumns...).
		From("scheduled_tasks").
		Where(sq.Eq{"id": taskID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	task, err := scanTask(s.store.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", taskID, err)
	}
	return task, nil
}

func (s *schedulerStore) ListTasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	query, args, err := sq.Select(taskColumns...).
		From("scheduled_tasks").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.ScheduledTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// SaveTask upserts the task by ID.
func (s *schedulerStore) SaveTask(ctx context.Context, task *domain.ScheduledTask) error {
	if task == nil || task.ID == "" {
		return fmt.Errorf("%w: task without id", domain.ErrInvalidInput)
	}

	query, args, err := sq.Insert("scheduled_tasks").
		Columns(taskColumns...).
		Values(task.ID, task.Name, int64(task.Interval/time.Second), task.Enabled,
			timeOrNull(task.LastRun), timeOrNull(task.NextRun), timeOrNull(task.LastSuccess),
			textOrNull(task.LastError), textOrNull(task.LastWeek.String())).
		Suffix(`ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			interval_seconds = excluded.interval_seconds,
			enabled = excluded.enabled,
			last_run = excluded.last_run,
			next_run = excluded.next_run,
			last_success = excluded.last_success,
			last_error = excluded.last_error,
			last_week = excluded.last_week`).
		ToSql()
	if err != nil {
		return fmt.Errorf("building upsert: %w", err)
	}

	if _, err := s.store.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("saving task %s: %w", task.ID, err)
	}
	return nil
}

func (s *schedulerStore) RecordResult(ctx context.Context, result *domain.TaskResult) error {
	if result == nil || result.TaskID == "" {
		return fmt.Errorf("%w: run without task id", domain.ErrInvalidInput)
	}

	query, args, err := sq.Insert("task_runs").
		Columns(runColumns...).
		Values(result.TaskID, textOrNull(result.WeekEnding.String()),
			result.StartedAt.UTC().Format(time.RFC3339), result.EndedAt.UTC().Format(time.RFC3339),
			result.Success, result.Skipped, textOrNull(result.Error), result.ItemsIncluded).
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert: %w", err)
	}

	if _, err := s.store.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("recording run for %s: %w", result.TaskID, err)
	}
	return nil
}

func (s *schedulerStore) History(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	builder := sq.Select(runColumns...).
		From("task_runs").
		Where(sq.Eq{"task_id": taskID}).
		OrderBy("started_at DESC", "id DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var results []domain.TaskResult
	for rows.Next() {
		result, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}
	return results, rows.Err()
}

func (s *schedulerStore) PruneHistory(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM task_runs
		WHERE id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (PARTITION BY task_id ORDER BY started_at DESC, id DESC) AS rn
				FROM task_runs
			) WHERE rn <= ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning history: %w", err)
	}
	return nil
}

func scanTask(row rowScanner) (*domain.ScheduledTask, error) {
	var (
		task                          domain.ScheduledTask
		intervalSeconds               int64
		lastRun, nextRun, lastSuccess sql.NullString
		lastError, lastWeek           sql.NullString
	)
	if err := row.Scan(&task.ID, &task.Name, &intervalSeconds, &task.Enabled,
		&lastRun, &nextRun, &lastSuccess, &lastError, &lastWeek); err != nil {
		return nil, err
	}

	task.Interval = time.Duration(intervalSeconds) * time.Second
	task.LastRun = parseTime(lastRun)
	task.NextRun = parseTime(nextRun)
	task.LastSuccess = parseTime(lastSuccess)
	task.LastError = lastError.String
	task.LastWeek = parseWeek(lastWeek)
	return &task, nil
}

func scanRun(row rowScanner) (*domain.TaskResult, error) {
	var (
		result             domain.TaskResult
		week, errMsg       sql.NullString
		startedAt, endedAt string
	)
	if err := row.Scan(&result.TaskID, &week, &startedAt, &endedAt,
		&result.Success, &result.Skipped, &errMsg, &result.ItemsIncluded); err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	result.WeekEnding = parseWeek(week)
	result.StartedAt = parseTime(sql.NullString{String: startedAt, Valid: true})
	result.EndedAt = parseTime(sql.NullString{String: endedAt, Valid: true})
	result.Error = errMsg.String
	return &result, nil
}

func timeOrNull(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func textOrNull(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// parseTime returns the zero time for NULL or unparseable values.
func parseTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseWeek(s sql.NullString) domain.Day {
	if !s.Valid {
		return domain.Day{}
	}
	day, err := domain.ParseDay(s.String)
	if err != nil {
		return domain.Day{}
	}
	return day
}
