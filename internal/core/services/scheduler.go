package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driven"
	"github.com/YX-UOM/Plithos/internal/core/ports/driving"
	"github.com/YX-UOM/Plithos/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

const (
	// pollInterval is how often the loop looks for due tasks.
	pollInterval = time.Minute

	// historyRetention is the number of runs kept per task.
	historyRetention = 100
)

// Scheduler produces the weekly digest on a fixed interval. Task state
// lives in the SchedulerStore, so a restarted process neither repeats
// nor skips a week.
type Scheduler struct {
	config  domain.SchedulerConfig
	store   driven.SchedulerStore
	digests driving.DigestService
	now     func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	digests driving.DigestService,
) *Scheduler {
	return &Scheduler{
		config:  config,
		store:   store,
		digests: digests,
		now:     time.Now,
	}
}

// Start runs due tasks immediately, then polls until ctx is cancelled or
// Stop is called. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	if err := s.syncTasks(ctx); err != nil {
		logger.Warn("scheduler: syncing tasks: %v", err)
	}

	s.runDue(ctx)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}

// Stop ends the loop and waits for in-flight runs.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Status returns every stored task with its recent runs.
func (s *Scheduler) Status(ctx context.Context, historyLimit int) ([]domain.TaskStatus, error) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	statuses := make([]domain.TaskStatus, 0, len(tasks))
	for _, task := range tasks {
		history, err := s.store.History(ctx, task.ID, historyLimit)
		if err != nil {
			return nil, fmt.Errorf("history for %s: %w", task.ID, err)
		}
		statuses = append(statuses, domain.TaskStatus{Task: task, History: history})
	}
	return statuses, nil
}

// syncTasks brings stored tasks in line with the configuration.
func (s *Scheduler) syncTasks(ctx context.Context) error {
	cfg := s.config.GetTaskConfig(domain.TaskIDWeeklyDigest)
	if cfg.Interval <= 0 {
		return nil
	}

	task, err := s.store.GetTask(ctx, domain.TaskIDWeeklyDigest)
	if err != nil {
		return err
	}
	now := s.now()
	if task == nil {
		// First run is one interval out; `esgmon run` covers the current week.
		task = &domain.ScheduledTask{
			ID:       domain.TaskIDWeeklyDigest,
			Name:     "Weekly Digest",
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  now.Add(cfg.Interval),
		}
	} else {
		task.Reconfigure(cfg, now)
	}
	return s.store.SaveTask(ctx, task)
}

// runDue starts every due task in the background.
func (s *Scheduler) runDue(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Warn("scheduler: listing tasks: %v", err)
		return
	}

	now := s.now()
	for i := range tasks {
		task := tasks[i]
		if !task.Due(now) {
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runTask(ctx, &task)
		}()
	}
}

// runTask executes one task and records the outcome.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	var result domain.TaskResult
	switch task.ID {
	case domain.TaskIDWeeklyDigest:
		result = s.runWeeklyDigest(ctx, task)
	default:
		logger.Warn("scheduler: unknown task %q", task.ID)
		return
	}

	task.Record(result)
	if result.Success {
		logger.Info("scheduler: %s for week ending %s: %s in %s",
			task.ID, result.WeekEnding, result.Outcome(), result.Duration().Round(time.Second))
	} else {
		logger.Error("scheduler: %s for week ending %s failed: %s", task.ID, result.WeekEnding, result.Error)
	}

	if err := s.store.SaveTask(ctx, task); err != nil {
		logger.Warn("scheduler: saving task %s: %v", task.ID, err)
	}
	if err := s.store.RecordResult(ctx, &result); err != nil {
		logger.Warn("scheduler: recording run for %s: %v", task.ID, err)
	}
	if err := s.store.PruneHistory(ctx, historyRetention); err != nil {
		logger.Warn("scheduler: pruning history: %v", err)
	}
}

// runWeeklyDigest generates the digest for the week ending today. A week
// that is already stored counts as a skipped success.
func (s *Scheduler) runWeeklyDigest(ctx context.Context, task *domain.ScheduledTask) domain.TaskResult {
	start := s.now()
	week := domain.NewDay(start)
	result := domain.TaskResult{
		TaskID:     task.ID,
		StartedAt:  start,
		WeekEnding: week,
		Success:    true,
	}
	finish := func() domain.TaskResult {
		result.EndedAt = s.now()
		return result
	}

	if s.digests == nil || task.LastWeek.Equal(week) {
		result.Skipped = true
		return finish()
	}

	run, err := s.digests.Run(ctx, driving.RunOptions{WeekEnding: week})
	switch {
	case errors.Is(err, domain.ErrDuplicateWeek):
		logger.Debug("scheduler: %v", err)
		result.Skipped = true
	case err != nil:
		result.Success = false
		result.Error = err.Error()
	default:
		for _, w := range run.Warnings {
			logger.Warn("scheduler: weekly digest: %s", w)
		}
		if run.Digest != nil {
			result.ItemsIncluded = run.Digest.ItemsIncluded
		}
	}
	return finish()
}
