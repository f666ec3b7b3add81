package domain

import "time"

// TaskIDWeeklyDigest identifies the recurring digest run.
const TaskIDWeeklyDigest = "weekly-digest"

// WeeklyInterval is the default digest cadence.
const WeeklyInterval = 7 * 24 * time.Hour

// ScheduledTask is the persisted state of a recurring job. It survives
// restarts so a long-running process picks up where the last one stopped.
type ScheduledTask struct {
	ID       string
	Name     string
	Interval time.Duration
	Enabled  bool

	LastRun     time.Time
	NextRun     time.Time
	LastSuccess time.Time
	LastError   string

	// LastWeek is the week ending of the last digest the task stored.
	LastWeek Day
}

// Due reports whether the task should run at now. A task that never ran
// (zero NextRun) is due immediately.
func (t *ScheduledTask) Due(now time.Time) bool {
	return t.Enabled && !t.NextRun.After(now)
}

// Reconfigure applies cfg. Changing the interval reschedules from now.
func (t *ScheduledTask) Reconfigure(cfg TaskConfig, now time.Time) {
	t.Enabled = cfg.Enabled
	if t.Interval != cfg.Interval {
		t.Interval = cfg.Interval
		t.NextRun = now.Add(cfg.Interval)
	}
}

// Record folds a finished run into the task and schedules the next one.
func (t *ScheduledTask) Record(r TaskResult) {
	t.LastRun = r.StartedAt
	t.NextRun = r.EndedAt.Add(t.Interval)
	if !r.Success {
		t.LastError = r.Error
		return
	}
	t.LastError = ""
	t.LastSuccess = r.EndedAt
	if !r.Skipped && !r.WeekEnding.IsZero() {
		t.LastWeek = r.WeekEnding
	}
}

// TaskResult is one execution of a scheduled task.
type TaskResult struct {
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string

	// WeekEnding is the digest week the run targeted.
	WeekEnding Day

	// ItemsIncluded is the number of stories in the stored digest.
	ItemsIncluded int

	// Skipped marks a run that found the week already stored.
	Skipped bool
}

// Duration is how long the run took.
func (r TaskResult) Duration() time.Duration {
	if r.EndedAt.Before(r.StartedAt) {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Outcome summarises the run in one word.
func (r TaskResult) Outcome() string {
	switch {
	case !r.Success:
		return "failed"
	case r.Skipped:
		return "skipped"
	default:
		return "ok"
	}
}

// TaskStatus pairs a task with its recent runs, most recent first.
type TaskStatus struct {
	Task    ScheduledTask
	History []TaskResult
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	// Enabled is the master switch. Long-running commands only start the
	// scheduler when it is set.
	Enabled bool

	TaskConfigs map[string]TaskConfig
}

// TaskConfig holds configuration for a single task.
type TaskConfig struct {
	Enabled  bool
	Interval time.Duration
}

// NewSchedulerConfig returns a config running the weekly digest every
// interval. A non-positive interval falls back to WeeklyInterval.
func NewSchedulerConfig(enabled bool, interval time.Duration) SchedulerConfig {
	if interval <= 0 {
		interval = WeeklyInterval
	}
	return SchedulerConfig{
		Enabled: enabled,
		TaskConfigs: map[string]TaskConfig{
			TaskIDWeeklyDigest: {Enabled: true, Interval: interval},
		},
	}
}

// GetTaskConfig returns the configuration for a task, or the zero
// TaskConfig when it is not configured.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	if c.TaskConfigs == nil {
		return TaskConfig{}
	}
	return c.TaskConfigs[taskID]
}

// DefaultSchedulerConfig runs the digest weekly.
func DefaultSchedulerConfig() SchedulerConfig {
	return NewSchedulerConfig(true, WeeklyInterval)
}
