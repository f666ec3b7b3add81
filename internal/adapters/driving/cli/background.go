package cli

import (
	"context"

	"github.com/YX-UOM/Plithos/internal/logger"
)

// startBackground runs the scheduler, when enabled, and the prompt watcher for
// long-running commands. The returned func stops both.
func startBackground(ctx context.Context) func() {
	if services == nil {
		return func() {}
	}

	bgCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	running := 0

	if services.SchedulerConfig.Enabled && services.Scheduler != nil {
		running++
		go func() {
			defer func() { done <- struct{}{} }()
			if err := services.Scheduler.Start(bgCtx); err != nil && bgCtx.Err() == nil {
				// Scheduler errors shouldn't take the foreground command down.
				logger.Warn("scheduler stopped: %v", err)
			}
		}()
	}

	if services.Prompts != nil {
		changes, err := services.Prompts.Watch(bgCtx)
		if err != nil {
			logger.Warn("not watching analysis prompt: %v", err)
		} else {
			running++
			go func() {
				defer func() { done <- struct{}{} }()
				for range changes {
					logger.Debug("next run picks up the reloaded prompt")
				}
			}()
		}
	}

	return func() {
		if services.Scheduler != nil && services.SchedulerConfig.Enabled {
			if err := services.Scheduler.Stop(); err != nil {
				logger.Warn("scheduler stop error: %v", err)
			}
		}
		cancel()
		for ; running > 0; running-- {
			<-done
		}
	}
}
