package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/logger"
)

const defaultHistoryLimit = 5

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the weekly digest on a schedule",
	Long: `Run in the foreground and produce the digest every scheduler interval
(weekly by default). Edits to the analysis prompt apply to the next run.
A week that already has a digest is skipped.

Stop with Ctrl+C.

Enable the scheduler first:
  esgmon settings set scheduler.enabled true
  esgmon settings set scheduler.interval_hours 168`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

var scheduleStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show scheduled runs and their recent history",
	Args:  cobra.NoArgs,
	RunE:  runScheduleStatus,
}

var scheduleHistory int

func init() {
	scheduleStatusCmd.Flags().IntVarP(&scheduleHistory, "limit", "n", defaultHistoryLimit, "Number of recent runs to show")
	scheduleCmd.AddCommand(scheduleStatusCmd)
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	if services == nil || services.Scheduler == nil {
		return errNotConfigured("scheduler")
	}
	if !services.SchedulerConfig.Enabled {
		return errNotConfigured("scheduler (set scheduler.enabled true)")
	}

	task := services.SchedulerConfig.GetTaskConfig(domain.TaskIDWeeklyDigest)
	logger.Info("Scheduler running; weekly digest every %s", task.Interval)

	stop := startBackground(cmd.Context())
	defer stop()

	<-cmd.Context().Done()
	logger.Info("Scheduler stopping")
	return nil
}

func runScheduleStatus(cmd *cobra.Command, _ []string) error {
	if services == nil || services.Scheduler == nil {
		return errNotConfigured("scheduler")
	}

	statuses, err := services.Scheduler.Status(cmd.Context(), scheduleHistory)
	if err != nil {
		return fmt.Errorf("scheduler status: %w", err)
	}

	if !services.SchedulerConfig.Enabled {
		cmd.Println("Scheduler is disabled (set scheduler.enabled true).")
	}
	if len(statuses) == 0 {
		cmd.Println("No scheduled runs yet. Start the scheduler with 'esgmon schedule'.")
		return nil
	}

	for _, st := range statuses {
		printTaskStatus(cmd, st)
	}
	return nil
}

func printTaskStatus(cmd *cobra.Command, st domain.TaskStatus) {
	task := st.Task
	cmd.Printf("%s (%s): %s, every %s\n", task.Name, task.ID, enabledLabel(task.Enabled), task.Interval)
	cmd.Printf("  Next run:   %s\n", formatWhen(task.NextRun))
	cmd.Printf("  Last run:   %s\n", formatWhen(task.LastRun))
	if task.LastWeek.IsZero() {
		cmd.Println("  Last week:  none")
	} else {
		cmd.Printf("  Last week:  %s\n", task.LastWeek)
	}
	if task.LastError != "" {
		cmd.Printf("  Last error: %s\n", task.LastError)
	}

	if len(st.History) == 0 {
		cmd.Println()
		return
	}

	cmd.Println()
	cmd.Printf("  %-16s  %-10s  %-7s  %5s  %s\n", "STARTED", "WEEK", "OUTCOME", "ITEMS", "TOOK")
	for _, r := range st.History {
		cmd.Printf("  %-16s  %-10s  %-7s  %5d  %s\n",
			formatWhen(r.StartedAt), r.WeekEnding, r.Outcome(), r.ItemsIncluded, r.Duration().Round(time.Second))
	}
	cmd.Println()
}

func enabledLabel(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}
