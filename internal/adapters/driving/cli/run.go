package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driving"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect, analyse and store this week's digest",
	Long: `Runs the full pipeline: search every registry category and direct source,
normalise the results, have the LLM classify and summarise them, validate and
repair its answer, then store one digest for the week.

The lookback window defaults to digest.window_days and is capped at 14 days.
A week that already has a digest is rejected unless --overwrite is given.

Examples:
  esgmon run
  esgmon run --days 10
  esgmon run --start 2026-01-02 --end 2026-01-08 --overwrite
  esgmon run --dry-run --show`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var (
	runDays       int
	runStart      string
	runEnd        string
	runOverwrite  bool
	runDryRun     bool
	runFormat     string
	runNoPublish  bool
	runShowDigest bool
)

func init() {
	runCmd.Flags().IntVarP(&runDays, "days", "d", 0, "Lookback window in days (default from settings, max 14)")
	runCmd.Flags().StringVar(&runStart, "start", "", "First day covered, YYYY-MM-DD")
	runCmd.Flags().StringVar(&runEnd, "end", "", "Last day covered (the week ending), YYYY-MM-DD")
	runCmd.Flags().BoolVar(&runOverwrite, "overwrite", false, "Replace an existing digest for the same week")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Synthesise without storing, exporting or publishing")
	runCmd.Flags().StringVarP(&runFormat, "format", "f", "", "Exported files: markdown, json or both (default from settings)")
	runCmd.Flags().BoolVar(&runNoPublish, "no-publish", false, "Store and export but skip email and GitHub delivery")
	runCmd.Flags().BoolVar(&runShowDigest, "show", false, "Print the digest after the run")
	rootCmd.AddCommand(runCmd)
}

// runOptions builds RunOptions from the run flags.
func runOptions() (driving.RunOptions, error) {
	opts := driving.RunOptions{
		WindowDays:  runDays,
		DryRun:      runDryRun,
		SkipPublish: runNoPublish,
	}
	if runOverwrite {
		opts.Policy = domain.ConflictOverwrite
	}

	if runEnd != "" {
		end, err := domain.ParseDay(runEnd)
		if err != nil {
			return opts, err
		}
		opts.WeekEnding = end
	}

	if runStart != "" {
		if runDays > 0 {
			return opts, fmt.Errorf("%w: use either --days or --start", domain.ErrInvalidInput)
		}
		start, err := domain.ParseDay(runStart)
		if err != nil {
			return opts, err
		}
		end := opts.WeekEnding
		if end.IsZero() {
			end = domain.Today()
		}
		days := end.DaysSince(start) + 1
		if days < 1 {
			return opts, fmt.Errorf("%w: --start %s is after the week ending %s", domain.ErrInvalidInput, start, end)
		}
		opts.WindowDays = days
	}

	if runFormat != "" {
		formats, err := domain.ParseFormats(strings.Split(runFormat, ","))
		if err != nil {
			return opts, err
		}
		opts.Formats = formats
	}
	return opts, nil
}

func runRun(cmd *cobra.Command, _ []string) error {
	digests, err := digestService()
	if err != nil {
		return err
	}
	opts, err := runOptions()
	if err != nil {
		return err
	}

	result, err := digests.Run(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("digest run failed: %w", err)
	}

	printRunResult(cmd, result)

	if runShowDigest || runDryRun {
		if r, err := renderer(); err == nil && result.Digest != nil {
			cmd.Println()
			cmd.Println(r.Terminal(result.Digest, terminalWidth()))
		}
	}
	return nil
}

func printRunResult(cmd *cobra.Command, result *driving.RunResult) {
	d := result.Digest
	if d == nil {
		cmd.Printf("Run %s produced no digest.\n", result.RunID)
		return
	}

	state := "Stored"
	if !result.Persisted {
		state = "Dry run"
	}
	cmd.Printf("%s digest for week ending %s (run %s)\n", state, d.WeekEnding, result.RunID)
	cmd.Printf("  Retrieved:  %d raw, %d after normalisation\n", result.RawCount, result.NormalisedCount)
	cmd.Printf("  Included:   %d of %d items analysed\n", d.ItemsIncluded, d.ItemsAnalyzed)
	cmd.Printf("  Alerts:     %d regulatory, %d statistics\n", len(d.RegulatoryAlerts), len(d.KeyStatistics))

	for _, f := range result.Files {
		cmd.Printf("  Wrote %s\n", f)
	}
	if len(result.Warnings) > 0 {
		cmd.Printf("\n%d warnings:\n", len(result.Warnings))
		for _, w := range result.Warnings {
			cmd.Printf("  - %s\n", w)
		}
	}
}
