package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YX-UOM/Plithos/internal/core/domain"
)

// Defaults for the listing commands.
const (
	defaultDigestLimit = 10
	defaultTrendWeeks  = 12
	trendBarWidth      = 30
)

var showCmd = &cobra.Command{
	Use:   "show [week-ending]",
	Short: "Show a stored digest",
	Long: `Print the stored digest for a week, or the latest digest when no week is given.

Examples:
  esgmon show
  esgmon show 2026-01-08
  esgmon show 2026-01-08 --format markdown > digest.md`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

var digestsCmd = &cobra.Command{
	Use:     "digests",
	Aliases: []string{"list"},
	Short:   "List stored digests",
	Args:    cobra.NoArgs,
	RunE:    runDigests,
}

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Show theme frequency across recent digests",
	Long: `Total the stories per theme over recent weeks. With --theme, print the
week-by-week series for that theme instead.

Examples:
  esgmon trends
  esgmon trends --weeks 26 --theme green_finance`,
	Args: cobra.NoArgs,
	RunE: runTrends,
}

var (
	showFormat   string
	digestsLimit int
	digestsJSON  bool
	trendsWeeks  int
	trendsTheme  string
)

func init() {
	showCmd.Flags().StringVarP(&showFormat, "format", "f", "terminal", "Output format: terminal, markdown or json")
	digestsCmd.Flags().IntVarP(&digestsLimit, "limit", "n", defaultDigestLimit, "Number of digests to list")
	digestsCmd.Flags().BoolVar(&digestsJSON, "json", false, "Print as JSON")
	trendsCmd.Flags().IntVarP(&trendsWeeks, "weeks", "w", defaultTrendWeeks, "Weeks to look back")
	trendsCmd.Flags().StringVarP(&trendsTheme, "theme", "t", "", "Print the weekly series for one theme")

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(digestsCmd)
	rootCmd.AddCommand(trendsCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	digests, err := digestService()
	if err != nil {
		return err
	}
	r, err := renderer()
	if err != nil {
		return err
	}

	var week domain.Day
	if len(args) == 1 {
		if week, err = domain.ParseDay(args[0]); err != nil {
			return err
		}
	} else {
		latest, err := digests.Recent(cmd.Context(), 1)
		if err != nil {
			return fmt.Errorf("failed to list digests: %w", err)
		}
		if len(latest) == 0 {
			return fmt.Errorf("%w: no stored digests; run 'esgmon run' first", domain.ErrNotFound)
		}
		week = latest[0].WeekEnding
	}

	digest, err := digests.Get(cmd.Context(), week)
	if err != nil {
		return fmt.Errorf("digest for week ending %s: %w", week, err)
	}

	// Rendered digests go to stdout so they can be redirected.
	out := cmd.OutOrStdout()
	switch strings.ToLower(showFormat) {
	case "terminal", "":
		fmt.Fprintln(out, r.Terminal(digest, terminalWidth()))
	case "markdown", "md":
		fmt.Fprint(out, r.Markdown(digest))
	case "json":
		data, err := r.JSON(digest)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	default:
		return fmt.Errorf("%w: unknown format %q (want terminal, markdown or json)", domain.ErrInvalidInput, showFormat)
	}
	return nil
}

// digestListing is the JSON shape of one listed digest.
type digestListing struct {
	WeekEnding    domain.Day `json:"week_ending"`
	ItemsAnalyzed int        `json:"items_analyzed"`
	ItemsIncluded int        `json:"items_included"`
	CreatedAt     string     `json:"created_at"`
}

func runDigests(cmd *cobra.Command, _ []string) error {
	digests, err := digestService()
	if err != nil {
		return err
	}
	if digestsLimit < 1 {
		return fmt.Errorf("%w: --limit must be positive", domain.ErrInvalidInput)
	}

	summaries, err := digests.Recent(cmd.Context(), digestsLimit)
	if err != nil {
		return fmt.Errorf("failed to list digests: %w", err)
	}

	if digestsJSON {
		out := make([]digestListing, len(summaries))
		for i, s := range summaries {
			out[i] = digestListing{
				WeekEnding:    s.WeekEnding,
				ItemsAnalyzed: s.ItemsAnalyzed,
				ItemsIncluded: s.ItemsIncluded,
				CreatedAt:     s.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			}
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if len(summaries) == 0 {
		cmd.Println("No stored digests. Run 'esgmon run' to create one.")
		return nil
	}

	cmd.Printf("%-12s  %8s  %8s  %s\n", "WEEK ENDING", "ANALYSED", "INCLUDED", "CREATED")
	for _, s := range summaries {
		cmd.Printf("%-12s  %8d  %8d  %s\n", s.WeekEnding, s.ItemsAnalyzed, s.ItemsIncluded,
			s.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func runTrends(cmd *cobra.Command, _ []string) error {
	digests, err := digestService()
	if err != nil {
		return err
	}
	if trendsWeeks < 1 {
		return fmt.Errorf("%w: --weeks must be positive", domain.ErrInvalidInput)
	}

	fw := digests.Framework()
	if trendsTheme != "" {
		theme := domain.Theme(strings.ToLower(trendsTheme))
		if !fw.IsTheme(theme) {
			return fmt.Errorf("%w: unknown theme %q", domain.ErrInvalidInput, trendsTheme)
		}
		return printThemeSeries(cmd, theme)
	}

	freq, err := digests.ThemeFrequency(cmd.Context(), trendsWeeks)
	if err != nil {
		return fmt.Errorf("failed to compute theme frequency: %w", err)
	}

	total, maxCount := 0, 0
	for _, n := range freq {
		total += n
		maxCount = max(maxCount, n)
	}
	if total == 0 {
		cmd.Printf("No stories in the last %d weeks.\n", trendsWeeks)
		return nil
	}

	themes := fw.Themes()
	sort.SliceStable(themes, func(i, j int) bool { return freq[themes[i]] > freq[themes[j]] })

	cmd.Printf("Theme frequency, last %d weeks (%d stories)\n\n", trendsWeeks, total)
	for _, t := range themes {
		n := freq[t]
		cmd.Printf("  %-28s %4d  %s\n", t.Label(), n, bar(n, maxCount, trendBarWidth))
	}
	return nil
}

func printThemeSeries(cmd *cobra.Command, theme domain.Theme) error {
	digests, err := digestService()
	if err != nil {
		return err
	}

	points, err := digests.ThemeTrends(cmd.Context(), trendsWeeks, theme)
	if err != nil {
		return fmt.Errorf("failed to compute theme trends: %w", err)
	}
	if len(points) == 0 {
		cmd.Printf("No stored digests in the last %d weeks.\n", trendsWeeks)
		return nil
	}

	maxCount := 0
	for _, p := range points {
		maxCount = max(maxCount, p.Count)
	}

	cmd.Printf("%s, last %d weeks\n\n", theme.Label(), trendsWeeks)
	for _, p := range points {
		cmd.Printf("  %s %4d  %s\n", p.WeekEnding, p.Count, bar(p.Count, maxCount, trendBarWidth))
	}
	return nil
}

// bar scales n against maxCount to at most width blocks.
func bar(n, maxCount, width int) string {
	if n <= 0 || maxCount <= 0 {
		return ""
	}
	return strings.Repeat("█", max(n*width/maxCount, 1))
}
