package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YX-UOM/Plithos/internal/core/domain"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the source registry",
	Long: `List the search categories, their queries and the direct publisher pages
that each run collects from.

Customise the registry by exporting it, editing the YAML and pointing
sources.file at it:
  esgmon sources export ~/esg-sources.yaml
  esgmon settings set sources.file ~/esg-sources.yaml`,
	Args: cobra.NoArgs,
	RunE: runSourcesList,
}

var sourcesSearchCmd = &cobra.Command{
	Use:   "search <category>",
	Short: "Run one category's queries without analysing them",
	Args:  cobra.ExactArgs(1),
	RunE:  runSourcesSearch,
}

var sourcesExportCmd = &cobra.Command{
	Use:   "export [path]",
	Short: "Write the registry as YAML",
	Long:  `Write the registry in use as a YAML overlay file, by default to the configured registry path.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSourcesExport,
}

var sourcesSearchDays int

func init() {
	sourcesSearchCmd.Flags().IntVarP(&sourcesSearchDays, "days", "d", 0, "Lookback window in days (default 7, max 14)")
	sourcesCmd.AddCommand(sourcesSearchCmd)
	sourcesCmd.AddCommand(sourcesExportCmd)
	rootCmd.AddCommand(sourcesCmd)
}

func runSourcesList(cmd *cobra.Command, _ []string) error {
	digests, err := digestService()
	if err != nil {
		return err
	}

	reg := digests.Registry()
	cats := reg.Categories()
	cmd.Printf("%d queries across %d categories\n\n", reg.QueryCount(), len(cats))
	for _, c := range cats {
		cmd.Printf("%s (weight %.2f): %s\n", c.Name, c.Weight, c.Description)
		for _, q := range c.Queries {
			cmd.Printf("  - %s\n", q)
		}
		cmd.Println()
	}

	direct := reg.DirectSources()
	if len(direct) == 0 {
		return nil
	}
	cmd.Printf("Direct sources (%d)\n", len(direct))
	for _, d := range direct {
		cmd.Printf("  - %s [%s] %s\n", d.Name, d.Category, d.URL)
	}
	return nil
}

func runSourcesSearch(cmd *cobra.Command, args []string) error {
	retrieval, err := retrievalService()
	if err != nil {
		return err
	}
	digests, err := digestService()
	if err != nil {
		return err
	}

	window := domain.NewSearchWindow(domain.Today(), digests.Framework().EffectiveWindow(sourcesSearchDays))
	items, warnings, err := retrieval.SearchCategory(cmd.Context(), args[0], window)
	if err != nil {
		return fmt.Errorf("search %s: %w", args[0], err)
	}

	cmd.Printf("%d items for %s over %d days\n\n", len(items), args[0], window.Days)
	for i, item := range items {
		cmd.Printf("%d. %s\n", i+1, item.Title)
		cmd.Printf("   %s\n", item.URL)
		if item.PublishedAt != nil {
			cmd.Printf("   %s", domain.NewDay(*item.PublishedAt))
			if item.Source != "" {
				cmd.Printf(", %s", item.Source)
			}
			cmd.Println()
		}
	}
	for _, w := range warnings {
		cmd.Printf("Warning: %s\n", w)
	}
	return nil
}

func runSourcesExport(cmd *cobra.Command, args []string) error {
	digests, err := digestService()
	if err != nil {
		return err
	}
	if services.SaveRegistry == nil {
		return errNotConfigured("registry export")
	}

	path := services.RegistryPath
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("%w: no registry path; pass one", domain.ErrInvalidInput)
	}

	if err := services.SaveRegistry(path, digests.Registry()); err != nil {
		return fmt.Errorf("failed to export registry: %w", err)
	}
	cmd.Printf("Wrote registry to %s\n", path)
	return nil
}
