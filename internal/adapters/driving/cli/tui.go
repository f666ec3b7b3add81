package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/YX-UOM/Plithos/internal/adapters/driving/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse digests, trends and sources in the terminal",
	Long: `Open the terminal UI.

The menu leads to stored digests, theme trends, the source registry and
help. From the digest list, r runs this week's digest and / jumps to a
week. The scheduler keeps running while the UI is open.

Press ? on any screen for its key bindings.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) (err error) {
	// Bubble Tea leaves the terminal in raw mode if a view panics.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "esgmon tui crashed: %v\n%s\n", r, debug.Stack())
			err = fmt.Errorf("tui: panic: %v", r)
		}
	}()

	digests, err := digestService()
	if err != nil {
		return err
	}
	r, err := renderer()
	if err != nil {
		return err
	}
	app, err := tui.NewApp(&tui.Ports{Digests: digests, Renderer: r})
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	app.WithContext(cmd.Context())

	stop := startBackground(cmd.Context())
	defer stop()

	if err := app.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
