// Package cli provides the esgmon command line interface.
// It is a driving adapter: commands call core services through driving ports.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driving"
	"github.com/YX-UOM/Plithos/internal/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

// defaultTerminalWidth is used when stdout is not a terminal.
const defaultTerminalWidth = 100

// skipBootstrap marks commands that run without services.
const skipBootstrap = "skip-bootstrap"

var (
	verbose   bool
	ephemeral bool
)

// DigestRenderer formats digests for output.
type DigestRenderer interface {
	Markdown(d *domain.Digest) string
	JSON(d *domain.Digest) ([]byte, error)
	Terminal(d *domain.Digest, width int) string
}

// PromptWatcher signals when the analysis prompt changes on disk.
type PromptWatcher interface {
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// Services bundles the ports and helpers the commands drive.
type Services struct {
	Digests   driving.DigestService
	Retrieval driving.RetrievalService
	Settings  driving.SettingsService
	Renderer  DigestRenderer

	// Scheduler runs the weekly digest in long-running commands.
	Scheduler       driving.Scheduler
	SchedulerConfig domain.SchedulerConfig

	// Prompts is watched for edits by long-running commands. Optional.
	Prompts PromptWatcher

	// RegistryPath is where `sources export` writes by default.
	RegistryPath string

	// SaveRegistry writes a registry overlay file.
	SaveRegistry func(path string, reg domain.SourceRegistry) error
}

// Options are the global flags handed to the bootstrap.
type Options struct {
	Verbose   bool
	Ephemeral bool
}

// Bootstrap builds the services for one invocation. The returned cleanup
// releases stores and clients.
type Bootstrap func(ctx context.Context, opts Options) (*Services, func(), error)

var (
	services  *Services
	bootstrap Bootstrap
	cleanup   func()
)

// SetServices injects ready-made services, bypassing the bootstrap.
func SetServices(s *Services) {
	services = s
}

// SetBootstrap sets the function that builds services on first use.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetVersion sets the version printed by `esgmon version`.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var rootCmd = &cobra.Command{
	Use:   "esgmon",
	Short: "ESG in real estate weekly digest agent",
	Long: `esgmon collects the week's ESG news, regulation and research for real estate,
has an LLM classify and summarise it against a fixed theme taxonomy, and stores
one digest per week.

Run 'esgmon run' to produce this week's digest, or 'esgmon tui' to browse
stored digests.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false,
		"Use in-memory stores; nothing is written to disk")
}

// setup applies global flags and builds services unless the command opts out.
func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[skipBootstrap] == "true" {
		return nil
	}
	if services != nil || bootstrap == nil {
		return nil
	}

	s, release, err := bootstrap(cmd.Context(), Options{Verbose: verbose, Ephemeral: ephemeral})
	if err != nil {
		return err
	}
	services = s
	cleanup = release
	return nil
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with a context and releases services afterwards.
func ExecuteContext(ctx context.Context) error {
	defer func() {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

// errNotConfigured reports a missing service.
func errNotConfigured(name string) error {
	return errors.New(name + " not configured")
}

func digestService() (driving.DigestService, error) {
	if services == nil || services.Digests == nil {
		return nil, errNotConfigured("digest service")
	}
	return services.Digests, nil
}

func retrievalService() (driving.RetrievalService, error) {
	if services == nil || services.Retrieval == nil {
		return nil, errNotConfigured("retrieval service")
	}
	return services.Retrieval, nil
}

func settingsService() (driving.SettingsService, error) {
	if services == nil || services.Settings == nil {
		return nil, errNotConfigured("settings service")
	}
	return services.Settings, nil
}

func renderer() (DigestRenderer, error) {
	if services == nil || services.Renderer == nil {
		return nil, errNotConfigured("renderer")
	}
	return services.Renderer, nil
}

// terminalWidth returns the stdout width, or a default when not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
	}
	return defaultTerminalWidth
}
