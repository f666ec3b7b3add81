package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/YX-UOM/Plithos/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the LLM, search backends, digest output and delivery.

Secrets can also come from the environment (ANTHROPIC_API_KEY, OPENAI_API_KEY,
GEMINI_API_KEY, GOOGLE_API_KEY, GOOGLE_CSE_ID, GITHUB_TOKEN, SMTP_PASSWORD).`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a single setting",
	Long: `Set a single setting by key. Lists are comma-separated.

Pass - as the value to be prompted for it without echo, e.g. for API keys.

Examples:
  esgmon settings set digest.window_days 10
  esgmon settings set digest.formats markdown,json
  esgmon settings set github.token -

Run 'esgmon settings keys' for every key.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Interactively choose the LLM that classifies and summarises the week's items.`,
	RunE:  runSettingsLLM,
}

var settingsRetrievalCmd = &cobra.Command{
	Use:   "retrieval <provider>...",
	Short: "Choose search backends",
	Long: `Set the search backends queried for each registry query, in order.

Available providers:
  websearch    - Anthropic web search tool (needs an Anthropic key)
  customsearch - Google Programmable Search (needs GOOGLE_API_KEY and GOOGLE_CSE_ID)
  gemini       - Gemini with Google Search grounding (needs GEMINI_API_KEY)`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSettingsRetrieval,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsRetrievalCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}

	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	if settings.LLM.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", secretStatus(settings.LLM.APIKey))
	}
	cmd.Printf("  Status: %s\n", configuredStatus(settings.LLM.IsConfigured()))
	cmd.Println()

	r := settings.Retrieval
	cmd.Println("[Retrieval]")
	for _, p := range r.Providers {
		cmd.Printf("  Provider: %s\n", p.Description())
	}
	cmd.Printf("  Google API Key: %s\n", secretStatus(r.GoogleAPIKey))
	cmd.Printf("  Gemini API Key: %s\n", secretStatus(r.GeminiAPIKey))
	cmd.Printf("  Anthropic API Key: %s\n", secretStatus(r.AnthropicAPIKey))
	cmd.Printf("  Concurrency: %d, %d requests/min, %d results/query\n",
		r.Concurrency, r.RequestsPerMinute, r.ResultsPerQuery)
	cmd.Printf("  Direct sources: %s\n", yesNo(r.DirectSources))
	if r.SourcesFile != "" {
		cmd.Printf("  Sources file: %s\n", r.SourcesFile)
	}
	cmd.Println()

	d := settings.Digest
	cmd.Println("[Digest]")
	cmd.Printf("  Window: %d days\n", d.WindowDays)
	cmd.Printf("  Conflict policy: %s\n", d.ConflictPolicy)
	cmd.Printf("  Output: %s (%s)\n", d.OutputDir, joinFormats(d.Formats))
	cmd.Println()

	dl := settings.Delegation
	cmd.Println("[Delegation]")
	cmd.Printf("  Timeout: %s, %d attempts, backoff %s\n", dl.Timeout, dl.MaxAttempts, dl.Backoff)
	cmd.Printf("  Chunk size: %d items, max tokens %d\n", dl.ChunkSize, dl.MaxTokens)
	cmd.Println()

	cmd.Println("[Delivery]")
	if settings.Email.Enabled {
		cmd.Printf("  Email: %s:%d -> %s (%s)\n", settings.Email.SMTPServer, settings.Email.SMTPPort,
			strings.Join(settings.Email.To, ", "), configuredStatus(settings.Email.IsConfigured()))
	} else {
		cmd.Println("  Email: disabled")
	}
	if settings.GitHub.Enabled {
		cmd.Printf("  GitHub: %s/%s, token %s (%s)\n", settings.GitHub.Owner, settings.GitHub.Repo,
			secretStatus(settings.GitHub.Token), configuredStatus(settings.GitHub.IsConfigured()))
	} else {
		cmd.Println("  GitHub: disabled")
	}
	cmd.Println()

	cmd.Println("[Scheduler]")
	if settings.Scheduler.Enabled {
		task := settings.Scheduler.GetTaskConfig(domain.TaskIDWeeklyDigest)
		cmd.Printf("  Weekly digest: every %s\n", task.Interval.Round(time.Hour))
	} else {
		cmd.Println("  Disabled")
	}
	cmd.Println()

	if err := svc.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'esgmon settings llm' or 'esgmon settings set' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}

	key, value := args[0], args[1]
	if value == "-" {
		cmd.Printf("Enter %s: ", key)
		value = readPassword(bufio.NewReader(cmd.InOrStdin()))
		cmd.Println()
	}

	if err := svc.Set(key, value); err != nil {
		return err
	}

	shown := value
	if isSecretKey(key) {
		shown = maskAPIKey(value)
	}
	cmd.Printf("Set %s = %s\n", key, shown)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}
	for _, key := range svc.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if _, err := settingsService(); err != nil {
		return err
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureLLMProvider(cmd, reader)
}

func runSettingsRetrieval(cmd *cobra.Command, args []string) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}

	var names []string
	for _, arg := range args {
		names = append(names, strings.Split(arg, ",")...)
	}
	providers, unknown := domain.ParseRetrievalProviders(names)
	if len(unknown) > 0 {
		return fmt.Errorf("%w: unknown retrieval provider %s", domain.ErrInvalidInput, strings.Join(unknown, ", "))
	}

	if err := svc.SetRetrievalProviders(providers); err != nil {
		return fmt.Errorf("failed to set retrieval providers: %w", err)
	}

	for _, p := range providers {
		cmd.Printf("Enabled %s (%s)\n", p, p.Description())
	}
	if err := svc.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	}
	return nil
}

func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	svc, err := settingsService()
	if err != nil {
		return err
	}

	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	defaults := domain.DefaultLLMModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Blank keys fall back to the provider's environment variable.
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key (blank to use the environment): ")
		apiKey = readPassword(reader)
		cmd.Println()
	}

	if err := svc.SetLLMProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := svc.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// parseChoice reads a 1-based menu choice, falling back to def.
func parseChoice(input string, maxVal, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 || n > maxVal {
		return def
	}
	return n
}

// readPassword reads without echo from a terminal, else a plain line from reader.
func readPassword(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func secretStatus(key string) string {
	if key == "" {
		return "(not set)"
	}
	return maskAPIKey(key)
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func joinFormats(formats []domain.DigestFormat) string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// isSecretKey matches credential keys by suffix.
func isSecretKey(key string) bool {
	for _, suffix := range []string{"api_key", "token", "password"} {
		if strings.HasSuffix(key, suffix) {
			return true
		}
	}
	return false
}
