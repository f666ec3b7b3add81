package domain

import (
	"strings"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an LLM service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// LLMSettings holds the reasoning LLM configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for cloud providers).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RetrievalProvider identifies a web search backend.
type RetrievalProvider string

// Available retrieval providers.
const (
	// RetrievalCustomSearch is the Google Programmable Search JSON API.
	RetrievalCustomSearch RetrievalProvider = "customsearch"

	// RetrievalGemini is Gemini with Google Search grounding.
	RetrievalGemini RetrievalProvider = "gemini"

	// RetrievalWebSearch is the Anthropic messages API web search tool.
	RetrievalWebSearch RetrievalProvider = "websearch"
)

// IsValid returns true if the retrieval provider is recognised.
func (p RetrievalProvider) IsValid() bool {
	switch p {
	case RetrievalCustomSearch, RetrievalGemini, RetrievalWebSearch:
		return true
	default:
		return false
	}
}

// Description returns a human-readable description of the provider.
func (p RetrievalProvider) Description() string {
	switch p {
	case RetrievalCustomSearch:
		return "Google Programmable Search"
	case RetrievalGemini:
		return "Gemini with Google Search grounding"
	case RetrievalWebSearch:
		return "Anthropic web search tool"
	default:
		return unknownDescription
	}
}

// ParseRetrievalProviders parses a list, dropping blanks and duplicates.
// Unknown names are returned separately.
func ParseRetrievalProviders(names []string) ([]RetrievalProvider, []string) {
	var providers []RetrievalProvider
	var unknown []string
	seen := make(map[RetrievalProvider]bool)
	for _, n := range names {
		p := RetrievalProvider(strings.ToLower(strings.TrimSpace(n)))
		if p == "" || seen[p] {
			continue
		}
		if !p.IsValid() {
			unknown = append(unknown, n)
			continue
		}
		seen[p] = true
		providers = append(providers, p)
	}
	return providers, unknown
}

// RetrievalSettings holds search backend configuration.
type RetrievalSettings struct {
	// Providers are the enabled search backends, queried in order.
	Providers []RetrievalProvider

	GoogleAPIKey    string
	GoogleCSEID     string
	GeminiAPIKey    string
	GeminiModel     string
	AnthropicAPIKey string

	// Concurrency bounds the number of in-flight queries.
	Concurrency int

	// RequestsPerMinute caps the shared query rate.
	RequestsPerMinute int

	// ResultsPerQuery caps results requested per query.
	ResultsPerQuery int

	// DirectSources enables fetching registry publisher pages.
	DirectSources bool

	// SourcesFile is an optional YAML registry overlay.
	SourcesFile string
}

// DigestFormat is an output file format.
type DigestFormat string

// Available digest formats.
const (
	FormatMarkdown DigestFormat = "markdown"
	FormatJSON     DigestFormat = "json"
)

// ParseFormats parses a format option. "both" expands to markdown and json.
func ParseFormats(names []string) ([]DigestFormat, error) {
	var formats []DigestFormat
	seen := make(map[DigestFormat]bool)
	add := func(f DigestFormat) {
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "":
			continue
		case "both":
			add(FormatMarkdown)
			add(FormatJSON)
		case "markdown", "md":
			add(FormatMarkdown)
		case "json":
			add(FormatJSON)
		default:
			return nil, &FormatError{Name: n}
		}
	}
	return formats, nil
}

// FormatError reports an unknown output format.
type FormatError struct {
	Name string
}

func (e *FormatError) Error() string {
	return "invalid input: unknown format " + e.Name + " (want markdown, json or both)"
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *FormatError) Unwrap() error {
	return ErrInvalidInput
}

// DigestSettings holds digest run configuration.
type DigestSettings struct {
	// WindowDays is the default lookback window.
	WindowDays int

	// ConflictPolicy governs re-runs for a persisted week.
	ConflictPolicy ConflictPolicy

	// OutputDir is where rendered files are written.
	OutputDir string

	// Formats are the file formats written after a run.
	Formats []DigestFormat
}

// DelegationSettings bounds calls to the reasoning collaborator.
type DelegationSettings struct {
	Timeout     time.Duration
	MaxAttempts int
	Backoff     time.Duration
	// ChunkSize is the maximum number of items per request.
	ChunkSize int
	MaxTokens int
}

// EmailSettings configures SMTP delivery of digests.
type EmailSettings struct {
	Enabled    bool
	SMTPServer string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	From       string
	To         []string
}

// IsConfigured returns true when delivery has enough to send.
func (e EmailSettings) IsConfigured() bool {
	return e.Enabled && e.SMTPServer != "" && e.From != "" && len(e.To) > 0
}

// GitHubSettings configures publishing digests as GitHub issues.
type GitHubSettings struct {
	Enabled bool
	Token   string
	Owner   string
	Repo    string
	Labels  []string
}

// IsConfigured returns true when an issue can be opened.
func (g GitHubSettings) IsConfigured() bool {
	return g.Enabled && g.Token != "" && g.Owner != "" && g.Repo != ""
}

// AppSettings holds all application settings.
type AppSettings struct {
	LLM        LLMSettings
	Retrieval  RetrievalSettings
	Digest     DigestSettings
	Delegation DelegationSettings
	Email      EmailSettings
	GitHub     GitHubSettings
	Scheduler  SchedulerConfig
}

// Settings defaults.
const (
	DefaultConcurrency       = 4
	DefaultRequestsPerMinute = 30
	DefaultResultsPerQuery   = 10
	DefaultOutputDir         = "outputs"
	DefaultDelegationTimeout = 120 * time.Second
	DefaultMaxAttempts       = 3
	DefaultBackoff           = 2 * time.Second
	DefaultChunkSize         = 60
	DefaultMaxTokens         = 8000
	DefaultSMTPPort          = 587
	DefaultGeminiModel       = "gemini-2.5-flash"
)

// DefaultAppSettings returns settings with sensible defaults.
// The LLM and retrieval keys are left unconfigured; users set them via settings or env.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LLM: LLMSettings{},
		Retrieval: RetrievalSettings{
			Providers:         []RetrievalProvider{RetrievalWebSearch},
			GeminiModel:       DefaultGeminiModel,
			Concurrency:       DefaultConcurrency,
			RequestsPerMinute: DefaultRequestsPerMinute,
			ResultsPerQuery:   DefaultResultsPerQuery,
			DirectSources:     true,
		},
		Digest: DigestSettings{
			WindowDays:     DefaultWindowDays,
			ConflictPolicy: ConflictReject,
			OutputDir:      DefaultOutputDir,
			Formats:        []DigestFormat{FormatMarkdown, FormatJSON},
		},
		Delegation: DelegationSettings{
			Timeout:     DefaultDelegationTimeout,
			MaxAttempts: DefaultMaxAttempts,
			Backoff:     DefaultBackoff,
			ChunkSize:   DefaultChunkSize,
			MaxTokens:   DefaultMaxTokens,
		},
		Email: EmailSettings{
			SMTPPort: DefaultSMTPPort,
		},
		Scheduler: DefaultSchedulerConfig(),
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderAnthropic,
		AIProviderOpenAI,
		AIProviderGemini,
		AIProviderOllama,
	}
}

// AllRetrievalProviders returns every search backend.
func AllRetrievalProviders() []RetrievalProvider {
	return []RetrievalProvider{
		RetrievalWebSearch,
		RetrievalCustomSearch,
		RetrievalGemini,
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-sonnet-4-20250514",
		AIProviderGemini:    DefaultGeminiModel,
	}
}
