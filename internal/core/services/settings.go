package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driven"
	"github.com/YX-UOM/Plithos/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyLLMProvider = "llm.provider"
	keyLLMModel    = "llm.model"
	keyLLMBaseURL  = "llm.base_url"
	keyLLMAPIKey   = "llm.api_key"

	keyRetrievalProviders = "retrieval.providers"
	keyGoogleAPIKey       = "retrieval.google_api_key"
	keyGoogleCSEID        = "retrieval.google_cse_id"
	keyGeminiAPIKey       = "retrieval.gemini_api_key"
	keyGeminiModel        = "retrieval.gemini_model"
	keyAnthropicAPIKey    = "retrieval.anthropic_api_key"
	keyConcurrency        = "retrieval.concurrency"
	keyRequestsPerMinute  = "retrieval.requests_per_minute"
	keyResultsPerQuery    = "retrieval.results_per_query"
	keyDirectSources      = "retrieval.direct_sources"
	keySourcesFile        = "sources.file"

	keyDigestWindowDays = "digest.window_days"
	keyDigestPolicy     = "digest.conflict_policy"
	keyDigestOutputDir  = "digest.output_dir"
	keyDigestFormats    = "digest.formats"

	keyDelegationTimeout   = "delegation.timeout_seconds"
	keyDelegationAttempts  = "delegation.max_attempts"
	keyDelegationBackoff   = "delegation.backoff_seconds"
	keyDelegationChunkSize = "delegation.chunk_size"
	keyDelegationMaxTokens = "delegation.max_tokens"

	keyEmailEnabled  = "email.enabled"
	keyEmailServer   = "email.smtp_server"
	keyEmailPort     = "email.smtp_port"
	keyEmailUser     = "email.smtp_user"
	keyEmailPassword = "email.smtp_password"
	keyEmailFrom     = "email.from"
	keyEmailTo       = "email.to"

	keyGitHubEnabled = "github.enabled"
	keyGitHubToken   = "github.token"
	keyGitHubOwner   = "github.owner"
	keyGitHubRepo    = "github.repo"
	keyGitHubLabels  = "github.labels"

	keySchedulerEnabled  = "scheduler.enabled"
	keySchedulerInterval = "scheduler.interval_hours"
)

// Environment variables that override stored secrets.
//
//nolint:gosec // G101: These are variable names, not credentials.
const (
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvGeminiAPIKey    = "GEMINI_API_KEY"
	EnvGoogleAPIKey    = "GOOGLE_API_KEY"
	EnvGoogleCSEID     = "GOOGLE_CSE_ID"
	EnvGitHubToken     = "GITHUB_TOKEN"
	EnvSMTPPassword    = "SMTP_PASSWORD"
)

type settingKind int

const (
	kindString settingKind = iota
	kindSecret
	kindInt
	kindBool
	kindList
)

// settingSpec describes one key accepted by Set.
type settingSpec struct {
	key      string
	kind     settingKind
	validate func(string) error
}

var settingSpecs = []settingSpec{
	{key: keyLLMProvider, kind: kindString, validate: validateLLMProvider},
	{key: keyLLMModel, kind: kindString},
	{key: keyLLMBaseURL, kind: kindString},
	{key: keyLLMAPIKey, kind: kindSecret},
	{key: keyRetrievalProviders, kind: kindList, validate: validateRetrievalProviders},
	{key: keyGoogleAPIKey, kind: kindSecret},
	{key: keyGoogleCSEID, kind: kindString},
	{key: keyGeminiAPIKey, kind: kindSecret},
	{key: keyGeminiModel, kind: kindString},
	{key: keyAnthropicAPIKey, kind: kindSecret},
	{key: keyConcurrency, kind: kindInt, validate: positive},
	{key: keyRequestsPerMinute, kind: kindInt, validate: positive},
	{key: keyResultsPerQuery, kind: kindInt, validate: between(1, 10)},
	{key: keyDirectSources, kind: kindBool},
	{key: keySourcesFile, kind: kindString},
	{key: keyDigestWindowDays, kind: kindInt, validate: between(1, domain.DefaultMaxWindowDays)},
	{key: keyDigestPolicy, kind: kindString, validate: validatePolicy},
	{key: keyDigestOutputDir, kind: kindString},
	{key: keyDigestFormats, kind: kindList, validate: validateFormats},
	{key: keyDelegationTimeout, kind: kindInt, validate: positive},
	{key: keyDelegationAttempts, kind: kindInt, validate: between(1, 10)},
	{key: keyDelegationBackoff, kind: kindInt, validate: nonNegative},
	{key: keyDelegationChunkSize, kind: kindInt, validate: positive},
	{key: keyDelegationMaxTokens, kind: kindInt, validate: positive},
	{key: keyEmailEnabled, kind: kindBool},
	{key: keyEmailServer, kind: kindString},
	{key: keyEmailPort, kind: kindInt, validate: between(1, 65535)},
	{key: keyEmailUser, kind: kindString},
	{key: keyEmailPassword, kind: kindSecret},
	{key: keyEmailFrom, kind: kindString},
	{key: keyEmailTo, kind: kindList},
	{key: keyGitHubEnabled, kind: kindBool},
	{key: keyGitHubToken, kind: kindSecret},
	{key: keyGitHubOwner, kind: kindString},
	{key: keyGitHubRepo, kind: kindString},
	{key: keyGitHubLabels, kind: kindList},
	{key: keySchedulerEnabled, kind: kindBool},
	{key: keySchedulerInterval, kind: kindInt, validate: positive},
}

func lookupSpec(key string) (settingSpec, bool) {
	for _, spec := range settingSpecs {
		if spec.key == key {
			return spec, true
		}
	}
	return settingSpec{}, false
}

// IsSecretKey reports whether a key holds a credential.
func IsSecretKey(key string) bool {
	spec, ok := lookupSpec(key)
	return ok && spec.kind == kindSecret
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	probe       driven.LLMProbe
	env         func(string) string
}

// NewSettingsService creates a new settings service.
// A nil probe skips connectivity checks.
func NewSettingsService(configStore driven.ConfigStore, probe driven.LLMProbe) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		probe:       probe,
		env:         os.Getenv,
	}
}

// SetEnv replaces the environment lookup.
func (s *SettingsService) SetEnv(env func(string) string) {
	if env == nil {
		env = func(string) string { return "" }
	}
	s.env = env
}

// Get retrieves current application settings with environment overrides applied.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := s.load()
	s.applyEnv(settings)
	return settings, nil
}

// load reads stored settings only. Setters go through load so that secrets
// from the environment are never written back to the config file.
func (s *SettingsService) load() *domain.AppSettings {
	defaults := domain.DefaultAppSettings()

	providers := defaults.Retrieval.Providers
	if names := s.configStore.GetStringSlice(keyRetrievalProviders); len(names) > 0 {
		if parsed, _ := domain.ParseRetrievalProviders(names); len(parsed) > 0 {
			providers = parsed
		}
	}

	formats := defaults.Digest.Formats
	if names := s.configStore.GetStringSlice(keyDigestFormats); len(names) > 0 {
		if parsed, err := domain.ParseFormats(names); err == nil && len(parsed) > 0 {
			formats = parsed
		}
	}

	policy := defaults.Digest.ConflictPolicy
	if p, err := domain.ParseConflictPolicy(s.configStore.GetString(keyDigestPolicy)); err == nil {
		policy = p
	}

	scheduler := domain.NewSchedulerConfig(
		s.getBool(keySchedulerEnabled, defaults.Scheduler.Enabled),
		time.Duration(s.configStore.GetInt(keySchedulerInterval))*time.Hour,
	)

	return &domain.AppSettings{
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Retrieval: domain.RetrievalSettings{
			Providers:         providers,
			GoogleAPIKey:      s.configStore.GetString(keyGoogleAPIKey),
			GoogleCSEID:       s.configStore.GetString(keyGoogleCSEID),
			GeminiAPIKey:      s.configStore.GetString(keyGeminiAPIKey),
			GeminiModel:       s.getString(keyGeminiModel, defaults.Retrieval.GeminiModel),
			AnthropicAPIKey:   s.configStore.GetString(keyAnthropicAPIKey),
			Concurrency:       s.getInt(keyConcurrency, defaults.Retrieval.Concurrency),
			RequestsPerMinute: s.getInt(keyRequestsPerMinute, defaults.Retrieval.RequestsPerMinute),
			ResultsPerQuery:   s.getInt(keyResultsPerQuery, defaults.Retrieval.ResultsPerQuery),
			DirectSources:     s.getBool(keyDirectSources, defaults.Retrieval.DirectSources),
			SourcesFile:       s.configStore.GetString(keySourcesFile),
		},
		Digest: domain.DigestSettings{
			WindowDays:     s.getInt(keyDigestWindowDays, defaults.Digest.WindowDays),
			ConflictPolicy: policy,
			OutputDir:      s.getString(keyDigestOutputDir, defaults.Digest.OutputDir),
			Formats:        formats,
		},
		Delegation: domain.DelegationSettings{
			Timeout:     s.getSeconds(keyDelegationTimeout, defaults.Delegation.Timeout),
			MaxAttempts: s.getInt(keyDelegationAttempts, defaults.Delegation.MaxAttempts),
			Backoff:     s.getSeconds(keyDelegationBackoff, defaults.Delegation.Backoff),
			ChunkSize:   s.getInt(keyDelegationChunkSize, defaults.Delegation.ChunkSize),
			MaxTokens:   s.getInt(keyDelegationMaxTokens, defaults.Delegation.MaxTokens),
		},
		Email: domain.EmailSettings{
			Enabled:    s.getBool(keyEmailEnabled, false),
			SMTPServer: s.configStore.GetString(keyEmailServer),
			SMTPPort:   s.getInt(keyEmailPort, defaults.Email.SMTPPort),
			SMTPUser:   s.configStore.GetString(keyEmailUser),
			SMTPPass:   s.configStore.GetString(keyEmailPassword),
			From:       s.configStore.GetString(keyEmailFrom),
			To:         s.configStore.GetStringSlice(keyEmailTo),
		},
		GitHub: domain.GitHubSettings{
			Enabled: s.getBool(keyGitHubEnabled, false),
			Token:   s.configStore.GetString(keyGitHubToken),
			Owner:   s.configStore.GetString(keyGitHubOwner),
			Repo:    s.configStore.GetString(keyGitHubRepo),
			Labels:  s.configStore.GetStringSlice(keyGitHubLabels),
		},
		Scheduler: scheduler,
	}
}

// applyEnv overlays secrets from the environment. An unset LLM provider is
// inferred from whichever provider key is present.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	anthropic := s.env(EnvAnthropicAPIKey)
	openai := s.env(EnvOpenAIAPIKey)
	gemini := s.env(EnvGeminiAPIKey)

	if settings.LLM.Provider == "" {
		switch {
		case anthropic != "":
			settings.LLM.Provider = domain.AIProviderAnthropic
		case openai != "":
			settings.LLM.Provider = domain.AIProviderOpenAI
		case gemini != "":
			settings.LLM.Provider = domain.AIProviderGemini
		}
		if settings.LLM.Provider != "" && settings.LLM.Model == "" {
			settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
		}
	}

	switch settings.LLM.Provider {
	case domain.AIProviderAnthropic:
		settings.LLM.APIKey = firstNonEmpty(anthropic, settings.LLM.APIKey)
	case domain.AIProviderOpenAI:
		settings.LLM.APIKey = firstNonEmpty(openai, settings.LLM.APIKey)
	case domain.AIProviderGemini:
		settings.LLM.APIKey = firstNonEmpty(gemini, settings.LLM.APIKey)
	}

	r := &settings.Retrieval
	r.AnthropicAPIKey = firstNonEmpty(anthropic, r.AnthropicAPIKey)
	if r.AnthropicAPIKey == "" && settings.LLM.Provider == domain.AIProviderAnthropic {
		r.AnthropicAPIKey = settings.LLM.APIKey
	}
	r.GeminiAPIKey = firstNonEmpty(gemini, r.GeminiAPIKey)
	if r.GeminiAPIKey == "" && settings.LLM.Provider == domain.AIProviderGemini {
		r.GeminiAPIKey = settings.LLM.APIKey
	}
	r.GoogleAPIKey = firstNonEmpty(s.env(EnvGoogleAPIKey), r.GoogleAPIKey)
	r.GoogleCSEID = firstNonEmpty(s.env(EnvGoogleCSEID), r.GoogleCSEID)

	settings.GitHub.Token = firstNonEmpty(s.env(EnvGitHubToken), settings.GitHub.Token)
	settings.Email.SMTPPass = firstNonEmpty(s.env(EnvSMTPPassword), settings.Email.SMTPPass)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Save persists application settings. Secrets are only written when non-empty.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	providers := make([]string, len(settings.Retrieval.Providers))
	for i, p := range settings.Retrieval.Providers {
		providers[i] = string(p)
	}
	formats := make([]string, len(settings.Digest.Formats))
	for i, f := range settings.Digest.Formats {
		formats[i] = string(f)
	}
	intervalHours := int(settings.Scheduler.GetTaskConfig(domain.TaskIDWeeklyDigest).Interval / time.Hour)

	values := []struct {
		key   string
		value any
	}{
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyRetrievalProviders, providers},
		{keyGoogleCSEID, settings.Retrieval.GoogleCSEID},
		{keyGeminiModel, settings.Retrieval.GeminiModel},
		{keyConcurrency, settings.Retrieval.Concurrency},
		{keyRequestsPerMinute, settings.Retrieval.RequestsPerMinute},
		{keyResultsPerQuery, settings.Retrieval.ResultsPerQuery},
		{keyDirectSources, settings.Retrieval.DirectSources},
		{keySourcesFile, settings.Retrieval.SourcesFile},
		{keyDigestWindowDays, settings.Digest.WindowDays},
		{keyDigestPolicy, settings.Digest.ConflictPolicy.String()},
		{keyDigestOutputDir, settings.Digest.OutputDir},
		{keyDigestFormats, formats},
		{keyDelegationTimeout, int(settings.Delegation.Timeout / time.Second)},
		{keyDelegationAttempts, settings.Delegation.MaxAttempts},
		{keyDelegationBackoff, int(settings.Delegation.Backoff / time.Second)},
		{keyDelegationChunkSize, settings.Delegation.ChunkSize},
		{keyDelegationMaxTokens, settings.Delegation.MaxTokens},
		{keyEmailEnabled, settings.Email.Enabled},
		{keyEmailServer, settings.Email.SMTPServer},
		{keyEmailPort, settings.Email.SMTPPort},
		{keyEmailUser, settings.Email.SMTPUser},
		{keyEmailFrom, settings.Email.From},
		{keyEmailTo, settings.Email.To},
		{keyGitHubEnabled, settings.GitHub.Enabled},
		{keyGitHubOwner, settings.GitHub.Owner},
		{keyGitHubRepo, settings.GitHub.Repo},
		{keyGitHubLabels, settings.GitHub.Labels},
		{keySchedulerEnabled, settings.Scheduler.Enabled},
		{keySchedulerInterval, intervalHours},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	secrets := []struct {
		key   string
		value string
	}{
		{keyLLMAPIKey, settings.LLM.APIKey},
		{keyGoogleAPIKey, settings.Retrieval.GoogleAPIKey},
		{keyGeminiAPIKey, settings.Retrieval.GeminiAPIKey},
		{keyAnthropicAPIKey, settings.Retrieval.AnthropicAPIKey},
		{keyEmailPassword, settings.Email.SMTPPass},
		{keyGitHubToken, settings.GitHub.Token},
	}
	for _, v := range secrets {
		if v.value == "" {
			continue
		}
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Keys lists every settable config key in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingSpecs))
	for i, spec := range settingSpecs {
		keys[i] = spec.key
	}
	return keys
}

// Set updates a single setting by key, converting the value to the key's
// type. Lists are comma-separated.
func (s *SettingsService) Set(key, value string) error {
	spec, ok := lookupSpec(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	value = strings.TrimSpace(value)
	if spec.validate != nil {
		if err := spec.validate(value); err != nil {
			if errors.Is(err, domain.ErrInvalidInput) {
				return fmt.Errorf("%s: %w", key, err)
			}
			return fmt.Errorf("%w: %s %v", domain.ErrInvalidInput, key, err)
		}
	}

	var typed any
	switch spec.kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		typed = n
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		typed = b
	case kindList:
		typed = splitList(value)
	default:
		typed = value
	}
	return s.configStore.Set(key, typed)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" && s.env(providerEnvKey(provider)) == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings := s.load()
	settings.LLM.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.LLM.Model = model
	} else {
		defaults := domain.DefaultLLMModels()
		if defaultModel, ok := defaults[provider]; ok {
			settings.LLM.Model = defaultModel
		}
	}

	// Set base URL based on provider type
	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

func providerEnvKey(p domain.AIProvider) string {
	switch p {
	case domain.AIProviderAnthropic:
		return EnvAnthropicAPIKey
	case domain.AIProviderOpenAI:
		return EnvOpenAIAPIKey
	case domain.AIProviderGemini:
		return EnvGeminiAPIKey
	default:
		return ""
	}
}

// SetRetrievalProviders configures the enabled search backends.
func (s *SettingsService) SetRetrievalProviders(providers []domain.RetrievalProvider) error {
	if len(providers) == 0 {
		return fmt.Errorf("%w: at least one retrieval provider is required", domain.ErrInvalidInput)
	}
	for _, p := range providers {
		if !p.IsValid() {
			return fmt.Errorf("%w: retrieval provider %q", domain.ErrInvalidInput, p)
		}
	}
	settings := s.load()
	settings.Retrieval.Providers = providers
	return s.Save(settings)
}

// Validate checks that current settings can run a digest.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: set llm.provider and its API key", domain.ErrLLMUnavailable)
	}
	if len(settings.Retrieval.Providers) == 0 {
		return fmt.Errorf("%w: no retrieval providers enabled", domain.ErrInvalidInput)
	}
	for _, p := range settings.Retrieval.Providers {
		if err := checkRetrievalCredentials(p, settings.Retrieval); err != nil {
			return err
		}
	}
	if settings.Email.Enabled && !settings.Email.IsConfigured() {
		return fmt.Errorf("%w: email is enabled but smtp_server, from or to is missing", domain.ErrInvalidInput)
	}
	if settings.GitHub.Enabled && !settings.GitHub.IsConfigured() {
		return fmt.Errorf("%w: github is enabled but token, owner or repo is missing", domain.ErrInvalidInput)
	}
	return nil
}

func checkRetrievalCredentials(p domain.RetrievalProvider, r domain.RetrievalSettings) error {
	switch p {
	case domain.RetrievalCustomSearch:
		if r.GoogleAPIKey == "" || r.GoogleCSEID == "" {
			return fmt.Errorf("%w: %s needs %s and %s", domain.ErrInvalidInput, p, EnvGoogleAPIKey, EnvGoogleCSEID)
		}
	case domain.RetrievalGemini:
		if r.GeminiAPIKey == "" {
			return fmt.Errorf("%w: %s needs %s", domain.ErrInvalidInput, p, EnvGeminiAPIKey)
		}
	case domain.RetrievalWebSearch:
		if r.AnthropicAPIKey == "" {
			return fmt.Errorf("%w: %s needs %s", domain.ErrInvalidInput, p, EnvAnthropicAPIKey)
		}
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.probe == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.probe.Probe(context.Background(), settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return time.Duration(s.configStore.GetInt(key)) * time.Second
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func validateLLMProvider(v string) error {
	if !domain.AIProvider(v).IsValid() {
		return fmt.Errorf("unknown provider %q", v)
	}
	return nil
}

func validateRetrievalProviders(v string) error {
	providers, unknown := domain.ParseRetrievalProviders(splitList(v))
	if len(unknown) > 0 {
		return fmt.Errorf("unknown providers %s", strings.Join(unknown, ", "))
	}
	if len(providers) == 0 {
		return errors.New("at least one provider is required")
	}
	return nil
}

func validatePolicy(v string) error {
	_, err := domain.ParseConflictPolicy(v)
	return err
}

func validateFormats(v string) error {
	_, err := domain.ParseFormats(splitList(v))
	return err
}

func positive(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return errors.New("must be a positive integer")
	}
	return nil
}

func nonNegative(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return errors.New("must be zero or more")
	}
	return nil
}

func between(lo, hi int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < lo || n > hi {
			return fmt.Errorf("must be between %d and %d", lo, hi)
		}
		return nil
	}
}
