package driving

import "github.com/YX-UOM/Plithos/internal/core/domain"

// SettingsService reads and changes esgmon settings.
type SettingsService interface {
	// Get returns stored settings with API keys from the environment applied.
	Get() (*domain.AppSettings, error)
	Save(settings *domain.AppSettings) error
	GetDefaults() domain.AppSettings

	// Set parses value for a dotted key such as "digest.window_days".
	// Unknown keys and bad values are ErrInvalidInput.
	Set(key, value string) error
	Keys() []string

	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error
	SetRetrievalProviders(providers []domain.RetrievalProvider) error

	// Validate reports settings a digest run cannot start with.
	Validate() error

	// ValidateLLMConfig asks the configured model endpoint whether it answers.
	ValidateLLMConfig() error
}
