package driven

// ConfigStore holds settings under dotted keys ("llm.provider").
//
// Typed getters never fail: a missing key or a value of the wrong shape
// reads as the zero value. Numeric, boolean and comma-separated strings
// convert, since that is what 'settings set' writes.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set changes one key. File-backed stores persist it before returning.
	Set(key string, value any) error
	Save() error
	Load() error

	// Path is shown to users as the settings location.
	Path() string
}
