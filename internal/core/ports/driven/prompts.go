package driven

// Prompt names. The digest reasoner loads both for every run.
const (
	// PromptDigestSystem carries the analyst instructions and answer shape.
	// The rubric is appended to it verbatim.
	PromptDigestSystem = "digest_system"

	// PromptDigestUser wraps one batch of items using the placeholders below.
	PromptDigestUser = "digest_user"
)

// Placeholders substituted into PromptDigestUser. Any other text, including
// a literal %, is sent unchanged.
const (
	PromptVarWeekEnding = "{week_ending}"
	PromptVarWindowDays = "{window_days}"
	PromptVarChunk      = "{chunk}"
	PromptVarChunks     = "{chunks}"
	PromptVarItems      = "{items}"
)

// PromptStore resolves prompt templates by name.
type PromptStore interface {
	Load(name string) (string, error)

	// Reload drops anything cached so edited prompts apply to the next run.
	Reload()
}
