// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// LLMService is a chat model behind the reasoner. Adapters exist for
// Anthropic, OpenAI, Gemini and Ollama; all are configured for JSON answers.
//
// Errors wrap domain.ErrRateLimited when the provider throttles and
// domain.ErrLLMUnavailable when retrying cannot help (bad key, unknown
// model, unreachable endpoint).
type LLMService interface {
	// Chat sends the conversation and returns the model's text answer.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	ModelName() string

	// Ping checks credentials without running inference.
	Ping(ctx context.Context) error

	Close() error
}

// ChatMessage is one conversation turn.
type ChatMessage struct {
	// Role is "system", "user" or "assistant".
	Role    string
	Content string
}

// ChatOptions bounds a single answer.
type ChatOptions struct {
	MaxTokens int

	// Temperature is 0 for the provider default.
	Temperature float64
}
