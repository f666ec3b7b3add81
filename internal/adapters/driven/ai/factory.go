// Package ai builds the configured reasoning LLM client.
package ai

import (
	"context"
	"fmt"
	"time"

	anthropicllm "github.com/YX-UOM/Plithos/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/YX-UOM/Plithos/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/YX-UOM/Plithos/internal/adapters/driven/llm/ollama"
	openaillm "github.com/YX-UOM/Plithos/internal/adapters/driven/llm/openai"
	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driven"
)

const pingTimeout = 5 * time.Second

const settingsHint = "run 'esgmon settings llm' to fix"

// New returns a client for the provider in settings, or nil when nothing
// usable is configured. JSON output is requested from every provider:
// the digest reasoner is the only caller.
func New(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL:  settings.BaseURL,
			Model:    settings.Model,
			JSONMode: true,
		}), nil
	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:   settings.APIKey,
			BaseURL:  settings.BaseURL,
			Model:    settings.Model,
			JSONMode: true,
		})
	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:   settings.APIKey,
			BaseURL:  settings.BaseURL,
			Model:    settings.Model,
			JSONMode: true,
		})
	case domain.AIProviderGemini:
		return geminillm.NewLLMService(ctx, geminillm.Config{
			APIKey:   settings.APIKey,
			BaseURL:  settings.BaseURL,
			Model:    settings.Model,
			JSONMode: true,
		})
	}
	return nil, fmt.Errorf("unsupported LLM provider %q", settings.Provider)
}

// Connect builds the client and pings it. Every failure, including an
// unconfigured provider, is an ErrLLMUnavailable carrying a settings hint.
func Connect(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := New(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w; %s", domain.ErrLLMUnavailable, err, settingsHint)
	}
	if svc == nil {
		return nil, fmt.Errorf("%w: no provider configured; %s", domain.ErrLLMUnavailable, settingsHint)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: %s unreachable: %w; %s", domain.ErrLLMUnavailable, settings.Provider, err, settingsHint)
	}
	return svc, nil
}
