package reasoning

import (
	"fmt"

	"github.com/YX-UOM/Plithos/internal/core/ports/driven"
)

// Fallback templates for when no PromptStore is wired, e.g. --ephemeral runs.
const (
	builtinSystem = `You are an analyst producing a weekly digest of ESG developments in real estate.
Work only from the items supplied and never invent URLs or figures.
Answer with one JSON object with the keys week_ending, items_analyzed, items_included,
top_stories, by_theme, regulatory_alerts and key_statistics.`

	builtinUser = "Week ending: {week_ending}\nLookback window: {window_days} days\nBatch {chunk} of {chunks}\n\nItems (JSON):\n{items}"
)

func builtinPrompt(name string) (string, error) {
	switch name {
	case driven.PromptDigestSystem:
		return builtinSystem, nil
	case driven.PromptDigestUser:
		return builtinUser, nil
	default:
		return "", fmt.Errorf("unknown prompt %q", name)
	}
}
