package file

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlatten(t *testing.T) {
	flat := flatten(map[string]any{
		"verbose": true,
		"llm":     map[string]any{"provider": "ollama"},
		"publish": map[string]any{
			"github": map[string]any{"repo": "digests"},
		},
	})

	assert.Equal(t, map[string]any{
		"verbose":             true,
		"llm.provider":        "ollama",
		"publish.github.repo": "digests",
	}, flat)
	assert.Empty(t, flatten(nil))
}

func TestNest(t *testing.T) {
	tests := []struct {
		name string
		flat map[string]any
		want map[string]any
	}{
		{
			name: "tables",
			flat: map[string]any{"llm.provider": "ollama", "llm.model": "qwen2.5", "verbose": true},
			want: map[string]any{
				"llm":     map[string]any{"provider": "ollama", "model": "qwen2.5"},
				"verbose": true,
			},
		},
		{
			name: "scalar prefix stays flat",
			flat: map[string]any{"email": "on", "email.to": "x@example.com", "scheduler.run": true},
			want: map[string]any{
				"email":     "on",
				"email.to":  "x@example.com",
				"scheduler": map[string]any{"run": true},
			},
		},
		{
			name: "leaf under scalar leaf",
			flat: map[string]any{"a.b": 1, "a.b.c": 2},
			want: map[string]any{
				"a":     map[string]any{"b": 1},
				"a.b.c": 2,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nest(tt.flat))
		})
	}
}

func TestNestFlattenRoundTrip(t *testing.T) {
	flat := map[string]any{"digest.window_days": 7, "retrieval.providers": []string{"websearch"}}

	assert.Equal(t, flat, flatten(nest(flat)))
}
