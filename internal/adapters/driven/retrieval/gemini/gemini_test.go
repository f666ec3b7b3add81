package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/YX-UOM/Plithos/internal/core/domain"
)

func TestNew_RequiresKey(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}

func TestRetriever_Search(t *testing.T) {
	var prompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"), r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		raw, _ := json.Marshal(body["contents"])
		prompt = string(raw)
		assert.Contains(t, body, "tools")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{
			"content":{"role":"model","parts":[{"text":"Two stories."}]},
			"groundingMetadata":{
				"groundingChunks":[
					{"web":{"uri":"https://r.example.com/a","title":"gresb.com"}},
					{"web":{"uri":"https://r.example.com/b","title":"fca.org.uk"}},
					{"web":{"uri":"https://r.example.com/a","title":"gresb.com"}}
				],
				"groundingSupports":[
					{"segment":{"text":"GRESB opened its 2026 assessment."},"groundingChunkIndices":[0]},
					{"segment":{"text":"FCA extended SDR labels."},"groundingChunkIndices":[1]}
				]
			}
		}]}`))
	}))
	defer server.Close()

	r, err := New(context.Background(), Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)
	week := domain.NewDay(time.Date(2025, 11, 6, 0, 0, 0, 0, time.UTC))

	items, err := r.Search(context.Background(), "GRESB assessment", domain.NewSearchWindow(week, 7))

	require.NoError(t, err)
	assert.Contains(t, prompt, "between 2025-10-30 and 2025-11-06")
	assert.Contains(t, prompt, "GRESB assessment")
	require.Len(t, items, 2)
	assert.Equal(t, domain.RawItem{
		Title:   "gresb.com",
		URL:     "https://r.example.com/a",
		Snippet: "GRESB opened its 2026 assessment.",
		Source:  "gresb.com",
	}, items[0])
	assert.Equal(t, "FCA extended SDR labels.", items[1].Snippet)
}

func TestGroundedItems_NoMetadata(t *testing.T) {
	assert.Empty(t, groundedItems(nil))
	assert.Empty(t, groundedItems(&genai.GenerateContentResponse{}))
	assert.NotNil(t, groundedItems(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}))
}

func TestRetriever_Search_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer server.Close()

	r, err := New(context.Background(), Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = r.Search(context.Background(), "q", domain.NewSearchWindow(domain.Today(), 7))

	assert.ErrorIs(t, err, domain.ErrRateLimited)
}
