// Package customsearch retrieves items from the Google Programmable Search JSON API.
package customsearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driven"
)

// Ensure Retriever implements the interface.
var _ driven.Retriever = (*Retriever)(nil)

// Name is the retriever name used in item sources and warnings.
const Name = "customsearch"

// MaxResults is the API's per-request ceiling.
const MaxResults = 10

// Config holds Programmable Search credentials.
type Config struct {
	// APIKey is the Google API key (required).
	APIKey string

	// EngineID is the search engine cx identifier (required).
	EngineID string

	// Results is the number of results per query (1..10, default 10).
	Results int

	// Endpoint overrides the API base URL. Used by tests.
	Endpoint string
}

// Retriever searches the web through a Programmable Search engine.
type Retriever struct {
	svc      *customsearch.Service
	engineID string
	results  int64
	now      func() time.Time
}

// New creates a Programmable Search retriever.
func New(ctx context.Context, cfg Config) (*Retriever, error) {
	if cfg.APIKey == "" || cfg.EngineID == "" {
		return nil, fmt.Errorf("customsearch: API key and engine ID are required")
	}
	if cfg.Results <= 0 || cfg.Results > MaxResults {
		cfg.Results = MaxResults
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("customsearch: create service: %w", err)
	}

	return &Retriever{svc: svc, engineID: cfg.EngineID, results: int64(cfg.Results), now: time.Now}, nil
}

// Name returns the retriever name.
func (r *Retriever) Name() string {
	return Name
}

// Search runs one query restricted to the window. dateRestrict counts back
// from today, so a window ending in the past is sent as a date sort range.
func (r *Retriever) Search(ctx context.Context, query string, window domain.SearchWindow) ([]domain.RawItem, error) {
	call := r.svc.Cse.List().
		Q(query).
		Cx(r.engineID).
		Num(r.results).
		Context(ctx)
	if window.Days > 0 {
		call = restrict(call, window, domain.NewDay(r.now()))
	}

	res, err := call.Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%s: %w", Name, domain.ErrRateLimited)
		}
		return nil, fmt.Errorf("%s: %w", Name, err)
	}

	items := make([]domain.RawItem, 0, len(res.Items))
	for _, result := range res.Items {
		if result == nil || result.Link == "" {
			continue
		}
		items = append(items, domain.RawItem{
			Title:   strings.TrimSpace(result.Title),
			URL:     result.Link,
			Snippet: strings.Join(strings.Fields(result.Snippet), " "),
			Source:  result.DisplayLink,
		})
	}
	return items, nil
}

func restrict(call *customsearch.CseListCall, window domain.SearchWindow, today domain.Day) *customsearch.CseListCall {
	if window.End.Before(today) {
		const layout = "20060102"
		return call.Sort(fmt.Sprintf("date:r:%s:%s", window.Start().Format(layout), window.End.Format(layout)))
	}
	return call.DateRestrict(fmt.Sprintf("d%d", window.Days))
}
