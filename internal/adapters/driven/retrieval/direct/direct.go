// Package direct fetches publisher pages listed in the source registry and
// extracts linked articles.
package direct

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/core/ports/driven"
)

// Ensure Fetcher implements the interface.
var _ driven.SourceFetcher = (*Fetcher)(nil)

// Default configuration values.
const (
	DefaultTimeout  = 20 * time.Second
	DefaultMaxItems = 25
	DefaultAgent    = "esgmon/1.0 (+weekly ESG real estate digest)"

	// minTitleLen skips navigation links such as "Home" or "Read more".
	minTitleLen = 25
)

// containers are tried in order; the first that yields links wins.
var containers = []string{"article", "main", "[role=main]", "#content", "body"}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2 January 2006",
	"January 2, 2006",
	"02/01/2006",
}

// Fetcher reads a publisher page and returns its same-site article links.
type Fetcher struct {
	client   *http.Client
	maxItems int
	agent    string
}

// New creates a fetcher. A nil client gets a DefaultTimeout client.
func New(client *http.Client, maxItems int) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Fetcher{client: client, maxItems: maxItems, agent: DefaultAgent}
}

// Fetch returns items linked from the source page. Items without a visible
// date are kept; normalisation applies the window.
func (f *Fetcher) Fetch(ctx context.Context, source domain.DirectSource, _ domain.SearchWindow) ([]domain.RawItem, error) {
	base, err := url.Parse(source.URL)
	if err != nil {
		return nil, fmt.Errorf("parse %s url: %w", source.Name, err)
	}

	doc, err := f.fetchDocument(ctx, source.URL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source.Name, err)
	}

	for _, sel := range containers {
		items := f.extract(doc.Find(sel), base, source.Name)
		if len(items) > 0 {
			return items, nil
		}
	}
	return []domain.RawItem{}, nil
}

func (f *Fetcher) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.agent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, domain.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}

func (f *Fetcher) extract(scope *goquery.Selection, base *url.URL, publisher string) []domain.RawItem {
	var items []domain.RawItem
	seen := map[string]bool{base.String(): true}

	scope.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if a.ParentsFiltered("nav, header, footer").Length() > 0 {
			return true
		}
		title := CleanText(a.Text())
		if len(title) < minTitleLen {
			return true
		}
		href, _ := a.Attr("href")
		link, ok := resolve(base, href)
		if !ok || seen[link] {
			return true
		}
		seen[link] = true

		item := domain.RawItem{Title: title, URL: link, Source: publisher}
		block := a.Closest("article, li, .card, div")
		if snippet := CleanText(block.Find("p").First().Text()); snippet != "" && snippet != title {
			item.Snippet = snippet
		}
		if published, ok := findDate(block); ok {
			item.PublishedAt = &published
		}
		items = append(items, item)
		return len(items) < f.maxItems
	})
	return items
}

// resolve makes href absolute and keeps only http(s) links on the page's site.
func resolve(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	if !sameSite(abs.Hostname(), base.Hostname()) {
		return "", false
	}
	abs.Fragment = ""
	return abs.String(), true
}

func sameSite(a, b string) bool {
	a = strings.TrimPrefix(strings.ToLower(a), "www.")
	b = strings.TrimPrefix(strings.ToLower(b), "www.")
	return a == b || strings.HasSuffix(a, "."+b) || strings.HasSuffix(b, "."+a)
}

func findDate(block *goquery.Selection) (time.Time, bool) {
	tm := block.Find("time").First()
	candidates := []string{CleanText(tm.Text())}
	if dt, ok := tm.Attr("datetime"); ok {
		candidates = append([]string{strings.TrimSpace(dt)}, candidates...)
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, c); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

// CleanText collapses whitespace in extracted text.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StripHTML returns the visible text of an HTML fragment. Search snippets
// sometimes carry markup.
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return CleanText(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return CleanText(fragment)
	}
	return CleanText(doc.Text())
}
