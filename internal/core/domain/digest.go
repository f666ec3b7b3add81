package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultWindowDays is the default lookback window in days.
const DefaultWindowDays = 7

// dayLayout is the ISO date layout used for week_ending and deadlines.
const dayLayout = "2006-01-02"

// Day is a calendar date with no time of day, held at UTC midnight.
type Day struct {
	t time.Time
}

// NewDay truncates t to its calendar date.
func NewDay(t time.Time) Day {
	y, m, d := t.Date()
	return Day{t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date in local time.
func Today() Day {
	return NewDay(time.Now())
}

// ParseDay parses a YYYY-MM-DD date. RFC3339 timestamps are also accepted.
func ParseDay(s string) (Day, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dayLayout, s); err == nil {
		return NewDay(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return NewDay(t), nil
	}
	return Day{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, s)
}

// Time returns the day as a UTC midnight time.
func (d Day) Time() time.Time { return d.t }

// IsZero reports whether the day is unset.
func (d Day) IsZero() bool { return d.t.IsZero() }

// Before reports whether d is before other.
func (d Day) Before(other Day) bool { return d.t.Before(other.t) }

// After reports whether d is after other.
func (d Day) After(other Day) bool { return d.t.After(other.t) }

// Equal reports whether both days are the same date.
func (d Day) Equal(other Day) bool { return d.t.Equal(other.t) }

// AddDays returns the day n days later (or earlier when n is negative).
func (d Day) AddDays(n int) Day {
	return Day{t: d.t.AddDate(0, 0, n)}
}

// DaysSince returns the number of whole days from other to d.
func (d Day) DaysSince(other Day) int {
	return int(d.t.Sub(other.t).Hours() / 24)
}

// Format formats the day with a time layout.
func (d Day) Format(layout string) string {
	return d.t.Format(layout)
}

// String returns the ISO date.
func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(dayLayout)
}

// SearchWindow is the publication period one run covers: from Days before
// End up to and including End.
type SearchWindow struct {
	End  Day
	Days int
}

// NewSearchWindow returns the window of days ending on end.
func NewSearchWindow(end Day, days int) SearchWindow {
	return SearchWindow{End: end, Days: days}
}

// Start is the earliest publication day the window admits.
func (w SearchWindow) Start() Day {
	return w.End.AddDays(-w.Days)
}

// Contains reports whether d falls inside the window.
func (w SearchWindow) Contains(d Day) bool {
	return !d.Before(w.Start()) && !d.After(w.End)
}

func (w SearchWindow) String() string {
	return fmt.Sprintf("%s..%s", w.Start(), w.End)
}

// MarshalJSON encodes the day as "YYYY-MM-DD".
func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes "YYYY-MM-DD" or RFC3339. An empty string yields the zero day.
func (d *Day) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Day{}
		return nil
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// RawItem is one retrieved search result before synthesis.
// RawItems are never persisted individually.
type RawItem struct {
	// Title is the headline.
	Title string `json:"title"`

	// URL is the deduplication key.
	URL string `json:"url"`

	// Snippet is a short excerpt, may be empty.
	Snippet string `json:"snippet,omitempty"`

	// Source names the publisher or retriever.
	Source string `json:"source,omitempty"`

	// PublishedAt is optional; some sources omit it.
	PublishedAt *time.Time `json:"published_at,omitempty"`

	// Category is the registry category that produced the item.
	Category string `json:"category,omitempty"`
}

// DigestItem is one classified story in a digest.
type DigestItem struct {
	Title      string     `json:"title"`
	Source     string     `json:"source"`
	URL        string     `json:"url"`
	Summary    string     `json:"summary"`
	Theme      Theme      `json:"theme"`
	Importance Importance `json:"importance"`
	Geography  Geography  `json:"geography,omitempty"`
}

// ThemeSummary aggregates stories for one theme.
type ThemeSummary struct {
	Count      int      `json:"count"`
	Highlights []string `json:"highlights"`
}

// DeadlineOngoing marks a regulatory alert with no fixed deadline.
const DeadlineOngoing = "ongoing"

// RegulatoryAlert is an upcoming compliance item.
type RegulatoryAlert struct {
	Title          string `json:"title"`
	Deadline       string `json:"deadline"`
	ActionRequired string `json:"action_required"`
}

// KeyStatistic is a notable figure reported in the week.
type KeyStatistic struct {
	Metric string `json:"metric"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Digest is the validated weekly artifact.
// Field names are a compatibility surface for downstream tooling.
type Digest struct {
	WeekEnding       Day                    `json:"week_ending"`
	ItemsAnalyzed    int                    `json:"items_analyzed"`
	ItemsIncluded    int                    `json:"items_included"`
	TopStories       []DigestItem           `json:"top_stories"`
	ByTheme          map[Theme]ThemeSummary `json:"by_theme"`
	RegulatoryAlerts []RegulatoryAlert      `json:"regulatory_alerts"`
	KeyStatistics    []KeyStatistic         `json:"key_statistics"`
}

// NewEmptyDigest returns a digest with zero counts and empty, non-nil sections.
func NewEmptyDigest(weekEnding Day, itemsAnalyzed int) *Digest {
	return &Digest{
		WeekEnding:       weekEnding,
		ItemsAnalyzed:    itemsAnalyzed,
		TopStories:       []DigestItem{},
		ByTheme:          map[Theme]ThemeSummary{},
		RegulatoryAlerts: []RegulatoryAlert{},
		KeyStatistics:    []KeyStatistic{},
	}
}

// CheckInvariants verifies the structural guarantees of a digest.
// It returns an ErrSchemaViolation-wrapped error describing the first violation.
func (d *Digest) CheckInvariants(fw AnalysisFramework) error {
	if d == nil {
		return fmt.Errorf("%w: nil digest", ErrSchemaViolation)
	}
	if d.WeekEnding.IsZero() {
		return fmt.Errorf("%w: week_ending missing", ErrSchemaViolation)
	}
	if d.ItemsAnalyzed < 0 || d.ItemsIncluded < 0 {
		return fmt.Errorf("%w: negative counts", ErrSchemaViolation)
	}
	if d.ItemsIncluded > d.ItemsAnalyzed {
		return fmt.Errorf("%w: items_included %d exceeds items_analyzed %d",
			ErrSchemaViolation, d.ItemsIncluded, d.ItemsAnalyzed)
	}
	if len(d.TopStories) != d.ItemsIncluded {
		return fmt.Errorf("%w: items_included %d but %d stories",
			ErrSchemaViolation, d.ItemsIncluded, len(d.TopStories))
	}

	sum := 0
	for theme, summary := range d.ByTheme {
		if !fw.IsTheme(theme) {
			return fmt.Errorf("%w: by_theme key %q outside taxonomy", ErrSchemaViolation, theme)
		}
		sum += summary.Count
	}
	if sum != d.ItemsIncluded {
		return fmt.Errorf("%w: by_theme counts sum to %d, want %d", ErrSchemaViolation, sum, d.ItemsIncluded)
	}

	for i, story := range d.TopStories {
		if !fw.IsTheme(story.Theme) {
			return fmt.Errorf("%w: story %d theme %q outside taxonomy", ErrSchemaViolation, i, story.Theme)
		}
		if !story.Importance.IsValid() {
			return fmt.Errorf("%w: story %d importance %q", ErrSchemaViolation, i, story.Importance)
		}
		if story.Geography != "" {
			if _, ok := fw.MatchGeography(string(story.Geography)); !ok {
				return fmt.Errorf("%w: story %d geography %q", ErrSchemaViolation, i, story.Geography)
			}
		}
		if _, ok := d.ByTheme[story.Theme]; !ok {
			return fmt.Errorf("%w: story %d theme %q missing from by_theme", ErrSchemaViolation, i, story.Theme)
		}
		if i > 0 && StoryLess(fw, story, d.TopStories[i-1]) {
			return fmt.Errorf("%w: top_stories out of order at %d", ErrSchemaViolation, i)
		}
	}

	for i, alert := range d.RegulatoryAlerts {
		if alert.Deadline == DeadlineOngoing {
			continue
		}
		deadline, err := ParseDay(alert.Deadline)
		if err != nil || !deadline.After(d.WeekEnding) {
			return fmt.Errorf("%w: alert %d deadline %q", ErrSchemaViolation, i, alert.Deadline)
		}
	}
	return nil
}

// StoryLess orders stories by importance band, then taxonomy position.
func StoryLess(fw AnalysisFramework, a, b DigestItem) bool {
	if a.Importance.Rank() != b.Importance.Rank() {
		return a.Importance.Rank() < b.Importance.Rank()
	}
	return fw.ThemeIndex(a.Theme) < fw.ThemeIndex(b.Theme)
}

// Sources returns the distinct story sources in first-seen order.
func (d *Digest) Sources() []string {
	seen := make(map[string]bool)
	var sources []string
	for _, story := range d.TopStories {
		name := strings.TrimSpace(story.Source)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		sources = append(sources, name)
	}
	return sources
}

// DigestRecord is the persisted form of a digest.
type DigestRecord struct {
	// ID is a generated unique identifier.
	ID string

	// WeekEnding is unique across the store.
	WeekEnding Day

	// Content is the serialised Digest JSON.
	Content string

	ItemsAnalyzed int
	ItemsIncluded int

	// CreatedAt is when the record was written. Overwrites replace it.
	CreatedAt time.Time
}

// NewDigestRecord serialises a digest into a record.
func NewDigestRecord(id string, digest *Digest, createdAt time.Time) (DigestRecord, error) {
	content, err := json.Marshal(digest)
	if err != nil {
		return DigestRecord{}, fmt.Errorf("encode digest: %w", err)
	}
	return DigestRecord{
		ID:            id,
		WeekEnding:    digest.WeekEnding,
		Content:       string(content),
		ItemsAnalyzed: digest.ItemsAnalyzed,
		ItemsIncluded: digest.ItemsIncluded,
		CreatedAt:     createdAt,
	}, nil
}

// Decode parses the stored content back into a digest.
func (r DigestRecord) Decode() (*Digest, error) {
	var digest Digest
	if err := json.Unmarshal([]byte(r.Content), &digest); err != nil {
		return nil, fmt.Errorf("decode digest %s: %w", r.WeekEnding, err)
	}
	if digest.ByTheme == nil {
		digest.ByTheme = map[Theme]ThemeSummary{}
	}
	return &digest, nil
}

// ConflictPolicy decides what happens when a week is persisted twice.
type ConflictPolicy string

// Conflict policies.
const (
	// ConflictReject fails with ErrDuplicateWeek. This is the default.
	ConflictReject ConflictPolicy = "reject"

	// ConflictOverwrite replaces the existing record. Callers must opt in.
	ConflictOverwrite ConflictPolicy = "overwrite"
)

// IsValid returns true if the policy is recognised.
func (p ConflictPolicy) IsValid() bool {
	return p == ConflictReject || p == ConflictOverwrite
}

// String returns the string representation.
func (p ConflictPolicy) String() string {
	return string(p)
}

// ParseConflictPolicy parses a policy name. Empty means reject.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	p := ConflictPolicy(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return ConflictReject, nil
	}
	if !p.IsValid() {
		return "", fmt.Errorf("%w: conflict policy %q (want reject or overwrite)", ErrInvalidInput, s)
	}
	return p, nil
}

// ThemeTrendPoint is one weekly count in a theme trend series.
type ThemeTrendPoint struct {
	WeekEnding Day   `json:"week_ending"`
	Theme      Theme `json:"theme"`
	Count      int   `json:"count"`
}

// DigestSummary is a lightweight listing entry for stored digests.
type DigestSummary struct {
	WeekEnding    Day       `json:"week_ending"`
	ItemsAnalyzed int       `json:"items_analyzed"`
	ItemsIncluded int       `json:"items_included"`
	CreatedAt     time.Time `json:"created_at"`
}

// Summary returns the listing entry for a record.
func (r DigestRecord) Summary() DigestSummary {
	return DigestSummary{
		WeekEnding:    r.WeekEnding,
		ItemsAnalyzed: r.ItemsAnalyzed,
		ItemsIncluded: r.ItemsIncluded,
		CreatedAt:     r.CreatedAt,
	}
}
