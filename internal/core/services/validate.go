package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/YX-UOM/Plithos/internal/core/domain"
	"github.com/YX-UOM/Plithos/internal/logger"
)

// Top-level digest keys.
const (
	keyWeekEnding       = "week_ending"
	keyItemsAnalyzed    = "items_analyzed"
	keyItemsIncluded    = "items_included"
	keyTopStories       = "top_stories"
	keyByTheme          = "by_theme"
	keyRegulatoryAlerts = "regulatory_alerts"
	keyKeyStatistics    = "key_statistics"
)

var requiredKeys = []string{
	keyWeekEnding,
	keyItemsAnalyzed,
	keyItemsIncluded,
	keyTopStories,
	keyByTheme,
	keyRegulatoryAlerts,
	keyKeyStatistics,
}

// ValidationReport records every repair made to a response.
type ValidationReport struct {
	// MissingKeys are top-level keys absent or unreadable in at least one response.
	MissingKeys []string

	// RejectedStories describe stories dropped during repair.
	RejectedStories []string

	// DroppedAlerts describe regulatory alerts dropped during repair.
	DroppedAlerts []string

	// DroppedStatistics is the number of incomplete key statistics.
	DroppedStatistics int

	// ReportedIncluded is the model's items_included claim, when present.
	ReportedIncluded *int

	// Truncated is the number of stories cut to respect items_analyzed.
	Truncated int
}

// Repairs returns a human-readable line per repair.
func (r *ValidationReport) Repairs() []string {
	var lines []string
	for _, k := range r.MissingKeys {
		lines = append(lines, fmt.Sprintf("filled missing key %q with default", k))
	}
	lines = append(lines, r.RejectedStories...)
	lines = append(lines, r.DroppedAlerts...)
	if r.DroppedStatistics > 0 {
		lines = append(lines, fmt.Sprintf("dropped %d incomplete key statistics", r.DroppedStatistics))
	}
	if r.Truncated > 0 {
		lines = append(lines, fmt.Sprintf("truncated %d stories beyond items_analyzed", r.Truncated))
	}
	return lines
}

// Validator turns untrusted reasoning responses into digests that satisfy
// every digest invariant. Derived fields are always recomputed.
type Validator struct {
	fw domain.AnalysisFramework
}

// NewValidator creates a validator for a framework.
func NewValidator(fw domain.AnalysisFramework) *Validator {
	return &Validator{fw: fw}
}

// Validate parses, merges and repairs responses into one digest.
//
// A response that is not JSON fails with ErrMalformedResponse. JSON that is not an
// object fails with ErrSchemaViolation. Everything below the top level is repaired
// rather than rejected. With no responses an empty digest is returned.
func (v *Validator) Validate(responses []string, weekEnding domain.Day, itemsAnalyzed int) (*domain.Digest, *ValidationReport, error) {
	if itemsAnalyzed < 0 {
		itemsAnalyzed = 0
	}
	report := &ValidationReport{}
	merged := newMergedResponse()

	for i, resp := range responses {
		obj, err := parseResponse(resp)
		if err != nil {
			if len(responses) > 1 {
				return nil, report, fmt.Errorf("response %d/%d: %w", i+1, len(responses), err)
			}
			return nil, report, err
		}
		v.collect(obj, merged, report)
	}

	digest := domain.NewEmptyDigest(weekEnding, itemsAnalyzed)

	stories := v.repairStories(merged.stories, report)
	if len(stories) > itemsAnalyzed {
		report.Truncated = len(stories) - itemsAnalyzed
		stories = stories[:itemsAnalyzed]
	}
	digest.TopStories = stories
	digest.ItemsIncluded = len(stories)

	if report.ReportedIncluded != nil && *report.ReportedIncluded != digest.ItemsIncluded {
		logger.Warn("validate: items_included reported %d, recomputed %d", *report.ReportedIncluded, digest.ItemsIncluded)
	}

	for _, story := range stories {
		summary := digest.ByTheme[story.Theme]
		summary.Count++
		digest.ByTheme[story.Theme] = summary
	}
	for theme, summary := range digest.ByTheme {
		summary.Highlights = merged.highlights[theme]
		if summary.Highlights == nil {
			summary.Highlights = []string{}
		}
		digest.ByTheme[theme] = summary
	}

	digest.RegulatoryAlerts = v.repairAlerts(merged.alerts, weekEnding, report)
	digest.KeyStatistics = repairStatistics(merged.stats, report)

	for _, line := range report.Repairs() {
		logger.Debug("validate: %s", line)
	}
	return digest, report, nil
}

// cleanJSON strips markdown fences and surrounding prose from a response.
func cleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```JSON")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	if json.Valid([]byte(s)) {
		return s
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

func parseResponse(raw string) (map[string]json.RawMessage, error) {
	cleaned := cleanJSON(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty body", domain.ErrMalformedResponse)
	}
	if !json.Valid([]byte(cleaned)) {
		return nil, fmt.Errorf("%w: not valid JSON", domain.ErrMalformedResponse)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil || obj == nil {
		return nil, fmt.Errorf("%w: top level is not an object", domain.ErrSchemaViolation)
	}
	return obj, nil
}

// flexString accepts strings, numbers, booleans and null.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*f = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
	case data[0] == '{' || data[0] == '[':
		return fmt.Errorf("expected scalar, got %s", data[:1])
	default:
		*f = flexString(data)
	}
	return nil
}

// flexStrings accepts a list of scalars or a single scalar.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var list []flexString
	if err := json.Unmarshal(data, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, s := range list {
			if s != "" {
				out = append(out, string(s))
			}
		}
		*f = out
		return nil
	}
	var single flexString
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	if single != "" {
		*f = []string{string(single)}
	} else {
		*f = nil
	}
	return nil
}

type rawStory struct {
	Title      flexString `json:"title"`
	Source     flexString `json:"source"`
	URL        flexString `json:"url"`
	Summary    flexString `json:"summary"`
	Theme      flexString `json:"theme"`
	Importance flexString `json:"importance"`
	Geography  flexString `json:"geography"`
}

type rawThemeSummary struct {
	Highlights flexStrings `json:"highlights"`
}

type rawAlert struct {
	Title          flexString `json:"title"`
	Deadline       flexString `json:"deadline"`
	ActionRequired flexString `json:"action_required"`
}

type rawStatistic struct {
	Metric flexString `json:"metric"`
	Value  flexString `json:"value"`
	Source flexString `json:"source"`
}

type mergedResponse struct {
	stories    []rawStory
	highlights map[domain.Theme][]string
	alerts     []rawAlert
	stats      []rawStatistic
}

func newMergedResponse() *mergedResponse {
	return &mergedResponse{highlights: make(map[domain.Theme][]string)}
}

// collect folds one response object into the merged view.
func (v *Validator) collect(obj map[string]json.RawMessage, merged *mergedResponse, report *ValidationReport) {
	for _, key := range requiredKeys {
		if _, ok := obj[key]; !ok {
			report.addMissing(key)
		}
	}

	if raw, ok := obj[keyItemsIncluded]; ok {
		var n flexString
		var parsed int
		if json.Unmarshal(raw, &n) == nil {
			if _, err := fmt.Sscanf(string(n), "%d", &parsed); err == nil {
				if report.ReportedIncluded != nil {
					parsed += *report.ReportedIncluded
				}
				report.ReportedIncluded = &parsed
			}
		}
	}

	for _, elem := range rawList(obj, keyTopStories, report) {
		var story rawStory
		if err := json.Unmarshal(elem, &story); err != nil {
			report.RejectedStories = append(report.RejectedStories, fmt.Sprintf("rejected unreadable story: %v", err))
			continue
		}
		merged.stories = append(merged.stories, story)
	}

	if raw, ok := obj[keyByTheme]; ok {
		var themes map[string]json.RawMessage
		if err := json.Unmarshal(raw, &themes); err != nil {
			report.addMissing(keyByTheme)
		} else {
			names := make([]string, 0, len(themes))
			for name := range themes {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				theme, ok := v.matchTheme(name)
				if !ok {
					continue
				}
				var summary rawThemeSummary
				if json.Unmarshal(themes[name], &summary) != nil {
					continue
				}
				merged.highlights[theme] = appendUnique(merged.highlights[theme], summary.Highlights...)
			}
		}
	}

	for _, elem := range rawList(obj, keyRegulatoryAlerts, report) {
		var alert rawAlert
		if err := json.Unmarshal(elem, &alert); err != nil {
			report.DroppedAlerts = append(report.DroppedAlerts, fmt.Sprintf("dropped unreadable alert: %v", err))
			continue
		}
		merged.alerts = append(merged.alerts, alert)
	}

	for _, elem := range rawList(obj, keyKeyStatistics, report) {
		var stat rawStatistic
		if err := json.Unmarshal(elem, &stat); err != nil {
			report.DroppedStatistics++
			continue
		}
		merged.stats = append(merged.stats, stat)
	}
}

// rawList reads a top-level array, treating anything else as missing.
func rawList(obj map[string]json.RawMessage, key string, report *ValidationReport) []json.RawMessage {
	raw, ok := obj[key]
	if !ok {
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		report.addMissing(key)
		return nil
	}
	return list
}

func (r *ValidationReport) addMissing(key string) {
	for _, k := range r.MissingKeys {
		if k == key {
			return
		}
	}
	r.MissingKeys = append(r.MissingKeys, key)
}

// matchTheme resolves a theme name, tolerating case, spaces and hyphens.
func (v *Validator) matchTheme(name string) (domain.Theme, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	theme := domain.Theme(key)
	if v.fw.IsTheme(theme) {
		return theme, true
	}
	return "", false
}

func (v *Validator) repairStories(raw []rawStory, report *ValidationReport) []domain.DigestItem {
	stories := make([]domain.DigestItem, 0, len(raw))
	seenURL := make(map[string]bool)

	for _, r := range raw {
		title := string(r.Title)
		if title == "" {
			report.RejectedStories = append(report.RejectedStories, "rejected story without title")
			continue
		}
		theme, ok := v.matchTheme(string(r.Theme))
		if !ok {
			report.RejectedStories = append(report.RejectedStories,
				fmt.Sprintf("rejected story %q: theme %q outside taxonomy", title, r.Theme))
			continue
		}
		url := string(r.URL)
		if url != "" {
			if seenURL[url] {
				report.RejectedStories = append(report.RejectedStories,
					fmt.Sprintf("rejected story %q: duplicate url", title))
				continue
			}
			seenURL[url] = true
		}

		importance := domain.Importance(strings.ToLower(string(r.Importance)))
		if !importance.IsValid() {
			importance = domain.ImportanceLow
		}

		var geography domain.Geography
		if r.Geography != "" {
			if g, ok := v.fw.MatchGeography(string(r.Geography)); ok {
				geography = g
			} else {
				geography = domain.GeographyGlobal
			}
		}

		stories = append(stories, domain.DigestItem{
			Title:      title,
			Source:     string(r.Source),
			URL:        url,
			Summary:    string(r.Summary),
			Theme:      theme,
			Importance: importance,
			Geography:  geography,
		})
	}

	sort.SliceStable(stories, func(i, j int) bool {
		return domain.StoryLess(v.fw, stories[i], stories[j])
	})
	return stories
}

func (v *Validator) repairAlerts(raw []rawAlert, weekEnding domain.Day, report *ValidationReport) []domain.RegulatoryAlert {
	alerts := make([]domain.RegulatoryAlert, 0, len(raw))
	for _, r := range raw {
		title := string(r.Title)
		if title == "" {
			report.DroppedAlerts = append(report.DroppedAlerts, "dropped alert without title")
			continue
		}
		deadline, ok := normaliseDeadline(string(r.Deadline), weekEnding)
		if !ok {
			report.DroppedAlerts = append(report.DroppedAlerts,
				fmt.Sprintf("dropped alert %q: deadline %q is not after %s", title, r.Deadline, weekEnding))
			continue
		}
		alerts = append(alerts, domain.RegulatoryAlert{
			Title:          title,
			Deadline:       deadline,
			ActionRequired: string(r.ActionRequired),
		})
	}
	return alerts
}

var deadlineLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"January 2, 2006",
	"January 2 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"2006/01/02",
}

var monthLayouts = []string{
	"January 2006",
	"Jan 2006",
	"2006-01",
}

// normaliseDeadline returns an ISO date after weekEnding, or "ongoing".
// Month-only deadlines resolve to the last day of that month.
func normaliseDeadline(s string, weekEnding domain.Day) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, domain.DeadlineOngoing) {
		return domain.DeadlineOngoing, true
	}

	var day domain.Day
	parsed := false
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			day = domain.NewDay(t)
			parsed = true
			break
		}
	}
	if !parsed {
		for _, layout := range monthLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				day = domain.NewDay(t.AddDate(0, 1, -1))
				parsed = true
				break
			}
		}
	}
	if !parsed || !day.After(weekEnding) {
		return "", false
	}
	return day.String(), true
}

func repairStatistics(raw []rawStatistic, report *ValidationReport) []domain.KeyStatistic {
	stats := make([]domain.KeyStatistic, 0, len(raw))
	for _, r := range raw {
		if r.Metric == "" || r.Value == "" {
			report.DroppedStatistics++
			continue
		}
		stats = append(stats, domain.KeyStatistic{
			Metric: string(r.Metric),
			Value:  string(r.Value),
			Source: string(r.Source),
		})
	}
	return stats
}

func appendUnique(list []string, values ...string) []string {
	for _, v := range values {
		dup := false
		for _, existing := range list {
			if existing == v {
				dup = true
				break
			}
		}
		if !dup {
			list = append(list, v)
		}
	}
	return list
}
