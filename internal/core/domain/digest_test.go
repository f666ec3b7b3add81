package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDay(t *testing.T, s string) Day {
	t.Helper()
	d, err := ParseDay(s)
	require.NoError(t, err)
	return d
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2026-01-09")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-09", d.String())

	d, err = ParseDay("2026-01-09T23:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-09", d.String())

	_, err = ParseDay("09/01/2026")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestDay_Arithmetic(t *testing.T) {
	week := mustDay(t, "2026-01-09")

	assert.Equal(t, "2026-01-02", week.AddDays(-7).String())
	assert.Equal(t, 7, week.DaysSince(week.AddDays(-7)))
	assert.True(t, week.AddDays(-1).Before(week))
	assert.True(t, week.AddDays(1).After(week))
	assert.True(t, week.Equal(NewDay(time.Date(2026, 1, 9, 18, 0, 0, 0, time.UTC))))
	assert.True(t, Day{}.IsZero())
	assert.Equal(t, "", Day{}.String())
}

func TestSearchWindow(t *testing.T) {
	w := NewSearchWindow(mustDay(t, "2026-01-08"), 7)

	assert.Equal(t, "2026-01-01", w.Start().String())
	assert.Equal(t, "2026-01-01..2026-01-08", w.String())
	assert.True(t, w.Contains(mustDay(t, "2026-01-01")))
	assert.True(t, w.Contains(mustDay(t, "2026-01-08")))
	assert.False(t, w.Contains(mustDay(t, "2025-12-31")))
	assert.False(t, w.Contains(mustDay(t, "2026-01-09")))
}

func TestDay_JSON(t *testing.T) {
	type wrapper struct {
		Week Day `json:"week"`
	}

	data, err := json.Marshal(wrapper{Week: mustDay(t, "2026-03-06")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"week":"2026-03-06"}`, string(data))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"week":"2026-03-06"}`), &w))
	assert.Equal(t, "2026-03-06", w.Week.String())

	require.NoError(t, json.Unmarshal([]byte(`{"week":""}`), &w))
	assert.True(t, w.Week.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"week":"soon"}`), &w))
}

func TestNewEmptyDigest(t *testing.T) {
	week := mustDay(t, "2026-01-09")
	d := NewEmptyDigest(week, 0)

	assert.NoError(t, d.CheckInvariants(DefaultFramework()))

	data, err := json.Marshal(d)
	require.NoError(t, err)

	var keys map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &keys))
	assert.Len(t, keys, 7)
	for _, key := range []string{"week_ending", "items_analyzed", "items_included", "top_stories", "by_theme", "regulatory_alerts", "key_statistics"} {
		assert.Contains(t, keys, key)
	}
	assert.JSONEq(t, `[]`, string(keys["top_stories"]))
	assert.JSONEq(t, `{}`, string(keys["by_theme"]))
}

func validDigest(t *testing.T) *Digest {
	t.Helper()
	return &Digest{
		WeekEnding:    mustDay(t, "2026-01-09"),
		ItemsAnalyzed: 5,
		ItemsIncluded: 3,
		TopStories: []DigestItem{
			{Title: "A", Theme: ThemeCarbonEmissions, Importance: ImportanceHigh, Geography: GeographyUK},
			{Title: "B", Theme: ThemeGreenFinance, Importance: ImportanceHigh},
			{Title: "C", Theme: ThemeCarbonEmissions, Importance: ImportanceLow, Geography: GeographyGlobal},
		},
		ByTheme: map[Theme]ThemeSummary{
			ThemeCarbonEmissions: {Count: 2},
			ThemeGreenFinance:    {Count: 1},
		},
		RegulatoryAlerts: []RegulatoryAlert{
			{Title: "CSRD wave 2", Deadline: "2026-06-30"},
			{Title: "MEES", Deadline: DeadlineOngoing},
		},
		KeyStatistics: []KeyStatistic{},
	}
}

func TestDigest_CheckInvariants(t *testing.T) {
	fw := DefaultFramework()

	tests := []struct {
		name   string
		mutate func(d *Digest)
	}{
		{"included exceeds analyzed", func(d *Digest) { d.ItemsAnalyzed = 2 }},
		{"theme sum mismatch", func(d *Digest) { d.ByTheme[ThemeGreenFinance] = ThemeSummary{Count: 4} }},
		{"story theme outside taxonomy", func(d *Digest) { d.TopStories[1].Theme = "social_governance" }},
		{"story theme missing from by_theme", func(d *Digest) {
			delete(d.ByTheme, ThemeGreenFinance)
			d.ByTheme[ThemeClimateRisk] = ThemeSummary{Count: 1}
		}},
		{"bad importance", func(d *Digest) { d.TopStories[0].Importance = "critical" }},
		{"bad geography", func(d *Digest) { d.TopStories[0].Geography = "LATAM" }},
		{"out of order", func(d *Digest) { d.TopStories[0], d.TopStories[2] = d.TopStories[2], d.TopStories[0] }},
		{"past deadline", func(d *Digest) { d.RegulatoryAlerts[0].Deadline = "2025-12-31" }},
		{"deadline equal to week", func(d *Digest) { d.RegulatoryAlerts[0].Deadline = "2026-01-09" }},
		{"missing week", func(d *Digest) { d.WeekEnding = Day{} }},
		{"count differs from stories", func(d *Digest) { d.ItemsIncluded = 2 }},
	}

	assert.NoError(t, validDigest(t).CheckInvariants(fw))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDigest(t)
			tt.mutate(d)
			err := d.CheckInvariants(fw)
			assert.True(t, errors.Is(err, ErrSchemaViolation), "got %v", err)
		})
	}
}

func TestDigest_Sources(t *testing.T) {
	d := &Digest{TopStories: []DigestItem{
		{Source: "FT"},
		{Source: " Bloomberg "},
		{Source: "FT"},
		{Source: ""},
	}}
	assert.Equal(t, []string{"FT", "Bloomberg"}, d.Sources())
}

func TestDigestRecord_RoundTrip(t *testing.T) {
	d := validDigest(t)
	created := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

	rec, err := NewDigestRecord("id-1", d, created)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-09", rec.WeekEnding.String())
	assert.Equal(t, 5, rec.ItemsAnalyzed)
	assert.Equal(t, 3, rec.ItemsIncluded)

	decoded, err := rec.Decode()
	require.NoError(t, err)
	assert.Equal(t, d, decoded)

	summary := rec.Summary()
	assert.Equal(t, created, summary.CreatedAt)
	assert.Equal(t, 3, summary.ItemsIncluded)
}

func TestDigestRecord_DecodeInvalid(t *testing.T) {
	rec := DigestRecord{WeekEnding: mustDay(t, "2026-01-09"), Content: "{"}
	_, err := rec.Decode()
	assert.Error(t, err)
}

func TestParseConflictPolicy(t *testing.T) {
	p, err := ParseConflictPolicy("")
	require.NoError(t, err)
	assert.Equal(t, ConflictReject, p)

	p, err = ParseConflictPolicy("Overwrite")
	require.NoError(t, err)
	assert.Equal(t, ConflictOverwrite, p)

	_, err = ParseConflictPolicy("merge")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
