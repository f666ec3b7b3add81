package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YX-UOM/Plithos/internal/core/domain"
)

var testWeek = domain.NewDay(time.Date(2026, 1, 8, 0, 0, 0, 0, time.UTC))

func daysBefore(week domain.Day, n int) *time.Time {
	t := week.Time().AddDate(0, 0, -n).Add(9 * time.Hour)
	return &t
}

func rawItem(url, title, snippet string, published *time.Time) domain.RawItem {
	return domain.RawItem{URL: url, Title: title, Snippet: snippet, PublishedAt: published}
}

func TestNormalise_FlattensInCategoryOrder(t *testing.T) {
	fw := domain.DefaultFramework()
	raw := map[string][]domain.RawItem{
		"regulatory": {rawItem("https://b.example", "B", "b", nil)},
		"news":       {rawItem("https://a.example", "A", "a", nil)},
	}

	items := Normalise(raw, testWeek, 7, fw)

	require.Len(t, items, 2)
	assert.Equal(t, "https://a.example", items[0].URL)
	assert.Equal(t, "news", items[0].Category)
	assert.Equal(t, "https://b.example", items[1].URL)
	assert.Equal(t, "regulatory", items[1].Category)
}

func TestNormalise_DeduplicatesByURL(t *testing.T) {
	fw := domain.DefaultFramework()
	raw := map[string][]domain.RawItem{
		"news": {
			rawItem("https://a.example", "First", "one", nil),
			rawItem(" https://a.example ", "Second", "two", nil),
		},
		"research": {rawItem("https://a.example", "Third", "three", nil)},
	}

	items := Normalise(raw, testWeek, 7, fw)

	require.Len(t, items, 1)
	assert.Equal(t, "First", items[0].Title)
}

func TestNormalise_PrefersDuplicateWithSnippet(t *testing.T) {
	fw := domain.DefaultFramework()
	raw := map[string][]domain.RawItem{
		"news": {
			rawItem("https://a.example", "Bare", "", nil),
			rawItem("https://a.example", "Rich", "has a snippet", nil),
		},
	}

	items := Normalise(raw, testWeek, 7, fw)

	require.Len(t, items, 1)
	assert.Equal(t, "Rich", items[0].Title)
	assert.Equal(t, "has a snippet", items[0].Snippet)
}

func TestNormalise_UntitledDuplicateDoesNotReplaceTitled(t *testing.T) {
	fw := domain.DefaultFramework()
	raw := map[string][]domain.RawItem{
		"news": {
			rawItem("https://a.example", "Real title", "", nil),
			rawItem("https://a.example", "", "has snippet", nil),
		},
	}

	items := Normalise(raw, testWeek, 7, fw)

	require.Len(t, items, 1)
	assert.Equal(t, "Real title", items[0].Title)
}

func TestNormalise_KeepsEarliestSeenPublicationDate(t *testing.T) {
	fw := domain.DefaultFramework()
	first := daysBefore(testWeek, 3)
	raw := map[string][]domain.RawItem{
		"news": {
			rawItem("https://a.example", "Bare", "", first),
			rawItem("https://a.example", "Rich", "snippet", daysBefore(testWeek, 1)),
		},
	}

	items := Normalise(raw, testWeek, 7, fw)

	require.Len(t, items, 1)
	require.NotNil(t, items[0].PublishedAt)
	assert.True(t, first.Equal(*items[0].PublishedAt))
	assert.NotSame(t, first, items[0].PublishedAt)
}

func TestNormalise_AdoptsDateWhenFirstHasNone(t *testing.T) {
	fw := domain.DefaultFramework()
	later := daysBefore(testWeek, 2)
	raw := map[string][]domain.RawItem{
		"news": {
			rawItem("https://a.example", "A", "snippet", nil),
			rawItem("https://a.example", "A again", "", later),
		},
	}

	items := Normalise(raw, testWeek, 7, fw)

	require.Len(t, items, 1)
	assert.Equal(t, "A", items[0].Title)
	require.NotNil(t, items[0].PublishedAt)
	assert.True(t, later.Equal(*items[0].PublishedAt))
}

func TestNormalise_WindowFilter(t *testing.T) {
	fw := domain.DefaultFramework()

	tests := []struct {
		name       string
		windowDays int
		age        int
		kept       bool
	}{
		{"inside default window", 7, 6, true},
		{"on window edge", 7, 7, true},
		{"outside default window", 7, 8, false},
		{"14 days kept with clamped 30-day window", 30, 14, true},
		{"15 days dropped with clamped 30-day window", 30, 15, false},
		{"zero window uses default", 0, 8, false},
		{"published on week ending", 7, 0, true},
		{"day after week ending", 7, -1, false},
		{"months after week ending", 7, -273, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := map[string][]domain.RawItem{
				"news": {rawItem("https://a.example", "A", "a", daysBefore(testWeek, tt.age))},
			}

			items := Normalise(raw, testWeek, tt.windowDays, fw)

			if tt.kept {
				assert.Len(t, items, 1)
			} else {
				assert.Empty(t, items)
			}
		})
	}
}

func TestNormalise_KeepsUndatedItems(t *testing.T) {
	fw := domain.DefaultFramework()
	raw := map[string][]domain.RawItem{
		"news": {rawItem("https://a.example", "A", "a", nil)},
	}

	items := Normalise(raw, testWeek, 7, fw)

	assert.Len(t, items, 1)
}

func TestNormalise_DropsItemsWithoutURLOrTitle(t *testing.T) {
	fw := domain.DefaultFramework()
	raw := map[string][]domain.RawItem{
		"news": {
			rawItem("", "No URL", "a", nil),
			rawItem("https://b.example", "  ", "b", nil),
			rawItem("https://c.example", "Kept", "c", nil),
		},
	}

	items := Normalise(raw, testWeek, 7, fw)

	require.Len(t, items, 1)
	assert.Equal(t, "Kept", items[0].Title)
}

func TestNormalise_Idempotent(t *testing.T) {
	fw := domain.DefaultFramework()
	raw := map[string][]domain.RawItem{}
	for i := 0; i < 20; i++ {
		category := []string{"news", "regulatory", "market"}[i%3]
		raw[category] = append(raw[category],
			rawItem(fmt.Sprintf("https://example.com/%d", i%12), fmt.Sprintf("Item %d", i), "", daysBefore(testWeek, i%10)))
	}

	once := Normalise(raw, testWeek, 7, fw)
	twice := Normalise(map[string][]domain.RawItem{"all": once}, testWeek, 7, fw)

	require.Len(t, twice, len(once))
	for i := range once {
		assert.Equal(t, once[i].URL, twice[i].URL)
		assert.Equal(t, once[i].Title, twice[i].Title)
		assert.Equal(t, once[i].Category, twice[i].Category)
	}
	assert.Equal(t, once, Normalise(raw, testWeek, 7, fw))
}

func TestNormalise_Empty(t *testing.T) {
	items := Normalise(nil, testWeek, 7, domain.DefaultFramework())

	assert.Empty(t, items)
}
