package services

import (
	"sort"
	"strings"

	"github.com/YX-UOM/Plithos/internal/core/domain"
)

// Normalise flattens, time-filters and deduplicates raw items.
//
// Categories are flattened in sorted name order so the result does not depend on
// map iteration or retrieval completion order. Items with a known publication date
// outside (weekEnding minus the effective window, weekEnding] are dropped; the
// window is clamped to the framework ceiling. Items without a title or URL are
// dropped before deduplication. Duplicates by URL keep the first seen unless it
// lacks a snippet and a later one has it. The earliest-seen publication date survives.
//
// Normalise is pure: the same input always yields the same output.
func Normalise(raw map[string][]domain.RawItem, weekEnding domain.Day, windowDays int, fw domain.AnalysisFramework) []domain.RawItem {
	window := domain.NewSearchWindow(weekEnding, fw.EffectiveWindow(windowDays))

	categories := make([]string, 0, len(raw))
	for category := range raw {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	index := make(map[string]int)
	out := []domain.RawItem{}

	for _, category := range categories {
		for _, item := range raw[category] {
			item.URL = strings.TrimSpace(item.URL)
			item.Title = strings.TrimSpace(item.Title)
			item.Snippet = strings.TrimSpace(item.Snippet)
			if item.Category == "" {
				item.Category = category
			}

			if item.PublishedAt != nil && !window.Contains(domain.NewDay(*item.PublishedAt)) {
				continue
			}
			if item.URL == "" || item.Title == "" {
				continue
			}

			pos, seen := index[item.URL]
			if !seen {
				index[item.URL] = len(out)
				out = append(out, copyItem(item))
				continue
			}

			kept := &out[pos]
			published := kept.PublishedAt
			if published == nil {
				published = copyItem(item).PublishedAt
			}
			if kept.Snippet == "" && item.Snippet != "" {
				*kept = copyItem(item)
			}
			kept.PublishedAt = published
		}
	}
	return out
}

// copyItem detaches the PublishedAt pointer from the caller's item.
func copyItem(item domain.RawItem) domain.RawItem {
	if item.PublishedAt != nil {
		t := *item.PublishedAt
		item.PublishedAt = &t
	}
	return item
}
