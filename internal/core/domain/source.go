package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Registry category names.
const (
	CategoryNews       = "news"
	CategoryRegulatory = "regulatory"
	CategoryResearch   = "research"
	CategoryMarket     = "market"
	CategoryIndustry   = "industry"
)

// SourceCategory is one group of search queries in the registry.
type SourceCategory struct {
	// Name is the category key, e.g. "regulatory".
	Name string `json:"name" yaml:"name"`

	// Description explains what the category covers.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Queries are the search strings issued for this category.
	Queries []string `json:"queries" yaml:"queries"`

	// Jurisdictions tags the geographies the category targets.
	Jurisdictions []Geography `json:"jurisdictions,omitempty" yaml:"jurisdictions,omitempty"`

	// Weight hints how much the reasoning step should trust the category.
	Weight float64 `json:"weight" yaml:"weight"`
}

// DirectSource is a publisher page fetched directly rather than searched.
type DirectSource struct {
	Name      string `json:"name" yaml:"name"`
	URL       string `json:"url" yaml:"url"`
	Category  string `json:"category" yaml:"category"`
	Frequency string `json:"frequency,omitempty" yaml:"frequency,omitempty"`
}

// SourceRegistry is the immutable set of query categories and direct sources.
type SourceRegistry struct {
	categories map[string]SourceCategory
	direct     []DirectSource
}

// NewSourceRegistry builds a registry, rejecting empty or duplicate categories.
func NewSourceRegistry(categories []SourceCategory, direct []DirectSource) (SourceRegistry, error) {
	reg := SourceRegistry{categories: make(map[string]SourceCategory, len(categories))}
	for _, c := range categories {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if name == "" {
			return SourceRegistry{}, fmt.Errorf("%w: category name is required", ErrInvalidInput)
		}
		if _, dup := reg.categories[name]; dup {
			return SourceRegistry{}, fmt.Errorf("%w: duplicate category %q", ErrInvalidInput, name)
		}
		if c.Weight < 0 || c.Weight > 1 {
			return SourceRegistry{}, fmt.Errorf("%w: category %q weight %.2f outside 0..1", ErrInvalidInput, name, c.Weight)
		}
		c.Name = name
		c.Queries = cleanQueries(c.Queries)
		c.Jurisdictions = append([]Geography(nil), c.Jurisdictions...)
		reg.categories[name] = c
	}
	for _, d := range direct {
		if strings.TrimSpace(d.URL) == "" {
			return SourceRegistry{}, fmt.Errorf("%w: direct source %q has no url", ErrInvalidInput, d.Name)
		}
		reg.direct = append(reg.direct, d)
	}
	return reg, nil
}

func cleanQueries(queries []string) []string {
	seen := make(map[string]bool, len(queries))
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
	}
	return out
}

// CategoryNames returns the category keys in sorted order.
func (r SourceRegistry) CategoryNames() []string {
	names := make([]string, 0, len(r.categories))
	for name := range r.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Categories returns every category in sorted name order.
func (r SourceRegistry) Categories() []SourceCategory {
	names := r.CategoryNames()
	cats := make([]SourceCategory, len(names))
	for i, name := range names {
		cats[i] = r.copyCategory(name)
	}
	return cats
}

// Category returns one category by name.
func (r SourceRegistry) Category(name string) (SourceCategory, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := r.categories[name]; !ok {
		return SourceCategory{}, false
	}
	return r.copyCategory(name), true
}

func (r SourceRegistry) copyCategory(name string) SourceCategory {
	c := r.categories[name]
	c.Queries = append([]string(nil), c.Queries...)
	c.Jurisdictions = append([]Geography(nil), c.Jurisdictions...)
	return c
}

// DirectSources returns the direct publisher pages.
func (r SourceRegistry) DirectSources() []DirectSource {
	return append([]DirectSource(nil), r.direct...)
}

// QueryCount returns the total number of search queries.
func (r SourceRegistry) QueryCount() int {
	n := 0
	for _, c := range r.categories {
		n += len(c.Queries)
	}
	return n
}

// DefaultSourceRegistry returns the built-in ESG real estate registry.
func DefaultSourceRegistry() SourceRegistry {
	reg, err := NewSourceRegistry(defaultCategories(), defaultDirectSources())
	if err != nil {
		panic(fmt.Sprintf("default source registry: %v", err))
	}
	return reg
}

func defaultCategories() []SourceCategory {
	return []SourceCategory{
		{
			Name:          CategoryNews,
			Description:   "General ESG and real estate news: carbon, energy, finance and regional coverage",
			Jurisdictions: []Geography{GeographyUK, GeographyEU, GeographyUS, GeographyGlobal},
			Weight:        0.7,
			Queries: []string{
				"ESG real estate news",
				"sustainable buildings news",
				"green real estate investment",
				"net zero buildings news",
				"real estate carbon emissions",
				"building decarbonization news",
				"embodied carbon construction",
				"CRREM carbon risk real estate",
				"building energy efficiency regulations",
				"MEES energy performance",
				"heat pump commercial buildings",
				"renewable energy real estate",
				"green bonds real estate",
				"sustainable real estate investment",
				"ESG property fund",
				"climate risk real estate investment",
				"UK net zero buildings",
				"EU building regulations energy",
				"US commercial building emissions",
			},
		},
		{
			Name:          CategoryRegulatory,
			Description:   "Regulation and disclosure regimes affecting property owners and funds",
			Jurisdictions: []Geography{GeographyEU, GeographyUK, GeographyUS, GeographyGlobal},
			Weight:        1.0,
			Queries: []string{
				"EU taxonomy real estate",
				"SFDR property funds",
				"CSRD real estate reporting",
				"EPBD building directive",
				"EU green building standards",
				"UK MEES regulations",
				"UK net zero buildings policy",
				"FCA sustainability disclosure",
				"TPT transition plan taskforce",
				"SEC climate disclosure real estate",
				"US building emissions regulations",
				"Local Law 97 New York",
				"ISSB sustainability standards",
				"TCFD real estate",
				"GHG protocol buildings",
			},
		},
		{
			Name:          CategoryResearch,
			Description:   "Benchmarks, academic studies and industry research reports",
			Jurisdictions: []Geography{GeographyGlobal},
			Weight:        0.8,
			Queries: []string{
				"GRESB results",
				"green building certification statistics",
				"carbon risk real estate study",
				"ESG real estate performance research",
				"green premium real estate study",
				"climate risk property valuation",
				"JLL sustainability report",
				"CBRE ESG research",
				"Savills net zero report",
				"Knight Frank sustainability",
			},
		},
		{
			Name:          CategoryMarket,
			Description:   "Transactions, PropTech and certification activity",
			Jurisdictions: []Geography{GeographyGlobal},
			Weight:        0.6,
			Queries: []string{
				"green real estate transaction",
				"sustainable property acquisition",
				"ESG REIT news",
				"PropTech sustainability",
				"building analytics ESG",
				"smart building energy management",
				"BREEAM certification news",
				"LEED building news",
				"NABERS rating",
				"EPC rating news",
			},
		},
	}
}

func defaultDirectSources() []DirectSource {
	return []DirectSource{
		{Name: "EU Sustainable Finance", URL: "https://finance.ec.europa.eu/sustainable-finance_en", Category: CategoryRegulatory, Frequency: "weekly"},
		{Name: "FCA Sustainability", URL: "https://www.fca.org.uk/firms/climate-change-and-sustainable-finance", Category: CategoryRegulatory, Frequency: "weekly"},
		{Name: "GRESB Insights", URL: "https://www.gresb.com/nl-en/insights/", Category: CategoryIndustry, Frequency: "weekly"},
		{Name: "ULI Knowledge Finder", URL: "https://knowledge.uli.org/", Category: CategoryIndustry, Frequency: "weekly"},
	}
}
