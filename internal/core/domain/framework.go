package domain

import (
	"encoding/json"
	"strings"
)

// Theme is a member of the fixed ESG theme taxonomy.
type Theme string

// Taxonomy members, in rendering order.
const (
	ThemeCarbonEmissions      Theme = "carbon_emissions"
	ThemeEnergyEfficiency     Theme = "energy_efficiency"
	ThemeClimateRisk          Theme = "climate_risk"
	ThemeRegulationCompliance Theme = "regulation_compliance"
	ThemeGreenFinance         Theme = "green_finance"
	ThemeCertificationRatings Theme = "certification_ratings"
	ThemeProptechInnovation   Theme = "proptech_innovation"
)

// Label returns a human-readable label, e.g. "Carbon Emissions".
func (t Theme) Label() string {
	parts := strings.Split(string(t), "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// String returns the string representation.
func (t Theme) String() string {
	return string(t)
}

// Importance is an importance band.
type Importance string

// Importance bands, highest first.
const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// IsValid returns true if the importance is a known band.
func (i Importance) IsValid() bool {
	switch i {
	case ImportanceHigh, ImportanceMedium, ImportanceLow:
		return true
	default:
		return false
	}
}

// Rank orders bands for sorting. Lower ranks sort first.
func (i Importance) Rank() int {
	switch i {
	case ImportanceHigh:
		return 0
	case ImportanceMedium:
		return 1
	case ImportanceLow:
		return 2
	default:
		return 3
	}
}

// Label returns a capitalised label.
func (i Importance) Label() string {
	if i == "" {
		return ""
	}
	return strings.ToUpper(string(i[:1])) + string(i[1:])
}

// Geography is a geography tag.
type Geography string

// Geography tags.
const (
	GeographyUK     Geography = "UK"
	GeographyEU     Geography = "EU"
	GeographyUS     Geography = "US"
	GeographyAPAC   Geography = "APAC"
	GeographyGlobal Geography = "Global"
)

// RelevanceBand is one band of the relevance rubric.
type RelevanceBand struct {
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
}

// ImportanceBand lists the conditions that qualify an item for a band.
type ImportanceBand struct {
	Level      Importance `json:"level"`
	Conditions []string   `json:"conditions"`
}

// ThemeDefinition pairs a taxonomy member with its classification keywords.
type ThemeDefinition struct {
	Theme    Theme    `json:"theme"`
	Keywords []string `json:"keywords"`
}

// DefaultMaxWindowDays is the hard recency ceiling in days.
const DefaultMaxWindowDays = 14

// AnalysisFramework is the immutable rubric handed to the synthesis engine.
// Accessors return copies so callers cannot mutate a shared framework.
type AnalysisFramework struct {
	relevance      []RelevanceBand
	exclusionFloor float64
	themes         []ThemeDefinition
	importance     []ImportanceBand
	geographies    []Geography
	maxWindowDays  int
}

// DefaultFramework returns the ESG real estate analysis framework.
func DefaultFramework() AnalysisFramework {
	return AnalysisFramework{
		relevance: []RelevanceBand{
			{Min: 0.9, Max: 1.0, Label: "core", Description: "Directly about ESG performance, regulation or finance of real estate assets"},
			{Min: 0.7, Max: 0.9, Label: "strong", Description: "Broader ESG or climate development with a clear real estate consequence"},
			{Min: 0.4, Max: 0.7, Label: "peripheral", Description: "Adjacent sustainability topic with an indirect link to buildings or property"},
			{Min: 0.0, Max: 0.4, Label: "exclude", Description: "Not relevant to ESG in real estate; leave it out of the digest"},
		},
		exclusionFloor: 0.4,
		themes: []ThemeDefinition{
			{Theme: ThemeCarbonEmissions, Keywords: []string{
				"carbon", "emissions", "GHG", "greenhouse gas", "scope 1", "scope 2", "scope 3",
				"embodied carbon", "operational carbon", "net zero", "decarbonization", "decarbonisation",
			}},
			{Theme: ThemeEnergyEfficiency, Keywords: []string{
				"energy efficiency", "energy performance", "EPC", "MEES", "heat pump", "insulation",
				"retrofit", "energy consumption", "renewable energy", "solar", "electricity",
			}},
			{Theme: ThemeClimateRisk, Keywords: []string{
				"climate risk", "physical risk", "transition risk", "stranded assets", "CRREM",
				"flood risk", "heat stress", "climate adaptation", "resilience",
			}},
			{Theme: ThemeRegulationCompliance, Keywords: []string{
				"regulation", "compliance", "taxonomy", "SFDR", "CSRD", "TCFD", "ISSB",
				"disclosure", "reporting", "mandatory", "legislation",
			}},
			{Theme: ThemeGreenFinance, Keywords: []string{
				"green bond", "sustainable finance", "ESG investing", "impact investing",
				"green loan", "sustainability-linked", "green premium", "brown discount",
			}},
			{Theme: ThemeCertificationRatings, Keywords: []string{
				"BREEAM", "LEED", "NABERS", "GRESB", "certification", "rating",
				"benchmark", "assessment", "performance",
			}},
			{Theme: ThemeProptechInnovation, Keywords: []string{
				"PropTech", "smart building", "IoT", "sensors", "analytics", "AI",
				"digital twin", "building management", "automation",
			}},
		},
		importance: []ImportanceBand{
			{Level: ImportanceHigh, Conditions: []string{
				"New or amended binding regulation, or a compliance deadline within twelve months",
				"Benchmark, taxonomy or disclosure standard change affecting sector-wide reporting",
				"Transaction, fund or financing above USD 500m with explicit ESG criteria",
			}},
			{Level: ImportanceMedium, Conditions: []string{
				"Consultation, proposal or guidance that may become binding",
				"Research or data release with quantified findings on building performance",
				"Notable corporate commitment or certification milestone by a large owner or manager",
			}},
			{Level: ImportanceLow, Conditions: []string{
				"Commentary, opinion or event announcements",
				"Incremental product or PropTech news without measured outcomes",
			}},
		},
		geographies:   []Geography{GeographyUK, GeographyEU, GeographyUS, GeographyAPAC, GeographyGlobal},
		maxWindowDays: DefaultMaxWindowDays,
	}
}

// Themes returns the taxonomy in order.
func (f AnalysisFramework) Themes() []Theme {
	themes := make([]Theme, len(f.themes))
	for i, def := range f.themes {
		themes[i] = def.Theme
	}
	return themes
}

// ThemeDefinitions returns the taxonomy with keywords.
func (f AnalysisFramework) ThemeDefinitions() []ThemeDefinition {
	defs := make([]ThemeDefinition, len(f.themes))
	for i, def := range f.themes {
		defs[i] = ThemeDefinition{Theme: def.Theme, Keywords: append([]string(nil), def.Keywords...)}
	}
	return defs
}

// ThemeIndex returns the taxonomy position of a theme, or -1.
func (f AnalysisFramework) ThemeIndex(t Theme) int {
	for i, def := range f.themes {
		if def.Theme == t {
			return i
		}
	}
	return -1
}

// IsTheme reports whether t is a taxonomy member.
func (f AnalysisFramework) IsTheme(t Theme) bool {
	return f.ThemeIndex(t) >= 0
}

// RelevanceBands returns the relevance rubric, highest band first.
func (f AnalysisFramework) RelevanceBands() []RelevanceBand {
	return append([]RelevanceBand(nil), f.relevance...)
}

// ExclusionFloor is the relevance score below which items are excluded.
func (f AnalysisFramework) ExclusionFloor() float64 {
	return f.exclusionFloor
}

// ImportanceBands returns the importance rubric, highest band first.
func (f AnalysisFramework) ImportanceBands() []ImportanceBand {
	bands := make([]ImportanceBand, len(f.importance))
	for i, b := range f.importance {
		bands[i] = ImportanceBand{Level: b.Level, Conditions: append([]string(nil), b.Conditions...)}
	}
	return bands
}

// Geographies returns the geography tags.
func (f AnalysisFramework) Geographies() []Geography {
	return append([]Geography(nil), f.geographies...)
}

// MatchGeography resolves a tag case-insensitively.
func (f AnalysisFramework) MatchGeography(s string) (Geography, bool) {
	s = strings.TrimSpace(s)
	for _, g := range f.geographies {
		if strings.EqualFold(string(g), s) {
			return g, true
		}
	}
	return "", false
}

// MaxWindowDays is the hard recency ceiling in days.
func (f AnalysisFramework) MaxWindowDays() int {
	return f.maxWindowDays
}

// EffectiveWindow clamps a requested lookback window to the ceiling.
// Non-positive requests fall back to DefaultWindowDays.
func (f AnalysisFramework) EffectiveWindow(requested int) int {
	if requested <= 0 {
		requested = DefaultWindowDays
	}
	if f.maxWindowDays > 0 && requested > f.maxWindowDays {
		return f.maxWindowDays
	}
	return requested
}

// frameworkJSON is the serialised view of a framework.
type frameworkJSON struct {
	RelevanceBands  []RelevanceBand   `json:"relevance_bands"`
	ExclusionFloor  float64           `json:"exclusion_floor"`
	Themes          []ThemeDefinition `json:"themes"`
	ImportanceBands []ImportanceBand  `json:"importance_bands"`
	Geographies     []Geography       `json:"geographies"`
	MaxWindowDays   int               `json:"max_window_days"`
}

// MarshalJSON exposes the framework for resources and prompts.
func (f AnalysisFramework) MarshalJSON() ([]byte, error) {
	return json.Marshal(frameworkJSON{
		RelevanceBands:  f.RelevanceBands(),
		ExclusionFloor:  f.exclusionFloor,
		Themes:          f.ThemeDefinitions(),
		ImportanceBands: f.ImportanceBands(),
		Geographies:     f.Geographies(),
		MaxWindowDays:   f.maxWindowDays,
	})
}
