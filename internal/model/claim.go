package model

import "strings"

// Claim represents a check-worthy statement extracted from the input text
type Claim struct {
	Text      string `json:"text"`                // The claim text itself
	Heuristic string `json:"heuristic,omitempty"` // Which extractor produced it (e.g., "llm", "keyword:founded")
	Sentence  int    `json:"sentence,omitempty"`  // Sentence index in source (0-based, heuristic extractor only)
}

// EntityLabel is the type label attached to a named entity
type EntityLabel string

const (
	LabelPerson       EntityLabel = "PERSON" // People, including fictional
	LabelOrganization EntityLabel = "ORG"    // Companies, agencies, institutions
	LabelGeoPolitical EntityLabel = "GPE"    // Countries, cities, states
	LabelLocation     EntityLabel = "LOC"    // Non-GPE locations
	LabelDate         EntityLabel = "DATE"   // Absolute or relative dates
	LabelEvent        EntityLabel = "EVENT"  // Named events
	LabelMisc         EntityLabel = "MISC"   // Anything else the recognizer reports
)

// NormalizeLabel maps free-form recognizer labels onto the known set
func NormalizeLabel(raw string) EntityLabel {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PERSON", "PER", "PEOPLE":
		return LabelPerson
	case "ORG", "ORGANIZATION", "ORGANISATION", "COMPANY":
		return LabelOrganization
	case "GPE", "COUNTRY", "CITY", "STATE":
		return LabelGeoPolitical
	case "LOC", "LOCATION", "PLACE":
		return LabelLocation
	case "DATE", "TIME":
		return LabelDate
	case "EVENT":
		return LabelEvent
	default:
		return LabelMisc
	}
}

// Entity is a named span found in the input text
type Entity struct {
	Text  string      `json:"text"`
	Label EntityLabel `json:"label"`
}

// Key identifies an entity for deduplication
func (e Entity) Key() string {
	return strings.ToLower(strings.TrimSpace(e.Text)) + "|" + string(e.Label)
}
