package model

// DefaultSource is used when a reference statement carries no source metadata
const DefaultSource = "Unknown source"

// EvidenceItem is one reference statement retrieved for a query
type EvidenceItem struct {
	Text     string  `json:"text"`
	Source   string  `json:"source"`
	Distance float64 `json:"distance"` // Cosine distance in [0,2]
}

// Similarity converts the cosine distance into a [0,1] similarity score
func (e EvidenceItem) Similarity() float64 {
	return 1 - e.Distance/2
}

// EvidenceTexts returns the plain statement texts, without source or score
func EvidenceTexts(items []EvidenceItem) []string {
	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.Text
	}
	return texts
}
