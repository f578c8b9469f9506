package domain

// Match is a single retrieved passage, request-scoped. Rank is the 1-based
// position after local threshold filtering.
type Match struct {
	ID         string
	Source     string
	Content    string
	Similarity float64
	Category   string
	Rank       int
}

// SourceRef is the attribution entry returned to the caller for one match.
type SourceRef struct {
	Source     string  `json:"source"`
	Similarity float64 `json:"similarity"`
	Type       string  `json:"type"`
}

// SourceRefs extracts attribution entries from matches, preserving order.
func SourceRefs(matches []Match) []SourceRef {
	refs := make([]SourceRef, len(matches))
	for i, m := range matches {
		source := m.Source
		if source == "" {
			source = "unknown"
		}
		category := m.Category
		if category == "" {
			category = "unknown"
		}
		refs[i] = SourceRef{Source: source, Similarity: m.Similarity, Type: category}
	}
	return refs
}
