package db

// TagFilter is a single-field TAG pre-filter for KNN queries. The zero
// value means "no filter" and is always passed explicitly so the query
// shape never changes between filtered and unfiltered calls.
type TagFilter struct {
	Field string
	Value string
}

// IsEmpty reports whether the filter is the explicit no-filter sentinel.
func (f TagFilter) IsEmpty() bool { return f.Field == "" || f.Value == "" }

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Filter       TagFilter
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search. For KNN queries
// Score is the cosine similarity in [0,1].
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
