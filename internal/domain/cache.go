package domain

// CachedEmbedding is a query→vector cache record. Created on first miss,
// usage-counted on hits, never deleted by the pipeline.
type CachedEmbedding struct {
	Fingerprint string
	QueryText   string
	Vector      []float32
	Model       string
	Dimensions  int
	UsageCount  int
}

// SimilarQuery is a near-duplicate cached query, surfaced for analytics only.
type SimilarQuery struct {
	Text       string
	Similarity float64
	UsageCount int
}
