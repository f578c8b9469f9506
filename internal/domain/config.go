package domain

// KeyPrefix namespaces every key this service writes to the store.
const KeyPrefix = "ragdex:"

// RAGConfig holds the pipeline contract settings shared between layers.
type RAGConfig struct {
	EmbeddingModel      string
	Dimensions          int
	ChatModel           string
	Temperature         float32
	MaxTokens           int
	MatchCount          int
	SimilarityThreshold float64
}

// DefaultRAGConfig returns the configured system contract. The 512-dim /
// 0.30-threshold pair is the single supported contract; earlier 1536-dim
// and 0.40/0.60 settings are superseded.
func DefaultRAGConfig() RAGConfig {
	return RAGConfig{
		EmbeddingModel:      "text-embedding-3-small",
		Dimensions:          512,
		ChatModel:           "gpt-4o",
		Temperature:         0.7,
		MaxTokens:           1000,
		MatchCount:          8,
		SimilarityThreshold: 0.30,
	}
}
