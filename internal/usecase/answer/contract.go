package answer

import (
	"context"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// EmbeddingCache is the query-embedding cache contract. Lookup and Save
// are best-effort: a broken cache degrades to recomputation, never to a
// failed request.
type EmbeddingCache interface {
	Lookup(ctx context.Context, fingerprint, model string) (domain.CachedEmbedding, bool)
	Save(ctx context.Context, queryText, fingerprint string, vector []float32, model string)
	FindSimilar(ctx context.Context, vector []float32, threshold float64, limit int) []domain.SimilarQuery
}

// Retriever performs vector similarity search over the passage corpus.
type Retriever interface {
	Search(ctx context.Context, vector []float32, matchCount int, threshold float64, category string) ([]domain.Match, error)
}

// Dispatcher records a request trace. It must never block the request path.
type Dispatcher interface {
	Dispatch(ctx context.Context, trace domain.RequestTrace)
}
