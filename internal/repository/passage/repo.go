// Package passage retrieves semantically similar passages from the vector
// index. Ingestion (external) writes one hash per passage under
// "ragdex:passage:<id>" with fields: source, category, __content, vector
// (float32 LE). This package only reads.
package passage

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/db"
	"github.com/kailas-cloud/ragdex/internal/domain"
)

var (
	keyPrefix = domain.KeyPrefix + "passage:"
	// IndexName is the FT index over knowledge base passages.
	IndexName = domain.KeyPrefix + "passage:idx"
)

const (
	fieldSource   = "source"
	fieldCategory = "category"
	fieldContent  = "__content"
	fieldVector   = "vector"

	// diagSampleLimit bounds the zero-match diagnostics sample.
	diagSampleLimit = 5
	// diagRetryK and diagRetryThreshold parameterize the unfiltered retry
	// probe run when a category filter produced zero matches.
	diagRetryK         = 3
	diagRetryThreshold = 0.1
)

// store is the consumer interface for passage retrieval (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	Ping(ctx context.Context) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// HNSWConfig tunes the passage vector index.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements vector similarity retrieval with diagnostic fallbacks.
type Repo struct {
	store  store
	dims   int
	hnsw   HNSWConfig
	logger *zap.Logger
}

// New creates a passage retrieval repository.
func New(s store, dims int, logger *zap.Logger) *Repo {
	return &Repo{store: s, dims: dims, logger: logger}
}

// WithHNSW overrides the index algorithm parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// EnsureIndex creates the passage index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, IndexName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = r.store.CreateIndex(ctx, &db.IndexDefinition{
		Name:     IndexName,
		Prefixes: []string{keyPrefix},
		Fields: []db.IndexField{
			{Name: fieldSource, Type: db.IndexFieldTag},
			{Name: fieldCategory, Type: db.IndexFieldTag},
			{Name: fieldContent, Type: db.IndexFieldText},
			{
				Name:              fieldVector,
				Type:              db.IndexFieldVector,
				VectorDim:         r.dims,
				VectorAlgo:        db.VectorHNSW,
				VectorDistance:    db.DistanceCosine,
				VectorM:           r.hnsw.M,
				VectorEFConstruct: r.hnsw.EFConstruct,
			},
		},
	})
	if errors.Is(err, db.ErrIndexExists) {
		return nil
	}
	return err
}

// Search runs a KNN similarity search. The category filter is always
// passed explicitly (zero TagFilter = no filter) so the query shape never
// varies. Matches below threshold are re-checked and dropped locally even
// though the remote search already filters; remote filtering is not
// trusted to be exact. Rank is assigned 1-based after the local filter.
//
// A remote error is fatal: no partial result is fabricated. One PING
// probe distinguishes "no data" from "connection broken"; its outcome is
// attached to the returned error, never raised on its own.
func (r *Repo) Search(
	ctx context.Context, vector []float32, matchCount int, threshold float64, category string,
) ([]domain.Match, error) {
	filter := db.TagFilter{}
	if category != "" {
		filter = db.TagFilter{Field: fieldCategory, Value: category}
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    IndexName,
		Filter:       filter,
		Vector:       vector,
		K:            matchCount,
		ReturnFields: []string{fieldSource, fieldCategory, fieldContent, "__vector_score"},
	})
	if err != nil {
		probe := r.connectivityProbe(ctx)
		r.logger.Error("Vector search failed",
			zap.String("index", IndexName),
			zap.String("connectivity", probe),
			zap.Error(err),
		)
		return nil, domain.NewRetrievalError(probe, err)
	}

	matches := make([]domain.Match, 0, len(sr.Entries))
	dropped := 0
	for _, e := range sr.Entries {
		if e.Score < threshold {
			dropped++
			continue
		}
		matches = append(matches, domain.Match{
			ID:         trimKey(e.Key),
			Source:     e.Fields[fieldSource],
			Content:    e.Fields[fieldContent],
			Similarity: e.Score,
			Category:   e.Fields[fieldCategory],
			Rank:       len(matches) + 1,
		})
	}

	if dropped > 0 {
		r.logger.Debug("Dropped low-similarity matches",
			zap.Int("total", len(sr.Entries)),
			zap.Int("kept", len(matches)),
			zap.Int("dropped", dropped),
		)
	}

	if len(matches) == 0 {
		r.runZeroMatchDiagnostics(ctx, vector, category)
	}

	return matches, nil
}

// runZeroMatchDiagnostics gathers observability data when a search comes
// back empty. Purely informational: never changes the result, never fails
// the request.
func (r *Repo) runZeroMatchDiagnostics(ctx context.Context, vector []float32, category string) {
	sample, err := r.store.SearchList(ctx, IndexName, "*", 0, diagSampleLimit,
		[]string{fieldSource, fieldCategory})
	if err != nil {
		r.logger.Warn("Zero-match diagnostics: sample query failed", zap.Error(err))
	} else {
		sources := make([]string, 0, len(sample.Entries))
		categories := make([]string, 0, len(sample.Entries))
		for _, e := range sample.Entries {
			sources = append(sources, e.Fields[fieldSource])
			categories = append(categories, e.Fields[fieldCategory])
		}
		r.logger.Info("Zero-match diagnostics: index sample",
			zap.Int("indexed_total", sample.Total),
			zap.Strings("sample_sources", sources),
			zap.Strings("sample_categories", categories),
		)
	}

	if category == "" {
		return
	}

	// The filter may be the reason for the empty result; retry once
	// without it at a permissive threshold.
	unfiltered, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    IndexName,
		Vector:       vector,
		K:            diagRetryK,
		ReturnFields: []string{fieldSource, "__vector_score"},
	})
	if err != nil {
		r.logger.Warn("Zero-match diagnostics: unfiltered retry failed", zap.Error(err))
		return
	}

	kept := 0
	for _, e := range unfiltered.Entries {
		if e.Score >= diagRetryThreshold {
			kept++
		}
	}
	r.logger.Info("Zero-match diagnostics: unfiltered retry",
		zap.String("category", category),
		zap.Int("unfiltered_matches", kept),
	)
}

// connectivityProbe distinguishes an empty index from a broken connection.
func (r *Repo) connectivityProbe(ctx context.Context) string {
	if err := r.store.Ping(ctx); err != nil {
		return "unreachable: " + err.Error()
	}
	return "ok"
}

func trimKey(key string) string {
	if len(key) > len(keyPrefix) && key[:len(keyPrefix)] == keyPrefix {
		return key[len(keyPrefix):]
	}
	return key
}
