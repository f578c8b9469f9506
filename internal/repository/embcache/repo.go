// Package embcache persists query embeddings keyed by fingerprint. The
// cache is an optimization, never a correctness dependency: every write
// failure is logged and swallowed, every read failure degrades to a miss.
package embcache

import (
	"context"
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/db"
	"github.com/kailas-cloud/ragdex/internal/domain"
)

var (
	cacheKeyPrefix = domain.KeyPrefix + "qemb:"
	// IndexName is the FT index over cached query embeddings.
	IndexName = domain.KeyPrefix + "qemb:idx"
)

const (
	fieldQueryText  = "query_text"
	fieldModel      = "model"
	fieldDims       = "dims"
	fieldUsageCount = "usage_count"
	fieldVector     = "vector"
)

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HIncrBy(ctx context.Context, key, field string, by int64) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Repo implements the query embedding cache over hash records plus a KNN
// index for near-duplicate analytics.
type Repo struct {
	store      store
	dims       int
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates an embedding cache repository.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(s store, dims int, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Repo {
	return &Repo{store: s, dims: dims, cacheTotal: cacheTotal, logger: logger}
}

// EnsureIndex creates the cache KNN index if it does not exist yet.
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
		Prefixes: []string{cacheKeyPrefix},
		Fields: []db.IndexField{
			{Name: fieldModel, Type: db.IndexFieldTag},
			{
				Name:           fieldVector,
				Type:           db.IndexFieldVector,
				VectorDim:      r.dims,
				VectorAlgo:     db.VectorFlat,
				VectorDistance: db.DistanceCosine,
			},
		},
	})
	if errors.Is(err, db.ErrIndexExists) {
		return nil
	}
	return err
}

// Lookup returns the cached embedding for a fingerprint, or ok=false on
// miss. A record written by a different embedding model is a miss. The
// usage counter is incremented best-effort; its failure never fails the
// lookup.
func (r *Repo) Lookup(ctx context.Context, fingerprint, model string) (domain.CachedEmbedding, bool) {
	key := cacheKeyPrefix + fingerprint

	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			r.logger.Warn("Failed to read cached embedding", zap.String("key", key), zap.Error(err))
		}
		r.incCache("miss")
		return domain.CachedEmbedding{}, false
	}

	if fields[fieldModel] != model {
		r.incCache("miss")
		return domain.CachedEmbedding{}, false
	}

	// Cached payloads are untrusted: normalize to the configured shape.
	vec := domain.VectorFromBytes([]byte(fields[fieldVector])).Normalize(r.dims)

	usage, _ := strconv.Atoi(fields[fieldUsageCount])

	if err := r.store.HIncrBy(ctx, key, fieldUsageCount, 1); err != nil {
		r.logger.Warn("Failed to bump cache usage count", zap.String("key", key), zap.Error(err))
	}

	r.incCache("hit")
	return domain.CachedEmbedding{
		Fingerprint: fingerprint,
		QueryText:   fields[fieldQueryText],
		Vector:      vec,
		Model:       model,
		Dimensions:  r.dims,
		UsageCount:  usage,
	}, true
}

// Save upserts a cache record by fingerprint. Idempotent under races
// (last writer wins) and never returns an error: the caller already holds
// a fresh vector, so a failed write only costs the next request a miss.
func (r *Repo) Save(ctx context.Context, queryText, fingerprint string, vector []float32, model string) {
	key := cacheKeyPrefix + fingerprint

	err := r.store.HSet(ctx, key, map[string]string{
		fieldQueryText:  queryText,
		fieldModel:      model,
		fieldDims:       strconv.Itoa(len(vector)),
		fieldUsageCount: "1",
		fieldVector:     string(domain.VectorToBytes(vector)),
	})
	if err != nil {
		r.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}

// FindSimilar returns cached queries whose vectors are near the given one,
// for analytics only. Any failure yields an empty result.
func (r *Repo) FindSimilar(
	ctx context.Context, vector []float32, threshold float64, limit int,
) []domain.SimilarQuery {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    IndexName,
		Vector:       vector,
		K:            limit,
		ReturnFields: []string{fieldQueryText, fieldUsageCount, "__vector_score"},
	})
	if err != nil {
		r.logger.Warn("Similar-query lookup failed", zap.Error(err))
		return nil
	}

	similar := make([]domain.SimilarQuery, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		if e.Score < threshold {
			continue
		}
		usage, _ := strconv.Atoi(e.Fields[fieldUsageCount])
		if usage == 0 {
			usage = 1
		}
		similar = append(similar, domain.SimilarQuery{
			Text:       e.Fields[fieldQueryText],
			Similarity: e.Score,
			UsageCount: usage,
		})
	}
	return similar
}

func (r *Repo) incCache(result string) {
	if r.cacheTotal != nil {
		r.cacheTotal.WithLabelValues(result).Inc()
	}
}
