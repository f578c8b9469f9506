package answer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/grounding"
	"github.com/kailas-cloud/ragdex/internal/logger"
	"github.com/kailas-cloud/ragdex/internal/metrics"
)

// NoMatchResponse is returned when retrieval yields nothing above the
// similarity threshold. Generation is skipped on this path.
const NoMatchResponse = "I couldn't find any relevant information in the knowledge base for your query."

// Near-duplicate analytics over the embedding cache.
const (
	similarQueryThreshold = 0.9
	similarQueryLimit     = 3
)

// Answer is the terminal result of one question.
type Answer struct {
	Response string
	Sources  []domain.SourceRef
	Metadata Metadata
}

// Metadata is the per-request envelope returned alongside the answer.
type Metadata struct {
	RequestID       string
	Timestamp       time.Time
	Duration        time.Duration
	MatchCount      int
	EmbeddingCached bool
	Grounding       grounding.Assessment
	Models          Models
}

// Models names the providers that served the request.
type Models struct {
	Embedding string
	Chat      string
}

// Service runs the question-answering pipeline: fingerprint, embed (or
// reuse), retrieve, assemble, generate, assess. Every terminal path,
// including failures, emits exactly one request trace.
type Service struct {
	cache     EmbeddingCache
	retriever Retriever
	embedder  domain.Embedder
	generator domain.Generator
	telemetry Dispatcher
	cfg       domain.RAGConfig
}

// New creates the answer service.
func New(
	cache EmbeddingCache, retriever Retriever,
	embedder domain.Embedder, generator domain.Generator,
	telemetry Dispatcher, cfg domain.RAGConfig,
) *Service {
	return &Service{
		cache:     cache,
		retriever: retriever,
		embedder:  embedder,
		generator: generator,
		telemetry: telemetry,
		cfg:       cfg,
	}
}

// Ask answers a question from the knowledge base. The category filter is
// optional; empty means search the whole corpus.
func (s *Service) Ask(ctx context.Context, rawQuery, category string) (Answer, error) {
	start := time.Now()
	log := logger.FromContext(ctx)

	trace := domain.RequestTrace{
		RequestID:      uuid.NewString(),
		Query:          rawQuery,
		QueryType:      category,
		EmbeddingModel: s.cfg.EmbeddingModel,
		ChatModel:      s.cfg.ChatModel,
		StartedAt:      start,
	}

	query, err := domain.NewQuery(rawQuery, category)
	if err != nil {
		return Answer{}, s.finishError(ctx, &trace, start, err)
	}
	trace.Fingerprint = query.Fingerprint()

	vector, cached, embedDur, err := s.resolveEmbedding(ctx, log, query)
	if err != nil {
		return Answer{}, s.finishError(ctx, &trace, start, err)
	}
	trace.EmbeddingCached = cached
	trace.Timings.Embedding = embedDur

	searchStart := time.Now()
	matches, err := s.retriever.Search(
		ctx, vector, s.cfg.MatchCount, s.cfg.SimilarityThreshold, query.Category(),
	)
	trace.Timings.Search = time.Since(searchStart)
	metrics.RAGStageDuration.WithLabelValues("search").Observe(trace.Timings.Search.Seconds())
	if err != nil {
		return Answer{}, s.finishError(ctx, &trace, start, err)
	}

	trace.Matches = traceMatches(matches)
	trace.MatchCount = len(matches)

	if len(matches) == 0 {
		return s.finishPartial(ctx, &trace, start, query), nil
	}

	contextText := BuildContext(matches)

	genStart := time.Now()
	result, err := s.generator.Generate(ctx, query.Raw(), contextText)
	trace.Timings.Generation = time.Since(genStart)
	metrics.RAGStageDuration.WithLabelValues("generation").Observe(trace.Timings.Generation.Seconds())
	if err != nil {
		return Answer{}, s.finishError(ctx, &trace, start, err)
	}

	assessment := grounding.Assess(result.Text)
	metrics.RAGGroundingScore.Observe(float64(assessment.Score))

	trace.Response = result.Text
	trace.Grounding = assessment
	trace.Status = domain.StatusSuccess
	trace.Timings.Total = time.Since(start)
	metrics.RAGRequestsTotal.WithLabelValues(string(domain.StatusSuccess)).Inc()
	s.telemetry.Dispatch(ctx, trace)

	log.Info("Answer generated",
		zap.String("request_id", trace.RequestID),
		zap.String("fingerprint", query.Fingerprint()),
		zap.Int("matches", len(matches)),
		zap.Int("grounding_score", assessment.Score),
		zap.Bool("embedding_cached", cached),
		zap.Duration("duration", trace.Timings.Total),
	)

	return Answer{
		Response: result.Text,
		Sources:  domain.SourceRefs(matches),
		Metadata: s.metadata(&trace, assessment),
	}, nil
}

// resolveEmbedding returns the query vector from cache when available,
// otherwise computes and stores it. The cached path also surfaces
// near-duplicate queries for analytics.
func (s *Service) resolveEmbedding(
	ctx context.Context, log *zap.Logger, query domain.Query,
) ([]float32, bool, time.Duration, error) {
	start := time.Now()

	if entry, ok := s.cache.Lookup(ctx, query.Fingerprint(), s.cfg.EmbeddingModel); ok {
		if similar := s.cache.FindSimilar(ctx, entry.Vector, similarQueryThreshold, similarQueryLimit); len(similar) > 0 {
			log.Debug("Near-duplicate cached queries",
				zap.String("fingerprint", query.Fingerprint()),
				zap.Int("count", len(similar)),
			)
		}
		return entry.Vector, true, time.Since(start), nil
	}

	// Only the fingerprint is normalized; the provider sees the query as typed.
	result, err := s.embedder.Embed(ctx, query.Raw())
	dur := time.Since(start)
	metrics.RAGStageDuration.WithLabelValues("embedding").Observe(dur.Seconds())
	if err != nil {
		return nil, false, dur, err
	}

	if err := domain.ValidateDimensions(result.Embedding, s.cfg.Dimensions); err != nil {
		return nil, false, dur, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	}

	s.cache.Save(ctx, query.Raw(), query.Fingerprint(), result.Embedding, s.cfg.EmbeddingModel)

	return result.Embedding, false, dur, nil
}

// finishPartial completes the no-match path with the canned response.
func (s *Service) finishPartial(
	ctx context.Context, trace *domain.RequestTrace, start time.Time, query domain.Query,
) Answer {
	trace.Response = NoMatchResponse
	trace.Status = domain.StatusPartial
	trace.Timings.Total = time.Since(start)
	metrics.RAGRequestsTotal.WithLabelValues(string(domain.StatusPartial)).Inc()
	s.telemetry.Dispatch(ctx, *trace)

	logger.FromContext(ctx).Info("No matches above threshold",
		zap.String("request_id", trace.RequestID),
		zap.String("fingerprint", query.Fingerprint()),
		zap.Float64("threshold", s.cfg.SimilarityThreshold),
	)

	return Answer{
		Response: NoMatchResponse,
		Sources:  []domain.SourceRef{},
		Metadata: s.metadata(trace, grounding.Assessment{}),
	}
}

// finishError records the failure trace and returns the error tagged with
// the trace's request ID so callers can correlate the two.
func (s *Service) finishError(
	ctx context.Context, trace *domain.RequestTrace, start time.Time, err error,
) error {
	trace.Status = domain.StatusError
	trace.ErrorMessage = err.Error()
	trace.Timings.Total = time.Since(start)
	metrics.RAGRequestsTotal.WithLabelValues(string(domain.StatusError)).Inc()
	s.telemetry.Dispatch(ctx, *trace)
	return &domain.RequestError{RequestID: trace.RequestID, Err: err}
}

func (s *Service) metadata(trace *domain.RequestTrace, assessment grounding.Assessment) Metadata {
	return Metadata{
		RequestID:       trace.RequestID,
		Timestamp:       trace.StartedAt,
		Duration:        trace.Timings.Total,
		MatchCount:      trace.MatchCount,
		EmbeddingCached: trace.EmbeddingCached,
		Grounding:       assessment,
		Models: Models{
			Embedding: s.cfg.EmbeddingModel,
			Chat:      s.cfg.ChatModel,
		},
	}
}

func traceMatches(matches []domain.Match) []domain.TraceMatch {
	out := make([]domain.TraceMatch, len(matches))
	for i, m := range matches {
		out[i] = domain.TraceMatch{
			ID:         m.ID,
			Source:     m.Source,
			Similarity: m.Similarity,
			Rank:       m.Rank,
		}
	}
	return out
}
