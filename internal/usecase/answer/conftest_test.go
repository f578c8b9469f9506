package answer

import (
	"context"
	"testing"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// --- Mocks ---

type mockCache struct {
	entry     domain.CachedEmbedding
	hit       bool
	similar   []domain.SimilarQuery
	saveCalls int
	savedText string
	savedFP   string
	savedVec  []float32
}

func (m *mockCache) Lookup(_ context.Context, _, _ string) (domain.CachedEmbedding, bool) {
	return m.entry, m.hit
}

func (m *mockCache) Save(_ context.Context, queryText, fingerprint string, vector []float32, _ string) {
	m.saveCalls++
	m.savedText = queryText
	m.savedFP = fingerprint
	m.savedVec = vector
}

func (m *mockCache) FindSimilar(_ context.Context, _ []float32, _ float64, _ int) []domain.SimilarQuery {
	return m.similar
}

type mockRetriever struct {
	matches  []domain.Match
	err      error
	calls    int
	lastCat  string
	lastVec  []float32
	lastK    int
	lastMinS float64
}

func (m *mockRetriever) Search(
	_ context.Context, vector []float32, matchCount int, threshold float64, category string,
) ([]domain.Match, error) {
	m.calls++
	m.lastVec = vector
	m.lastK = matchCount
	m.lastMinS = threshold
	m.lastCat = category
	return m.matches, m.err
}

type mockEmbedder struct {
	result   domain.EmbeddingResult
	err      error
	calls    int
	lastText string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	m.lastText = text
	return m.result, m.err
}

type mockGenerator struct {
	result      domain.GenerationResult
	err         error
	calls       int
	lastContext string
}

func (m *mockGenerator) Generate(_ context.Context, _, contextText string) (domain.GenerationResult, error) {
	m.calls++
	m.lastContext = contextText
	return m.result, m.err
}

type mockDispatcher struct {
	traces []domain.RequestTrace
}

func (m *mockDispatcher) Dispatch(_ context.Context, trace domain.RequestTrace) {
	m.traces = append(m.traces, trace)
}

type fixture struct {
	cache     *mockCache
	retriever *mockRetriever
	embedder  *mockEmbedder
	generator *mockGenerator
	telemetry *mockDispatcher
	svc       *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		cache:     &mockCache{},
		retriever: &mockRetriever{},
		embedder:  &mockEmbedder{result: domain.EmbeddingResult{Embedding: make([]float32, 4)}},
		generator: &mockGenerator{result: domain.GenerationResult{Text: "Based on Source 1, yes."}},
		telemetry: &mockDispatcher{},
	}
	cfg := domain.RAGConfig{
		EmbeddingModel:      "text-embedding-3-small",
		Dimensions:          4,
		ChatModel:           "gpt-4o",
		Temperature:         0.7,
		MaxTokens:           1000,
		MatchCount:          8,
		SimilarityThreshold: 0.30,
	}
	f.svc = New(f.cache, f.retriever, f.embedder, f.generator, f.telemetry, cfg)
	return f
}

func testMatches() []domain.Match {
	return []domain.Match{
		{ID: "p1", Source: "roadmap.md", Content: "the plan", Similarity: 0.85, Category: "strategy", Rank: 1},
		{ID: "p2", Source: "notes.md", Content: "the notes", Similarity: 0.62, Category: "strategy", Rank: 2},
	}
}
