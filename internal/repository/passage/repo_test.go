package passage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/ragdex/internal/db"
	"github.com/kailas-cloud/ragdex/internal/domain"
)

var testVector = []float32{0.1, 0.2, 0.3, 0.4}

func TestSearchLocalThresholdRefilter(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		// The remote filter is not trusted: one entry slips in below
		// the threshold and must be dropped locally.
		return &db.SearchResult{Entries: []db.SearchEntry{
			entry("p1", "roadmap.md", "strategy", 0.85),
			entry("p2", "notes.md", "strategy", 0.10),
			entry("p3", "plan.md", "strategy", 0.62),
		}}, nil
	}

	matches, err := repo.Search(context.Background(), testVector, 8, 0.30, "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	for _, m := range matches {
		if m.Similarity < 0.30 {
			t.Errorf("match %q below threshold: %f", m.ID, m.Similarity)
		}
	}
	// Rank is 1-based and assigned after filtering.
	if matches[0].Rank != 1 || matches[1].Rank != 2 {
		t.Errorf("ranks = %d, %d", matches[0].Rank, matches[1].Rank)
	}
	if matches[0].ID != "p1" || matches[1].ID != "p3" {
		t.Errorf("ids = %s, %s", matches[0].ID, matches[1].ID)
	}
}

func TestSearchCategoryFilterApplied(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		// The store honors the filter: only the strategy passage comes
		// back even though a feature passage scores higher.
		if q.Filter.Field == fieldCategory && q.Filter.Value == "strategy" {
			return &db.SearchResult{Entries: []db.SearchEntry{
				entry("p-strategy", "roadmap.md", "strategy", 0.62),
			}}, nil
		}
		return &db.SearchResult{Entries: []db.SearchEntry{
			entry("p-feature", "features.md", "feature", 0.85),
			entry("p-strategy", "roadmap.md", "strategy", 0.62),
		}}, nil
	}

	matches, err := repo.Search(context.Background(), testVector, 8, 0.30, "strategy")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].Category != "strategy" || matches[0].Rank != 1 {
		t.Errorf("unexpected match: %+v", matches[0])
	}
}

func TestSearchAlwaysPassesExplicitFilter(t *testing.T) {
	repo, ms := newTestRepo(t)

	if _, err := repo.Search(context.Background(), testVector, 8, 0.30, ""); err != nil {
		t.Fatalf("Search: %v", err)
	}

	if len(ms.knnQueries) == 0 {
		t.Fatal("no KNN query issued")
	}
	if !ms.knnQueries[0].Filter.IsEmpty() {
		t.Errorf("expected explicit no-filter sentinel, got %+v", ms.knnQueries[0].Filter)
	}
}

func TestSearchZeroMatchDiagnosticsDoNotFail(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		if q.Filter.IsEmpty() {
			// Unfiltered diagnostic retry also errors.
			return nil, errors.New("retry failed")
		}
		return &db.SearchResult{}, nil
	}
	ms.searchListFn = func(_ context.Context, _, _ string, _, _ int, _ []string) (*db.SearchResult, error) {
		return nil, errors.New("sample failed")
	}

	matches, err := repo.Search(context.Background(), testVector, 8, 0.30, "strategy")
	if err != nil {
		t.Fatalf("diagnostic failures must not fail the request: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("got %d matches, want 0", len(matches))
	}
}

func TestSearchZeroMatchSkipsRetryWithoutFilter(t *testing.T) {
	repo, ms := newTestRepo(t)

	if _, err := repo.Search(context.Background(), testVector, 8, 0.30, ""); err != nil {
		t.Fatalf("Search: %v", err)
	}

	// Only the primary query: no category filter means no unfiltered retry.
	if len(ms.knnQueries) != 1 {
		t.Errorf("knn queries = %d, want 1", len(ms.knnQueries))
	}
}

func TestSearchErrorAttachesProbe(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return nil, errors.New("connection refused")
	}
	ms.pingFn = func(_ context.Context) error {
		return errors.New("dial tcp: connection refused")
	}

	_, err := repo.Search(context.Background(), testVector, 8, 0.30, "")
	if !errors.Is(err, domain.ErrRetrieval) {
		t.Fatalf("err = %v, want ErrRetrieval", err)
	}

	var re *domain.RetrievalError
	if !errors.As(err, &re) {
		t.Fatalf("err %T does not carry probe data", err)
	}
	if !strings.HasPrefix(re.Probe, "unreachable:") {
		t.Errorf("probe = %q", re.Probe)
	}
}

func TestSearchErrorProbeOKWhenReachable(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.searchKNNFn = func(_ context.Context, _ *db.KNNQuery) (*db.SearchResult, error) {
		return nil, errors.New("index missing")
	}

	_, err := repo.Search(context.Background(), testVector, 8, 0.30, "")

	var re *domain.RetrievalError
	if !errors.As(err, &re) {
		t.Fatalf("err %T does not carry probe data", err)
	}
	if re.Probe != "ok" {
		t.Errorf("probe = %q, want ok", re.Probe)
	}
}
