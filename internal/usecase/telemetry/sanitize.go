package telemetry

import (
	"github.com/kailas-cloud/ragdex/internal/domain"
)

const (
	maxLoggedQueryRunes    = 1000
	maxLoggedResponseRunes = 4000
	truncationMarker       = "...[truncated]"
)

// truncateRunes cuts s to at most limit runes and appends a marker when
// anything was dropped. Rune-based so multi-byte text never gets split.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + truncationMarker
}

func clampScore(v float64, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// sanitizeTrace returns a copy of the trace that is safe to persist:
// oversized fields truncated, out-of-range numbers clamped, required
// string fields defaulted. The caller's trace is never mutated.
func sanitizeTrace(t domain.RequestTrace) domain.RequestTrace {
	t.Query = truncateRunes(t.Query, maxLoggedQueryRunes)
	t.Response = truncateRunes(t.Response, maxLoggedResponseRunes)

	if t.QueryType == "" {
		t.QueryType = "general"
	}
	if t.EmbeddingModel == "" {
		t.EmbeddingModel = "unknown"
	}
	if t.ChatModel == "" {
		t.ChatModel = "unknown"
	}

	t.Grounding.Score = int(clampScore(float64(t.Grounding.Score), 0, 100))

	if t.Matches != nil {
		matches := make([]domain.TraceMatch, len(t.Matches))
		copy(matches, t.Matches)
		for i := range matches {
			matches[i].Similarity = clampScore(matches[i].Similarity, 0, 1)
			if matches[i].Source == "" {
				matches[i].Source = "unknown"
			}
		}
		t.Matches = matches
	}

	if t.MatchCount < 0 {
		t.MatchCount = 0
	}

	return t
}
