package domain

import (
	"time"

	"github.com/kailas-cloud/ragdex/internal/domain/grounding"
)

// TraceStatus classifies the terminal state of a request.
type TraceStatus string

const (
	// StatusSuccess indicates a generated, validated answer was returned.
	StatusSuccess TraceStatus = "success"
	// StatusPartial indicates the no-match canned response was returned.
	StatusPartial TraceStatus = "partial"
	// StatusError indicates the request failed.
	StatusError TraceStatus = "error"
)

// Timings holds per-stage durations of one request.
type Timings struct {
	Embedding  time.Duration
	Search     time.Duration
	Generation time.Duration
	Total      time.Duration
}

// TraceMatch is the per-match slice of a trace (attribution only, no content).
type TraceMatch struct {
	ID         string
	Source     string
	Similarity float64
	Rank       int
}

// RequestTrace is the write-only unit of telemetry for one request. It is
// fanned out to every sink and never read back by the pipeline.
type RequestTrace struct {
	RequestID       string
	Query           string
	QueryType       string
	Fingerprint     string
	EmbeddingModel  string
	ChatModel       string
	EmbeddingCached bool
	Matches         []TraceMatch
	MatchCount      int
	Response        string
	Grounding       grounding.Assessment
	Timings         Timings
	Status          TraceStatus
	ErrorMessage    string
	StartedAt       time.Time
}
