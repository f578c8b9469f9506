// Package raglog provides the append-only telemetry sinks. Each sink
// projects one slice of a request trace into a Redis stream entry. Sinks
// are mutually independent and best-effort: they return errors to the
// fan-out for local accounting, and the fan-out guarantees nothing
// propagates to the request path.
package raglog

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

var logStreamPrefix = domain.KeyPrefix + "log:"

// appender is the consumer interface for sink writes (ISP).
type appender interface {
	XAdd(ctx context.Context, stream string, fields map[string]string) error
}

// QuerySink records every inbound query with its terminal status.
type QuerySink struct{ store appender }

// NewQuerySink creates the query log sink.
func NewQuerySink(s appender) *QuerySink { return &QuerySink{store: s} }

// Name identifies the sink in failure metrics and logs.
func (s *QuerySink) Name() string { return "query" }

// Write appends one query log entry.
func (s *QuerySink) Write(ctx context.Context, t domain.RequestTrace) error {
	return s.store.XAdd(ctx, logStreamPrefix+s.Name(), map[string]string{
		"request_id":        t.RequestID,
		"query":             t.Query,
		"query_type":        t.QueryType,
		"status":            string(t.Status),
		"error_message":     t.ErrorMessage,
		"match_count":       strconv.Itoa(t.MatchCount),
		"total_duration_ms": durationMS(t.Timings.Total),
	})
}

// ResponseSink records the generated answer and its grounding assessment.
type ResponseSink struct{ store appender }

// NewResponseSink creates the response log sink.
func NewResponseSink(s appender) *ResponseSink { return &ResponseSink{store: s} }

// Name identifies the sink in failure metrics and logs.
func (s *ResponseSink) Name() string { return "response" }

// Write appends one response log entry. Skipped when no answer was generated.
func (s *ResponseSink) Write(ctx context.Context, t domain.RequestTrace) error {
	if t.Response == "" {
		return nil
	}
	return s.store.XAdd(ctx, logStreamPrefix+s.Name(), map[string]string{
		"request_id":            t.RequestID,
		"query_hash":            t.Fingerprint,
		"response_text":         t.Response,
		"model":                 t.ChatModel,
		"grounding_score":       strconv.Itoa(t.Grounding.Score),
		"has_source_references": strconv.FormatBool(t.Grounding.HasSourceReferences),
		"has_direct_quotes":     strconv.FormatBool(t.Grounding.HasDirectQuotes),
		"sources_cited":         strconv.Itoa(t.MatchCount),
	})
}

// MatchSink records the retrieved matches with their rank positions.
type MatchSink struct{ store appender }

// NewMatchSink creates the match log sink.
func NewMatchSink(s appender) *MatchSink { return &MatchSink{store: s} }

// Name identifies the sink in failure metrics and logs.
func (s *MatchSink) Name() string { return "match" }

// Write appends one match log entry. Skipped when nothing was retrieved.
func (s *MatchSink) Write(ctx context.Context, t domain.RequestTrace) error {
	if len(t.Matches) == 0 {
		return nil
	}
	matches, err := json.Marshal(t.Matches)
	if err != nil {
		return err
	}
	return s.store.XAdd(ctx, logStreamPrefix+s.Name(), map[string]string{
		"request_id": t.RequestID,
		"query_hash": t.Fingerprint,
		"count":      strconv.Itoa(len(t.Matches)),
		"matches":    string(matches),
	})
}

// TimestampSink records lightweight request timestamps for timeline queries.
type TimestampSink struct{ store appender }

// NewTimestampSink creates the timestamp log sink.
func NewTimestampSink(s appender) *TimestampSink { return &TimestampSink{store: s} }

// Name identifies the sink in failure metrics and logs.
func (s *TimestampSink) Name() string { return "timestamp" }

// Write appends one timestamp entry.
func (s *TimestampSink) Write(ctx context.Context, t domain.RequestTrace) error {
	return s.store.XAdd(ctx, logStreamPrefix+s.Name(), map[string]string{
		"entity_type": "rag_request",
		"entity_id":   t.RequestID,
		"created_at":  t.StartedAt.UTC().Format(time.RFC3339Nano),
		"session_id":  t.RequestID,
	})
}

// RequestSink records the unified trace combining all stage data.
type RequestSink struct{ store appender }

// NewRequestSink creates the unified request log sink.
func NewRequestSink(s appender) *RequestSink { return &RequestSink{store: s} }

// Name identifies the sink in failure metrics and logs.
func (s *RequestSink) Name() string { return "request" }

// unifiedRecord is the stream payload of the unified request log.
type unifiedRecord struct {
	RequestID       string              `json:"requestId"`
	Query           string              `json:"query"`
	QueryType       string              `json:"queryType,omitempty"`
	QueryHash       string              `json:"queryHash"`
	EmbeddingModel  string              `json:"embeddingModel"`
	ChatModel       string              `json:"chatModel,omitempty"`
	EmbeddingCached bool                `json:"embeddingCached"`
	Matches         []domain.TraceMatch `json:"matches,omitempty"`
	Response        string              `json:"response,omitempty"`
	Grounding       *groundingRecord    `json:"grounding,omitempty"`
	Performance     map[string]int64    `json:"performance"`
	Status          domain.TraceStatus  `json:"status"`
	ErrorMessage    string              `json:"errorMessage,omitempty"`
	StartedAt       string              `json:"startedAt"`
}

type groundingRecord struct {
	Score                   int  `json:"score"`
	HasSourceReferences     bool `json:"hasSourceReferences"`
	HasDirectQuotes         bool `json:"hasDirectQuotes"`
	AcknowledgesLimitations bool `json:"acknowledgesLimitations"`
	AvoidsUngroundedClaims  bool `json:"avoidsUngroundedClaims"`
}

// Write appends the full trace as a single JSON document.
func (s *RequestSink) Write(ctx context.Context, t domain.RequestTrace) error {
	rec := unifiedRecord{
		RequestID:       t.RequestID,
		Query:           t.Query,
		QueryType:       t.QueryType,
		QueryHash:       t.Fingerprint,
		EmbeddingModel:  t.EmbeddingModel,
		ChatModel:       t.ChatModel,
		EmbeddingCached: t.EmbeddingCached,
		Matches:         t.Matches,
		Response:        t.Response,
		Performance: map[string]int64{
			"embeddingDuration":  t.Timings.Embedding.Milliseconds(),
			"searchDuration":     t.Timings.Search.Milliseconds(),
			"generationDuration": t.Timings.Generation.Milliseconds(),
			"totalDuration":      t.Timings.Total.Milliseconds(),
		},
		Status:       t.Status,
		ErrorMessage: t.ErrorMessage,
		StartedAt:    t.StartedAt.UTC().Format(time.RFC3339Nano),
	}
	if t.Status == domain.StatusSuccess {
		rec.Grounding = &groundingRecord{
			Score:                   t.Grounding.Score,
			HasSourceReferences:     t.Grounding.HasSourceReferences,
			HasDirectQuotes:         t.Grounding.HasDirectQuotes,
			AcknowledgesLimitations: t.Grounding.AcknowledgesLimitations,
			AvoidsUngroundedClaims:  t.Grounding.AvoidsUngroundedClaims,
		}
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.store.XAdd(ctx, logStreamPrefix+s.Name(), map[string]string{
		"request_id": t.RequestID,
		"trace":      string(data),
	})
}

func durationMS(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10)
}
