package raglog

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

type mockAppender struct {
	stream string
	fields map[string]string
	calls  int
	err    error
}

func (m *mockAppender) XAdd(_ context.Context, stream string, fields map[string]string) error {
	m.calls++
	m.stream = stream
	m.fields = fields
	return m.err
}

func successTrace() domain.RequestTrace {
	t := domain.RequestTrace{
		RequestID:      "req-1",
		Query:          "what is our roadmap?",
		QueryType:      "strategy",
		Fingerprint:    "abc123",
		EmbeddingModel: "text-embedding-3-small",
		ChatModel:      "gpt-4o",
		Matches: []domain.TraceMatch{
			{ID: "p1", Source: "roadmap.md", Similarity: 0.85, Rank: 1},
		},
		MatchCount: 1,
		Response:   "Based on Source 1, in Q3.",
		Status:     domain.StatusSuccess,
		StartedAt:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	t.Grounding.Score = 55
	t.Grounding.HasSourceReferences = true
	t.Grounding.AvoidsUngroundedClaims = true
	t.Timings.Total = 1200 * time.Millisecond
	return t
}

func TestQuerySinkFields(t *testing.T) {
	ma := &mockAppender{}
	sink := NewQuerySink(ma)

	if err := sink.Write(context.Background(), successTrace()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if ma.stream != "ragdex:log:query" {
		t.Errorf("stream = %q", ma.stream)
	}
	if ma.fields["request_id"] != "req-1" || ma.fields["status"] != "success" {
		t.Errorf("fields = %v", ma.fields)
	}
	if ma.fields["total_duration_ms"] != "1200" {
		t.Errorf("duration = %q", ma.fields["total_duration_ms"])
	}
}

func TestResponseSinkSkipsWithoutResponse(t *testing.T) {
	ma := &mockAppender{}
	sink := NewResponseSink(ma)

	trace := successTrace()
	trace.Response = ""

	if err := sink.Write(context.Background(), trace); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if ma.calls != 0 {
		t.Error("response sink wrote an entry without a response")
	}
}

func TestMatchSinkSkipsWithoutMatches(t *testing.T) {
	ma := &mockAppender{}
	sink := NewMatchSink(ma)

	trace := successTrace()
	trace.Matches = nil

	if err := sink.Write(context.Background(), trace); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if ma.calls != 0 {
		t.Error("match sink wrote an entry without matches")
	}
}

func TestRequestSinkUnifiedRecord(t *testing.T) {
	ma := &mockAppender{}
	sink := NewRequestSink(ma)

	if err := sink.Write(context.Background(), successTrace()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var rec unifiedRecord
	if err := json.Unmarshal([]byte(ma.fields["trace"]), &rec); err != nil {
		t.Fatalf("unmarshal trace: %v", err)
	}
	if rec.RequestID != "req-1" || rec.Status != domain.StatusSuccess {
		t.Errorf("record = %+v", rec)
	}
	if rec.Grounding == nil || rec.Grounding.Score != 55 {
		t.Errorf("grounding = %+v", rec.Grounding)
	}
	if rec.Performance["totalDuration"] != 1200 {
		t.Errorf("performance = %v", rec.Performance)
	}
}

func TestRequestSinkOmitsGroundingOnError(t *testing.T) {
	ma := &mockAppender{}
	sink := NewRequestSink(ma)

	trace := successTrace()
	trace.Status = domain.StatusError
	trace.ErrorMessage = "retrieval failed"

	if err := sink.Write(context.Background(), trace); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var rec unifiedRecord
	if err := json.Unmarshal([]byte(ma.fields["trace"]), &rec); err != nil {
		t.Fatalf("unmarshal trace: %v", err)
	}
	if rec.Grounding != nil {
		t.Error("grounding present on an error trace")
	}
	if rec.ErrorMessage != "retrieval failed" {
		t.Errorf("error message = %q", rec.ErrorMessage)
	}
}
