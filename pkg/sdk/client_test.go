package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestQuerySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/query" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("auth header = %q", got)
		}

		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Query != "what is our roadmap?" || req.Type != "strategy" {
			t.Errorf("request = %+v", req)
		}

		_ = json.NewEncoder(w).Encode(Answer{
			Response: "Based on Source 1, in Q3.",
			Sources:  []Source{{Source: "roadmap.md", Similarity: 0.85, Type: "strategy"}},
			Metadata: Metadata{RequestID: "req-1", MatchCount: 1},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, WithAPIKey("secret"))
	answer, err := client.Query(context.Background(), "what is our roadmap?", WithCategory("strategy"))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if answer.Response == "" || len(answer.Sources) != 1 {
		t.Errorf("answer = %+v", answer)
	}
	if answer.Metadata.RequestID != "req-1" {
		t.Errorf("request id = %q", answer.Metadata.RequestID)
	}
}

func TestQueryErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"validation", http.StatusBadRequest, ErrInvalidQuery},
		{"auth", http.StatusUnauthorized, ErrUnauthorized},
		{"server", http.StatusInternalServerError, ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":     "boom",
					"code":      "test",
					"requestId": "req-1",
				})
			}))
			defer srv.Close()

			_, err := New(srv.URL).Query(context.Background(), "q")
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("err = %v, want %v", err, tt.sentinel)
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err %T is not an APIError", err)
			}
			if apiErr.RequestID != "req-1" {
				t.Errorf("request id = %q", apiErr.RequestID)
			}
		})
	}
}

func TestHealthDegraded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(Health{
			Status: "degraded",
			Checks: map[string]string{"database": "error"},
		})
	}))
	defer srv.Close()

	h, err := New(srv.URL).Health(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
	if h.Status != "degraded" || h.Checks["database"] != "error" {
		t.Errorf("report = %+v", h)
	}
}
