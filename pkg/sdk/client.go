// Package sdk provides a Go client for the ragdex question-answering API.
//
//	client := sdk.New("http://localhost:8080", sdk.WithAPIKey("secret"))
//	answer, err := client.Query(ctx, "what is our roadmap?", sdk.WithCategory("strategy"))
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client is the ragdex API client.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates an API client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 90 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Answer is a question-answering result.
type Answer struct {
	Response string   `json:"response"`
	Sources  []Source `json:"sources"`
	Metadata Metadata `json:"metadata"`
}

// Source attributes one retrieved passage.
type Source struct {
	Source     string  `json:"source"`
	Similarity float64 `json:"similarity"`
	Type       string  `json:"type"`
}

// Metadata is the per-request envelope.
type Metadata struct {
	RequestID       string    `json:"requestId"`
	Timestamp       time.Time `json:"timestamp"`
	DurationMillis  int64     `json:"duration"`
	MatchCount      int       `json:"matchCount"`
	EmbeddingCached bool      `json:"embeddingCached"`
	Grounding       Grounding `json:"grounding"`
	Models          Models    `json:"models"`
}

// Grounding is the answer's grounding assessment.
type Grounding struct {
	HasSourceReferences     bool `json:"hasSourceReferences"`
	HasDirectQuotes         bool `json:"hasDirectQuotes"`
	AcknowledgesLimitations bool `json:"acknowledgesLimitations"`
	AvoidsUngroundedClaims  bool `json:"avoidsUngroundedClaims"`
	Score                   int  `json:"score"`
}

// Models names the providers that served the request.
type Models struct {
	Embedding string `json:"embedding"`
	Chat      string `json:"chat"`
}

type queryRequest struct {
	Query string `json:"query"`
	Type  string `json:"type,omitempty"`
}

// Query asks a question against the knowledge base.
func (c *Client) Query(ctx context.Context, query string, opts ...QueryOption) (Answer, error) {
	req := queryRequest{Query: query}
	for _, o := range opts {
		o(&req)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Answer{}, fmt.Errorf("ragdex: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+"/api/v1/query", bytes.NewReader(body),
	)
	if err != nil {
		return Answer{}, fmt.Errorf("ragdex: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Answer{}, fmt.Errorf("ragdex: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Answer{}, parseErrorResponse(resp)
	}

	var answer Answer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return Answer{}, fmt.Errorf("ragdex: decode response: %w", err)
	}
	return answer, nil
}

// Health holds the service health report.
type Health struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health fetches the service health report. A degraded service still
// returns a report alongside ErrUnavailable.
func (c *Client) Health(ctx context.Context) (Health, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return Health{}, fmt.Errorf("ragdex: build request: %w", err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Health{}, fmt.Errorf("ragdex: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var h Health
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return Health{}, fmt.Errorf("ragdex: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return h, ErrUnavailable
	}
	return h, nil
}
