package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinel errors for API failure classes. Use errors.Is() to check.
var (
	// ErrInvalidQuery signals a rejected query (empty, oversized, bad body).
	ErrInvalidQuery = errors.New("ragdex: invalid query")
	// ErrUnauthorized signals a missing or invalid API key.
	ErrUnauthorized = errors.New("ragdex: unauthorized")
	// ErrServer signals a provider or store failure on the service side.
	ErrServer = errors.New("ragdex: server error")
	// ErrUnavailable signals a degraded or unreachable service.
	ErrUnavailable = errors.New("ragdex: service unavailable")
)

// APIError carries the structured error body returned by the service.
type APIError struct {
	Message   string    `json:"error"`
	Code      string    `json:"code"`
	Details   any       `json:"details,omitempty"`
	RequestID string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`

	status int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ragdex: %s (code=%s, request_id=%s)", e.Message, e.Code, e.RequestID)
}

// Unwrap maps the HTTP status to a sentinel for errors.Is checks.
func (e *APIError) Unwrap() error {
	switch e.status {
	case http.StatusBadRequest:
		return ErrInvalidQuery
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusServiceUnavailable:
		return ErrUnavailable
	default:
		return ErrServer
	}
}

func parseErrorResponse(resp *http.Response) error {
	apiErr := &APIError{status: resp.StatusCode}
	if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
		return fmt.Errorf("ragdex: unexpected status %d: %w", resp.StatusCode, apiErr.Unwrap())
	}
	return apiErr
}
