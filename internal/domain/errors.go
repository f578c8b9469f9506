package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery signals a missing, empty, or oversized query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationProviderError signals a chat generation provider failure.
	ErrGenerationProviderError = errors.New("generation provider error")
	// ErrRetrieval signals a vector store search failure.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)

// RequestError tags a pipeline failure with the request ID its telemetry
// was recorded under, so error responses can carry the same ID for
// correlation.
type RequestError struct {
	RequestID string
	Err       error
}

func (e *RequestError) Error() string { return e.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

// RetrievalError wraps ErrRetrieval with the outcome of the connectivity
// probe run after the failed search. The probe result is diagnostic only
// and never replaces the underlying search error.
type RetrievalError struct {
	Probe string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("%s (connectivity: %s): %v", ErrRetrieval.Error(), e.Probe, e.Err)
}

func (e *RetrievalError) Unwrap() error { return ErrRetrieval }

// NewRetrievalError creates a retrieval error carrying the probe outcome.
func NewRetrievalError(probe string, err error) error {
	return &RetrievalError{Probe: probe, Err: err}
}
