package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/domain/grounding"
	"github.com/kailas-cloud/ragdex/internal/logger"
	answeruc "github.com/kailas-cloud/ragdex/internal/usecase/answer"
	healthuc "github.com/kailas-cloud/ragdex/internal/usecase/health"
)

// Error codes returned to clients.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeProviderError    = "provider_error"
	codeRetrievalError   = "retrieval_error"
	codeInternalError    = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, r *http.Request, err error, msg string) bool

// Server exposes the question-answering pipeline over HTTP.
type Server struct {
	answers       *answeruc.Service
	health        *healthuc.Service
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(answers *answeruc.Service, health *healthuc.Service) *Server {
	s := &Server{
		answers: answers,
		health:  health,
	}
	s.errorHandlers = []errorHandler{
		retrievalHandler,
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusInternalServerError, codeProviderError),
		sentinelHandler(domain.ErrGenerationProviderError, http.StatusInternalServerError, codeProviderError),
	}
	return s
}

// Mount registers the API routes on the given router.
func (s *Server) Mount(r chi.Router) {
	r.Post("/api/v1/query", s.Query)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

type queryRequest struct {
	Query string `json:"query"`
	Type  string `json:"type,omitempty"`
}

type queryResponse struct {
	Response string             `json:"response"`
	Sources  []domain.SourceRef `json:"sources"`
	Metadata responseMetadata   `json:"metadata"`
}

type responseMetadata struct {
	RequestID       string               `json:"requestId"`
	Timestamp       time.Time            `json:"timestamp"`
	DurationMillis  int64                `json:"duration"`
	MatchCount      int                  `json:"matchCount"`
	EmbeddingCached bool                 `json:"embeddingCached"`
	Grounding       grounding.Assessment `json:"grounding"`
	Models          modelsMetadata       `json:"models"`
}

type modelsMetadata struct {
	Embedding string `json:"embedding"`
	Chat      string `json:"chat"`
}

type errorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code"`
	Details   any       `json:"details,omitempty"`
	RequestID string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

// Query handles POST /api/v1/query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, nil, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error(), nil)
		return
	}

	answer, err := s.answers.Ask(r.Context(), req.Query, req.Type)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Response: answer.Response,
		Sources:  answer.Sources,
		Metadata: responseMetadata{
			RequestID:       answer.Metadata.RequestID,
			Timestamp:       answer.Metadata.Timestamp.UTC(),
			DurationMillis:  answer.Metadata.Duration.Milliseconds(),
			MatchCount:      answer.Metadata.MatchCount,
			EmbeddingCached: answer.Metadata.EmbeddingCached,
			Grounding:       answer.Metadata.Grounding,
			Models: modelsMetadata{
				Embedding: answer.Metadata.Models.Embedding,
				Chat:      answer.Metadata.Models.Chat,
			},
		},
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, err error, status int, code, message string, details any) {
	writeJSON(w, status, errorResponse{
		Error:     message,
		Code:      code,
		Details:   details,
		RequestID: errorRequestID(r, err),
		Timestamp: time.Now().UTC(),
	})
}

// errorRequestID prefers the pipeline's trace ID so the error body matches
// the telemetry record written for the same request. Transport-level
// failures fall back to the middleware request ID.
func errorRequestID(r *http.Request, err error) string {
	var re *domain.RequestError
	if errors.As(err, &re) && re.RequestID != "" {
		return re.RequestID
	}
	return chiMiddleware.GetReqID(r.Context())
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidQuery) {
		// Validation details are the caller's own input, safe to echo.
		return err.Error()
	}
	sentinels := []error{
		domain.ErrEmbeddingProviderError,
		domain.ErrGenerationProviderError,
		domain.ErrRetrieval,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, r *http.Request, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, r, err, status, code, msg, nil)
		return true
	}
}

// retrievalHandler handles ErrRetrieval with the connectivity probe outcome
// attached as diagnostic details.
func retrievalHandler(w http.ResponseWriter, r *http.Request, err error, msg string) bool {
	if !errors.Is(err, domain.ErrRetrieval) {
		return false
	}
	var details any
	var re *domain.RetrievalError
	if errors.As(err, &re) && re.Probe != "" {
		details = map[string]string{"connectivity": re.Probe}
	}
	writeError(w, r, err, http.StatusInternalServerError, codeRetrievalError, msg, details)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	var re *domain.RequestError
	if errors.As(err, &re) {
		// Links the transport log line to the pipeline's telemetry record.
		log = log.With(zap.String("pipeline_request_id", re.RequestID))
	}
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, r, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, r, err, http.StatusInternalServerError, codeInternalError, "internal error", nil)
}
