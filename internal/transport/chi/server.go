package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docset/internal/db"
	"github.com/kailas-cloud/docset/internal/domain"
	healthuc "github.com/kailas-cloud/docset/internal/usecase/health"
	searchuc "github.com/kailas-cloud/docset/internal/usecase/search"
)

// ErrorCode is the machine-readable code of an error response.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest    ErrorCode = "bad_request"
	CodeInvalidQuery  ErrorCode = "invalid_query"
	CodeUnauthorized  ErrorCode = "unauthorized"
	CodeUnknownKind   ErrorCode = "unknown_kind"
	CodeIndexNotFound ErrorCode = "index_not_found"
	CodeOutOfRange    ErrorCode = "index_out_of_range"
	CodeNotSupported  ErrorCode = "not_supported"
	CodeBackendError  ErrorCode = "backend_error"
	CodeTimeout       ErrorCode = "timeout"
	CodeInternalError ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// CountResponse is the body of GET /v1/kinds/{kind}/count.
type CountResponse struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// KindsResponse is the body of GET /v1/kinds.
type KindsResponse struct {
	Kinds []string `json:"kinds"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the search API over chi.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{search: search, health: health, logger: logger}
	// Order matters: a timeout is also an execution error, and a backend
	// that cannot serve a feature reports it as a build error too.
	s.errorHandlers = []errorHandler{
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, CodeTimeout),
		sentinelHandler(domain.ErrNotSupported, http.StatusNotImplemented, CodeNotSupported),
		sentinelHandler(domain.ErrBuild, http.StatusBadRequest, CodeInvalidQuery),
		sentinelHandler(domain.ErrIndexRange, http.StatusRequestedRangeNotSatisfiable, CodeOutOfRange),
		sentinelHandler(domain.ErrUnknownKind, http.StatusNotFound, CodeUnknownKind),
		sentinelHandler(db.ErrIndexNotFound, http.StatusNotFound, CodeIndexNotFound),
		sentinelHandler(domain.ErrExecution, http.StatusBadGateway, CodeBackendError),
	}
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/v1/kinds", func(r chi.Router) {
		r.Get("/", s.ListKinds)
		r.Get("/{kind}/search", s.Search)
		r.Get("/{kind}/count", s.Count)
	})
}

// ListKinds handles GET /v1/kinds.
func (s *Server) ListKinds(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, KindsResponse{Kinds: s.search.Kinds()})
}

// Search handles GET /v1/kinds/{kind}/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	params, err := paramsFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	res, err := s.search.Search(r.Context(), chi.URLParam(r, "kind"), params)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Count handles GET /v1/kinds/{kind}/count.
func (s *Server) Count(w http.ResponseWriter, r *http.Request) {
	params, err := paramsFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	kind := chi.URLParam(r, "kind")
	n, err := s.search.Count(r.Context(), kind, params)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Kind: kind, Count: n})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client message without exposing backend internals.
// Build and range errors describe the caller's own query and are returned as is.
func safeDomainMessage(err error) string {
	var be *domain.BuildError
	if errors.As(err, &be) {
		return be.Error()
	}
	var re *domain.RangeError
	if errors.As(err, &re) {
		return re.Error()
	}

	sentinels := []error{
		context.DeadlineExceeded,
		domain.ErrNotSupported,
		domain.ErrUnknownKind,
		db.ErrIndexNotFound,
		domain.ErrExecution,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
