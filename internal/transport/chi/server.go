// Package chi serves the search API over HTTP with the chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/techsearch/internal/csvexport"
	"github.com/kailas-cloud/techsearch/internal/domain"
	"github.com/kailas-cloud/techsearch/internal/domain/search/field"
	"github.com/kailas-cloud/techsearch/internal/logger"
	"github.com/kailas-cloud/techsearch/internal/transport/dto"
	healthuc "github.com/kailas-cloud/techsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/techsearch/internal/usecase/search"
)

// DefaultMaxBodyBytes bounds request bodies when Options leaves it unset.
const DefaultMaxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Suggester resolves typeahead suggestions (the typeahead service or its cache).
type Suggester interface {
	Suggest(ctx context.Context, fieldName, q string) ([]string, error)
}

// Options tunes request handling.
type Options struct {
	Paging dto.Paging
	// ExportDefaultLimit applies when an export request names no limit or 0.
	ExportDefaultLimit int
	MaxBodyBytes       int64
}

// Server holds the HTTP handlers of the search API.
type Server struct {
	search        *searchuc.Service
	suggest       Suggester
	health        *healthuc.Service
	opts          Options
	logger        *zap.Logger
	now           func() time.Time
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	suggest Suggester,
	health *healthuc.Service,
	opts Options,
	logger *zap.Logger,
) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	s := &Server{
		search:  search,
		suggest: suggest,
		health:  health,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, dto.ErrorCodeValidationFailed),
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, dto.ErrorCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, dto.ErrorCodeBadRequest, "method not allowed")
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/api", func(r chi.Router) {
		r.Post("/search", s.Search)
		r.Post("/export", s.Export)
		r.Get("/typeahead", s.Typeahead)
		r.Get("/fields", s.Fields)
		r.Post("/query/preview", s.Preview)
	})
}

// Search handles POST /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var body dto.SearchRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	req, err := body.ToDomain(s.opts.Paging)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	page, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSearchResponse(page))
}

// Export handles POST /api/export.
func (s *Server) Export(w http.ResponseWriter, r *http.Request) {
	var body dto.ExportRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	req, err := body.SearchObject.ToDomain(s.opts.Paging)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	limit := body.Limit
	if (limit == nil || *limit == 0) && s.opts.ExportDefaultLimit > 0 {
		d := s.opts.ExportDefaultLimit
		limit = &d
	}
	exp, err := s.search.Export(r.Context(), req, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	content, err := csvexport.Render(csvexport.Columns, exp.Rows)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ExportResponse{
		CSVContent:      content,
		Filename:        csvexport.Filename(s.now()),
		RecordsExported: len(exp.Rows),
		TotalAvailable:  exp.Total,
		Truncated:       exp.Truncated(),
	})
}

// typeaheadParams are the query parameters of GET /api/typeahead.
type typeaheadParams struct {
	Field string
	Q     *string
}

// Typeahead handles GET /api/typeahead?field=&q=.
func (s *Server) Typeahead(w http.ResponseWriter, r *http.Request) {
	var params typeaheadParams
	query := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, true, "field", query, &params.Field); err != nil {
		writeError(w, http.StatusBadRequest, dto.ErrorCodeBadRequest, "invalid query parameter field: "+err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "q", query, &params.Q); err != nil {
		writeError(w, http.StatusBadRequest, dto.ErrorCodeBadRequest, "invalid query parameter q: "+err.Error())
		return
	}

	var q string
	if params.Q != nil {
		q = *params.Q
	}
	suggestions, err := s.suggest.Suggest(r.Context(), params.Field, q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	writeJSON(w, http.StatusOK, suggestions)
}

// Fields handles GET /api/fields.
func (s *Server) Fields(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, dto.NewFieldList(field.All()))
}

// Preview handles POST /api/query/preview.
func (s *Server) Preview(w http.ResponseWriter, r *http.Request) {
	var body dto.PreviewRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	req, err := body.ToDomain(s.opts.Paging)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	p, err := s.search.Preview(req, body.ExportLimit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewPreviewResponse(p))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, dto.NewHealthResponse(report))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, dto.ErrorCodeBadRequest, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code dto.ErrorCode, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-facing message without exposing internals.
// Validation errors only echo request content, so they are returned in full.
func safeDomainMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	if errors.Is(err, domain.ErrValidation) {
		return domain.ErrValidation.Error()
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code dto.ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, dto.ErrorCodeInternalError, "internal error")
}
