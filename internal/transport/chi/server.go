// Package chi exposes filtering and render previews over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/pesto/internal/domain"
	"github.com/kailas-cloud/pesto/internal/domain/query"
	"github.com/kailas-cloud/pesto/internal/domain/value"
	"github.com/kailas-cloud/pesto/internal/logger"
	"github.com/kailas-cloud/pesto/internal/metrics"
	"github.com/kailas-cloud/pesto/internal/template"
	filteruc "github.com/kailas-cloud/pesto/internal/usecase/filter"
	healthuc "github.com/kailas-cloud/pesto/internal/usecase/health"
	renderuc "github.com/kailas-cloud/pesto/internal/usecase/render"
	"github.com/kailas-cloud/pesto/internal/version"
)

// Error codes returned in errorResponse.Code.
const (
	codeBadRequest    = "bad_request"
	codeUnauthorized  = "unauthorized"
	codeUnprocessable = "unprocessable_document"
	codeInternal      = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Defaults are the render settings applied when a request leaves them out.
type Defaults struct {
	Template string
	Options  renderuc.Options
}

// Server serves the filter and render endpoints.
type Server struct {
	defaults      Defaults
	defaultTmpl   *template.Template
	apiKeys       []string
	maxBodyBytes  int64
	logger        *zap.Logger
	health        *healthuc.Service
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. The default template is parsed once.
func NewServer(defaults Defaults, apiKeys []string, maxBodyBytes int64, l *zap.Logger) (*Server, error) {
	if defaults.Template == "" {
		defaults.Template = template.DefaultMarkdown
	}
	tmpl, err := template.New("default", defaults.Template)
	if err != nil {
		return nil, err
	}
	if l == nil {
		l = zap.NewNop()
	}
	s := &Server{
		defaults:     defaults,
		defaultTmpl:  tmpl,
		apiKeys:      apiKeys,
		maxBodyBytes: maxBodyBytes,
		logger:       l,
		health:       healthuc.New(l),
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidExpression, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrUnknownOperator, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrInvalidRule, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrInvalidPattern, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrFilenameFieldMissing, http.StatusUnprocessableEntity, codeUnprocessable),
		sentinelHandler(domain.ErrInvalidFilename, http.StatusUnprocessableEntity, codeUnprocessable),
		templateErrorHandler,
	}
	return s, nil
}

// WithHealth replaces the health service reported on /health.
func (s *Server) WithHealth(h *healthuc.Service) *Server {
	if h != nil {
		s.health = h
	}
	return s
}

// Routes builds the router with the full middleware chain.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(s.apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Post("/filter", s.Filter)
		r.Post("/render", s.Render)
	})
	return r
}

type filterRequest struct {
	Documents []*value.Object `json:"documents"`
	Filters   []string        `json:"filters"`
	Excludes  []string        `json:"excludes"`
}

type filterResponse struct {
	Documents []*value.Object `json:"documents"`
	Count     int             `json:"count"`
}

// Filter handles POST /v1/filter.
func (s *Server) Filter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if !s.decode(w, r, &req) {
		return
	}

	f, err := query.NewFilter(req.Filters, req.Excludes)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	kept := filteruc.New(f, logger.FromContext(r.Context())).Apply(req.Documents)
	writeJSON(w, http.StatusOK, filterResponse{Documents: kept, Count: len(kept)})
}

type renderRequest struct {
	filterRequest
	Template          *string  `json:"template"`
	FileName          *string  `json:"file_name"`
	FrontMatter       *bool    `json:"front_matter"`
	FrontMatterFields []string `json:"front_matter_fields"`
	Aliases           []string `json:"aliases"`
	Defaults          []string `json:"defaults"`
	Overrides         []string `json:"overrides"`
	Annotations       *bool    `json:"annotations"`
}

type renderedFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type renderResponse struct {
	Files []renderedFile `json:"files"`
}

// Render handles POST /v1/render. Nothing is written; the response carries
// the rendered files.
func (s *Server) Render(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if !s.decode(w, r, &req) {
		return
	}

	f, err := query.NewFilter(req.Filters, req.Excludes)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	opts := s.mergeOptions(req)
	spec, err := opts.Spec()
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	tmpl := s.defaultTmpl
	if req.Template != nil {
		if tmpl, err = template.New("request", *req.Template); err != nil {
			s.handleDomainError(w, r, err)
			return
		}
	}

	ctx := logger.With(r.Context(), zap.Int("documents", len(req.Documents)))
	reqLogger := logger.FromContext(ctx)
	kept := filteruc.New(f, reqLogger).Apply(req.Documents)
	outs, err := renderuc.New(spec, tmpl, nil, reqLogger).Preview(kept)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	files := make([]renderedFile, len(outs))
	for i, o := range outs {
		files[i] = renderedFile{Name: o.Name, Content: o.Content}
	}
	writeJSON(w, http.StatusOK, renderResponse{Files: files})
}

func (s *Server) mergeOptions(req renderRequest) renderuc.Options {
	opts := s.defaults.Options
	opts.DryRun = true
	if req.FileName != nil {
		opts.FileName = *req.FileName
	}
	if req.FrontMatter != nil {
		opts.FrontMatter = *req.FrontMatter
	}
	if req.FrontMatterFields != nil {
		opts.FrontMatterFields = req.FrontMatterFields
	}
	if req.Aliases != nil {
		opts.Aliases = req.Aliases
	}
	if req.Defaults != nil {
		opts.Defaults = req.Defaults
	}
	if req.Overrides != nil {
		opts.Overrides = req.Overrides
	}
	if req.Annotations != nil {
		opts.KeepAnnotations = *req.Annotations
	}
	return opts
}

type healthResponse struct {
	healthuc.Report
	Version string `json:"version"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Report: report, Version: version.Version})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// Client errors carry the full message: it names the offending expression or field.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func templateErrorHandler(w http.ResponseWriter, err error) bool {
	var te *template.Error
	if !errors.As(err, &te) {
		return false
	}
	status := http.StatusBadRequest
	if te.Phase == template.PhaseExecute {
		status = http.StatusUnprocessableEntity
	}
	writeError(w, status, codeBadRequest, err.Error())
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	l := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			l.Warn("domain error", zap.Error(err))
			return
		}
	}
	l.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}
