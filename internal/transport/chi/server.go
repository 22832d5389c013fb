package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tiles/internal/domain"
	"github.com/kailas-cloud/tiles/internal/metrics"
	healthuc "github.com/kailas-cloud/tiles/internal/usecase/health"
	"github.com/kailas-cloud/tiles/internal/usecase/registry"
	"github.com/kailas-cloud/tiles/internal/usecase/tiledata"
	"github.com/kailas-cloud/tiles/internal/usecase/tileurl"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Options holds server settings that are not services.
type Options struct {
	// BaseURL is the public site URL tile URLs are built on.
	BaseURL string
	// ESIEnabled lets ESI-capable tiles answer X-ESI-Enabled with a placeholder.
	ESIEnabled bool
	// APIKeys enables bearer authentication when non-empty.
	APIKeys []string
}

// Server serves tile types and traverses to tiles.
type Server struct {
	types         *registry.Registry
	data          *tiledata.Service
	urls          *tileurl.Service
	health        *healthuc.Service
	renderer      Renderer
	opts          Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP server.
func NewServer(
	types *registry.Registry,
	data *tiledata.Service,
	urls *tileurl.Service,
	health *healthuc.Service,
	renderer Renderer,
	opts Options,
	logger *zap.Logger,
) *Server {
	s := &Server{
		types:    types,
		data:     data,
		urls:     urls,
		health:   health,
		renderer: renderer,
		opts:     opts,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrTileTypeNotFound, http.StatusNotFound, codeTileTypeNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrInvalidTile, http.StatusBadRequest, codeInvalidTile),
		sentinelHandler(domain.ErrDecode, http.StatusBadRequest, codeDecodeError),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, codeConflict),
		sentinelHandler(domain.ErrUnsupportedFieldKind, http.StatusInternalServerError, codeUnsupportedFieldKind),
	}
	return s
}

// Router builds the chi router with the middleware chain and all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(s.opts.APIKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Get("/tiles", s.ListTileTypes)
	r.Get("/tiles/{name}", s.GetTileType)
	r.HandleFunc("/*", s.Traverse)
	return r
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	// A degraded server still renders transient tiles.
	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// ListTileTypes handles GET /tiles.
func (s *Server) ListTileTypes(w http.ResponseWriter, _ *http.Request) {
	types := s.types.List()
	items := make([]tileTypeResponse, len(types))
	for i, t := range types {
		items[i] = tileTypeToResponse(t)
	}
	writeJSON(w, http.StatusOK, tileTypeListResponse{Items: items, Total: len(items)})
}

// GetTileType handles GET /tiles/{name}.
func (s *Server) GetTileType(w http.ResponseWriter, r *http.Request) {
	var name string
	err := runtime.BindStyledParameterWithOptions("simple", "name", chi.URLParam(r, "name"), &name,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid format for parameter name: "+err.Error())
		return
	}

	t, err := s.types.Lookup(name)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tileTypeToResponse(t))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrTileTypeNotFound,
		domain.ErrNotFound,
		domain.ErrInvalidTile,
		domain.ErrDecode,
		domain.ErrAlreadyExists,
		domain.ErrUnsupportedFieldKind,
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
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
