// Package http serves the agentgate resource API over net/http.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"slices"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/agentgate/pkg/api"
	"github.com/rhuss/agentgate/pkg/auth"
	"github.com/rhuss/agentgate/pkg/observability"
	"github.com/rhuss/agentgate/pkg/transport"
)

// Adapter serves the agentgate resource API over HTTP.
// It routes requests to the resource service and serializes responses.
type Adapter struct {
	service *transport.Service
	mux     *http.ServeMux
	config  Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	// MaxBodySize limits request bodies in bytes.
	MaxBodySize int64

	// MetricsPath serves Prometheus metrics when non-empty.
	MetricsPath string

	// BypassEndpoints skip authentication.
	BypassEndpoints []string

	// Limiter rate-limits authenticated requests when non-nil.
	Limiter auth.RateLimiter

	// Logger receives request logs.
	Logger *slog.Logger
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize:     1 << 20, // 1 MiB
		MetricsPath:     "/metrics",
		BypassEndpoints: auth.DefaultBypassEndpoints,
		Logger:          slog.Default(),
	}
}

// NewAdapter creates an HTTP adapter for the given resource service.
func NewAdapter(service *transport.Service, cfg Config) *Adapter {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultConfig().MaxBodySize
	}
	a := &Adapter{
		service: service,
		mux:     http.NewServeMux(),
		config:  cfg,
	}

	a.mux.HandleFunc("GET /healthz", a.handleHealthz)
	a.mux.HandleFunc("GET /readyz", a.handleReadyz)
	if cfg.MetricsPath != "" {
		a.mux.Handle("GET "+cfg.MetricsPath, promhttp.Handler())
	}

	a.mux.HandleFunc("GET /v1/me", a.handleMe)
	a.mux.HandleFunc("POST /v1/{kind}", a.handleCreate)
	a.mux.HandleFunc("POST /v1/{kind}/search", a.handleSearch)
	a.mux.HandleFunc("GET /v1/{kind}/{id}", a.handleGet)
	a.mux.HandleFunc("PATCH /v1/{kind}/{id}", a.handleUpdate)
	a.mux.HandleFunc("DELETE /v1/{kind}/{id}", a.handleDelete)

	return a
}

// Handler returns the http.Handler for this adapter with the full
// middleware chain: recovery, request ID, logging, metrics, then
// authentication. The metrics path always bypasses authentication.
func (a *Adapter) Handler() http.Handler {
	return transport.Chain(
		transport.Recovery(),
		transport.RequestID(),
		transport.Logging(a.config.Logger),
		observability.MetricsMiddleware,
		auth.Middleware(a.service.Strategy(), a.config.Limiter, a.bypassEndpoints()),
	)(a.mux)
}

// bypassEndpoints returns the configured bypass list plus the metrics path.
func (a *Adapter) bypassEndpoints() []string {
	if a.config.MetricsPath == "" || slices.Contains(a.config.BypassEndpoints, a.config.MetricsPath) {
		return a.config.BypassEndpoints
	}
	return append(slices.Clone(a.config.BypassEndpoints), a.config.MetricsPath)
}

func (a *Adapter) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *Adapter) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := a.service.Store().HealthCheck(r.Context()); err != nil {
		slog.Warn("readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleMe handles GET /v1/me.
func (a *Adapter) handleMe(w http.ResponseWriter, r *http.Request) {
	me, err := a.service.Me(r.Context())
	if err != nil {
		transport.WriteAPIError(w, transport.AsAPIError(err))
		return
	}
	writeJSON(w, http.StatusOK, me)
}

// handleCreate handles POST /v1/{kind}.
func (a *Adapter) handleCreate(w http.ResponseWriter, r *http.Request) {
	kind, ok := a.kind(w, r)
	if !ok {
		return
	}
	var req api.CreateResourceRequest
	if !a.decode(w, r, &req) {
		return
	}

	res, err := a.service.Create(r.Context(), kind, &req)
	if err != nil {
		transport.WriteAPIError(w, transport.AsAPIError(err))
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// handleSearch handles POST /v1/{kind}/search.
func (a *Adapter) handleSearch(w http.ResponseWriter, r *http.Request) {
	kind, ok := a.kind(w, r)
	if !ok {
		return
	}
	var req api.SearchRequest
	if !a.decode(w, r, &req) {
		return
	}

	list, err := a.service.Search(r.Context(), kind, &req)
	if err != nil {
		transport.WriteAPIError(w, transport.AsAPIError(err))
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleGet handles GET /v1/{kind}/{id}.
func (a *Adapter) handleGet(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := a.kindAndID(w, r)
	if !ok {
		return
	}

	res, err := a.service.Get(r.Context(), kind, id)
	if err != nil {
		transport.WriteAPIError(w, transport.AsAPIError(err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleUpdate handles PATCH /v1/{kind}/{id}.
func (a *Adapter) handleUpdate(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := a.kindAndID(w, r)
	if !ok {
		return
	}
	var req api.UpdateResourceRequest
	if !a.decode(w, r, &req) {
		return
	}

	res, err := a.service.Update(r.Context(), kind, id, &req)
	if err != nil {
		transport.WriteAPIError(w, transport.AsAPIError(err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleDelete handles DELETE /v1/{kind}/{id}.
func (a *Adapter) handleDelete(w http.ResponseWriter, r *http.Request) {
	kind, id, ok := a.kindAndID(w, r)
	if !ok {
		return
	}

	if err := a.service.Delete(r.Context(), kind, id); err != nil {
		transport.WriteAPIError(w, transport.AsAPIError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// kind extracts and validates the {kind} path segment.
func (a *Adapter) kind(w http.ResponseWriter, r *http.Request) (api.Kind, bool) {
	kind := api.Kind(r.PathValue("kind"))
	if !kind.Valid() {
		transport.WriteAPIError(w, api.NewNotFoundError(fmt.Sprintf("unknown resource kind %q", kind)))
		return "", false
	}
	return kind, true
}

// kindAndID extracts and validates the {kind} and {id} path segments.
func (a *Adapter) kindAndID(w http.ResponseWriter, r *http.Request) (api.Kind, string, bool) {
	kind, ok := a.kind(w, r)
	if !ok {
		return "", "", false
	}
	id := r.PathValue("id")
	if !api.ValidateResourceID(id) {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("id", "malformed resource ID"),
			http.StatusBadRequest,
		)
		return "", "", false
	}
	return kind, id, true
}

// decode reads a JSON request body into v. An empty body leaves v at its
// zero value. Returns false after writing an error response.
func (a *Adapter) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
				http.StatusUnsupportedMediaType,
			)
			return false
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
				http.StatusRequestEntityTooLarge,
			)
			return false
		}
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()),
			http.StatusBadRequest,
		)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
