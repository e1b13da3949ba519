package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rhuss/agentgate/pkg/api"
)

// Route label values outside the resource kinds.
const (
	RouteMe     = "me"
	RouteHealth = "health"
	RouteOther  = "other"
)

// RouteLabel maps a request path to a bounded label: the resource kind for
// /v1/{kind}/..., "me", "health" for probes, or "other". Unknown kinds
// collapse to "other" so clients cannot grow the label set.
func RouteLabel(path string) string {
	switch path {
	case "/healthz", "/readyz":
		return RouteHealth
	case "/v1/me":
		return RouteMe
	}
	rest, ok := strings.CutPrefix(path, "/v1/")
	if !ok {
		return RouteOther
	}
	kind, _, _ := strings.Cut(rest, "/")
	if api.Kind(kind).Valid() {
		return kind
	}
	return RouteOther
}

// MetricsMiddleware records agentgate_requests_total and
// agentgate_request_duration_seconds for every request.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		cw := &codeWriter{ResponseWriter: w}
		next.ServeHTTP(cw, r)

		route := RouteLabel(r.URL.Path)
		RequestsTotal.WithLabelValues(r.Method, route, statusClass(cw.code)).Inc()
		RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// statusClass renders 404 as "4xx". A handler that never wrote counts as 200.
func statusClass(code int) string {
	if code == 0 {
		code = http.StatusOK
	}
	return strconv.Itoa(code/100) + "xx"
}

// codeWriter remembers the first status code written.
type codeWriter struct {
	http.ResponseWriter
	code int
}

func (w *codeWriter) WriteHeader(code int) {
	if w.code == 0 {
		w.code = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *codeWriter) Write(b []byte) (int, error) {
	if w.code == 0 {
		w.code = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *codeWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
