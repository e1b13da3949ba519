package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rhuss/agentgate/pkg/observability"
)

// Middleware creates HTTP middleware from a Strategy and optional RateLimiter.
// It checks the bypass list, runs authentication, and injects the identity
// into the request context. Authorization is left to the resource layer,
// which knows the operation payload.
func Middleware(strategy Strategy, limiter RateLimiter, bypassEndpoints []string) func(http.Handler) http.Handler {
	bypass := make(map[string]bool, len(bypassEndpoints))
	for _, ep := range bypassEndpoints {
		bypass[ep] = true
	}
	mode := strategy.Mode()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypass[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			identity, err := strategy.Authenticate(r.Context(), FromHTTPHeader(r.Header))
			observability.AuthDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

			if err == nil && (identity == nil || identity.Subject == "") {
				err = AuthenticationSystemError(nil)
				slog.Error("authenticator returned identity with empty subject", "mode", mode)
			}

			if err != nil {
				ae := AsError(err)
				observability.AuthDecisionsTotal.WithLabelValues(mode, observability.OutcomeDenied, string(ae.Kind)).Inc()
				logFailure(r, ae)
				WriteError(w, ae)
				return
			}

			observability.AuthDecisionsTotal.WithLabelValues(mode, observability.OutcomeAllowed, "none").Inc()
			slog.Debug("authentication succeeded",
				"subject", identity.Subject,
				"authenticated", identity.IsAuthenticated,
				"path", r.URL.Path,
			)

			if limiter != nil {
				if err := limiter.Allow(r.Context(), identity); err != nil {
					tier := Tier(identity)
					slog.Warn("rate limit exceeded", "subject", identity.Subject, "tier", tier)
					observability.RateLimitRejectedTotal.WithLabelValues(tier).Inc()
					WriteError(w, AsError(err))
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(SetIdentity(r.Context(), identity)))
		})
	}
}

// logFailure logs credential problems at warn level and internal problems
// with their full cause at error level.
func logFailure(r *http.Request, ae *Error) {
	if ae.Status() >= http.StatusInternalServerError {
		slog.Error("authentication error",
			"path", r.URL.Path,
			"kind", ae.Kind,
			"error", ae.Err,
		)
		return
	}
	slog.Warn("authentication failed",
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"kind", ae.Kind,
	)
}

// errorBody mirrors the API error envelope without importing pkg/api.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// WriteError writes ae as a JSON error envelope with its status code.
// Only the caller-safe message is written.
func WriteError(w http.ResponseWriter, ae *Error) {
	if ae.Status() == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="agentgate"`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ae.Status())
	json.NewEncoder(w).Encode(errorBody{Error: errorDetail{
		Type:    ae.Type(),
		Code:    string(ae.Kind),
		Message: ae.Error(),
	}})
}

// DefaultBypassEndpoints lists endpoints that skip authentication.
var DefaultBypassEndpoints = []string{"/healthz", "/readyz", "/metrics"}
