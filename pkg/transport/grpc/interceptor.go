// Package grpc runs the agentgate authenticator over gRPC metadata.
package grpc

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rhuss/agentgate/pkg/auth"
	"github.com/rhuss/agentgate/pkg/observability"
)

// healthService is exempt from authentication so probes keep working.
const healthService = "/grpc.health.v1.Health/"

// UnaryServerInterceptor authenticates unary calls, applies the optional
// rate limiter and stores the identity in the handler context.
func UnaryServerInterceptor(strategy auth.Strategy, limiter auth.RateLimiter) gogrpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *gogrpc.UnaryServerInfo,
		handler gogrpc.UnaryHandler,
	) (any, error) {
		if bypassed(info.FullMethod) {
			return handler(ctx, req)
		}

		ctx, err := authenticate(ctx, strategy, limiter, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamServerInterceptor authenticates streaming calls, applies the
// optional rate limiter and wraps the stream so handlers see the identity.
func StreamServerInterceptor(strategy auth.Strategy, limiter auth.RateLimiter) gogrpc.StreamServerInterceptor {
	return func(
		srv any,
		ss gogrpc.ServerStream,
		info *gogrpc.StreamServerInfo,
		handler gogrpc.StreamHandler,
	) error {
		if bypassed(info.FullMethod) {
			return handler(srv, ss)
		}

		ctx, err := authenticate(ss.Context(), strategy, limiter, info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: ctx})
	}
}

func bypassed(fullMethod string) bool {
	return strings.HasPrefix(fullMethod, healthService)
}

func authenticate(ctx context.Context, strategy auth.Strategy, limiter auth.RateLimiter, method string) (context.Context, error) {
	mode := strategy.Mode()

	start := time.Now()
	identity, err := strategy.Authenticate(ctx, HeadersFromMetadata(ctx))
	observability.AuthDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())

	if err == nil && (identity == nil || identity.Subject == "") {
		slog.Error("authenticator returned identity with empty subject", "mode", mode, "method", method)
		err = auth.AuthenticationSystemError(nil)
	}
	if err != nil {
		ae := auth.AsError(err)
		observability.AuthDecisionsTotal.WithLabelValues(mode, observability.OutcomeDenied, string(ae.Kind)).Inc()
		if ae.Status() >= http.StatusInternalServerError {
			slog.Error("grpc authentication failed", "method", method, "kind", ae.Kind, "error", ae.Err)
		} else {
			slog.Warn("grpc authentication rejected", "method", method, "kind", ae.Kind)
		}
		return nil, StatusFromError(ae)
	}

	observability.AuthDecisionsTotal.WithLabelValues(mode, observability.OutcomeAllowed, "none").Inc()

	if limiter != nil {
		if err := limiter.Allow(ctx, identity); err != nil {
			tier := auth.Tier(identity)
			slog.Warn("grpc rate limit exceeded", "method", method, "subject", identity.Subject, "tier", tier)
			observability.RateLimitRejectedTotal.WithLabelValues(tier).Inc()
			return nil, StatusFromError(err)
		}
	}
	return auth.SetIdentity(ctx, identity), nil
}

// HeadersFromMetadata converts incoming gRPC metadata into auth.Headers.
// Metadata keys are already lower-case.
func HeadersFromMetadata(ctx context.Context) auth.Headers {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return auth.Headers{}
	}
	h := make(auth.Headers, len(md))
	for key, values := range md {
		if len(values) == 0 {
			continue
		}
		h[key] = values[0]
	}
	return h
}

// StatusFromError maps an auth failure to a gRPC status. Only the
// caller-safe message is exposed.
func StatusFromError(err error) error {
	ae := auth.AsError(err)
	switch ae.Status() {
	case http.StatusUnauthorized:
		return status.Error(codes.Unauthenticated, ae.Error())
	case http.StatusTooManyRequests:
		return status.Error(codes.ResourceExhausted, ae.Error())
	default:
		return status.Error(codes.Internal, ae.Error())
	}
}

// wrappedServerStream overrides the stream context.
type wrappedServerStream struct {
	gogrpc.ServerStream
	ctx context.Context
}

func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
