package grpc

import (
	"context"
	"log/slog"
	"net"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/rhuss/agentgate/pkg/auth"
	"github.com/rhuss/agentgate/pkg/transport"
)

// Server is a gRPC server with the auth interceptors installed, the
// resource API and the standard health service registered.
type Server struct {
	grpc   *gogrpc.Server
	health *health.Server
	logger *slog.Logger
}

// NewServer creates a gRPC server serving svc. Every call except health
// checks is authenticated with the service's strategy and, when limiter is
// non-nil, rate-limited. Extra options are appended after the interceptors.
func NewServer(svc *transport.Service, limiter auth.RateLimiter, logger *slog.Logger, opts ...gogrpc.ServerOption) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	strategy := svc.Strategy()
	opts = append([]gogrpc.ServerOption{
		gogrpc.ChainUnaryInterceptor(UnaryServerInterceptor(strategy, limiter)),
		gogrpc.ChainStreamInterceptor(StreamServerInterceptor(strategy, limiter)),
	}, opts...)

	s := &Server{
		grpc:   gogrpc.NewServer(opts...),
		health: health.NewServer(),
		logger: logger,
	}
	healthpb.RegisterHealthServer(s.grpc, s.health)
	RegisterResourcesServer(s.grpc, NewResourcesServer(svc))
	return s
}

// Registrar exposes the underlying server for service registration.
func (s *Server) Registrar() gogrpc.ServiceRegistrar {
	return s.grpc
}

// SetServing updates the overall health status.
func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
}

// ServeOn serves on ln until ctx is done, then stops gracefully.
func (s *Server) ServeOn(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("grpc server starting", slog.String("addr", ln.Addr().String()))
		errCh <- s.grpc.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.health.Shutdown()
	s.grpc.GracefulStop()
	s.logger.Info("grpc server stopped")
	return nil
}

// Stop stops the server immediately.
func (s *Server) Stop() {
	s.grpc.Stop()
}
