// Command server runs the agentgate resource API behind the configured
// auth mode.
//
// Configuration is read from a YAML file (--config, AGENTGATE_CONFIG,
// ./config.yaml or /etc/agentgate/config.yaml), then overridden by
// environment variables and an optional .env file:
//
//	AUTH_TYPE          - "noop" or "custom" (default: "noop")
//	SECRET_KEY         - HS256 signing secret for custom mode
//	ALLOW_ANONYMOUS    - "true" admits requests without credentials
//	NODE_ENV           - "development" enables development leniency
//	DEPLOYMENT_ENV     - "production" disables all development paths
//	AGENTGATE_PORT     - HTTP listen port (default: 8080)
//	AGENTGATE_STORAGE  - "memory" or "postgres" (default: "memory")
//	DATABASE_URL       - PostgreSQL DSN for postgres storage
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rhuss/agentgate/pkg/auth"
	"github.com/rhuss/agentgate/pkg/auth/mode"
	"github.com/rhuss/agentgate/pkg/config"
	"github.com/rhuss/agentgate/pkg/debug"
	"github.com/rhuss/agentgate/pkg/storage/memory"
	"github.com/rhuss/agentgate/pkg/storage/postgres"
	"github.com/rhuss/agentgate/pkg/transport"
	transportgrpc "github.com/rhuss/agentgate/pkg/transport/grpc"
	transporthttp "github.com/rhuss/agentgate/pkg/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	debug.Init(cfg.Logging.Debug, cfg.Logging.Level, cfg.Logging.Format)

	strategy, err := mode.New(cfg.Auth)
	if err != nil {
		return fmt.Errorf("creating auth strategy: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := newStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := transport.NewService(strategy, store)

	adapterCfg := transporthttp.DefaultConfig()
	adapterCfg.MaxBodySize = cfg.Server.MaxBodySize
	adapterCfg.BypassEndpoints = cfg.Auth.BypassEndpoints
	adapterCfg.Limiter = newLimiter(cfg.Auth.RateLimit)
	adapterCfg.MetricsPath = ""
	if cfg.Observability.Metrics.Enabled {
		adapterCfg.MetricsPath = cfg.Observability.Metrics.Path
	}
	adapter := transporthttp.NewAdapter(svc, adapterCfg)

	httpSrv := transporthttp.NewServer(adapter.Handler(),
		transporthttp.WithAddr(":"+strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpSrv.Run(gctx) })

	if cfg.Server.GRPCPort > 0 {
		ln, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.Server.GRPCPort))
		if err != nil {
			return fmt.Errorf("listening for grpc: %w", err)
		}
		grpcSrv := transportgrpc.NewServer(svc, adapterCfg.Limiter, slog.Default())
		grpcSrv.SetServing(true)
		g.Go(func() error { return grpcSrv.ServeOn(gctx, ln) })
	}

	slog.Info("agentgate started",
		"port", cfg.Server.Port,
		"grpc_port", cfg.Server.GRPCPort,
		"auth_mode", strategy.Mode(),
		"storage", cfg.Storage.Type,
	)
	return g.Wait()
}

func newStore(ctx context.Context, cfg config.StorageConfig) (transport.ResourceStore, error) {
	switch cfg.Type {
	case "postgres":
		store, err := postgres.New(ctx, postgres.FromSettings(cfg.Postgres))
		if err != nil {
			return nil, fmt.Errorf("creating postgres store: %w", err)
		}
		slog.Info("storage enabled", "type", "postgres", "max_conns", cfg.Postgres.MaxConns)
		return store, nil
	default:
		slog.Info("storage enabled", "type", "memory", "max_size", cfg.MaxSize)
		return memory.New(cfg.MaxSize), nil
	}
}

func newLimiter(cfg config.RateLimitConfig) auth.RateLimiter {
	if !cfg.Enabled() {
		return nil
	}
	return auth.NewInProcessLimiter(map[string]auth.TierConfig{
		auth.TierAuthenticated: {RequestsPerMinute: cfg.RequestsPerMinute},
		auth.TierAnonymous:     {RequestsPerMinute: cfg.AnonymousRequestsPerMinute},
	}, cfg.RequestsPerMinute)
}
