// Command agentpass-server serves the credential vault over gRPC and HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/and161185/agent-pass/internal/api/vaultv1"
	"github.com/and161185/agent-pass/internal/authevents"
	"github.com/and161185/agent-pass/internal/config"
	"github.com/and161185/agent-pass/internal/limiter"
	"github.com/and161185/agent-pass/internal/migrate"
	"github.com/and161185/agent-pass/internal/repository/postgres"
	grpcserver "github.com/and161185/agent-pass/internal/server/grpc"
	httpserver "github.com/and161185/agent-pass/internal/server/http"
	"github.com/and161185/agent-pass/internal/service"
	"github.com/and161185/agent-pass/internal/tokens"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const shutdownTimeout = 5 * time.Second

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Dev {
		zc = zap.NewDevelopmentConfig()
	}
	lvl, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zc.Level = lvl
	return zc.Build()
}

// main loads configuration, runs migrations, and starts the gRPC and HTTP servers.
func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("grpc", cfg.GRPCAddr),
		zap.String("http", cfg.HTTPAddr),
		zap.Bool("tls", cfg.TLSEnabled()),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DSN, logger); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	db, err := postgres.New(ctx, cfg.DSN)
	if err != nil {
		logger.Fatal("connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories
	users := postgres.NewUserRepo(db)
	settingsRepo := postgres.NewSettingsRepo(db)
	groups := postgres.NewGroupRepo(db)
	creds := postgres.NewCredentialRepo(db)

	lim := limiter.NewPGWithQuerier(db.Pool, cfg.LoginWindow, cfg.LoginMaxFails, cfg.LoginBlockFor)
	tm := tokens.NewManager([]byte(cfg.JWTKey), cfg.AccessTTL, cfg.RevokedCap)

	// Services
	var bus authevents.Bus
	authSvc := service.NewAuthService(users, tm, lim, &bus)
	settingsSvc := service.NewSettingsService(settingsRepo, cfg.TOTPIssuer)
	vaultSvc := service.NewCredentialService(groups, creds)

	unsubscribe := service.ProvisionOnSignIn(ctx, authSvc, settingsSvc, logger)
	defer unsubscribe()

	// gRPC server with interceptors
	gopts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			grpcserver.RecoverUnary(logger),
			grpcserver.LoggingUnary(logger),
			grpcserver.MetricsUnary(),
			grpcserver.AuthUnary(authSvc, settingsSvc),
		),
	}
	if cfg.TLSEnabled() {
		tc, err := credentials.NewServerTLSFromFile(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			logger.Fatal("failed to load TLS cert/key", zap.Error(err))
		}
		gopts = append(gopts, grpc.Creds(tc))
	}
	gs := grpc.NewServer(gopts...)
	vaultv1.RegisterVaultServer(gs, grpcserver.New(authSvc, settingsSvc, vaultSvc, logger))

	// Health & reflection (dev)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus(vaultv1.ServiceName, healthpb.HealthCheckResponse_SERVING)
	if cfg.Dev {
		reflection.Register(gs)
	}

	// HTTP server
	api := httpserver.New(authSvc, settingsSvc, vaultSvc, logger)
	hsrv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.Routes(httpserver.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			RatePerMin:     cfg.RatePerMin,
			Metrics:        promhttp.Handler(),
			Ready:          db.Ping,
			TrustProxy:     cfg.TrustProxy,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Fatal("listen", zap.Error(err))
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("grpc listening", zap.String("addr", cfg.GRPCAddr))
		errCh <- gs.Serve(lis)
	}()
	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		var err error
		if cfg.TLSEnabled() {
			err = hsrv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = hsrv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", zap.Error(err))
		}
	}

	hs.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hsrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	done := make(chan struct{})
	go func() {
		gs.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		gs.Stop()
	}

	logger.Info("shutdown complete")
}
