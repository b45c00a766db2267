package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"auth-service/internal/audit"
	auditrepo "auth-service/internal/audit/repository"
	"auth-service/internal/bootstrap"
	"auth-service/internal/config"
	"auth-service/internal/db"
	"auth-service/internal/health"
	identityservice "auth-service/internal/identity/service"
	"auth-service/internal/policy/engine"
	rtrepo "auth-service/internal/refreshtoken/repository"
	"auth-service/internal/security"
	"auth-service/internal/server"
	"auth-service/internal/server/httpapi"
	"auth-service/internal/server/middleware"
	"auth-service/internal/telemetry"
	otelemitter "auth-service/internal/telemetry/otel"
	"auth-service/internal/telemetry/producer"
	userrepo "auth-service/internal/user/repository"
	userservice "auth-service/internal/user/service"
)

const (
	serviceName       = "auth-service"
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// run wires and serves until a signal or a server failure. Returning, rather than exiting,
// lets the deferred closes run on every path.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	// Refuse to start without complete key material.
	keys, err := cfg.KeyMaterial()
	if err != nil {
		return fmt.Errorf("keys: %w", err)
	}
	if err := keys.Validate(); err != nil {
		return fmt.Errorf("keys: %w", err)
	}

	ctx := context.Background()

	providers, err := otelemitter.NewProviders(ctx, cfg.OTLPEndpoint, serviceName, cfg.OTLPInsecure)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("otel shutdown", "error", err)
		}
	}()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer conn.Close()

	policy, err := cfg.ScopePolicy()
	if err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	scope, err := engine.NewOPAScopeEvaluator(ctx, policy)
	if err != nil {
		return fmt.Errorf("policy: %w", err)
	}

	users := userrepo.NewPostgresRepository(conn)
	refreshTokens := rtrepo.NewPostgresRepository(conn)
	auditLogs := auditrepo.NewPostgresRepository(conn)
	hasher := security.NewHasher(cfg.BcryptCost)

	if _, err := bootstrap.EnsureAdmin(ctx, logger, users, hasher, bootstrap.AdminConfig{
		Email:     cfg.AdminEmail,
		Password:  cfg.AdminPassword,
		FirstName: cfg.AdminFirstName,
		LastName:  cfg.AdminLastName,
	}); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	emitters := []telemetry.EventEmitter{
		otelemitter.NewEventEmitter(providers.LoggerProvider),
		audit.NewLogger(auditLogs, middleware.ClientIPFrom),
	}
	if kp := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.SessionEventsTopic); kp != nil {
		var events producer.Producer = kp
		defer func() {
			if err := events.Close(); err != nil {
				logger.Warn("kafka close", "error", err)
			}
		}()
		emitters = append(emitters, kp)
		logger.Info("session events publishing to kafka", "topic", cfg.SessionEventsTopic)
	}
	// Deferred after the sinks are, so in-flight events finish before those sinks close.
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), telemetry.ShutdownDrainDuration)
		defer cancel()
		if err := telemetry.Drain(drainCtx); err != nil {
			logger.Warn("session events not drained", "error", err)
		}
	}()

	tokenProvider := security.NewTokenProvider(keys, cfg.JWTIssuer)
	tokenSvc := identityservice.NewTokenService(tokenProvider, refreshTokens)
	authSvc := identityservice.NewAuthService(users, tokenSvc, hasher, telemetry.Multi(emitters...))
	userSvc := userservice.NewUserService(users)
	readiness := health.NewChecker(conn, scope)

	httpTelemetry, err := middleware.Telemetry(otel.GetTracerProvider(), otel.GetMeterProvider())
	if err != nil {
		return fmt.Errorf("telemetry middleware: %w", err)
	}
	httpServer := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.Deps{
			Logger:        logger,
			Sessions:      authSvc,
			Users:         userSvc,
			Audit:         auditLogs,
			Tokens:        tokenProvider,
			Keys:          keys,
			Scope:         scope,
			Readiness:     readiness,
			Cookies:       httpapi.CookieConfig{Domain: cfg.CookieDomain, Secure: cfg.CookieSecure},
			AllowedOrigin: cfg.ClientURL,
			Telemetry:     httpTelemetry,
		}),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer lis.Close()
	grpcServer := server.NewGRPCServer(server.Deps{Readiness: readiness})

	errCh := make(chan error, 2)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	var serveErr error
	select {
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	case serveErr = <-errCh:
		logger.Error("server failed, shutting down", "error", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown", "error", err)
	}
	grpcServer.GracefulStop()
	logger.Info("servers stopped")
	return serveErr
}
