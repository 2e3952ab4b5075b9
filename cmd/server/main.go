package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"webstarter/backend/internal/audit"
	auditrepo "webstarter/backend/internal/audit/repository"
	"webstarter/backend/internal/config"
	"webstarter/backend/internal/db"
	healthhandler "webstarter/backend/internal/health/handler"
	identityrepo "webstarter/backend/internal/identity/repository"
	identityservice "webstarter/backend/internal/identity/service"
	"webstarter/backend/internal/logging"
	"webstarter/backend/internal/security"
	"webstarter/backend/internal/server"
	"webstarter/backend/internal/server/middleware"
	sessioncache "webstarter/backend/internal/session/cache"
	sessionrepo "webstarter/backend/internal/session/repository"
	"webstarter/backend/internal/session/sweeper"
	settingsrepo "webstarter/backend/internal/settings/repository"
	settingsservice "webstarter/backend/internal/settings/service"
	"webstarter/backend/internal/telemetry/metrics"
	"webstarter/backend/internal/telemetry/otel"
	userrepo "webstarter/backend/internal/user/repository"
	"webstarter/backend/internal/web"
	"webstarter/backend/internal/whitelist"
)

const (
	serviceName     = "webstarter"
	tokenIssuer     = "webstarter"
	shutdownTimeout = 15 * time.Second
	// sweepGrace is how long an expired session row is kept before deletion.
	sweepGrace = 24 * time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.RequireServer(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, serviceName, cfg.OTLPInsecure, logger)
	if err != nil {
		return err
	}
	providers.SetGlobal()

	sqlDB, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	gormDB, err := db.OpenGorm(sqlDB)
	if err != nil {
		return err
	}

	var sessions sessionrepo.Repository = sessionrepo.NewPostgresRepository(sqlDB)
	var cachePinger healthhandler.Pinger
	if cfg.RedisURL != "" {
		cache, err := sessioncache.NewFromURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer cache.Close()
		if err := cache.Ping(ctx); err != nil {
			logger.Warn("session cache unreachable at startup", zap.Error(err))
		}
		sessions = sessionrepo.NewCachedRepository(sessions, cache, logger)
		cachePinger = healthhandler.PingerFunc(cache.Ping)
	}

	tokens, err := security.NewTokenProvider([]byte(cfg.AuthSecret), tokenIssuer, cfg.SessionTTL())
	if err != nil {
		return err
	}

	gate := whitelist.NewGate(cfg.Whitelist())
	if wl := gate.Config(); wl.Enabled {
		logger.Info("signup whitelist enabled", zap.Int("entries", len(wl.Entries)))
		if len(wl.Entries) == 0 {
			logger.Warn("signup whitelist is enabled but empty; all signups will be rejected")
		}
	}

	m := metrics.New()
	users := userrepo.NewPostgresRepository(sqlDB)
	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(sqlDB), middleware.ClientIP, logger)
	auth := identityservice.NewAuthService(
		users,
		identityrepo.NewPostgresRepository(sqlDB),
		sessions,
		gate,
		security.NewHasher(cfg.BcryptCost),
		tokens,
		auditLogger,
		m,
		logger,
	)
	settings := settingsservice.NewService(users, settingsrepo.NewGormRepository(gormDB))

	renderer, err := web.NewRenderer()
	if err != nil {
		return err
	}

	handler := server.NewRouter(server.Deps{
		Auth:        auth,
		Settings:    settings,
		Renderer:    renderer,
		Cookie:      middleware.CookieConfig{Name: cfg.SessionCookieName, Secure: cfg.SecureCookies()},
		Metrics:     m,
		HealthDB:    sqlDB,
		HealthCache: cachePinger,
		CORSOrigins: cfg.CORSOrigins(),
		Logger:      logger,
	})

	go sweeper.New(sessions, cfg.SessionSweepInterval(), sweepGrace, m, logger).Run(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return err
	}

	logger.Info("shutting down http server...")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	_ = providers.Shutdown(shutdownCtx)
	logger.Info("http server stopped")
	return nil
}
