package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/coursedesk/coursedesk/pkg/adminstore"
	"github.com/coursedesk/coursedesk/pkg/api"
	"github.com/coursedesk/coursedesk/pkg/audit"
	"github.com/coursedesk/coursedesk/pkg/config"
	"github.com/coursedesk/coursedesk/pkg/courses"
	"github.com/coursedesk/coursedesk/pkg/gateway"
	"github.com/coursedesk/coursedesk/pkg/identity"
	"github.com/coursedesk/coursedesk/pkg/observability"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "coursedesk: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("starting coursedesk admin API")

	// Document store
	store, err := adminstore.NewRedisStore(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to document store: %w", err)
	}
	courseStore := courses.NewRedisStore(store.Client())

	// Identity provider
	provider, factory, err := buildIdentity(cfg)
	if err != nil {
		return err
	}

	// Metrics
	var metrics *observability.Metrics
	registry := prometheus.NewRegistry()
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	// Audit log
	var auditor audit.Logger = audit.NopLogger{}
	if cfg.Audit.LogPath != "" {
		fileAuditor, err := audit.NewFileLogger(cfg.Audit.LogPath)
		if err != nil {
			return fmt.Errorf("failed to open audit log: %w", err)
		}
		auditor = fileAuditor
	}

	verifier := identity.NewVerifier(factory, store, logger, metrics)
	gate := gateway.New(gateway.Config{
		SecureCookie:         cfg.Session.SecureCookie,
		CookieTTL:            cfg.Session.CookieTTL,
		VerificationCacheTTL: cfg.Session.VerificationCacheTTL,
	}, provider, store, logger, metrics, auditor)

	server := api.NewServer(api.Config{
		Logger:      logger,
		Metrics:     metrics,
		Gateway:     gate,
		Verifier:    verifier,
		AdminStore:  store,
		CourseStore: courseStore,
		Auditor:     auditor,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics on a separate port for probes and scrapers.
	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(store.Client()))
	if cfg.Observability.MetricsEnabled {
		healthMux.Handle("/metrics", observability.Handler(registry))
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthMux,
	}

	go func() {
		logger.WithField("port", cfg.Server.HealthPort).Info("health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("health server failed")
		}
	}()

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("API server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("API server failed")
			os.Exit(1)
		}
	}()

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return store.Close()
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return provider.Close()
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return auditor.Close()
	})

	return shutdown.WaitForShutdown()
}

// buildIdentity constructs the long-lived token-verification provider
// and the factory for ephemeral credential-check clients.
func buildIdentity(cfg *config.Config) (identity.Provider, identity.ClientFactory, error) {
	switch cfg.Identity.Provider {
	case "static":
		static := identity.NewStaticProvider(cfg.Identity.StaticUsers, cfg.Session.CookieTTL)
		return static, identity.NewStaticFactory(static), nil
	default:
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		provider, err := identity.NewOIDCProvider(ctx, cfg.Identity.OIDC, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize identity provider: %w", err)
		}
		return provider, identity.NewOIDCFactory(cfg.Identity.OIDC), nil
	}
}
