package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/adapters/generator"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/adapters/handler"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/adapters/metrics"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/config"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/services"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/logger"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/ports"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, !cfg.IsProduction())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// Initialize Repository
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer repo.Close()

	gen := generator.NewAnthropicGenerator(generator.AnthropicConfig{
		APIKey:    cfg.AnthropicAPIKey,
		Model:     cfg.AnthropicModel,
		MaxTokens: cfg.AnthropicMaxTokens,
		Timeout:   cfg.GeneratorTimeout,
	})

	m := metrics.New()
	mux := newRouter(cfg, repo, gen, m, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.GeneratorTimeout + cfg.StoreTimeout + 5*time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", logger.String("port", cfg.Port), logger.String("env", cfg.AppEnv))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newRouter wires services over one repository and generator
func newRouter(cfg *config.Config, repo *sqlite.SQLiteRepository, gen ports.TextGenerator, m *metrics.Metrics, log logger.Logger) http.Handler {
	opts := []services.Option{
		services.WithLogger(log),
		services.WithObserver(m),
		services.WithStoreTimeout(cfg.StoreTimeout),
	}
	return handler.NewRouter(cfg, handler.Deps{
		Audits:    services.NewAuditService(repo, gen, opts...),
		Links:     services.NewLinkService(repo, gen, opts...),
		Analytics: services.NewAnalyticsService(repo, opts...),
		Sessions:  repo,
		Metrics:   m,
		Logger:    log,
	})
}
