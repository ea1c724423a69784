package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/adapters/generator"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/adapters/handler"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/adapters/metrics"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/config"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/services"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/logger"
)

var mux http.Handler

func init() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, false)
	if err != nil {
		panic(err)
	}

	// On Vercel the local file is ephemeral; use a libsql:// DATABASE_URL
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		panic(err)
	}

	gen := generator.NewAnthropicGenerator(generator.AnthropicConfig{
		APIKey:    cfg.AnthropicAPIKey,
		Model:     cfg.AnthropicModel,
		MaxTokens: cfg.AnthropicMaxTokens,
		Timeout:   cfg.GeneratorTimeout,
	})

	m := metrics.New()
	opts := []services.Option{
		services.WithLogger(log),
		services.WithObserver(m),
		services.WithStoreTimeout(cfg.StoreTimeout),
	}
	mux = handler.NewRouter(cfg, handler.Deps{
		Audits:    services.NewAuditService(repo, gen, opts...),
		Links:     services.NewLinkService(repo, gen, opts...),
		Analytics: services.NewAnalyticsService(repo, opts...),
		Sessions:  repo,
		Metrics:   m,
		Logger:    log,
	})
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
