package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/adapters/metrics"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/config"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/logger"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/ports"
)

// Deps are the collaborators the router wires into handlers
type Deps struct {
	Audits    ports.AuditService
	Links     ports.LinkService
	Analytics ports.AnalyticsService
	Sessions  ports.SessionStore
	Metrics   *metrics.Metrics
	Logger    logger.Logger
}

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = logger.NewNop()
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}

	ah := NewAuditHandler(deps.Audits, log)
	lh := NewLinkHandler(deps.Links, log)
	nh := NewAnalyticsHandler(deps.Analytics, log)
	authHandler := NewAuthHandler(cfg, deps.Sessions, log)

	mw := NewMiddleware(NewTokenVerifier(cfg.JWTSecret, deps.Sessions), log)
	protect := func(h http.HandlerFunc) http.Handler { return mw.AuthMiddleware(h) }

	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /auth/google/login", authHandler.Login)
	mux.HandleFunc("GET /auth/google/callback", authHandler.Callback)
	mux.HandleFunc("POST /auth/logout", authHandler.Logout)

	// Protected Routes, registered one by one so the metrics route label is
	// the precise pattern
	mux.Handle("POST /api/v1/audits", protect(ah.Analyze))
	mux.Handle("GET /api/v1/audits", protect(ah.List))
	mux.Handle("DELETE /api/v1/audits", protect(ah.Delete))
	mux.Handle("GET /api/v1/audits/{id}", protect(ah.Get))
	mux.Handle("DELETE /api/v1/audits/{id}", protect(ah.DeleteOne))

	mux.Handle("POST /api/v1/links/analyze", protect(lh.Analyze))
	mux.Handle("GET /api/v1/links/{batch}", protect(lh.GetBatch))
	mux.Handle("PATCH /api/v1/links/{batch}/{id}", protect(lh.UpdateStatus))

	mux.Handle("POST /api/v1/deployments", protect(nh.RecordDeployment))
	mux.Handle("GET /api/v1/analytics", protect(nh.Report))

	// The metrics middleware must see the same *http.Request the mux
	// annotates with its pattern, so it sits inside the request logger.
	return mw.RequestLogger(m.Middleware(mux))
}
