package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/domain"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/logger"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/ports"
)

type AnalyticsHandler struct {
	service ports.AnalyticsService
	log     logger.Logger
}

func NewAnalyticsHandler(service ports.AnalyticsService, log logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{service: service, log: log}
}

func (h *AnalyticsHandler) RecordDeployment(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFrom(r.Context())

	var req domain.Deployment
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	d, err := h.service.RecordDeployment(r.Context(), owner, req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "deployment": d})
}

// Report serves GET /api/v1/analytics?pageId=&range=
func (h *AnalyticsHandler) Report(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFrom(r.Context())
	q := r.URL.Query()

	report, err := h.service.Report(r.Context(), owner, q.Get("pageId"), q.Get("range"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": report})
}
