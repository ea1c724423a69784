package handler

import (
	"net/http"
	"strconv"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/domain"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/prompts"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/logger"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/ports"
)

type LinkHandler struct {
	service ports.LinkService
	log     logger.Logger
}

func NewLinkHandler(service ports.LinkService, log logger.Logger) *LinkHandler {
	return &LinkHandler{service: service, log: log}
}

// AnalyzeLinksRequest payload. When Opportunities is present the candidates
// are ranked as given; otherwise they are generated from Targets.
type AnalyzeLinksRequest struct {
	PageURL       string                 `json:"pageUrl"`
	Content       string                 `json:"content"`
	Targets       []prompts.Target       `json:"targets"`
	Opportunities []domain.LinkCandidate `json:"opportunities"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

func (h *LinkHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFrom(r.Context())

	var req AnalyzeLinksRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	var (
		batch *domain.OpportunityBatch
		err   error
	)
	if req.Opportunities != nil {
		batch, err = h.service.Rank(r.Context(), owner, req.PageURL, req.Content, req.Opportunities)
	} else {
		batch, err = h.service.Analyze(r.Context(), owner, req.PageURL, req.Content, req.Targets)
	}
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": batch})
}

func (h *LinkHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFrom(r.Context())

	batch, err := h.service.GetBatch(r.Context(), owner, r.PathValue("batch"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": batch})
}

// UpdateStatus marks one opportunity pending, applied or rejected
func (h *LinkHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFrom(r.Context())

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.log, &domain.ValidationError{Field: "id", Reason: "must be an integer"})
		return
	}

	var req StatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	status, err := domain.ParseOpportunityStatus(req.Status)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	opp, err := h.service.SetStatus(r.Context(), owner, r.PathValue("batch"), id, status)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "opportunity": opp})
}
