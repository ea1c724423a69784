package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/domain"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/history"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/logger"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/ports"
)

type AuditHandler struct {
	service ports.AuditService
	log     logger.Logger
}

func NewAuditHandler(service ports.AuditService, log logger.Logger) *AuditHandler {
	return &AuditHandler{service: service, log: log}
}

// AnalyzeRequest payload. Either Content or HTML is required.
type AnalyzeRequest struct {
	URL      string           `json:"url"`
	Title    string           `json:"title"`
	Content  string           `json:"content"`
	HTML     string           `json:"html"`
	PageData *domain.PageData `json:"page_data,omitempty"`
	SerpData *domain.SerpData `json:"serp_data,omitempty"`
}

// DeleteRequest payload. ID and IDs may be combined.
type DeleteRequest struct {
	ID  string   `json:"id"`
	IDs []string `json:"ids"`
}

// Analyze scores a page
func (h *AuditHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFrom(r.Context())

	var req AnalyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	audit, err := h.service.Analyze(r.Context(), owner, ports.AnalyzeAuditInput{
		URL:      req.URL,
		Title:    req.Title,
		Content:  req.Content,
		HTML:     req.HTML,
		PageData: req.PageData,
		SerpData: req.SerpData,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "audit": audit})
}

// List returns a filtered page of the owner's audit history
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFrom(r.Context())

	q, err := parseHistoryQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	page, err := h.service.History(r.Context(), owner, q)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"audits":     page.Audits,
		"pagination": page.Pagination,
		"summary":    page.Summary,
	})
}

func (h *AuditHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, _ := OwnerFrom(r.Context())

	audit, err := h.service.GetAudit(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "audit": audit})
}

// Delete removes audits named in the body ("id" and/or "ids")
func (h *AuditHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	ids := req.IDs
	if req.ID != "" {
		ids = append(ids, req.ID)
	}
	h.delete(w, r, ids)
}

// DeleteOne removes the audit named in the path
func (h *AuditHandler) DeleteOne(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, []string{r.PathValue("id")})
}

func (h *AuditHandler) delete(w http.ResponseWriter, r *http.Request, ids []string) {
	owner, _ := OwnerFrom(r.Context())

	n, err := h.service.DeleteAudits(r.Context(), owner, ids)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "deleted_count": n})
}

func parseHistoryQuery(v url.Values) (domain.HistoryQuery, error) {
	page, err := intParam(v, "page")
	if err != nil {
		return domain.HistoryQuery{}, err
	}
	limit, err := intParam(v, "limit")
	if err != nil {
		return domain.HistoryQuery{}, err
	}

	var f domain.AuditFilter
	if f.MinScore, err = floatParam(v, "min_score"); err != nil {
		return domain.HistoryQuery{}, err
	}
	if f.MaxScore, err = floatParam(v, "max_score"); err != nil {
		return domain.HistoryQuery{}, err
	}
	if f.DateFrom, err = dateParam(v, "date_from", false); err != nil {
		return domain.HistoryQuery{}, err
	}
	if f.DateTo, err = dateParam(v, "date_to", true); err != nil {
		return domain.HistoryQuery{}, err
	}
	f.URLContains = strings.TrimSpace(v.Get("url"))

	return history.NewQuery(page, limit, v.Get("sort_by"), v.Get("sort_order"), f)
}

func intParam(v url.Values, key string) (int, error) {
	s := v.Get(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &domain.ValidationError{Field: key, Reason: "must be an integer"}
	}
	return n, nil
}

func floatParam(v url.Values, key string) (*float64, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, &domain.ValidationError{Field: key, Reason: "must be a number"}
	}
	return &f, nil
}

// dateParam accepts RFC 3339 or YYYY-MM-DD. A bare date used as an upper
// bound covers that whole UTC day.
func dateParam(v url.Values, key string, endOfDay bool) (*time.Time, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, &domain.ValidationError{Field: key, Reason: "must be YYYY-MM-DD or RFC 3339"}
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
