package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/adapters/metrics"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/config"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/domain"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/prompts"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/ports"
)

type stubAudits struct {
	analyze func(in ports.AnalyzeAuditInput) (*domain.AuditRecord, error)
	history func(q domain.HistoryQuery) (*domain.HistoryPage, error)
	deleted []string
	owner   string
}

func (s *stubAudits) Analyze(_ context.Context, owner string, in ports.AnalyzeAuditInput) (*domain.AuditRecord, error) {
	s.owner = owner
	return s.analyze(in)
}

func (s *stubAudits) GetAudit(_ context.Context, owner, id string) (*domain.AuditRecord, error) {
	if id != "a1" {
		return nil, domain.ErrNotFound
	}
	return &domain.AuditRecord{ID: id, UserID: owner, OverallScore: 91, Grade: "A"}, nil
}

func (s *stubAudits) History(_ context.Context, _ string, q domain.HistoryQuery) (*domain.HistoryPage, error) {
	return s.history(q)
}

func (s *stubAudits) DeleteAudits(_ context.Context, _ string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, &domain.ValidationError{Field: "ids", Reason: "at least one audit id is required"}
	}
	s.deleted = ids
	return 1, nil
}

type stubLinks struct {
	ranked []domain.LinkCandidate
}

func (s *stubLinks) Analyze(context.Context, string, string, string, []prompts.Target) (*domain.OpportunityBatch, error) {
	return nil, &domain.SchemaParseError{Raw: "nope", Err: errors.New("invalid character")}
}

func (s *stubLinks) Rank(_ context.Context, _, _, _ string, c []domain.LinkCandidate) (*domain.OpportunityBatch, error) {
	s.ranked = c
	return &domain.OpportunityBatch{ID: "b1", Opportunities: []domain.LinkOpportunity{}}, nil
}

func (s *stubLinks) GetBatch(context.Context, string, string) (*domain.OpportunityBatch, error) {
	return nil, domain.ErrNotFound
}

func (s *stubLinks) SetStatus(_ context.Context, _, batch string, id int, st domain.OpportunityStatus) (*domain.LinkOpportunity, error) {
	return &domain.LinkOpportunity{ID: id, BatchID: batch, Status: st}, nil
}

type stubAnalytics struct {
	rangeToken string
}

func (s *stubAnalytics) RecordDeployment(_ context.Context, _ string, d domain.Deployment) (*domain.Deployment, error) {
	return &d, nil
}

func (s *stubAnalytics) Report(_ context.Context, _, _, rangeToken string) (*domain.DeploymentAnalytics, error) {
	s.rangeToken = rangeToken
	return nil, domain.Upstream("store", errors.New("read timeout"))
}

type routerFixture struct {
	handler   http.Handler
	audits    *stubAudits
	links     *stubLinks
	analytics *stubAnalytics
	sessions  *memSessions
	metrics   *metrics.Metrics
	token     string
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	f := &routerFixture{
		audits:    &stubAudits{},
		links:     &stubLinks{},
		analytics: &stubAnalytics{},
		sessions:  newMemSessions(),
		metrics:   metrics.New(),
		token:     generateTestToken(t, testSecret, "jti-router", time.Now().Add(time.Hour)),
	}
	f.handler = NewRouter(&config.Config{JWTSecret: testSecret}, Deps{
		Audits:    f.audits,
		Links:     f.links,
		Analytics: f.analytics,
		Sessions:  f.sessions,
		Metrics:   f.metrics,
	})
	return f
}

func (f *routerFixture) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+f.token)
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestRouter_Unauthorized(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audits", nil)
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "Unauthorized", decodeBody(t, rr)["error"])
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	f := newRouterFixture(t)
	rr := f.do(http.MethodPut, "/api/v1/audits", "{}")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRouter_AnalyzeAudit(t *testing.T) {
	f := newRouterFixture(t)
	f.audits.analyze = func(in ports.AnalyzeAuditInput) (*domain.AuditRecord, error) {
		assert.Equal(t, "https://example.com", in.URL)
		require.NotNil(t, in.PageData)
		assert.Equal(t, 300, in.PageData.WordCount)
		return &domain.AuditRecord{ID: "new", OverallScore: 77}, nil
	}

	rr := f.do(http.MethodPost, "/api/v1/audits",
		`{"url": "https://example.com", "content": "text", "page_data": {"word_count": 300}}`)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "new", body["audit"].(map[string]any)["id"])
	assert.Equal(t, "test@example.com", f.audits.owner)
}

func TestRouter_AnalyzeAudit_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		check  func(t *testing.T, body map[string]any)
	}{
		{
			name:   "bad json",
			body:   `{"url":`,
			status: http.StatusBadRequest,
		},
		{
			name:   "validation",
			body:   `{}`,
			err:    &domain.ValidationError{Field: "url", Reason: "url is required"},
			status: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "Validation failed", body["error"])
				assert.Equal(t, "url", body["details"].(map[string]any)["field"])
			},
		},
		{
			name:   "incomplete",
			body:   `{"url": "https://example.com", "content": "x"}`,
			err:    &domain.SchemaIncompleteError{Missing: []string{"eeat"}},
			status: http.StatusInternalServerError,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, []any{"eeat"}, body["details"].(map[string]any)["missing"])
			},
		},
		{
			name:   "upstream",
			body:   `{"url": "https://example.com", "content": "x"}`,
			err:    domain.Upstream("generator", errors.New("overloaded")),
			status: http.StatusInternalServerError,
			check: func(t *testing.T, body map[string]any) {
				assert.Contains(t, body["message"], "overloaded")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRouterFixture(t)
			f.audits.analyze = func(ports.AnalyzeAuditInput) (*domain.AuditRecord, error) { return nil, tt.err }

			rr := f.do(http.MethodPost, "/api/v1/audits", tt.body)
			assert.Equal(t, tt.status, rr.Code)
			if tt.check != nil {
				tt.check(t, decodeBody(t, rr))
			}
		})
	}
}

func TestRouter_ListAudits_ParsesQuery(t *testing.T) {
	f := newRouterFixture(t)
	var got domain.HistoryQuery
	f.audits.history = func(q domain.HistoryQuery) (*domain.HistoryPage, error) {
		got = q
		return &domain.HistoryPage{Audits: []domain.AuditRecord{}}, nil
	}

	rr := f.do(http.MethodGet,
		"/api/v1/audits?page=2&limit=5&sort_by=overall_score&sort_order=asc&min_score=90&url=Blog&date_to=2026-03-01", "")
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, 2, got.Page)
	assert.Equal(t, 5, got.Limit)
	assert.Equal(t, domain.SortOverallScore, got.SortBy)
	assert.True(t, got.Ascending)
	require.NotNil(t, got.Filter.MinScore)
	assert.Equal(t, 90.0, *got.Filter.MinScore)
	assert.Equal(t, "Blog", got.Filter.URLContains)
	require.NotNil(t, got.Filter.DateTo)
	assert.Equal(t, time.Date(2026, 3, 1, 23, 59, 59, 999999999, time.UTC), *got.Filter.DateTo)

	body := decodeBody(t, rr)
	assert.Contains(t, body, "pagination")
	assert.Contains(t, body, "summary")
}

func TestRouter_ListAudits_InvalidQuery(t *testing.T) {
	f := newRouterFixture(t)
	for _, q := range []string{"min_score=abc", "sort_by=password", "min_score=80&max_score=20", "date_from=yesterday", "page=922337203685477581"} {
		rr := f.do(http.MethodGet, "/api/v1/audits?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
}

func TestRouter_GetAudit(t *testing.T) {
	f := newRouterFixture(t)

	rr := f.do(http.MethodGet, "/api/v1/audits/a1", "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.do(http.MethodGet, "/api/v1/audits/someone-elses", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	count := testutil.ToFloat64(f.metrics.RequestsTotal.WithLabelValues("GET /api/v1/audits/{id}", "GET", "404"))
	assert.Equal(t, 1.0, count)
}

func TestRouter_DeleteAudits(t *testing.T) {
	f := newRouterFixture(t)

	rr := f.do(http.MethodDelete, "/api/v1/audits", `{"id": "a", "ids": ["b", "c"]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, f.audits.deleted)
	assert.Equal(t, 1.0, decodeBody(t, rr)["deleted_count"])

	rr = f.do(http.MethodDelete, "/api/v1/audits/z", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"z"}, f.audits.deleted)

	rr = f.do(http.MethodDelete, "/api/v1/audits", `{"ids": []}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouter_Links(t *testing.T) {
	f := newRouterFixture(t)

	rr := f.do(http.MethodPost, "/api/v1/links/analyze",
		`{"content": "body", "opportunities": [{"targetPage": "A", "relevanceScore": 70}]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, f.links.ranked, 1)
	assert.Equal(t, "b1", decodeBody(t, rr)["data"].(map[string]any)["batchId"])

	rr = f.do(http.MethodPost, "/api/v1/links/analyze", `{"content": "body", "targets": [{"title": "A", "url": "/a"}]}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	rr = f.do(http.MethodPatch, "/api/v1/links/b1/2", `{"status": "applied"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "applied", decodeBody(t, rr)["opportunity"].(map[string]any)["status"])

	rr = f.do(http.MethodPatch, "/api/v1/links/b1/2", `{"status": "archived"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(http.MethodPatch, "/api/v1/links/b1/two", `{"status": "applied"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(http.MethodGet, "/api/v1/links/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_Analytics(t *testing.T) {
	f := newRouterFixture(t)

	rr := f.do(http.MethodPost, "/api/v1/deployments", `{"pageId": "p1", "linksCount": 2}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = f.do(http.MethodGet, "/api/v1/analytics?range=7d", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "7d", f.analytics.rangeToken)
}

func TestRouter_LogoutAlwaysSucceeds(t *testing.T) {
	f := newRouterFixture(t)

	rr := f.do(http.MethodPost, "/auth/logout", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, f.sessions.revoked, "jti-router")

	rr = f.do(http.MethodGet, "/api/v1/audits/a1", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "revoked token is rejected")

	f.sessions.err = errors.New("db down")
	rr = f.do(http.MethodPost, "/auth/logout", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, decodeBody(t, rr)["success"])

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	anon := httptest.NewRecorder()
	f.handler.ServeHTTP(anon, req)
	assert.Equal(t, http.StatusOK, anon.Code)
}

func TestRouter_Health(t *testing.T) {
	f := newRouterFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}
