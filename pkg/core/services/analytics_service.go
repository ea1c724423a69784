package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/analytics"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/domain"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/logger"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/ports"
)

type AnalyticsService struct {
	repo ports.DeploymentRepository
	options
}

func NewAnalyticsService(repo ports.DeploymentRepository, opts ...Option) *AnalyticsService {
	return &AnalyticsService{repo: repo, options: newOptions(opts)}
}

// RecordDeployment stores a deployment event. DeploymentID and DeployedAt
// are filled in when the caller leaves them empty.
func (s *AnalyticsService) RecordDeployment(ctx context.Context, userID string, d domain.Deployment) (*domain.Deployment, error) {
	d.PageID = strings.TrimSpace(d.PageID)
	if d.PageID == "" {
		return nil, &domain.ValidationError{Field: "pageId", Reason: "pageId is required"}
	}
	if d.LinksCount < 0 || d.ContentLengthBefore < 0 || d.ContentLengthAfter < 0 {
		return nil, &domain.ValidationError{Field: "linksCount", Reason: "counts must not be negative"}
	}

	d.UserID = userID
	if d.DeploymentID == "" {
		d.DeploymentID = uuid.NewString()
	}
	if d.DeployedAt.IsZero() {
		d.DeployedAt = s.now()
	}
	d.DeployedAt = d.DeployedAt.UTC()

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.repo.CreateDeployment(sctx, &d); err != nil {
		s.reqLog(ctx).Error("Failed to store deployment", logger.Error(err))
		return nil, domain.Upstream("store", err)
	}

	s.reqLog(ctx).Info("Deployment recorded",
		logger.String("page_id", d.PageID),
		logger.String("deployment_id", d.DeploymentID),
		logger.Int("links", d.LinksCount),
	)
	return &d, nil
}

// Report aggregates the owner's deployments inside the range, optionally
// limited to one page
func (s *AnalyticsService) Report(ctx context.Context, userID, pageID, rangeToken string) (*domain.DeploymentAnalytics, error) {
	now := s.now().UTC()
	since := analytics.Since(now, analytics.ParseRange(rangeToken))

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	deployments, err := s.repo.ListDeployments(sctx, userID, pageID, since)
	if err != nil {
		return nil, domain.Upstream("store", err)
	}

	report := analytics.Aggregate(deployments, rangeToken, now)
	return &report, nil
}

var _ ports.AnalyticsService = (*AnalyticsService)(nil)
