package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/domain"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/linking"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/prompts"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/logger"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/ports"
)

type LinkService struct {
	repo ports.OpportunityRepository
	gen  ports.TextGenerator
	options
}

func NewLinkService(repo ports.OpportunityRepository, gen ports.TextGenerator, opts ...Option) *LinkService {
	return &LinkService{repo: repo, gen: gen, options: newOptions(opts)}
}

// Analyze asks the generator for link suggestions into content and ranks them
func (s *LinkService) Analyze(ctx context.Context, userID, pageURL, content string, targets []prompts.Target) (*domain.OpportunityBatch, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &domain.ValidationError{Field: "content", Reason: "content is required"}
	}
	if len(targets) == 0 {
		return nil, &domain.ValidationError{Field: "targets", Reason: "at least one target page is required"}
	}

	log := s.reqLog(ctx).With(logger.String("page_url", pageURL))

	raw, err := s.gen.Generate(ctx, prompts.LinkOpportunities(content, targets))
	if err != nil {
		s.obs.GeneratorCall("links", OutcomeUpstream)
		log.Error("Link generation failed", logger.Error(err))
		return nil, domain.Upstream("generator", err)
	}

	candidates, err := linking.ParseCandidates(raw)
	if err != nil {
		s.obs.GeneratorCall("links", schemaOutcome(err))
		log.Warn("Generated links rejected", logger.Error(err), logger.String("raw", raw))
		return nil, err
	}
	s.obs.GeneratorCall("links", OutcomeOK)

	return s.Rank(ctx, userID, pageURL, content, candidates)
}

// Rank orders caller-supplied candidates and stores them as a new batch
func (s *LinkService) Rank(ctx context.Context, userID, pageURL, content string, candidates []domain.LinkCandidate) (*domain.OpportunityBatch, error) {
	now := s.now().UTC()
	opps, summary, err := linking.Rank(content, candidates, now)
	if err != nil {
		return nil, err
	}

	batch := &domain.OpportunityBatch{
		ID:            uuid.NewString(),
		UserID:        userID,
		PageURL:       pageURL,
		Opportunities: opps,
		Summary:       summary,
		CreatedAt:     now,
	}
	for i := range batch.Opportunities {
		batch.Opportunities[i].BatchID = batch.ID
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.repo.SaveBatch(sctx, batch); err != nil {
		s.reqLog(ctx).Error("Failed to store link batch", logger.Error(err))
		return nil, domain.Upstream("store", err)
	}

	s.obs.LinksRanked(len(opps))
	s.reqLog(ctx).Info("Link opportunities ranked",
		logger.String("batch_id", batch.ID),
		logger.Int("count", summary.TotalOpportunities),
		logger.Int("high_priority", summary.HighPriority),
	)
	return batch, nil
}

func (s *LinkService) GetBatch(ctx context.Context, userID, batchID string) (*domain.OpportunityBatch, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	batch, err := s.repo.GetBatch(sctx, userID, batchID)
	if err != nil {
		return nil, domain.Upstream("store", err)
	}
	if batch == nil {
		return nil, domain.ErrNotFound
	}
	return batch, nil
}

// SetStatus changes the status of one opportunity and nothing else
func (s *LinkService) SetStatus(ctx context.Context, userID, batchID string, id int, status domain.OpportunityStatus) (*domain.LinkOpportunity, error) {
	if _, err := domain.ParseOpportunityStatus(string(status)); err != nil {
		return nil, err
	}
	if id < 1 {
		return nil, &domain.ValidationError{Field: "id", Reason: "opportunity id must be positive"}
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	opp, err := s.repo.SetOpportunityStatus(sctx, userID, batchID, id, status)
	if err != nil {
		return nil, domain.Upstream("store", err)
	}
	if opp == nil {
		return nil, domain.ErrNotFound
	}
	return opp, nil
}

var _ ports.LinkService = (*LinkService)(nil)
