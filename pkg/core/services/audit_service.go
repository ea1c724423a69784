package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/domain"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/history"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/pagedata"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/prompts"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/scoring"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/logger"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/ports"
)

type AuditService struct {
	repo ports.AuditRepository
	gen  ports.TextGenerator
	options
}

func NewAuditService(repo ports.AuditRepository, gen ports.TextGenerator, opts ...Option) *AuditService {
	return &AuditService{repo: repo, gen: gen, options: newOptions(opts)}
}

// Analyze scores one page and stores the result. Nothing is stored when the
// generator fails or its answer does not normalize.
func (s *AuditService) Analyze(ctx context.Context, userID string, in ports.AnalyzeAuditInput) (*domain.AuditRecord, error) {
	if strings.TrimSpace(in.URL) == "" {
		return nil, &domain.ValidationError{Field: "url", Reason: "url is required"}
	}

	content, title := in.Content, in.Title
	pd := in.PageData
	if in.HTML != "" {
		facts, text, err := pagedata.Extract(in.HTML, in.URL)
		if err != nil {
			return nil, &domain.ValidationError{Field: "html", Reason: err.Error()}
		}
		if pd == nil {
			pd = &facts
		}
		if content == "" {
			content = text
		}
		if title == "" {
			title = pagedata.Title(in.HTML)
		}
	}
	if strings.TrimSpace(content) == "" {
		return nil, &domain.ValidationError{Field: "content", Reason: "content or html is required"}
	}
	if pd == nil {
		pd = &domain.PageData{WordCount: len(strings.Fields(content))}
	}

	log := s.reqLog(ctx).With(logger.String("url", in.URL))

	raw, err := s.gen.Generate(ctx, prompts.Audit(in.URL, title, content, *pd, in.SerpData))
	if err != nil {
		s.obs.GeneratorCall("audit", OutcomeUpstream)
		log.Error("Audit generation failed", logger.Error(err))
		return nil, domain.Upstream("generator", err)
	}

	analysis, err := scoring.ParseAnalysis(raw)
	if err != nil {
		s.obs.GeneratorCall("audit", schemaOutcome(err))
		log.Warn("Generated audit rejected", logger.Error(err), logger.String("raw", raw))
		return nil, err
	}
	s.obs.GeneratorCall("audit", OutcomeOK)

	audit := &domain.AuditRecord{
		ID:           uuid.NewString(),
		UserID:       userID,
		URL:          in.URL,
		Title:        title,
		OverallScore: analysis.OverallScore,
		Grade:        scoring.Grade(analysis.OverallScore),
		Analysis:     *analysis,
		PageData:     *pd,
		SerpData:     in.SerpData,
		CreatedAt:    s.now().UTC(),
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.repo.CreateAudit(sctx, audit); err != nil {
		log.Error("Failed to store audit", logger.Error(err))
		return nil, domain.Upstream("store", err)
	}

	s.obs.AuditScored(string(scoring.Categorize(audit.OverallScore)))
	log.Info("Audit stored",
		logger.String("audit_id", audit.ID),
		logger.Float64("overall_score", audit.OverallScore),
	)
	return audit, nil
}

func (s *AuditService) GetAudit(ctx context.Context, userID, id string) (*domain.AuditRecord, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	audit, err := s.repo.GetAudit(sctx, userID, id)
	if err != nil {
		return nil, domain.Upstream("store", err)
	}
	if audit == nil {
		return nil, domain.ErrNotFound
	}
	audit.Grade = scoring.Grade(audit.OverallScore)
	return audit, nil
}

// History returns one page of filtered audits plus a summary of the owner's
// whole history. The page, the count and the summary are separate reads, so
// a concurrent write can make them disagree for that one response.
func (s *AuditService) History(ctx context.Context, userID string, q domain.HistoryQuery) (*domain.HistoryPage, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	audits, err := s.repo.ListAudits(sctx, userID, q)
	if err != nil {
		return nil, domain.Upstream("store", err)
	}
	total, err := s.repo.CountAudits(sctx, userID, q.Filter)
	if err != nil {
		return nil, domain.Upstream("store", err)
	}
	scores, err := s.repo.AuditScores(sctx, userID)
	if err != nil {
		return nil, domain.Upstream("store", err)
	}

	for i := range audits {
		audits[i].Grade = scoring.Grade(audits[i].OverallScore)
	}
	if audits == nil {
		audits = []domain.AuditRecord{}
	}

	return &domain.HistoryPage{
		Audits:     audits,
		Pagination: history.Paginate(q, total),
		Summary:    scoring.SummarizeAudits(scores),
	}, nil
}

// DeleteAudits removes the given audits the owner holds. Ids that do not
// exist or belong to someone else are skipped silently.
func (s *AuditService) DeleteAudits(ctx context.Context, userID string, ids []string) (int, error) {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return 0, &domain.ValidationError{Field: "ids", Reason: "at least one audit id is required"}
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	n, err := s.repo.DeleteAudits(sctx, userID, unique)
	if err != nil {
		return 0, domain.Upstream("store", err)
	}
	s.reqLog(ctx).Info("Audits deleted", logger.Int("requested", len(unique)), logger.Int("deleted", n))
	return n, nil
}

func schemaOutcome(err error) string {
	var incomplete *domain.SchemaIncompleteError
	if errors.As(err, &incomplete) {
		return OutcomeIncomplete
	}
	return OutcomeParse
}

var _ ports.AuditService = (*AuditService)(nil)
