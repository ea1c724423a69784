package ports

import (
	"context"
	"time"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/domain"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/prompts"
)

// AuditRepository defines owner-scoped storage operations for audits
type AuditRepository interface {
	CreateAudit(ctx context.Context, audit *domain.AuditRecord) error
	GetAudit(ctx context.Context, userID, id string) (*domain.AuditRecord, error) // nil, nil when absent or not owned
	ListAudits(ctx context.Context, userID string, q domain.HistoryQuery) ([]domain.AuditRecord, error)
	CountAudits(ctx context.Context, userID string, f domain.AuditFilter) (int, error)
	AuditScores(ctx context.Context, userID string) ([]domain.ScoredAudit, error) // unfiltered
	DeleteAudits(ctx context.Context, userID string, ids []string) (int, error)
	DumpAudits(ctx context.Context) ([]domain.AuditRecord, error) // For migration
}

// OpportunityRepository stores ranked link batches
type OpportunityRepository interface {
	SaveBatch(ctx context.Context, batch *domain.OpportunityBatch) error
	GetBatch(ctx context.Context, userID, batchID string) (*domain.OpportunityBatch, error)
	SetOpportunityStatus(ctx context.Context, userID, batchID string, id int, status domain.OpportunityStatus) (*domain.LinkOpportunity, error)
}

// DeploymentRepository stores immutable deployment events
type DeploymentRepository interface {
	CreateDeployment(ctx context.Context, d *domain.Deployment) error
	ListDeployments(ctx context.Context, userID, pageID string, since time.Time) ([]domain.Deployment, error)
}

// SessionStore tracks revoked session ids
type SessionStore interface {
	RevokeSession(ctx context.Context, sessionID string, expiresAt time.Time) error
	IsSessionRevoked(ctx context.Context, sessionID string) (bool, error)
}

// TextGenerator is the generative-text collaborator
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// IdentityVerifier resolves a bearer credential to an owner id.
// Failures are domain.ErrUnauthorized.
type IdentityVerifier interface {
	Verify(ctx context.Context, credential string) (string, error)
}

// AnalyzeAuditInput is a page to audit. Either HTML or Content must be set;
// PageData is derived from HTML when it is nil.
type AnalyzeAuditInput struct {
	URL      string
	Title    string
	Content  string
	HTML     string
	PageData *domain.PageData
	SerpData *domain.SerpData
}

// AuditService defines scoring and history operations
type AuditService interface {
	Analyze(ctx context.Context, userID string, in AnalyzeAuditInput) (*domain.AuditRecord, error)
	GetAudit(ctx context.Context, userID, id string) (*domain.AuditRecord, error)
	History(ctx context.Context, userID string, q domain.HistoryQuery) (*domain.HistoryPage, error)
	DeleteAudits(ctx context.Context, userID string, ids []string) (int, error)
}

// LinkService defines link opportunity operations
type LinkService interface {
	Analyze(ctx context.Context, userID, pageURL, content string, targets []prompts.Target) (*domain.OpportunityBatch, error)
	Rank(ctx context.Context, userID, pageURL, content string, candidates []domain.LinkCandidate) (*domain.OpportunityBatch, error)
	GetBatch(ctx context.Context, userID, batchID string) (*domain.OpportunityBatch, error)
	SetStatus(ctx context.Context, userID, batchID string, id int, status domain.OpportunityStatus) (*domain.LinkOpportunity, error)
}

// AnalyticsService defines deployment recording and reporting
type AnalyticsService interface {
	RecordDeployment(ctx context.Context, userID string, d domain.Deployment) (*domain.Deployment, error)
	Report(ctx context.Context, userID, pageID, rangeToken string) (*domain.DeploymentAnalytics, error)
}
