package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/domain"
)

type mockGenerator struct{ mock.Mock }

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type mockAuditRepo struct{ mock.Mock }

func (m *mockAuditRepo) CreateAudit(ctx context.Context, a *domain.AuditRecord) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAuditRepo) GetAudit(ctx context.Context, userID, id string) (*domain.AuditRecord, error) {
	args := m.Called(ctx, userID, id)
	a, _ := args.Get(0).(*domain.AuditRecord)
	return a, args.Error(1)
}

func (m *mockAuditRepo) ListAudits(ctx context.Context, userID string, q domain.HistoryQuery) ([]domain.AuditRecord, error) {
	args := m.Called(ctx, userID, q)
	list, _ := args.Get(0).([]domain.AuditRecord)
	return list, args.Error(1)
}

func (m *mockAuditRepo) CountAudits(ctx context.Context, userID string, f domain.AuditFilter) (int, error) {
	args := m.Called(ctx, userID, f)
	return args.Int(0), args.Error(1)
}

func (m *mockAuditRepo) AuditScores(ctx context.Context, userID string) ([]domain.ScoredAudit, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).([]domain.ScoredAudit)
	return s, args.Error(1)
}

func (m *mockAuditRepo) DeleteAudits(ctx context.Context, userID string, ids []string) (int, error) {
	args := m.Called(ctx, userID, ids)
	return args.Int(0), args.Error(1)
}

func (m *mockAuditRepo) DumpAudits(ctx context.Context) ([]domain.AuditRecord, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]domain.AuditRecord)
	return list, args.Error(1)
}

type mockOpportunityRepo struct{ mock.Mock }

func (m *mockOpportunityRepo) SaveBatch(ctx context.Context, b *domain.OpportunityBatch) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockOpportunityRepo) GetBatch(ctx context.Context, userID, batchID string) (*domain.OpportunityBatch, error) {
	args := m.Called(ctx, userID, batchID)
	b, _ := args.Get(0).(*domain.OpportunityBatch)
	return b, args.Error(1)
}

func (m *mockOpportunityRepo) SetOpportunityStatus(ctx context.Context, userID, batchID string, id int, status domain.OpportunityStatus) (*domain.LinkOpportunity, error) {
	args := m.Called(ctx, userID, batchID, id, status)
	o, _ := args.Get(0).(*domain.LinkOpportunity)
	return o, args.Error(1)
}

type mockDeploymentRepo struct{ mock.Mock }

func (m *mockDeploymentRepo) CreateDeployment(ctx context.Context, d *domain.Deployment) error {
	return m.Called(ctx, d).Error(0)
}

func (m *mockDeploymentRepo) ListDeployments(ctx context.Context, userID, pageID string, since time.Time) ([]domain.Deployment, error) {
	args := m.Called(ctx, userID, pageID, since)
	ds, _ := args.Get(0).([]domain.Deployment)
	return ds, args.Error(1)
}

// recordingObserver keeps every call for assertions
type recordingObserver struct {
	calls  []string
	scored []string
	ranked int
}

func (r *recordingObserver) GeneratorCall(purpose, outcome string) {
	r.calls = append(r.calls, purpose+":"+outcome)
}

func (r *recordingObserver) AuditScored(bucket string) { r.scored = append(r.scored, bucket) }
func (r *recordingObserver) LinksRanked(n int)         { r.ranked += n }
