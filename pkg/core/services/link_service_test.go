package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/domain"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/prompts"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/services"
)

const article = "Composting at home is easy. Start with a small bin and add kitchen scraps."

func newLinkService(repo *mockOpportunityRepo, gen *mockGenerator, obs services.Observer) *services.LinkService {
	return services.NewLinkService(repo, gen,
		services.WithObserver(obs),
		services.WithClock(func() time.Time { return fixedNow }),
	)
}

func TestLinkService_Analyze(t *testing.T) {
	repo := new(mockOpportunityRepo)
	gen := new(mockGenerator)
	obs := &recordingObserver{}
	svc := newLinkService(repo, gen, obs)

	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Bins (/bins)")
	})).Return("```json\n"+`{"opportunities": [
		{"targetPage": "Bins", "targetUrl": "/bins", "anchorText": "small bin", "context": "Start with a small bin", "relevanceScore": 65},
		{"targetPage": "Basics", "targetUrl": "/basics", "anchorText": "Composting", "context": "Composting at home", "relevanceScore": 88}
	]}`+"\n```", nil)

	var saved *domain.OpportunityBatch
	repo.On("SaveBatch", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*domain.OpportunityBatch)
	}).Return(nil)

	batch, err := svc.Analyze(context.Background(), "alice", "https://example.com/compost", article,
		[]prompts.Target{{Title: "Bins", URL: "/bins"}})
	require.NoError(t, err)

	require.Len(t, batch.Opportunities, 2)
	first := batch.Opportunities[0]
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, "Basics", first.TargetPage)
	assert.Equal(t, 0, first.PositionPercentage)
	assert.Equal(t, domain.StatusPending, first.Status)
	assert.Equal(t, batch.ID, first.BatchID)
	assert.Equal(t, fixedNow, first.CreatedAt)

	assert.Equal(t, domain.OpportunitySummary{
		TotalOpportunities: 2,
		AverageRelevance:   77,
		HighPriority:       1,
		MediumPriority:     1,
	}, batch.Summary)

	assert.Same(t, batch, saved)
	assert.Equal(t, "alice", saved.UserID)
	assert.Equal(t, []string{"links:ok"}, obs.calls)
	assert.Equal(t, 2, obs.ranked)
}

func TestLinkService_Analyze_MalformedOutput(t *testing.T) {
	repo := new(mockOpportunityRepo)
	gen := new(mockGenerator)
	obs := &recordingObserver{}
	gen.On("Generate", mock.Anything, mock.Anything).Return("here are some ideas", nil)

	_, err := newLinkService(repo, gen, obs).Analyze(context.Background(), "alice", "", article,
		[]prompts.Target{{Title: "Bins", URL: "/bins"}})

	var parse *domain.SchemaParseError
	require.ErrorAs(t, err, &parse)
	assert.Equal(t, []string{"links:parse_error"}, obs.calls)
	repo.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
}

func TestLinkService_Analyze_RequiresTargets(t *testing.T) {
	repo := new(mockOpportunityRepo)
	gen := new(mockGenerator)
	obs := &recordingObserver{}
	svc := newLinkService(repo, gen, obs)

	for name, targets := range map[string][]prompts.Target{"nil": nil, "empty": {}} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Analyze(context.Background(), "alice", "", article, targets)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, "targets", ve.Field)
		})
	}

	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
	assert.Empty(t, obs.calls)
}

func TestLinkService_Rank_Validation(t *testing.T) {
	svc := newLinkService(new(mockOpportunityRepo), new(mockGenerator), nil)

	_, err := svc.Rank(context.Background(), "alice", "", article, nil)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "opportunities", ve.Field)

	_, err = svc.Rank(context.Background(), "alice", "", "", []domain.LinkCandidate{{RelevanceScore: 10}})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "content", ve.Field)
}

func TestLinkService_SetStatus(t *testing.T) {
	repo := new(mockOpportunityRepo)
	svc := newLinkService(repo, new(mockGenerator), nil)

	repo.On("SetOpportunityStatus", mock.Anything, "alice", "b1", 2, domain.StatusApplied).
		Return(&domain.LinkOpportunity{ID: 2, Status: domain.StatusApplied}, nil)
	repo.On("SetOpportunityStatus", mock.Anything, "alice", "b1", 9, domain.StatusRejected).
		Return(nil, nil)

	o, err := svc.SetStatus(context.Background(), "alice", "b1", 2, domain.StatusApplied)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApplied, o.Status)

	_, err = svc.SetStatus(context.Background(), "alice", "b1", 9, domain.StatusRejected)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.SetStatus(context.Background(), "alice", "b1", 2, domain.OpportunityStatus("done"))
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestLinkService_GetBatch_NotFound(t *testing.T) {
	repo := new(mockOpportunityRepo)
	repo.On("GetBatch", mock.Anything, "bob", "b1").Return(nil, nil)

	_, err := newLinkService(repo, new(mockGenerator), nil).GetBatch(context.Background(), "bob", "b1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
