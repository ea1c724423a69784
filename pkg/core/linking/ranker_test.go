package linking_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/domain"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/linking"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRank(t *testing.T) {
	content := strings.Repeat("x", 50) + "Internal linking helps crawlers" + strings.Repeat("y", 19)

	candidates := []domain.LinkCandidate{
		{TargetPage: "a", Context: "nowhere to be found", RelevanceScore: 75},
		{TargetPage: "b", Context: "INTERNAL LINKING helps", RelevanceScore: 90},
		{TargetPage: "c", Context: "another miss", RelevanceScore: 75},
		{TargetPage: "d", Context: "xxxx", RelevanceScore: 40},
	}

	opps, summary, err := linking.Rank(content, candidates, now)
	require.NoError(t, err)
	require.Len(t, opps, 4)

	pages := []string{opps[0].TargetPage, opps[1].TargetPage, opps[2].TargetPage, opps[3].TargetPage}
	assert.Equal(t, []string{"b", "a", "c", "d"}, pages, "ties keep input order")

	for i, o := range opps {
		assert.Equal(t, i+1, o.ID)
		assert.Equal(t, domain.StatusPending, o.Status)
		assert.Equal(t, now, o.CreatedAt)
		assert.GreaterOrEqual(t, o.PositionPercentage, 0)
		assert.LessOrEqual(t, o.PositionPercentage, 100)
	}

	assert.Equal(t, 50, opps[0].PositionPercentage)
	assert.Equal(t, linking.UnknownPosition, opps[1].PositionPercentage)
	assert.Equal(t, 0, opps[3].PositionPercentage)

	assert.Equal(t, domain.OpportunitySummary{
		TotalOpportunities: 4,
		AverageRelevance:   70,
		HighPriority:       1,
		MediumPriority:     2,
		LowPriority:        1,
	}, summary)
}

func TestRank_Validation(t *testing.T) {
	_, _, err := linking.Rank("", []domain.LinkCandidate{{Context: "x"}}, now)
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "content", ve.Field)

	_, _, err = linking.Rank("some content", nil, now)
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "opportunities", ve.Field)
}

func TestPosition(t *testing.T) {
	content := "The quick brown fox jumps over the lazy dog"

	assert.Equal(t, 0, linking.Position(content, "The quick"))
	assert.Equal(t, 93, linking.Position(content, "DOG"))
	assert.Equal(t, 47, linking.Position(content, "jumps over the lazy dog"))
	assert.Equal(t, linking.UnknownPosition, linking.Position(content, "cat"))
	assert.Equal(t, linking.UnknownPosition, linking.Position(content, ""))

	// only the first 50 characters of the snippet are searched
	body := "intro " + strings.Repeat("b", 50) + " original ending"
	snippet := strings.Repeat("B", 50) + " a paraphrased ending"
	assert.Equal(t, 8, linking.Position(body, snippet))
}

func TestPosition_CountsRunesOfOriginalContent(t *testing.T) {
	// lower-casing İ yields two runes, which must not shift the offset
	content := strings.Repeat("İ", 10) + " target"
	assert.Equal(t, 65, linking.Position(content, "TARGET"))

	assert.Equal(t, 0, linking.Position("Über uns und mehr", "über UNS"))
	assert.Equal(t, 60, linking.Position("ab ÄÖ", "äö"))
}

func TestSummarize_Empty(t *testing.T) {
	s := linking.Summarize(nil)
	assert.Equal(t, 0, s.AverageRelevance)
	assert.Equal(t, 0, s.TotalOpportunities)
}

func TestParseCandidates(t *testing.T) {
	list, err := linking.ParseCandidates("```json\n[{\"targetPage\":\"a\",\"relevanceScore\":80}]\n```")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 80.0, list[0].RelevanceScore)

	list, err = linking.ParseCandidates(`{"opportunities":[{"targetPage":"b","anchorText":"seo guide"}]}`)
	require.NoError(t, err)
	assert.Equal(t, "seo guide", list[0].AnchorText)

	_, err = linking.ParseCandidates("sorry, I can't")
	var pe *domain.SchemaParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "sorry, I can't", pe.Raw)

	_, err = linking.ParseCandidates(`{"links": []}`)
	var ie *domain.SchemaIncompleteError
	require.True(t, errors.As(err, &ie))
}
