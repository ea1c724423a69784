// Package linking ranks internal-link suggestions for a page body.
package linking

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/domain"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/scoring"
)

const (
	// ContextProbeLen is how many leading characters of a context snippet are searched for
	ContextProbeLen = 50
	// UnknownPosition is used when the snippet cannot be located
	UnknownPosition = 50

	HighPriorityMin   = 80.0
	MediumPriorityMin = 60.0
)

// Rank validates the input, locates each candidate in content, sorts by
// relevance (stable), numbers the result 1..N and summarizes it.
func Rank(content string, candidates []domain.LinkCandidate, now time.Time) ([]domain.LinkOpportunity, domain.OpportunitySummary, error) {
	if strings.TrimSpace(content) == "" {
		return nil, domain.OpportunitySummary{}, &domain.ValidationError{Field: "content", Reason: "content is required"}
	}
	if len(candidates) == 0 {
		return nil, domain.OpportunitySummary{}, &domain.ValidationError{Field: "opportunities", Reason: "at least one opportunity is required"}
	}

	opps := make([]domain.LinkOpportunity, len(candidates))
	for i, c := range candidates {
		opps[i] = domain.LinkOpportunity{
			TargetPage:         c.TargetPage,
			TargetURL:          c.TargetURL,
			AnchorText:         c.AnchorText,
			Context:            c.Context,
			PositionPercentage: Position(content, c.Context),
			RelevanceScore:     scoring.ClampScore(c.RelevanceScore),
			Status:             domain.StatusPending,
			CreatedAt:          now,
		}
	}

	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].RelevanceScore > opps[j].RelevanceScore
	})
	for i := range opps {
		opps[i].ID = i + 1
	}

	return opps, Summarize(opps), nil
}

// Position returns where the snippet starts in content as a percentage of
// its length in runes, or UnknownPosition when it is not found. Matching is
// case-insensitive under Unicode simple folding.
func Position(content, snippet string) int {
	probe := []rune(strings.TrimSpace(snippet))
	text := []rune(content)
	if len(probe) == 0 || len(text) == 0 {
		return UnknownPosition
	}
	if len(probe) > ContextProbeLen {
		probe = probe[:ContextProbeLen]
	}

	for i := 0; i+len(probe) <= len(text); i++ {
		if foldEqual(text[i:i+len(probe)], probe) {
			pct := int(math.Round(float64(i) / float64(len(text)) * 100))
			return min(max(pct, 0), 100)
		}
	}
	return UnknownPosition
}

func foldEqual(a, b []rune) bool {
	for i := range a {
		if !foldRune(a[i], b[i]) {
			return false
		}
	}
	return true
}

func foldRune(a, b rune) bool {
	if a == b {
		return true
	}
	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}
	return false
}

// Summarize buckets opportunities by relevance. An empty slice averages to 0.
func Summarize(opps []domain.LinkOpportunity) domain.OpportunitySummary {
	s := domain.OpportunitySummary{TotalOpportunities: len(opps)}
	if len(opps) == 0 {
		return s
	}

	var sum float64
	for _, o := range opps {
		sum += o.RelevanceScore
		switch {
		case o.RelevanceScore >= HighPriorityMin:
			s.HighPriority++
		case o.RelevanceScore >= MediumPriorityMin:
			s.MediumPriority++
		default:
			s.LowPriority++
		}
	}
	s.AverageRelevance = int(math.Round(sum / float64(len(opps))))
	return s
}
