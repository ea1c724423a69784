package scoring

import (
	"math"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/domain"
)

// Bucket is a coarse classification of a 0-100 score
type Bucket string

const (
	Excellent Bucket = "excellent"
	Good      Bucket = "good"
	Fair      Bucket = "fair"
	Poor      Bucket = "poor"
)

// Lower bounds, inclusive
const (
	ExcellentMin = 90.0
	GoodMin      = 70.0
	FairMin      = 50.0
)

// Categorize places a score in exactly one bucket
func Categorize(score float64) Bucket {
	switch {
	case score >= ExcellentMin:
		return Excellent
	case score >= GoodMin:
		return Good
	case score >= FairMin:
		return Fair
	default:
		return Poor
	}
}

// Grade maps a score onto the four-letter scheme that mirrors the buckets
func Grade(score float64) string {
	switch Categorize(score) {
	case Excellent:
		return "A"
	case Good:
		return "B"
	case Fair:
		return "C"
	default:
		return "F"
	}
}

// Distribute counts scores per bucket
func Distribute(scores []float64) domain.Distribution {
	var d domain.Distribution
	for _, s := range scores {
		switch Categorize(s) {
		case Excellent:
			d.Excellent++
		case Good:
			d.Good++
		case Fair:
			d.Fair++
		default:
			d.Poor++
		}
	}
	return d
}

// Summarize computes the average (one decimal) and distribution of scores.
// An empty input yields a zero average.
func Summarize(scores []float64) domain.ScoreSummary {
	summary := domain.ScoreSummary{
		TotalAudits:  len(scores),
		Distribution: Distribute(scores),
	}
	if len(scores) == 0 {
		return summary
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	summary.AverageScore = Round1(sum / float64(len(scores)))
	summary.AverageGrade = Grade(summary.AverageScore)
	return summary
}

// SummarizeAudits is Summarize over the overall scores of audits
func SummarizeAudits(audits []domain.ScoredAudit) domain.ScoreSummary {
	scores := make([]float64, len(audits))
	for i, a := range audits {
		scores[i] = a.OverallScore
	}
	return Summarize(scores)
}

// Round1 rounds to one decimal place
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
