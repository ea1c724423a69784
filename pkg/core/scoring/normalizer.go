// Package scoring turns generated page assessments into bounded score
// structures and aggregates scores into grades and distributions.
package scoring

import (
	"encoding/json"
	"strings"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/domain"
)

type rawCategory struct {
	Score     *float64 `json:"score"`
	Issues    []string `json:"issues"`
	Strengths []string `json:"strengths"`
}

type rawAnalysis struct {
	OverallScore    *float64     `json:"overallScore"`
	EEAT            *rawCategory `json:"eeat"`
	Technical       *rawCategory `json:"technical"`
	ContentQuality  *rawCategory `json:"contentQuality"`
	Summary         string       `json:"summary"`
	Recommendations []string     `json:"recommendations"`
}

// ParseAnalysis is the single entry point from generated text to an Analysis.
// It returns *domain.SchemaParseError when the text is not JSON and
// *domain.SchemaIncompleteError when required fields are absent.
func ParseAnalysis(raw string) (*domain.Analysis, error) {
	var ra rawAnalysis
	if err := DecodeGenerated(raw, &ra); err != nil {
		return nil, err
	}

	var missing []string
	if ra.OverallScore == nil {
		missing = append(missing, "overallScore")
	}
	eeat := normalizeCategory("eeat", ra.EEAT, &missing)
	technical := normalizeCategory("technical", ra.Technical, &missing)
	content := normalizeCategory("contentQuality", ra.ContentQuality, &missing)
	if len(missing) > 0 {
		return nil, &domain.SchemaIncompleteError{Missing: missing}
	}

	return &domain.Analysis{
		OverallScore:    ClampScore(*ra.OverallScore),
		EEAT:            eeat,
		Technical:       technical,
		ContentQuality:  content,
		Summary:         strings.TrimSpace(ra.Summary),
		Recommendations: nonNil(ra.Recommendations),
	}, nil
}

func normalizeCategory(name string, rc *rawCategory, missing *[]string) domain.ScoreCategory {
	if rc == nil {
		*missing = append(*missing, name)
		return domain.ScoreCategory{}
	}
	if rc.Score == nil {
		*missing = append(*missing, name+".score")
		return domain.ScoreCategory{}
	}
	return domain.ScoreCategory{
		Score:     ClampScore(*rc.Score),
		Issues:    nonNil(rc.Issues),
		Strengths: nonNil(rc.Strengths),
	}
}

// DecodeGenerated strips code fences from raw and unmarshals the rest into v.
// Any decode failure is reported as *domain.SchemaParseError with raw attached.
func DecodeGenerated(raw string, v any) error {
	body := StripCodeFence(raw)
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return &domain.SchemaParseError{Raw: raw, Err: err}
	}
	return nil
}

// StripCodeFence removes a surrounding ``` fence and its optional language tag
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		i := 0
		for i < len(s) && isTagByte(s[i]) {
			i++
		}
		if i < len(s) && strings.ContainsRune(" \t\r\n{[", rune(s[i])) {
			s = s[i:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func isTagByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '-' || b == '_'
}

// ClampScore bounds a score to [0,100]
func ClampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
