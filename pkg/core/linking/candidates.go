package linking

import (
	"strings"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/domain"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/scoring"
)

// ParseCandidates reads generated link suggestions. Both a bare JSON array
// and an object with an "opportunities" array are accepted.
func ParseCandidates(raw string) ([]domain.LinkCandidate, error) {
	if strings.HasPrefix(scoring.StripCodeFence(raw), "[") {
		var list []domain.LinkCandidate
		if err := scoring.DecodeGenerated(raw, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var wrapped struct {
		Opportunities []domain.LinkCandidate `json:"opportunities"`
	}
	if err := scoring.DecodeGenerated(raw, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Opportunities == nil {
		return nil, &domain.SchemaIncompleteError{Missing: []string{"opportunities"}}
	}
	return wrapped.Opportunities, nil
}
