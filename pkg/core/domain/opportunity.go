package domain

import (
	"fmt"
	"time"
)

// OpportunityStatus is the review state of a suggested link
type OpportunityStatus string

const (
	StatusPending  OpportunityStatus = "pending"
	StatusApplied  OpportunityStatus = "applied"
	StatusRejected OpportunityStatus = "rejected"
)

// ParseOpportunityStatus validates a caller-supplied status
func ParseOpportunityStatus(s string) (OpportunityStatus, error) {
	switch st := OpportunityStatus(s); st {
	case StatusPending, StatusApplied, StatusRejected:
		return st, nil
	}
	return "", &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", s)}
}

// LinkCandidate is one suggestion as produced by the text generator, before ranking
type LinkCandidate struct {
	TargetPage     string  `json:"targetPage"`
	TargetURL      string  `json:"targetUrl"`
	AnchorText     string  `json:"anchorText"`
	Context        string  `json:"context"`
	RelevanceScore float64 `json:"relevanceScore"`
}

// LinkOpportunity is a ranked internal-link suggestion. ID is its 1-based rank.
type LinkOpportunity struct {
	ID                 int               `json:"id"`
	BatchID            string            `json:"batchId,omitempty"`
	TargetPage         string            `json:"targetPage"`
	TargetURL          string            `json:"targetUrl"`
	AnchorText         string            `json:"anchorText"`
	Context            string            `json:"context"`
	PositionPercentage int               `json:"positionPercentage"`
	RelevanceScore     float64           `json:"relevanceScore"`
	Status             OpportunityStatus `json:"status"`
	CreatedAt          time.Time         `json:"createdAt"`
}

// OpportunitySummary buckets a ranked batch by priority
type OpportunitySummary struct {
	TotalOpportunities int `json:"totalOpportunities"`
	AverageRelevance   int `json:"averageRelevance"`
	HighPriority       int `json:"highPriority"`
	MediumPriority     int `json:"mediumPriority"`
	LowPriority        int `json:"lowPriority"`
}

// OpportunityBatch is the result of one link analysis call
type OpportunityBatch struct {
	ID            string             `json:"batchId"`
	UserID        string             `json:"-"`
	PageURL       string             `json:"pageUrl,omitempty"`
	Opportunities []LinkOpportunity  `json:"opportunities"`
	Summary       OpportunitySummary `json:"summary"`
	CreatedAt     time.Time          `json:"createdAt"`
}
