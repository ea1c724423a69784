package domain

import "time"

// SortField names a sortable audit column
type SortField string

const (
	SortCreatedAt    SortField = "created_at"
	SortOverallScore SortField = "overall_score"
	SortURL          SortField = "url"
	SortTitle        SortField = "title"
)

// AuditFilter holds the optional, conjunctive history predicates.
// Nil pointers and empty strings mean "no constraint".
type AuditFilter struct {
	MinScore    *float64
	MaxScore    *float64
	URLContains string
	DateFrom    *time.Time
	DateTo      *time.Time
}

// HistoryQuery is a normalized listing request
type HistoryQuery struct {
	Filter    AuditFilter
	SortBy    SortField
	Ascending bool
	Page      int
	Limit     int
}

// Offset of the first record on the requested page
func (q HistoryQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasMore    bool `json:"has_more"`
}

// Distribution counts scores per bucket. Counts always sum to the number of scores.
type Distribution struct {
	Excellent int `json:"excellent"`
	Good      int `json:"good"`
	Fair      int `json:"fair"`
	Poor      int `json:"poor"`
}

// Total number of scores counted
func (d Distribution) Total() int {
	return d.Excellent + d.Good + d.Fair + d.Poor
}

// ScoreSummary describes an owner's full, unfiltered audit history
type ScoreSummary struct {
	TotalAudits  int          `json:"total_audits"`
	AverageScore float64      `json:"average_score"`
	AverageGrade string       `json:"average_grade,omitempty"`
	Distribution Distribution `json:"distribution"`
}

// HistoryPage is one page of filtered audits plus the unfiltered summary
type HistoryPage struct {
	Audits     []AuditRecord `json:"audits"`
	Pagination Pagination    `json:"pagination"`
	Summary    ScoreSummary  `json:"summary"`
}
