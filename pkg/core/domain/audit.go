package domain

import "time"

// AuditRecord is a completed page audit owned by a single user
type AuditRecord struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	OverallScore float64   `json:"overall_score"`
	Grade        string    `json:"grade,omitempty"`
	Analysis     Analysis  `json:"analysis"`
	PageData     PageData  `json:"page_data"`
	SerpData     *SerpData `json:"serp_data,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Analysis is the validated form of a generated page assessment
type Analysis struct {
	OverallScore    float64       `json:"overallScore"`
	EEAT            ScoreCategory `json:"eeat"`
	Technical       ScoreCategory `json:"technical"`
	ContentQuality  ScoreCategory `json:"contentQuality"`
	Summary         string        `json:"summary,omitempty"`
	Recommendations []string      `json:"recommendations"`
}

// ScoreCategory holds one scored dimension of an analysis.
// Issues and Strengths are never nil.
type ScoreCategory struct {
	Score     float64  `json:"score"`
	Issues    []string `json:"issues"`
	Strengths []string `json:"strengths"`
}

// PageData holds structural facts about the audited page
type PageData struct {
	WordCount        int `json:"word_count"`
	HeadingCount     int `json:"heading_count"`
	H1Count          int `json:"h1_count"`
	ImageCount       int `json:"image_count"`
	ImagesMissingAlt int `json:"images_missing_alt"`
	InternalLinks    int `json:"internal_links"`
	ExternalLinks    int `json:"external_links"`
}

// LinkCount is the total number of anchors found on the page
func (p PageData) LinkCount() int {
	return p.InternalLinks + p.ExternalLinks
}

// SerpData is contextual ranking data passed through untouched
type SerpData struct {
	Keyword  string   `json:"keyword,omitempty"`
	Position int      `json:"position,omitempty"`
	Related  []string `json:"related,omitempty"`
}

// ScoredAudit is the minimal projection used for summaries
type ScoredAudit struct {
	ID           string  `json:"id"`
	OverallScore float64 `json:"overall_score"`
}
