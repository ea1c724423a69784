package domain

import "time"

// Deployment records a batch of links written into a page. Immutable once stored.
type Deployment struct {
	ID                  int64     `json:"-"`
	UserID              string    `json:"-"`
	PageID              string    `json:"pageId"`
	DeploymentID        string    `json:"deploymentId"`
	LinksCount          int       `json:"linksCount"`
	ContentLengthBefore int       `json:"contentLengthBefore"`
	ContentLengthAfter  int       `json:"contentLengthAfter"`
	DeployedAt          time.Time `json:"deployedAt"`
}

// ContentDelta is the change in content length caused by the deployment
func (d Deployment) ContentDelta() int {
	return d.ContentLengthAfter - d.ContentLengthBefore
}

// DeploymentAnalytics is the read-side rollup of deployments over a time range
type DeploymentAnalytics struct {
	Summary        DeploymentSummary `json:"summary"`
	TopPages       []PageRollup      `json:"topPages"`
	Timeline       []DailyActivity   `json:"timeline"`
	RecentActivity []Deployment      `json:"recentActivity"`
}

type DeploymentSummary struct {
	TimeRange              string `json:"timeRange"`
	Days                   int    `json:"days"`
	TotalDeployments       int    `json:"totalDeployments"`
	TotalLinksAdded        int    `json:"totalLinksAdded"`
	AvgLinksPerDeployment  int    `json:"avgLinksPerDeployment"`
	AvgContentLengthChange int    `json:"avgContentLengthChange"`
}

type PageRollup struct {
	PageID        string `json:"pageId"`
	Deployments   int    `json:"deployments"`
	LinksAdded    int    `json:"linksAdded"`
	ContentChange int    `json:"contentChange"`
}

type DailyActivity struct {
	Date        string `json:"date"` // YYYY-MM-DD, UTC
	Deployments int    `json:"deployments"`
	LinksAdded  int    `json:"linksAdded"`
}
