// Package analytics rolls deployment events up into totals, per-page
// leaders and a per-day timeline.
package analytics

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/domain"
)

const (
	DefaultRangeDays = 30
	MaxRangeDays     = 36500
	TopPagesLimit    = 10
	RecentLimit      = 10
)

var rangePattern = regexp.MustCompile(`^(\d+)d$`)

// ParseRange reads a "<N>d" token. Anything else, including N <= 0 or
// N > MaxRangeDays, yields DefaultRangeDays.
func ParseRange(token string) int {
	m := rangePattern.FindStringSubmatch(token)
	if m == nil {
		return DefaultRangeDays
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 || n > MaxRangeDays {
		return DefaultRangeDays
	}
	return n
}

// Since is the inclusive lower bound for a range of days ending at now
func Since(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}

// Aggregate builds the analytics view for deployments within rangeToken of now
func Aggregate(deployments []domain.Deployment, rangeToken string, now time.Time) domain.DeploymentAnalytics {
	days := ParseRange(rangeToken)
	start := Since(now, days)

	inRange := make([]domain.Deployment, 0, len(deployments))
	for _, d := range deployments {
		if !d.DeployedAt.Before(start) {
			inRange = append(inRange, d)
		}
	}

	return domain.DeploymentAnalytics{
		Summary:        summarize(inRange, days),
		TopPages:       topPages(inRange),
		Timeline:       timeline(inRange),
		RecentActivity: recent(inRange),
	}
}

func summarize(ds []domain.Deployment, days int) domain.DeploymentSummary {
	s := domain.DeploymentSummary{
		TimeRange:        strconv.Itoa(days) + "d",
		Days:             days,
		TotalDeployments: len(ds),
	}
	if len(ds) == 0 {
		return s
	}

	var delta int
	for _, d := range ds {
		s.TotalLinksAdded += d.LinksCount
		delta += d.ContentDelta()
	}
	n := float64(len(ds))
	s.AvgLinksPerDeployment = int(math.Round(float64(s.TotalLinksAdded) / n))
	s.AvgContentLengthChange = int(math.Round(float64(delta) / n))
	return s
}

func topPages(ds []domain.Deployment) []domain.PageRollup {
	index := make(map[string]int)
	rollups := []domain.PageRollup{}
	for _, d := range ds {
		i, ok := index[d.PageID]
		if !ok {
			i = len(rollups)
			index[d.PageID] = i
			rollups = append(rollups, domain.PageRollup{PageID: d.PageID})
		}
		rollups[i].Deployments++
		rollups[i].LinksAdded += d.LinksCount
		rollups[i].ContentChange += d.ContentDelta()
	}

	slices.SortStableFunc(rollups, func(a, b domain.PageRollup) int {
		return b.LinksAdded - a.LinksAdded
	})
	if len(rollups) > TopPagesLimit {
		rollups = rollups[:TopPagesLimit]
	}
	return rollups
}

func timeline(ds []domain.Deployment) []domain.DailyActivity {
	byDay := make(map[string]*domain.DailyActivity)
	for _, d := range ds {
		key := d.DeployedAt.UTC().Format(time.DateOnly)
		day, ok := byDay[key]
		if !ok {
			day = &domain.DailyActivity{Date: key}
			byDay[key] = day
		}
		day.Deployments++
		day.LinksAdded += d.LinksCount
	}

	out := make([]domain.DailyActivity, 0, len(byDay))
	for _, day := range byDay {
		out = append(out, *day)
	}
	// ISO dates sort chronologically as strings
	slices.SortFunc(out, func(a, b domain.DailyActivity) int {
		return strings.Compare(a.Date, b.Date)
	})
	return out
}

func recent(ds []domain.Deployment) []domain.Deployment {
	out := slices.Clone(ds)
	slices.SortStableFunc(out, func(a, b domain.Deployment) int {
		return b.DeployedAt.Compare(a.DeployedAt)
	})
	if len(out) > RecentLimit {
		out = out[:RecentLimit]
	}
	if out == nil {
		out = []domain.Deployment{}
	}
	return out
}
