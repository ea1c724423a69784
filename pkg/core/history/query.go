// Package history shapes audit listings: query normalization, filter
// predicates, ordering and pagination arithmetic.
package history

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/domain"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var sortable = map[string]domain.SortField{
	"created_at":    domain.SortCreatedAt,
	"overall_score": domain.SortOverallScore,
	"url":           domain.SortURL,
	"title":         domain.SortTitle,
}

// NewQuery validates and defaults a listing request.
// page < 1 becomes 1, limit < 1 becomes DefaultLimit and is capped at MaxLimit.
// A page whose offset would not fit in an int is rejected.
// An empty sortBy means created_at; an empty order means descending.
func NewQuery(page, limit int, sortBy, order string, filter domain.AuditFilter) (domain.HistoryQuery, error) {
	q := domain.HistoryQuery{Filter: filter, Page: page, Limit: limit, SortBy: domain.SortCreatedAt}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	q.Limit = min(q.Limit, MaxLimit)
	if q.Page > math.MaxInt/q.Limit {
		return q, &domain.ValidationError{Field: "page", Reason: "page is out of range"}
	}

	if sortBy != "" {
		field, ok := sortable[strings.ToLower(sortBy)]
		if !ok {
			return q, &domain.ValidationError{Field: "sort_by", Reason: "unsupported sort field " + sortBy}
		}
		q.SortBy = field
	}

	switch strings.ToLower(order) {
	case "", "desc":
	case "asc":
		q.Ascending = true
	default:
		return q, &domain.ValidationError{Field: "sort_order", Reason: "must be asc or desc"}
	}

	f := filter
	if f.MinScore != nil && f.MaxScore != nil && *f.MinScore > *f.MaxScore {
		return q, &domain.ValidationError{Field: "min_score", Reason: "must not exceed max_score"}
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return q, &domain.ValidationError{Field: "date_from", Reason: "must not be after date_to"}
	}
	return q, nil
}

// Paginate derives page metadata from the filtered total
func Paginate(q domain.HistoryQuery, total int) domain.Pagination {
	offset := q.Offset()
	totalPages := 0
	if q.Limit > 0 {
		totalPages = (total + q.Limit - 1) / q.Limit
	}
	return domain.Pagination{
		Page:       q.Page,
		Limit:      q.Limit,
		Offset:     offset,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    offset+q.Limit < total,
	}
}

// Match reports whether a record satisfies every set predicate
func Match(r domain.AuditRecord, f domain.AuditFilter) bool {
	if f.MinScore != nil && r.OverallScore < *f.MinScore {
		return false
	}
	if f.MaxScore != nil && r.OverallScore > *f.MaxScore {
		return false
	}
	if f.URLContains != "" && !strings.Contains(strings.ToLower(r.URL), strings.ToLower(f.URLContains)) {
		return false
	}
	if f.DateFrom != nil && r.CreatedAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && r.CreatedAt.After(*f.DateTo) {
		return false
	}
	return true
}

// Apply filters, orders and pages records in memory. It returns the page and
// the number of records that matched the filter. Ties on the sort field are
// broken by id in the same direction, which is the order the store uses.
func Apply(records []domain.AuditRecord, q domain.HistoryQuery) ([]domain.AuditRecord, int) {
	matched := make([]domain.AuditRecord, 0, len(records))
	for _, r := range records {
		if Match(r, q.Filter) {
			matched = append(matched, r)
		}
	}

	slices.SortStableFunc(matched, func(a, b domain.AuditRecord) int {
		c := compare(a, b, q.SortBy)
		if !q.Ascending {
			c = -c
		}
		return c
	})

	total := len(matched)
	start := min(q.Offset(), total)
	end := min(start+q.Limit, total)
	return matched[start:end], total
}

func compare(a, b domain.AuditRecord, field domain.SortField) int {
	var c int
	switch field {
	case domain.SortOverallScore:
		c = cmp.Compare(a.OverallScore, b.OverallScore)
	case domain.SortURL:
		c = strings.Compare(a.URL, b.URL)
	case domain.SortTitle:
		c = strings.Compare(a.Title, b.Title)
	default:
		c = a.CreatedAt.Compare(b.CreatedAt)
	}
	if c == 0 {
		c = strings.Compare(a.ID, b.ID)
	}
	return c
}
