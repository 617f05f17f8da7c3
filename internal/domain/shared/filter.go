package shared

import (
	"strings"
	"time"
)

// SortDirection is the order of a sorted list
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// IsValid checks if the direction is one of the known values
func (d SortDirection) IsValid() bool {
	return d == SortAsc || d == SortDesc
}

// Filter is the user-chosen filter state of a list screen.
// Empty fields mean "no filter" and are never sent to the backend.
type Filter struct {
	Search   string
	Category string
	Status   string
	VendorID string
	DateFrom *time.Time
	DateTo   *time.Time
	SortBy   string
	SortDir  SortDirection
	Page     Page

	defaultSort string
}

// NewFilter creates filter state with the screen's default sort key
func NewFilter(defaultSort string) Filter {
	return Filter{
		SortBy:      defaultSort,
		SortDir:     SortAsc,
		Page:        DefaultPageState(),
		defaultSort: defaultSort,
	}
}

// Reset restores the defaults the filter was created with
func (f *Filter) Reset() {
	*f = NewFilter(f.defaultSort)
}

// Matches reports whether any of the given fields contains the search term,
// case-insensitively. An empty search term matches everything.
func (f Filter) Matches(fields ...string) bool {
	term := strings.TrimSpace(strings.ToLower(f.Search))
	if term == "" {
		return true
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// InDateRange reports whether t falls inside the filter's date range.
// Both bounds are inclusive and compared at day granularity.
func (f Filter) InDateRange(t time.Time) bool {
	day := truncateDay(t)
	if f.DateFrom != nil && day.Before(truncateDay(*f.DateFrom)) {
		return false
	}
	if f.DateTo != nil && day.After(truncateDay(*f.DateTo)) {
		return false
	}
	return true
}

// Descending reports whether the sort direction is descending
func (f Filter) Descending() bool {
	return f.SortDir == SortDesc
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
