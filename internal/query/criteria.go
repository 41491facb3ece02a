// Package query turns filter criteria into bounded, stable result windows.
package query

import "time"

// SortOrder is the direction of a sort.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Criteria is an immutable snapshot of the active filter, sort and page
// selections for one view. The With* methods return a copy; every change
// to a filter or sort field resets Page to 1 so a narrowed view never
// lands on an out-of-range page.
type Criteria struct {
	Search   string
	Status   string // exact match; empty matches all
	Priority string // exact match; empty matches all
	Trigger  string // exact match; empty matches all
	DateFrom time.Time
	DateTo   time.Time

	SortBy    string
	SortOrder SortOrder

	Page     int // 1-based
	PageSize int
}

// NewCriteria returns criteria for the first page of an unfiltered view.
func NewCriteria(pageSize int) Criteria {
	return Criteria{
		SortOrder: SortAsc,
		Page:      1,
		PageSize:  pageSize,
	}
}

// WithSearch sets the free-text search and resets the page.
func (c Criteria) WithSearch(search string) Criteria {
	c.Search = search
	c.Page = 1
	return c
}

// WithStatus sets the status filter and resets the page.
func (c Criteria) WithStatus(status string) Criteria {
	c.Status = status
	c.Page = 1
	return c
}

// WithPriority sets the priority filter and resets the page.
func (c Criteria) WithPriority(priority string) Criteria {
	c.Priority = priority
	c.Page = 1
	return c
}

// WithTrigger sets the trigger filter and resets the page.
func (c Criteria) WithTrigger(trigger string) Criteria {
	c.Trigger = trigger
	c.Page = 1
	return c
}

// WithDateRange sets the created-at bounds and resets the page. A zero
// bound is open on that side.
func (c Criteria) WithDateRange(from, to time.Time) Criteria {
	c.DateFrom = from
	c.DateTo = to
	c.Page = 1
	return c
}

// WithSort sets the sort key and direction and resets the page.
func (c Criteria) WithSort(sortBy string, order SortOrder) Criteria {
	c.SortBy = sortBy
	c.SortOrder = order
	c.Page = 1
	return c
}

// WithPage moves to the given page without touching any filter.
func (c Criteria) WithPage(page int) Criteria {
	c.Page = page
	return c
}

// Offset is the number of items preceding the requested page.
func (c Criteria) Offset() int {
	return (c.Page - 1) * c.PageSize
}
