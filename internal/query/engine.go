package query

import (
	"fmt"
	"sort"
	"strings"

	"deskview/internal/models"
)

// Window describes the visible slice of a result set: the "showing
// From-To of Total" values plus the page count.
type Window struct {
	From       int `json:"from"`
	To         int `json:"to"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// PageOutOfRangeError reports a page request outside [1, TotalPages].
type PageOutOfRangeError struct {
	Page       int
	TotalPages int
}

func (e *PageOutOfRangeError) Error() string {
	return fmt.Sprintf("page %d out of range (1-%d)", e.Page, e.TotalPages)
}

// WindowFor computes the display window for the given criteria against a
// total count. It rejects page < 1 and, when total > 0, any page beyond
// the last one.
func WindowFor(c Criteria, total int) (Window, error) {
	totalPages := 1
	if total > 0 {
		totalPages = (total + c.PageSize - 1) / c.PageSize
	}
	if c.Page < 1 || c.Page > totalPages {
		return Window{}, &PageOutOfRangeError{Page: c.Page, TotalPages: totalPages}
	}

	w := Window{Total: total, TotalPages: totalPages}
	if total == 0 {
		return w, nil
	}
	w.From = c.Offset() + 1
	w.To = c.Page * c.PageSize
	if w.To > total {
		w.To = total
	}
	return w, nil
}

// WorkflowPage is one window of the filtered workflow set.
type WorkflowPage struct {
	Items  []models.Workflow `json:"items"`
	Window Window            `json:"window"`
}

// Workflows filters, sorts and paginates the full in-memory workflow set.
// It is a pure function of its inputs: the same criteria against an
// unchanged source yields an identical page. Ties keep their original
// relative order, and an unknown sort key keeps insertion order.
func Workflows(c Criteria, source []models.Workflow) (*WorkflowPage, error) {
	filtered := filterWorkflows(c, source)
	sortWorkflows(c, filtered)

	win, err := WindowFor(c, len(filtered))
	if err != nil {
		return nil, err
	}

	items := []models.Workflow{}
	if win.Total > 0 {
		items = filtered[win.From-1 : win.To]
	}
	return &WorkflowPage{Items: items, Window: win}, nil
}

func filterWorkflows(c Criteria, source []models.Workflow) []models.Workflow {
	search := strings.ToLower(strings.TrimSpace(c.Search))
	out := make([]models.Workflow, 0, len(source))
	for _, wf := range source {
		if search != "" &&
			!strings.Contains(strings.ToLower(wf.Name), search) &&
			!strings.Contains(strings.ToLower(wf.Description), search) {
			continue
		}
		if c.Status != "" && string(wf.Status) != c.Status {
			continue
		}
		if c.Trigger != "" && string(wf.Trigger) != c.Trigger {
			continue
		}
		if !c.DateFrom.IsZero() && wf.CreatedAt.Before(c.DateFrom) {
			continue
		}
		if !c.DateTo.IsZero() && wf.CreatedAt.After(c.DateTo) {
			continue
		}
		out = append(out, wf)
	}
	return out
}

func sortWorkflows(c Criteria, workflows []models.Workflow) {
	less := workflowLess(c.SortBy)
	if less == nil {
		return
	}
	sort.SliceStable(workflows, func(i, j int) bool {
		if c.SortOrder == SortDesc {
			i, j = j, i
		}
		return less(workflows[i], workflows[j])
	})
}

func workflowLess(sortBy string) func(a, b models.Workflow) bool {
	switch sortBy {
	case "name":
		return func(a, b models.Workflow) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	case "status":
		return func(a, b models.Workflow) bool { return a.Status < b.Status }
	case "trigger":
		return func(a, b models.Workflow) bool { return a.Trigger < b.Trigger }
	case "created_at":
		return func(a, b models.Workflow) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "updated_at":
		return func(a, b models.Workflow) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
	default:
		return nil
	}
}
