package console

import (
	"context"
	"time"

	"deskview/internal/models"
	"deskview/internal/query"
	"deskview/internal/services"

	"github.com/sirupsen/logrus"
)

// TicketsView is the controller behind the ticket list page. It owns the
// view's criteria and cached page, mediates every ticket action through
// the ticket service, and only touches its cache after the remote side
// has confirmed a mutation.
type TicketsView struct {
	state  ViewState
	svc    *services.TicketService
	demo   *services.TicketService // explicit fallback path, may be nil
	auth   AuthContext
	logger *logrus.Logger

	// guarded by state.mu
	criteria    query.Criteria
	requesterID string // non-empty narrows every load to one requester
	page        *services.TicketPage
	demoData    bool
}

// NewTicketsView creates the tickets controller. demo may be nil when no
// fallback source is configured; auth defaults to non-admin.
func NewTicketsView(svc *services.TicketService, demo *services.TicketService, auth AuthContext, pageSize int, logger *logrus.Logger) *TicketsView {
	if logger == nil {
		logger = logrus.New()
	}
	if auth == nil {
		auth = StaticAuth(false)
	}
	return &TicketsView{
		svc:      svc,
		demo:     demo,
		auth:     auth,
		logger:   logger,
		criteria: query.NewCriteria(pageSize),
	}
}

// State exposes the view state for selection and deep-link queries.
func (v *TicketsView) State() *ViewState { return &v.state }

// Criteria returns the active criteria snapshot.
func (v *TicketsView) Criteria() query.Criteria {
	v.state.mu.Lock()
	defer v.state.mu.Unlock()
	return v.criteria
}

// Page returns the last successfully loaded page, nil before the first
// load. The pointer is swapped atomically on load, so a caller never
// observes a torn page.
func (v *TicketsView) Page() *services.TicketPage {
	v.state.mu.Lock()
	defer v.state.mu.Unlock()
	return v.page
}

// DemoData reports whether the current page came from the fallback
// source rather than the remote service.
func (v *TicketsView) DemoData() bool {
	v.state.mu.Lock()
	defer v.state.mu.Unlock()
	return v.demoData
}

// SetSearch, SetStatusFilter, SetPriorityFilter, SetDateRange and
// SetSort narrow the view; each resets the page to 1. SetPage moves
// within the current filtering. None of them trigger a load; the caller
// re-issues Load when ready.
func (v *TicketsView) SetSearch(search string) { v.updateCriteria(func(c query.Criteria) query.Criteria { return c.WithSearch(search) }) }

func (v *TicketsView) SetStatusFilter(status string) {
	v.updateCriteria(func(c query.Criteria) query.Criteria { return c.WithStatus(status) })
}

func (v *TicketsView) SetPriorityFilter(priority string) {
	v.updateCriteria(func(c query.Criteria) query.Criteria { return c.WithPriority(priority) })
}

func (v *TicketsView) SetDateRange(from, to time.Time) {
	v.updateCriteria(func(c query.Criteria) query.Criteria { return c.WithDateRange(from, to) })
}

func (v *TicketsView) SetSort(sortBy string, order query.SortOrder) {
	v.updateCriteria(func(c query.Criteria) query.Criteria { return c.WithSort(sortBy, order) })
}

func (v *TicketsView) SetPage(page int) {
	v.updateCriteria(func(c query.Criteria) query.Criteria { return c.WithPage(page) })
}

func (v *TicketsView) updateCriteria(apply func(query.Criteria) query.Criteria) {
	v.state.mu.Lock()
	v.criteria = apply(v.criteria)
	v.state.mu.Unlock()
}

// SetRequesterScope narrows the view to tickets opened by one requester;
// an empty id clears the scope. Like any filter change it resets the
// page to 1, and both the remote and the demo load honor it.
func (v *TicketsView) SetRequesterScope(requesterID string) {
	v.state.mu.Lock()
	v.requesterID = requesterID
	v.criteria = v.criteria.WithPage(1)
	v.state.mu.Unlock()
}

// Load fetches the page described by the current criteria. A load that
// observes another load in flight is a no-op; the caller re-issues after
// the in-flight one completes if a refresh is still wanted. On failure
// the previous page is retained (an explicit error/empty state only ever
// shows before the first successful load).
func (v *TicketsView) Load(ctx context.Context) error {
	return v.loadFrom(ctx, v.svc, false)
}

// LoadDemo is the explicit fallback path: it fills the view from the
// injected demo source instead of the remote service. Production loads
// never fall through to it on their own.
func (v *TicketsView) LoadDemo(ctx context.Context) error {
	if v.demo == nil {
		return &services.ValidationError{Field: "fallback", Reason: "not configured"}
	}
	return v.loadFrom(ctx, v.demo, true)
}

func (v *TicketsView) loadFrom(ctx context.Context, svc *services.TicketService, demo bool) error {
	if !v.state.beginLoad() {
		v.logger.Debug("ticket load suppressed, another load in flight")
		return nil
	}
	defer v.state.endLoad()

	v.state.mu.Lock()
	criteria := v.criteria
	requester := v.requesterID
	v.state.mu.Unlock()

	var page *services.TicketPage
	var err error
	if requester != "" {
		page, err = svc.ListByRequester(ctx, requester, criteria)
	} else {
		page, err = svc.List(ctx, criteria)
	}
	if err != nil {
		v.logger.Warnf("Ticket load failed: %v", err)
		return err
	}
	v.installPage(page, demo)
	return nil
}

func (v *TicketsView) installPage(page *services.TicketPage, demo bool) {
	v.state.mu.Lock()
	v.page = page
	v.demoData = demo
	intent := v.state.intent
	v.state.intent = nil
	if intent != nil {
		v.state.selectedID = intent.EntityID
		v.state.activeTab = intent.Tab
	}
	v.state.mu.Unlock()
}

// Open loads a ticket's detail and makes it the selection. It prefers
// the cached page and falls back to a direct remote fetch by id before
// declaring failure. Opening a second detail overwrites the selection.
func (v *TicketsView) Open(ctx context.Context, id string) (*models.Ticket, error) {
	ticket, err := v.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	v.state.selectEntity(ticket.ID)
	return ticket, nil
}

// Create opens a new ticket. The cached page is left alone; the caller
// reloads to see the new ticket under the active filters.
func (v *TicketsView) Create(ctx context.Context, req *models.TicketCreateRequest) (*models.Ticket, error) {
	return v.svc.Create(ctx, req)
}

// UpdateStatus runs the status dialog flow for one ticket. The cached
// copy is replaced only after the remote service confirms the change.
func (v *TicketsView) UpdateStatus(ctx context.Context, id string, status models.TicketStatus, resolution string) (*models.Ticket, error) {
	current, err := v.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := v.svc.UpdateStatus(ctx, current, status, resolution)
	if err != nil {
		return nil, err
	}
	v.replaceCached(updated)
	return updated, nil
}

// Update applies a field-level edit to one ticket, same confirmation
// rule as UpdateStatus.
func (v *TicketsView) Update(ctx context.Context, id string, req *models.TicketUpdateRequest) (*models.Ticket, error) {
	current, err := v.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := v.svc.Update(ctx, current, req)
	if err != nil {
		return nil, err
	}
	v.replaceCached(updated)
	return updated, nil
}

// RequestDelete starts the two-phase delete of a ticket. Deletion is an
// administrator capability; nothing is sent until the returned
// confirmation is confirmed.
func (v *TicketsView) RequestDelete(id string) (*PendingConfirmation, error) {
	if !v.auth.IsAdmin() {
		return nil, ErrNotAuthorized
	}
	return &PendingConfirmation{
		Action:   "delete_ticket",
		EntityID: id,
		apply: func(ctx context.Context) error {
			if err := v.svc.Delete(ctx, id); err != nil {
				return err
			}
			v.removeCached(id)
			return nil
		},
	}, nil
}

func (v *TicketsView) lookup(ctx context.Context, id string) (*models.Ticket, error) {
	v.state.mu.Lock()
	if v.page != nil {
		for i := range v.page.Items {
			if v.page.Items[i].ID == id {
				ticket := v.page.Items[i]
				v.state.mu.Unlock()
				return &ticket, nil
			}
		}
	}
	v.state.mu.Unlock()
	// not on the cached page; try the service directly before failing
	return v.svc.Get(ctx, id)
}

func (v *TicketsView) replaceCached(updated *models.Ticket) {
	v.state.mu.Lock()
	defer v.state.mu.Unlock()
	if v.page == nil {
		return
	}
	for i := range v.page.Items {
		if v.page.Items[i].ID == updated.ID {
			v.page.Items[i] = *updated
			return
		}
	}
}

func (v *TicketsView) removeCached(id string) {
	v.state.mu.Lock()
	if v.page != nil {
		items := v.page.Items[:0]
		for _, t := range v.page.Items {
			if t.ID != id {
				items = append(items, t)
			}
		}
		v.page.Items = items
	}
	v.state.mu.Unlock()
	v.state.clearSelection(id)
}
