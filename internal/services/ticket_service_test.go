package services

import (
	"context"
	"errors"
	"testing"

	"deskview/internal/models"
	"deskview/internal/query"
)

// fakeTicketSource counts calls so tests can assert that locally
// rejected mutations never reach the remote side.
type fakeTicketSource struct {
	tickets map[string]models.Ticket
	listed  []models.Ticket
	total   int

	listCalls   int
	getCalls    int
	createCalls int
	updateCalls int
	statusCalls int
	deleteCalls int

	err error
}

func newFakeTicketSource(tickets ...models.Ticket) *fakeTicketSource {
	src := &fakeTicketSource{tickets: map[string]models.Ticket{}}
	for _, t := range tickets {
		src.tickets[t.ID] = t
	}
	return src
}

func (f *fakeTicketSource) ListTickets(_ context.Context, _ query.Criteria) ([]models.Ticket, int, error) {
	f.listCalls++
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.listed, f.total, nil
}

func (f *fakeTicketSource) ListTicketsByRequester(_ context.Context, _ string, _ query.Criteria) ([]models.Ticket, int, error) {
	f.listCalls++
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.listed, f.total, nil
}

func (f *fakeTicketSource) GetTicket(_ context.Context, id string) (*models.Ticket, error) {
	f.getCalls++
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.tickets[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &t, nil
}

func (f *fakeTicketSource) CreateTicket(_ context.Context, req *models.TicketCreateRequest) (*models.Ticket, error) {
	f.createCalls++
	if f.err != nil {
		return nil, f.err
	}
	t := models.Ticket{
		ID:            "t-new",
		TypeOfRequest: req.TypeOfRequest,
		Building:      req.Building,
		Room:          req.Room,
		RequesterID:   req.RequesterID,
		Status:        models.TicketStatusOpen,
		Priority:      req.Priority,
	}
	f.tickets[t.ID] = t
	return &t, nil
}

func (f *fakeTicketSource) UpdateTicket(_ context.Context, id string, req *models.TicketUpdateRequest) (*models.Ticket, error) {
	f.updateCalls++
	if f.err != nil {
		return nil, f.err
	}
	t := f.tickets[id]
	if req.Status != nil {
		t.Status = *req.Status
	}
	if req.ResolutionSummary != nil {
		t.ResolutionSummary = *req.ResolutionSummary
	}
	f.tickets[id] = t
	return &t, nil
}

func (f *fakeTicketSource) UpdateTicketStatus(_ context.Context, id string, status models.TicketStatus, resolution string) (*models.Ticket, error) {
	f.statusCalls++
	if f.err != nil {
		return nil, f.err
	}
	t := f.tickets[id]
	t.Status = status
	if resolution != "" {
		t.ResolutionSummary = resolution
	}
	f.tickets[id] = t
	return &t, nil
}

func (f *fakeTicketSource) DeleteTicket(_ context.Context, id string) error {
	f.deleteCalls++
	if f.err != nil {
		return f.err
	}
	delete(f.tickets, id)
	return nil
}

func openTicket(id string) models.Ticket {
	return models.Ticket{
		ID:            id,
		TypeOfRequest: "Projector not working",
		Building:      "Main Hall",
		Room:          "101",
		RequesterID:   "r-1001",
		Status:        models.TicketStatusOpen,
		Priority:      models.TicketPriorityMedium,
	}
}

func TestValidateTransitionMatrix(t *testing.T) {
	svc := NewTicketService(newFakeTicketSource(), nil)

	statuses := []models.TicketStatus{
		models.TicketStatusOpen,
		models.TicketStatusInProgress,
		models.TicketStatusResolved,
		models.TicketStatusClosed,
	}
	allowed := map[models.TicketStatus]models.TicketStatus{
		models.TicketStatusOpen:       models.TicketStatusInProgress,
		models.TicketStatusInProgress: models.TicketStatusResolved,
		models.TicketStatusResolved:   models.TicketStatusClosed,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			err := svc.ValidateTransition(from, to)
			ok := from == to || allowed[from] == to
			if ok && err != nil {
				t.Errorf("%s -> %s should be allowed, got %v", from, to, err)
			}
			if !ok {
				var invalid *InvalidTransitionError
				if !errors.As(err, &invalid) {
					t.Errorf("%s -> %s should be rejected, got %v", from, to, err)
				}
			}
		}
	}
}

func TestUpdateStatusRequiresResolution(t *testing.T) {
	current := openTicket("t-1")
	current.Status = models.TicketStatusInProgress
	src := newFakeTicketSource(current)
	svc := NewTicketService(src, nil)

	_, err := svc.UpdateStatus(context.Background(), &current, models.TicketStatusResolved, "   ")
	if !errors.Is(err, ErrMissingResolution) {
		t.Fatalf("expected ErrMissingResolution, got %v", err)
	}
	if src.statusCalls != 0 {
		t.Fatalf("rejected update must not reach the source, got %d calls", src.statusCalls)
	}
	if current.Status != models.TicketStatusInProgress {
		t.Fatalf("ticket must be unchanged after rejection, got %s", current.Status)
	}
}

func TestUpdateStatusWithResolution(t *testing.T) {
	current := openTicket("t-1")
	current.Status = models.TicketStatusInProgress
	src := newFakeTicketSource(current)
	svc := NewTicketService(src, nil)

	updated, err := svc.UpdateStatus(context.Background(), &current, models.TicketStatusResolved, "Swapped the bulb.")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != models.TicketStatusResolved {
		t.Fatalf("expected RESOLVED, got %s", updated.Status)
	}
	if updated.ResolutionSummary != "Swapped the bulb." {
		t.Fatalf("resolution not persisted: %q", updated.ResolutionSummary)
	}
}

func TestUpdateStatusSkipRejected(t *testing.T) {
	current := openTicket("t-1")
	src := newFakeTicketSource(current)
	svc := NewTicketService(src, nil)

	_, err := svc.UpdateStatus(context.Background(), &current, models.TicketStatusResolved, "done")
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("OPEN -> RESOLVED must be rejected, got %v", err)
	}
	if invalid.From != models.TicketStatusOpen || invalid.To != models.TicketStatusResolved {
		t.Fatalf("error should carry the attempted transition: %+v", invalid)
	}
	if src.statusCalls != 0 {
		t.Fatal("rejected transition must not reach the source")
	}
}

func TestUpdateStatusSelfTransition(t *testing.T) {
	current := openTicket("t-1")
	src := newFakeTicketSource(current)
	svc := NewTicketService(src, nil)

	// same-status update is a field-only change and needs no resolution
	if _, err := svc.UpdateStatus(context.Background(), &current, models.TicketStatusOpen, ""); err != nil {
		t.Fatalf("self-transition should be allowed: %v", err)
	}
	if src.statusCalls != 1 {
		t.Fatalf("accepted update should dispatch once, got %d", src.statusCalls)
	}
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	current := openTicket("t-1")
	src := newFakeTicketSource(current)
	svc := NewTicketService(src, nil)

	_, err := svc.UpdateStatus(context.Background(), &current, models.TicketStatus("ARCHIVED"), "")
	var invalid *ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("unknown status must fail validation, got %v", err)
	}
	if src.statusCalls != 0 {
		t.Fatal("invalid status must not reach the source")
	}
}

func TestUpdateFallsBackToExistingResolution(t *testing.T) {
	current := openTicket("t-1")
	current.Status = models.TicketStatusInProgress
	current.ResolutionSummary = "Replaced cable."
	src := newFakeTicketSource(current)
	svc := NewTicketService(src, nil)

	status := models.TicketStatusResolved
	// no resolution in the request; the ticket already carries one
	if _, err := svc.Update(context.Background(), &current, &models.TicketUpdateRequest{Status: &status}); err != nil {
		t.Fatalf("existing resolution should satisfy the requirement: %v", err)
	}
}

func TestUpdateRejectsBlankRequiredField(t *testing.T) {
	current := openTicket("t-1")
	src := newFakeTicketSource(current)
	svc := NewTicketService(src, nil)

	blank := "  "
	_, err := svc.Update(context.Background(), &current, &models.TicketUpdateRequest{Building: &blank})
	var invalid *ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("blanking a required field must fail, got %v", err)
	}
	if src.updateCalls != 0 {
		t.Fatal("rejected update must not reach the source")
	}
}

func TestCreateValidatesRequiredFields(t *testing.T) {
	src := newFakeTicketSource()
	svc := NewTicketService(src, nil)

	_, err := svc.Create(context.Background(), &models.TicketCreateRequest{
		TypeOfRequest: "Broken chair",
		// building, room, requester missing
	})
	var invalid *ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if src.createCalls != 0 {
		t.Fatal("invalid create must not reach the source")
	}
}

func TestCreateDispatches(t *testing.T) {
	src := newFakeTicketSource()
	svc := NewTicketService(src, nil)

	ticket, err := svc.Create(context.Background(), &models.TicketCreateRequest{
		TypeOfRequest: "Broken chair",
		Building:      "Annex B",
		Room:          "204",
		RequesterID:   "r-1002",
		Priority:      models.TicketPriorityLow,
	})
	if err != nil {
		t.Fatal(err)
	}
	if ticket.Status != models.TicketStatusOpen {
		t.Fatalf("new tickets start OPEN, got %s", ticket.Status)
	}
}

func TestListRejectsPageBelowOneBeforeDispatch(t *testing.T) {
	src := newFakeTicketSource()
	svc := NewTicketService(src, nil)

	_, err := svc.List(context.Background(), query.NewCriteria(10).WithPage(0))
	var oor *query.PageOutOfRangeError
	if !errors.As(err, &oor) {
		t.Fatalf("expected PageOutOfRangeError, got %v", err)
	}
	if src.listCalls != 0 {
		t.Fatal("page < 1 must be rejected before any remote call")
	}
}

func TestListUsesServerTotalForWindow(t *testing.T) {
	src := newFakeTicketSource()
	src.listed = []models.Ticket{openTicket("t-91"), openTicket("t-92")}
	src.total = 92
	svc := NewTicketService(src, nil)

	page, err := svc.List(context.Background(), query.NewCriteria(10).WithPage(10))
	if err != nil {
		t.Fatal(err)
	}
	win := page.Window
	if win.From != 91 || win.To != 92 || win.Total != 92 || win.TotalPages != 10 {
		t.Fatalf("unexpected window %+v", win)
	}
}

func TestListPageBeyondServerTotal(t *testing.T) {
	src := newFakeTicketSource()
	src.total = 15
	svc := NewTicketService(src, nil)

	_, err := svc.List(context.Background(), query.NewCriteria(10).WithPage(5))
	var oor *query.PageOutOfRangeError
	if !errors.As(err, &oor) {
		t.Fatalf("expected PageOutOfRangeError, got %v", err)
	}
	if oor.TotalPages != 2 {
		t.Fatalf("expected 2 total pages, got %d", oor.TotalPages)
	}
}

func TestListWrapsRemoteFailure(t *testing.T) {
	src := newFakeTicketSource()
	src.err = errors.New("connection refused")
	svc := NewTicketService(src, nil)

	_, err := svc.List(context.Background(), query.NewCriteria(10))
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if !errors.Is(err, src.err) {
		t.Fatal("remote error must be unwrappable to the cause")
	}
}
