package services

import (
	"context"
	"errors"
	"strings"

	"deskview/internal/models"
	"deskview/internal/query"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// TicketSource is the remote ticket service boundary. The real HTTP
// client and the demo data source both satisfy it. Listing is delegated:
// criteria are forwarded verbatim and the returned total is trusted.
type TicketSource interface {
	ListTickets(ctx context.Context, c query.Criteria) ([]models.Ticket, int, error)
	ListTicketsByRequester(ctx context.Context, requesterID string, c query.Criteria) ([]models.Ticket, int, error)
	GetTicket(ctx context.Context, id string) (*models.Ticket, error)
	CreateTicket(ctx context.Context, req *models.TicketCreateRequest) (*models.Ticket, error)
	UpdateTicket(ctx context.Context, id string, req *models.TicketUpdateRequest) (*models.Ticket, error)
	UpdateTicketStatus(ctx context.Context, id string, status models.TicketStatus, resolution string) (*models.Ticket, error)
	DeleteTicket(ctx context.Context, id string) error
}

// TicketPage is one window of the remote ticket collection.
type TicketPage struct {
	Items  []models.Ticket `json:"items"`
	Window query.Window    `json:"window"`
}

// ticketTransitions is the directed lifecycle graph. No skipping, no
// reversal; self-transitions bypass the graph as field-only updates.
var ticketTransitions = map[models.TicketStatus][]models.TicketStatus{
	models.TicketStatusOpen:       {models.TicketStatusInProgress},
	models.TicketStatusInProgress: {models.TicketStatusResolved},
	models.TicketStatusResolved:   {models.TicketStatusClosed},
	models.TicketStatusClosed:     {},
}

// TicketService mediates ticket actions: it validates lifecycle rules
// locally, dispatches accepted mutations to the source, and hands back
// the confirmed result. It never mutates anything on a failed call.
type TicketService struct {
	source   TicketSource
	logger   *logrus.Logger
	validate *validator.Validate
}

// NewTicketService creates a ticket service over the given source.
func NewTicketService(source TicketSource, logger *logrus.Logger) *TicketService {
	if logger == nil {
		logger = logrus.New()
	}
	return &TicketService{
		source:   source,
		logger:   logger,
		validate: validator.New(),
	}
}

// ValidateTransition checks a requested status change against the
// lifecycle graph. A self-transition is a field-only update and is always
// allowed without consulting the graph.
func (s *TicketService) ValidateTransition(current, requested models.TicketStatus) error {
	if current == requested {
		return nil
	}
	allowed := ticketTransitions[current]
	for _, next := range allowed {
		if next == requested {
			return nil
		}
	}
	return &InvalidTransitionError{From: current, To: requested, Allowed: allowed}
}

// List fetches one page of tickets. Page bounds below 1 are rejected
// before dispatch; a page beyond the returned total is reported as out of
// range using the trusted server count.
func (s *TicketService) List(ctx context.Context, c query.Criteria) (*TicketPage, error) {
	if c.Page < 1 {
		return nil, &query.PageOutOfRangeError{Page: c.Page, TotalPages: 1}
	}
	items, total, err := s.source.ListTickets(ctx, c)
	if err != nil {
		return nil, &RemoteError{Op: "list tickets", Err: err}
	}
	win, err := query.WindowFor(c, total)
	if err != nil {
		return nil, err
	}
	return &TicketPage{Items: items, Window: win}, nil
}

// ListByRequester is the requester-scoped variant of List.
func (s *TicketService) ListByRequester(ctx context.Context, requesterID string, c query.Criteria) (*TicketPage, error) {
	if c.Page < 1 {
		return nil, &query.PageOutOfRangeError{Page: c.Page, TotalPages: 1}
	}
	items, total, err := s.source.ListTicketsByRequester(ctx, requesterID, c)
	if err != nil {
		return nil, &RemoteError{Op: "list tickets by requester", Err: err}
	}
	win, err := query.WindowFor(c, total)
	if err != nil {
		return nil, err
	}
	return &TicketPage{Items: items, Window: win}, nil
}

// Get fetches a single ticket by id.
func (s *TicketService) Get(ctx context.Context, id string) (*models.Ticket, error) {
	ticket, err := s.source.GetTicket(ctx, id)
	if err != nil {
		return nil, &RemoteError{Op: "get ticket", Err: err}
	}
	return ticket, nil
}

// Create validates the required descriptive fields and dispatches the
// creation request.
func (s *TicketService) Create(ctx context.Context, req *models.TicketCreateRequest) (*models.Ticket, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, localValidationError(err)
	}
	ticket, err := s.source.CreateTicket(ctx, req)
	if err != nil {
		return nil, &RemoteError{Op: "create ticket", Err: err}
	}
	s.logger.Infof("Created ticket %s for requester %s", ticket.ID, ticket.RequesterID)
	return ticket, nil
}

// Update applies a partial update to a ticket. When the request carries a
// status change it is validated against the transition graph, and
// entering RESOLVED or CLOSED requires a non-empty resolution summary in
// the same update. The update is rejected locally before any remote call
// when either rule fails.
func (s *TicketService) Update(ctx context.Context, current *models.Ticket, req *models.TicketUpdateRequest) (*models.Ticket, error) {
	if req.Status != nil {
		if err := s.checkStatusChange(current, *req.Status, resolutionOf(req, current)); err != nil {
			return nil, err
		}
	}
	if err := checkRequiredUpdates(req); err != nil {
		return nil, err
	}

	updated, err := s.source.UpdateTicket(ctx, current.ID, req)
	if err != nil {
		return nil, &RemoteError{Op: "update ticket", Err: err}
	}
	s.logger.Infof("Updated ticket %s", current.ID)
	return updated, nil
}

// UpdateStatus is the narrow status-change operation used by the status
// dialog. Same local rules as Update; on acceptance the source refreshes
// updated_at and persists the resolution.
func (s *TicketService) UpdateStatus(ctx context.Context, current *models.Ticket, requested models.TicketStatus, resolution string) (*models.Ticket, error) {
	if err := s.checkStatusChange(current, requested, resolution); err != nil {
		return nil, err
	}
	updated, err := s.source.UpdateTicketStatus(ctx, current.ID, requested, resolution)
	if err != nil {
		return nil, &RemoteError{Op: "update ticket status", Err: err}
	}
	s.logger.Infof("Ticket %s moved %s -> %s", current.ID, current.Status, requested)
	return updated, nil
}

// Delete removes a ticket. Terminal: there is no local soft-delete.
func (s *TicketService) Delete(ctx context.Context, id string) error {
	if err := s.source.DeleteTicket(ctx, id); err != nil {
		return &RemoteError{Op: "delete ticket", Err: err}
	}
	s.logger.Infof("Deleted ticket %s", id)
	return nil
}

func (s *TicketService) checkStatusChange(current *models.Ticket, requested models.TicketStatus, resolution string) error {
	if !requested.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown value " + string(requested)}
	}
	if err := s.ValidateTransition(current.Status, requested); err != nil {
		return err
	}
	if requested != current.Status && requested.RequiresResolution() && strings.TrimSpace(resolution) == "" {
		return ErrMissingResolution
	}
	return nil
}

// resolutionOf resolves the effective resolution summary for an update:
// the one supplied in the request, falling back to what the ticket
// already carries (a resolution is never auto-cleared).
func resolutionOf(req *models.TicketUpdateRequest, current *models.Ticket) string {
	if req.ResolutionSummary != nil {
		return *req.ResolutionSummary
	}
	return current.ResolutionSummary
}

// checkRequiredUpdates rejects blanking out a required descriptive field.
func checkRequiredUpdates(req *models.TicketUpdateRequest) error {
	fields := map[string]*string{
		"type_of_request": req.TypeOfRequest,
		"building":        req.Building,
		"room":            req.Room,
	}
	for name, value := range fields {
		if value != nil && strings.TrimSpace(*value) == "" {
			return &ValidationError{Field: name, Reason: "must not be empty"}
		}
	}
	return nil
}

func localValidationError(err error) error {
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) && len(invalid) > 0 {
		return &ValidationError{Field: invalid[0].Field(), Reason: "failed " + invalid[0].Tag()}
	}
	return &ValidationError{Field: "request", Reason: err.Error()}
}
