package demo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"deskview/internal/models"
	"deskview/internal/query"
)

// ErrNotFound is returned for lookups of unknown identifiers.
var ErrNotFound = errors.New("demo: record not found")

// Source is the injectable offline data source. It satisfies the same
// source contracts the remote client does, so the console can swap it
// in without noticing. Triggered executions run for a few seconds and
// then settle into a terminal state on their own.
type Source struct {
	store  *Store
	logger *logrus.Logger

	// runDuration bounds the simulated execution time. Tests shrink it.
	runDuration time.Duration
}

func NewSource(store *Store, logger *logrus.Logger) *Source {
	if logger == nil {
		logger = logrus.New()
	}
	return &Source{
		store:       store,
		logger:      logger,
		runDuration: 5 * time.Second,
	}
}

func (s *Source) ListTickets(_ context.Context, c query.Criteria) ([]models.Ticket, int, error) {
	return s.store.ListTickets(c, "")
}

func (s *Source) ListTicketsByRequester(_ context.Context, requesterID string, c query.Criteria) ([]models.Ticket, int, error) {
	return s.store.ListTickets(c, requesterID)
}

func (s *Source) GetTicket(_ context.Context, id string) (*models.Ticket, error) {
	ticket, err := s.store.GetTicket(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return ticket, err
}

func (s *Source) CreateTicket(_ context.Context, req *models.TicketCreateRequest) (*models.Ticket, error) {
	now := time.Now()
	priority := req.Priority
	if priority == "" {
		priority = models.TicketPriorityMedium
	}
	ticket := models.Ticket{
		ID:            uuid.New().String(),
		TypeOfRequest: req.TypeOfRequest,
		Building:      req.Building,
		Room:          req.Room,
		RequesterID:   req.RequesterID,
		Status:        models.TicketStatusOpen,
		Priority:      priority,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateTicket(&ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (s *Source) UpdateTicket(ctx context.Context, id string, req *models.TicketUpdateRequest) (*models.Ticket, error) {
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.TypeOfRequest != nil {
		ticket.TypeOfRequest = *req.TypeOfRequest
	}
	if req.Building != nil {
		ticket.Building = *req.Building
	}
	if req.Room != nil {
		ticket.Room = *req.Room
	}
	if req.Priority != nil {
		ticket.Priority = *req.Priority
	}
	if req.Status != nil {
		ticket.Status = *req.Status
	}
	if req.ResolutionSummary != nil {
		ticket.ResolutionSummary = *req.ResolutionSummary
	}
	ticket.UpdatedAt = time.Now()
	if err := s.store.SaveTicket(ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *Source) UpdateTicketStatus(ctx context.Context, id string, status models.TicketStatus, resolution string) (*models.Ticket, error) {
	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	ticket.Status = status
	if resolution != "" {
		ticket.ResolutionSummary = resolution
	}
	ticket.UpdatedAt = time.Now()
	if err := s.store.SaveTicket(ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *Source) DeleteTicket(_ context.Context, id string) error {
	err := s.store.DeleteTicket(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *Source) ListWorkflows(_ context.Context) ([]models.Workflow, error) {
	return s.store.ListWorkflows()
}

func (s *Source) GetWorkflow(_ context.Context, id string) (*models.Workflow, error) {
	workflow, err := s.store.GetWorkflow(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return workflow, err
}

func (s *Source) CreateWorkflow(_ context.Context, req *models.WorkflowCreateRequest) (*models.Workflow, error) {
	now := time.Now()
	workflow := models.Workflow{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Trigger:     req.Trigger,
		Status:      models.WorkflowStatusDraft,
		Steps:       req.Steps,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateWorkflow(&workflow); err != nil {
		return nil, err
	}
	return &workflow, nil
}

func (s *Source) SetWorkflowStatus(ctx context.Context, id string, status models.WorkflowStatus) (*models.Workflow, error) {
	workflow, err := s.GetWorkflow(ctx, id)
	if err != nil {
		return nil, err
	}
	workflow.Status = status
	workflow.UpdatedAt = time.Now()
	if err := s.store.SaveWorkflow(workflow); err != nil {
		return nil, err
	}
	return workflow, nil
}

func (s *Source) ListExecutions(_ context.Context, workflowID string) ([]models.Execution, error) {
	return s.store.ListExecutions(workflowID)
}

func (s *Source) GetExecution(_ context.Context, id string) (*models.Execution, error) {
	execution, err := s.store.GetExecution(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return execution, err
}

func (s *Source) TriggerExecution(ctx context.Context, workflowID string) (*models.Execution, error) {
	workflow, err := s.GetWorkflow(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	steps := make([]models.ExecutionStep, 0, len(workflow.Steps))
	now := time.Now()
	for _, step := range workflow.Steps {
		steps = append(steps, models.ExecutionStep{
			Name:      step.Name,
			Status:    models.ExecutionRunning,
			StartedAt: now,
		})
	}

	execution := models.Execution{
		ID:         uuid.New().String(),
		WorkflowID: workflowID,
		Status:     models.ExecutionRunning,
		StartedAt:  now,
		Steps:      steps,
	}
	if err := s.store.CreateExecution(&execution); err != nil {
		return nil, err
	}

	go s.settle(execution.ID, now)

	return &execution, nil
}

// settle moves a running execution to a terminal state after a
// pseudo-random delay, unless someone cancelled it first.
func (s *Source) settle(id string, startedAt time.Time) {
	delay := time.Duration(rand.Int63n(int64(s.runDuration))) + s.runDuration/10
	time.Sleep(delay)

	status := models.ExecutionCompleted
	errMsg := ""
	if rand.Intn(10) == 0 {
		status = models.ExecutionFailed
		errMsg = "step timed out"
	}

	applied, err := s.store.FinishExecution(id, status, errMsg, time.Since(startedAt))
	if err != nil {
		s.logger.WithError(err).WithField("execution_id", id).Warn("failed to settle demo execution")
		return
	}
	if applied {
		s.logger.WithFields(logrus.Fields{
			"execution_id": id,
			"status":       status,
		}).Debug("demo execution settled")
	}
}

func (s *Source) CancelExecution(_ context.Context, id string) error {
	execution, err := s.store.GetExecution(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	applied, err := s.store.FinishExecution(id, models.ExecutionCancelled, "", time.Since(execution.StartedAt))
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("execution %s is not running", id)
	}
	return nil
}

func (s *Source) GetStatistics(_ context.Context) (*models.Statistics, error) {
	return s.store.Statistics()
}
