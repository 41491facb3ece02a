package services

import (
	"context"

	"deskview/internal/models"
	"deskview/internal/query"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// WorkflowSource is the remote workflow/execution boundary. Unlike
// tickets, workflow listing returns the full set; filtering and
// pagination happen client-side in the query engine.
type WorkflowSource interface {
	ListWorkflows(ctx context.Context) ([]models.Workflow, error)
	GetWorkflow(ctx context.Context, id string) (*models.Workflow, error)
	CreateWorkflow(ctx context.Context, req *models.WorkflowCreateRequest) (*models.Workflow, error)
	SetWorkflowStatus(ctx context.Context, id string, status models.WorkflowStatus) (*models.Workflow, error)
	ListExecutions(ctx context.Context, workflowID string) ([]models.Execution, error)
	GetExecution(ctx context.Context, id string) (*models.Execution, error)
	TriggerExecution(ctx context.Context, workflowID string) (*models.Execution, error)
	CancelExecution(ctx context.Context, id string) error
	GetStatistics(ctx context.Context) (*models.Statistics, error)
}

// WorkflowService mediates workflow and execution actions. Trigger and
// cancel eligibility are enforced locally before the collaborator is
// asked to do anything; completed/failed outcomes are only ever reported
// by the collaborator, never forced here.
type WorkflowService struct {
	source   WorkflowSource
	logger   *logrus.Logger
	validate *validator.Validate
}

// NewWorkflowService creates a workflow service over the given source.
func NewWorkflowService(source WorkflowSource, logger *logrus.Logger) *WorkflowService {
	if logger == nil {
		logger = logrus.New()
	}
	return &WorkflowService{
		source:   source,
		logger:   logger,
		validate: validator.New(),
	}
}

// ListAll fetches the full workflow set from the source.
func (s *WorkflowService) ListAll(ctx context.Context) ([]models.Workflow, error) {
	workflows, err := s.source.ListWorkflows(ctx)
	if err != nil {
		return nil, &RemoteError{Op: "list workflows", Err: err}
	}
	return workflows, nil
}

// List fetches the full set and projects one page through the query
// engine. Calling it twice against an unchanged source returns
// element-wise equal pages.
func (s *WorkflowService) List(ctx context.Context, c query.Criteria) (*query.WorkflowPage, error) {
	workflows, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return query.Workflows(c, workflows)
}

// Get fetches a single workflow by id.
func (s *WorkflowService) Get(ctx context.Context, id string) (*models.Workflow, error) {
	wf, err := s.source.GetWorkflow(ctx, id)
	if err != nil {
		return nil, &RemoteError{Op: "get workflow", Err: err}
	}
	return wf, nil
}

// Create validates and dispatches a workflow creation request.
func (s *WorkflowService) Create(ctx context.Context, req *models.WorkflowCreateRequest) (*models.Workflow, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, localValidationError(err)
	}
	wf, err := s.source.CreateWorkflow(ctx, req)
	if err != nil {
		return nil, &RemoteError{Op: "create workflow", Err: err}
	}
	s.logger.Infof("Created workflow %s (%s)", wf.ID, wf.Name)
	return wf, nil
}

// ToggleStatus flips a workflow between active and inactive. A draft
// workflow activates on its first toggle and can never return to draft.
func (s *WorkflowService) ToggleStatus(ctx context.Context, wf *models.Workflow) (*models.Workflow, error) {
	next := models.WorkflowStatusActive
	if wf.Status == models.WorkflowStatusActive {
		next = models.WorkflowStatusInactive
	}
	updated, err := s.source.SetWorkflowStatus(ctx, wf.ID, next)
	if err != nil {
		return nil, &RemoteError{Op: "set workflow status", Err: err}
	}
	s.logger.Infof("Workflow %s moved %s -> %s", wf.ID, wf.Status, next)
	return updated, nil
}

// Trigger starts an execution of the workflow. It fails locally with
// WorkflowNotActiveError unless the workflow is active; the returned
// execution is in the running state, set by the collaborator on trigger
// acceptance.
func (s *WorkflowService) Trigger(ctx context.Context, wf *models.Workflow) (*models.Execution, error) {
	if wf.Status != models.WorkflowStatusActive {
		return nil, &WorkflowNotActiveError{WorkflowID: wf.ID, Status: wf.Status}
	}
	exec, err := s.source.TriggerExecution(ctx, wf.ID)
	if err != nil {
		return nil, &RemoteError{Op: "trigger execution", Err: err}
	}
	s.logger.Infof("Triggered workflow %s, execution %s", wf.ID, exec.ID)
	return exec, nil
}

// Cancel requests cancellation of a running execution. cancelled is the
// only terminal state the client may request; anything already terminal
// is rejected locally.
func (s *WorkflowService) Cancel(ctx context.Context, exec *models.Execution) error {
	if exec.Status != models.ExecutionRunning {
		return &NotCancellableError{ExecutionID: exec.ID, Status: exec.Status}
	}
	if err := s.source.CancelExecution(ctx, exec.ID); err != nil {
		return &RemoteError{Op: "cancel execution", Err: err}
	}
	s.logger.Infof("Cancelled execution %s", exec.ID)
	return nil
}

// Executions lists runs of one workflow (all workflows when id is empty).
func (s *WorkflowService) Executions(ctx context.Context, workflowID string) ([]models.Execution, error) {
	execs, err := s.source.ListExecutions(ctx, workflowID)
	if err != nil {
		return nil, &RemoteError{Op: "list executions", Err: err}
	}
	return execs, nil
}

// Execution fetches a single run by id.
func (s *WorkflowService) Execution(ctx context.Context, id string) (*models.Execution, error) {
	exec, err := s.source.GetExecution(ctx, id)
	if err != nil {
		return nil, &RemoteError{Op: "get execution", Err: err}
	}
	return exec, nil
}

// Statistics fetches the informational dashboard counters.
func (s *WorkflowService) Statistics(ctx context.Context) (*models.Statistics, error) {
	stats, err := s.source.GetStatistics(ctx)
	if err != nil {
		return nil, &RemoteError{Op: "get statistics", Err: err}
	}
	return stats, nil
}
