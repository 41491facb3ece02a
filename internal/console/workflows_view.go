package console

import (
	"context"

	"deskview/internal/models"
	"deskview/internal/query"
	"deskview/internal/services"

	"github.com/sirupsen/logrus"
)

// WorkflowsView is the controller behind the automation page. The source
// hands over the full workflow set; filtering, sorting and pagination
// run client-side through the query engine against the cached set.
type WorkflowsView struct {
	state  ViewState
	svc    *services.WorkflowService
	auth   AuthContext
	logger *logrus.Logger

	// guarded by state.mu
	criteria   query.Criteria
	workflows  []models.Workflow
	page       *query.WorkflowPage
	executions []models.Execution
}

// NewWorkflowsView creates the workflows controller.
func NewWorkflowsView(svc *services.WorkflowService, auth AuthContext, pageSize int, logger *logrus.Logger) *WorkflowsView {
	if logger == nil {
		logger = logrus.New()
	}
	if auth == nil {
		auth = StaticAuth(false)
	}
	return &WorkflowsView{
		svc:      svc,
		auth:     auth,
		logger:   logger,
		criteria: query.NewCriteria(pageSize),
	}
}

// State exposes the view state for selection and deep-link queries.
func (v *WorkflowsView) State() *ViewState { return &v.state }

// Criteria returns the active criteria snapshot.
func (v *WorkflowsView) Criteria() query.Criteria {
	v.state.mu.Lock()
	defer v.state.mu.Unlock()
	return v.criteria
}

// Page returns the current projected page, nil before the first load.
func (v *WorkflowsView) Page() *query.WorkflowPage {
	v.state.mu.Lock()
	defer v.state.mu.Unlock()
	return v.page
}

// Executions returns the cached runs of the opened workflow.
func (v *WorkflowsView) Executions() []models.Execution {
	v.state.mu.Lock()
	defer v.state.mu.Unlock()
	return v.executions
}

// Load fetches the full workflow set and projects the current page.
// Duplicate in-flight loads are suppressed; on failure the previously
// loaded set and page are retained.
func (v *WorkflowsView) Load(ctx context.Context) error {
	if !v.state.beginLoad() {
		v.logger.Debug("workflow load suppressed, another load in flight")
		return nil
	}
	defer v.state.endLoad()

	workflows, err := v.svc.ListAll(ctx)
	if err != nil {
		v.logger.Warnf("Workflow load failed: %v", err)
		return err
	}

	v.state.mu.Lock()
	defer v.state.mu.Unlock()
	page, err := query.Workflows(v.criteria, workflows)
	if err != nil {
		return err
	}
	v.workflows = workflows
	v.page = page
	if intent := v.state.intent; intent != nil {
		v.state.intent = nil
		v.state.selectedID = intent.EntityID
		v.state.activeTab = intent.Tab
	}
	return nil
}

// SetSearch, SetStatusFilter, SetTriggerFilter and SetSort re-project
// the cached set under the changed criteria (page resets to 1). SetPage
// moves within it and can fail with PageOutOfRange.
func (v *WorkflowsView) SetSearch(search string) error {
	return v.reproject(func(c query.Criteria) query.Criteria { return c.WithSearch(search) })
}

func (v *WorkflowsView) SetStatusFilter(status string) error {
	return v.reproject(func(c query.Criteria) query.Criteria { return c.WithStatus(status) })
}

func (v *WorkflowsView) SetTriggerFilter(trigger string) error {
	return v.reproject(func(c query.Criteria) query.Criteria { return c.WithTrigger(trigger) })
}

func (v *WorkflowsView) SetSort(sortBy string, order query.SortOrder) error {
	return v.reproject(func(c query.Criteria) query.Criteria { return c.WithSort(sortBy, order) })
}

func (v *WorkflowsView) SetPage(page int) error {
	return v.reproject(func(c query.Criteria) query.Criteria { return c.WithPage(page) })
}

// reproject applies a criteria change against the cached set. The
// criteria only advance when the projection succeeds, so a rejected page
// request leaves the view where it was.
func (v *WorkflowsView) reproject(apply func(query.Criteria) query.Criteria) error {
	v.state.mu.Lock()
	defer v.state.mu.Unlock()
	next := apply(v.criteria)
	if v.workflows == nil {
		v.criteria = next
		return nil
	}
	page, err := query.Workflows(next, v.workflows)
	if err != nil {
		return err
	}
	v.criteria = next
	v.page = page
	return nil
}

// Open selects a workflow and loads its runs. Cache first, then a direct
// fetch by id before declaring failure.
func (v *WorkflowsView) Open(ctx context.Context, id string) (*models.Workflow, error) {
	wf, err := v.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	execs, err := v.svc.Executions(ctx, wf.ID)
	if err != nil {
		return nil, err
	}
	v.state.mu.Lock()
	v.state.selectedID = wf.ID
	v.executions = execs
	v.state.mu.Unlock()
	return wf, nil
}

// OpenExecution selects one run of the opened workflow.
func (v *WorkflowsView) OpenExecution(ctx context.Context, id string) (*models.Execution, error) {
	v.state.mu.Lock()
	for i := range v.executions {
		if v.executions[i].ID == id {
			exec := v.executions[i]
			v.state.selectedExecutionID = id
			v.state.mu.Unlock()
			return &exec, nil
		}
	}
	v.state.mu.Unlock()

	exec, err := v.svc.Execution(ctx, id)
	if err != nil {
		return nil, err
	}
	v.state.selectExecution(exec.ID)
	return exec, nil
}

// Create submits a new workflow (it starts in draft).
func (v *WorkflowsView) Create(ctx context.Context, req *models.WorkflowCreateRequest) (*models.Workflow, error) {
	return v.svc.Create(ctx, req)
}

// ToggleStatus flips active/inactive and updates the cached copy on
// confirmed success.
func (v *WorkflowsView) ToggleStatus(ctx context.Context, id string) (*models.Workflow, error) {
	wf, err := v.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := v.svc.ToggleStatus(ctx, wf)
	if err != nil {
		return nil, err
	}
	v.replaceCached(updated)
	return updated, nil
}

// Trigger starts an execution of a workflow and prepends it to the run
// cache once the collaborator has accepted the trigger.
func (v *WorkflowsView) Trigger(ctx context.Context, id string) (*models.Execution, error) {
	wf, err := v.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	exec, err := v.svc.Trigger(ctx, wf)
	if err != nil {
		return nil, err
	}
	v.state.mu.Lock()
	if v.state.selectedID == wf.ID {
		v.executions = append([]models.Execution{*exec}, v.executions...)
	}
	v.state.mu.Unlock()
	return exec, nil
}

// RequestCancel starts the two-phase cancellation of a running
// execution. Eligibility is checked on confirm, against the freshest
// state this view has.
func (v *WorkflowsView) RequestCancel(id string) *PendingConfirmation {
	return &PendingConfirmation{
		Action:   "cancel_execution",
		EntityID: id,
		apply: func(ctx context.Context) error {
			exec, err := v.OpenExecution(ctx, id)
			if err != nil {
				return err
			}
			if err := v.svc.Cancel(ctx, exec); err != nil {
				return err
			}
			v.refreshExecution(ctx, id)
			return nil
		},
	}
}

// Statistics fetches the dashboard counters.
func (v *WorkflowsView) Statistics(ctx context.Context) (*models.Statistics, error) {
	return v.svc.Statistics(ctx)
}

// refreshExecution re-reads one run after a confirmed mutation so the
// cache reflects what the collaborator recorded (terminal status and
// duration). Best effort: a failed refresh leaves the stale entry.
func (v *WorkflowsView) refreshExecution(ctx context.Context, id string) {
	exec, err := v.svc.Execution(ctx, id)
	if err != nil {
		v.logger.Warnf("Failed to refresh execution %s: %v", id, err)
		return
	}
	v.state.mu.Lock()
	for i := range v.executions {
		if v.executions[i].ID == id {
			v.executions[i] = *exec
			break
		}
	}
	v.state.mu.Unlock()
}

func (v *WorkflowsView) lookup(ctx context.Context, id string) (*models.Workflow, error) {
	v.state.mu.Lock()
	for i := range v.workflows {
		if v.workflows[i].ID == id {
			wf := v.workflows[i]
			v.state.mu.Unlock()
			return &wf, nil
		}
	}
	v.state.mu.Unlock()
	return v.svc.Get(ctx, id)
}

func (v *WorkflowsView) replaceCached(updated *models.Workflow) {
	v.state.mu.Lock()
	defer v.state.mu.Unlock()
	for i := range v.workflows {
		if v.workflows[i].ID == updated.ID {
			v.workflows[i] = *updated
			break
		}
	}
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
