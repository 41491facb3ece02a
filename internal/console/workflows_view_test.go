package console

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"deskview/internal/models"
	"deskview/internal/services"
)

type fakeWorkflowSource struct {
	workflows  []models.Workflow
	executions map[string]*models.Execution

	listCalls    int32
	triggerCalls int32
	cancelCalls  int32

	err error
}

func newWorkflowSource(workflows ...models.Workflow) *fakeWorkflowSource {
	return &fakeWorkflowSource{
		workflows:  workflows,
		executions: map[string]*models.Execution{},
	}
}

func (f *fakeWorkflowSource) ListWorkflows(_ context.Context) ([]models.Workflow, error) {
	atomic.AddInt32(&f.listCalls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.workflows, nil
}

func (f *fakeWorkflowSource) GetWorkflow(_ context.Context, id string) (*models.Workflow, error) {
	for i := range f.workflows {
		if f.workflows[i].ID == id {
			wf := f.workflows[i]
			return &wf, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeWorkflowSource) CreateWorkflow(_ context.Context, req *models.WorkflowCreateRequest) (*models.Workflow, error) {
	wf := models.Workflow{ID: "wf-new", Name: req.Name, Trigger: req.Trigger, Status: models.WorkflowStatusDraft}
	f.workflows = append(f.workflows, wf)
	return &wf, nil
}

func (f *fakeWorkflowSource) SetWorkflowStatus(_ context.Context, id string, status models.WorkflowStatus) (*models.Workflow, error) {
	for i := range f.workflows {
		if f.workflows[i].ID == id {
			f.workflows[i].Status = status
			wf := f.workflows[i]
			return &wf, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeWorkflowSource) ListExecutions(_ context.Context, workflowID string) ([]models.Execution, error) {
	var out []models.Execution
	for _, e := range f.executions {
		if workflowID == "" || e.WorkflowID == workflowID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeWorkflowSource) GetExecution(_ context.Context, id string) (*models.Execution, error) {
	e, ok := f.executions[id]
	if !ok {
		return nil, errors.New("not found")
	}
	out := *e
	return &out, nil
}

func (f *fakeWorkflowSource) TriggerExecution(_ context.Context, workflowID string) (*models.Execution, error) {
	atomic.AddInt32(&f.triggerCalls, 1)
	e := &models.Execution{
		ID:         "exec-new",
		WorkflowID: workflowID,
		Status:     models.ExecutionRunning,
		StartedAt:  time.Now(),
	}
	f.executions[e.ID] = e
	return e, nil
}

func (f *fakeWorkflowSource) CancelExecution(_ context.Context, id string) error {
	atomic.AddInt32(&f.cancelCalls, 1)
	if f.err != nil {
		return f.err
	}
	e, ok := f.executions[id]
	if !ok {
		return errors.New("not found")
	}
	e.Status = models.ExecutionCancelled
	d := time.Since(e.StartedAt)
	e.Duration = &d
	return nil
}

func (f *fakeWorkflowSource) GetStatistics(_ context.Context) (*models.Statistics, error) {
	return &models.Statistics{Total: len(f.workflows)}, nil
}

func sampleWorkflows() []models.Workflow {
	return []models.Workflow{
		{ID: "wf-1", Name: "Escalate stale tickets", Status: models.WorkflowStatusActive, Trigger: models.TriggerScheduled},
		{ID: "wf-2", Name: "Welcome new ticket", Status: models.WorkflowStatusActive, Trigger: models.TriggerTicketCreated},
		{ID: "wf-3", Name: "Cleanup", Status: models.WorkflowStatusInactive, Trigger: models.TriggerScheduled},
	}
}

func newWorkflowsViewFor(src *fakeWorkflowSource) *WorkflowsView {
	svc := services.NewWorkflowService(src, nil)
	return NewWorkflowsView(svc, StaticAuth(true), 2, nil)
}

func TestWorkflowsFilteringIsLocal(t *testing.T) {
	src := newWorkflowSource(sampleWorkflows()...)
	view := newWorkflowsViewFor(src)

	if err := view.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := view.SetStatusFilter("active"); err != nil {
		t.Fatal(err)
	}
	if err := view.SetSearch("welcome"); err != nil {
		t.Fatal(err)
	}

	if calls := atomic.LoadInt32(&src.listCalls); calls != 1 {
		t.Fatalf("filtering runs against the cached set, source saw %d list calls", calls)
	}
	page := view.Page()
	if len(page.Items) != 1 || page.Items[0].ID != "wf-2" {
		t.Fatalf("expected only wf-2, got %+v", page.Items)
	}
}

func TestWorkflowOpenIntentSelectsAndSetsTab(t *testing.T) {
	src := newWorkflowSource(sampleWorkflows()...)
	view := newWorkflowsViewFor(src)

	view.State().SetIntent(OpenIntent{EntityID: "wf-2", Tab: "executions"})
	if err := view.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if view.State().Selected() != "wf-2" {
		t.Fatalf("intent should select its target, got %q", view.State().Selected())
	}
	if view.State().ActiveTab() != "executions" {
		t.Fatalf("intent tab should survive consumption, got %q", view.State().ActiveTab())
	}

	// one-shot: a later refresh must not re-apply it
	if _, err := view.Open(context.Background(), "wf-1"); err != nil {
		t.Fatal(err)
	}
	if err := view.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if view.State().Selected() != "wf-1" {
		t.Fatalf("intent is one-shot, selection reverted to %q", view.State().Selected())
	}
}

func TestWorkflowsSetPageOutOfRangeLeavesView(t *testing.T) {
	src := newWorkflowSource(sampleWorkflows()...)
	view := newWorkflowsViewFor(src)
	if err := view.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	before := view.Page()
	if err := view.SetPage(9); err == nil {
		t.Fatal("page 9 of 2 must be rejected")
	}
	if view.Criteria().Page != 1 {
		t.Fatalf("rejected page change must not advance criteria, got page %d", view.Criteria().Page)
	}
	if view.Page() != before {
		t.Fatal("rejected page change must keep the projected page")
	}
}

func TestWorkflowsFilterBeforeLoadOnlyStoresCriteria(t *testing.T) {
	view := newWorkflowsViewFor(newWorkflowSource(sampleWorkflows()...))
	if err := view.SetStatusFilter("active"); err != nil {
		t.Fatal(err)
	}
	if view.Page() != nil {
		t.Fatal("no projection can exist before the first load")
	}
	if view.Criteria().Status != "active" {
		t.Fatal("criteria must still advance before the first load")
	}
}

func TestTriggerInactiveFailsLocally(t *testing.T) {
	src := newWorkflowSource(sampleWorkflows()...)
	view := newWorkflowsViewFor(src)
	if err := view.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	_, err := view.Trigger(context.Background(), "wf-3")
	var notActive *services.WorkflowNotActiveError
	if !errors.As(err, &notActive) {
		t.Fatalf("expected WorkflowNotActiveError, got %v", err)
	}
	if atomic.LoadInt32(&src.triggerCalls) != 0 {
		t.Fatal("no execution may be started for an inactive workflow")
	}
}

func TestTriggerPrependsToOpenedRunList(t *testing.T) {
	src := newWorkflowSource(sampleWorkflows()...)
	view := newWorkflowsViewFor(src)
	ctx := context.Background()
	if err := view.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := view.Open(ctx, "wf-1"); err != nil {
		t.Fatal(err)
	}

	exec, err := view.Trigger(ctx, "wf-1")
	if err != nil {
		t.Fatal(err)
	}
	runs := view.Executions()
	if len(runs) == 0 || runs[0].ID != exec.ID {
		t.Fatalf("new run should lead the cached run list, got %+v", runs)
	}
}

func TestCancelTwoPhase(t *testing.T) {
	src := newWorkflowSource(sampleWorkflows()...)
	view := newWorkflowsViewFor(src)
	ctx := context.Background()
	if err := view.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := view.Open(ctx, "wf-1"); err != nil {
		t.Fatal(err)
	}
	exec, err := view.Trigger(ctx, "wf-1")
	if err != nil {
		t.Fatal(err)
	}

	pending := view.RequestCancel(exec.ID)
	if atomic.LoadInt32(&src.cancelCalls) != 0 {
		t.Fatal("nothing may be dispatched before confirmation")
	}
	if err := pending.Confirm(ctx); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&src.cancelCalls) != 1 {
		t.Fatal("confirmation must dispatch exactly once")
	}

	// the cached run reflects what the collaborator recorded
	runs := view.Executions()
	if runs[0].Status != models.ExecutionCancelled {
		t.Fatalf("expected cancelled in cache, got %s", runs[0].Status)
	}
	if runs[0].Duration == nil {
		t.Fatal("terminal run must carry a duration")
	}
}

func TestCancelTerminalRejectedOnConfirm(t *testing.T) {
	src := newWorkflowSource(sampleWorkflows()...)
	src.executions["exec-done"] = &models.Execution{
		ID:         "exec-done",
		WorkflowID: "wf-1",
		Status:     models.ExecutionCompleted,
	}
	view := newWorkflowsViewFor(src)

	pending := view.RequestCancel("exec-done")
	err := pending.Confirm(context.Background())
	if !errors.Is(err, services.ErrNotCancellable) {
		t.Fatalf("expected ErrNotCancellable, got %v", err)
	}
	if !errors.Is(err, services.ErrAlreadyTerminal) {
		t.Fatal("completed runs also match ErrAlreadyTerminal")
	}
	if atomic.LoadInt32(&src.cancelCalls) != 0 {
		t.Fatal("terminal run cancel must be rejected locally")
	}
}

func TestToggleUpdatesCache(t *testing.T) {
	src := newWorkflowSource(sampleWorkflows()...)
	view := newWorkflowsViewFor(src)
	ctx := context.Background()
	if err := view.Load(ctx); err != nil {
		t.Fatal(err)
	}

	updated, err := view.ToggleStatus(ctx, "wf-1")
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != models.WorkflowStatusInactive {
		t.Fatalf("expected inactive, got %s", updated.Status)
	}
	// the page projection carries the confirmed copy
	for _, item := range view.Page().Items {
		if item.ID == "wf-1" && item.Status != models.WorkflowStatusInactive {
			t.Fatal("cached page must reflect the confirmed toggle")
		}
	}
}

func TestOpenExecutionPrefersCache(t *testing.T) {
	src := newWorkflowSource(sampleWorkflows()...)
	view := newWorkflowsViewFor(src)
	ctx := context.Background()
	if err := view.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := view.Open(ctx, "wf-1"); err != nil {
		t.Fatal(err)
	}
	exec, err := view.Trigger(ctx, "wf-1")
	if err != nil {
		t.Fatal(err)
	}

	opened, err := view.OpenExecution(ctx, exec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if opened.ID != exec.ID {
		t.Fatalf("expected %s, got %s", exec.ID, opened.ID)
	}
	if view.State().SelectedExecution() != exec.ID {
		t.Fatal("opened execution must become the execution selection")
	}
}

func TestOpenExecutionRemoteFallback(t *testing.T) {
	src := newWorkflowSource(sampleWorkflows()...)
	src.executions["exec-remote"] = &models.Execution{
		ID:         "exec-remote",
		WorkflowID: "wf-2",
		Status:     models.ExecutionRunning,
	}
	view := newWorkflowsViewFor(src)

	opened, err := view.OpenExecution(context.Background(), "exec-remote")
	if err != nil {
		t.Fatalf("cache miss should fall back to a direct fetch: %v", err)
	}
	if opened.ID != "exec-remote" {
		t.Fatalf("unexpected execution %s", opened.ID)
	}
}
