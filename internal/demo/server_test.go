package demo

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"deskview/internal/models"
	"deskview/internal/query"
	"deskview/internal/services"
	"deskview/pkg/deskapi"
)

// startDemo serves the demo API over httptest and returns a real client
// pointed at it, so the full wire path is exercised end to end.
func startDemo(t *testing.T) (*deskapi.Client, *Source) {
	t.Helper()
	store, err := OpenStore("file:" + t.Name() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatal(err)
	}
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	source := NewSource(store, logger)
	source.runDuration = 50 * time.Millisecond

	ts := httptest.NewServer(NewServer(source, logger).Handler())
	t.Cleanup(ts.Close)

	client := deskapi.NewClient(&deskapi.Config{
		BaseURL:    ts.URL,
		Timeout:    5 * time.Second,
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	}, logger)
	return client, source
}

func TestServerTicketLifecycleOverWire(t *testing.T) {
	client, _ := startDemo(t)
	ctx := context.Background()

	created, err := client.CreateTicket(ctx, &models.TicketCreateRequest{
		TypeOfRequest: "Broken AC unit",
		Building:      "Annex B",
		Room:          "301",
		RequesterID:   "r-1003",
		Priority:      models.TicketPriorityHigh,
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.Status != models.TicketStatusOpen {
		t.Fatalf("new tickets start OPEN, got %s", created.Status)
	}

	got, err := client.GetTicket(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.TypeOfRequest != "Broken AC unit" {
		t.Fatalf("round trip mangled the ticket: %+v", got)
	}

	moved, err := client.UpdateTicketStatus(ctx, created.ID, models.TicketStatusInProgress, "")
	if err != nil {
		t.Fatal(err)
	}
	if moved.Status != models.TicketStatusInProgress {
		t.Fatalf("expected IN_PROGRESS, got %s", moved.Status)
	}

	if err := client.DeleteTicket(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := client.GetTicket(ctx, created.ID); err == nil {
		t.Fatal("deleted ticket must be gone")
	}
}

func TestServerListDelegation(t *testing.T) {
	client, source := startDemo(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		req := &models.TicketCreateRequest{
			TypeOfRequest: "Password reset",
			Building:      "Main Hall",
			Room:          "1",
			RequesterID:   "r-1001",
		}
		if i%2 == 0 {
			req.RequesterID = "r-2000"
		}
		if _, err := source.CreateTicket(ctx, req); err != nil {
			t.Fatal(err)
		}
	}

	items, total, err := client.ListTickets(ctx, query.NewCriteria(5).WithPage(3))
	if err != nil {
		t.Fatal(err)
	}
	if total != 12 {
		t.Fatalf("expected server total 12, got %d", total)
	}
	if len(items) != 2 {
		t.Fatalf("page 3 of 12 by 5 should hold 2, got %d", len(items))
	}

	_, total, err = client.ListTicketsByRequester(ctx, "r-2000", query.NewCriteria(10))
	if err != nil {
		t.Fatal(err)
	}
	if total != 6 {
		t.Fatalf("requester scope: expected 6, got %d", total)
	}
}

func TestServerWorkflowTriggerAndCancel(t *testing.T) {
	client, source := startDemo(t)
	ctx := context.Background()

	wf, err := source.CreateWorkflow(ctx, &models.WorkflowCreateRequest{
		Name:        "Escalation chain",
		Description: "escalates tickets",
		Trigger:     models.TriggerManual,
		Steps:       []models.WorkflowStep{{Name: "notify", Kind: models.StepKindNotification}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.SetWorkflowStatus(ctx, wf.ID, models.WorkflowStatusActive); err != nil {
		t.Fatal(err)
	}

	exec, err := client.TriggerExecution(ctx, wf.ID)
	if err != nil {
		t.Fatal(err)
	}
	if exec.Status != models.ExecutionRunning {
		t.Fatalf("fresh execution must be running, got %s", exec.Status)
	}

	if err := client.CancelExecution(ctx, exec.ID); err != nil {
		// the simulated run may have settled already; that's the only
		// acceptable failure here
		after, getErr := client.GetExecution(ctx, exec.ID)
		if getErr != nil || !after.Status.Terminal() {
			t.Fatalf("cancel failed: %v", err)
		}
		return
	}

	after, err := client.GetExecution(ctx, exec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if after.Status != models.ExecutionCancelled {
		t.Fatalf("expected cancelled, got %s", after.Status)
	}
	if after.Duration == nil {
		t.Fatal("terminal execution must carry a duration")
	}
}

// TestSourceSatisfiesServiceContracts pins the demo source to the same
// boundaries the remote client satisfies.
func TestSourceSatisfiesServiceContracts(t *testing.T) {
	var _ services.TicketSource = (*Source)(nil)
	var _ services.WorkflowSource = (*Source)(nil)
	var _ services.TicketSource = (*deskapi.Client)(nil)
	var _ services.WorkflowSource = (*deskapi.Client)(nil)
}
