package demo

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"deskview/internal/models"
	"deskview/internal/query"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore("file:" + t.Name() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}

func addTicket(t *testing.T, store *Store, mutate func(*models.Ticket)) models.Ticket {
	t.Helper()
	now := time.Now()
	ticket := models.Ticket{
		ID:            uuid.New().String(),
		TypeOfRequest: "Printer jam",
		Building:      "Library",
		Room:          "12",
		RequesterID:   "r-1001",
		Status:        models.TicketStatusOpen,
		Priority:      models.TicketPriorityMedium,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if mutate != nil {
		mutate(&ticket)
	}
	if err := store.CreateTicket(&ticket); err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return ticket
}

func TestStoreListTicketsFilters(t *testing.T) {
	store := newTestStore(t)
	addTicket(t, store, nil)
	addTicket(t, store, func(ticket *models.Ticket) {
		ticket.TypeOfRequest = "Network outage"
		ticket.Status = models.TicketStatusInProgress
		ticket.Priority = models.TicketPriorityHigh
	})
	addTicket(t, store, func(ticket *models.Ticket) {
		ticket.RequesterID = "r-2000"
	})

	tickets, total, err := store.ListTickets(query.NewCriteria(10).WithSearch("network"), "")
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || tickets[0].TypeOfRequest != "Network outage" {
		t.Fatalf("search filter failed: total=%d items=%+v", total, tickets)
	}

	_, total, err = store.ListTickets(query.NewCriteria(10).WithStatus("OPEN"), "")
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 {
		t.Fatalf("status filter: expected 2, got %d", total)
	}

	_, total, err = store.ListTickets(query.NewCriteria(10), "r-2000")
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Fatalf("requester scope: expected 1, got %d", total)
	}
}

func TestStoreListTicketsPaginates(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		offset := time.Duration(i) * time.Hour
		addTicket(t, store, func(ticket *models.Ticket) {
			ticket.CreatedAt = base.Add(offset)
		})
	}

	c := query.NewCriteria(3).WithSort("created_at", query.SortAsc).WithPage(3)
	tickets, total, err := store.ListTickets(c, "")
	if err != nil {
		t.Fatal(err)
	}
	if total != 7 {
		t.Fatalf("expected total 7, got %d", total)
	}
	if len(tickets) != 1 {
		t.Fatalf("last page should hold 1 ticket, got %d", len(tickets))
	}
	if !tickets[0].CreatedAt.Equal(base.Add(6 * time.Hour)) {
		t.Fatalf("wrong item on last page: %v", tickets[0].CreatedAt)
	}
}

func TestStoreDeleteTicketNotFound(t *testing.T) {
	store := newTestStore(t)
	if err := store.DeleteTicket("missing"); err == nil {
		t.Fatal("deleting an unknown id must fail")
	}
}

func TestStoreWorkflowStepsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()
	workflow := models.Workflow{
		ID:      uuid.New().String(),
		Name:    "Escalate stale tickets",
		Trigger: models.TriggerScheduled,
		Status:  models.WorkflowStatusActive,
		Steps: []models.WorkflowStep{
			{Name: "find stale tickets", Kind: models.StepKindCondition},
			{Name: "bump priority", Kind: models.StepKindAction},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.CreateWorkflow(&workflow); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.GetWorkflow(workflow.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Steps) != 2 || loaded.Steps[1].Kind != models.StepKindAction {
		t.Fatalf("steps did not survive the round trip: %+v", loaded.Steps)
	}
}

func TestFinishExecutionIsConditional(t *testing.T) {
	store := newTestStore(t)
	execution := models.Execution{
		ID:         uuid.New().String(),
		WorkflowID: "wf-1",
		Status:     models.ExecutionRunning,
		StartedAt:  time.Now(),
	}
	if err := store.CreateExecution(&execution); err != nil {
		t.Fatal(err)
	}

	applied, err := store.FinishExecution(execution.ID, models.ExecutionCancelled, "", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if !applied {
		t.Fatal("first finish of a running execution must apply")
	}

	// a concurrent finisher arriving late must not overwrite the record
	applied, err = store.FinishExecution(execution.ID, models.ExecutionCompleted, "", 2*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if applied {
		t.Fatal("a terminal execution must be immutable")
	}

	loaded, err := store.GetExecution(execution.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Status != models.ExecutionCancelled {
		t.Fatalf("expected cancelled, got %s", loaded.Status)
	}
	if loaded.Duration == nil || *loaded.Duration != time.Second {
		t.Fatalf("duration not recorded: %v", loaded.Duration)
	}
}

func TestStoreStatistics(t *testing.T) {
	store := newTestStore(t)
	if err := Seed(store, 5); err != nil {
		t.Fatal(err)
	}
	stats, err := store.Statistics()
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total == 0 || stats.Active == 0 {
		t.Fatalf("seeded store should report workflows, got %+v", stats)
	}
}
