package demo

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"deskview/internal/models"
)

var (
	seedRequestTypes = []string{
		"Projector not working", "Network outage", "Password reset",
		"Printer jam", "Software install", "Broken AC unit",
		"Door access badge", "Monitor replacement",
	}
	seedBuildings  = []string{"Main Hall", "Science Wing", "Library", "Annex B"}
	seedRequesters = []string{"r-1001", "r-1002", "r-1003", "r-1004", "r-1005"}
	seedPriorities = []models.TicketPriority{
		models.TicketPriorityLow, models.TicketPriorityMedium,
		models.TicketPriorityHigh, models.TicketPriorityCritical,
	}
	seedStatuses = []models.TicketStatus{
		models.TicketStatusOpen, models.TicketStatusOpen,
		models.TicketStatusInProgress, models.TicketStatusResolved,
		models.TicketStatusClosed,
	}
)

// Seed fills an empty store with a deterministic-looking demo dataset:
// count tickets plus a small set of workflows with run history.
func Seed(store *Store, count int) error {
	rng := rand.New(rand.NewSource(42))
	now := time.Now()

	for i := 0; i < count; i++ {
		status := seedStatuses[rng.Intn(len(seedStatuses))]
		created := now.Add(-time.Duration(rng.Intn(30*24)) * time.Hour)
		ticket := models.Ticket{
			ID:            uuid.New().String(),
			TypeOfRequest: seedRequestTypes[rng.Intn(len(seedRequestTypes))],
			Building:      seedBuildings[rng.Intn(len(seedBuildings))],
			Room:          fmt.Sprintf("%d%02d", 1+rng.Intn(4), 1+rng.Intn(30)),
			RequesterID:   seedRequesters[rng.Intn(len(seedRequesters))],
			Status:        status,
			Priority:      seedPriorities[rng.Intn(len(seedPriorities))],
			CreatedAt:     created,
			UpdatedAt:     created.Add(time.Duration(rng.Intn(48)) * time.Hour),
		}
		if status.RequiresResolution() {
			ticket.ResolutionSummary = "Replaced faulty hardware and verified with the requester."
		}
		if err := store.CreateTicket(&ticket); err != nil {
			return err
		}
	}

	workflows := []models.Workflow{
		{
			Name:        "Escalate stale tickets",
			Description: "Raise priority on tickets untouched for 48 hours.",
			Trigger:     models.TriggerScheduled,
			Status:      models.WorkflowStatusActive,
			Steps: []models.WorkflowStep{
				{Name: "find stale tickets", Kind: models.StepKindCondition},
				{Name: "bump priority", Kind: models.StepKindAction},
				{Name: "notify assignee", Kind: models.StepKindNotification},
			},
		},
		{
			Name:        "Welcome new ticket",
			Description: "Acknowledge every newly opened ticket.",
			Trigger:     models.TriggerTicketCreated,
			Status:      models.WorkflowStatusActive,
			Steps: []models.WorkflowStep{
				{Name: "send acknowledgement", Kind: models.StepKindNotification},
			},
		},
		{
			Name:        "SLA breach alerting",
			Description: "Page the on-call channel when an SLA target is missed.",
			Trigger:     models.TriggerSLABreach,
			Status:      models.WorkflowStatusInactive,
			Steps: []models.WorkflowStep{
				{Name: "check breach severity", Kind: models.StepKindCondition},
				{Name: "page on-call", Kind: models.StepKindNotification},
			},
		},
		{
			Name:        "Nightly report draft",
			Description: "Collect daily closure numbers for the morning report.",
			Trigger:     models.TriggerScheduled,
			Status:      models.WorkflowStatusDraft,
			Steps: []models.WorkflowStep{
				{Name: "aggregate closures", Kind: models.StepKindAction},
			},
		},
	}

	for i := range workflows {
		created := now.Add(-time.Duration(i+1) * 72 * time.Hour)
		workflows[i].ID = uuid.New().String()
		workflows[i].CreatedAt = created
		workflows[i].UpdatedAt = created
		if err := store.CreateWorkflow(&workflows[i]); err != nil {
			return err
		}

		if workflows[i].Status != models.WorkflowStatusActive {
			continue
		}
		for run := 0; run < 2+rng.Intn(3); run++ {
			started := now.Add(-time.Duration(rng.Intn(72)) * time.Hour)
			duration := time.Duration(500+rng.Intn(4500)) * time.Millisecond
			status := models.ExecutionCompleted
			errMsg := ""
			if rng.Intn(8) == 0 {
				status = models.ExecutionFailed
				errMsg = "notification channel unreachable"
			}
			steps := make([]models.ExecutionStep, 0, len(workflows[i].Steps))
			for _, step := range workflows[i].Steps {
				steps = append(steps, models.ExecutionStep{
					Name:      step.Name,
					Status:    status,
					StartedAt: started,
				})
			}
			execution := models.Execution{
				ID:         uuid.New().String(),
				WorkflowID: workflows[i].ID,
				Status:     status,
				StartedAt:  started,
				Duration:   &duration,
				Error:      errMsg,
				Steps:      steps,
			}
			if err := store.CreateExecution(&execution); err != nil {
				return err
			}
		}
	}

	return nil
}
