package deskapi

import (
	"strings"
	"time"

	"deskview/internal/models"
)

// Normalization happens exactly once, here, at ingestion. Older service
// versions shipped inconsistent field names (title/subject instead of
// type_of_request, lowercase statuses); the canonical shape the rest of
// the client works with never carries that variance.

func normalizeTicket(w wireTicket) models.Ticket {
	return models.Ticket{
		ID:                w.ID,
		TypeOfRequest:     firstNonEmpty(w.TypeOfRequest, w.Title, w.Subject),
		Building:          w.Building,
		Room:              w.Room,
		RequesterID:       firstNonEmpty(w.RequesterID, w.Requester),
		Status:            models.TicketStatus(strings.ToUpper(strings.TrimSpace(w.Status))),
		Priority:          models.TicketPriority(strings.ToUpper(strings.TrimSpace(w.Priority))),
		ResolutionSummary: firstNonEmpty(w.ResolutionSum, w.Resolution),
		CreatedAt:         w.CreatedAt,
		UpdatedAt:         w.UpdatedAt,
	}
}

func normalizeTickets(ws []wireTicket) []models.Ticket {
	out := make([]models.Ticket, 0, len(ws))
	for _, w := range ws {
		out = append(out, normalizeTicket(w))
	}
	return out
}

func normalizeWorkflow(w wireWorkflow) models.Workflow {
	steps := make([]models.WorkflowStep, 0, len(w.Steps))
	for _, s := range w.Steps {
		steps = append(steps, models.WorkflowStep{
			Name: s.Name,
			Kind: models.StepKind(strings.ToLower(firstNonEmpty(s.Kind, s.Type))),
		})
	}
	return models.Workflow{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Trigger:     models.WorkflowTrigger(strings.ToLower(strings.TrimSpace(w.Trigger))),
		Status:      models.WorkflowStatus(strings.ToLower(strings.TrimSpace(w.Status))),
		Steps:       steps,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func normalizeWorkflows(ws []wireWorkflow) []models.Workflow {
	out := make([]models.Workflow, 0, len(ws))
	for _, w := range ws {
		out = append(out, normalizeWorkflow(w))
	}
	return out
}

func normalizeExecution(w wireExecution) models.Execution {
	steps := make([]models.ExecutionStep, 0, len(w.Steps))
	for _, s := range w.Steps {
		steps = append(steps, models.ExecutionStep{
			Name:      s.Name,
			Status:    models.ExecutionStatus(strings.ToLower(s.Status)),
			StartedAt: s.StartedAt,
			Message:   s.Message,
		})
	}
	exec := models.Execution{
		ID:         w.ID,
		WorkflowID: w.WorkflowID,
		Status:     models.ExecutionStatus(strings.ToLower(strings.TrimSpace(w.Status))),
		StartedAt:  w.StartedAt,
		Error:      w.Error,
		Steps:      steps,
	}
	if w.DurationMS != nil {
		d := time.Duration(*w.DurationMS) * time.Millisecond
		exec.Duration = &d
	}
	return exec
}

func normalizeExecutions(ws []wireExecution) []models.Execution {
	out := make([]models.Execution, 0, len(ws))
	for _, w := range ws {
		out = append(out, normalizeExecution(w))
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
