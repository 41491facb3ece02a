package models

import "time"

// TicketStatus enumerates ticket lifecycle states in progression order.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// Valid reports whether s is one of the known ticket statuses.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// RequiresResolution reports whether a ticket in this status must carry a
// non-empty resolution summary.
func (s TicketStatus) RequiresResolution() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// TicketPriority is display classification only. It plays no part in the
// status lifecycle.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// Ticket is the canonical client-side shape of a support ticket. The
// service boundary normalizes legacy payload variants into this shape
// exactly once; nothing past that point branches on field aliases.
type Ticket struct {
	ID                string         `json:"id"`
	TypeOfRequest     string         `json:"type_of_request"`
	Building          string         `json:"building"`
	Room              string         `json:"room"`
	RequesterID       string         `json:"requester_id"`
	Status            TicketStatus   `json:"status"`
	Priority          TicketPriority `json:"priority"`
	ResolutionSummary string         `json:"resolution_summary,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// TicketCreateRequest carries the fields required to open a ticket.
type TicketCreateRequest struct {
	TypeOfRequest string         `json:"type_of_request" validate:"required"`
	Building      string         `json:"building" validate:"required"`
	Room          string         `json:"room" validate:"required"`
	RequesterID   string         `json:"requester_id" validate:"required"`
	Priority      TicketPriority `json:"priority"`
}

// TicketUpdateRequest is a partial update; nil fields are left untouched.
// A non-nil Status goes through transition validation before dispatch.
type TicketUpdateRequest struct {
	TypeOfRequest     *string         `json:"type_of_request"`
	Building          *string         `json:"building"`
	Room              *string         `json:"room"`
	Priority          *TicketPriority `json:"priority"`
	Status            *TicketStatus   `json:"status"`
	ResolutionSummary *string         `json:"resolution_summary"`
}

// WorkflowStatus is the workflow availability state. draft is the one-way
// initial state; toggling only ever moves between active and inactive.
type WorkflowStatus string

const (
	WorkflowStatusActive   WorkflowStatus = "active"
	WorkflowStatusInactive WorkflowStatus = "inactive"
	WorkflowStatusDraft    WorkflowStatus = "draft"
)

// WorkflowTrigger names the condition under which a workflow runs.
type WorkflowTrigger string

const (
	TriggerManual        WorkflowTrigger = "manual"
	TriggerTicketCreated WorkflowTrigger = "ticket_created"
	TriggerTicketUpdated WorkflowTrigger = "ticket_updated"
	TriggerSLABreach     WorkflowTrigger = "sla_breach"
	TriggerScheduled     WorkflowTrigger = "scheduled"
)

// StepKind classifies a workflow step.
type StepKind string

const (
	StepKindCondition    StepKind = "condition"
	StepKindAction       StepKind = "action"
	StepKindNotification StepKind = "notification"
)

// WorkflowStep is read-only in this layer; there is no step editor.
type WorkflowStep struct {
	Name string   `json:"name"`
	Kind StepKind `json:"kind"`
}

// Workflow is a named automation triggerable while active.
type Workflow struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Trigger     WorkflowTrigger `json:"trigger"`
	Status      WorkflowStatus  `json:"status"`
	Steps       []WorkflowStep  `json:"steps"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// WorkflowCreateRequest carries the fields required to create a workflow.
// New workflows start in draft.
type WorkflowCreateRequest struct {
	Name        string          `json:"name" validate:"required,min=3"`
	Description string          `json:"description" validate:"required"`
	Trigger     WorkflowTrigger `json:"trigger" validate:"required,oneof=manual ticket_created ticket_updated sla_breach scheduled"`
	Steps       []WorkflowStep  `json:"steps"`
}

// ExecutionStatus is the run state of a triggered workflow. running is the
// only non-terminal state.
type ExecutionStatus string

const (
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
	ExecutionCancelled ExecutionStatus = "cancelled"
)

// Terminal reports whether no further transition is permitted.
func (s ExecutionStatus) Terminal() bool {
	return s != ExecutionRunning
}

// ExecutionStep records one step outcome within a run.
type ExecutionStep struct {
	Name      string          `json:"name"`
	Status    ExecutionStatus `json:"status"`
	StartedAt time.Time       `json:"started_at"`
	Message   string          `json:"message,omitempty"`
}

// Execution is one run of a workflow. Duration is set if and only if the
// run is terminal; Error is set only when Status is failed. Once terminal
// the record is immutable.
type Execution struct {
	ID         string          `json:"id"`
	WorkflowID string          `json:"workflow_id"`
	Status     ExecutionStatus `json:"status"`
	StartedAt  time.Time       `json:"started_at"`
	Duration   *time.Duration  `json:"duration,omitempty"`
	Error      string          `json:"error,omitempty"`
	Steps      []ExecutionStep `json:"steps"`
}

// Statistics is the informational dashboard counter set. No invariant
// depends on it.
type Statistics struct {
	Total           int `json:"total"`
	Active          int `json:"active"`
	Running         int `json:"running"`
	ExecutionsToday int `json:"executions_today"`
}
