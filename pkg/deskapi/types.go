// Package deskapi is the HTTP client for the remote helpdesk service. It
// owns the wire shapes and normalizes them into the canonical internal
// models in one place, so the rest of the client never sees legacy field
// aliases.
package deskapi

import (
	"time"
)

// Config holds client connection settings.
type Config struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`

	// Tracing wraps the HTTP transport with otelhttp when enabled.
	Tracing bool `yaml:"tracing"`
}

// DefaultConfig returns settings for a local helpdesk service.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "http://localhost:8090",
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryDelay: 500 * time.Millisecond,
	}
}

// envelope is the service's standard response wrapper.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorResponse is the service's error body shape. Some deployments
// report through the envelope's message field instead of error.
type ErrorResponse struct {
	Error     string `json:"error"`
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// Reason returns the most specific error text the body carried.
func (e *ErrorResponse) Reason() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// wireTicket is the over-the-wire ticket shape, including the legacy
// aliases older service versions still emit. It never leaves this
// package un-normalized.
type wireTicket struct {
	ID            string    `json:"id"`
	TypeOfRequest string    `json:"type_of_request"`
	Title         string    `json:"title"`   // legacy alias for type_of_request
	Subject       string    `json:"subject"` // legacy alias for type_of_request
	Building      string    `json:"building"`
	Room          string    `json:"room"`
	RequesterID   string    `json:"requester_id"`
	Requester     string    `json:"requester"` // legacy alias for requester_id
	Status        string    `json:"status"`
	Priority      string    `json:"priority"`
	Resolution    string    `json:"resolution"` // legacy alias for resolution_summary
	ResolutionSum string    `json:"resolution_summary"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type wireTicketList struct {
	Items []wireTicket `json:"items"`
	Total int          `json:"total"`
}

type wireWorkflowStep struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Type string `json:"type"` // legacy alias for kind
}

type wireWorkflow struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Trigger     string             `json:"trigger"`
	Status      string             `json:"status"`
	Steps       []wireWorkflowStep `json:"steps"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type wireExecutionStep struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Message   string    `json:"message"`
}

type wireExecution struct {
	ID         string              `json:"id"`
	WorkflowID string              `json:"workflow_id"`
	Status     string              `json:"status"`
	StartedAt  time.Time           `json:"started_at"`
	DurationMS *int64              `json:"duration_ms"`
	Error      string              `json:"error"`
	Steps      []wireExecutionStep `json:"steps"`
}

type wireStatistics struct {
	Total           int `json:"total"`
	Active          int `json:"active"`
	Running         int `json:"running"`
	ExecutionsToday int `json:"executions_today"`
}

// statusUpdateRequest is the body of the status-change endpoint.
type statusUpdateRequest struct {
	Status            string `json:"status"`
	ResolutionSummary string `json:"resolution_summary,omitempty"`
}

type workflowStatusRequest struct {
	Status string `json:"status"`
}

// HealthResponse is the service health body.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
