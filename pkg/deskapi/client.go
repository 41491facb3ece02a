package deskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"deskview/internal/models"
	"deskview/internal/query"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client talks to the remote helpdesk service. It satisfies the ticket
// and workflow source interfaces the services layer depends on.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
	config     *Config
}

// NewClient creates a helpdesk API client.
func NewClient(config *Config, logger *logrus.Logger) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}

	var transport http.RoundTripper = http.DefaultTransport
	if config.Tracing {
		transport = otelhttp.NewTransport(transport)
	}

	return &Client{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
		logger: logger,
		config: config,
	}
}

func (c *Client) createRequest(ctx context.Context, method, endpoint string, body interface{}) (*http.Request, error) {
	url := fmt.Sprintf("%s%s", c.baseURL, endpoint)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	req.Header.Set("User-Agent", "Deskview-Client/1.0")

	return req, nil
}

func (c *Client) doRequest(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	c.logger.Debugf("Helpdesk API request: %s %s", req.Method, req.URL.String())
	c.logger.Debugf("Helpdesk API response: %d %s", resp.StatusCode, string(body))

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Reason() != "" {
			if errResp.ErrorCode != "" {
				return fmt.Errorf("API error [%d]: %s (code: %s)", resp.StatusCode, errResp.Reason(), errResp.ErrorCode)
			}
			return fmt.Errorf("API error [%d]: %s", resp.StatusCode, errResp.Reason())
		}
		return fmt.Errorf("API error [%d]: %s", resp.StatusCode, string(body))
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

func (c *Client) doRequestWithRetry(ctx context.Context, method, endpoint string, body interface{}, result interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.config.RetryDelay * time.Duration(attempt)):
			}
			c.logger.Warnf("Helpdesk API retry attempt %d/%d", attempt, c.config.MaxRetries)
		}

		req, err := c.createRequest(ctx, method, endpoint, body)
		if err != nil {
			lastErr = err
			continue
		}

		if err := c.doRequest(req, result); err != nil {
			lastErr = err
			continue
		}

		return nil
	}

	return lastErr
}

// mutations are dispatched exactly once; only reads are retried.
func (c *Client) doMutation(ctx context.Context, method, endpoint string, body interface{}, result interface{}) error {
	req, err := c.createRequest(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	return c.doRequest(req, result)
}

func criteriaQuery(c query.Criteria) url.Values {
	values := url.Values{}
	if c.Search != "" {
		values.Set("search", c.Search)
	}
	if c.Status != "" {
		values.Set("status", c.Status)
	}
	if c.Priority != "" {
		values.Set("priority", c.Priority)
	}
	if !c.DateFrom.IsZero() {
		values.Set("created_from", c.DateFrom.Format(time.RFC3339))
	}
	if !c.DateTo.IsZero() {
		values.Set("created_to", c.DateTo.Format(time.RFC3339))
	}
	if c.SortBy != "" {
		values.Set("sort_by", c.SortBy)
		values.Set("sort_order", string(c.SortOrder))
	}
	values.Set("limit", strconv.Itoa(c.PageSize))
	values.Set("offset", strconv.Itoa(c.Offset()))
	return values
}

// ListTickets fetches one page of tickets; the service does the
// filtering and pagination and its total is authoritative.
func (c *Client) ListTickets(ctx context.Context, criteria query.Criteria) ([]models.Ticket, int, error) {
	var response struct {
		envelope
		Data wireTicketList `json:"data"`
	}
	endpoint := "/api/v1/tickets?" + criteriaQuery(criteria).Encode()
	if err := c.doRequestWithRetry(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, 0, fmt.Errorf("list tickets: %w", err)
	}
	if !response.Success {
		return nil, 0, fmt.Errorf("list tickets failed: %s", response.Message)
	}
	return normalizeTickets(response.Data.Items), response.Data.Total, nil
}

// ListTicketsByRequester is the requester-scoped listing.
func (c *Client) ListTicketsByRequester(ctx context.Context, requesterID string, criteria query.Criteria) ([]models.Ticket, int, error) {
	if requesterID == "" {
		return nil, 0, fmt.Errorf("requester ID is required")
	}
	var response struct {
		envelope
		Data wireTicketList `json:"data"`
	}
	endpoint := fmt.Sprintf("/api/v1/requesters/%s/tickets?%s", url.PathEscape(requesterID), criteriaQuery(criteria).Encode())
	if err := c.doRequestWithRetry(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, 0, fmt.Errorf("list tickets by requester: %w", err)
	}
	if !response.Success {
		return nil, 0, fmt.Errorf("list tickets by requester failed: %s", response.Message)
	}
	return normalizeTickets(response.Data.Items), response.Data.Total, nil
}

// GetTicket fetches one ticket by id.
func (c *Client) GetTicket(ctx context.Context, id string) (*models.Ticket, error) {
	if id == "" {
		return nil, fmt.Errorf("ticket ID is required")
	}
	var response struct {
		envelope
		Data wireTicket `json:"data"`
	}
	endpoint := "/api/v1/tickets/" + url.PathEscape(id)
	if err := c.doRequestWithRetry(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	if !response.Success {
		return nil, fmt.Errorf("get ticket failed: %s", response.Message)
	}
	ticket := normalizeTicket(response.Data)
	return &ticket, nil
}

// CreateTicket opens a new ticket.
func (c *Client) CreateTicket(ctx context.Context, req *models.TicketCreateRequest) (*models.Ticket, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	var response struct {
		envelope
		Data wireTicket `json:"data"`
	}
	if err := c.doMutation(ctx, http.MethodPost, "/api/v1/tickets", req, &response); err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}
	if !response.Success {
		return nil, fmt.Errorf("create ticket failed: %s", response.Message)
	}
	ticket := normalizeTicket(response.Data)
	return &ticket, nil
}

// UpdateTicket applies a partial field update.
func (c *Client) UpdateTicket(ctx context.Context, id string, req *models.TicketUpdateRequest) (*models.Ticket, error) {
	if id == "" {
		return nil, fmt.Errorf("ticket ID is required")
	}
	var response struct {
		envelope
		Data wireTicket `json:"data"`
	}
	endpoint := "/api/v1/tickets/" + url.PathEscape(id)
	if err := c.doMutation(ctx, http.MethodPatch, endpoint, req, &response); err != nil {
		return nil, fmt.Errorf("update ticket: %w", err)
	}
	if !response.Success {
		return nil, fmt.Errorf("update ticket failed: %s", response.Message)
	}
	ticket := normalizeTicket(response.Data)
	return &ticket, nil
}

// UpdateTicketStatus requests a status transition.
func (c *Client) UpdateTicketStatus(ctx context.Context, id string, status models.TicketStatus, resolution string) (*models.Ticket, error) {
	if id == "" {
		return nil, fmt.Errorf("ticket ID is required")
	}
	var response struct {
		envelope
		Data wireTicket `json:"data"`
	}
	endpoint := "/api/v1/tickets/" + url.PathEscape(id) + "/status"
	body := statusUpdateRequest{Status: string(status), ResolutionSummary: resolution}
	if err := c.doMutation(ctx, http.MethodPatch, endpoint, body, &response); err != nil {
		return nil, fmt.Errorf("update ticket status: %w", err)
	}
	if !response.Success {
		return nil, fmt.Errorf("update ticket status failed: %s", response.Message)
	}
	ticket := normalizeTicket(response.Data)
	return &ticket, nil
}

// DeleteTicket removes a ticket permanently.
func (c *Client) DeleteTicket(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("ticket ID is required")
	}
	var response envelope
	endpoint := "/api/v1/tickets/" + url.PathEscape(id)
	if err := c.doMutation(ctx, http.MethodDelete, endpoint, nil, &response); err != nil {
		return fmt.Errorf("delete ticket: %w", err)
	}
	if !response.Success {
		return fmt.Errorf("delete ticket failed: %s", response.Message)
	}
	return nil
}

// ListWorkflows fetches the full workflow set.
func (c *Client) ListWorkflows(ctx context.Context) ([]models.Workflow, error) {
	var response struct {
		envelope
		Data []wireWorkflow `json:"data"`
	}
	if err := c.doRequestWithRetry(ctx, http.MethodGet, "/api/v1/workflows", nil, &response); err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	if !response.Success {
		return nil, fmt.Errorf("list workflows failed: %s", response.Message)
	}
	return normalizeWorkflows(response.Data), nil
}

// GetWorkflow fetches one workflow by id.
func (c *Client) GetWorkflow(ctx context.Context, id string) (*models.Workflow, error) {
	if id == "" {
		return nil, fmt.Errorf("workflow ID is required")
	}
	var response struct {
		envelope
		Data wireWorkflow `json:"data"`
	}
	endpoint := "/api/v1/workflows/" + url.PathEscape(id)
	if err := c.doRequestWithRetry(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, fmt.Errorf("get workflow: %w", err)
	}
	if !response.Success {
		return nil, fmt.Errorf("get workflow failed: %s", response.Message)
	}
	wf := normalizeWorkflow(response.Data)
	return &wf, nil
}

// CreateWorkflow creates a workflow in draft state.
func (c *Client) CreateWorkflow(ctx context.Context, req *models.WorkflowCreateRequest) (*models.Workflow, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	var response struct {
		envelope
		Data wireWorkflow `json:"data"`
	}
	if err := c.doMutation(ctx, http.MethodPost, "/api/v1/workflows", req, &response); err != nil {
		return nil, fmt.Errorf("create workflow: %w", err)
	}
	if !response.Success {
		return nil, fmt.Errorf("create workflow failed: %s", response.Message)
	}
	wf := normalizeWorkflow(response.Data)
	return &wf, nil
}

// SetWorkflowStatus sets the availability state.
func (c *Client) SetWorkflowStatus(ctx context.Context, id string, status models.WorkflowStatus) (*models.Workflow, error) {
	if id == "" {
		return nil, fmt.Errorf("workflow ID is required")
	}
	var response struct {
		envelope
		Data wireWorkflow `json:"data"`
	}
	endpoint := "/api/v1/workflows/" + url.PathEscape(id) + "/status"
	if err := c.doMutation(ctx, http.MethodPatch, endpoint, workflowStatusRequest{Status: string(status)}, &response); err != nil {
		return nil, fmt.Errorf("set workflow status: %w", err)
	}
	if !response.Success {
		return nil, fmt.Errorf("set workflow status failed: %s", response.Message)
	}
	wf := normalizeWorkflow(response.Data)
	return &wf, nil
}

// ListExecutions lists runs, optionally scoped to one workflow.
func (c *Client) ListExecutions(ctx context.Context, workflowID string) ([]models.Execution, error) {
	var response struct {
		envelope
		Data []wireExecution `json:"data"`
	}
	endpoint := "/api/v1/executions"
	if workflowID != "" {
		endpoint += "?workflow_id=" + url.QueryEscape(workflowID)
	}
	if err := c.doRequestWithRetry(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	if !response.Success {
		return nil, fmt.Errorf("list executions failed: %s", response.Message)
	}
	return normalizeExecutions(response.Data), nil
}

// GetExecution fetches one run by id.
func (c *Client) GetExecution(ctx context.Context, id string) (*models.Execution, error) {
	if id == "" {
		return nil, fmt.Errorf("execution ID is required")
	}
	var response struct {
		envelope
		Data wireExecution `json:"data"`
	}
	endpoint := "/api/v1/executions/" + url.PathEscape(id)
	if err := c.doRequestWithRetry(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, fmt.Errorf("get execution: %w", err)
	}
	if !response.Success {
		return nil, fmt.Errorf("get execution failed: %s", response.Message)
	}
	exec := normalizeExecution(response.Data)
	return &exec, nil
}

// TriggerExecution asks the service to start a run. The returned
// execution is in the running state on acceptance.
func (c *Client) TriggerExecution(ctx context.Context, workflowID string) (*models.Execution, error) {
	if workflowID == "" {
		return nil, fmt.Errorf("workflow ID is required")
	}
	var response struct {
		envelope
		Data wireExecution `json:"data"`
	}
	endpoint := "/api/v1/workflows/" + url.PathEscape(workflowID) + "/executions"
	if err := c.doMutation(ctx, http.MethodPost, endpoint, nil, &response); err != nil {
		return nil, fmt.Errorf("trigger execution: %w", err)
	}
	if !response.Success {
		return nil, fmt.Errorf("trigger execution failed: %s", response.Message)
	}
	exec := normalizeExecution(response.Data)
	return &exec, nil
}

// CancelExecution requests cancellation of a running execution.
func (c *Client) CancelExecution(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("execution ID is required")
	}
	var response envelope
	endpoint := "/api/v1/executions/" + url.PathEscape(id) + "/cancel"
	if err := c.doMutation(ctx, http.MethodPost, endpoint, nil, &response); err != nil {
		return fmt.Errorf("cancel execution: %w", err)
	}
	if !response.Success {
		return fmt.Errorf("cancel execution failed: %s", response.Message)
	}
	return nil
}

// GetStatistics fetches the dashboard counters.
func (c *Client) GetStatistics(ctx context.Context) (*models.Statistics, error) {
	var response struct {
		envelope
		Data wireStatistics `json:"data"`
	}
	if err := c.doRequestWithRetry(ctx, http.MethodGet, "/api/v1/statistics", nil, &response); err != nil {
		return nil, fmt.Errorf("get statistics: %w", err)
	}
	if !response.Success {
		return nil, fmt.Errorf("get statistics failed: %s", response.Message)
	}
	return &models.Statistics{
		Total:           response.Data.Total,
		Active:          response.Data.Active,
		Running:         response.Data.Running,
		ExecutionsToday: response.Data.ExecutionsToday,
	}, nil
}

// HealthCheck probes the service.
func (c *Client) HealthCheck(ctx context.Context) error {
	var response HealthResponse
	if err := c.doRequestWithRetry(ctx, http.MethodGet, "/api/v1/health", nil, &response); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if response.Status != "healthy" && response.Status != "ok" {
		return fmt.Errorf("service unhealthy: %s", response.Status)
	}
	return nil
}

// GetStats returns client configuration for diagnostics.
func (c *Client) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"base_url":    c.baseURL,
		"timeout":     c.config.Timeout,
		"max_retries": c.config.MaxRetries,
		"tracing":     c.config.Tracing,
	}
}
