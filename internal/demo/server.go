package demo

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"deskview/internal/models"
	"deskview/internal/query"
)

// Server is a local stand-in for the helpdesk service. It exposes the
// same HTTP surface the remote service does, backed by the demo store,
// so the console can be exercised end to end without a deployment.
type Server struct {
	source *Source
	logger *logrus.Logger
	engine *gin.Engine
}

func NewServer(source *Source, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	gin.SetMode(gin.ReleaseMode)
	server := &Server{
		source: source,
		logger: logger,
		engine: gin.New(),
	}
	server.engine.Use(gin.Recovery(), server.requestLogger())
	server.registerRoutes()
	return server
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run(addr string) error {
	s.logger.WithField("addr", addr).Info("demo service listening")
	return s.engine.Run(addr)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("request handled")
	}
}

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/api/v1")
	{
		v1.GET("/health", s.health)

		v1.GET("/tickets", s.listTickets)
		v1.POST("/tickets", s.createTicket)
		v1.GET("/tickets/:id", s.getTicket)
		v1.PATCH("/tickets/:id", s.updateTicket)
		v1.PATCH("/tickets/:id/status", s.updateTicketStatus)
		v1.DELETE("/tickets/:id", s.deleteTicket)
		v1.GET("/requesters/:id/tickets", s.listRequesterTickets)

		v1.GET("/workflows", s.listWorkflows)
		v1.POST("/workflows", s.createWorkflow)
		v1.GET("/workflows/:id", s.getWorkflow)
		v1.PATCH("/workflows/:id/status", s.setWorkflowStatus)
		v1.POST("/workflows/:id/executions", s.triggerExecution)

		v1.GET("/executions", s.listExecutions)
		v1.GET("/executions/:id", s.getExecution)
		v1.POST("/executions/:id/cancel", s.cancelExecution)

		v1.GET("/statistics", s.statistics)
	}
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": false, "message": message})
}

func failErr(c *gin.Context, err error) {
	if err == ErrNotFound {
		fail(c, http.StatusNotFound, "record not found")
		return
	}
	fail(c, http.StatusInternalServerError, err.Error())
}

// executionPayload is the over-the-wire execution shape; durations
// travel as integer milliseconds.
type executionPayload struct {
	ID         string                 `json:"id"`
	WorkflowID string                 `json:"workflow_id"`
	Status     models.ExecutionStatus `json:"status"`
	StartedAt  time.Time              `json:"started_at"`
	DurationMS *int64                 `json:"duration_ms,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Steps      []models.ExecutionStep `json:"steps"`
}

func toExecutionPayload(e *models.Execution) executionPayload {
	payload := executionPayload{
		ID:         e.ID,
		WorkflowID: e.WorkflowID,
		Status:     e.Status,
		StartedAt:  e.StartedAt,
		Error:      e.Error,
		Steps:      e.Steps,
	}
	if e.Duration != nil {
		ms := e.Duration.Milliseconds()
		payload.DurationMS = &ms
	}
	return payload
}

// criteriaFromQuery rebuilds listing criteria from the windowing query
// parameters the client sends.
func criteriaFromQuery(c *gin.Context) query.Criteria {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit <= 0 {
		limit = 10
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	criteria := query.NewCriteria(limit)
	criteria.Page = offset/limit + 1
	criteria.Search = c.Query("search")
	criteria.Status = c.Query("status")
	criteria.Priority = c.Query("priority")
	criteria.SortBy = c.Query("sort_by")
	if c.Query("sort_order") == string(query.SortDesc) {
		criteria.SortOrder = query.SortDesc
	}
	if from := c.Query("created_from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			criteria.DateFrom = t
		}
	}
	if to := c.Query("created_to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			criteria.DateTo = t
		}
	}
	return criteria
}

// health is the one unwrapped endpoint: probes read the status field
// directly.
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "version": "demo"})
}

func (s *Server) listTickets(c *gin.Context) {
	tickets, total, err := s.source.ListTickets(c.Request.Context(), criteriaFromQuery(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, gin.H{"items": tickets, "total": total})
}

func (s *Server) listRequesterTickets(c *gin.Context) {
	tickets, total, err := s.source.ListTicketsByRequester(c.Request.Context(), c.Param("id"), criteriaFromQuery(c))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, gin.H{"items": tickets, "total": total})
}

func (s *Server) getTicket(c *gin.Context) {
	ticket, err := s.source.GetTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, ticket)
}

func (s *Server) createTicket(c *gin.Context) {
	var req models.TicketCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	ticket, err := s.source.CreateTicket(c.Request.Context(), &req)
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": ticket})
}

func (s *Server) updateTicket(c *gin.Context) {
	var req models.TicketUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	ticket, err := s.source.UpdateTicket(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, ticket)
}

func (s *Server) updateTicketStatus(c *gin.Context) {
	var req struct {
		Status            models.TicketStatus `json:"status"`
		ResolutionSummary string              `json:"resolution_summary"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if !req.Status.Valid() {
		fail(c, http.StatusBadRequest, fmt.Sprintf("unknown status %q", req.Status))
		return
	}
	ticket, err := s.source.UpdateTicketStatus(c.Request.Context(), c.Param("id"), req.Status, req.ResolutionSummary)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, ticket)
}

func (s *Server) deleteTicket(c *gin.Context) {
	if err := s.source.DeleteTicket(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	ok(c, gin.H{"deleted": true})
}

func (s *Server) listWorkflows(c *gin.Context) {
	workflows, err := s.source.ListWorkflows(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, workflows)
}

func (s *Server) getWorkflow(c *gin.Context) {
	workflow, err := s.source.GetWorkflow(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, workflow)
}

func (s *Server) createWorkflow(c *gin.Context) {
	var req models.WorkflowCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	workflow, err := s.source.CreateWorkflow(c.Request.Context(), &req)
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": workflow})
}

func (s *Server) setWorkflowStatus(c *gin.Context) {
	var req struct {
		Status models.WorkflowStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	workflow, err := s.source.SetWorkflowStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, workflow)
}

func (s *Server) listExecutions(c *gin.Context) {
	executions, err := s.source.ListExecutions(c.Request.Context(), c.Query("workflow_id"))
	if err != nil {
		failErr(c, err)
		return
	}
	payloads := make([]executionPayload, 0, len(executions))
	for i := range executions {
		payloads = append(payloads, toExecutionPayload(&executions[i]))
	}
	ok(c, payloads)
}

func (s *Server) getExecution(c *gin.Context) {
	execution, err := s.source.GetExecution(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, toExecutionPayload(execution))
}

func (s *Server) triggerExecution(c *gin.Context) {
	execution, err := s.source.TriggerExecution(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": toExecutionPayload(execution)})
}

func (s *Server) cancelExecution(c *gin.Context) {
	if err := s.source.CancelExecution(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	ok(c, gin.H{"cancelled": true})
}

func (s *Server) statistics(c *gin.Context) {
	stats, err := s.source.GetStatistics(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, stats)
}
