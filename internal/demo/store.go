package demo

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"deskview/internal/models"
	"deskview/internal/query"
)

// Store keeps the demo dataset in an embedded sqlite database. The
// ticket listing path mirrors what the real service does server-side:
// filtering, sorting and windowing happen in SQL, and the caller only
// ever sees one page plus the total.
type Store struct {
	db *gorm.DB
}

type ticketRecord struct {
	ID                string `gorm:"primaryKey"`
	TypeOfRequest     string
	Building          string
	Room              string
	RequesterID       string `gorm:"index"`
	Status            string `gorm:"index"`
	Priority          string
	ResolutionSummary string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type workflowRecord struct {
	ID          string `gorm:"primaryKey"`
	Name        string
	Description string
	Trigger     string
	Status      string
	Steps       string // JSON
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type executionRecord struct {
	ID         string `gorm:"primaryKey"`
	WorkflowID string `gorm:"index"`
	Status     string
	StartedAt  time.Time
	DurationMS *int64
	Error      string
	Steps      string // JSON
}

// OpenStore opens (or creates) the demo database. An empty dsn means a
// throwaway in-memory database.
func OpenStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open demo database: %w", err)
	}
	if err := db.AutoMigrate(&ticketRecord{}, &workflowRecord{}, &executionRecord{}); err != nil {
		return nil, fmt.Errorf("migrate demo database: %w", err)
	}
	return &Store{db: db}, nil
}

// ticket column whitelist for sort_by; anything else keeps the default.
var ticketSortColumns = map[string]string{
	"created_at":      "created_at",
	"updated_at":      "updated_at",
	"status":          "status",
	"priority":        "priority",
	"type_of_request": "type_of_request",
	"building":        "building",
}

func (s *Store) ListTickets(c query.Criteria, requesterID string) ([]models.Ticket, int, error) {
	tx := s.db.Model(&ticketRecord{})
	if requesterID != "" {
		tx = tx.Where("requester_id = ?", requesterID)
	}
	if c.Search != "" {
		needle := "%" + strings.ToLower(c.Search) + "%"
		tx = tx.Where(
			"LOWER(type_of_request) LIKE ? OR LOWER(building) LIKE ? OR LOWER(room) LIKE ?",
			needle, needle, needle,
		)
	}
	if c.Status != "" {
		tx = tx.Where("status = ?", c.Status)
	}
	if c.Priority != "" {
		tx = tx.Where("priority = ?", c.Priority)
	}
	if !c.DateFrom.IsZero() {
		tx = tx.Where("created_at >= ?", c.DateFrom)
	}
	if !c.DateTo.IsZero() {
		tx = tx.Where("created_at <= ?", c.DateTo)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := ticketSortColumns[c.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if c.SortOrder == query.SortDesc {
		direction = "DESC"
	}

	var records []ticketRecord
	err := tx.Order(column + " " + direction + ", id ASC").
		Limit(c.PageSize).
		Offset(c.Offset()).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}

	tickets := make([]models.Ticket, 0, len(records))
	for i := range records {
		tickets = append(tickets, records[i].toModel())
	}
	return tickets, int(total), nil
}

func (s *Store) GetTicket(id string) (*models.Ticket, error) {
	var record ticketRecord
	if err := s.db.First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	ticket := record.toModel()
	return &ticket, nil
}

func (s *Store) CreateTicket(t *models.Ticket) error {
	record := ticketFromModel(t)
	return s.db.Create(&record).Error
}

func (s *Store) SaveTicket(t *models.Ticket) error {
	record := ticketFromModel(t)
	return s.db.Save(&record).Error
}

func (s *Store) DeleteTicket(id string) error {
	result := s.db.Delete(&ticketRecord{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *Store) ListWorkflows() ([]models.Workflow, error) {
	var records []workflowRecord
	if err := s.db.Order("created_at ASC, id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	workflows := make([]models.Workflow, 0, len(records))
	for i := range records {
		workflows = append(workflows, records[i].toModel())
	}
	return workflows, nil
}

func (s *Store) GetWorkflow(id string) (*models.Workflow, error) {
	var record workflowRecord
	if err := s.db.First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	workflow := record.toModel()
	return &workflow, nil
}

func (s *Store) CreateWorkflow(w *models.Workflow) error {
	record := workflowFromModel(w)
	return s.db.Create(&record).Error
}

func (s *Store) SaveWorkflow(w *models.Workflow) error {
	record := workflowFromModel(w)
	return s.db.Save(&record).Error
}

func (s *Store) ListExecutions(workflowID string) ([]models.Execution, error) {
	tx := s.db.Model(&executionRecord{})
	if workflowID != "" {
		tx = tx.Where("workflow_id = ?", workflowID)
	}
	var records []executionRecord
	if err := tx.Order("started_at DESC, id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	executions := make([]models.Execution, 0, len(records))
	for i := range records {
		executions = append(executions, records[i].toModel())
	}
	return executions, nil
}

func (s *Store) GetExecution(id string) (*models.Execution, error) {
	var record executionRecord
	if err := s.db.First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	execution := record.toModel()
	return &execution, nil
}

func (s *Store) CreateExecution(e *models.Execution) error {
	record := executionFromModel(e)
	return s.db.Create(&record).Error
}

// FinishExecution moves a running execution to the given terminal
// status. The conditional update keeps concurrent finishers from
// overwriting an already terminal record.
func (s *Store) FinishExecution(id string, status models.ExecutionStatus, errMsg string, duration time.Duration) (bool, error) {
	ms := duration.Milliseconds()
	result := s.db.Model(&executionRecord{}).
		Where("id = ? AND status = ?", id, string(models.ExecutionRunning)).
		Updates(map[string]any{
			"status":      string(status),
			"error":       errMsg,
			"duration_ms": ms,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *Store) Statistics() (*models.Statistics, error) {
	var stats models.Statistics

	var total int64
	if err := s.db.Model(&workflowRecord{}).Count(&total).Error; err != nil {
		return nil, err
	}
	stats.Total = int(total)

	var active int64
	if err := s.db.Model(&workflowRecord{}).
		Where("status = ?", string(models.WorkflowStatusActive)).
		Count(&active).Error; err != nil {
		return nil, err
	}
	stats.Active = int(active)

	var running int64
	if err := s.db.Model(&executionRecord{}).
		Where("status = ?", string(models.ExecutionRunning)).
		Count(&running).Error; err != nil {
		return nil, err
	}
	stats.Running = int(running)

	midnight := time.Now().Truncate(24 * time.Hour)
	var today int64
	if err := s.db.Model(&executionRecord{}).
		Where("started_at >= ?", midnight).
		Count(&today).Error; err != nil {
		return nil, err
	}
	stats.ExecutionsToday = int(today)

	return &stats, nil
}

func (r *ticketRecord) toModel() models.Ticket {
	return models.Ticket{
		ID:                r.ID,
		TypeOfRequest:     r.TypeOfRequest,
		Building:          r.Building,
		Room:              r.Room,
		RequesterID:       r.RequesterID,
		Status:            models.TicketStatus(r.Status),
		Priority:          models.TicketPriority(r.Priority),
		ResolutionSummary: r.ResolutionSummary,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func ticketFromModel(t *models.Ticket) ticketRecord {
	return ticketRecord{
		ID:                t.ID,
		TypeOfRequest:     t.TypeOfRequest,
		Building:          t.Building,
		Room:              t.Room,
		RequesterID:       t.RequesterID,
		Status:            string(t.Status),
		Priority:          string(t.Priority),
		ResolutionSummary: t.ResolutionSummary,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

func (r *workflowRecord) toModel() models.Workflow {
	var steps []models.WorkflowStep
	if r.Steps != "" {
		_ = json.Unmarshal([]byte(r.Steps), &steps)
	}
	return models.Workflow{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Trigger:     models.WorkflowTrigger(r.Trigger),
		Status:      models.WorkflowStatus(r.Status),
		Steps:       steps,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func workflowFromModel(w *models.Workflow) workflowRecord {
	steps, _ := json.Marshal(w.Steps)
	return workflowRecord{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		Trigger:     string(w.Trigger),
		Status:      string(w.Status),
		Steps:       string(steps),
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func (r *executionRecord) toModel() models.Execution {
	var steps []models.ExecutionStep
	if r.Steps != "" {
		_ = json.Unmarshal([]byte(r.Steps), &steps)
	}
	execution := models.Execution{
		ID:         r.ID,
		WorkflowID: r.WorkflowID,
		Status:     models.ExecutionStatus(r.Status),
		StartedAt:  r.StartedAt,
		Error:      r.Error,
		Steps:      steps,
	}
	if r.DurationMS != nil {
		d := time.Duration(*r.DurationMS) * time.Millisecond
		execution.Duration = &d
	}
	return execution
}

func executionFromModel(e *models.Execution) executionRecord {
	steps, _ := json.Marshal(e.Steps)
	record := executionRecord{
		ID:         e.ID,
		WorkflowID: e.WorkflowID,
		Status:     string(e.Status),
		StartedAt:  e.StartedAt,
		Error:      e.Error,
		Steps:      string(steps),
	}
	if e.Duration != nil {
		ms := e.Duration.Milliseconds()
		record.DurationMS = &ms
	}
	return record
}
