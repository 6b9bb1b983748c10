// Package sqlstore persists operation audit trails through bun. The
// audit table is append-only; rows are pruned by retention policy, never
// updated.
package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/clearskye/epic-connector/core"
)

type AuditStore struct {
	db   *bun.DB
	repo repository.Repository[*operationAuditRecord]
}

func NewAuditStore(db *bun.DB) (*AuditStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*operationAuditRecord](db, auditHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid audit repository wiring: %w", err)
		}
	}
	return &AuditStore{db: db, repo: repo}, nil
}

// NewAuditStoreFromPersistence accepts either a *bun.DB or anything that
// exposes one, such as a go-persistence-bun client.
func NewAuditStoreFromPersistence(persistenceClient any) (*AuditStore, error) {
	db, err := resolveBunDB(persistenceClient)
	if err != nil {
		return nil, err
	}
	return NewAuditStore(db)
}

func (s *AuditStore) RecordOperation(ctx context.Context, audit core.OperationAudit) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: audit store is not configured")
	}
	operation := strings.TrimSpace(audit.Operation)
	if operation == "" {
		return fmt.Errorf("sqlstore: audit operation is required")
	}
	id := strings.TrimSpace(audit.ID)
	if id == "" {
		id = uuid.NewString()
	}
	startedAt := audit.StartedAt.UTC()
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}
	completedAt := audit.CompletedAt.UTC()
	if completedAt.IsZero() {
		completedAt = startedAt
	}

	record := &operationAuditRecord{
		ID:          id,
		Operation:   operation,
		UserID:      strings.TrimSpace(audit.UserID),
		StatusCode:  audit.StatusCode,
		Steps:       stepsToRows(audit.Steps),
		StartedAt:   startedAt,
		CompletedAt: completedAt,
	}
	_, err := s.repo.Create(ctx, record)
	return err
}

// AuditFilter narrows List results; zero values mean no constraint.
type AuditFilter struct {
	Operation string
	UserID    string
	From      *time.Time
	To        *time.Time
	Page      int
	PerPage   int
}

// AuditPage is one window of audit rows, newest first.
type AuditPage struct {
	Items   []core.OperationAudit
	Page    int
	PerPage int
	Total   int
	HasNext bool
}

func (s *AuditStore) List(ctx context.Context, filter AuditFilter) (AuditPage, error) {
	if s == nil || s.repo == nil {
		return AuditPage{}, fmt.Errorf("sqlstore: audit store is not configured")
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 25
	}
	offset := (page - 1) * perPage

	selectors := []repository.SelectCriteria{
		repository.OrderBy("started_at DESC"),
		repository.SelectPaginate(perPage, offset),
	}
	if operation := strings.TrimSpace(filter.Operation); operation != "" {
		selectors = append(selectors, repository.SelectBy("operation", "=", operation))
	}
	if userID := strings.TrimSpace(filter.UserID); userID != "" {
		selectors = append(selectors, repository.SelectBy("user_id", "=", userID))
	}
	if filter.From != nil {
		selectors = append(selectors, repository.SelectByTimetz("started_at", ">=", filter.From.UTC()))
	}
	if filter.To != nil {
		selectors = append(selectors, repository.SelectByTimetz("started_at", "<=", filter.To.UTC()))
	}

	records, total, err := s.repo.List(ctx, selectors...)
	if err != nil {
		return AuditPage{}, err
	}
	items := make([]core.OperationAudit, 0, len(records))
	for _, record := range records {
		items = append(items, auditRecordToDomain(record))
	}
	return AuditPage{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		HasNext: offset+len(items) < total,
	}, nil
}

// Prune deletes audit rows older than the retention window and returns
// how many were removed.
func (s *AuditStore) Prune(ctx context.Context, retention time.Duration) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: audit store is not configured")
	}
	if retention <= 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-retention)
	res, err := s.db.NewDelete().
		Model((*operationAuditRecord)(nil)).
		Where("started_at < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}

func auditRecordToDomain(record *operationAuditRecord) core.OperationAudit {
	if record == nil {
		return core.OperationAudit{}
	}
	return core.OperationAudit{
		ID:          record.ID,
		Operation:   record.Operation,
		UserID:      record.UserID,
		StatusCode:  record.StatusCode,
		Steps:       rowsToSteps(record.Steps),
		StartedAt:   record.StartedAt,
		CompletedAt: record.CompletedAt,
	}
}

func stepsToRows(steps []core.StepRecord) []map[string]any {
	rows := make([]map[string]any, 0, len(steps))
	for _, step := range steps {
		rows = append(rows, map[string]any{
			"name":        step.Name,
			"status":      step.Status,
			"status_code": step.StatusCode,
			"error":       step.Error,
		})
	}
	return rows
}

func rowsToSteps(rows []map[string]any) []core.StepRecord {
	steps := make([]core.StepRecord, 0, len(rows))
	for _, row := range rows {
		steps = append(steps, core.StepRecord{
			Name:       rowString(row, "name"),
			Status:     rowString(row, "status"),
			StatusCode: rowInt(row, "status_code"),
			Error:      rowString(row, "error"),
		})
	}
	return steps
}

func rowString(row map[string]any, key string) string {
	value, ok := row[key]
	if !ok || value == nil {
		return ""
	}
	if text, ok := value.(string); ok {
		return text
	}
	return fmt.Sprint(value)
}

func rowInt(row map[string]any, key string) int {
	switch typed := row[key].(type) {
	case int:
		return typed
	case int64:
		return int(typed)
	case float64:
		return int(typed)
	default:
		return 0
	}
}
