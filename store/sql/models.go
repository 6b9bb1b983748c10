package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type operationAuditRecord struct {
	bun.BaseModel `bun:"table:connector_operation_audits,alias:coa"`

	ID          string           `bun:"id,pk"`
	Operation   string           `bun:"operation,notnull"`
	UserID      string           `bun:"user_id"`
	StatusCode  int              `bun:"status_code,notnull"`
	Steps       []map[string]any `bun:"steps,type:jsonb,notnull"`
	StartedAt   time.Time        `bun:"started_at,nullzero,notnull"`
	CompletedAt time.Time        `bun:"completed_at,nullzero,notnull"`
	CreatedAt   time.Time        `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
