package sqlstore

import "github.com/clearskye/epic-connector/core"

var _ core.OperationAuditStore = (*AuditStore)(nil)
