package maintenance

import (
	"github.com/clearskye/epic-connector/staticlist"
	sqlstore "github.com/clearskye/epic-connector/store/sql"
)

var (
	_ AuditPruner     = (*sqlstore.AuditStore)(nil)
	_ ListInvalidator = (*staticlist.CachedStore)(nil)
)
