package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/clearskye/epic-connector/core"
	"github.com/clearskye/epic-connector/staticlist"
	sqlstore "github.com/clearskye/epic-connector/store/sql"
)

var (
	_ gocmd.Querier[GetUserMessage, core.OperationResult]     = (*GetUserQuery)(nil)
	_ gocmd.Querier[ViewGroupsMessage, core.OperationResult]  = (*ViewGroupsQuery)(nil)
	_ gocmd.Querier[ListUsersMessage, core.OperationResult]   = (*ListUsersQuery)(nil)
	_ gocmd.Querier[ListAuditsMessage, sqlstore.AuditPage]    = (*ListAuditsQuery)(nil)
	_ gocmd.Querier[SearchStaticListMessage, staticlist.Page] = (*SearchStaticListQuery)(nil)
)
