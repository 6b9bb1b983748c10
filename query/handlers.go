package query

import (
	"context"

	"github.com/clearskye/epic-connector/core"
	"github.com/clearskye/epic-connector/staticlist"
	sqlstore "github.com/clearskye/epic-connector/store/sql"
)

// UserReader is the slice of the connector the user queries need.
type UserReader interface {
	GetUser(ctx context.Context, userID string) (core.OperationResult, error)
	ViewGroups(ctx context.Context, userID string) (core.OperationResult, error)
	ListUsers(ctx context.Context, query core.SearchQuery) (core.OperationResult, error)
}

type AuditReader interface {
	List(ctx context.Context, filter sqlstore.AuditFilter) (sqlstore.AuditPage, error)
}

type StaticListReader interface {
	Search(ctx context.Context, query staticlist.Query) (staticlist.Page, error)
}

type GetUserQuery struct {
	reader UserReader
}

func NewGetUserQuery(reader UserReader) *GetUserQuery {
	return &GetUserQuery{reader: reader}
}

func (q *GetUserQuery) Query(ctx context.Context, msg GetUserMessage) (core.OperationResult, error) {
	if q == nil || q.reader == nil {
		return core.OperationResult{}, queryDependencyError("query: user reader is required")
	}
	return q.reader.GetUser(ctx, msg.UserID)
}

type ViewGroupsQuery struct {
	reader UserReader
}

func NewViewGroupsQuery(reader UserReader) *ViewGroupsQuery {
	return &ViewGroupsQuery{reader: reader}
}

func (q *ViewGroupsQuery) Query(ctx context.Context, msg ViewGroupsMessage) (core.OperationResult, error) {
	if q == nil || q.reader == nil {
		return core.OperationResult{}, queryDependencyError("query: user reader is required")
	}
	return q.reader.ViewGroups(ctx, msg.UserID)
}

type ListUsersQuery struct {
	reader UserReader
}

func NewListUsersQuery(reader UserReader) *ListUsersQuery {
	return &ListUsersQuery{reader: reader}
}

func (q *ListUsersQuery) Query(ctx context.Context, msg ListUsersMessage) (core.OperationResult, error) {
	if q == nil || q.reader == nil {
		return core.OperationResult{}, queryDependencyError("query: user reader is required")
	}
	return q.reader.ListUsers(ctx, msg.Query)
}

type ListAuditsQuery struct {
	reader AuditReader
}

func NewListAuditsQuery(reader AuditReader) *ListAuditsQuery {
	return &ListAuditsQuery{reader: reader}
}

func (q *ListAuditsQuery) Query(ctx context.Context, msg ListAuditsMessage) (sqlstore.AuditPage, error) {
	if q == nil || q.reader == nil {
		return sqlstore.AuditPage{}, queryDependencyError("query: audit reader is required")
	}
	return q.reader.List(ctx, msg.Filter)
}

type SearchStaticListQuery struct {
	reader StaticListReader
}

func NewSearchStaticListQuery(reader StaticListReader) *SearchStaticListQuery {
	return &SearchStaticListQuery{reader: reader}
}

func (q *SearchStaticListQuery) Query(ctx context.Context, msg SearchStaticListMessage) (staticlist.Page, error) {
	if q == nil || q.reader == nil {
		return staticlist.Page{}, queryDependencyError("query: static list reader is required")
	}
	return q.reader.Search(ctx, msg.Query)
}
