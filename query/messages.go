// Package query exposes the connector's read operations as go-command
// query messages.
package query

import (
	"fmt"
	"strings"

	"github.com/clearskye/epic-connector/core"
	"github.com/clearskye/epic-connector/staticlist"
	sqlstore "github.com/clearskye/epic-connector/store/sql"
)

const (
	TypeGetUser          = "connector.query.user.get"
	TypeViewGroups       = "connector.query.user.groups"
	TypeListUsers        = "connector.query.user.list"
	TypeListAudits       = "connector.query.audit.list"
	TypeSearchStaticList = "connector.query.staticlist.search"
)

type GetUserMessage struct {
	UserID string
}

func (GetUserMessage) Type() string { return TypeGetUser }

func (m GetUserMessage) Validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return fmt.Errorf("query: user id is required")
	}
	return nil
}

type ViewGroupsMessage struct {
	UserID string
}

func (ViewGroupsMessage) Type() string { return TypeViewGroups }

func (m ViewGroupsMessage) Validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return fmt.Errorf("query: user id is required")
	}
	return nil
}

type ListUsersMessage struct {
	Query core.SearchQuery
}

func (ListUsersMessage) Type() string { return TypeListUsers }

func (m ListUsersMessage) Validate() error {
	if m.Query.PageSize < 0 {
		return fmt.Errorf("query: page size must be >= 0")
	}
	return nil
}

type ListAuditsMessage struct {
	Filter sqlstore.AuditFilter
}

func (ListAuditsMessage) Type() string { return TypeListAudits }

func (m ListAuditsMessage) Validate() error {
	if m.Filter.Page < 0 {
		return fmt.Errorf("query: page must be >= 0")
	}
	if m.Filter.PerPage < 0 {
		return fmt.Errorf("query: per_page must be >= 0")
	}
	return nil
}

type SearchStaticListMessage struct {
	Query staticlist.Query
}

func (SearchStaticListMessage) Type() string { return TypeSearchStaticList }

func (m SearchStaticListMessage) Validate() error {
	if m.Query.PageSize < 0 {
		return fmt.Errorf("query: page size must be >= 0")
	}
	if m.Query.Offset < 0 {
		return fmt.Errorf("query: offset must be >= 0")
	}
	return nil
}
