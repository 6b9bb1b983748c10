package query

import (
	"context"
	"errors"
	"testing"

	"github.com/clearskye/epic-connector/core"
	"github.com/clearskye/epic-connector/staticlist"
	sqlstore "github.com/clearskye/epic-connector/store/sql"
)

type stubUserReader struct {
	lastUserID string
	lastQuery  core.SearchQuery
	result     core.OperationResult
	err        error
}

func (s *stubUserReader) GetUser(ctx context.Context, userID string) (core.OperationResult, error) {
	s.lastUserID = userID
	return s.result, s.err
}

func (s *stubUserReader) ViewGroups(ctx context.Context, userID string) (core.OperationResult, error) {
	s.lastUserID = userID
	return s.result, s.err
}

func (s *stubUserReader) ListUsers(ctx context.Context, query core.SearchQuery) (core.OperationResult, error) {
	s.lastQuery = query
	return s.result, s.err
}

type stubAuditReader struct {
	page sqlstore.AuditPage
	err  error
}

func (s *stubAuditReader) List(ctx context.Context, filter sqlstore.AuditFilter) (sqlstore.AuditPage, error) {
	return s.page, s.err
}

type stubStaticListReader struct {
	page staticlist.Page
	err  error
}

func (s *stubStaticListReader) Search(ctx context.Context, query staticlist.Query) (staticlist.Page, error) {
	return s.page, s.err
}

func TestGetUserQuery_DelegatesToReader(t *testing.T) {
	reader := &stubUserReader{result: core.OperationResult{StatusCode: 200}}
	q := NewGetUserQuery(reader)

	result, err := q.Query(context.Background(), GetUserMessage{UserID: "jdoe"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if result.StatusCode != 200 || reader.lastUserID != "jdoe" {
		t.Fatalf("result = %+v, reader = %+v", result, reader)
	}
}

func TestGetUserQuery_RequiresReader(t *testing.T) {
	q := NewGetUserQuery(nil)
	if _, err := q.Query(context.Background(), GetUserMessage{UserID: "jdoe"}); err == nil {
		t.Fatal("expected dependency error")
	}
}

func TestListUsersQuery_PassesSearchQuery(t *testing.T) {
	reader := &stubUserReader{}
	q := NewListUsersQuery(reader)

	search := core.SearchQuery{Filter: "cardio", PageSize: 25}
	if _, err := q.Query(context.Background(), ListUsersMessage{Query: search}); err != nil {
		t.Fatalf("query: %v", err)
	}
	if reader.lastQuery.Filter != "cardio" || reader.lastQuery.PageSize != 25 {
		t.Fatalf("query passed = %+v", reader.lastQuery)
	}
}

func TestViewGroupsQuery_PropagatesErrors(t *testing.T) {
	wantErr := errors.New("vendor down")
	q := NewViewGroupsQuery(&stubUserReader{err: wantErr})
	if _, err := q.Query(context.Background(), ViewGroupsMessage{UserID: "jdoe"}); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v", err)
	}
}

func TestListAuditsQuery(t *testing.T) {
	reader := &stubAuditReader{page: sqlstore.AuditPage{Total: 3}}
	q := NewListAuditsQuery(reader)

	page, err := q.Query(context.Background(), ListAuditsMessage{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if page.Total != 3 {
		t.Fatalf("page = %+v", page)
	}

	if _, err := NewListAuditsQuery(nil).Query(context.Background(), ListAuditsMessage{}); err == nil {
		t.Fatal("expected dependency error")
	}
}

func TestSearchStaticListQuery(t *testing.T) {
	reader := &stubStaticListReader{page: staticlist.Page{
		Records: []core.Record{{"ID": "1"}},
		Total:   1,
	}}
	q := NewSearchStaticListQuery(reader)

	page, err := q.Query(context.Background(), SearchStaticListMessage{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(page.Records) != 1 {
		t.Fatalf("page = %+v", page)
	}
}

func TestQueryMessageValidation(t *testing.T) {
	cases := []struct {
		name    string
		msg     interface{ Validate() error }
		wantErr bool
	}{
		{"get user blank", GetUserMessage{UserID: " "}, true},
		{"get user ok", GetUserMessage{UserID: "jdoe"}, false},
		{"groups blank", ViewGroupsMessage{}, true},
		{"list negative page size", ListUsersMessage{Query: core.SearchQuery{PageSize: -1}}, true},
		{"list ok", ListUsersMessage{}, false},
		{"audits negative page", ListAuditsMessage{Filter: sqlstore.AuditFilter{Page: -1}}, true},
		{"audits ok", ListAuditsMessage{}, false},
		{"static list negative offset", SearchStaticListMessage{Query: staticlist.Query{Offset: -1}}, true},
		{"static list ok", SearchStaticListMessage{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
