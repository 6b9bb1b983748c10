package connector

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/clearskye/epic-connector/core"
)

// ListUsers searches the record store for one page of users and hydrates
// each row through the detail read. Rows that fail to hydrate are logged
// and skipped so one broken record never poisons the page. The search
// continuation context, when present, is echoed in the result body.
func (s *Service) ListUsers(ctx context.Context, query core.SearchQuery) (core.OperationResult, error) {
	startedAt := s.now()
	run := &stepRun{}

	if strings.TrimSpace(query.RecordType) == "" {
		query.RecordType = core.RecordTypeUser
	}

	searchResult, err := s.searcher.Search(ctx, query)
	if err != nil {
		run.failed(stepSearchRecords, 0, err.Error())
		s.observeOperation(ctx, startedAt, "list_users", 0, err)
		return core.OperationResult{Steps: run.steps}, err
	}
	run.applied(stepSearchRecords, http.StatusOK)

	users := s.hydrateUsers(ctx, searchResult.Records)
	run.applied(stepFetchDetails, http.StatusOK)

	body := map[string]any{core.ResponseKeyUsers: users}
	if searchResult.NextContext != nil {
		body[core.ResponseKeySearchContext] = *searchResult.NextContext
	}

	s.observeOperation(ctx, startedAt, "list_users", http.StatusOK, nil)
	return core.OperationResult{StatusCode: http.StatusOK, Body: body, Steps: run.steps}, nil
}

// hydrateUsers reads user detail for each search row with a bounded
// worker pool, preserving the order of the incoming records.
func (s *Service) hydrateUsers(ctx context.Context, records []core.Record) []map[string]any {
	hydrated := make([]map[string]any, len(records))

	workers := s.listConcurrency
	if workers > len(records) {
		workers = len(records)
	}
	if workers < 1 {
		workers = 1
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for idx := range indexes {
				hydrated[idx] = s.hydrateUser(ctx, records[idx])
			}
		}()
	}
	for idx := range records {
		indexes <- idx
	}
	close(indexes)
	wg.Wait()

	users := make([]map[string]any, 0, len(records))
	for _, user := range hydrated {
		if user != nil {
			users = append(users, user)
		}
	}
	return users
}

// hydrateUser resolves one search row into canonical attributes, or nil
// when the row cannot be hydrated.
func (s *Service) hydrateUser(ctx context.Context, record core.Record) map[string]any {
	userID := strings.TrimSpace(record[core.RecordKeyExternalID])
	if userID == "" {
		s.logWithLevel(ctx, "debug", "search row without an external id skipped", nil)
		return nil
	}

	params := []core.QueryParam{
		{Name: core.AttrUserID, Value: userID},
		{Name: core.AttrUserIDType, Value: core.ReferenceTypeExternal},
	}
	res, err := s.executor.Execute(ctx, core.EndpointViewUser, http.MethodGet, params, nil)
	if err != nil {
		s.logWithLevel(ctx, "warn", "user detail read failed, row skipped", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil
	}
	if res.Failed() {
		message := responseMessage(res.Body)
		if strings.Contains(message, core.InvalidRecordTypeMarker) {
			s.logWithLevel(ctx, "debug", "record is not a user, row skipped", map[string]any{
				"user_id": userID,
			})
			return nil
		}
		s.logWithLevel(ctx, "warn", "user detail read rejected, row skipped", map[string]any{
			"user_id":     userID,
			"status_code": res.StatusCode,
			"message":     message,
		})
		return nil
	}

	merged := cloneAttrs(res.Body)
	if groupRes, err := s.viewGroups(ctx, userID); err == nil && !groupRes.Failed() {
		merged[core.AttrUserGroups] = groupRes.Body[core.AttrUserGroups]
	} else {
		s.logWithLevel(ctx, "warn", "group read failed during list, groups omitted", map[string]any{
			"user_id": userID,
		})
	}

	return s.mapper.Decode(merged)
}
