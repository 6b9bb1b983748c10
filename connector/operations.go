package connector

import (
	"context"
	"net/http"
	"strings"

	"github.com/clearskye/epic-connector/core"
	"github.com/clearskye/epic-connector/mapping"
)

// Stage names recorded on composite operations.
const (
	stepCreateUser    = "create_user"
	stepUpdateUser    = "update_user"
	stepViewUser      = "view_user"
	stepResolveUserID = "resolve_user_id"
	stepSetPassword   = "set_password"
	stepSetGroups     = "set_groups"
	stepViewGroups    = "view_groups"
	stepSearchRecords = "search_records"
	stepFetchDetails  = "fetch_user_details"
)

// CreateUser provisions a user, then applies the optional password and
// group stages. A failing stage returns immediately; stages already
// applied stay applied.
func (s *Service) CreateUser(ctx context.Context, attrs map[string]any) (core.OperationResult, error) {
	startedAt := s.now()
	run := &stepRun{}
	userID := ""

	result, err := s.createUser(ctx, attrs, run, &userID)
	s.persistAudit(ctx, "create_user", userID, startedAt, result)
	s.observeOperation(ctx, startedAt, "create_user", result.StatusCode, err)
	return result, err
}

func (s *Service) createUser(ctx context.Context, attrs map[string]any, run *stepRun, userID *string) (core.OperationResult, error) {
	attrs = cloneAttrs(attrs)
	password := popString(attrs, core.AttrNewPassword)
	groups := popStringSlice(attrs, core.AttrUserGroups)

	payload := s.mapper.Encode(attrs)
	res, err := s.executor.Execute(ctx, core.EndpointCreateUser, http.MethodPut, payload.Params, payload.Body)
	if err != nil {
		run.failed(stepCreateUser, 0, err.Error())
		return core.OperationResult{Steps: run.steps}, err
	}
	if res.Failed() {
		run.failed(stepCreateUser, res.StatusCode, responseMessage(res.Body))
		return core.OperationResult{StatusCode: res.StatusCode, Body: res.Body, Steps: run.steps}, nil
	}
	run.applied(stepCreateUser, res.StatusCode)

	uid := externalUserID(res.Body)
	if uid == "" {
		run.failed(stepResolveUserID, res.StatusCode, "create response is missing an external user id")
		return core.OperationResult{StatusCode: res.StatusCode, Body: res.Body, Steps: run.steps},
			core.NewVendorFaultError("connector: create response is missing an external user id", map[string]any{
				"status_code": res.StatusCode,
			})
	}
	*userID = uid

	if password != "" {
		passwordRes, err := s.setPassword(ctx, uid, password)
		if err != nil {
			run.failed(stepSetPassword, 0, err.Error())
			return core.OperationResult{Steps: run.steps}, err
		}
		if passwordRes.Failed() {
			run.failed(stepSetPassword, passwordRes.StatusCode, responseMessage(passwordRes.Body))
			return core.OperationResult{StatusCode: passwordRes.StatusCode, Body: passwordRes.Body, Steps: run.steps}, nil
		}
		run.applied(stepSetPassword, passwordRes.StatusCode)
	} else {
		run.skipped(stepSetPassword)
	}

	if len(groups) > 0 {
		groupRes, err := s.setGroups(ctx, uid, groups)
		if err != nil {
			run.failed(stepSetGroups, 0, err.Error())
			return core.OperationResult{Steps: run.steps}, err
		}
		if groupRes.Failed() {
			run.failed(stepSetGroups, groupRes.StatusCode, responseMessage(groupRes.Body))
			return core.OperationResult{StatusCode: groupRes.StatusCode, Body: groupRes.Body, Steps: run.steps}, nil
		}
		run.applied(stepSetGroups, groupRes.StatusCode)
	} else {
		run.skipped(stepSetGroups)
	}

	return core.OperationResult{StatusCode: res.StatusCode, Body: res.Body, Steps: run.steps}, nil
}

// UpdateUser applies the password stage first, then the attribute update
// wrapped in the vendor's items manifest, then the group stage.
func (s *Service) UpdateUser(ctx context.Context, userID string, attrs map[string]any) (core.OperationResult, error) {
	startedAt := s.now()
	run := &stepRun{}

	result, err := s.updateUser(ctx, userID, attrs, run)
	s.persistAudit(ctx, "update_user", userID, startedAt, result)
	s.observeOperation(ctx, startedAt, "update_user", result.StatusCode, err)
	return result, err
}

func (s *Service) updateUser(ctx context.Context, userID string, attrs map[string]any, run *stepRun) (core.OperationResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return core.OperationResult{}, core.NewBadInputError("connector: user id is required", nil)
	}

	attrs = cloneAttrs(attrs)
	password := popString(attrs, core.AttrNewPassword)
	groups := popStringSlice(attrs, core.AttrUserGroups)

	if password != "" {
		passwordRes, err := s.setPassword(ctx, userID, password)
		if err != nil {
			run.failed(stepSetPassword, 0, err.Error())
			return core.OperationResult{Steps: run.steps}, err
		}
		if passwordRes.Failed() {
			run.failed(stepSetPassword, passwordRes.StatusCode, responseMessage(passwordRes.Body))
			return core.OperationResult{StatusCode: passwordRes.StatusCode, Body: passwordRes.Body, Steps: run.steps}, nil
		}
		run.applied(stepSetPassword, passwordRes.StatusCode)
	} else {
		run.skipped(stepSetPassword)
	}

	var lastRes core.Response
	hasUpdate := false

	payload := s.mapper.Encode(attrs)
	body := updateBody(payload)
	if len(body) > 0 {
		body = mapping.IncludeUpdateItems(body)
		body[core.AttrUserID] = userID
		body[core.AttrUserIDType] = core.ReferenceTypeExternal

		params := []core.QueryParam{
			{Name: core.AttrUserID, Value: userID},
			{Name: core.AttrUserIDType, Value: core.ReferenceTypeExternal},
		}
		res, err := s.executor.Execute(ctx, core.EndpointUpdateUser, http.MethodPost, params, body)
		if err != nil {
			run.failed(stepUpdateUser, 0, err.Error())
			return core.OperationResult{Steps: run.steps}, err
		}
		if res.Failed() {
			run.failed(stepUpdateUser, res.StatusCode, responseMessage(res.Body))
			return core.OperationResult{StatusCode: res.StatusCode, Body: res.Body, Steps: run.steps}, nil
		}
		run.applied(stepUpdateUser, res.StatusCode)
		lastRes = res
		hasUpdate = true
	} else {
		run.skipped(stepUpdateUser)
	}

	if len(groups) > 0 {
		groupRes, err := s.setGroups(ctx, userID, groups)
		if err != nil {
			run.failed(stepSetGroups, 0, err.Error())
			return core.OperationResult{Steps: run.steps}, err
		}
		if groupRes.Failed() {
			run.failed(stepSetGroups, groupRes.StatusCode, responseMessage(groupRes.Body))
			return core.OperationResult{StatusCode: groupRes.StatusCode, Body: groupRes.Body, Steps: run.steps}, nil
		}
		run.applied(stepSetGroups, groupRes.StatusCode)
		if !hasUpdate {
			lastRes = groupRes
		}
	} else {
		run.skipped(stepSetGroups)
	}

	statusCode := lastRes.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	return core.OperationResult{StatusCode: statusCode, Body: lastRes.Body, Steps: run.steps}, nil
}

// GetUser reads one user, merges the group membership in, and decodes
// the result to canonical attributes.
func (s *Service) GetUser(ctx context.Context, userID string) (core.OperationResult, error) {
	startedAt := s.now()
	run := &stepRun{}

	result, err := s.getUser(ctx, userID, run)
	s.observeOperation(ctx, startedAt, "get_user", result.StatusCode, err)
	return result, err
}

func (s *Service) getUser(ctx context.Context, userID string, run *stepRun) (core.OperationResult, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return core.OperationResult{}, core.NewBadInputError("connector: user id is required", nil)
	}

	params := []core.QueryParam{
		{Name: core.AttrUserID, Value: userID},
		{Name: core.AttrUserIDType, Value: core.ReferenceTypeExternal},
	}
	res, err := s.executor.Execute(ctx, core.EndpointViewUser, http.MethodGet, params, nil)
	if err != nil {
		run.failed(stepViewUser, 0, err.Error())
		return core.OperationResult{Steps: run.steps}, err
	}
	if res.Failed() {
		run.failed(stepViewUser, res.StatusCode, responseMessage(res.Body))
		return core.OperationResult{StatusCode: res.StatusCode, Body: res.Body, Steps: run.steps}, nil
	}
	run.applied(stepViewUser, res.StatusCode)

	merged := cloneAttrs(res.Body)
	groupRes, err := s.viewGroups(ctx, userID)
	if err != nil {
		run.failed(stepViewGroups, 0, err.Error())
		return core.OperationResult{Steps: run.steps}, err
	}
	if groupRes.Failed() {
		run.failed(stepViewGroups, groupRes.StatusCode, responseMessage(groupRes.Body))
		s.logWithLevel(ctx, "warn", "group read failed during user read", map[string]any{
			"user_id":     userID,
			"status_code": groupRes.StatusCode,
		})
	} else {
		run.applied(stepViewGroups, groupRes.StatusCode)
		merged[core.AttrUserGroups] = groupRes.Body[core.AttrUserGroups]
	}

	return core.OperationResult{
		StatusCode: res.StatusCode,
		Body:       s.mapper.Decode(merged),
		Steps:      run.steps,
	}, nil
}

// DeleteUser removes the user record.
func (s *Service) DeleteUser(ctx context.Context, userID string) (core.OperationResult, error) {
	return s.userLifecycleCall(ctx, "delete_user", core.EndpointDeleteUser, userID)
}

// ActivateUser re-enables a previously deactivated user.
func (s *Service) ActivateUser(ctx context.Context, userID string) (core.OperationResult, error) {
	return s.userLifecycleCall(ctx, "activate_user", core.EndpointActivateUser, userID)
}

// DeactivateUser disables the user without deleting the record.
func (s *Service) DeactivateUser(ctx context.Context, userID string) (core.OperationResult, error) {
	return s.userLifecycleCall(ctx, "deactivate_user", core.EndpointDeactivateUser, userID)
}

func (s *Service) userLifecycleCall(ctx context.Context, operation, endpoint, userID string) (core.OperationResult, error) {
	startedAt := s.now()
	run := &stepRun{}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return core.OperationResult{}, core.NewBadInputError("connector: user id is required", nil)
	}

	params := []core.QueryParam{{Name: core.AttrUserID, Value: userID}}
	body := map[string]any{core.AttrUserIDType: core.ReferenceTypeExternal}
	res, err := s.executor.Execute(ctx, endpoint, http.MethodPost, params, body)
	if err != nil {
		run.failed(operation, 0, err.Error())
		s.observeOperation(ctx, startedAt, operation, 0, err)
		return core.OperationResult{Steps: run.steps}, err
	}
	if res.Failed() {
		run.failed(operation, res.StatusCode, responseMessage(res.Body))
	} else {
		run.applied(operation, res.StatusCode)
	}

	result := core.OperationResult{StatusCode: res.StatusCode, Body: res.Body, Steps: run.steps}
	s.persistAudit(ctx, operation, userID, startedAt, result)
	s.observeOperation(ctx, startedAt, operation, res.StatusCode, nil)
	return result, nil
}

// SetPassword resets the user's password.
func (s *Service) SetPassword(ctx context.Context, userID, password string) (core.OperationResult, error) {
	startedAt := s.now()
	run := &stepRun{}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return core.OperationResult{}, core.NewBadInputError("connector: user id is required", nil)
	}
	if password == "" {
		return core.OperationResult{}, core.NewBadInputError("connector: password is required", nil)
	}

	res, err := s.setPassword(ctx, userID, password)
	if err != nil {
		run.failed(stepSetPassword, 0, err.Error())
		s.observeOperation(ctx, startedAt, "set_password", 0, err)
		return core.OperationResult{Steps: run.steps}, err
	}
	if res.Failed() {
		run.failed(stepSetPassword, res.StatusCode, responseMessage(res.Body))
	} else {
		run.applied(stepSetPassword, res.StatusCode)
	}

	result := core.OperationResult{StatusCode: res.StatusCode, Body: res.Body, Steps: run.steps}
	s.persistAudit(ctx, "set_password", userID, startedAt, result)
	s.observeOperation(ctx, startedAt, "set_password", res.StatusCode, nil)
	return result, nil
}

// ViewGroups reads the user's group membership.
func (s *Service) ViewGroups(ctx context.Context, userID string) (core.OperationResult, error) {
	startedAt := s.now()
	run := &stepRun{}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return core.OperationResult{}, core.NewBadInputError("connector: user id is required", nil)
	}

	res, err := s.viewGroups(ctx, userID)
	if err != nil {
		run.failed(stepViewGroups, 0, err.Error())
		s.observeOperation(ctx, startedAt, "view_groups", 0, err)
		return core.OperationResult{Steps: run.steps}, err
	}
	if res.Failed() {
		run.failed(stepViewGroups, res.StatusCode, responseMessage(res.Body))
	} else {
		run.applied(stepViewGroups, res.StatusCode)
	}

	result := core.OperationResult{StatusCode: res.StatusCode, Body: res.Body, Steps: run.steps}
	s.observeOperation(ctx, startedAt, "view_groups", res.StatusCode, nil)
	return result, nil
}

// UpdateGroups replaces the user's group membership with the given list.
func (s *Service) UpdateGroups(ctx context.Context, userID string, groups []string) (core.OperationResult, error) {
	startedAt := s.now()
	run := &stepRun{}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return core.OperationResult{}, core.NewBadInputError("connector: user id is required", nil)
	}

	res, err := s.setGroups(ctx, userID, groups)
	if err != nil {
		run.failed(stepSetGroups, 0, err.Error())
		s.observeOperation(ctx, startedAt, "update_groups", 0, err)
		return core.OperationResult{Steps: run.steps}, err
	}
	if res.Failed() {
		run.failed(stepSetGroups, res.StatusCode, responseMessage(res.Body))
	} else {
		run.applied(stepSetGroups, res.StatusCode)
	}

	result := core.OperationResult{StatusCode: res.StatusCode, Body: res.Body, Steps: run.steps}
	s.persistAudit(ctx, "update_groups", userID, startedAt, result)
	s.observeOperation(ctx, startedAt, "update_groups", res.StatusCode, nil)
	return result, nil
}

func (s *Service) setPassword(ctx context.Context, userID, password string) (core.Response, error) {
	params := []core.QueryParam{{Name: core.AttrUserID, Value: userID}}
	body := map[string]any{
		core.AttrUserIDType:  core.ReferenceTypeExternal,
		core.AttrNewPassword: password,
	}
	return s.executor.Execute(ctx, core.EndpointSetUserPassword, http.MethodPut, params, body)
}

func (s *Service) setGroups(ctx context.Context, userID string, groups []string) (core.Response, error) {
	body := map[string]any{
		core.AttrUserID:     core.Reference{ID: userID, Type: core.ReferenceTypeExternal},
		core.AttrUserGroups: groups,
	}
	return s.executor.Execute(ctx, core.EndpointUpdateUserGroups, http.MethodPost, nil, body)
}

func (s *Service) viewGroups(ctx context.Context, userID string) (core.Response, error) {
	body := map[string]any{
		core.AttrUserID: core.Reference{ID: userID, Type: core.ReferenceTypeExternal},
	}
	res, err := s.executor.Execute(ctx, core.EndpointViewUserGroups, http.MethodPost, nil, body)
	if err != nil || res.Failed() {
		return res, err
	}
	groups := res.Body[core.AttrUserGroups]
	res.Body = map[string]any{core.AttrUserGroups: groups}
	return res, nil
}

// updateBody folds encoded query parameters into the body map; the
// update endpoint takes every attribute in the body, unlike create.
func updateBody(payload core.RequestPayload) map[string]any {
	body := map[string]any{}
	for _, param := range payload.Params {
		body[param.Name] = param.Value
	}
	for name, value := range payload.Body {
		body[name] = value
	}
	return body
}

// externalUserID extracts the external identifier from a vendor user
// response body.
func externalUserID(body map[string]any) string {
	entries, _ := body[core.AttrUserIDs].([]any)
	for _, entry := range entries {
		idMap, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		idType, _ := idMap[core.FieldType].(string)
		if strings.EqualFold(idType, core.ReferenceTypeExternal) {
			id, _ := idMap[core.FieldID].(string)
			return id
		}
	}
	return ""
}

func responseMessage(body map[string]any) string {
	if body == nil {
		return ""
	}
	if message, ok := body[core.ResponseKeyMessage].(string); ok {
		return message
	}
	return ""
}

func cloneAttrs(attrs map[string]any) map[string]any {
	cloned := make(map[string]any, len(attrs))
	for key, value := range attrs {
		cloned[key] = value
	}
	return cloned
}

func popString(attrs map[string]any, key string) string {
	value, ok := attrs[key]
	if !ok {
		return ""
	}
	delete(attrs, key)
	if text, ok := value.(string); ok {
		return strings.TrimSpace(text)
	}
	return ""
}

func popStringSlice(attrs map[string]any, key string) []string {
	value, ok := attrs[key]
	if !ok {
		return nil
	}
	delete(attrs, key)
	switch typed := value.(type) {
	case []string:
		return typed
	case []any:
		out := make([]string, 0, len(typed))
		for _, entry := range typed {
			if text, ok := entry.(string); ok {
				out = append(out, text)
			}
		}
		return out
	default:
		return nil
	}
}
