package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/clearskye/epic-connector/core"
)

// MutatingService is the slice of the connector the commands need.
type MutatingService interface {
	CreateUser(ctx context.Context, attrs map[string]any) (core.OperationResult, error)
	UpdateUser(ctx context.Context, userID string, attrs map[string]any) (core.OperationResult, error)
	DeleteUser(ctx context.Context, userID string) (core.OperationResult, error)
	ActivateUser(ctx context.Context, userID string) (core.OperationResult, error)
	DeactivateUser(ctx context.Context, userID string) (core.OperationResult, error)
	SetPassword(ctx context.Context, userID, password string) (core.OperationResult, error)
	UpdateGroups(ctx context.Context, userID string, groups []string) (core.OperationResult, error)
}

type CreateUserCommand struct {
	service MutatingService
}

func NewCreateUserCommand(service MutatingService) *CreateUserCommand {
	return &CreateUserCommand{service: service}
}

func (c *CreateUserCommand) Execute(ctx context.Context, msg CreateUserMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: create user service is required")
	}
	out, err := c.service.CreateUser(ctx, msg.Attributes)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateUserCommand struct {
	service MutatingService
}

func NewUpdateUserCommand(service MutatingService) *UpdateUserCommand {
	return &UpdateUserCommand{service: service}
}

func (c *UpdateUserCommand) Execute(ctx context.Context, msg UpdateUserMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: update user service is required")
	}
	out, err := c.service.UpdateUser(ctx, msg.UserID, msg.Attributes)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteUserCommand struct {
	service MutatingService
}

func NewDeleteUserCommand(service MutatingService) *DeleteUserCommand {
	return &DeleteUserCommand{service: service}
}

func (c *DeleteUserCommand) Execute(ctx context.Context, msg DeleteUserMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: delete user service is required")
	}
	out, err := c.service.DeleteUser(ctx, msg.UserID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ActivateUserCommand struct {
	service MutatingService
}

func NewActivateUserCommand(service MutatingService) *ActivateUserCommand {
	return &ActivateUserCommand{service: service}
}

func (c *ActivateUserCommand) Execute(ctx context.Context, msg ActivateUserMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: activate user service is required")
	}
	out, err := c.service.ActivateUser(ctx, msg.UserID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeactivateUserCommand struct {
	service MutatingService
}

func NewDeactivateUserCommand(service MutatingService) *DeactivateUserCommand {
	return &DeactivateUserCommand{service: service}
}

func (c *DeactivateUserCommand) Execute(ctx context.Context, msg DeactivateUserMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: deactivate user service is required")
	}
	out, err := c.service.DeactivateUser(ctx, msg.UserID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SetPasswordCommand struct {
	service MutatingService
}

func NewSetPasswordCommand(service MutatingService) *SetPasswordCommand {
	return &SetPasswordCommand{service: service}
}

func (c *SetPasswordCommand) Execute(ctx context.Context, msg SetPasswordMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: set password service is required")
	}
	out, err := c.service.SetPassword(ctx, msg.UserID, msg.Password)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateGroupsCommand struct {
	service MutatingService
}

func NewUpdateGroupsCommand(service MutatingService) *UpdateGroupsCommand {
	return &UpdateGroupsCommand{service: service}
}

func (c *UpdateGroupsCommand) Execute(ctx context.Context, msg UpdateGroupsMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: update groups service is required")
	}
	out, err := c.service.UpdateGroups(ctx, msg.UserID, msg.Groups)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
