// Package command exposes the connector's mutating operations as
// go-command messages so hosts can dispatch them through a command bus.
package command

import (
	"fmt"
	"strings"
)

const (
	TypeCreateUser     = "connector.command.user.create"
	TypeUpdateUser     = "connector.command.user.update"
	TypeDeleteUser     = "connector.command.user.delete"
	TypeActivateUser   = "connector.command.user.activate"
	TypeDeactivateUser = "connector.command.user.deactivate"
	TypeSetPassword    = "connector.command.user.set_password"
	TypeUpdateGroups   = "connector.command.user.update_groups"
)

type CreateUserMessage struct {
	Attributes map[string]any
}

func (CreateUserMessage) Type() string { return TypeCreateUser }

func (m CreateUserMessage) Validate() error {
	if len(m.Attributes) == 0 {
		return fmt.Errorf("command: user attributes are required")
	}
	return nil
}

type UpdateUserMessage struct {
	UserID     string
	Attributes map[string]any
}

func (UpdateUserMessage) Type() string { return TypeUpdateUser }

func (m UpdateUserMessage) Validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return fmt.Errorf("command: user id is required")
	}
	if len(m.Attributes) == 0 {
		return fmt.Errorf("command: user attributes are required")
	}
	return nil
}

type DeleteUserMessage struct {
	UserID string
}

func (DeleteUserMessage) Type() string { return TypeDeleteUser }

func (m DeleteUserMessage) Validate() error {
	return validateUserID(m.UserID)
}

type ActivateUserMessage struct {
	UserID string
}

func (ActivateUserMessage) Type() string { return TypeActivateUser }

func (m ActivateUserMessage) Validate() error {
	return validateUserID(m.UserID)
}

type DeactivateUserMessage struct {
	UserID string
}

func (DeactivateUserMessage) Type() string { return TypeDeactivateUser }

func (m DeactivateUserMessage) Validate() error {
	return validateUserID(m.UserID)
}

type SetPasswordMessage struct {
	UserID   string
	Password string
}

func (SetPasswordMessage) Type() string { return TypeSetPassword }

func (m SetPasswordMessage) Validate() error {
	if err := validateUserID(m.UserID); err != nil {
		return err
	}
	if m.Password == "" {
		return fmt.Errorf("command: password is required")
	}
	return nil
}

type UpdateGroupsMessage struct {
	UserID string
	Groups []string
}

func (UpdateGroupsMessage) Type() string { return TypeUpdateGroups }

func (m UpdateGroupsMessage) Validate() error {
	return validateUserID(m.UserID)
}

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("command: user id is required")
	}
	return nil
}
