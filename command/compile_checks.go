package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[CreateUserMessage]     = (*CreateUserCommand)(nil)
	_ gocmd.Commander[UpdateUserMessage]     = (*UpdateUserCommand)(nil)
	_ gocmd.Commander[DeleteUserMessage]     = (*DeleteUserCommand)(nil)
	_ gocmd.Commander[ActivateUserMessage]   = (*ActivateUserCommand)(nil)
	_ gocmd.Commander[DeactivateUserMessage] = (*DeactivateUserCommand)(nil)
	_ gocmd.Commander[SetPasswordMessage]    = (*SetPasswordCommand)(nil)
	_ gocmd.Commander[UpdateGroupsMessage]   = (*UpdateGroupsCommand)(nil)
)
