// Package chat turns chat commands into poem service calls and routes the
// resulting replies to a channel or privately to a nick.
package chat

import "errors"

var (
	// ErrUnknownCommand is returned for commands the dispatcher does not handle.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrForbidden is returned when a non-admin nick issues a moderation command.
	ErrForbidden = errors.New("command requires admin")
)
