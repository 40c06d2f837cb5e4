package chat

import (
	"errors"
	"fmt"
)

// Domain errors surfaced by the chat services. Validation and reference
// errors indicate caller bugs and must never be retried; infrastructure
// failures come back as wrapped store errors and are retryable.
var (
	ErrEmptyChannelName   = errors.New("channel name must not be empty")
	ErrInvalidChannelType = errors.New("channel type must be public, private, or direct")
	ErrChannelNotFound    = errors.New("channel not found")

	ErrInvalidRole    = errors.New("role must be admin or member")
	ErrMemberNotFound = errors.New("user is not a member of this channel")
	ErrAlreadyMember  = errors.New("user is already a member of this channel")
	ErrLastAdmin      = errors.New("channel must keep at least one admin")

	ErrMessageNotFound    = errors.New("message not found")
	ErrEmptyContent       = errors.New("text message content must not be empty")
	ErrMissingFileURL     = errors.New("file and image messages require a file URL")
	ErrInvalidMessageType = errors.New("message type must be text, file, or image")
	ErrInvalidReply       = errors.New("reply target must be an existing message in the same channel")
	ErrEmptySearch        = errors.New("search term must not be empty")
)

// DependencyError reports a channel cascade that failed before reaching the
// channel row itself. The channel and any not-yet-deleted children are left
// intact; the delete can be retried.
type DependencyError struct {
	// Step names the child collection whose deletion failed
	// ("messages" or "memberships").
	Step string
	Err  error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("delete channel %s: %v", e.Step, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}
