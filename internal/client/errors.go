package client

import (
	"errors"
	"fmt"
)

// ErrConnectionLost reports a transport drop. Recoverable: the connection
// manager reconnects, re-issues setup and re-joins rooms on its own.
var ErrConnectionLost = errors.New("connection lost")

// ErrClosed reports use of a connection after Close.
var ErrClosed = errors.New("connection closed")

// MembershipViolationError is the relay rejecting a send to a room this
// connection never joined.
type MembershipViolationError struct {
	ChatID string
}

func (e *MembershipViolationError) Error() string {
	return fmt.Sprintf("membership violation: not joined to chat %s", e.ChatID)
}

// SendFailureError reports a failed message persistence call. The optimistic
// transcript entry is marked failed, never silently kept as delivered.
type SendFailureError struct {
	ChatID string
	Err    error
}

func (e *SendFailureError) Error() string {
	return fmt.Sprintf("send to chat %s failed: %v", e.ChatID, e.Err)
}

func (e *SendFailureError) Unwrap() error {
	return e.Err
}
