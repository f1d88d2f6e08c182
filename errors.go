package mqttree

import (
	"errors"
	"fmt"
)

// EventHandler receives client lifecycle events.
type EventHandler func(client *Client, event error)

// Sentinel events for client lifecycle - check with errors.Is().
var (
	// ErrConnected is emitted when the transport connection is established.
	ErrConnected = errors.New("connected")

	// ErrConnectionLost is emitted when the transport reports a lost connection.
	ErrConnectionLost = errors.New("connection lost")

	// ErrConnectFailed is emitted when a connection attempt fails.
	ErrConnectFailed = errors.New("connect failed")
)

// Sentinel errors for transport operations - check with errors.Is().
var (
	// ErrPublishFailed is returned when a publish operation fails.
	ErrPublishFailed = errors.New("publish failed")

	// ErrSubscribeFailed is returned when a subscribe operation fails.
	ErrSubscribeFailed = errors.New("subscribe failed")

	// ErrNotConnected is returned when an operation requires an active connection.
	ErrNotConnected = errors.New("not connected")

	// ErrNoTransport is returned when the client has no transport configured.
	ErrNoTransport = errors.New("no transport configured")
)

// ConnectFailedEvent carries the transport error of a failed connection attempt.
// Extract with errors.As().
type ConnectFailedEvent struct {
	Err error
}

func (e *ConnectFailedEvent) Error() string {
	return fmt.Sprintf("%s: %v", ErrConnectFailed, e.Err)
}

func (e *ConnectFailedEvent) Unwrap() []error { return []error{ErrConnectFailed, e.Err} }

// StateChangeEvent is emitted whenever Handle moves the client to a new state.
// Extract with errors.As().
type StateChangeEvent struct {
	From State
	To   State
}

func (e *StateChangeEvent) Error() string {
	return fmt.Sprintf("state %s -> %s", e.From, e.To)
}
