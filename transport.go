package mqttree

import "context"

// Transport is the protocol client the tree publishes through.
//
// Implementations perform the wire handshake, keep-alive and packet
// encoding. Calls are made synchronously from Client.Handle; the tree does
// not retry or time them out beyond the context it is given.
//
// Handlers passed to Subscribe may be invoked from any goroutine.
type Transport interface {
	// Connect establishes the session. will, when non-nil, is the last-will message.
	Connect(ctx context.Context, will *Message) error

	// IsConnected reports whether the session is up.
	IsConnected() bool

	// Publish sends one message.
	Publish(ctx context.Context, msg *Message) error

	// Subscribe registers handler for messages matching filter.
	Subscribe(ctx context.Context, filter string, qos byte, handler MessageHandler) error
}
