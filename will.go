package mqttree

import "github.com/vitalvas/mqttree/codec"

// Will is a string topic announcing the device presence. Its message is
// registered with the broker as last will on connect; values stored with
// Set (for example "online") are published on the next tick.
//
// A will is not part of the tree: it is attached with Client.SetWill, its
// parent is the root and it never receives inbound messages.
type Will struct {
	*scalar[string]
	configurer[*Will]

	value   string
	message string
}

// NewWill returns a will topic publishing message when the connection is lost.
// An invalid name yields an invalid handle.
func NewWill(name, message string, qos byte, retained bool) *Will {
	n := invalidNode
	if ValidateName(name) == nil {
		cfg := AutoPublish.WithQoS(qos)
		if retained {
			cfg |= Retained
		}
		n = &node{name: name, state: cfg, format: codec.DefaultDescriptor()}
	}

	w := &Will{message: message}
	w.scalar = &scalar[string]{
		node:  n,
		load:  func() string { return w.value },
		store: func(s string) { w.value = s },
	}
	w.configurer = configurer[*Will]{target: n, handle: w}
	if n.valid() {
		n.self = w
	}
	return w
}

// Message returns the last-will payload.
func (w *Will) Message() string {
	if !w.valid() {
		return ""
	}
	return w.message
}

// lastWill returns the message handed to Transport.Connect.
func (w *Will) lastWill() *Message {
	return &Message{
		Topic:   FinalTopic(w.PublishTopic()),
		Payload: []byte(w.message),
		QoS:     w.QoS(),
		Retain:  w.IsRetained(),
	}
}
