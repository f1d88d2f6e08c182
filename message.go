package mqttree

// Message is one application message exchanged with the transport.
type Message struct {
	// Topic is the final topic name, without a leading '/'.
	Topic string

	// Payload is the message payload.
	Payload []byte

	// QoS is the Quality of Service level (0, 1, or 2).
	QoS byte

	// Retain indicates if the broker should keep this message for new subscribers.
	Retain bool
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}

	clone := *m
	if m.Payload != nil {
		clone.Payload = make([]byte, len(m.Payload))
		copy(clone.Payload, m.Payload)
	}
	return &clone
}

// MessageHandler is called for each message delivered by the transport.
type MessageHandler func(msg *Message)
