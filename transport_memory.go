package mqttree

import (
	"context"
	"fmt"
	"sync"
)

// MemoryTransport is an in-process loopback broker implementing Transport.
//
// Published messages are recorded, retained messages are kept per topic and
// replayed on Subscribe, and every publish is delivered to matching
// subscribers. It is safe for concurrent use.
type MemoryTransport struct {
	mu          sync.Mutex
	connected   bool
	connects    int
	will        *Message
	published   []*Message
	retained    map[string]*Message
	subs        *TopicMatcher
	failConnect error
	failPublish error
}

// NewMemoryTransport creates a disconnected loopback transport.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{
		retained: make(map[string]*Message),
		subs:     NewTopicMatcher(),
	}
}

// Connect marks the transport connected and stores the will message.
func (t *MemoryTransport) Connect(ctx context.Context, will *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.failConnect != nil {
		return t.failConnect
	}

	t.connected = true
	t.connects++
	t.will = will.Clone()

	return nil
}

// IsConnected reports whether Connect succeeded and Disconnect was not called since.
func (t *MemoryTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// Publish records msg, updates the retained store and delivers msg to subscribers.
func (t *MemoryTransport) Publish(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := ValidateTopicName(msg.Topic); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	t.mu.Lock()
	if !t.connected {
		t.mu.Unlock()
		return ErrNotConnected
	}
	if t.failPublish != nil {
		err := t.failPublish
		t.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	stored := msg.Clone()
	t.published = append(t.published, stored)
	t.retain(stored)
	t.mu.Unlock()

	t.deliver(stored)

	return nil
}

// retain stores or clears the retained message of a topic. Caller holds mu.
func (t *MemoryTransport) retain(msg *Message) {
	if !msg.Retain {
		return
	}

	// Empty payload means delete
	if len(msg.Payload) == 0 {
		delete(t.retained, msg.Topic)
		return
	}
	t.retained[msg.Topic] = msg
}

func (t *MemoryTransport) deliver(msg *Message) {
	for _, handler := range t.subs.Match(msg.Topic) {
		handler(msg.Clone())
	}
}

// Subscribe registers handler and replays matching retained messages to it.
func (t *MemoryTransport) Subscribe(ctx context.Context, filter string, _ byte, handler MessageHandler) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	if !t.connected {
		t.mu.Unlock()
		return ErrNotConnected
	}

	if err := t.subs.Add(filter, handler); err != nil {
		t.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	var replay []*Message
	for topic, msg := range t.retained {
		if TopicMatch(filter, topic) {
			replay = append(replay, msg)
		}
	}
	t.mu.Unlock()

	for _, msg := range replay {
		handler(msg.Clone())
	}

	return nil
}

// Inject delivers a message from another client to the matching subscribers.
func (t *MemoryTransport) Inject(topic string, payload []byte) {
	msg := &Message{Topic: topic, Payload: payload}

	t.mu.Lock()
	t.retain(msg)
	t.mu.Unlock()

	t.deliver(msg)
}

// Disconnect drops the session and, like a broker on an unclean
// disconnect, publishes the stored will message.
func (t *MemoryTransport) Disconnect() {
	t.mu.Lock()
	if !t.connected {
		t.mu.Unlock()
		return
	}
	t.connected = false
	will := t.will
	t.will = nil
	if will != nil {
		t.published = append(t.published, will)
		t.retain(will)
	}
	t.mu.Unlock()

	if will != nil {
		t.deliver(will)
	}
}

// FailConnect makes subsequent Connect calls return err. Pass nil to clear.
func (t *MemoryTransport) FailConnect(err error) {
	t.mu.Lock()
	t.failConnect = err
	t.mu.Unlock()
}

// FailPublish makes subsequent Publish calls fail with err. Pass nil to clear.
func (t *MemoryTransport) FailPublish(err error) {
	t.mu.Lock()
	t.failPublish = err
	t.mu.Unlock()
}

// Published returns the messages published so far, oldest first.
func (t *MemoryTransport) Published() []*Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*Message, len(t.published))
	copy(out, t.published)
	return out
}

// LastPublished returns the most recent message published on topic.
func (t *MemoryTransport) LastPublished(topic string) (*Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := len(t.published) - 1; i >= 0; i-- {
		if t.published[i].Topic == topic {
			return t.published[i], true
		}
	}
	return nil, false
}

// ClearPublished forgets the recorded messages.
func (t *MemoryTransport) ClearPublished() {
	t.mu.Lock()
	t.published = nil
	t.mu.Unlock()
}

// Retained returns the retained message of topic.
func (t *MemoryTransport) Retained(topic string) (*Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	msg, ok := t.retained[topic]
	return msg, ok
}

// Will returns the will message given to the last Connect.
func (t *MemoryTransport) Will() *Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.will
}

// Subscriptions returns the subscribed filters in subscription order.
func (t *MemoryTransport) Subscriptions() []string {
	return t.subs.Filters()
}

// Connects returns the number of successful Connect calls.
func (t *MemoryTransport) Connects() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connects
}
