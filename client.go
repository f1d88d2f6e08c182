package mqttree

import (
	"context"
	"errors"
	"time"

	"github.com/tidwall/sjson"
	"golang.org/x/time/rate"

	"github.com/vitalvas/mqttree/arena"
)

// State is the connection state returned by Client.Handle.
type State int8

const (
	// StateInvalidName means the root name is empty.
	StateInvalidName State = -3
	// StateInvalidTopic means the root name is not a valid topic name.
	StateInvalidTopic State = -2
	// StateInvalidTransport means no transport is configured.
	StateInvalidTransport State = -1
	// StateDisconnected means the next tick attempts to connect.
	StateDisconnected State = 0
	// StateConnecting means the session is being established.
	StateConnecting State = 1
	// StateReconnected means the next tick subscribes and publishes every topic.
	StateReconnected State = 2
	// StateConnected is the regular processing state.
	StateConnected State = 3
)

var stateNames = map[State]string{
	StateInvalidName:      "invalid name",
	StateInvalidTopic:     "invalid topic",
	StateInvalidTransport: "invalid transport",
	StateDisconnected:     "disconnected",
	StateConnecting:       "connecting",
	StateReconnected:      "reconnected",
	StateConnected:        "connected",
}

// String returns the string representation of the state.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsValid reports whether the client configuration allows connecting.
func (s State) IsValid() bool {
	return s >= StateDisconnected
}

// Client is the root group of a topic tree bound to a transport.
//
// All tree operations, including Handle, must run on one goroutine.
// Transport callbacks only enqueue inbound messages; they are dispatched
// by the next Handle call.
type Client struct {
	*Group

	options *clientOptions
	cfg     Defaults
	alloc   *arena.Arena
	logger  Logger
	metrics *TreeMetrics
	limiter *rate.Limiter

	transport Transport
	connState State

	status *Value[string]
	will   *Will
	inbox  chan *Message
}

// NewClient creates the root group named name. The name is the first
// element of every topic path unless a topic is absolute.
func NewClient(name string, opts ...Option) *Client {
	options := applyOptions(opts...)

	c := &Client{
		options:   options,
		cfg:       options.defaults,
		alloc:     arena.New(options.defaults.ArenaSize),
		logger:    options.logger.WithFields(LogFields{LogFieldClient: name}),
		metrics:   NewTreeMetrics(options.metrics),
		transport: options.transport,
		connState: StateDisconnected,
		inbox:     make(chan *Message, options.inboxSize),
	}
	if options.publishRate > 0 {
		c.limiter = rate.NewLimiter(options.publishRate, max(options.publishBurst, 1))
	}

	root := &node{
		name:   name,
		tree:   c,
		state:  c.cfg.Config,
		format: c.cfg.Format,
	}
	c.Group = newGroup(root)

	if options.statusTopic != "" {
		c.SetStatusTopic(options.statusTopic)
	}
	if options.will != nil {
		c.SetWill(options.will)
	}

	return c
}

// newNode reserves arena space for a topic named name with size bytes of
// value storage. The node copies the persistent register and format of parent;
// absolute topics start neither requestable nor auto-published.
func (c *Client) newNode(parent *Group, name string, size int) (*node, ResultCode) {
	block := c.alloc.Alloc(nodeOverhead + len(name) + size)
	if !block.Valid() {
		c.logger.Error("arena exhausted", LogFields{
			LogFieldTopic: name,
			LogFieldBytes: nodeOverhead + len(name) + size,
			LogFieldCode:  OutOfMemory,
		})
		c.metrics.Registered("out of memory")
		return nil, OutOfMemory
	}
	c.metrics.ArenaBytes(c.alloc.Used())

	state := parent.state &^ transientFlags
	if IsAbsolute(name) {
		state = state.Without(Requestable | AutoPublish)
	}

	return &node{
		name:   name,
		parent: parent,
		tree:   c,
		state:  state,
		format: parent.format,
		block:  block,
	}, Ok
}

// releaseNode returns the arena block of a node that was not attached.
func (c *Client) releaseNode(n *node) {
	if err := c.alloc.Release(n.block); err != nil {
		c.logger.Error("arena release failed", LogFields{LogFieldTopic: n.name, LogFieldError: err})
		return
	}
	n.block = arena.Block{}
	c.metrics.ArenaBytes(c.alloc.Used())
}

// nodeBytes returns the arena memory reserved for n.
func (c *Client) nodeBytes(n *node) []byte {
	return c.alloc.Bytes(n.block)
}

// Defaults returns the normalized tree defaults.
func (c *Client) Defaults() Defaults {
	return c.cfg
}

// ArenaStats returns the node arena statistics.
func (c *Client) ArenaStats() arena.Stats {
	return c.alloc.Stats()
}

// State returns the state returned by the last Handle call.
func (c *Client) State() State {
	return c.connState
}

// Handle runs one tick and returns the new state.
//
// A disconnected client validates its configuration and connects. The tick
// after a successful connect subscribes every request and set topic and
// publishes every topic. Regular ticks dispatch queued inbound messages,
// publish the will, poll external storage, publish flagged topics and
// finally publish the status.
func (c *Client) Handle(ctx context.Context) State {
	start := time.Now()

	prev := c.connState
	next := c.handle(ctx, prev)
	c.connState = next

	if next != prev {
		c.logger.Debug("state changed", LogFields{LogFieldState: next.String()})
		c.emit(&StateChangeEvent{From: prev, To: next})
	}
	c.metrics.Tick(time.Since(start))

	return next
}

func (c *Client) handle(ctx context.Context, prev State) State {
	if c.transport == nil {
		c.logger.Error("handle failed", LogFields{LogFieldError: ErrNoTransport})
		return StateInvalidTransport
	}

	connected := c.transport.IsConnected()

	if prev <= StateDisconnected && !connected {
		if state := c.validate(); state != StateDisconnected {
			return state
		}

		c.logger.Debug("connecting", nil)
		if err := c.transport.Connect(ctx, c.lastWill()); err != nil {
			c.logger.Warn("connect failed", LogFields{LogFieldError: err})
			c.emit(&ConnectFailedEvent{Err: err})
			return StateDisconnected
		}

		c.logger.Info("connected", nil)
		c.emit(ErrConnected)
		if !c.transport.IsConnected() {
			return StateConnecting
		}
		return StateReconnected
	}

	if !connected {
		c.logger.Warn("connection lost", nil)
		c.emit(ErrConnectionLost)
		return StateDisconnected
	}

	if prev != StateConnected {
		if !c.subscribe(ctx) {
			return StateReconnected
		}
		c.Group.publish(ctx, c, true)
		return StateConnected
	}

	c.drain()

	if c.will != nil && c.will.NeedsPublish() {
		c.publishTopic(ctx, c.will)
	}

	c.Check()
	c.Group.publish(ctx, c, false)

	if c.status != nil && c.status.NeedsPublish() {
		c.publishTopic(ctx, c.status)
	}

	return StateConnected
}

// validate checks the root configuration before a connection attempt.
func (c *Client) validate() State {
	switch err := ValidateName(c.name); {
	case errors.Is(err, ErrEmptyName):
		c.logger.Error("client name empty", nil)
		return StateInvalidName
	case err != nil:
		c.logger.Error("client name invalid", LogFields{LogFieldTopic: c.name, LogFieldError: err})
		return StateInvalidTopic
	}
	return StateDisconnected
}

// subscribe registers every derived request and set topic with the transport.
func (c *Client) subscribe(ctx context.Context) bool {
	subs := c.subscriptions(nil)
	for _, filter := range c.options.subscriptions {
		subs = append(subs, subscription{topic: filter})
	}

	for _, sub := range subs {
		if err := c.transport.Subscribe(ctx, sub.topic, sub.qos, c.enqueue); err != nil {
			c.logger.Error("subscribe failed", LogFields{LogFieldTopic: sub.topic, LogFieldError: err})
			return false
		}
		c.logger.Debug("subscribed", LogFields{LogFieldTopic: sub.topic, LogFieldQoS: sub.qos})
	}
	c.metrics.Subscriptions(len(subs))

	return true
}

// enqueue is the transport message handler. It may run on any goroutine.
func (c *Client) enqueue(msg *Message) {
	select {
	case c.inbox <- msg.Clone():
	default:
		c.metrics.InboundDropped()
		c.logger.Warn("inbox full, message dropped", LogFields{LogFieldTopic: msg.Topic})
	}
}

// drain dispatches the messages queued since the last tick.
func (c *Client) drain() {
	for {
		select {
		case msg := <-c.inbox:
			c.HandleMessage(msg.Topic, msg.Payload)
		default:
			return
		}
	}
}

// HandleMessage dispatches one inbound message synchronously and reports
// whether a topic handled it. Every handled message sets a status; an
// unmatched one goes to the fallback handler or is reported UnknownTopic.
func (c *Client) HandleMessage(topic string, payload []byte) bool {
	msg := applyConsumerInterceptors(c.logger, c.options.consumerInterceptors, &Message{
		Topic:   topic,
		Payload: payload,
	})
	if msg == nil {
		return false
	}

	text := string(msg.Payload)
	c.logger.Debug("message received", LogFields{LogFieldTopic: msg.Topic, LogFieldPayload: text})

	_, code, ok := c.Group.dispatch(msg.Topic, text)
	if !ok {
		if c.options.fallback != nil {
			c.options.fallback(msg)
			return false
		}
		c.metrics.Dispatched(UnknownTopic)
		c.SetStatus(UnknownTopic, msg.Topic, "")
		return false
	}

	c.metrics.Dispatched(code)
	if code == Ok {
		c.SetStatus(code, msg.Topic, "")
	} else {
		c.SetStatus(code, msg.Topic, text)
	}

	return true
}

// publishTopic hands the current value of t to the transport.
//
// Absolute topics are only emitted while flagged: they are also set
// through their own path, and publishing them unconditionally would feed
// every value back into the tree.
func (c *Client) publishTopic(ctx context.Context, t Topic) bool {
	if !t.Valid() || c.transport == nil {
		return false
	}
	if IsAbsolute(t.FullTopic()) && !t.NeedsPublish() {
		return false
	}

	n := t.base()

	if c.limiter != nil && !c.limiter.Allow() {
		c.metrics.PublishDeferred()
		n.state |= needsPublish
		return false
	}

	msg := &Message{
		Topic:   FinalTopic(t.PublishTopic()),
		Payload: []byte(t.Payload()),
		QoS:     t.QoS(),
		Retain:  t.IsRetained(),
	}
	if err := ValidateTopicName(msg.Topic); err != nil {
		c.logger.Error("invalid publish topic", LogFields{LogFieldTopic: msg.Topic, LogFieldError: err})
		n.state &^= needsPublish
		return false
	}

	msg = applyProducerInterceptors(c.logger, c.options.producerInterceptors, msg)
	if msg == nil {
		n.state &^= needsPublish
		return false
	}

	if err := c.transport.Publish(ctx, msg); err != nil {
		c.metrics.PublishFailed()
		c.logger.Warn("publish failed", LogFields{LogFieldTopic: msg.Topic, LogFieldError: err})
		return false
	}

	n.state &^= needsPublish
	c.metrics.Published(msg.QoS)
	c.logger.Debug("published", LogFields{
		LogFieldTopic:   msg.Topic,
		LogFieldPayload: string(msg.Payload),
		LogFieldQoS:     msg.QoS,
	})

	return true
}

func (c *Client) emit(event error) {
	if c.options.onEvent != nil {
		c.options.onEvent(c, event)
	}
}

// SetStatusTopic creates the status topic on first use and returns it.
// The status topic lives under the root but is not one of its children:
// it is neither settable nor dispatched to, and it always auto-publishes.
func (c *Client) SetStatusTopic(name string) *Value[string] {
	if c.status != nil {
		return c.status
	}
	if err := ValidateName(name); err != nil {
		c.logger.Warn("status topic rejected", LogFields{LogFieldTopic: name, LogFieldError: err})
		return invalidValue[string]()
	}
	if c.Get(name).Valid() {
		c.logger.Warn("status topic rejected", LogFields{LogFieldTopic: name, LogFieldError: "duplicate path"})
		c.metrics.Registered("duplicate")
		return invalidValue[string]()
	}

	n, code := c.newNode(c.Group, name, sizeOf[string]())
	if code != Ok {
		return invalidValue[string]()
	}

	v := newValue(n, "", false)
	n.self = v
	v.SetSettable(false).SetAutoPublish(true)
	c.status = v

	return v
}

// StatusTopic returns the status topic, or an invalid handle when none is set.
func (c *Client) StatusTopic() *Value[string] {
	if c.status == nil {
		return invalidValue[string]()
	}
	return c.status
}

// SetStatus stores a status record for topic on the status topic.
// message, when set, is appended to the per-code text.
//
// The record is dropped, and false returned, when there is no status
// topic or the previous record has not been published yet.
func (c *Client) SetStatus(code ResultCode, topic, message string) bool {
	text := code.String()
	if message != "" {
		text += ": " + message
	}

	fields := LogFields{LogFieldCode: int(code), LogFieldTopic: topic}
	if code.IsError() {
		c.logger.Error(text, fields)
	} else {
		c.logger.Debug(text, fields)
	}

	if c.status == nil {
		return false
	}
	if c.status.NeedsPublish() {
		c.metrics.StatusDropped()
		return false
	}

	record, err := statusRecord(code, text, topic)
	if err != nil {
		c.logger.Error("status encoding failed", LogFields{LogFieldError: err})
		return false
	}
	c.status.Set(record)

	return true
}

// statusRecord renders {"code":N,"message"|"error":"text","topic":"t"}.
func statusRecord(code ResultCode, text, topic string) (string, error) {
	key := "message"
	if code.IsError() {
		key = "error"
	}

	record, err := sjson.Set("", "code", int(code))
	if err != nil {
		return "", err
	}
	if record, err = sjson.Set(record, key, text); err != nil {
		return "", err
	}
	if topic != "" {
		if record, err = sjson.Set(record, "topic", topic); err != nil {
			return "", err
		}
	}
	return record, nil
}

// SetWill attaches w as the will topic. It takes effect on the next connect.
// A nil will detaches the current one.
func (c *Client) SetWill(w *Will) *Will {
	if w == nil {
		c.will = nil
		return nil
	}
	if !w.Valid() {
		return w
	}

	w.parent = c.Group
	w.tree = c
	c.will = w

	return w
}

// Will returns the attached will topic, or nil.
func (c *Client) Will() *Will {
	return c.will
}

func (c *Client) lastWill() *Message {
	if c.will == nil {
		return nil
	}
	return c.will.lastWill()
}
