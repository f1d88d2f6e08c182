package mqttree

import (
	"github.com/vitalvas/mqttree/arena"
	"github.com/vitalvas/mqttree/codec"
)

// Topic is one addressable endpoint of the tree.
//
// The set of implementations is closed: *Group (and the *Client root),
// *Value, *Variable, *Reference, *Array, *Function, *JSONTopic and *Will.
// Every method is safe to call on an invalid handle and returns the zero
// value of its result.
type Topic interface {
	// Name returns the node name as registered.
	Name() string
	// Valid reports whether the handle refers to a registered node.
	Valid() bool
	// NameValid reports whether the node name is a valid topic name.
	NameValid() bool
	// Parent returns the owning group.
	Parent() *Group

	Config() Config
	QoS() byte
	IsRetained() bool
	IsAutoPublish() bool
	IsRequestable() bool
	IsSettable() bool

	// NeedsPublish reports whether the node (or, for groups, any descendant)
	// will be emitted on the next publish pass.
	NeedsPublish() bool
	// Republish schedules the node for the next publish pass.
	Republish()
	// MarkChanged sets or clears the Changed flag.
	MarkChanged(changed bool)
	// HasBeenChanged reads the Changed flag and clears it when clear is true.
	HasBeenChanged(clear bool) bool

	// FullTopic returns the path of the node under the effective order.
	FullTopic() string
	// RequestTopic returns the derived request sub-topic, or "" if not requestable.
	RequestTopic() string
	// SetTopic returns the derived set sub-topic, or "" if not settable.
	SetTopic() string
	// PublishTopic returns the topic the value is published on.
	PublishTopic() string

	// Payload renders the current value.
	Payload() string
	// SetFromPayload parses payload into the node.
	SetFromPayload(payload string) ResultCode
	// Check reconciles the node with externally owned storage.
	Check()

	ConfigString() string

	base() *node
}

// RequestHandler handles a message received on a request sub-topic.
type RequestHandler func(t Topic, payload string) ResultCode

// PayloadHandler handles a message received on a set sub-topic,
// replacing the default SetFromPayload.
type PayloadHandler func(t Topic, payload string) ResultCode

// nodeOverhead is the arena footprint of a node besides its name and value.
const nodeOverhead = 32

// node is the state shared by every topic.
type node struct {
	name   string
	parent *Group
	self   Topic
	group  *Group
	tree   *Client

	state  Config
	locked Config // bits that can never be set
	format codec.Descriptor
	block  arena.Block

	onRequest RequestHandler
	onPayload PayloadHandler
}

// invalidNode is the shared sentinel behind every invalid handle.
var invalidNode = &node{}

func (n *node) valid() bool {
	return n != nil && n != invalidNode
}

func (n *node) base() *node {
	return n
}

func (n *node) Name() string {
	if !n.valid() {
		return ""
	}
	return n.name
}

func (n *node) Valid() bool {
	return n.valid()
}

func (n *node) NameValid() bool {
	return n.valid() && ValidateName(n.name) == nil
}

func (n *node) Parent() *Group {
	if !n.valid() || n.parent == nil {
		return invalidGroup
	}
	return n.parent
}

func (n *node) Config() Config {
	if !n.valid() {
		return 0
	}
	return n.state
}

func (n *node) QoS() byte {
	return n.Config().QoS()
}

func (n *node) IsRetained() bool {
	return n.Config().Has(Retained)
}

func (n *node) IsAutoPublish() bool {
	return n.Config().Has(AutoPublish)
}

func (n *node) IsRequestable() bool {
	return n.Config().Has(Requestable)
}

func (n *node) IsSettable() bool {
	return n.Config().Has(Settable)
}

func (n *node) NeedsPublish() bool {
	return n.Config().Has(needsPublish)
}

func (n *node) Republish() {
	if n.valid() {
		n.state |= needsPublish
	}
}

func (n *node) MarkChanged(changed bool) {
	if !n.valid() {
		return
	}
	if changed {
		n.state |= changedFlag
	} else {
		n.state &^= changedFlag
	}
}

func (n *node) HasBeenChanged(clear bool) bool {
	if !n.valid() {
		return false
	}
	changed := n.state&changedFlag != 0
	if clear {
		n.state &^= changedFlag
	}
	return changed
}

func (n *node) Payload() string {
	return ""
}

func (n *node) SetFromPayload(string) ResultCode {
	if !n.valid() {
		return OutOfMemory
	}
	return CannotSet
}

func (n *node) Check() {}

func (n *node) ConfigString() string {
	if !n.valid() {
		return ""
	}
	return n.state.String()
}

// touch applies the mutation rule: republish when AutoPublish is on or the
// caller asked for it, and accumulate changed into the Changed flag.
func (n *node) touch(changed, publish bool) {
	if !n.valid() {
		return
	}
	if publish || n.state&AutoPublish != 0 {
		n.state |= needsPublish
	}
	if changed {
		n.state |= changedFlag
	}
}

// setBits replaces the bits selected by mask, honouring locked bits.
func (n *node) setBits(mask, value Config) {
	if !n.valid() {
		return
	}
	n.state = n.state&^mask | value&mask&^n.locked
}

func (n *node) setFlag(flag Config, on bool) {
	if on {
		n.setBits(flag, flag)
	} else {
		n.setBits(flag, 0)
	}
}

// lock clears flag and prevents it from being set again.
func (n *node) lock(flag Config) {
	n.state &^= flag
	n.locked |= flag
}

// receiveRequest runs the request hook; the default republishes the node.
func (n *node) receiveRequest(payload string) ResultCode {
	if !n.valid() {
		return OutOfMemory
	}
	if n.onRequest != nil {
		return n.onRequest(n.self, payload)
	}
	n.self.Republish()
	return Ok
}

// receiveSet runs the set hook. An AutoPublish topic echoes its state
// back even when the payload is rejected.
//
// An absolute topic is set through the topic it publishes on: the inbound
// message already carries the value, so it is never echoed.
func (n *node) receiveSet(payload string) ResultCode {
	if !n.valid() {
		return OutOfMemory
	}

	pending := n.state & needsPublish
	if n.state&AutoPublish != 0 {
		n.state |= needsPublish
	}

	var code ResultCode
	if n.onPayload != nil {
		code = n.onPayload(n.self, payload)
	} else {
		code = n.self.SetFromPayload(payload)
	}

	if IsAbsolute(n.FullTopic()) {
		n.state = n.state&^needsPublish | pending
	}
	return code
}

// configurer provides the chained setters shared by every handle type.
type configurer[H any] struct {
	target *node
	handle H
}

// SetQoS sets the QoS level used when publishing.
func (c configurer[H]) SetQoS(qos byte) H {
	c.target.setBits(qosMask, Config(qos))
	return c.handle
}

// SetRetained sets the retained flag used when publishing.
func (c configurer[H]) SetRetained(retained bool) H {
	c.target.setFlag(Retained, retained)
	return c.handle
}

// SetAutoPublish enables republishing on every mutation.
func (c configurer[H]) SetAutoPublish(autoPublish bool) H {
	c.target.setFlag(AutoPublish, autoPublish)
	return c.handle
}

// SetRequestable enables the request sub-topic.
func (c configurer[H]) SetRequestable(requestable bool) H {
	c.target.setFlag(Requestable, requestable)
	return c.handle
}

// SetSettable enables the set sub-topic.
func (c configurer[H]) SetSettable(settable bool) H {
	c.target.setFlag(Settable, settable)
	return c.handle
}

// SetConfig replaces the persistent bits of the register.
func (c configurer[H]) SetConfig(cfg Config) H {
	c.target.setBits(^transientFlags, cfg)
	return c.handle
}

// SetFormat replaces the codec descriptor.
func (c configurer[H]) SetFormat(d codec.Descriptor) H {
	if c.target.valid() {
		c.target.format = d
	}
	return c.handle
}

// SetBase sets the integer radix.
func (c configurer[H]) SetBase(base codec.IntegralBase) H {
	if c.target.valid() {
		c.target.format.Base = base
	}
	return c.handle
}

// SetFloatPattern sets the printf-style pattern for floating point values.
func (c configurer[H]) SetFloatPattern(pattern string) H {
	if c.target.valid() {
		c.target.format.Pattern = pattern
	}
	return c.handle
}

// SetBoolFormat sets the word pair for boolean values.
func (c configurer[H]) SetBoolFormat(f codec.BoolFormat) H {
	if c.target.valid() {
		c.target.format.Bool = f
	}
	return c.handle
}

// SetRequestHandler replaces the default request behaviour.
func (c configurer[H]) SetRequestHandler(h RequestHandler) H {
	if c.target.valid() {
		c.target.onRequest = h
	}
	return c.handle
}

// SetPayloadHandler replaces the default set behaviour.
func (c configurer[H]) SetPayloadHandler(h PayloadHandler) H {
	if c.target.valid() {
		c.target.onPayload = h
	}
	return c.handle
}

// Format returns the codec descriptor.
func (c configurer[H]) Format() codec.Descriptor {
	if !c.target.valid() {
		return codec.Descriptor{}
	}
	return c.target.format
}
