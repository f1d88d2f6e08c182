package mqttree

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"strings"
)

// Group is a composite topic. It carries no value and owns an ordered
// list of children; iteration always follows insertion order.
type Group struct {
	*node
	configurer[*Group]

	children []Topic

	order          TopicOrder
	topicPattern   string
	requestPattern string
	setPattern     string
}

// invalidGroup is returned wherever a group handle cannot be produced.
var invalidGroup = newGroup(invalidNode)

func newGroup(n *node) *Group {
	g := &Group{node: n}
	g.configurer = configurer[*Group]{target: n, handle: g}
	if n.valid() {
		n.group = g
		n.self = g
	}
	return g
}

// AddGroup registers a child group.
func (g *Group) AddGroup(name string) *Group {
	return register(g, name, 0, newGroup, func() *Group { return invalidGroup })
}

// IsSettable always returns false: groups have no value.
func (g *Group) IsSettable() bool {
	return false
}

// NeedsPublish reports whether the group or any descendant needs publishing.
func (g *Group) NeedsPublish() bool {
	if !g.valid() {
		return false
	}
	if g.state&needsPublish != 0 {
		return true
	}
	for _, child := range g.children {
		if child.NeedsPublish() {
			return true
		}
	}
	return false
}

// Republish schedules every descendant for the next publish pass.
func (g *Group) Republish() {
	if !g.valid() {
		return
	}
	for _, child := range g.children {
		child.Republish()
	}
}

// HasBeenChanged reports whether the group or any descendant has changed.
// With clear set, every descendant flag is read and cleared.
func (g *Group) HasBeenChanged(clear bool) bool {
	if !g.valid() {
		return false
	}

	changed := g.node.HasBeenChanged(clear)
	for _, child := range g.children {
		if child.HasBeenChanged(clear) {
			changed = true
			if !clear {
				return true
			}
		}
	}
	return changed
}

// Check polls every descendant for externally changed storage.
func (g *Group) Check() {
	if !g.valid() {
		return
	}
	for _, child := range g.children {
		child.Check()
	}
}

// FirstChanged returns the first descendant, depth first in insertion order,
// whose Changed flag is set. Only the first changed child group is entered.
// It returns an invalid handle when nothing changed.
func (g *Group) FirstChanged() Topic {
	if !g.valid() {
		return invalidGroup
	}
	for _, child := range g.children {
		if !child.HasBeenChanged(false) {
			continue
		}
		if cg, ok := child.(*Group); ok {
			if found := cg.FirstChanged(); found.Valid() {
				return found
			}
		}
		return child
	}
	return invalidGroup
}

// Len returns the number of children.
func (g *Group) Len() int {
	if !g.valid() {
		return 0
	}
	return len(g.children)
}

// At returns the child at index i, or an invalid handle when out of range.
func (g *Group) At(i int) Topic {
	if !g.valid() || i < 0 || i >= len(g.children) {
		return invalidGroup
	}
	return g.children[i]
}

// Children returns a copy of the child list.
func (g *Group) Children() []Topic {
	if !g.valid() {
		return nil
	}
	out := make([]Topic, len(g.children))
	copy(out, g.children)
	return out
}

// Get resolves a '/'-separated path of child names relative to the group.
// A leading '/' belongs to the first name, so absolute children resolve too.
func (g *Group) Get(path string) Topic {
	if !g.valid() || path == "" {
		return invalidGroup
	}

	head, rest := splitPath(path)
	for _, child := range g.children {
		if child.Name() != head {
			continue
		}
		if rest == "" {
			return child
		}
		if cg, ok := child.(*Group); ok {
			return cg.Get(rest)
		}
		return invalidGroup
	}
	return invalidGroup
}

// GetOrAddGroup resolves path like Get and creates missing groups on the way.
// It returns an invalid handle when a path element exists but is not a group.
func (g *Group) GetOrAddGroup(path string) *Group {
	if !g.valid() || path == "" {
		return invalidGroup
	}

	head, rest := splitPath(path)

	next := invalidGroup
	if found := g.Get(head); found.Valid() {
		cg, ok := found.(*Group)
		if !ok {
			return invalidGroup
		}
		next = cg
	} else {
		next = g.AddGroup(head)
	}

	if rest == "" || !next.Valid() {
		return next
	}
	return next.GetOrAddGroup(rest)
}

func splitPath(path string) (head, rest string) {
	i := strings.IndexByte(path[1:], '/')
	if i < 0 {
		return path, ""
	}
	return path[:i+1], path[i+2:]
}

// SetTopicOrder overrides the path order for the subtree.
func (g *Group) SetTopicOrder(order TopicOrder) *Group {
	if g.valid() {
		g.order = order
	}
	return g
}

// TopicOrder returns the effective path order of the group.
func (g *Group) TopicOrder() TopicOrder {
	if !g.valid() {
		return OrderUnspecified
	}
	return g.topicOrder()
}

// SetTopicPattern overrides the publish topic pattern for the subtree.
func (g *Group) SetTopicPattern(pattern string) *Group {
	if g.valid() {
		g.topicPattern = pattern
	}
	return g
}

// SetRequestPattern overrides the request topic pattern for the subtree.
func (g *Group) SetRequestPattern(pattern string) *Group {
	if g.valid() {
		g.requestPattern = pattern
	}
	return g
}

// SetSetPattern overrides the set topic pattern for the subtree.
func (g *Group) SetSetPattern(pattern string) *Group {
	if g.valid() {
		g.setPattern = pattern
	}
	return g
}

// addChild appends child unless the group or child is invalid, the group
// name is invalid, or a sibling already has the same full path.
// Uniqueness is decided here, under the order and patterns in effect now.
func (g *Group) addChild(child Topic) bool {
	if !g.valid() || !child.Valid() || !g.NameValid() {
		return false
	}

	full := child.FullTopic()
	if c := g.tree; c != nil && c.status != nil && c.status.FullTopic() == full {
		return false
	}
	for _, sibling := range g.children {
		if sibling.FullTopic() == full {
			return false
		}
	}

	g.children = append(g.children, child)
	if child.IsAutoPublish() {
		child.Republish()
	}
	return true
}

// register allocates and attaches a new node under g. On any failure the
// arena block is returned and the invalid handle from invalid is used.
func register[H Topic](g *Group, name string, size int, build func(n *node) H, invalid func() H) H {
	if !g.valid() || g.tree == nil {
		return invalid()
	}
	c := g.tree

	if err := ValidateName(name); err != nil {
		c.logger.Warn("topic rejected", LogFields{LogFieldTopic: name, LogFieldError: err})
		c.metrics.Registered("invalid name")
		return invalid()
	}

	n, code := c.newNode(g, name, size)
	if code != Ok {
		return invalid()
	}

	h := build(n)
	n.self = h
	if !g.addChild(h) {
		c.releaseNode(n)
		c.logger.Warn("topic rejected", LogFields{LogFieldTopic: g.FullTopic() + "/" + name, LogFieldError: "duplicate path"})
		c.metrics.Registered("duplicate")
		return invalid()
	}

	c.metrics.Registered("ok")
	return h
}

// sizeOf returns the in-memory size of T for arena accounting.
func sizeOf[T any]() int {
	return int(reflect.TypeFor[T]().Size())
}

// dispatch offers topic to the group and its descendants in insertion
// order; the first node whose request or set sub-topic matches handles it.
func (g *Group) dispatch(topic, payload string) (Topic, ResultCode, bool) {
	if code, ok := offer(g, topic, payload); ok {
		return g, code, true
	}

	for _, child := range g.children {
		if cg, ok := child.(*Group); ok {
			if t, code, ok := cg.dispatch(topic, payload); ok {
				return t, code, true
			}
			continue
		}
		if code, ok := offer(child, topic, payload); ok {
			return child, code, true
		}
	}
	return nil, Ok, false
}

func offer(t Topic, topic, payload string) (ResultCode, bool) {
	if !t.NameValid() {
		return Ok, false
	}
	n := t.base()
	if t.IsRequestable() && FinalTopic(t.RequestTopic()) == topic {
		return n.receiveRequest(payload), true
	}
	if t.IsSettable() && FinalTopic(t.SetTopic()) == topic {
		return n.receiveSet(payload), true
	}
	return Ok, false
}

type subscription struct {
	topic string
	qos   byte
}

// subscriptions collects the request and set sub-topics of the subtree.
func (g *Group) subscriptions(out []subscription) []subscription {
	out = appendSubscriptions(out, g)
	for _, child := range g.children {
		if cg, ok := child.(*Group); ok {
			out = cg.subscriptions(out)
			continue
		}
		out = appendSubscriptions(out, child)
	}
	return out
}

func appendSubscriptions(out []subscription, t Topic) []subscription {
	if !t.NameValid() {
		return out
	}
	if t.IsRequestable() {
		out = append(out, subscription{topic: FinalTopic(t.RequestTopic()), qos: t.QoS()})
	}
	if t.IsSettable() {
		out = append(out, subscription{topic: FinalTopic(t.SetTopic()), qos: t.QoS()})
	}
	return out
}

// Publish emits flagged descendants, or all of them when all is set, and
// returns the number of messages handed to the transport.
func (g *Group) Publish(ctx context.Context, all bool) int {
	if !g.valid() || g.tree == nil {
		return 0
	}
	return g.publish(ctx, g.tree, all)
}

// publish emits flagged descendants, or all of them when all is set,
// and returns the number of messages handed to the transport.
func (g *Group) publish(ctx context.Context, c *Client, all bool) int {
	if !g.valid() {
		return 0
	}

	count := 0
	for _, child := range g.children {
		if cg, ok := child.(*Group); ok {
			count += cg.publish(ctx, c, all)
			continue
		}
		if all || child.NeedsPublish() {
			if c.publishTopic(ctx, child) {
				count++
			}
		}
	}
	g.state &^= needsPublish

	return count
}

// Dump writes an indented listing of the subtree.
func (g *Group) Dump(w io.Writer) error {
	return dump(w, g, 0)
}

func dump(w io.Writer, t Topic, depth int) error {
	indent := strings.Repeat("  ", depth)

	if g, ok := t.(*Group); ok {
		if _, err := fmt.Fprintf(w, "%s%s/ [%s]\n", indent, g.Name(), g.ConfigString()); err != nil {
			return err
		}
		for _, child := range g.children {
			if err := dump(w, child, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	_, err := fmt.Fprintf(w, "%s%s %s [%s] = %q\n", indent, t.Name(), kindOf(t), t.ConfigString(), t.Payload())
	return err
}

func kindOf(t Topic) string {
	switch t.(type) {
	case interface{ isValue() }:
		return "value"
	case interface{ isVariable() }:
		return "variable"
	case interface{ isReference() }:
		return "reference"
	case interface{ isArray() }:
		return "array"
	case interface{ isFunction() }:
		return "function"
	case *JSONTopic:
		return "json"
	case *Will:
		return "will"
	default:
		return "topic"
	}
}
