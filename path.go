package mqttree

import (
	"slices"
	"strings"
)

// scope returns the group whose overrides apply to n first:
// the node itself for groups, its parent otherwise.
func (n *node) scope() *Group {
	if n.group != nil {
		return n.group
	}
	return n.parent
}

func (n *node) treeDefaults() Defaults {
	if n.tree != nil {
		return n.tree.cfg
	}
	return NewDefaults()
}

// inherited walks from the node's scope towards the root and returns the
// first value pick reports as set, or fallback.
func inherited[V comparable](n *node, pick func(g *Group) V, fallback V) V {
	var zero V
	for g := n.scope(); g != nil && g.valid(); g = g.parent {
		if v := pick(g); v != zero {
			return v
		}
	}
	return fallback
}

func (n *node) topicOrder() TopicOrder {
	return inherited(n, func(g *Group) TopicOrder { return g.order }, n.treeDefaults().Order)
}

func (n *node) topicPattern() string {
	return inherited(n, func(g *Group) string { return g.topicPattern }, n.treeDefaults().TopicPattern)
}

func (n *node) requestPattern() string {
	return inherited(n, func(g *Group) string { return g.requestPattern }, n.treeDefaults().RequestPattern)
}

func (n *node) setPattern() string {
	return inherited(n, func(g *Group) string { return g.setPattern }, n.treeDefaults().SetPattern)
}

// FullTopic returns the path of the node under the effective order.
func (n *node) FullTopic() string {
	if !n.valid() {
		return ""
	}
	return n.FullTopicOrder(n.topicOrder())
}

// FullTopicOrder returns the path of the node under the given order.
//
// The walk stops at the first absolute name. Its leading '/' is kept as the
// leading character of the result, whatever the order.
func (n *node) FullTopicOrder(order TopicOrder) string {
	if !n.valid() {
		return ""
	}

	var (
		parts    []string
		absolute bool
	)

	for cur := n; cur != nil && cur.valid(); {
		if IsAbsolute(cur.name) {
			absolute = true
			if rest := cur.name[1:]; rest != "" {
				parts = append(parts, rest)
			}
			break
		}
		parts = append(parts, cur.name)
		if cur.parent == nil {
			break
		}
		cur = cur.parent.node
	}

	if order != BottomUp {
		slices.Reverse(parts)
	}

	path := strings.Join(parts, "/")
	if absolute {
		path = "/" + path
	}
	return path
}

// RequestTopic returns the request pattern applied to the full path.
func (n *node) RequestTopic() string {
	if !n.valid() || !n.self.IsRequestable() {
		return ""
	}
	return applyPattern(n.requestPattern(), n.FullTopic())
}

// SetTopic returns the set pattern applied to the full path.
// An absolute topic is set through its own path.
func (n *node) SetTopic() string {
	if !n.valid() || !n.self.IsSettable() {
		return ""
	}

	full := n.FullTopic()
	if IsAbsolute(full) {
		return full
	}
	return applyPattern(n.setPattern(), full)
}

// PublishTopic returns the topic the node value is published on.
// An absolute topic is published on its own path.
func (n *node) PublishTopic() string {
	if !n.valid() {
		return ""
	}

	full := n.FullTopic()
	if IsAbsolute(full) {
		return full
	}
	return applyPattern(n.topicPattern(), full)
}

// FinalTopic strips the leading '/' of an absolute topic before it reaches the transport.
func FinalTopic(topic string) string {
	return strings.TrimPrefix(topic, "/")
}
