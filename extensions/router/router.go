// Package router dispatches inbound messages that matched no topic of the
// tree. Install it with mqttree.WithFallbackHandler.
package router

import (
	"maps"
	"regexp"
	"slices"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/vitalvas/mqttree"
)

// Handler processes an MQTT message.
type Handler func(msg *mqttree.Message)

// fieldMatcher matches one JSON field of the payload.
type fieldMatcher struct {
	path    string
	pattern *regexp.Regexp
}

// Condition defines filtering criteria for message routing.
type Condition struct {
	topicFilter   *string
	qos           *byte
	retain        *bool
	payloadRegexp *regexp.Regexp
	fields        []fieldMatcher
}

// ConditionOption configures a Condition.
type ConditionOption func(*Condition)

// WithTopic sets the topic filter for message matching.
// Supports MQTT wildcards: + (single level) and # (multi level).
func WithTopic(filter string) ConditionOption {
	return func(c *Condition) {
		c.topicFilter = &filter
	}
}

// WithQoS filters messages by QoS level.
func WithQoS(qos byte) ConditionOption {
	return func(c *Condition) {
		c.qos = &qos
	}
}

// WithRetain filters messages by retain flag.
func WithRetain(retain bool) ConditionOption {
	return func(c *Condition) {
		c.retain = &retain
	}
}

// WithPayload filters messages by payload regexp pattern.
func WithPayload(pattern *regexp.Regexp) ConditionOption {
	return func(c *Condition) {
		c.payloadRegexp = pattern
	}
}

// WithJSONField filters JSON payloads by the value at path (gjson syntax).
// A payload without the field, or that is not JSON, does not match.
// Can be called multiple times to match multiple fields.
func WithJSONField(path string, pattern *regexp.Regexp) ConditionOption {
	return func(c *Condition) {
		c.fields = append(c.fields, fieldMatcher{path: path, pattern: pattern})
	}
}

// registration holds a handler with its conditions.
type registration struct {
	handler   Handler
	condition Condition
}

// Router dispatches messages to handlers based on conditions.
// Supports MQTT wildcards: + (single level) and # (multi level).
type Router struct {
	mu       sync.RWMutex
	handlers []registration
}

// New creates a new Router.
func New() *Router {
	return &Router{
		handlers: make([]registration, 0),
	}
}

// Handle registers a handler with optional conditions.
// Use WithTopic to specify the topic filter with MQTT wildcards (+ and #).
//
// Examples:
//
//	r.Handle(handler, WithTopic("sensors/#"))
//	r.Handle(handler, WithTopic("sensors/#"), WithQoS(1))
//	r.Handle(handler, WithTopic("cmd/+"), WithPayload(regexp.MustCompile(`^reboot$`)))
//	r.Handle(handler, WithTopic("events/#"), WithJSONField("level", regexp.MustCompile(`^error$`)))
func (r *Router) Handle(handler Handler, opts ...ConditionOption) {
	var cond Condition
	for _, opt := range opts {
		opt(&cond)
	}

	r.mu.Lock()
	r.handlers = append(r.handlers, registration{
		handler:   handler,
		condition: cond,
	})
	r.mu.Unlock()
}

// matches checks if a condition matches the message.
func (c *Condition) matches(msg *mqttree.Message) bool {
	if c.topicFilter != nil && !mqttree.TopicMatch(*c.topicFilter, msg.Topic) {
		return false
	}
	if c.qos != nil && *c.qos != msg.QoS {
		return false
	}
	if c.retain != nil && *c.retain != msg.Retain {
		return false
	}
	if c.payloadRegexp != nil && !c.payloadRegexp.Match(msg.Payload) {
		return false
	}
	if len(c.fields) > 0 && !c.matchFields(msg.Payload) {
		return false
	}
	return true
}

// matchFields checks if every field matcher finds a match.
func (c *Condition) matchFields(payload []byte) bool {
	if !gjson.ValidBytes(payload) {
		return false
	}
	for _, matcher := range c.fields {
		field := gjson.GetBytes(payload, matcher.path)
		if !field.Exists() || !matcher.pattern.MatchString(field.String()) {
			return false
		}
	}
	return true
}

// Route dispatches a message to all matching handlers and reports whether
// any handler was called.
func (r *Router) Route(msg *mqttree.Message) bool {
	if msg == nil {
		return false
	}

	r.mu.RLock()
	var matched []Handler
	for _, reg := range r.handlers {
		if reg.condition.matches(msg) {
			matched = append(matched, reg.handler)
		}
	}
	r.mu.RUnlock()

	for _, handler := range matched {
		handler(msg)
	}
	return len(matched) > 0
}

// Filters returns all unique registered topic filters, sorted.
// Pass them to mqttree.WithSubscriptions so the broker delivers them.
func (r *Router) Filters() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, reg := range r.handlers {
		if reg.condition.topicFilter != nil {
			seen[*reg.condition.topicFilter] = struct{}{}
		}
	}

	return slices.Sorted(maps.Keys(seen))
}

// Len returns the number of registered handlers.
func (r *Router) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// Clear removes all handlers.
func (r *Router) Clear() {
	r.mu.Lock()
	r.handlers = r.handlers[:0]
	r.mu.Unlock()
}

// MessageHandler returns a handler usable with mqttree.WithFallbackHandler.
func (r *Router) MessageHandler() mqttree.MessageHandler {
	return func(msg *mqttree.Message) {
		r.Route(msg)
	}
}
