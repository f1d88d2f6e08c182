package mqttree

import (
	"fmt"
	"strings"

	"github.com/vitalvas/mqttree/codec"
)

// TopicOrder selects how a full path is assembled from the parent chain.
type TopicOrder uint8

const (
	// OrderUnspecified defers to the parent group, then to the client defaults.
	OrderUnspecified TopicOrder = iota
	// TopDown joins names from the root down to the leaf: "device/sensors/temp".
	TopDown
	// BottomUp joins names from the leaf up to the root: "temp/sensors/device".
	BottomUp
)

// String returns the string representation of the order.
func (o TopicOrder) String() string {
	switch o {
	case OrderUnspecified:
		return "unspecified"
	case TopDown:
		return "top-down"
	case BottomUp:
		return "bottom-up"
	default:
		return "unknown"
	}
}

// ParseTopicOrder parses "top-down" or "bottom-up".
func ParseTopicOrder(s string) (TopicOrder, error) {
	switch strings.ToLower(s) {
	case "", "unspecified":
		return OrderUnspecified, nil
	case "top-down", "topdown":
		return TopDown, nil
	case "bottom-up", "bottomup":
		return BottomUp, nil
	}
	return OrderUnspecified, fmt.Errorf("unknown topic order %q", s)
}

// PathPlaceholder is replaced by a topic's full path in topic, request and set patterns.
const PathPlaceholder = "%s"

const (
	DefaultTopicPattern   = PathPlaceholder
	DefaultRequestPattern = PathPlaceholder + "/get"
	DefaultSetPattern     = PathPlaceholder + "/set"

	DefaultArenaSize      = 8192
	DefaultJSONBufferSize = 2048
	DefaultJSONMaxDepth   = 10
	DefaultInboxSize      = 16
)

// Defaults is the tree-wide configuration handed to every topic at registration.
// Groups may override Order and the patterns for their subtree.
type Defaults struct {
	// Config is the register of the root group. New topics copy the
	// persistent bits of the group they are added to.
	Config Config

	// Order is the path order used when no group overrides it.
	Order TopicOrder

	// TopicPattern, RequestPattern and SetPattern derive the publish,
	// request and set topics from a full path.
	TopicPattern   string
	RequestPattern string
	SetPattern     string

	// Format is the codec descriptor of newly registered topics.
	Format codec.Descriptor

	// ArenaSize is the capacity in bytes of the node arena.
	ArenaSize int

	// JSONBufferSize is the document buffer reserved by each JSON topic.
	JSONBufferSize int

	// JSONMaxDepth is the maximum nesting accepted by JSON topics.
	JSONMaxDepth int
}

// NewDefaults returns the defaults used when nothing is configured.
func NewDefaults() Defaults {
	return Defaults{
		Config:         DefaultConfig,
		Order:          TopDown,
		TopicPattern:   DefaultTopicPattern,
		RequestPattern: DefaultRequestPattern,
		SetPattern:     DefaultSetPattern,
		Format:         codec.DefaultDescriptor(),
		ArenaSize:      DefaultArenaSize,
		JSONBufferSize: DefaultJSONBufferSize,
		JSONMaxDepth:   DefaultJSONMaxDepth,
	}
}

// normalize fills unset fields, except Config, from NewDefaults.
func (d Defaults) normalize() Defaults {
	base := NewDefaults()

	if d.Order == OrderUnspecified {
		d.Order = base.Order
	}
	if d.TopicPattern == "" {
		d.TopicPattern = base.TopicPattern
	}
	if d.RequestPattern == "" {
		d.RequestPattern = base.RequestPattern
	}
	if d.SetPattern == "" {
		d.SetPattern = base.SetPattern
	}
	if d.Format.Base == 0 {
		d.Format.Base = codec.Decimal
	}
	if d.ArenaSize <= 0 {
		d.ArenaSize = base.ArenaSize
	}
	if d.JSONBufferSize <= 0 {
		d.JSONBufferSize = base.JSONBufferSize
	}
	if d.JSONMaxDepth <= 0 {
		d.JSONMaxDepth = base.JSONMaxDepth
	}
	d.Config &^= transientFlags

	return d
}

// applyPattern substitutes path for the first placeholder in pattern.
func applyPattern(pattern, path string) string {
	return strings.Replace(pattern, PathPlaceholder, path, 1)
}
