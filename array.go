package mqttree

import (
	"slices"
	"strings"

	"github.com/vitalvas/mqttree/codec"
)

// DefaultSeparator separates array elements in a payload.
const DefaultSeparator = ","

// Array is a topic over a fixed number of elements, rendered as
// "e0,e1,...". The element count never changes after registration.
type Array[T codec.Scalar] struct {
	*node
	configurer[*Array[T]]

	items    []T
	mirror   []T // copy of external items, nil for owned arrays
	scratch  []T
	sep      string
	readOnly bool
}

func (*Array[T]) isArray() {}

func newArray[T codec.Scalar](n *node, items []T, external, readOnly bool) *Array[T] {
	a := &Array[T]{
		items:    items,
		scratch:  make([]T, len(items)),
		sep:      DefaultSeparator,
		readOnly: readOnly,
	}
	if external {
		a.mirror = slices.Clone(items)
	}
	a.node = n
	a.configurer = configurer[*Array[T]]{target: n, handle: a}
	return a
}

func invalidArray[T codec.Scalar]() *Array[T] {
	return newArray[T](invalidNode, nil, false, true)
}

// AddArray registers a topic owning n zero-valued elements.
func AddArray[T codec.Scalar](g *Group, name string, n int) *Array[T] {
	if n <= 0 {
		return invalidArray[T]()
	}
	return register(g, name, n*sizeOf[T](), func(nd *node) *Array[T] {
		return newArray(nd, make([]T, n), false, false)
	}, invalidArray[T])
}

// AddArrayOf registers a topic over the elements of items. The slice is
// written through; its length is fixed at registration.
func AddArrayOf[T codec.Scalar](g *Group, name string, items []T) *Array[T] {
	if len(items) == 0 {
		return invalidArray[T]()
	}
	return register(g, name, sizeOf[[]T](), func(nd *node) *Array[T] {
		return newArray(nd, items, true, false)
	}, invalidArray[T])
}

// AddConstArrayOf registers a read-only topic over the elements of items.
func AddConstArrayOf[T codec.Scalar](g *Group, name string, items []T) *Array[T] {
	if len(items) == 0 {
		return invalidArray[T]()
	}
	return register(g, name, sizeOf[[]T](), func(nd *node) *Array[T] {
		nd.lock(Settable)
		return newArray(nd, items, true, true)
	}, invalidArray[T])
}

// SetSeparator replaces the element separator. An empty separator is ignored.
func (a *Array[T]) SetSeparator(sep string) *Array[T] {
	if a.valid() && sep != "" {
		a.sep = sep
	}
	return a
}

// Separator returns the element separator.
func (a *Array[T]) Separator() string {
	if !a.valid() {
		return ""
	}
	return a.sep
}

// Len returns the number of elements.
func (a *Array[T]) Len() int {
	if !a.valid() {
		return 0
	}
	return len(a.items)
}

// At returns element i, or the zero value when out of range.
func (a *Array[T]) At(i int) T {
	var zero T
	if !a.valid() || i < 0 || i >= len(a.items) {
		return zero
	}
	return a.items[i]
}

// Values returns a copy of the elements.
func (a *Array[T]) Values() []T {
	if !a.valid() {
		return nil
	}
	return slices.Clone(a.items)
}

// SetAt stores v at index i and reports whether the element changed.
func (a *Array[T]) SetAt(i int, v T) bool {
	if !a.valid() || a.readOnly || i < 0 || i >= len(a.items) {
		return false
	}

	changed := a.items[i] != v
	a.items[i] = v
	a.sync()
	a.touch(changed, false)

	return changed
}

// Set stores the leading elements of values; extra values are ignored.
func (a *Array[T]) Set(values []T) bool {
	if !a.valid() || a.readOnly {
		return false
	}

	n := min(len(values), len(a.items))
	changed := !slices.Equal(a.items[:n], values[:n])
	copy(a.items, values[:n])
	a.sync()
	a.touch(changed, false)

	return changed
}

// IsSettable reports false for read-only arrays regardless of the register.
func (a *Array[T]) IsSettable() bool {
	return !a.readOnly && a.node.IsSettable()
}

// ElementPayload renders element i, or "" when out of range.
func (a *Array[T]) ElementPayload(i int) string {
	if !a.valid() || i < 0 || i >= len(a.items) {
		return ""
	}
	return codec.Format(a.items[i], a.format)
}

// Payload renders every element joined by the separator.
func (a *Array[T]) Payload() string {
	if !a.valid() {
		return ""
	}

	var sb strings.Builder
	for i, v := range a.items {
		if i > 0 {
			sb.WriteString(a.sep)
		}
		sb.WriteString(codec.Format(v, a.format))
	}
	return sb.String()
}

// SetAtFromPayload parses payload into element i.
func (a *Array[T]) SetAtFromPayload(i int, payload string) ResultCode {
	if !a.valid() {
		return OutOfMemory
	}
	if a.readOnly {
		return CannotSet
	}
	if i < 0 || i >= len(a.items) {
		return InvalidValue
	}

	v, err := codec.Parse(payload, a.items[i], a.format)
	if err != nil {
		return InvalidPayload
	}
	a.SetAt(i, v)
	return Ok
}

// SetFromPayload parses a separated list of elements. Fields past the
// array length are ignored and an empty field leaves its element as is.
// Every field is parsed before anything is stored: one bad field rejects
// the whole payload.
func (a *Array[T]) SetFromPayload(payload string) ResultCode {
	if !a.valid() {
		return OutOfMemory
	}
	if a.readOnly {
		return CannotSet
	}
	if payload == "" {
		return Ok
	}

	copy(a.scratch, a.items)
	for i, field := range strings.Split(payload, a.sep) {
		if i >= len(a.scratch) {
			break
		}
		if field == "" {
			continue
		}
		v, err := codec.Parse(field, a.scratch[i], a.format)
		if err != nil {
			return InvalidPayload
		}
		a.scratch[i] = v
	}

	changed := !slices.Equal(a.items, a.scratch)
	copy(a.items, a.scratch)
	a.sync()
	a.touch(changed, false)

	return Ok
}

// Check detects writes to an external slice made outside the tree.
func (a *Array[T]) Check() {
	if !a.valid() || a.mirror == nil {
		return
	}
	if !slices.Equal(a.items, a.mirror) {
		a.sync()
		a.touch(true, false)
	}
}

func (a *Array[T]) sync() {
	if a.mirror != nil {
		copy(a.mirror, a.items)
	}
}
