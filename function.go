package mqttree

import "github.com/vitalvas/mqttree/codec"

// Function is a topic without storage: reads call get, writes call set.
// Either may be nil. AutoPublish is always off since there is no stored
// value to compare against; use SetAndPublish or Republish instead.
type Function[T codec.Scalar] struct {
	*node
	configurer[*Function[T]]

	get func() T
	set func(T)
}

func (*Function[T]) isFunction() {}

func newFunction[T codec.Scalar](n *node, get func() T, set func(T)) *Function[T] {
	f := &Function[T]{node: n, get: get, set: set}
	f.configurer = configurer[*Function[T]]{target: n, handle: f}
	return f
}

func invalidFunction[T codec.Scalar]() *Function[T] {
	return newFunction[T](invalidNode, nil, nil)
}

// AddFunction registers a topic backed by a getter and a setter.
// A topic without getter is not requestable, one without setter is not settable.
func AddFunction[T codec.Scalar](g *Group, name string, get func() T, set func(T)) *Function[T] {
	if get == nil && set == nil {
		return invalidFunction[T]()
	}
	return register(g, name, sizeOf[func()](), func(n *node) *Function[T] {
		n.lock(AutoPublish)
		if get == nil {
			n.lock(Requestable)
		}
		if set == nil {
			n.lock(Settable)
		}
		return newFunction(n, get, set)
	}, invalidFunction[T])
}

// Value returns the getter result, or the zero value without getter.
func (f *Function[T]) Value() T {
	var zero T
	if !f.valid() || f.get == nil {
		return zero
	}
	return f.get()
}

// Set calls the setter and reports whether the value changed. Without a
// getter every call counts as a change.
func (f *Function[T]) Set(v T) bool {
	return f.store(v, false)
}

// SetAndPublish calls the setter and schedules a publish. Without a getter
// there is nothing to publish and it behaves like Set.
func (f *Function[T]) SetAndPublish(v T) bool {
	return f.store(v, true)
}

func (f *Function[T]) store(v T, publish bool) bool {
	if !f.valid() || f.set == nil {
		return false
	}

	changed := true
	if f.get != nil {
		changed = f.get() != v
	}
	f.set(v)
	f.touch(changed, publish && f.get != nil)

	return changed
}

// IsSettable reports false without a setter.
func (f *Function[T]) IsSettable() bool {
	return f.set != nil && f.node.IsSettable()
}

// Republish is a no-op without a getter: there is nothing to publish.
func (f *Function[T]) Republish() {
	if f.get != nil {
		f.node.Republish()
	}
}

// Payload renders the getter result.
func (f *Function[T]) Payload() string {
	if !f.valid() || f.get == nil {
		return ""
	}
	return codec.Format(f.get(), f.format)
}

// SetFromPayload parses payload and passes it to the setter.
func (f *Function[T]) SetFromPayload(payload string) ResultCode {
	if !f.valid() {
		return OutOfMemory
	}
	if f.set == nil {
		return CannotSet
	}

	v, err := codec.Parse(payload, f.Value(), f.format)
	if err != nil {
		return InvalidPayload
	}
	f.store(v, false)
	return Ok
}
