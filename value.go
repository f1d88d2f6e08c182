package mqttree

import "github.com/vitalvas/mqttree/codec"

// scalar implements the value capability set over a load/store pair.
type scalar[T codec.Scalar] struct {
	*node

	load     func() T
	store    func(T)
	mirror   T
	tracked  bool
	readOnly bool
}

// Value returns the current value.
func (s *scalar[T]) Value() T {
	var zero T
	if !s.valid() {
		return zero
	}
	return s.load()
}

// Set stores v and reports whether it differs from the previous value.
func (s *scalar[T]) Set(v T) bool {
	return s.set(v, false)
}

// SetAndPublish stores v and schedules a publish even without AutoPublish.
func (s *scalar[T]) SetAndPublish(v T) bool {
	return s.set(v, true)
}

func (s *scalar[T]) set(v T, publish bool) bool {
	if !s.valid() || s.readOnly {
		return false
	}

	old := s.load()
	s.store(v)
	s.mirror = v

	changed := old != v
	s.touch(changed, publish)

	return changed
}

// IsSettable reports false for read-only bindings regardless of the register.
func (s *scalar[T]) IsSettable() bool {
	return !s.readOnly && s.node.IsSettable()
}

// Payload renders the current value.
func (s *scalar[T]) Payload() string {
	if !s.valid() {
		return ""
	}
	return codec.Format(s.load(), s.format)
}

// ParsePayload parses payload against the current value without storing it.
func (s *scalar[T]) ParsePayload(payload string) (T, ResultCode) {
	if !s.valid() {
		var zero T
		return zero, OutOfMemory
	}

	v, err := codec.Parse(payload, s.load(), s.format)
	if err != nil {
		return v, InvalidPayload
	}
	return v, Ok
}

// SetFromPayload parses payload and stores the result.
// A payload that does not parse leaves the value untouched.
func (s *scalar[T]) SetFromPayload(payload string) ResultCode {
	if !s.valid() {
		return OutOfMemory
	}
	if s.readOnly {
		return CannotSet
	}

	v, code := s.ParsePayload(payload)
	if code != Ok {
		return code
	}

	s.set(v, false)
	return Ok
}

// Check detects writes to externally owned storage made outside the tree.
func (s *scalar[T]) Check() {
	if !s.valid() || !s.tracked {
		return
	}

	current := s.load()
	if current != s.mirror {
		s.mirror = current
		s.touch(true, false)
	}
}

// Value is a topic that owns its storage.
type Value[T codec.Scalar] struct {
	*scalar[T]
	configurer[*Value[T]]

	value T
}

func (*Value[T]) isValue() {}

func newValue[T codec.Scalar](n *node, initial T, readOnly bool) *Value[T] {
	v := &Value[T]{value: initial}
	v.scalar = &scalar[T]{
		node:     n,
		load:     func() T { return v.value },
		store:    func(x T) { v.value = x },
		mirror:   initial,
		readOnly: readOnly,
	}
	v.configurer = configurer[*Value[T]]{target: n, handle: v}
	return v
}

func invalidValue[T codec.Scalar]() *Value[T] {
	var zero T
	return newValue(invalidNode, zero, true)
}

// AddValue registers a topic holding its own value.
func AddValue[T codec.Scalar](g *Group, name string, initial T) *Value[T] {
	return register(g, name, sizeOf[T](), func(n *node) *Value[T] {
		return newValue(n, initial, false)
	}, invalidValue[T])
}

// AddConstValue registers a read-only topic holding its own value.
func AddConstValue[T codec.Scalar](g *Group, name string, value T) *Value[T] {
	return register(g, name, sizeOf[T](), func(n *node) *Value[T] {
		n.lock(Settable)
		return newValue(n, value, true)
	}, invalidValue[T])
}

// Variable is a topic bound to external storage through a pointer that can
// be rebound. Writes go through the pointer; Check picks up writes made
// by other code.
type Variable[T codec.Scalar] struct {
	*scalar[T]
	configurer[*Variable[T]]

	ptr *T
}

func (*Variable[T]) isVariable() {}

func newVariable[T codec.Scalar](n *node, ptr *T, readOnly bool) *Variable[T] {
	v := &Variable[T]{ptr: ptr}
	v.scalar = &scalar[T]{
		node:     n,
		load:     func() T { return *v.ptr },
		store:    func(x T) { *v.ptr = x },
		mirror:   *ptr,
		tracked:  true,
		readOnly: readOnly,
	}
	v.configurer = configurer[*Variable[T]]{target: n, handle: v}
	return v
}

func invalidVariable[T codec.Scalar]() *Variable[T] {
	var zero T
	return newVariable(invalidNode, &zero, true)
}

// AddVariable registers a topic bound to *ptr.
func AddVariable[T codec.Scalar](g *Group, name string, ptr *T) *Variable[T] {
	if ptr == nil {
		return invalidVariable[T]()
	}
	return register(g, name, sizeOf[*T](), func(n *node) *Variable[T] {
		return newVariable(n, ptr, false)
	}, invalidVariable[T])
}

// AddConstVariable registers a read-only topic bound to *ptr.
func AddConstVariable[T codec.Scalar](g *Group, name string, ptr *T) *Variable[T] {
	if ptr == nil {
		return invalidVariable[T]()
	}
	return register(g, name, sizeOf[*T](), func(n *node) *Variable[T] {
		n.lock(Settable)
		return newVariable(n, ptr, true)
	}, invalidVariable[T])
}

// Pointer returns the bound pointer.
func (v *Variable[T]) Pointer() *T {
	if !v.valid() {
		return nil
	}
	return v.ptr
}

// SetPointer rebinds the topic to *ptr. A different value behind the new
// pointer counts as a change.
func (v *Variable[T]) SetPointer(ptr *T) *Variable[T] {
	if !v.valid() || ptr == nil {
		return v
	}
	v.ptr = ptr
	v.Check()
	return v
}

// Reference is a topic bound once to external storage.
type Reference[T codec.Scalar] struct {
	*scalar[T]
	configurer[*Reference[T]]

	ref *T
}

func (*Reference[T]) isReference() {}

func newReference[T codec.Scalar](n *node, ref *T, readOnly bool) *Reference[T] {
	r := &Reference[T]{ref: ref}
	r.scalar = &scalar[T]{
		node:     n,
		load:     func() T { return *ref },
		store:    func(x T) { *ref = x },
		mirror:   *ref,
		tracked:  true,
		readOnly: readOnly,
	}
	r.configurer = configurer[*Reference[T]]{target: n, handle: r}
	return r
}

func invalidReference[T codec.Scalar]() *Reference[T] {
	var zero T
	return newReference(invalidNode, &zero, true)
}

// AddReference registers a topic bound to the value behind ref.
func AddReference[T codec.Scalar](g *Group, name string, ref *T) *Reference[T] {
	if ref == nil {
		return invalidReference[T]()
	}
	return register(g, name, sizeOf[*T](), func(n *node) *Reference[T] {
		return newReference(n, ref, false)
	}, invalidReference[T])
}

// AddConstReference registers a read-only topic bound to the value behind ref.
func AddConstReference[T codec.Scalar](g *Group, name string, ref *T) *Reference[T] {
	if ref == nil {
		return invalidReference[T]()
	}
	return register(g, name, sizeOf[*T](), func(n *node) *Reference[T] {
		n.lock(Settable)
		return newReference(n, ref, true)
	}, invalidReference[T])
}
