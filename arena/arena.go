package arena

import (
	"errors"
	"math/bits"
)

var (
	// ErrInvalidBlock is returned when a block is zero, stale, or unknown to the arena.
	ErrInvalidBlock = errors.New("arena: invalid block")
	// ErrNotLast is returned when releasing a block that is not the most recent live allocation.
	ErrNotLast = errors.New("arena: block is not the most recent allocation")
)

const (
	// DefaultAlignment is the default allocation alignment (8 bytes).
	DefaultAlignment = 8
)

// Stats tracks arena usage.
//
//   - Allocs, Releases and Failures are cumulative since the last Reset.
//   - BytesUsed is the sum of requested sizes of live blocks.
//   - BytesWasted is the alignment padding of live blocks.
//   - HighWater is the largest cursor position observed.
type Stats struct {
	Allocs      uint64
	Releases    uint64
	Failures    uint64
	BytesUsed   uint64
	BytesWasted uint64
	HighWater   uint64
}

// Block is an opaque token for one allocation.
// The zero Block is the invalid marker returned on failure.
type Block struct {
	gen    uint32
	offset int
	size   int // aligned
	req    int // requested
}

// Valid reports whether the block came from a successful allocation.
func (b Block) Valid() bool {
	return b.gen != 0
}

// Offset returns the offset of the block inside the arena buffer.
func (b Block) Offset() int {
	return b.offset
}

// Size returns the requested size of the block.
func (b Block) Size() int {
	return b.req
}

// Arena is a fixed-capacity LIFO bump allocator.
type Arena struct {
	buf        []byte
	cursor     int
	alignment  int
	mask       int
	generation uint32
	live       []Block
	stats      Stats
}

// Option is a configuration option for Arena.
type Option func(*Arena)

// WithAlignment sets the allocation alignment.
// Values that are not a power of two are rounded up to the next one.
func WithAlignment(n int) Option {
	return func(a *Arena) {
		if n <= 0 {
			return
		}
		a.alignment = 1 << bits.Len(uint(n-1))
	}
}

// New creates an Arena with the given capacity in bytes.
func New(capacity int, opts ...Option) *Arena {
	if capacity < 0 {
		capacity = 0
	}

	a := &Arena{
		buf:       make([]byte, capacity),
		alignment: DefaultAlignment,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.mask = a.alignment - 1
	// Generation 0 marks the invalid block.
	a.generation = 1

	return a
}

// Alloc reserves size bytes and returns the block.
// It returns the invalid Block when size <= 0 or the remaining capacity is insufficient.
func (a *Arena) Alloc(size int) Block {
	if size <= 0 {
		a.stats.Failures++
		return Block{}
	}

	aligned := (size + a.mask) &^ a.mask
	if aligned < size || aligned > len(a.buf)-a.cursor {
		a.stats.Failures++
		return Block{}
	}

	b := Block{
		gen:    a.generation,
		offset: a.cursor,
		size:   aligned,
		req:    size,
	}

	a.cursor += aligned
	a.live = append(a.live, b)

	a.stats.Allocs++
	a.stats.BytesUsed += uint64(size)
	a.stats.BytesWasted += uint64(aligned - size)
	if uint64(a.cursor) > a.stats.HighWater {
		a.stats.HighWater = uint64(a.cursor)
	}

	return b
}

// Release pops b, which must be the most recent live allocation.
// The released bytes are zeroed so a later allocation starts clean.
func (a *Arena) Release(b Block) error {
	if !a.owns(b) {
		return ErrInvalidBlock
	}

	top := a.live[len(a.live)-1]
	if top != b {
		return ErrNotLast
	}

	clear(a.buf[b.offset : b.offset+b.size])

	a.live = a.live[:len(a.live)-1]
	a.cursor = b.offset

	a.stats.Releases++
	a.stats.BytesUsed -= uint64(b.req)
	a.stats.BytesWasted -= uint64(b.size - b.req)

	return nil
}

// Bytes returns the memory of a live block, or nil if the block is not live.
func (a *Arena) Bytes(b Block) []byte {
	if !a.owns(b) {
		return nil
	}
	return a.buf[b.offset : b.offset+b.req : b.offset+b.req]
}

// owns reports whether b is a live block of the current generation.
func (a *Arena) owns(b Block) bool {
	if !b.Valid() || b.gen != a.generation {
		return false
	}
	if b.offset+b.size > a.cursor {
		return false
	}
	for i := len(a.live) - 1; i >= 0; i-- {
		if a.live[i] == b {
			return true
		}
		if a.live[i].offset < b.offset {
			break
		}
	}
	return false
}

// Cap returns the arena capacity in bytes.
func (a *Arena) Cap() int {
	return len(a.buf)
}

// Used returns the number of bytes consumed, including alignment padding.
func (a *Arena) Used() int {
	return a.cursor
}

// Available returns the number of bytes left.
func (a *Arena) Available() int {
	return len(a.buf) - a.cursor
}

// Live returns the number of live blocks.
func (a *Arena) Live() int {
	return len(a.live)
}

// Alignment returns the allocation alignment.
func (a *Arena) Alignment() int {
	return a.alignment
}

// Generation returns the current generation. It changes on every Reset.
func (a *Arena) Generation() uint32 {
	return a.generation
}

// Stats returns a snapshot of the arena statistics.
func (a *Arena) Stats() Stats {
	return a.stats
}

// Reset discards every allocation. Blocks handed out before the reset become stale.
func (a *Arena) Reset() {
	clear(a.buf[:a.cursor])
	a.cursor = 0
	a.live = a.live[:0]
	a.generation++
	if a.generation == 0 {
		a.generation = 1
	}
	a.stats = Stats{}
}
