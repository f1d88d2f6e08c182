// Package arena provides a fixed-capacity bump allocator with strict
// stack-discipline release.
//
// # Allocation Model
//
// An Arena owns a single byte buffer sized at construction. Alloc rounds
// the requested size up to the arena alignment and advances a cursor;
// there is no free list. Release accepts only the most recently allocated
// block that is still live, so callers must release in exact reverse order
// of acquisition.
//
// Allocation failure is not an error: Alloc returns the zero Block, which
// reports Valid() == false and is rejected by every other method.
//
// # Concurrency Model
//
// Arena is not safe for concurrent use. It is meant to be owned by a single
// cooperative tick loop.
package arena
