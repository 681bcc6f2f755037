// Package api holds the contracts goebr shares with its collaborators:
// the atomic tagged-pointer slot that client data structures store their
// links in, and the helpers to pack and unpack tag bits.
package api

// Slot an atomic cell owned by a lock-free data structure, holding a
// word-sized value that encodes a pointer together with a small tag in
// its low bits. The reclaimer only ever loads slots; installing new
// values stays with the owning structure.
type Slot interface {
	// Load the slot's current tagged value.
	Load() uintptr

	// CompareAndSwap install next if the slot still holds old,
	// return true on success.
	CompareAndSwap(old, next uintptr) bool
}

// Tagbits number of low pointer bits available for tagging; word-sized
// allocations are at least 8-byte aligned on every supported platform.
const Tagbits = 3

// Tagmask mask covering the tag bits of a slot value.
const Tagmask = uintptr(1<<Tagbits - 1)

// Composetag pack tag into the low bits of ptr.
func Composetag(ptr, tag uintptr) uintptr {
	return (ptr &^ Tagmask) | (tag & Tagmask)
}

// Decomposetag split a slot value into its address and tag.
func Decomposetag(value uintptr) (ptr, tag uintptr) {
	return value &^ Tagmask, value & Tagmask
}
