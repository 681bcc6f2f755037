package goebr

import "github.com/bnclabs/goebr/api"

// Guard a scoped token proving the owning thread may currently hold
// protected references. While any guard is live the thread is marked
// active and no bag visible to it will be reclaimed. Guards are
// reentrant through their Local: nested acquisitions share one active
// mark and only the outermost Release clears it.
//
// A guard supports two modes over the same contract. Region mode: hold
// the guard and dereference freely, the active mark alone keeps every
// address loaded in between alive. Single-load mode: Protect and
// ProtectIfEqual for call sites that want the load itself witnessed.
type Guard struct {
	local *Local
}

// NewGuard mark the thread active and return the scoped token. Nested
// calls are cheap, only the reentrancy count moves.
func (local *Local) NewGuard() *Guard {
	if local.closed {
		panic("goebr: guard on closed Local")
	}
	local.setActive()
	return &Guard{local: local}
}

// Release drop the guard. The thread turns inactive when its last live
// guard is released; releasing more guards than were acquired is a
// contract violation and panics rather than desynchronize the active
// mark and risk premature reclamation.
func (g *Guard) Release() {
	if g.local == nil {
		panic("goebr: guard released twice")
	}
	g.local.setInactive()
	g.local = nil
}

// Protect load the slot's current value under this guard's protection.
// No per-access book-keeping happens; the guard's active mark is what
// keeps the loaded address alive.
func (g *Guard) Protect(slot api.Slot) uintptr {
	if g.local == nil {
		panic("goebr: protect on released guard")
	}
	return slot.Load()
}

// ProtectIfEqual load the slot and confirm it still holds expected,
// closing the window between deciding to protect a value and that value
// remaining reachable. Returns ErrSlotChanged when the slot moved on;
// the caller retries its higher-level operation.
func (g *Guard) ProtectIfEqual(slot api.Slot, expected uintptr) (uintptr, error) {
	if g.local == nil {
		panic("goebr: protect on released guard")
	}
	if current := slot.Load(); current == expected {
		return current, nil
	}
	return 0, ErrSlotChanged
}
