package goebr

import "sync/atomic"
import "unsafe"

// registry the global set of thread state records, a lock-free
// intrusive singly linked list. Threads link themselves at the head on
// registration and unlink their own entry on exit. Unlinked entries
// are retired through the reclamation scheme itself, never freed in
// place, so concurrent iterators stay safe.
type registry struct {
	head unsafe.Pointer // *link
}

// entry one node of the registry, owning the thread's packed state
// word. The entry doubles as the thread's handle: O(1) access to its
// own state and O(1) identification for later removal.
type entry struct {
	state ThreadState
	_     [56]byte       // keep the shared word off the link's cache line
	next  unsafe.Pointer // *link
}

// link an immutable (successor, removed) pair. Swapping whole cells
// with a single CAS keeps the successor pointer and the removal mark
// atomic without stealing pointer bits, which the Go runtime forbids.
// A nil cell reads as (nil, false), the tail of the list.
type link struct {
	next    *entry
	removed bool
}

// insert allocate an entry in the inactive state at the given epoch and
// link it at the head with the usual CAS retry loop. The initial state
// is fully constructed before the publishing CAS, so scanners never
// observe a half-built entry.
func (reg *registry) insert(global Epoch) *entry {
	e := &entry{state: ThreadState{word: uint64(global) | inactiveBit}}
	for {
		head := atomic.LoadPointer(&reg.head)
		atomic.StorePointer(&e.next, head)
		cell := &link{next: e}
		if atomic.CompareAndSwapPointer(&reg.head, head, unsafe.Pointer(cell)) {
			return e
		}
	}
}

// remove unlink the entry from the list. First the entry's own link is
// frozen with the removed mark so no concurrent remover can splice
// behind it, then the predecessor is swung past it, retraversing
// whenever the predecessor's link changed or the predecessor is being
// removed itself. The entry's memory is left untouched; the caller
// retires it like any other object.
func (reg *registry) remove(e *entry) {
	var succ *entry
	for {
		cp := atomic.LoadPointer(&e.next)
		cell := (*link)(cp)
		if cell != nil && cell.removed {
			panic("goebr.registry: entry removed twice")
		}
		succ = nil
		if cell != nil {
			succ = cell.next
		}
		frozen := &link{next: succ, removed: true}
		if atomic.CompareAndSwapPointer(&e.next, cp, unsafe.Pointer(frozen)) {
			break
		}
	}
	for {
		field, cp := reg.find(e)
		if field == nil {
			panic("goebr.registry: entry does not exist in this registry")
		}
		repl := &link{next: succ}
		if atomic.CompareAndSwapPointer(field, cp, unsafe.Pointer(repl)) {
			return
		}
	}
}

// find walk the raw chain for the unmarked link pointing at e and
// return the address of the field holding it, restarting from the head
// whenever that link turns out frozen. Cells are immutable and freshly
// allocated on every change, so a matching pointer cannot be an ABA
// ghost while the caller still holds it.
func (reg *registry) find(e *entry) (field *unsafe.Pointer, cp unsafe.Pointer) {
restart:
	for {
		field = &reg.head
		for {
			cp = atomic.LoadPointer(field)
			if cp == nil {
				return nil, nil
			}
			cell := (*link)(cp)
			if cell.next == e {
				if cell.removed {
					continue restart
				}
				return field, cp
			}
			if cell.next == nil {
				return nil, nil
			}
			field = &cell.next.next
		}
	}
}

// iterate walk the currently linked entries, calling fn with each
// entry's state until fn returns false. Entries whose own link carries
// the removed mark are skipped; entries inserted after the walk started
// may or may not be seen, which is fine for the advance protocol since
// a fresh thread starts at the current epoch.
func (reg *registry) iterate(fn func(*ThreadState) bool) {
	cp := atomic.LoadPointer(&reg.head)
	for cp != nil {
		cell := (*link)(cp)
		e := cell.next
		if e == nil {
			return
		}
		np := atomic.LoadPointer(&e.next)
		next := (*link)(np)
		if next == nil || next.removed == false {
			if fn(&e.state) == false {
				return
			}
		}
		cp = np
	}
}

// count linked entries, for statistics only.
func (reg *registry) count() (n int64) {
	reg.iterate(func(*ThreadState) bool {
		n++
		return true
	})
	return n
}
