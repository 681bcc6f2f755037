package goebr

import "runtime"
import "unsafe"

import "github.com/bnclabs/goebr/lib"

// Local the per-thread face of a reclamation domain. A Local owns its
// bags and counters outright and must stay confined to the thread that
// created it; the only cross-thread traffic is other threads reading
// the packed state word through the registry.
type Local struct {
	dom   *Domain
	entry *entry
	bags  *epochBags
	pool  *bagPool

	cached     Epoch // global epoch this thread last observed
	guardcount int
	opcount    int64 // retirements since the last check cycle
	checks     int64 // successful scans since the last advance attempt
	closed     bool

	h_reclaims *lib.HistogramInt64
}

func newLocal(dom *Domain) *Local {
	global := dom.epoch.Load()
	local := &Local{
		dom:        dom,
		entry:      dom.threads.insert(global),
		bags:       newEpochBags(dom.bagcapacity),
		pool:       newBagPool(dom.bagpoolsize, dom.bagcapacity),
		cached:     global,
		h_reclaims: lib.NewhistogramInt64(0, 8*dom.bagcapacity, dom.bagcapacity),
	}
	// a leaked Local would strand its bags forever; abandoning them
	// from the finalizer keeps the reclamation guarantee eventual
	// even for sloppy callers.
	runtime.SetFinalizer(local, finalizeLocal)
	return local
}

func finalizeLocal(local *Local) {
	if local.closed == false && local.guardcount == 0 {
		local.Close()
	}
}

// IsActive whether the owning thread currently holds a live guard.
func (local *Local) IsActive() bool {
	return local.guardcount > 0
}

// Retire hand the reclaimer an address removed from a structure along
// with its cleanup action. Callable only while a guard is held; the
// record lands in the current epoch's bag and its cleanup runs exactly
// once, some epochs later, possibly on another thread.
func (local *Local) Retire(ptr unsafe.Pointer, free func(unsafe.Pointer)) {
	local.retireRecord(NewRetired(ptr, free))
}

func (local *Local) retireRecord(rec Retired) {
	if local.closed {
		panic("goebr: retire on closed Local")
	}
	if local.guardcount == 0 {
		panic("goebr: retire without an active guard")
	}
	local.bags.retire(rec, local.pool)
	local.dom.nretired.Inc()
	local.opcount++
	if local.opcount >= local.dom.checkthreshold {
		local.opcount = 0
		local.check()
	}
}

// TryFlush force a check cycle outside the retirement-driven cadence,
// for clients that want eager reclamation.
func (local *Local) TryFlush() {
	if local.closed {
		panic("goebr: flush on closed Local")
	}
	local.opcount = 0
	local.check()
}

// Close unregister the thread from its domain. The registry entry is
// unlinked and retired through the reclamation scheme itself, then the
// remaining bags are sealed with their epochs and pushed onto the
// abandoned queue for other threads to finish. Closing twice is a
// no-op; closing with live guards panics.
func (local *Local) Close() {
	if local.closed {
		return
	}
	if local.guardcount > 0 {
		panic("goebr: closing Local with live guards")
	}
	local.closed = true
	runtime.SetFinalizer(local, nil)

	e := local.entry
	local.dom.threads.remove(e)
	local.bags.retireFinal(NewRetired(unsafe.Pointer(e), func(unsafe.Pointer) {}))
	local.dom.nretired.Inc()

	if head, tail := sealList(local.bags, local.cached); head != nil {
		local.dom.nabandoned.Inc()
		local.dom.orphans.push(head, tail)
	}
	debugf("%v local closed at %v\n", local.dom.logprefix, local.cached)
}

func (local *Local) setActive() {
	local.guardcount++
	if local.guardcount == 1 {
		global := local.assessGlobal()
		local.entry.state.Store(global, true)
	}
}

func (local *Local) setInactive() {
	if local.guardcount == 0 {
		panic("goebr: guard released more times than acquired")
	}
	local.guardcount--
	if local.guardcount == 0 {
		local.entry.state.Store(local.cached, false)
	}
}

// check one check cycle: catch up with the global epoch, scan the
// registry once and, after enough clean scans, try to advance the
// clock. Losing the advance CAS is simply deferred to a later cycle;
// somebody else moved the clock for us.
func (local *Local) check() {
	global := local.assessGlobal()
	if local.scan(global) == false {
		return
	}
	local.checks++
	if local.checks < local.dom.advancethreshold {
		return
	}
	local.checks = 0
	next := global.Next()
	if local.dom.epoch.CompareAndSwap(global, next) {
		local.dom.nadvances.Inc()
		// observe our own advancement right away, so the oldest
		// bags rotate out and abandoned work gets adopted.
		local.advanceLocal(next)
	}
}

// assessGlobal load the global epoch; when it moved since this thread
// last looked, rotate the bags forward and publish the new epoch on
// the thread's state word.
func (local *Local) assessGlobal() Epoch {
	global := local.dom.epoch.Load()
	if local.cached != global {
		local.advanceLocal(global)
	}
	return global
}

func (local *Local) advanceLocal(global Epoch) {
	local.cached = global
	local.checks = 0
	if reclaimed := local.bags.rotate(local.pool); reclaimed > 0 {
		local.dom.nreclaimed.Add(reclaimed)
		local.h_reclaims.Add(reclaimed)
	}
	local.drainOrphans(global)
	local.entry.state.Store(global, local.guardcount > 0)
}

// scan one full walk of the registry. Reports whether every currently
// active thread has caught up with the global epoch; inactive threads
// never block advancement, an active thread behind the clock vetoes
// the walk. An undetermined age is conservatively a veto too.
func (local *Local) scan(global Epoch) bool {
	ok := true
	local.dom.threads.iterate(func(state *ThreadState) bool {
		epoch, active := state.Load()
		if active == false || epoch == global {
			return true
		}
		ok = false
		return false
	})
	return ok
}

// drainOrphans adopt sealed work abandoned by exited threads. A seal
// still within the two-epoch window is re-bagged by its age; anything
// older is already provably unreachable and reclaimed on the spot. An
// undetermined seal can only be ancient here, a seal is never newer
// than the epoch of the thread that observes it.
func (local *Local) drainOrphans(global Epoch) {
	node := local.dom.orphans.takeAll()
	if node == nil {
		return
	}
	local.dom.ndrains.Inc()
	dom := local.dom
	for node != nil {
		next := node.next
		node.next = nil
		if age, ok := node.seal.RelativeAge(global); ok {
			adopted := node
			rec := NewRetired(unsafe.Pointer(adopted), func(unsafe.Pointer) {
				dom.nreclaimed.Add(adopted.reclaim())
			})
			local.bags.retireByAge(rec, age, local.pool)
			dom.nretired.Inc()
		} else {
			dom.nreclaimed.Add(node.reclaim())
		}
		node = next
	}
}
