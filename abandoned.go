package goebr

import "sync/atomic"
import "unsafe"

// abandonedQueue the global lock-free stack of sealed lists left behind
// by exiting threads. push splices a whole chain in one CAS using its
// tail, so concurrent pushers never walk each other's chains; takeAll
// swaps the head to empty and transfers ownership of everything that
// was linked to the single caller.
type abandonedQueue struct {
	head unsafe.Pointer // *sealed
}

func (queue *abandonedQueue) push(head, tail *sealed) {
	for {
		curr := atomic.LoadPointer(&queue.head)
		tail.next = (*sealed)(curr)
		if atomic.CompareAndSwapPointer(&queue.head, curr, unsafe.Pointer(head)) {
			return
		}
	}
}

// takeAll detach the entire stack. Safe to run concurrently with push;
// every sealed node ends up with exactly one owner.
func (queue *abandonedQueue) takeAll() *sealed {
	return (*sealed)(atomic.SwapPointer(&queue.head, nil))
}
