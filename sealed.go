package goebr

// sealed an immutable epoch-tagged bag chain extracted from an exiting
// thread. seal records the epoch during which the entries were retired;
// whoever takes the node off the abandoned queue owns it exclusively
// and must either re-bag it by age or reclaim it, never both.
type sealed struct {
	next *sealed
	seal Epoch
	bags *bagNode
}

func (s *sealed) reclaim() int64 {
	return s.bags.reclaimAll()
}

// sealList freeze an exiting thread's remaining bags into a singly
// linked chain of epoch-tagged sealed nodes, newest seal first. Empty
// queues are dropped; head is nil when every queue was empty.
func sealList(bags *epochBags, current Epoch) (head, tail *sealed) {
	sorted := bags.intoSorted()
	for idx := range sorted {
		chain := sorted[idx].intoNonEmpty()
		if chain == nil {
			continue
		}
		node := &sealed{seal: current.Sub(uint64(idx)), bags: chain}
		if head == nil {
			head, tail = node, node
		} else {
			tail.next = node
			tail = node
		}
	}
	return head, tail
}
