package goebr

// bagNode a bounded batch of retirement records. Bags that fill up are
// chained behind a fresh head, and only those full bags are reclaimed
// on rotation; the head keeps collecting for whichever epoch owns the
// queue next.
type bagNode struct {
	next    *bagNode
	records []Retired
}

func newBagNode(capacity int64) *bagNode {
	return &bagNode{records: make([]Retired, 0, capacity)}
}

func (bag *bagNode) isEmpty() bool {
	return bag.next == nil && len(bag.records) == 0
}

// reclaimAll run every cleanup in this bag and all bags chained behind
// it, returning the number of records reclaimed. Used on sealed chains,
// where the whole batch is provably unreachable at once.
func (bag *bagNode) reclaimAll() int64 {
	reclaimed := bag.reclaimRecords()
	node := bag.next
	bag.next = nil
	for node != nil {
		reclaimed += node.reclaimRecords()
		next := node.next
		node.next = nil
		node = next
	}
	return reclaimed
}

func (bag *bagNode) reclaimRecords() int64 {
	n := int64(len(bag.records))
	for i := range bag.records {
		bag.records[i].reclaim()
		bag.records[i] = Retired{}
	}
	bag.records = bag.records[:0]
	return n
}

// bagPool a bounded per-thread free list of emptied bags, recycled
// across rotations so the record arrays are not reallocated on the
// retire hot path.
type bagPool struct {
	bags     []*bagNode
	capacity int64 // records per bag
}

func newBagPool(size, capacity int64) *bagPool {
	return &bagPool{bags: make([]*bagNode, 0, size), capacity: capacity}
}

func (pool *bagPool) allocate() *bagNode {
	if n := len(pool.bags); n > 0 {
		bag := pool.bags[n-1]
		pool.bags[n-1] = nil
		pool.bags = pool.bags[:n-1]
		return bag
	}
	return newBagNode(pool.capacity)
}

func (pool *bagPool) recycle(bag *bagNode) {
	if len(pool.bags) < cap(pool.bags) {
		pool.bags = append(pool.bags, bag)
	}
}

// bagQueue collects retirement records for one epoch. Exclusively owned
// by one thread while unsealed, so no synchronization happens here.
type bagQueue struct {
	head *bagNode
}

func newBagQueue(capacity int64) bagQueue {
	return bagQueue{head: newBagNode(capacity)}
}

func (queue *bagQueue) retire(rec Retired, pool *bagPool) {
	queue.head.records = append(queue.head.records, rec)
	if len(queue.head.records) == cap(queue.head.records) {
		full := queue.head
		queue.head = pool.allocate()
		queue.head.next = full
	}
}

// reclaimFull reclaim the full bags chained behind the head and recycle
// the emptied nodes, returning the number of records reclaimed. The
// head bag stays put and keeps collecting.
func (queue *bagQueue) reclaimFull(pool *bagPool) int64 {
	reclaimed := int64(0)
	node := queue.head.next
	queue.head.next = nil
	for node != nil {
		reclaimed += node.reclaimRecords()
		next := node.next
		node.next = nil
		pool.recycle(node)
		node = next
	}
	return reclaimed
}

func (queue *bagQueue) isEmpty() bool {
	return queue.head.isEmpty()
}

// intoNonEmpty hand over the whole bag chain, or nil when nothing was
// ever retired into this queue, so empty bags never propagate into
// sealed lists.
func (queue *bagQueue) intoNonEmpty() *bagNode {
	if queue.isEmpty() {
		return nil
	}
	return queue.head
}

const bagQueueCount = 3

// epochBags the per-thread set of bag queues indexed by relative age:
// current epoch, one epoch old, two epochs old. Rotated forward each
// time the owning thread observes a global epoch advance; rotation is
// always lazy, there is no background collector.
type epochBags struct {
	queues [bagQueueCount]bagQueue
	curr   int
}

func newEpochBags(capacity int64) *epochBags {
	return &epochBags{
		queues: [bagQueueCount]bagQueue{
			newBagQueue(capacity), newBagQueue(capacity), newBagQueue(capacity),
		},
	}
}

func (bags *epochBags) retire(rec Retired, pool *bagPool) {
	bags.queues[bags.curr].retire(rec, pool)
}

// retireByAge file a record into the queue matching how old it already
// is, used when re-bagging sealed work adopted from the abandoned
// queue.
func (bags *epochBags) retireByAge(rec Retired, age PossibleAge, pool *bagPool) {
	switch age {
	case SameEpoch:
		bags.queues[bags.curr].retire(rec, pool)
	case OneEpoch:
		bags.queues[(bags.curr+2)%bagQueueCount].retire(rec, pool)
	case TwoEpochs:
		bags.queues[(bags.curr+1)%bagQueueCount].retire(rec, pool)
	}
}

// retireFinal append the thread's own registry entry to the current
// bag, bypassing the bag-full bookkeeping. Called once, during
// teardown, right before the bags are sealed.
func (bags *epochBags) retireFinal(rec Retired) {
	head := bags.queues[bags.curr].head
	head.records = append(head.records, rec)
}

// rotate shift the queues one age forward and reclaim the full bags of
// the queue that just became current again, two observed advances after
// it stopped being current. Returns the number of records reclaimed.
func (bags *epochBags) rotate(pool *bagPool) int64 {
	bags.curr = (bags.curr + 1) % bagQueueCount
	return bags.queues[bags.curr].reclaimFull(pool)
}

// intoSorted the queues ordered current first, oldest last, consumed
// when sealing at thread exit.
func (bags *epochBags) intoSorted() [bagQueueCount]bagQueue {
	a, b, c := bags.queues[0], bags.queues[1], bags.queues[2]
	switch bags.curr {
	case 0:
		return [bagQueueCount]bagQueue{a, c, b}
	case 1:
		return [bagQueueCount]bagQueue{b, a, c}
	case 2:
		return [bagQueueCount]bagQueue{c, b, a}
	}
	panic("impossible bag rotation index")
}
