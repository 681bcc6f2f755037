package goebr

import "fmt"
import "sync/atomic"

const inactiveBit = uint64(0x1)

// ThreadState one word of per-thread book-keeping: the epoch the owning
// thread last observed and whether it currently holds a live guard,
// packed into a single uint64 so both are always observed together.
// Written only by the owning thread, read by any thread scanning the
// registry for epoch advancement.
type ThreadState struct {
	word uint64
}

// Load atomically read the last observed epoch and the active flag.
func (state *ThreadState) Load() (Epoch, bool) {
	word := atomic.LoadUint64(&state.word)
	return Epoch(word &^ inactiveBit), word&inactiveBit == 0
}

// Store atomically publish a new epoch and active flag. Only the
// owning thread may call Store.
func (state *ThreadState) Store(epoch Epoch, active bool) {
	word := uint64(epoch)
	if active == false {
		word |= inactiveBit
	}
	atomic.StoreUint64(&state.word, word)
}

func (state *ThreadState) String() string {
	epoch, active := state.Load()
	if active {
		return fmt.Sprintf("%v, state: active", epoch)
	}
	return fmt.Sprintf("%v, state: inactive", epoch)
}
