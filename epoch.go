package goebr

import "fmt"
import "sync/atomic"

// EpochIncrement is the step by which the global epoch advances. The
// low bit of an epoch value is never set; it is reserved for the
// inactive flag packed into each thread's state word.
const EpochIncrement = 2

// Epoch an opaque value of the global logical clock. Epochs advance in
// steps of EpochIncrement and compare only through wraparound-safe
// subtraction, never through plain ordering.
type Epoch uint64

// Next the epoch one step ahead of this epoch.
func (epoch Epoch) Next() Epoch {
	return Epoch(uint64(epoch) + EpochIncrement)
}

// Sub the epoch n steps behind this epoch, with wraparound.
func (epoch Epoch) Sub(n uint64) Epoch {
	return Epoch(uint64(epoch) - n*EpochIncrement)
}

// PossibleAge classifies how far a thread's epoch trails the global
// epoch, as far as wraparound allows telling.
type PossibleAge byte

const (
	// SameEpoch thread has observed the current global epoch.
	SameEpoch PossibleAge = iota
	// OneEpoch thread could be one epoch behind.
	OneEpoch
	// TwoEpochs thread could be two epochs behind.
	TwoEpochs
)

// RelativeAge computes global minus this epoch using wraparound
// subtraction and classifies the difference. ok is false when the
// difference falls outside the two-epoch window: the epoch is either
// far in the past or, because of wraparound, indistinguishable from far
// in the future. Reclamation decisions must treat ok == false as
// "not yet safe, do nothing".
func (epoch Epoch) RelativeAge(global Epoch) (age PossibleAge, ok bool) {
	switch uint64(global) - uint64(epoch) {
	case 0:
		return SameEpoch, true
	case EpochIncrement:
		return OneEpoch, true
	case 2 * EpochIncrement:
		return TwoEpochs, true
	}
	return 0, false
}

func (epoch Epoch) String() string {
	return fmt.Sprintf("epoch %v", uint64(epoch)/EpochIncrement)
}

// AtomicEpoch the global epoch clock, an atomically accessed counter.
type AtomicEpoch struct {
	value uint64
}

// Load atomically read the current epoch.
func (ae *AtomicEpoch) Load() Epoch {
	return Epoch(atomic.LoadUint64(&ae.value))
}

// CompareAndSwap attempt to move the clock from current to next,
// return true if this caller installed next. Losing the race is never
// an error, it only means another thread advanced the clock first.
func (ae *AtomicEpoch) CompareAndSwap(current, next Epoch) bool {
	return atomic.CompareAndSwapUint64(&ae.value, uint64(current), uint64(next))
}

func (ae *AtomicEpoch) String() string {
	return ae.Load().String()
}
