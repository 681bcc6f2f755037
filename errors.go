package goebr

import "errors"

// ErrSlotChanged returned by Guard.ProtectIfEqual when the slot no
// longer holds the expected value; callers retry their higher-level
// operation.
var ErrSlotChanged = errors.New("goebr.slotchanged")
