package goebr

import "unsafe"

// Retired pairs the raw address of an object logically removed from a
// lock-free structure with the cleanup action to run once no guard can
// still observe it. The reclaimer never interprets the memory behind
// the address, it only invokes the cleanup exactly once at the
// proven-safe moment.
type Retired struct {
	ptr  unsafe.Pointer
	free func(unsafe.Pointer)
}

// NewRetired make a retirement record for ptr. The cleanup action is
// mandatory; a structure with nothing to release on reclamation has
// nothing to retire either.
func NewRetired(ptr unsafe.Pointer, free func(unsafe.Pointer)) Retired {
	if free == nil {
		panic("goebr.retired: nil cleanup action")
	}
	return Retired{ptr: ptr, free: free}
}

// Ptr the retired address.
func (rec Retired) Ptr() unsafe.Pointer {
	return rec.ptr
}

func (rec Retired) reclaim() {
	rec.free(rec.ptr)
}
