package goebr

import s "github.com/bnclabs/gosettings"

// Defaultsettings for a reclamation domain.
//
// "check.threshold" (int64, default: 100)
//      Number of retirements between two checks of the global state.
//      Must be strictly positive; configure 1 to check on every single
//      retirement.
//
// "advance.threshold" (int64, default: 100)
//      Number of fully successful registry scans before the thread
//      attempts to advance the global epoch.
//
// "bag.capacity" (int64, default: 256)
//      Number of retirement records per bag. A bag that fills up moves
//      behind its queue's head and becomes reclaimable wholesale on a
//      later rotation.
//
// "bagpool.size" (int64, default: 16)
//      Number of emptied bags each thread keeps around for reuse.
func Defaultsettings() s.Settings {
	return s.Settings{
		"check.threshold":   int64(100),
		"advance.threshold": int64(100),
		"bag.capacity":      int64(256),
		"bagpool.size":      int64(16),
	}
}
