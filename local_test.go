package goebr

import "sync"
import "sync/atomic"
import "testing"
import "unsafe"

import s "github.com/bnclabs/gosettings"

func testsetts(check, advance, capacity int64) s.Settings {
	return s.Settings{
		"check.threshold":   check,
		"advance.threshold": advance,
		"bag.capacity":      capacity,
		"bagpool.size":      int64(16),
	}
}

func TestRetireReclaim(t *testing.T) {
	// every retirement checks, every check advances and bags hold one
	// record each, so the whole protocol runs in deterministic steps.
	dom := NewDomain("retirereclaim", testsetts(1, 1, 1))
	local := dom.NewLocal()

	freed := [3]bool{}
	g := local.NewGuard()
	for i := 0; i < 3; i++ {
		i := i
		local.Retire(nil, func(unsafe.Pointer) { freed[i] = true })
	}
	// three advances happened, the record from the first epoch just
	// became two epochs old and was reclaimed.
	if x, y := Epoch(6), dom.CurrentEpoch(); x != y {
		t.Errorf("expected %v, got %v", x, y)
	}
	if freed != [3]bool{true, false, false} {
		t.Errorf("expected only the first record freed, got %v", freed)
	}

	local.TryFlush()
	if freed != [3]bool{true, true, false} {
		t.Errorf("expected two records freed, got %v", freed)
	}
	local.TryFlush()
	if freed != [3]bool{true, true, true} {
		t.Errorf("expected all records freed, got %v", freed)
	}
	local.TryFlush() // nothing left, still advances
	if x, y := Epoch(12), dom.CurrentEpoch(); x != y {
		t.Errorf("expected %v, got %v", x, y)
	}

	g.Release()
	local.Close()
	dom.Validate()
}

func TestThresholds(t *testing.T) {
	dom := NewDomain("thresholds", testsetts(3, 2, 256))
	local := dom.NewLocal()
	g := local.NewGuard()

	for i := 0; i < 5; i++ {
		local.Retire(nil, func(unsafe.Pointer) {})
	}
	// one check so far, below the advance threshold.
	if x, y := Epoch(0), dom.CurrentEpoch(); x != y {
		t.Errorf("expected %v, got %v", x, y)
	}
	local.Retire(nil, func(unsafe.Pointer) {})
	// second clean scan advances the clock.
	if x, y := Epoch(2), dom.CurrentEpoch(); x != y {
		t.Errorf("expected %v, got %v", x, y)
	}

	g.Release()
	local.Close()
	dom.Validate()
}

func TestStuckReader(t *testing.T) {
	dom := NewDomain("stuckreader", testsetts(1, 1, 1))
	reader := dom.NewLocal()
	writer := dom.NewLocal()

	gr := reader.NewGuard() // pins epoch 0

	freed := int64(0)
	gw := writer.NewGuard()
	for i := 0; i < 5; i++ {
		writer.Retire(nil, func(unsafe.Pointer) { atomic.AddInt64(&freed, 1) })
	}
	for i := 0; i < 10; i++ {
		writer.TryFlush()
	}
	// the first advance saw the reader active at the then-current
	// epoch and went through; after that the reader vetoes every scan.
	if x, y := Epoch(2), dom.CurrentEpoch(); x != y {
		t.Errorf("expected %v, got %v", x, y)
	}
	if x := atomic.LoadInt64(&freed); x != 0 {
		t.Errorf("expected nothing freed under a pinned epoch, got %v", x)
	}

	gr.Release()
	for i := 0; i < 5; i++ {
		writer.TryFlush()
	}
	if x, y := Epoch(12), dom.CurrentEpoch(); x != y {
		t.Errorf("expected %v, got %v", x, y)
	}
	if x := atomic.LoadInt64(&freed); x != 5 {
		t.Errorf("expected all 5 records freed, got %v", x)
	}

	gw.Release()
	writer.Close()
	reader.Close()
	dom.Validate()
}

func TestAbandonedAdoption(t *testing.T) {
	// the exiting thread never checks, its bags leave through the
	// abandoned queue and a surviving thread finishes them.
	dom := NewDomain("abandonedadopt", testsetts(1000, 1, 1))
	survivor := dom.NewLocal()
	exiting := dom.NewLocal()

	freed := int64(0)
	g := exiting.NewGuard()
	for i := 0; i < 3; i++ {
		exiting.Retire(nil, func(unsafe.Pointer) { atomic.AddInt64(&freed, 1) })
	}
	g.Release()
	exiting.Close()

	if x, y := int64(1), dom.Stats()["n_abandoned"]; x != y {
		t.Errorf("expected %v abandoned lists, got %v", x, y)
	}

	gs := survivor.NewGuard()
	survivor.TryFlush() // adopts the seal, one epoch old by now
	survivor.TryFlush()
	survivor.TryFlush() // adopted bag turned two epochs old, reclaimed
	if x := atomic.LoadInt64(&freed); x != 3 {
		t.Errorf("expected 3 adopted records freed, got %v", x)
	}
	survivor.TryFlush()
	if x := atomic.LoadInt64(&freed); x != 3 {
		t.Errorf("expected no double reclamation, got %v", x)
	}

	gs.Release()
	survivor.Close()
	dom.Validate()
}

func TestAbandonedAncient(t *testing.T) {
	// seals older than the two-epoch window are reclaimed on the spot
	// by whoever drains them.
	dom := NewDomain("abandonedancient", testsetts(1000, 1, 1))
	survivor := dom.NewLocal()
	exiting := dom.NewLocal()

	freed := int64(0)
	g := exiting.NewGuard()
	exiting.Retire(nil, func(unsafe.Pointer) { atomic.AddInt64(&freed, 1) })
	g.Release()

	gs := survivor.NewGuard()
	for i := 0; i < 3; i++ {
		survivor.TryFlush()
	}
	if x, y := Epoch(6), dom.CurrentEpoch(); x != y {
		t.Errorf("expected %v, got %v", x, y)
	}

	// seal carries the exiting thread's stale epoch 0.
	exiting.Close()
	survivor.TryFlush()
	if x := atomic.LoadInt64(&freed); x != 1 {
		t.Errorf("expected ancient seal reclaimed immediately, got %v", x)
	}

	gs.Release()
	survivor.Close()
	dom.Validate()
}

func TestRetireWithoutGuard(t *testing.T) {
	dom := NewDomain("retirenoguard", nil)
	local := dom.NewLocal()
	defer local.Close()

	defer func() {
		if recover() == nil {
			t.Errorf("expected panic on retire without a guard")
		}
	}()
	local.Retire(nil, func(unsafe.Pointer) {})
}

func TestCloseWithGuard(t *testing.T) {
	dom := NewDomain("closewithguard", nil)
	local := dom.NewLocal()
	g := local.NewGuard()

	func() {
		defer func() {
			if recover() == nil {
				t.Errorf("expected panic on close with live guards")
			}
		}()
		local.Close()
	}()
	g.Release()
	local.Close()
}

func TestCloseTwice(t *testing.T) {
	dom := NewDomain("closetwice", nil)
	local := dom.NewLocal()
	local.Close()
	local.Close() // no-op

	defer func() {
		if recover() == nil {
			t.Errorf("expected panic on retire after close")
		}
	}()
	local.Retire(nil, func(unsafe.Pointer) {})
}

func TestFlushOnClosed(t *testing.T) {
	dom := NewDomain("flushclosed", nil)
	local := dom.NewLocal()
	local.Close()

	defer func() {
		if recover() == nil {
			t.Errorf("expected panic on flush after close")
		}
	}()
	local.TryFlush()
}

func TestLocalStats(t *testing.T) {
	dom := NewDomain("localstats", testsetts(1, 1, 1))
	local := dom.NewLocal()

	g := local.NewGuard()
	for i := 0; i < 8; i++ {
		local.Retire(nil, func(unsafe.Pointer) {})
	}
	stats := local.Stats()
	if x, y := true, stats["active"].(bool); x != y {
		t.Errorf("expected active %v, got %v", x, y)
	}
	if x, y := uint64(8), stats["epoch"].(uint64); x != y {
		t.Errorf("expected epoch %v, got %v", x, y)
	}
	if _, ok := stats["h_reclaims"]; ok == false {
		t.Errorf("expected h_reclaims in local stats")
	}

	g.Release()
	local.Close()
	dom.Validate()
}

func TestDomainConcurrent(t *testing.T) {
	dom := NewDomain("concurrent", testsetts(1, 1, 1))

	nworkers, nrecords := 8, 200
	total := int64(nworkers * nrecords)
	freed := int64(0)

	var wg sync.WaitGroup
	for i := 0; i < nworkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := dom.NewLocal()
			for j := 0; j < nrecords; j++ {
				g := local.NewGuard()
				local.Retire(nil, func(unsafe.Pointer) {
					atomic.AddInt64(&freed, 1)
				})
				g.Release()
			}
			local.Close()
		}()
	}
	wg.Wait()

	// a surviving thread alone can always advance, so everything the
	// workers left behind gets reclaimed within a bounded number of
	// flush cycles.
	survivor := dom.NewLocal()
	g := survivor.NewGuard()
	for i := 0; i < 1000 && atomic.LoadInt64(&freed) < total; i++ {
		survivor.TryFlush()
	}
	g.Release()
	survivor.Close()

	if x := atomic.LoadInt64(&freed); x != total {
		t.Errorf("expected %v records freed, got %v", total, x)
	}
	dom.Validate()
}
