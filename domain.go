package goebr

import "fmt"
import "sync"

import s "github.com/bnclabs/gosettings"
import "github.com/puzpuzpuz/xsync/v3"

// Domain one self-contained reclamation universe: the epoch clock, the
// thread registry, the abandoned queue and the tuning knobs, shared by
// every Local created from it. Most applications use the package-level
// default domain; separate domains exist so independent data structures,
// and tests, cannot stall each other's epochs.
type Domain struct {
	epoch   AtomicEpoch
	threads registry
	orphans abandonedQueue

	// statistics, bumped concurrently from every thread.
	nretired   *xsync.Counter
	nreclaimed *xsync.Counter
	nadvances  *xsync.Counter
	nabandoned *xsync.Counter
	ndrains    *xsync.Counter

	name      string
	logprefix string
	setts     s.Settings

	// settings
	checkthreshold   int64
	advancethreshold int64
	bagcapacity      int64
	bagpoolsize      int64
}

// NewDomain create a reclamation domain. Settings are immutable for
// the domain's lifetime; keys missing from setts fall back to
// Defaultsettings().
func NewDomain(name string, setts s.Settings) *Domain {
	dom := &Domain{name: name}
	dom.logprefix = fmt.Sprintf("EBR [%s]", name)

	setts = make(s.Settings).Mixin(Defaultsettings(), setts)
	dom.readsettings(setts)
	dom.setts = setts

	dom.nretired = xsync.NewCounter()
	dom.nreclaimed = xsync.NewCounter()
	dom.nadvances = xsync.NewCounter()
	dom.nabandoned = xsync.NewCounter()
	dom.ndrains = xsync.NewCounter()

	infof("%v started ...\n", dom.logprefix)
	return dom
}

func (dom *Domain) readsettings(setts s.Settings) {
	dom.checkthreshold = setts.Int64("check.threshold")
	dom.advancethreshold = setts.Int64("advance.threshold")
	dom.bagcapacity = setts.Int64("bag.capacity")
	dom.bagpoolsize = setts.Int64("bagpool.size")
	if dom.checkthreshold <= 0 {
		panicerr("check.threshold must be positive, got %v", dom.checkthreshold)
	}
	if dom.bagcapacity <= 0 {
		panicerr("bag.capacity must be positive, got %v", dom.bagcapacity)
	}
	if dom.bagpoolsize < 0 {
		panicerr("bagpool.size must not be negative, got %v", dom.bagpoolsize)
	}
}

// NewLocal register the calling thread with this domain and return its
// per-thread coordinator. The Local must stay confined to the creating
// thread and be closed when the thread is done with the domain.
func (dom *Domain) NewLocal() *Local {
	return newLocal(dom)
}

// CurrentEpoch the global epoch as of this call.
func (dom *Domain) CurrentEpoch() Epoch {
	return dom.epoch.Load()
}

// Name this domain's name.
func (dom *Domain) Name() string {
	return dom.name
}

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf("goebr: "+fmsg, args...))
}

var initonce sync.Once
var defaultdomain *Domain

// Initialize the default domain with application settings. Only the
// first call wins, including an implicit one through Default(); later
// calls are ignored with a warning since the configuration is
// build-then-use, never mutate-after-use.
func Initialize(setts s.Settings) *Domain {
	first := false
	initonce.Do(func() {
		defaultdomain = NewDomain("default", setts)
		first = true
	})
	if first == false {
		warnf("%v already initialized, settings ignored\n", defaultdomain.logprefix)
	}
	return defaultdomain
}

// Default the process-wide domain, created with default settings on
// first use and living for the process lifetime.
func Default() *Domain {
	initonce.Do(func() {
		defaultdomain = NewDomain("default", nil)
	})
	return defaultdomain
}

// NewLocal register the calling thread with the default domain.
func NewLocal() *Local {
	return Default().NewLocal()
}
