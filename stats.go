package goebr

import humanize "github.com/dustin/go-humanize"

// Stats a consolidated map of this domain's counters.
//
// "epoch"       logical epoch count, global clock divided by the step.
// "n_threads"   currently registered threads.
// "n_retired"   records handed to the reclaimer, including adopted
//               seals and registry entries.
// "n_reclaimed" records whose cleanup has run.
// "n_pending"   retired but not yet reclaimed.
// "n_advances"  successful epoch advances.
// "n_abandoned" sealed lists pushed by exiting threads.
// "n_drains"    non-empty drains of the abandoned queue.
func (dom *Domain) Stats() map[string]interface{} {
	stats := make(map[string]interface{})
	retired, reclaimed := dom.nretired.Value(), dom.nreclaimed.Value()
	stats["epoch"] = uint64(dom.epoch.Load()) / EpochIncrement
	stats["n_threads"] = dom.threads.count()
	stats["n_retired"] = retired
	stats["n_reclaimed"] = reclaimed
	stats["n_pending"] = retired - reclaimed
	stats["n_advances"] = dom.nadvances.Value()
	stats["n_abandoned"] = dom.nabandoned.Value()
	stats["n_drains"] = dom.ndrains.Value()
	return stats
}

// Log vital statistics via the configured logger.
func (dom *Domain) Log() {
	stats := dom.Stats()
	fmsg := "%v epoch %v, threads %v, advances %v\n"
	infof(fmsg, dom.logprefix, stats["epoch"], stats["n_threads"],
		stats["n_advances"])
	fmsg = "%v retired %v, reclaimed %v, pending %v\n"
	infof(fmsg, dom.logprefix,
		humanize.Comma(stats["n_retired"].(int64)),
		humanize.Comma(stats["n_reclaimed"].(int64)),
		humanize.Comma(stats["n_pending"].(int64)))
	fmsg = "%v abandoned %v, drains %v\n"
	infof(fmsg, dom.logprefix, stats["n_abandoned"], stats["n_drains"])
}

// Validate accounting invariants; every reclaimed record must have
// been retired first. Panics on violation.
func (dom *Domain) Validate() {
	retired, reclaimed := dom.nretired.Value(), dom.nreclaimed.Value()
	if reclaimed > retired {
		panicerr("reclaimed %v exceeds retired %v", reclaimed, retired)
	}
}

// Stats for this thread's coordinator: its counters and a histogram of
// reclamation batch sizes.
func (local *Local) Stats() map[string]interface{} {
	stats := make(map[string]interface{})
	stats["epoch"] = uint64(local.cached) / EpochIncrement
	stats["active"] = local.guardcount > 0
	stats["n_ops"] = local.opcount
	stats["n_checks"] = local.checks
	stats["h_reclaims"] = local.h_reclaims.Fullstats()
	return stats
}
