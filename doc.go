// Package goebr implement distributed epoch based reclamation for
// lock-free data structures: concurrent threads can free memory that
// other threads may still be reading, without blocking readers and
// without reference counting.
//
// A Domain bundles the global epoch clock, the thread registry and the
// abandoned queue. Each thread registers a Local with the domain,
// acquires a Guard around every region that dereferences shared
// memory, and hands removed objects to Retire together with their
// cleanup action. The cleanup runs exactly once, after the global
// epoch has moved far enough that no guard acquired before the
// retirement can still be live.
//
// Threads that exit seal their unreclaimed bags and abandon them to
// the domain; any surviving thread picks the sealed work up while
// advancing the epoch, so nothing is stranded. Reclamation is
// eventual, never bounded: a thread that holds a guard forever stalls
// the clock for everyone.
//
// Sub-packages:
//
// api:
//
// Contracts shared with client data structures, notably the atomic
// tagged-pointer slot loaded by guards.
//
// lib:
//
// Convenience helpers that import nothing outside the standard
// library.
package goebr
