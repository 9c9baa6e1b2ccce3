// Package registry is the durable record of cohort lifecycles.
//
// The registry is a single SQLite database at the root of the data dir,
// one row per cohort. It is the source of truth the orchestrator reads on
// startup to decide what to do next: create today's cohort, resume a
// failed scrape, or label whichever cohorts have matured. The process is
// expected to die and restart many times across a cohort's week-long life,
// so nothing about lifecycle state lives only in memory.
//
// State changes go through Advance, which enforces the forward-only
// transition graph with a compare-and-swap on the current state. A stale
// caller (for example two overlapping invocations of the CLI) loses the
// race and gets ErrInvalidTransition instead of silently rewinding a
// cohort.
package registry
