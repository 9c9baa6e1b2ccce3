// Package model defines the core data structures used throughout dolapscan.
//
// This package contains the following main types:
//   - ListingRecord: One immutable snapshot of a marketplace listing
//   - LabelRecord: One outcome observation for a listing after the maturation window
//   - Cohort: A dated batch of listings with a durable lifecycle state
//   - RunSummary: Per-run counters consumed by the report writers
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (parse, store, registry, pipeline, report)
// need to use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for the append-only
// snapshot and label logs, and to YAML for the cohort metadata document.
package model
