// Package pipeline orchestrates the two halves of a cohort's lifecycle:
// the scrape run that snapshots listings and the label run that re-visits
// them after the maturation window.
//
// Every run is built to be interrupted. The registry records which phase a
// cohort is in, the append-only logs record what was already done, and a
// re-run of the same phase skips work that survived the previous attempt.
// A ban mid-run therefore costs the cooldown, never the data.
//
// Scrape runs can fan out over several browser sessions. Each session owns
// its own renderer and anti-ban controller, so one session tripping the
// ban threshold does not pause the others; the run as a whole stops only
// when a session reports a ban, because continuing to hammer the site from
// the remaining sessions is how a soft ban becomes a hard one.
package pipeline
