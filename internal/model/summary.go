package model

import "time"

// RunPhase identifies which half of the lifecycle a run executed.
type RunPhase string

const (
	// PhaseScrape is a crawl-and-snapshot run.
	PhaseScrape RunPhase = "scrape"

	// PhaseLabel is a re-visit-and-label run.
	PhaseLabel RunPhase = "label"
)

// RunSummary aggregates the counters of one scrape or label run. It is what
// the CLI prints at the end of a run and what the report writers render.
//
// Design decision: Counters live on the summary rather than on the stores
// because a run can touch several components (crawler, controller, store)
// and the user-facing numbers should come from a single place.
type RunSummary struct {
	// Phase is scrape or label.
	Phase RunPhase `json:"phase"`

	// CohortID is the cohort this run worked on.
	CohortID string `json:"cohort_id"`

	// Categories are the category slugs covered (scrape runs only).
	Categories []string `json:"categories,omitempty"`

	// StartedAt and FinishedAt bound the run in UTC.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// PagesCrawled counts category pages fetched.
	PagesCrawled int `json:"pages_crawled,omitempty"`

	// URLsFound counts unique listing URLs discovered.
	URLsFound int `json:"urls_found,omitempty"`

	// RecordsAppended counts snapshots written to the log.
	RecordsAppended int `json:"records_appended,omitempty"`

	// LabelsAppended counts label records written to the log.
	LabelsAppended int `json:"labels_appended,omitempty"`

	// StatusCounts breaks labels down per status value.
	StatusCounts map[ListingStatus]int `json:"status_counts,omitempty"`

	// DuplicatesSkipped counts listings skipped because a snapshot or
	// label already existed from an earlier attempt on the same cohort.
	DuplicatesSkipped int `json:"duplicates_skipped,omitempty"`

	// Errors counts listing-level failures that were absorbed and recorded.
	Errors int `json:"errors"`

	// Banned reports whether the run was halted by ban detection.
	Banned bool `json:"banned"`
}

// NewRunSummary creates a summary for a run starting now.
func NewRunSummary(phase RunPhase, cohortID string, now time.Time) *RunSummary {
	return &RunSummary{
		Phase:        phase,
		CohortID:     cohortID,
		StartedAt:    now.UTC(),
		StatusCounts: make(map[ListingStatus]int),
	}
}

// CountStatus records one label outcome.
func (s *RunSummary) CountStatus(status ListingStatus) {
	if s.StatusCounts == nil {
		s.StatusCounts = make(map[ListingStatus]int)
	}
	s.StatusCounts[status]++
	s.LabelsAppended++
	if status == StatusError {
		s.Errors++
	}
}

// Succeeded reports whether the run finished without a run-level abort.
func (s *RunSummary) Succeeded() bool {
	return !s.Banned
}
