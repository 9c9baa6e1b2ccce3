package model

import "time"

// CohortState is the lifecycle state of a cohort. Transitions are monotonic:
// a cohort only moves forward along the scrape/label sequence, with the two
// *_failed states allowing a retry of the phase that failed.
type CohortState string

const (
	// CohortCreated is the initial state after registration.
	CohortCreated CohortState = "created"

	// CohortScraping means a scrape run is (or was) in progress.
	CohortScraping CohortState = "scraping"

	// CohortScrapingFailed means the scrape run aborted (e.g. ban) and may
	// be resumed.
	CohortScrapingFailed CohortState = "scraping_failed"

	// CohortScraped means all snapshots were written.
	CohortScraped CohortState = "scraped"

	// CohortLabelPending means the maturation window has elapsed and the
	// cohort is queued for labeling.
	CohortLabelPending CohortState = "label_pending"

	// CohortLabeling means a label run is (or was) in progress.
	CohortLabeling CohortState = "labeling"

	// CohortLabelingFailed means the label run aborted and may be resumed.
	CohortLabelingFailed CohortState = "labeling_failed"

	// CohortLabeled is the terminal state.
	CohortLabeled CohortState = "labeled"
)

// cohortTransitions is the forward-only transition graph.
var cohortTransitions = map[CohortState][]CohortState{
	CohortCreated:        {CohortScraping},
	CohortScraping:       {CohortScraped, CohortScrapingFailed},
	CohortScrapingFailed: {CohortScraping},
	CohortScraped:        {CohortLabelPending, CohortLabeling},
	CohortLabelPending:   {CohortLabeling},
	CohortLabeling:       {CohortLabeled, CohortLabelingFailed},
	CohortLabelingFailed: {CohortLabeling},
	CohortLabeled:        {},
}

// Valid reports whether s is a known state.
func (s CohortState) Valid() bool {
	_, ok := cohortTransitions[s]
	return ok
}

// CanTransition reports whether a cohort in state s may move to next.
func (s CohortState) CanTransition(next CohortState) bool {
	for _, allowed := range cohortTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s CohortState) Terminal() bool {
	return len(cohortTransitions[s]) == 0
}

// Cohort is a dated batch of listings scraped together and labeled together
// after a fixed maturation window. The registry row for a cohort is the
// single source of truth for its lifecycle; the meta.yaml document written
// next to the snapshot log is an audit mirror of it.
type Cohort struct {
	// ID identifies the cohort, by convention the scrape date as YYYYMMDD.
	ID string `json:"cohort_id" yaml:"cohort_id"`

	// Categories are the category slugs this cohort covers.
	Categories []string `json:"categories" yaml:"categories"`

	// State is the current lifecycle state.
	State CohortState `json:"state" yaml:"state"`

	// CreatedAt is when the cohort was registered.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// ScrapeCompletedAt is set when the scrape phase finishes.
	ScrapeCompletedAt *time.Time `json:"scrape_completed_at,omitempty" yaml:"scrape_completed_at,omitempty"`

	// LabelDueAt is CreatedAt plus the maturation window. Labeling before
	// this instant would undercount sales.
	LabelDueAt time.Time `json:"label_due_at" yaml:"label_due_at"`

	// LabelCompletedAt is set when the label phase finishes.
	LabelCompletedAt *time.Time `json:"label_completed_at,omitempty" yaml:"label_completed_at,omitempty"`

	// ListingCount and LabelCount mirror the log sizes for auditing.
	ListingCount int `json:"listing_count" yaml:"listing_count"`
	LabelCount   int `json:"label_count" yaml:"label_count"`
}

// NewCohort creates a cohort in the created state with the label due
// timestamp derived from the maturation window.
func NewCohort(id string, categories []string, now time.Time, maturation time.Duration) *Cohort {
	return &Cohort{
		ID:         id,
		Categories: append([]string(nil), categories...),
		State:      CohortCreated,
		CreatedAt:  now.UTC(),
		LabelDueAt: now.UTC().Add(maturation),
	}
}

// DueForLabeling reports whether the maturation window has elapsed and the
// cohort is in a state from which labeling can start.
func (c *Cohort) DueForLabeling(now time.Time) bool {
	if c.State != CohortScraped && c.State != CohortLabelPending {
		return false
	}
	return !now.Before(c.LabelDueAt)
}
