package pipeline

import "errors"

var (
	// ErrCohortNotScrapable is returned when a scrape run is requested for
	// a cohort whose state does not allow scraping (e.g. already scraped).
	ErrCohortNotScrapable = errors.New("cohort is not in a scrapable state")

	// ErrCohortNotLabelable is returned when a label run is requested for
	// a cohort whose state does not allow labeling.
	ErrCohortNotLabelable = errors.New("cohort is not in a labelable state")

	// ErrNotDue is returned when a label run is requested before the
	// cohort's maturation window has elapsed. Labeling early undercounts
	// sales, so this requires an explicit force.
	ErrNotDue = errors.New("cohort maturation window has not elapsed")

	// ErrNoCategories is returned when a scrape run has no category slugs
	// to crawl.
	ErrNoCategories = errors.New("no categories configured")
)
