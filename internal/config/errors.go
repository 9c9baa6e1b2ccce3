package config

import "errors"

// Configuration validation errors.
//
// Design decision: We use package-level sentinel errors rather than creating
// new error instances in Validate(). This allows callers to use errors.Is()
// for programmatic error handling while still providing human-readable
// messages.
var (
	// ErrNoBaseURL is returned when the marketplace base URL is empty.
	ErrNoBaseURL = errors.New("no base URL configured")

	// ErrNoCategories is returned by the scrape command when neither the
	// config file nor --categories provides any category slugs.
	ErrNoCategories = errors.New("no categories: set them in .dolapscan or pass --categories")

	// ErrInvalidDelayBounds is returned when the pacing bounds are negative
	// or inverted.
	ErrInvalidDelayBounds = errors.New("invalid delay bounds: need 0 <= min <= max")

	// ErrInvalidMaxRetries is returned when the retry budget is negative.
	ErrInvalidMaxRetries = errors.New("invalid max retries: must be non-negative")

	// ErrInvalidTimeout is returned when the render timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBanThreshold is returned when the ban threshold is not
	// positive. A zero threshold would pause the controller immediately.
	ErrInvalidBanThreshold = errors.New("invalid ban threshold: must be positive")

	// ErrInvalidMaturationWindow is returned when the maturation window is
	// not positive. Labeling at scrape time would make every label trivially
	// "active".
	ErrInvalidMaturationWindow = errors.New("invalid maturation window: must be positive")

	// ErrInvalidMaxPages is returned when the pagination limit is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidSessions is returned when the session count is not positive.
	ErrInvalidSessions = errors.New("invalid sessions: must be positive")

	// ErrEmptyIdentityPool is returned when no user agents are configured.
	ErrEmptyIdentityPool = errors.New("empty identity pool: configure at least one user agent")
)
