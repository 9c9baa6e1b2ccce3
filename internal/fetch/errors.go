package fetch

import (
	"fmt"
	"time"
)

// FetchFailedError reports that a request failed after exhausting its retry
// budget on transient errors. It wraps the last underlying error.
type FetchFailedError struct {
	// URL is the requested page.
	URL string

	// Attempts is the total number of attempts made.
	Attempts int

	// Err is the error from the final attempt.
	Err error
}

// Error implements the error interface.
func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("fetch failed after %d attempts: %s: %v", e.Attempts, e.URL, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *FetchFailedError) Unwrap() error {
	return e.Err
}

// BlockingError reports a single blocking response: an anti-bot status code
// or a challenge page served in place of content. Blocking responses are
// never retried; the caller decides whether to move on to the next target.
type BlockingError struct {
	// URL is the requested page.
	URL string

	// StatusCode is the HTTP status of the document response.
	StatusCode int

	// Challenge is true when the body was a WAF interstitial, which can
	// arrive with status 200.
	Challenge bool

	// Consecutive is the controller's blocking streak including this
	// response.
	Consecutive int
}

// Error implements the error interface.
func (e *BlockingError) Error() string {
	if e.Challenge {
		return fmt.Sprintf("blocked: challenge page for %s (status %d, streak %d)",
			e.URL, e.StatusCode, e.Consecutive)
	}
	return fmt.Sprintf("blocked: status %d for %s (streak %d)",
		e.StatusCode, e.URL, e.Consecutive)
}

// BannedError reports that the consecutive blocking threshold was reached
// and the controller has paused itself. Callers must stop issuing requests
// through this controller, persist their progress, and surface the error.
type BannedError struct {
	// URL is the request that tripped the threshold, or empty when the
	// request was refused because the controller was already paused.
	URL string

	// Consecutive is the blocking streak at pause time.
	Consecutive int

	// PausedUntil is when the cool-down expires.
	PausedUntil time.Time
}

// Error implements the error interface.
func (e *BannedError) Error() string {
	return fmt.Sprintf("ban detected after %d consecutive blocks, paused until %s",
		e.Consecutive, e.PausedUntil.Format(time.RFC3339))
}
