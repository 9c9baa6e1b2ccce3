package model

import "time"

// ListingStatus classifies the outcome of re-visiting a listing after the
// maturation window.
//
// Design decision: We use string constants rather than iota because the
// values are serialized verbatim into the label log and joined by downstream
// consumers; an integer encoding would make the files opaque.
type ListingStatus string

const (
	// StatusActive means the listing page loaded and the item is still
	// purchasable.
	StatusActive ListingStatus = "active"

	// StatusSold means the listing page loaded and shows the platform's
	// sold badge.
	StatusSold ListingStatus = "sold"

	// StatusRemovedUnsold means the page is gone (404/410) without an
	// observed sale signal. Disappearance is classified conservatively:
	// the seller may have withdrawn the listing or it may have sold and
	// been deleted, so this stays a distinct value rather than being
	// folded into sold or active.
	StatusRemovedUnsold ListingStatus = "removed_unsold"

	// StatusError means the check itself failed (retries exhausted,
	// unrecognizable markup). Error labels are retained for audit but
	// excluded from aggregation until a later pass retries them.
	StatusError ListingStatus = "error"
)

// Valid reports whether s is one of the known status values.
func (s ListingStatus) Valid() bool {
	switch s {
	case StatusActive, StatusSold, StatusRemovedUnsold, StatusError:
		return true
	default:
		return false
	}
}

// LabelRecord is one outcome observation for a listing. The label log is
// append-only: a re-check of the same listing produces a new record, never
// an update of an old one.
type LabelRecord struct {
	// ListingID joins the label back to the cohort's snapshots.
	ListingID string `json:"listing_id"`

	// URL is the listing URL that was re-visited.
	URL string `json:"url"`

	// Status is the observed outcome.
	Status ListingStatus `json:"status"`

	// SoldWithinWindow is the supervised target: true only when the sold
	// badge was observed during the labeling pass.
	SoldWithinWindow bool `json:"sold_within_window"`

	// CheckedAt is when the re-visit happened, in UTC.
	CheckedAt time.Time `json:"checked_at"`
}
