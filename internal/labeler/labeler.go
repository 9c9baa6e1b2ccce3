package labeler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dolapscan/dolapscan/internal/fetch"
	"github.com/dolapscan/dolapscan/internal/model"
	"github.com/dolapscan/dolapscan/internal/parse"
	"github.com/dolapscan/dolapscan/internal/store"
)

// Labeler checks listing outcomes through the fetch controller.
type Labeler struct {
	executor fetch.Executor
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Labeler.
type Option func(*Labeler)

// WithLogger sets the labeler's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Labeler) {
		l.logger = logger
	}
}

// WithClock replaces the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Labeler) {
		l.now = now
	}
}

// New creates a Labeler that fetches through executor.
func New(executor fetch.Executor, opts ...Option) *Labeler {
	l := &Labeler{
		executor: executor,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check re-visits one listing and classifies its outcome.
//
// The returned error is non-nil only for run-halting conditions: ban
// detection and context cancellation. Listing-level failures (retries
// exhausted, a single blocked page, unrecognizable markup) come back as a
// label with StatusError, because one bad listing must not sink the run.
func (l *Labeler) Check(ctx context.Context, listingID, url string) (*model.LabelRecord, error) {
	label := &model.LabelRecord{
		ListingID: listingID,
		URL:       url,
		CheckedAt: l.now().UTC(),
	}

	result, err := l.executor.Execute(ctx, url, fetch.KindStatus)
	if err != nil {
		var banErr *fetch.BannedError
		if errors.As(err, &banErr) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		l.logger.Warn("status check failed", "listing_id", listingID, "error", err)
		label.Status = model.StatusError
		return label, nil
	}

	switch {
	case result.StatusCode == 404 || result.StatusCode == 410:
		// Gone without a sale signal. Withdrawn and sold-then-deleted are
		// indistinguishable here, so the label stays conservative.
		label.Status = model.StatusRemovedUnsold

	case parse.IsSoldPage(result.HTML):
		label.Status = model.StatusSold
		label.SoldWithinWindow = true

	case parse.LooksLikeListingPage(result.HTML):
		label.Status = model.StatusActive

	default:
		l.logger.Warn("unrecognizable page during status check",
			"listing_id", listingID, "status", result.StatusCode)
		label.Status = model.StatusError
	}

	return label, nil
}

// LabelCohort labels every unlabeled listing in the cohort's snapshot log,
// appending outcomes to the label log and counting them on summary.
//
// Already-labeled listings are skipped, which is what makes an interrupted
// run resumable. On ban detection the error is returned immediately; all
// labels appended before the halt are durable.
func (l *Labeler) LabelCohort(ctx context.Context, snapshots *store.SnapshotStore, labels *store.LabelStore, summary *model.RunSummary) error {
	labeled := labels.LabeledIDs()

	for _, listing := range snapshots.Listings() {
		if labeled[listing.ListingID] {
			summary.DuplicatesSkipped++
			continue
		}

		label, err := l.Check(ctx, listing.ListingID, listing.URL)
		if err != nil {
			var banErr *fetch.BannedError
			if errors.As(err, &banErr) {
				summary.Banned = true
			}
			return err
		}

		written, err := labels.Append(label)
		if err != nil {
			return err
		}
		if !written {
			summary.DuplicatesSkipped++
			continue
		}
		summary.CountStatus(label.Status)

		l.logger.Debug("listing labeled",
			"listing_id", label.ListingID,
			"label", string(label.Status),
			"sold_within_window", label.SoldWithinWindow)
	}

	return nil
}
