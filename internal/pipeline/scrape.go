package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dolapscan/dolapscan/internal/crawl"
	"github.com/dolapscan/dolapscan/internal/fetch"
	"github.com/dolapscan/dolapscan/internal/model"
	"github.com/dolapscan/dolapscan/internal/parse"
	"github.com/dolapscan/dolapscan/internal/registry"
	"github.com/dolapscan/dolapscan/internal/store"
)

// scrapeRun carries the shared state of one scrape run. The snapshot store
// keeps its dedupe index unlocked, so every store access and every summary
// update goes through mu when sessions run concurrently.
type scrapeRun struct {
	snapshots *store.SnapshotStore
	summary   *model.RunSummary
	mu        sync.Mutex
}

// ScrapeRun executes the scrape phase for cohortID, creating the cohort on
// first contact and resuming it when an earlier attempt was interrupted.
//
// The returned summary is valid even when err is non-nil: a ban mid-run
// leaves the cohort in the scraping_failed state with every snapshot
// appended so far intact, and a later ScrapeRun picks up from there.
func (p *Pipeline) ScrapeRun(ctx context.Context, cohortID string) (*model.RunSummary, error) {
	cohort, err := p.resolveScrapeCohort(ctx, cohortID)
	if err != nil {
		return nil, err
	}
	if len(cohort.Categories) == 0 {
		return nil, ErrNoCategories
	}

	if cohort.State != model.CohortScraping {
		if err := p.registry.Advance(ctx, cohort.ID, model.CohortScraping); err != nil {
			return nil, err
		}
	}

	summary := model.NewRunSummary(model.PhaseScrape, cohort.ID, p.now())
	summary.Categories = cohort.Categories

	snapshots, err := store.OpenSnapshotStore(p.cfg.DataDir, cohort.ID)
	if err != nil {
		return nil, err
	}
	defer snapshots.Close()

	run := &scrapeRun{snapshots: snapshots, summary: summary}

	groups := partition(cohort.Categories, p.cfg.Sessions)
	g, gctx := errgroup.WithContext(ctx)
	for _, group := range groups {
		g.Go(func() error {
			return p.scrapeSession(gctx, run, group)
		})
	}
	runErr := g.Wait()

	return summary, p.finishScrape(ctx, cohort.ID, run, runErr)
}

// resolveScrapeCohort loads the cohort row or registers a new one. A new
// cohort takes the configured categories; a resumed cohort keeps the
// categories it was registered with so the snapshot log stays coherent.
func (p *Pipeline) resolveScrapeCohort(ctx context.Context, cohortID string) (*model.Cohort, error) {
	cohort, err := p.registry.Get(ctx, cohortID)
	if errors.Is(err, registry.ErrNotFound) {
		cohort = model.NewCohort(cohortID, p.cfg.Categories, p.now(), p.cfg.MaturationWindow)
		if createErr := p.registry.Create(ctx, cohort); createErr != nil {
			return nil, createErr
		}
		p.logger.Info("cohort registered",
			"cohort", cohortID,
			"categories", cohort.Categories,
			"label_due_at", cohort.LabelDueAt)
		return cohort, nil
	}
	if err != nil {
		return nil, err
	}

	switch cohort.State {
	case model.CohortCreated, model.CohortScraping, model.CohortScrapingFailed:
		p.logger.Info("resuming cohort", "cohort", cohortID, "state", string(cohort.State))
		return cohort, nil
	default:
		return nil, fmt.Errorf("%w: %s is %s", ErrCohortNotScrapable, cohortID, cohort.State)
	}
}

// scrapeSession runs one session's share of the categories: crawl each
// category, then snapshot every discovered listing not already in the log.
func (p *Pipeline) scrapeSession(ctx context.Context, run *scrapeRun, categories []string) error {
	session, err := p.newSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			p.logger.Warn("session close failed", "error", closeErr)
		}
	}()

	crawler := crawl.NewCrawler(session.Executor, p.cfg.BaseURL, p.cfg.MaxPages,
		crawl.WithLogger(p.logger))

	for _, category := range categories {
		urls, pages, crawlErr := crawler.Category(ctx, category)

		run.mu.Lock()
		run.summary.PagesCrawled += pages
		run.summary.URLsFound += len(urls)
		run.mu.Unlock()

		if crawlErr != nil {
			var banErr *fetch.BannedError
			if errors.As(crawlErr, &banErr) {
				run.mu.Lock()
				run.summary.Banned = true
				run.mu.Unlock()
				return crawlErr
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// A partially crawled category still yields listings; the
			// snapshots below are not held hostage to the missing pages.
			p.logger.Warn("category crawl incomplete",
				"category", category, "pages", pages, "error", crawlErr)
			run.mu.Lock()
			run.summary.Errors++
			run.mu.Unlock()
		}

		for _, u := range urls {
			if err := p.scrapeListing(ctx, session.Executor, run, u); err != nil {
				return err
			}
		}
	}
	return nil
}

// scrapeListing fetches and snapshots one listing. Listing-level failures
// are absorbed into the error counter; only a ban or cancellation stops
// the session.
func (p *Pipeline) scrapeListing(ctx context.Context, executor fetch.Executor, run *scrapeRun, listingURL string) error {
	listingID, ok := parse.ListingID(listingURL)
	if !ok {
		p.logger.Warn("listing URL has no numeric id", "url", listingURL)
		run.mu.Lock()
		run.summary.Errors++
		run.mu.Unlock()
		return nil
	}

	run.mu.Lock()
	seen := run.snapshots.HasListing(listingID)
	if seen {
		run.summary.DuplicatesSkipped++
	}
	run.mu.Unlock()
	if seen {
		return nil
	}

	result, err := executor.Execute(ctx, p.absoluteURL(listingURL), fetch.KindListing)
	if err != nil {
		var banErr *fetch.BannedError
		if errors.As(err, &banErr) {
			run.mu.Lock()
			run.summary.Banned = true
			run.mu.Unlock()
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.logger.Warn("listing fetch failed", "listing_id", listingID, "error", err)
		run.mu.Lock()
		run.summary.Errors++
		run.mu.Unlock()
		return nil
	}

	record, err := parse.ListingDetail(result.HTML, result.URL, p.now().UTC())
	if err != nil {
		// Structural drift: the page no longer parses as a listing. The
		// partial record is discarded rather than poisoning the log.
		p.logger.Warn("listing page did not parse", "listing_id", listingID, "error", err)
		run.mu.Lock()
		run.summary.Errors++
		run.mu.Unlock()
		return nil
	}

	run.mu.Lock()
	written, appendErr := run.snapshots.Append(record)
	if appendErr == nil {
		if written {
			run.summary.RecordsAppended++
		} else {
			run.summary.DuplicatesSkipped++
		}
	}
	run.mu.Unlock()
	if appendErr != nil {
		return fmt.Errorf("append snapshot %s: %w", listingID, appendErr)
	}

	p.logger.Debug("listing snapshot written",
		"listing_id", record.ListingID,
		"parse_errors", len(record.ParseErrors))
	return nil
}

// finishScrape records the run outcome in the registry and mirrors it to
// meta.yaml. Finalization runs on an uncancelled context so that an
// interrupted run still leaves a truthful registry row behind.
func (p *Pipeline) finishScrape(ctx context.Context, cohortID string, run *scrapeRun, runErr error) error {
	finishCtx := context.WithoutCancel(ctx)
	run.summary.FinishedAt = p.now().UTC()
	count := run.snapshots.Count()

	next := model.CohortScraped
	updates := []registry.Update{
		registry.WithScrapeCompleted(run.summary.FinishedAt),
		registry.WithListingCount(count),
	}
	if runErr != nil {
		next = model.CohortScrapingFailed
		updates = []registry.Update{registry.WithListingCount(count)}
	}

	if err := p.registry.Advance(finishCtx, cohortID, next, updates...); err != nil {
		p.logger.Error("cohort state update failed", "cohort", cohortID, "error", err)
		if runErr == nil {
			return err
		}
		return runErr
	}

	if cohort, err := p.registry.Get(finishCtx, cohortID); err == nil {
		if metaErr := store.WriteMeta(p.cfg.DataDir, cohort); metaErr != nil {
			p.logger.Warn("meta write failed", "cohort", cohortID, "error", metaErr)
		}
	}

	p.logger.Info("scrape run finished",
		"cohort", cohortID,
		"state", string(next),
		"pages", run.summary.PagesCrawled,
		"snapshots", run.summary.RecordsAppended,
		"duplicates", run.summary.DuplicatesSkipped,
		"errors", run.summary.Errors)
	return runErr
}
