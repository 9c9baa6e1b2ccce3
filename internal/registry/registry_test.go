package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dolapscan/dolapscan/internal/model"
)

func testCohort(id string, created time.Time) *model.Cohort {
	return model.NewCohort(id, []string{"kazak", "elbise"}, created, 7*24*time.Hour)
}

// TestRegistryCreateAndGet tests round-tripping a cohort row.
func TestRegistryCreateAndGet(t *testing.T) {
	t.Parallel()

	r, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer r.Close()

	ctx := context.Background()
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if err := r.Create(ctx, testCohort("20260301", created)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	cohort, err := r.Get(ctx, "20260301")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if cohort.State != model.CohortCreated {
		t.Errorf("unexpected state: %q", cohort.State)
	}
	if len(cohort.Categories) != 2 || cohort.Categories[1] != "elbise" {
		t.Errorf("unexpected categories: %v", cohort.Categories)
	}
	if !cohort.CreatedAt.Equal(created) {
		t.Errorf("unexpected created_at: %v", cohort.CreatedAt)
	}
	if !cohort.LabelDueAt.Equal(created.Add(7 * 24 * time.Hour)) {
		t.Errorf("unexpected label_due_at: %v", cohort.LabelDueAt)
	}
	if cohort.ScrapeCompletedAt != nil {
		t.Errorf("expected nil scrape_completed_at, got %v", cohort.ScrapeCompletedAt)
	}
}

// TestRegistryCreateDuplicate tests ErrAlreadyExists.
func TestRegistryCreateDuplicate(t *testing.T) {
	t.Parallel()

	r, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer r.Close()

	ctx := context.Background()
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if err := r.Create(ctx, testCohort("20260301", created)); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	err = r.Create(ctx, testCohort("20260301", created))
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

// TestRegistryGetNotFound tests ErrNotFound.
func TestRegistryGetNotFound(t *testing.T) {
	t.Parallel()

	r, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer r.Close()

	_, err = r.Get(context.Background(), "20990101")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestRegistryAdvance tests legal transitions with updates and rejection
// of illegal ones.
func TestRegistryAdvance(t *testing.T) {
	t.Parallel()

	r, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer r.Close()

	ctx := context.Background()
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := r.Create(ctx, testCohort("20260301", created)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// created -> scraping -> scraped with completion metadata.
	if err := r.Advance(ctx, "20260301", model.CohortScraping); err != nil {
		t.Fatalf("advance to scraping failed: %v", err)
	}
	done := created.Add(2 * time.Hour)
	if err := r.Advance(ctx, "20260301", model.CohortScraped,
		WithScrapeCompleted(done), WithListingCount(412)); err != nil {
		t.Fatalf("advance to scraped failed: %v", err)
	}

	cohort, err := r.Get(ctx, "20260301")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if cohort.State != model.CohortScraped {
		t.Errorf("unexpected state: %q", cohort.State)
	}
	if cohort.ScrapeCompletedAt == nil || !cohort.ScrapeCompletedAt.Equal(done) {
		t.Errorf("unexpected scrape_completed_at: %v", cohort.ScrapeCompletedAt)
	}
	if cohort.ListingCount != 412 {
		t.Errorf("unexpected listing count: %d", cohort.ListingCount)
	}

	// scraped -> created is not in the graph.
	err = r.Advance(ctx, "20260301", model.CohortCreated)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	// Unknown cohort.
	err = r.Advance(ctx, "20990101", model.CohortScraping)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestRegistryFailureRecovery tests the scraping_failed -> scraping retry
// path.
func TestRegistryFailureRecovery(t *testing.T) {
	t.Parallel()

	r, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer r.Close()

	ctx := context.Background()
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if err := r.Create(ctx, testCohort("20260301", created)); err != nil {
		t.Fatal(err)
	}

	steps := []model.CohortState{
		model.CohortScraping,
		model.CohortScrapingFailed,
		model.CohortScraping,
		model.CohortScraped,
	}
	for _, next := range steps {
		if err := r.Advance(ctx, "20260301", next); err != nil {
			t.Fatalf("advance to %s failed: %v", next, err)
		}
	}
}

// TestRegistryReopen tests that state survives closing and reopening the
// database.
func TestRegistryReopen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	r, err := Open(dir)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := r.Create(ctx, testCohort("20260301", created)); err != nil {
		t.Fatal(err)
	}
	if err := r.Advance(ctx, "20260301", model.CohortScraping); err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	cohort, err := reopened.Get(ctx, "20260301")
	if err != nil {
		t.Fatalf("get after reopen failed: %v", err)
	}
	if cohort.State != model.CohortScraping {
		t.Errorf("expected state to survive reopen, got %q", cohort.State)
	}
}

// TestRegistryListDueForLabeling tests the due query: matured and in a
// labelable state.
func TestRegistryListDueForLabeling(t *testing.T) {
	t.Parallel()

	r, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer r.Close()

	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	// Matured and scraped: due.
	due := testCohort("20260301", base)
	if err := r.Create(ctx, due); err != nil {
		t.Fatal(err)
	}
	if err := r.Advance(ctx, "20260301", model.CohortScraping); err != nil {
		t.Fatal(err)
	}
	if err := r.Advance(ctx, "20260301", model.CohortScraped); err != nil {
		t.Fatal(err)
	}

	// Matured but still in created state: not labelable.
	if err := r.Create(ctx, testCohort("20260302", base.Add(24*time.Hour))); err != nil {
		t.Fatal(err)
	}

	// Scraped but not yet matured: not due.
	young := testCohort("20260310", base.Add(9*24*time.Hour))
	if err := r.Create(ctx, young); err != nil {
		t.Fatal(err)
	}
	if err := r.Advance(ctx, "20260310", model.CohortScraping); err != nil {
		t.Fatal(err)
	}
	if err := r.Advance(ctx, "20260310", model.CohortScraped); err != nil {
		t.Fatal(err)
	}

	now := base.Add(8 * 24 * time.Hour)
	got, err := r.ListDueForLabeling(ctx, now)
	if err != nil {
		t.Fatalf("list due failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 due cohort, got %d", len(got))
	}
	if got[0].ID != "20260301" {
		t.Errorf("unexpected due cohort: %s", got[0].ID)
	}

	// label_pending also qualifies.
	if err := r.Advance(ctx, "20260301", model.CohortLabelPending); err != nil {
		t.Fatal(err)
	}
	got, err = r.ListDueForLabeling(ctx, now)
	if err != nil {
		t.Fatalf("list due failed: %v", err)
	}
	if len(got) != 1 || got[0].State != model.CohortLabelPending {
		t.Errorf("expected label_pending cohort to stay due, got %v", got)
	}
}

// TestRegistryList tests ordering.
func TestRegistryList(t *testing.T) {
	t.Parallel()

	r, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer r.Close()

	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for _, id := range []string{"20260303", "20260301", "20260302"} {
		if err := r.Create(ctx, testCohort(id, base)); err != nil {
			t.Fatal(err)
		}
	}

	cohorts, err := r.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(cohorts) != 3 {
		t.Fatalf("expected 3 cohorts, got %d", len(cohorts))
	}
	for i, want := range []string{"20260301", "20260302", "20260303"} {
		if cohorts[i].ID != want {
			t.Errorf("cohort[%d]: expected %s, got %s", i, want, cohorts[i].ID)
		}
	}
}
