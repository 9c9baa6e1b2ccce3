package labeler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dolapscan/dolapscan/internal/fetch"
	"github.com/dolapscan/dolapscan/internal/model"
	"github.com/dolapscan/dolapscan/internal/store"
)

// fakeExecutor serves scripted results keyed by URL.
type fakeExecutor struct {
	results map[string]*fetch.Result
	errs    map[string]error
	calls   []string
}

func (f *fakeExecutor) Execute(_ context.Context, target string, _ fetch.RequestKind) (*fetch.Result, error) {
	f.calls = append(f.calls, target)
	if err, ok := f.errs[target]; ok {
		return nil, err
	}
	if r, ok := f.results[target]; ok {
		return r, nil
	}
	return &fetch.Result{URL: target, HTML: "<html></html>", StatusCode: 200}, nil
}

const activePage = `<html><body><h1>Zara</h1><div>120 TL</div>` +
	`<a href="/profil/ayse">ayse</a> <span>12 Beğeni</span></body></html>`

const soldPage = `<html><body><h1>Zara</h1><div>120 TL</div>` +
	`<div class="sold">Bu ürün satılmıştır</div></body></html>`

// TestCheckClassification tests the ordered status rules.
func TestCheckClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		result     *fetch.Result
		execErr    error
		wantStatus model.ListingStatus
		wantSold   bool
	}{
		{
			name:       "404 wins over everything",
			result:     &fetch.Result{HTML: soldPage, StatusCode: 404},
			wantStatus: model.StatusRemovedUnsold,
		},
		{
			name:       "410 counts as removed",
			result:     &fetch.Result{HTML: "<html></html>", StatusCode: 410},
			wantStatus: model.StatusRemovedUnsold,
		},
		{
			name:       "sold badge beats looks-like-listing",
			result:     &fetch.Result{HTML: soldPage, StatusCode: 200},
			wantStatus: model.StatusSold,
			wantSold:   true,
		},
		{
			name:       "recognizable listing page is active",
			result:     &fetch.Result{HTML: activePage, StatusCode: 200},
			wantStatus: model.StatusActive,
		},
		{
			name:       "unrecognizable page is an error label",
			result:     &fetch.Result{HTML: "<html><body>garbage</body></html>", StatusCode: 200},
			wantStatus: model.StatusError,
		},
		{
			name:       "exhausted retries become an error label",
			execErr:    &fetch.FetchFailedError{URL: "/urun/x-111111", Attempts: 3, Err: errors.New("timeout")},
			wantStatus: model.StatusError,
		},
		{
			name:       "single blocked page becomes an error label",
			execErr:    &fetch.BlockingError{StatusCode: 403, Consecutive: 1},
			wantStatus: model.StatusError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exec := &fakeExecutor{
				results: map[string]*fetch.Result{"/urun/x-111111": tt.result},
			}
			if tt.execErr != nil {
				exec.errs = map[string]error{"/urun/x-111111": tt.execErr}
			}

			checkedAt := time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)
			l := New(exec, WithClock(func() time.Time { return checkedAt }))

			label, err := l.Check(context.Background(), "111111", "/urun/x-111111")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if label.Status != tt.wantStatus {
				t.Errorf("expected status %q, got %q", tt.wantStatus, label.Status)
			}
			if label.SoldWithinWindow != tt.wantSold {
				t.Errorf("expected sold_within_window=%v, got %v", tt.wantSold, label.SoldWithinWindow)
			}
			if label.ListingID != "111111" {
				t.Errorf("unexpected listing id: %q", label.ListingID)
			}
			if !label.CheckedAt.Equal(checkedAt) {
				t.Errorf("unexpected checked_at: %v", label.CheckedAt)
			}
		})
	}
}

// TestCheckBanHalts tests that ban detection propagates instead of
// producing an error label.
func TestCheckBanHalts(t *testing.T) {
	t.Parallel()

	banErr := &fetch.BannedError{Consecutive: 5, PausedUntil: time.Now().Add(time.Hour)}
	exec := &fakeExecutor{errs: map[string]error{"/urun/x-111111": banErr}}
	l := New(exec)

	_, err := l.Check(context.Background(), "111111", "/urun/x-111111")
	var got *fetch.BannedError
	if !errors.As(err, &got) {
		t.Fatalf("expected BannedError to propagate, got %v", err)
	}
}

func seedSnapshots(t *testing.T, dir string, ids ...string) *store.SnapshotStore {
	t.Helper()
	snapshots, err := store.OpenSnapshotStore(dir, "20260301")
	if err != nil {
		t.Fatal(err)
	}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, id := range ids {
		record := &model.ListingRecord{
			ListingID: id,
			URL:       "/urun/x-" + id,
			ScrapedAt: at,
		}
		if _, err := snapshots.Append(record); err != nil {
			t.Fatal(err)
		}
	}
	return snapshots
}

// TestLabelCohort tests a full labeling pass with mixed outcomes.
func TestLabelCohort(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	snapshots := seedSnapshots(t, dir, "111111", "222222", "333333")
	defer snapshots.Close()

	labels, err := store.OpenLabelStore(dir, "20260301")
	if err != nil {
		t.Fatal(err)
	}
	defer labels.Close()

	exec := &fakeExecutor{results: map[string]*fetch.Result{
		"/urun/x-111111": {HTML: soldPage, StatusCode: 200},
		"/urun/x-222222": {HTML: activePage, StatusCode: 200},
		"/urun/x-333333": {HTML: "<html></html>", StatusCode: 404},
	}}

	l := New(exec)
	summary := model.NewRunSummary(model.PhaseLabel, "20260301", time.Now())

	if err := l.LabelCohort(context.Background(), snapshots, labels, summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.LabelsAppended != 3 {
		t.Errorf("expected 3 labels, got %d", summary.LabelsAppended)
	}
	if summary.StatusCounts[model.StatusSold] != 1 ||
		summary.StatusCounts[model.StatusActive] != 1 ||
		summary.StatusCounts[model.StatusRemovedUnsold] != 1 {
		t.Errorf("unexpected status counts: %v", summary.StatusCounts)
	}
	if labels.Count() != 3 {
		t.Errorf("expected 3 labels in the log, got %d", labels.Count())
	}
}

// TestLabelCohortResume tests that already-labeled listings are skipped.
func TestLabelCohortResume(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	snapshots := seedSnapshots(t, dir, "111111", "222222")
	defer snapshots.Close()

	labels, err := store.OpenLabelStore(dir, "20260301")
	if err != nil {
		t.Fatal(err)
	}
	defer labels.Close()

	// First listing already labeled by an earlier, interrupted run.
	prior := &model.LabelRecord{
		ListingID: "111111",
		URL:       "/urun/x-111111",
		Status:    model.StatusSold,
		CheckedAt: time.Now().UTC(),
	}
	if _, err := labels.Append(prior); err != nil {
		t.Fatal(err)
	}

	exec := &fakeExecutor{results: map[string]*fetch.Result{
		"/urun/x-222222": {HTML: activePage, StatusCode: 200},
	}}
	l := New(exec)
	summary := model.NewRunSummary(model.PhaseLabel, "20260301", time.Now())

	if err := l.LabelCohort(context.Background(), snapshots, labels, summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(exec.calls) != 1 || exec.calls[0] != "/urun/x-222222" {
		t.Errorf("expected only the unlabeled listing to be fetched, got %v", exec.calls)
	}
	if summary.DuplicatesSkipped != 1 {
		t.Errorf("expected 1 skip, got %d", summary.DuplicatesSkipped)
	}
	if summary.LabelsAppended != 1 {
		t.Errorf("expected 1 new label, got %d", summary.LabelsAppended)
	}
}

// TestLabelCohortBanPersistsProgress tests that a mid-run ban keeps the
// labels written so far.
func TestLabelCohortBanPersistsProgress(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	snapshots := seedSnapshots(t, dir, "111111", "222222", "333333")
	defer snapshots.Close()

	labels, err := store.OpenLabelStore(dir, "20260301")
	if err != nil {
		t.Fatal(err)
	}
	defer labels.Close()

	banErr := &fetch.BannedError{Consecutive: 5, PausedUntil: time.Now().Add(time.Hour)}
	exec := &fakeExecutor{
		results: map[string]*fetch.Result{
			"/urun/x-111111": {HTML: soldPage, StatusCode: 200},
		},
		errs: map[string]error{
			"/urun/x-222222": banErr,
		},
	}
	l := New(exec)
	summary := model.NewRunSummary(model.PhaseLabel, "20260301", time.Now())

	err = l.LabelCohort(context.Background(), snapshots, labels, summary)
	var got *fetch.BannedError
	if !errors.As(err, &got) {
		t.Fatalf("expected BannedError, got %v", err)
	}
	if !summary.Banned {
		t.Error("summary should record the ban")
	}
	if labels.Count() != 1 {
		t.Errorf("expected the pre-ban label to be durable, got %d", labels.Count())
	}
	ids := labels.LabeledIDs()
	if !ids["111111"] {
		t.Error("expected 111111 to stay labeled")
	}
}
