package pipeline

import (
	"context"
	"fmt"

	"github.com/dolapscan/dolapscan/internal/labeler"
	"github.com/dolapscan/dolapscan/internal/model"
	"github.com/dolapscan/dolapscan/internal/registry"
	"github.com/dolapscan/dolapscan/internal/store"
)

// LabelRun executes the label phase for cohortID. Unless force is set, the
// run refuses to start before the maturation window has elapsed, because
// early labels systematically undercount sales.
//
// Like ScrapeRun, the run is resumable: labels written before a ban are
// durable and a later LabelRun skips them.
func (p *Pipeline) LabelRun(ctx context.Context, cohortID string, force bool) (*model.RunSummary, error) {
	cohort, err := p.registry.Get(ctx, cohortID)
	if err != nil {
		return nil, err
	}

	switch cohort.State {
	case model.CohortScraped, model.CohortLabelPending:
		if !force && p.now().Before(cohort.LabelDueAt) {
			return nil, fmt.Errorf("%w: %s due at %s",
				ErrNotDue, cohortID, cohort.LabelDueAt.Format("2006-01-02 15:04"))
		}
	case model.CohortLabeling, model.CohortLabelingFailed:
		// An interrupted run already passed the due check.
	default:
		return nil, fmt.Errorf("%w: %s is %s", ErrCohortNotLabelable, cohortID, cohort.State)
	}

	if cohort.State != model.CohortLabeling {
		if err := p.registry.Advance(ctx, cohort.ID, model.CohortLabeling); err != nil {
			return nil, err
		}
	}

	summary := model.NewRunSummary(model.PhaseLabel, cohort.ID, p.now())

	snapshots, err := store.OpenSnapshotStore(p.cfg.DataDir, cohort.ID)
	if err != nil {
		return nil, err
	}
	defer snapshots.Close()

	labels, err := store.OpenLabelStore(p.cfg.DataDir, cohort.ID)
	if err != nil {
		return nil, err
	}
	defer labels.Close()

	session, err := p.newSession()
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			p.logger.Warn("session close failed", "error", closeErr)
		}
	}()

	l := labeler.New(session.Executor,
		labeler.WithLogger(p.logger),
		labeler.WithClock(p.now))
	runErr := l.LabelCohort(ctx, snapshots, labels, summary)

	return summary, p.finishLabel(ctx, cohort.ID, labels, summary, runErr)
}

// QueueDueCohorts parks every matured scraped cohort in the label_pending
// state and returns all cohorts currently due. Parking happens before any
// session is opened, so every queued cohort is visible in `status` even
// when a ban halts the sweep on its first cohort.
func (p *Pipeline) QueueDueCohorts(ctx context.Context) ([]*model.Cohort, error) {
	due, err := p.registry.ListDueForLabeling(ctx, p.now())
	if err != nil {
		return nil, err
	}

	for _, cohort := range due {
		if cohort.State != model.CohortScraped {
			continue
		}
		if err := p.registry.Advance(ctx, cohort.ID, model.CohortLabelPending); err != nil {
			return due, err
		}
		cohort.State = model.CohortLabelPending
		p.logger.Info("cohort queued for labeling", "cohort", cohort.ID)
	}
	return due, nil
}

// LabelDueRuns queues and labels every cohort whose maturation window has
// elapsed, oldest first. The pass stops at the first run-halting error so a
// ban in one cohort does not burn the remaining ones against a paused
// controller.
func (p *Pipeline) LabelDueRuns(ctx context.Context) ([]*model.RunSummary, error) {
	due, err := p.QueueDueCohorts(ctx)
	if err != nil {
		return nil, err
	}
	if len(due) == 0 {
		p.logger.Info("no cohorts due for labeling")
		return nil, nil
	}

	summaries := make([]*model.RunSummary, 0, len(due))
	for _, cohort := range due {
		summary, err := p.LabelRun(ctx, cohort.ID, false)
		if summary != nil {
			summaries = append(summaries, summary)
		}
		if err != nil {
			return summaries, err
		}
	}
	return summaries, nil
}

// finishLabel records the label run outcome in the registry and meta.yaml.
func (p *Pipeline) finishLabel(ctx context.Context, cohortID string, labels *store.LabelStore, summary *model.RunSummary, runErr error) error {
	finishCtx := context.WithoutCancel(ctx)
	summary.FinishedAt = p.now().UTC()
	count := labels.Count()

	next := model.CohortLabeled
	updates := []registry.Update{
		registry.WithLabelCompleted(summary.FinishedAt),
		registry.WithLabelCount(count),
	}
	if runErr != nil {
		next = model.CohortLabelingFailed
		updates = []registry.Update{registry.WithLabelCount(count)}
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

	p.logger.Info("label run finished",
		"cohort", cohortID,
		"state", string(next),
		"labels", summary.LabelsAppended,
		"duplicates", summary.DuplicatesSkipped,
		"errors", summary.Errors)
	return runErr
}
