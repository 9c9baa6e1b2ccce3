package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/dolapscan/dolapscan/internal/model"
)

// dbFile is the registry database file name under the data dir.
const dbFile = "registry.db"

// Registry stores cohort rows in SQLite.
//
// Design decision: We use a single database file at the data dir root
// rather than per-cohort state files because the orchestrator's queries
// span cohorts ("everything due for labeling") and a week of restarts must
// see one consistent picture.
type Registry struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the registry database under dataDir.
func Open(dataDir string) (*Registry, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	dbPath := filepath.Join(dataDir, dbFile)

	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}

	// SQLite supports one writer; a larger pool just queues on the lock.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	r := &Registry{db: db, dbPath: dbPath}

	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if err := r.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create registry schema: %w", err)
	}
	return r, nil
}

// Close closes the database connection.
func (r *Registry) Close() error {
	return r.db.Close()
}

// createTables creates the schema if it doesn't exist.
func (r *Registry) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cohorts (
		cohort_id TEXT PRIMARY KEY,
		categories TEXT NOT NULL,
		state TEXT NOT NULL,
		created_at TEXT NOT NULL,
		scrape_completed_at TEXT,
		label_due_at TEXT NOT NULL,
		label_completed_at TEXT,
		listing_count INTEGER NOT NULL DEFAULT 0,
		label_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_cohorts_state ON cohorts(state);
	CREATE INDEX IF NOT EXISTS idx_cohorts_label_due ON cohorts(label_due_at);
	`
	_, err := r.db.ExecContext(context.Background(), schema)
	return err
}

// Create inserts a new cohort row. Returns ErrAlreadyExists when the id is
// taken; creating a cohort is not idempotent by design, the caller decides
// between create and resume.
func (r *Registry) Create(ctx context.Context, cohort *model.Cohort) error {
	query := `
	INSERT INTO cohorts (cohort_id, categories, state, created_at, label_due_at, listing_count, label_count)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		cohort.ID,
		strings.Join(cohort.Categories, ","),
		string(cohort.State),
		cohort.CreatedAt.UTC().Format(time.RFC3339),
		cohort.LabelDueAt.UTC().Format(time.RFC3339),
		cohort.ListingCount,
		cohort.LabelCount,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, cohort.ID)
		}
		return fmt.Errorf("create cohort: %w", err)
	}
	return nil
}

// isUniqueViolation detects a primary key conflict without depending on
// the driver's error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Get retrieves one cohort by id.
func (r *Registry) Get(ctx context.Context, cohortID string) (*model.Cohort, error) {
	query := `
	SELECT cohort_id, categories, state, created_at, scrape_completed_at,
	       label_due_at, label_completed_at, listing_count, label_count
	FROM cohorts WHERE cohort_id = ?
	`
	cohort, err := scanCohort(r.db.QueryRowContext(ctx, query, cohortID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, cohortID)
	}
	if err != nil {
		return nil, fmt.Errorf("get cohort: %w", err)
	}
	return cohort, nil
}

// List returns all cohorts ordered by id, oldest first.
func (r *Registry) List(ctx context.Context) ([]*model.Cohort, error) {
	query := `
	SELECT cohort_id, categories, state, created_at, scrape_completed_at,
	       label_due_at, label_completed_at, listing_count, label_count
	FROM cohorts ORDER BY cohort_id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list cohorts: %w", err)
	}
	defer rows.Close()

	var cohorts []*model.Cohort
	for rows.Next() {
		cohort, err := scanCohort(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cohort: %w", err)
		}
		cohorts = append(cohorts, cohort)
	}
	return cohorts, rows.Err()
}

// ListDueForLabeling returns cohorts whose maturation window has elapsed
// and whose state allows labeling to start, oldest first.
func (r *Registry) ListDueForLabeling(ctx context.Context, now time.Time) ([]*model.Cohort, error) {
	query := `
	SELECT cohort_id, categories, state, created_at, scrape_completed_at,
	       label_due_at, label_completed_at, listing_count, label_count
	FROM cohorts
	WHERE state IN (?, ?) AND label_due_at <= ?
	ORDER BY cohort_id
	`
	rows, err := r.db.QueryContext(ctx, query,
		string(model.CohortScraped),
		string(model.CohortLabelPending),
		now.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("list due cohorts: %w", err)
	}
	defer rows.Close()

	var cohorts []*model.Cohort
	for rows.Next() {
		cohort, err := scanCohort(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cohort: %w", err)
		}
		cohorts = append(cohorts, cohort)
	}
	return cohorts, rows.Err()
}

// Advance moves a cohort from its current state to next and applies the
// given updates in the same statement. The state change is a compare-and-
// swap on the expected current state: if another process already moved the
// cohort, zero rows match and ErrInvalidTransition is returned.
func (r *Registry) Advance(ctx context.Context, cohortID string, next model.CohortState, updates ...Update) error {
	cohort, err := r.Get(ctx, cohortID)
	if err != nil {
		return err
	}
	if !cohort.State.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cohort.State, next)
	}

	sets := []string{"state = ?"}
	args := []interface{}{string(next)}
	for _, u := range updates {
		sets = append(sets, u.column+" = ?")
		args = append(args, u.value)
	}
	args = append(args, cohortID, string(cohort.State))

	query := "UPDATE cohorts SET " + strings.Join(sets, ", ") +
		" WHERE cohort_id = ? AND state = ?"
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("advance cohort: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance cohort: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: cohort %s changed concurrently", ErrInvalidTransition, cohortID)
	}
	return nil
}

// Update is a column assignment applied alongside a state transition.
type Update struct {
	column string
	value  interface{}
}

// WithScrapeCompleted records the scrape completion time.
func WithScrapeCompleted(at time.Time) Update {
	return Update{column: "scrape_completed_at", value: at.UTC().Format(time.RFC3339)}
}

// WithLabelCompleted records the label completion time.
func WithLabelCompleted(at time.Time) Update {
	return Update{column: "label_completed_at", value: at.UTC().Format(time.RFC3339)}
}

// WithListingCount records the snapshot log size.
func WithListingCount(n int) Update {
	return Update{column: "listing_count", value: n}
}

// WithLabelCount records the label log size.
func WithLabelCount(n int) Update {
	return Update{column: "label_count", value: n}
}

// rowScanner abstracts sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanCohort reads one cohort row.
func scanCohort(row rowScanner) (*model.Cohort, error) {
	var cohort model.Cohort
	var categories, state, createdAt, labelDueAt string
	var scrapeCompletedAt, labelCompletedAt sql.NullString

	err := row.Scan(
		&cohort.ID,
		&categories,
		&state,
		&createdAt,
		&scrapeCompletedAt,
		&labelDueAt,
		&labelCompletedAt,
		&cohort.ListingCount,
		&cohort.LabelCount,
	)
	if err != nil {
		return nil, err
	}

	if categories != "" {
		cohort.Categories = strings.Split(categories, ",")
	}
	cohort.State = model.CohortState(state)
	cohort.CreatedAt = parseTimestamp(createdAt)
	cohort.LabelDueAt = parseTimestamp(labelDueAt)
	if scrapeCompletedAt.Valid && scrapeCompletedAt.String != "" {
		t := parseTimestamp(scrapeCompletedAt.String)
		cohort.ScrapeCompletedAt = &t
	}
	if labelCompletedAt.Valid && labelCompletedAt.String != "" {
		t := parseTimestamp(labelCompletedAt.String)
		cohort.LabelCompletedAt = &t
	}
	return &cohort, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. Returns zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
