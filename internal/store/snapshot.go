package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dolapscan/dolapscan/internal/model"
)

// SnapshotStore is the append-only snapshot log of one cohort.
//
// Design decision: Appends write a complete single line and fsync before
// returning. This is slower than buffering but means a record either fully
// exists or does not exist at all; a process kill mid-run costs at most the
// record being written, never the log. Scrape runs are network-bound, so
// the fsync cost disappears in the pacing delays anyway.
type SnapshotStore struct {
	path string
	file *os.File

	mu sync.Mutex

	// index holds the (listing_id, scraped_at) identities already in the
	// log.
	index map[string]bool

	// latest maps listing id to its most recent record, for resume
	// skipping and for the labeler's URL set.
	latest map[string]*model.ListingRecord

	// order preserves first-seen listing order for Listings.
	order []string

	count int
}

// snapshotKey builds the identity key of a record.
func snapshotKey(listingID string, scrapedAt time.Time) string {
	return listingID + "|" + scrapedAt.UTC().Format(time.RFC3339Nano)
}

// OpenSnapshotStore opens (creating if needed) the snapshot log for a
// cohort and rebuilds the dedupe index from its contents. A torn trailing
// line from a crashed run is skipped; a torn line anywhere else is a
// corruption error.
func OpenSnapshotStore(dataDir, cohortID string) (*SnapshotStore, error) {
	path := SnapshotPath(dataDir, cohortID)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create cohort dir: %w", err)
	}

	s := &SnapshotStore{
		path:   path,
		index:  make(map[string]bool),
		latest: make(map[string]*model.ListingRecord),
	}
	if err := s.scan(); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open snapshot log: %w", err)
	}
	s.file = file
	return s, nil
}

// scan reads the existing log and rebuilds the in-memory index.
func (s *SnapshotStore) scan() error {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("scan snapshot log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var pendingErr error
	line := 0
	for scanner.Scan() {
		line++
		if pendingErr != nil {
			// The malformed line was not the last one.
			return fmt.Errorf("snapshot log corrupt at line %d: %w", line-1, pendingErr)
		}
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var record model.ListingRecord
		if err := json.Unmarshal(text, &record); err != nil {
			pendingErr = err
			continue
		}
		s.remember(&record)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan snapshot log: %w", err)
	}
	// A trailing malformed line is a torn write from a crash; the record
	// never reported success, so dropping it is correct.
	return nil
}

// remember adds a record to the in-memory index.
func (s *SnapshotStore) remember(record *model.ListingRecord) {
	s.index[snapshotKey(record.ListingID, record.ScrapedAt)] = true
	s.count++
	if prev, ok := s.latest[record.ListingID]; !ok {
		s.order = append(s.order, record.ListingID)
		s.latest[record.ListingID] = record
	} else if record.ScrapedAt.After(prev.ScrapedAt) {
		s.latest[record.ListingID] = record
	}
}

// Append writes a record to the log unless its (listing_id, scraped_at)
// identity is already present. Returns true when the record was written.
func (s *SnapshotStore) Append(record *model.ListingRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := snapshotKey(record.ListingID, record.ScrapedAt)
	if s.index[key] {
		return false, nil
	}

	data, err := json.Marshal(record)
	if err != nil {
		return false, fmt.Errorf("marshal snapshot: %w", err)
	}
	data = append(data, '\n')

	if _, err := s.file.Write(data); err != nil {
		return false, fmt.Errorf("append snapshot: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return false, fmt.Errorf("sync snapshot log: %w", err)
	}

	s.remember(record)
	return true, nil
}

// HasListing reports whether any snapshot of the listing exists.
func (s *SnapshotStore) HasListing(listingID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.latest[listingID]
	return ok
}

// Listings returns the most recent snapshot of every listing, in first-seen
// order.
func (s *SnapshotStore) Listings() []model.ListingRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ListingRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.latest[id])
	}
	return out
}

// Count returns the number of records in the log.
func (s *SnapshotStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Close closes the underlying file.
func (s *SnapshotStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
