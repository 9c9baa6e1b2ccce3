package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dolapscan/dolapscan/internal/model"
)

// LabelStore is the append-only label log of one cohort. It follows the
// same write discipline as SnapshotStore; the identity of a label is the
// listing id, since a cohort labels each listing exactly once.
type LabelStore struct {
	path string
	file *os.File

	mu      sync.Mutex
	labeled map[string]bool
	count   int
}

// OpenLabelStore opens (creating if needed) the label log for a cohort and
// rebuilds the labeled-id set from its contents, tolerating a torn trailing
// line.
func OpenLabelStore(dataDir, cohortID string) (*LabelStore, error) {
	path := LabelPath(dataDir, cohortID)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create cohort dir: %w", err)
	}

	s := &LabelStore{
		path:    path,
		labeled: make(map[string]bool),
	}
	if err := s.scan(); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open label log: %w", err)
	}
	s.file = file
	return s, nil
}

// scan reads the existing log into the labeled-id set.
func (s *LabelStore) scan() error {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("scan label log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)

	var pendingErr error
	line := 0
	for scanner.Scan() {
		line++
		if pendingErr != nil {
			return fmt.Errorf("label log corrupt at line %d: %w", line-1, pendingErr)
		}
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var label model.LabelRecord
		if err := json.Unmarshal(text, &label); err != nil {
			pendingErr = err
			continue
		}
		s.labeled[label.ListingID] = true
		s.count++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan label log: %w", err)
	}
	return nil
}

// Append writes a label unless the listing is already labeled. Returns true
// when the label was written.
func (s *LabelStore) Append(label *model.LabelRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.labeled[label.ListingID] {
		return false, nil
	}

	data, err := json.Marshal(label)
	if err != nil {
		return false, fmt.Errorf("marshal label: %w", err)
	}
	data = append(data, '\n')

	if _, err := s.file.Write(data); err != nil {
		return false, fmt.Errorf("append label: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return false, fmt.Errorf("sync label log: %w", err)
	}

	s.labeled[label.ListingID] = true
	s.count++
	return true, nil
}

// LabeledIDs returns the set of listing ids already labeled. The returned
// map is a copy.
func (s *LabelStore) LabeledIDs() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.labeled))
	for id := range s.labeled {
		out[id] = true
	}
	return out
}

// Count returns the number of labels in the log.
func (s *LabelStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Close closes the underlying file.
func (s *LabelStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
