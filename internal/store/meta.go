package store

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dolapscan/dolapscan/internal/model"
)

// WriteMeta writes the cohort's meta.yaml audit document. The registry row
// is the source of truth; meta.yaml exists so a cohort directory is
// self-describing when copied off the machine without the registry
// database.
//
// The write goes through a temp file and rename so a crash never leaves a
// half-written document.
func WriteMeta(dataDir string, cohort *model.Cohort) error {
	path := MetaPath(dataDir, cohort.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create cohort dir: %w", err)
	}

	data, err := yaml.Marshal(cohort)
	if err != nil {
		return fmt.Errorf("marshal cohort meta: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return fmt.Errorf("write cohort meta: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace cohort meta: %w", err)
	}
	return nil
}

// ReadMeta reads a cohort's meta.yaml document.
func ReadMeta(dataDir, cohortID string) (*model.Cohort, error) {
	data, err := os.ReadFile(MetaPath(dataDir, cohortID))
	if err != nil {
		return nil, fmt.Errorf("read cohort meta: %w", err)
	}
	var cohort model.Cohort
	if err := yaml.Unmarshal(data, &cohort); err != nil {
		return nil, fmt.Errorf("parse cohort meta: %w", err)
	}
	return &cohort, nil
}
