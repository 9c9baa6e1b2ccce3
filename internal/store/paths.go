package store

import "path/filepath"

// File names inside a cohort directory.
const (
	snapshotFile = "listings.jsonl"
	labelFile    = "labels.jsonl"
	metaFile     = "meta.yaml"
)

// CohortDir returns the directory for a cohort's logs.
func CohortDir(dataDir, cohortID string) string {
	return filepath.Join(dataDir, cohortID)
}

// SnapshotPath returns the snapshot log path for a cohort.
func SnapshotPath(dataDir, cohortID string) string {
	return filepath.Join(dataDir, cohortID, snapshotFile)
}

// LabelPath returns the label log path for a cohort.
func LabelPath(dataDir, cohortID string) string {
	return filepath.Join(dataDir, cohortID, labelFile)
}

// MetaPath returns the meta.yaml path for a cohort.
func MetaPath(dataDir, cohortID string) string {
	return filepath.Join(dataDir, cohortID, metaFile)
}
