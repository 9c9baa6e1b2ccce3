package report

import (
	"io"

	"github.com/dolapscan/dolapscan/internal/model"
)

// Writer defines the interface for report output.
// Implementations render run results in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs a run summary to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(summary *model.RunSummary) (int, error)

	// WriteCohorts outputs the cohort registry listing. This is what the
	// status command renders.
	WriteCohorts(cohorts []*model.Cohort) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(summary *model.RunSummary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteCohorts outputs the cohort listing to all configured Writers.
func (m *MultiWriter) WriteCohorts(cohorts []*model.Cohort) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteCohorts(cohorts)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusOrder fixes the rendering order of label outcomes across all
// formats: the outcomes that matter for training first, errors last.
var statusOrder = []model.ListingStatus{
	model.StatusSold,
	model.StatusActive,
	model.StatusRemovedUnsold,
	model.StatusError,
}
