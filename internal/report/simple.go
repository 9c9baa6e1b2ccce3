package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dolapscan/dolapscan/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether zero-count sections are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show zero-count sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary in human-readable format.
func (w *SimpleWriter) Write(summary *model.RunSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeCounters(&sb, summary)
	if summary.Phase == model.PhaseLabel {
		w.writeStatusBreakdown(&sb, summary)
	}
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the run header with cohort and timing information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.RunSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	if summary.Phase == model.PhaseLabel {
		sb.WriteString("                        DOLAPSCAN LABEL RUN\n")
	} else {
		sb.WriteString("                        DOLAPSCAN SCRAPE RUN\n")
	}
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Cohort:     %s\n", summary.CohortID))
	if len(summary.Categories) > 0 {
		sb.WriteString(fmt.Sprintf("Categories: %s\n", strings.Join(summary.Categories, ", ")))
	}
	sb.WriteString(fmt.Sprintf("Started:    %s\n", summary.StartedAt.Format("2006-01-02 15:04:05 MST")))
	if !summary.FinishedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Finished:   %s\n", summary.FinishedAt.Format("2006-01-02 15:04:05 MST")))
		sb.WriteString(fmt.Sprintf("Duration:   %s\n", summary.FinishedAt.Sub(summary.StartedAt).Round(time.Second)))
	}

	if summary.Banned {
		sb.WriteString("Status:     HALTED BY BAN DETECTION (partial results kept)\n")
	} else {
		sb.WriteString("Status:     Complete\n")
	}
	sb.WriteString("\n")
}

// writeCounters writes the run counter section.
func (w *SimpleWriter) writeCounters(sb *strings.Builder, summary *model.RunSummary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RUN COUNTERS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if summary.Phase == model.PhaseScrape {
		sb.WriteString(fmt.Sprintf("  Pages crawled:      %d\n", summary.PagesCrawled))
		sb.WriteString(fmt.Sprintf("  Listing URLs found: %d\n", summary.URLsFound))
		sb.WriteString(fmt.Sprintf("  Snapshots written:  %d\n", summary.RecordsAppended))
	} else {
		sb.WriteString(fmt.Sprintf("  Labels written:     %d\n", summary.LabelsAppended))
	}
	sb.WriteString(fmt.Sprintf("  Duplicates skipped: %d\n", summary.DuplicatesSkipped))
	if summary.Errors > 0 || w.showEmpty {
		sb.WriteString(fmt.Sprintf("  Errors absorbed:    %d\n", summary.Errors))
	}
	sb.WriteString("\n")
}

// writeStatusBreakdown writes per-status label counts.
func (w *SimpleWriter) writeStatusBreakdown(sb *strings.Builder, summary *model.RunSummary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("LABEL OUTCOMES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, status := range statusOrder {
		count := summary.StatusCounts[status]
		if count == 0 && !w.showEmpty {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %-15s %d\n", string(status)+":", count))
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// WriteCohorts outputs the cohort registry listing as an aligned table.
func (w *SimpleWriter) WriteCohorts(cohorts []*model.Cohort) (int, error) {
	var sb strings.Builder

	if len(cohorts) == 0 {
		sb.WriteString("No cohorts registered.\n")
		return w.output.Write([]byte(sb.String()))
	}

	sb.WriteString(fmt.Sprintf("%-10s %-16s %-12s %-12s %9s %7s\n",
		"COHORT", "STATE", "CREATED", "LABEL DUE", "LISTINGS", "LABELS"))
	for _, c := range cohorts {
		sb.WriteString(fmt.Sprintf("%-10s %-16s %-12s %-12s %9d %7d\n",
			c.ID,
			string(c.State),
			c.CreatedAt.Format("2006-01-02"),
			c.LabelDueAt.Format("2006-01-02"),
			c.ListingCount,
			c.LabelCount,
		))
		if w.verbose && len(c.Categories) > 0 {
			sb.WriteString(fmt.Sprintf("           categories: %s\n", strings.Join(c.Categories, ", ")))
		}
	}

	return w.output.Write([]byte(sb.String()))
}
