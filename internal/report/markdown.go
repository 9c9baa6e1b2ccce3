package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/dolapscan/dolapscan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run summary in Markdown format.
func (w *MarkdownWriter) Write(summary *model.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeCounters(md, summary)
	if summary.Phase == model.PhaseLabel {
		w.writeStatusBreakdown(md, summary)
	}
	w.writeAlert(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.RunSummary) {
	if summary.Phase == model.PhaseLabel {
		md.H1("Dolapscan Label Run")
	} else {
		md.H1("Dolapscan Scrape Run")
	}
	md.PlainText("")

	rows := [][]string{
		{"Cohort", "`" + summary.CohortID + "`"},
		{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
	}
	if len(summary.Categories) > 0 {
		rows = append(rows, []string{"Categories", strings.Join(summary.Categories, ", ")})
	}
	if !summary.FinishedAt.IsZero() {
		rows = append(rows, []string{"Finished", summary.FinishedAt.Format("2006-01-02 15:04:05 MST")})
	}
	rows = append(rows, []string{"Status", w.getStatusText(summary)})

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// getStatusText returns the status text based on the run outcome.
func (w *MarkdownWriter) getStatusText(summary *model.RunSummary) string {
	if summary.Banned {
		return "⚠️ Halted by ban detection (partial results kept)"
	}
	return "✅ Complete"
}

// writeCounters writes the run counter section.
func (w *MarkdownWriter) writeCounters(md *markdown.Markdown, summary *model.RunSummary) {
	md.H2("Run Counters")
	md.PlainText("")

	var rows [][]string
	if summary.Phase == model.PhaseScrape {
		rows = [][]string{
			{"Pages crawled", strconv.Itoa(summary.PagesCrawled)},
			{"Listing URLs found", strconv.Itoa(summary.URLsFound)},
			{"Snapshots written", strconv.Itoa(summary.RecordsAppended)},
		}
	} else {
		rows = [][]string{
			{"Labels written", strconv.Itoa(summary.LabelsAppended)},
		}
	}
	rows = append(rows,
		[]string{"Duplicates skipped", strconv.Itoa(summary.DuplicatesSkipped)},
		[]string{"Errors absorbed", strconv.Itoa(summary.Errors)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeStatusBreakdown writes the per-status label table and pie chart.
func (w *MarkdownWriter) writeStatusBreakdown(md *markdown.Markdown, summary *model.RunSummary) {
	md.H2("Label Outcomes")
	md.PlainText("")

	rows := make([][]string, 0, len(statusOrder))
	for _, status := range statusOrder {
		rows = append(rows, []string{string(status), strconv.Itoa(summary.StatusCounts[status])})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Status", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if summary.LabelsAppended > 0 {
		w.writePieChart(md, summary)
	}
}

// writePieChart writes a mermaid pie chart for the status distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.RunSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Label Outcome Distribution"),
		piechart.WithShowData(true),
	)

	for _, status := range statusOrder {
		if count := summary.StatusCounts[status]; count > 0 {
			chart.LabelAndIntValue(string(status), uint64(count))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an appropriate alert based on the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.RunSummary) {
	switch {
	case summary.Banned:
		md.Cautionf(
			"The run was halted by ban detection. Re-run after the cooldown to resume; %d record(s) were kept.",
			summary.RecordsAppended+summary.LabelsAppended,
		)
	case summary.Errors > 0:
		md.Warningf(
			"%d listing(s) could not be processed and were recorded as errors.",
			summary.Errors,
		)
	default:
		md.Tip("The run completed without absorbed errors.")
	}
	md.PlainText("")
}

// WriteCohorts outputs the cohort registry listing in Markdown format.
func (w *MarkdownWriter) WriteCohorts(cohorts []*model.Cohort) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Dolapscan Cohorts")
	md.PlainText("")

	if len(cohorts) == 0 {
		md.PlainText("No cohorts registered.")
		md.PlainText("")
		w.writeFooter(md)
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(cohorts))
	for i, c := range cohorts {
		rows[i] = []string{
			"`" + c.ID + "`",
			string(c.State),
			c.CreatedAt.Format("2006-01-02"),
			c.LabelDueAt.Format("2006-01-02"),
			strconv.Itoa(c.ListingCount),
			strconv.Itoa(c.LabelCount),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Cohort", "State", "Created", "Label Due", "Listings", "Labels"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by dolapscan*")
}
