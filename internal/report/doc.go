// Package report renders run summaries and cohort listings in several
// output formats.
//
// Three writers share one interface: SimpleWriter for terminal output,
// JSONWriter for tool integration, and MarkdownWriter for documentation
// and sharing. A MultiWriter fans a report out to several of them at once,
// which is how a run ends up both on the terminal and in a file.
package report
