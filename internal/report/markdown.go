package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/cloudaudit/prowlersweep/internal/model"
)

// MarkdownWriter outputs run summaries in Markdown format.
// This format is designed for documentation and sharing, and renders well
// as a CI job summary.
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
	w.writeTotals(md, summary)
	w.writeAccounts(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the summary header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.RunSummary) {
	md.H1("Prowlersweep Run Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Accounts File", "`" + summary.SourceFile + "`"},
			{"Region", "`" + summary.Region + "`"},
			{"Started", summary.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", summary.Duration().Round(summaryDurationUnit).String()},
			{"Accounts", strconv.Itoa(len(summary.Outcomes))},
		},
	})
	md.PlainText("")
}

// writeTotals writes the status count section with a distribution chart
// and an alert matching the worst status in the run.
func (w *MarkdownWriter) writeTotals(md *markdown.Markdown, summary *model.RunSummary) {
	md.H2("Results")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Status", "Count"},
		Rows: [][]string{
			{"✅ Passed", strconv.Itoa(summary.Passed())},
			{"⚠️ Findings", strconv.Itoa(summary.WithFindings())},
			{"❌ Error", strconv.Itoa(summary.Failed())},
			{"⏭️ Skipped", strconv.Itoa(summary.Skipped())},
			{"**Total**", "**" + strconv.Itoa(len(summary.Outcomes)) + "**"},
		},
	})
	md.PlainText("")

	if len(summary.Outcomes) > 0 {
		w.writePieChart(md, summary)
	}

	w.writeAlert(md, summary)
}

// writePieChart writes a mermaid pie chart for the status distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.RunSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Scan Status Distribution"),
		piechart.WithShowData(true),
	)

	if n := summary.Passed(); n > 0 {
		chart.LabelAndIntValue("Passed", uint64(n))
	}
	if n := summary.WithFindings(); n > 0 {
		chart.LabelAndIntValue("Findings", uint64(n))
	}
	if n := summary.Failed(); n > 0 {
		chart.LabelAndIntValue("Error", uint64(n))
	}
	if n := summary.Skipped(); n > 0 {
		chart.LabelAndIntValue("Skipped", uint64(n))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert matching the run's worst outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.RunSummary) {
	switch {
	case summary.Failed() > 0:
		md.Cautionf(
			"%d scan(s) failed to complete. Check the log output for those accounts.",
			summary.Failed(),
		)
	case summary.Skipped() > 0:
		md.Warningf(
			"%d account(s) were skipped and have no scan results.",
			summary.Skipped(),
		)
	case summary.WithFindings() > 0:
		md.Importantf(
			"%d account(s) have security findings. Review Prowler's output for details.",
			summary.WithFindings(),
		)
	case len(summary.Outcomes) > 0:
		md.Tip("All scans passed with no findings.")
	default:
		md.Note("No accounts were scanned.")
	}
	md.PlainText("")
}

// writeAccounts writes the per-account results table.
func (w *MarkdownWriter) writeAccounts(md *markdown.Markdown, summary *model.RunSummary) {
	md.H2("Accounts")
	md.PlainText("")

	if len(summary.Outcomes) == 0 {
		md.PlainText("No accounts were scanned.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(summary.Outcomes))
	for i, o := range summary.Outcomes {
		detail := o.Err
		if detail == "" {
			detail = "-"
		}
		rows[i] = []string{
			o.AccountName,
			o.Status.String(),
			strconv.Itoa(o.ExitCode),
			o.Duration.Round(summaryDurationUnit).String(),
			truncateString(detail, 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Account", "Status", "Exit Code", "Duration", "Detail"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the summary footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by [prowlersweep](https://github.com/cloudaudit/prowlersweep)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
