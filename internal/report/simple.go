package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudaudit/prowlersweep/internal/model"
)

// summaryDurationUnit is the rounding unit for durations in summaries.
// Prowler scans take minutes, so sub-second precision is noise.
const summaryDurationUnit = time.Second

// SimpleWriter outputs human-readable text summaries.
// This format is designed for terminal display at the end of a run.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables the per-account detail section even when every scan
	// passed.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

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
	w.writeTotals(&sb, summary)
	w.writeAccounts(&sb, summary)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the summary header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, summary *model.RunSummary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                       PROWLERSWEEP RUN SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Accounts File: %s\n", summary.SourceFile))
	sb.WriteString(fmt.Sprintf("Region:        %s\n", summary.Region))
	sb.WriteString(fmt.Sprintf("Started:       %s\n", summary.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:      %s\n", summary.Duration().Round(summaryDurationUnit)))
	sb.WriteString("\n")
}

// writeTotals writes the status count section.
func (w *SimpleWriter) writeTotals(sb *strings.Builder, summary *model.RunSummary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RESULTS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  PASSED:   %d\n", summary.Passed()))
	sb.WriteString(fmt.Sprintf("  FINDINGS: %d\n", summary.WithFindings()))
	sb.WriteString(fmt.Sprintf("  ERROR:    %d\n", summary.Failed()))
	sb.WriteString(fmt.Sprintf("  SKIPPED:  %d\n", summary.Skipped()))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  TOTAL:    %d accounts", len(summary.Outcomes)))
	if summary.SkippedRows > 0 {
		sb.WriteString(fmt.Sprintf(" (%d malformed rows ignored)", summary.SkippedRows))
	}
	sb.WriteString("\n\n")
}

// writeAccounts writes one line per account. Passed accounts are listed
// only in verbose mode or when at least one account did not pass, so a
// clean run stays short.
func (w *SimpleWriter) writeAccounts(sb *strings.Builder, summary *model.RunSummary) {
	if len(summary.Outcomes) == 0 {
		return
	}
	allPassed := summary.Passed() == len(summary.Outcomes)
	if allPassed && !w.verbose {
		sb.WriteString("All scans passed.\n")
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("ACCOUNTS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, o := range summary.Outcomes {
		sb.WriteString(fmt.Sprintf("  [%s] %-24s exit=%d  %s\n",
			statusIndicator(o.Status),
			o.AccountName,
			o.ExitCode,
			o.Duration.Round(summaryDurationUnit),
		))
		if o.Err != "" {
			sb.WriteString(fmt.Sprintf("        %s\n", o.Err))
		}
		if w.verbose && o.CallerARN != "" {
			sb.WriteString(fmt.Sprintf("        identity: %s\n", o.CallerARN))
		}
	}
	sb.WriteString("\n")
}

// statusIndicator returns a short visual marker for the status.
func statusIndicator(status model.ScanStatus) string {
	switch status {
	case model.StatusPassed:
		return "ok"
	case model.StatusFindings:
		return "!!"
	case model.StatusError:
		return "xx"
	case model.StatusSkipped:
		return "--"
	default:
		return "??"
	}
}
