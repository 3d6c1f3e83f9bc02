package model

import "time"

// RunSummary aggregates the outcomes of one multi-account run.
// It is the input to the report writers and is what the history database
// records as a "run" row.
//
// Design decision: We accumulate outcomes into a summary struct rather than
// printing as we go because the reporters (text, Markdown, JSON) all need
// the complete picture, and the Markdown writer in particular renders
// aggregate tables and a status distribution chart.
type RunSummary struct {
	// Region is the AWS region all scans in the run were scoped to.
	Region string `json:"region"`

	// SourceFile is the path of the accounts CSV the run was driven by.
	SourceFile string `json:"source_file"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the last account finished processing.
	FinishedAt time.Time `json:"finished_at"`

	// Outcomes holds one entry per valid account row, in input order.
	Outcomes []*ScanOutcome `json:"outcomes"`

	// SkippedRows is the number of CSV rows skipped because a required
	// field was missing or empty. These rows have no ScanOutcome.
	SkippedRows int `json:"skipped_rows"`
}

// NewRunSummary creates a RunSummary for the given source file and region
// with the start time set to now.
func NewRunSummary(sourceFile, region string) *RunSummary {
	return &RunSummary{
		Region:     region,
		SourceFile: sourceFile,
		StartedAt:  time.Now(),
	}
}

// Add appends an outcome to the summary.
func (s *RunSummary) Add(outcome *ScanOutcome) {
	s.Outcomes = append(s.Outcomes, outcome)
}

// Finish stamps the completion time.
func (s *RunSummary) Finish() {
	s.FinishedAt = time.Now()
}

// Duration returns the wall-clock time of the whole run.
func (s *RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// CountByStatus returns the number of outcomes with the given status.
func (s *RunSummary) CountByStatus(status ScanStatus) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Passed returns the number of scans where every check passed.
func (s *RunSummary) Passed() int { return s.CountByStatus(StatusPassed) }

// WithFindings returns the number of scans that completed with findings.
func (s *RunSummary) WithFindings() int { return s.CountByStatus(StatusFindings) }

// Failed returns the number of scans that failed to complete.
func (s *RunSummary) Failed() int { return s.CountByStatus(StatusError) }

// Skipped returns the number of accounts whose scan was never attempted.
func (s *RunSummary) Skipped() int { return s.CountByStatus(StatusSkipped) }
