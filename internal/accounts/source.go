package accounts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cloudaudit/prowlersweep/internal/model"
)

// Required column names in the accounts CSV header.
// These match the export format of the AWS console's access key CSV with an
// added account-name column.
const (
	ColumnAccountName     = "Account Name"
	ColumnAccessKeyID     = "Access Key ID"
	ColumnSecretAccessKey = "Secret Access Key"
)

// ErrMissingColumn is returned (wrapped, naming the column) when the CSV
// header lacks one of the required columns. Match with errors.Is().
var ErrMissingColumn = errors.New("required column missing from CSV header")

// Source produces AccountRecords from a CSV stream, one at a time.
// It is a forward-only reader: once consumed it cannot be restarted.
//
// Design decision: We expose a Next() iterator rather than loading the whole
// file up front so arbitrarily large account lists stream through constant
// memory, and so the caller decides how row-skips are surfaced (the skip
// count is tallied here, the warning is logged here).
type Source struct {
	// reader is the underlying CSV reader.
	reader *csv.Reader

	// logger receives row-skip warnings.
	logger *slog.Logger

	// columns maps the three required column names to their header index.
	columns map[string]int

	// line is the 1-based line number of the most recently read row,
	// counting the header as line 1. Used in skip warnings.
	line int

	// skipped counts rows skipped for missing required values.
	skipped int
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger used for row-skip warnings.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

// NewSource creates a Source reading from r.
// It consumes the header line immediately and fails if any required column
// is absent, so a structurally broken file is rejected before any account
// is processed.
func NewSource(r io.Reader, opts ...Option) (*Source, error) {
	cr := csv.NewReader(r)
	// Rows may legitimately have fewer fields than the header when trailing
	// cells are empty; missing cells are treated as empty values.
	cr.FieldsPerRecord = -1

	s := &Source{
		reader: cr,
		line:   1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("accounts file is empty: %w", ErrMissingColumn)
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	s.columns = make(map[string]int, 3)
	for i, name := range header {
		switch name {
		case ColumnAccountName, ColumnAccessKeyID, ColumnSecretAccessKey:
			s.columns[name] = i
		}
	}

	for _, required := range []string{ColumnAccountName, ColumnAccessKeyID, ColumnSecretAccessKey} {
		if _, ok := s.columns[required]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, required)
		}
	}

	return s, nil
}

// OpenFile opens the accounts CSV at path and returns a Source over it.
// The returned closer must be called when iteration is done.
func OpenFile(path string, opts ...Option) (*Source, io.Closer, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided accounts path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open accounts file: %w", err)
	}

	s, err := NewSource(f, opts...)
	if err != nil {
		_ = f.Close() //nolint:errcheck // Best effort cleanup
		return nil, nil, err
	}

	return s, f, nil
}

// Next returns the next valid account record.
// Rows with a missing or empty required field are skipped with a warning and
// counted; Next keeps reading until it finds a valid row. It returns io.EOF
// when the input is exhausted, and any other error for a malformed CSV row
// (which is fatal to the run, per the input-structure error taxonomy).
func (s *Source) Next() (*model.AccountRecord, error) {
	for {
		row, err := s.reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("failed to parse accounts file: %w", err)
		}
		s.line++

		record := &model.AccountRecord{
			Name:            s.field(row, ColumnAccountName),
			AccessKeyID:     s.field(row, ColumnAccessKeyID),
			SecretAccessKey: s.field(row, ColumnSecretAccessKey),
		}

		if err := record.Validate(); err != nil {
			s.skipped++
			s.logger.Warn("skipping incomplete account row",
				"line", s.line,
				"account", record.Name,
				"reason", err.Error(),
			)
			continue
		}

		return record, nil
	}
}

// ReadAll drains the source and returns every valid record.
// Useful for dry runs and tests; the scan loop itself iterates with Next()
// so one account is in memory at a time.
func (s *Source) ReadAll() ([]*model.AccountRecord, error) {
	var records []*model.AccountRecord
	for {
		record, err := s.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return records, nil
			}
			return records, err
		}
		records = append(records, record)
	}
}

// Skipped returns the number of rows skipped so far for missing values.
func (s *Source) Skipped() int {
	return s.skipped
}

// field returns the value of the named column in row, or "" when the row
// is too short to contain it.
func (s *Source) field(row []string, column string) string {
	idx := s.columns[column]
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}
