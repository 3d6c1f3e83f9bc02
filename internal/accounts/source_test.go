package accounts

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// discardLogger returns a logger that swallows all output, keeping test
// output clean while still exercising the warning paths.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestNewSource_HeaderValidation verifies that a structurally broken file
// is rejected before any row is processed.
func TestNewSource_HeaderValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "all required columns present",
			input:   "Account Name,Access Key ID,Secret Access Key\n",
			wantErr: false,
		},
		{
			name:    "columns in different order",
			input:   "Secret Access Key,Account Name,Access Key ID\n",
			wantErr: false,
		},
		{
			name:    "extra columns are allowed",
			input:   "Account Name,Email,Access Key ID,Secret Access Key,Notes\n",
			wantErr: false,
		},
		{
			name:    "missing secret column",
			input:   "Account Name,Access Key ID\n",
			wantErr: true,
		},
		{
			name:    "missing account name column",
			input:   "Access Key ID,Secret Access Key\n",
			wantErr: true,
		},
		{
			name:    "empty file",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewSource(strings.NewReader(tt.input), WithLogger(discardLogger()))
			if tt.wantErr {
				if !errors.Is(err, ErrMissingColumn) {
					t.Errorf("expected ErrMissingColumn, got %v", err)
				}
			} else if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

// TestSourceNext verifies row iteration, incomplete-row skipping, and the
// skip counter. The mixed-row case reproduces the canonical example: rows
// (acme, AKIA1, secret1), (beta, "", secret2), (gamma, AKIA3, secret3) must
// yield exactly acme and gamma with one skip.
func TestSourceNext(t *testing.T) {
	t.Parallel()

	t.Run("valid rows are returned in order", func(t *testing.T) {
		t.Parallel()

		input := "Account Name,Access Key ID,Secret Access Key\n" +
			"acme,AKIA1,secret1\n" +
			"beta,,secret2\n" +
			"gamma,AKIA3,secret3\n"

		src, err := NewSource(strings.NewReader(input), WithLogger(discardLogger()))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		first, err := src.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if first.Name != "acme" || first.AccessKeyID != "AKIA1" || first.SecretAccessKey != "secret1" {
			t.Errorf("unexpected first record: %+v", first)
		}

		second, err := src.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if second.Name != "gamma" {
			t.Errorf("expected gamma after skipping beta, got %q", second.Name)
		}

		if _, err := src.Next(); !errors.Is(err, io.EOF) {
			t.Errorf("expected io.EOF, got %v", err)
		}

		if got := src.Skipped(); got != 1 {
			t.Errorf("expected 1 skipped row, got %d", got)
		}
	})

	t.Run("columns are matched by name not position", func(t *testing.T) {
		t.Parallel()

		input := "Secret Access Key,Account Name,Access Key ID\n" +
			"topsecret,acme,AKIAEXAMPLE\n"

		src, err := NewSource(strings.NewReader(input), WithLogger(discardLogger()))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		record, err := src.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if record.Name != "acme" {
			t.Errorf("expected name acme, got %q", record.Name)
		}
		if record.AccessKeyID != "AKIAEXAMPLE" {
			t.Errorf("expected access key AKIAEXAMPLE, got %q", record.AccessKeyID)
		}
		if record.SecretAccessKey != "topsecret" {
			t.Errorf("expected secret topsecret, got %q", record.SecretAccessKey)
		}
	})

	t.Run("short rows count missing cells as empty", func(t *testing.T) {
		t.Parallel()

		input := "Account Name,Access Key ID,Secret Access Key\n" +
			"acme,AKIA1\n" +
			"beta,AKIA2,secret2\n"

		src, err := NewSource(strings.NewReader(input), WithLogger(discardLogger()))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		record, err := src.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if record.Name != "beta" {
			t.Errorf("expected beta after skipping short acme row, got %q", record.Name)
		}
		if src.Skipped() != 1 {
			t.Errorf("expected 1 skipped row, got %d", src.Skipped())
		}
	})

	t.Run("malformed quoting is a fatal error", func(t *testing.T) {
		t.Parallel()

		input := "Account Name,Access Key ID,Secret Access Key\n" +
			"\"unterminated,AKIA1,secret1\n"

		src, err := NewSource(strings.NewReader(input), WithLogger(discardLogger()))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := src.Next(); err == nil || errors.Is(err, io.EOF) {
			t.Errorf("expected parse error, got %v", err)
		}
	})
}

// TestSourceReadAll verifies bulk iteration.
func TestSourceReadAll(t *testing.T) {
	t.Parallel()

	input := "Account Name,Access Key ID,Secret Access Key\n" +
		"one,AKIA1,s1\n" +
		"two,AKIA2,s2\n" +
		",AKIA3,s3\n"

	src, err := NewSource(strings.NewReader(input), WithLogger(discardLogger()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := src.ReadAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Name != "one" || records[1].Name != "two" {
		t.Errorf("unexpected records: %v, %v", records[0], records[1])
	}
	if src.Skipped() != 1 {
		t.Errorf("expected 1 skipped row, got %d", src.Skipped())
	}
}

// TestOpenFile verifies file-backed sources.
func TestOpenFile(t *testing.T) {
	t.Parallel()

	t.Run("existing file opens", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "accounts.csv")
		content := "Account Name,Access Key ID,Secret Access Key\nacme,AKIA1,s1\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write accounts file: %v", err)
		}

		src, closer, err := OpenFile(path, WithLogger(discardLogger()))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer closer.Close()

		record, err := src.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if record.Name != "acme" {
			t.Errorf("expected acme, got %q", record.Name)
		}
	})

	t.Run("missing file returns error", func(t *testing.T) {
		t.Parallel()

		if _, _, err := OpenFile(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}
