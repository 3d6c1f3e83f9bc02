package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudaudit/prowlersweep/internal/model"
)

// openTestDB creates a HistoryDB in a temporary directory.
func openTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	hdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if err := hdb.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})
	return hdb
}

// finishedOutcome builds a completed outcome for test inserts.
func finishedOutcome(account string, status model.ScanStatus, exitCode int) *model.ScanOutcome {
	o := model.NewScanOutcome(account, "us-east-1")
	o.Finish(status, exitCode)
	return o
}

// TestOpen verifies database creation and the strict open mode used by the
// history command.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database and schema", func(t *testing.T) {
		t.Parallel()

		hdb := openTestDB(t)

		accounts, err := hdb.ListAccounts(context.Background())
		if err != nil {
			t.Fatalf("failed to list accounts on fresh database: %v", err)
		}
		if len(accounts) != 0 {
			t.Errorf("expected empty account list, got %v", accounts)
		}
	})

	t.Run("refuses to create when CreateIfNotExists is false", func(t *testing.T) {
		t.Parallel()

		opts := Options{CreateIfNotExists: false, EnableWAL: true}
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("expected error opening a nonexistent database")
		}
	})

	t.Run("reopens existing database without losing data", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		ctx := context.Background()

		hdb, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		run, err := hdb.StartRun(ctx, "accounts.csv", "us-east-1")
		if err != nil {
			t.Fatalf("failed to start run: %v", err)
		}
		if err := run.SaveOutcome(ctx, finishedOutcome("acme", model.StatusPassed, 0)); err != nil {
			t.Fatalf("failed to save outcome: %v", err)
		}
		if err := hdb.Close(); err != nil {
			t.Fatalf("failed to close database: %v", err)
		}

		reopened, err := Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer reopened.Close()

		accounts, err := reopened.ListAccounts(ctx)
		if err != nil {
			t.Fatalf("failed to list accounts: %v", err)
		}
		if len(accounts) != 1 || accounts[0] != "acme" {
			t.Errorf("expected [acme], got %v", accounts)
		}
	})
}

// TestRunLifecycle verifies the start-save-finish sequence of a run.
func TestRunLifecycle(t *testing.T) {
	t.Parallel()

	hdb := openTestDB(t)
	ctx := context.Background()

	run, err := hdb.StartRun(ctx, "accounts.csv", "eu-west-1")
	if err != nil {
		t.Fatalf("failed to start run: %v", err)
	}
	if run.ID == 0 {
		t.Error("expected a nonzero run ID")
	}

	outcomes := []*model.ScanOutcome{
		finishedOutcome("prod", model.StatusPassed, 0),
		finishedOutcome("staging", model.StatusFindings, 3),
		finishedOutcome("legacy", model.StatusError, 1),
	}
	for _, o := range outcomes {
		o.Region = "eu-west-1"
		if err := run.SaveOutcome(ctx, o); err != nil {
			t.Fatalf("failed to save outcome for %s: %v", o.AccountName, err)
		}
	}

	if err := run.Finish(ctx, 2); err != nil {
		t.Fatalf("failed to finish run: %v", err)
	}

	records, err := hdb.RecentScans(ctx, 0)
	if err != nil {
		t.Fatalf("failed to query recent scans: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 scan records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.RunID != run.ID {
			t.Errorf("record %s: expected run ID %d, got %d", rec.AccountName, run.ID, rec.RunID)
		}
		if rec.Region != "eu-west-1" {
			t.Errorf("record %s: unexpected region %q", rec.AccountName, rec.Region)
		}
		if rec.StartedAt.IsZero() {
			t.Errorf("record %s: expected a parsed start time", rec.AccountName)
		}
	}
}

// TestScanHistory verifies per-account filtering, ordering, and limits.
func TestScanHistory(t *testing.T) {
	t.Parallel()

	hdb := openTestDB(t)
	ctx := context.Background()

	run, err := hdb.StartRun(ctx, "accounts.csv", "us-east-1")
	if err != nil {
		t.Fatalf("failed to start run: %v", err)
	}

	// Three scans of the same account with distinct start times plus one
	// scan of another account that must not show up in the filter.
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, status := range []model.ScanStatus{model.StatusError, model.StatusFindings, model.StatusPassed} {
		o := finishedOutcome("acme", status, 0)
		o.StartedAt = base.Add(time.Duration(i) * time.Hour)
		if err := run.SaveOutcome(ctx, o); err != nil {
			t.Fatalf("failed to save outcome: %v", err)
		}
	}
	if err := run.SaveOutcome(ctx, finishedOutcome("other", model.StatusPassed, 0)); err != nil {
		t.Fatalf("failed to save outcome: %v", err)
	}

	t.Run("returns only the requested account, newest first", func(t *testing.T) {
		t.Parallel()

		records, err := hdb.ScanHistory(ctx, "acme", 0)
		if err != nil {
			t.Fatalf("failed to query history: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected 3 records, got %d", len(records))
		}
		if records[0].Status != model.StatusPassed {
			t.Errorf("expected newest record first (PASSED), got %v", records[0].Status)
		}
		if records[2].Status != model.StatusError {
			t.Errorf("expected oldest record last (ERROR), got %v", records[2].Status)
		}
	})

	t.Run("limit caps the result", func(t *testing.T) {
		t.Parallel()

		records, err := hdb.ScanHistory(ctx, "acme", 2)
		if err != nil {
			t.Fatalf("failed to query history: %v", err)
		}
		if len(records) != 2 {
			t.Errorf("expected 2 records, got %d", len(records))
		}
	})

	t.Run("unknown account yields empty history", func(t *testing.T) {
		t.Parallel()

		records, err := hdb.ScanHistory(ctx, "nope", 0)
		if err != nil {
			t.Fatalf("failed to query history: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("expected no records, got %d", len(records))
		}
	})
}

// TestSaveOutcomeRoundTrip verifies that outcome fields survive the write
// and read back with the same meaning.
func TestSaveOutcomeRoundTrip(t *testing.T) {
	t.Parallel()

	hdb := openTestDB(t)
	ctx := context.Background()

	run, err := hdb.StartRun(ctx, "accounts.csv", "us-east-1")
	if err != nil {
		t.Fatalf("failed to start run: %v", err)
	}

	o := model.NewScanOutcome("acme", "us-east-1")
	o.CallerARN = "arn:aws:iam::123456789012:user/audit"
	o.Err = "prowler exited with code 2"
	o.Finish(model.StatusError, 2)
	o.Duration = 90 * time.Second

	if err := run.SaveOutcome(ctx, o); err != nil {
		t.Fatalf("failed to save outcome: %v", err)
	}

	records, err := hdb.ScanHistory(ctx, "acme", 1)
	if err != nil {
		t.Fatalf("failed to query history: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	rec := records[0]
	if rec.Status != model.StatusError {
		t.Errorf("expected StatusError, got %v", rec.Status)
	}
	if rec.ExitCode != 2 {
		t.Errorf("expected exit code 2, got %d", rec.ExitCode)
	}
	if rec.CallerARN != o.CallerARN {
		t.Errorf("expected caller ARN %q, got %q", o.CallerARN, rec.CallerARN)
	}
	if rec.Err != o.Err {
		t.Errorf("expected error %q, got %q", o.Err, rec.Err)
	}
	if rec.Duration != 90*time.Second {
		t.Errorf("expected 90s duration, got %v", rec.Duration)
	}
}

// TestListAccounts verifies deduplication and ordering.
func TestListAccounts(t *testing.T) {
	t.Parallel()

	hdb := openTestDB(t)
	ctx := context.Background()

	run, err := hdb.StartRun(ctx, "accounts.csv", "us-east-1")
	if err != nil {
		t.Fatalf("failed to start run: %v", err)
	}
	for _, name := range []string{"zeta", "alpha", "zeta", "mid"} {
		if err := run.SaveOutcome(ctx, finishedOutcome(name, model.StatusPassed, 0)); err != nil {
			t.Fatalf("failed to save outcome: %v", err)
		}
	}

	accounts, err := hdb.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("failed to list accounts: %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if len(accounts) != len(want) {
		t.Fatalf("expected %v, got %v", want, accounts)
	}
	for i := range want {
		if accounts[i] != want[i] {
			t.Errorf("account %d: expected %s, got %s", i, want[i], accounts[i])
		}
	}
}

// TestSaveOutcomeCancelledContext verifies context errors surface from the
// write path.
func TestSaveOutcomeCancelledContext(t *testing.T) {
	t.Parallel()

	hdb := openTestDB(t)

	run, err := hdb.StartRun(context.Background(), "accounts.csv", "us-east-1")
	if err != nil {
		t.Fatalf("failed to start run: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = run.SaveOutcome(ctx, finishedOutcome("acme", model.StatusPassed, 0))
	if err == nil {
		t.Fatal("expected error with cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

// TestParseTimestamp covers the formats SQLite may hand back.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{"RFC3339", "2026-08-25T10:30:00Z", false},
		{"SQLite default", "2026-08-25 10:30:00", false},
		{"with milliseconds", "2026-08-25 10:30:00.123", false},
		{"garbage", "not a timestamp", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.input)
			if got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%q) zero = %v, want %v", tt.input, got.IsZero(), tt.zero)
			}
		})
	}
}
