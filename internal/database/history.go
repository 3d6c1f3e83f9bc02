package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/cloudaudit/prowlersweep/internal/model"
)

// HistoryDB provides SQLite-based storage for scan runs and outcomes.
// It manages connection pooling and provides methods for recording and
// querying scan history.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. Recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is
// returned; the history command uses this mode so it never creates an empty
// database just to report that there is no history.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "prowlersweep.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("no scan history found at %s (run a scan first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; a single connection avoids
	// SQLITE_BUSY churn for this strictly sequential workload.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per prowlersweep invocation
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_file TEXT NOT NULL,
		region TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		skipped_rows INTEGER NOT NULL DEFAULT 0
	);

	-- One row per executed (or skipped) account scan
	CREATE TABLE IF NOT EXISTS scans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		account_name TEXT NOT NULL,
		region TEXT NOT NULL,
		status TEXT NOT NULL,
		exit_code INTEGER NOT NULL,
		caller_arn TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		started_at DATETIME NOT NULL,
		duration_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scans_account ON scans(account_name);
	CREATE INDEX IF NOT EXISTS idx_scans_run ON scans(run_id);
	CREATE INDEX IF NOT EXISTS idx_scans_started ON scans(started_at);
	`

	_, err := hdb.db.Exec(schema)
	return err
}

// Run represents one recorded prowlersweep invocation.
// Its SaveOutcome method satisfies pipeline.OutcomeRecorder.
type Run struct {
	// ID is the run's database identifier.
	ID int64

	hdb *HistoryDB
}

// StartRun inserts a run row and returns a handle for recording outcomes
// against it.
func (hdb *HistoryDB) StartRun(ctx context.Context, sourceFile, region string) (*Run, error) {
	query := `
	INSERT INTO runs (source_file, region, started_at)
	VALUES (?, ?, ?)
	`

	result, err := hdb.db.ExecContext(ctx, query,
		sourceFile,
		region,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get run ID: %w", err)
	}

	return &Run{ID: id, hdb: hdb}, nil
}

// SaveOutcome records one account's scan outcome under this run.
func (r *Run) SaveOutcome(ctx context.Context, outcome *model.ScanOutcome) error {
	query := `
	INSERT INTO scans (run_id, account_name, region, status, exit_code, caller_arn, error, started_at, duration_ms)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.hdb.db.ExecContext(ctx, query,
		r.ID,
		outcome.AccountName,
		outcome.Region,
		outcome.Status.String(),
		outcome.ExitCode,
		outcome.CallerARN,
		outcome.Err,
		outcome.StartedAt.UTC().Format(time.RFC3339),
		outcome.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert scan outcome: %w", err)
	}

	return nil
}

// Finish stamps the run's completion time and skipped-row count.
func (r *Run) Finish(ctx context.Context, skippedRows int) error {
	query := `
	UPDATE runs SET finished_at = ?, skipped_rows = ? WHERE id = ?
	`

	_, err := r.hdb.db.ExecContext(ctx, query,
		time.Now().UTC().Format(time.RFC3339),
		skippedRows,
		r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	return nil
}

// ScanRecord is one historical scan row.
type ScanRecord struct {
	// ID is the scan row's database identifier.
	ID int64

	// RunID identifies the run the scan belonged to.
	RunID int64

	// AccountName is the scanned account's display name.
	AccountName string

	// Region the scan was scoped to.
	Region string

	// Status is the classified outcome.
	Status model.ScanStatus

	// ExitCode is Prowler's raw exit code.
	ExitCode int

	// CallerARN is the STS-verified identity, when recorded.
	CallerARN string

	// Err is the error message for failed or skipped scans.
	Err string

	// StartedAt is when the account's processing began.
	StartedAt time.Time

	// Duration is the wall-clock time spent on the account.
	Duration time.Duration
}

// ScanHistory returns the recorded scans for an account, newest first.
// A limit of 0 means no limit.
func (hdb *HistoryDB) ScanHistory(ctx context.Context, accountName string, limit int) ([]ScanRecord, error) {
	query := `
	SELECT id, run_id, account_name, region, status, exit_code, caller_arn, error, started_at, duration_ms
	FROM scans
	WHERE account_name = ?
	ORDER BY started_at DESC, id DESC
	`
	args := []any{accountName}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	return hdb.queryScans(ctx, query, args...)
}

// RecentScans returns the most recent scans across all accounts.
// A limit of 0 means no limit.
func (hdb *HistoryDB) RecentScans(ctx context.Context, limit int) ([]ScanRecord, error) {
	query := `
	SELECT id, run_id, account_name, region, status, exit_code, caller_arn, error, started_at, duration_ms
	FROM scans
	ORDER BY started_at DESC, id DESC
	`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	return hdb.queryScans(ctx, query, args...)
}

// ListAccounts returns the distinct account names with recorded scans,
// sorted alphabetically.
func (hdb *HistoryDB) ListAccounts(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT account_name FROM scans ORDER BY account_name
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		accounts = append(accounts, name)
	}

	return accounts, rows.Err()
}

// queryScans runs a scans query and maps the rows to ScanRecords.
func (hdb *HistoryDB) queryScans(ctx context.Context, query string, args ...any) ([]ScanRecord, error) {
	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan history: %w", err)
	}
	defer rows.Close()

	var records []ScanRecord
	for rows.Next() {
		var rec ScanRecord
		var status, startedAt string
		var durationMS int64

		if err := rows.Scan(
			&rec.ID,
			&rec.RunID,
			&rec.AccountName,
			&rec.Region,
			&status,
			&rec.ExitCode,
			&rec.CallerARN,
			&rec.Err,
			&startedAt,
			&durationMS,
		); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return records, nil
			}
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}

		rec.Status = model.ParseScanStatus(status)
		rec.StartedAt = parseTimestamp(startedAt)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, rec)
	}

	return records, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05", // SQLite default datetime format
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. SQLite may return timestamps in different formats depending on
// configuration. If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
