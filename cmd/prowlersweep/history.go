package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloudaudit/prowlersweep/internal/config"
	"github.com/cloudaudit/prowlersweep/internal/database"
)

// NewHistoryCmd creates the history command.
// This command lists scan outcomes recorded by previous runs.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [account-name]",
		Short: "Show recorded scan outcomes for an account",
		Long: `History displays scan outcomes recorded by previous runs.

Every scan run records one row per account in a local SQLite database,
so operators can answer "when did we last scan this account, and how did
it go?" without digging through Prowler's output directories.

With an account name, history lists that account's recorded scans, newest
first. Without one, it lists the most recent scans across all accounts.

Examples:
  # Show the recorded scans for one account
  prowlersweep history prod-account

  # Show the last 10 scans across all accounts
  prowlersweep history --limit 10

  # List every account with recorded scans
  prowlersweep history --list-accounts

  # Output history in JSON format
  prowlersweep history --json prod-account`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-accounts", "l", false,
		"List all accounts with recorded scans")
	cmd.Flags().IntP("limit", "n", 20,
		"Maximum number of scans to show (0 for no limit)")
	cmd.Flags().BoolP("json", "j", false,
		"Output history in JSON format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listAccounts, err := cmd.Flags().GetBool("list-accounts")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	// Never create an empty database just to report that there is no
	// history; CreateIfNotExists stays false here.
	db, err := database.Open(config.XDGDataDir(), database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if listAccounts {
		return printAccountList(ctx, db, out, asJSON)
	}

	var records []database.ScanRecord
	if len(args) == 1 {
		records, err = db.ScanHistory(ctx, args[0], limit)
	} else {
		records, err = db.RecentScans(ctx, limit)
	}
	if err != nil {
		return err
	}

	if len(records) == 0 {
		if len(args) == 1 {
			return fmt.Errorf("no recorded scans for account %q (use --list-accounts to see available accounts)", args[0])
		}
		return errors.New("no recorded scans yet (run a scan first)")
	}

	if asJSON {
		return printHistoryJSON(out, records)
	}
	printHistoryTable(out, records)
	return nil
}

// printAccountList writes the distinct account names.
func printAccountList(ctx context.Context, db *database.HistoryDB, out io.Writer, asJSON bool) error {
	names, err := db.ListAccounts(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return errors.New("no recorded scans yet (run a scan first)")
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(names)
	}

	fmt.Fprintf(out, "Accounts with recorded scans (%d):\n", len(names))
	for _, name := range names {
		fmt.Fprintf(out, "  %s\n", name)
	}
	return nil
}

// historyEntry is the JSON shape of one recorded scan.
type historyEntry struct {
	AccountName string    `json:"account_name"`
	Region      string    `json:"region"`
	Status      string    `json:"status"`
	ExitCode    int       `json:"exit_code"`
	CallerARN   string    `json:"caller_arn,omitempty"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	Duration    string    `json:"duration"`
}

// printHistoryJSON writes the records as a JSON array.
func printHistoryJSON(out io.Writer, records []database.ScanRecord) error {
	entries := make([]historyEntry, len(records))
	for i, rec := range records {
		entries[i] = historyEntry{
			AccountName: rec.AccountName,
			Region:      rec.Region,
			Status:      rec.Status.String(),
			ExitCode:    rec.ExitCode,
			CallerARN:   rec.CallerARN,
			Error:       rec.Err,
			StartedAt:   rec.StartedAt,
			Duration:    rec.Duration.String(),
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// printHistoryTable writes the records as an aligned text table.
func printHistoryTable(out io.Writer, records []database.ScanRecord) {
	fmt.Fprintf(out, "%-24s %-10s %-20s %-10s %s\n", "ACCOUNT", "STATUS", "STARTED", "DURATION", "DETAIL")
	fmt.Fprintln(out, strings.Repeat("-", 90))
	for _, rec := range records {
		detail := rec.Err
		if detail == "" {
			detail = "-"
		}
		started := "-"
		if !rec.StartedAt.IsZero() {
			started = rec.StartedAt.Local().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(out, "%-24s %-10s %-20s %-10s %s\n",
			rec.AccountName,
			rec.Status.String(),
			started,
			rec.Duration.Round(time.Second),
			detail,
		)
	}
}
