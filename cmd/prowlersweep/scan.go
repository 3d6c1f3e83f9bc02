package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cloudaudit/prowlersweep/internal/accounts"
	"github.com/cloudaudit/prowlersweep/internal/config"
	"github.com/cloudaudit/prowlersweep/internal/credentials"
	"github.com/cloudaudit/prowlersweep/internal/database"
	"github.com/cloudaudit/prowlersweep/internal/identity"
	"github.com/cloudaudit/prowlersweep/internal/log"
	"github.com/cloudaudit/prowlersweep/internal/model"
	"github.com/cloudaudit/prowlersweep/internal/pipeline"
	"github.com/cloudaudit/prowlersweep/internal/prowler"
	"github.com/cloudaudit/prowlersweep/internal/report"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <accounts.csv> <region>",
		Short: "Scan every account in the CSV file with Prowler",
		Long: `Scan runs one Prowler scan per account listed in the CSV file.

For each account, prowlersweep overwrites the AWS credentials file with
that account's keys as the [default] profile, then runs
"prowler aws -f <region> -F <account-name>" and streams Prowler's output
to the terminal. Accounts are processed strictly in CSV order, one at a
time.

The CSV must have a header with these columns (extra columns are ignored):
  Account Name, Access Key ID, Secret Access Key

Rows missing a required value are skipped with a warning. A scan that
fails or reports findings never stops the run; the remaining accounts are
still processed and the per-account results appear in the final summary.

Examples:
  # Scan every account in accounts.csv in us-east-1
  prowlersweep scan accounts.csv us-east-1

  # Validate the CSV without writing credentials or scanning
  prowlersweep scan --dry-run accounts.csv us-east-1

  # Verify each account's keys against STS before scanning
  prowlersweep scan --verify accounts.csv eu-west-1

  # Write a Markdown run summary to a file
  prowlersweep scan --markdown -o summary.md accounts.csv us-east-1

Configuration file (.prowlersweep) example:
  defaults:
    extraArgs: ["--severity", "critical", "high"]
  accounts:
    legacy-prod:
      skip: true
    sandbox:
      extraArgs: ["--compliance", "cis_3.0_aws"]`,
		Args: cobra.ExactArgs(2),
		RunE: runScanCmd,
	}

	// Prowler invocation flags
	cmd.Flags().StringP("prowler", "p", config.DefaultProwlerBinary,
		"Prowler executable name or path")
	cmd.Flags().Int("findings-exit-code", config.DefaultFindingsExitCode,
		"Prowler exit code meaning \"completed with failed checks\"")

	// Credential handling flags
	cmd.Flags().String("credentials-file", "",
		"AWS credentials file to overwrite (default: ~/.aws/credentials)")
	cmd.Flags().Bool("verify", false,
		"Verify each account's keys with STS GetCallerIdentity before scanning")

	// Run behavior flags
	cmd.Flags().Bool("dry-run", false,
		"Validate the accounts file without writing credentials or scanning")
	cmd.Flags().Bool("no-save", false,
		"Do not record scan outcomes in the history database")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .prowlersweep in current or home directory)")

	// Summary output flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON run summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown run summary (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write run summary to specified file path (creates directories if needed)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// The redacting logger is the default for the whole run so account
	// secrets cannot leak through any log call site.
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runSweep(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags and the optional
// configuration file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.AccountsFile = args[0]
	cfg.Region = args[1]
	cfg.Verbose = getVerboseFlag(cmd)

	var err error

	cfg.ProwlerBinary, err = cmd.Flags().GetString("prowler")
	if err != nil {
		return nil, err
	}

	cfg.FindingsExitCode, err = cmd.Flags().GetInt("findings-exit-code")
	if err != nil {
		return nil, err
	}

	cfg.CredentialsFile, err = cmd.Flags().GetString("credentials-file")
	if err != nil {
		return nil, err
	}
	if cfg.CredentialsFile == "" {
		cfg.CredentialsFile, err = config.DefaultCredentialsFile()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory for the credentials file: %w", err)
		}
	}

	cfg.Verify, err = cmd.Flags().GetBool("verify")
	if err != nil {
		return nil, err
	}

	cfg.DryRun, err = cmd.Flags().GetBool("dry-run")
	if err != nil {
		return nil, err
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave
	cfg.DBDir = config.XDGDataDir()

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load defaults and per-account overrides from the config file.
	// If the user explicitly specified a config file path, error if not
	// found. If no path specified, silently run without one.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(cf)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// runSweep executes the multi-account scan run.
func runSweep(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Reject a missing accounts file before any side effect.
	if _, err := os.Stat(cfg.AccountsFile); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("accounts file not found: %s", cfg.AccountsFile)
		}
		return fmt.Errorf("cannot read accounts file: %w", err)
	}

	src, closer, err := accounts.OpenFile(cfg.AccountsFile, accounts.WithLogger(logger))
	if err != nil {
		return err
	}
	defer closer.Close()

	if cfg.DryRun {
		return runDryRun(cfg, src)
	}

	logger.Info("starting multi-account scan",
		"accounts_file", cfg.AccountsFile,
		"region", cfg.Region,
		"prowler", cfg.ProwlerBinary,
		"verify", cfg.Verify,
	)

	// History recording is best effort from here on: an unopenable database
	// downgrades to a warning and the run proceeds without history.
	var recorder pipeline.OutcomeRecorder
	var run *database.Run
	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			logger.Warn("history database unavailable, outcomes will not be recorded", "error", err)
		} else {
			defer db.Close()
			run, err = db.StartRun(ctx, cfg.AccountsFile, cfg.Region)
			if err != nil {
				logger.Warn("failed to start history run, outcomes will not be recorded", "error", err)
			} else {
				recorder = run
			}
		}
	}

	store := credentials.NewFileStore(cfg.CredentialsFile)
	runner := prowler.NewExecRunner(cfg.ProwlerBinary, prowler.WithExtraArgs(cfg.ProwlerExtraArgs))

	var verifier identity.Verifier
	if cfg.Verify {
		verifier = identity.NewSTSVerifier(cfg.Region)
	}

	p := pipeline.ScanPipeline(store, runner, verifier, recorder, cfg.FindingsExitCode,
		pipeline.WithLogger(logger))

	summary := model.NewRunSummary(cfg.AccountsFile, cfg.Region)

	err = scanAccounts(ctx, cfg, src, p, summary, logger)

	summary.SkippedRows = src.Skipped()
	summary.Finish()

	if run != nil {
		if finishErr := run.Finish(context.WithoutCancel(ctx), summary.SkippedRows); finishErr != nil {
			logger.Warn("failed to finalize history run", "error", finishErr)
		}
	}

	if outErr := outputSummary(cfg, summary); outErr != nil {
		logger.Error("failed to write run summary", "error", outErr)
		if err == nil {
			err = outErr
		}
	}

	return err
}

// scanAccounts drives the per-account pipeline over every record in src.
// Only CSV structure errors and context cancellation abort the loop; a
// failing account is recorded in the summary and the loop continues.
func scanAccounts(ctx context.Context, cfg *config.Config, src *accounts.Source, p *pipeline.Pipeline, summary *model.RunSummary, logger *slog.Logger) error {
	for {
		record, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		scan := pipeline.NewAccountScan(record, cfg.Region)

		acctCfg := cfg.Accounts.GetAccountConfig(record.Name)
		if acctCfg.Skip {
			scan.Outcome.Finish(model.StatusSkipped, -1)
			scan.Outcome.Err = "account marked skip in configuration"
			summary.Add(scan.Outcome)
			logger.Info("skipping account per configuration", "account", record.Name)
			continue
		}
		scan.ExtraArgs = acctCfg.ExtraArgs

		fmt.Printf("Scanning account %s...\n", record.Name)

		if err := p.Execute(ctx, scan); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				// The pipeline stopped between steps; the outcome may not
				// have been stamped yet.
				if scan.Outcome.StatusText == "" {
					scan.Outcome.Finish(model.StatusSkipped, -1)
					scan.Outcome.Err = "run interrupted"
				}
				summary.Add(scan.Outcome)
				return err
			}
			// A step error here is a credential install failure: the
			// account is marked skipped and the run moves on.
			logger.Error("account aborted", "account", record.Name, "error", err)
		}

		summary.Add(scan.Outcome)
	}
}

// runDryRun validates the accounts file and prints what a real run would do.
// No credentials are written and no scans are launched.
func runDryRun(cfg *config.Config, src *accounts.Source) error {
	records, err := src.ReadAll()
	if err != nil {
		return err
	}

	fmt.Printf("Dry run: %d account(s) in %s, region %s\n\n", len(records), cfg.AccountsFile, cfg.Region)
	for _, record := range records {
		acctCfg := cfg.Accounts.GetAccountConfig(record.Name)
		if acctCfg.Skip {
			fmt.Printf("  [skip] %s\n", record.Name)
			continue
		}
		fmt.Printf("  [scan] %-24s access key %s\n", record.Name, record.AccessKeyID)
	}
	if skipped := src.Skipped(); skipped > 0 {
		fmt.Printf("\n%d malformed row(s) would be ignored.\n", skipped)
	}

	return nil
}

// outputSummary writes the run summary in the requested format.
func outputSummary(cfg *config.Config, summary *model.RunSummary) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// 0600 because the summary names accounts and identities that are
		// not necessarily public inside the operator's organization.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(summary)
	return err
}
