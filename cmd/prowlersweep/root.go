package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for prowlersweep.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prowlersweep",
		Short: "Run Prowler security scans across multiple AWS accounts",
		Long: `Prowlersweep runs Prowler security scans across a fleet of AWS accounts.

It reads account credentials from a CSV file, installs each account's keys
as the default profile in the AWS credentials file, and runs one Prowler
scan per account, one account at a time.

The credentials file is fully overwritten on every install. Do not point
prowlersweep at a credentials file whose other profiles you want to keep.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
