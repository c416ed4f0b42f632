// Package cmd provides the CLI commands for receiptctl.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/receipt-engine/config"
	"github.com/warp/receipt-engine/logging"
)

var (
	cfgFile string
	verbose bool

	// Populated by the root PersistentPreRunE.
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "receiptctl",
	Short: "Plan and merge receipt batches",
	Long: `receiptctl validates batch parameters, splits a total across receipts,
assigns spaced dates, and merges produced receipt documents.

Examples:
  receiptctl validate --station "HP Sector 18" --rate 96.72 --total 3000 --count 6 --max 700 --start 2025-04-01 --end 2025-06-30
  receiptctl plan --format json ... 
  receiptctl merge --out all.pdf receipt_001.pdf receipt_002.pdf
  receiptctl merge --dir ./receipts --out ./receipts/receipts.pdf
  receiptctl run --producer ./fill-form.sh ...`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if verbose {
			loaded.Logging.Level = "debug"
		}
		l, err := logging.New(loaded.Logging)
		if err != nil {
			return fmt.Errorf("initialize logging: %w", err)
		}
		cfg, logger = loaded, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "JSON config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "receiptctl version 0.1.0")
	},
}
