package cmd

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/receipt-engine/batch"
	"github.com/warp/receipt-engine/pdfmerge"
)

var (
	runFlags        batchFlags
	runProducer     string
	runAllowPartial bool
)

// runCmd plans a batch, produces every unit with an external command and
// merges the results.
var runCmd = &cobra.Command{
	Use:   "run --producer <program> [-- args...]",
	Short: "Plan a batch, produce each receipt and merge them",
	Long: `Plan a batch, then run the producer program once per receipt in
sequence order. The producer receives the unit in RECEIPT_* environment
variables and must write a PDF to $RECEIPT_OUTPUT. Failed units are
retried with backoff per the config. Receipts are merged at the end.

Examples:
  receiptctl run --producer ./fill-form.sh --station "HP Sector 18" ...
  receiptctl run --producer node --allow-partial ... -- submit.js --headless`,
	RunE: runBatch,
}

func init() {
	runFlags.bind(runCmd)
	runCmd.Flags().StringVar(&runProducer, "producer", "", "program that produces one receipt")
	runCmd.Flags().BoolVar(&runAllowPartial, "allow-partial", false, "merge successful receipts even if some units failed")
	_ = runCmd.MarkFlagRequired("producer")
}

func runBatch(cmd *cobra.Command, args []string) error {
	res := runFlags.validate()
	if !res.Valid {
		printViolations(cmd.OutOrStdout(), res.Violations)
		return res.Err()
	}

	plan, err := batch.Planner{Allocator: cfg.Allocator()}.Plan(*res.Request)
	if err != nil {
		return err
	}
	log := logger.With(zap.String("plan_id", plan.ID))
	log.Info("plan created", zap.Int("units", len(plan.Units)), zap.String("total", plan.Total().String()))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := &batch.Runner{
		Producer:  batch.CommandProducer{Path: runProducer, Args: args},
		Workspace: cfg.Workspace(),
		Policy:    cfg.RetryPolicy(),
		Logger:    log,
	}
	report, err := runner.Run(ctx, plan.Units)
	if err != nil {
		return err
	}

	out := filepath.Join(cfg.Output.Dir, cfg.Output.MergedName)
	opts := batch.MergeOptions{AllowPartial: runAllowPartial || cfg.Merge.AllowPartial}
	if err := batch.Finalize(report, pdfmerge.Merger{}, out, opts); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Produced %d of %d receipts, merged into %s\n",
		len(report.Receipts), len(plan.Units), out)
	for _, f := range report.Failures {
		fmt.Fprintf(cmd.OutOrStdout(), "  failed: %v\n", f)
	}
	return nil
}
