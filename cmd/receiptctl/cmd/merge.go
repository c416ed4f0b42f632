package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/receipt-engine/batch"
	"github.com/warp/receipt-engine/pdfmerge"
)

var (
	mergeOut   string
	mergeDir   string
	mergeGlob  string
	mergeCount int
)

// mergeCmd merges documents given as arguments, or every receipt in a directory.
var mergeCmd = &cobra.Command{
	Use:   "merge [files...]",
	Short: "Merge PDF documents into one, preserving order",
	Long: `Merge PDF documents in the order given. With --dir, merge every
receipt_NNN.pdf in the directory in ascending sequence order. Add --glob
to merge arbitrary files in the directory in name order instead.

Examples:
  receiptctl merge --out all.pdf a.pdf b.pdf c.pdf
  receiptctl merge --dir ./receipts
  receiptctl merge --dir ./receipts --count 6
  receiptctl merge --dir ./scans --glob "*.pdf" --out scans.pdf`,
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOut, "out", "o", "", "output file (default: <dir>/<merged_name> from config)")
	mergeCmd.Flags().StringVar(&mergeDir, "dir", "", "merge receipts found in this directory")
	mergeCmd.Flags().StringVar(&mergeGlob, "glob", "", "with --dir, merge files matching this pattern in name order")
	mergeCmd.Flags().IntVar(&mergeCount, "count", 0, "with --dir, merge only receipts 1..count")
}

func runMerge(cmd *cobra.Command, args []string) error {
	if mergeDir != "" && len(args) > 0 {
		return fmt.Errorf("pass files or --dir, not both")
	}
	if mergeGlob != "" && mergeDir == "" {
		return fmt.Errorf("--glob requires --dir")
	}
	if mergeCount != 0 && (mergeDir == "" || mergeGlob != "") {
		return fmt.Errorf("--count requires --dir without --glob")
	}
	if mergeCount < 0 {
		return fmt.Errorf("--count must be positive")
	}

	out := mergeOut
	if out == "" {
		dir := mergeDir
		if dir == "" {
			dir = cfg.Output.Dir
		}
		out = filepath.Join(dir, cfg.Output.MergedName)
	}

	var merger pdfmerge.Merger
	paths := args
	switch {
	case mergeGlob != "":
		merged, err := merger.MergeDir(mergeDir, mergeGlob, out)
		if err != nil {
			return err
		}
		paths = merged
	case mergeDir != "":
		ws := batch.Workspace{Dir: mergeDir}
		var found []string
		var err error
		if mergeCount > 0 {
			found, err = ws.ReceiptsThrough(mergeCount)
		} else {
			found, err = ws.Receipts()
		}
		if err != nil {
			return err
		}
		paths = found
		fallthrough
	default:
		if err := merger.MergeFiles(paths, out); err != nil {
			return err
		}
	}
	logger.Info("merged documents", zap.Int("sources", len(paths)), zap.String("output", out))
	fmt.Fprintf(cmd.OutOrStdout(), "Merged %d documents into %s\n", len(paths), out)
	return nil
}
