package batch

import (
	"fmt"
	"sort"

	"github.com/warp/receipt-engine/generic"
)

// Merger combines ordered document files into out. pdfmerge.Merger
// satisfies it.
type Merger interface {
	MergeFiles(paths []string, out string) error
}

// MergeOptions carries the caller's partial-merge decision.
type MergeOptions struct {
	// AllowPartial merges whatever succeeded when some units were
	// exhausted. When false such a batch fails with ErrPartialBatch.
	AllowPartial bool
}

// Finalize merges the report's receipts into out in ascending sequence
// order. Individual receipt files are left in place whatever happens.
func Finalize(report *Report, merger Merger, out string, opts MergeOptions) error {
	if report == nil || len(report.Receipts) == 0 {
		return generic.ErrMergeEmptyInput
	}
	if !report.Complete() && !opts.AllowPartial {
		return fmt.Errorf("%d of %d units failed: %w",
			len(report.Failures), len(report.Failures)+len(report.Receipts), generic.ErrPartialBatch)
	}

	receipts := append([]Receipt(nil), report.Receipts...)
	sort.Slice(receipts, func(i, j int) bool { return receipts[i].Unit.Sequence < receipts[j].Unit.Sequence })

	paths := make([]string, len(receipts))
	for i, r := range receipts {
		paths[i] = r.Path
	}
	if err := merger.MergeFiles(paths, out); err != nil {
		return fmt.Errorf("merge receipts into %s: %w", out, err)
	}
	return nil
}
