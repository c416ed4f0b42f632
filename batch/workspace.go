package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	receiptPrefix = "receipt_"
	receiptSuffix = ".pdf"
)

// Workspace is the directory receipts are written to. It is passed in
// explicitly; nothing in the engine assumes a shared download location.
type Workspace struct {
	Dir string
}

// ReceiptFileName is the canonical file name for a unit's document.
func ReceiptFileName(sequence int) string {
	return fmt.Sprintf("%s%03d%s", receiptPrefix, sequence, receiptSuffix)
}

// Ensure creates the directory if needed.
func (w Workspace) Ensure() error {
	if w.Dir == "" {
		return fmt.Errorf("workspace: directory is required")
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("workspace: create %s: %w", w.Dir, err)
	}
	return nil
}

// PathFor is where the document for sequence belongs.
func (w Workspace) PathFor(sequence int) string {
	return filepath.Join(w.Dir, ReceiptFileName(sequence))
}

// Adopt moves a file produced under another name (e.g. a browser
// download) to the canonical path for sequence.
func (w Workspace) Adopt(src string, sequence int) (string, error) {
	dest := w.PathFor(sequence)
	if err := os.Rename(src, dest); err != nil {
		return "", fmt.Errorf("workspace: adopt %s as %s: %w", src, dest, err)
	}
	return dest, nil
}

// Discard removes the document for sequence, if any.
func (w Workspace) Discard(sequence int) error {
	if err := os.Remove(w.PathFor(sequence)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("workspace: discard %s: %w", w.PathFor(sequence), err)
	}
	return nil
}

// Reset removes every receipt file left in the directory and returns how
// many were removed. Other files are left alone.
func (w Workspace) Reset() (int, error) {
	paths, err := w.Receipts()
	if err != nil {
		return 0, err
	}
	for i, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return i, fmt.Errorf("workspace: reset %s: %w", w.Dir, err)
		}
	}
	return len(paths), nil
}

// ReceiptsThrough lists the receipts for sequences 1..count that are
// present, ascending. Files numbered above count are ignored.
func (w Workspace) ReceiptsThrough(count int) ([]string, error) {
	paths, err := w.Receipts()
	if err != nil {
		return nil, err
	}
	var kept []string
	for _, p := range paths {
		if seq, _ := parseReceiptName(filepath.Base(p)); seq <= count {
			kept = append(kept, p)
		}
	}
	return kept, nil
}

// Receipts lists receipt files present in the directory, ascending by
// sequence number. Files not following the naming scheme are ignored.
func (w Workspace) Receipts() ([]string, error) {
	entries, err := os.ReadDir(w.Dir)
	if err != nil {
		return nil, fmt.Errorf("workspace: list %s: %w", w.Dir, err)
	}

	type numbered struct {
		seq  int
		path string
	}
	var found []numbered
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		seq, ok := parseReceiptName(e.Name())
		if !ok {
			continue
		}
		found = append(found, numbered{seq: seq, path: filepath.Join(w.Dir, e.Name())})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].seq < found[j].seq })

	paths := make([]string, len(found))
	for i, f := range found {
		paths[i] = f.path
	}
	return paths, nil
}

func parseReceiptName(name string) (int, bool) {
	if !strings.HasPrefix(name, receiptPrefix) || !strings.HasSuffix(name, receiptSuffix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, receiptPrefix), receiptSuffix))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
