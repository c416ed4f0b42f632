/*
Package pdfmerge concatenates PDF documents into one, preserving page order.

PURPOSE:
  The merge step of a batch. Inputs are complete PDF documents produced
  elsewhere; the output contains every page of input 0, then every page of
  input 1, and so on. Inputs are never modified.

OPERATIONS:
  Merge(docs)                ordered byte buffers -> one byte buffer
  MergeFiles(paths, out)     ordered files -> one output file
  MergeDir(dir, pattern, out) files matching pattern, in name order

ERRORS:
  generic.ErrMergeEmptyInput     nothing to merge
  *generic.MergeSourceError      input N could not be read or parsed

  A failed merge leaves the inputs untouched; retrying with the offending
  input excluded merges the rest normally.

LIBRARY:
  pdfcpu reads, validates and writes the documents. Its user config
  directory is disabled so merging never touches the home directory.
*/
package pdfmerge

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/warp/receipt-engine/generic"
)

func init() {
	api.DisableConfigDir()
}

// Merger merges documents with a pdfcpu configuration. The zero value uses
// relaxed validation.
type Merger struct {
	Conf *model.Configuration
}

// Merge combines docs with the default Merger.
func Merge(docs [][]byte) ([]byte, error) {
	return Merger{}.Merge(docs)
}

func (m Merger) conf() *model.Configuration {
	if m.Conf != nil {
		return m.Conf
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Merge returns a single document holding every page of docs, in order.
func (m Merger) Merge(docs [][]byte) ([]byte, error) {
	if len(docs) == 0 {
		return nil, generic.ErrMergeEmptyInput
	}

	conf := m.conf()
	readers := make([]io.ReadSeeker, len(docs))
	for i, doc := range docs {
		if err := check(doc, conf); err != nil {
			return nil, &generic.MergeSourceError{Index: i, Err: err}
		}
		readers[i] = bytes.NewReader(doc)
	}

	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, conf); err != nil {
		return nil, fmt.Errorf("merge %d documents: %w", len(docs), err)
	}
	return out.Bytes(), nil
}

// check parses and validates one input so failures can be pinned to an index.
func check(doc []byte, conf *model.Configuration) error {
	if len(doc) == 0 {
		return fmt.Errorf("empty document")
	}
	ctx, err := api.ReadContext(bytes.NewReader(doc), conf)
	if err != nil {
		return err
	}
	return api.ValidateContext(ctx)
}

// PageCount returns the number of pages in doc.
func (m Merger) PageCount(doc []byte) (int, error) {
	return api.PageCount(bytes.NewReader(doc), m.conf())
}

// MergeFiles merges the files at paths, in the given order, into out.
func (m Merger) MergeFiles(paths []string, out string) error {
	if len(paths) == 0 {
		return generic.ErrMergeEmptyInput
	}

	docs := make([][]byte, len(paths))
	for i, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			return &generic.MergeSourceError{Index: i, Err: err}
		}
		docs[i] = b
	}

	merged, err := m.Merge(docs)
	if err != nil {
		return err
	}
	return writeFileAtomic(out, merged)
}

// MergeDir merges every file in dir matching pattern, in lexical name
// order, into out. out itself is skipped if it matches.
func (m Merger) MergeDir(dir, pattern, out string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	outAbs, _ := filepath.Abs(out)

	paths := matches[:0]
	for _, p := range matches {
		if abs, _ := filepath.Abs(p); abs == outAbs {
			continue
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)

	if err := m.MergeFiles(paths, out); err != nil {
		return nil, err
	}
	return paths, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".merge-*.pdf")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
