package pdfmerge_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/receipt-engine/generic"
	"github.com/warp/receipt-engine/pdfmerge"
	"github.com/warp/receipt-engine/pdfmerge/pdftest"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// widths reads back page widths, which identify fixture pages.
func widths(t *testing.T, doc []byte) []float64 {
	t.Helper()
	dims, err := api.PageDims(bytes.NewReader(doc), nil)
	require.NoError(t, err)
	out := make([]float64, len(dims))
	for i, d := range dims {
		out[i] = d.Width
	}
	return out
}

func assertWidths(t *testing.T, want []float64, doc []byte) {
	t.Helper()
	got := widths(t, doc)
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 0.5, "page %d", i+1)
	}
}

// =============================================================================
// MERGE TESTS
// =============================================================================

func TestMerge_PreservesDocumentAndPageOrder(t *testing.T) {
	a := pdftest.MustDocument(200)
	b := pdftest.MustDocument(300, 310)
	c := pdftest.MustDocument(400)

	merged, err := pdfmerge.Merge([][]byte{a, b, c})

	require.NoError(t, err)
	assertWidths(t, []float64{200, 300, 310, 400}, merged)

	n, err := pdfmerge.Merger{}.PageCount(merged)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestMerge_SingleDocument(t *testing.T) {
	merged, err := pdfmerge.Merge([][]byte{pdftest.MustDocument(250, 260)})

	require.NoError(t, err)
	assertWidths(t, []float64{250, 260}, merged)
}

func TestMerge_AssociativeOverConcatenation(t *testing.T) {
	a := pdftest.MustDocument(200)
	b := pdftest.MustDocument(300)
	c := pdftest.MustDocument(400, 410)

	all, err := pdfmerge.Merge([][]byte{a, b, c})
	require.NoError(t, err)

	ab, err := pdfmerge.Merge([][]byte{a, b})
	require.NoError(t, err)
	abThenC, err := pdfmerge.Merge([][]byte{ab, c})
	require.NoError(t, err)

	assert.Equal(t, widths(t, all), widths(t, abThenC))
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	a := pdftest.MustDocument(200)
	b := pdftest.MustDocument(300)
	aCopy := append([]byte(nil), a...)
	bCopy := append([]byte(nil), b...)

	_, err := pdfmerge.Merge([][]byte{a, b})

	require.NoError(t, err)
	assert.Equal(t, aCopy, a)
	assert.Equal(t, bCopy, b)
}

func TestMerge_EmptyInput(t *testing.T) {
	_, err := pdfmerge.Merge(nil)

	assert.ErrorIs(t, err, generic.ErrMergeEmptyInput)
	assert.True(t, generic.IsClientError(err))
}

func TestMerge_UnreadableSource_NamesIndex_RetryWithoutIt(t *testing.T) {
	// GIVEN: the middle document of three is garbage
	a := pdftest.MustDocument(200)
	bad := []byte("this is not a pdf")
	c := pdftest.MustDocument(400)

	_, err := pdfmerge.Merge([][]byte{a, bad, c})

	var srcErr *generic.MergeSourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, 1, srcErr.Index)
	assert.ErrorIs(t, err, generic.ErrMergeSourceUnreadable)

	// WHEN: retried without it
	merged, err := pdfmerge.Merge([][]byte{a, c})

	// THEN: the other two merge normally
	require.NoError(t, err)
	assertWidths(t, []float64{200, 400}, merged)
}

func TestMerge_EmptyDocumentIsUnreadable(t *testing.T) {
	_, err := pdfmerge.Merge([][]byte{pdftest.MustDocument(200), {}})

	var srcErr *generic.MergeSourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, 1, srcErr.Index)
}

// =============================================================================
// FILE TESTS
// =============================================================================

func TestMergeDir_UsesNameOrder(t *testing.T) {
	dir := t.TempDir()
	// Written out of order on purpose.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "receipt_003.pdf"), pdftest.MustDocument(400), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "receipt_001.pdf"), pdftest.MustDocument(200), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "receipt_002.pdf"), pdftest.MustDocument(300), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	out := filepath.Join(dir, "merged.pdf")
	used, err := pdfmerge.Merger{}.MergeDir(dir, "receipt_*.pdf", out)

	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "receipt_001.pdf"),
		filepath.Join(dir, "receipt_002.pdf"),
		filepath.Join(dir, "receipt_003.pdf"),
	}, used)

	merged, err := os.ReadFile(out)
	require.NoError(t, err)
	assertWidths(t, []float64{200, 300, 400}, merged)
}

func TestMergeDir_NoMatches(t *testing.T) {
	dir := t.TempDir()

	_, err := pdfmerge.Merger{}.MergeDir(dir, "*.pdf", filepath.Join(dir, "out.pdf"))

	assert.ErrorIs(t, err, generic.ErrMergeEmptyInput)
}

func TestMergeFiles_MissingFile_NamesIndex(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.pdf")
	require.NoError(t, os.WriteFile(first, pdftest.MustDocument(200), 0o644))

	err := pdfmerge.Merger{}.MergeFiles([]string{first, filepath.Join(dir, "missing.pdf")}, filepath.Join(dir, "out.pdf"))

	var srcErr *generic.MergeSourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, 1, srcErr.Index)
	_, statErr := os.Stat(filepath.Join(dir, "out.pdf"))
	assert.True(t, os.IsNotExist(statErr), "no output on failure")
}
