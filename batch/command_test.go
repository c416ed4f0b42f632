package batch_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/receipt-engine/batch"
	"github.com/warp/receipt-engine/generic"
	"github.com/warp/receipt-engine/pdfmerge/pdftest"
)

func requireShell(t *testing.T) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return sh
}

func TestCommandProducer_WritesDocumentFromEnv(t *testing.T) {
	sh := requireShell(t)
	fixture := filepath.Join(t.TempDir(), "fixture.pdf")
	require.NoError(t, os.WriteFile(fixture, pdftest.MustDocument(200), 0o644))
	dest := filepath.Join(t.TempDir(), batch.ReceiptFileName(3))

	p := batch.CommandProducer{
		Path: sh,
		Args: []string{"-c", `test "$RECEIPT_AMOUNT" = "250.00" && test "$RECEIPT_DATE" = "2025-03-10" && cp "$FIXTURE" "$RECEIPT_OUTPUT"`},
		Env:  []string{"FIXTURE=" + fixture},
	}
	unit := batch.Unit{
		Sequence: 3,
		Amount:   generic.MustParseMoney("250"),
		Date:     generic.MustParseDate("2025-03-10"),
	}

	err := p.Produce(context.Background(), unit, dest)

	require.NoError(t, err)
	assert.FileExists(t, dest)
}

func TestCommandProducer_FailureIncludesStderr(t *testing.T) {
	sh := requireShell(t)
	p := batch.CommandProducer{Path: sh, Args: []string{"-c", "echo captcha changed >&2; exit 3"}}

	err := p.Produce(context.Background(), batch.Unit{Sequence: 1}, filepath.Join(t.TempDir(), "x.pdf"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "captcha changed")
}

func TestCommandProducer_NoDocumentIsAFailure(t *testing.T) {
	sh := requireShell(t)
	p := batch.CommandProducer{Path: sh, Args: []string{"-c", "true"}}

	err := p.Produce(context.Background(), batch.Unit{Sequence: 1}, filepath.Join(t.TempDir(), "x.pdf"))

	assert.ErrorContains(t, err, "produced no document")
}

func TestUnitEnv(t *testing.T) {
	unit := batch.Unit{
		Sequence:    7,
		Amount:      generic.MustParseMoney("488.20"),
		Date:        generic.MustParseDate("2025-05-02"),
		Time:        generic.TimeOfDay{Hour: 21, Minute: 5},
		StationName: "HP Sector 18",
		Template:    2,
	}

	env := batch.UnitEnv(unit, "/tmp/receipt_007.pdf")

	assert.Contains(t, env, "RECEIPT_SEQUENCE=7")
	assert.Contains(t, env, "RECEIPT_AMOUNT=488.20")
	assert.Contains(t, env, "RECEIPT_TIME=21:05")
	assert.Contains(t, env, "RECEIPT_STATION=HP Sector 18")
	assert.Contains(t, env, "RECEIPT_OUTPUT=/tmp/receipt_007.pdf")
}
