package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/receipt-engine/batch"
	"github.com/warp/receipt-engine/config"
	"github.com/warp/receipt-engine/validate"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := config.Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Schedule.MinSpacingDays)
	assert.Equal(t, batch.DefaultRetryPolicy, cfg.RetryPolicy())
	assert.Equal(t, 6, cfg.Window().OpenHour)
	assert.Equal(t, 22, cfg.Window().CloseHour)
	assert.Equal(t, 500, cfg.Validator().MaxBills)
}

func TestLoad_MaxBills(t *testing.T) {
	path := writeConfig(t, `{"limits": {"max_bills": 20}, "schedule": {"min_spacing_days": 5}}`)

	cfg, err := config.Load(path)

	require.NoError(t, err)
	assert.Equal(t, validate.Validator{DefaultSpacingDays: 5, MaxBills: 20}, cfg.Validator())
}

func TestLoad_ZeroMaxBills_Invalid(t *testing.T) {
	_, err := config.Load(writeConfig(t, `{"limits": {"max_bills": 0}}`))

	assert.ErrorContains(t, err, "limits.max_bills")
}

func TestLoad_EmptyPath_ReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")

	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_OverlaysFileOnDefaults(t *testing.T) {
	path := writeConfig(t, `{
		"server": {"port": 9090},
		"output": {"dir": "/tmp/batches"},
		"retry": {"max_attempts": 5, "base_delay": "500ms", "strategy": "exponential"},
		"merge": {"allow_partial": true}
	}`)

	cfg, err := config.Load(path)

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/batches", cfg.Workspace().Dir)
	assert.Equal(t, "receipts.pdf", cfg.Output.MergedName, "unset fields keep defaults")
	assert.Equal(t, batch.RetryPolicy{MaxAttempts: 5, BaseDelay: 500 * time.Millisecond, Strategy: batch.StrategyExponential}, cfg.RetryPolicy())
	assert.True(t, cfg.Merge.AllowPartial)
}

func TestLoad_InvalidValues_ReportedTogether(t *testing.T) {
	path := writeConfig(t, `{
		"schedule": {"open_hour": 22, "close_hour": 6},
		"retry": {"max_attempts": 0, "strategy": "random"}
	}`)

	_, err := config.Load(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "schedule")
	assert.Contains(t, err.Error(), "retry.max_attempts")
	assert.Contains(t, err.Error(), "retry.strategy")
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, `{"retry": {"base_delay": 5}}`)

	_, err := config.Load(path)

	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.json"))

	assert.Error(t, err)
}
