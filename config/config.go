// Package config provides configuration management.
//
// Configuration is a JSON file layered over Default(). Values are handed to
// components explicitly; there is no package-level current configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/warp/receipt-engine/batch"
	"github.com/warp/receipt-engine/logging"
	"github.com/warp/receipt-engine/schedule"
	"github.com/warp/receipt-engine/validate"
)

// Config is the main application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Output   OutputConfig   `json:"output"`
	Schedule ScheduleConfig `json:"schedule"`
	Limits   LimitsConfig   `json:"limits"`
	Retry    RetryConfig    `json:"retry"`
	Merge    MergeConfig    `json:"merge"`
	Logging  logging.Config `json:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port           int      `json:"port"`
	ReadTimeout    Duration `json:"read_timeout"`
	WriteTimeout   Duration `json:"write_timeout"`
	AllowedOrigins []string `json:"allowed_origins"`
	// MaxUploadMB caps the multipart body accepted by the merge endpoint.
	MaxUploadMB int `json:"max_upload_mb"`
}

// OutputConfig says where receipt documents and the merged file go.
type OutputConfig struct {
	Dir        string `json:"dir"`
	MergedName string `json:"merged_name"`
}

// ScheduleConfig tunes the date allocator.
type ScheduleConfig struct {
	// MinSpacingDays applies when a request does not carry its own.
	MinSpacingDays  int `json:"min_spacing_days"`
	OpenHour        int `json:"open_hour"`
	CloseHour       int `json:"close_hour"`
	AttemptsPerSlot int `json:"attempts_per_slot"`
}

// LimitsConfig caps request sizes.
type LimitsConfig struct {
	MaxBills int `json:"max_bills"`
}

// RetryConfig bounds per-unit production attempts.
type RetryConfig struct {
	MaxAttempts int      `json:"max_attempts"`
	BaseDelay   Duration `json:"base_delay"`
	Strategy    string   `json:"strategy"`
}

type MergeConfig struct {
	AllowPartial bool `json:"allow_partial"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			ReadTimeout:    Duration(15 * time.Second),
			WriteTimeout:   Duration(60 * time.Second),
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
			MaxUploadMB:    32,
		},
		Output: OutputConfig{
			Dir:        "receipts",
			MergedName: "receipts.pdf",
		},
		Schedule: ScheduleConfig{
			MinSpacingDays:  3,
			OpenHour:        schedule.BusinessHours.OpenHour,
			CloseHour:       schedule.BusinessHours.CloseHour,
			AttemptsPerSlot: schedule.DefaultAttemptsPerSlot,
		},
		Limits: LimitsConfig{
			MaxBills: validate.DefaultMaxBills,
		},
		Retry: RetryConfig{
			MaxAttempts: batch.DefaultRetryPolicy.MaxAttempts,
			BaseDelay:   Duration(batch.DefaultRetryPolicy.BaseDelay),
			Strategy:    string(batch.DefaultRetryPolicy.Strategy),
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load reads path over the defaults. An empty path returns Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values no component can work with. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxUploadMB < 1 {
		errs = append(errs, fmt.Errorf("server.max_upload_mb must be at least 1"))
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		errs = append(errs, fmt.Errorf("output.dir is required"))
	}
	if strings.TrimSpace(c.Output.MergedName) == "" {
		errs = append(errs, fmt.Errorf("output.merged_name is required"))
	}
	if c.Schedule.MinSpacingDays < 0 {
		errs = append(errs, fmt.Errorf("schedule.min_spacing_days must not be negative"))
	}
	if err := c.Window().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("schedule: %w", err))
	}
	if c.Limits.MaxBills < 1 {
		errs = append(errs, fmt.Errorf("limits.max_bills must be at least 1"))
	}
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry.max_attempts must be at least 1"))
	}
	switch batch.Strategy(c.Retry.Strategy) {
	case batch.StrategyLinear, batch.StrategyExponential:
	default:
		errs = append(errs, fmt.Errorf("retry.strategy %q must be linear or exponential", c.Retry.Strategy))
	}
	return errors.Join(errs...)
}

// Window is the configured business-hours window.
func (c *Config) Window() schedule.Window {
	return schedule.Window{OpenHour: c.Schedule.OpenHour, CloseHour: c.Schedule.CloseHour}
}

// Validator builds the request validator from the schedule and limit settings.
func (c *Config) Validator() validate.Validator {
	return validate.Validator{DefaultSpacingDays: c.Schedule.MinSpacingDays, MaxBills: c.Limits.MaxBills}
}

// Allocator builds a date allocator from the schedule settings.
func (c *Config) Allocator() schedule.Allocator {
	return schedule.Allocator{Window: c.Window(), AttemptsPerSlot: c.Schedule.AttemptsPerSlot}
}

// RetryPolicy builds the per-unit retry policy.
func (c *Config) RetryPolicy() batch.RetryPolicy {
	return batch.RetryPolicy{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   time.Duration(c.Retry.BaseDelay),
		Strategy:    batch.Strategy(c.Retry.Strategy),
	}
}

// Workspace is the receipt output directory.
func (c *Config) Workspace() batch.Workspace {
	return batch.Workspace{Dir: c.Output.Dir}
}

// =============================================================================
// DURATION - time.Duration as a JSON string ("2s", "1m30s")
// =============================================================================

type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"2s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}
