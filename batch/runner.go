package batch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/warp/receipt-engine/generic"
)

// =============================================================================
// PRODUCER - External receipt source
// =============================================================================

// Producer builds the document for one unit and writes it to dest.
// Implementations live outside this module; Runner calls them strictly one
// at a time, in sequence order.
type Producer interface {
	Produce(ctx context.Context, unit Unit, dest string) error
}

// ProducerFunc adapts a function to Producer.
type ProducerFunc func(ctx context.Context, unit Unit, dest string) error

func (f ProducerFunc) Produce(ctx context.Context, unit Unit, dest string) error {
	return f(ctx, unit, dest)
}

// =============================================================================
// RETRY POLICY
// =============================================================================

type Strategy string

const (
	StrategyLinear      Strategy = "linear"      // base × attempt
	StrategyExponential Strategy = "exponential" // base × 2^(attempt-1)
)

// RetryPolicy bounds attempts per unit and spaces them out.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Strategy    Strategy
}

// DefaultRetryPolicy is 3 attempts with linear backoff from 2s.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: 2 * time.Second, Strategy: StrategyLinear}

// Delay returns how long to wait after the given failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 || p.BaseDelay <= 0 {
		return 0
	}
	if p.Strategy == StrategyExponential {
		shift := min(attempt-1, 30)
		return p.BaseDelay * time.Duration(1<<shift)
	}
	return p.BaseDelay * time.Duration(attempt)
}

// =============================================================================
// UNIT STATE MACHINE
// =============================================================================

type State string

const (
	StatePending    State = "pending"
	StateAttempting State = "attempting"
	StateSucceeded  State = "succeeded"
	StateExhausted  State = "exhausted"
)

// Outcome is the terminal record of one unit.
type Outcome struct {
	Sequence int    `json:"sequence"`
	State    State  `json:"state"`
	Attempts int    `json:"attempts"`
	Path     string `json:"path,omitempty"`
	Error    string `json:"error,omitempty"`
}

// unitRun is the explicit per-unit state: where it is, how many attempts
// it has used and how long to wait before the next one.
type unitRun struct {
	unit        Unit
	state       State
	attempts    int
	nextBackoff time.Duration
	lastErr     error
}

// fail records a failed attempt and moves to Exhausted or schedules a retry.
func (r *unitRun) fail(err error, policy RetryPolicy) {
	r.lastErr = err
	if r.attempts >= policy.MaxAttempts {
		r.state = StateExhausted
		r.nextBackoff = 0
		return
	}
	r.state = StatePending
	r.nextBackoff = policy.Delay(r.attempts)
}

// =============================================================================
// RUNNER
// =============================================================================

// Receipt is a successfully produced unit document.
type Receipt struct {
	Unit Unit   `json:"unit"`
	Path string `json:"path"`
}

// Report is the result of running a batch.
type Report struct {
	Receipts []Receipt                     `json:"receipts"` // ascending by sequence
	Failures []*generic.UnitExhaustedError `json:"-"`
	Outcomes []Outcome                     `json:"outcomes"`
}

// Complete reports whether every unit succeeded.
func (r *Report) Complete() bool { return len(r.Failures) == 0 }

// Runner drives a Producer over a plan.
type Runner struct {
	Producer  Producer
	Workspace Workspace
	Policy    RetryPolicy
	Logger    *zap.Logger

	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Run produces every unit in order. Receipt files already in the
// workspace are removed first, and each attempt starts with no document
// at its destination. Unit i finishes (success or exhaustion) before
// unit i+1 starts. A cancelled context stops the batch
// and returns the report so far together with the context error.
func (r *Runner) Run(ctx context.Context, units []Unit) (*Report, error) {
	if r.Producer == nil {
		return nil, fmt.Errorf("batch runner: producer is required")
	}
	if err := r.Workspace.Ensure(); err != nil {
		return nil, err
	}
	policy := r.Policy
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepWithContext
	}

	// Receipts from an earlier batch must not be merged into this one.
	removed, err := r.Workspace.Reset()
	if err != nil {
		return nil, err
	}
	if removed > 0 {
		logger.Info("removed receipts from earlier batch", zap.String("dir", r.Workspace.Dir), zap.Int("files", removed))
	}

	report := &Report{}
	for _, unit := range units {
		run := &unitRun{unit: unit, state: StatePending}
		dest := r.Workspace.PathFor(unit.Sequence)
		log := logger.With(zap.Int("sequence", unit.Sequence))

		for run.state == StatePending {
			if run.nextBackoff > 0 {
				log.Info("retrying unit", zap.Duration("backoff", run.nextBackoff), zap.Int("attempt", run.attempts+1))
				if err := sleep(ctx, run.nextBackoff); err != nil {
					return report, err
				}
			}
			if err := ctx.Err(); err != nil {
				return report, err
			}

			// A failed attempt may leave a partial document behind.
			if err := r.Workspace.Discard(unit.Sequence); err != nil {
				return report, err
			}
			run.state = StateAttempting
			run.attempts++
			err := r.Producer.Produce(ctx, unit, dest)
			if err == nil {
				run.state = StateSucceeded
				break
			}
			log.Warn("unit attempt failed", zap.Int("attempt", run.attempts), zap.Error(err))
			run.fail(err, policy)
		}

		outcome := Outcome{Sequence: unit.Sequence, State: run.state, Attempts: run.attempts}
		switch run.state {
		case StateSucceeded:
			outcome.Path = dest
			report.Receipts = append(report.Receipts, Receipt{Unit: unit, Path: dest})
			log.Info("unit produced", zap.String("path", dest), zap.Int("attempts", run.attempts))
		case StateExhausted:
			if err := r.Workspace.Discard(unit.Sequence); err != nil {
				log.Warn("could not remove partial document", zap.Error(err))
			}
			failure := &generic.UnitExhaustedError{Sequence: unit.Sequence, Attempts: run.attempts, Err: run.lastErr}
			outcome.Error = failure.Error()
			report.Failures = append(report.Failures, failure)
			log.Error("unit exhausted", zap.Int("attempts", run.attempts), zap.Error(run.lastErr))
		}
		report.Outcomes = append(report.Outcomes, outcome)
	}
	return report, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context done: %w", ctx.Err())
	}
}
