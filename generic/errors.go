/*
errors.go - Centralized error types for the receipt engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Component packages return these (or wrap them) so callers can branch
  with errors.Is / errors.As without string matching.

ERROR CATEGORIES:
  1. Feasibility errors - Preconditions of an algorithm do not hold
  2. Search errors - Random search gave up (retryable)
  3. Invariant errors - Post-condition failed (internal defect)
  4. Merge errors - Input documents missing or unreadable
  5. Batch errors - Orchestration exhausted retries for some unit

USAGE:
  amounts, err := distribute.Distribute(total, count, max)
  var infeasible *generic.InfeasibleDistributionError
  if errors.As(err, &infeasible) {
      fmt.Println(infeasible.Inequality)
  }

SEE ALSO:
  - distribute/, schedule/, pdfmerge/, batch/: producers of these errors
  - api/handlers.go: maps them to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInfeasibleDistribution is returned when total, count and maxPerUnit
	// cannot produce a valid split.
	ErrInfeasibleDistribution = errors.New("infeasible distribution")

	// ErrDistributionInvariant is returned when a generated split violates
	// its bounds. It indicates a defect, not bad input.
	ErrDistributionInvariant = errors.New("distribution invariant violated")

	// ErrInfeasibleSchedule is returned when the date range is too short for
	// the requested count and spacing.
	ErrInfeasibleSchedule = errors.New("infeasible schedule")

	// ErrScheduleExhausted is returned when random search for dates hit its
	// attempt bound. The caller may retry or widen the range.
	ErrScheduleExhausted = errors.New("schedule generation exhausted")

	// ErrMergeEmptyInput is returned when merge is asked to combine nothing.
	ErrMergeEmptyInput = errors.New("merge: no input documents")

	// ErrMergeSourceUnreadable is returned when an input document cannot be parsed.
	ErrMergeSourceUnreadable = errors.New("merge: source document unreadable")

	// ErrUnitExhausted is returned when a unit failed on every retry attempt.
	ErrUnitExhausted = errors.New("unit exhausted retries")

	// ErrPartialBatch is returned when some units failed and the caller did
	// not opt in to merging a partial set.
	ErrPartialBatch = errors.New("batch incomplete: partial merge not allowed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InfeasibleDistributionError names the inequality that failed.
type InfeasibleDistributionError struct {
	Inequality string // e.g. "maxPerUnit × count ≥ total (10.00 × 3 = 30.00 < 100.00)"
}

func (e *InfeasibleDistributionError) Error() string {
	return fmt.Sprintf("infeasible distribution: %s", e.Inequality)
}

func (e *InfeasibleDistributionError) Unwrap() error { return ErrInfeasibleDistribution }

// DistributionInvariantError reports the first out-of-bounds unit, or a
// sum mismatch when Index is -1.
type DistributionInvariantError struct {
	Index int
	Value Money // the unit, or the computed sum when Index is -1
	Max   Money
	Total Money
}

func (e *DistributionInvariantError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("distribution invariant violated: units sum to %s, want %s", e.Value, e.Total)
	}
	return fmt.Sprintf("distribution invariant violated: unit %d = %s not in (0, %s]",
		e.Index, e.Value, e.Max)
}

func (e *DistributionInvariantError) Unwrap() error { return ErrDistributionInvariant }

// InfeasibleScheduleError reports the minimum range the request needs.
type InfeasibleScheduleError struct {
	Count         int
	SpacingDays   int
	RequiredDays  int // minimum span End - Start in days
	AvailableDays int
	Reason        string
}

func (e *InfeasibleScheduleError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("infeasible schedule: %s", e.Reason)
	}
	return fmt.Sprintf("infeasible schedule: %d dates spaced %d days apart need a range spanning at least %d days, got %d",
		e.Count, e.SpacingDays, e.RequiredDays, e.AvailableDays)
}

func (e *InfeasibleScheduleError) Unwrap() error { return ErrInfeasibleSchedule }

// ScheduleExhaustedError reports how far the search got.
type ScheduleExhaustedError struct {
	Attempts int
	Accepted int
	Wanted   int
}

func (e *ScheduleExhaustedError) Error() string {
	return fmt.Sprintf("schedule generation exhausted after %d attempts: placed %d of %d dates",
		e.Attempts, e.Accepted, e.Wanted)
}

func (e *ScheduleExhaustedError) Unwrap() error { return ErrScheduleExhausted }

// MergeSourceError names the input document that could not be read.
type MergeSourceError struct {
	Index int
	Err   error
}

func (e *MergeSourceError) Error() string {
	return fmt.Sprintf("merge: source document %d unreadable: %v", e.Index, e.Err)
}

// Unwrap exposes both the sentinel and the parser error.
func (e *MergeSourceError) Unwrap() []error { return []error{ErrMergeSourceUnreadable, e.Err} }

// UnitExhaustedError records a unit that failed on every attempt.
type UnitExhaustedError struct {
	Sequence int
	Attempts int
	Err      error
}

func (e *UnitExhaustedError) Error() string {
	return fmt.Sprintf("unit %d failed after %d attempts: %v", e.Sequence, e.Attempts, e.Err)
}

func (e *UnitExhaustedError) Unwrap() []error { return []error{ErrUnitExhausted, e.Err} }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrScheduleExhausted)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInfeasibleDistribution) ||
		errors.Is(err, ErrInfeasibleSchedule) ||
		errors.Is(err, ErrMergeEmptyInput) ||
		errors.Is(err, ErrMergeSourceUnreadable)
}

// IsInternal returns true for post-condition failures that indicate a defect.
func IsInternal(err error) bool {
	return errors.Is(err, ErrDistributionInvariant)
}
