/*
Package schedule allocates unique, spaced calendar dates with a time of day.

PURPOSE:
  Given (count, start, end, minSpacingDays), produce count slots whose
  dates are distinct, lie in [start, end], and are pairwise at least
  minSpacingDays apart. Each slot carries a time drawn from a
  business-hours window.

ALGORITHM:
  Rejection sampling. Draw a day offset uniformly from [0, end-start];
  accept it if no accepted date lies closer than the spacing. On
  acceptance draw an hour uniformly from the window and a minute from
  0-59. The loop is bounded to count × AttemptsPerSlot draws. Accepted
  slots are sorted by date before returning.

  Request volumes are single or double digit, so expected attempts stay
  low, and sampling avoids the edge bias of greedy packing.

DATE ARITHMETIC:
  Offsets are integer day counts on generic.Date. No local-time
  conversion happens anywhere, so the host zone cannot shift a date.

ERRORS:
  *generic.InfeasibleScheduleError  range too short for count × spacing
  *generic.ScheduleExhaustedError   attempt bound reached (retryable)
*/
package schedule

import (
	"fmt"
	"math"
	"sort"

	"github.com/warp/receipt-engine/generic"
)

// DefaultAttemptsPerSlot bounds the search to count × 100 draws.
const DefaultAttemptsPerSlot = 100

// Slot is one allocated date with its time of day.
type Slot struct {
	Date generic.Date      `json:"date"`
	Time generic.TimeOfDay `json:"time"`
}

// Window is the half-open clock range [OpenHour:00, CloseHour:00).
type Window struct {
	OpenHour  int
	CloseHour int
}

// BusinessHours is [06:00, 22:00).
var BusinessHours = Window{OpenHour: 6, CloseHour: 22}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t generic.TimeOfDay) bool {
	return t.Minute >= 0 && t.Minute < 60 &&
		t.Hour >= w.OpenHour && t.Hour < w.CloseHour
}

// Validate checks the window is a non-empty range within one day.
func (w Window) Validate() error {
	if w.OpenHour < 0 || w.CloseHour > 24 || w.OpenHour >= w.CloseHour {
		return fmt.Errorf("invalid business-hours window [%02d:00, %02d:00)", w.OpenHour, w.CloseHour)
	}
	return nil
}

func (w Window) String() string {
	return fmt.Sprintf("[%02d:00, %02d:00)", w.OpenHour, w.CloseHour)
}

// Allocator draws schedules. The zero value uses generic.DefaultRandom,
// BusinessHours and DefaultAttemptsPerSlot.
type Allocator struct {
	Rand            generic.Random
	Window          Window
	AttemptsPerSlot int
}

// Allocate draws a schedule with the default allocator.
func Allocate(count int, start, end generic.Date, minSpacingDays int) ([]Slot, error) {
	return Allocator{}.Allocate(count, start, end, minSpacingDays)
}

// Allocate returns count slots ascending by date.
func (a Allocator) Allocate(count int, start, end generic.Date, minSpacingDays int) ([]Slot, error) {
	if err := CheckFeasible(count, start, end, minSpacingDays); err != nil {
		return nil, err
	}

	window := a.Window
	if window == (Window{}) {
		window = BusinessHours
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}
	perSlot := a.AttemptsPerSlot
	if perSlot <= 0 {
		perSlot = DefaultAttemptsPerSlot
	}

	rng := generic.RandomOrDefault(a.Rand)
	span := int64(generic.DaysBetween(start, end)) + 1
	spacing := effectiveSpacing(minSpacingDays)
	maxAttempts := count * perSlot

	slots := make([]Slot, 0, count)
	attempts := 0
	for len(slots) < count {
		if attempts >= maxAttempts {
			return nil, &generic.ScheduleExhaustedError{
				Attempts: attempts,
				Accepted: len(slots),
				Wanted:   count,
			}
		}
		attempts++

		candidate := start.AddDays(int(rng.Int64N(span)))
		if !fits(candidate, slots, spacing) {
			continue
		}
		slots = append(slots, Slot{Date: candidate, Time: drawTime(rng, window)})
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Date.Before(slots[j].Date) })
	return slots, nil
}

// CheckFeasible reports whether count dates spaced minSpacingDays apart fit
// in [start, end].
func CheckFeasible(count int, start, end generic.Date, minSpacingDays int) error {
	switch {
	case count < 1:
		return &generic.InfeasibleScheduleError{Reason: fmt.Sprintf("count must be at least 1, got %d", count)}
	case minSpacingDays < 0:
		return &generic.InfeasibleScheduleError{Reason: fmt.Sprintf("spacing must not be negative, got %d", minSpacingDays)}
	case end.Before(start):
		return &generic.InfeasibleScheduleError{Reason: fmt.Sprintf("end date %s is before start date %s", end, start)}
	}

	available := generic.DaysBetween(start, end)
	// Compared by division so large spacings cannot overflow.
	if count > 1 && effectiveSpacing(minSpacingDays) > available/(count-1) {
		return &generic.InfeasibleScheduleError{
			Count:         count,
			SpacingDays:   minSpacingDays,
			RequiredDays:  RequiredSpanDays(count, minSpacingDays),
			AvailableDays: available,
		}
	}
	return nil
}

// RequiredSpanDays is the smallest end-start span in days that can hold
// count distinct dates spaced minSpacingDays apart. It saturates at
// math.MaxInt.
func RequiredSpanDays(count, minSpacingDays int) int {
	if count <= 1 {
		return 0
	}
	spacing := effectiveSpacing(minSpacingDays)
	if spacing > math.MaxInt/(count-1) {
		return math.MaxInt
	}
	return (count - 1) * spacing
}

// effectiveSpacing never drops below one day: dates must be distinct.
func effectiveSpacing(minSpacingDays int) int {
	return max(minSpacingDays, 1)
}

func fits(candidate generic.Date, accepted []Slot, spacing int) bool {
	for _, s := range accepted {
		if generic.AbsDaysBetween(candidate, s.Date) < spacing {
			return false
		}
	}
	return true
}

func drawTime(rng generic.Random, w Window) generic.TimeOfDay {
	hours := int64(w.CloseHour - w.OpenHour)
	return generic.TimeOfDay{
		Hour:   w.OpenHour + int(rng.Int64N(hours)),
		Minute: int(rng.Int64N(60)),
	}
}
