/*
Package validate checks raw batch parameters and builds a typed Request.

PURPOSE:
  Validation never stops at the first problem. Every failed check adds
  one human-readable message naming the field and the constraint, so a
  caller can present all problems at once.

CHECKS:
  Independent:
    stationName     non-empty after trimming
    fuelRate        numeric, > 0
    template        one of 1, 2, 3
    totalAmount     numeric, > 0
    numberOfBills   positive integer literal ("3.0" is rejected)
    maxAmountPerBill numeric, > 0
    startDate/endDate present, YYYY-MM-DD, end ≥ start
    minSpacingDays  optional non-negative integer literal

  Dependent (only once their inputs passed):
    distribution feasibility  max × count ≥ total, total ≥ count × 0.01
    schedule feasibility      range spans ≥ (count-1) × spacing days

SEE ALSO:
  - distribute.CheckFeasible, schedule.CheckFeasible: the dependent checks
*/
package validate

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/warp/receipt-engine/distribute"
	"github.com/warp/receipt-engine/generic"
	"github.com/warp/receipt-engine/schedule"
)

// Templates lists the accepted receipt layout identifiers.
var Templates = []int{1, 2, 3}

// Params are the raw, untrusted request fields, kept as literal strings so
// that the original representation (e.g. "3.0") can be judged.
type Params struct {
	StationName      string
	FuelRate         string
	Template         string
	TotalAmount      string
	NumberOfBills    string
	MaxAmountPerBill string
	StartDate        string
	EndDate          string
	MinSpacingDays   string // optional
}

// Request is the typed form of Params after successful validation.
type Request struct {
	StationName      string            `json:"station_name"`
	FuelRate         generic.Money     `json:"fuel_rate"`
	Template         int               `json:"template"`
	TotalAmount      generic.Money     `json:"total_amount"`
	NumberOfBills    int               `json:"number_of_bills"`
	MaxAmountPerBill generic.Money     `json:"max_amount_per_bill"`
	Range            generic.DateRange `json:"range"`
	MinSpacingDays   int               `json:"min_spacing_days"`
}

// Result is the outcome of Validate. Request is set only when Valid.
type Result struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations"`
	Request    *Request `json:"-"`
}

// Err returns a *ViolationsError when the result is invalid, nil otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &ViolationsError{Violations: r.Violations}
}

// ErrInvalidInput is the sentinel behind every ViolationsError.
var ErrInvalidInput = errors.New("invalid input")

// ViolationsError carries the full violation list.
type ViolationsError struct {
	Violations []string
}

func (e *ViolationsError) Error() string {
	return "invalid input: " + strings.Join(e.Violations, "; ")
}

func (e *ViolationsError) Unwrap() error { return ErrInvalidInput }

// DefaultMaxBills caps numberOfBills when Validator.MaxBills is unset.
const DefaultMaxBills = 500

// Validator holds defaults applied to optional fields.
type Validator struct {
	// DefaultSpacingDays is used when Params.MinSpacingDays is empty.
	DefaultSpacingDays int
	// MaxBills is the largest accepted numberOfBills. Zero means DefaultMaxBills.
	MaxBills int
}

func (v Validator) maxBills() int {
	if v.MaxBills <= 0 {
		return DefaultMaxBills
	}
	return v.MaxBills
}

// Validate checks p with a zero default spacing.
func Validate(p Params) Result {
	return Validator{}.Validate(p)
}

// Validate runs every check and collects violations. It never fails.
func (v Validator) Validate(p Params) Result {
	var violations []string
	fail := func(format string, args ...any) {
		violations = append(violations, fmt.Sprintf(format, args...))
	}

	station := strings.TrimSpace(p.StationName)
	if station == "" {
		fail("stationName: must not be empty")
	}

	rate, rateOK := positiveMoney(p.FuelRate)
	if !rateOK {
		fail("fuelRate: must be a number greater than 0, got %q", p.FuelRate)
	}

	template, templateErr := parseTemplate(p.Template)
	if templateErr != nil {
		fail("template: %v", templateErr)
	}

	total, totalOK := positiveMoney(p.TotalAmount)
	switch {
	case !totalOK:
		fail("totalAmount: must be a number greater than 0, got %q", p.TotalAmount)
	case !total.InRange():
		fail("totalAmount: must not exceed %s, got %q", generic.MaxMoney, p.TotalAmount)
		totalOK = false
	}

	count, countOK := positiveInt(p.NumberOfBills)
	switch {
	case !countOK:
		fail("numberOfBills: must be a positive whole number, got %q", p.NumberOfBills)
	case count > v.maxBills():
		fail("numberOfBills: must not exceed %d, got %d", v.maxBills(), count)
		countOK = false
	}

	maxPer, maxOK := positiveMoney(p.MaxAmountPerBill)
	switch {
	case !maxOK:
		fail("maxAmountPerBill: must be a number greater than 0, got %q", p.MaxAmountPerBill)
	case !maxPer.InRange():
		fail("maxAmountPerBill: must not exceed %s, got %q", generic.MaxMoney, p.MaxAmountPerBill)
		maxOK = false
	}

	if totalOK && countOK && maxOK {
		floor := generic.MinorUnit.MulInt(count)
		var infeasible *generic.InfeasibleDistributionError
		switch {
		case total.LessThan(floor):
			fail("totalAmount: %s cannot give %d bills at least %s each (requires totalAmount ≥ numberOfBills × %s = %s)",
				total, count, generic.MinorUnit, generic.MinorUnit, floor)
		case errors.As(distribute.CheckFeasible(total, count, maxPer), &infeasible):
			fail("maxAmountPerBill: %d bills of at most %s cannot cover totalAmount %s (requires %s)",
				count, maxPer, total, infeasible.Inequality)
		}
	}

	start, startOK := parseDateField("startDate", p.StartDate, fail)
	end, endOK := parseDateField("endDate", p.EndDate, fail)
	datesOK := startOK && endOK
	if datesOK && end.Before(start) {
		fail("endDate: %s must not be before startDate %s", end, start)
		datesOK = false
	}

	spacing := v.DefaultSpacingDays
	spacingOK := true
	if strings.TrimSpace(p.MinSpacingDays) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(p.MinSpacingDays))
		if err != nil || n < 0 {
			fail("minSpacingDays: must be a non-negative whole number, got %q", p.MinSpacingDays)
			spacingOK = false
		} else {
			spacing = n
		}
	}

	if datesOK && countOK && spacingOK {
		var infeasible *generic.InfeasibleScheduleError
		if err := schedule.CheckFeasible(count, start, end, spacing); errors.As(err, &infeasible) {
			fail("dateRange: %d bills spaced %d days apart need a range of at least %d days, %s to %s spans %d",
				count, spacing, schedule.RequiredSpanDays(count, spacing), start, end, generic.DaysBetween(start, end))
		}
	}

	if len(violations) > 0 {
		return Result{Valid: false, Violations: violations}
	}
	return Result{
		Valid:      true,
		Violations: []string{},
		Request: &Request{
			StationName:      station,
			FuelRate:         rate,
			Template:         template,
			TotalAmount:      total,
			NumberOfBills:    count,
			MaxAmountPerBill: maxPer,
			Range:            generic.DateRange{Start: start, End: end},
			MinSpacingDays:   spacing,
		},
	}
}

// =============================================================================
// FIELD PARSERS
// =============================================================================

func positiveMoney(s string) (generic.Money, bool) {
	if strings.TrimSpace(s) == "" {
		return generic.Money{}, false
	}
	m, err := generic.ParseMoney(s)
	if err != nil || !m.IsPositive() {
		return generic.Money{}, false
	}
	return m, true
}

// positiveInt accepts only integral literals: "3" passes, "3.0" and "3e0" do not.
func positiveInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func parseTemplate(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err == nil {
		for _, t := range Templates {
			if n == t {
				return n, nil
			}
		}
	}
	return 0, fmt.Errorf("must be one of 1, 2, 3, got %q", s)
}

func parseDateField(field, s string, fail func(string, ...any)) (generic.Date, bool) {
	if strings.TrimSpace(s) == "" {
		fail("%s: is required", field)
		return generic.Date{}, false
	}
	d, err := generic.ParseDate(s)
	if err != nil {
		fail("%s: must be a valid date in YYYY-MM-DD format, got %q", field, s)
		return generic.Date{}, false
	}
	return d, true
}
