/*
Package distribute splits a total amount into a fixed number of positive parts.

PURPOSE:
  Given (total, count, maxPerUnit), produce count amounts that are each in
  (0, maxPerUnit] and sum exactly to total.

ALGORITHM:
  All arithmetic runs on integer minor units (cents). Units are drawn left
  to right except the last. For unit i, with `remaining` cents still to
  allocate and `after` = count - i - 1 units still to come:

    upper = min(maxPerUnit, remaining - after × minUnit)
    lower = max(minUnit,    remaining - after × maxPerUnit)

  A value is drawn uniformly from [lower, upper]. The last unit takes
  whatever remains. The bounds guarantee that what remains is always
  reachable by the units after it, so the last unit lands in range.

  The split is biased: early draws reserve room for later units, so the
  result is not uniform over all valid partitions. This is accepted.

ERRORS:
  *generic.InfeasibleDistributionError  preconditions do not hold
  *generic.DistributionInvariantError   post-condition check failed
                                        (a bound or the exact sum)

SEE ALSO:
  - generic/types.go: Money, Random
  - validate/: checks feasibility before this runs
*/
package distribute

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/receipt-engine/generic"
)

// Distributor draws splits using Rand. A zero Distributor uses
// generic.DefaultRandom and is safe for concurrent use.
type Distributor struct {
	Rand generic.Random
}

// Distribute splits total using the default random source.
func Distribute(total generic.Money, count int, maxPerUnit generic.Money) ([]generic.Money, error) {
	return Distributor{}.Distribute(total, count, maxPerUnit)
}

// Distribute returns count amounts in (0, maxPerUnit] summing to total.
func (d Distributor) Distribute(total generic.Money, count int, maxPerUnit generic.Money) ([]generic.Money, error) {
	if err := CheckFeasible(total, count, maxPerUnit); err != nil {
		return nil, err
	}

	rng := generic.RandomOrDefault(d.Rand)
	minUnit := generic.MinorUnit.Cents()
	maxCents := maxPerUnit.Cents()
	remaining := total.Cents()

	amounts := make([]generic.Money, count)
	for i := 0; i < count-1; i++ {
		after := int64(count - i - 1)
		upper := min(maxCents, remaining-after*minUnit)
		lower := minUnit
		// after × maxCents can exceed int64; it only matters below remaining.
		if maxCents <= remaining/after {
			lower = max(minUnit, remaining-after*maxCents)
		}

		drawn := lower
		if upper > lower {
			drawn += rng.Int64N(upper - lower + 1)
		}
		amounts[i] = generic.NewMoneyFromCents(drawn)
		remaining -= drawn
	}
	amounts[count-1] = generic.NewMoneyFromCents(remaining)

	correctResidual(amounts, total)

	if err := verify(amounts, total, maxPerUnit); err != nil {
		return nil, err
	}
	return amounts, nil
}

// CheckFeasible reports which precondition of Distribute fails, if any.
func CheckFeasible(total generic.Money, count int, maxPerUnit generic.Money) error {
	switch {
	case !total.IsPositive():
		return &generic.InfeasibleDistributionError{
			Inequality: fmt.Sprintf("total > 0 (got %s)", total),
		}
	case count < 1:
		return &generic.InfeasibleDistributionError{
			Inequality: fmt.Sprintf("count ≥ 1 (got %d)", count),
		}
	case !maxPerUnit.IsPositive():
		return &generic.InfeasibleDistributionError{
			Inequality: fmt.Sprintf("maxPerUnit > 0 (got %s)", maxPerUnit),
		}
	case !total.InRange():
		return &generic.InfeasibleDistributionError{
			Inequality: fmt.Sprintf("total ≤ %s (got %s)", generic.MaxMoney, total),
		}
	case !maxPerUnit.InRange():
		return &generic.InfeasibleDistributionError{
			Inequality: fmt.Sprintf("maxPerUnit ≤ %s (got %s)", generic.MaxMoney, maxPerUnit),
		}
	}

	capacity := maxPerUnit.MulInt(count)
	if capacity.LessThan(total) {
		return &generic.InfeasibleDistributionError{
			Inequality: fmt.Sprintf("maxPerUnit × count ≥ total (%s × %d = %s < %s)",
				maxPerUnit, count, capacity, total),
		}
	}

	// Every unit must be at least one minor unit.
	floor := generic.MinorUnit.MulInt(count)
	if total.LessThan(floor) {
		return &generic.InfeasibleDistributionError{
			Inequality: fmt.Sprintf("total ≥ count × %s (%s < %s)", generic.MinorUnit, total, floor),
		}
	}
	return nil
}

// correctResidual folds any difference between the computed sum and total
// into the last unit.
func correctResidual(amounts []generic.Money, total generic.Money) {
	residual := total.Cents() - generic.SumMoney(amounts).Cents()
	if residual == 0 {
		return
	}
	last := len(amounts) - 1
	amounts[last] = generic.NewMoneyFromCents(amounts[last].Cents() + residual)
}

// verify checks every bound and the exact sum. The sum is taken on the
// decimal values, independent of the minor-unit arithmetic above.
func verify(amounts []generic.Money, total, maxPerUnit generic.Money) error {
	sum := decimal.Zero
	for i, a := range amounts {
		if !a.IsPositive() || a.GreaterThan(maxPerUnit) {
			return &generic.DistributionInvariantError{Index: i, Value: a, Max: maxPerUnit}
		}
		sum = sum.Add(a.Value)
	}
	if !sum.Equal(total.Value) {
		return &generic.DistributionInvariantError{
			Index: -1,
			Value: generic.NewMoneyFromDecimal(sum),
			Max:   maxPerUnit,
			Total: total,
		}
	}
	return nil
}
