/*
Package batch turns a validated request into receipt units and drives their production.

PURPOSE:
  Plan:     split the total (distribute) and pick dates (schedule), then zip
            both into one Unit per receipt.
  Runner:   hand each unit to an external Producer, one at a time, with a
            bounded retry loop per unit.
  Finalize: merge the produced documents in sequence order, refusing a
            partial set unless the caller explicitly allows it.

  Producing a receipt document is the job of a Producer implementation
  outside this module; batch only fixes the contract and ordering.

UNIT LIFECYCLE:
  Pending -> Attempting -> Succeeded
                        -> Attempting (after backoff) ...
                        -> Exhausted  (after MaxAttempts)

SEE ALSO:
  - distribute/, schedule/: the pure algorithms
  - pdfmerge/: the merge step
*/
package batch

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/receipt-engine/distribute"
	"github.com/warp/receipt-engine/generic"
	"github.com/warp/receipt-engine/schedule"
	"github.com/warp/receipt-engine/validate"
)

// =============================================================================
// UNIT - One receipt's parameter vector
// =============================================================================

// Unit is everything a Producer needs to build one receipt.
type Unit struct {
	Sequence    int               `json:"sequence"` // 1-based
	Amount      generic.Money     `json:"amount"`
	Date        generic.Date      `json:"date"`
	Time        generic.TimeOfDay `json:"time"`
	StationName string            `json:"station_name"`
	FuelRate    generic.Money     `json:"fuel_rate"`
	Template    int               `json:"template"`
	Volume      decimal.Decimal   `json:"volume"` // Amount / FuelRate, 2 decimals
}

// Plan is the full set of units for one request.
type Plan struct {
	ID      string           `json:"id"`
	Request validate.Request `json:"request"`
	Units   []Unit           `json:"units"`
}

// Total sums the unit amounts.
func (p *Plan) Total() generic.Money {
	amounts := make([]generic.Money, len(p.Units))
	for i, u := range p.Units {
		amounts[i] = u.Amount
	}
	return generic.SumMoney(amounts)
}

// =============================================================================
// PLANNER
// =============================================================================

// Planner combines the distributor and allocator. Zero value is usable.
type Planner struct {
	Distributor distribute.Distributor
	Allocator   schedule.Allocator
}

// Plan builds the units for req. Errors from the algorithms are returned
// unchanged so callers can classify them with errors.Is.
func (p Planner) Plan(req validate.Request) (*Plan, error) {
	amounts, err := p.Distributor.Distribute(req.TotalAmount, req.NumberOfBills, req.MaxAmountPerBill)
	if err != nil {
		return nil, fmt.Errorf("distribute amounts: %w", err)
	}

	slots, err := p.Allocator.Allocate(req.NumberOfBills, req.Range.Start, req.Range.End, req.MinSpacingDays)
	if err != nil {
		return nil, fmt.Errorf("allocate dates: %w", err)
	}

	return &Plan{
		ID:      uuid.NewString(),
		Request: req,
		Units:   Zip(req, amounts, slots),
	}, nil
}

// Zip pairs amounts[i] with slots[i]. Both must have the same length.
func Zip(req validate.Request, amounts []generic.Money, slots []schedule.Slot) []Unit {
	units := make([]Unit, len(amounts))
	for i := range amounts {
		units[i] = Unit{
			Sequence:    i + 1,
			Amount:      amounts[i],
			Date:        slots[i].Date,
			Time:        slots[i].Time,
			StationName: req.StationName,
			FuelRate:    req.FuelRate,
			Template:    req.Template,
			Volume:      volume(amounts[i], req.FuelRate),
		}
	}
	return units
}

func volume(amount, rate generic.Money) decimal.Decimal {
	if !rate.IsPositive() {
		return decimal.Zero
	}
	return amount.Value.DivRound(rate.Value, generic.MoneyPlaces)
}
