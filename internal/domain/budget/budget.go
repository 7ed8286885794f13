// Package budget derives resource cost rates and phase budget headroom.
package budget

import (
	"github.com/shopspring/decimal"

	"github.com/projectledger/finance-engine/internal/domain/entity"
	"github.com/projectledger/finance-engine/internal/domain/money"
)

// HourlyCost is monthly salary divided by typical monthly hours. It is zero
// when either input is missing or the hours are not positive.
func HourlyCost(user *entity.User) decimal.Decimal {
	if user == nil || !user.MonthlySalary.Valid || !user.TypicalHoursPerMonth.Valid {
		return decimal.Zero
	}
	hours := user.TypicalHoursPerMonth.Decimal
	if !hours.IsPositive() {
		return decimal.Zero
	}
	return user.MonthlySalary.Decimal.DivRound(hours, money.Scale)
}

// BurnRate is the hourly cost scaled by the overhead multiplier, or the hourly
// cost itself when no multiplier is set.
func BurnRate(user *entity.User) decimal.Decimal {
	cost := HourlyCost(user)
	if user == nil || !user.OverheadMultiplier.Valid {
		return cost
	}
	return money.Round(cost.Mul(user.OverheadMultiplier.Decimal))
}

// Input gathers what an availability check needs, already loaded by the caller.
type Input struct {
	PhaseID        int64
	UserID         int64
	ContractAmount decimal.NullDecimal
	Assignments    []entity.ResourceAssignment
	// ProjectHours are the user's planned hours on every phase of the project.
	ProjectHours []decimal.Decimal
	BurnRate     decimal.Decimal
	HourlyCost   decimal.Decimal
}

// Availability computes the advisory budget picture for placing a user on a
// phase. It never rejects; over-allocation is only flagged.
//
// MaxHoursByBudget is floor(remaining / burnRate), so MaxHoursByBudget ×
// BurnRate never exceeds the remaining budget.
func Availability(in Input) entity.Availability {
	total := money.OrZero(in.ContractAmount)

	burn := decimal.Zero
	for i := range in.Assignments {
		burn = burn.Add(in.Assignments[i].Burn())
	}
	burn = money.Round(burn)
	remaining := total.Sub(burn)

	maxHours := decimal.Zero
	if in.BurnRate.IsPositive() {
		maxHours = floorQuotient(remaining, in.BurnRate)
	}

	return entity.Availability{
		PhaseID:          in.PhaseID,
		UserID:           in.UserID,
		TotalBudget:      total,
		CurrentBurn:      burn,
		RemainingBudget:  remaining,
		HourlyCost:       in.HourlyCost,
		BurnRate:         in.BurnRate,
		MaxHoursByBudget: maxHours,
		CurrentLoadHours: money.Sum(in.ProjectHours...),
		OverAllocated:    remaining.IsNegative(),
	}
}

// floorQuotient divides with Div, whose quotient is rounded to
// decimal.DivisionPrecision digits and can land on the next whole number
// before Floor runs. The result is stepped down until it fits.
func floorQuotient(remaining, rate decimal.Decimal) decimal.Decimal {
	q := remaining.Div(rate).Floor()
	for q.Mul(rate).GreaterThan(remaining) {
		q = q.Sub(decimal.NewFromInt(1))
	}
	return q
}
