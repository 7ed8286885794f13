package budget

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/projectledger/finance-engine/internal/domain/entity"
	"github.com/projectledger/finance-engine/internal/domain/money"
)

func d(s string) decimal.Decimal {
	return money.MustParse(s)
}

func TestHourlyCostAndBurnRate(t *testing.T) {
	tests := []struct {
		name     string
		user     *entity.User
		wantCost string
		wantBurn string
	}{
		{
			name: "salary, hours and overhead",
			user: &entity.User{
				MonthlySalary:        money.Null(d("100000")),
				TypicalHoursPerMonth: money.Null(d("160")),
				OverheadMultiplier:   money.Null(d("1.5")),
			},
			wantCost: "625",
			wantBurn: "937.5",
		},
		{
			name: "no multiplier passes cost through",
			user: &entity.User{
				MonthlySalary:        money.Null(d("50000")),
				TypicalHoursPerMonth: money.Null(d("150")),
			},
			wantCost: "333.33",
			wantBurn: "333.33",
		},
		{
			name: "zero hours",
			user: &entity.User{
				MonthlySalary:        money.Null(d("50000")),
				TypicalHoursPerMonth: money.Null(d("0")),
				OverheadMultiplier:   money.Null(d("2")),
			},
			wantCost: "0",
			wantBurn: "0",
		},
		{
			name:     "missing salary",
			user:     &entity.User{TypicalHoursPerMonth: money.Null(d("160"))},
			wantCost: "0",
			wantBurn: "0",
		},
		{
			name:     "nil user",
			wantCost: "0",
			wantBurn: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, HourlyCost(tt.user).Equal(d(tt.wantCost)), "cost = %s", HourlyCost(tt.user))
			assert.True(t, BurnRate(tt.user).Equal(d(tt.wantBurn)), "burn = %s", BurnRate(tt.user))
		})
	}
}

func TestAvailability_RemainingHeadroom(t *testing.T) {
	in := Input{
		PhaseID:        3,
		UserID:         9,
		ContractAmount: money.Null(d("100000")),
		Assignments: []entity.ResourceAssignment{
			{BillingRate: d("500"), PlannedHours: d("100")},
		},
		ProjectHours: []decimal.Decimal{d("40"), d("12.5")},
		BurnRate:     d("250"),
	}

	got := Availability(in)

	assert.True(t, got.TotalBudget.Equal(d("100000")))
	assert.True(t, got.CurrentBurn.Equal(d("50000")))
	assert.True(t, got.RemainingBudget.Equal(d("50000")))
	assert.True(t, got.MaxHoursByBudget.Equal(d("200")))
	assert.True(t, got.CurrentLoadHours.Equal(d("52.5")))
	assert.False(t, got.OverAllocated)
}

func TestAvailability_FloorNeverExceedsRemaining(t *testing.T) {
	rates := []string{"333.33", "7", "0.01", "999999"}
	remaining := []string{"1000", "0.5", "12345.67"}

	for _, r := range rates {
		for _, budget := range remaining {
			got := Availability(Input{ContractAmount: money.Null(d(budget)), BurnRate: d(r)})
			used := got.MaxHoursByBudget.Mul(got.BurnRate)
			assert.True(t, used.LessThanOrEqual(got.RemainingBudget), "rate %s budget %s: %s > %s", r, budget, used, got.RemainingBudget)
		}
	}
}

func TestAvailability_FloorHoldsWhenQuotientRoundsUp(t *testing.T) {
	rate := d("300000000000000.01")
	// 200 × rate − 0.01: the true quotient is just below 200
	budget := rate.Mul(decimal.NewFromInt(200)).Sub(d("0.01"))

	got := Availability(Input{ContractAmount: money.Null(budget), BurnRate: rate})

	assert.True(t, got.MaxHoursByBudget.Equal(decimal.NewFromInt(199)), "max hours %s", got.MaxHoursByBudget)
	assert.True(t, got.MaxHoursByBudget.Mul(rate).LessThanOrEqual(got.RemainingBudget))
}

func TestAvailability_FloorHoldsForNegativeRemaining(t *testing.T) {
	rate := d("300000000000000.01")
	budget := rate.Mul(decimal.NewFromInt(-200)).Sub(d("0.01"))

	got := Availability(Input{ContractAmount: money.Null(budget), BurnRate: rate})

	assert.True(t, got.MaxHoursByBudget.Equal(decimal.NewFromInt(-201)), "max hours %s", got.MaxHoursByBudget)
}

func TestAvailability_NoBudgetOrRate(t *testing.T) {
	got := Availability(Input{
		Assignments: []entity.ResourceAssignment{{BillingRate: d("100"), PlannedHours: d("10")}},
	})

	assert.True(t, got.TotalBudget.IsZero())
	assert.True(t, got.RemainingBudget.Equal(d("-1000")))
	assert.True(t, got.MaxHoursByBudget.IsZero())
	assert.True(t, got.OverAllocated)
}

func TestAvailability_OverspentPhaseGoesNegative(t *testing.T) {
	got := Availability(Input{
		ContractAmount: money.Null(d("1000")),
		Assignments:    []entity.ResourceAssignment{{BillingRate: d("100"), PlannedHours: d("15")}},
		BurnRate:       d("100"),
	})

	assert.True(t, got.MaxHoursByBudget.Equal(d("-5")))
	assert.True(t, got.OverAllocated)
}
