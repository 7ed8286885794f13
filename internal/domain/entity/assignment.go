package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResourceAssignment links a user to a phase. At most one exists per (phase, user).
type ResourceAssignment struct {
	ID                  int64           `json:"id"`
	PhaseID             int64           `json:"phase_id"`
	UserID              int64           `json:"user_id"`
	RoleOnPhase         string          `json:"role_on_phase"`
	BillingRate         decimal.Decimal `json:"billing_rate"`
	CostRate            decimal.Decimal `json:"cost_rate"`
	PlannedHours        decimal.Decimal `json:"planned_hours"`
	AllocatedPercentage decimal.Decimal `json:"allocated_percentage"`
	StartDate           *time.Time      `json:"start_date,omitempty"`
	EndDate             *time.Time      `json:"end_date,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// Burn is the budget consumed by the assignment: billing rate × planned hours.
func (a *ResourceAssignment) Burn() decimal.Decimal {
	return a.BillingRate.Mul(a.PlannedHours)
}

// Availability is the advisory budget picture for placing a user on a phase.
type Availability struct {
	PhaseID          int64           `json:"phase_id"`
	UserID           int64           `json:"user_id"`
	TotalBudget      decimal.Decimal `json:"total_budget"`
	CurrentBurn      decimal.Decimal `json:"current_burn"`
	RemainingBudget  decimal.Decimal `json:"remaining_budget"`
	HourlyCost       decimal.Decimal `json:"hourly_cost"`
	BurnRate         decimal.Decimal `json:"burn_rate"`
	MaxHoursByBudget decimal.Decimal `json:"max_hours_by_budget"`
	CurrentLoadHours decimal.Decimal `json:"current_load_hours"`
	OverAllocated    bool            `json:"over_allocated"`
}
