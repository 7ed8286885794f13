// Package billing computes progressive, stage-based cumulative fees.
package billing

import (
	"github.com/shopspring/decimal"

	"github.com/projectledger/finance-engine/internal/domain/entity"
	"github.com/projectledger/finance-engine/internal/domain/money"
)

// stagePercentages are cumulative: the share of the total fee billable once a
// project has reached the stage.
var stagePercentages = map[entity.ProjectStage]int64{
	entity.StageConcept:      10,
	entity.StagePrelim:       25,
	entity.StageStatutory:    35,
	entity.StageTender:       60,
	entity.StageContract:     65,
	entity.StageConstruction: 90,
	entity.StageCompletion:   100,
}

// Percentage returns the cumulative percentage for a stage.
func Percentage(stage entity.ProjectStage) (decimal.Decimal, bool) {
	pct, ok := stagePercentages[stage]
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(pct), true
}

// Result holds the cumulative fee fields for an invoice. Fields are invalid
// (unset) when they could not be computed.
type Result struct {
	Percentage       decimal.NullDecimal
	Amount           decimal.NullDecimal
	PreviouslyBilled decimal.NullDecimal
}

// RemainingBillable is the cumulative amount not yet invoiced. It is zero when
// the cumulative amount is unset.
func (r Result) RemainingBillable() decimal.Decimal {
	if !r.Amount.Valid {
		return decimal.Zero
	}
	return r.Amount.Decimal.Sub(money.OrZero(r.PreviouslyBilled))
}

// Calculate derives the cumulative fee for a project at the given stage.
// priorSubtotals are the subtotals of the project's earlier invoices, with
// cancelled invoices already excluded. Without a budget nothing is computed.
func Calculate(stage entity.ProjectStage, budget decimal.NullDecimal, priorSubtotals []decimal.Decimal) Result {
	var result Result
	if !budget.Valid {
		return result
	}

	result.PreviouslyBilled = money.Null(money.Round(money.Sum(priorSubtotals...)))

	pct, ok := Percentage(stage)
	if !ok {
		return result
	}

	result.Percentage = money.Null(pct)
	result.Amount = money.Null(money.Percent(budget.Decimal, pct))
	return result
}

// Apply copies the result onto the invoice.
func (r Result) Apply(inv *entity.Invoice) {
	inv.CumulativeFeePercentage = r.Percentage
	inv.CumulativeFeeAmount = r.Amount
	inv.PreviouslyBilledAmount = r.PreviouslyBilled
}
