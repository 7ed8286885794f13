package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectledger/finance-engine/internal/domain/entity"
	"github.com/projectledger/finance-engine/internal/domain/money"
)

func TestCalculate_ConstructionStage(t *testing.T) {
	budget := money.Null(money.MustParse("1000000"))

	result := Calculate(entity.StageConstruction, budget, nil)

	require.True(t, result.Percentage.Valid)
	require.True(t, result.Amount.Valid)
	assert.True(t, result.Percentage.Decimal.Equal(decimal.NewFromInt(90)))
	assert.True(t, result.Amount.Decimal.Equal(money.MustParse("900000")))
	assert.True(t, result.PreviouslyBilled.Decimal.IsZero())
}

func TestCalculate_PreviouslyBilled(t *testing.T) {
	budget := money.Null(money.MustParse("500000"))
	prior := []decimal.Decimal{money.MustParse("50000"), money.MustParse("75000.50")}

	result := Calculate(entity.StageTender, budget, prior)

	assert.True(t, result.PreviouslyBilled.Decimal.Equal(money.MustParse("125000.50")))
	assert.True(t, result.Amount.Decimal.Equal(money.MustParse("300000")))
	assert.True(t, result.RemainingBillable().Equal(money.MustParse("174999.50")))
}

func TestCalculate_NoBudgetLeavesFieldsUnset(t *testing.T) {
	result := Calculate(entity.StageConcept, decimal.NullDecimal{}, []decimal.Decimal{money.MustParse("10")})

	assert.False(t, result.Percentage.Valid)
	assert.False(t, result.Amount.Valid)
	assert.False(t, result.PreviouslyBilled.Valid)
	assert.True(t, result.RemainingBillable().IsZero())
}

func TestCalculate_UnknownStage(t *testing.T) {
	result := Calculate(entity.ProjectStage("FEASIBILITY"), money.Null(money.MustParse("100")), nil)

	assert.False(t, result.Percentage.Valid)
	assert.False(t, result.Amount.Valid)
	assert.True(t, result.PreviouslyBilled.Valid)
}

func TestCalculate_RoundsHalfUp(t *testing.T) {
	result := Calculate(entity.StageConcept, money.Null(money.MustParse("100.05")), nil)

	// 10% of 100.05 is 10.005
	assert.True(t, result.Amount.Decimal.Equal(money.MustParse("10.01")))
}

func TestPercentage_MonotonicAcrossStages(t *testing.T) {
	previous := decimal.NewFromInt(-1)
	for _, stage := range entity.ProjectStages {
		pct, ok := Percentage(stage)
		require.True(t, ok, "stage %s has no percentage", stage)
		assert.True(t, pct.GreaterThanOrEqual(previous), "stage %s went backwards", stage)
		previous = pct
	}
	assert.True(t, previous.Equal(decimal.NewFromInt(100)))
}

func TestResult_Apply(t *testing.T) {
	inv := &entity.Invoice{}
	Calculate(entity.StageCompletion, money.Null(money.MustParse("2000")), nil).Apply(inv)

	assert.True(t, inv.CumulativeFeeAmount.Decimal.Equal(money.MustParse("2000")))
	assert.True(t, inv.CumulativeFeePercentage.Decimal.Equal(decimal.NewFromInt(100)))
}
