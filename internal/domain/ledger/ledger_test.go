package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectledger/finance-engine/internal/domain/apperr"
	"github.com/projectledger/finance-engine/internal/domain/entity"
	"github.com/projectledger/finance-engine/internal/domain/money"
	"github.com/projectledger/finance-engine/internal/domain/tax"
)

func d(s string) decimal.Decimal {
	return money.MustParse(s)
}

func newDraft(t *testing.T, amounts ...string) *entity.Invoice {
	t.Helper()
	inv := &entity.Invoice{
		ID:            7,
		InvoiceNumber: "ACME-2026-001",
		Status:        entity.InvoiceStatusDraft,
	}
	for _, a := range amounts {
		item, err := NewItem("Design fee", decimal.NewFromInt(1), d(a))
		require.NoError(t, err)
		AddItem(inv, item)
	}
	return inv
}

// assertConsistent checks the invariants every persisted invoice must hold.
func assertConsistent(t *testing.T, inv *entity.Invoice) {
	t.Helper()
	assert.True(t, inv.TotalAmount.Equal(inv.Subtotal.Add(inv.TaxAmount)),
		"total %s != subtotal %s + tax %s", inv.TotalAmount, inv.Subtotal, inv.TaxAmount)
	assert.True(t, inv.BalanceAmount.Equal(inv.TotalAmount.Sub(inv.PaidAmount)),
		"balance %s != total %s - paid %s", inv.BalanceAmount, inv.TotalAmount, inv.PaidAmount)

	igst := inv.IGSTAmount.IsPositive()
	cgst := inv.CGSTAmount.IsPositive() || inv.SGSTAmount.IsPositive()
	assert.False(t, igst && cgst, "IGST and CGST/SGST both active")
	if igst || cgst {
		assert.True(t, inv.TaxAmount.Equal(inv.IGSTAmount.Add(inv.CGSTAmount).Add(inv.SGSTAmount)))
	}
}

func TestApplyGST_IntraState(t *testing.T) {
	inv := newDraft(t, "100000")

	ApplyGST(inv, tax.Determine("Maharashtra", "Maharashtra"))

	assert.True(t, inv.CGSTAmount.Equal(d("9000")))
	assert.True(t, inv.SGSTAmount.Equal(d("9000")))
	assert.True(t, inv.IGSTAmount.IsZero())
	assert.True(t, inv.TaxAmount.Equal(d("18000")))
	assert.True(t, inv.TotalAmount.Equal(d("118000")))
	assertConsistent(t, inv)
}

func TestApplyGST_InterState(t *testing.T) {
	inv := newDraft(t, "100000")

	ApplyGST(inv, tax.Determine("Maharashtra", "Karnataka"))

	assert.True(t, inv.IGSTAmount.Equal(d("18000")))
	assert.True(t, inv.CGSTAmount.IsZero())
	assert.True(t, inv.SGSTAmount.IsZero())
	assert.True(t, inv.TaxAmount.Equal(d("18000")))
	assert.True(t, inv.TotalAmount.Equal(d("118000")))
	assertConsistent(t, inv)
}

func TestRecalculate_BranchPriority(t *testing.T) {
	tests := []struct {
		name    string
		igst    string
		cgst    string
		sgst    string
		flat    string
		wantTax string
	}{
		{"igst wins over cgst and flat", "18", "9", "9", "5", "180"},
		{"cgst when igst is zero", "0", "9", "9", "5", "180"},
		{"flat fallback", "0", "0", "0", "5", "50"},
		{"no tax", "0", "0", "0", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := newDraft(t, "1000")
			inv.IGSTRate = d(tt.igst)
			inv.CGSTRate = d(tt.cgst)
			inv.SGSTRate = d(tt.sgst)
			inv.TaxRate = d(tt.flat)

			Recalculate(inv)

			assert.True(t, inv.TaxAmount.Equal(d(tt.wantTax)), "tax = %s", inv.TaxAmount)
			assertConsistent(t, inv)
		})
	}
}

func TestRecalculate_ZeroesInactiveBranch(t *testing.T) {
	inv := newDraft(t, "1000")
	ApplyGST(inv, tax.Determine("Goa", "Goa"))
	require.True(t, inv.CGSTAmount.IsPositive())

	ApplyGST(inv, tax.Determine("Goa", "Kerala"))

	assert.True(t, inv.CGSTAmount.IsZero())
	assert.True(t, inv.SGSTAmount.IsZero())
	assert.True(t, inv.IGSTAmount.Equal(d("180")))
	assertConsistent(t, inv)
}

func TestItems_AddRemove(t *testing.T) {
	inv := newDraft(t, "100.10", "200.20", "300.30")
	assert.True(t, inv.Subtotal.Equal(d("600.60")))

	require.NoError(t, RemoveItem(inv, 1))
	assert.Len(t, inv.Items, 2)
	assert.True(t, inv.Subtotal.Equal(d("400.40")))
	assert.Equal(t, 0, inv.Items[0].Position)
	assert.Equal(t, 1, inv.Items[1].Position)
	assertConsistent(t, inv)

	err := RemoveItem(inv, 5)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestNewItem(t *testing.T) {
	item, err := NewItem("Site visit", d("2.5"), d("333.33"))
	require.NoError(t, err)
	// 833.325 rounds half up
	assert.True(t, item.Amount.Equal(d("833.33")))

	_, err = NewItem("", d("1"), d("1"))
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = NewItem("Refund", d("-1"), d("1"))
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestSetTaxRateAndPaidAmount(t *testing.T) {
	inv := newDraft(t, "1000")

	require.NoError(t, SetTaxRate(inv, d("12.5")))
	assert.True(t, inv.TotalAmount.Equal(d("1125")))

	require.NoError(t, SetPaidAmount(inv, d("125")))
	assert.True(t, inv.BalanceAmount.Equal(d("1000")))
	assert.Equal(t, entity.InvoiceStatusDraft, inv.Status)
	assertConsistent(t, inv)

	assert.True(t, errors.Is(SetTaxRate(inv, d("-1")), apperr.ErrValidation))
	assert.True(t, errors.Is(SetPaidAmount(inv, d("-1")), apperr.ErrValidation))
}

func TestRecordPayment_PartialRejected(t *testing.T) {
	inv := newDraft(t, "100000")
	before := *inv

	err := RecordPayment(inv, d("50000"), time.Now())

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Contains(t, err.Error(), "full invoice amount")
	assert.Equal(t, before.Status, inv.Status)
	assert.True(t, inv.PaidAmount.IsZero())
	assert.Nil(t, inv.LastPaymentDate)
}

func TestRecordPayment_FullSettlementOnce(t *testing.T) {
	inv := newDraft(t, "100000")
	ApplyGST(inv, tax.Determine("Maharashtra", "Karnataka"))
	paidOn := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	require.NoError(t, RecordPayment(inv, d("118000"), paidOn))

	assert.Equal(t, entity.InvoiceStatusPaid, inv.Status)
	assert.True(t, inv.PaidAmount.Equal(d("118000")))
	assert.True(t, inv.BalanceAmount.IsZero())
	require.NotNil(t, inv.LastPaymentDate)
	assert.Equal(t, paidOn, *inv.LastPaymentDate)
	assertConsistent(t, inv)

	err := RecordPayment(inv, d("118000"), paidOn)
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))
}

func TestRecordPayment_StateCheckedBeforeAmount(t *testing.T) {
	inv := newDraft(t, "10")
	inv.Status = entity.InvoiceStatusCancelled

	err := RecordPayment(inv, d("1"), time.Now())

	assert.True(t, errors.Is(err, apperr.ErrInvalidState))
}

func TestEnsureDeletable(t *testing.T) {
	for _, status := range []entity.InvoiceStatus{
		entity.InvoiceStatusSent,
		entity.InvoiceStatusPaid,
		entity.InvoiceStatusOverdue,
		entity.InvoiceStatusCancelled,
	} {
		inv := &entity.Invoice{Status: status}
		assert.True(t, errors.Is(EnsureDeletable(inv), apperr.ErrInvalidState), "status %s", status)
	}

	assert.NoError(t, EnsureDeletable(&entity.Invoice{Status: entity.InvoiceStatusDraft}))
}

func TestUpdateStatus_Permissive(t *testing.T) {
	inv := &entity.Invoice{Status: entity.InvoiceStatusPaid}

	require.NoError(t, UpdateStatus(inv, entity.InvoiceStatusDraft))
	assert.Equal(t, entity.InvoiceStatusDraft, inv.Status)

	err := UpdateStatus(inv, entity.InvoiceStatus("ARCHIVED"))
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Equal(t, entity.InvoiceStatusDraft, inv.Status)
}
