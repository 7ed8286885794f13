// Package ledger owns the money fields of a single invoice. Every mutation
// re-derives subtotal, tax, total and balance so the invoice is always
// internally consistent before it is persisted.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/projectledger/finance-engine/internal/domain/apperr"
	"github.com/projectledger/finance-engine/internal/domain/entity"
	"github.com/projectledger/finance-engine/internal/domain/money"
	"github.com/projectledger/finance-engine/internal/domain/tax"
	"github.com/projectledger/finance-engine/internal/domain/workflow"
)

// NewItem builds an invoice line with its amount computed.
func NewItem(description string, quantity, unitPrice decimal.Decimal) (entity.InvoiceItem, error) {
	if description == "" {
		return entity.InvoiceItem{}, apperr.NewValidationError("description", "is required")
	}
	if quantity.IsNegative() {
		return entity.InvoiceItem{}, apperr.NewValidationError("quantity", "must not be negative")
	}
	if unitPrice.IsNegative() {
		return entity.InvoiceItem{}, apperr.NewValidationError("unit_price", "must not be negative")
	}

	return entity.InvoiceItem{
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		Amount:      money.Round(quantity.Mul(unitPrice)),
	}, nil
}

// Recalculate re-derives subtotal, tax, total and balance from the items and rates.
//
// Tax branch priority: IGST when its rate is positive, then CGST/SGST when the
// CGST rate is positive, then the flat TaxRate, else no tax. Amounts of the
// inactive branches are zeroed.
func Recalculate(inv *entity.Invoice) {
	subtotal := decimal.Zero
	for i := range inv.Items {
		item := &inv.Items[i]
		item.Position = i
		item.Amount = money.Round(item.Quantity.Mul(item.UnitPrice))
		subtotal = subtotal.Add(item.Amount)
	}
	inv.Subtotal = money.Round(subtotal)

	inv.CGSTAmount = decimal.Zero
	inv.SGSTAmount = decimal.Zero
	inv.IGSTAmount = decimal.Zero

	switch {
	case inv.IGSTRate.IsPositive():
		inv.IGSTAmount = money.Percent(inv.Subtotal, inv.IGSTRate)
		inv.TaxAmount = inv.IGSTAmount
	case inv.CGSTRate.IsPositive():
		inv.CGSTAmount = money.Percent(inv.Subtotal, inv.CGSTRate)
		inv.SGSTAmount = money.Percent(inv.Subtotal, inv.SGSTRate)
		inv.TaxAmount = inv.CGSTAmount.Add(inv.SGSTAmount)
	case inv.TaxRate.IsPositive():
		inv.TaxAmount = money.Percent(inv.Subtotal, inv.TaxRate)
	default:
		inv.TaxAmount = decimal.Zero
	}

	inv.TotalAmount = inv.Subtotal.Add(inv.TaxAmount)
	inv.BalanceAmount = inv.TotalAmount.Sub(inv.PaidAmount)
}

// AddItem appends an item and recalculates.
func AddItem(inv *entity.Invoice, item entity.InvoiceItem) {
	item.InvoiceID = inv.ID
	inv.Items = append(inv.Items, item)
	Recalculate(inv)
}

// RemoveItem removes the item at position and recalculates.
func RemoveItem(inv *entity.Invoice, position int) error {
	if position < 0 || position >= len(inv.Items) {
		return apperr.NewValidationError("position", "no item at position %d", position)
	}
	inv.Items = append(inv.Items[:position], inv.Items[position+1:]...)
	Recalculate(inv)
	return nil
}

// SetTaxRate sets the flat fallback rate and recalculates.
func SetTaxRate(inv *entity.Invoice, rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return apperr.NewValidationError("tax_rate", "must be between 0 and 100, got %s", rate)
	}
	inv.TaxRate = money.Round(rate)
	Recalculate(inv)
	return nil
}

// SetPaidAmount overwrites the paid amount and recalculates. It does not touch
// the status; RecordPayment is the settlement path.
func SetPaidAmount(inv *entity.Invoice, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return apperr.NewValidationError("paid_amount", "must not be negative")
	}
	inv.PaidAmount = money.Round(amount)
	Recalculate(inv)
	return nil
}

// ApplyGST sets the GST rates and recalculates.
func ApplyGST(inv *entity.Invoice, rates tax.Rates) {
	inv.CGSTRate = rates.CGST
	inv.SGSTRate = rates.SGST
	inv.IGSTRate = rates.IGST
	Recalculate(inv)
}

// RecordPayment settles the invoice in full. Paid and cancelled invoices are
// rejected first, then any amount other than the exact total. The invoice is
// unchanged on error.
func RecordPayment(inv *entity.Invoice, amount decimal.Decimal, date time.Time) error {
	if workflow.FromStatus(inv.Status).IsTerminal() {
		return apperr.NewStateError("record payment", "invoice %s is %s", inv.InvoiceNumber, inv.Status)
	}

	if !amount.Equal(inv.TotalAmount) {
		return apperr.NewValidationError("amount",
			"payment must equal the full invoice amount %s, got %s", inv.TotalAmount.StringFixed(money.Scale), amount)
	}

	paidOn := date
	inv.PaidAmount = inv.TotalAmount
	inv.Status = entity.InvoiceStatusPaid
	inv.LastPaymentDate = &paidOn
	Recalculate(inv)
	return nil
}

// EnsureDeletable rejects deletion of anything but a draft.
func EnsureDeletable(inv *entity.Invoice) error {
	if !inv.IsDraft() {
		return apperr.NewStateError("delete invoice", "only draft invoices can be deleted, %s is %s", inv.InvoiceNumber, inv.Status)
	}
	return nil
}

// UpdateStatus sets the status directly. Only enum membership is checked;
// administrative corrections may jump between any two statuses.
func UpdateStatus(inv *entity.Invoice, status entity.InvoiceStatus) error {
	if !status.IsValid() {
		return apperr.NewValidationError("status", "unknown invoice status %q", status)
	}
	inv.Status = status
	return nil
}
