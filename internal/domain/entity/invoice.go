package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is a client invoice together with its computed money fields.
// Exactly one tax branch is active at a time: IGST, CGST+SGST, or the flat
// TaxRate fallback.
type Invoice struct {
	ID             int64         `json:"id"`
	OrganizationID int64         `json:"organization_id"`
	ProjectID      *int64        `json:"project_id,omitempty"`
	InvoiceNumber  string        `json:"invoice_number"`
	Status         InvoiceStatus `json:"status"`

	// Client snapshot taken when the invoice is created
	ClientName    string `json:"client_name"`
	ClientAddress string `json:"client_address,omitempty"`
	ClientEmail   string `json:"client_email,omitempty"`

	IssueDate time.Time  `json:"issue_date"`
	DueDate   *time.Time `json:"due_date,omitempty"`

	Subtotal  decimal.Decimal `json:"subtotal"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	TaxAmount decimal.Decimal `json:"tax_amount"`

	CGSTRate   decimal.Decimal `json:"cgst_rate"`
	CGSTAmount decimal.Decimal `json:"cgst_amount"`
	SGSTRate   decimal.Decimal `json:"sgst_rate"`
	SGSTAmount decimal.Decimal `json:"sgst_amount"`
	IGSTRate   decimal.Decimal `json:"igst_rate"`
	IGSTAmount decimal.Decimal `json:"igst_amount"`

	// Cumulative billing; unset for projects without a budget
	CumulativeFeePercentage decimal.NullDecimal `json:"cumulative_fee_percentage"`
	CumulativeFeeAmount     decimal.NullDecimal `json:"cumulative_fee_amount"`
	PreviouslyBilledAmount  decimal.NullDecimal `json:"previously_billed_amount"`

	TotalAmount     decimal.Decimal `json:"total_amount"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	BalanceAmount   decimal.Decimal `json:"balance_amount"`
	LastPaymentDate *time.Time      `json:"last_payment_date,omitempty"`

	Notes string        `json:"notes,omitempty"`
	Items []InvoiceItem `json:"items"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InvoiceItem is a line on an invoice. Amount is Quantity × UnitPrice.
type InvoiceItem struct {
	ID          int64           `json:"id"`
	InvoiceID   int64           `json:"invoice_id"`
	Position    int             `json:"position"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// IsDraft reports whether the invoice is still a draft.
func (i *Invoice) IsDraft() bool {
	return i.Status == InvoiceStatusDraft
}

// HasProject reports whether the invoice is attached to a project.
func (i *Invoice) HasProject() bool {
	return i.ProjectID != nil
}
