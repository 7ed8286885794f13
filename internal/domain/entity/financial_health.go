package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinancialHealth is the organization dashboard.
type FinancialHealth struct {
	OrganizationID  int64                 `json:"organization_id"`
	Overall         OverallHealth         `json:"overall"`
	ByChargeType    []DimensionHealth     `json:"by_charge_type"`
	ByProjectStage  []DimensionHealth     `json:"by_project_stage"`
	ByInvoiceStatus []InvoiceStatusHealth `json:"by_invoice_status"`
	GeneratedAt     time.Time             `json:"generated_at"`
}

// OverallHealth aggregates every invoice and project of the organization.
type OverallHealth struct {
	InvoiceCount     int64           `json:"invoice_count"`
	TotalInvoiced    decimal.Decimal `json:"total_invoiced"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	ActiveProjects   int64           `json:"active_projects"`
	TotalBudget      decimal.Decimal `json:"total_budget"`
	TotalActualCost  decimal.Decimal `json:"total_actual_cost"`
	CollectionRate   decimal.Decimal `json:"collection_rate"`
}

// DimensionHealth is one row of a project-keyed rollup (charge type or stage).
type DimensionHealth struct {
	Key            string          `json:"key"`
	ProjectCount   int64           `json:"project_count"`
	TotalBudget    decimal.Decimal `json:"total_budget"`
	InvoiceCount   int64           `json:"invoice_count"`
	TotalInvoiced  decimal.Decimal `json:"total_invoiced"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	CollectionRate decimal.Decimal `json:"collection_rate"`
}

// InvoiceStatusHealth is one row of the by-status rollup.
type InvoiceStatusHealth struct {
	Status         InvoiceStatus   `json:"status"`
	ProjectCount   int64           `json:"project_count"`
	InvoiceCount   int64           `json:"invoice_count"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	CollectionRate decimal.Decimal `json:"collection_rate"`
}
