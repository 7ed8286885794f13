package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Organization is a tenant. State is its GST jurisdiction.
type Organization struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	State     string    `json:"state"`
	GSTIN     string    `json:"gstin,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Client is a customer of an organization.
type Client struct {
	ID             int64     `json:"id"`
	OrganizationID int64     `json:"organization_id"`
	Name           string    `json:"name"`
	Address        string    `json:"address,omitempty"`
	Email          string    `json:"email,omitempty"`
	State          string    `json:"state"`
	GSTIN          string    `json:"gstin,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Project is a piece of work billed to a client.
type Project struct {
	ID             int64               `json:"id"`
	OrganizationID int64               `json:"organization_id"`
	ClientID       int64               `json:"client_id"`
	Name           string              `json:"name"`
	Status         ProjectStatus       `json:"status"`
	ChargeType     ChargeType          `json:"charge_type"`
	Stage          ProjectStage        `json:"project_stage"`
	Budget         decimal.NullDecimal `json:"budget"`
	ActualCost     decimal.Decimal     `json:"actual_cost"`
	CreatedAt      time.Time           `json:"created_at"`
}

// Phase is a budgeted slice of a project. OrganizationID is projected from the
// owning project when the phase is loaded.
type Phase struct {
	ID             int64               `json:"id"`
	ProjectID      int64               `json:"project_id"`
	OrganizationID int64               `json:"organization_id"`
	Name           string              `json:"name"`
	ContractAmount decimal.NullDecimal `json:"contract_amount"`
}

// User carries the fields needed for cost and burn-rate derivation.
type User struct {
	ID                   int64               `json:"id"`
	OrganizationID       int64               `json:"organization_id"`
	Name                 string              `json:"name"`
	Email                string              `json:"email"`
	MonthlySalary        decimal.NullDecimal `json:"monthly_salary"`
	TypicalHoursPerMonth decimal.NullDecimal `json:"typical_hours_per_month"`
	OverheadMultiplier   decimal.NullDecimal `json:"overhead_multiplier"`
}
