package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/projectledger/finance-engine/internal/domain/entity"
)

// Repositories return (nil, nil) when a record does not exist. Unique
// constraint violations are reported as apperr.ErrConflict.

// OrganizationRepository defines persistence operations for Organization
type OrganizationRepository interface {
	Create(ctx context.Context, org *entity.Organization) error
	GetByID(ctx context.Context, id int64) (*entity.Organization, error)
}

// ClientRepository defines persistence operations for Client
type ClientRepository interface {
	Create(ctx context.Context, client *entity.Client) error
	GetByID(ctx context.Context, id int64) (*entity.Client, error)
}

// ProjectRepository defines persistence operations for Project
type ProjectRepository interface {
	Create(ctx context.Context, project *entity.Project) error
	GetByID(ctx context.Context, id int64) (*entity.Project, error)
	UpdateStage(ctx context.Context, id int64, stage entity.ProjectStage) error
}

// PhaseRepository defines persistence operations for Phase.
// Phases are loaded together with the organization of their project.
type PhaseRepository interface {
	Create(ctx context.Context, phase *entity.Phase) error
	GetByID(ctx context.Context, id int64) (*entity.Phase, error)
}

// UserRepository defines persistence operations for User
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
}

// InvoiceFilter narrows ListInvoices. Zero values mean "any".
type InvoiceFilter struct {
	OrganizationID int64
	ProjectID      int64
	Status         entity.InvoiceStatus
	Limit          int
	Offset         int
}

// InvoiceRepository defines persistence operations for Invoice and its items
type InvoiceRepository interface {
	// Create inserts the invoice and its items
	Create(ctx context.Context, invoice *entity.Invoice) error

	// GetByID loads the invoice with its items ordered by position
	GetByID(ctx context.Context, id int64) (*entity.Invoice, error)

	// Update saves every invoice column and replaces the items
	Update(ctx context.Context, invoice *entity.Invoice) error

	// UpdateStatus changes only the status column
	UpdateStatus(ctx context.Context, id int64, status entity.InvoiceStatus) error

	// Delete removes the invoice and its items
	Delete(ctx context.Context, id int64) error

	// List returns invoices without items, newest first
	List(ctx context.Context, filter InvoiceFilter) ([]*entity.Invoice, error)

	// ListPriorSubtotals returns the subtotals of the project's non-cancelled
	// invoices created before beforeID (all of them when beforeID is 0)
	ListPriorSubtotals(ctx context.Context, projectID, beforeID int64) ([]decimal.Decimal, error)

	// MaxSequenceSuffix returns the largest numeric suffix of invoice numbers
	// starting with prefix in the organization, or 0
	MaxSequenceSuffix(ctx context.Context, organizationID int64, prefix string) (int, error)

	// ListOverdueCandidates returns SENT invoices whose due date is before asOf
	ListOverdueCandidates(ctx context.Context, asOf time.Time, limit int) ([]*entity.Invoice, error)
}

// AssignmentRepository defines persistence operations for ResourceAssignment
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *entity.ResourceAssignment) error
	GetByID(ctx context.Context, id int64) (*entity.ResourceAssignment, error)
	GetByPhaseAndUser(ctx context.Context, phaseID, userID int64) (*entity.ResourceAssignment, error)
	Update(ctx context.Context, assignment *entity.ResourceAssignment) error
	Delete(ctx context.Context, id int64) error
	ListByPhase(ctx context.Context, phaseID int64) ([]*entity.ResourceAssignment, error)

	// ListPlannedHoursInProject returns the user's planned hours on each phase of the project
	ListPlannedHoursInProject(ctx context.Context, projectID, userID int64) ([]decimal.Decimal, error)
}

// AggregateRow is one row of an aggregate query keyed by column name. Values
// come straight from the driver, so numeric columns may be int64, float64,
// []byte or string depending on the data.
type AggregateRow map[string]interface{}

// Column names used in AggregateRow
const (
	ColKey             = "dim_key"
	ColProjectCount    = "project_count"
	ColActiveProjects  = "active_projects"
	ColTotalBudget     = "total_budget"
	ColTotalActualCost = "total_actual_cost"
	ColInvoiceCount    = "invoice_count"
	ColTotalInvoiced   = "total_invoiced"
	ColTotalPaid       = "total_paid"
	ColOutstanding     = "total_outstanding"
)

// FinancialAggregateRepository runs the roll-up queries behind the financial
// health dashboard. Invoice totals exclude CANCELLED invoices except in the
// by-status breakdown.
type FinancialAggregateRepository interface {
	OverallInvoiceStats(ctx context.Context, organizationID int64) (AggregateRow, error)
	OverallProjectStats(ctx context.Context, organizationID int64) (AggregateRow, error)

	ProjectStatsByChargeType(ctx context.Context, organizationID int64) ([]AggregateRow, error)
	InvoiceStatsByChargeType(ctx context.Context, organizationID int64) ([]AggregateRow, error)

	ProjectStatsByStage(ctx context.Context, organizationID int64) ([]AggregateRow, error)
	InvoiceStatsByStage(ctx context.Context, organizationID int64) ([]AggregateRow, error)

	ProjectCountsByInvoiceStatus(ctx context.Context, organizationID int64) ([]AggregateRow, error)
	InvoiceStatsByStatus(ctx context.Context, organizationID int64) ([]AggregateRow, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
