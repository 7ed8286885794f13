package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/projectledger/finance-engine/internal/application/port"
	"github.com/projectledger/finance-engine/internal/domain/apperr"
	"github.com/projectledger/finance-engine/internal/domain/billing"
	"github.com/projectledger/finance-engine/internal/domain/entity"
	"github.com/projectledger/finance-engine/internal/domain/ledger"
	"github.com/projectledger/finance-engine/internal/domain/tax"
	"github.com/projectledger/finance-engine/internal/domain/workflow"
	"github.com/projectledger/finance-engine/pkg/utils"
)

// ItemInput describes a new invoice line
type ItemInput struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreateInvoiceRequest carries the caller-supplied fields of a new invoice.
// Client fields default to the project's client when a project is given.
type CreateInvoiceRequest struct {
	OrganizationID int64           `json:"organization_id"`
	ProjectID      *int64          `json:"project_id,omitempty"`
	InvoiceNumber  string          `json:"invoice_number,omitempty"`
	ClientName     string          `json:"client_name,omitempty"`
	ClientAddress  string          `json:"client_address,omitempty"`
	ClientEmail    string          `json:"client_email,omitempty"`
	IssueDate      *time.Time      `json:"issue_date,omitempty"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	Notes          string          `json:"notes,omitempty"`
	Items          []ItemInput     `json:"items"`
}

// UpdateInvoiceRequest changes descriptive fields. Nil fields are left alone.
// Setting ProjectID re-runs tax and cumulative billing for the new project;
// DetachProject removes the project and its GST split.
type UpdateInvoiceRequest struct {
	ProjectID     *int64     `json:"project_id,omitempty"`
	DetachProject bool       `json:"detach_project,omitempty"`
	ClientName    *string    `json:"client_name,omitempty"`
	ClientAddress *string    `json:"client_address,omitempty"`
	ClientEmail   *string    `json:"client_email,omitempty"`
	IssueDate     *time.Time `json:"issue_date,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
}

// InvoiceService manages invoices and keeps their money fields consistent
type InvoiceService interface {
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*entity.Invoice, error)
	GetInvoice(ctx context.Context, id int64) (*entity.Invoice, error)
	ListInvoices(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error)
	UpdateInvoice(ctx context.Context, id int64, req UpdateInvoiceRequest) (*entity.Invoice, error)
	AddItem(ctx context.Context, id int64, item ItemInput) (*entity.Invoice, error)
	RemoveItem(ctx context.Context, id int64, position int) (*entity.Invoice, error)
	SetTaxRate(ctx context.Context, id int64, rate decimal.Decimal) (*entity.Invoice, error)
	SetPaidAmount(ctx context.Context, id int64, amount decimal.Decimal) (*entity.Invoice, error)
	RecordPayment(ctx context.Context, id int64, amount decimal.Decimal, date time.Time) (*entity.Invoice, error)
	UpdateStatus(ctx context.Context, id int64, status entity.InvoiceStatus) (*entity.Invoice, error)
	DeleteInvoice(ctx context.Context, id int64) error
	MarkOverdue(ctx context.Context, asOf time.Time, limit int) (int, error)
}

// InvoiceServiceConfig holds behaviour switches
type InvoiceServiceConfig struct {
	// StrictStatusTransitions makes UpdateStatus follow the invoice state machine
	// instead of accepting any status
	StrictStatusTransitions bool
}

type invoiceServiceImpl struct {
	orgRepo     port.OrganizationRepository
	clientRepo  port.ClientRepository
	projectRepo port.ProjectRepository
	invoiceRepo port.InvoiceRepository
	sequence    *SequenceGenerator
	txManager   port.TransactionManager
	config      InvoiceServiceConfig
	now         func() time.Time
	logger      Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	orgRepo port.OrganizationRepository,
	clientRepo port.ClientRepository,
	projectRepo port.ProjectRepository,
	invoiceRepo port.InvoiceRepository,
	sequence *SequenceGenerator,
	txManager port.TransactionManager,
	config InvoiceServiceConfig,
	logger Logger,
) InvoiceService {
	return &invoiceServiceImpl{
		orgRepo:     orgRepo,
		clientRepo:  clientRepo,
		projectRepo: projectRepo,
		invoiceRepo: invoiceRepo,
		sequence:    sequence,
		txManager:   txManager,
		config:      config,
		now:         sequence.now,
		logger:      logger,
	}
}

// CreateInvoice creates a DRAFT invoice with computed tax and cumulative billing
func (s *invoiceServiceImpl) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*entity.Invoice, error) {
	var invoice *entity.Invoice

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		org, err := s.orgRepo.GetByID(txCtx, req.OrganizationID)
		if err != nil {
			return fmt.Errorf("get organization: %w", err)
		}
		if org == nil {
			return apperr.NewValidationError("organization_id", "organization %d not found", req.OrganizationID)
		}

		now := s.now()
		inv := &entity.Invoice{
			OrganizationID: org.ID,
			InvoiceNumber:  utils.SanitizeString(req.InvoiceNumber),
			Status:         entity.InvoiceStatusDraft,
			ClientName:     utils.SanitizeString(req.ClientName),
			ClientAddress:  utils.SanitizeString(req.ClientAddress),
			ClientEmail:    utils.SanitizeString(req.ClientEmail),
			IssueDate:      now,
			DueDate:        req.DueDate,
			Notes:          req.Notes,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if req.IssueDate != nil {
			inv.IssueDate = *req.IssueDate
		}

		if req.ProjectID != nil {
			if err := s.attachProject(txCtx, org, inv, *req.ProjectID); err != nil {
				return err
			}
		}

		if err := validateSnapshot(inv); err != nil {
			return err
		}

		for _, in := range req.Items {
			item, err := ledger.NewItem(utils.SanitizeString(in.Description), in.Quantity, in.UnitPrice)
			if err != nil {
				return err
			}
			ledger.AddItem(inv, item)
		}
		if err := ledger.SetTaxRate(inv, req.TaxRate); err != nil {
			return err
		}

		if inv.InvoiceNumber == "" {
			number, err := s.sequence.Next(txCtx, org)
			if err != nil {
				return err
			}
			inv.InvoiceNumber = number
		}

		if err := s.invoiceRepo.Create(txCtx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		invoice = inv
		return nil
	})

	if err != nil {
		s.logger.Error("Failed to create invoice", "error", err, "organization_id", req.OrganizationID)
		return nil, err
	}

	s.logger.Info("Invoice created",
		"id", invoice.ID,
		"invoice_number", invoice.InvoiceNumber,
		"total_amount", invoice.TotalAmount.String())
	return invoice, nil
}

// attachProject links the invoice to a project of the organization, snapshots
// the client, derives the GST split and the cumulative billing position.
func (s *invoiceServiceImpl) attachProject(ctx context.Context, org *entity.Organization, inv *entity.Invoice, projectID int64) error {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return fmt.Errorf("get project: %w", err)
	}
	if project == nil || project.OrganizationID != org.ID {
		return apperr.NewValidationError("project_id", "project %d not found in organization %d", projectID, org.ID)
	}

	client, err := s.clientRepo.GetByID(ctx, project.ClientID)
	if err != nil {
		return fmt.Errorf("get client: %w", err)
	}
	if client == nil {
		return apperr.NewValidationError("project_id", "client %d of project %d not found", project.ClientID, project.ID)
	}

	inv.ProjectID = &project.ID
	if inv.ClientName == "" {
		inv.ClientName = client.Name
	}
	if inv.ClientAddress == "" {
		inv.ClientAddress = client.Address
	}
	if inv.ClientEmail == "" {
		inv.ClientEmail = client.Email
	}

	prior, err := s.invoiceRepo.ListPriorSubtotals(ctx, project.ID, inv.ID)
	if err != nil {
		return fmt.Errorf("list prior invoices: %w", err)
	}
	billing.Calculate(project.Stage, project.Budget, prior).Apply(inv)

	ledger.ApplyGST(inv, tax.Determine(org.State, client.State))
	return nil
}

func validateSnapshot(inv *entity.Invoice) error {
	if inv.ClientName == "" {
		return apperr.NewValidationError("client_name", "is required")
	}
	if inv.ClientEmail != "" {
		if err := utils.ValidateEmail(inv.ClientEmail); err != nil {
			return apperr.NewValidationError("client_email", "%v", err)
		}
	}
	if inv.DueDate != nil && inv.DueDate.Before(inv.IssueDate) {
		return apperr.NewValidationError("due_date", "must not be before the issue date")
	}
	return nil
}

// GetInvoice retrieves an invoice with its items
func (s *invoiceServiceImpl) GetInvoice(ctx context.Context, id int64) (*entity.Invoice, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get invoice", "error", err, "id", id)
		return nil, err
	}
	if inv == nil {
		return nil, apperr.NotFound("invoice", id)
	}
	return inv, nil
}

// ListInvoices lists invoices without their items
func (s *invoiceServiceImpl) ListInvoices(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperr.NewValidationError("status", "unknown invoice status %q", filter.Status)
	}

	invoices, err := s.invoiceRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list invoices", "error", err, "organization_id", filter.OrganizationID)
		return nil, err
	}
	return invoices, nil
}

// UpdateInvoice changes the client snapshot, dates, notes or project
func (s *invoiceServiceImpl) UpdateInvoice(ctx context.Context, id int64, req UpdateInvoiceRequest) (*entity.Invoice, error) {
	return s.mutate(ctx, id, "update invoice", func(txCtx context.Context, inv *entity.Invoice) error {
		if req.ClientName != nil {
			inv.ClientName = utils.SanitizeString(*req.ClientName)
		}
		if req.ClientAddress != nil {
			inv.ClientAddress = utils.SanitizeString(*req.ClientAddress)
		}
		if req.ClientEmail != nil {
			inv.ClientEmail = utils.SanitizeString(*req.ClientEmail)
		}
		if req.IssueDate != nil {
			inv.IssueDate = *req.IssueDate
		}
		if req.DueDate != nil {
			inv.DueDate = req.DueDate
		}
		if req.Notes != nil {
			inv.Notes = *req.Notes
		}

		switch {
		case req.DetachProject:
			inv.ProjectID = nil
			billing.Result{}.Apply(inv)
			ledger.ApplyGST(inv, tax.Rates{})
		case req.ProjectID != nil && (!inv.HasProject() || *inv.ProjectID != *req.ProjectID):
			org, err := s.orgRepo.GetByID(txCtx, inv.OrganizationID)
			if err != nil {
				return fmt.Errorf("get organization: %w", err)
			}
			if org == nil {
				return apperr.NewValidationError("organization_id", "organization %d not found", inv.OrganizationID)
			}
			if err := s.attachProject(txCtx, org, inv, *req.ProjectID); err != nil {
				return err
			}
		}

		return validateSnapshot(inv)
	})
}

// AddItem appends a line and recomputes the invoice
func (s *invoiceServiceImpl) AddItem(ctx context.Context, id int64, in ItemInput) (*entity.Invoice, error) {
	return s.mutate(ctx, id, "add item", func(_ context.Context, inv *entity.Invoice) error {
		item, err := ledger.NewItem(utils.SanitizeString(in.Description), in.Quantity, in.UnitPrice)
		if err != nil {
			return err
		}
		ledger.AddItem(inv, item)
		return nil
	})
}

// RemoveItem removes the line at position and recomputes the invoice
func (s *invoiceServiceImpl) RemoveItem(ctx context.Context, id int64, position int) (*entity.Invoice, error) {
	return s.mutate(ctx, id, "remove item", func(_ context.Context, inv *entity.Invoice) error {
		return ledger.RemoveItem(inv, position)
	})
}

// SetTaxRate sets the flat fallback rate
func (s *invoiceServiceImpl) SetTaxRate(ctx context.Context, id int64, rate decimal.Decimal) (*entity.Invoice, error) {
	return s.mutate(ctx, id, "set tax rate", func(_ context.Context, inv *entity.Invoice) error {
		return ledger.SetTaxRate(inv, rate)
	})
}

// SetPaidAmount overwrites the paid amount without changing the status
func (s *invoiceServiceImpl) SetPaidAmount(ctx context.Context, id int64, amount decimal.Decimal) (*entity.Invoice, error) {
	return s.mutate(ctx, id, "set paid amount", func(_ context.Context, inv *entity.Invoice) error {
		return ledger.SetPaidAmount(inv, amount)
	})
}

// RecordPayment settles the invoice in full
func (s *invoiceServiceImpl) RecordPayment(ctx context.Context, id int64, amount decimal.Decimal, date time.Time) (*entity.Invoice, error) {
	inv, err := s.mutate(ctx, id, "record payment", func(_ context.Context, inv *entity.Invoice) error {
		return ledger.RecordPayment(inv, amount, date)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment recorded", "id", inv.ID, "invoice_number", inv.InvoiceNumber, "amount", amount.String())
	return inv, nil
}

// UpdateStatus sets the status. Without strict transitions any valid status is accepted.
func (s *invoiceServiceImpl) UpdateStatus(ctx context.Context, id int64, status entity.InvoiceStatus) (*entity.Invoice, error) {
	return s.mutate(ctx, id, "update status", func(_ context.Context, inv *entity.Invoice) error {
		if s.config.StrictStatusTransitions {
			if err := workflow.ValidateTransition(inv.Status, status); err != nil {
				return err
			}
		}
		previous := inv.Status
		if err := ledger.UpdateStatus(inv, status); err != nil {
			return err
		}
		s.logger.Info("Invoice status changed", "id", inv.ID, "from", string(previous), "to", string(status))
		return nil
	})
}

// DeleteInvoice deletes a draft invoice
func (s *invoiceServiceImpl) DeleteInvoice(ctx context.Context, id int64) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		inv, err := s.invoiceRepo.GetByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("get invoice: %w", err)
		}
		if inv == nil {
			return apperr.NotFound("invoice", id)
		}
		if err := ledger.EnsureDeletable(inv); err != nil {
			return err
		}
		return s.invoiceRepo.Delete(txCtx, id)
	})

	if err != nil {
		s.logger.Error("Failed to delete invoice", "error", err, "id", id)
		return err
	}

	s.logger.Info("Invoice deleted", "id", id)
	return nil
}

// MarkOverdue moves SENT invoices past their due date to OVERDUE and returns
// how many were moved
func (s *invoiceServiceImpl) MarkOverdue(ctx context.Context, asOf time.Time, limit int) (int, error) {
	candidates, err := s.invoiceRepo.ListOverdueCandidates(ctx, asOf, limit)
	if err != nil {
		s.logger.Error("Failed to list overdue candidates", "error", err)
		return 0, err
	}

	marked := 0
	for _, inv := range candidates {
		next, err := workflow.Advance(ctx, inv.Status, workflow.TriggerMarkOverdue)
		if err != nil {
			s.logger.Error("Skipping overdue candidate", "error", err, "id", inv.ID, "status", string(inv.Status))
			continue
		}
		if err := s.invoiceRepo.UpdateStatus(ctx, inv.ID, next); err != nil {
			s.logger.Error("Failed to mark invoice overdue", "error", err, "id", inv.ID)
			return marked, err
		}
		marked++
	}

	if marked > 0 {
		s.logger.Info("Invoices marked overdue", "count", marked, "as_of", asOf.Format(time.RFC3339))
	}
	return marked, nil
}

// mutate loads the invoice, applies fn and saves it in one transaction. The
// invoice is not saved when fn fails.
func (s *invoiceServiceImpl) mutate(ctx context.Context, id int64, op string, fn func(ctx context.Context, inv *entity.Invoice) error) (*entity.Invoice, error) {
	var invoice *entity.Invoice

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		inv, err := s.invoiceRepo.GetByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("get invoice: %w", err)
		}
		if inv == nil {
			return apperr.NotFound("invoice", id)
		}

		if err := fn(txCtx, inv); err != nil {
			return err
		}

		inv.UpdatedAt = s.now()
		if err := s.invoiceRepo.Update(txCtx, inv); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		invoice = inv
		return nil
	})

	if err != nil {
		s.logger.Error("Failed to "+op, "error", err, "id", id)
		return nil, err
	}
	return invoice, nil
}
