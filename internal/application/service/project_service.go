package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/projectledger/finance-engine/internal/application/port"
	"github.com/projectledger/finance-engine/internal/domain/apperr"
	"github.com/projectledger/finance-engine/internal/domain/billing"
	"github.com/projectledger/finance-engine/internal/domain/entity"
)

// BillingPosition is where a project stands on its cumulative fee schedule
type BillingPosition struct {
	ProjectID               int64               `json:"project_id"`
	Stage                   entity.ProjectStage `json:"project_stage"`
	CumulativeFeePercentage decimal.NullDecimal `json:"cumulative_fee_percentage"`
	CumulativeFeeAmount     decimal.NullDecimal `json:"cumulative_fee_amount"`
	PreviouslyBilledAmount  decimal.NullDecimal `json:"previously_billed_amount"`
	RemainingBillable       decimal.Decimal     `json:"remaining_billable"`
}

// ProjectService exposes stage progression and the billing position of a project
type ProjectService interface {
	AdvanceStage(ctx context.Context, projectID int64) (*entity.Project, error)
	GetBillingPosition(ctx context.Context, projectID int64) (*BillingPosition, error)
}

type projectServiceImpl struct {
	projectRepo port.ProjectRepository
	invoiceRepo port.InvoiceRepository
	txManager   port.TransactionManager
	logger      Logger
}

// NewProjectService creates a new ProjectService
func NewProjectService(
	projectRepo port.ProjectRepository,
	invoiceRepo port.InvoiceRepository,
	txManager port.TransactionManager,
	logger Logger,
) ProjectService {
	return &projectServiceImpl{
		projectRepo: projectRepo,
		invoiceRepo: invoiceRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// AdvanceStage moves the project to the next stage. Completed projects stay put.
func (s *projectServiceImpl) AdvanceStage(ctx context.Context, projectID int64) (*entity.Project, error) {
	var project *entity.Project

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		p, err := s.projectRepo.GetByID(txCtx, projectID)
		if err != nil {
			return fmt.Errorf("get project: %w", err)
		}
		if p == nil {
			return apperr.NotFound("project", projectID)
		}
		if !p.Stage.IsValid() {
			return apperr.NewStateError("advance stage", "project %d has unknown stage %q", p.ID, p.Stage)
		}

		next := p.Stage.Next()
		if next != p.Stage {
			if err := s.projectRepo.UpdateStage(txCtx, p.ID, next); err != nil {
				return fmt.Errorf("update stage: %w", err)
			}
			s.logger.Info("Project stage advanced", "id", p.ID, "from", string(p.Stage), "to", string(next))
			p.Stage = next
		}
		project = p
		return nil
	})

	if err != nil {
		s.logger.Error("Failed to advance project stage", "error", err, "id", projectID)
		return nil, err
	}
	return project, nil
}

// GetBillingPosition computes what the next invoice for the project could bill
func (s *projectServiceImpl) GetBillingPosition(ctx context.Context, projectID int64) (*BillingPosition, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		s.logger.Error("Failed to get project", "error", err, "id", projectID)
		return nil, err
	}
	if project == nil {
		return nil, apperr.NotFound("project", projectID)
	}

	prior, err := s.invoiceRepo.ListPriorSubtotals(ctx, project.ID, 0)
	if err != nil {
		s.logger.Error("Failed to list prior invoices", "error", err, "project_id", projectID)
		return nil, err
	}

	result := billing.Calculate(project.Stage, project.Budget, prior)
	return &BillingPosition{
		ProjectID:               project.ID,
		Stage:                   project.Stage,
		CumulativeFeePercentage: result.Percentage,
		CumulativeFeeAmount:     result.Amount,
		PreviouslyBilledAmount:  result.PreviouslyBilled,
		RemainingBillable:       result.RemainingBillable(),
	}, nil
}
