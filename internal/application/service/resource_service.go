package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/projectledger/finance-engine/internal/application/port"
	"github.com/projectledger/finance-engine/internal/domain/apperr"
	"github.com/projectledger/finance-engine/internal/domain/budget"
	"github.com/projectledger/finance-engine/internal/domain/entity"
	"github.com/projectledger/finance-engine/internal/domain/money"
)

// AssignmentRequest carries the fields of a new or updated assignment.
// On create, nil rates default to the user's burn rate (billing) and hourly
// cost (cost). On update, nil rates keep the assignment's current rates; every
// other field is replaced.
type AssignmentRequest struct {
	PhaseID             int64            `json:"phase_id"`
	UserID              int64            `json:"user_id"`
	RoleOnPhase         string           `json:"role_on_phase"`
	BillingRate         *decimal.Decimal `json:"billing_rate,omitempty"`
	CostRate            *decimal.Decimal `json:"cost_rate,omitempty"`
	PlannedHours        decimal.Decimal  `json:"planned_hours"`
	AllocatedPercentage decimal.Decimal  `json:"allocated_percentage"`
	StartDate           *time.Time       `json:"start_date,omitempty"`
	EndDate             *time.Time       `json:"end_date,omitempty"`
}

// ResourceService places users on phases and reports budget headroom
type ResourceService interface {
	CreateAssignment(ctx context.Context, req AssignmentRequest) (*entity.ResourceAssignment, error)
	UpdateAssignment(ctx context.Context, id int64, req AssignmentRequest) (*entity.ResourceAssignment, error)
	DeleteAssignment(ctx context.Context, id int64) error
	ListAssignments(ctx context.Context, phaseID int64) ([]*entity.ResourceAssignment, error)
	GetAvailability(ctx context.Context, phaseID, userID int64) (*entity.Availability, error)
}

type resourceServiceImpl struct {
	phaseRepo      port.PhaseRepository
	userRepo       port.UserRepository
	assignmentRepo port.AssignmentRepository
	txManager      port.TransactionManager
	logger         Logger
}

// NewResourceService creates a new ResourceService
func NewResourceService(
	phaseRepo port.PhaseRepository,
	userRepo port.UserRepository,
	assignmentRepo port.AssignmentRepository,
	txManager port.TransactionManager,
	logger Logger,
) ResourceService {
	return &resourceServiceImpl{
		phaseRepo:      phaseRepo,
		userRepo:       userRepo,
		assignmentRepo: assignmentRepo,
		txManager:      txManager,
		logger:         logger,
	}
}

// CreateAssignment places a user on a phase of the same organization
func (s *resourceServiceImpl) CreateAssignment(ctx context.Context, req AssignmentRequest) (*entity.ResourceAssignment, error) {
	var assignment *entity.ResourceAssignment

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		_, user, err := s.loadPair(txCtx, req.PhaseID, req.UserID)
		if err != nil {
			return err
		}

		existing, err := s.assignmentRepo.GetByPhaseAndUser(txCtx, req.PhaseID, req.UserID)
		if err != nil {
			return fmt.Errorf("check existing assignment: %w", err)
		}
		if existing != nil {
			return apperr.NewValidationError("user_id", "user %d is already assigned to phase %d", req.UserID, req.PhaseID)
		}

		a := &entity.ResourceAssignment{
			PhaseID:     req.PhaseID,
			UserID:      req.UserID,
			BillingRate: budget.BurnRate(user),
			CostRate:    budget.HourlyCost(user),
			CreatedAt:   time.Now(),
		}
		if err := applyAssignment(a, req); err != nil {
			return err
		}

		if err := s.assignmentRepo.Create(txCtx, a); err != nil {
			return fmt.Errorf("create assignment: %w", err)
		}
		assignment = a
		return nil
	})

	if err != nil {
		s.logger.Error("Failed to create assignment", "error", err, "phase_id", req.PhaseID, "user_id", req.UserID)
		return nil, err
	}

	s.logger.Info("Assignment created",
		"id", assignment.ID,
		"phase_id", assignment.PhaseID,
		"user_id", assignment.UserID,
		"billing_rate", assignment.BillingRate.String())
	return assignment, nil
}

// UpdateAssignment changes role, rates, hours and dates. Phase and user are fixed.
func (s *resourceServiceImpl) UpdateAssignment(ctx context.Context, id int64, req AssignmentRequest) (*entity.ResourceAssignment, error) {
	var assignment *entity.ResourceAssignment

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		a, err := s.assignmentRepo.GetByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("get assignment: %w", err)
		}
		if a == nil {
			return apperr.NotFound("assignment", id)
		}

		if err := applyAssignment(a, req); err != nil {
			return err
		}
		if err := s.assignmentRepo.Update(txCtx, a); err != nil {
			return fmt.Errorf("update assignment: %w", err)
		}
		assignment = a
		return nil
	})

	if err != nil {
		s.logger.Error("Failed to update assignment", "error", err, "id", id)
		return nil, err
	}
	return assignment, nil
}

// DeleteAssignment removes an assignment
func (s *resourceServiceImpl) DeleteAssignment(ctx context.Context, id int64) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		a, err := s.assignmentRepo.GetByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("get assignment: %w", err)
		}
		if a == nil {
			return apperr.NotFound("assignment", id)
		}
		return s.assignmentRepo.Delete(txCtx, id)
	})

	if err != nil {
		s.logger.Error("Failed to delete assignment", "error", err, "id", id)
		return err
	}

	s.logger.Info("Assignment deleted", "id", id)
	return nil
}

// ListAssignments lists the assignments of a phase
func (s *resourceServiceImpl) ListAssignments(ctx context.Context, phaseID int64) ([]*entity.ResourceAssignment, error) {
	assignments, err := s.assignmentRepo.ListByPhase(ctx, phaseID)
	if err != nil {
		s.logger.Error("Failed to list assignments", "error", err, "phase_id", phaseID)
		return nil, err
	}
	return assignments, nil
}

// GetAvailability reports the phase budget headroom for the user. It never
// blocks over-allocation.
func (s *resourceServiceImpl) GetAvailability(ctx context.Context, phaseID, userID int64) (*entity.Availability, error) {
	var result entity.Availability

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		phase, user, err := s.loadPair(txCtx, phaseID, userID)
		if err != nil {
			return err
		}

		assignments, err := s.assignmentRepo.ListByPhase(txCtx, phaseID)
		if err != nil {
			return fmt.Errorf("list phase assignments: %w", err)
		}
		hours, err := s.assignmentRepo.ListPlannedHoursInProject(txCtx, phase.ProjectID, userID)
		if err != nil {
			return fmt.Errorf("list project hours: %w", err)
		}

		in := budget.Input{
			PhaseID:        phaseID,
			UserID:         userID,
			ContractAmount: phase.ContractAmount,
			ProjectHours:   hours,
			BurnRate:       budget.BurnRate(user),
			HourlyCost:     budget.HourlyCost(user),
		}
		for _, a := range assignments {
			in.Assignments = append(in.Assignments, *a)
		}

		result = budget.Availability(in)
		return nil
	})

	if err != nil {
		s.logger.Error("Failed to compute availability", "error", err, "phase_id", phaseID, "user_id", userID)
		return nil, err
	}
	return &result, nil
}

// loadPair loads the phase and user and checks they share an organization
func (s *resourceServiceImpl) loadPair(ctx context.Context, phaseID, userID int64) (*entity.Phase, *entity.User, error) {
	phase, err := s.phaseRepo.GetByID(ctx, phaseID)
	if err != nil {
		return nil, nil, fmt.Errorf("get phase: %w", err)
	}
	if phase == nil {
		return nil, nil, apperr.NewValidationError("phase_id", "phase %d not found", phaseID)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, nil, apperr.NewValidationError("user_id", "user %d not found", userID)
	}

	if phase.OrganizationID != user.OrganizationID {
		return nil, nil, apperr.NewValidationError("user_id", "user %d and phase %d belong to different organizations", userID, phaseID)
	}
	return phase, user, nil
}

// applyAssignment copies the request onto a. Rates are only overwritten when given.
func applyAssignment(a *entity.ResourceAssignment, req AssignmentRequest) error {
	if req.PlannedHours.IsNegative() {
		return apperr.NewValidationError("planned_hours", "must not be negative")
	}
	if req.AllocatedPercentage.IsNegative() || req.AllocatedPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return apperr.NewValidationError("allocated_percentage", "must be between 0 and 100")
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return apperr.NewValidationError("end_date", "must not be before the start date")
	}

	if req.BillingRate != nil {
		if req.BillingRate.IsNegative() {
			return apperr.NewValidationError("billing_rate", "must not be negative")
		}
		a.BillingRate = money.Round(*req.BillingRate)
	}
	if req.CostRate != nil {
		if req.CostRate.IsNegative() {
			return apperr.NewValidationError("cost_rate", "must not be negative")
		}
		a.CostRate = money.Round(*req.CostRate)
	}

	a.RoleOnPhase = req.RoleOnPhase
	a.PlannedHours = money.Round(req.PlannedHours)
	a.AllocatedPercentage = money.Round(req.AllocatedPercentage)
	a.StartDate = req.StartDate
	a.EndDate = req.EndDate
	return nil
}
