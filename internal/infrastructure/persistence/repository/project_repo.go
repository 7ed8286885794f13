package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/projectledger/finance-engine/internal/application/port"
	"github.com/projectledger/finance-engine/internal/domain/entity"
)

// ProjectRepository implements port.ProjectRepository
type ProjectRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sql.DB, logger *zap.Logger) port.ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new project record
func (r *ProjectRepository) Create(ctx context.Context, project *entity.Project) error {
	if project.Status == "" {
		project.Status = entity.ProjectStatusActive
	}
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO projects (
			organization_id, client_id, name, status, charge_type, project_stage,
			budget, actual_cost, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		project.OrganizationID,
		project.ClientID,
		project.Name,
		string(project.Status),
		nullString(string(project.ChargeType)),
		nullString(string(project.Stage)),
		project.Budget,
		project.ActualCost,
		project.CreatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create project", zap.Error(err))
		return writeError("create project", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	project.ID = id
	return nil
}

// GetByID retrieves a project by ID
func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*entity.Project, error) {
	query := `
		SELECT id, organization_id, client_id, name, status, charge_type, project_stage,
			budget, actual_cost, created_at
		FROM projects
		WHERE id = ?
	`

	var project entity.Project
	var chargeType, stage sql.NullString

	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&project.ID,
		&project.OrganizationID,
		&project.ClientID,
		&project.Name,
		&project.Status,
		&chargeType,
		&stage,
		&project.Budget,
		&project.ActualCost,
		&project.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get project by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	project.ChargeType = entity.ChargeType(chargeType.String)
	project.Stage = entity.ProjectStage(stage.String)
	return &project, nil
}

// UpdateStage changes the project stage
func (r *ProjectRepository) UpdateStage(ctx context.Context, id int64, stage entity.ProjectStage) error {
	_, err := getExecutor(ctx, r.db).ExecContext(ctx,
		`UPDATE projects SET project_stage = ? WHERE id = ?`, string(stage), id)
	if err != nil {
		r.logger.Error("Failed to update project stage", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update project stage: %w", err)
	}
	return nil
}

// PhaseRepository implements port.PhaseRepository
type PhaseRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPhaseRepository creates a new phase repository
func NewPhaseRepository(db *sql.DB, logger *zap.Logger) port.PhaseRepository {
	return &PhaseRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new phase record
func (r *PhaseRepository) Create(ctx context.Context, phase *entity.Phase) error {
	result, err := getExecutor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO phases (project_id, name, contract_amount) VALUES (?, ?, ?)`,
		phase.ProjectID, phase.Name, phase.ContractAmount,
	)
	if err != nil {
		r.logger.Error("Failed to create phase", zap.Error(err))
		return writeError("create phase", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	phase.ID = id
	return nil
}

// GetByID retrieves a phase with the organization of its project
func (r *PhaseRepository) GetByID(ctx context.Context, id int64) (*entity.Phase, error) {
	query := `
		SELECT ph.id, ph.project_id, p.organization_id, ph.name, ph.contract_amount
		FROM phases ph
		JOIN projects p ON p.id = ph.project_id
		WHERE ph.id = ?
	`

	var phase entity.Phase
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&phase.ID,
		&phase.ProjectID,
		&phase.OrganizationID,
		&phase.Name,
		&phase.ContractAmount,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get phase by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get phase: %w", err)
	}
	return &phase, nil
}

// Verify interface compliance
var (
	_ port.ProjectRepository = (*ProjectRepository)(nil)
	_ port.PhaseRepository   = (*PhaseRepository)(nil)
)
