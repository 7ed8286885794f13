package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/projectledger/finance-engine/internal/application/port"
	"github.com/projectledger/finance-engine/internal/domain/entity"
)

const assignmentColumns = `
	id, phase_id, user_id, role_on_phase, billing_rate, cost_rate,
	planned_hours, allocated_percentage, start_date, end_date, created_at`

// AssignmentRepository implements port.AssignmentRepository
type AssignmentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAssignmentRepository creates a new resource assignment repository
func NewAssignmentRepository(db *sql.DB, logger *zap.Logger) port.AssignmentRepository {
	return &AssignmentRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new assignment. A second assignment for the same
// (phase, user) pair is rejected with apperr.ErrConflict.
func (r *AssignmentRepository) Create(ctx context.Context, a *entity.ResourceAssignment) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO resource_assignments (
			phase_id, user_id, role_on_phase, billing_rate, cost_rate,
			planned_hours, allocated_percentage, start_date, end_date, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		a.PhaseID,
		a.UserID,
		a.RoleOnPhase,
		a.BillingRate,
		a.CostRate,
		a.PlannedHours,
		a.AllocatedPercentage,
		nullTime(a.StartDate),
		nullTime(a.EndDate),
		a.CreatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create assignment",
			zap.Int64("phase_id", a.PhaseID),
			zap.Int64("user_id", a.UserID),
			zap.Error(err))
		return writeError("create assignment", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	a.ID = id
	return nil
}

// GetByID retrieves an assignment by ID
func (r *AssignmentRepository) GetByID(ctx context.Context, id int64) (*entity.ResourceAssignment, error) {
	row := getExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM resource_assignments WHERE id = ?`, id)

	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get assignment by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return a, nil
}

// GetByPhaseAndUser retrieves the assignment of a user on a phase
func (r *AssignmentRepository) GetByPhaseAndUser(ctx context.Context, phaseID, userID int64) (*entity.ResourceAssignment, error) {
	row := getExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM resource_assignments WHERE phase_id = ? AND user_id = ?`,
		phaseID, userID)

	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get assignment",
			zap.Int64("phase_id", phaseID),
			zap.Int64("user_id", userID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return a, nil
}

// Update saves the mutable assignment fields
func (r *AssignmentRepository) Update(ctx context.Context, a *entity.ResourceAssignment) error {
	query := `
		UPDATE resource_assignments SET
			role_on_phase = ?, billing_rate = ?, cost_rate = ?, planned_hours = ?,
			allocated_percentage = ?, start_date = ?, end_date = ?
		WHERE id = ?
	`
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		a.RoleOnPhase,
		a.BillingRate,
		a.CostRate,
		a.PlannedHours,
		a.AllocatedPercentage,
		nullTime(a.StartDate),
		nullTime(a.EndDate),
		a.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update assignment", zap.Int64("id", a.ID), zap.Error(err))
		return writeError("update assignment", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("assignment not found: %d", a.ID)
	}
	return nil
}

// Delete removes an assignment
func (r *AssignmentRepository) Delete(ctx context.Context, id int64) error {
	_, err := getExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM resource_assignments WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete assignment", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	return nil
}

// ListByPhase returns the assignments of a phase in creation order
func (r *AssignmentRepository) ListByPhase(ctx context.Context, phaseID int64) ([]*entity.ResourceAssignment, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx,
		`SELECT `+assignmentColumns+` FROM resource_assignments WHERE phase_id = ? ORDER BY id`, phaseID)
	if err != nil {
		r.logger.Error("Failed to list assignments", zap.Int64("phase_id", phaseID), zap.Error(err))
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*entity.ResourceAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// ListPlannedHoursInProject returns the user's planned hours on each phase of the project
func (r *AssignmentRepository) ListPlannedHoursInProject(ctx context.Context, projectID, userID int64) ([]decimal.Decimal, error) {
	query := `
		SELECT ra.planned_hours
		FROM resource_assignments ra
		JOIN phases ph ON ph.id = ra.phase_id
		WHERE ph.project_id = ? AND ra.user_id = ?
		ORDER BY ra.id
	`
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, projectID, userID)
	if err != nil {
		r.logger.Error("Failed to list planned hours",
			zap.Int64("project_id", projectID),
			zap.Int64("user_id", userID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list planned hours: %w", err)
	}
	defer rows.Close()

	var hours []decimal.Decimal
	for rows.Next() {
		var h decimal.Decimal
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("failed to scan planned hours: %w", err)
		}
		hours = append(hours, h)
	}
	return hours, rows.Err()
}

func scanAssignment(row rowScanner) (*entity.ResourceAssignment, error) {
	var a entity.ResourceAssignment
	var startDate, endDate sql.NullTime

	err := row.Scan(
		&a.ID,
		&a.PhaseID,
		&a.UserID,
		&a.RoleOnPhase,
		&a.BillingRate,
		&a.CostRate,
		&a.PlannedHours,
		&a.AllocatedPercentage,
		&startDate,
		&endDate,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.StartDate = timePtr(startDate)
	a.EndDate = timePtr(endDate)
	return &a, nil
}

// Verify interface compliance
var _ port.AssignmentRepository = (*AssignmentRepository)(nil)
