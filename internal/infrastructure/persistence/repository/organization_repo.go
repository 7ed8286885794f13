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

// OrganizationRepository implements port.OrganizationRepository
type OrganizationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *sql.DB, logger *zap.Logger) port.OrganizationRepository {
	return &OrganizationRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new organization record
func (r *OrganizationRepository) Create(ctx context.Context, org *entity.Organization) error {
	gstin, err := normalizeGSTIN(org.GSTIN)
	if err != nil {
		return err
	}
	org.GSTIN = gstin
	if org.CreatedAt.IsZero() {
		org.CreatedAt = time.Now().UTC()
	}

	result, err := getExecutor(ctx, r.db).ExecContext(ctx,
		`INSERT INTO organizations (name, state, gstin, created_at) VALUES (?, ?, ?, ?)`,
		org.Name, org.State, org.GSTIN, org.CreatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create organization", zap.Error(err))
		return writeError("create organization", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	org.ID = id
	return nil
}

// GetByID retrieves an organization by ID
func (r *OrganizationRepository) GetByID(ctx context.Context, id int64) (*entity.Organization, error) {
	var org entity.Organization
	err := getExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, name, state, gstin, created_at FROM organizations WHERE id = ?`, id,
	).Scan(&org.ID, &org.Name, &org.State, &org.GSTIN, &org.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get organization by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}

// ClientRepository implements port.ClientRepository
type ClientRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *sql.DB, logger *zap.Logger) port.ClientRepository {
	return &ClientRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new client record
func (r *ClientRepository) Create(ctx context.Context, client *entity.Client) error {
	gstin, err := normalizeGSTIN(client.GSTIN)
	if err != nil {
		return err
	}
	client.GSTIN = gstin
	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO clients (organization_id, name, address, email, state, gstin, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		client.OrganizationID,
		client.Name,
		client.Address,
		client.Email,
		client.State,
		client.GSTIN,
		client.CreatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create client", zap.Error(err))
		return writeError("create client", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	client.ID = id
	return nil
}

// GetByID retrieves a client by ID
func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*entity.Client, error) {
	query := `
		SELECT id, organization_id, name, address, email, state, gstin, created_at
		FROM clients
		WHERE id = ?
	`

	var client entity.Client
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&client.ID,
		&client.OrganizationID,
		&client.Name,
		&client.Address,
		&client.Email,
		&client.State,
		&client.GSTIN,
		&client.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get client by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &client, nil
}

// Verify interface compliance
var (
	_ port.OrganizationRepository = (*OrganizationRepository)(nil)
	_ port.ClientRepository       = (*ClientRepository)(nil)
)
