package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/projectledger/finance-engine/internal/application/port"
	"github.com/projectledger/finance-engine/internal/domain/entity"
)

const invoiceColumns = `
	id, organization_id, project_id, invoice_number, status,
	client_name, client_address, client_email, issue_date, due_date,
	subtotal, tax_rate, tax_amount,
	cgst_rate, cgst_amount, sgst_rate, sgst_amount, igst_rate, igst_amount,
	cumulative_fee_percentage, cumulative_fee_amount, previously_billed_amount,
	total_amount, paid_amount, balance_amount, last_payment_date,
	notes, created_at, updated_at`

// InvoiceRepository implements port.InvoiceRepository
type InvoiceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sql.DB, logger *zap.Logger) port.InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the invoice and its items
func (r *InvoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	now := time.Now().UTC()
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = now
	}
	invoice.UpdatedAt = now

	query := `
		INSERT INTO invoices (
			organization_id, project_id, invoice_number, status,
			client_name, client_address, client_email, issue_date, due_date,
			subtotal, tax_rate, tax_amount,
			cgst_rate, cgst_amount, sgst_rate, sgst_amount, igst_rate, igst_amount,
			cumulative_fee_percentage, cumulative_fee_amount, previously_billed_amount,
			total_amount, paid_amount, balance_amount, last_payment_date,
			notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	exec := getExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, query,
		invoice.OrganizationID,
		nullInt64(invoice.ProjectID),
		invoice.InvoiceNumber,
		string(invoice.Status),
		invoice.ClientName,
		invoice.ClientAddress,
		invoice.ClientEmail,
		invoice.IssueDate.UTC(),
		nullTime(invoice.DueDate),
		invoice.Subtotal,
		invoice.TaxRate,
		invoice.TaxAmount,
		invoice.CGSTRate,
		invoice.CGSTAmount,
		invoice.SGSTRate,
		invoice.SGSTAmount,
		invoice.IGSTRate,
		invoice.IGSTAmount,
		invoice.CumulativeFeePercentage,
		invoice.CumulativeFeeAmount,
		invoice.PreviouslyBilledAmount,
		invoice.TotalAmount,
		invoice.PaidAmount,
		invoice.BalanceAmount,
		nullTime(invoice.LastPaymentDate),
		invoice.Notes,
		invoice.CreatedAt.UTC(),
		invoice.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create invoice",
			zap.String("invoice_number", invoice.InvoiceNumber),
			zap.Error(err))
		return writeError("create invoice", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	invoice.ID = id

	return r.insertItems(ctx, exec, invoice)
}

// GetByID loads the invoice with its items ordered by position
func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (*entity.Invoice, error) {
	exec := getExecutor(ctx, r.db)
	row := exec.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id)

	invoice, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get invoice by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	items, err := r.listItems(ctx, exec, id)
	if err != nil {
		return nil, err
	}
	invoice.Items = items
	return invoice, nil
}

// Update saves every invoice column and replaces the items
func (r *InvoiceRepository) Update(ctx context.Context, invoice *entity.Invoice) error {
	invoice.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE invoices SET
			project_id = ?, invoice_number = ?, status = ?,
			client_name = ?, client_address = ?, client_email = ?, issue_date = ?, due_date = ?,
			subtotal = ?, tax_rate = ?, tax_amount = ?,
			cgst_rate = ?, cgst_amount = ?, sgst_rate = ?, sgst_amount = ?, igst_rate = ?, igst_amount = ?,
			cumulative_fee_percentage = ?, cumulative_fee_amount = ?, previously_billed_amount = ?,
			total_amount = ?, paid_amount = ?, balance_amount = ?, last_payment_date = ?,
			notes = ?, updated_at = ?
		WHERE id = ?
	`

	exec := getExecutor(ctx, r.db)
	result, err := exec.ExecContext(ctx, query,
		nullInt64(invoice.ProjectID),
		invoice.InvoiceNumber,
		string(invoice.Status),
		invoice.ClientName,
		invoice.ClientAddress,
		invoice.ClientEmail,
		invoice.IssueDate.UTC(),
		nullTime(invoice.DueDate),
		invoice.Subtotal,
		invoice.TaxRate,
		invoice.TaxAmount,
		invoice.CGSTRate,
		invoice.CGSTAmount,
		invoice.SGSTRate,
		invoice.SGSTAmount,
		invoice.IGSTRate,
		invoice.IGSTAmount,
		invoice.CumulativeFeePercentage,
		invoice.CumulativeFeeAmount,
		invoice.PreviouslyBilledAmount,
		invoice.TotalAmount,
		invoice.PaidAmount,
		invoice.BalanceAmount,
		nullTime(invoice.LastPaymentDate),
		invoice.Notes,
		invoice.UpdatedAt,
		invoice.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update invoice", zap.Int64("id", invoice.ID), zap.Error(err))
		return writeError("update invoice", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("invoice not found: %d", invoice.ID)
	}

	if _, err := exec.ExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = ?`, invoice.ID); err != nil {
		r.logger.Error("Failed to clear invoice items", zap.Int64("id", invoice.ID), zap.Error(err))
		return fmt.Errorf("failed to clear invoice items: %w", err)
	}
	return r.insertItems(ctx, exec, invoice)
}

// UpdateStatus changes only the status column
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id int64, status entity.InvoiceStatus) error {
	_, err := getExecutor(ctx, r.db).ExecContext(ctx,
		`UPDATE invoices SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		r.logger.Error("Failed to update invoice status",
			zap.Int64("id", id),
			zap.String("status", string(status)),
			zap.Error(err))
		return fmt.Errorf("failed to update invoice status: %w", err)
	}
	return nil
}

// Delete removes the invoice. Items go with it through the cascade, but are
// removed explicitly as well in case foreign keys are off.
func (r *InvoiceRepository) Delete(ctx context.Context, id int64) error {
	exec := getExecutor(ctx, r.db)
	if _, err := exec.ExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = ?`, id); err != nil {
		r.logger.Error("Failed to delete invoice items", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete invoice items: %w", err)
	}
	if _, err := exec.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id); err != nil {
		r.logger.Error("Failed to delete invoice", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	return nil
}

// List returns invoices without items, newest first
func (r *InvoiceRepository) List(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error) {
	var conditions []string
	var args []interface{}

	if filter.OrganizationID > 0 {
		conditions = append(conditions, "organization_id = ?")
		args = append(args, filter.OrganizationID)
	}
	if filter.ProjectID > 0 {
		conditions = append(conditions, "project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	return r.queryInvoices(ctx, "list invoices", query, args...)
}

// ListPriorSubtotals returns the subtotals of the project's non-cancelled
// invoices created before beforeID, in creation order. A beforeID of 0 (an
// invoice not yet stored) selects all of them.
func (r *InvoiceRepository) ListPriorSubtotals(ctx context.Context, projectID, beforeID int64) ([]decimal.Decimal, error) {
	query := `
		SELECT subtotal FROM invoices
		WHERE project_id = ? AND status != ? AND (? = 0 OR id < ?)
		ORDER BY id
	`
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query,
		projectID, string(entity.InvoiceStatusCancelled), beforeID, beforeID)
	if err != nil {
		r.logger.Error("Failed to list prior subtotals", zap.Int64("project_id", projectID), zap.Error(err))
		return nil, fmt.Errorf("failed to list prior subtotals: %w", err)
	}
	defer rows.Close()

	var subtotals []decimal.Decimal
	for rows.Next() {
		var subtotal decimal.Decimal
		if err := rows.Scan(&subtotal); err != nil {
			return nil, fmt.Errorf("failed to scan subtotal: %w", err)
		}
		subtotals = append(subtotals, subtotal)
	}
	return subtotals, rows.Err()
}

// MaxSequenceSuffix returns the largest numeric suffix of invoice numbers
// starting with prefix in the organization, or 0
func (r *InvoiceRepository) MaxSequenceSuffix(ctx context.Context, organizationID int64, prefix string) (int, error) {
	query := `
		SELECT COALESCE(MAX(CAST(SUBSTR(invoice_number, ?) AS INTEGER)), 0)
		FROM invoices
		WHERE organization_id = ? AND SUBSTR(invoice_number, 1, ?) = ?
	`

	var highest int
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query,
		len(prefix)+1, organizationID, len(prefix), prefix,
	).Scan(&highest)
	if err != nil {
		r.logger.Error("Failed to read invoice sequence",
			zap.Int64("organization_id", organizationID),
			zap.String("prefix", prefix),
			zap.Error(err))
		return 0, fmt.Errorf("failed to read invoice sequence: %w", err)
	}
	return highest, nil
}

// ListOverdueCandidates returns SENT invoices whose due date is before asOf
func (r *InvoiceRepository) ListOverdueCandidates(ctx context.Context, asOf time.Time, limit int) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices
		WHERE status = ? AND due_date IS NOT NULL AND due_date < ?
		ORDER BY due_date, id`
	args := []interface{}{string(entity.InvoiceStatusSent), asOf.UTC()}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return r.queryInvoices(ctx, "list overdue candidates", query, args...)
}

func (r *InvoiceRepository) queryInvoices(ctx context.Context, op, query string, args ...interface{}) ([]*entity.Invoice, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to "+op, zap.Error(err))
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	var invoices []*entity.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

func (r *InvoiceRepository) insertItems(ctx context.Context, exec executor, invoice *entity.Invoice) error {
	query := `
		INSERT INTO invoice_items (invoice_id, position, description, quantity, unit_price, amount)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	for i := range invoice.Items {
		item := &invoice.Items[i]
		item.InvoiceID = invoice.ID

		result, err := exec.ExecContext(ctx, query,
			item.InvoiceID,
			item.Position,
			item.Description,
			item.Quantity,
			item.UnitPrice,
			item.Amount,
		)
		if err != nil {
			r.logger.Error("Failed to insert invoice item",
				zap.Int64("invoice_id", invoice.ID),
				zap.Int("position", item.Position),
				zap.Error(err))
			return fmt.Errorf("failed to insert invoice item: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		item.ID = id
	}
	return nil
}

func (r *InvoiceRepository) listItems(ctx context.Context, exec executor, invoiceID int64) ([]entity.InvoiceItem, error) {
	query := `
		SELECT id, invoice_id, position, description, quantity, unit_price, amount
		FROM invoice_items
		WHERE invoice_id = ?
		ORDER BY position
	`
	rows, err := exec.QueryContext(ctx, query, invoiceID)
	if err != nil {
		r.logger.Error("Failed to list invoice items", zap.Int64("invoice_id", invoiceID), zap.Error(err))
		return nil, fmt.Errorf("failed to list invoice items: %w", err)
	}
	defer rows.Close()

	items := []entity.InvoiceItem{}
	for rows.Next() {
		var item entity.InvoiceItem
		if err := rows.Scan(
			&item.ID,
			&item.InvoiceID,
			&item.Position,
			&item.Description,
			&item.Quantity,
			&item.UnitPrice,
			&item.Amount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInvoice(row rowScanner) (*entity.Invoice, error) {
	var invoice entity.Invoice
	var projectID sql.NullInt64
	var dueDate, lastPaymentDate sql.NullTime

	err := row.Scan(
		&invoice.ID,
		&invoice.OrganizationID,
		&projectID,
		&invoice.InvoiceNumber,
		&invoice.Status,
		&invoice.ClientName,
		&invoice.ClientAddress,
		&invoice.ClientEmail,
		&invoice.IssueDate,
		&dueDate,
		&invoice.Subtotal,
		&invoice.TaxRate,
		&invoice.TaxAmount,
		&invoice.CGSTRate,
		&invoice.CGSTAmount,
		&invoice.SGSTRate,
		&invoice.SGSTAmount,
		&invoice.IGSTRate,
		&invoice.IGSTAmount,
		&invoice.CumulativeFeePercentage,
		&invoice.CumulativeFeeAmount,
		&invoice.PreviouslyBilledAmount,
		&invoice.TotalAmount,
		&invoice.PaidAmount,
		&invoice.BalanceAmount,
		&lastPaymentDate,
		&invoice.Notes,
		&invoice.CreatedAt,
		&invoice.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	invoice.ProjectID = int64Ptr(projectID)
	invoice.DueDate = timePtr(dueDate)
	invoice.LastPaymentDate = timePtr(lastPaymentDate)
	return &invoice, nil
}

// Verify interface compliance
var _ port.InvoiceRepository = (*InvoiceRepository)(nil)
