package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/projectledger/finance-engine/internal/application/port"
	"github.com/projectledger/finance-engine/internal/domain/entity"
)

// Money is stored as TEXT at scale 2. Sums are taken in Go with decimal
// arithmetic so they stay exact at any magnitude; SQL only selects and filters.
var (
	invoiceMoney = []string{port.ColTotalInvoiced, port.ColTotalPaid, port.ColOutstanding}
	projectMoney = []string{port.ColTotalBudget}
)

const invoiceColumnsForSums = `i.total_amount, i.paid_amount, i.balance_amount`

// FinancialAggregateRepository implements port.FinancialAggregateRepository
type FinancialAggregateRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewFinancialAggregateRepository creates a new aggregate repository
func NewFinancialAggregateRepository(db *sql.DB, logger *zap.Logger) port.FinancialAggregateRepository {
	return &FinancialAggregateRepository{
		db:     db,
		logger: logger,
	}
}

// OverallInvoiceStats totals the organization's non-cancelled invoices
func (r *FinancialAggregateRepository) OverallInvoiceStats(ctx context.Context, organizationID int64) (port.AggregateRow, error) {
	query := `SELECT NULL AS dim_key, ` + invoiceColumnsForSums + `
		FROM invoices i
		WHERE i.organization_id = ? AND i.status != ?`
	return r.rollupOne(ctx, "overall invoice stats", query, port.ColInvoiceCount, invoiceMoney,
		organizationID, string(entity.InvoiceStatusCancelled))
}

// OverallProjectStats counts active projects and totals budget and actual cost
func (r *FinancialAggregateRepository) OverallProjectStats(ctx context.Context, organizationID int64) (port.AggregateRow, error) {
	query := `
		SELECT NULL AS dim_key,
			CASE WHEN p.status = ? THEN 1 ELSE 0 END,
			p.budget,
			p.actual_cost
		FROM projects p
		WHERE p.organization_id = ?`
	row, err := r.rollupOne(ctx, "overall project stats", query, port.ColProjectCount,
		[]string{port.ColActiveProjects, port.ColTotalBudget, port.ColTotalActualCost},
		string(entity.ProjectStatusActive), organizationID)
	if err != nil {
		return nil, err
	}
	row[port.ColActiveProjects] = row[port.ColActiveProjects].(decimal.Decimal).IntPart()
	return row, nil
}

// ProjectStatsByChargeType counts projects and budget per charge type
func (r *FinancialAggregateRepository) ProjectStatsByChargeType(ctx context.Context, organizationID int64) ([]port.AggregateRow, error) {
	query := `SELECT p.charge_type AS dim_key, p.budget
		FROM projects p
		WHERE p.organization_id = ?`
	return r.rollup(ctx, "project stats by charge type", query, port.ColProjectCount, projectMoney, organizationID)
}

// InvoiceStatsByChargeType totals non-cancelled invoices by the charge type of
// their project. Invoices without a project fall under a NULL key.
func (r *FinancialAggregateRepository) InvoiceStatsByChargeType(ctx context.Context, organizationID int64) ([]port.AggregateRow, error) {
	query := `SELECT p.charge_type AS dim_key, ` + invoiceColumnsForSums + `
		FROM invoices i
		LEFT JOIN projects p ON p.id = i.project_id
		WHERE i.organization_id = ? AND i.status != ?`
	return r.rollup(ctx, "invoice stats by charge type", query, port.ColInvoiceCount, invoiceMoney,
		organizationID, string(entity.InvoiceStatusCancelled))
}

// ProjectStatsByStage counts projects and budget per project stage
func (r *FinancialAggregateRepository) ProjectStatsByStage(ctx context.Context, organizationID int64) ([]port.AggregateRow, error) {
	query := `SELECT p.project_stage AS dim_key, p.budget
		FROM projects p
		WHERE p.organization_id = ?`
	return r.rollup(ctx, "project stats by stage", query, port.ColProjectCount, projectMoney, organizationID)
}

// InvoiceStatsByStage totals non-cancelled invoices by the stage of their project
func (r *FinancialAggregateRepository) InvoiceStatsByStage(ctx context.Context, organizationID int64) ([]port.AggregateRow, error) {
	query := `SELECT p.project_stage AS dim_key, ` + invoiceColumnsForSums + `
		FROM invoices i
		LEFT JOIN projects p ON p.id = i.project_id
		WHERE i.organization_id = ? AND i.status != ?`
	return r.rollup(ctx, "invoice stats by stage", query, port.ColInvoiceCount, invoiceMoney,
		organizationID, string(entity.InvoiceStatusCancelled))
}

// ProjectCountsByInvoiceStatus counts the distinct projects having invoices in each status
func (r *FinancialAggregateRepository) ProjectCountsByInvoiceStatus(ctx context.Context, organizationID int64) ([]port.AggregateRow, error) {
	query := `
		SELECT i.status AS dim_key, COUNT(DISTINCT i.project_id) AS project_count
		FROM invoices i
		WHERE i.organization_id = ?
		GROUP BY i.status`
	return r.queryMany(ctx, "project counts by invoice status", query, organizationID)
}

// InvoiceStatsByStatus totals invoices per status, cancelled ones included
func (r *FinancialAggregateRepository) InvoiceStatsByStatus(ctx context.Context, organizationID int64) ([]port.AggregateRow, error) {
	query := `SELECT i.status AS dim_key, ` + invoiceColumnsForSums + `
		FROM invoices i
		WHERE i.organization_id = ?`
	return r.rollup(ctx, "invoice stats by status", query, port.ColInvoiceCount, invoiceMoney, organizationID)
}

// group accumulates one dimension key of a rollup
type group struct {
	key   interface{}
	count int64
	sums  []decimal.Decimal
}

// rollup runs a query whose first column is dim_key followed by one column per
// entry of sumColumns, and folds the rows per key: countColumn counts them and
// each value column is summed. NULL values add nothing. Keys keep the order in
// which they first appear.
func (r *FinancialAggregateRepository) rollup(ctx context.Context, name, query, countColumn string, sumColumns []string, args ...interface{}) ([]port.AggregateRow, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Aggregate query failed", zap.String("query", name), zap.Error(err))
		return nil, fmt.Errorf("failed to query %s: %w", name, err)
	}
	defer rows.Close()

	byKey := make(map[interface{}]*group)
	var order []*group
	for rows.Next() {
		values := make([]interface{}, 1+len(sumColumns))
		pointers := make([]interface{}, len(values))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", name, err)
		}

		key := values[0]
		if b, ok := key.([]byte); ok {
			key = string(b)
		}
		g, ok := byKey[key]
		if !ok {
			g = &group{key: key, sums: make([]decimal.Decimal, len(sumColumns))}
			byKey[key] = g
			order = append(order, g)
		}

		g.count++
		for i, raw := range values[1:] {
			amount, err := parseAmount(raw)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s.%s: %w", name, sumColumns[i], err)
			}
			g.sums[i] = g.sums[i].Add(amount)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", name, err)
	}

	result := make([]port.AggregateRow, 0, len(order))
	for _, g := range order {
		row := port.AggregateRow{port.ColKey: g.key, countColumn: g.count}
		for i, column := range sumColumns {
			row[column] = g.sums[i]
		}
		result = append(result, row)
	}
	return result, nil
}

// rollupOne folds every row into one, with zero totals when there are none
func (r *FinancialAggregateRepository) rollupOne(ctx context.Context, name, query, countColumn string, sumColumns []string, args ...interface{}) (port.AggregateRow, error) {
	rows, err := r.rollup(ctx, name, query, countColumn, sumColumns, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return rows[0], nil
	}

	row := port.AggregateRow{countColumn: int64(0)}
	for _, column := range sumColumns {
		row[column] = decimal.Zero
	}
	return row, nil
}

// parseAmount reads a stored money value or flag. NULL counts as zero.
func parseAmount(value interface{}) (decimal.Decimal, error) {
	switch v := value.(type) {
	case nil:
		return decimal.Zero, nil
	case string:
		return decimal.NewFromString(v)
	case []byte:
		return decimal.NewFromString(string(v))
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	default:
		return decimal.Zero, fmt.Errorf("unexpected value type %T", value)
	}
}

func (r *FinancialAggregateRepository) queryMany(ctx context.Context, name, query string, args ...interface{}) ([]port.AggregateRow, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Aggregate query failed", zap.String("query", name), zap.Error(err))
		return nil, fmt.Errorf("failed to query %s: %w", name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", name, err)
	}

	var result []port.AggregateRow
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", name, err)
		}

		row := make(port.AggregateRow, len(columns))
		for i, column := range columns {
			// The driver may reuse byte slices between rows
			if b, ok := values[i].([]byte); ok {
				values[i] = string(b)
			}
			row[column] = values[i]
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// Verify interface compliance
var _ port.FinancialAggregateRepository = (*FinancialAggregateRepository)(nil)
