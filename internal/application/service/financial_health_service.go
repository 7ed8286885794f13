package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/projectledger/finance-engine/internal/application/port"
	"github.com/projectledger/finance-engine/internal/domain/apperr"
	"github.com/projectledger/finance-engine/internal/domain/entity"
	"github.com/projectledger/finance-engine/internal/domain/money"
)

// UnspecifiedKey labels rows whose dimension column is NULL
const UnspecifiedKey = "UNSPECIFIED"

// FinancialHealthService builds the per-organization financial dashboard.
// Results are cached; writes to invoices or projects do not invalidate them.
type FinancialHealthService interface {
	GetFinancialHealth(ctx context.Context, organizationID int64) (*entity.FinancialHealth, error)
	Invalidate(organizationID int64)
}

type financialHealthServiceImpl struct {
	orgRepo port.OrganizationRepository
	aggRepo port.FinancialAggregateRepository
	cache   port.HealthCache
	now     func() time.Time
	logger  Logger
}

// NewFinancialHealthService creates a new FinancialHealthService
func NewFinancialHealthService(
	orgRepo port.OrganizationRepository,
	aggRepo port.FinancialAggregateRepository,
	cache port.HealthCache,
	logger Logger,
) FinancialHealthService {
	return &financialHealthServiceImpl{
		orgRepo: orgRepo,
		aggRepo: aggRepo,
		cache:   cache,
		now:     time.Now,
		logger:  logger,
	}
}

// GetFinancialHealth returns the cached dashboard or computes it. Failing
// sub-queries and unreadable values show up as zeros and are only logged.
func (s *financialHealthServiceImpl) GetFinancialHealth(ctx context.Context, organizationID int64) (*entity.FinancialHealth, error) {
	if health, ok := s.cache.Get(organizationID); ok {
		return health, nil
	}

	org, err := s.orgRepo.GetByID(ctx, organizationID)
	if err != nil {
		s.logger.Error("Failed to get organization", "error", err, "organization_id", organizationID)
		return nil, err
	}
	if org == nil {
		return nil, apperr.NewValidationError("organization_id", "organization %d not found", organizationID)
	}

	r := &rowReader{logger: s.logger, organizationID: organizationID}
	byChargeType := s.dimension(ctx, r, organizationID, "charge_type", chargeTypeOrder,
		s.aggRepo.ProjectStatsByChargeType, s.aggRepo.InvoiceStatsByChargeType)
	byStage := s.dimension(ctx, r, organizationID, "project_stage", stageOrder(),
		s.aggRepo.ProjectStatsByStage, s.aggRepo.InvoiceStatsByStage)

	health := &entity.FinancialHealth{
		OrganizationID:  organizationID,
		Overall:         s.overall(ctx, r, organizationID),
		ByChargeType:    byChargeType,
		ByProjectStage:  byStage,
		ByInvoiceStatus: s.byStatus(ctx, r, organizationID),
		GeneratedAt:     s.now(),
	}

	s.cache.Put(organizationID, health)
	s.logger.Info("Financial health computed",
		"organization_id", organizationID,
		"invoice_count", health.Overall.InvoiceCount,
		"degraded_values", r.failures)
	return health, nil
}

// Invalidate drops the cached dashboard of an organization
func (s *financialHealthServiceImpl) Invalidate(organizationID int64) {
	s.cache.Invalidate(organizationID)
}

func (s *financialHealthServiceImpl) overall(ctx context.Context, r *rowReader, orgID int64) entity.OverallHealth {
	inv, err := s.aggRepo.OverallInvoiceStats(ctx, orgID)
	if err != nil {
		r.queryFailed("overall_invoices", err)
	}
	proj, err := s.aggRepo.OverallProjectStats(ctx, orgID)
	if err != nil {
		r.queryFailed("overall_projects", err)
	}

	o := entity.OverallHealth{
		InvoiceCount:     r.count(inv, port.ColInvoiceCount),
		TotalInvoiced:    r.amount(inv, port.ColTotalInvoiced),
		TotalPaid:        r.amount(inv, port.ColTotalPaid),
		TotalOutstanding: r.amount(inv, port.ColOutstanding),
		ActiveProjects:   r.count(proj, port.ColActiveProjects),
		TotalBudget:      r.amount(proj, port.ColTotalBudget),
		TotalActualCost:  r.amount(proj, port.ColTotalActualCost),
	}
	o.CollectionRate = money.Ratio(o.TotalPaid, o.TotalInvoiced)
	return o
}

type aggregateQuery func(ctx context.Context, organizationID int64) ([]port.AggregateRow, error)

// dimension merges a project query and an invoice query on the dimension key.
// Known keys come first in order, unknown keys follow alphabetically.
func (s *financialHealthServiceImpl) dimension(ctx context.Context, r *rowReader, orgID int64, name string, order []string, projectQuery, invoiceQuery aggregateQuery) []entity.DimensionHealth {
	byKey := make(map[string]*entity.DimensionHealth)
	get := func(key string) *entity.DimensionHealth {
		d, ok := byKey[key]
		if !ok {
			d = &entity.DimensionHealth{Key: key}
			byKey[key] = d
		}
		return d
	}

	projectRows, err := projectQuery(ctx, orgID)
	if err != nil {
		r.queryFailed(name+"_projects", err)
	}
	for _, row := range projectRows {
		d := get(r.key(row))
		d.ProjectCount += r.count(row, port.ColProjectCount)
		d.TotalBudget = d.TotalBudget.Add(r.amount(row, port.ColTotalBudget))
	}

	invoiceRows, err := invoiceQuery(ctx, orgID)
	if err != nil {
		r.queryFailed(name+"_invoices", err)
	}
	for _, row := range invoiceRows {
		d := get(r.key(row))
		d.InvoiceCount += r.count(row, port.ColInvoiceCount)
		d.TotalInvoiced = d.TotalInvoiced.Add(r.amount(row, port.ColTotalInvoiced))
		d.TotalPaid = d.TotalPaid.Add(r.amount(row, port.ColTotalPaid))
		d.Outstanding = d.Outstanding.Add(r.amount(row, port.ColOutstanding))
	}

	result := make([]entity.DimensionHealth, 0, len(byKey))
	for _, key := range orderedKeys(byKey, order) {
		d := byKey[key]
		d.CollectionRate = money.Ratio(d.TotalPaid, d.TotalInvoiced)
		result = append(result, *d)
	}
	return result
}

func (s *financialHealthServiceImpl) byStatus(ctx context.Context, r *rowReader, orgID int64) []entity.InvoiceStatusHealth {
	rows := s.dimension(ctx, r, orgID, "invoice_status", statusOrder,
		s.aggRepo.ProjectCountsByInvoiceStatus, s.aggRepo.InvoiceStatsByStatus)

	result := make([]entity.InvoiceStatusHealth, 0, len(rows))
	for _, d := range rows {
		result = append(result, entity.InvoiceStatusHealth{
			Status:         entity.InvoiceStatus(d.Key),
			ProjectCount:   d.ProjectCount,
			InvoiceCount:   d.InvoiceCount,
			TotalAmount:    d.TotalInvoiced,
			TotalPaid:      d.TotalPaid,
			Outstanding:    d.Outstanding,
			CollectionRate: d.CollectionRate,
		})
	}
	return result
}

var chargeTypeOrder = []string{
	string(entity.ChargeTypePercentage),
	string(entity.ChargeTypeLumpSum),
	string(entity.ChargeTypePerSqft),
	string(entity.ChargeTypeHourly),
}

var statusOrder = []string{
	string(entity.InvoiceStatusDraft),
	string(entity.InvoiceStatusSent),
	string(entity.InvoiceStatusOverdue),
	string(entity.InvoiceStatusPaid),
	string(entity.InvoiceStatusCancelled),
}

func stageOrder() []string {
	order := make([]string, len(entity.ProjectStages))
	for i, stage := range entity.ProjectStages {
		order[i] = string(stage)
	}
	return order
}

func orderedKeys(byKey map[string]*entity.DimensionHealth, order []string) []string {
	keys := make([]string, 0, len(byKey))
	known := make(map[string]bool, len(order))
	for _, key := range order {
		known[key] = true
		if _, ok := byKey[key]; ok {
			keys = append(keys, key)
		}
	}

	var rest []string
	for key := range byKey {
		if !known[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// rowReader converts driver values from aggregate rows. A value it cannot
// read becomes zero and is logged.
type rowReader struct {
	logger         Logger
	organizationID int64
	failures       int
}

func (r *rowReader) queryFailed(query string, err error) {
	r.failures++
	r.logger.Error("Aggregate query failed, using zeros", "error", err, "query", query, "organization_id", r.organizationID)
}

func (r *rowReader) convertFailed(column string, value interface{}, err error) {
	r.failures++
	r.logger.Error("Unreadable aggregate value, using zero",
		"error", err,
		"column", column,
		"type", fmt.Sprintf("%T", value),
		"organization_id", r.organizationID)
}

func (r *rowReader) key(row port.AggregateRow) string {
	switch v := row[port.ColKey].(type) {
	case nil:
		return UnspecifiedKey
	case string:
		if v == "" {
			return UnspecifiedKey
		}
		return v
	case []byte:
		if len(v) == 0 {
			return UnspecifiedKey
		}
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func (r *rowReader) amount(row port.AggregateRow, column string) decimal.Decimal {
	value, ok := row[column]
	if !ok || value == nil {
		return decimal.Zero
	}
	d, err := ToDecimal(value)
	if err != nil {
		r.convertFailed(column, value, err)
		return decimal.Zero
	}
	return money.Round(d)
}

func (r *rowReader) count(row port.AggregateRow, column string) int64 {
	value, ok := row[column]
	if !ok || value == nil {
		return 0
	}
	d, err := ToDecimal(value)
	if err != nil {
		r.convertFailed(column, value, err)
		return 0
	}
	if !d.IsInteger() {
		r.convertFailed(column, value, fmt.Errorf("count %s is not a whole number", d))
		return 0
	}
	return d.IntPart()
}

// ToDecimal converts the numeric representations a SQL driver may return
func ToDecimal(value interface{}) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case int64:
		return decimal.NewFromInt(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int32:
		return decimal.NewFromInt32(v), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, fmt.Errorf("non-finite value %v", v)
		}
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case []byte:
		return decimal.NewFromString(strings.TrimSpace(string(v)))
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	case bool:
		return decimal.Zero, fmt.Errorf("boolean %s is not numeric", strconv.FormatBool(v))
	default:
		return decimal.Zero, fmt.Errorf("unsupported type %T", value)
	}
}
