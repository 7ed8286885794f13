package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/projectledger/finance-engine/internal/application/port"
	"github.com/projectledger/finance-engine/internal/domain/entity"
)

// Mock repositories. Unset funcs fall back to simple in-memory behaviour.

type mockOrgRepo struct {
	orgs        map[int64]*entity.Organization
	getByIDFunc func(ctx context.Context, id int64) (*entity.Organization, error)
	calls       int
}

func (m *mockOrgRepo) Create(ctx context.Context, org *entity.Organization) error {
	if m.orgs == nil {
		m.orgs = map[int64]*entity.Organization{}
	}
	org.ID = int64(len(m.orgs) + 1)
	m.orgs[org.ID] = org
	return nil
}

func (m *mockOrgRepo) GetByID(ctx context.Context, id int64) (*entity.Organization, error) {
	m.calls++
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return m.orgs[id], nil
}

type mockClientRepo struct {
	clients map[int64]*entity.Client
}

func (m *mockClientRepo) Create(ctx context.Context, client *entity.Client) error {
	if m.clients == nil {
		m.clients = map[int64]*entity.Client{}
	}
	client.ID = int64(len(m.clients) + 1)
	m.clients[client.ID] = client
	return nil
}

func (m *mockClientRepo) GetByID(ctx context.Context, id int64) (*entity.Client, error) {
	return m.clients[id], nil
}

type mockProjectRepo struct {
	projects        map[int64]*entity.Project
	updateStageFunc func(ctx context.Context, id int64, stage entity.ProjectStage) error
}

func (m *mockProjectRepo) Create(ctx context.Context, project *entity.Project) error {
	if m.projects == nil {
		m.projects = map[int64]*entity.Project{}
	}
	project.ID = int64(len(m.projects) + 1)
	m.projects[project.ID] = project
	return nil
}

func (m *mockProjectRepo) GetByID(ctx context.Context, id int64) (*entity.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockProjectRepo) UpdateStage(ctx context.Context, id int64, stage entity.ProjectStage) error {
	if m.updateStageFunc != nil {
		return m.updateStageFunc(ctx, id, stage)
	}
	m.projects[id].Stage = stage
	return nil
}

type mockPhaseRepo struct {
	phases map[int64]*entity.Phase
}

func (m *mockPhaseRepo) Create(ctx context.Context, phase *entity.Phase) error {
	return nil
}

func (m *mockPhaseRepo) GetByID(ctx context.Context, id int64) (*entity.Phase, error) {
	return m.phases[id], nil
}

type mockUserRepo struct {
	users map[int64]*entity.User
}

func (m *mockUserRepo) Create(ctx context.Context, user *entity.User) error {
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return m.users[id], nil
}

type mockInvoiceRepo struct {
	invoices map[int64]*entity.Invoice
	nextID   int64

	createFunc                func(ctx context.Context, invoice *entity.Invoice) error
	updateFunc                func(ctx context.Context, invoice *entity.Invoice) error
	updateStatusFunc          func(ctx context.Context, id int64, status entity.InvoiceStatus) error
	listFunc                  func(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error)
	listPriorSubtotalsFunc    func(ctx context.Context, projectID, beforeID int64) ([]decimal.Decimal, error)
	maxSequenceSuffixFunc     func(ctx context.Context, orgID int64, prefix string) (int, error)
	listOverdueCandidatesFunc func(ctx context.Context, asOf time.Time, limit int) ([]*entity.Invoice, error)

	updates int
}

func (m *mockInvoiceRepo) store() map[int64]*entity.Invoice {
	if m.invoices == nil {
		m.invoices = map[int64]*entity.Invoice{}
	}
	return m.invoices
}

func copyInvoice(inv *entity.Invoice) *entity.Invoice {
	cp := *inv
	cp.Items = append([]entity.InvoiceItem(nil), inv.Items...)
	return &cp
}

func (m *mockInvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, invoice)
	}
	m.nextID++
	invoice.ID = m.nextID
	m.store()[invoice.ID] = copyInvoice(invoice)
	return nil
}

func (m *mockInvoiceRepo) GetByID(ctx context.Context, id int64) (*entity.Invoice, error) {
	inv, ok := m.store()[id]
	if !ok {
		return nil, nil
	}
	return copyInvoice(inv), nil
}

func (m *mockInvoiceRepo) Update(ctx context.Context, invoice *entity.Invoice) error {
	m.updates++
	if m.updateFunc != nil {
		return m.updateFunc(ctx, invoice)
	}
	m.store()[invoice.ID] = copyInvoice(invoice)
	return nil
}

func (m *mockInvoiceRepo) UpdateStatus(ctx context.Context, id int64, status entity.InvoiceStatus) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	if inv, ok := m.store()[id]; ok {
		inv.Status = status
	}
	return nil
}

func (m *mockInvoiceRepo) Delete(ctx context.Context, id int64) error {
	delete(m.store(), id)
	return nil
}

func (m *mockInvoiceRepo) List(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return []*entity.Invoice{}, nil
}

func (m *mockInvoiceRepo) ListPriorSubtotals(ctx context.Context, projectID, beforeID int64) ([]decimal.Decimal, error) {
	if m.listPriorSubtotalsFunc != nil {
		return m.listPriorSubtotalsFunc(ctx, projectID, beforeID)
	}
	var subtotals []decimal.Decimal
	for id := int64(1); id <= m.nextID; id++ {
		inv, ok := m.store()[id]
		if !ok || (beforeID != 0 && id >= beforeID) || inv.ProjectID == nil || *inv.ProjectID != projectID {
			continue
		}
		if inv.Status == entity.InvoiceStatusCancelled {
			continue
		}
		subtotals = append(subtotals, inv.Subtotal)
	}
	return subtotals, nil
}

func (m *mockInvoiceRepo) MaxSequenceSuffix(ctx context.Context, orgID int64, prefix string) (int, error) {
	if m.maxSequenceSuffixFunc != nil {
		return m.maxSequenceSuffixFunc(ctx, orgID, prefix)
	}
	return len(m.store()), nil
}

func (m *mockInvoiceRepo) ListOverdueCandidates(ctx context.Context, asOf time.Time, limit int) ([]*entity.Invoice, error) {
	if m.listOverdueCandidatesFunc != nil {
		return m.listOverdueCandidatesFunc(ctx, asOf, limit)
	}
	return nil, nil
}

type mockAssignmentRepo struct {
	assignments map[int64]*entity.ResourceAssignment
	nextID      int64

	listPlannedHoursFunc func(ctx context.Context, projectID, userID int64) ([]decimal.Decimal, error)
}

func (m *mockAssignmentRepo) store() map[int64]*entity.ResourceAssignment {
	if m.assignments == nil {
		m.assignments = map[int64]*entity.ResourceAssignment{}
	}
	return m.assignments
}

func (m *mockAssignmentRepo) Create(ctx context.Context, a *entity.ResourceAssignment) error {
	m.nextID++
	a.ID = m.nextID
	cp := *a
	m.store()[a.ID] = &cp
	return nil
}

func (m *mockAssignmentRepo) GetByID(ctx context.Context, id int64) (*entity.ResourceAssignment, error) {
	a, ok := m.store()[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *mockAssignmentRepo) GetByPhaseAndUser(ctx context.Context, phaseID, userID int64) (*entity.ResourceAssignment, error) {
	for _, a := range m.store() {
		if a.PhaseID == phaseID && a.UserID == userID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockAssignmentRepo) Update(ctx context.Context, a *entity.ResourceAssignment) error {
	cp := *a
	m.store()[a.ID] = &cp
	return nil
}

func (m *mockAssignmentRepo) Delete(ctx context.Context, id int64) error {
	delete(m.store(), id)
	return nil
}

func (m *mockAssignmentRepo) ListByPhase(ctx context.Context, phaseID int64) ([]*entity.ResourceAssignment, error) {
	var result []*entity.ResourceAssignment
	for id := int64(1); id <= m.nextID; id++ {
		if a, ok := m.store()[id]; ok && a.PhaseID == phaseID {
			cp := *a
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *mockAssignmentRepo) ListPlannedHoursInProject(ctx context.Context, projectID, userID int64) ([]decimal.Decimal, error) {
	if m.listPlannedHoursFunc != nil {
		return m.listPlannedHoursFunc(ctx, projectID, userID)
	}
	return nil, nil
}

type mockAggregateRepo struct {
	overallInvoice  func() (port.AggregateRow, error)
	overallProject  func() (port.AggregateRow, error)
	projectByCharge func() ([]port.AggregateRow, error)
	invoiceByCharge func() ([]port.AggregateRow, error)
	projectByStage  func() ([]port.AggregateRow, error)
	invoiceByStage  func() ([]port.AggregateRow, error)
	projectByStatus func() ([]port.AggregateRow, error)
	invoiceByStatus func() ([]port.AggregateRow, error)

	queries int
}

func (m *mockAggregateRepo) row(fn func() (port.AggregateRow, error)) (port.AggregateRow, error) {
	m.queries++
	if fn == nil {
		return port.AggregateRow{}, nil
	}
	return fn()
}

func (m *mockAggregateRepo) rows(fn func() ([]port.AggregateRow, error)) ([]port.AggregateRow, error) {
	m.queries++
	if fn == nil {
		return nil, nil
	}
	return fn()
}

func (m *mockAggregateRepo) OverallInvoiceStats(ctx context.Context, orgID int64) (port.AggregateRow, error) {
	return m.row(m.overallInvoice)
}

func (m *mockAggregateRepo) OverallProjectStats(ctx context.Context, orgID int64) (port.AggregateRow, error) {
	return m.row(m.overallProject)
}

func (m *mockAggregateRepo) ProjectStatsByChargeType(ctx context.Context, orgID int64) ([]port.AggregateRow, error) {
	return m.rows(m.projectByCharge)
}

func (m *mockAggregateRepo) InvoiceStatsByChargeType(ctx context.Context, orgID int64) ([]port.AggregateRow, error) {
	return m.rows(m.invoiceByCharge)
}

func (m *mockAggregateRepo) ProjectStatsByStage(ctx context.Context, orgID int64) ([]port.AggregateRow, error) {
	return m.rows(m.projectByStage)
}

func (m *mockAggregateRepo) InvoiceStatsByStage(ctx context.Context, orgID int64) ([]port.AggregateRow, error) {
	return m.rows(m.invoiceByStage)
}

func (m *mockAggregateRepo) ProjectCountsByInvoiceStatus(ctx context.Context, orgID int64) ([]port.AggregateRow, error) {
	return m.rows(m.projectByStatus)
}

func (m *mockAggregateRepo) InvoiceStatsByStatus(ctx context.Context, orgID int64) ([]port.AggregateRow, error) {
	return m.rows(m.invoiceByStatus)
}

// mapCache is a HealthCache without expiry
type mapCache struct {
	entries map[int64]*entity.FinancialHealth
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[int64]*entity.FinancialHealth{}}
}

func (c *mapCache) Get(orgID int64) (*entity.FinancialHealth, bool) {
	h, ok := c.entries[orgID]
	return h, ok
}

func (c *mapCache) Put(orgID int64, health *entity.FinancialHealth) {
	c.entries[orgID] = health
}

func (c *mapCache) Invalidate(orgID int64) {
	delete(c.entries, orgID)
}

func (c *mapCache) Purge() {
	c.entries = map[int64]*entity.FinancialHealth{}
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockLogger struct {
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.errors = append(m.errors, msg)
}
