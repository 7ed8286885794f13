package container

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/projectledger/finance-engine/internal/application/port"
	"github.com/projectledger/finance-engine/internal/application/service"
	"github.com/projectledger/finance-engine/internal/infrastructure/cache"
	"github.com/projectledger/finance-engine/internal/infrastructure/export"
	"github.com/projectledger/finance-engine/internal/infrastructure/persistence/repository"
	"github.com/projectledger/finance-engine/internal/infrastructure/persistence/sqlite"
	"github.com/projectledger/finance-engine/internal/infrastructure/worker"
	"github.com/projectledger/finance-engine/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	Conn           *database.DB
	TransactionMgr *sqlite.DB
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Organization port.OrganizationRepository
	Client       port.ClientRepository
	Project      port.ProjectRepository
	Phase        port.PhaseRepository
	User         port.UserRepository
	Invoice      port.InvoiceRepository
	Assignment   port.AssignmentRepository
	Aggregate    port.FinancialAggregateRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Invoice         service.InvoiceService
	Resource        service.ResourceService
	Project         service.ProjectService
	FinancialHealth service.FinancialHealthService
}

// ServiceDeps holds the dependencies of ProvideServices.
type ServiceDeps struct {
	Repos       *RepositoryBundle
	TxManager   port.TransactionManager
	HealthCache port.HealthCache
	Ledger      LedgerConfig
	Logger      *zap.Logger
}

// ProvideDatabase opens the database, applies the embedded migrations when
// configured to, and wraps the connection in a transaction manager.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	conn, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if _, err := database.NewMigrator(conn, logger).RunMigrations(database.EmbeddedMigrations()); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &DatabaseBundle{
		Conn:           conn,
		TransactionMgr: sqlite.NewDB(conn.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Organization: repository.NewOrganizationRepository(sqlDB, logger),
		Client:       repository.NewClientRepository(sqlDB, logger),
		Project:      repository.NewProjectRepository(sqlDB, logger),
		Phase:        repository.NewPhaseRepository(sqlDB, logger),
		User:         repository.NewUserRepository(sqlDB, logger),
		Invoice:      repository.NewInvoiceRepository(sqlDB, logger),
		Assignment:   repository.NewAssignmentRepository(sqlDB, logger),
		Aggregate:    repository.NewFinancialAggregateRepository(sqlDB, logger),
	}, nil
}

// ProvideHealthCache creates the financial health cache.
func ProvideHealthCache(cfg *CacheConfig, logger *zap.Logger) *cache.HealthCache {
	return cache.NewHealthCache(cfg.MaxEntries, cfg.TTL, logger)
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.HealthCache == nil {
		return nil, fmt.Errorf("health cache is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}
	repos := deps.Repos

	return &ServiceBundle{
		Invoice: service.NewInvoiceService(
			repos.Organization,
			repos.Client,
			repos.Project,
			repos.Invoice,
			service.NewSequenceGenerator(repos.Invoice, nil),
			deps.TxManager,
			service.InvoiceServiceConfig{
				StrictStatusTransitions: deps.Ledger.StrictStatusTransitions,
			},
			serviceLogger,
		),
		Resource: service.NewResourceService(
			repos.Phase,
			repos.User,
			repos.Assignment,
			deps.TxManager,
			serviceLogger,
		),
		Project: service.NewProjectService(
			repos.Project,
			repos.Invoice,
			deps.TxManager,
			serviceLogger,
		),
		FinancialHealth: service.NewFinancialHealthService(
			repos.Organization,
			repos.Aggregate,
			deps.HealthCache,
			serviceLogger,
		),
	}, nil
}

// ProvideExporter creates the dashboard workbook exporter.
func ProvideExporter(logger *zap.Logger) *export.WorkbookExporter {
	return export.NewWorkbookExporter(logger)
}

// ProvideWorkers creates the worker manager and registers the enabled workers.
func ProvideWorkers(cfg *WorkerConfig, invoices service.InvoiceService, logger *zap.Logger) (*worker.Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("worker config is required")
	}
	if invoices == nil {
		return nil, fmt.Errorf("invoice service is required")
	}

	manager := worker.NewManager(logger)
	if cfg.OverdueEnabled {
		manager.Register(worker.NewOverdueWorker(worker.OverdueWorkerConfig{
			PollInterval: cfg.OverduePollInterval,
			BatchSize:    cfg.OverdueBatchSize,
		}, invoices, logger))
	}
	return manager, nil
}
