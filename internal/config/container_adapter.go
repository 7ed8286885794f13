package config

import (
	"github.com/projectledger/finance-engine/internal/container"
	"github.com/projectledger/finance-engine/pkg/utils"
)

// ToContainerConfig converts the file-based configuration into the
// container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			AutoMigrate:     c.Database.AutoMigrate,
		},
		Cache: container.CacheConfig{
			TTL:        c.Cache.TTL,
			MaxEntries: c.Cache.MaxEntries,
		},
		Ledger: container.LedgerConfig{
			StrictStatusTransitions: c.Ledger.StrictStatusTransitions,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
		},
		Worker: container.WorkerConfig{
			OverdueEnabled:      c.Worker.OverdueEnabled,
			OverduePollInterval: c.Worker.OverduePollInterval,
			OverdueBatchSize:    c.Worker.OverdueBatchSize,
		},
	}
}

// ToLoggerConfig returns the logger settings.
func (c *Config) ToLoggerConfig() utils.LoggerConfig {
	return utils.LoggerConfig{
		Level:      c.Logger.Level,
		OutputPath: c.Logger.OutputPath,
		Format:     c.Logger.Format,
	}
}
