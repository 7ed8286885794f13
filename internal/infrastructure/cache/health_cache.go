package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/projectledger/finance-engine/internal/application/port"
	"github.com/projectledger/finance-engine/internal/domain/entity"
)

const (
	DefaultTTL        = 5 * time.Minute
	DefaultMaxEntries = 1000
)

// HealthCache keeps financial dashboards per organization in a size-bounded
// LRU whose entries expire after a fixed TTL. Safe for concurrent use.
type HealthCache struct {
	lru    *expirable.LRU[int64, *entity.FinancialHealth]
	logger *zap.Logger
}

// NewHealthCache creates a cache. Non-positive arguments fall back to the defaults.
func NewHealthCache(maxEntries int, ttl time.Duration, logger *zap.Logger) *HealthCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	logger.Info("Financial health cache configured",
		zap.Int("max_entries", maxEntries),
		zap.Duration("ttl", ttl))

	return &HealthCache{
		lru:    expirable.NewLRU[int64, *entity.FinancialHealth](maxEntries, nil, ttl),
		logger: logger,
	}
}

// Get returns the cached dashboard of an organization
func (c *HealthCache) Get(organizationID int64) (*entity.FinancialHealth, bool) {
	return c.lru.Get(organizationID)
}

// Put stores a dashboard, evicting the least recently used entry when full
func (c *HealthCache) Put(organizationID int64, health *entity.FinancialHealth) {
	if evicted := c.lru.Add(organizationID, health); evicted {
		c.logger.Debug("Financial health cache evicted an entry", zap.Int64("organization_id", organizationID))
	}
}

// Invalidate drops the dashboard of an organization
func (c *HealthCache) Invalidate(organizationID int64) {
	c.lru.Remove(organizationID)
}

// Purge empties the cache
func (c *HealthCache) Purge() {
	c.lru.Purge()
}

// Len returns the number of live entries
func (c *HealthCache) Len() int {
	return c.lru.Len()
}

var _ port.HealthCache = (*HealthCache)(nil)
