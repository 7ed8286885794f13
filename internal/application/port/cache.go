package port

import "github.com/projectledger/finance-engine/internal/domain/entity"

// HealthCache holds computed dashboards per organization. Entries expire on
// their own; Invalidate drops one early.
type HealthCache interface {
	Get(organizationID int64) (*entity.FinancialHealth, bool)
	Put(organizationID int64, health *entity.FinancialHealth)
	Invalidate(organizationID int64)
	Purge()
}
