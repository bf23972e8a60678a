package models

import "time"

// Connection status values. A connection starts in StatusPendingBusiness after
// the authorization-code exchange and becomes StatusActive once the tenant has
// picked the business the connection operates against.
const (
	StatusActive          = "active"
	StatusPendingBusiness = "pending_business_selection"
	StatusRefreshFailed   = "token_refresh_failed"
)

// Connection stores the OAuth grant tying a tenant to the accounting provider.
type Connection struct {
	ID           string `gorm:"primaryKey"` // UUID
	TenantID     string `gorm:"uniqueIndex:idx_tenant_provider"`
	Provider     string `gorm:"uniqueIndex:idx_tenant_provider"`
	BusinessID   string // provider-side business identifier; empty until selected
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Status       string `gorm:"default:pending_business_selection"`
	LastUsedAt   time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
