// Package connection persists provider connection records, one per
// (tenant, provider) pair.
package connection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/castlebay/ledgerlink/internal/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store is the connection-record persistence surface consumed by the token
// manager and the connect flow. Records are never deleted here; removal is an
// administrative operation outside this service.
type Store interface {
	// Get returns the record for (tenantID, provider), or nil when none exists.
	Get(ctx context.Context, tenantID, provider string) (*models.Connection, error)
	// Upsert writes the record, assigning an ID on first save.
	Upsert(ctx context.Context, rec *models.Connection) (*models.Connection, error)
}

type gormStore struct {
	db *gorm.DB
}

// NewStore returns a gorm-backed Store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Get(ctx context.Context, tenantID, provider string) (*models.Connection, error) {
	var rec models.Connection
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND provider = ?", tenantID, provider).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load connection for tenant %s: %w", tenantID, err)
	}
	return &rec, nil
}

func (s *gormStore) Upsert(ctx context.Context, rec *models.Connection) (*models.Connection, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.UpdatedAt = time.Now()
	if err := s.db.WithContext(ctx).Save(rec).Error; err != nil {
		return nil, fmt.Errorf("save connection for tenant %s: %w", rec.TenantID, err)
	}
	return rec, nil
}
