package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditFilter narrows an audit search. Zero-value fields are ignored.
type AuditFilter struct {
	EntityType string
	EntityID   string
	Limit      int
}

// AuditRepository is append-only: records are never updated or deleted.
type AuditRepository interface {
	Append(ctx context.Context, record *model.AuditRecord) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.AuditRecord, error)
	Search(ctx context.Context, tenantID uuid.UUID, filter AuditFilter) ([]model.AuditRecord, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(ctx context.Context, record *model.AuditRecord) error {
	return GetDB(ctx, r.db).Create(record).Error
}

func (r *auditRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.AuditRecord, error) {
	var record model.AuditRecord
	if err := GetDB(ctx, r.db).First(&record, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *auditRepository) Search(ctx context.Context, tenantID uuid.UUID, filter AuditFilter) ([]model.AuditRecord, error) {
	query := GetDB(ctx, r.db).Where("tenant_id = ?", tenantID)
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		query = query.Where("entity_id = ?", filter.EntityID)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 200
	}

	var records []model.AuditRecord
	if err := query.Order("created_at DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
