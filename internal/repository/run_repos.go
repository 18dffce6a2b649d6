package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SimulationRepository interface {
	Create(ctx context.Context, run *model.SimulationRun) error
	List(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]model.SimulationRun, int64, error)
}

type simulationRepository struct {
	db *gorm.DB
}

func NewSimulationRepository(db *gorm.DB) SimulationRepository {
	return &simulationRepository{db: db}
}

func (r *simulationRepository) Create(ctx context.Context, run *model.SimulationRun) error {
	return GetDB(ctx, r.db).Create(run).Error
}

func (r *simulationRepository) List(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]model.SimulationRun, int64, error) {
	var runs []model.SimulationRun
	var total int64

	db := GetDB(ctx, r.db).Model(&model.SimulationRun{}).Where("tenant_id = ?", tenantID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&runs).Error; err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}

type ReconciliationRepository interface {
	Create(ctx context.Context, run *model.ReconciliationRun) error
	List(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]model.ReconciliationRun, int64, error)
}

type reconciliationRepository struct {
	db *gorm.DB
}

func NewReconciliationRepository(db *gorm.DB) ReconciliationRepository {
	return &reconciliationRepository{db: db}
}

func (r *reconciliationRepository) Create(ctx context.Context, run *model.ReconciliationRun) error {
	return GetDB(ctx, r.db).Create(run).Error
}

func (r *reconciliationRepository) List(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]model.ReconciliationRun, int64, error) {
	var runs []model.ReconciliationRun
	var total int64

	db := GetDB(ctx, r.db).Model(&model.ReconciliationRun{}).Where("tenant_id = ?", tenantID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&runs).Error; err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}
