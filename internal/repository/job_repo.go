package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type JobRepository interface {
	// CreateIdempotent inserts the job unless (tenant_id, idempotency_key)
	// already exists, in which case the existing row is loaded into job.
	// The returned bool reports whether a new row was created.
	CreateIdempotent(ctx context.Context, job *model.Job) (bool, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Job, error)
	List(ctx context.Context, tenantID uuid.UUID, status string, limit int) ([]model.Job, error)
	// TransitionStatus atomically moves a job from one of the expected
	// statuses to the target. Returns false when no row matched, i.e. a
	// concurrent transition won or the transition is not applicable.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []string, to string, updates map[string]interface{}) (bool, error)
	NextQueued(ctx context.Context, limit int) ([]model.Job, error)
}

type jobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) CreateIdempotent(ctx context.Context, job *model.Job) (bool, error) {
	db := GetDB(ctx, r.db)

	if job.IdempotencyKey == nil || *job.IdempotencyKey == "" {
		job.IdempotencyKey = nil
		return true, db.Create(job).Error
	}

	// The unique index on (tenant_id, idempotency_key) closes the
	// check-then-insert race; concurrent duplicates collapse onto one row.
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "idempotency_key"}},
		DoNothing: true,
	}).Create(job)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	// Conflict: return the existing job unchanged.
	var existing model.Job
	if err := db.First(&existing, "tenant_id = ? AND idempotency_key = ?", job.TenantID, *job.IdempotencyKey).Error; err != nil {
		return false, err
	}
	*job = existing
	return false, nil
}

func (r *jobRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Job, error) {
	var job model.Job
	if err := GetDB(ctx, r.db).First(&job, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) List(ctx context.Context, tenantID uuid.UUID, status string, limit int) ([]model.Job, error) {
	var jobs []model.Job
	query := GetDB(ctx, r.db).Where("tenant_id = ?", tenantID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("created_at DESC").Limit(limit).Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *jobRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from []string, to string, updates map[string]interface{}) (bool, error) {
	values := map[string]interface{}{"status": to}
	for k, v := range updates {
		values[k] = v
	}

	res := GetDB(ctx, r.db).Model(&model.Job{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *jobRepository) NextQueued(ctx context.Context, limit int) ([]model.Job, error) {
	var jobs []model.Job
	if err := GetDB(ctx, r.db).
		Where("status = ?", model.JobQueued).
		Order("created_at").
		Limit(limit).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
