package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// JobStatus enum constants
const (
	JobQueued     = "QUEUED"
	JobRunning    = "RUNNING"
	JobSuccess    = "SUCCESS"
	JobFailed     = "FAILED"
	JobNeedsHuman = "NEEDS_HUMAN"
)

// JobType enum constants. The worker maps each one to a statically-known
// handler; unknown types are rejected at job creation.
const (
	JobTypeValidateInvoice  = "validate_invoice"
	JobTypeComplianceReport = "compliance_report"
	JobTypeSimulation       = "whatif_simulation"
	JobTypeReconciliation   = "reconciliation"
)

// KnownJobTypes lists every job type the worker can execute.
var KnownJobTypes = map[string]bool{
	JobTypeValidateInvoice:  true,
	JobTypeComplianceReport: true,
	JobTypeSimulation:       true,
	JobTypeReconciliation:   true,
}

// Job is a trackable unit of asynchronous work. Rows are never deleted;
// a failed job is superseded by resetting it to QUEUED via reprocess.
// The composite unique index on (tenant_id, idempotency_key) closes the
// duplicate-submission race at the storage layer.
type Job struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID       uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_jobs_tenant_idem" json:"tenant_id"`
	JobType        string         `gorm:"type:varchar(100);not null" json:"job_type"`
	Status         string         `gorm:"type:varchar(30);not null;default:'QUEUED';index:idx_jobs_tenant_status" json:"status"`
	IdempotencyKey *string        `gorm:"type:varchar(200);uniqueIndex:idx_jobs_tenant_idem" json:"idempotency_key"`
	Payload        datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"payload"`
	Result         datatypes.JSON `gorm:"type:jsonb" json:"result"`
	ErrorMessage   *string        `gorm:"type:text" json:"error_message"`
	CreatedAt      time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}
