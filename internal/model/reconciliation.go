package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ReconciliationRun records the outcome of matching a receivables ledger
// against known invoices. Details carry the classified exceptions.
type ReconciliationRun struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	TotalRecords int            `gorm:"not null;default:0" json:"total_records"`
	Matched      int            `gorm:"not null;default:0" json:"matched"`
	Exceptions   int            `gorm:"not null;default:0" json:"exceptions"`
	Details      datatypes.JSON `gorm:"type:jsonb" json:"details"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
}
