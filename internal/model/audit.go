package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Audit action constants
const (
	ActionValidationPass    = "validation_pass"
	ActionValidationFail    = "validation_fail"
	ActionReportGenerated   = "compliance_report_generated"
	ActionSimulationRun     = "whatif_simulation"
	ActionReconciliationRun = "reconciliation_completed"
	ActionArtifactCreated   = "artifact_created"
	ActionCreateTaxRule     = "create_tax_rule"
	ActionCloseTaxRule      = "close_tax_rule"
)

// AuditRecord is an append-only, tamper-evident trace of every engine result.
// Payload embeds a SHA-256 checksum under the "_checksum" key, computed over
// the canonical serialization of the payload before the key is attached.
type AuditRecord struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	UserID     *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"` // Nullable when written by the worker
	Action     string         `gorm:"type:varchar(100);not null;index" json:"action"`
	EntityType string         `gorm:"type:varchar(100);not null;index" json:"entity_type"`
	EntityID   *string        `gorm:"type:varchar(200);index" json:"entity_id"`
	Payload    datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"payload"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}
