package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SimulationRun persists a what-if simulation together with its full result
// so past scenarios can be revisited without recomputation.
type SimulationRun struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name         string         `gorm:"type:varchar(200);not null" json:"name"`
	BaseScenario datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"base_scenario"`
	Scenarios    datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"scenarios"`
	Result       datatypes.JSON `gorm:"type:jsonb" json:"result"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
}
