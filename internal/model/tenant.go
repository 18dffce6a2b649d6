package model

import (
	"time"

	"github.com/google/uuid"
)

// Tenant represents a company whose invoices are validated by the engine.
// Every rule, job and audit record is scoped to exactly one tenant.
type Tenant struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Slug      string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"slug"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CNPJ      string    `gorm:"type:varchar(20)" json:"cnpj"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
