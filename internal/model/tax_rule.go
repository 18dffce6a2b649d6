package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxType enum constants
const (
	TaxTypeCBS = "CBS"
	TaxTypeIBS = "IBS"
	TaxTypeIS  = "IS"
)

// Default rule codes applied when an invoice item carries none
const (
	DefaultCBSRuleCode = "STD_CBS"
	DefaultIBSRuleCode = "STD_IBS"
)

// TaxRule stores tenant-scoped tax rates with temporal validity.
// Rows are immutable once created except for closing ValidTo.
type TaxRule struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_tax_rules_lookup" json:"tenant_id"`
	RuleCode    string          `gorm:"type:varchar(50);not null;index:idx_tax_rules_lookup" json:"rule_code"`
	TaxType     string          `gorm:"type:varchar(10);not null;index:idx_tax_rules_lookup" json:"tax_type"` // CBS, IBS, IS
	Rate        decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"rate"`                              // e.g. 0.0925 = 9.25%
	ValidFrom   time.Time       `gorm:"type:date;not null;index" json:"valid_from"`
	ValidTo     *time.Time      `gorm:"type:date;index" json:"valid_to"` // nullable = open-ended
	Description string          `gorm:"type:text" json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
