package repository

import (
	"context"
	"time"

	"backend/internal/engine"
	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaxRuleRepository interface {
	Create(ctx context.Context, rule *model.TaxRule) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.TaxRule, error)
	List(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]model.TaxRule, int64, error)
	CloseValidTo(ctx context.Context, tenantID, id uuid.UUID, validTo time.Time) error
	CountOverlapping(ctx context.Context, tenantID uuid.UUID, ruleCode, taxType string, from time.Time, to *time.Time) (int64, error)
	Lookup(ctx context.Context, tenantID uuid.UUID, codes []string, refDate time.Time) ([]engine.Rule, error)
}

type taxRuleRepository struct {
	db *gorm.DB
}

func NewTaxRuleRepository(db *gorm.DB) TaxRuleRepository {
	return &taxRuleRepository{db: db}
}

// The repository satisfies engine.RuleSource through Lookup.
var _ engine.RuleSource = (TaxRuleRepository)(nil)

func (r *taxRuleRepository) Create(ctx context.Context, rule *model.TaxRule) error {
	return GetDB(ctx, r.db).Create(rule).Error
}

func (r *taxRuleRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.TaxRule, error) {
	var rule model.TaxRule
	if err := GetDB(ctx, r.db).First(&rule, "id = ? AND tenant_id = ?", id, tenantID).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *taxRuleRepository) List(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]model.TaxRule, int64, error) {
	var rules []model.TaxRule
	var total int64

	db := GetDB(ctx, r.db).Model(&model.TaxRule{}).Where("tenant_id = ?", tenantID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("rule_code, tax_type, valid_from DESC").Offset(offset).Limit(limit).Find(&rules).Error; err != nil {
		return nil, 0, err
	}

	return rules, total, nil
}

// CloseValidTo is the only mutation allowed on an existing rule.
func (r *taxRuleRepository) CloseValidTo(ctx context.Context, tenantID, id uuid.UUID, validTo time.Time) error {
	return GetDB(ctx, r.db).Model(&model.TaxRule{}).
		Where("id = ? AND tenant_id = ? AND valid_to IS NULL", id, tenantID).
		Update("valid_to", validTo).Error
}

func (r *taxRuleRepository) CountOverlapping(ctx context.Context, tenantID uuid.UUID, ruleCode, taxType string, from time.Time, to *time.Time) (int64, error) {
	var count int64
	query := GetDB(ctx, r.db).Model(&model.TaxRule{}).
		Where("tenant_id = ? AND rule_code = ? AND tax_type = ?", tenantID, ruleCode, taxType)

	if to != nil {
		// Overlap if existing.from <= new.to AND (existing.to IS NULL OR existing.to >= new.from)
		query = query.Where("valid_from <= ? AND (valid_to IS NULL OR valid_to >= ?)", *to, from)
	} else {
		query = query.Where("(valid_to IS NULL OR valid_to >= ?)", from)
	}

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Lookup issues the single batched query backing engine.Resolver. Rows come
// back ordered valid_from DESC within each (code, type) pair so the resolver
// can take the first row per key.
func (r *taxRuleRepository) Lookup(ctx context.Context, tenantID uuid.UUID, codes []string, refDate time.Time) ([]engine.Rule, error) {
	var rows []model.TaxRule
	err := GetDB(ctx, r.db).
		Where("tenant_id = ? AND rule_code IN ? AND valid_from <= ? AND (valid_to IS NULL OR valid_to >= ?)",
			tenantID, codes, refDate, refDate).
		Order("rule_code, tax_type, valid_from DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	rules := make([]engine.Rule, 0, len(rows))
	for _, row := range rows {
		rules = append(rules, engine.Rule{
			RuleCode:  row.RuleCode,
			TaxType:   row.TaxType,
			Rate:      row.Rate,
			ValidFrom: row.ValidFrom,
			ValidTo:   row.ValidTo,
		})
	}
	return rules, nil
}
