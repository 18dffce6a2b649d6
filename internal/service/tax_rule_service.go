package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/engine"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateTaxRuleRequest struct {
	RuleCode    string `json:"rule_code" binding:"required"`
	TaxType     string `json:"tax_type" binding:"required,oneof=CBS IBS IS"`
	Rate        string `json:"rate" binding:"required"` // Decimal string, e.g. "0.0925"
	ValidFrom   string `json:"valid_from" binding:"required"`
	ValidTo     string `json:"valid_to"` // YYYY-MM-DD, nullable
	Description string `json:"description"`
}

type CloseTaxRuleRequest struct {
	ValidTo string `json:"valid_to" binding:"required"` // YYYY-MM-DD
}

type TaxRuleResponse struct {
	ID          string  `json:"id"`
	RuleCode    string  `json:"rule_code"`
	TaxType     string  `json:"tax_type"`
	Rate        string  `json:"rate"`
	ValidFrom   string  `json:"valid_from"`
	ValidTo     *string `json:"valid_to"`
	Description string  `json:"description"`
	CreatedAt   string  `json:"created_at"`
}

type ResolvedRateResponse struct {
	RuleCode      string `json:"rule_code"`
	TaxType       string `json:"tax_type"`
	Rate          string `json:"rate"`
	ReferenceDate string `json:"reference_date"`
}

// --- Interface ---

type TaxRuleService interface {
	GetTaxRules(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]TaxRuleResponse, int64, error)
	CreateTaxRule(ctx context.Context, tenantID uuid.UUID, req CreateTaxRuleRequest, userID string) (TaxRuleResponse, error)
	CloseTaxRule(ctx context.Context, tenantID uuid.UUID, id string, req CloseTaxRuleRequest, userID string) (TaxRuleResponse, error)
	ResolveRate(ctx context.Context, tenantID uuid.UUID, ruleCode, taxType string, refDate time.Time) (*ResolvedRateResponse, error)
}

type taxRuleService struct {
	repo     repository.TaxRuleRepository
	resolver *engine.Resolver
	audit    AuditService
	tx       repository.TransactionManager
}

func NewTaxRuleService(repo repository.TaxRuleRepository, audit AuditService, tx repository.TransactionManager) TaxRuleService {
	return &taxRuleService{
		repo:     repo,
		resolver: engine.NewResolver(repo),
		audit:    audit,
		tx:       tx,
	}
}

// --- Implementation ---

func (s *taxRuleService) GetTaxRules(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]TaxRuleResponse, int64, error) {
	rules, total, err := s.repo.List(ctx, tenantID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch tax rules: %w", err)
	}

	res := make([]TaxRuleResponse, 0, len(rules))
	for _, r := range rules {
		res = append(res, toTaxRuleResponse(r))
	}
	return res, total, nil
}

// CreateTaxRule rejects overlapping validity windows for the same
// (rule_code, tax_type) at creation time, so the resolver never has to
// disambiguate freshly-created rules. The overlap check and the insert run
// in one transaction.
func (s *taxRuleService) CreateTaxRule(ctx context.Context, tenantID uuid.UUID, req CreateTaxRuleRequest, userID string) (TaxRuleResponse, error) {
	rate, validFrom, validTo, err := parseTaxRuleFields(req.Rate, req.ValidFrom, req.ValidTo)
	if err != nil {
		return TaxRuleResponse{}, err
	}

	rule := model.TaxRule{
		TenantID:    tenantID,
		RuleCode:    req.RuleCode,
		TaxType:     req.TaxType,
		Rate:        rate,
		ValidFrom:   validFrom,
		ValidTo:     validTo,
		Description: req.Description,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		count, err := s.repo.CountOverlapping(txCtx, tenantID, req.RuleCode, req.TaxType, validFrom, validTo)
		if err != nil {
			return fmt.Errorf("failed to check overlap: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("a rule for '%s' (%s) already exists with overlapping validity dates", req.RuleCode, req.TaxType)
		}
		return s.repo.Create(txCtx, &rule)
	})
	if err != nil {
		return TaxRuleResponse{}, err
	}

	s.writeAudit(ctx, tenantID, userID, model.ActionCreateTaxRule, rule.ID.String(), map[string]interface{}{
		"rule_code":  rule.RuleCode,
		"tax_type":   rule.TaxType,
		"rate":       rule.Rate.StringFixed(4),
		"valid_from": rule.ValidFrom.Format("2006-01-02"),
	})

	return toTaxRuleResponse(rule), nil
}

// CloseTaxRule sets valid_to on an open-ended rule. Rules are otherwise
// immutable once created.
func (s *taxRuleService) CloseTaxRule(ctx context.Context, tenantID uuid.UUID, id string, req CloseTaxRuleRequest, userID string) (TaxRuleResponse, error) {
	ruleID, err := uuid.Parse(id)
	if err != nil {
		return TaxRuleResponse{}, fmt.Errorf("invalid tax rule id: %w", err)
	}

	validTo, err := time.Parse("2006-01-02", req.ValidTo)
	if err != nil {
		return TaxRuleResponse{}, fmt.Errorf("invalid valid_to date format (expected YYYY-MM-DD): %w", err)
	}

	rule, err := s.repo.FindByID(ctx, tenantID, ruleID)
	if err != nil {
		return TaxRuleResponse{}, fmt.Errorf("tax rule not found: %w", err)
	}
	if rule.ValidTo != nil {
		return TaxRuleResponse{}, fmt.Errorf("tax rule is already closed at %s", rule.ValidTo.Format("2006-01-02"))
	}
	if validTo.Before(rule.ValidFrom) {
		return TaxRuleResponse{}, fmt.Errorf("valid_to must not precede valid_from")
	}

	if err := s.repo.CloseValidTo(ctx, tenantID, ruleID, validTo); err != nil {
		return TaxRuleResponse{}, fmt.Errorf("failed to close tax rule: %w", err)
	}
	rule.ValidTo = &validTo

	s.writeAudit(ctx, tenantID, userID, model.ActionCloseTaxRule, rule.ID.String(), map[string]interface{}{
		"rule_code": rule.RuleCode,
		"tax_type":  rule.TaxType,
		"valid_to":  req.ValidTo,
	})

	return toTaxRuleResponse(*rule), nil
}

func (s *taxRuleService) ResolveRate(ctx context.Context, tenantID uuid.UUID, ruleCode, taxType string, refDate time.Time) (*ResolvedRateResponse, error) {
	rate, err := s.resolver.Resolve(ctx, tenantID, ruleCode, taxType, refDate)
	if err != nil {
		return nil, err
	}
	return &ResolvedRateResponse{
		RuleCode:      ruleCode,
		TaxType:       taxType,
		Rate:          rate.StringFixed(4),
		ReferenceDate: refDate.Format("2006-01-02"),
	}, nil
}

// --- Helpers ---

func parseTaxRuleFields(rateStr, fromStr, toStr string) (decimal.Decimal, time.Time, *time.Time, error) {
	rate, err := decimal.NewFromString(rateStr)
	if err != nil || rate.Sign() < 0 {
		return decimal.Zero, time.Time{}, nil, fmt.Errorf("invalid rate value: '%s'", rateStr)
	}

	validFrom, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return decimal.Zero, time.Time{}, nil, fmt.Errorf("invalid valid_from date format (expected YYYY-MM-DD): %w", err)
	}

	var validTo *time.Time
	if toStr != "" {
		t, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return decimal.Zero, time.Time{}, nil, fmt.Errorf("invalid valid_to date format (expected YYYY-MM-DD): %w", err)
		}
		if t.Before(validFrom) {
			return decimal.Zero, time.Time{}, nil, fmt.Errorf("valid_to must not precede valid_from")
		}
		validTo = &t
	}

	return rate, validFrom, validTo, nil
}

func toTaxRuleResponse(r model.TaxRule) TaxRuleResponse {
	resp := TaxRuleResponse{
		ID:          r.ID.String(),
		RuleCode:    r.RuleCode,
		TaxType:     r.TaxType,
		Rate:        r.Rate.StringFixed(4),
		ValidFrom:   r.ValidFrom.Format("2006-01-02"),
		Description: r.Description,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
	if r.ValidTo != nil {
		s := r.ValidTo.Format("2006-01-02")
		resp.ValidTo = &s
	}
	return resp
}

// writeAudit is best-effort: a failed audit write must not fail the mutation.
func (s *taxRuleService) writeAudit(ctx context.Context, tenantID uuid.UUID, userID, action, entityID string, payload map[string]interface{}) {
	var uid *uuid.UUID
	if userID != "" {
		if parsed, err := uuid.Parse(userID); err == nil {
			uid = &parsed
		}
	}
	_, _ = s.audit.Record(ctx, tenantID, uid, action, "tax_rule", &entityID, payload)
}
