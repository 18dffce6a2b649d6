package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"backend/internal/engine"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/storage"

	"github.com/google/uuid"
)

// --- DTOs ---

type InvoiceItemRequest struct {
	SKU         string `json:"sku" binding:"required"`
	Description string `json:"description"`
	BaseAmount  string `json:"base_amount" binding:"required"`
	CBSRuleCode string `json:"cbs_rule_code"`
	IBSRuleCode string `json:"ibs_rule_code"`
}

type ValidateInvoiceRequest struct {
	InvoiceNumber string               `json:"invoice_number" binding:"required"`
	ReferenceDate string               `json:"reference_date" binding:"required"`
	DeclaredCBS   string               `json:"declared_cbs"`
	DeclaredIBS   string               `json:"declared_ibs"`
	Items         []InvoiceItemRequest `json:"items" binding:"required,min=1"`
}

type ComplianceReportRequest struct {
	Period        string                   `json:"period" binding:"required"` // e.g. "2026-01"
	ReferenceDate string                   `json:"reference_date" binding:"required"`
	Invoices      []ValidateInvoiceRequest `json:"invoices" binding:"required,min=1"`
}

// --- Interface ---

// ValidationService runs declared-vs-calculated checks. The same entry points
// back the synchronous API route and the async worker handlers.
type ValidationService interface {
	ValidateInvoice(ctx context.Context, tenantID uuid.UUID, req ValidateInvoiceRequest) (map[string]interface{}, error)
	GenerateComplianceReport(ctx context.Context, tenantID uuid.UUID, req ComplianceReportRequest) (map[string]interface{}, error)
}

type validationService struct {
	validator *engine.Validator
	tenants   repository.TenantRepository
	store     storage.ObjectStore
	audit     AuditService
}

func NewValidationService(rules repository.TaxRuleRepository, tenants repository.TenantRepository, store storage.ObjectStore, audit AuditService) ValidationService {
	return &validationService{
		validator: engine.NewValidator(engine.NewResolver(rules)),
		tenants:   tenants,
		store:     store,
		audit:     audit,
	}
}

// --- Implementation ---

func (s *validationService) ValidateInvoice(ctx context.Context, tenantID uuid.UUID, req ValidateInvoiceRequest) (map[string]interface{}, error) {
	input, refDate, err := toInvoiceInput(req)
	if err != nil {
		return nil, err
	}

	res, err := s.validator.ValidateInvoice(ctx, tenantID, input, refDate, engine.DefaultTolerance)
	if err != nil {
		return nil, err
	}

	payload := invoiceValidationPayload(*res)
	entityID := res.InvoiceNumber
	_, _ = s.audit.Record(ctx, tenantID, nil, res.AuditAction(), "invoice", &entityID, payload)

	return payload, nil
}

// GenerateComplianceReport validates every invoice of a period, renders the
// Markdown report and stores it as an artifact. The artifact upload is
// recorded in the audit trail with its storage key and checksum.
func (s *validationService) GenerateComplianceReport(ctx context.Context, tenantID uuid.UUID, req ComplianceReportRequest) (map[string]interface{}, error) {
	refDate, err := time.Parse("2006-01-02", req.ReferenceDate)
	if err != nil {
		return nil, fmt.Errorf("invalid reference_date format (expected YYYY-MM-DD): %w", err)
	}

	inputs := make([]engine.InvoiceInput, 0, len(req.Invoices))
	for _, inv := range req.Invoices {
		input, _, err := toInvoiceInput(inv)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, input)
	}

	batch, err := s.validator.ValidateBatch(ctx, tenantID, inputs, refDate, engine.DefaultTolerance)
	if err != nil {
		return nil, err
	}

	slug := tenantID.String()
	if tenant, err := s.tenants.GetByID(ctx, tenantID); err == nil {
		slug = tenant.Slug
	}

	report := renderComplianceReport(slug, req.Period, refDate, batch)
	key := fmt.Sprintf("reports/%s/%s/compliance_%d.md", slug, req.Period, time.Now().Unix())

	put, err := s.store.Put(ctx, key, []byte(report), "text/markdown")
	if err != nil {
		return nil, fmt.Errorf("failed to store compliance report: %w", err)
	}

	_, _ = s.audit.Record(ctx, tenantID, nil, model.ActionArtifactCreated, "artifact", &put.StorageKey, map[string]interface{}{
		"bucket":      put.Bucket,
		"storage_key": put.StorageKey,
		"checksum":    put.Checksum,
		"size_bytes":  put.SizeBytes,
		"period":      req.Period,
	})

	result := map[string]interface{}{
		"verdict":     batch.Verdict,
		"period":      req.Period,
		"total_base":  batch.TotalBase.StringFixed(2),
		"total_cbs":   batch.TotalCBS.StringFixed(2),
		"total_ibs":   batch.TotalIBS.StringFixed(2),
		"invoices":    len(batch.Invoices),
		"storage_key": put.StorageKey,
		"checksum":    put.Checksum,
	}
	_, _ = s.audit.Record(ctx, tenantID, nil, model.ActionReportGenerated, "report", &put.StorageKey, result)

	return result, nil
}

// --- Helpers ---

func toInvoiceInput(req ValidateInvoiceRequest) (engine.InvoiceInput, time.Time, error) {
	refDate, err := time.Parse("2006-01-02", req.ReferenceDate)
	if err != nil {
		return engine.InvoiceInput{}, time.Time{}, fmt.Errorf("invalid reference_date format (expected YYYY-MM-DD): %w", err)
	}

	declaredCBS, err := engine.ParseDeclared("declared_cbs", req.DeclaredCBS)
	if err != nil {
		return engine.InvoiceInput{}, time.Time{}, err
	}
	declaredIBS, err := engine.ParseDeclared("declared_ibs", req.DeclaredIBS)
	if err != nil {
		return engine.InvoiceInput{}, time.Time{}, err
	}

	items := make([]engine.InvoiceItem, 0, len(req.Items))
	for i, it := range req.Items {
		base, err := engine.ParseAmount(fmt.Sprintf("items[%d].base_amount", i), it.BaseAmount)
		if err != nil {
			return engine.InvoiceInput{}, time.Time{}, err
		}
		items = append(items, engine.InvoiceItem{
			SKU:         it.SKU,
			Description: it.Description,
			BaseAmount:  base,
			CBSRuleCode: it.CBSRuleCode,
			IBSRuleCode: it.IBSRuleCode,
		})
	}

	return engine.InvoiceInput{
		InvoiceNumber: req.InvoiceNumber,
		DeclaredCBS:   declaredCBS,
		DeclaredIBS:   declaredIBS,
		Items:         items,
	}, refDate, nil
}

func invoiceValidationPayload(res engine.InvoiceValidation) map[string]interface{} {
	items := make([]map[string]interface{}, 0, len(res.Items))
	for _, it := range res.Items {
		item := map[string]interface{}{
			"sku":         it.SKU,
			"base_amount": it.BaseAmount.StringFixed(2),
			"cbs_rate":    it.CBSRate.String(),
			"cbs_amount":  it.CBSAmount.StringFixed(2),
			"ibs_rate":    it.IBSRate.String(),
			"ibs_amount":  it.IBSAmount.StringFixed(2),
		}
		if it.CBSError != "" {
			item["cbs_error"] = it.CBSError
		}
		if it.IBSError != "" {
			item["ibs_error"] = it.IBSError
		}
		items = append(items, item)
	}

	return map[string]interface{}{
		"status":         res.Status,
		"invoice_number": res.InvoiceNumber,
		"total_base":     res.TotalBase.StringFixed(2),
		"calculated_cbs": res.CalculatedCBS.StringFixed(2),
		"calculated_ibs": res.CalculatedIBS.StringFixed(2),
		"declared_cbs":   res.DeclaredCBS.StringFixed(2),
		"declared_ibs":   res.DeclaredIBS.StringFixed(2),
		"cbs_diff":       res.CBSDiff.StringFixed(2),
		"cbs_match":      res.CBSMatch,
		"ibs_diff":       res.IBSDiff.StringFixed(2),
		"ibs_match":      res.IBSMatch,
		"item_errors":    res.ItemErrors,
		"items":          items,
	}
}

func renderComplianceReport(tenantSlug, period string, refDate time.Time, batch *engine.BatchValidation) string {
	var b strings.Builder

	b.WriteString("# Relatório de Conformidade Tributária\n\n")
	fmt.Fprintf(&b, "- **Empresa:** %s\n", tenantSlug)
	fmt.Fprintf(&b, "- **Período:** %s\n", period)
	fmt.Fprintf(&b, "- **Data de referência:** %s\n", refDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "- **Veredito:** %s\n\n", batch.Verdict)

	b.WriteString("## Totais\n\n")
	fmt.Fprintf(&b, "| Base | CBS calculado | IBS calculado |\n")
	fmt.Fprintf(&b, "|---|---|---|\n")
	fmt.Fprintf(&b, "| %s | %s | %s |\n\n", batch.TotalBase.StringFixed(2), batch.TotalCBS.StringFixed(2), batch.TotalIBS.StringFixed(2))

	b.WriteString("## Notas fiscais\n\n")
	b.WriteString("| Nota | Status | CBS declarado | CBS calculado | IBS declarado | IBS calculado |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, inv := range batch.Invoices {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			inv.InvoiceNumber, inv.Status,
			inv.DeclaredCBS.StringFixed(2), inv.CalculatedCBS.StringFixed(2),
			inv.DeclaredIBS.StringFixed(2), inv.CalculatedIBS.StringFixed(2))
	}

	failed := 0
	for _, inv := range batch.Invoices {
		if inv.Status != engine.StatusPass {
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(&b, "\n## Divergências\n\n%d de %d notas com divergência acima da tolerância.\n", failed, len(batch.Invoices))
		for _, inv := range batch.Invoices {
			if inv.Status == engine.StatusPass {
				continue
			}
			fmt.Fprintf(&b, "- **%s**: CBS diff %s, IBS diff %s", inv.InvoiceNumber, inv.CBSDiff.StringFixed(2), inv.IBSDiff.StringFixed(2))
			if inv.ItemErrors > 0 {
				fmt.Fprintf(&b, ", %d item(ns) sem regra aplicável", inv.ItemErrors)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
