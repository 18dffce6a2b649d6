package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Validation verdict constants
const (
	StatusPass        = "PASS"
	StatusFail        = "FAIL"
	VerdictConforme   = "CONFORME"
	VerdictNaoConform = "NAO_CONFORME"
)

// InvoiceItem is one line of an invoice under validation. Items are owned by
// the request that carries them; the engine never persists them.
type InvoiceItem struct {
	SKU         string
	Description string
	BaseAmount  decimal.Decimal
	CBSRuleCode string // defaults to STD_CBS when empty
	IBSRuleCode string // defaults to STD_IBS when empty
}

// InvoiceInput groups the items of one invoice with its declared tax totals.
type InvoiceInput struct {
	InvoiceNumber string
	DeclaredCBS   decimal.Decimal
	DeclaredIBS   decimal.Decimal
	Items         []InvoiceItem
}

// ItemResult carries the per-item calculation outcome. A missing rule sets
// the corresponding error field; the item is reported, not silently skipped.
type ItemResult struct {
	SKU        string
	BaseAmount decimal.Decimal
	CBSRate    decimal.Decimal
	CBSAmount  decimal.Decimal
	CBSError   string
	IBSRate    decimal.Decimal
	IBSAmount  decimal.Decimal
	IBSError   string
}

// Failed reports whether the item could not be fully calculated.
func (r ItemResult) Failed() bool {
	return r.CBSError != "" || r.IBSError != ""
}

// InvoiceValidation is the per-invoice aggregate produced once per run.
type InvoiceValidation struct {
	Status        string // PASS or FAIL
	InvoiceNumber string
	TotalBase     decimal.Decimal
	CalculatedCBS decimal.Decimal
	CalculatedIBS decimal.Decimal
	DeclaredCBS   decimal.Decimal
	DeclaredIBS   decimal.Decimal
	CBSDiff       decimal.Decimal
	CBSMatch      bool
	IBSDiff       decimal.Decimal
	IBSMatch      bool
	ItemErrors    int
	Items         []ItemResult
}

// BatchValidation is the "report" variant: an aggregate compliance verdict
// over multiple invoices plus the per-invoice breakdown.
type BatchValidation struct {
	Verdict   string // CONFORME or NAO_CONFORME
	TotalBase decimal.Decimal
	TotalCBS  decimal.Decimal
	TotalIBS  decimal.Decimal
	Invoices  []InvoiceValidation
}

// Validator compares declared against calculated tax amounts.
type Validator struct {
	resolver *Resolver
}

func NewValidator(resolver *Resolver) *Validator {
	return &Validator{resolver: resolver}
}

// ValidateInvoice resolves the rates of every item in one lookup, computes
// per-item amounts, accumulates already-rounded amounts into invoice totals
// and compares them against the declared totals within tolerance. A missing
// rule fails the affected item without aborting its siblings.
func (v *Validator) ValidateInvoice(ctx context.Context, tenantID uuid.UUID, in InvoiceInput, refDate time.Time, tolerance decimal.Decimal) (*InvoiceValidation, error) {
	rates, err := v.resolver.ResolveMany(ctx, tenantID, collectCodes(in.Items), refDate)
	if err != nil {
		return nil, err
	}
	result := validateWithRates(in, rates, refDate, tolerance)
	return &result, nil
}

// ValidateBatch applies ValidateInvoice logic across multiple invoices with a
// single rule lookup for the whole batch. The verdict is CONFORME only when
// every invoice passes.
func (v *Validator) ValidateBatch(ctx context.Context, tenantID uuid.UUID, invoices []InvoiceInput, refDate time.Time, tolerance decimal.Decimal) (*BatchValidation, error) {
	var codes []string
	for _, inv := range invoices {
		codes = append(codes, collectCodes(inv.Items)...)
	}
	rates, err := v.resolver.ResolveMany(ctx, tenantID, codes, refDate)
	if err != nil {
		return nil, err
	}

	batch := BatchValidation{
		Verdict:   VerdictConforme,
		TotalBase: decimal.Zero,
		TotalCBS:  decimal.Zero,
		TotalIBS:  decimal.Zero,
	}
	for _, inv := range invoices {
		res := validateWithRates(inv, rates, refDate, tolerance)
		if res.Status != StatusPass {
			batch.Verdict = VerdictNaoConform
		}
		batch.TotalBase = batch.TotalBase.Add(res.TotalBase)
		batch.TotalCBS = batch.TotalCBS.Add(res.CalculatedCBS)
		batch.TotalIBS = batch.TotalIBS.Add(res.CalculatedIBS)
		batch.Invoices = append(batch.Invoices, res)
	}
	return &batch, nil
}

func validateWithRates(in InvoiceInput, rates map[RuleKey]decimal.Decimal, refDate time.Time, tolerance decimal.Decimal) InvoiceValidation {
	totalCBS := decimal.Zero
	totalIBS := decimal.Zero
	totalBase := decimal.Zero
	itemErrors := 0
	items := make([]ItemResult, 0, len(in.Items))

	for _, it := range in.Items {
		cbsCode := orDefault(it.CBSRuleCode, defaultCBSCode)
		ibsCode := orDefault(it.IBSRuleCode, defaultIBSCode)
		res := ItemResult{SKU: it.SKU, BaseAmount: it.BaseAmount}

		if cbsRate, ok := rates[RuleKey{RuleCode: cbsCode, TaxType: "CBS"}]; ok {
			res.CBSRate = cbsRate
			res.CBSAmount = Amount(it.BaseAmount, cbsRate)
			totalCBS = totalCBS.Add(res.CBSAmount)
		} else {
			res.CBSError = (&RuleNotFoundError{RuleCode: cbsCode, TaxType: "CBS", ReferenceDate: refDate}).Error()
		}

		if ibsRate, ok := rates[RuleKey{RuleCode: ibsCode, TaxType: "IBS"}]; ok {
			res.IBSRate = ibsRate
			res.IBSAmount = Amount(it.BaseAmount, ibsRate)
			totalIBS = totalIBS.Add(res.IBSAmount)
		} else {
			res.IBSError = (&RuleNotFoundError{RuleCode: ibsCode, TaxType: "IBS", ReferenceDate: refDate}).Error()
		}

		if res.Failed() {
			itemErrors++
		}
		totalBase = totalBase.Add(it.BaseAmount)
		items = append(items, res)
	}

	// Both sides are rounded to 2 decimals before comparison
	calcCBS := totalCBS.Round(2)
	calcIBS := totalIBS.Round(2)
	declCBS := in.DeclaredCBS.Round(2)
	declIBS := in.DeclaredIBS.Round(2)
	cbsDiff := calcCBS.Sub(declCBS).Abs()
	ibsDiff := calcIBS.Sub(declIBS).Abs()
	cbsMatch := cbsDiff.LessThanOrEqual(tolerance)
	ibsMatch := ibsDiff.LessThanOrEqual(tolerance)

	status := StatusPass
	if !cbsMatch || !ibsMatch || itemErrors > 0 {
		status = StatusFail
	}

	return InvoiceValidation{
		Status:        status,
		InvoiceNumber: in.InvoiceNumber,
		TotalBase:     totalBase,
		CalculatedCBS: calcCBS,
		CalculatedIBS: calcIBS,
		DeclaredCBS:   declCBS,
		DeclaredIBS:   declIBS,
		CBSDiff:       cbsDiff,
		CBSMatch:      cbsMatch,
		IBSDiff:       ibsDiff,
		IBSMatch:      ibsMatch,
		ItemErrors:    itemErrors,
		Items:         items,
	}
}

const (
	defaultCBSCode = "STD_CBS"
	defaultIBSCode = "STD_IBS"
)

func orDefault(code, def string) string {
	if code == "" {
		return def
	}
	return code
}

func collectCodes(items []InvoiceItem) []string {
	codes := make([]string, 0, len(items)*2)
	for _, it := range items {
		codes = append(codes, orDefault(it.CBSRuleCode, defaultCBSCode), orDefault(it.IBSRuleCode, defaultIBSCode))
	}
	return codes
}

// AuditAction returns the audit-log action for a validation outcome.
func (r *InvoiceValidation) AuditAction() string {
	return "validation_" + strings.ToLower(r.Status)
}
