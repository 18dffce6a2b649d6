package service

import (
	"testing"

	"backend/internal/engine"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToInvoiceInput(t *testing.T) {
	input, refDate, err := toInvoiceInput(ValidateInvoiceRequest{
		InvoiceNumber: "NF-001",
		ReferenceDate: "2026-03-01",
		DeclaredCBS:   "92.50",
		Items: []InvoiceItemRequest{
			{SKU: "SKU-1", BaseAmount: "1000.00", CBSRuleCode: "RED_BASIC"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "2026-03-01", refDate.Format("2006-01-02"))
	assert.True(t, input.DeclaredCBS.Equal(decimal.RequireFromString("92.50")))
	assert.True(t, input.DeclaredIBS.IsZero(), "omitted declared amount defaults to zero")
	require.Len(t, input.Items, 1)
	assert.Equal(t, "RED_BASIC", input.Items[0].CBSRuleCode)
}

func TestToInvoiceInputRejectsBadAmount(t *testing.T) {
	_, _, err := toInvoiceInput(ValidateInvoiceRequest{
		InvoiceNumber: "NF-001",
		ReferenceDate: "2026-03-01",
		Items: []InvoiceItemRequest{
			{SKU: "SKU-1", BaseAmount: "-10.00"},
		},
	})
	var invalid *engine.InvalidAmountError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "items[0].base_amount", invalid.Field)
}

func TestRenderComplianceReport(t *testing.T) {
	batch := &engine.BatchValidation{
		Verdict:   engine.VerdictNaoConform,
		TotalBase: decimal.RequireFromString("2000.00"),
		TotalCBS:  decimal.RequireFromString("185.00"),
		TotalIBS:  decimal.RequireFromString("240.00"),
		Invoices: []engine.InvoiceValidation{
			{Status: engine.StatusPass, InvoiceNumber: "NF-100",
				DeclaredCBS: decimal.RequireFromString("92.50"), CalculatedCBS: decimal.RequireFromString("92.50"),
				DeclaredIBS: decimal.RequireFromString("120.00"), CalculatedIBS: decimal.RequireFromString("120.00")},
			{Status: engine.StatusFail, InvoiceNumber: "NF-101",
				DeclaredCBS: decimal.RequireFromString("10.00"), CalculatedCBS: decimal.RequireFromString("92.50"),
				CBSDiff:     decimal.RequireFromString("82.50"),
				DeclaredIBS: decimal.RequireFromString("120.00"), CalculatedIBS: decimal.RequireFromString("120.00")},
		},
	}

	report := renderComplianceReport("acme", "2026-02", mustDate(t, "2026-03-01"), batch)

	assert.Contains(t, report, "# Relatório de Conformidade Tributária")
	assert.Contains(t, report, "NAO_CONFORME")
	assert.Contains(t, report, "| NF-100 | PASS |")
	assert.Contains(t, report, "| NF-101 | FAIL |")
	assert.Contains(t, report, "1 de 2 notas com divergência")
}
