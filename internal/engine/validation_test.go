package engine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestValidateInvoicePass(t *testing.T) {
	validator := NewValidator(NewResolver(stdSource()))

	res, err := validator.ValidateInvoice(context.Background(), uuid.New(), InvoiceInput{
		InvoiceNumber: "NF-001",
		DeclaredCBS:   dec("92.50"),
		DeclaredIBS:   dec("120.00"),
		Items: []InvoiceItem{
			{SKU: "SKU-1", BaseAmount: dec("600.00")},
			{SKU: "SKU-2", BaseAmount: dec("400.00")},
		},
	}, date("2026-03-01"), DefaultTolerance)
	require.NoError(t, err)

	assert.Equal(t, StatusPass, res.Status)
	assert.True(t, res.CalculatedCBS.Equal(dec("92.50")), "calculated CBS = %s", res.CalculatedCBS)
	assert.True(t, res.CalculatedIBS.Equal(dec("120.00")), "calculated IBS = %s", res.CalculatedIBS)
	assert.True(t, res.CBSMatch)
	assert.True(t, res.IBSMatch)
	assert.Equal(t, 0, res.ItemErrors)
	assert.Equal(t, "validation_pass", res.AuditAction())
}

func TestValidateInvoiceToleranceBoundary(t *testing.T) {
	validator := NewValidator(NewResolver(stdSource()))
	tenant := uuid.New()
	items := []InvoiceItem{{SKU: "SKU-1", BaseAmount: dec("1000.00")}}

	// diff exactly at tolerance still matches
	res, err := validator.ValidateInvoice(context.Background(), tenant, InvoiceInput{
		InvoiceNumber: "NF-002",
		DeclaredCBS:   dec("92.51"),
		DeclaredIBS:   dec("120.00"),
		Items:         items,
	}, date("2026-03-01"), DefaultTolerance)
	require.NoError(t, err)
	assert.Equal(t, StatusPass, res.Status)

	// one cent beyond tolerance fails
	res, err = validator.ValidateInvoice(context.Background(), tenant, InvoiceInput{
		InvoiceNumber: "NF-003",
		DeclaredCBS:   dec("92.52"),
		DeclaredIBS:   dec("120.00"),
		Items:         items,
	}, date("2026-03-01"), DefaultTolerance)
	require.NoError(t, err)
	assert.Equal(t, StatusFail, res.Status)
	assert.False(t, res.CBSMatch)
	assert.True(t, res.IBSMatch)
	assert.Equal(t, "validation_fail", res.AuditAction())
}

func TestValidateInvoiceMissingRuleMarksItemOnly(t *testing.T) {
	validator := NewValidator(NewResolver(stdSource()))

	res, err := validator.ValidateInvoice(context.Background(), uuid.New(), InvoiceInput{
		InvoiceNumber: "NF-004",
		DeclaredCBS:   dec("55.50"),
		DeclaredIBS:   dec("72.00"),
		Items: []InvoiceItem{
			{SKU: "SKU-1", BaseAmount: dec("600.00")},
			{SKU: "SKU-2", BaseAmount: dec("400.00"), CBSRuleCode: "RED_BASIC"},
		},
	}, date("2026-03-01"), DefaultTolerance)
	require.NoError(t, err)

	// A missing rule fails the invoice but siblings still get calculated.
	assert.Equal(t, StatusFail, res.Status)
	assert.Equal(t, 1, res.ItemErrors)
	require.Len(t, res.Items, 2)
	assert.Empty(t, res.Items[0].CBSError)
	assert.True(t, res.Items[0].CBSAmount.Equal(dec("55.50")))
	assert.NotEmpty(t, res.Items[1].CBSError)
	assert.Empty(t, res.Items[1].IBSError, "IBS side of the item still resolves")
	assert.True(t, res.Items[1].IBSAmount.Equal(dec("48.00")))
}

func TestValidateBatchVerdict(t *testing.T) {
	validator := NewValidator(NewResolver(stdSource()))
	tenant := uuid.New()

	passing := InvoiceInput{
		InvoiceNumber: "NF-100",
		DeclaredCBS:   dec("92.50"),
		DeclaredIBS:   dec("120.00"),
		Items:         []InvoiceItem{{SKU: "A", BaseAmount: dec("1000.00")}},
	}
	failing := InvoiceInput{
		InvoiceNumber: "NF-101",
		DeclaredCBS:   dec("10.00"),
		DeclaredIBS:   dec("120.00"),
		Items:         []InvoiceItem{{SKU: "B", BaseAmount: dec("1000.00")}},
	}

	batch, err := validator.ValidateBatch(context.Background(), tenant, []InvoiceInput{passing, passing}, date("2026-03-01"), DefaultTolerance)
	require.NoError(t, err)
	assert.Equal(t, VerdictConforme, batch.Verdict)
	assert.True(t, batch.TotalBase.Equal(dec("2000.00")))
	assert.True(t, batch.TotalCBS.Equal(dec("185.00")))

	batch, err = validator.ValidateBatch(context.Background(), tenant, []InvoiceInput{passing, failing}, date("2026-03-01"), DefaultTolerance)
	require.NoError(t, err)
	assert.Equal(t, VerdictNaoConform, batch.Verdict)
	require.Len(t, batch.Invoices, 2)
	assert.Equal(t, StatusPass, batch.Invoices[0].Status)
	assert.Equal(t, StatusFail, batch.Invoices[1].Status)
}
