package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestParseInvoiceAmounts(t *testing.T) {
	invoices, err := parseInvoiceAmounts(map[string]string{
		"NF-001": "100.00",
		"NF-002": "55.20",
	})
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.True(t, invoices["NF-001"].Equal(decimal.RequireFromString("100.00")))
	assert.True(t, invoices["NF-002"].Equal(decimal.RequireFromString("55.20")))
}

func TestParseInvoiceAmountsRejectsNonPositive(t *testing.T) {
	_, err := parseInvoiceAmounts(map[string]string{"NF-001": "0"})
	assert.Error(t, err)

	_, err = parseInvoiceAmounts(map[string]string{"NF-001": "abc"})
	assert.Error(t, err)
}
