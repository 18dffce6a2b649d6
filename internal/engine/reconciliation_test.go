package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileMatchAndMissing(t *testing.T) {
	invoices := map[string]decimal.Decimal{
		"A": dec("100.00"),
	}
	receivables := map[string]Receivable{
		"A": {Expected: dec("100.00"), Received: dec("100.00")},
		"B": {Expected: dec("50.00"), Received: dec("50.00")},
	}

	res := Reconcile(invoices, receivables, DefaultTolerance)

	assert.Equal(t, 2, res.TotalRecords)
	assert.Equal(t, 1, res.Matched)
	require.Len(t, res.Exceptions, 1)
	assert.Equal(t, "B", res.Exceptions[0].InvoiceNumber)
	assert.Equal(t, ExceptionMissingInvoice, res.Exceptions[0].Kind)
	require.NotNil(t, res.Exceptions[0].ReceivedAmount)
	assert.True(t, res.Exceptions[0].ReceivedAmount.Equal(dec("50.00")))
}

func TestReconcileClassifiesPaymentDiffs(t *testing.T) {
	invoices := map[string]decimal.Decimal{
		"UNDER": dec("100.00"),
		"OVER":  dec("100.00"),
		"EXACT": dec("100.00"),
		"EDGE":  dec("100.00"),
		"GHOST": dec("75.00"),
	}
	receivables := map[string]Receivable{
		"UNDER": {Received: dec("90.00")},
		"OVER":  {Received: dec("110.00")},
		"EXACT": {Received: dec("100.00")},
		"EDGE":  {Received: dec("100.01")}, // within tolerance
	}

	res := Reconcile(invoices, receivables, DefaultTolerance)

	assert.Equal(t, 5, res.TotalRecords)
	assert.Equal(t, 2, res.Matched)
	require.Len(t, res.Exceptions, 3)

	// union is walked in sorted key order: GHOST, OVER, UNDER
	assert.Equal(t, "GHOST", res.Exceptions[0].InvoiceNumber)
	assert.Equal(t, ExceptionMissingReceivable, res.Exceptions[0].Kind)

	assert.Equal(t, "OVER", res.Exceptions[1].InvoiceNumber)
	assert.Equal(t, ExceptionOverpayment, res.Exceptions[1].Kind)
	require.NotNil(t, res.Exceptions[1].Diff)
	assert.True(t, res.Exceptions[1].Diff.Equal(dec("10.00")))

	assert.Equal(t, "UNDER", res.Exceptions[2].InvoiceNumber)
	assert.Equal(t, ExceptionUnderpayment, res.Exceptions[2].Kind)
	require.NotNil(t, res.Exceptions[2].Diff)
	assert.True(t, res.Exceptions[2].Diff.Equal(dec("-10.00")))
}

func TestReconcileEmptyInputs(t *testing.T) {
	res := Reconcile(map[string]decimal.Decimal{}, map[string]Receivable{}, DefaultTolerance)
	assert.Equal(t, 0, res.TotalRecords)
	assert.Equal(t, 0, res.Matched)
	assert.Empty(t, res.Exceptions)
}
