package importer

import (
	"strings"
	"testing"

	"backend/internal/engine"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReceivables(t *testing.T) {
	csv := "invoice_number;expected_amount;received_amount;received_date\n" +
		"NF-001;100.00;100.00;2026-02-01\n" +
		"NF-002;50.00;45.00;2026-02-03\n" +
		";10.00;10.00;2026-02-04\n" // blank invoice number is skipped

	got, err := ParseReceivables(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.True(t, got["NF-001"].Received.Equal(decimal.RequireFromString("100.00")))
	assert.Equal(t, "2026-02-01", got["NF-001"].ReceivedDate)
	assert.True(t, got["NF-002"].Expected.Equal(decimal.RequireFromString("50.00")))
	assert.True(t, got["NF-002"].Received.Equal(decimal.RequireFromString("45.00")))
}

func TestParseReceivablesEmptyStream(t *testing.T) {
	got, err := ParseReceivables(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseReceivablesMissingColumn(t *testing.T) {
	csv := "invoice_number;expected_amount\nNF-001;100.00\n"

	_, err := ParseReceivables(strings.NewReader(csv))
	var parseErr *engine.ReconciliationParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 1, parseErr.Line)
	assert.Contains(t, parseErr.Reason, "received_amount")
}

func TestParseReceivablesBadAmountAborts(t *testing.T) {
	csv := "invoice_number;expected_amount;received_amount;received_date\n" +
		"NF-001;100.00;100.00;2026-02-01\n" +
		"NF-002;abc;45.00;2026-02-03\n"

	_, err := ParseReceivables(strings.NewReader(csv))
	var parseErr *engine.ReconciliationParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 3, parseErr.Line, "error reports the offending line")
}
