package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTaxRuleFields(t *testing.T) {
	rate, from, to, err := parseTaxRuleFields("0.0925", "2026-01-01", "")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.0925")))
	assert.Equal(t, "2026-01-01", from.Format("2006-01-02"))
	assert.Nil(t, to, "empty valid_to stays open-ended")

	_, _, to, err = parseTaxRuleFields("0.12", "2026-01-01", "2026-12-31")
	require.NoError(t, err)
	require.NotNil(t, to)
	assert.Equal(t, "2026-12-31", to.Format("2006-01-02"))
}

func TestParseTaxRuleFieldsRejectsBadInput(t *testing.T) {
	_, _, _, err := parseTaxRuleFields("-0.01", "2026-01-01", "")
	assert.Error(t, err, "negative rates are rejected")

	_, _, _, err = parseTaxRuleFields("abc", "2026-01-01", "")
	assert.Error(t, err)

	_, _, _, err = parseTaxRuleFields("0.09", "01/01/2026", "")
	assert.Error(t, err)

	_, _, _, err = parseTaxRuleFields("0.09", "2026-06-01", "2026-01-01")
	assert.Error(t, err, "valid_to before valid_from is rejected")
}
