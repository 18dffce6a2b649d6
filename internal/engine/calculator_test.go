package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount(t *testing.T) {
	cases := []struct {
		name string
		base string
		rate string
		want string
	}{
		{"standard cbs", "100.00", "0.0925", "9.25"},
		{"standard ibs", "100.00", "0.12", "12"},
		{"rounds half up", "33.33", "0.5", "16.67"},
		{"rounds up above half", "33.335", "0.5", "16.67"},
		{"rounds down below half", "33.328", "0.5", "16.66"},
		{"zero rate", "100.00", "0", "0"},
		{"large base", "1000000.00", "0.0925", "92500"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			base := decimal.RequireFromString(tc.base)
			rate := decimal.RequireFromString(tc.rate)
			got := Amount(base, rate)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)),
				"Amount(%s, %s) = %s, want %s", tc.base, tc.rate, got, tc.want)
		})
	}
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount("base_amount", "150.75")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("150.75")))

	for _, bad := range []string{"", "abc", "0", "-5.00"} {
		_, err := ParseAmount("base_amount", bad)
		var invalid *InvalidAmountError
		require.ErrorAs(t, err, &invalid, "value %q should be rejected", bad)
		assert.Equal(t, "base_amount", invalid.Field)
	}
}

func TestParseDeclared(t *testing.T) {
	d, err := ParseDeclared("declared_cbs", "")
	require.NoError(t, err)
	assert.True(t, d.IsZero(), "empty declared amount defaults to zero")

	d, err = ParseDeclared("declared_cbs", "0")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParseDeclared("declared_cbs", "-1.00")
	var invalid *InvalidAmountError
	require.ErrorAs(t, err, &invalid)
}
