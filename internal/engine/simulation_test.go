package engine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulateBaseAndScenarios(t *testing.T) {
	runner := NewRunner(NewResolver(stdSource()))

	override := dec("0.1125")
	res, err := runner.Simulate(context.Background(), uuid.New(), dec("1000.00"), []Scenario{
		{Name: "Reforma 2027", CBSRateOverride: &override},
	}, date("2026-03-01"))
	require.NoError(t, err)

	assert.Equal(t, BaseScenarioName, res.BaseScenario.Name)
	assert.True(t, res.BaseScenario.CBSAmount.Equal(dec("92.50")))
	assert.True(t, res.BaseScenario.IBSAmount.Equal(dec("120.00")))
	assert.True(t, res.BaseScenario.TotalTax.Equal(dec("212.50")))
	assert.Equal(t, "21.25%", res.BaseScenario.EffectiveRate)

	require.Len(t, res.Scenarios, 1)
	sc := res.Scenarios[0]
	assert.Equal(t, "Reforma 2027", sc.Name)
	assert.True(t, sc.CBSAmount.Equal(dec("112.50")))
	assert.True(t, sc.IBSAmount.Equal(dec("120.00")), "IBS falls back to the current rate")
	assert.True(t, sc.TotalTax.Equal(dec("232.50")))
	assert.True(t, sc.DeltaVsCurrent.Equal(dec("20.00")))
	assert.Equal(t, "9.41%", sc.DeltaPct)
}

func TestSimulateDeltaPctWithZeroBaseTax(t *testing.T) {
	src := &fakeRuleSource{rules: []Rule{
		{RuleCode: "STD_CBS", TaxType: "CBS", Rate: decimal.Zero, ValidFrom: date("2026-01-01")},
		{RuleCode: "STD_IBS", TaxType: "IBS", Rate: decimal.Zero, ValidFrom: date("2026-01-01")},
	}}
	runner := NewRunner(NewResolver(src))

	override := dec("0.10")
	res, err := runner.Simulate(context.Background(), uuid.New(), dec("1000.00"), []Scenario{
		{Name: "Com imposto", CBSRateOverride: &override},
	}, date("2026-03-01"))
	require.NoError(t, err)

	assert.True(t, res.BaseScenario.TotalTax.IsZero())
	require.Len(t, res.Scenarios, 1)
	assert.Equal(t, "N/A", res.Scenarios[0].DeltaPct, "percent delta is undefined against a zero base")
	assert.True(t, res.Scenarios[0].DeltaVsCurrent.Equal(dec("100.00")))
}

func TestSimulateMissingStandardRule(t *testing.T) {
	src := &fakeRuleSource{rules: []Rule{
		{RuleCode: "STD_CBS", TaxType: "CBS", Rate: dec("0.0925"), ValidFrom: date("2026-01-01")},
	}}
	runner := NewRunner(NewResolver(src))

	_, err := runner.Simulate(context.Background(), uuid.New(), dec("1000.00"), nil, date("2026-03-01"))
	var notFound *RuleNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "STD_IBS", notFound.RuleCode)
}
