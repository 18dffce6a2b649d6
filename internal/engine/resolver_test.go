package engine

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRuleSource mimics the storage contract: rules whose validity window
// contains refDate, ordered by valid_from descending within each key.
type fakeRuleSource struct {
	rules []Rule
}

func (f *fakeRuleSource) Lookup(_ context.Context, _ uuid.UUID, codes []string, refDate time.Time) ([]Rule, error) {
	wanted := make(map[string]bool, len(codes))
	for _, c := range codes {
		wanted[c] = true
	}

	var out []Rule
	for _, r := range f.rules {
		if !wanted[r.RuleCode] {
			continue
		}
		if refDate.Before(r.ValidFrom) {
			continue
		}
		if r.ValidTo != nil && refDate.After(*r.ValidTo) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RuleCode != out[j].RuleCode {
			return out[i].RuleCode < out[j].RuleCode
		}
		if out[i].TaxType != out[j].TaxType {
			return out[i].TaxType < out[j].TaxType
		}
		return out[i].ValidFrom.After(out[j].ValidFrom)
	})
	return out, nil
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func datePtr(s string) *time.Time {
	t := date(s)
	return &t
}

func stdSource() *fakeRuleSource {
	return &fakeRuleSource{rules: []Rule{
		{RuleCode: "STD_CBS", TaxType: "CBS", Rate: decimal.RequireFromString("0.09"), ValidFrom: date("2025-01-01"), ValidTo: datePtr("2025-12-31")},
		{RuleCode: "STD_CBS", TaxType: "CBS", Rate: decimal.RequireFromString("0.0925"), ValidFrom: date("2026-01-01")},
		{RuleCode: "STD_IBS", TaxType: "IBS", Rate: decimal.RequireFromString("0.12"), ValidFrom: date("2026-01-01")},
	}}
}

func TestResolvePicksWindowByReferenceDate(t *testing.T) {
	resolver := NewResolver(stdSource())
	tenant := uuid.New()

	rate, err := resolver.Resolve(context.Background(), tenant, "STD_CBS", "CBS", date("2025-06-15"))
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.09")))

	rate, err = resolver.Resolve(context.Background(), tenant, "STD_CBS", "CBS", date("2026-03-01"))
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.0925")))
}

func TestResolveBeforeAnyWindow(t *testing.T) {
	resolver := NewResolver(stdSource())

	_, err := resolver.Resolve(context.Background(), uuid.New(), "STD_CBS", "CBS", date("2024-12-31"))
	var notFound *RuleNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "STD_CBS", notFound.RuleCode)
	assert.Equal(t, "CBS", notFound.TaxType)
}

func TestResolveUnknownCode(t *testing.T) {
	resolver := NewResolver(stdSource())

	_, err := resolver.Resolve(context.Background(), uuid.New(), "RED_BASIC", "CBS", date("2026-03-01"))
	var notFound *RuleNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestResolveManyLatestValidFromWins(t *testing.T) {
	// Overlapping windows exist only in pre-existing data; the latest
	// valid_from must win deterministically.
	src := &fakeRuleSource{rules: []Rule{
		{RuleCode: "STD_CBS", TaxType: "CBS", Rate: decimal.RequireFromString("0.08"), ValidFrom: date("2025-01-01")},
		{RuleCode: "STD_CBS", TaxType: "CBS", Rate: decimal.RequireFromString("0.0925"), ValidFrom: date("2026-01-01")},
	}}
	resolver := NewResolver(src)

	rates, err := resolver.ResolveMany(context.Background(), uuid.New(), []string{"STD_CBS", "STD_CBS"}, date("2026-06-01"))
	require.NoError(t, err)
	assert.Len(t, rates, 1)
	assert.True(t, rates[RuleKey{RuleCode: "STD_CBS", TaxType: "CBS"}].Equal(decimal.RequireFromString("0.0925")))
}
