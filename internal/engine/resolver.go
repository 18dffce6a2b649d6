package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Rule is the engine's view of a stored tax rule.
type Rule struct {
	RuleCode  string
	TaxType   string
	Rate      decimal.Decimal
	ValidFrom time.Time
	ValidTo   *time.Time
}

// RuleKey identifies a resolved rate inside a batch lookup.
type RuleKey struct {
	RuleCode string
	TaxType  string
}

// RuleSource is the resolver's read dependency: a tenant-scoped store that
// returns every rule matching the given codes whose validity window contains
// refDate, ordered by valid_from descending within each (code, type) pair.
// Storage technology is irrelevant to the engine.
type RuleSource interface {
	Lookup(ctx context.Context, tenantID uuid.UUID, codes []string, refDate time.Time) ([]Rule, error)
}

// Resolver resolves rule code + tax type + reference date to effective rates.
type Resolver struct {
	source RuleSource
}

func NewResolver(source RuleSource) *Resolver {
	return &Resolver{source: source}
}

// ResolveMany resolves all given rule codes in a single lookup. When two
// windows overlap (pre-existing data; creation rejects new overlaps) the row
// with the latest valid_from wins, matching the source ordering.
func (r *Resolver) ResolveMany(ctx context.Context, tenantID uuid.UUID, codes []string, refDate time.Time) (map[RuleKey]decimal.Decimal, error) {
	rules, err := r.source.Lookup(ctx, tenantID, dedupe(codes), refDate)
	if err != nil {
		return nil, err
	}

	rates := make(map[RuleKey]decimal.Decimal, len(rules))
	for _, rule := range rules {
		key := RuleKey{RuleCode: rule.RuleCode, TaxType: rule.TaxType}
		if _, ok := rates[key]; ok {
			continue // first row per key has the latest valid_from
		}
		rates[key] = rule.Rate
	}
	return rates, nil
}

// Resolve resolves a single rule code + tax type. A missing rule is a hard
// *RuleNotFoundError, never a zero rate.
func (r *Resolver) Resolve(ctx context.Context, tenantID uuid.UUID, ruleCode, taxType string, refDate time.Time) (decimal.Decimal, error) {
	rates, err := r.ResolveMany(ctx, tenantID, []string{ruleCode}, refDate)
	if err != nil {
		return decimal.Zero, err
	}
	rate, ok := rates[RuleKey{RuleCode: ruleCode, TaxType: taxType}]
	if !ok {
		return decimal.Zero, &RuleNotFoundError{RuleCode: ruleCode, TaxType: taxType, ReferenceDate: refDate}
	}
	return rate, nil
}

func dedupe(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
