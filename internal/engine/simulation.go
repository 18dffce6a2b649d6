package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BaseScenarioName labels the anchor computed from the current rates.
const BaseScenarioName = "Cenário Atual"

// Scenario is a hypothetical rate configuration. Nil overrides fall back to
// the current resolved rate.
type Scenario struct {
	Name            string
	CBSRateOverride *decimal.Decimal
	IBSRateOverride *decimal.Decimal
}

// ScenarioBreakdown holds the amounts computed for one rate configuration.
type ScenarioBreakdown struct {
	Name          string
	CBSRate       decimal.Decimal
	IBSRate       decimal.Decimal
	CBSAmount     decimal.Decimal
	IBSAmount     decimal.Decimal
	TotalTax      decimal.Decimal
	EffectiveRate string // 2-decimal percent string, e.g. "21.25%"
}

// ScenarioResult extends a breakdown with deltas against the base scenario.
type ScenarioResult struct {
	ScenarioBreakdown
	DeltaVsCurrent decimal.Decimal
	DeltaPct       string // "N/A" when the base total tax is zero
}

// SimulationResult preserves scenario input order.
type SimulationResult struct {
	BaseAmount    decimal.Decimal
	ReferenceDate time.Time
	BaseScenario  ScenarioBreakdown
	Scenarios     []ScenarioResult
}

// Runner re-runs the tax calculation under hypothetical rate overrides and
// computes deltas against the tenant's current rates.
type Runner struct {
	resolver *Resolver
}

func NewRunner(resolver *Resolver) *Runner {
	return &Runner{resolver: resolver}
}

// Simulate computes the base scenario from the current STD_CBS/STD_IBS rates
// and then each supplied scenario with overrides applied where present.
func (r *Runner) Simulate(ctx context.Context, tenantID uuid.UUID, baseAmount decimal.Decimal, scenarios []Scenario, refDate time.Time) (*SimulationResult, error) {
	rates, err := r.resolver.ResolveMany(ctx, tenantID, []string{defaultCBSCode, defaultIBSCode}, refDate)
	if err != nil {
		return nil, err
	}
	currentCBS, ok := rates[RuleKey{RuleCode: defaultCBSCode, TaxType: "CBS"}]
	if !ok {
		return nil, &RuleNotFoundError{RuleCode: defaultCBSCode, TaxType: "CBS", ReferenceDate: refDate}
	}
	currentIBS, ok := rates[RuleKey{RuleCode: defaultIBSCode, TaxType: "IBS"}]
	if !ok {
		return nil, &RuleNotFoundError{RuleCode: defaultIBSCode, TaxType: "IBS", ReferenceDate: refDate}
	}

	base := breakdown(BaseScenarioName, baseAmount, currentCBS, currentIBS)
	result := &SimulationResult{
		BaseAmount:    baseAmount,
		ReferenceDate: refDate,
		BaseScenario:  base,
		Scenarios:     make([]ScenarioResult, 0, len(scenarios)),
	}

	for _, sc := range scenarios {
		cbsRate := currentCBS
		if sc.CBSRateOverride != nil {
			cbsRate = *sc.CBSRateOverride
		}
		ibsRate := currentIBS
		if sc.IBSRateOverride != nil {
			ibsRate = *sc.IBSRateOverride
		}

		name := sc.Name
		if name == "" {
			name = "unnamed"
		}
		b := breakdown(name, baseAmount, cbsRate, ibsRate)
		delta := b.TotalTax.Sub(base.TotalTax)

		deltaPct := "N/A"
		if !base.TotalTax.IsZero() {
			deltaPct = delta.Div(base.TotalTax).Mul(decimal.NewFromInt(100)).Round(2).String() + "%"
		}

		result.Scenarios = append(result.Scenarios, ScenarioResult{
			ScenarioBreakdown: b,
			DeltaVsCurrent:    delta,
			DeltaPct:          deltaPct,
		})
	}
	return result, nil
}

func breakdown(name string, base, cbsRate, ibsRate decimal.Decimal) ScenarioBreakdown {
	cbsAmt := Amount(base, cbsRate)
	ibsAmt := Amount(base, ibsRate)
	total := cbsAmt.Add(ibsAmt)

	effective := "N/A"
	if !base.IsZero() {
		effective = total.Div(base).Mul(decimal.NewFromInt(100)).Round(2).String() + "%"
	}

	return ScenarioBreakdown{
		Name:          name,
		CBSRate:       cbsRate,
		IBSRate:       ibsRate,
		CBSAmount:     cbsAmt,
		IBSAmount:     ibsAmt,
		TotalTax:      total,
		EffectiveRate: effective,
	}
}
