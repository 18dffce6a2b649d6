package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/engine"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type ScenarioRequest struct {
	Name    string `json:"name" binding:"required"`
	CBSRate string `json:"cbs_rate"` // empty keeps the current rate
	IBSRate string `json:"ibs_rate"`
}

type SimulationRequest struct {
	Name          string            `json:"name"`
	BaseAmount    string            `json:"base_amount" binding:"required"`
	ReferenceDate string            `json:"reference_date" binding:"required"`
	Scenarios     []ScenarioRequest `json:"scenarios" binding:"required,min=1"`
}

type SimulationRunResponse struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Result    map[string]interface{} `json:"result"`
	CreatedAt string                 `json:"created_at"`
}

// --- Interface ---

type SimulationService interface {
	// Run executes a what-if simulation and persists the run with its result.
	Run(ctx context.Context, tenantID uuid.UUID, req SimulationRequest) (map[string]interface{}, error)
	List(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]SimulationRunResponse, int64, error)
}

type simulationService struct {
	runner *engine.Runner
	repo   repository.SimulationRepository
	audit  AuditService
}

func NewSimulationService(rules repository.TaxRuleRepository, repo repository.SimulationRepository, audit AuditService) SimulationService {
	return &simulationService{
		runner: engine.NewRunner(engine.NewResolver(rules)),
		repo:   repo,
		audit:  audit,
	}
}

// --- Implementation ---

func (s *simulationService) Run(ctx context.Context, tenantID uuid.UUID, req SimulationRequest) (map[string]interface{}, error) {
	baseAmount, err := engine.ParseAmount("base_amount", req.BaseAmount)
	if err != nil {
		return nil, err
	}
	refDate, err := time.Parse("2006-01-02", req.ReferenceDate)
	if err != nil {
		return nil, fmt.Errorf("invalid reference_date format (expected YYYY-MM-DD): %w", err)
	}

	scenarios := make([]engine.Scenario, 0, len(req.Scenarios))
	for i, sc := range req.Scenarios {
		scenario := engine.Scenario{Name: sc.Name}
		if sc.CBSRate != "" {
			rate, err := decimal.NewFromString(sc.CBSRate)
			if err != nil || rate.Sign() < 0 {
				return nil, fmt.Errorf("invalid cbs_rate in scenarios[%d]: '%s'", i, sc.CBSRate)
			}
			scenario.CBSRateOverride = &rate
		}
		if sc.IBSRate != "" {
			rate, err := decimal.NewFromString(sc.IBSRate)
			if err != nil || rate.Sign() < 0 {
				return nil, fmt.Errorf("invalid ibs_rate in scenarios[%d]: '%s'", i, sc.IBSRate)
			}
			scenario.IBSRateOverride = &rate
		}
		scenarios = append(scenarios, scenario)
	}

	sim, err := s.runner.Simulate(ctx, tenantID, baseAmount, scenarios, refDate)
	if err != nil {
		return nil, err
	}

	result := simulationPayload(sim)

	name := req.Name
	if name == "" {
		name = fmt.Sprintf("Simulação %s", time.Now().Format("2006-01-02 15:04"))
	}

	baseJSON, _ := json.Marshal(breakdownPayload(sim.BaseScenario))
	scenariosJSON, _ := json.Marshal(req.Scenarios)
	resultJSON, _ := json.Marshal(result)

	run := model.SimulationRun{
		TenantID:     tenantID,
		Name:         name,
		BaseScenario: baseJSON,
		Scenarios:    scenariosJSON,
		Result:       resultJSON,
	}
	if err := s.repo.Create(ctx, &run); err != nil {
		return nil, fmt.Errorf("failed to persist simulation run: %w", err)
	}

	runID := run.ID.String()
	_, _ = s.audit.Record(ctx, tenantID, nil, model.ActionSimulationRun, "simulation", &runID, result)

	result["run_id"] = runID
	return result, nil
}

func (s *simulationService) List(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]SimulationRunResponse, int64, error) {
	runs, total, err := s.repo.List(ctx, tenantID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list simulation runs: %w", err)
	}

	res := make([]SimulationRunResponse, 0, len(runs))
	for _, run := range runs {
		item := SimulationRunResponse{
			ID:        run.ID.String(),
			Name:      run.Name,
			CreatedAt: run.CreatedAt.Format(time.RFC3339),
		}
		if len(run.Result) > 0 {
			_ = json.Unmarshal(run.Result, &item.Result)
		}
		res = append(res, item)
	}
	return res, total, nil
}

// --- Helpers ---

func breakdownPayload(b engine.ScenarioBreakdown) map[string]interface{} {
	return map[string]interface{}{
		"name":           b.Name,
		"cbs_rate":       b.CBSRate.String(),
		"ibs_rate":       b.IBSRate.String(),
		"cbs_amount":     b.CBSAmount.StringFixed(2),
		"ibs_amount":     b.IBSAmount.StringFixed(2),
		"total_tax":      b.TotalTax.StringFixed(2),
		"effective_rate": b.EffectiveRate,
	}
}

func simulationPayload(sim *engine.SimulationResult) map[string]interface{} {
	scenarios := make([]map[string]interface{}, 0, len(sim.Scenarios))
	for _, sc := range sim.Scenarios {
		p := breakdownPayload(sc.ScenarioBreakdown)
		p["delta_vs_current"] = sc.DeltaVsCurrent.StringFixed(2)
		p["delta_pct"] = sc.DeltaPct
		scenarios = append(scenarios, p)
	}

	return map[string]interface{}{
		"base_amount":    sim.BaseAmount.StringFixed(2),
		"reference_date": sim.ReferenceDate.Format("2006-01-02"),
		"base_scenario":  breakdownPayload(sim.BaseScenario),
		"scenarios":      scenarios,
	}
}
