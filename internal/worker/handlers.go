package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"backend/internal/model"
	"backend/internal/service"

	"github.com/google/uuid"
)

// RegisterHandlers binds every known job type to its service entry point.
// Payloads are the same DTOs the synchronous routes accept.
func RegisterHandlers(w *Worker, validation service.ValidationService, simulation service.SimulationService, reconciliation service.ReconciliationService) {
	w.Register(model.JobTypeValidateInvoice, func(ctx context.Context, tenantID uuid.UUID, payload []byte) (map[string]interface{}, error) {
		var req service.ValidateInvoiceRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
		return validation.ValidateInvoice(ctx, tenantID, req)
	})

	w.Register(model.JobTypeComplianceReport, func(ctx context.Context, tenantID uuid.UUID, payload []byte) (map[string]interface{}, error) {
		var req service.ComplianceReportRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
		return validation.GenerateComplianceReport(ctx, tenantID, req)
	})

	w.Register(model.JobTypeSimulation, func(ctx context.Context, tenantID uuid.UUID, payload []byte) (map[string]interface{}, error) {
		var req service.SimulationRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
		return simulation.Run(ctx, tenantID, req)
	})

	w.Register(model.JobTypeReconciliation, func(ctx context.Context, tenantID uuid.UUID, payload []byte) (map[string]interface{}, error) {
		var req service.ReconciliationRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, fmt.Errorf("invalid payload: %w", err)
		}
		return reconciliation.Run(ctx, tenantID, req)
	})
}
