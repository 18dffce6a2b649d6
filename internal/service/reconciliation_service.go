package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"backend/internal/engine"
	"backend/internal/importer"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type ReconciliationRequest struct {
	// Invoices maps invoice number to its total amount as a decimal string.
	Invoices map[string]string `json:"invoices" binding:"required"`
	// ReceivablesCSV is the base64-encoded semicolon-delimited ledger export.
	ReceivablesCSV string `json:"receivables_csv" binding:"required"`
}

type ReconciliationRunResponse struct {
	ID           string                 `json:"id"`
	TotalRecords int                    `json:"total_records"`
	Matched      int                    `json:"matched"`
	Exceptions   int                    `json:"exceptions"`
	Details      map[string]interface{} `json:"details"`
	CreatedAt    string                 `json:"created_at"`
}

// --- Interface ---

type ReconciliationService interface {
	// Run matches a receivables ledger against invoices. A malformed ledger
	// aborts the run before anything is persisted.
	Run(ctx context.Context, tenantID uuid.UUID, req ReconciliationRequest) (map[string]interface{}, error)
	List(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]ReconciliationRunResponse, int64, error)
}

type reconciliationService struct {
	repo  repository.ReconciliationRepository
	store storage.ObjectStore
	audit AuditService
}

func NewReconciliationService(repo repository.ReconciliationRepository, store storage.ObjectStore, audit AuditService) ReconciliationService {
	return &reconciliationService{repo: repo, store: store, audit: audit}
}

// --- Implementation ---

func (s *reconciliationService) Run(ctx context.Context, tenantID uuid.UUID, req ReconciliationRequest) (map[string]interface{}, error) {
	invoices, err := parseInvoiceAmounts(req.Invoices)
	if err != nil {
		return nil, err
	}

	raw, err := base64.StdEncoding.DecodeString(req.ReceivablesCSV)
	if err != nil {
		return nil, fmt.Errorf("receivables_csv is not valid base64: %w", err)
	}

	receivables, err := importer.ParseReceivables(strings.NewReader(string(raw)))
	if err != nil {
		return nil, err
	}

	res := engine.Reconcile(invoices, receivables, engine.DefaultTolerance)
	exceptions := exceptionPayloads(res.Exceptions)

	details := map[string]interface{}{
		"total_records": res.TotalRecords,
		"matched":       res.Matched,
		"exceptions":    exceptions,
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize reconciliation details: %w", err)
	}

	run := model.ReconciliationRun{
		TenantID:     tenantID,
		TotalRecords: res.TotalRecords,
		Matched:      res.Matched,
		Exceptions:   len(res.Exceptions),
		Details:      detailsJSON,
	}
	if err := s.repo.Create(ctx, &run); err != nil {
		return nil, fmt.Errorf("failed to persist reconciliation run: %w", err)
	}
	runID := run.ID.String()

	result := map[string]interface{}{
		"run_id":        runID,
		"total_records": res.TotalRecords,
		"matched":       res.Matched,
		"exceptions":    exceptions,
	}

	// The exception list doubles as a downloadable artifact for follow-up.
	if len(res.Exceptions) > 0 {
		key := fmt.Sprintf("reconciliations/%s/exceptions_%s.json", tenantID, runID)
		if put, err := s.store.Put(ctx, key, detailsJSON, "application/json"); err == nil {
			result["storage_key"] = put.StorageKey
			_, _ = s.audit.Record(ctx, tenantID, nil, model.ActionArtifactCreated, "artifact", &put.StorageKey, map[string]interface{}{
				"bucket":      put.Bucket,
				"storage_key": put.StorageKey,
				"checksum":    put.Checksum,
				"size_bytes":  put.SizeBytes,
				"run_id":      runID,
			})
		}
	}

	_, _ = s.audit.Record(ctx, tenantID, nil, model.ActionReconciliationRun, "reconciliation", &runID, map[string]interface{}{
		"total_records": res.TotalRecords,
		"matched":       res.Matched,
		"exceptions":    len(res.Exceptions),
	})

	return result, nil
}

func (s *reconciliationService) List(ctx context.Context, tenantID uuid.UUID, page, limit int) ([]ReconciliationRunResponse, int64, error) {
	runs, total, err := s.repo.List(ctx, tenantID, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reconciliation runs: %w", err)
	}

	res := make([]ReconciliationRunResponse, 0, len(runs))
	for _, run := range runs {
		item := ReconciliationRunResponse{
			ID:           run.ID.String(),
			TotalRecords: run.TotalRecords,
			Matched:      run.Matched,
			Exceptions:   run.Exceptions,
			CreatedAt:    run.CreatedAt.Format(time.RFC3339),
		}
		if len(run.Details) > 0 {
			_ = json.Unmarshal(run.Details, &item.Details)
		}
		res = append(res, item)
	}
	return res, total, nil
}

// --- Helpers ---

func parseInvoiceAmounts(raw map[string]string) (map[string]decimal.Decimal, error) {
	invoices := make(map[string]decimal.Decimal, len(raw))
	for num, amount := range raw {
		d, err := engine.ParseAmount("invoices['"+num+"']", amount)
		if err != nil {
			return nil, err
		}
		invoices[num] = d
	}
	return invoices, nil
}

func exceptionPayloads(exceptions []engine.ReconException) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(exceptions))
	for _, e := range exceptions {
		item := map[string]interface{}{
			"invoice_number": e.InvoiceNumber,
			"kind":           e.Kind,
			"message":        e.Message,
		}
		if e.InvoiceAmount != nil {
			item["invoice_amount"] = e.InvoiceAmount.StringFixed(2)
		}
		if e.ReceivedAmount != nil {
			item["received_amount"] = e.ReceivedAmount.StringFixed(2)
		}
		if e.Diff != nil {
			item["diff"] = e.Diff.StringFixed(2)
		}
		out = append(out, item)
	}
	return out
}
