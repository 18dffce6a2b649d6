package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/checksum"

	"github.com/google/uuid"
)

// --- DTOs ---

type AuditRecordResponse struct {
	ID         string  `json:"id"`
	TenantID   string  `json:"tenant_id"`
	Action     string  `json:"action"`
	EntityType string  `json:"entity_type"`
	EntityID   *string `json:"entity_id"`
	Checksum   string  `json:"checksum"`
	CreatedAt  string  `json:"created_at"`
}

type AuditSearchRequest struct {
	EntityType string `form:"entity_type"`
	EntityID   string `form:"entity_id"`
	Limit      int    `form:"limit"`
}

type AuditVerifyResponse struct {
	ID       string `json:"id"`
	Valid    bool   `json:"valid"`
	Checksum string `json:"checksum"`
	Detail   string `json:"detail,omitempty"`
}

// --- Interface ---

// AuditService is the tamper-evident trail every engine result is appended
// to. Records are write-once; verification re-derives the payload checksum.
type AuditService interface {
	Record(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, action, entityType string, entityID *string, payload map[string]interface{}) (*AuditRecordResponse, error)
	Search(ctx context.Context, tenantID uuid.UUID, req AuditSearchRequest) ([]AuditRecordResponse, error)
	Verify(ctx context.Context, tenantID, id uuid.UUID) (*AuditVerifyResponse, error)
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// --- Implementation ---

// Record seals the payload with its checksum and appends the record.
func (s *auditService) Record(ctx context.Context, tenantID uuid.UUID, userID *uuid.UUID, action, entityType string, entityID *string, payload map[string]interface{}) (*AuditRecordResponse, error) {
	if payload == nil {
		payload = map[string]interface{}{}
	}

	sealed, sum, err := checksum.Embed(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to seal audit payload: %w", err)
	}

	raw, err := json.Marshal(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize audit payload: %w", err)
	}

	record := model.AuditRecord{
		TenantID:   tenantID,
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Payload:    raw,
	}
	if err := s.repo.Append(ctx, &record); err != nil {
		return nil, fmt.Errorf("failed to append audit record: %w", err)
	}

	return &AuditRecordResponse{
		ID:         record.ID.String(),
		TenantID:   tenantID.String(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Checksum:   sum,
		CreatedAt:  record.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (s *auditService) Search(ctx context.Context, tenantID uuid.UUID, req AuditSearchRequest) ([]AuditRecordResponse, error) {
	records, err := s.repo.Search(ctx, tenantID, repository.AuditFilter{
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Limit:      req.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("audit search failed: %w", err)
	}

	res := make([]AuditRecordResponse, 0, len(records))
	for _, r := range records {
		res = append(res, AuditRecordResponse{
			ID:         r.ID.String(),
			TenantID:   r.TenantID.String(),
			Action:     r.Action,
			EntityType: r.EntityType,
			EntityID:   r.EntityID,
			Checksum:   embeddedChecksum(r.Payload),
			CreatedAt:  r.CreatedAt.Format(time.RFC3339),
		})
	}
	return res, nil
}

// Verify re-derives the checksum of a stored record. A mismatch signals
// tampering and is reported in the response, never swallowed.
func (s *auditService) Verify(ctx context.Context, tenantID, id uuid.UUID) (*AuditVerifyResponse, error) {
	record, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("audit record not found: %w", err)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(record.Payload, &payload); err != nil {
		return nil, fmt.Errorf("stored payload is not an object: %w", err)
	}

	sum, err := checksum.Verify(payload)
	if err != nil {
		var mismatch *checksum.MismatchError
		if errors.As(err, &mismatch) {
			return &AuditVerifyResponse{
				ID:       record.ID.String(),
				Valid:    false,
				Checksum: mismatch.Recorded,
				Detail:   mismatch.Error(),
			}, nil
		}
		return nil, err
	}

	return &AuditVerifyResponse{ID: record.ID.String(), Valid: true, Checksum: sum}, nil
}

func embeddedChecksum(raw []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	sum, _ := payload[checksum.Key].(string)
	return sum
}
