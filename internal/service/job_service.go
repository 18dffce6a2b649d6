package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// jobTransitions is the full forward state machine. The only backward
// transition, FAILED/NEEDS_HUMAN -> QUEUED, belongs to Reprocess alone and
// is deliberately absent here.
var jobTransitions = map[string][]string{
	model.JobQueued:  {model.JobRunning},
	model.JobRunning: {model.JobSuccess, model.JobFailed, model.JobNeedsHuman},
}

// --- DTOs ---

type CreateJobRequest struct {
	JobType        string                 `json:"job_type" binding:"required"`
	Payload        map[string]interface{} `json:"payload"`
	IdempotencyKey string                 `json:"idempotency_key"`
}

type UpdateJobRequest struct {
	Status       string                 `json:"status" binding:"required,oneof=QUEUED RUNNING SUCCESS FAILED NEEDS_HUMAN"`
	Result       map[string]interface{} `json:"result"`
	ErrorMessage *string                `json:"error_message"`
}

type JobResponse struct {
	ID             string                 `json:"id"`
	TenantID       string                 `json:"tenant_id"`
	JobType        string                 `json:"job_type"`
	Status         string                 `json:"status"`
	IdempotencyKey *string                `json:"idempotency_key"`
	Payload        map[string]interface{} `json:"payload"`
	Result         map[string]interface{} `json:"result"`
	ErrorMessage   *string                `json:"error_message"`
	CreatedAt      string                 `json:"created_at"`
	UpdatedAt      string                 `json:"updated_at"`
}

// --- Interface ---

type JobService interface {
	// Create enqueues a job. Re-submission with an existing idempotency key
	// returns the existing job unchanged; the bool reports whether a new
	// row was created.
	Create(ctx context.Context, tenantID uuid.UUID, req CreateJobRequest) (*JobResponse, bool, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*JobResponse, error)
	List(ctx context.Context, tenantID uuid.UUID, status string, limit int) ([]JobResponse, error)
	// Update applies an external status transition (worker or human in the
	// loop). Transitions outside the state machine are rejected.
	Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateJobRequest) (*JobResponse, error)
	// Reprocess resets a FAILED or NEEDS_HUMAN job to QUEUED, clearing the
	// error message. It is the only backward transition and never automatic.
	Reprocess(ctx context.Context, tenantID, id uuid.UUID) (*JobResponse, error)
}

type jobService struct {
	repo repository.JobRepository
	hub  *websocket.Hub
}

func NewJobService(repo repository.JobRepository, hub *websocket.Hub) JobService {
	return &jobService{repo: repo, hub: hub}
}

// --- Implementation ---

func (s *jobService) Create(ctx context.Context, tenantID uuid.UUID, req CreateJobRequest) (*JobResponse, bool, error) {
	if !model.KnownJobTypes[req.JobType] {
		return nil, false, fmt.Errorf("unknown job_type '%s'", req.JobType)
	}

	payload := req.Payload
	if payload == nil {
		payload = map[string]interface{}{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, false, fmt.Errorf("invalid payload: %w", err)
	}

	job := model.Job{
		TenantID: tenantID,
		JobType:  req.JobType,
		Status:   model.JobQueued,
		Payload:  raw,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		job.IdempotencyKey = &key
	}

	created, err := s.repo.CreateIdempotent(ctx, &job)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create job: %w", err)
	}

	return toJobResponse(&job), created, nil
}

func (s *jobService) Get(ctx context.Context, tenantID, id uuid.UUID) (*JobResponse, error) {
	job, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("job not found: %w", err)
	}
	return toJobResponse(job), nil
}

func (s *jobService) List(ctx context.Context, tenantID uuid.UUID, status string, limit int) ([]JobResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	jobs, err := s.repo.List(ctx, tenantID, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	res := make([]JobResponse, 0, len(jobs))
	for i := range jobs {
		res = append(res, *toJobResponse(&jobs[i]))
	}
	return res, nil
}

func (s *jobService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateJobRequest) (*JobResponse, error) {
	// Scope check only; the status read here may go stale before the
	// conditional update runs, so it is never used for error reporting.
	if _, err := s.repo.GetByID(ctx, tenantID, id); err != nil {
		return nil, fmt.Errorf("job not found: %w", err)
	}

	from := transitionSources(req.Status)
	if len(from) == 0 {
		return nil, fmt.Errorf("status '%s' is not reachable by update", req.Status)
	}

	updates := map[string]interface{}{}
	if req.Result != nil {
		raw, err := json.Marshal(req.Result)
		if err != nil {
			return nil, fmt.Errorf("invalid result: %w", err)
		}
		updates["result"] = datatypes.JSON(raw)
	}
	if req.ErrorMessage != nil {
		updates["error_message"] = *req.ErrorMessage
	}

	ok, err := s.repo.TransitionStatus(ctx, id, from, req.Status, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}
	if !ok {
		current, err := s.repo.GetByID(ctx, tenantID, id)
		if err != nil {
			return nil, fmt.Errorf("job not found: %w", err)
		}
		return nil, fmt.Errorf("invalid transition %s -> %s", current.Status, req.Status)
	}

	updated, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	s.notify(updated)
	return toJobResponse(updated), nil
}

func (s *jobService) Reprocess(ctx context.Context, tenantID, id uuid.UUID) (*JobResponse, error) {
	if _, err := s.repo.GetByID(ctx, tenantID, id); err != nil {
		return nil, fmt.Errorf("job not found: %w", err)
	}

	ok, err := s.repo.TransitionStatus(ctx, id,
		[]string{model.JobFailed, model.JobNeedsHuman},
		model.JobQueued,
		map[string]interface{}{"error_message": nil},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reprocess job: %w", err)
	}
	if !ok {
		current, err := s.repo.GetByID(ctx, tenantID, id)
		if err != nil {
			return nil, fmt.Errorf("job not found: %w", err)
		}
		return nil, fmt.Errorf("can only reprocess FAILED or NEEDS_HUMAN jobs (current: %s)", current.Status)
	}

	updated, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	s.notify(updated)
	return toJobResponse(updated), nil
}

func (s *jobService) notify(job *model.Job) {
	if s.hub == nil {
		return
	}
	s.hub.NotifyJob(websocket.JobEvent{
		JobID:    job.ID.String(),
		TenantID: job.TenantID.String(),
		JobType:  job.JobType,
		Status:   job.Status,
	})
}

// transitionSources lists the statuses from which target is reachable.
func transitionSources(target string) []string {
	var from []string
	for source, targets := range jobTransitions {
		for _, t := range targets {
			if t == target {
				from = append(from, source)
			}
		}
	}
	return from
}

func toJobResponse(job *model.Job) *JobResponse {
	res := &JobResponse{
		ID:             job.ID.String(),
		TenantID:       job.TenantID.String(),
		JobType:        job.JobType,
		Status:         job.Status,
		IdempotencyKey: job.IdempotencyKey,
		ErrorMessage:   job.ErrorMessage,
		CreatedAt:      job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      job.UpdatedAt.Format(time.RFC3339),
	}
	if len(job.Payload) > 0 {
		_ = json.Unmarshal(job.Payload, &res.Payload)
	}
	if len(job.Result) > 0 {
		_ = json.Unmarshal(job.Result, &res.Result)
	}
	return res
}
