// Package worker drains the job queue: it claims QUEUED jobs, dispatches them
// to the handler registered for their type and records the terminal status.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
)

// maxAttempts bounds transient retries inside one claim; the job itself is
// only ever attempted again through an explicit reprocess.
const maxAttempts = 3

// HandlerFunc executes one job and returns the result payload to persist.
type HandlerFunc func(ctx context.Context, tenantID uuid.UUID, payload []byte) (map[string]interface{}, error)

type Worker struct {
	repo         repository.JobRepository
	hub          *websocket.Hub
	handlers     map[string]HandlerFunc
	log          zerolog.Logger
	pollInterval time.Duration
	batchSize    int
}

func New(repo repository.JobRepository, hub *websocket.Hub, log zerolog.Logger, pollInterval time.Duration, batchSize int) *Worker {
	return &Worker{
		repo:         repo,
		hub:          hub,
		handlers:     make(map[string]HandlerFunc),
		log:          log,
		pollInterval: pollInterval,
		batchSize:    batchSize,
	}
}

// Register binds a job type to its handler. Unknown types are rejected at
// enqueue time already; a missing handler here means a deploy skew and fails
// the job instead of leaving it RUNNING.
func (w *Worker) Register(jobType string, h HandlerFunc) {
	w.handlers[jobType] = h
}

// Run polls for queued jobs until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.log.Info().Dur("poll_interval", w.pollInterval).Int("batch_size", w.batchSize).Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("worker stopping")
			return
		case <-ticker.C:
			w.drainOnce(ctx)
		}
	}
}

func (w *Worker) drainOnce(ctx context.Context) {
	jobs, err := w.repo.NextQueued(ctx, w.batchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("failed to poll queued jobs")
		return
	}

	for i := range jobs {
		w.process(ctx, &jobs[i])
	}
}

func (w *Worker) process(ctx context.Context, job *model.Job) {
	// The conditional update is the claim: losing the race means another
	// replica owns the job and we move on.
	claimed, err := w.repo.TransitionStatus(ctx, job.ID, []string{model.JobQueued}, model.JobRunning, nil)
	if err != nil {
		w.log.Error().Err(err).Str("job_id", job.ID.String()).Msg("failed to claim job")
		return
	}
	if !claimed {
		return
	}
	w.notify(job, model.JobRunning)

	log := w.log.With().
		Str("job_id", job.ID.String()).
		Str("job_type", job.JobType).
		Str("tenant_id", job.TenantID.String()).
		Logger()

	handler, ok := w.handlers[job.JobType]
	if !ok {
		w.fail(ctx, job, fmt.Sprintf("no handler registered for job type '%s'", job.JobType))
		log.Error().Msg("no handler registered")
		return
	}

	result, err := w.runWithRetry(ctx, handler, job)
	if err != nil {
		w.fail(ctx, job, err.Error())
		log.Error().Err(err).Msg("job failed")
		return
	}

	raw, err := json.Marshal(result)
	if err != nil {
		w.fail(ctx, job, "failed to serialize result: "+err.Error())
		return
	}

	ok, err = w.repo.TransitionStatus(ctx, job.ID, []string{model.JobRunning}, model.JobSuccess, map[string]interface{}{
		"result": datatypes.JSON(raw),
	})
	if err != nil || !ok {
		log.Error().Err(err).Msg("failed to record job success")
		return
	}
	w.notify(job, model.JobSuccess)
	log.Info().Msg("job succeeded")
}

func (w *Worker) runWithRetry(ctx context.Context, handler HandlerFunc, job *model.Job) (map[string]interface{}, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := handler(ctx, job.TenantID, job.Payload)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt < maxAttempts {
			w.log.Warn().Err(err).
				Str("job_id", job.ID.String()).
				Int("attempt", attempt).
				Msg("job attempt failed, retrying")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}
	return nil, lastErr
}

func (w *Worker) fail(ctx context.Context, job *model.Job, msg string) {
	ok, err := w.repo.TransitionStatus(ctx, job.ID, []string{model.JobRunning}, model.JobFailed, map[string]interface{}{
		"error_message": msg,
	})
	if err != nil || !ok {
		w.log.Error().Err(err).Str("job_id", job.ID.String()).Msg("failed to record job failure")
		return
	}
	w.notify(job, model.JobFailed)
}

func (w *Worker) notify(job *model.Job, status string) {
	if w.hub == nil {
		return
	}
	w.hub.NotifyJob(websocket.JobEvent{
		JobID:    job.ID.String(),
		TenantID: job.TenantID.String(),
		JobType:  job.JobType,
		Status:   status,
	})
}
