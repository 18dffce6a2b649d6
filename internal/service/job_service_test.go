package service

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// fakeJobRepo is an in-memory JobRepository. It records the arguments of the
// last TransitionStatus call so tests can assert on the exact guard set and
// update map the service hands to the storage layer.
type fakeJobRepo struct {
	jobs         map[uuid.UUID]*model.Job
	lastFrom     []string
	lastTo       string
	lastUpdates  map[string]interface{}
	onTransition func()
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: map[uuid.UUID]*model.Job{}}
}

func (f *fakeJobRepo) add(job *model.Job) *model.Job {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	f.jobs[job.ID] = job
	return job
}

func (f *fakeJobRepo) CreateIdempotent(_ context.Context, job *model.Job) (bool, error) {
	if job.IdempotencyKey != nil {
		for _, existing := range f.jobs {
			if existing.TenantID == job.TenantID &&
				existing.IdempotencyKey != nil &&
				*existing.IdempotencyKey == *job.IdempotencyKey {
				*job = *existing
				return false, nil
			}
		}
	}
	job.ID = uuid.New()
	stored := *job
	f.jobs[stored.ID] = &stored
	return true, nil
}

func (f *fakeJobRepo) GetByID(_ context.Context, tenantID, id uuid.UUID) (*model.Job, error) {
	job, ok := f.jobs[id]
	if !ok || job.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *job
	return &copied, nil
}

func (f *fakeJobRepo) List(_ context.Context, tenantID uuid.UUID, status string, limit int) ([]model.Job, error) {
	var jobs []model.Job
	for _, job := range f.jobs {
		if job.TenantID != tenantID {
			continue
		}
		if status != "" && job.Status != status {
			continue
		}
		jobs = append(jobs, *job)
		if len(jobs) == limit {
			break
		}
	}
	return jobs, nil
}

func (f *fakeJobRepo) TransitionStatus(_ context.Context, id uuid.UUID, from []string, to string, updates map[string]interface{}) (bool, error) {
	f.lastFrom, f.lastTo, f.lastUpdates = from, to, updates
	if f.onTransition != nil {
		f.onTransition()
	}

	job, ok := f.jobs[id]
	if !ok {
		return false, nil
	}
	matched := false
	for _, s := range from {
		if job.Status == s {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}

	job.Status = to
	for k, v := range updates {
		switch k {
		case "error_message":
			if v == nil {
				job.ErrorMessage = nil
			} else if msg, ok := v.(string); ok {
				job.ErrorMessage = &msg
			}
		case "result":
			if raw, ok := v.(datatypes.JSON); ok {
				job.Result = raw
			}
		}
	}
	return true, nil
}

func (f *fakeJobRepo) NextQueued(_ context.Context, limit int) ([]model.Job, error) {
	var jobs []model.Job
	for _, job := range f.jobs {
		if job.Status != model.JobQueued {
			continue
		}
		jobs = append(jobs, *job)
		if len(jobs) == limit {
			break
		}
	}
	return jobs, nil
}

func TestCreateJobReturnsExistingOnDuplicateKey(t *testing.T) {
	repo := newFakeJobRepo()
	svc := NewJobService(repo, nil)
	tenant := uuid.New()

	req := CreateJobRequest{
		JobType:        model.JobTypeValidateInvoice,
		Payload:        map[string]interface{}{"invoice_number": "NF-001"},
		IdempotencyKey: "req-1",
	}

	first, created, err := svc.Create(context.Background(), tenant, req)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := svc.Create(context.Background(), tenant, req)
	require.NoError(t, err)
	assert.False(t, created, "resubmission must not create a second row")
	assert.Equal(t, first.ID, second.ID)

	req.IdempotencyKey = "req-2"
	third, created, err := svc.Create(context.Background(), tenant, req)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestCreateJobRejectsUnknownType(t *testing.T) {
	svc := NewJobService(newFakeJobRepo(), nil)

	_, _, err := svc.Create(context.Background(), uuid.New(), CreateJobRequest{JobType: "mine_bitcoin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown job_type")
}

func TestReprocessResetsJobAndClearsError(t *testing.T) {
	for _, status := range []string{model.JobFailed, model.JobNeedsHuman} {
		t.Run(status, func(t *testing.T) {
			repo := newFakeJobRepo()
			svc := NewJobService(repo, nil)
			tenant := uuid.New()
			msg := "rule not found"
			job := repo.add(&model.Job{
				TenantID:     tenant,
				JobType:      model.JobTypeValidateInvoice,
				Status:       status,
				ErrorMessage: &msg,
			})

			res, err := svc.Reprocess(context.Background(), tenant, job.ID)
			require.NoError(t, err)
			assert.Equal(t, model.JobQueued, res.Status)
			assert.Nil(t, res.ErrorMessage)

			assert.ElementsMatch(t, []string{model.JobFailed, model.JobNeedsHuman}, repo.lastFrom)
			assert.Equal(t, model.JobQueued, repo.lastTo)
			require.Contains(t, repo.lastUpdates, "error_message")
			assert.Nil(t, repo.lastUpdates["error_message"])
			assert.Nil(t, repo.jobs[job.ID].ErrorMessage)
		})
	}
}

func TestReprocessRejectsSuccessJob(t *testing.T) {
	repo := newFakeJobRepo()
	svc := NewJobService(repo, nil)
	tenant := uuid.New()
	job := repo.add(&model.Job{
		TenantID: tenant,
		JobType:  model.JobTypeReconciliation,
		Status:   model.JobSuccess,
	})

	_, err := svc.Reprocess(context.Background(), tenant, job.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), model.JobSuccess)
	assert.Equal(t, model.JobSuccess, repo.jobs[job.ID].Status)
}

func TestUpdateAppliesTransition(t *testing.T) {
	repo := newFakeJobRepo()
	svc := NewJobService(repo, nil)
	tenant := uuid.New()
	job := repo.add(&model.Job{
		TenantID: tenant,
		JobType:  model.JobTypeSimulation,
		Status:   model.JobRunning,
	})

	res, err := svc.Update(context.Background(), tenant, job.ID, UpdateJobRequest{
		Status: model.JobSuccess,
		Result: map[string]interface{}{"run_id": "r-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.JobSuccess, res.Status)
	assert.Equal(t, "r-1", res.Result["run_id"])
}

func TestUpdateErrorNamesStatusAfterLostRace(t *testing.T) {
	repo := newFakeJobRepo()
	svc := NewJobService(repo, nil)
	tenant := uuid.New()
	job := repo.add(&model.Job{
		TenantID: tenant,
		JobType:  model.JobTypeComplianceReport,
		Status:   model.JobRunning,
	})

	// A worker finishes the job between the scope check and the conditional
	// update; the rejection must name the status the row actually has now.
	repo.onTransition = func() { repo.jobs[job.ID].Status = model.JobSuccess }

	_, err := svc.Update(context.Background(), tenant, job.ID, UpdateJobRequest{Status: model.JobFailed})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid transition SUCCESS -> FAILED")
}

func TestTransitionSources(t *testing.T) {
	assert.ElementsMatch(t, []string{model.JobQueued}, transitionSources(model.JobRunning))
	assert.ElementsMatch(t, []string{model.JobRunning}, transitionSources(model.JobSuccess))
	assert.ElementsMatch(t, []string{model.JobRunning}, transitionSources(model.JobFailed))
	assert.ElementsMatch(t, []string{model.JobRunning}, transitionSources(model.JobNeedsHuman))

	// QUEUED is only reachable through reprocess, never a plain update
	assert.Empty(t, transitionSources(model.JobQueued))
	assert.Empty(t, transitionSources("UNKNOWN"))
}

func TestToJobResponseDecodesJSON(t *testing.T) {
	job := &model.Job{
		JobType: model.JobTypeValidateInvoice,
		Status:  model.JobSuccess,
		Payload: []byte(`{"invoice_number":"NF-001"}`),
		Result:  []byte(`{"status":"PASS"}`),
	}

	res := toJobResponse(job)
	assert.Equal(t, "NF-001", res.Payload["invoice_number"])
	assert.Equal(t, "PASS", res.Result["status"])
}
