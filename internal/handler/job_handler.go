package handler

import (
	"net/http"
	"strconv"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type JobHandler struct {
	jobService service.JobService
}

func NewJobHandler(jobService service.JobService) *JobHandler {
	return &JobHandler{jobService: jobService}
}

func (h *JobHandler) RegisterRoutes(router *gin.RouterGroup) {
	jobs := router.Group("/api/jobs")
	{
		jobs.POST("", middleware.RequireRole("admin", "analyst"), h.CreateJob)
		jobs.GET("", middleware.RequireRole("admin", "analyst", "viewer"), h.ListJobs)
		jobs.GET("/:id", middleware.RequireRole("admin", "analyst", "viewer"), h.GetJob)
		jobs.PATCH("/:id", middleware.RequireRole("admin", "analyst"), h.UpdateJob)
		jobs.POST("/:id/reprocess", middleware.RequireRole("admin", "analyst"), h.ReprocessJob)
	}
}

// CreateJob enqueues an asynchronous job
// @Summary      Enqueue a job
// @Description  Enqueues an asynchronous job. Resubmitting the same idempotency key returns the existing job with 200 instead of 201.
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateJobRequest  true  "Job payload"
// @Success      201      {object}  response.Response{data=service.JobResponse}
// @Success      200      {object}  response.Response{data=service.JobResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/jobs [post]
func (h *JobHandler) CreateJob(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Tenant scope missing"))
		return
	}

	var req service.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	job, created, err := h.jobService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	c.JSON(status, response.Success(status, job))
}

// ListJobs lists the tenant's jobs, optionally filtered by status
// @Summary      List jobs
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"
// @Param        limit   query     int     false  "Max rows (default 50)"
// @Success      200     {object}  response.Response{data=[]service.JobResponse}
// @Router       /api/jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Tenant scope missing"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	jobs, err := h.jobService.List(c.Request.Context(), tenantID, c.Query("status"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, jobs))
}

// GetJob returns one job with its result
// @Summary      Get job
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  response.Response{data=service.JobResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/jobs/{id} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Tenant scope missing"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid job id"))
		return
	}

	job, err := h.jobService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, job))
}

// UpdateJob applies an external status transition
// @Summary      Update job status
// @Description  Applies a status transition. Transitions outside the job state machine are rejected.
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "Job ID"
// @Param        payload  body      service.UpdateJobRequest  true  "Status update"
// @Success      200      {object}  response.Response{data=service.JobResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/jobs/{id} [patch]
func (h *JobHandler) UpdateJob(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Tenant scope missing"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid job id"))
		return
	}

	var req service.UpdateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	job, err := h.jobService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, job))
}

// ReprocessJob resets a failed job back to the queue
// @Summary      Reprocess job
// @Description  Resets a FAILED or NEEDS_HUMAN job to QUEUED and clears its error message.
// @Tags         jobs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  response.Response{data=service.JobResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/jobs/{id}/reprocess [post]
func (h *JobHandler) ReprocessJob(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Tenant scope missing"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid job id"))
		return
	}

	job, err := h.jobService.Reprocess(c.Request.Context(), tenantID, id)
	if err != nil {
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, job))
}
