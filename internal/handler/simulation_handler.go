package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type SimulationHandler struct {
	simulationService service.SimulationService
}

func NewSimulationHandler(simulationService service.SimulationService) *SimulationHandler {
	return &SimulationHandler{simulationService: simulationService}
}

func (h *SimulationHandler) RegisterRoutes(router *gin.RouterGroup) {
	sims := router.Group("/api/simulations")
	{
		sims.POST("", middleware.RequireRole("admin", "analyst"), h.RunSimulation)
		sims.GET("", middleware.RequireRole("admin", "analyst", "viewer"), h.ListSimulations)
	}
}

// RunSimulation executes a what-if simulation synchronously
// @Summary      Run simulation
// @Description  Computes tax amounts for the current rates and each hypothetical scenario, with deltas against the current configuration.
// @Tags         simulations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SimulationRequest  true  "Simulation payload"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /api/simulations [post]
func (h *SimulationHandler) RunSimulation(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Tenant scope missing"))
		return
	}

	var req service.SimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.simulationService.Run(c.Request.Context(), tenantID, req)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, response.Error(http.StatusUnprocessableEntity, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ListSimulations returns past runs, newest first
func (h *SimulationHandler) ListSimulations(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Tenant scope missing"))
		return
	}

	p := pagination.Parse(c)
	runs, total, err := h.simulationService.List(c.Request.Context(), tenantID, p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"items": runs,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
	}))
}
