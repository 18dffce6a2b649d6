package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReconciliationHandler struct {
	reconciliationService service.ReconciliationService
}

func NewReconciliationHandler(reconciliationService service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliationService: reconciliationService}
}

func (h *ReconciliationHandler) RegisterRoutes(router *gin.RouterGroup) {
	recs := router.Group("/api/reconciliations")
	{
		recs.POST("", middleware.RequireRole("admin", "analyst"), h.RunReconciliation)
		recs.GET("", middleware.RequireRole("admin", "analyst", "viewer"), h.ListReconciliations)
	}
}

// RunReconciliation matches a receivables ledger against invoices
// @Summary      Run reconciliation
// @Description  Matches a base64-encoded semicolon-delimited receivables CSV against invoice amounts and classifies every divergence.
// @Tags         reconciliations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ReconciliationRequest  true  "Reconciliation payload"
// @Success      200      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/reconciliations [post]
func (h *ReconciliationHandler) RunReconciliation(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Tenant scope missing"))
		return
	}

	var req service.ReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.reconciliationService.Run(c.Request.Context(), tenantID, req)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, response.Error(http.StatusUnprocessableEntity, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ListReconciliations returns past runs, newest first
func (h *ReconciliationHandler) ListReconciliations(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Tenant scope missing"))
		return
	}

	p := pagination.Parse(c)
	runs, total, err := h.reconciliationService.List(c.Request.Context(), tenantID, p.Page, p.Limit)
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
