package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	audit := router.Group("/api/audit")
	audit.Use(middleware.RequireRole("admin", "analyst", "viewer"))
	{
		audit.GET("", h.Search)
		audit.GET("/:id/verify", h.Verify)
	}
}

// Search lists audit records filtered by entity
// @Summary      Search audit trail
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        entity_type  query     string  false  "Entity type filter"
// @Param        entity_id    query     string  false  "Entity id filter"
// @Param        limit        query     int     false  "Max rows (default 50, cap 200)"
// @Success      200          {object}  response.Response{data=[]service.AuditRecordResponse}
// @Router       /api/audit [get]
func (h *AuditHandler) Search(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Tenant scope missing"))
		return
	}

	var req service.AuditSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid query parameters: "+err.Error()))
		return
	}

	records, err := h.auditService.Search(c.Request.Context(), tenantID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, records))
}

// Verify re-derives a record's checksum
// @Summary      Verify audit record integrity
// @Description  Recomputes the checksum of the stored payload and reports whether it matches the sealed value.
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Audit record ID"
// @Success      200  {object}  response.Response{data=service.AuditVerifyResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/audit/{id}/verify [get]
func (h *AuditHandler) Verify(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Tenant scope missing"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid audit record id"))
		return
	}

	result, err := h.auditService.Verify(c.Request.Context(), tenantID, id)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
