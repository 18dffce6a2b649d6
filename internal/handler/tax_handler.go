package handler

import (
	"net/http"
	"time"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type TaxHandler struct {
	taxService service.TaxRuleService
}

func NewTaxHandler(taxService service.TaxRuleService) *TaxHandler {
	return &TaxHandler{taxService: taxService}
}

func (h *TaxHandler) RegisterRoutes(router *gin.RouterGroup) {
	tax := router.Group("/api/tax-rules")
	{
		tax.GET("", middleware.RequireRole("admin", "analyst", "viewer"), h.GetTaxRules)
		tax.GET("/resolve", middleware.RequireRole("admin", "analyst", "viewer"), h.ResolveRate)
		tax.POST("", middleware.RequireRole("admin", "analyst"), h.CreateTaxRule)
		tax.POST("/:id/close", middleware.RequireRole("admin", "analyst"), h.CloseTaxRule)
	}
}

// GetTaxRules returns the tenant's tax rules, newest validity first
func (h *TaxHandler) GetTaxRules(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Tenant scope missing"))
		return
	}

	p := pagination.Parse(c)
	rules, total, err := h.taxService.GetTaxRules(c.Request.Context(), tenantID, p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"items": rules,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
	}))
}

// CreateTaxRule creates a new tax rule entry
func (h *TaxHandler) CreateTaxRule(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Tenant scope missing"))
		return
	}

	var req service.CreateTaxRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rule, err := h.taxService.CreateTaxRule(c.Request.Context(), tenantID, req, middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rule))
}

// CloseTaxRule sets valid_to on an open-ended rule
func (h *TaxHandler) CloseTaxRule(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Tenant scope missing"))
		return
	}

	var req service.CloseTaxRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	rule, err := h.taxService.CloseTaxRule(c.Request.Context(), tenantID, c.Param("id"), req, middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, rule))
}

// ResolveRate returns the rate applicable at a reference date
func (h *TaxHandler) ResolveRate(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Tenant scope missing"))
		return
	}

	ruleCode := c.Query("rule_code")
	taxType := c.Query("tax_type")
	if ruleCode == "" || taxType == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "rule_code and tax_type query parameters are required"))
		return
	}

	refDate := time.Now()
	if raw := c.Query("reference_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid reference_date format (expected YYYY-MM-DD)"))
			return
		}
		refDate = parsed
	}

	resolved, err := h.taxService.ResolveRate(c.Request.Context(), tenantID, ruleCode, taxType, refDate)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, resolved))
}
