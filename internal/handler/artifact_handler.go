package handler

import (
	"net/http"
	"strings"
	"time"

	"backend/internal/middleware"
	"backend/internal/storage"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type ArtifactHandler struct {
	store storage.ObjectStore
}

func NewArtifactHandler(store storage.ObjectStore) *ArtifactHandler {
	return &ArtifactHandler{store: store}
}

func (h *ArtifactHandler) RegisterRoutes(router *gin.RouterGroup) {
	artifacts := router.Group("/api/artifacts")
	artifacts.Use(middleware.RequireRole("admin", "analyst", "viewer"))
	{
		artifacts.GET("/url", h.GetDownloadURL)
	}
}

// GetDownloadURL issues a short-lived presigned link for a stored artifact
// @Summary      Artifact download URL
// @Tags         artifacts
// @Produce      json
// @Security     BearerAuth
// @Param        key  query     string  true  "Storage key from the audit trail"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/artifacts/url [get]
func (h *ArtifactHandler) GetDownloadURL(c *gin.Context) {
	key := c.Query("key")
	if key == "" || strings.Contains(key, "..") {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "key query parameter is required"))
		return
	}

	url, err := h.store.PresignedURL(c.Request.Context(), key, 15*time.Minute)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "artifact not found"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"url":        url,
		"expires_in": int((15 * time.Minute).Seconds()),
	}))
}
