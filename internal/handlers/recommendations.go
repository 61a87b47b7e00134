package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lookout/internal/models"
)

// ListRecommendations returns the tenant's recommendations, highest
// confidence first, optionally filtered by status.
func (h *Handlers) ListRecommendations(c *gin.Context) {
	var status models.RecommendationStatus
	if raw := c.Query("status"); raw != "" {
		status = models.RecommendationStatus(raw)
		if !models.ValidRecommendationStatus(status) {
			respondError(c, http.StatusBadRequest, "unknown status: "+raw)
			return
		}
	}

	recs, err := h.recs.List(c.Request.Context(), tenantID(c), status)
	if err != nil {
		h.mapError(c, err, "recommendations")
		return
	}
	if recs == nil {
		recs = []models.Recommendation{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"recommendations": recs,
	})
}

// RecommendationStatusRequest marks a recommendation implemented or dismissed.
type RecommendationStatusRequest struct {
	Status models.RecommendationStatus `json:"status" binding:"required"`
}

// UpdateRecommendationStatus records the tenant's decision on a
// recommendation. Only implemented and dismissed are accepted; a
// recommendation returns to proposed only through the engine.
func (h *Handlers) UpdateRecommendationStatus(c *gin.Context) {
	var req RecommendationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request format")
		return
	}
	if req.Status != models.RecommendationImplemented && req.Status != models.RecommendationDismissed {
		respondError(c, http.StatusBadRequest, "status must be implemented or dismissed")
		return
	}

	rec, err := h.recs.UpdateStatus(c.Request.Context(), tenantID(c), c.Param("id"), req.Status)
	if err != nil {
		h.mapError(c, err, "recommendation")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"recommendation": rec,
	})
}

// RunRecommendations triggers an engine run for the tenant. Concurrent
// triggers collapse into a single run.
func (h *Handlers) RunRecommendations(c *gin.Context) {
	created, err := h.engine.Run(c.Request.Context(), tenantID(c))
	if err != nil {
		h.mapError(c, err, "recommendations")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"created": created,
	})
}
