package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lookout/internal/logging"
	"lookout/internal/models"
	"lookout/internal/store"
)

// ListSuggestions returns a filtered, paginated page of suggestions for the
// authenticated tenant. Empty query parameters mean no constraint.
func (h *Handlers) ListSuggestions(c *gin.Context) {
	tenant := tenantID(c)

	limit := store.DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	offset := 0
	if raw := c.Query("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(c, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		offset = parsed
	}

	var filters store.SuggestionFilters
	if raw := c.Query("status"); raw != "" {
		status := models.SuggestionStatus(raw)
		if !models.ValidStatus(status) {
			respondError(c, http.StatusBadRequest, "unknown status: "+raw)
			return
		}
		filters.Status = status
	}
	if raw := c.Query("platform"); raw != "" {
		platform := models.Platform(raw)
		if !models.ValidPlatform(platform) {
			respondError(c, http.StatusBadRequest, "unknown platform: "+raw)
			return
		}
		filters.Platform = platform
	}
	if raw := c.Query("content_type"); raw != "" {
		contentType := models.ContentType(raw)
		if !models.ValidContentType(contentType) {
			respondError(c, http.StatusBadRequest, "unknown content_type: "+raw)
			return
		}
		filters.ContentType = contentType
	}

	suggestions, total, err := h.suggestions.List(c.Request.Context(), tenant, filters, limit, offset)
	if err != nil {
		h.mapError(c, err, "suggestions")
		return
	}
	if suggestions == nil {
		suggestions = []models.ContentSuggestion{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"suggestions": suggestions,
		"total_count": total,
	})
}

// GetSuggestion returns a single suggestion by id.
func (h *Handlers) GetSuggestion(c *gin.Context) {
	suggestion, err := h.suggestions.Get(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		h.mapError(c, err, "suggestion")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"suggestion": suggestion,
	})
}

// CreateSuggestionRequest is the generator ingest payload. tenant_id comes
// from the service-auth context, not the body.
type CreateSuggestionRequest struct {
	TenantID             string             `json:"tenant_id" binding:"required"`
	CampaignID           *string            `json:"campaign_id"`
	Platform             models.Platform    `json:"platform" binding:"required"`
	ContentType          models.ContentType `json:"content_type" binding:"required"`
	Title                string             `json:"title" binding:"required"`
	Body                 string             `json:"body" binding:"required"`
	Hashtags             []string           `json:"hashtags"`
	CallToAction         *string            `json:"call_to_action"`
	EngagementPrediction float64            `json:"engagement_score"`
}

// CreateSuggestion ingests one generated suggestion. Service-token only;
// the generator names the tenant explicitly.
func (h *Handlers) CreateSuggestion(c *gin.Context) {
	var req CreateSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request format")
		return
	}
	if !models.ValidPlatform(req.Platform) {
		respondError(c, http.StatusBadRequest, "unknown platform: "+string(req.Platform))
		return
	}
	if !models.ValidContentType(req.ContentType) {
		respondError(c, http.StatusBadRequest, "unknown content_type: "+string(req.ContentType))
		return
	}

	suggestion, err := h.suggestions.Create(c.Request.Context(), models.ContentSuggestion{
		TenantID:             req.TenantID,
		CampaignID:           req.CampaignID,
		Platform:             req.Platform,
		ContentType:          req.ContentType,
		Title:                req.Title,
		Body:                 req.Body,
		Hashtags:             req.Hashtags,
		CallToAction:         req.CallToAction,
		EngagementPrediction: req.EngagementPrediction,
	})
	if err != nil {
		h.mapError(c, err, "suggestion")
		return
	}

	if h.metrics != nil {
		h.metrics.SuggestionsIngested.WithLabelValues(string(suggestion.Platform), string(suggestion.ContentType)).Inc()
	}
	h.logger.WithFields(logging.Fields{
		"tenant_id":     suggestion.TenantID,
		"suggestion_id": suggestion.ID,
		"platform":      suggestion.Platform,
	}).Info("Suggestion ingested")

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"suggestion": suggestion,
	})
}
