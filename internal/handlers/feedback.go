package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lookout/internal/models"
	"lookout/internal/review"
)

// FeedbackRequest is one reviewer decision about a suggestion.
type FeedbackRequest struct {
	FeedbackType  models.FeedbackType `json:"feedback_type" binding:"required"`
	FeedbackScore *int                `json:"feedback_score"`
	Comment       *string             `json:"comment"`
}

// SubmitFeedback records a decision and returns the updated suggestion.
// Re-submitting feedback for an already decided suggestion is allowed; the
// latest decision wins and the full history stays in the ledger.
func (h *Handlers) SubmitFeedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request format")
		return
	}

	suggestion, _, err := h.review.ApplyFeedback(c.Request.Context(), tenantID(c), c.Param("id"), review.FeedbackRequest{
		Type:    req.FeedbackType,
		Score:   req.FeedbackScore,
		Comment: req.Comment,
		ActorID: c.GetString("user_id"),
	})
	if err != nil {
		h.mapError(c, err, "suggestion")
		return
	}

	// Drop the cached summary so the counters read back current.
	h.summaryCache.Delete(tenantID(c))

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"suggestion": suggestion,
	})
}

// BatchActionRequest applies one approve/reject decision to many ids.
type BatchActionRequest struct {
	SuggestionIDs []string            `json:"suggestion_ids" binding:"required"`
	Action        models.FeedbackType `json:"action" binding:"required"`
}

// BatchAction approves or rejects a set of suggestions. Unknown ids are
// skipped; the response count is how many actually transitioned.
func (h *Handlers) BatchAction(c *gin.Context) {
	var req BatchActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request format")
		return
	}

	count, err := h.review.BatchAction(c.Request.Context(), tenantID(c), req.SuggestionIDs, req.Action, c.GetString("user_id"))
	if err != nil {
		h.mapError(c, err, "suggestions")
		return
	}

	if h.metrics != nil {
		h.metrics.BatchActions.WithLabelValues(string(req.Action)).Inc()
	}
	if count > 0 {
		h.summaryCache.Delete(tenantID(c))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   count,
	})
}

// ListFeedback returns the full feedback history for one suggestion,
// oldest first.
func (h *Handlers) ListFeedback(c *gin.Context) {
	tenant := tenantID(c)
	id := c.Param("id")

	// 404 for unknown suggestions rather than an empty history.
	if _, err := h.suggestions.Get(c.Request.Context(), tenant, id); err != nil {
		h.mapError(c, err, "suggestion")
		return
	}

	events, err := h.ledger.ListForSuggestion(c.Request.Context(), tenant, id)
	if err != nil {
		h.mapError(c, err, "feedback")
		return
	}
	if events == nil {
		events = []models.FeedbackEvent{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"feedback": events,
	})
}
