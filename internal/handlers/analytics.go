package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AnalyticsSummary returns the tenant's approval counters. Responses are
// cached briefly; concurrent requests for the same tenant share one query.
func (h *Handlers) AnalyticsSummary(c *gin.Context) {
	tenant := tenantID(c)

	summary, ok, err := h.summaryCache.Get(c.Request.Context(), tenant, func(ctx context.Context, key string) (interface{}, bool, error) {
		s, err := h.aggregator.Summarize(ctx, key)
		if err != nil {
			return nil, false, err
		}
		return s, true, nil
	})
	if err != nil || !ok {
		h.mapError(c, err, "summary")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"summary": summary,
	})
}
