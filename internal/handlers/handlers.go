// Package handlers implements the HTTP surface of the content review
// service. Every tenant-scoped handler reads tenant_id from the gin context
// (set by the JWT middleware), never from the request body.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lookout/internal/analytics"
	"lookout/internal/cache"
	"lookout/internal/logging"
	"lookout/internal/metrics"
	"lookout/internal/recommend"
	"lookout/internal/review"
	"lookout/internal/store"
)

// Handlers is the dependency bundle for all HTTP handlers.
type Handlers struct {
	logger       logging.Logger
	suggestions  *store.SuggestionStore
	ledger       *store.FeedbackLedger
	recs         *store.RecommendationStore
	review       *review.Service
	aggregator   *analytics.Aggregator
	engine       *recommend.Engine
	summaryCache *cache.Cache
	metrics      *metrics.Metrics
}

func New(
	logger logging.Logger,
	suggestions *store.SuggestionStore,
	ledger *store.FeedbackLedger,
	recs *store.RecommendationStore,
	reviewSvc *review.Service,
	aggregator *analytics.Aggregator,
	engine *recommend.Engine,
	serviceMetrics *metrics.Metrics,
) *Handlers {
	return &Handlers{
		logger:      logger,
		suggestions: suggestions,
		ledger:      ledger,
		recs:        recs,
		review:      reviewSvc,
		aggregator:  aggregator,
		engine:      engine,
		summaryCache: cache.New(cache.Options{
			TTL:                  15 * time.Second,
			StaleWhileRevalidate: 15 * time.Second,
			MaxEntries:           8192,
		}, cache.MetricsHooks{}),
		metrics: serviceMetrics,
	}
}

// tenantID reads the tenant bound by the auth middleware.
func tenantID(c *gin.Context) string {
	return c.GetString("tenant_id")
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}

// mapError translates service errors into the error envelope.
func (h *Handlers) mapError(c *gin.Context, err error, what string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(c, http.StatusNotFound, what+" not found")
	case errors.Is(err, review.ErrInvalidFeedback), errors.Is(err, review.ErrInvalidAction):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}
