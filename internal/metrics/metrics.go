package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds all Prometheus metrics for the content review service
type Metrics struct {
	FeedbackEvents           *prometheus.CounterVec
	SuggestionsIngested      *prometheus.CounterVec
	BatchActions             *prometheus.CounterVec
	RecommendationRuns       *prometheus.CounterVec
	RecommendationsProposed  *prometheus.CounterVec
	RecommendationRunSeconds *prometheus.HistogramVec
}
