package models

import (
	"time"
)

// AnalyticsSummary is the derived per-tenant approval picture. It is never
// stored authoritatively; the counters row it is read from must always be
// reproducible by replaying the feedback ledger.
type AnalyticsSummary struct {
	TotalSuggestions    int64   `json:"total_suggestions"`
	PendingSuggestions  int64   `json:"pending_suggestions"`
	ApprovedSuggestions int64   `json:"approved_suggestions"`
	RejectedSuggestions int64   `json:"rejected_suggestions"`
	ApprovalRate        float64 `json:"approval_rate"`
}

// RecommendationCategory groups recommendations by the dimension they mine.
type RecommendationCategory string

const (
	CategoryContentStrategy RecommendationCategory = "content-strategy"
	CategoryPlatformFocus   RecommendationCategory = "platform-focus"
	CategoryTiming          RecommendationCategory = "timing"
	CategoryOther           RecommendationCategory = "other"
)

// RecommendationStatus tracks the lifecycle of a surfaced recommendation.
type RecommendationStatus string

const (
	RecommendationProposed    RecommendationStatus = "proposed"
	RecommendationImplemented RecommendationStatus = "implemented"
	RecommendationDismissed   RecommendationStatus = "dismissed"
)

// ValidRecommendationStatus reports whether s is a defined status.
func ValidRecommendationStatus(s RecommendationStatus) bool {
	switch s {
	case RecommendationProposed, RecommendationImplemented, RecommendationDismissed:
		return true
	}
	return false
}

// Impact buckets a recommendation by the volume share of its dimension.
type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// Recommendation is a system-generated, evidence-backed strategy adjustment.
// DimensionKey is the deterministic identity of the mined pattern
// (e.g. "content-strategy:educational:increase") and keeps engine runs
// idempotent across an unchanged ledger.
type Recommendation struct {
	ID              string                 `json:"id" db:"id"`
	TenantID        string                 `json:"tenant_id" db:"tenant_id"`
	Category        RecommendationCategory `json:"category" db:"category"`
	DimensionKey    string                 `json:"-" db:"dimension_key"`
	Title           string                 `json:"title" db:"title"`
	Description     string                 `json:"description" db:"description"`
	Confidence      float64                `json:"confidence" db:"confidence"`
	Impact          Impact                 `json:"impact" db:"impact"`
	EvidenceSize    int64                  `json:"evidence_size" db:"evidence_size"`
	SuggestedAction string                 `json:"suggested_action" db:"suggested_action"`
	Status          RecommendationStatus   `json:"status" db:"status"`
	CreatedAt       time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at" db:"updated_at"`
}

// BusinessProfile is tenant context read from an external system of record.
// The core only reads it, to frame recommendation copy.
type BusinessProfile struct {
	TenantID       string  `json:"tenant_id" db:"tenant_id"`
	BusinessName   string  `json:"business_name" db:"business_name"`
	Industry       *string `json:"industry,omitempty" db:"industry"`
	TargetAudience *string `json:"target_audience,omitempty" db:"target_audience"`
	BrandVoice     *string `json:"brand_voice,omitempty" db:"brand_voice"`
}
