package models

import (
	"time"
)

// SuggestionStatus is the review state of a content suggestion.
type SuggestionStatus string

const (
	StatusPendingReview SuggestionStatus = "pending_review"
	StatusApproved      SuggestionStatus = "approved"
	StatusRejected      SuggestionStatus = "rejected"
	StatusThumbsUp      SuggestionStatus = "thumbs_up"
	StatusThumbsDown    SuggestionStatus = "thumbs_down"
)

// ValidStatus reports whether s is one of the defined suggestion statuses.
func ValidStatus(s SuggestionStatus) bool {
	switch s {
	case StatusPendingReview, StatusApproved, StatusRejected, StatusThumbsUp, StatusThumbsDown:
		return true
	}
	return false
}

// Platform is a supported social network.
type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformTwitter   Platform = "twitter"
	PlatformInstagram Platform = "instagram"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTikTok    Platform = "tiktok"
)

// ValidPlatform reports whether p is a supported platform.
func ValidPlatform(p Platform) bool {
	switch p {
	case PlatformFacebook, PlatformTwitter, PlatformInstagram, PlatformLinkedIn, PlatformTikTok:
		return true
	}
	return false
}

// ContentType classifies the editorial style of a suggestion.
type ContentType string

const (
	ContentEducational     ContentType = "educational"
	ContentPromotional     ContentType = "promotional"
	ContentEntertaining    ContentType = "entertaining"
	ContentInspirational   ContentType = "inspirational"
	ContentNews            ContentType = "news"
	ContentBehindTheScenes ContentType = "behind_the_scenes"
)

// ValidContentType reports whether ct is a supported content type.
func ValidContentType(ct ContentType) bool {
	switch ct {
	case ContentEducational, ContentPromotional, ContentEntertaining,
		ContentInspirational, ContentNews, ContentBehindTheScenes:
		return true
	}
	return false
}

// FeedbackType is a reviewer decision about a suggestion.
type FeedbackType string

const (
	FeedbackApprove    FeedbackType = "approve"
	FeedbackReject     FeedbackType = "reject"
	FeedbackThumbsUp   FeedbackType = "thumbs_up"
	FeedbackThumbsDown FeedbackType = "thumbs_down"
)

// ValidFeedbackType reports whether ft is a supported feedback type.
func ValidFeedbackType(ft FeedbackType) bool {
	switch ft {
	case FeedbackApprove, FeedbackReject, FeedbackThumbsUp, FeedbackThumbsDown:
		return true
	}
	return false
}

// StatusFor maps a feedback type to the suggestion status it produces.
func (ft FeedbackType) StatusFor() SuggestionStatus {
	switch ft {
	case FeedbackApprove:
		return StatusApproved
	case FeedbackReject:
		return StatusRejected
	case FeedbackThumbsUp:
		return StatusThumbsUp
	case FeedbackThumbsDown:
		return StatusThumbsDown
	}
	return StatusPendingReview
}

// ContentSuggestion represents one generated content candidate awaiting
// human review. Only status/updated_at are mutated after creation; every
// status change flows through the feedback pipeline.
type ContentSuggestion struct {
	ID                   string           `json:"id" db:"id"`
	TenantID             string           `json:"tenant_id" db:"tenant_id"`
	CampaignID           *string          `json:"campaign_id,omitempty" db:"campaign_id"`
	Platform             Platform         `json:"platform" db:"platform"`
	ContentType          ContentType      `json:"content_type" db:"content_type"`
	Title                string           `json:"title" db:"title"`
	Body                 string           `json:"body" db:"body"`
	Hashtags             []string         `json:"hashtags" db:"hashtags"`
	CallToAction         *string          `json:"call_to_action,omitempty" db:"call_to_action"`
	EngagementPrediction float64          `json:"engagement_score" db:"engagement_prediction"`
	Status               SuggestionStatus `json:"status" db:"status"`
	GeneratedAt          time.Time        `json:"generated_at" db:"generated_at"`
	UpdatedAt            time.Time        `json:"updated_at" db:"updated_at"`
}

// FeedbackEvent is one immutable reviewer decision. Events are append-only;
// a suggestion's status is always the projection of its latest event.
type FeedbackEvent struct {
	ID            string       `json:"id" db:"id"`
	SuggestionID  string       `json:"suggestion_id" db:"suggestion_id"`
	TenantID      string       `json:"tenant_id" db:"tenant_id"`
	FeedbackType  FeedbackType `json:"feedback_type" db:"feedback_type"`
	FeedbackScore *int         `json:"feedback_score,omitempty" db:"feedback_score"`
	Comment       *string      `json:"comment,omitempty" db:"comment"`
	ActorID       *string      `json:"actor_id,omitempty" db:"actor_id"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
}
