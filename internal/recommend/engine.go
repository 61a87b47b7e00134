// Package recommend mines the feedback ledger for content-strategy
// patterns. It partitions decided feedback by content type, platform and
// time-of-day, flags partitions whose approval rate deviates from the
// tenant's overall rate, and emits ranked recommendations.
package recommend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"lookout/internal/logging"
	"lookout/internal/models"
	"lookout/internal/profiles"
	"lookout/internal/store"
)

// Config tunes the mining pass.
type Config struct {
	// MinTrainingSamples is the minimum raw feedback count a partition
	// needs before it can surface a recommendation.
	MinTrainingSamples int
	// DeviationMargin is the minimum distance, in percentage points, a
	// partition's approval rate must sit from the tenant's overall rate.
	DeviationMargin float64
	// Lookback bounds how far back the engine reads the ledger.
	Lookback time.Duration
	// TopN caps how many recommendations one run emits.
	TopN int
	// ThumbsWeight discounts thumbs_up/thumbs_down relative to
	// approve/reject when computing rates.
	ThumbsWeight float64
}

// DefaultConfig returns the default mining configuration.
func DefaultConfig() Config {
	return Config{
		MinTrainingSamples: 20,
		DeviationMargin:    10.0,
		Lookback:           90 * 24 * time.Hour,
		TopN:               5,
		ThumbsWeight:       0.5,
	}
}

// Engine runs the mining pass. Runs for the same tenant are collapsed via
// singleflight so a scheduled run and a manual trigger cannot double-emit.
type Engine struct {
	ledger   *store.FeedbackLedger
	recs     *store.RecommendationStore
	profiles profiles.Provider
	logger   logging.Logger
	cfg      Config
	group    singleflight.Group

	onRun func(created int, duration time.Duration, err error)
}

func NewEngine(ledger *store.FeedbackLedger, recs *store.RecommendationStore, provider profiles.Provider, logger logging.Logger, cfg Config) *Engine {
	if cfg.MinTrainingSamples <= 0 {
		cfg = DefaultConfig()
	}
	return &Engine{
		ledger:   ledger,
		recs:     recs,
		profiles: provider,
		logger:   logger,
		cfg:      cfg,
	}
}

// OnRun registers a hook invoked after every completed run, used for metrics.
func (e *Engine) OnRun(fn func(created int, duration time.Duration, err error)) {
	e.onRun = fn
}

// Run executes one mining pass for the tenant and returns how many
// recommendations were proposed or refreshed. Concurrent calls for the same
// tenant share a single execution.
func (e *Engine) Run(ctx context.Context, tenantID string) (int, error) {
	result, err, _ := e.group.Do(tenantID, func() (interface{}, error) {
		start := time.Now()
		created, err := e.run(ctx, tenantID)
		if e.onRun != nil {
			e.onRun(created, time.Since(start), err)
		}
		return created, err
	})
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}

func (e *Engine) run(ctx context.Context, tenantID string) (int, error) {
	since := time.Now().Add(-e.cfg.Lookback)
	rows, err := e.ledger.DecisionRows(ctx, tenantID, since)
	if err != nil {
		return 0, err
	}

	candidates := Mine(rows, e.cfg)
	if len(candidates) == 0 {
		if err := e.ledger.MarkEngineRun(ctx, tenantID); err != nil {
			e.logger.WithError(err).WithField("tenant_id", tenantID).Warn("Failed to record engine run")
		}
		return 0, nil
	}

	existing, err := e.recs.ExistingByDimension(ctx, tenantID)
	if err != nil {
		return 0, err
	}

	var profile *models.BusinessProfile
	if e.profiles != nil {
		if p, err := e.profiles.GetProfile(ctx, tenantID); err == nil {
			profile = &p
		}
	}

	created := 0
	for _, cand := range candidates {
		rec := cand.toRecommendation(tenantID, profile)
		if state, ok := existing[rec.DimensionKey]; ok && state.Status != models.RecommendationProposed {
			// Decided recommendations stay decided until the evidence
			// has at least doubled.
			if rec.EvidenceSize < state.EvidenceSize*2 {
				continue
			}
		}
		if _, err := e.recs.Propose(ctx, rec); err != nil {
			return created, err
		}
		created++
	}

	if err := e.ledger.MarkEngineRun(ctx, tenantID); err != nil {
		e.logger.WithError(err).WithField("tenant_id", tenantID).Warn("Failed to record engine run")
	}

	e.logger.WithFields(logging.Fields{
		"tenant_id":  tenantID,
		"candidates": len(candidates),
		"proposed":   created,
	}).Info("Recommendation engine run complete")
	return created, nil
}

// Candidate is one mined pattern before it is written as a recommendation.
type Candidate struct {
	Category    models.RecommendationCategory
	Dimension   string
	Value       string
	Rate        float64
	OverallRate float64
	Deviation   float64
	SampleSize  int64
	VolumeShare float64
	Confidence  float64
	Impact      models.Impact
	ShouldRaise bool
}

// Mine partitions decided feedback by content type, platform, and time of
// day, and returns candidates ranked by confidence. Pure function; the same
// ledger always yields the same candidate set.
func Mine(rows []store.DecisionRow, cfg Config) []Candidate {
	if len(rows) == 0 {
		return nil
	}

	overall := newRateAccum()
	byContentType := make(map[string]*rateAccum)
	byPlatform := make(map[string]*rateAccum)
	byTimeOfDay := make(map[string]*rateAccum)

	for _, row := range rows {
		weight, positive := signal(row.FeedbackType, cfg.ThumbsWeight)
		overall.add(weight, positive)
		accumInto(byContentType, string(row.ContentType), weight, positive)
		accumInto(byPlatform, string(row.Platform), weight, positive)
		accumInto(byTimeOfDay, TimeOfDayBucket(row.CreatedAt), weight, positive)
	}

	overallRate, ok := overall.rate()
	if !ok {
		return nil
	}
	total := int64(len(rows))

	var candidates []Candidate
	collect := func(category models.RecommendationCategory, dimension string, partitions map[string]*rateAccum) {
		for value, accum := range partitions {
			rate, ok := accum.rate()
			if !ok || accum.samples < int64(cfg.MinTrainingSamples) {
				continue
			}
			deviation := rate - overallRate
			if deviation < cfg.DeviationMargin && deviation > -cfg.DeviationMargin {
				continue
			}
			share := float64(accum.samples) / float64(total)
			candidates = append(candidates, Candidate{
				Category:    category,
				Dimension:   dimension,
				Value:       value,
				Rate:        rate,
				OverallRate: overallRate,
				Deviation:   deviation,
				SampleSize:  accum.samples,
				VolumeShare: share,
				Confidence:  confidence(deviation, accum.samples),
				Impact:      impactFor(share),
				ShouldRaise: deviation > 0,
			})
		}
	}

	collect(models.CategoryContentStrategy, "content_type", byContentType)
	collect(models.CategoryPlatformFocus, "platform", byPlatform)
	collect(models.CategoryTiming, "time_of_day", byTimeOfDay)

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		if candidates[i].SampleSize != candidates[j].SampleSize {
			return candidates[i].SampleSize > candidates[j].SampleSize
		}
		return candidates[i].dimensionKey() < candidates[j].dimensionKey()
	})

	if cfg.TopN > 0 && len(candidates) > cfg.TopN {
		candidates = candidates[:cfg.TopN]
	}
	return candidates
}

// TimeOfDayBucket assigns a timestamp to a coarse posting-time bucket.
func TimeOfDayBucket(t time.Time) string {
	switch hour := t.UTC().Hour(); {
	case hour >= 5 && hour < 11:
		return "morning"
	case hour >= 11 && hour < 14:
		return "midday"
	case hour >= 14 && hour < 18:
		return "afternoon"
	case hour >= 18 && hour < 23:
		return "evening"
	default:
		return "night"
	}
}

func (c Candidate) dimensionKey() string {
	direction := "decrease"
	if c.ShouldRaise {
		direction = "increase"
	}
	return fmt.Sprintf("%s:%s:%s", c.Category, c.Value, direction)
}

func (c Candidate) toRecommendation(tenantID string, profile *models.BusinessProfile) models.Recommendation {
	verb := "Reduce"
	if c.ShouldRaise {
		verb = "Increase"
	}

	var title, action string
	switch c.Category {
	case models.CategoryContentStrategy:
		title = fmt.Sprintf("%s %s content share", verb, c.Value)
		action = fmt.Sprintf("%s the share of content_type=%s in upcoming batches", verb, c.Value)
	case models.CategoryPlatformFocus:
		title = fmt.Sprintf("%s focus on %s", verb, c.Value)
		action = fmt.Sprintf("%s the share of suggestions targeting platform=%s", verb, c.Value)
	default:
		title = fmt.Sprintf("%s %s posting", verb, c.Value)
		action = fmt.Sprintf("%s the share of posts scheduled for the %s", verb, c.Value)
	}

	description := fmt.Sprintf(
		"%s suggestions were approved at %.1f%% against an overall rate of %.1f%% (%d feedback events).",
		c.Value, c.Rate, c.OverallRate, c.SampleSize)
	if profile != nil && profile.Industry != nil {
		description += fmt.Sprintf(" Based on review activity for your %s audience.", *profile.Industry)
	}

	return models.Recommendation{
		TenantID:        tenantID,
		Category:        c.Category,
		DimensionKey:    c.dimensionKey(),
		Title:           title,
		Description:     description,
		Confidence:      c.Confidence,
		Impact:          c.Impact,
		EvidenceSize:    c.SampleSize,
		SuggestedAction: action,
		Status:          models.RecommendationProposed,
	}
}

// rateAccum accumulates weighted approval signal for one partition.
type rateAccum struct {
	weighted float64
	positive float64
	samples  int64
}

func newRateAccum() *rateAccum { return &rateAccum{} }

func (a *rateAccum) add(weight float64, positive bool) {
	a.weighted += weight
	if positive {
		a.positive += weight
	}
	a.samples++
}

func (a *rateAccum) rate() (float64, bool) {
	if a.weighted == 0 {
		return 0, false
	}
	return a.positive / a.weighted * 100, true
}

func accumInto(m map[string]*rateAccum, key string, weight float64, positive bool) {
	accum, ok := m[key]
	if !ok {
		accum = newRateAccum()
		m[key] = accum
	}
	accum.add(weight, positive)
}

// signal converts a feedback type into (weight, positive). Thumbs feedback
// is a weaker signal than an explicit approve/reject decision.
func signal(ft models.FeedbackType, thumbsWeight float64) (float64, bool) {
	switch ft {
	case models.FeedbackApprove:
		return 1, true
	case models.FeedbackReject:
		return 1, false
	case models.FeedbackThumbsUp:
		return thumbsWeight, true
	default:
		return thumbsWeight, false
	}
}

// confidence grows with deviation magnitude and sample size, capped at 95.
func confidence(deviation float64, samples int64) float64 {
	if deviation < 0 {
		deviation = -deviation
	}
	score := 50 + deviation + float64(samples)/4
	if score > 95 {
		score = 95
	}
	return score
}

func impactFor(share float64) models.Impact {
	switch {
	case share >= 0.30:
		return models.ImpactHigh
	case share >= 0.10:
		return models.ImpactMedium
	default:
		return models.ImpactLow
	}
}
