// Package analytics derives per-tenant approval statistics. Counters are
// maintained incrementally by the review transaction; ReplaySummary folds
// the feedback ledger from scratch and must always reproduce the same
// numbers.
package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"lookout/internal/models"
	"lookout/internal/store"
)

// StatusCounts is the per-status suggestion census for a tenant.
type StatusCounts struct {
	Total      int64
	Pending    int64
	Approved   int64
	Rejected   int64
	ThumbsUp   int64
	ThumbsDown int64
}

// Aggregator reads incrementally maintained counters and can replay the
// ledger to verify them.
type Aggregator struct {
	db     *sql.DB
	ledger *store.FeedbackLedger
}

func NewAggregator(db *sql.DB, ledger *store.FeedbackLedger) *Aggregator {
	return &Aggregator{db: db, ledger: ledger}
}

// Summarize returns the tenant's current approval statistics from the
// counters row. A tenant with no suggestions yet gets all zeroes.
func (a *Aggregator) Summarize(ctx context.Context, tenantID string) (models.AnalyticsSummary, error) {
	var counts StatusCounts
	err := a.db.QueryRowContext(ctx, `
		SELECT total_suggestions, pending_suggestions, approved_suggestions,
		       rejected_suggestions, thumbs_up_suggestions, thumbs_down_suggestions
		FROM lookout.tenant_counters
		WHERE tenant_id = $1
	`, tenantID).Scan(&counts.Total, &counts.Pending, &counts.Approved,
		&counts.Rejected, &counts.ThumbsUp, &counts.ThumbsDown)
	if err == sql.ErrNoRows {
		return models.AnalyticsSummary{}, nil
	}
	if err != nil {
		return models.AnalyticsSummary{}, fmt.Errorf("read tenant counters: %w", err)
	}
	return SummaryFromCounts(counts), nil
}

// ReplaySummary recomputes the summary by folding the entire feedback
// ledger. It must agree with Summarize for any event sequence; the
// equivalence is exercised in tests and by the consistency check endpoint.
func (a *Aggregator) ReplaySummary(ctx context.Context, tenantID string) (models.AnalyticsSummary, error) {
	ids, entries, err := a.ledger.Replay(ctx, tenantID)
	if err != nil {
		return models.AnalyticsSummary{}, err
	}
	return SummaryFromCounts(FoldLedger(ids, entries)), nil
}

// FoldLedger replays feedback events over a set of suggestions and counts
// the resulting statuses. A suggestion with no events stays pending_review;
// otherwise its status is the projection of its last event.
func FoldLedger(suggestionIDs []string, entries []store.LedgerEntry) StatusCounts {
	statuses := make(map[string]models.SuggestionStatus, len(suggestionIDs))
	for _, id := range suggestionIDs {
		statuses[id] = models.StatusPendingReview
	}
	for _, entry := range entries {
		if _, ok := statuses[entry.SuggestionID]; !ok {
			continue
		}
		statuses[entry.SuggestionID] = entry.FeedbackType.StatusFor()
	}

	var counts StatusCounts
	for _, status := range statuses {
		counts.Total++
		switch status {
		case models.StatusApproved:
			counts.Approved++
		case models.StatusRejected:
			counts.Rejected++
		case models.StatusThumbsUp:
			counts.ThumbsUp++
		case models.StatusThumbsDown:
			counts.ThumbsDown++
		default:
			counts.Pending++
		}
	}
	return counts
}

// SummaryFromCounts converts a status census into the wire summary. The
// approval rate is defined over all suggestions, not only decided ones, so
// a rate can be quoted from the first suggestion onward.
func SummaryFromCounts(counts StatusCounts) models.AnalyticsSummary {
	summary := models.AnalyticsSummary{
		TotalSuggestions:    counts.Total,
		PendingSuggestions:  counts.Pending,
		ApprovedSuggestions: counts.Approved,
		RejectedSuggestions: counts.Rejected,
	}
	if counts.Total > 0 {
		summary.ApprovalRate = Round1(float64(counts.Approved) / float64(counts.Total) * 100)
	}
	return summary
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
