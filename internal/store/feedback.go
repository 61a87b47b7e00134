package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lookout/internal/models"
)

// FeedbackLedger reads the append-only feedback event log. Appends happen
// inside the review transaction (see internal/review); nothing ever updates
// or deletes a written event.
type FeedbackLedger struct {
	db *sql.DB
}

func NewFeedbackLedger(db *sql.DB) *FeedbackLedger {
	return &FeedbackLedger{db: db}
}

// ListForSuggestion returns a suggestion's full feedback history, oldest first.
func (l *FeedbackLedger) ListForSuggestion(ctx context.Context, tenantID, suggestionID string) ([]models.FeedbackEvent, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, suggestion_id, tenant_id, feedback_type, feedback_score,
		       comment, actor_id, created_at
		FROM lookout.feedback_events
		WHERE suggestion_id = $1 AND tenant_id = $2
		ORDER BY seq
	`, suggestionID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list feedback events: %w", err)
	}
	defer rows.Close()

	var events []models.FeedbackEvent
	for rows.Next() {
		var ev models.FeedbackEvent
		var feedbackType string
		if err := rows.Scan(&ev.ID, &ev.SuggestionID, &ev.TenantID, &feedbackType,
			&ev.FeedbackScore, &ev.Comment, &ev.ActorID, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedback event: %w", err)
		}
		ev.FeedbackType = models.FeedbackType(feedbackType)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback events: %w", err)
	}
	return events, nil
}

// LedgerEntry is one feedback event paired with the suggestion identity it
// applies to, in ledger order. Replaying entries reproduces every
// suggestion's current status.
type LedgerEntry struct {
	SuggestionID string
	FeedbackType models.FeedbackType
	CreatedAt    time.Time
}

// Replay returns the tenant's entire ledger in commit order, plus the ids of
// all suggestions (so suggestions without feedback fold to pending_review).
func (l *FeedbackLedger) Replay(ctx context.Context, tenantID string) ([]string, []LedgerEntry, error) {
	idRows, err := l.db.QueryContext(ctx,
		`SELECT id FROM lookout.content_suggestions WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("list suggestion ids: %w", err)
	}
	defer idRows.Close()

	var ids []string
	for idRows.Next() {
		var id string
		if err := idRows.Scan(&id); err != nil {
			return nil, nil, fmt.Errorf("scan suggestion id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := idRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate suggestion ids: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT suggestion_id, feedback_type, created_at
		FROM lookout.feedback_events
		WHERE tenant_id = $1
		ORDER BY seq
	`, tenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("replay feedback events: %w", err)
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var entry LedgerEntry
		var feedbackType string
		if err := rows.Scan(&entry.SuggestionID, &feedbackType, &entry.CreatedAt); err != nil {
			return nil, nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entry.FeedbackType = models.FeedbackType(feedbackType)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return ids, entries, nil
}

// DecisionRow is one feedback event joined with the dimensions the
// recommendation engine partitions by.
type DecisionRow struct {
	FeedbackType models.FeedbackType
	ContentType  models.ContentType
	Platform     models.Platform
	CreatedAt    time.Time
}

// DecisionRows returns all feedback events for a tenant inside the lookback
// window, joined with each suggestion's content type and platform.
func (l *FeedbackLedger) DecisionRows(ctx context.Context, tenantID string, since time.Time) ([]DecisionRow, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT fe.feedback_type, cs.content_type, cs.platform, fe.created_at
		FROM lookout.feedback_events fe
		JOIN lookout.content_suggestions cs ON cs.id = fe.suggestion_id
		WHERE fe.tenant_id = $1 AND fe.created_at >= $2
		ORDER BY fe.created_at
	`, tenantID, since)
	if err != nil {
		return nil, fmt.Errorf("query decision rows: %w", err)
	}
	defer rows.Close()

	var decisions []DecisionRow
	for rows.Next() {
		var d DecisionRow
		var feedbackType, contentType, platform string
		if err := rows.Scan(&feedbackType, &contentType, &platform, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan decision row: %w", err)
		}
		d.FeedbackType = models.FeedbackType(feedbackType)
		d.ContentType = models.ContentType(contentType)
		d.Platform = models.Platform(platform)
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decision rows: %w", err)
	}
	return decisions, nil
}

// TenantsWithFeedbackSince returns tenants that have appended feedback since
// their last recorded engine run. The scheduler drives engine runs off this.
func (l *FeedbackLedger) TenantsWithFeedbackSince(ctx context.Context) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT DISTINCT fe.tenant_id
		FROM lookout.feedback_events fe
		LEFT JOIN lookout.engine_runs er ON er.tenant_id = fe.tenant_id
		WHERE er.last_run_at IS NULL OR fe.created_at > er.last_run_at
	`)
	if err != nil {
		return nil, fmt.Errorf("query tenants with fresh feedback: %w", err)
	}
	defer rows.Close()

	var tenants []string
	for rows.Next() {
		var tenantID string
		if err := rows.Scan(&tenantID); err != nil {
			return nil, fmt.Errorf("scan tenant id: %w", err)
		}
		tenants = append(tenants, tenantID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenant ids: %w", err)
	}
	return tenants, nil
}

// MarkEngineRun records that the recommendation engine completed a run for
// the tenant.
func (l *FeedbackLedger) MarkEngineRun(ctx context.Context, tenantID string) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO lookout.engine_runs (tenant_id, last_run_at)
		VALUES ($1, NOW())
		ON CONFLICT (tenant_id) DO UPDATE SET last_run_at = NOW()
	`, tenantID)
	if err != nil {
		return fmt.Errorf("mark engine run: %w", err)
	}
	return nil
}
