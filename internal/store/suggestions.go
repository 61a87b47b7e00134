package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"lookout/internal/models"
)

const (
	// DefaultListLimit is the page size used when the caller does not specify one
	DefaultListLimit = 50
	// MaxListLimit is the maximum allowed page size
	MaxListLimit = 500
)

// SuggestionFilters narrows List results. Zero values mean "no constraint",
// matching the UI convention of dropping empty query parameters.
type SuggestionFilters struct {
	Status      models.SuggestionStatus
	Platform    models.Platform
	ContentType models.ContentType
}

// SuggestionStore persists content suggestions in PostgreSQL.
type SuggestionStore struct {
	db *sql.DB
}

func NewSuggestionStore(db *sql.DB) *SuggestionStore {
	return &SuggestionStore{db: db}
}

// List returns one page of a tenant's suggestions plus the total count of
// rows matching the filter, independent of limit/offset.
func (s *SuggestionStore) List(ctx context.Context, tenantID string, filters SuggestionFilters, limit, offset int) ([]models.ContentSuggestion, int64, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	where := "WHERE tenant_id = $1"
	args := []interface{}{tenantID}

	if filters.Status != "" {
		args = append(args, string(filters.Status))
		where += " AND status = $" + strconv.Itoa(len(args))
	}
	if filters.Platform != "" {
		args = append(args, string(filters.Platform))
		where += " AND platform = $" + strconv.Itoa(len(args))
	}
	if filters.ContentType != "" {
		args = append(args, string(filters.ContentType))
		where += " AND content_type = $" + strconv.Itoa(len(args))
	}

	var total int64
	countQuery := "SELECT COUNT(*) FROM lookout.content_suggestions " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count suggestions: %w", err)
	}

	pageArgs := append(args, limit, offset)
	query := `
		SELECT id, tenant_id, campaign_id, platform, content_type, title, body,
		       hashtags, call_to_action, engagement_prediction, status,
		       generated_at, updated_at
		FROM lookout.content_suggestions ` + where + `
		ORDER BY generated_at DESC, id
		LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)

	rows, err := s.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []models.ContentSuggestion
	for rows.Next() {
		suggestion, err := scanSuggestion(rows)
		if err != nil {
			return nil, 0, err
		}
		suggestions = append(suggestions, suggestion)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate suggestions: %w", err)
	}
	return suggestions, total, nil
}

// Get returns a single suggestion owned by the tenant, or ErrNotFound.
func (s *SuggestionStore) Get(ctx context.Context, tenantID, id string) (models.ContentSuggestion, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, campaign_id, platform, content_type, title, body,
		       hashtags, call_to_action, engagement_prediction, status,
		       generated_at, updated_at
		FROM lookout.content_suggestions
		WHERE id = $1 AND tenant_id = $2
	`, id, tenantID)

	suggestion, err := scanSuggestion(row)
	if err == sql.ErrNoRows {
		return models.ContentSuggestion{}, ErrNotFound
	}
	if err != nil {
		return models.ContentSuggestion{}, err
	}
	return suggestion, nil
}

// Create stores a generator-supplied suggestion and bumps the tenant's
// counters in the same transaction. Status always starts at pending_review.
func (s *SuggestionStore) Create(ctx context.Context, suggestion models.ContentSuggestion) (models.ContentSuggestion, error) {
	if suggestion.ID == "" {
		suggestion.ID = uuid.New().String()
	}
	suggestion.Status = models.StatusPendingReview
	if suggestion.Hashtags == nil {
		suggestion.Hashtags = []string{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.ContentSuggestion{}, fmt.Errorf("begin create suggestion: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO lookout.content_suggestions
			(id, tenant_id, campaign_id, platform, content_type, title, body,
			 hashtags, call_to_action, engagement_prediction, status, generated_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING generated_at, updated_at
	`,
		suggestion.ID, suggestion.TenantID, suggestion.CampaignID,
		string(suggestion.Platform), string(suggestion.ContentType),
		suggestion.Title, suggestion.Body, pq.Array(suggestion.Hashtags),
		suggestion.CallToAction, suggestion.EngagementPrediction,
		string(suggestion.Status),
	).Scan(&suggestion.GeneratedAt, &suggestion.UpdatedAt)
	if err != nil {
		return models.ContentSuggestion{}, fmt.Errorf("insert suggestion: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO lookout.tenant_counters (tenant_id, total_suggestions, pending_suggestions)
		VALUES ($1, 1, 1)
		ON CONFLICT (tenant_id) DO UPDATE SET
			total_suggestions = lookout.tenant_counters.total_suggestions + 1,
			pending_suggestions = lookout.tenant_counters.pending_suggestions + 1,
			updated_at = NOW()
	`, suggestion.TenantID)
	if err != nil {
		return models.ContentSuggestion{}, fmt.Errorf("bump tenant counters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.ContentSuggestion{}, fmt.Errorf("commit create suggestion: %w", err)
	}
	return suggestion, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// ScanSuggestionRow scans a full suggestion row. Exposed for the review
// transaction's RETURNING clause.
func ScanSuggestionRow(r rowScanner) (models.ContentSuggestion, error) {
	return scanSuggestion(r)
}

func scanSuggestion(r rowScanner) (models.ContentSuggestion, error) {
	var s models.ContentSuggestion
	var platform, contentType, status string
	if err := r.Scan(
		&s.ID, &s.TenantID, &s.CampaignID, &platform, &contentType,
		&s.Title, &s.Body, pq.Array(&s.Hashtags), &s.CallToAction,
		&s.EngagementPrediction, &status, &s.GeneratedAt, &s.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return models.ContentSuggestion{}, err
		}
		return models.ContentSuggestion{}, fmt.Errorf("scan suggestion: %w", err)
	}
	s.Platform = models.Platform(platform)
	s.ContentType = models.ContentType(contentType)
	s.Status = models.SuggestionStatus(status)
	return s, nil
}
