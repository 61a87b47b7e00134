package store

import (
	"context"
	"database/sql"
	"fmt"

	"lookout/internal/models"
)

// RecommendationStore persists engine output. Recommendations are keyed by
// (tenant_id, dimension_key) so that idempotent engine re-runs update the
// proposed set in place instead of duplicating it.
type RecommendationStore struct {
	db *sql.DB
}

func NewRecommendationStore(db *sql.DB) *RecommendationStore {
	return &RecommendationStore{db: db}
}

// DimensionState summarizes what is already stored for a mined dimension.
type DimensionState struct {
	Status       models.RecommendationStatus
	EvidenceSize int64
}

// ExistingByDimension maps dimension_key to current status and evidence for
// a tenant. The engine consults this to avoid re-proposing decided
// recommendations.
func (s *RecommendationStore) ExistingByDimension(ctx context.Context, tenantID string) (map[string]DimensionState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT dimension_key, status, evidence_size
		FROM lookout.recommendations
		WHERE tenant_id = $1
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query existing recommendations: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]DimensionState)
	for rows.Next() {
		var key, status string
		var evidence int64
		if err := rows.Scan(&key, &status, &evidence); err != nil {
			return nil, fmt.Errorf("scan recommendation state: %w", err)
		}
		existing[key] = DimensionState{
			Status:       models.RecommendationStatus(status),
			EvidenceSize: evidence,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recommendation states: %w", err)
	}
	return existing, nil
}

// Propose inserts or refreshes a proposed recommendation for its dimension
// key. Re-proposing over a decided (implemented/dismissed) row resets it to
// proposed; the engine only does that when evidence has materially changed.
func (s *RecommendationStore) Propose(ctx context.Context, rec models.Recommendation) (models.Recommendation, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO lookout.recommendations
			(tenant_id, category, dimension_key, title, description, confidence,
			 impact, evidence_size, suggested_action, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'proposed', NOW(), NOW())
		ON CONFLICT (tenant_id, dimension_key) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			confidence = EXCLUDED.confidence,
			impact = EXCLUDED.impact,
			evidence_size = EXCLUDED.evidence_size,
			suggested_action = EXCLUDED.suggested_action,
			status = 'proposed',
			updated_at = NOW()
		RETURNING id, status, created_at, updated_at
	`,
		rec.TenantID, string(rec.Category), rec.DimensionKey, rec.Title,
		rec.Description, rec.Confidence, string(rec.Impact), rec.EvidenceSize,
		rec.SuggestedAction,
	).Scan(&rec.ID, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return models.Recommendation{}, fmt.Errorf("propose recommendation: %w", err)
	}
	return rec, nil
}

// List returns a tenant's recommendations, optionally filtered by status,
// highest confidence first.
func (s *RecommendationStore) List(ctx context.Context, tenantID string, status models.RecommendationStatus) ([]models.Recommendation, error) {
	query := `
		SELECT id, tenant_id, category, dimension_key, title, description,
		       confidence, impact, evidence_size, suggested_action, status,
		       created_at, updated_at
		FROM lookout.recommendations
		WHERE tenant_id = $1`
	args := []interface{}{tenantID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY confidence DESC, evidence_size DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	defer rows.Close()

	var recs []models.Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recommendations: %w", err)
	}
	return recs, nil
}

// UpdateStatus terminates or reopens a recommendation by explicit reviewer
// action. Returns ErrNotFound for unknown or cross-tenant ids.
func (s *RecommendationStore) UpdateStatus(ctx context.Context, tenantID, id string, status models.RecommendationStatus) (models.Recommendation, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE lookout.recommendations
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2
		RETURNING id, tenant_id, category, dimension_key, title, description,
		          confidence, impact, evidence_size, suggested_action, status,
		          created_at, updated_at
	`, id, tenantID, string(status))

	rec, err := scanRecommendation(row)
	if err == sql.ErrNoRows {
		return models.Recommendation{}, ErrNotFound
	}
	if err != nil {
		return models.Recommendation{}, err
	}
	return rec, nil
}

func scanRecommendation(r rowScanner) (models.Recommendation, error) {
	var rec models.Recommendation
	var category, impact, status string
	if err := r.Scan(
		&rec.ID, &rec.TenantID, &category, &rec.DimensionKey, &rec.Title,
		&rec.Description, &rec.Confidence, &impact, &rec.EvidenceSize,
		&rec.SuggestedAction, &status, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return models.Recommendation{}, err
		}
		return models.Recommendation{}, fmt.Errorf("scan recommendation: %w", err)
	}
	rec.Category = models.RecommendationCategory(category)
	rec.Impact = models.Impact(impact)
	rec.Status = models.RecommendationStatus(status)
	return rec, nil
}
