// Package review implements the approval state machine. Every status change
// to a suggestion happens here: one transaction appends the feedback event,
// projects the new status onto the suggestion row, and adjusts the tenant's
// analytics counters.
package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"lookout/internal/logging"
	"lookout/internal/models"
	"lookout/internal/store"
)

var (
	// ErrInvalidFeedback is returned for unknown feedback types or
	// out-of-range scores. No mutation happens.
	ErrInvalidFeedback = errors.New("invalid feedback")
	// ErrInvalidAction is returned when a batch action is not approve/reject.
	ErrInvalidAction = errors.New("invalid batch action")
)

const lockStripes = 64

// EventSink receives committed feedback events. Publishing is best effort
// and never fails the request.
type EventSink interface {
	PublishFeedback(ctx context.Context, event models.FeedbackEvent) error
}

// FeedbackRequest carries one reviewer decision.
type FeedbackRequest struct {
	Type    models.FeedbackType
	Score   *int
	Comment *string
	ActorID string
}

// Service owns suggestion status transitions.
type Service struct {
	db     *sql.DB
	logger logging.Logger
	sink   EventSink

	// Striped per-suggestion locks serialize concurrent feedback on the
	// same id in-process; the row lock inside the transaction covers
	// multi-instance deployments.
	locks [lockStripes]sync.Mutex

	onTransition func(feedbackType models.FeedbackType)
}

func NewService(db *sql.DB, logger logging.Logger, sink EventSink) *Service {
	return &Service{db: db, logger: logger, sink: sink}
}

// OnTransition registers a hook invoked after each committed transition,
// used to bump metrics counters.
func (s *Service) OnTransition(fn func(feedbackType models.FeedbackType)) {
	s.onTransition = fn
}

// ApplyFeedback appends a feedback event and projects its status onto the
// suggestion. Re-submitting feedback on a decided suggestion is allowed: the
// ledger keeps full history while status is last-write-wins.
func (s *Service) ApplyFeedback(ctx context.Context, tenantID, suggestionID string, req FeedbackRequest) (models.ContentSuggestion, models.FeedbackEvent, error) {
	if !models.ValidFeedbackType(req.Type) {
		return models.ContentSuggestion{}, models.FeedbackEvent{}, fmt.Errorf("%w: unknown feedback_type %q", ErrInvalidFeedback, req.Type)
	}
	if req.Score != nil && (*req.Score < 1 || *req.Score > 5) {
		return models.ContentSuggestion{}, models.FeedbackEvent{}, fmt.Errorf("%w: feedback_score must be 1-5", ErrInvalidFeedback)
	}

	lock := &s.locks[stripeFor(suggestionID)]
	lock.Lock()
	defer lock.Unlock()

	suggestion, event, err := s.transition(ctx, tenantID, suggestionID, req)
	if err != nil {
		return models.ContentSuggestion{}, models.FeedbackEvent{}, err
	}

	if s.onTransition != nil {
		s.onTransition(req.Type)
	}
	if s.sink != nil {
		if err := s.sink.PublishFeedback(ctx, event); err != nil {
			s.logger.WithError(err).WithFields(logging.Fields{
				"tenant_id":     tenantID,
				"suggestion_id": suggestionID,
			}).Warn("Failed to publish feedback event")
		}
	}
	return suggestion, event, nil
}

// BatchAction applies one approve/reject decision to every listed id
// independently. Unknown ids are skipped; the returned count is the number
// of suggestions that actually transitioned.
func (s *Service) BatchAction(ctx context.Context, tenantID string, suggestionIDs []string, action models.FeedbackType, actorID string) (int, error) {
	if action != models.FeedbackApprove && action != models.FeedbackReject {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	var count atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, id := range suggestionIDs {
		id := id
		g.Go(func() error {
			_, _, err := s.ApplyFeedback(gctx, tenantID, id, FeedbackRequest{Type: action, ActorID: actorID})
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return nil
				}
				return err
			}
			count.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(count.Load()), err
	}
	return int(count.Load()), nil
}

func (s *Service) transition(ctx context.Context, tenantID, suggestionID string, req FeedbackRequest) (models.ContentSuggestion, models.FeedbackEvent, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.ContentSuggestion{}, models.FeedbackEvent{}, fmt.Errorf("begin feedback tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var oldStatus string
	err = tx.QueryRowContext(ctx, `
		SELECT status FROM lookout.content_suggestions
		WHERE id = $1 AND tenant_id = $2
		FOR UPDATE
	`, suggestionID, tenantID).Scan(&oldStatus)
	if err == sql.ErrNoRows {
		return models.ContentSuggestion{}, models.FeedbackEvent{}, store.ErrNotFound
	}
	if err != nil {
		return models.ContentSuggestion{}, models.FeedbackEvent{}, fmt.Errorf("lock suggestion: %w", err)
	}

	event := models.FeedbackEvent{
		SuggestionID:  suggestionID,
		TenantID:      tenantID,
		FeedbackType:  req.Type,
		FeedbackScore: req.Score,
		Comment:       req.Comment,
	}
	if req.ActorID != "" {
		event.ActorID = &req.ActorID
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO lookout.feedback_events
			(suggestion_id, tenant_id, feedback_type, feedback_score, comment, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at
	`, suggestionID, tenantID, string(req.Type), req.Score, req.Comment, event.ActorID).
		Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return models.ContentSuggestion{}, models.FeedbackEvent{}, fmt.Errorf("append feedback event: %w", err)
	}

	newStatus := req.Type.StatusFor()
	row := tx.QueryRowContext(ctx, `
		UPDATE lookout.content_suggestions
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2
		RETURNING id, tenant_id, campaign_id, platform, content_type, title, body,
		          hashtags, call_to_action, engagement_prediction, status,
		          generated_at, updated_at
	`, suggestionID, tenantID, string(newStatus))
	suggestion, err := store.ScanSuggestionRow(row)
	if err != nil {
		return models.ContentSuggestion{}, models.FeedbackEvent{}, fmt.Errorf("project status: %w", err)
	}

	if err := adjustCounters(ctx, tx, tenantID, models.SuggestionStatus(oldStatus), newStatus); err != nil {
		return models.ContentSuggestion{}, models.FeedbackEvent{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.ContentSuggestion{}, models.FeedbackEvent{}, fmt.Errorf("commit feedback tx: %w", err)
	}
	return suggestion, event, nil
}

// adjustCounters moves one suggestion between status buckets. Running inside
// the feedback transaction keeps the summary consistent with the transition.
func adjustCounters(ctx context.Context, tx *sql.Tx, tenantID string, oldStatus, newStatus models.SuggestionStatus) error {
	if oldStatus == newStatus {
		return nil
	}
	query := fmt.Sprintf(`
		UPDATE lookout.tenant_counters
		SET %s = %s - 1, %s = %s + 1, updated_at = NOW()
		WHERE tenant_id = $1
	`, counterColumn(oldStatus), counterColumn(oldStatus), counterColumn(newStatus), counterColumn(newStatus))
	if _, err := tx.ExecContext(ctx, query, tenantID); err != nil {
		return fmt.Errorf("adjust tenant counters: %w", err)
	}
	return nil
}

func counterColumn(status models.SuggestionStatus) string {
	switch status {
	case models.StatusApproved:
		return "approved_suggestions"
	case models.StatusRejected:
		return "rejected_suggestions"
	case models.StatusThumbsUp:
		return "thumbs_up_suggestions"
	case models.StatusThumbsDown:
		return "thumbs_down_suggestions"
	default:
		return "pending_suggestions"
	}
}

func stripeFor(id string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return int(h.Sum32() % lockStripes)
}
