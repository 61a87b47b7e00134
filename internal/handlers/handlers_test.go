package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"lookout/internal/analytics"
	"lookout/internal/review"
	"lookout/internal/store"
)

type handlerHarness struct {
	router *gin.Engine
	mock   sqlmock.Sqlmock
	db     interface{ Close() error }
}

// setupHandlers builds the tenant route group over a sqlmock database with
// the tenant already bound, skipping JWT verification.
func setupHandlers(t *testing.T, tenant string) *handlerHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	suggestions := store.NewSuggestionStore(db)
	ledger := store.NewFeedbackLedger(db)
	recs := store.NewRecommendationStore(db)
	reviewSvc := review.NewService(db, logger, nil)
	aggregator := analytics.NewAggregator(db, ledger)

	h := New(logger, suggestions, ledger, recs, reviewSvc, aggregator, nil, nil)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("tenant_id", tenant)
		c.Set("user_id", "user-1")
		c.Next()
	})
	router.GET("/api/content/suggestions", h.ListSuggestions)
	router.GET("/api/content/suggestions/:id", h.GetSuggestion)
	router.POST("/api/content/suggestions/:id/feedback", h.SubmitFeedback)
	router.POST("/api/content/suggestions/batch-action", h.BatchAction)
	router.GET("/api/content/analytics/summary", h.AnalyticsSummary)
	router.GET("/api/content/recommendations", h.ListRecommendations)
	router.POST("/api/content/recommendations/:id/status", h.UpdateRecommendationStatus)

	return &handlerHarness{router: router, mock: mock, db: db}
}

func (h *handlerHarness) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	h.router.ServeHTTP(resp, req)
	return resp
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

func suggestionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "tenant_id", "campaign_id", "platform", "content_type", "title",
		"body", "hashtags", "call_to_action", "engagement_prediction", "status",
		"generated_at", "updated_at",
	})
}

func TestListSuggestions_Envelope(t *testing.T) {
	h := setupHandlers(t, "tenant-1")
	defer h.db.Close()

	now := time.Now()
	h.mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM lookout.content_suggestions").
		WithArgs("tenant-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	h.mock.ExpectQuery("FROM lookout.content_suggestions").
		WillReturnRows(suggestionRows().
			AddRow("sug-1", "tenant-1", nil, "twitter", "educational", "Title",
				"Body", "{}", nil, 0.7, "pending_review", now, now))

	resp := h.do(t, http.MethodGet, "/api/content/suggestions", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	body := decodeBody(t, resp)
	if body["success"] != true {
		t.Fatalf("expected success true, got %v", body["success"])
	}
	if body["total_count"] != float64(1) {
		t.Fatalf("expected total_count 1, got %v", body["total_count"])
	}
	suggestions, ok := body["suggestions"].([]interface{})
	if !ok || len(suggestions) != 1 {
		t.Fatalf("expected 1 suggestion, got %v", body["suggestions"])
	}
}

func TestListSuggestions_EmptyPageStaysArray(t *testing.T) {
	h := setupHandlers(t, "tenant-1")
	defer h.db.Close()

	h.mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM lookout.content_suggestions").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	h.mock.ExpectQuery("FROM lookout.content_suggestions").
		WillReturnRows(suggestionRows())

	resp := h.do(t, http.MethodGet, "/api/content/suggestions", nil)
	body := decodeBody(t, resp)
	if _, ok := body["suggestions"].([]interface{}); !ok {
		t.Fatalf("expected suggestions to be an array, got %v", body["suggestions"])
	}
}

func TestListSuggestions_RejectsUnknownStatus(t *testing.T) {
	h := setupHandlers(t, "tenant-1")
	defer h.db.Close()

	resp := h.do(t, http.MethodGet, "/api/content/suggestions?status=bogus", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	body := decodeBody(t, resp)
	if body["success"] != false {
		t.Fatalf("expected success false, got %v", body["success"])
	}
	if body["message"] == nil {
		t.Fatal("expected a message in the error envelope")
	}
}

func TestListSuggestions_RejectsBadLimit(t *testing.T) {
	h := setupHandlers(t, "tenant-1")
	defer h.db.Close()

	resp := h.do(t, http.MethodGet, "/api/content/suggestions?limit=nope", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestGetSuggestion_NotFound(t *testing.T) {
	h := setupHandlers(t, "tenant-1")
	defer h.db.Close()

	h.mock.ExpectQuery("FROM lookout.content_suggestions").
		WithArgs("sug-ghost", "tenant-1").
		WillReturnRows(suggestionRows())

	resp := h.do(t, http.MethodGet, "/api/content/suggestions/sug-ghost", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}

	body := decodeBody(t, resp)
	if body["success"] != false {
		t.Fatalf("expected success false, got %v", body["success"])
	}
}

func TestSubmitFeedback_InvalidType(t *testing.T) {
	h := setupHandlers(t, "tenant-1")
	defer h.db.Close()

	resp := h.do(t, http.MethodPost, "/api/content/suggestions/sug-1/feedback",
		map[string]interface{}{"feedback_type": "maybe"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestSubmitFeedback_ReturnsUpdatedSuggestion(t *testing.T) {
	h := setupHandlers(t, "tenant-1")
	defer h.db.Close()

	now := time.Now()
	h.mock.ExpectBegin()
	h.mock.ExpectQuery("SELECT status FROM lookout.content_suggestions").
		WithArgs("sug-1", "tenant-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending_review"))
	h.mock.ExpectQuery("INSERT INTO lookout.feedback_events").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("evt-1", now))
	h.mock.ExpectQuery("UPDATE lookout.content_suggestions").
		WillReturnRows(suggestionRows().
			AddRow("sug-1", "tenant-1", nil, "twitter", "educational", "Title",
				"Body", "{}", nil, 0.7, "approved", now, now))
	h.mock.ExpectExec("UPDATE lookout.tenant_counters").
		WithArgs("tenant-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	h.mock.ExpectCommit()

	resp := h.do(t, http.MethodPost, "/api/content/suggestions/sug-1/feedback",
		map[string]interface{}{"feedback_type": "approve"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	body := decodeBody(t, resp)
	suggestion, ok := body["suggestion"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected a suggestion object, got %v", body["suggestion"])
	}
	if suggestion["status"] != "approved" {
		t.Fatalf("expected approved, got %v", suggestion["status"])
	}
}

func TestBatchAction_CountsTransitioned(t *testing.T) {
	h := setupHandlers(t, "tenant-1")
	defer h.db.Close()
	h.mock.MatchExpectationsInOrder(false)

	now := time.Now()
	for _, id := range []string{"sug-1", "sug-2"} {
		h.mock.ExpectBegin()
		h.mock.ExpectQuery("SELECT status FROM lookout.content_suggestions").
			WithArgs(id, "tenant-1").
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending_review"))
		h.mock.ExpectQuery("INSERT INTO lookout.feedback_events").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("evt-"+id, now))
		h.mock.ExpectQuery("UPDATE lookout.content_suggestions").
			WillReturnRows(suggestionRows().
				AddRow(id, "tenant-1", nil, "twitter", "educational", "Title",
					"Body", "{}", nil, 0.7, "approved", now, now))
		h.mock.ExpectExec("UPDATE lookout.tenant_counters").
			WithArgs("tenant-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		h.mock.ExpectCommit()
	}
	h.mock.ExpectBegin()
	h.mock.ExpectQuery("SELECT status FROM lookout.content_suggestions").
		WithArgs("sug-ghost", "tenant-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	h.mock.ExpectRollback()

	resp := h.do(t, http.MethodPost, "/api/content/suggestions/batch-action",
		map[string]interface{}{
			"suggestion_ids": []string{"sug-1", "sug-ghost", "sug-2"},
			"action":         "approve",
		})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	body := decodeBody(t, resp)
	if body["count"] != float64(2) {
		t.Fatalf("expected count 2, got %v", body["count"])
	}
}

func TestBatchAction_RejectsThumbsAction(t *testing.T) {
	h := setupHandlers(t, "tenant-1")
	defer h.db.Close()

	resp := h.do(t, http.MethodPost, "/api/content/suggestions/batch-action",
		map[string]interface{}{
			"suggestion_ids": []string{"sug-1"},
			"action":         "thumbs_up",
		})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestBatchAction_RequiresIDs(t *testing.T) {
	h := setupHandlers(t, "tenant-1")
	defer h.db.Close()

	resp := h.do(t, http.MethodPost, "/api/content/suggestions/batch-action",
		map[string]interface{}{"action": "approve"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestAnalyticsSummary_Envelope(t *testing.T) {
	h := setupHandlers(t, "tenant-1")
	defer h.db.Close()

	h.mock.ExpectQuery("FROM lookout.tenant_counters").
		WithArgs("tenant-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"total_suggestions", "pending_suggestions", "approved_suggestions",
			"rejected_suggestions", "thumbs_up_suggestions", "thumbs_down_suggestions",
		}).AddRow(3, 1, 1, 1, 0, 0))

	resp := h.do(t, http.MethodGet, "/api/content/analytics/summary", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	body := decodeBody(t, resp)
	summary, ok := body["summary"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected a summary object, got %v", body["summary"])
	}
	if summary["approval_rate"] != 33.3 {
		t.Fatalf("expected approval_rate 33.3, got %v", summary["approval_rate"])
	}
}

func TestAnalyticsSummary_FreshAfterFeedback(t *testing.T) {
	h := setupHandlers(t, "tenant-1")
	defer h.db.Close()

	counterColumns := []string{
		"total_suggestions", "pending_suggestions", "approved_suggestions",
		"rejected_suggestions", "thumbs_up_suggestions", "thumbs_down_suggestions",
	}
	now := time.Now()

	// First read fills the cache.
	h.mock.ExpectQuery("FROM lookout.tenant_counters").
		WithArgs("tenant-1").
		WillReturnRows(sqlmock.NewRows(counterColumns).AddRow(2, 2, 0, 0, 0, 0))

	// Approving a suggestion must evict the cached summary.
	h.mock.ExpectBegin()
	h.mock.ExpectQuery("SELECT status FROM lookout.content_suggestions").
		WithArgs("sug-1", "tenant-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending_review"))
	h.mock.ExpectQuery("INSERT INTO lookout.feedback_events").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("evt-1", now))
	h.mock.ExpectQuery("UPDATE lookout.content_suggestions").
		WillReturnRows(suggestionRows().
			AddRow("sug-1", "tenant-1", nil, "twitter", "educational", "Title",
				"Body", "{}", nil, 0.7, "approved", now, now))
	h.mock.ExpectExec("UPDATE lookout.tenant_counters").
		WithArgs("tenant-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	h.mock.ExpectCommit()

	// Second read hits the database again, not the stale cache entry.
	h.mock.ExpectQuery("FROM lookout.tenant_counters").
		WithArgs("tenant-1").
		WillReturnRows(sqlmock.NewRows(counterColumns).AddRow(2, 1, 1, 0, 0, 0))

	if resp := h.do(t, http.MethodGet, "/api/content/analytics/summary", nil); resp.Code != http.StatusOK {
		t.Fatalf("first summary: expected 200, got %d", resp.Code)
	}
	if resp := h.do(t, http.MethodPost, "/api/content/suggestions/sug-1/feedback",
		map[string]interface{}{"feedback_type": "approve"}); resp.Code != http.StatusOK {
		t.Fatalf("feedback: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	resp := h.do(t, http.MethodGet, "/api/content/analytics/summary", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("second summary: expected 200, got %d", resp.Code)
	}
	summary := decodeBody(t, resp)["summary"].(map[string]interface{})
	if summary["approved_suggestions"] != float64(1) {
		t.Fatalf("expected approved_suggestions 1 after feedback, got %v", summary["approved_suggestions"])
	}

	if err := h.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateRecommendationStatus_RejectsProposed(t *testing.T) {
	h := setupHandlers(t, "tenant-1")
	defer h.db.Close()

	resp := h.do(t, http.MethodPost, "/api/content/recommendations/rec-1/status",
		map[string]interface{}{"status": "proposed"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestUpdateRecommendationStatus_NotFound(t *testing.T) {
	h := setupHandlers(t, "tenant-1")
	defer h.db.Close()

	h.mock.ExpectQuery("UPDATE lookout.recommendations").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	resp := h.do(t, http.MethodPost, "/api/content/recommendations/rec-ghost/status",
		map[string]interface{}{"status": "dismissed"})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestListRecommendations_StatusFilterValidated(t *testing.T) {
	h := setupHandlers(t, "tenant-1")
	defer h.db.Close()

	resp := h.do(t, http.MethodGet, "/api/content/recommendations?status=bogus", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	if body := decodeBody(t, resp); body["success"] != false {
		t.Fatalf("expected success false, got %v", body["success"])
	}
}
