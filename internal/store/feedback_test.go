package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"lookout/internal/models"
)

func TestFeedbackLedger_DecisionRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	since := time.Now().Add(-24 * time.Hour)
	created := time.Now()
	mock.ExpectQuery("FROM lookout.feedback_events").
		WithArgs("tenant-1", since).
		WillReturnRows(sqlmock.NewRows([]string{"feedback_type", "content_type", "platform", "created_at"}).
			AddRow("approve", "educational", "instagram", created).
			AddRow("reject", "promotional", "twitter", created))

	ledger := NewFeedbackLedger(db)
	rows, err := ledger.DecisionRows(context.Background(), "tenant-1", since)
	if err != nil {
		t.Fatalf("DecisionRows returned error: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].FeedbackType != models.FeedbackApprove || rows[0].ContentType != models.ContentEducational {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFeedbackLedger_ReplayOrdersBySequence(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT id FROM lookout.content_suggestions").
		WithArgs("tenant-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("sug-1"))

	// Two decisions on the same suggestion where the later sequence carries
	// the earlier timestamp. Ordering by seq keeps the fold agreeing with
	// the stored status; ordering by created_at would not.
	now := time.Now()
	mock.ExpectQuery("FROM lookout.feedback_events(.|\n)*ORDER BY seq").
		WithArgs("tenant-1").
		WillReturnRows(sqlmock.NewRows([]string{"suggestion_id", "feedback_type", "created_at"}).
			AddRow("sug-1", "approve", now).
			AddRow("sug-1", "reject", now.Add(-time.Second)))

	ledger := NewFeedbackLedger(db)
	ids, entries, err := ledger.Replay(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("Replay returned error: %v", err)
	}
	if len(ids) != 1 || len(entries) != 2 {
		t.Fatalf("expected 1 id and 2 entries, got %d and %d", len(ids), len(entries))
	}
	if entries[1].FeedbackType != models.FeedbackReject {
		t.Fatalf("expected sequence order preserved, got %+v", entries)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFeedbackLedger_TenantsWithFeedbackSince(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT DISTINCT fe.tenant_id").
		WillReturnRows(sqlmock.NewRows([]string{"tenant_id"}).
			AddRow("tenant-1").AddRow("tenant-2"))

	ledger := NewFeedbackLedger(db)
	tenants, err := ledger.TenantsWithFeedbackSince(context.Background())
	if err != nil {
		t.Fatalf("TenantsWithFeedbackSince returned error: %v", err)
	}
	if len(tenants) != 2 {
		t.Fatalf("expected 2 tenants, got %v", tenants)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestFeedbackLedger_MarkEngineRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO lookout.engine_runs").
		WithArgs("tenant-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ledger := NewFeedbackLedger(db)
	if err := ledger.MarkEngineRun(context.Background(), "tenant-1"); err != nil {
		t.Fatalf("MarkEngineRun returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
