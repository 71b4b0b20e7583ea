package repository

import (
	"context"
	"testing"
	"time"

	"moonwatch/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

func TestSignalRunMigrationsExecutesSchema(t *testing.T) {
	pool := &stubPool{}
	repo := NewSignalRepository(pool, testTracer())

	if err := repo.RunMigrations(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pool.execSQL) != 1 {
		t.Fatalf("expected 1 schema statement, got %d", len(pool.execSQL))
	}
}

func TestSaveSignalReturnsID(t *testing.T) {
	pool := &stubPool{queryRowRow: &stubRow{data: []any{int64(11)}}}
	repo := NewSignalRepository(pool, testTracer())

	target := decimal.NewFromInt(2)
	id, err := repo.SaveSignal(context.Background(), domain.TradingSignal{
		TokenAddress:     "0xabc",
		SignalType:       domain.SignalBuy,
		Confidence:       decimal.RequireFromString("0.85"),
		Reason:           "strong entry",
		TargetMultiplier: &target,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 11 {
		t.Fatalf("expected id 11, got %d", id)
	}
}

func TestGetUnsentSignalsScansRows(t *testing.T) {
	now := time.Now().UTC()
	pool := &stubPool{rowsData: [][]any{
		{int64(1), "0xa", "buy", decimal.RequireFromString("0.8"), "reason a", decimal.NewFromInt(2), now, false},
		{int64(2), "0xb", "warning", decimal.RequireFromString("0.9"), "reason b", nil, now, false},
	}}
	repo := NewSignalRepository(pool, testTracer())

	signals, err := repo.GetUnsentSignals(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(signals) != 2 {
		t.Fatalf("expected 2 signals, got %d", len(signals))
	}
	if signals[0].SignalType != domain.SignalBuy || signals[0].TargetMultiplier == nil {
		t.Fatalf("unexpected first signal: %+v", signals[0])
	}
	if signals[1].SignalType != domain.SignalWarning || signals[1].TargetMultiplier != nil {
		t.Fatalf("unexpected second signal: %+v", signals[1])
	}
}

func TestMarkSignalSentReportsUpdate(t *testing.T) {
	pool := &stubPool{execTag: pgconn.NewCommandTag("UPDATE 1")}
	repo := NewSignalRepository(pool, testTracer())

	sent, err := repo.MarkSignalSent(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sent {
		t.Fatal("expected sent=true for a matched row")
	}
}

func TestMarkSignalSentAlreadySentReportsFalse(t *testing.T) {
	pool := &stubPool{execTag: pgconn.NewCommandTag("UPDATE 0")}
	repo := NewSignalRepository(pool, testTracer())

	sent, err := repo.MarkSignalSent(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent {
		t.Fatal("expected sent=false when no row matched")
	}
}
