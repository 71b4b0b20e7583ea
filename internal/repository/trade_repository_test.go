package repository

import (
	"context"
	"testing"
	"time"

	"moonwatch/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

func TestTradeRunMigrationsExecutesSchema(t *testing.T) {
	pool := &stubPool{}
	repo := NewTradeRepository(pool, testTracer())

	if err := repo.RunMigrations(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pool.execSQL) != 1 {
		t.Fatalf("expected 1 schema statement, got %d", len(pool.execSQL))
	}
}

func TestSaveTradeReturnsID(t *testing.T) {
	pool := &stubPool{queryRowRow: &stubRow{data: []any{int64(21)}}}
	repo := NewTradeRepository(pool, testTracer())

	id, err := repo.SaveTrade(context.Background(), domain.SimulatedTrade{
		TokenAddress:  "0xabc",
		EntryPrice:    decimal.RequireFromString("0.002"),
		EntryTime:     time.Unix(1000, 0),
		InvestmentUSD: decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 21 {
		t.Fatalf("expected id 21, got %d", id)
	}
}

func TestGetActiveTradesMapsNullExitFields(t *testing.T) {
	entry := time.Unix(2000, 0).UTC()
	pool := &stubPool{rowsData: [][]any{
		{int64(1), "0xa", decimal.RequireFromString("0.10"), entry, decimal.NewFromInt(100),
			nil, nil, nil, nil, nil, true},
	}}
	repo := NewTradeRepository(pool, testTracer())

	trades, err := repo.GetActiveTrades(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	tr := trades[0]
	if !tr.IsActive {
		t.Fatal("expected active trade")
	}
	if tr.ExitPrice != nil || tr.ExitTime != nil || tr.ProfitLoss != nil || tr.Multiplier != nil || tr.ExitReason != nil {
		t.Fatalf("open trade must have nil exit fields: %+v", tr)
	}
}

func TestCloseTradeFirstCloserWins(t *testing.T) {
	pool := &stubPool{execTag: pgconn.NewCommandTag("UPDATE 1")}
	repo := NewTradeRepository(pool, testTracer())

	closed, err := repo.CloseTrade(context.Background(), domain.TradeClosure{
		TradeID:    1,
		ExitPrice:  decimal.RequireFromString("0.20"),
		ExitTime:   time.Unix(3000, 0),
		ProfitLoss: decimal.NewFromInt(100),
		Multiplier: decimal.NewFromInt(2),
		Reason:     "2x target reached",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !closed {
		t.Fatal("expected close to be applied")
	}
}

func TestCloseTradeAlreadyClosedReportsFalse(t *testing.T) {
	pool := &stubPool{execTag: pgconn.NewCommandTag("UPDATE 0")}
	repo := NewTradeRepository(pool, testTracer())

	closed, err := repo.CloseTrade(context.Background(), domain.TradeClosure{TradeID: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if closed {
		t.Fatal("second close of the same trade must report false")
	}
}

func TestGetTradingStatsComputesWinRate(t *testing.T) {
	pool := &stubPool{queryRowRow: &stubRow{data: []any{
		int64(4), int64(3), decimal.NewFromInt(250), decimal.RequireFromString("1.8"),
	}}}
	repo := NewTradeRepository(pool, testTracer())

	stats, err := repo.GetTradingStats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalTrades != 4 || stats.ProfitableTrades != 3 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if !stats.WinRate.Equal(decimal.NewFromInt(75)) {
		t.Fatalf("expected 75%% win rate, got %s", stats.WinRate)
	}
	if !stats.TotalProfitUSD.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("unexpected total profit: %s", stats.TotalProfitUSD)
	}
}

func TestGetTradingStatsNoClosedTrades(t *testing.T) {
	pool := &stubPool{queryRowRow: &stubRow{data: []any{
		int64(0), nil, nil, nil,
	}}}
	repo := NewTradeRepository(pool, testTracer())

	stats, err := repo.GetTradingStats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalTrades != 0 || !stats.WinRate.IsZero() || !stats.TotalProfitUSD.IsZero() {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}
