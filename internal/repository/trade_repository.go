package repository

import (
	"context"
	"database/sql"
	"time"

	"moonwatch/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

type TradeRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewTradeRepository(pool PgxPool, tracer trace.Tracer) *TradeRepository {
	return &TradeRepository{pool: pool, tracer: tracer}
}

func (r *TradeRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "trade-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS simulated_trades (
			id BIGSERIAL PRIMARY KEY,
			token_address TEXT NOT NULL,
			entry_price NUMERIC NOT NULL,
			entry_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			investment_usd NUMERIC NOT NULL,
			exit_price NUMERIC,
			exit_time TIMESTAMPTZ,
			profit_loss NUMERIC,
			multiplier NUMERIC,
			exit_reason TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`)
	return err
}

func (r *TradeRepository) SaveTrade(ctx context.Context, t domain.SimulatedTrade) (int64, error) {
	_, span := r.tracer.Start(ctx, "trade-repo.save-trade")
	defer span.End()

	entryTime := t.EntryTime
	if entryTime.IsZero() {
		entryTime = time.Now()
	}

	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO simulated_trades (token_address, entry_price, entry_time, investment_usd, is_active)
		 VALUES ($1, $2, $3, $4, TRUE)
		 RETURNING id`,
		t.TokenAddress, t.EntryPrice, entryTime.UTC(), t.InvestmentUSD,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *TradeRepository) GetActiveTrades(ctx context.Context) ([]domain.SimulatedTrade, error) {
	_, span := r.tracer.Start(ctx, "trade-repo.get-active-trades")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT id, token_address, entry_price, entry_time, investment_usd,
			exit_price, exit_time, profit_loss, multiplier, exit_reason, is_active
		 FROM simulated_trades
		 WHERE is_active
		 ORDER BY entry_time ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []domain.SimulatedTrade
	for rows.Next() {
		var (
			t          domain.SimulatedTrade
			exitPrice  decimal.NullDecimal
			exitTime   sql.NullTime
			profitLoss decimal.NullDecimal
			multiplier decimal.NullDecimal
			exitReason sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.TokenAddress, &t.EntryPrice, &t.EntryTime, &t.InvestmentUSD,
			&exitPrice, &exitTime, &profitLoss, &multiplier, &exitReason, &t.IsActive); err != nil {
			return nil, err
		}
		t.ExitPrice = nullDecimalPtr(exitPrice)
		if exitTime.Valid {
			et := exitTime.Time
			t.ExitTime = &et
		}
		t.ProfitLoss = nullDecimalPtr(profitLoss)
		t.Multiplier = nullDecimalPtr(multiplier)
		if exitReason.Valid {
			er := exitReason.String
			t.ExitReason = &er
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// CloseTrade applies the closure as a conditional update keyed on
// is_active. Returns false when the trade was already closed by a
// concurrent sweep; only a true return counts as a close.
func (r *TradeRepository) CloseTrade(ctx context.Context, c domain.TradeClosure) (bool, error) {
	_, span := r.tracer.Start(ctx, "trade-repo.close-trade")
	defer span.End()

	tag, err := r.pool.Exec(ctx,
		`UPDATE simulated_trades
		 SET exit_price = $2,
		     exit_time = $3,
		     profit_loss = $4,
		     multiplier = $5,
		     exit_reason = $6,
		     is_active = FALSE
		 WHERE id = $1 AND is_active`,
		c.TradeID, c.ExitPrice, c.ExitTime.UTC(), c.ProfitLoss, c.Multiplier, c.Reason,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// GetTradingStats aggregates closed trades only; open positions carry no
// realized P&L.
func (r *TradeRepository) GetTradingStats(ctx context.Context) (domain.TradingStats, error) {
	_, span := r.tracer.Start(ctx, "trade-repo.get-trading-stats")
	defer span.End()

	var (
		stats      domain.TradingStats
		totalPL    decimal.NullDecimal
		avgMult    decimal.NullDecimal
		profitable sql.NullInt64
	)
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
			COUNT(*) FILTER (WHERE profit_loss > 0),
			SUM(profit_loss),
			AVG(multiplier)
		 FROM simulated_trades
		 WHERE NOT is_active`).
		Scan(&stats.TotalTrades, &profitable, &totalPL, &avgMult)
	if err != nil {
		return domain.TradingStats{}, err
	}

	if profitable.Valid {
		stats.ProfitableTrades = profitable.Int64
	}
	if totalPL.Valid {
		stats.TotalProfitUSD = totalPL.Decimal
	}
	if avgMult.Valid {
		stats.AvgMultiplier = avgMult.Decimal
	}
	if stats.TotalTrades > 0 {
		stats.WinRate = decimal.NewFromInt(stats.ProfitableTrades).
			Div(decimal.NewFromInt(stats.TotalTrades)).
			Mul(decimal.NewFromInt(100))
	}
	return stats, nil
}
