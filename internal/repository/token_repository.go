package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"moonwatch/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type TokenRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewTokenRepository(pool PgxPool, tracer trace.Tracer) *TokenRepository {
	return &TokenRepository{pool: pool, tracer: tracer}
}

func (r *TokenRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "token-repo.run-migrations")
	defer span.End()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS tokens (
			id BIGSERIAL PRIMARY KEY,
			address TEXT NOT NULL UNIQUE,
			symbol TEXT NOT NULL,
			name TEXT NOT NULL,
			chain TEXT NOT NULL,
			source TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			first_seen TIMESTAMPTZ NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS token_metrics (
			id BIGSERIAL PRIMARY KEY,
			token_address TEXT NOT NULL REFERENCES tokens(address),
			timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			price_usd NUMERIC,
			market_cap_usd NUMERIC,
			liquidity_usd NUMERIC,
			volume_24h_usd NUMERIC,
			total_supply NUMERIC,
			circulating_supply NUMERIC,
			holder_count BIGINT,
			top_10_holders_pct NUMERIC,
			is_honeypot BOOLEAN,
			is_mintable BOOLEAN,
			has_proxy BOOLEAN,
			contract_verified BOOLEAN
		)`,
		`CREATE INDEX IF NOT EXISTS idx_token_metrics_address_ts
			ON token_metrics (token_address, timestamp DESC)`,
	}
	for _, stmt := range statements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveToken upserts by address and returns the row id. Re-discovering a
// known token keeps its original first_seen and reactivates it.
func (r *TokenRepository) SaveToken(ctx context.Context, token domain.Token) (int64, error) {
	_, span := r.tracer.Start(ctx, "token-repo.save-token")
	defer span.End()

	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO tokens (address, symbol, name, chain, source, first_seen, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		 ON CONFLICT (address) DO UPDATE SET is_active = TRUE
		 RETURNING id`,
		token.Address, token.Symbol, token.Name, token.Chain, token.Source, token.FirstSeen.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetToken returns nil without error when the address is unknown.
func (r *TokenRepository) GetToken(ctx context.Context, address string) (*domain.Token, error) {
	_, span := r.tracer.Start(ctx, "token-repo.get-token")
	defer span.End()

	var t domain.Token
	err := r.pool.QueryRow(ctx,
		`SELECT id, address, symbol, name, chain, source, created_at, first_seen, is_active
		 FROM tokens
		 WHERE address = $1`,
		address,
	).Scan(&t.ID, &t.Address, &t.Symbol, &t.Name, &t.Chain, &t.Source, &t.CreatedAt, &t.FirstSeen, &t.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TokenRepository) GetRecentTokens(ctx context.Context, limit int) ([]domain.Token, error) {
	_, span := r.tracer.Start(ctx, "token-repo.get-recent-tokens")
	defer span.End()

	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, address, symbol, name, chain, source, created_at, first_seen, is_active
		 FROM tokens
		 WHERE is_active
		 ORDER BY first_seen DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := make([]domain.Token, 0, limit)
	for rows.Next() {
		var t domain.Token
		if err := rows.Scan(&t.ID, &t.Address, &t.Symbol, &t.Name, &t.Chain, &t.Source, &t.CreatedAt, &t.FirstSeen, &t.IsActive); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (r *TokenRepository) SaveMetrics(ctx context.Context, m domain.TokenMetrics) error {
	_, span := r.tracer.Start(ctx, "token-repo.save-metrics")
	defer span.End()

	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO token_metrics (
			token_address, timestamp, price_usd, market_cap_usd, liquidity_usd,
			volume_24h_usd, total_supply, circulating_supply, holder_count,
			top_10_holders_pct, is_honeypot, is_mintable, has_proxy, contract_verified
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		m.TokenAddress, ts.UTC(), m.PriceUSD, m.MarketCapUSD, m.LiquidityUSD,
		m.Volume24hUSD, m.TotalSupply, m.CirculatingSupply, m.HolderCount,
		m.Top10HoldersPct, m.IsHoneypot, m.IsMintable, m.HasProxy, m.ContractVerified,
	)
	return err
}

// GetLatestMetrics returns the newest snapshot for the address, or nil
// without error when no snapshot exists yet.
func (r *TokenRepository) GetLatestMetrics(ctx context.Context, address string) (*domain.TokenMetrics, error) {
	_, span := r.tracer.Start(ctx, "token-repo.get-latest-metrics")
	defer span.End()

	var (
		m          domain.TokenMetrics
		price      decimal.NullDecimal
		marketCap  decimal.NullDecimal
		liquidity  decimal.NullDecimal
		volume     decimal.NullDecimal
		supply     decimal.NullDecimal
		circSupply decimal.NullDecimal
		holders    sql.NullInt64
		topPct     decimal.NullDecimal
		honeypot   sql.NullBool
		mintable   sql.NullBool
		proxy      sql.NullBool
		verified   sql.NullBool
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, token_address, timestamp, price_usd, market_cap_usd, liquidity_usd,
			volume_24h_usd, total_supply, circulating_supply, holder_count,
			top_10_holders_pct, is_honeypot, is_mintable, has_proxy, contract_verified
		 FROM token_metrics
		 WHERE token_address = $1
		 ORDER BY timestamp DESC
		 LIMIT 1`,
		address,
	).Scan(&m.ID, &m.TokenAddress, &m.Timestamp, &price, &marketCap, &liquidity,
		&volume, &supply, &circSupply, &holders,
		&topPct, &honeypot, &mintable, &proxy, &verified)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	m.PriceUSD = nullDecimalPtr(price)
	m.MarketCapUSD = nullDecimalPtr(marketCap)
	m.LiquidityUSD = nullDecimalPtr(liquidity)
	m.Volume24hUSD = nullDecimalPtr(volume)
	m.TotalSupply = nullDecimalPtr(supply)
	m.CirculatingSupply = nullDecimalPtr(circSupply)
	m.HolderCount = nullInt64Ptr(holders)
	m.Top10HoldersPct = nullDecimalPtr(topPct)
	m.IsHoneypot = nullBoolPtr(honeypot)
	m.IsMintable = nullBoolPtr(mintable)
	m.HasProxy = nullBoolPtr(proxy)
	m.ContractVerified = nullBoolPtr(verified)
	return &m, nil
}

// GetLatestPrice returns the newest known price for the address, or nil
// when no snapshot carries one.
func (r *TokenRepository) GetLatestPrice(ctx context.Context, address string) (*decimal.Decimal, error) {
	_, span := r.tracer.Start(ctx, "token-repo.get-latest-price")
	defer span.End()

	var price decimal.NullDecimal
	err := r.pool.QueryRow(ctx,
		`SELECT price_usd
		 FROM token_metrics
		 WHERE token_address = $1 AND price_usd IS NOT NULL
		 ORDER BY timestamp DESC
		 LIMIT 1`,
		address,
	).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return nullDecimalPtr(price), nil
}

func nullDecimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func nullInt64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func nullBoolPtr(b sql.NullBool) *bool {
	if !b.Valid {
		return nil
	}
	v := b.Bool
	return &v
}
