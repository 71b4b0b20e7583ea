package repository

import (
	"context"
	"time"

	"moonwatch/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

type SignalRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSignalRepository(pool PgxPool, tracer trace.Tracer) *SignalRepository {
	return &SignalRepository{pool: pool, tracer: tracer}
}

func (r *SignalRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "signal-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS trading_signals (
			id BIGSERIAL PRIMARY KEY,
			token_address TEXT NOT NULL,
			signal_type TEXT NOT NULL,
			confidence NUMERIC NOT NULL,
			reason TEXT NOT NULL,
			target_multiplier NUMERIC,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			is_sent BOOLEAN NOT NULL DEFAULT FALSE
		)`)
	return err
}

func (r *SignalRepository) SaveSignal(ctx context.Context, s domain.TradingSignal) (int64, error) {
	_, span := r.tracer.Start(ctx, "signal-repo.save-signal")
	defer span.End()

	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO trading_signals (token_address, signal_type, confidence, reason, target_multiplier, created_at, is_sent)
		 VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		 RETURNING id`,
		s.TokenAddress, string(s.SignalType), s.Confidence, s.Reason, s.TargetMultiplier, createdAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *SignalRepository) GetUnsentSignals(ctx context.Context, limit int) ([]domain.TradingSignal, error) {
	_, span := r.tracer.Start(ctx, "signal-repo.get-unsent-signals")
	defer span.End()

	if limit <= 0 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, token_address, signal_type, confidence, reason, target_multiplier, created_at, is_sent
		 FROM trading_signals
		 WHERE is_sent = FALSE
		 ORDER BY created_at ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	signals := make([]domain.TradingSignal, 0, limit)
	for rows.Next() {
		s, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		signals = append(signals, s)
	}
	return signals, rows.Err()
}

// MarkSignalSent flips is_sent exactly once; a second call on the same id
// reports false.
func (r *SignalRepository) MarkSignalSent(ctx context.Context, id int64) (bool, error) {
	_, span := r.tracer.Start(ctx, "signal-repo.mark-signal-sent")
	defer span.End()

	tag, err := r.pool.Exec(ctx,
		`UPDATE trading_signals SET is_sent = TRUE WHERE id = $1 AND is_sent = FALSE`,
		id,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *SignalRepository) ListRecentSignals(ctx context.Context, limit int) ([]domain.TradingSignal, error) {
	_, span := r.tracer.Start(ctx, "signal-repo.list-recent-signals")
	defer span.End()

	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, token_address, signal_type, confidence, reason, target_multiplier, created_at, is_sent
		 FROM trading_signals
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	signals := make([]domain.TradingSignal, 0, limit)
	for rows.Next() {
		s, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		signals = append(signals, s)
	}
	return signals, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSignal(row rowScanner) (domain.TradingSignal, error) {
	var (
		s          domain.TradingSignal
		signalType string
		target     decimal.NullDecimal
	)
	if err := row.Scan(&s.ID, &s.TokenAddress, &signalType, &s.Confidence, &s.Reason, &target, &s.CreatedAt, &s.IsSent); err != nil {
		return domain.TradingSignal{}, err
	}
	s.SignalType = domain.SignalType(signalType)
	s.TargetMultiplier = nullDecimalPtr(target)
	return s, nil
}
