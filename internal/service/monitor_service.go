package service

import (
	"context"
	"fmt"
	"log"

	"moonwatch/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

type ActiveTradeReader interface {
	GetActiveTrades(ctx context.Context) ([]domain.SimulatedTrade, error)
}

type TradeCloser interface {
	CloseTrade(ctx context.Context, c domain.TradeClosure) (bool, error)
}

type PriceReader interface {
	GetLatestPrice(ctx context.Context, address string) (*decimal.Decimal, error)
}

// ExitRule decides whether a trade should close at the given price.
type ExitRule interface {
	Evaluate(trade domain.SimulatedTrade, currentPrice *decimal.Decimal) (domain.TradeClosure, bool)
}

// TradeMonitorService sweeps active trades against the profit-taking and
// risk-management rules. A failure on one trade never blocks the rest of
// the sweep.
type TradeMonitorService struct {
	tracer trace.Tracer
	trades interface {
		ActiveTradeReader
		TradeCloser
	}
	prices PriceReader
	profit ExitRule
	risk   ExitRule
}

func NewTradeMonitorService(tracer trace.Tracer, trades interface {
	ActiveTradeReader
	TradeCloser
}, prices PriceReader, profit, risk ExitRule) *TradeMonitorService {
	return &TradeMonitorService{
		tracer: tracer,
		trades: trades,
		prices: prices,
		profit: profit,
		risk:   risk,
	}
}

// CheckProfitTargets closes every active trade whose price multiple has
// reached a target. Returns the number of trades actually closed.
func (s *TradeMonitorService) CheckProfitTargets(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "monitor-service.check-profit-targets")
	defer span.End()

	return s.sweep(ctx, s.profit, "profit")
}

// CheckRiskLimits closes every active trade that breached the stop-loss
// or outlived the holding limit. Returns the number of trades closed.
func (s *TradeMonitorService) CheckRiskLimits(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "monitor-service.check-risk-limits")
	defer span.End()

	return s.sweep(ctx, s.risk, "risk")
}

func (s *TradeMonitorService) sweep(ctx context.Context, rule ExitRule, kind string) (int, error) {
	trades, err := s.trades.GetActiveTrades(ctx)
	if err != nil {
		return 0, fmt.Errorf("load active trades: %w", err)
	}

	closed := 0
	for _, trade := range trades {
		price, err := s.prices.GetLatestPrice(ctx, trade.TokenAddress)
		if err != nil {
			log.Printf("%s sweep: price lookup failed for trade %d (%s): %v", kind, trade.ID, trade.TokenAddress, err)
			continue
		}

		closure, shouldClose := rule.Evaluate(trade, price)
		if !shouldClose {
			continue
		}

		applied, err := s.trades.CloseTrade(ctx, closure)
		if err != nil {
			log.Printf("%s sweep: close failed for trade %d: %v", kind, trade.ID, err)
			continue
		}
		if !applied {
			// Lost the race to another sweep; not an error.
			continue
		}
		closed++
		log.Printf("closed trade %d (%s): %s, P&L %s", trade.ID, trade.TokenAddress, closure.Reason, closure.ProfitLoss)
	}
	return closed, nil
}
