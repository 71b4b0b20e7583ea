package job

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type TradeSweeper interface {
	CheckProfitTargets(ctx context.Context) (int, error)
	CheckRiskLimits(ctx context.Context) (int, error)
}

// TradeMonitor runs the profit and risk sweeps on independent tickers.
// The sweeps race on purpose; the conditional close in the trade store
// makes the race harmless.
type TradeMonitor struct {
	tracer   trace.Tracer
	sweeper  TradeSweeper
	interval time.Duration
}

func NewTradeMonitor(tracer trace.Tracer, sweeper TradeSweeper, interval time.Duration) *TradeMonitor {
	return &TradeMonitor{tracer: tracer, sweeper: sweeper, interval: interval}
}

// Start launches both sweep loops. Blocks until ctx is cancelled.
func (m *TradeMonitor) Start(ctx context.Context) {
	log.Println("Trade monitor starting...")

	go m.runLoop(ctx, "profit", m.sweeper.CheckProfitTargets)
	go m.runLoop(ctx, "risk", m.sweeper.CheckRiskLimits)

	<-ctx.Done()
	log.Println("Trade monitor stopped")
}

func (m *TradeMonitor) runLoop(ctx context.Context, kind string, sweep func(context.Context) (int, error)) {
	m.sweepOnce(ctx, kind, sweep)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweepOnce(ctx, kind, sweep)
		}
	}
}

func (m *TradeMonitor) sweepOnce(ctx context.Context, kind string, sweep func(context.Context) (int, error)) {
	ctx, span := m.tracer.Start(ctx, "trade-monitor."+kind+"-sweep")
	defer span.End()

	closed, err := sweep(ctx)
	if err != nil {
		log.Printf("%s sweep failed: %v", kind, err)
		return
	}
	if closed > 0 {
		log.Printf("%s sweep closed %d trades", kind, closed)
	}
}
