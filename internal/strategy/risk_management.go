package strategy

import (
	"fmt"
	"time"

	"moonwatch/internal/domain"

	"github.com/shopspring/decimal"
)

// RiskManagement closes a trade that breaches the stop-loss or outlives
// the maximum holding period. When both trip in the same evaluation the
// time-limit reason is reported.
type RiskManagement struct {
	stopLoss decimal.Decimal // loss fraction, e.g. 0.5 for -50%
	maxHold  time.Duration
	now      func() time.Time
}

func NewRiskManagement(stopLoss decimal.Decimal, maxHold time.Duration, now func() time.Time) *RiskManagement {
	if now == nil {
		now = time.Now
	}
	return &RiskManagement{stopLoss: stopLoss, maxHold: maxHold, now: now}
}

// Evaluate reports whether trade should be closed at currentPrice. A trade
// is never closed without a price, even when it is past the holding limit:
// it stays open and is retried on the next sweep.
func (r *RiskManagement) Evaluate(trade domain.SimulatedTrade, currentPrice *decimal.Decimal) (domain.TradeClosure, bool) {
	if currentPrice == nil || trade.EntryPrice.IsZero() {
		return domain.TradeClosure{}, false
	}

	shouldClose := false
	reason := ""

	lossFraction := trade.EntryPrice.Sub(*currentPrice).Div(trade.EntryPrice)
	if lossFraction.GreaterThanOrEqual(r.stopLoss) {
		shouldClose = true
		reason = fmt.Sprintf("stop loss triggered (-%s%%)", lossFraction.Mul(decimal.NewFromInt(100)).Round(1))
	}

	if r.now().Sub(trade.EntryTime) > r.maxHold {
		shouldClose = true
		reason = fmt.Sprintf("max holding time reached (%s)", r.maxHold)
	}

	if !shouldClose {
		return domain.TradeClosure{}, false
	}

	return domain.TradeClosure{
		TradeID:    trade.ID,
		ExitPrice:  *currentPrice,
		ExitTime:   r.now(),
		ProfitLoss: profitLoss(trade, *currentPrice),
		Multiplier: currentPrice.Div(trade.EntryPrice),
		Reason:     reason,
	}, true
}
