package strategy

import (
	"fmt"
	"sort"
	"time"

	"moonwatch/internal/domain"

	"github.com/shopspring/decimal"
)

// ProfitTaking closes a trade once its price multiple reaches one of the
// configured targets. The lowest satisfied target wins, so a price jump
// across several targets still reports the first one crossed.
type ProfitTaking struct {
	targets []decimal.Decimal
	now     func() time.Time
}

func NewProfitTaking(targets []decimal.Decimal, now func() time.Time) *ProfitTaking {
	if now == nil {
		now = time.Now
	}
	sorted := make([]decimal.Decimal, len(targets))
	copy(sorted, targets)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })
	return &ProfitTaking{targets: sorted, now: now}
}

// Evaluate reports whether trade should be closed at currentPrice. A nil
// price or a zero entry price never closes.
func (p *ProfitTaking) Evaluate(trade domain.SimulatedTrade, currentPrice *decimal.Decimal) (domain.TradeClosure, bool) {
	if currentPrice == nil || trade.EntryPrice.IsZero() {
		return domain.TradeClosure{}, false
	}

	multiplier := currentPrice.Div(trade.EntryPrice)
	for _, target := range p.targets {
		if multiplier.GreaterThanOrEqual(target) {
			return domain.TradeClosure{
				TradeID:    trade.ID,
				ExitPrice:  *currentPrice,
				ExitTime:   p.now(),
				ProfitLoss: profitLoss(trade, *currentPrice),
				Multiplier: multiplier,
				Reason:     fmt.Sprintf("%sx target reached", target),
			}, true
		}
	}
	return domain.TradeClosure{}, false
}

// profitLoss is the dollar P&L of exiting at exitPrice: the price move
// scaled by how many units the investment bought at entry.
func profitLoss(trade domain.SimulatedTrade, exitPrice decimal.Decimal) decimal.Decimal {
	return exitPrice.Sub(trade.EntryPrice).Mul(trade.InvestmentUSD).Div(trade.EntryPrice)
}
