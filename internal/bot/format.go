package bot

import (
	"fmt"
	"strings"

	"moonwatch/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	thousand = decimal.NewFromInt(1000)
	million  = decimal.NewFromInt(1000000)
	billion  = decimal.NewFromInt(1000000000)
	one      = decimal.NewFromInt(1)
	cent     = decimal.RequireFromString("0.01")
)

// FormatNumber renders a dollar amount compactly: 1.2K, 3.4M, 5.6B.
func FormatNumber(v decimal.Decimal) string {
	abs := v.Abs()
	switch {
	case abs.GreaterThanOrEqual(billion):
		return v.Div(billion).Round(1).String() + "B"
	case abs.GreaterThanOrEqual(million):
		return v.Div(million).Round(1).String() + "M"
	case abs.GreaterThanOrEqual(thousand):
		return v.Div(thousand).Round(1).String() + "K"
	default:
		return v.Round(2).String()
	}
}

// FormatPrice renders a token price with precision matched to its size;
// micro-cap prices need many more decimals to be readable.
func FormatPrice(p decimal.Decimal) string {
	abs := p.Abs()
	switch {
	case abs.GreaterThanOrEqual(one):
		return "$" + p.Round(2).String()
	case abs.GreaterThanOrEqual(cent):
		return "$" + p.Round(4).String()
	default:
		return "$" + p.Round(10).String()
	}
}

// FormatSignalMessage renders one trading signal for Telegram delivery.
func FormatSignalMessage(signal domain.TradingSignal, token *domain.Token) string {
	name := signal.TokenAddress
	if token != nil {
		name = fmt.Sprintf("%s (%s)", token.Symbol, token.Name)
	}

	var b strings.Builder
	switch signal.SignalType {
	case domain.SignalBuy:
		b.WriteString("BUY SIGNAL\n")
	case domain.SignalSell:
		b.WriteString("SELL SIGNAL\n")
	case domain.SignalWarning:
		b.WriteString("WARNING\n")
	case domain.SignalWhaleMovement:
		b.WriteString("WHALE MOVEMENT\n")
	default:
		b.WriteString("SIGNAL\n")
	}

	fmt.Fprintf(&b, "Token: %s\n", name)
	fmt.Fprintf(&b, "Address: %s\n", signal.TokenAddress)
	fmt.Fprintf(&b, "Confidence: %s%%\n", signal.Confidence.Mul(decimal.NewFromInt(100)).Round(0))
	if signal.TargetMultiplier != nil {
		fmt.Fprintf(&b, "Target: %sx\n", signal.TargetMultiplier)
	}
	fmt.Fprintf(&b, "Reason: %s", signal.Reason)
	return b.String()
}

// FormatStats renders the aggregate simulated-trading report.
func FormatStats(stats domain.TradingStats) string {
	var b strings.Builder
	b.WriteString("Simulated Trading Stats\n")
	fmt.Fprintf(&b, "Closed trades: %d\n", stats.TotalTrades)
	fmt.Fprintf(&b, "Profitable: %d\n", stats.ProfitableTrades)
	fmt.Fprintf(&b, "Win rate: %s%%\n", stats.WinRate.Round(1))
	fmt.Fprintf(&b, "Total P&L: $%s\n", stats.TotalProfitUSD.Round(2))
	fmt.Fprintf(&b, "Avg multiplier: %sx", stats.AvgMultiplier.Round(2))
	return b.String()
}
