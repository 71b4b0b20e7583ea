package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Token is a tradeable token discovered by a scanner. Identity fields are
// immutable after creation; only IsActive may change (soft delete).
type Token struct {
	ID        int64     `json:"id"`
	Address   string    `json:"address"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Chain     string    `json:"chain"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
	FirstSeen time.Time `json:"first_seen"`
	IsActive  bool      `json:"is_active"`
}

// TokenMetrics is a point-in-time market snapshot for a token. Rows are
// append-only; nil means unknown and is excluded from scoring, it never
// means zero.
type TokenMetrics struct {
	ID                int64            `json:"id"`
	TokenAddress      string           `json:"token_address"`
	Timestamp         time.Time        `json:"timestamp"`
	PriceUSD          *decimal.Decimal `json:"price_usd,omitempty"`
	MarketCapUSD      *decimal.Decimal `json:"market_cap_usd,omitempty"`
	LiquidityUSD      *decimal.Decimal `json:"liquidity_usd,omitempty"`
	Volume24hUSD      *decimal.Decimal `json:"volume_24h_usd,omitempty"`
	TotalSupply       *decimal.Decimal `json:"total_supply,omitempty"`
	CirculatingSupply *decimal.Decimal `json:"circulating_supply,omitempty"`
	HolderCount       *int64           `json:"holder_count,omitempty"`
	Top10HoldersPct   *decimal.Decimal `json:"top_10_holders_pct,omitempty"`
	IsHoneypot        *bool            `json:"is_honeypot,omitempty"`
	IsMintable        *bool            `json:"is_mintable,omitempty"`
	HasProxy          *bool            `json:"has_proxy,omitempty"`
	ContractVerified  *bool            `json:"contract_verified,omitempty"`
}

// TokenListing pairs a newly discovered token with its first metrics
// snapshot, as delivered by a discovery source.
type TokenListing struct {
	Token   Token
	Metrics TokenMetrics
}

type RiskLevel string

const (
	RiskLow     RiskLevel = "low"
	RiskMedium  RiskLevel = "medium"
	RiskHigh    RiskLevel = "high"
	RiskExtreme RiskLevel = "extreme"
)

func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh, RiskExtreme:
		return true
	}
	return false
}

type Recommendation string

const (
	RecommendBuy   Recommendation = "buy"
	RecommendWatch Recommendation = "watch"
	RecommendAvoid Recommendation = "avoid"
)

// Flag name prefixes raised during scoring. A flag string starts with one
// of these names followed by a human-readable detail.
const (
	FlagLowLiquidity       = "LOW_LIQUIDITY"
	FlagUnknownLiquidity   = "UNKNOWN_LIQUIDITY"
	FlagFewHolders         = "FEW_HOLDERS"
	FlagWhaleDominated     = "WHALE_DOMINATED"
	FlagLowVolume          = "LOW_VOLUME"
	FlagUnverifiedContract = "UNVERIFIED_CONTRACT"
	FlagHoneypotDetected   = "HONEYPOT_DETECTED"
	FlagMintableToken      = "MINTABLE_TOKEN"
	FlagProxyContract      = "PROXY_CONTRACT"
	FlagVeryNew            = "VERY_NEW"
	FlagInsufficientData   = "INSUFFICIENT_DATA"
)

// IsRiskCritical reports whether any flag forces the extreme risk level.
// This set and the one in IsSafetyCritical overlap but are not the same;
// they are kept separate on purpose.
func IsRiskCritical(flags []string) bool {
	for _, f := range flags {
		if strings.Contains(f, "HONEYPOT") ||
			strings.Contains(f, FlagWhaleDominated) ||
			strings.Contains(f, FlagLowLiquidity) {
			return true
		}
	}
	return false
}

// IsSafetyCritical reports whether any flag disqualifies a token from
// being considered safe to trade regardless of score.
func IsSafetyCritical(flags []string) bool {
	for _, f := range flags {
		if strings.Contains(f, "HONEYPOT") ||
			strings.Contains(f, FlagUnverifiedContract) ||
			strings.Contains(f, FlagLowLiquidity) {
			return true
		}
	}
	return false
}

// AnalysisResult is the outcome of scoring one token against its latest
// metrics snapshot. Computed fresh on every analysis, never persisted or
// mutated. Flags preserve evaluation order.
type AnalysisResult struct {
	TokenAddress        string           `json:"token_address"`
	Score               decimal.Decimal  `json:"score"`
	Flags               []string         `json:"flags"`
	RiskLevel           RiskLevel        `json:"risk_level"`
	IsSafe              bool             `json:"is_safe"`
	PotentialMultiplier *decimal.Decimal `json:"potential_multiplier,omitempty"`
	Recommendation      Recommendation   `json:"recommendation"`
}

type SignalType string

const (
	SignalBuy           SignalType = "buy"
	SignalSell          SignalType = "sell"
	SignalWarning       SignalType = "warning"
	SignalWhaleMovement SignalType = "whale_movement"
)

// TradingSignal is created once by the analysis pipeline and flipped to
// sent exactly once by the delivery loop. Never deleted.
type TradingSignal struct {
	ID               int64            `json:"id"`
	TokenAddress     string           `json:"token_address"`
	SignalType       SignalType       `json:"signal_type"`
	Confidence       decimal.Decimal  `json:"confidence"`
	Reason           string           `json:"reason"`
	TargetMultiplier *decimal.Decimal `json:"target_multiplier,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	IsSent           bool             `json:"is_sent"`
}

// SimulatedTrade is a paper position. It opens active with exit fields
// unset and closes exactly once, at which point every exit field is
// populated. Closed trades are never reopened.
type SimulatedTrade struct {
	ID            int64            `json:"id"`
	TokenAddress  string           `json:"token_address"`
	EntryPrice    decimal.Decimal  `json:"entry_price"`
	EntryTime     time.Time        `json:"entry_time"`
	InvestmentUSD decimal.Decimal  `json:"investment_usd"`
	ExitPrice     *decimal.Decimal `json:"exit_price,omitempty"`
	ExitTime      *time.Time       `json:"exit_time,omitempty"`
	ProfitLoss    *decimal.Decimal `json:"profit_loss,omitempty"`
	Multiplier    *decimal.Decimal `json:"multiplier,omitempty"`
	ExitReason    *string          `json:"exit_reason,omitempty"`
	IsActive      bool             `json:"is_active"`
}

// TradeClosure is a request to close an active trade. Applied as a
// conditional update keyed on is_active so concurrent sweeps cannot close
// the same trade twice.
type TradeClosure struct {
	TradeID    int64
	ExitPrice  decimal.Decimal
	ExitTime   time.Time
	ProfitLoss decimal.Decimal
	Multiplier decimal.Decimal
	Reason     string
}

// TradingStats aggregates closed simulated trades.
type TradingStats struct {
	TotalTrades      int64           `json:"total_trades"`
	ProfitableTrades int64           `json:"profitable_trades"`
	WinRate          decimal.Decimal `json:"win_rate"`
	TotalProfitUSD   decimal.Decimal `json:"total_profit_usd"`
	AvgMultiplier    decimal.Decimal `json:"avg_multiplier"`
}
