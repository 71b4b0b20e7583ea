package analyzer

import (
	"fmt"
	"strings"
	"time"

	"moonwatch/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	baseScore = decimal.NewFromInt(50)

	liqExcellent = decimal.NewFromInt(100000)
	liqGood      = decimal.NewFromInt(50000)
	liqDecent    = decimal.NewFromInt(20000)

	pctGreat      = decimal.NewFromInt(20)
	pctGood       = decimal.NewFromInt(40)
	pctConcerning = decimal.NewFromInt(60)

	ratioExcellent = decimal.NewFromInt(2)
	ratioGood      = decimal.NewFromInt(1)
	ratioDecent    = decimal.RequireFromString("0.5")
	ratioLow       = decimal.RequireFromString("0.1")

	safeScoreFloor  = decimal.NewFromInt(70)
	buyScoreFloor   = decimal.NewFromInt(75)
	multScoreFloor  = decimal.NewFromInt(60)
	extremeCeiling  = decimal.NewFromInt(30)
	highCeiling     = decimal.NewFromInt(50)
	mediumCeiling   = decimal.NewFromInt(70)
	lowLiqVolBoost  = decimal.RequireFromString("1.5")
	veryNewBoost    = decimal.NewFromInt(2)
	defaultTargetX  = decimal.NewFromInt(2)
	insufficientVal = decimal.NewFromInt(20)
)

// Engine scores a token against its most recent metrics snapshot using a
// fixed additive heuristic model. Pure given its inputs; the clock is
// injected so market-timing results are reproducible.
type Engine struct {
	minLiquidity decimal.Decimal
	minHolders   int64
	now          func() time.Time
}

func NewEngine(minLiquidity decimal.Decimal, minHolders int64, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		minLiquidity: minLiquidity,
		minHolders:   minHolders,
		now:          now,
	}
}

// Analyze produces the risk classification for token given its latest
// snapshot. A nil snapshot yields the insufficient-data result; missing
// data is a valid outcome, not an error.
func (e *Engine) Analyze(token domain.Token, metrics *domain.TokenMetrics) domain.AnalysisResult {
	if metrics == nil {
		return insufficientDataResult(token.Address)
	}

	score := baseScore
	flags := make([]string, 0, 8)

	score = score.Add(e.scoreLiquidity(metrics, &flags))
	score = score.Add(e.scoreHolderDistribution(metrics, &flags))
	score = score.Add(scoreVolume(metrics, &flags))
	score = score.Add(scorePriceStability())
	score = score.Add(scoreContractSecurity(metrics, &flags))
	score = score.Add(e.scoreMarketTiming(token, &flags))

	riskLevel := riskLevelFor(score, flags)
	isSafe := score.GreaterThanOrEqual(safeScoreFloor) && !domain.IsSafetyCritical(flags)

	return domain.AnalysisResult{
		TokenAddress:        token.Address,
		Score:               score,
		Flags:               flags,
		RiskLevel:           riskLevel,
		IsSafe:              isSafe,
		PotentialMultiplier: potentialMultiplier(score, metrics, flags),
		Recommendation:      recommendationFor(score, riskLevel, isSafe),
	}
}

func (e *Engine) scoreLiquidity(metrics *domain.TokenMetrics, flags *[]string) decimal.Decimal {
	if metrics.LiquidityUSD == nil {
		*flags = append(*flags, domain.FlagUnknownLiquidity+": could not determine liquidity")
		return decimal.Zero
	}

	liquidity := *metrics.LiquidityUSD
	switch {
	case liquidity.GreaterThanOrEqual(liqExcellent):
		return decimal.NewFromInt(25)
	case liquidity.GreaterThanOrEqual(liqGood):
		return decimal.NewFromInt(20)
	case liquidity.GreaterThanOrEqual(liqDecent):
		return decimal.NewFromInt(15)
	case liquidity.GreaterThanOrEqual(e.minLiquidity):
		return decimal.NewFromInt(10)
	default:
		*flags = append(*flags, domain.FlagLowLiquidity+": may be hard to sell")
		return decimal.NewFromInt(-10)
	}
}

func (e *Engine) scoreHolderDistribution(metrics *domain.TokenMetrics, flags *[]string) decimal.Decimal {
	score := decimal.Zero

	if metrics.HolderCount != nil {
		holders := *metrics.HolderCount
		switch {
		case holders >= 10000:
			score = score.Add(decimal.NewFromInt(10))
		case holders >= 5000:
			score = score.Add(decimal.NewFromInt(8))
		case holders >= 1000:
			score = score.Add(decimal.NewFromInt(6))
		case holders >= e.minHolders:
			score = score.Add(decimal.NewFromInt(4))
		default:
			*flags = append(*flags, fmt.Sprintf("%s: only %d holders", domain.FlagFewHolders, holders))
			score = score.Sub(decimal.NewFromInt(5))
		}
	}

	if metrics.Top10HoldersPct != nil {
		pct := *metrics.Top10HoldersPct
		switch {
		case pct.LessThanOrEqual(pctGreat):
			score = score.Add(decimal.NewFromInt(10))
		case pct.LessThanOrEqual(pctGood):
			score = score.Add(decimal.NewFromInt(7))
		case pct.LessThanOrEqual(pctConcerning):
			score = score.Add(decimal.NewFromInt(4))
		default:
			*flags = append(*flags, fmt.Sprintf("%s: top 10 holders own %s%%", domain.FlagWhaleDominated, pct))
			score = score.Sub(decimal.NewFromInt(10))
		}
	}

	return score
}

func scoreVolume(metrics *domain.TokenMetrics, flags *[]string) decimal.Decimal {
	if metrics.Volume24hUSD == nil || metrics.LiquidityUSD == nil || metrics.LiquidityUSD.IsZero() {
		return decimal.Zero
	}

	ratio := metrics.Volume24hUSD.Div(*metrics.LiquidityUSD)
	switch {
	case ratio.GreaterThanOrEqual(ratioExcellent):
		return decimal.NewFromInt(15)
	case ratio.GreaterThanOrEqual(ratioGood):
		return decimal.NewFromInt(12)
	case ratio.GreaterThanOrEqual(ratioDecent):
		return decimal.NewFromInt(8)
	case ratio.GreaterThanOrEqual(ratioLow):
		return decimal.NewFromInt(5)
	default:
		*flags = append(*flags, domain.FlagLowVolume+": very little trading activity")
		return decimal.NewFromInt(-5)
	}
}

// scorePriceStability is a neutral stub. Historical price-series analysis
// is out of scope for the current model; the factor keeps its slot in the
// sum so the composition is unchanged when it is filled in later.
func scorePriceStability() decimal.Decimal {
	return decimal.NewFromInt(7)
}

func scoreContractSecurity(metrics *domain.TokenMetrics, flags *[]string) decimal.Decimal {
	score := decimal.Zero

	if metrics.ContractVerified != nil {
		if *metrics.ContractVerified {
			score = score.Add(decimal.NewFromInt(8))
		} else {
			*flags = append(*flags, domain.FlagUnverifiedContract+": cannot audit contract code")
			score = score.Sub(decimal.NewFromInt(10))
		}
	}

	if metrics.IsHoneypot != nil {
		if *metrics.IsHoneypot {
			*flags = append(*flags, domain.FlagHoneypotDetected+": cannot sell tokens")
			score = score.Sub(decimal.NewFromInt(50))
		} else {
			score = score.Add(decimal.NewFromInt(5))
		}
	}

	if metrics.IsMintable != nil {
		if *metrics.IsMintable {
			*flags = append(*flags, domain.FlagMintableToken+": supply can be increased")
			score = score.Sub(decimal.NewFromInt(5))
		} else {
			score = score.Add(decimal.NewFromInt(2))
		}
	}

	if metrics.HasProxy != nil {
		if *metrics.HasProxy {
			*flags = append(*flags, domain.FlagProxyContract+": contract can be upgraded")
			score = score.Sub(decimal.NewFromInt(3))
		} else {
			score = score.Add(decimal.NewFromInt(2))
		}
	}

	return score
}

func (e *Engine) scoreMarketTiming(token domain.Token, flags *[]string) decimal.Decimal {
	age := e.now().Sub(token.FirstSeen)
	switch {
	case age < time.Hour:
		*flags = append(*flags, domain.FlagVeryNew+": less than 1 hour old")
		return decimal.NewFromInt(8)
	case age < 24*time.Hour:
		return decimal.NewFromInt(10)
	case age < 7*24*time.Hour:
		return decimal.NewFromInt(6)
	default:
		return decimal.NewFromInt(3)
	}
}

func riskLevelFor(score decimal.Decimal, flags []string) domain.RiskLevel {
	switch {
	case domain.IsRiskCritical(flags) || score.LessThan(extremeCeiling):
		return domain.RiskExtreme
	case score.LessThan(highCeiling):
		return domain.RiskHigh
	case score.LessThan(mediumCeiling):
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

func recommendationFor(score decimal.Decimal, risk domain.RiskLevel, isSafe bool) domain.Recommendation {
	if !isSafe || risk == domain.RiskExtreme {
		return domain.RecommendAvoid
	}
	if score.GreaterThanOrEqual(buyScoreFloor) && (risk == domain.RiskLow || risk == domain.RiskMedium) {
		return domain.RecommendBuy
	}
	return domain.RecommendWatch
}

// potentialMultiplier estimates upside as a stepped base from the score,
// boosted for thin liquidity and very new listings. Boosts compose
// multiplicatively in that fixed order.
func potentialMultiplier(score decimal.Decimal, metrics *domain.TokenMetrics, flags []string) *decimal.Decimal {
	if score.LessThan(multScoreFloor) {
		return nil
	}

	base := defaultTargetX
	switch {
	case score.GreaterThanOrEqual(decimal.NewFromInt(90)):
		base = decimal.NewFromInt(100)
	case score.GreaterThanOrEqual(decimal.NewFromInt(85)):
		base = decimal.NewFromInt(50)
	case score.GreaterThanOrEqual(decimal.NewFromInt(80)):
		base = decimal.NewFromInt(20)
	case score.GreaterThanOrEqual(decimal.NewFromInt(75)):
		base = decimal.NewFromInt(10)
	case score.GreaterThanOrEqual(decimal.NewFromInt(70)):
		base = decimal.NewFromInt(5)
	}

	if metrics.LiquidityUSD != nil && metrics.LiquidityUSD.LessThan(liqGood) {
		base = base.Mul(lowLiqVolBoost)
	}

	for _, f := range flags {
		if strings.HasPrefix(f, domain.FlagVeryNew) {
			base = base.Mul(veryNewBoost)
			break
		}
	}

	return &base
}

func insufficientDataResult(tokenAddress string) domain.AnalysisResult {
	return domain.AnalysisResult{
		TokenAddress:   tokenAddress,
		Score:          insufficientVal,
		Flags:          []string{domain.FlagInsufficientData + ": cannot analyze properly"},
		RiskLevel:      domain.RiskHigh,
		IsSafe:         false,
		Recommendation: domain.RecommendAvoid,
	}
}
