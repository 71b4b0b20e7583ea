package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"moonwatch/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

type MetricsReader interface {
	GetLatestMetrics(ctx context.Context, address string) (*domain.TokenMetrics, error)
}

type SignalWriter interface {
	SaveSignal(ctx context.Context, s domain.TradingSignal) (int64, error)
}

type TradeOpener interface {
	SaveTrade(ctx context.Context, t domain.SimulatedTrade) (int64, error)
}

type ScoringEngine interface {
	Analyze(token domain.Token, metrics *domain.TokenMetrics) domain.AnalysisResult
}

var (
	signalScoreFloor = decimal.NewFromInt(75)
	tradeScoreFloor  = decimal.NewFromInt(80)
	hundred          = decimal.NewFromInt(100)
	fallbackTarget   = decimal.NewFromInt(2)
)

// AnalysisService scores a token and, when the result qualifies, records a
// buy signal and opens a simulated trade.
type AnalysisService struct {
	tracer        trace.Tracer
	metrics       MetricsReader
	signals       SignalWriter
	trades        TradeOpener
	engine        ScoringEngine
	maxInvestment decimal.Decimal
}

func NewAnalysisService(tracer trace.Tracer, metrics MetricsReader, signals SignalWriter, trades TradeOpener, engine ScoringEngine, maxInvestment decimal.Decimal) *AnalysisService {
	return &AnalysisService{
		tracer:        tracer,
		metrics:       metrics,
		signals:       signals,
		trades:        trades,
		engine:        engine,
		maxInvestment: maxInvestment,
	}
}

// AnalyzeToken runs the full pipeline for one token. The analysis result
// is always returned, even when no signal or trade qualifies.
func (s *AnalysisService) AnalyzeToken(ctx context.Context, token domain.Token) (domain.AnalysisResult, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.analyze-token")
	defer span.End()

	metrics, err := s.metrics.GetLatestMetrics(ctx, token.Address)
	if err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("load metrics for %s: %w", token.Address, err)
	}

	result := s.engine.Analyze(token, metrics)

	if !result.IsSafe || result.Score.LessThan(signalScoreFloor) {
		return result, nil
	}

	signal := buildBuySignal(token, result)
	if _, err := s.signals.SaveSignal(ctx, signal); err != nil {
		return result, fmt.Errorf("save signal for %s: %w", token.Address, err)
	}
	log.Printf("buy signal for %s (%s): score %s, risk %s", token.Symbol, token.Address, result.Score, result.RiskLevel)

	if result.Recommendation != domain.RecommendBuy || result.Score.LessThan(tradeScoreFloor) {
		return result, nil
	}
	if metrics == nil || metrics.PriceUSD == nil {
		log.Printf("no entry price for %s, skipping simulated trade", token.Address)
		return result, nil
	}

	trade := domain.SimulatedTrade{
		TokenAddress:  token.Address,
		EntryPrice:    *metrics.PriceUSD,
		InvestmentUSD: s.maxInvestment,
		IsActive:      true,
	}
	if _, err := s.trades.SaveTrade(ctx, trade); err != nil {
		return result, fmt.Errorf("open trade for %s: %w", token.Address, err)
	}
	log.Printf("opened simulated trade for %s at %s", token.Symbol, metrics.PriceUSD)

	return result, nil
}

func buildBuySignal(token domain.Token, result domain.AnalysisResult) domain.TradingSignal {
	flagText := "None"
	if len(result.Flags) > 0 {
		flagText = strings.Join(result.Flags, ", ")
	}
	target := fallbackTarget
	if result.PotentialMultiplier != nil {
		target = *result.PotentialMultiplier
	}
	return domain.TradingSignal{
		TokenAddress: token.Address,
		SignalType:   domain.SignalBuy,
		Confidence:   result.Score.Div(hundred),
		Reason: fmt.Sprintf("%s (%s) scored %s, risk %s, flags: %s",
			token.Symbol, token.Name, result.Score, result.RiskLevel, flagText),
		TargetMultiplier: &target,
	}
}
