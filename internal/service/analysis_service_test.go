package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"moonwatch/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

func testTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

type stubMetricsReader struct {
	metrics *domain.TokenMetrics
	err     error
}

func (s *stubMetricsReader) GetLatestMetrics(ctx context.Context, address string) (*domain.TokenMetrics, error) {
	return s.metrics, s.err
}

type stubSignalWriter struct {
	saved []domain.TradingSignal
	err   error
}

func (s *stubSignalWriter) SaveSignal(ctx context.Context, sig domain.TradingSignal) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.saved = append(s.saved, sig)
	return int64(len(s.saved)), nil
}

type stubTradeOpener struct {
	opened []domain.SimulatedTrade
	err    error
}

func (s *stubTradeOpener) SaveTrade(ctx context.Context, t domain.SimulatedTrade) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.opened = append(s.opened, t)
	return int64(len(s.opened)), nil
}

type stubEngine struct {
	result domain.AnalysisResult
}

func (s *stubEngine) Analyze(token domain.Token, metrics *domain.TokenMetrics) domain.AnalysisResult {
	return s.result
}

func safeResult(score int64) domain.AnalysisResult {
	mult := decimal.NewFromInt(10)
	return domain.AnalysisResult{
		TokenAddress:        "0xabc",
		Score:               decimal.NewFromInt(score),
		RiskLevel:           domain.RiskLow,
		IsSafe:              true,
		PotentialMultiplier: &mult,
		Recommendation:      domain.RecommendBuy,
	}
}

func metricsWithPrice(price string) *domain.TokenMetrics {
	p := decimal.RequireFromString(price)
	return &domain.TokenMetrics{TokenAddress: "0xabc", PriceUSD: &p}
}

func testToken() domain.Token {
	return domain.Token{Address: "0xabc", Symbol: "MOON", Name: "Moon Token"}
}

func newTestService(metrics *stubMetricsReader, signals *stubSignalWriter, trades *stubTradeOpener, engine *stubEngine) *AnalysisService {
	return NewAnalysisService(testTracer(), metrics, signals, trades, engine, decimal.NewFromInt(100))
}

func TestAnalyzeTokenQualifyingResultEmitsSignalAndTrade(t *testing.T) {
	signals := &stubSignalWriter{}
	trades := &stubTradeOpener{}
	svc := newTestService(&stubMetricsReader{metrics: metricsWithPrice("0.05")}, signals, trades, &stubEngine{result: safeResult(85)})

	result, err := svc.AnalyzeToken(context.Background(), testToken())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Score.Equal(decimal.NewFromInt(85)) {
		t.Fatalf("unexpected score: %s", result.Score)
	}
	if len(signals.saved) != 1 {
		t.Fatalf("expected 1 signal, got %d", len(signals.saved))
	}
	sig := signals.saved[0]
	if sig.SignalType != domain.SignalBuy {
		t.Fatalf("expected buy signal, got %s", sig.SignalType)
	}
	if !sig.Confidence.Equal(decimal.RequireFromString("0.85")) {
		t.Fatalf("expected confidence 0.85, got %s", sig.Confidence)
	}
	if !strings.Contains(sig.Reason, "MOON") || !strings.Contains(sig.Reason, "flags: None") {
		t.Fatalf("unexpected reason: %q", sig.Reason)
	}
	if len(trades.opened) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades.opened))
	}
	tr := trades.opened[0]
	if !tr.EntryPrice.Equal(decimal.RequireFromString("0.05")) || !tr.InvestmentUSD.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected trade: %+v", tr)
	}
}

func TestAnalyzeTokenBelowSignalFloorEmitsNothing(t *testing.T) {
	signals := &stubSignalWriter{}
	trades := &stubTradeOpener{}
	result := safeResult(74)
	result.Recommendation = domain.RecommendWatch
	svc := newTestService(&stubMetricsReader{metrics: metricsWithPrice("0.05")}, signals, trades, &stubEngine{result: result})

	if _, err := svc.AnalyzeToken(context.Background(), testToken()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(signals.saved) != 0 || len(trades.opened) != 0 {
		t.Fatal("sub-threshold result must not emit a signal or trade")
	}
}

func TestAnalyzeTokenUnsafeResultEmitsNothing(t *testing.T) {
	signals := &stubSignalWriter{}
	trades := &stubTradeOpener{}
	result := safeResult(90)
	result.IsSafe = false
	result.Recommendation = domain.RecommendAvoid
	svc := newTestService(&stubMetricsReader{metrics: metricsWithPrice("0.05")}, signals, trades, &stubEngine{result: result})

	if _, err := svc.AnalyzeToken(context.Background(), testToken()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(signals.saved) != 0 {
		t.Fatal("unsafe result must not emit a signal regardless of score")
	}
}

func TestAnalyzeTokenSignalWithoutTradeBetween75And80(t *testing.T) {
	signals := &stubSignalWriter{}
	trades := &stubTradeOpener{}
	svc := newTestService(&stubMetricsReader{metrics: metricsWithPrice("0.05")}, signals, trades, &stubEngine{result: safeResult(77)})

	if _, err := svc.AnalyzeToken(context.Background(), testToken()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(signals.saved) != 1 {
		t.Fatalf("expected a signal at 77, got %d", len(signals.saved))
	}
	if len(trades.opened) != 0 {
		t.Fatal("trade must not open below score 80")
	}
}

func TestAnalyzeTokenNoPriceSkipsTradeWithoutError(t *testing.T) {
	signals := &stubSignalWriter{}
	trades := &stubTradeOpener{}
	metrics := &domain.TokenMetrics{TokenAddress: "0xabc"}
	svc := newTestService(&stubMetricsReader{metrics: metrics}, signals, trades, &stubEngine{result: safeResult(85)})

	if _, err := svc.AnalyzeToken(context.Background(), testToken()); err != nil {
		t.Fatalf("missing price must not be an error: %v", err)
	}
	if len(signals.saved) != 1 {
		t.Fatal("signal must still be emitted without a price")
	}
	if len(trades.opened) != 0 {
		t.Fatal("trade must not open without an entry price")
	}
}

func TestAnalyzeTokenMetricsErrorPropagates(t *testing.T) {
	svc := newTestService(&stubMetricsReader{err: errors.New("db down")}, &stubSignalWriter{}, &stubTradeOpener{}, &stubEngine{})

	if _, err := svc.AnalyzeToken(context.Background(), testToken()); err == nil {
		t.Fatal("expected error")
	}
}

func TestBuildBuySignalIncludesFlags(t *testing.T) {
	result := safeResult(85)
	result.Flags = []string{"VERY_NEW: less than 1 hour old"}

	sig := buildBuySignal(testToken(), result)
	if !strings.Contains(sig.Reason, "VERY_NEW") {
		t.Fatalf("expected flags in reason, got %q", sig.Reason)
	}
	if sig.TargetMultiplier == nil || !sig.TargetMultiplier.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected target: %v", sig.TargetMultiplier)
	}
}

func TestBuildBuySignalFallbackTarget(t *testing.T) {
	result := safeResult(85)
	result.PotentialMultiplier = nil

	sig := buildBuySignal(testToken(), result)
	if sig.TargetMultiplier == nil || !sig.TargetMultiplier.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("expected 2x fallback target, got %v", sig.TargetMultiplier)
	}
}
