package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"moonwatch/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

func testTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

type stubTokenReader struct {
	tokens  []domain.Token
	metrics *domain.TokenMetrics
	err     error
}

func (s *stubTokenReader) GetRecentTokens(ctx context.Context, limit int) ([]domain.Token, error) {
	return s.tokens, s.err
}

func (s *stubTokenReader) GetLatestMetrics(ctx context.Context, address string) (*domain.TokenMetrics, error) {
	return s.metrics, s.err
}

type stubSignalReader struct {
	signals []domain.TradingSignal
	unsent  []domain.TradingSignal
	err     error
}

func (s *stubSignalReader) ListRecentSignals(ctx context.Context, limit int) ([]domain.TradingSignal, error) {
	return s.signals, s.err
}

func (s *stubSignalReader) GetUnsentSignals(ctx context.Context, limit int) ([]domain.TradingSignal, error) {
	return s.unsent, s.err
}

type stubTradeReader struct {
	trades []domain.SimulatedTrade
	stats  domain.TradingStats
	err    error
}

func (s *stubTradeReader) GetActiveTrades(ctx context.Context) ([]domain.SimulatedTrade, error) {
	return s.trades, s.err
}

func (s *stubTradeReader) GetTradingStats(ctx context.Context) (domain.TradingStats, error) {
	return s.stats, s.err
}

func newTestRouter(tokens TokenReader, signals SignalReader, trades TradeReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	New(testTracer(), tokens, signals, trades).RegisterRoutes(r)
	return r
}

func doRequest(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&stubTokenReader{}, &stubSignalReader{}, &stubTradeReader{})

	w := doRequest(r, "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGetRecentTokens(t *testing.T) {
	tokens := &stubTokenReader{tokens: []domain.Token{
		{ID: 1, Address: "0xa", Symbol: "AAA", FirstSeen: time.Unix(0, 0)},
	}}
	r := newTestRouter(tokens, &stubSignalReader{}, &stubTradeReader{})

	w := doRequest(r, "/api/tokens/recent")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Count  int            `json:"count"`
		Tokens []domain.Token `json:"tokens"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body.Count != 1 || body.Tokens[0].Symbol != "AAA" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestGetTokenMetricsNotFound(t *testing.T) {
	r := newTestRouter(&stubTokenReader{}, &stubSignalReader{}, &stubTradeReader{})

	w := doRequest(r, "/api/tokens/0xmissing/metrics")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetTokenMetricsFound(t *testing.T) {
	liq := decimal.NewFromInt(50000)
	tokens := &stubTokenReader{metrics: &domain.TokenMetrics{
		TokenAddress: "0xa",
		LiquidityUSD: &liq,
	}}
	r := newTestRouter(tokens, &stubSignalReader{}, &stubTradeReader{})

	w := doRequest(r, "/api/tokens/0xa/metrics")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGetSignalsError(t *testing.T) {
	signals := &stubSignalReader{err: errors.New("db down")}
	r := newTestRouter(&stubTokenReader{}, signals, &stubTradeReader{})

	w := doRequest(r, "/api/signals")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestGetUnsentSignals(t *testing.T) {
	signals := &stubSignalReader{unsent: []domain.TradingSignal{
		{ID: 7, TokenAddress: "0xa", SignalType: domain.SignalBuy},
	}}
	r := newTestRouter(&stubTokenReader{}, signals, &stubTradeReader{})

	w := doRequest(r, "/api/signals/unsent")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Count   int                    `json:"count"`
		Signals []domain.TradingSignal `json:"signals"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body.Count != 1 || body.Signals[0].ID != 7 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestGetActiveTrades(t *testing.T) {
	trades := &stubTradeReader{trades: []domain.SimulatedTrade{
		{ID: 1, TokenAddress: "0xa", EntryPrice: decimal.NewFromInt(1), IsActive: true},
	}}
	r := newTestRouter(&stubTokenReader{}, &stubSignalReader{}, trades)

	w := doRequest(r, "/api/trades/active")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGetStats(t *testing.T) {
	trades := &stubTradeReader{stats: domain.TradingStats{TotalTrades: 3}}
	r := newTestRouter(&stubTokenReader{}, &stubSignalReader{}, trades)

	w := doRequest(r, "/api/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var stats domain.TradingStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if stats.TotalTrades != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestServiceUnavailableWhenStoreMissing(t *testing.T) {
	r := newTestRouter(nil, nil, nil)

	for _, path := range []string{"/api/tokens/recent", "/api/signals", "/api/signals/unsent", "/api/trades/active", "/api/stats"} {
		w := doRequest(r, path)
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503, got %d", path, w.Code)
		}
	}
}

func TestParseLimit(t *testing.T) {
	if parseLimit("", 20) != 20 || parseLimit("junk", 20) != 20 || parseLimit("-5", 20) != 20 {
		t.Fatal("bad input must fall back")
	}
	if parseLimit("10", 20) != 10 {
		t.Fatal("valid limit must pass through")
	}
	if parseLimit("9999", 20) != 200 {
		t.Fatal("limit must be capped at 200")
	}
}
