package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"moonwatch/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type TokenReader interface {
	GetRecentTokens(ctx context.Context, limit int) ([]domain.Token, error)
	GetLatestMetrics(ctx context.Context, address string) (*domain.TokenMetrics, error)
}

type SignalReader interface {
	ListRecentSignals(ctx context.Context, limit int) ([]domain.TradingSignal, error)
	GetUnsentSignals(ctx context.Context, limit int) ([]domain.TradingSignal, error)
}

type TradeReader interface {
	GetActiveTrades(ctx context.Context) ([]domain.SimulatedTrade, error)
	GetTradingStats(ctx context.Context) (domain.TradingStats, error)
}

type Handler struct {
	tracer  trace.Tracer
	tokens  TokenReader
	signals SignalReader
	trades  TradeReader
}

func New(tracer trace.Tracer, tokens TokenReader, signals SignalReader, trades TradeReader) *Handler {
	return &Handler{
		tracer:  tracer,
		tokens:  tokens,
		signals: signals,
		trades:  trades,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/api/tokens/recent", h.GetRecentTokens)
	r.GET("/api/tokens/:address/metrics", h.GetTokenMetrics)
	r.GET("/api/signals", h.GetSignals)
	r.GET("/api/signals/unsent", h.GetUnsentSignals)
	r.GET("/api/trades/active", h.GetActiveTrades)
	r.GET("/api/stats", h.GetStats)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) GetRecentTokens(c *gin.Context) {
	if h.tokens == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "token store unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-recent-tokens")
	defer span.End()

	limit := parseLimit(c.Query("limit"), 20)
	tokens, err := h.tokens.GetRecentTokens(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens, "count": len(tokens)})
}

func (h *Handler) GetTokenMetrics(c *gin.Context) {
	if h.tokens == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "token store unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-token-metrics")
	defer span.End()

	address := strings.TrimSpace(c.Param("address"))
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address required"})
		return
	}

	metrics, err := h.tokens.GetLatestMetrics(ctx, address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if metrics == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no metrics for " + address})
		return
	}
	c.JSON(http.StatusOK, metrics)
}

func (h *Handler) GetSignals(c *gin.Context) {
	if h.signals == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "signal store unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-signals")
	defer span.End()

	limit := parseLimit(c.Query("limit"), 50)
	signals, err := h.signals.ListRecentSignals(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"signals": signals, "count": len(signals)})
}

func (h *Handler) GetUnsentSignals(c *gin.Context) {
	if h.signals == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "signal store unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-unsent-signals")
	defer span.End()

	limit := parseLimit(c.Query("limit"), 50)
	signals, err := h.signals.GetUnsentSignals(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"signals": signals, "count": len(signals)})
}

func (h *Handler) GetActiveTrades(c *gin.Context) {
	if h.trades == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "trade store unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-active-trades")
	defer span.End()

	trades, err := h.trades.GetActiveTrades(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades, "count": len(trades)})
}

func (h *Handler) GetStats(c *gin.Context) {
	if h.trades == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "trade store unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-stats")
	defer span.End()

	stats, err := h.trades.GetTradingStats(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func parseLimit(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	if n > 200 {
		return 200
	}
	return n
}
