package bot

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"moonwatch/internal/domain"

	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v3"
)

type StatsReader interface {
	GetTradingStats(ctx context.Context) (domain.TradingStats, error)
}

type TokenReader interface {
	GetRecentTokens(ctx context.Context, limit int) ([]domain.Token, error)
}

type TradeReader interface {
	GetActiveTrades(ctx context.Context) ([]domain.SimulatedTrade, error)
}

var startingBalance = decimal.NewFromInt(1000)

// StartTelegramBot wires the command handlers and starts long polling.
// Returns the bot so the caller can hand its sender to the dispatcher;
// nil when no token is configured.
func StartTelegramBot(token string, stats StatsReader, tokens TokenReader, trades TradeReader) *tele.Bot {
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}

	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/start", func(c tele.Context) error {
		return c.Send("Moonwatch scans new token listings, scores them and paper-trades the best ones.\nTry /help for commands.")
	})

	b.Handle("/help", func(c tele.Context) error {
		return c.Send(strings.Join([]string{
			"/status - scanner status",
			"/stats - simulated trading stats",
			"/recent - recently discovered tokens",
			"/trades - open simulated trades",
			"/balance - simulated balance",
			"/ping - liveness check",
		}, "\n"))
	})

	b.Handle("/status", func(c tele.Context) error {
		if trades == nil {
			return c.Send("Scanner running. Trade store unavailable.")
		}
		active, err := trades.GetActiveTrades(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error loading trades: %v", err))
		}
		return c.Send(fmt.Sprintf("Scanner running.\nOpen trades: %d", len(active)))
	})

	b.Handle("/stats", func(c tele.Context) error {
		if stats == nil {
			return c.Send("Stats unavailable")
		}
		s, err := stats.GetTradingStats(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error loading stats: %v", err))
		}
		return c.Send(FormatStats(s))
	})

	b.Handle("/recent", func(c tele.Context) error {
		if tokens == nil {
			return c.Send("Token store unavailable")
		}
		recent, err := tokens.GetRecentTokens(context.Background(), 10)
		if err != nil {
			return c.Send(fmt.Sprintf("Error loading tokens: %v", err))
		}
		if len(recent) == 0 {
			return c.Send("No tokens discovered yet")
		}
		lines := make([]string, 0, len(recent)+1)
		lines = append(lines, "Recently discovered:")
		for _, t := range recent {
			lines = append(lines, fmt.Sprintf("%s (%s) on %s", t.Symbol, t.Name, t.Chain))
		}
		return c.Send(strings.Join(lines, "\n"))
	})

	b.Handle("/trades", func(c tele.Context) error {
		if trades == nil {
			return c.Send("Trade store unavailable")
		}
		active, err := trades.GetActiveTrades(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error loading trades: %v", err))
		}
		if len(active) == 0 {
			return c.Send("No open trades")
		}
		lines := make([]string, 0, len(active)+1)
		lines = append(lines, "Open simulated trades:")
		for _, t := range active {
			lines = append(lines, fmt.Sprintf("#%d %s entry %s ($%s)",
				t.ID, t.TokenAddress, FormatPrice(t.EntryPrice), t.InvestmentUSD.Round(2)))
		}
		return c.Send(strings.Join(lines, "\n"))
	})

	b.Handle("/balance", func(c tele.Context) error {
		if stats == nil {
			return c.Send("Stats unavailable")
		}
		s, err := stats.GetTradingStats(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error loading stats: %v", err))
		}
		balance := startingBalance.Add(s.TotalProfitUSD)
		return c.Send(fmt.Sprintf("Simulated balance: $%s (started at $%s)",
			balance.Round(2), startingBalance))
	})

	go b.Start()
	log.Println("Telegram bot started")
	return b
}
