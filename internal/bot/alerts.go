package bot

import (
	"context"
	"log"
	"time"

	"moonwatch/internal/domain"

	tele "gopkg.in/telebot.v3"
)

type messageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

type SignalQueue interface {
	GetUnsentSignals(ctx context.Context, limit int) ([]domain.TradingSignal, error)
	MarkSignalSent(ctx context.Context, id int64) (bool, error)
}

type TokenLookup interface {
	GetToken(ctx context.Context, address string) (*domain.Token, error)
}

// SignalDispatcher drains the unsent-signal queue into the configured
// Telegram chat. A signal is marked sent only after delivery succeeds, so
// a crashed process redelivers rather than drops.
type SignalDispatcher struct {
	sender   messageSender
	signals  SignalQueue
	tokens   TokenLookup
	chatID   int64
	interval time.Duration
}

func NewSignalDispatcher(sender messageSender, signals SignalQueue, tokens TokenLookup, chatID int64, interval time.Duration) *SignalDispatcher {
	return &SignalDispatcher{
		sender:   sender,
		signals:  signals,
		tokens:   tokens,
		chatID:   chatID,
		interval: interval,
	}
}

// Start drains the queue until ctx is cancelled.
func (d *SignalDispatcher) Start(ctx context.Context) {
	if d.sender == nil || d.chatID == 0 {
		log.Println("Signal dispatcher disabled: no Telegram destination")
		<-ctx.Done()
		return
	}

	log.Println("Signal dispatcher starting...")

	d.dispatchOnce(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Signal dispatcher stopped")
			return
		case <-ticker.C:
			d.dispatchOnce(ctx)
		}
	}
}

func (d *SignalDispatcher) dispatchOnce(ctx context.Context) {
	signals, err := d.signals.GetUnsentSignals(ctx, 20)
	if err != nil {
		log.Printf("loading unsent signals failed: %v", err)
		return
	}

	for _, signal := range signals {
		if ctx.Err() != nil {
			return
		}

		var token *domain.Token
		if d.tokens != nil {
			if t, err := d.tokens.GetToken(ctx, signal.TokenAddress); err == nil {
				token = t
			}
		}

		msg := FormatSignalMessage(signal, token)
		if _, err := d.sender.Send(&tele.Chat{ID: d.chatID}, msg); err != nil {
			log.Printf("sending signal %d failed: %v", signal.ID, err)
			continue
		}
		if _, err := d.signals.MarkSignalSent(ctx, signal.ID); err != nil {
			log.Printf("marking signal %d sent failed: %v", signal.ID, err)
		}
	}
}
