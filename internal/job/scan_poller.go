package job

import (
	"context"
	"log"
	"time"

	"moonwatch/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type TokenSource interface {
	FetchNewTokens(ctx context.Context) ([]domain.TokenListing, error)
}

type TokenStore interface {
	SaveToken(ctx context.Context, token domain.Token) (int64, error)
	GetToken(ctx context.Context, address string) (*domain.Token, error)
	SaveMetrics(ctx context.Context, m domain.TokenMetrics) error
}

type TokenAnalyzer interface {
	AnalyzeToken(ctx context.Context, token domain.Token) (domain.AnalysisResult, error)
}

type HoneypotOracle interface {
	CheckToken(ctx context.Context, address, chain string) (bool, error)
}

type SeenCache interface {
	MarkSeen(ctx context.Context, address string) (bool, error)
}

// ScanPoller periodically discovers new tokens across every configured
// source, enriches them with a honeypot verdict, persists them and hands
// them to analysis.
type ScanPoller struct {
	tracer     trace.Tracer
	sources    []TokenSource
	store      TokenStore
	analyzer   TokenAnalyzer
	honeypot   HoneypotOracle
	seen       SeenCache
	interval   time.Duration
	hpFailOpen bool
}

func NewScanPoller(tracer trace.Tracer, sources []TokenSource, store TokenStore, analyzer TokenAnalyzer, honeypot HoneypotOracle, seen SeenCache, interval time.Duration, honeypotFailOpen bool) *ScanPoller {
	return &ScanPoller{
		tracer:     tracer,
		sources:    sources,
		store:      store,
		analyzer:   analyzer,
		honeypot:   honeypot,
		seen:       seen,
		interval:   interval,
		hpFailOpen: honeypotFailOpen,
	}
}

// Start runs scan cycles until ctx is cancelled. The first cycle runs
// immediately.
func (p *ScanPoller) Start(ctx context.Context) {
	log.Println("Scan poller starting...")

	p.scanOnce(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Scan poller stopped")
			return
		case <-ticker.C:
			p.scanOnce(ctx)
		}
	}
}

func (p *ScanPoller) scanOnce(ctx context.Context) {
	ctx, span := p.tracer.Start(ctx, "scan-poller.scan-once")
	defer span.End()

	var listings []domain.TokenListing
	for _, source := range p.sources {
		found, err := source.FetchNewTokens(ctx)
		if err != nil {
			log.Printf("token discovery failed: %v", err)
			continue
		}
		listings = append(listings, found...)
	}

	processed := 0
	for _, listing := range listings {
		if ctx.Err() != nil {
			return
		}
		if err := p.processListing(ctx, listing); err != nil {
			log.Printf("processing %s failed: %v", listing.Token.Address, err)
			continue
		}
		processed++
	}
	if processed > 0 {
		log.Printf("scan cycle processed %d new tokens", processed)
	}
}

func (p *ScanPoller) processListing(ctx context.Context, listing domain.TokenListing) error {
	firstSighting, err := p.seen.MarkSeen(ctx, listing.Token.Address)
	if err != nil {
		// Cache trouble degrades to database-level dedup.
		log.Printf("seen cache error for %s: %v", listing.Token.Address, err)
		firstSighting = true
	}
	if !firstSighting {
		return nil
	}
	if existing, err := p.store.GetToken(ctx, listing.Token.Address); err != nil {
		return err
	} else if existing != nil {
		return nil
	}

	metrics := listing.Metrics
	metrics.IsHoneypot = p.honeypotVerdict(ctx, listing.Token)

	if _, err := p.store.SaveToken(ctx, listing.Token); err != nil {
		return err
	}
	metrics.TokenAddress = listing.Token.Address
	if err := p.store.SaveMetrics(ctx, metrics); err != nil {
		return err
	}

	if _, err := p.analyzer.AnalyzeToken(ctx, listing.Token); err != nil {
		return err
	}
	return nil
}

// honeypotVerdict maps an oracle failure to unknown, or to a clean
// verdict when fail-open is configured.
func (p *ScanPoller) honeypotVerdict(ctx context.Context, token domain.Token) *bool {
	if p.honeypot == nil {
		return nil
	}
	isHoneypot, err := p.honeypot.CheckToken(ctx, token.Address, token.Chain)
	if err != nil {
		log.Printf("honeypot check failed for %s: %v", token.Address, err)
		if p.hpFailOpen {
			clean := false
			return &clean
		}
		return nil
	}
	return &isHoneypot
}
