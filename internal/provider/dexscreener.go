package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"moonwatch/internal/domain"

	"github.com/cenkalti/backoff/v5"
	"github.com/shopspring/decimal"
)

// Chains the discovery pipeline accepts. Pairs on anything else are
// dropped before analysis.
var supportedChains = map[string]bool{
	"solana":     true,
	"ethereum":   true,
	"bsc":        true,
	"polygon":    true,
	"arbitrum":   true,
	"avalanche":  true,
	"pulsechain": true,
}

var defaultEndpoints = []string{
	"https://api.dexscreener.com/latest/dex/search?q=SOL",
	"https://api.dexscreener.com/latest/dex/search?q=ETH",
	"https://api.dexscreener.com/latest/dex/search?q=BNB",
}

// DexScreenerClient discovers newly listed token pairs from the public
// DexScreener API. Endpoints are tried in order; each is retried with
// exponential backoff before moving on.
type DexScreenerClient struct {
	httpClient *http.Client
	endpoints  []string
	maxRetry   time.Duration
	now        func() time.Time
}

func NewDexScreenerClient(httpClient *http.Client, endpoints []string, now func() time.Time) *DexScreenerClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if len(endpoints) == 0 {
		endpoints = defaultEndpoints
	}
	if now == nil {
		now = time.Now
	}
	return &DexScreenerClient{
		httpClient: httpClient,
		endpoints:  endpoints,
		maxRetry:   30 * time.Second,
		now:        now,
	}
}

type dexPair struct {
	ChainID   string `json:"chainId"`
	PairAddr  string `json:"pairAddress"`
	BaseToken struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	PriceUSD  string `json:"priceUsd"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	MarketCap     float64 `json:"marketCap"`
	PairCreatedAt int64   `json:"pairCreatedAt"`
}

type dexResponse struct {
	Pairs []dexPair `json:"pairs"`
}

// FetchNewTokens polls every endpoint and returns the quality-filtered
// union of discovered listings. A failing endpoint is logged and skipped;
// an error is returned only when every endpoint fails.
func (c *DexScreenerClient) FetchNewTokens(ctx context.Context) ([]domain.TokenListing, error) {
	var listings []domain.TokenListing
	failures := 0

	for _, endpoint := range c.endpoints {
		pairs, err := c.fetchEndpoint(ctx, endpoint)
		if err != nil {
			log.Printf("dexscreener: endpoint %s failed: %v", endpoint, err)
			failures++
			continue
		}
		for _, pair := range pairs {
			if !c.passesQualityFilter(pair) {
				continue
			}
			listings = append(listings, c.toListing(pair))
		}
	}

	if failures == len(c.endpoints) {
		return nil, fmt.Errorf("all %d dexscreener endpoints failed", failures)
	}
	return listings, nil
}

func (c *DexScreenerClient) fetchEndpoint(ctx context.Context, endpoint string) ([]dexPair, error) {
	operation := func() ([]dexPair, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		var parsed dexResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return nil, err
		}
		return parsed.Pairs, nil
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(c.maxRetry),
	)
}

// passesQualityFilter drops spam pairs: unsupported chains, absurd
// symbols, pump-and-dump price action and dust liquidity.
func (c *DexScreenerClient) passesQualityFilter(pair dexPair) bool {
	if !supportedChains[pair.ChainID] {
		return false
	}
	if pair.BaseToken.Symbol == "" || !domain.IsPlausibleAddress(pair.ChainID, pair.BaseToken.Address) {
		return false
	}
	if len(pair.BaseToken.Symbol) > 20 || len(pair.BaseToken.Name) > 50 {
		return false
	}
	if pair.PriceChange.H24 > 1000 || pair.PriceChange.H24 < -1000 {
		return false
	}
	if pair.Liquidity.USD < 100 {
		return false
	}
	if pair.Volume.H24 < 10 {
		return false
	}
	return true
}

func (c *DexScreenerClient) toListing(pair dexPair) domain.TokenListing {
	now := c.now()

	firstSeen := now
	if pair.PairCreatedAt > 0 {
		firstSeen = time.UnixMilli(pair.PairCreatedAt).UTC()
	}

	metrics := domain.TokenMetrics{
		TokenAddress: pair.BaseToken.Address,
		Timestamp:    now,
	}
	if price, err := decimal.NewFromString(pair.PriceUSD); err == nil && price.IsPositive() {
		metrics.PriceUSD = &price
	}
	if pair.Liquidity.USD > 0 {
		liq := decimal.NewFromFloat(pair.Liquidity.USD)
		metrics.LiquidityUSD = &liq
	}
	if pair.Volume.H24 > 0 {
		vol := decimal.NewFromFloat(pair.Volume.H24)
		metrics.Volume24hUSD = &vol
	}
	if pair.MarketCap > 0 {
		mcap := decimal.NewFromFloat(pair.MarketCap)
		metrics.MarketCapUSD = &mcap
	}

	return domain.TokenListing{
		Token: domain.Token{
			Address:   pair.BaseToken.Address,
			Symbol:    pair.BaseToken.Symbol,
			Name:      pair.BaseToken.Name,
			Chain:     pair.ChainID,
			Source:    "dex_screener",
			FirstSeen: firstSeen,
			IsActive:  true,
		},
		Metrics: metrics,
	}
}
