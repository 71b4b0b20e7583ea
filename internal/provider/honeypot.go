package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// honeypot.is chain identifiers.
var honeypotChainIDs = map[string]int{
	"ethereum": 1,
	"bsc":      56,
	"polygon":  137,
	"solana":   101,
}

// HoneypotClient asks the honeypot.is oracle whether a token can be sold
// after buying. Errors are returned as-is; the caller decides whether an
// unreachable oracle means unknown or safe.
type HoneypotClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewHoneypotClient(httpClient *http.Client, baseURL string) *HoneypotClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if baseURL == "" {
		baseURL = "https://api.honeypot.is/v2/IsHoneypot"
	}
	return &HoneypotClient{httpClient: httpClient, baseURL: baseURL}
}

type honeypotResponse struct {
	HoneypotResult struct {
		IsHoneypot bool `json:"isHoneypot"`
	} `json:"honeypotResult"`
}

// CheckToken returns the oracle's verdict for the token.
func (c *HoneypotClient) CheckToken(ctx context.Context, address, chain string) (bool, error) {
	chainID, ok := honeypotChainIDs[chain]
	if !ok {
		return false, fmt.Errorf("chain %q not supported by honeypot oracle", chain)
	}

	endpoint := fmt.Sprintf("%s?address=%s&chainID=%d", c.baseURL, url.QueryEscape(address), chainID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("honeypot check for %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return false, fmt.Errorf("honeypot check for %s: unexpected status %d", address, resp.StatusCode)
	}

	var parsed honeypotResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return false, fmt.Errorf("honeypot check for %s: %w", address, err)
	}
	return parsed.HoneypotResult.IsHoneypot, nil
}
