package provider

import (
	"context"

	"moonwatch/internal/domain"
)

// PumpFunClient is a placeholder discovery source for pump.fun launches.
// The public API has no stable listing endpoint; until one exists the
// source reports nothing and the scan loop treats it like any other
// empty cycle.
type PumpFunClient struct{}

func NewPumpFunClient() *PumpFunClient {
	return &PumpFunClient{}
}

func (c *PumpFunClient) FetchNewTokens(ctx context.Context) ([]domain.TokenListing, error) {
	return nil, nil
}
