package sources

import (
	"context"
	"fmt"
	"strconv"

	"solguard/internal/domain"
	"solguard/internal/solana"
)

// RPCHolders counts token holder accounts directly on chain. It is the
// primary holder source.
type RPCHolders struct {
	client *solana.Client
}

var _ HolderSource = (*RPCHolders)(nil)

// NewRPCHolders creates the chain-backed holder counter.
func NewRPCHolders(client *solana.Client) *RPCHolders {
	return &RPCHolders{client: client}
}

// HolderCount returns the number of token accounts holding a nonzero
// balance of the mint.
func (s *RPCHolders) HolderCount(ctx context.Context, mint domain.Mint) (int, error) {
	accounts, err := s.client.GetTokenAccountsByMint(ctx, mint.String())
	if err != nil {
		return 0, fmt.Errorf("token accounts for %s: %w", mint, err)
	}

	count := 0
	for _, acc := range accounts {
		amount, err := strconv.ParseFloat(acc.Amount, 64)
		if err != nil {
			continue
		}
		if amount > 0 {
			count++
		}
	}
	return count, nil
}
