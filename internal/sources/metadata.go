package sources

import (
	"context"
	"errors"
	"fmt"

	"solguard/internal/domain"
	"solguard/internal/solana"
)

// RPCMetadata fetches supply data and on-chain naming for a mint.
type RPCMetadata struct {
	client *solana.Client
}

var _ MetadataSource = (*RPCMetadata)(nil)

// NewRPCMetadata creates the chain-backed metadata source.
func NewRPCMetadata(client *solana.Client) *RPCMetadata {
	return &RPCMetadata{client: client}
}

// Metadata returns supply figures from getTokenSupply plus any name and
// symbol found in the mint's Metaplex metadata account. The metadata
// account is optional; its absence never fails the fetch.
func (s *RPCMetadata) Metadata(ctx context.Context, mint domain.Mint) (*domain.TokenMeta, error) {
	supply, err := s.client.GetTokenSupply(ctx, mint.String())
	if err != nil {
		var rpcErr *solana.RPCError
		if errors.As(err, &rpcErr) {
			// Not a mint, or the node refuses it. Nothing to contribute.
			return nil, nil
		}
		return nil, fmt.Errorf("token supply for %s: %w", mint, err)
	}

	meta := &domain.TokenMeta{
		RawAmount: supply.Amount,
		Decimals:  supply.Decimals,
		UIAmount:  supply.UIAmount,
	}

	if pda := solana.DeriveMetadataAddress(mint.String()); pda != "" {
		if acc, err := s.client.GetAccountInfo(ctx, pda); err == nil && acc != nil {
			if parsed := solana.DecodeMetadata(acc.Data); parsed != nil {
				meta.Name = parsed.Name
				meta.Symbol = parsed.Symbol
			}
		}
	}

	return meta, nil
}
