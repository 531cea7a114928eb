// Package sources contains the provider adapters feeding token analysis.
// Every adapter degrades to an absent contribution on provider failure;
// none of them aborts a run.
package sources

import (
	"context"

	"solguard/internal/domain"
)

// MarketSource provides aggregated market pair data for a mint.
type MarketSource interface {
	// Pairs returns the market view for a mint. A nil view means the
	// aggregator knows no qualifying pairs.
	Pairs(ctx context.Context, mint domain.Mint) (*domain.MarketView, error)
}

// HolderSource provides a holder count for a mint.
type HolderSource interface {
	// HolderCount returns the number of holders, 0 when unknown.
	HolderCount(ctx context.Context, mint domain.Mint) (int, error)
}

// MetadataSource provides supply metadata for a mint.
type MetadataSource interface {
	// Metadata returns supply and on-chain naming data, nil when the
	// chain reports nothing for the mint.
	Metadata(ctx context.Context, mint domain.Mint) (*domain.TokenMeta, error)
}

// SecuritySource provides the security auditor's view of a mint.
type SecuritySource interface {
	// Audit returns the auditor view, nil when the auditor has no report.
	Audit(ctx context.Context, mint domain.Mint) (*domain.AuditorView, error)
}
