// Package reconcile merges partial provider views of one token into a
// canonical snapshot with deterministic precedence rules.
package reconcile

import (
	"errors"
	"math"

	"solguard/internal/domain"
	"solguard/internal/sources"
)

// MinVenueLiquidityUSD is the liquidity floor a pair must clear to count
// as a qualifying trading venue.
const MinVenueLiquidityUSD = 1000.0

// ErrNoMarketData means no provider produced a single qualifying market
// pair. It is the only fatal reconciliation outcome; every other missing
// contribution degrades to snapshot defaults.
var ErrNoMarketData = errors.New("no market data")

// Build merges the adapter outputs into one snapshot. Precedence:
//   - name/symbol: market pair base token, then auditor metadata, then
//     on-chain metadata, then "Unknown"
//   - supply: on-chain UI amount, else auditor raw supply scaled by decimals
//   - decimals: on-chain, else auditor, else the chain default of 9
//   - links: auditor verification links first, market links fill the gaps
//
// The holder count arrives already resolved (primary source with secondary
// fallback applied); Build only records it.
func Build(mint domain.Mint, market *domain.MarketView, holders int, meta *domain.TokenMeta, auditor *domain.AuditorView) (*domain.TokenSnapshot, error) {
	pairs := qualifyingPairs(market)
	if len(pairs) == 0 {
		return nil, ErrNoMarketData
	}

	snap := &domain.TokenSnapshot{
		Mint:           mint.String(),
		PriceUSD:       market.PriceUSD,
		PriceChange24h: market.PriceChange24h,
		Volume24h:      market.Volume24h,
		LiquidityUSD:   market.LiquidityUSD,
		MarketCap:      market.MarketCap,
		Holders:        holders,
		Pairs:          pairs,
		Lock:           sources.DetectLock(pairs),
	}

	var auditorName, auditorSymbol, chainName, chainSymbol string
	if auditor != nil {
		snap.Security = auditor.Report
		snap.Verification = auditor.Verification
		snap.Community = auditor.Community
		auditorName = auditor.Report.Name
		auditorSymbol = auditor.Report.Symbol
	}
	if meta != nil {
		chainName = meta.Name
		chainSymbol = meta.Symbol
	}

	snap.Name = firstNonEmpty(market.Name, auditorName, chainName, domain.UnknownName)
	snap.Symbol = firstNonEmpty(market.Symbol, auditorSymbol, chainSymbol, domain.UnknownName)

	snap.Decimals = resolveDecimals(meta, auditor)
	snap.Supply = resolveSupply(meta, auditor, snap.Decimals)
	snap.Verification.Links = mergeLinks(snap.Verification.Links, market.Links)

	return snap, nil
}

// qualifyingPairs filters the market view down to real trading venues,
// preserving the liquidity-descending order the source established.
func qualifyingPairs(market *domain.MarketView) []domain.MarketPair {
	if market == nil {
		return nil
	}
	pairs := make([]domain.MarketPair, 0, len(market.Pairs))
	for _, pair := range market.Pairs {
		if pair.DexID == "" || pair.LiquidityUSD <= MinVenueLiquidityUSD {
			continue
		}
		pairs = append(pairs, pair)
	}
	return pairs
}

// resolveDecimals prefers the on-chain figure, then the auditor's, then
// the chain default.
func resolveDecimals(meta *domain.TokenMeta, auditor *domain.AuditorView) int {
	if meta != nil && meta.Decimals > 0 {
		return meta.Decimals
	}
	if auditor != nil && auditor.Report.Decimals > 0 {
		return auditor.Report.Decimals
	}
	return domain.DefaultDecimals
}

// resolveSupply prefers the on-chain UI amount; otherwise the auditor's
// raw supply is scaled down by the resolved decimals.
func resolveSupply(meta *domain.TokenMeta, auditor *domain.AuditorView, decimals int) float64 {
	if meta != nil && meta.UIAmount > 0 {
		return meta.UIAmount
	}
	if auditor != nil && auditor.Report.RawSupply > 0 {
		return auditor.Report.RawSupply / math.Pow(10, float64(decimals))
	}
	return 0
}

// mergeLinks fills gaps in the primary link set from the secondary one
// without overwriting existing entries.
func mergeLinks(primary, secondary map[string]string) map[string]string {
	if len(secondary) == 0 {
		return primary
	}
	merged := make(map[string]string, len(primary)+len(secondary))
	for k, v := range primary {
		merged[k] = v
	}
	for k, v := range secondary {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return merged
}

// firstNonEmpty returns the first non-empty value.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
