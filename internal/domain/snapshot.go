package domain

// UnknownName is the placeholder used when no provider reports a token
// name or symbol.
const UnknownName = "Unknown"

// DefaultDecimals is assumed when no provider reports mint decimals.
const DefaultDecimals = 9

// TokenSnapshot is the reconciled cross-provider view of one token.
// Fields left at their zero value mean the owning provider contributed
// nothing; reconciliation fills fields once and never overwrites them.
type TokenSnapshot struct {
	Mint           string         // base58 mint address
	Name           string         // token name, UnknownName when unreported
	Symbol         string         // token symbol, UnknownName when unreported
	PriceUSD       float64        // price from the most liquid pair
	PriceChange24h float64        // 24h price change percent
	Volume24h      float64        // 24h volume in USD
	LiquidityUSD   float64        // liquidity of the most liquid pair in USD
	MarketCap      float64        // market cap, FDV fallback applied
	Holders        int            // holder count, 0 when unknown
	Supply         float64        // total supply in UI units
	Decimals       int            // mint decimals
	Pairs          []MarketPair   // qualifying venues, liquidity descending
	Lock           LiquidityLock  // liquidity lock status
	Security       SecurityReport // auditor contribution, zero when absent
	Verification   Verification   // verification registry state
	Community      Community      // community vote tallies
}
