package domain

// MarketPair represents one trading venue listing for a token.
type MarketPair struct {
	DexID          string   // venue identifier, uppercased for display
	PairAddress    string   // pool/pair account address
	BaseName       string   // base token name as reported by the venue
	BaseSymbol     string   // base token symbol
	PriceUSD       float64  // last trade price in USD
	LiquidityUSD   float64  // pooled liquidity in USD
	LiquidityBase  float64  // pooled base token amount
	LiquidityQuote float64  // pooled quote token amount
	Volume24h      float64  // 24h trade volume in USD
	PriceChange24h float64  // 24h price change percent
	MarketCap      float64  // reported market capitalization
	FDV            float64  // fully diluted valuation
	Labels         []string // venue labels (pool variants such as DLMM)
	Locked         bool     // explicit liquidity lock flag
	LockPercent    float64  // locked share of the pool, percent
	LockDays       int      // lock duration in days, 0 when unreported
}

// MarketView is the market aggregator's contribution to a snapshot: the
// fields taken from the most liquid qualifying pair plus the full
// liquidity-ordered pair list.
type MarketView struct {
	Name           string            // base token name from the top pair
	Symbol         string            // base token symbol from the top pair
	PriceUSD       float64           // top pair price
	PriceChange24h float64           // top pair 24h change percent
	Volume24h      float64           // top pair 24h volume in USD
	LiquidityUSD   float64           // top pair liquidity in USD
	MarketCap      float64           // market cap, FDV fallback already applied
	Pairs          []MarketPair      // qualifying pairs, liquidity descending
	Links          map[string]string // website/social links from pair info
}
