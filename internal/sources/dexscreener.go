package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"solguard/internal/domain"
	"solguard/internal/fetch"
)

// DefaultDexScreenerURL is the public market aggregator endpoint.
const DefaultDexScreenerURL = "https://api.dexscreener.com"

// solanaChainID filters aggregator pairs to the Solana network.
const solanaChainID = "solana"

// managedPoolLabels mark protocol-managed pool variants that count as
// locked liquidity.
var managedPoolLabels = map[string]bool{
	"DLMM": true,
	"DYN":  true,
	"CLMM": true,
}

// DexScreener fetches market pairs from the DexScreener aggregator.
type DexScreener struct {
	baseURL string
	fetcher *fetch.Client
}

var _ MarketSource = (*DexScreener)(nil)

// DexScreenerOption configures DexScreener.
type DexScreenerOption func(*DexScreener)

// WithDexScreenerURL overrides the aggregator base URL.
func WithDexScreenerURL(u string) DexScreenerOption {
	return func(d *DexScreener) {
		d.baseURL = strings.TrimRight(u, "/")
	}
}

// WithDexScreenerFetcher sets the underlying fetch client.
func WithDexScreenerFetcher(f *fetch.Client) DexScreenerOption {
	return func(d *DexScreener) {
		d.fetcher = f
	}
}

// NewDexScreener creates the market pair adapter.
func NewDexScreener(opts ...DexScreenerOption) *DexScreener {
	d := &DexScreener{baseURL: DefaultDexScreenerURL}
	for _, opt := range opts {
		opt(d)
	}
	if d.fetcher == nil {
		d.fetcher = fetch.NewClient("dexscreener")
	}
	return d
}

// Pairs returns the Solana market view for a mint. The token lookup route
// is tried first, then the search route; a nil view means neither knows
// any qualifying pair.
func (d *DexScreener) Pairs(ctx context.Context, mint domain.Mint) (*domain.MarketView, error) {
	pairs, links, err := d.fetchPairs(ctx, fmt.Sprintf("%s/latest/dex/tokens/%s", d.baseURL, mint))
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		pairs, links, err = d.fetchPairs(ctx, fmt.Sprintf("%s/latest/dex/search?q=%s", d.baseURL, url.QueryEscape(mint.String())))
		if err != nil {
			return nil, err
		}
	}
	if len(pairs) == 0 {
		return nil, nil
	}

	top := pairs[0]
	marketCap := top.MarketCap
	if marketCap == 0 {
		marketCap = top.FDV
	}

	return &domain.MarketView{
		Name:           top.BaseName,
		Symbol:         top.BaseSymbol,
		PriceUSD:       top.PriceUSD,
		PriceChange24h: top.PriceChange24h,
		Volume24h:      top.Volume24h,
		LiquidityUSD:   top.LiquidityUSD,
		MarketCap:      marketCap,
		Pairs:          pairs,
		Links:          links,
	}, nil
}

// DetectLock scans pairs in liquidity-descending order and returns the
// first lock signal found: protocol-managed pool labels win, then an
// explicit lock flag or nonzero lock percentage.
func DetectLock(pairs []domain.MarketPair) domain.LiquidityLock {
	for _, pair := range pairs {
		for _, label := range pair.Labels {
			if managedPoolLabels[label] {
				return domain.LiquidityLock{Type: domain.LockManaged}
			}
		}
		if pair.Locked || pair.LockPercent > 0 {
			lock := domain.LiquidityLock{
				Type:    domain.LockTraditional,
				Percent: pair.LockPercent,
				Days:    pair.LockDays,
			}
			if lock.Days == 0 {
				lock.Days = domain.DefaultLockDays
			}
			return lock
		}
	}
	return domain.LiquidityLock{Type: domain.LockNone}
}

// dsResponse is the aggregator response envelope.
type dsResponse struct {
	Pairs []dsPair `json:"pairs"`
}

// dsPair mirrors one aggregator pair. Numeric fields that the API serves
// as strings decode through flexFloat.
type dsPair struct {
	ChainID     string   `json:"chainId"`
	DexID       string   `json:"dexId"`
	PairAddress string   `json:"pairAddress"`
	Labels      []string `json:"labels"`
	BaseToken   struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"baseToken"`
	PriceUSD    flexFloat `json:"priceUsd"`
	Volume      struct {
		H24 flexFloat `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		H24 flexFloat `json:"h24"`
	} `json:"priceChange"`
	Liquidity struct {
		USD    flexFloat `json:"usd"`
		Base   flexFloat `json:"base"`
		Quote  flexFloat `json:"quote"`
		Locked bool      `json:"locked"`
	} `json:"liquidity"`
	FDV         flexFloat `json:"fdv"`
	MarketCap   flexFloat `json:"marketCap"`
	LockPercent flexFloat `json:"lockPercent"`
	LockDays    flexFloat `json:"lockDays"`
	Info        *struct {
		Websites []struct {
			Label string `json:"label"`
			URL   string `json:"url"`
		} `json:"websites"`
		Socials []struct {
			Type string `json:"type"`
			URL  string `json:"url"`
		} `json:"socials"`
	} `json:"info"`
}

// fetchPairs fetches one aggregator route and keeps Solana pairs carrying
// both a positive price and positive liquidity, ordered by liquidity
// descending. Links come from the most liquid pair's info block.
func (d *DexScreener) fetchPairs(ctx context.Context, fetchURL string) ([]domain.MarketPair, map[string]string, error) {
	res := d.fetcher.Get(ctx, fetchURL, nil)
	if !res.OK() {
		return nil, nil, nil
	}

	var resp dsResponse
	if err := json.Unmarshal(res.Payload, &resp); err != nil {
		return nil, nil, fmt.Errorf("decode pairs: %w", err)
	}

	kept := make([]dsPair, 0, len(resp.Pairs))
	for _, p := range resp.Pairs {
		if p.ChainID != solanaChainID {
			continue
		}
		if p.PriceUSD <= 0 || p.Liquidity.USD <= 0 {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return nil, nil, nil
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Liquidity.USD > kept[j].Liquidity.USD
	})

	pairs := make([]domain.MarketPair, 0, len(kept))
	for _, p := range kept {
		pairs = append(pairs, domain.MarketPair{
			DexID:          strings.ToUpper(p.DexID),
			PairAddress:    p.PairAddress,
			BaseName:       p.BaseToken.Name,
			BaseSymbol:     p.BaseToken.Symbol,
			PriceUSD:       float64(p.PriceUSD),
			LiquidityUSD:   float64(p.Liquidity.USD),
			LiquidityBase:  float64(p.Liquidity.Base),
			LiquidityQuote: float64(p.Liquidity.Quote),
			Volume24h:      float64(p.Volume.H24),
			PriceChange24h: float64(p.PriceChange.H24),
			MarketCap:      float64(p.MarketCap),
			FDV:            float64(p.FDV),
			Labels:         p.Labels,
			Locked:         p.Liquidity.Locked,
			LockPercent:    float64(p.LockPercent),
			LockDays:       int(p.LockDays),
		})
	}
	return pairs, pairLinks(kept[0]), nil
}

// pairLinks extracts website and social links from pair info.
func pairLinks(p dsPair) map[string]string {
	if p.Info == nil {
		return nil
	}
	links := make(map[string]string)
	for _, w := range p.Info.Websites {
		key := strings.ToLower(w.Label)
		if key == "" {
			key = "website"
		}
		if _, ok := links[key]; !ok && w.URL != "" {
			links[key] = w.URL
		}
	}
	for _, s := range p.Info.Socials {
		key := strings.ToLower(s.Type)
		if key == "" {
			continue
		}
		if _, ok := links[key]; !ok && s.URL != "" {
			links[key] = s.URL
		}
	}
	if len(links) == 0 {
		return nil
	}
	return links
}

