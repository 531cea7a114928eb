package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"solguard/internal/domain"
)

func testMint(t *testing.T) domain.Mint {
	t.Helper()
	mint, err := domain.ParseMint("So11111111111111111111111111111111111111112")
	if err != nil {
		t.Fatalf("ParseMint: %v", err)
	}
	return mint
}

func TestDexScreener_Pairs(t *testing.T) {
	payload := `{"pairs":[
		{"chainId":"solana","dexId":"orca","pairAddress":"pair2","baseToken":{"name":"Test Token","symbol":"TEST"},
		 "priceUsd":"0.5","volume":{"h24":1000},"priceChange":{"h24":-2.5},
		 "liquidity":{"usd":20000,"base":10,"quote":20},"fdv":900000,"marketCap":800000},
		{"chainId":"ethereum","dexId":"uniswap","pairAddress":"eth1","baseToken":{"name":"Test Token","symbol":"TEST"},
		 "priceUsd":"0.5","liquidity":{"usd":99999}},
		{"chainId":"solana","dexId":"raydium","pairAddress":"pair1","baseToken":{"name":"Test Token","symbol":"TEST"},
		 "priceUsd":"0.51","volume":{"h24":5000},"priceChange":{"h24":3.1},
		 "liquidity":{"usd":50000,"base":30,"quote":40},"fdv":1000000,"marketCap":950000,
		 "info":{"websites":[{"label":"Website","url":"https://test.example"}],
		         "socials":[{"type":"twitter","url":"https://x.com/test"}]}},
		{"chainId":"solana","dexId":"phantom","pairAddress":"dead","baseToken":{"name":"Test Token","symbol":"TEST"},
		 "priceUsd":"0","liquidity":{"usd":123456}}
	]}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/latest/dex/tokens/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(payload))
	}))
	defer server.Close()

	ds := NewDexScreener(WithDexScreenerURL(server.URL))
	view, err := ds.Pairs(context.Background(), testMint(t))
	if err != nil {
		t.Fatalf("Pairs: %v", err)
	}
	if view == nil {
		t.Fatal("expected a market view")
	}

	// Ethereum and zero-price pairs filtered, remaining sorted by liquidity.
	if len(view.Pairs) != 2 {
		t.Fatalf("expected 2 qualifying pairs, got %d", len(view.Pairs))
	}
	if view.Pairs[0].PairAddress != "pair1" || view.Pairs[1].PairAddress != "pair2" {
		t.Errorf("pairs not sorted by liquidity: %s, %s", view.Pairs[0].PairAddress, view.Pairs[1].PairAddress)
	}
	if view.Pairs[0].DexID != "RAYDIUM" {
		t.Errorf("expected uppercased dex id, got %s", view.Pairs[0].DexID)
	}

	// View fields come from the most liquid pair.
	if view.Name != "Test Token" || view.Symbol != "TEST" {
		t.Errorf("unexpected name/symbol: %s/%s", view.Name, view.Symbol)
	}
	if view.PriceUSD != 0.51 {
		t.Errorf("expected price 0.51, got %f", view.PriceUSD)
	}
	if view.LiquidityUSD != 50000 {
		t.Errorf("expected liquidity 50000, got %f", view.LiquidityUSD)
	}
	if view.MarketCap != 950000 {
		t.Errorf("expected market cap 950000, got %f", view.MarketCap)
	}
	if view.Links["website"] != "https://test.example" || view.Links["twitter"] != "https://x.com/test" {
		t.Errorf("unexpected links: %v", view.Links)
	}
}

func TestDexScreener_MarketCapFallsBackToFDV(t *testing.T) {
	payload := `{"pairs":[
		{"chainId":"solana","dexId":"raydium","pairAddress":"p1","baseToken":{"name":"T","symbol":"T"},
		 "priceUsd":"1.0","liquidity":{"usd":5000},"fdv":777777,"marketCap":0}
	]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer server.Close()

	ds := NewDexScreener(WithDexScreenerURL(server.URL))
	view, err := ds.Pairs(context.Background(), testMint(t))
	if err != nil {
		t.Fatalf("Pairs: %v", err)
	}
	if view.MarketCap != 777777 {
		t.Errorf("expected FDV fallback 777777, got %f", view.MarketCap)
	}
}

func TestDexScreener_SearchFallback(t *testing.T) {
	var searchHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/latest/dex/tokens/") {
			w.Write([]byte(`{"pairs":[]}`))
			return
		}
		if r.URL.Path == "/latest/dex/search" {
			searchHits.Add(1)
			if q := r.URL.Query().Get("q"); q == "" {
				t.Error("expected q parameter on search route")
			}
			w.Write([]byte(`{"pairs":[
				{"chainId":"solana","dexId":"orca","pairAddress":"p1","baseToken":{"name":"T","symbol":"T"},
				 "priceUsd":"2.0","liquidity":{"usd":3000}}
			]}`))
			return
		}
		t.Errorf("unexpected path %s", r.URL.Path)
	}))
	defer server.Close()

	ds := NewDexScreener(WithDexScreenerURL(server.URL))
	view, err := ds.Pairs(context.Background(), testMint(t))
	if err != nil {
		t.Fatalf("Pairs: %v", err)
	}
	if view == nil || len(view.Pairs) != 1 {
		t.Fatal("expected one pair from the search route")
	}
	if searchHits.Load() != 1 {
		t.Errorf("expected 1 search hit, got %d", searchHits.Load())
	}
}

func TestDexScreener_NoPairs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pairs":[]}`))
	}))
	defer server.Close()

	ds := NewDexScreener(WithDexScreenerURL(server.URL))
	view, err := ds.Pairs(context.Background(), testMint(t))
	if err != nil {
		t.Fatalf("Pairs: %v", err)
	}
	if view != nil {
		t.Errorf("expected nil view, got %+v", view)
	}
}

func TestDetectLock(t *testing.T) {
	cases := []struct {
		name  string
		pairs []domain.MarketPair
		want  domain.LiquidityLock
	}{
		{
			name:  "no pairs",
			pairs: nil,
			want:  domain.LiquidityLock{Type: domain.LockNone},
		},
		{
			name: "managed pool label",
			pairs: []domain.MarketPair{
				{Labels: []string{"DLMM"}},
			},
			want: domain.LiquidityLock{Type: domain.LockManaged},
		},
		{
			name: "explicit lock with default days",
			pairs: []domain.MarketPair{
				{Locked: true, LockPercent: 90},
			},
			want: domain.LiquidityLock{Type: domain.LockTraditional, Percent: 90, Days: domain.DefaultLockDays},
		},
		{
			name: "lock percent with explicit days",
			pairs: []domain.MarketPair{
				{LockPercent: 98, LockDays: 180},
			},
			want: domain.LiquidityLock{Type: domain.LockTraditional, Percent: 98, Days: 180},
		},
		{
			name: "first matching pair wins",
			pairs: []domain.MarketPair{
				{DexID: "RAYDIUM"},
				{Labels: []string{"CLMM"}},
				{Locked: true, LockPercent: 100},
			},
			want: domain.LiquidityLock{Type: domain.LockManaged},
		},
		{
			name: "unlocked",
			pairs: []domain.MarketPair{
				{DexID: "RAYDIUM"},
				{DexID: "ORCA"},
			},
			want: domain.LiquidityLock{Type: domain.LockNone},
		},
	}

	for _, c := range cases {
		if got := DetectLock(c.pairs); got != c.want {
			t.Errorf("%s: DetectLock = %+v, want %+v", c.name, got, c.want)
		}
	}
}
