package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"solguard/internal/domain"
	"solguard/internal/fetch"
)

// Birdeye defaults. The public key unlocks the basic stats tier only.
const (
	DefaultBirdeyeURL = "https://public-api.birdeye.so"
	DefaultBirdeyeKey = "BIRDEYE_PUBLIC"
)

// Birdeye is the secondary holder source, consulted when the chain RPC
// reports zero holders.
type Birdeye struct {
	baseURL string
	apiKey  string
	fetcher *fetch.Client
}

var _ HolderSource = (*Birdeye)(nil)

// BirdeyeOption configures Birdeye.
type BirdeyeOption func(*Birdeye)

// WithBirdeyeURL overrides the API base URL.
func WithBirdeyeURL(u string) BirdeyeOption {
	return func(b *Birdeye) {
		b.baseURL = strings.TrimRight(u, "/")
	}
}

// WithBirdeyeKey sets the API key header value.
func WithBirdeyeKey(key string) BirdeyeOption {
	return func(b *Birdeye) {
		if key != "" {
			b.apiKey = key
		}
	}
}

// WithBirdeyeFetcher sets the underlying fetch client.
func WithBirdeyeFetcher(f *fetch.Client) BirdeyeOption {
	return func(b *Birdeye) {
		b.fetcher = f
	}
}

// NewBirdeye creates the fallback holder source.
func NewBirdeye(opts ...BirdeyeOption) *Birdeye {
	b := &Birdeye{
		baseURL: DefaultBirdeyeURL,
		apiKey:  DefaultBirdeyeKey,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.fetcher == nil {
		b.fetcher = fetch.NewClient("birdeye")
	}
	return b
}

type birdeyeResponse struct {
	Data struct {
		Tokens []struct {
			Holder flexFloat `json:"holder"`
		} `json:"tokens"`
	} `json:"data"`
}

// HolderCount returns the holder figure of the first token matching the
// mint, 0 when the API knows nothing.
func (b *Birdeye) HolderCount(ctx context.Context, mint domain.Mint) (int, error) {
	url := fmt.Sprintf("%s/public/token_list/solana?address=%s", b.baseURL, mint)
	header := http.Header{}
	header.Set("X-API-KEY", b.apiKey)

	res := b.fetcher.Get(ctx, url, header)
	if !res.OK() {
		return 0, nil
	}

	var resp birdeyeResponse
	if err := json.Unmarshal(res.Payload, &resp); err != nil {
		return 0, fmt.Errorf("decode token list: %w", err)
	}
	if len(resp.Data.Tokens) == 0 {
		return 0, nil
	}
	return int(resp.Data.Tokens[0].Holder), nil
}
