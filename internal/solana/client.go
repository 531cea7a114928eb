package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync/atomic"

	"solguard/internal/fetch"
)

// Well-known chain constants.
const (
	DefaultEndpoint   = "https://rpc.ankr.com/solana"
	TokenProgramID    = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	MetadataProgramID = "metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"
	WrappedSOLMint    = "So11111111111111111111111111111111111111112"

	// tokenAccountSize is the byte size of an SPL token holder account.
	tokenAccountSize = 165
)

// ErrUnavailable is returned when the RPC endpoint produced no usable
// response after the fetch layer exhausted its attempts.
var ErrUnavailable = errors.New("rpc endpoint unavailable")

// Client talks JSON-RPC 2.0 to a Solana node. Transport resilience
// (retries, backoff, breaker) comes from the shared fetch client; JSON-RPC
// envelope errors are surfaced as *RPCError and never retried.
type Client struct {
	endpoint  string
	fetcher   *fetch.Client
	requestID atomic.Uint64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithFetcher sets the underlying fetch client.
func WithFetcher(f *fetch.Client) ClientOption {
	return func(c *Client) {
		c.fetcher = f
	}
}

// NewClient creates a Solana RPC client for the given endpoint.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	c := &Client{endpoint: endpoint}
	for _, opt := range opts {
		opt(c)
	}
	if c.fetcher == nil {
		c.fetcher = fetch.NewClient("solana-rpc")
	}
	return c
}

// rpcRequest is a JSON-RPC 2.0 request envelope.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse is a JSON-RPC 2.0 response envelope.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs one JSON-RPC call and decodes the result into out.
func (c *Client) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	res := c.fetcher.Do(ctx, fetch.Request{
		Method: http.MethodPost,
		URL:    c.endpoint,
		Body:   body,
	})
	if !res.OK() {
		return fmt.Errorf("%w: %s %s", ErrUnavailable, method, res.Status)
	}

	var resp rpcResponse
	if err := json.Unmarshal(res.Payload, &resp); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.Error != nil {
		return resp.Error
	}
	if out != nil && resp.Result != nil {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return nil
}

// TokenSupply holds the getTokenSupply response for a mint.
type TokenSupply struct {
	Amount   string  // raw supply in base units
	Decimals int     // mint decimals
	UIAmount float64 // supply scaled by decimals
}

type tokenSupplyResult struct {
	Value struct {
		Amount   string   `json:"amount"`
		Decimals int      `json:"decimals"`
		UIAmount *float64 `json:"uiAmount"`
	} `json:"value"`
}

// GetTokenSupply retrieves the total supply of a mint.
func (c *Client) GetTokenSupply(ctx context.Context, mint string) (*TokenSupply, error) {
	var result tokenSupplyResult
	if err := c.call(ctx, "getTokenSupply", []interface{}{mint}, &result); err != nil {
		return nil, err
	}

	supply := &TokenSupply{
		Amount:   result.Value.Amount,
		Decimals: result.Value.Decimals,
	}
	if result.Value.UIAmount != nil {
		supply.UIAmount = *result.Value.UIAmount
	} else if raw, err := strconv.ParseFloat(result.Value.Amount, 64); err == nil {
		supply.UIAmount = scaleAmount(raw, supply.Decimals)
	}
	return supply, nil
}

// TokenAccount is one holder account of a mint.
type TokenAccount struct {
	Pubkey   string  // token account address
	Owner    string  // wallet owning the account
	Amount   string  // raw balance in base units
	UIAmount float64 // balance scaled by decimals
}

type programAccountEntry struct {
	Pubkey  string `json:"pubkey"`
	Account struct {
		Data struct {
			Parsed struct {
				Info struct {
					Owner       string `json:"owner"`
					TokenAmount struct {
						Amount   string   `json:"amount"`
						UIAmount *float64 `json:"uiAmount"`
					} `json:"tokenAmount"`
				} `json:"info"`
			} `json:"parsed"`
		} `json:"data"`
	} `json:"account"`
}

// GetTokenAccountsByMint lists all token accounts of a mint via
// getProgramAccounts on the SPL token program. Entries that fail to parse
// are skipped.
func (c *Client) GetTokenAccountsByMint(ctx context.Context, mint string) ([]TokenAccount, error) {
	params := []interface{}{
		TokenProgramID,
		map[string]interface{}{
			"encoding": "jsonParsed",
			"filters": []interface{}{
				map[string]interface{}{"dataSize": tokenAccountSize},
				map[string]interface{}{
					"memcmp": map[string]interface{}{
						"offset": 0,
						"bytes":  mint,
					},
				},
			},
		},
	}

	var result []programAccountEntry
	if err := c.call(ctx, "getProgramAccounts", params, &result); err != nil {
		return nil, err
	}

	accounts := make([]TokenAccount, 0, len(result))
	for _, entry := range result {
		info := entry.Account.Data.Parsed.Info
		if info.TokenAmount.Amount == "" {
			continue
		}
		acc := TokenAccount{
			Pubkey: entry.Pubkey,
			Owner:  info.Owner,
			Amount: info.TokenAmount.Amount,
		}
		if info.TokenAmount.UIAmount != nil {
			acc.UIAmount = *info.TokenAmount.UIAmount
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// Account is raw Solana account state.
type Account struct {
	Lamports uint64
	Owner    string
	Data     string // base64 encoded
}

type accountInfoResult struct {
	Value *struct {
		Lamports uint64   `json:"lamports"`
		Owner    string   `json:"owner"`
		Data     []string `json:"data"` // [base64_data, encoding]
	} `json:"value"`
}

// GetAccountInfo retrieves account state by address. Returns nil when the
// account does not exist.
func (c *Client) GetAccountInfo(ctx context.Context, address string) (*Account, error) {
	params := []interface{}{
		address,
		map[string]interface{}{"encoding": "base64"},
	}

	var result accountInfoResult
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return nil, err
	}
	if result.Value == nil {
		return nil, nil
	}

	acc := &Account{
		Lamports: result.Value.Lamports,
		Owner:    result.Value.Owner,
	}
	if len(result.Value.Data) >= 1 {
		acc.Data = result.Value.Data[0]
	}
	return acc, nil
}

// scaleAmount converts a raw base-unit amount to UI units.
func scaleAmount(raw float64, decimals int) float64 {
	return raw / math.Pow(10, float64(decimals))
}
