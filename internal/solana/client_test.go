package solana

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestClient_GetTokenSupply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Method != "getTokenSupply" {
			t.Errorf("expected method getTokenSupply, got %s", req.Method)
		}
		if len(req.Params) != 1 || req.Params[0] != "mint123" {
			t.Errorf("unexpected params: %v", req.Params)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"value": map[string]interface{}{
					"amount":   "1000000000000",
					"decimals": 6,
					"uiAmount": 1000000.0,
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	supply, err := client.GetTokenSupply(context.Background(), "mint123")
	if err != nil {
		t.Fatalf("GetTokenSupply: %v", err)
	}

	if supply.Amount != "1000000000000" {
		t.Errorf("expected amount 1000000000000, got %s", supply.Amount)
	}
	if supply.Decimals != 6 {
		t.Errorf("expected 6 decimals, got %d", supply.Decimals)
	}
	if supply.UIAmount != 1000000.0 {
		t.Errorf("expected uiAmount 1000000, got %f", supply.UIAmount)
	}
}

func TestClient_GetTokenSupply_NullUIAmount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"value": map[string]interface{}{
					"amount":   "5000000000",
					"decimals": 9,
					"uiAmount": nil,
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	supply, err := client.GetTokenSupply(context.Background(), "mint123")
	if err != nil {
		t.Fatalf("GetTokenSupply: %v", err)
	}

	// Derived from amount/decimals when the node omits uiAmount.
	if supply.UIAmount != 5.0 {
		t.Errorf("expected uiAmount 5.0, got %f", supply.UIAmount)
	}
}

func TestClient_GetTokenAccountsByMint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Method != "getProgramAccounts" {
			t.Errorf("expected method getProgramAccounts, got %s", req.Method)
		}
		if len(req.Params) != 2 || req.Params[0] != TokenProgramID {
			t.Errorf("expected token program param, got %v", req.Params)
		}

		entry := func(pubkey, owner, amount string) map[string]interface{} {
			return map[string]interface{}{
				"pubkey": pubkey,
				"account": map[string]interface{}{
					"data": map[string]interface{}{
						"parsed": map[string]interface{}{
							"info": map[string]interface{}{
								"owner": owner,
								"tokenAmount": map[string]interface{}{
									"amount":   amount,
									"uiAmount": 1.0,
								},
							},
						},
					},
				},
			}
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": []interface{}{
				entry("acc1", "owner1", "100"),
				entry("acc2", "owner2", "0"),
				map[string]interface{}{"pubkey": "malformed"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	accounts, err := client.GetTokenAccountsByMint(context.Background(), "mint123")
	if err != nil {
		t.Fatalf("GetTokenAccountsByMint: %v", err)
	}

	// Malformed entry skipped, zero-balance entry kept (callers filter).
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if accounts[0].Pubkey != "acc1" || accounts[0].Amount != "100" {
		t.Errorf("unexpected first account: %+v", accounts[0])
	}
}

func TestClient_GetAccountInfo_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  map[string]interface{}{"value": nil},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	acc, err := client.GetAccountInfo(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}
	if acc != nil {
		t.Errorf("expected nil for missing account, got %+v", acc)
	}
}

func TestClient_RPCErrorNotRetried(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]interface{}{"code": -32602, "message": "Invalid param"},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.GetTokenSupply(context.Background(), "bad")
	if err == nil {
		t.Fatal("expected RPC error")
	}

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected *RPCError, got %T: %v", err, err)
	}
	if rpcErr.Code != -32602 {
		t.Errorf("expected code -32602, got %d", rpcErr.Code)
	}
	if hits.Load() != 1 {
		t.Errorf("expected 1 request for RPC error, got %d", hits.Load())
	}
}
