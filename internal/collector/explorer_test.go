package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestEtherscanClient_TokenSupply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("module") != "stats" || q.Get("action") != "tokensupply" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if q.Get("apikey") != "key123" {
			t.Errorf("api key not forwarded: %q", q.Get("apikey"))
		}
		// 1000 tokens at 18 decimals
		fmt.Fprint(w, `{"status":"1","message":"OK","result":"1000000000000000000000"}`)
	}))
	defer srv.Close()

	c := NewEtherscanClient(srv.URL, "key123", "", 10, 1, 5*time.Second)
	supply, err := c.TokenSupply(context.Background(), "0xtoken")
	if err != nil {
		t.Fatalf("token supply: %v", err)
	}
	if !supply.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("supply = %s, want 1000", supply)
	}
}

func TestEtherscanClient_RejectedRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"0","message":"NOTOK","result":"Invalid API Key"}`)
	}))
	defer srv.Close()

	c := NewEtherscanClient(srv.URL, "bad", "", 10, 1, 5*time.Second)
	if _, err := c.TokenSupply(context.Background(), "0xtoken"); err == nil {
		t.Fatal("expected error for rejected request")
	}
}

func TestDexscreenerClient_PairStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/latest/dex/pairs/base/0xpair" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"pairs":[{"priceUsd":"0.0123","liquidity":{"usd":45678.9}}]}`)
	}))
	defer srv.Close()

	c := NewDexscreenerClient(srv.URL, "", 1, 5*time.Second)
	stats, err := c.PairStats(context.Background(), "base", "0xpair")
	if err != nil {
		t.Fatalf("pair stats: %v", err)
	}
	if !stats.PriceUSD.Equal(decimal.RequireFromString("0.0123")) {
		t.Errorf("price = %s, want 0.0123", stats.PriceUSD)
	}
	if !stats.LiquidityUSD.Equal(decimal.RequireFromString("45678.9")) {
		t.Errorf("liquidity = %s, want 45678.9", stats.LiquidityUSD)
	}
}

func TestDexscreenerClient_UnlistedPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"pairs":null}`)
	}))
	defer srv.Close()

	c := NewDexscreenerClient(srv.URL, "", 1, 5*time.Second)
	if _, err := c.PairStats(context.Background(), "base", "0xpair"); err == nil {
		t.Fatal("expected error for unlisted pair")
	}
}
