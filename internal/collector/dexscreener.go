package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"BurnSentinel/internal/model"
)

// DexClient reads liquidity-pair statistics from a DEX aggregator.
type DexClient interface {
	PairStats(ctx context.Context, chain, pair string) (*model.PairStats, error)
	Name() string
}

// DexscreenerClient implements DexClient against the Dexscreener pairs
// API.
type DexscreenerClient struct {
	BaseURL    string
	Client     *http.Client
	Limiter    *rate.Limiter
	RetryLimit int
}

func NewDexscreenerClient(baseURL, proxyURL string, retryLimit int, callTimeout time.Duration) *DexscreenerClient {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &DexscreenerClient{
		BaseURL:    baseURL,
		RetryLimit: retryLimit,
		// Dexscreener allows 300 req/min; stay well under it.
		Limiter: rate.NewLimiter(rate.Limit(2), 1),
		Client: &http.Client{
			Timeout:   callTimeout,
			Transport: transport,
		},
	}
}

func (c *DexscreenerClient) Name() string { return model.SourceDexscreener }

func (c *DexscreenerClient) PairStats(ctx context.Context, chain, pair string) (*model.PairStats, error) {
	endpoint := fmt.Sprintf("%s/latest/dex/pairs/%s/%s", c.BaseURL, chain, pair)

	var stats *model.PairStats
	err := withRetry(ctx, c.RetryLimit, func(ctx context.Context) error {
		if err := c.Limiter.Wait(ctx); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		resp, err := c.Client.Do(req)
		if err != nil {
			return fmt.Errorf("fetch pair stats: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("fetch pair stats: status %d", resp.StatusCode)
		}

		var payload struct {
			Pairs []struct {
				PriceUSD  string `json:"priceUsd"`
				Liquidity struct {
					USD float64 `json:"usd"`
				} `json:"liquidity"`
			} `json:"pairs"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return fmt.Errorf("decode pair stats: %w", err)
		}
		if len(payload.Pairs) == 0 {
			return fmt.Errorf("pair %s not listed on %s", pair, chain)
		}
		price, err := decimal.NewFromString(payload.Pairs[0].PriceUSD)
		if err != nil {
			return fmt.Errorf("parse pair price %q: %w", payload.Pairs[0].PriceUSD, err)
		}
		if price.Sign() < 0 || payload.Pairs[0].Liquidity.USD < 0 {
			return fmt.Errorf("negative pair stats for %s", pair)
		}
		stats = &model.PairStats{
			PriceUSD:     price,
			LiquidityUSD: decimal.NewFromFloat(payload.Pairs[0].Liquidity.USD),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
