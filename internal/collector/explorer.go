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

// ExplorerClient reads token-level statistics from a block-explorer API.
type ExplorerClient interface {
	TokenSupply(ctx context.Context, contract string) (decimal.Decimal, error)
	Name() string
}

// EtherscanClient implements ExplorerClient against an
// Etherscan-compatible REST API. Requests are throttled so the free
// tier's request budget is never exceeded even under retries.
type EtherscanClient struct {
	BaseURL    string
	APIKey     string
	Client     *http.Client
	Limiter    *rate.Limiter
	RetryLimit int
}

// NewEtherscanClient creates an explorer client throttled to
// requestsPerSecond.
func NewEtherscanClient(baseURL, apiKey, proxyURL string, requestsPerSecond float64, retryLimit int, callTimeout time.Duration) *EtherscanClient {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &EtherscanClient{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		RetryLimit: retryLimit,
		Limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		Client: &http.Client{
			Timeout:   callTimeout,
			Transport: transport,
		},
	}
}

func (c *EtherscanClient) Name() string { return model.SourceExplorer }

// TokenSupply fetches the token's total supply, scaled to whole-token
// units.
func (c *EtherscanClient) TokenSupply(ctx context.Context, contract string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s?module=stats&action=tokensupply&contractaddress=%s&apikey=%s",
		c.BaseURL, contract, c.APIKey)

	var supply decimal.Decimal
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
			return fmt.Errorf("fetch token supply: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("fetch token supply: status %d", resp.StatusCode)
		}

		var payload struct {
			Status  string `json:"status"`
			Message string `json:"message"`
			Result  string `json:"result"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return fmt.Errorf("decode token supply: %w", err)
		}
		if payload.Status != "1" {
			return fmt.Errorf("explorer rejected request: %s (%s)", payload.Message, payload.Result)
		}
		raw, err := decimal.NewFromString(payload.Result)
		if err != nil {
			return fmt.Errorf("parse token supply %q: %w", payload.Result, err)
		}
		if raw.Sign() < 0 {
			return fmt.Errorf("negative token supply %s", payload.Result)
		}
		supply = raw.Shift(-tokenDecimals)
		return nil
	})
	if err != nil {
		return decimal.Decimal{}, err
	}
	return supply, nil
}
