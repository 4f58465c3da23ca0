package collector

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/sha3"

	"BurnSentinel/internal/model"
)

// tokenDecimals is the fixed-point scale of XEN and XBURN amounts.
const tokenDecimals = 18

const zeroAddress = "0x0000000000000000000000000000000000000000"

// GlobalStats is the decoded result of the minter's getGlobalStats()
// view call.
type GlobalStats struct {
	CurrentAMP       uint64
	DaysSinceLaunch  uint64
	TotalBurnedXEN   decimal.Decimal
	TotalMintedXBURN decimal.Decimal
	AmpDecayDaysLeft uint64
}

// ChainClient reads burn statistics from the chain RPC endpoint.
type ChainClient interface {
	GlobalStats(ctx context.Context) (*GlobalStats, error)
	TotalBurns(ctx context.Context) (uint64, error)
	LiquidityPair(ctx context.Context) (string, error)
	BlockNumber(ctx context.Context) (uint64, error)
	Name() string
}

// JSON-RPC 2.0 wire shapes.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int    `json:"id"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RPCChain implements ChainClient against an Ethereum-compatible
// JSON-RPC endpoint using eth_call against the minter contract.
type RPCChain struct {
	RPCURL     string
	Minter     string
	Client     *http.Client
	RetryLimit int

	selGlobalStats   string
	selTotalBurns    string
	selLiquidityPair string
}

// NewRPCChain creates a chain client with optional proxy support.
func NewRPCChain(rpcURL, minterAddress, proxyURL string, retryLimit int, callTimeout time.Duration) *RPCChain {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &RPCChain{
		RPCURL:     rpcURL,
		Minter:     minterAddress,
		RetryLimit: retryLimit,
		Client: &http.Client{
			Timeout:   callTimeout,
			Transport: transport,
		},
		selGlobalStats:   methodID("getGlobalStats()"),
		selTotalBurns:    methodID("totalBurns()"),
		selLiquidityPair: methodID("liquidityPair()"),
	}
}

func (c *RPCChain) Name() string { return model.SourceChain }

// GlobalStats decodes the five uint256 return words of getGlobalStats():
// (currentAMP, daysSinceLaunch, totalBurnedXEN, totalMintedXBURN,
// ampDecayDaysLeft).
func (c *RPCChain) GlobalStats(ctx context.Context) (*GlobalStats, error) {
	result, err := c.ethCall(ctx, c.selGlobalStats)
	if err != nil {
		return nil, err
	}
	words, err := resultWords(result, 5)
	if err != nil {
		return nil, fmt.Errorf("decode getGlobalStats: %w", err)
	}
	amp, err := wordUint64(words[0])
	if err != nil {
		return nil, fmt.Errorf("decode currentAMP: %w", err)
	}
	days, err := wordUint64(words[1])
	if err != nil {
		return nil, fmt.Errorf("decode daysSinceLaunch: %w", err)
	}
	decay, err := wordUint64(words[4])
	if err != nil {
		return nil, fmt.Errorf("decode ampDecayDaysLeft: %w", err)
	}
	return &GlobalStats{
		CurrentAMP:       amp,
		DaysSinceLaunch:  days,
		TotalBurnedXEN:   decimal.NewFromBigInt(words[2], -tokenDecimals),
		TotalMintedXBURN: decimal.NewFromBigInt(words[3], -tokenDecimals),
		AmpDecayDaysLeft: decay,
	}, nil
}

func (c *RPCChain) TotalBurns(ctx context.Context) (uint64, error) {
	result, err := c.ethCall(ctx, c.selTotalBurns)
	if err != nil {
		return 0, err
	}
	words, err := resultWords(result, 1)
	if err != nil {
		return 0, fmt.Errorf("decode totalBurns: %w", err)
	}
	n, err := wordUint64(words[0])
	if err != nil {
		return 0, fmt.Errorf("decode totalBurns: %w", err)
	}
	return n, nil
}

func (c *RPCChain) LiquidityPair(ctx context.Context) (string, error) {
	result, err := c.ethCall(ctx, c.selLiquidityPair)
	if err != nil {
		return "", err
	}
	words, err := resultWords(result, 1)
	if err != nil {
		return "", fmt.Errorf("decode liquidityPair: %w", err)
	}
	return wordAddress(words[0]), nil
}

func (c *RPCChain) BlockNumber(ctx context.Context) (uint64, error) {
	raw, err := c.call(ctx, "eth_blockNumber", []any{})
	if err != nil {
		return 0, err
	}
	var quantity string
	if err := json.Unmarshal(raw, &quantity); err != nil {
		return 0, fmt.Errorf("decode eth_blockNumber: %w", err)
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(quantity, "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("decode eth_blockNumber %q: %w", quantity, err)
	}
	return n, nil
}

func (c *RPCChain) ethCall(ctx context.Context, data string) (string, error) {
	params := []any{
		map[string]string{"to": c.Minter, "data": data},
		"latest",
	}
	raw, err := c.call(ctx, "eth_call", params)
	if err != nil {
		return "", err
	}
	var result string
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("decode eth_call result: %w", err)
	}
	return result, nil
}

func (c *RPCChain) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var result json.RawMessage
	err = withRetry(ctx, c.RetryLimit, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.RPCURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.Client.Do(req)
		if err != nil {
			return fmt.Errorf("%s: %w", method, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("%s: status %d", method, resp.StatusCode)
		}

		var rpcResp rpcResponse
		if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
			return fmt.Errorf("%s: decode response: %w", method, err)
		}
		if rpcResp.Error != nil {
			return fmt.Errorf("%s: rpc error %d: %s", method, rpcResp.Error.Code, rpcResp.Error.Message)
		}
		result = rpcResp.Result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// methodID returns the 4-byte ABI selector for a function signature.
func methodID(signature string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return "0x" + hex.EncodeToString(h.Sum(nil)[:4])
}

// resultWords splits an eth_call return blob into n 32-byte words.
func resultWords(result string, n int) ([]*big.Int, error) {
	s := strings.TrimPrefix(result, "0x")
	if len(s) < n*64 {
		return nil, fmt.Errorf("short result: want %d words, got %d hex chars", n, len(s))
	}
	words := make([]*big.Int, n)
	for i := 0; i < n; i++ {
		w, ok := new(big.Int).SetString(s[i*64:(i+1)*64], 16)
		if !ok {
			return nil, fmt.Errorf("word %d is not hex", i)
		}
		words[i] = w
	}
	return words, nil
}

func wordUint64(w *big.Int) (uint64, error) {
	if !w.IsUint64() {
		return 0, fmt.Errorf("value %s overflows uint64", w)
	}
	return w.Uint64(), nil
}

// wordAddress formats the low 20 bytes of a word as a 0x address.
func wordAddress(w *big.Int) string {
	b := w.Bytes()
	buf := make([]byte, 20)
	if len(b) > 20 {
		b = b[len(b)-20:]
	}
	copy(buf[20-len(b):], b)
	return "0x" + hex.EncodeToString(buf)
}
