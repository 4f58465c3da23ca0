package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Counter names as they appear in the persisted file and in the sources map.
const (
	CounterCurrentAMP       = "current_amp"
	CounterDaysSinceLaunch  = "days_since_launch"
	CounterAmpDecayDaysLeft = "amp_decay_days_left"
	CounterTotalBurnedXEN   = "total_burned_xen"
	CounterTotalMintedXBURN = "total_minted_xburn"
	CounterBurnCount        = "burn_count"
	CounterLiquidityPair    = "liquidity_pair"
	CounterTokenSupply      = "token_supply"
	CounterPair             = "pair"
)

// Source labels recorded per counter.
const (
	SourceChain       = "chain"
	SourceExplorer    = "explorer"
	SourceDexscreener = "dexscreener"
	SourceUnavailable = "unavailable"
)

// PairStats holds the supplementary DEX pair counters.
type PairStats struct {
	PriceUSD     decimal.Decimal `json:"price_usd"`
	LiquidityUSD decimal.Decimal `json:"liquidity_usd"`
}

// StatsSnapshot is the canonical burn statistics record produced by one
// collector run. Field order is fixed so the marshalled JSON is
// byte-stable for identical counter values. BlockNumber and FetchedAt
// are the as-of marker; they are excluded from change detection.
type StatsSnapshot struct {
	CurrentAMP       uint64            `json:"current_amp"`
	DaysSinceLaunch  uint64            `json:"days_since_launch"`
	AmpDecayDaysLeft uint64            `json:"amp_decay_days_left"`
	TotalBurnedXEN   decimal.Decimal   `json:"total_burned_xen"`
	TotalMintedXBURN decimal.Decimal   `json:"total_minted_xburn"`
	BurnCount        uint64            `json:"burn_count"`
	LiquidityPair    string            `json:"liquidity_pair"`
	TokenSupply      *decimal.Decimal  `json:"token_supply"`
	Pair             *PairStats        `json:"pair"`
	Sources          map[string]string `json:"sources"`
	BlockNumber      uint64            `json:"block_number"`
	FetchedAt        time.Time         `json:"fetched_at"`
}

// AllCounters lists every counter in persisted-field order.
var AllCounters = []string{
	CounterCurrentAMP,
	CounterDaysSinceLaunch,
	CounterAmpDecayDaysLeft,
	CounterTotalBurnedXEN,
	CounterTotalMintedXBURN,
	CounterBurnCount,
	CounterLiquidityPair,
	CounterTokenSupply,
	CounterPair,
}

// MonotonicCounters strictly accumulate run-over-run; a decrease is a
// data-quality anomaly, never a normal update.
var MonotonicCounters = []string{
	CounterDaysSinceLaunch,
	CounterTotalBurnedXEN,
	CounterTotalMintedXBURN,
	CounterBurnCount,
}

// DiffCounters returns the names of counters whose values differ
// between current and prev, in stable order. The as-of marker and the
// sources map are not counters and never appear in the result.
func DiffCounters(current, prev *StatsSnapshot) []string {
	var diff []string
	if current.CurrentAMP != prev.CurrentAMP {
		diff = append(diff, CounterCurrentAMP)
	}
	if current.DaysSinceLaunch != prev.DaysSinceLaunch {
		diff = append(diff, CounterDaysSinceLaunch)
	}
	if current.AmpDecayDaysLeft != prev.AmpDecayDaysLeft {
		diff = append(diff, CounterAmpDecayDaysLeft)
	}
	if !current.TotalBurnedXEN.Equal(prev.TotalBurnedXEN) {
		diff = append(diff, CounterTotalBurnedXEN)
	}
	if !current.TotalMintedXBURN.Equal(prev.TotalMintedXBURN) {
		diff = append(diff, CounterTotalMintedXBURN)
	}
	if current.BurnCount != prev.BurnCount {
		diff = append(diff, CounterBurnCount)
	}
	if current.LiquidityPair != prev.LiquidityPair {
		diff = append(diff, CounterLiquidityPair)
	}
	if !decimalPtrEqual(current.TokenSupply, prev.TokenSupply) {
		diff = append(diff, CounterTokenSupply)
	}
	if !pairEqual(current.Pair, prev.Pair) {
		diff = append(diff, CounterPair)
	}
	return diff
}

// Regressions returns the monotonic counters that decreased in current
// versus prev.
func Regressions(current, prev *StatsSnapshot) []string {
	var reg []string
	if current.DaysSinceLaunch < prev.DaysSinceLaunch {
		reg = append(reg, CounterDaysSinceLaunch)
	}
	if current.TotalBurnedXEN.LessThan(prev.TotalBurnedXEN) {
		reg = append(reg, CounterTotalBurnedXEN)
	}
	if current.TotalMintedXBURN.LessThan(prev.TotalMintedXBURN) {
		reg = append(reg, CounterTotalMintedXBURN)
	}
	if current.BurnCount < prev.BurnCount {
		reg = append(reg, CounterBurnCount)
	}
	return reg
}

func decimalPtrEqual(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func pairEqual(a, b *PairStats) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.PriceUSD.Equal(b.PriceUSD) && a.LiquidityUSD.Equal(b.LiquidityUSD)
}
