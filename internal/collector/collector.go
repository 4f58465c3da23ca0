package collector

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"BurnSentinel/internal/model"
)

// MockChain returns controllable fixed data for development and testing.
type MockChain struct {
	Stats    GlobalStats
	Burns    uint64
	Pair     string
	Block    uint64
	StatsErr error
	BurnsErr error
	PairErr  error
	BlockErr error
}

func (m *MockChain) Name() string { return "mock-chain" }

func (m *MockChain) GlobalStats(_ context.Context) (*GlobalStats, error) {
	if m.StatsErr != nil {
		return nil, m.StatsErr
	}
	stats := m.Stats
	return &stats, nil
}

func (m *MockChain) TotalBurns(_ context.Context) (uint64, error) {
	return m.Burns, m.BurnsErr
}

func (m *MockChain) LiquidityPair(_ context.Context) (string, error) {
	if m.PairErr != nil {
		return "", m.PairErr
	}
	if m.Pair == "" {
		return zeroAddress, nil
	}
	return m.Pair, nil
}

func (m *MockChain) BlockNumber(_ context.Context) (uint64, error) {
	return m.Block, m.BlockErr
}

// MockExplorer returns a fixed token supply.
type MockExplorer struct {
	Supply decimal.Decimal
	Err    error
}

func (m *MockExplorer) Name() string { return "mock-explorer" }

func (m *MockExplorer) TokenSupply(_ context.Context, _ string) (decimal.Decimal, error) {
	return m.Supply, m.Err
}

// MockDex returns fixed pair stats.
type MockDex struct {
	Stats model.PairStats
	Err   error
}

func (m *MockDex) Name() string { return "mock-dex" }

func (m *MockDex) PairStats(_ context.Context, _, _ string) (*model.PairStats, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	stats := m.Stats
	return &stats, nil
}

// Collector produces one StatsSnapshot per invocation from the chain
// RPC (required counters), the block explorer and the DEX aggregator
// (supplementary counters). Explorer and Dex may be nil when not
// configured; their counters are then recorded as unavailable.
type Collector struct {
	Chain        ChainClient
	Explorer     ExplorerClient
	Dex          DexClient
	TokenAddress string
	DexChain     string

	log *logrus.Entry
}

// NewCollector creates a new Collector.
func NewCollector(chain ChainClient, explorer ExplorerClient, dex DexClient, tokenAddress, dexChain string) *Collector {
	return &Collector{
		Chain:        chain,
		Explorer:     explorer,
		Dex:          dex,
		TokenAddress: tokenAddress,
		DexChain:     dexChain,
		log:          logrus.WithField("component", "collector"),
	}
}

// chainData aggregates the required chain-side fetches so their
// failures can be reported as one set.
type chainData struct {
	stats  *GlobalStats
	burns  uint64
	pair   string
	block  uint64
	failed []string
	errs   []error
}

// Collect queries all sources and normalizes their responses into a
// snapshot. The chain and explorer queries run concurrently; the DEX
// query follows the chain query because it needs the liquidity pair
// address. If any required counter cannot be derived the whole run
// fails with a CollectionError listing every affected counter; nothing
// is retried beyond each call's own retry budget and nothing is
// written.
func (c *Collector) Collect(ctx context.Context) (*model.StatsSnapshot, error) {
	snap := &model.StatsSnapshot{
		Sources:   make(map[string]string),
		FetchedAt: time.Now().UTC(),
	}

	var (
		wg        sync.WaitGroup
		chain     chainData
		supply    decimal.Decimal
		supplyErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		c.collectChain(ctx, &chain)
	}()

	if c.Explorer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			supply, supplyErr = c.Explorer.TokenSupply(ctx, c.TokenAddress)
		}()
	}
	wg.Wait()

	if len(chain.failed) > 0 {
		return nil, &CollectionError{Counters: chain.failed, Err: errors.Join(chain.errs...)}
	}

	snap.CurrentAMP = chain.stats.CurrentAMP
	snap.DaysSinceLaunch = chain.stats.DaysSinceLaunch
	snap.AmpDecayDaysLeft = chain.stats.AmpDecayDaysLeft
	snap.TotalBurnedXEN = chain.stats.TotalBurnedXEN
	snap.TotalMintedXBURN = chain.stats.TotalMintedXBURN
	snap.BurnCount = chain.burns
	snap.LiquidityPair = chain.pair
	snap.BlockNumber = chain.block
	for _, counter := range []string{
		model.CounterCurrentAMP, model.CounterDaysSinceLaunch,
		model.CounterAmpDecayDaysLeft, model.CounterTotalBurnedXEN,
		model.CounterTotalMintedXBURN, model.CounterBurnCount,
		model.CounterLiquidityPair,
	} {
		snap.Sources[counter] = model.SourceChain
	}

	// Supplementary counters degrade to "unavailable" instead of
	// failing the run.
	snap.Sources[model.CounterTokenSupply] = model.SourceUnavailable
	if c.Explorer != nil {
		if supplyErr != nil {
			c.log.WithError(supplyErr).Warn("token supply unavailable")
		} else {
			snap.TokenSupply = &supply
			snap.Sources[model.CounterTokenSupply] = model.SourceExplorer
		}
	}

	snap.Sources[model.CounterPair] = model.SourceUnavailable
	if c.Dex != nil && chain.pair != zeroAddress {
		pairStats, err := c.Dex.PairStats(ctx, c.DexChain, chain.pair)
		if err != nil {
			c.log.WithError(err).Warn("pair stats unavailable")
		} else {
			snap.Pair = pairStats
			snap.Sources[model.CounterPair] = model.SourceDexscreener
		}
	}

	return snap, nil
}

func (c *Collector) collectChain(ctx context.Context, out *chainData) {
	fail := func(err error, counters ...string) {
		out.failed = append(out.failed, counters...)
		out.errs = append(out.errs, &UpstreamError{Source: c.Chain.Name(), Err: err})
	}

	stats, err := c.Chain.GlobalStats(ctx)
	if err != nil {
		fail(err, model.CounterCurrentAMP, model.CounterDaysSinceLaunch,
			model.CounterAmpDecayDaysLeft, model.CounterTotalBurnedXEN,
			model.CounterTotalMintedXBURN)
	}
	out.stats = stats

	burns, err := c.Chain.TotalBurns(ctx)
	if err != nil {
		fail(err, model.CounterBurnCount)
	}
	out.burns = burns

	pair, err := c.Chain.LiquidityPair(ctx)
	if err != nil {
		fail(err, model.CounterLiquidityPair)
	}
	out.pair = pair

	block, err := c.Chain.BlockNumber(ctx)
	if err != nil {
		fail(err, "block_number")
	}
	out.block = block
}
