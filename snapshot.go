package main

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"hadydotai/cheese-client/arbitrage"
	"hadydotai/cheese-client/pools"
)

type poolSource interface {
	CheesePools(ctx context.Context) ([]pools.Pool, error)
}

type priceSource interface {
	Prices(ctx context.Context, mints []string) (map[string]float64, error)
}

// stageError tags a failure with the pipeline step it came from, the watch loop counts them
// per stage.
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return fmt.Sprintf("%s: %v", e.stage, e.err) }
func (e *stageError) Unwrap() error { return e.err }

func failedAt(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &stageError{stage: stage, err: err}
}

// market wires the venue clients together. Venues are fetched concurrently, a venue that
// fails is logged and left out unless every venue failed.
type market struct {
	venues    map[arbitrage.Source]poolSource
	prices    priceSource
	symbols   *SymbolMapping
	reference string // pool address
	log       *zap.Logger
}

type marketSnapshot struct {
	Pools      []pools.Pool
	Prices     arbitrage.PriceMap
	Reference  pools.Reference
	Rows       []pools.Row
	Aggregates pools.Aggregates
	FetchedAt  time.Time
}

func (s *marketSnapshot) countBySource() map[string]int {
	out := make(map[string]int)
	for _, p := range s.Pools {
		out[p.Source.String()]++
	}
	return out
}

func (s *marketSnapshot) pool(address string) (pools.Pool, bool) {
	for _, p := range s.Pools {
		if p.Address == address {
			return p, true
		}
	}
	return pools.Pool{}, false
}

func (s *marketSnapshot) solPrice() float64 {
	return s.Prices[pools.SOLMint]
}

func (m *market) fetchPools(ctx context.Context) ([]pools.Pool, error) {
	sources := make([]arbitrage.Source, 0, len(m.venues))
	for src := range m.venues {
		sources = append(sources, src)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })

	results := make([][]pools.Pool, len(sources))
	errs := make([]error, len(sources))
	wg := sync.WaitGroup{}
	for i, src := range sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = m.venues[src].CheesePools(ctx)
		}()
	}
	wg.Wait()

	var (
		all    []pools.Pool
		failed int
	)
	for i, src := range sources {
		if errs[i] != nil {
			failed++
			m.log.Warn("venue fetch failed", zap.Stringer("source", src), zap.Error(errs[i]))
			continue
		}
		m.log.Debug("venue fetched", zap.Stringer("source", src), zap.Int("pools", len(results[i])))
		all = append(all, results[i]...)
	}
	if failed == len(sources) && failed > 0 {
		return nil, fmt.Errorf("all %d venues failed, first error: %w", failed, errs[0])
	}
	return all, nil
}

func (m *market) fetch(ctx context.Context) (*marketSnapshot, error) {
	snapshot, err := m.fetchPools(ctx)
	if err != nil {
		return nil, failedAt("pools", err)
	}
	ref, err := pools.ReferencePrice(snapshot, m.reference, pools.CheeseMint)
	if err != nil {
		return nil, failedAt("reference", err)
	}

	if m.symbols != nil {
		m.symbols.Resolve(ctx, snapshot)
	}

	mints := []string{pools.SOLMint}
	seen := map[string]struct{}{pools.SOLMint: {}}
	for _, p := range snapshot {
		for _, mint := range p.Mints {
			if _, ok := seen[mint]; ok || mint == "" {
				continue
			}
			seen[mint] = struct{}{}
			mints = append(mints, mint)
		}
	}
	prices, err := m.prices.Prices(ctx, mints)
	if err != nil {
		return nil, failedAt("prices", err)
	}
	priceMap := arbitrage.PriceMap(prices)

	var lookup pools.SymbolLookup
	if m.symbols != nil {
		lookup = m.symbols.Lookup()
	}
	rows, agg := pools.Summarize(snapshot, ref.Price, priceMap.Lookup, lookup)
	m.log.Info("market snapshot",
		zap.Int("pools", len(snapshot)),
		zap.Int("prices", len(prices)),
		zap.Float64("cheese_price", ref.Price),
		zap.Float64("tvl", agg.TotalLiquidityUSD),
	)
	return &marketSnapshot{
		Pools:      snapshot,
		Prices:     priceMap,
		Reference:  ref,
		Rows:       rows,
		Aggregates: agg,
		FetchedAt:  time.Now(),
	}, nil
}
