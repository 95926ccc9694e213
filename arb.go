package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	solana "github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"hadydotai/cheese-client/arbitrage"
	"hadydotai/cheese-client/pools"
)

type arbFlags struct {
	holdings   float64
	wallet     string
	fraction   float64
	minProfit  float64
	minTVL     float64
	maxHops    int
	maxReserve float64
	maxRoots   int
	hopGuard   bool
	strict     bool
	pairwise   bool
	limit      int
}

func registerArbFlags(fs *flag.FlagSet) *arbFlags {
	d := arbitrage.DefaultParams(pools.CheeseMint)
	a := &arbFlags{}
	fs.Float64Var(&a.holdings, "holdings", d.ReferenceHoldings, "CHEESE holdings to size trades from, ignored with -wallet")
	fs.StringVar(&a.wallet, "wallet", envOr(envWallet, ""), "Wallet whose CHEESE balance replaces -holdings (env "+envWallet+")")
	fs.Float64Var(&a.fraction, "fraction", d.TradeFraction, "Fraction of holdings put into each cycle")
	fs.Float64Var(&a.minProfit, "min-profit", d.MinProfit, "Minimum net profit in USD")
	fs.Float64Var(&a.minTVL, "min-tvl", d.MinTVL, "Pools below this TVL in USD are not traversed")
	fs.IntVar(&a.maxHops, "max-hops", d.MaxHops, "Longest cycle searched")
	fs.Float64Var(&a.maxReserve, "max-reserve", d.MaxReserveFraction, "Largest share of a pool's input reserve one hop may take")
	fs.IntVar(&a.maxRoots, "max-roots", 0, "Only search from the first N CHEESE pools, 0 for all")
	fs.BoolVar(&a.hopGuard, "hop-guard", true, "Prune hops that lose more than twice the pool fee in value")
	fs.BoolVar(&a.strict, "strict-prices", false, "Skip cycles through tokens without a market price")
	fs.BoolVar(&a.pairwise, "pairwise", false, "Also compare every Meteora pool against the reference pool")
	fs.IntVar(&a.limit, "limit", 20, "Rows shown per table, 0 for all")
	return a
}

func (a *arbFlags) specs() []FlagSpec {
	return []FlagSpec{
		{Name: "holdings", Value: &a.holdings, Rules: []FlagRule{Positive()}},
		{Name: "wallet", Value: &a.wallet, Rules: []FlagRule{ValidMint(), Requires("rpc")}},
		{Name: "fraction", Value: &a.fraction, Rules: []FlagRule{Positive()}},
		{Name: "min-profit", Value: &a.minProfit, Rules: []FlagRule{AtLeast(0)}},
		{Name: "min-tvl", Value: &a.minTVL, Rules: []FlagRule{AtLeast(0)}},
		{Name: "max-hops", Value: &a.maxHops, Rules: []FlagRule{AtLeast(2)}},
		{Name: "max-reserve", Value: &a.maxReserve, Rules: []FlagRule{FractionBelowOne()}},
		{Name: "max-roots", Value: &a.maxRoots, Rules: []FlagRule{AtLeast(0)}},
		{Name: "limit", Value: &a.limit, Rules: []FlagRule{AtLeast(0)}},
	}
}

// params resolves the search parameters, reading the wallet balance when one is given.
func (a *arbFlags) params(ctx context.Context, common *commonOptions, log *zap.Logger) (arbitrage.Params, error) {
	p := arbitrage.DefaultParams(pools.CheeseMint)
	p.ReferenceHoldings = a.holdings
	p.TradeFraction = a.fraction
	p.MinProfit = a.minProfit
	p.MinTVL = a.minTVL
	p.MaxHops = a.maxHops
	p.MaxReserveFraction = a.maxReserve
	p.MaxRoots = a.maxRoots
	p.HopValueGuard = a.hopGuard
	p.StrictPrices = a.strict
	p.FeeToken = pools.SOLMint

	if a.wallet != "" {
		owner, err := solana.PublicKeyFromBase58(a.wallet)
		if err != nil {
			return p, fmt.Errorf("wallet address: %w", err)
		}
		h, err := walletHoldings(ctx, common.rpcClient(), owner, solana.MustPublicKeyFromBase58(pools.CheeseMint))
		if err != nil {
			return p, fmt.Errorf("reading wallet holdings: %w", err)
		}
		if h.Cheese <= 0 {
			return p, errors.New("wallet holds no CHEESE")
		}
		log.Info("wallet holdings", zap.String("wallet", shortAddr(a.wallet)), zap.Float64("cheese", h.Cheese), zap.Float64("sol", h.SOL))
		p.ReferenceHoldings = h.Cheese
	}
	return p, p.Validate()
}

type arbReport struct {
	snapshot     *marketSnapshot
	skipped      int
	stats        arbitrage.Stats
	cycles       []arbitrage.ArbitrageCycle
	pairwise     []pools.Opportunity
	withPairwise bool
}

// analyze turns a snapshot into edges and runs both the cycle search and, when asked, the
// pairwise comparison.
func analyze(snapshot *marketSnapshot, finder *arbitrage.Finder, params arbitrage.Params, pairwise bool, log *zap.Logger) *arbReport {
	edges, skipped := pools.BuildEdges(snapshot.Pools, params.ReferenceToken, snapshot.Reference.Price, snapshot.Prices.Lookup)
	for _, err := range skipped {
		log.Debug("pool skipped", zap.Error(err))
	}
	cycles, stats := finder.Find(edges, snapshot.Reference.Price, snapshot.Prices.Lookup, params)
	r := &arbReport{
		snapshot:     snapshot,
		skipped:      len(skipped),
		stats:        stats,
		cycles:       cycles,
		withPairwise: pairwise,
	}
	if pairwise {
		r.pairwise = pools.PairwiseOpportunities(snapshot.Rows, snapshot.Reference, snapshot.solPrice(), pools.DefaultPairwiseOptions())
	}
	return r
}
