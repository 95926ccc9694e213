package arbitrage

import (
	"sort"
	"time"

	"go.uber.org/zap"
)

// Stats describes what one search did. Useful for logs and metrics, never for results.
type Stats struct {
	Edges     int
	Roots     int
	States    int
	Pruned    int
	Evaluated int
	Cycles    int
	Duration  time.Duration
}

// Finder runs cycle searches and logs their statistics. It keeps no state between calls,
// a single Finder can serve concurrent searches.
type Finder struct {
	log *zap.Logger
}

func NewFinder(log *zap.Logger) *Finder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Finder{log: log}
}

// FindArbitrageCycles enumerates the profitable closed loops that start by selling the
// reference token and end by buying it back, visiting each pool at most once and taking
// at most params.MaxHops hops. Results are ordered by net profit, highest first.
func FindArbitrageCycles(edges []PoolEdge, referencePrice float64, prices PriceLookup, params Params) []ArbitrageCycle {
	cycles, _ := search(edges, referencePrice, prices, params)
	return cycles
}

func (f *Finder) Find(edges []PoolEdge, referencePrice float64, prices PriceLookup, params Params) ([]ArbitrageCycle, Stats) {
	cycles, stats := search(edges, referencePrice, prices, params)
	fields := []zap.Field{
		zap.Int("edges", stats.Edges),
		zap.Int("roots", stats.Roots),
		zap.Int("states", stats.States),
		zap.Int("pruned", stats.Pruned),
		zap.Int("evaluated", stats.Evaluated),
		zap.Int("cycles", stats.Cycles),
		zap.Duration("took", stats.Duration),
	}
	if len(cycles) > 0 {
		fields = append(fields, zap.Float64("best_net_profit", cycles[0].NetProfit))
	}
	f.log.Info("cycle search finished", fields...)
	return cycles, stats
}

// searcher owns the mutable state of one search: the path under construction and the set
// of pools on it. Every push is undone before the frame returns.
type searcher struct {
	params    Params
	value     valuer
	adjacency map[string][]PoolEdge
	path      []TradeStep
	visited   map[string]struct{}
	found     []ArbitrageCycle
	stats     Stats
}

func search(edges []PoolEdge, referencePrice float64, prices PriceLookup, params Params) ([]ArbitrageCycle, Stats) {
	start := time.Now()
	s := &searcher{
		params:    params,
		value:     valuer{reference: params.ReferenceToken, referencePrice: referencePrice, prices: prices},
		adjacency: make(map[string][]PoolEdge),
		path:      make([]TradeStep, 0, params.MaxHops),
		visited:   make(map[string]struct{}, params.MaxHops),
	}
	s.stats.Edges = len(edges)

	var roots []PoolEdge
	for _, e := range edges {
		if !e.Eligible(params.MinTVL) {
			continue
		}
		s.adjacency[e.TokenIn] = append(s.adjacency[e.TokenIn], e)
		if e.TokenIn == params.ReferenceToken {
			roots = append(roots, e)
		}
	}
	if params.MaxRoots > 0 && len(roots) > params.MaxRoots {
		roots = roots[:params.MaxRoots]
	}
	s.stats.Roots = len(roots)

	budget := params.TradeBudget()
	for _, root := range roots {
		s.walk(root, budget)
	}

	sort.SliceStable(s.found, func(i, j int) bool {
		return s.found[i].NetProfit > s.found[j].NetProfit
	})
	s.stats.Cycles = len(s.found)
	s.stats.Duration = time.Since(start)
	return s.found, s.stats
}

// walk tries to extend the current path through edge with amount of edge.TokenIn.
func (s *searcher) walk(edge PoolEdge, amount float64) {
	s.stats.States++
	depth := len(s.path)
	if depth >= s.params.MaxHops {
		s.stats.Pruned++
		return
	}

	amountIn := ClampToReserve(amount, edge.ReserveIn, s.params.MaxReserveFraction)
	q, ok := QuoteOut(edge, amountIn)
	if !ok {
		s.stats.Pruned++
		return
	}
	// A clamp in the middle of the path would spend less than the previous hop produced.
	if depth > 0 && !withinTolerance(s.path[depth-1].ExpectedOut, amountIn, s.params.ContinuityTolerance) {
		s.stats.Pruned++
		return
	}
	if s.params.HopValueGuard && !s.hopHoldsValue(edge, amountIn, q.ExpectedOut) {
		s.stats.Pruned++
		return
	}

	s.path = append(s.path, TradeStep{
		PoolAddress: edge.PoolAddress,
		Source:      edge.Source,
		SellToken:   edge.TokenIn,
		BuyToken:    edge.TokenOut,
		AmountIn:    amountIn,
		ExpectedOut: q.ExpectedOut,
		FeePercent:  edge.FeeRate,
	})
	s.visited[edge.PoolAddress] = struct{}{}
	defer func() {
		s.path = s.path[:depth]
		delete(s.visited, edge.PoolAddress)
	}()

	if edge.TokenOut == s.params.ReferenceToken {
		s.record()
		return
	}
	for _, next := range s.adjacency[edge.TokenOut] {
		if _, seen := s.visited[next.PoolAddress]; seen {
			continue
		}
		s.walk(next, q.ExpectedOut)
	}
}

func (s *searcher) hopHoldsValue(edge PoolEdge, amountIn, amountOut float64) bool {
	priceIn, _ := s.value.price(edge.TokenIn)
	priceOut, _ := s.value.price(edge.TokenOut)
	return amountOut*priceOut >= amountIn*priceIn*(1-2*edge.FeeRate)
}

// record evaluates the closed path and keeps it when it clears the profit threshold.
func (s *searcher) record() {
	if len(s.path) < 2 {
		// A single hop cannot leave and return to the reference token.
		return
	}
	if !amountsContinuous(s.path, s.params.ContinuityTolerance) {
		return
	}
	if s.params.StrictPrices && !s.value.pricedEverywhere(s.path) {
		return
	}
	s.stats.Evaluated++
	cycle := s.value.evaluate(s.path, s.params)
	if cycle.Profitable(s.params.MinProfit) {
		s.found = append(s.found, cycle)
	}
}
