package arbitrage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const ref = "REF"

func testParams() Params {
	p := DefaultParams(ref)
	p.ReferenceHoldings = 1000 // 100 per root
	return p
}

func flatPrices() PriceLookup {
	return PriceMap{"X": 1, "Y": 1, "Z": 1, "W": 1}.Lookup
}

// bothWays returns the two directed edges of a pool holding a of tokenA and b of tokenB.
func bothWays(pool, tokenA, tokenB string, a, b, fee float64) []PoolEdge {
	e := edge(pool, tokenA, tokenB, a, b, fee)
	return []PoolEdge{e, e.Reverse()}
}

func triangle() []PoolEdge {
	var edges []PoolEdge
	// X trades at half its fair value in P1, the other two pools are balanced.
	edges = append(edges, bothWays("P1", ref, "X", 1e6, 2e6, 0)...)
	edges = append(edges, bothWays("P2", "X", "Y", 1e6, 1e6, 0)...)
	edges = append(edges, bothWays("P3", "Y", ref, 1e6, 1e6, 0)...)
	return edges
}

func assertCycleInvariants(t *testing.T, c ArbitrageCycle, p Params) {
	t.Helper()
	require.GreaterOrEqual(t, c.Hops(), 2)
	require.LessOrEqual(t, c.Hops(), p.MaxHops)
	assert.Equal(t, p.ReferenceToken, c.Steps[0].SellToken)
	assert.Equal(t, p.ReferenceToken, c.Steps[len(c.Steps)-1].BuyToken)
	seen := map[string]bool{}
	for i, s := range c.Steps {
		assert.False(t, seen[s.PoolAddress], "pool %s repeated", s.PoolAddress)
		seen[s.PoolAddress] = true
		if i > 0 {
			prev := c.Steps[i-1]
			assert.Equal(t, prev.BuyToken, s.SellToken)
			assert.InEpsilon(t, prev.ExpectedOut, s.AmountIn, p.ContinuityTolerance)
		}
	}
	assert.Greater(t, c.NetProfit, p.MinProfit)
}

func TestSamePoolRoundTripIsNotACycle(t *testing.T) {
	edges := bothWays("P1", ref, "X", 1e6, 2e6, 0)
	cycles := FindArbitrageCycles(edges, 1, flatPrices(), testParams())
	assert.Empty(t, cycles)
}

func TestTriangleIsFound(t *testing.T) {
	p := testParams()
	cycles := FindArbitrageCycles(triangle(), 1, flatPrices(), p)
	require.Len(t, cycles, 1)

	c := cycles[0]
	assert.Equal(t, []string{"P1", "P2", "P3"}, c.Pools())
	assert.Equal(t, []string{ref, "X", "Y", ref}, c.Tokens())
	assert.InDelta(t, 100, c.InitialAmount, 1e-9)
	assert.Greater(t, c.FinalAmount, 199.0)
	assertCycleInvariants(t, c, p)
}

func TestEmptyReservesAreNeverTraversed(t *testing.T) {
	edges := triangle()
	edges = append(edges, bothWays("DRY", "X", "Z", 0, 1e6, 0)...)
	edges = append(edges, bothWays("P4", "Z", ref, 1e6, 1e6, 0)...)

	for _, c := range FindArbitrageCycles(edges, 1, flatPrices(), testParams()) {
		assert.NotContains(t, c.Pools(), "DRY")
	}
}

func TestThinPoolsAreSkipped(t *testing.T) {
	edges := triangle()
	for i := range edges {
		if edges[i].PoolAddress == "P2" {
			edges[i].TVL = 5
		}
	}
	assert.Empty(t, FindArbitrageCycles(edges, 1, flatPrices(), testParams()))
}

func TestDepthIsBounded(t *testing.T) {
	// A five-hop loop: REF -> X -> Y -> Z -> W -> REF.
	var edges []PoolEdge
	edges = append(edges, bothWays("P1", ref, "X", 1e6, 2e6, 0)...)
	edges = append(edges, bothWays("P2", "X", "Y", 1e6, 1e6, 0)...)
	edges = append(edges, bothWays("P3", "Y", "Z", 1e6, 1e6, 0)...)
	edges = append(edges, bothWays("P4", "Z", "W", 1e6, 1e6, 0)...)
	edges = append(edges, bothWays("P5", "W", ref, 1e6, 1e6, 0)...)

	p := testParams()
	assert.Empty(t, FindArbitrageCycles(edges, 1, flatPrices(), p))

	p.MaxHops = 5
	cycles := FindArbitrageCycles(edges, 1, flatPrices(), p)
	require.Len(t, cycles, 1)
	assert.Equal(t, 5, cycles[0].Hops())
}

func TestResultsAreSortedByNetProfit(t *testing.T) {
	var edges []PoolEdge
	edges = append(edges, bothWays("SMALL1", ref, "X", 1e6, 1.2e6, 0)...)
	edges = append(edges, bothWays("SMALL2", "X", ref, 1e6, 1e6, 0)...)
	edges = append(edges, bothWays("BIG1", ref, "Y", 1e6, 3e6, 0)...)
	edges = append(edges, bothWays("BIG2", "Y", ref, 1e6, 1e6, 0)...)

	p := testParams()
	cycles := FindArbitrageCycles(edges, 1, flatPrices(), p)
	require.Len(t, cycles, 2)
	assert.Equal(t, []string{"BIG1", "BIG2"}, cycles[0].Pools())
	assert.Equal(t, []string{"SMALL1", "SMALL2"}, cycles[1].Pools())
	assert.Greater(t, cycles[0].NetProfit, cycles[1].NetProfit)
	for _, c := range cycles {
		assertCycleInvariants(t, c, p)
	}
}

func TestRootTradeIsClampedToReserve(t *testing.T) {
	p := testParams()
	p.ReferenceHoldings = 1e7 // 1e6 per root, far beyond 30% of any pool
	var edges []PoolEdge
	edges = append(edges, bothWays("P1", ref, "X", 1e6, 4e6, 0)...)
	edges = append(edges, bothWays("P2", "X", ref, 1e7, 1e7, 0)...)

	cycles := FindArbitrageCycles(edges, 1, flatPrices(), p)
	require.NotEmpty(t, cycles)
	assert.InDelta(t, 0.3e6, cycles[0].InitialAmount, 1e-6)
	assertCycleInvariants(t, cycles[0], p)
}

func TestClampMidPathBreaksContinuity(t *testing.T) {
	p := testParams()
	var edges []PoolEdge
	edges = append(edges, bothWays("P1", ref, "X", 1e6, 2e6, 0)...)
	// Only 100 X of depth: the ~200 X coming out of P1 would be clamped to 30.
	edges = append(edges, bothWays("P2", "X", ref, 100, 1000, 0)...)

	assert.Empty(t, FindArbitrageCycles(edges, 1, flatPrices(), p))
}

func TestHopValueGuardPrunesLossyHops(t *testing.T) {
	p := testParams()
	p.HopValueGuard = true
	// X is fairly priced at 1, so P1 handing out twice as much X is a gain for us but
	// P2 then loses on Y valued at 0.1.
	prices := PriceMap{"X": 1, "Y": 0.1}.Lookup
	cycles := FindArbitrageCycles(triangle(), 1, prices, p)
	assert.Empty(t, cycles)

	p.HopValueGuard = false
	assert.Len(t, FindArbitrageCycles(triangle(), 1, prices, p), 1)
}

func TestStrictPricesSkipsUnpricedTokens(t *testing.T) {
	p := testParams()
	prices := PriceMap{"X": 1}.Lookup // Y unknown

	assert.Len(t, FindArbitrageCycles(triangle(), 1, prices, p), 1)

	p.StrictPrices = true
	assert.Empty(t, FindArbitrageCycles(triangle(), 1, prices, p))
}

func TestSearchIsRepeatable(t *testing.T) {
	edges := triangle()
	first := FindArbitrageCycles(edges, 1, flatPrices(), testParams())
	second := FindArbitrageCycles(edges, 1, flatPrices(), testParams())
	assert.Equal(t, first, second)
}

func TestFinderLogsStats(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	f := NewFinder(zap.New(core))

	cycles, stats := f.Find(triangle(), 1, flatPrices(), testParams())
	require.Len(t, cycles, 1)
	assert.Equal(t, 6, stats.Edges)
	assert.Equal(t, 2, stats.Roots)
	assert.Equal(t, 1, stats.Cycles)

	entries := logs.FilterMessage("cycle search finished").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 1, entries[0].ContextMap()["cycles"])
}

func TestMaxRootsLimitsSearch(t *testing.T) {
	p := testParams()
	p.MaxRoots = 1
	_, stats := NewFinder(nil).Find(triangle(), 1, flatPrices(), p)
	assert.Equal(t, 1, stats.Roots)
}
