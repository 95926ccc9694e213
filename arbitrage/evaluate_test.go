package arbitrage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoHop() []TradeStep {
	return []TradeStep{
		{PoolAddress: "P1", SellToken: ref, BuyToken: "X", AmountIn: 100, ExpectedOut: 200, FeePercent: 0.01},
		{PoolAddress: "P2", SellToken: "X", BuyToken: ref, AmountIn: 200, ExpectedOut: 110, FeePercent: 0.02},
	}
}

func TestEvaluateAccounting(t *testing.T) {
	p := DefaultParams(ref)
	c := Evaluate(twoHop(), 2, PriceMap{"X": 1.5}.Lookup, p)

	assert.InDelta(t, 100, c.InitialAmount, 1e-12)
	assert.InDelta(t, 110, c.FinalAmount, 1e-12)
	assert.InDelta(t, 200, c.InitialValue, 1e-12)
	assert.InDelta(t, 220, c.FinalValue, 1e-12)
	// hops * cost * reference price
	assert.InDelta(t, 2*0.000005*2, c.NetworkFees, 1e-12)
	// 100*2*0.01 + 200*1.5*0.02
	assert.InDelta(t, 8, c.PoolFees, 1e-9)
	assert.InDelta(t, c.NetworkFees+c.PoolFees, c.TotalFees, 1e-12)
	assert.InDelta(t, 20, c.GrossProfit, 1e-12)
	assert.InDelta(t, 20-8-0.00002, c.NetProfit, 1e-9)
	assert.True(t, c.Profitable(p.MinProfit))
	assert.InDelta(t, c.NetProfit/200, c.ROI(), 1e-12)
}

func TestEvaluateNetworkFeeInFeeToken(t *testing.T) {
	p := DefaultParams(ref)
	p.FeeToken = "SOL"
	c := Evaluate(twoHop(), 2, PriceMap{"X": 1.5, "SOL": 150}.Lookup, p)
	assert.InDelta(t, 2*0.000005*150, c.NetworkFees, 1e-12)

	p.FeeToken = ref
	c = Evaluate(twoHop(), 2, PriceMap{"X": 1.5}.Lookup, p)
	assert.InDelta(t, 2*0.000005*2, c.NetworkFees, 1e-12)
}

func TestEvaluateMissingPriceIsZero(t *testing.T) {
	c := Evaluate(twoHop(), 2, nil, DefaultParams(ref))
	// Only the reference leg carries a pool fee.
	assert.InDelta(t, 2, c.PoolFees, 1e-12)
}

func TestEvaluateCopiesSteps(t *testing.T) {
	steps := twoHop()
	c := Evaluate(steps, 1, nil, DefaultParams(ref))
	steps[0].AmountIn = 1
	require.Len(t, c.Steps, 2)
	assert.Equal(t, 100.0, c.Steps[0].AmountIn)
}

func TestEvaluateEmpty(t *testing.T) {
	assert.Equal(t, ArbitrageCycle{}, Evaluate(nil, 1, nil, DefaultParams(ref)))
}

func TestAmountsContinuous(t *testing.T) {
	steps := twoHop()
	assert.True(t, amountsContinuous(steps, 1e-6))
	steps[1].AmountIn = 200.001
	assert.False(t, amountsContinuous(steps, 1e-6))
}

func TestParamsValidate(t *testing.T) {
	p := DefaultParams(ref)
	require.NoError(t, p.Validate())
	assert.InDelta(t, 500_000, p.TradeBudget(), 1e-9)

	broken := []func(*Params){
		func(p *Params) { p.ReferenceToken = "" },
		func(p *Params) { p.ReferenceHoldings = 0 },
		func(p *Params) { p.TradeFraction = 1.5 },
		func(p *Params) { p.MaxHops = 1 },
		func(p *Params) { p.MaxReserveFraction = 1 },
		func(p *Params) { p.ContinuityTolerance = -1 },
		func(p *Params) { p.TxCostPerHop = -1 },
		func(p *Params) { p.MinTVL = -1 },
		func(p *Params) { p.MaxRoots = -1 },
	}
	for i, mutate := range broken {
		q := DefaultParams(ref)
		mutate(&q)
		assert.Error(t, q.Validate(), "case %d", i)
	}
}
