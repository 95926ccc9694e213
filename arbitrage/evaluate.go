package arbitrage

import "math"

// PriceLookup resolves a mint to its price in the reference currency.
type PriceLookup func(mint string) (float64, bool)

// PriceMap adapts a plain map to a PriceLookup.
type PriceMap map[string]float64

func (m PriceMap) Lookup(mint string) (float64, bool) {
	p, ok := m[mint]
	return p, ok
}

type valuer struct {
	reference      string
	referencePrice float64
	prices         PriceLookup
}

// price returns the token's reference-currency price. Unknown tokens are worth 0 and
// reported as not found.
func (v valuer) price(mint string) (float64, bool) {
	if mint == v.reference {
		return v.referencePrice, true
	}
	if v.prices == nil {
		return 0, false
	}
	p, ok := v.prices(mint)
	if !ok || math.IsNaN(p) || p < 0 {
		return 0, false
	}
	return p, true
}

func (v valuer) feeTokenPrice(feeToken string) float64 {
	if feeToken == "" {
		return v.referencePrice
	}
	p, _ := v.price(feeToken)
	return p
}

// Evaluate prices a completed step sequence and returns the resulting cycle. It does not
// apply the profit threshold, see Profitable.
func Evaluate(steps []TradeStep, referencePrice float64, prices PriceLookup, params Params) ArbitrageCycle {
	v := valuer{reference: params.ReferenceToken, referencePrice: referencePrice, prices: prices}
	return v.evaluate(steps, params)
}

func (v valuer) evaluate(steps []TradeStep, params Params) ArbitrageCycle {
	if len(steps) == 0 {
		return ArbitrageCycle{}
	}
	first, last := steps[0], steps[len(steps)-1]

	firstPrice, _ := v.price(first.SellToken)
	initialValue := first.AmountIn * firstPrice
	finalValue := last.ExpectedOut * v.referencePrice

	networkFees := float64(len(steps)) * params.TxCostPerHop * v.feeTokenPrice(params.FeeToken)
	var poolFees float64
	for _, s := range steps {
		p, _ := v.price(s.SellToken)
		poolFees += s.AmountIn * p * s.FeePercent
	}
	total := networkFees + poolFees
	gross := finalValue - initialValue

	cp := make([]TradeStep, len(steps))
	copy(cp, steps)
	return ArbitrageCycle{
		Steps:         cp,
		InitialAmount: first.AmountIn,
		FinalAmount:   last.ExpectedOut,
		InitialValue:  initialValue,
		FinalValue:    finalValue,
		NetworkFees:   networkFees,
		PoolFees:      poolFees,
		TotalFees:     total,
		GrossProfit:   gross,
		NetProfit:     gross - total,
	}
}

// pricedEverywhere reports whether every token the steps touch has a known price.
func (v valuer) pricedEverywhere(steps []TradeStep) bool {
	for _, s := range steps {
		if _, ok := v.price(s.SellToken); !ok {
			return false
		}
		if _, ok := v.price(s.BuyToken); !ok {
			return false
		}
	}
	return true
}

// Profitable applies the inclusion rule.
func (c ArbitrageCycle) Profitable(minProfit float64) bool {
	return c.NetProfit > minProfit
}

// amountsContinuous checks that each hop spends exactly what the previous one produced,
// within a relative tolerance.
func amountsContinuous(steps []TradeStep, tolerance float64) bool {
	for i := 1; i < len(steps); i++ {
		if !withinTolerance(steps[i-1].ExpectedOut, steps[i].AmountIn, tolerance) {
			return false
		}
	}
	return true
}

func withinTolerance(want, got, tolerance float64) bool {
	return math.Abs(want-got) <= tolerance*math.Abs(want)
}
