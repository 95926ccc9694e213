package arbitrage

import "math"

// Quote is the result of simulating one swap against an edge snapshot.
type Quote struct {
	AmountIn         float64
	AmountInAfterFee float64
	FeeAmount        float64
	ExpectedOut      float64
	// PriceImpact is the relative drop of the marginal price caused by the trade, [0, 1).
	PriceImpact float64
}

// QuoteOut (selling) simulates putting amountIn of TokenIn into the pool and reports how
// much TokenOut comes back. The fee is taken off the input before it reaches the reserve.
//
//	K = X*Y = (X + dX) * (Y - dY)
//	=> (X * Y) / (X + dX) = Y - dY
//	=> dY = Y - (X * Y) / (X + dX)
//
// ok is false when the edge has an empty side, the input isn't positive, or the output
// degenerates (NaN or non-positive). The edge is never modified.
func QuoteOut(edge PoolEdge, amountIn float64) (Quote, bool) {
	if !(amountIn > 0) || math.IsInf(amountIn, 0) {
		return Quote{}, false
	}
	if !edge.Usable() {
		return Quote{}, false
	}
	reserveIn, reserveOut := edge.ReserveIn, edge.ReserveOut
	afterFee := amountIn * (1 - edge.FeeRate)
	newReserveIn := reserveIn + afterFee
	newReserveOut := (reserveIn * reserveOut) / newReserveIn
	expectedOut := reserveOut - newReserveOut
	if math.IsNaN(expectedOut) || expectedOut <= 0 {
		return Quote{}, false
	}
	priceBefore := reserveOut / reserveIn
	priceAfter := newReserveOut / newReserveIn
	return Quote{
		AmountIn:         amountIn,
		AmountInAfterFee: afterFee,
		FeeAmount:        amountIn - afterFee,
		ExpectedOut:      expectedOut,
		PriceImpact:      (priceBefore - priceAfter) / priceBefore,
	}, true
}

// QuoteIn (buying) works backwards from the amount of TokenOut wanted to the gross amount
// of TokenIn the pool needs, fee included.
//
//	(X * Y) / (Y - dY) = X + dX
//	=> dX = (X * Y) / (Y - dY) - X
//
// Asking for the whole out reserve, or more, can't be quoted.
func QuoteIn(edge PoolEdge, amountOut float64) (Quote, bool) {
	if !(amountOut > 0) || math.IsInf(amountOut, 0) {
		return Quote{}, false
	}
	if !edge.Usable() || amountOut >= edge.ReserveOut || edge.FeeRate >= 1 {
		return Quote{}, false
	}
	reserveIn, reserveOut := edge.ReserveIn, edge.ReserveOut
	newReserveOut := reserveOut - amountOut
	newReserveIn := (reserveIn * reserveOut) / newReserveOut
	netIn := newReserveIn - reserveIn
	if math.IsNaN(netIn) || netIn <= 0 {
		return Quote{}, false
	}
	grossIn := netIn / (1 - edge.FeeRate)
	priceBefore := reserveOut / reserveIn
	priceAfter := newReserveOut / newReserveIn
	return Quote{
		AmountIn:         grossIn,
		AmountInAfterFee: netIn,
		FeeAmount:        grossIn - netIn,
		ExpectedOut:      amountOut,
		PriceImpact:      (priceBefore - priceAfter) / priceBefore,
	}, true
}

// ClampToReserve caps a trade at maxFraction of the input reserve. A non-positive
// maxFraction disables the cap.
func ClampToReserve(amountIn, reserveIn, maxFraction float64) float64 {
	if maxFraction <= 0 {
		return amountIn
	}
	return math.Min(amountIn, reserveIn*maxFraction)
}

// SlippageFloor is the minimum amount accepted on the way out, pct in percent.
func SlippageFloor(amount, pct float64) float64 {
	if pct <= 0 {
		return amount
	}
	return amount * (1 - pct/100)
}

// SlippageCeil is the maximum amount paid on the way in, pct in percent.
func SlippageCeil(amount, pct float64) float64 {
	if pct <= 0 {
		return amount
	}
	return amount * (1 + pct/100)
}
