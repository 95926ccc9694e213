package pools

import (
	"math"
	"sort"

	"hadydotai/cheese-client/arbitrage"
)

// Direction says where the CHEESE is bought and where it is sold.
type Direction int

const (
	// SellHere buys CHEESE in the reference pool and sells it in the gapped pool.
	SellHere Direction = iota
	// BuyHere buys CHEESE in the gapped pool and sells it in the reference pool.
	BuyHere
)

func (d Direction) String() string {
	if d == BuyHere {
		return "buy here, sell in reference"
	}
	return "buy in reference, sell here"
}

type PairwiseOptions struct {
	// Source limits the analysis to one venue, SourceUnknown means all of them.
	Source arbitrage.Source
	// MinGapPct is the smallest |implied - reference| / reference, in percent, considered.
	MinGapPct float64
	// TradeFraction of the gapped pool's CHEESE is used as the trade size.
	TradeFraction float64
	Transactions  int
	// TxCost is the network cost of one transaction in SOL.
	TxCost float64
}

func DefaultPairwiseOptions() PairwiseOptions {
	return PairwiseOptions{
		Source:        arbitrage.SourceMeteora,
		MinGapPct:     1,
		TradeFraction: 0.1,
		Transactions:  2,
		TxCost:        arbitrage.DefaultTxCostPerHop,
	}
}

// Opportunity is a two-pool round trip between the reference pool and one other pool.
type Opportunity struct {
	Row          Row
	Direction    Direction
	ImpliedPrice float64
	GapPct       float64 // signed, relative to the reference price
	TradeSize    float64 // CHEESE
	TxCostUSD    float64
	ReferenceFee float64 // USD paid in the reference pool
	PoolFee      float64 // USD paid in the gapped pool
	TotalFees    float64
	GrossProfit  float64
	NetProfit    float64
}

// PairwiseOpportunities compares every row's implied CHEESE price to the reference pool
// and keeps the round trips that clear fees, largest absolute gap first.
func PairwiseOpportunities(rows []Row, ref Reference, solPrice float64, opts PairwiseOptions) []Opportunity {
	if ref.Price <= 0 {
		return nil
	}
	var out []Opportunity
	for _, r := range rows {
		if r.Address == ref.Pool {
			continue
		}
		if opts.Source != arbitrage.SourceUnknown && r.Source != opts.Source {
			continue
		}
		if r.CheeseQty <= 0 || r.OtherQty <= 0 {
			continue
		}
		otherPrice := r.OtherPrice
		if !r.OtherPriced {
			// Unpriced tokens are valued so that the pool sits exactly on the reference.
			otherPrice = r.CheeseQty * ref.Price / r.OtherQty
		}
		implied := r.OtherQty * otherPrice / r.CheeseQty
		gap := (implied - ref.Price) / ref.Price * 100
		if math.Abs(gap) <= opts.MinGapPct {
			continue
		}

		size := r.CheeseQty * opts.TradeFraction
		txCost := float64(opts.Transactions) * opts.TxCost * solPrice
		refFee := size * ref.Price * ref.FeeRate
		poolFee := size * implied * r.FeeRate
		total := txCost + refFee + poolFee
		gross := size * math.Abs(implied-ref.Price)
		net := gross - total
		if net <= 0 {
			continue
		}

		dir := BuyHere
		if implied > ref.Price {
			dir = SellHere
		}
		out = append(out, Opportunity{
			Row:          r,
			Direction:    dir,
			ImpliedPrice: implied,
			GapPct:       gap,
			TradeSize:    size,
			TxCostUSD:    txCost,
			ReferenceFee: refFee,
			PoolFee:      poolFee,
			TotalFees:    total,
			GrossProfit:  gross,
			NetProfit:    net,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].GapPct) > math.Abs(out[j].GapPct)
	})
	return out
}
