package arbitrage

import (
	"errors"
	"fmt"
	"math"
)

// Source identifies the venue a pool was listed on.
type Source uint8

const (
	SourceUnknown Source = iota
	SourceMeteora
	SourceRaydium
)

func (s Source) String() string {
	switch s {
	case SourceMeteora:
		return "Meteora"
	case SourceRaydium:
		return "Raydium"
	default:
		return "Unknown"
	}
}

// PoolEdge is one trading direction through a pool: sell TokenIn, receive TokenOut.
// A two-sided pool produces two edges sharing the same PoolAddress.
type PoolEdge struct {
	PoolAddress string
	Source      Source
	TokenIn     string
	TokenOut    string
	FeeRate     float64 // fraction of the input amount, [0, 1)
	TVL         float64 // USD
	ReserveIn   float64
	ReserveOut  float64
}

// Usable reports whether both reserves are positive, i.e. the pool can be quoted at all.
func (e PoolEdge) Usable() bool {
	return e.ReserveIn > 0 && e.ReserveOut > 0
}

// Eligible reports whether the pool carries enough liquidity to be traversed.
func (e PoolEdge) Eligible(minTVL float64) bool {
	return e.TVL >= minTVL
}

// Validate rejects snapshots that can't be represented as a constant-product edge. Empty
// reserves are fine here, the simulator refuses to quote them.
func (e PoolEdge) Validate() error {
	if e.PoolAddress == "" {
		return errors.New("edge is missing its pool address")
	}
	if e.TokenIn == "" || e.TokenOut == "" {
		return fmt.Errorf("edge %s is missing a token mint", e.PoolAddress)
	}
	if e.TokenIn == e.TokenOut {
		return fmt.Errorf("edge %s trades %s against itself", e.PoolAddress, e.TokenIn)
	}
	for name, v := range map[string]float64{"fee rate": e.FeeRate, "tvl": e.TVL, "reserve in": e.ReserveIn, "reserve out": e.ReserveOut} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("edge %s has a non-finite %s", e.PoolAddress, name)
		}
		if v < 0 {
			return fmt.Errorf("edge %s has a negative %s (%g)", e.PoolAddress, name, v)
		}
	}
	if e.FeeRate >= 1 {
		return fmt.Errorf("edge %s fee rate %g must be below 1", e.PoolAddress, e.FeeRate)
	}
	return nil
}

// Reverse returns the opposite trading direction through the same pool.
func (e PoolEdge) Reverse() PoolEdge {
	r := e
	r.TokenIn, r.TokenOut = e.TokenOut, e.TokenIn
	r.ReserveIn, r.ReserveOut = e.ReserveOut, e.ReserveIn
	return r
}

// TradeStep is a single simulated hop of a candidate cycle.
type TradeStep struct {
	PoolAddress string
	Source      Source
	SellToken   string
	BuyToken    string
	AmountIn    float64
	ExpectedOut float64
	FeePercent  float64
}

// ArbitrageCycle is a closed loop back to the reference token that cleared the profit
// threshold. Values are in the reference currency (USDC for the CHEESE tooling).
type ArbitrageCycle struct {
	Steps         []TradeStep
	InitialAmount float64
	FinalAmount   float64
	InitialValue  float64
	FinalValue    float64
	NetworkFees   float64
	PoolFees      float64
	TotalFees     float64
	GrossProfit   float64
	NetProfit     float64
}

func (c ArbitrageCycle) Hops() int { return len(c.Steps) }

// Pools lists the pool addresses in traversal order.
func (c ArbitrageCycle) Pools() []string {
	out := make([]string, len(c.Steps))
	for i, s := range c.Steps {
		out[i] = s.PoolAddress
	}
	return out
}

// Tokens lists the token route, first sell token through to the final buy token.
func (c ArbitrageCycle) Tokens() []string {
	if len(c.Steps) == 0 {
		return nil
	}
	out := make([]string, 0, len(c.Steps)+1)
	out = append(out, c.Steps[0].SellToken)
	for _, s := range c.Steps {
		out = append(out, s.BuyToken)
	}
	return out
}

// ROI is net profit over the initial value, zero when the entry has no known value.
func (c ArbitrageCycle) ROI() float64 {
	if c.InitialValue <= 0 {
		return 0
	}
	return c.NetProfit / c.InitialValue
}
