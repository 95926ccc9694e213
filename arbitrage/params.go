package arbitrage

import (
	"errors"
	"fmt"
)

const (
	DefaultTradeFraction       = 0.1
	DefaultMinTVL              = 10.0
	DefaultMinProfit           = 1.0
	DefaultMaxHops             = 4
	DefaultMaxReserveFraction  = 0.3
	DefaultContinuityTolerance = 1e-6
	// DefaultTxCostPerHop is the approximate network fee of one Solana transaction, in SOL.
	DefaultTxCostPerHop = 0.000005
)

// Params holds the knobs of a single search. Nothing here is retained between calls.
type Params struct {
	// ReferenceToken is the mint every cycle starts from and returns to.
	ReferenceToken string
	// ReferenceHoldings is how much of the reference token we hold; the search spends
	// TradeFraction of it on each root edge.
	ReferenceHoldings float64
	TradeFraction     float64

	MinTVL    float64
	MinProfit float64
	MaxHops   int
	// MaxReserveFraction caps a hop's input at this share of the pool's input reserve to
	// bound price impact. Zero disables the cap.
	MaxReserveFraction  float64
	ContinuityTolerance float64

	// TxCostPerHop is the fixed network cost of one hop, denominated in FeeToken. An empty
	// FeeToken means the cost is denominated in the reference token.
	TxCostPerHop float64
	FeeToken     string

	// HopValueGuard prunes hops whose output is worth less than the input minus twice the
	// pool fee.
	HopValueGuard bool
	// StrictPrices drops cycles that touch a token without a known price instead of
	// valuing it at zero.
	StrictPrices bool
	// MaxRoots bounds how many root edges get searched, zero means all of them.
	MaxRoots int
}

// DefaultParams mirrors the thresholds the CHEESE tooling has always used.
func DefaultParams(referenceToken string) Params {
	return Params{
		ReferenceToken:      referenceToken,
		ReferenceHoldings:   5_000_000,
		TradeFraction:       DefaultTradeFraction,
		MinTVL:              DefaultMinTVL,
		MinProfit:           DefaultMinProfit,
		MaxHops:             DefaultMaxHops,
		MaxReserveFraction:  DefaultMaxReserveFraction,
		ContinuityTolerance: DefaultContinuityTolerance,
		TxCostPerHop:        DefaultTxCostPerHop,
	}
}

// TradeBudget is the amount of reference token each root search starts with.
func (p Params) TradeBudget() float64 {
	return p.ReferenceHoldings * p.TradeFraction
}

func (p Params) Validate() error {
	if p.ReferenceToken == "" {
		return errors.New("reference token is required")
	}
	if p.ReferenceHoldings <= 0 {
		return fmt.Errorf("reference holdings must be positive, got %g", p.ReferenceHoldings)
	}
	if p.TradeFraction <= 0 || p.TradeFraction > 1 {
		return fmt.Errorf("trade fraction must be in (0, 1], got %g", p.TradeFraction)
	}
	if p.MaxHops < 2 {
		return fmt.Errorf("max hops must be at least 2, got %d", p.MaxHops)
	}
	if p.MaxReserveFraction < 0 || p.MaxReserveFraction >= 1 {
		return fmt.Errorf("max reserve fraction must be in [0, 1), got %g", p.MaxReserveFraction)
	}
	if p.ContinuityTolerance < 0 {
		return fmt.Errorf("continuity tolerance must not be negative, got %g", p.ContinuityTolerance)
	}
	if p.TxCostPerHop < 0 {
		return fmt.Errorf("tx cost per hop must not be negative, got %g", p.TxCostPerHop)
	}
	if p.MinTVL < 0 {
		return fmt.Errorf("min tvl must not be negative, got %g", p.MinTVL)
	}
	if p.MaxRoots < 0 {
		return fmt.Errorf("max roots must not be negative, got %d", p.MaxRoots)
	}
	return nil
}
