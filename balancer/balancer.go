// Package balancer plans the trades and deposits that would pull every CHEESE pool toward
// a common fair price. It simulates against an in-memory wallet and never signs anything.
package balancer

import (
	"math"
	"sort"
)

const (
	DefaultTradeSize = 100.0 // CHEESE per rebalancing trade
	DefaultTargetTVL = 600.0 // USD
)

// PoolPrice is the part of a pool the balancer looks at.
type PoolPrice struct {
	Address string
	Name    string
	Price   float64 // implied CHEESE price in USD
	FeeRate float64 // fraction
	TVL     float64
}

type Wallet struct {
	Cheese float64
	Other  float64 // stable value, USD
}

type Kind int

const (
	Skip Kind = iota
	Sell
	Buy
	Deposit
)

func (k Kind) String() string {
	switch k {
	case Sell:
		return "sell"
	case Buy:
		return "buy"
	case Deposit:
		return "deposit"
	}
	return "skip"
}

type Action struct {
	Kind    Kind
	Pool    PoolPrice
	DiffPct float64
	// Executed is false when the wallet could not cover the action.
	Executed bool
	Cheese   float64 // signed change to the wallet
	Other    float64 // signed change to the wallet
	Reason   string
}

type Options struct {
	TradeSize float64
	TargetTVL float64
}

func DefaultOptions() Options {
	return Options{TradeSize: DefaultTradeSize, TargetTVL: DefaultTargetTVL}
}

// FairPrice is the mean of the positive prices, zero when there are none.
func FairPrice(prices []PoolPrice) float64 {
	var sum float64
	var n int
	for _, p := range prices {
		if p.Price > 0 {
			sum += p.Price
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// PercentDiff is the symmetric percentage difference |a-b| relative to their mean.
func PercentDiff(a, b float64) float64 {
	if a+b == 0 {
		return 0
	}
	return math.Abs(a-b) * 200 / (a + b)
}

// Plan walks the pools in order: a fixed-size trade wherever the gap to fair exceeds the
// pool fee, then deposits into every pool below the target TVL, thinnest first. It returns
// the actions and the wallet after applying the executed ones.
func Plan(prices []PoolPrice, fair float64, wallet Wallet, opts Options) ([]Action, Wallet) {
	if fair <= 0 {
		return nil, wallet
	}
	var actions []Action
	for _, p := range prices {
		if p.Price <= 0 {
			continue
		}
		diff := PercentDiff(p.Price, fair)
		feePct := p.FeeRate * 100
		if diff <= feePct {
			actions = append(actions, Action{Kind: Skip, Pool: p, DiffPct: diff, Reason: "within fee"})
			continue
		}
		if p.Price > fair {
			actions = append(actions, sell(p, diff, &wallet, opts.TradeSize))
		} else {
			actions = append(actions, buy(p, diff, &wallet, opts.TradeSize))
		}
	}

	thin := make([]PoolPrice, 0, len(prices))
	for _, p := range prices {
		if p.TVL < opts.TargetTVL {
			thin = append(thin, p)
		}
	}
	sort.SliceStable(thin, func(i, j int) bool { return thin[i].TVL < thin[j].TVL })
	for _, p := range thin {
		actions = append(actions, deposit(p, fair, &wallet, opts.TargetTVL))
	}
	return actions, wallet
}

func sell(p PoolPrice, diff float64, w *Wallet, size float64) Action {
	a := Action{Kind: Sell, Pool: p, DiffPct: diff}
	if w.Cheese < size {
		a.Reason = "not enough cheese"
		return a
	}
	stable := size * p.Price * (1 - p.FeeRate)
	w.Cheese -= size
	w.Other += stable
	a.Executed, a.Cheese, a.Other = true, -size, stable
	return a
}

func buy(p PoolPrice, diff float64, w *Wallet, size float64) Action {
	a := Action{Kind: Buy, Pool: p, DiffPct: diff}
	cost := size * p.Price
	if w.Other < cost {
		a.Reason = "not enough stable"
		return a
	}
	got := size * (1 - p.FeeRate)
	w.Other -= cost
	w.Cheese += got
	a.Executed, a.Cheese, a.Other = true, got, -cost
	return a
}

// deposit adds equal USD value of CHEESE and the other side to lift the pool to target.
func deposit(p PoolPrice, fair float64, w *Wallet, target float64) Action {
	a := Action{Kind: Deposit, Pool: p}
	half := (target - p.TVL) / 2
	cheese := half / fair
	switch {
	case w.Cheese < cheese:
		a.Reason = "not enough cheese"
	case w.Other < half:
		a.Reason = "not enough stable"
	default:
		w.Cheese -= cheese
		w.Other -= half
		a.Executed, a.Cheese, a.Other = true, -cheese, -half
	}
	return a
}
