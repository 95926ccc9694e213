package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"hadydotai/cheese-client/arbitrage"
	"hadydotai/cheese-client/pools"
)

type SwapDir uint8

const (
	SwapDirUnknown SwapDir = iota
	SwapDirSell
	SwapDirBuy
)

// SwapKind says which side of the trade the user fixed.
type SwapKind uint8

const (
	SwapKindUnknown SwapKind = iota
	SwapKindBaseInput
	SwapKindBaseOutput
)

type IntentInstruction struct {
	Verb         string
	AmountStr    string
	Amount       float64
	Dir          SwapDir
	TargetSymbol string
}

func (ii *IntentInstruction) String() string {
	if ii.TargetSymbol == "" {
		return fmt.Sprintf("%s %s", ii.Verb, ii.AmountStr)
	}
	return fmt.Sprintf("%s %s %s", ii.Verb, ii.AmountStr, ii.TargetSymbol)
}

func parseIntent(intentLine string) (*IntentInstruction, error) {
	intentParts := strings.Fields(intentLine)
	if len(intentParts) != 3 {
		return nil, errors.New("intent instructions must be <verb> <amount> <token-symbol>")
	}
	verb := strings.ToLower(intentParts[0])
	dir, err := verbToSwapDir(verb)
	if err != nil {
		return nil, err
	}
	amountStr := strings.ReplaceAll(intentParts[1], ",", "")
	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return nil, fmt.Errorf("amount %q is not a number", intentParts[1])
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount %q must be positive", intentParts[1])
	}
	return &IntentInstruction{
		Verb:         verb,
		AmountStr:    amountStr,
		Amount:       amount,
		Dir:          dir,
		TargetSymbol: strings.ToUpper(intentParts[2]),
	}, nil
}

func verbToSwapDir(verb string) (SwapDir, error) {
	switch verb {
	case "pay", "sell", "swap":
		return SwapDirSell, nil
	case "buy", "get":
		return SwapDirBuy, nil
	default:
		return SwapDirUnknown, fmt.Errorf("verb(%s) has no clear swap direction", verb)
	}
}

// QuoteIntent is a user instruction resolved against one pool snapshot.
type QuoteIntent struct {
	Instruction *IntentInstruction
	Pool        pools.Pool
	TargetMint  string
	CounterMint string
	Dir         SwapDir
	SwapKind    SwapKind
	SlippagePct float64

	TokenIn  string
	TokenOut string
	Quote    arbitrage.Quote

	// KnownAmount is what the user typed, QuoteAmount the counter side computed by the curve.
	KnownAmount  float64
	QuoteAmount  float64
	MinAmountOut float64 // sells
	MaxAmountIn  float64 // buys
}

func (qi *QuoteIntent) String() string {
	if qi == nil || qi.Instruction == nil {
		return ""
	}
	return qi.Instruction.String()
}

// edge orients pool so that tokenIn is sold into it.
func poolEdge(pool pools.Pool, tokenIn string) (arbitrage.PoolEdge, error) {
	i := pool.Side(tokenIn)
	if i < 0 {
		return arbitrage.PoolEdge{}, fmt.Errorf("token %s not part of pool", shortAddr(tokenIn))
	}
	e := arbitrage.PoolEdge{
		PoolAddress: pool.Address,
		Source:      pool.Source,
		TokenIn:     pool.Mints[i],
		TokenOut:    pool.Mints[1-i],
		FeeRate:     pool.FeeRate,
		TVL:         pool.ReportedTVL,
		ReserveIn:   pool.Amounts[i],
		ReserveOut:  pool.Amounts[1-i],
	}
	return e, e.Validate()
}

// NewQuoteIntent prices instruction against pool. Sells fix the input and floor the output
// by the slippage, buys fix the output and cap the input.
func NewQuoteIntent(pool pools.Pool, instruction *IntentInstruction, targetMint string, slippagePct float64) (*QuoteIntent, error) {
	if instruction == nil {
		return nil, errors.New("intent instruction missing")
	}
	if slippagePct < 0 || slippagePct >= 100 {
		return nil, fmt.Errorf("slippage %v%% must be in [0, 100)", slippagePct)
	}
	side := pool.Side(targetMint)
	if side < 0 {
		return nil, fmt.Errorf("token %s not part of pool", shortAddr(targetMint))
	}
	counter := pool.Mints[1-side]

	intent := &QuoteIntent{
		Instruction: instruction,
		Pool:        pool,
		TargetMint:  targetMint,
		CounterMint: counter,
		Dir:         instruction.Dir,
		SlippagePct: slippagePct,
		KnownAmount: instruction.Amount,
	}

	switch instruction.Dir {
	case SwapDirSell:
		intent.SwapKind = SwapKindBaseInput
		intent.TokenIn, intent.TokenOut = targetMint, counter
		edge, err := poolEdge(pool, targetMint)
		if err != nil {
			return nil, err
		}
		q, ok := arbitrage.QuoteOut(edge, instruction.Amount)
		if !ok {
			return nil, fmt.Errorf("pool %s cannot quote selling %s", shortAddr(pool.Address), instruction.AmountStr)
		}
		intent.Quote = q
		intent.QuoteAmount = q.ExpectedOut
		intent.MinAmountOut = arbitrage.SlippageFloor(q.ExpectedOut, slippagePct)
	case SwapDirBuy:
		intent.SwapKind = SwapKindBaseOutput
		intent.TokenIn, intent.TokenOut = counter, targetMint
		edge, err := poolEdge(pool, counter)
		if err != nil {
			return nil, err
		}
		q, ok := arbitrage.QuoteIn(edge, instruction.Amount)
		if !ok {
			return nil, fmt.Errorf("pool %s cannot deliver %s, reserve is %s", shortAddr(pool.Address), instruction.AmountStr, fmtAmount(edge.ReserveOut))
		}
		intent.Quote = q
		intent.QuoteAmount = q.AmountIn
		intent.MaxAmountIn = arbitrage.SlippageCeil(q.AmountIn, slippagePct)
	default:
		return nil, fmt.Errorf("swap direction unknown for verb %s", instruction.Verb)
	}
	return intent, nil
}

// resolveIntentMint maps the instruction's symbol onto one of the pool's mints. A raw mint
// address is accepted too.
func resolveIntentMint(symm *SymbolMapping, pool pools.Pool, instruction *IntentInstruction) (string, error) {
	for _, m := range pool.Mints {
		if strings.EqualFold(m, instruction.TargetSymbol) {
			return m, nil
		}
	}
	if mint, ok := symm.MaybeMintFromSym(instruction.TargetSymbol); ok && pool.Contains(mint) {
		return mint, nil
	}
	if candidate, ok := symm.UnresolvedCandidate(pool.Mints[0], pool.Mints[1]); ok {
		return "", &MissingSymbolMappingError{Symbol: instruction.TargetSymbol, Mint: candidate}
	}
	return "", fmt.Errorf("the ticker symbol you provided is either missing from our mapping or isn't part of the pool's pair: %s", instruction.TargetSymbol)
}
