// Package pools holds the venue-neutral view of a CHEESE liquidity pool and everything
// derived from a snapshot of them: the reference price, the summary table, the trading
// edges fed to the cycle search and the pairwise gap analysis.
package pools

import (
	"strings"

	"hadydotai/cheese-client/arbitrage"
)

const (
	CheeseMint = "A3hzGcTxZNSc7744CWB2LR5Tt9VTtEaQYpP6nwripump"
	USDCMint   = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	SOLMint    = "So11111111111111111111111111111111111111112"

	// USDCReferencePool is the Meteora CHEESE/USDC pool whose reserve ratio sets the
	// reference CHEESE price.
	USDCReferencePool = "2rkTh46zo8wUvPJvACPTJ16RNUHEM9EZ1nLYkUxZEHkw"
)

var blacklist = map[string]string{
	"27VkFr6b6DHoR6hSYZjUDbwJsV6MPSFqPavXLg8nduHW": "OSHO",
}

// IsBlacklisted reports mints whose pools must never be traded through.
func IsBlacklisted(mint string) bool {
	_, ok := blacklist[mint]
	return ok
}

// Pool is a point-in-time snapshot of a two-sided pool. Amounts are in UI units (already
// scaled by the mint decimals), FeeRate is a fraction.
type Pool struct {
	Address     string
	Source      arbitrage.Source
	Name        string
	Type        string
	Mints       [2]string
	Symbols     [2]string // as reported by the venue, may be empty
	Amounts     [2]float64
	FeeRate     float64
	ReportedTVL float64
	Volume24h   float64
}

// Side returns the index of mint in the pool, or -1.
func (p Pool) Side(mint string) int {
	switch mint {
	case p.Mints[0]:
		return 0
	case p.Mints[1]:
		return 1
	}
	return -1
}

// Contains reports whether mint is one of the two pool tokens.
func (p Pool) Contains(mint string) bool { return p.Side(mint) >= 0 }

// Split orients the pool around mint: (its amount, other mint, other amount, other venue
// symbol). ok is false when mint isn't in the pool.
func (p Pool) Split(mint string) (amount float64, other string, otherAmount float64, otherSymbol string, ok bool) {
	i := p.Side(mint)
	if i < 0 {
		return 0, "", 0, "", false
	}
	j := 1 - i
	return p.Amounts[i], p.Mints[j], p.Amounts[j], p.Symbols[j], true
}

// ParseOtherTokenName picks the non-CHEESE half of a "A-B" pool name. Names that aren't
// exactly two parts come back unchanged.
func ParseOtherTokenName(poolName string) string {
	parts := strings.Split(poolName, "-")
	if len(parts) != 2 {
		return poolName
	}
	left, right := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	switch {
	case isCheeseName(left):
		return right
	case isCheeseName(right):
		return left
	}
	return right
}

func isCheeseName(s string) bool {
	return strings.Contains(s, "🧀") || strings.Contains(strings.ToLower(s), "cheese")
}

// ShortMint is the display fallback for mints without a symbol: the last four characters.
func ShortMint(mint string) string {
	if len(mint) <= 4 {
		return mint
	}
	return mint[len(mint)-4:]
}

// unknownSymbol is what venues return when they don't know a token.
const unknownSymbol = "???"

func knownSymbol(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && s != unknownSymbol
}
