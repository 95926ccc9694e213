package pools

import (
	"fmt"

	"hadydotai/cheese-client/arbitrage"
)

// BuildEdges expands every usable pool into its two trading directions. TVL is recomputed
// from both sides: cheeseMint is valued at reference, everything else through prices.
// Pools that touch a blacklisted mint or fail validation are returned in skipped, with
// the reason, and produce no edges.
func BuildEdges(snapshot []Pool, cheeseMint string, reference float64, prices arbitrage.PriceLookup) (edges []arbitrage.PoolEdge, skipped []error) {
	price := func(mint string) float64 {
		if mint == cheeseMint {
			return reference
		}
		p, _ := lookup(prices, mint)
		return p
	}

	for _, p := range snapshot {
		if IsBlacklisted(p.Mints[0]) || IsBlacklisted(p.Mints[1]) {
			skipped = append(skipped, fmt.Errorf("pool %s: blacklisted token", p.Address))
			continue
		}
		forward := arbitrage.PoolEdge{
			PoolAddress: p.Address,
			Source:      p.Source,
			TokenIn:     p.Mints[0],
			TokenOut:    p.Mints[1],
			FeeRate:     p.FeeRate,
			TVL:         p.Amounts[0]*price(p.Mints[0]) + p.Amounts[1]*price(p.Mints[1]),
			ReserveIn:   p.Amounts[0],
			ReserveOut:  p.Amounts[1],
		}
		if err := forward.Validate(); err != nil {
			skipped = append(skipped, err)
			continue
		}
		edges = append(edges, forward, forward.Reverse())
	}
	return edges, skipped
}
