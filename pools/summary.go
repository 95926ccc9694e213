package pools

import (
	"sort"

	"hadydotai/cheese-client/arbitrage"
)

// SymbolLookup resolves a mint to a display symbol.
type SymbolLookup func(mint string) (string, bool)

// Row is one pool as seen from the CHEESE side.
type Row struct {
	Source      arbitrage.Source
	Address     string
	Type        string
	OtherMint   string
	OtherSymbol string
	CheeseQty   float64
	OtherQty    float64
	// OtherPrice is the market price of the other token, valid when OtherPriced.
	OtherPrice  float64
	OtherPriced bool
	TVL         float64
	Volume24h   float64
	FeeRate     float64
	// CheesePrice is the CHEESE price implied by this pool's reserves, or the reference
	// price when the other side can't be valued.
	CheesePrice float64
}

type Aggregates struct {
	TotalLiquidityUSD float64
	TotalVolume24h    float64
	Pools             int
	TotalCheese       float64
}

// Summarize turns a snapshot into display rows, sorted by CHEESE quantity (largest first),
// and their totals. Pools that don't hold CHEESE are left out.
func Summarize(snapshot []Pool, reference float64, prices arbitrage.PriceLookup, symbols SymbolLookup) ([]Row, Aggregates) {
	var (
		rows []Row
		agg  Aggregates
	)
	for _, p := range snapshot {
		cheese, other, otherQty, venueSymbol, ok := p.Split(CheeseMint)
		if !ok {
			continue
		}
		otherPrice, priced := lookup(prices, other)

		tvl := cheese*reference + otherQty*otherPrice
		implied := 0.0
		if cheese > 0 {
			implied = otherQty * otherPrice / cheese
		}
		if implied <= 0 {
			implied = reference
		}

		rows = append(rows, Row{
			Source:      p.Source,
			Address:     p.Address,
			Type:        p.Type,
			OtherMint:   other,
			OtherSymbol: resolveSymbol(other, venueSymbol, p.Name, symbols),
			CheeseQty:   cheese,
			OtherQty:    otherQty,
			OtherPrice:  otherPrice,
			OtherPriced: priced,
			TVL:         tvl,
			Volume24h:   p.Volume24h,
			FeeRate:     p.FeeRate,
			CheesePrice: implied,
		})
		agg.TotalLiquidityUSD += tvl
		agg.TotalVolume24h += p.Volume24h
		agg.TotalCheese += cheese
		agg.Pools++
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].CheeseQty > rows[j].CheeseQty })
	return rows, agg
}

// resolveSymbol prefers an explicit lookup, then what the venue reported, then the pool
// name and finally the tail of the mint.
func resolveSymbol(mint, venueSymbol, poolName string, symbols SymbolLookup) string {
	if symbols != nil {
		if s, ok := symbols(mint); ok && knownSymbol(s) {
			return s
		}
	}
	if knownSymbol(venueSymbol) {
		return venueSymbol
	}
	if poolName != "" {
		if s := ParseOtherTokenName(poolName); knownSymbol(s) {
			return s
		}
	}
	return ShortMint(mint)
}

func lookup(prices arbitrage.PriceLookup, mint string) (float64, bool) {
	if prices == nil {
		return 0, false
	}
	p, ok := prices(mint)
	if !ok || p < 0 {
		return 0, false
	}
	return p, true
}
