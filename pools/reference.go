package pools

import (
	"errors"
	"fmt"
)

var (
	ErrReferencePoolMissing = errors.New("reference pool not found in snapshot")
	ErrReferencePoolEmpty   = errors.New("reference pool holds no cheese")
)

// Reference is the price anchor every other pool is compared against.
type Reference struct {
	Pool    string
	Price   float64 // of the base mint, in the quote currency of the pool
	FeeRate float64
}

// ReferencePrice derives the price of mint from the reserve ratio of the pool at address.
func ReferencePrice(snapshot []Pool, address, mint string) (Reference, error) {
	for _, p := range snapshot {
		if p.Address != address {
			continue
		}
		amount, _, other, _, ok := p.Split(mint)
		if !ok {
			return Reference{}, fmt.Errorf("reference pool %s does not hold %s", address, mint)
		}
		if amount <= 0 {
			return Reference{}, fmt.Errorf("%s: %w", address, ErrReferencePoolEmpty)
		}
		return Reference{Pool: address, Price: other / amount, FeeRate: p.FeeRate}, nil
	}
	return Reference{}, fmt.Errorf("%s: %w", address, ErrReferencePoolMissing)
}
