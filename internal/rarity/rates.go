package rarity

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeRate = errors.New("rarity rate must not be negative")
	ErrRatesSum     = errors.New("rarity rates must sum to 1")
)

// Rates holds the draw probability of each tier, indexed by Tier.
type Rates [NumTiers]float64

// DefaultRates returns the standard booster rate table.
func DefaultRates() Rates {
	return Rates{
		Secret:   0.005,
		Ultra:    0.02,
		RareHolo: 0.08,
		Rare:     0.15,
		Uncommon: 0.35,
		Common:   0.395,
	}
}

// Validate checks that no rate is negative and that the rates sum to exactly
// one. The sum is computed in decimal so that tables like 0.005 + ... + 0.395
// are not rejected over binary rounding.
func (r Rates) Validate() error {
	sum := decimal.Zero
	for _, t := range Tiers() {
		if r[t] < 0 {
			return fmt.Errorf("%w: %s=%v", ErrNegativeRate, t, r[t])
		}
		sum = sum.Add(decimal.NewFromFloat(r[t]))
	}
	if !sum.Equal(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: got %s", ErrRatesSum, sum.String())
	}
	return nil
}

// Thresholds returns the cumulative upper bound of each tier, in tier order.
func (r Rates) Thresholds() [NumTiers]float64 {
	var out [NumTiers]float64
	acc := 0.0
	for _, t := range Tiers() {
		acc += r[t]
		out[t] = acc
	}
	out[Common] = 1
	return out
}

// Pick maps u in [0,1) to a tier using cumulative thresholds, rarest first.
func (r Rates) Pick(u float64) Tier {
	bounds := r.Thresholds()
	for _, t := range Tiers() {
		if u < bounds[t] {
			return t
		}
	}
	return Common
}
