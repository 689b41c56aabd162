package pack

import (
	"sync"

	"github.com/arcanaland/boosterpack/internal/card"
	"github.com/arcanaland/boosterpack/internal/rarity"
)

// RNG abstracts random number generation for deterministic testing.
// *rand.Rand from math/rand/v2 satisfies it.
type RNG interface {
	// Float64 returns a pseudo-random number in [0, 1).
	Float64() float64
	// IntN returns a non-negative pseudo-random int in [0, n).
	IntN(n int) int
}

// Generator draws packs from rarity pools. It is safe for concurrent use.
type Generator struct {
	mu    sync.Mutex
	rates rarity.Rates
	size  int
	rng   RNG
}

// NewGenerator validates the rate table and pack size and returns a
// generator drawing from rng.
func NewGenerator(rates rarity.Rates, size int, rng RNG) (*Generator, error) {
	if err := rates.Validate(); err != nil {
		return nil, err
	}
	if size < 1 {
		return nil, ErrInvalidPackSize
	}
	if rng == nil {
		return nil, ErrNilRNG
	}
	return &Generator{rates: rates, size: size, rng: rng}, nil
}

// Size returns the number of slots per pack.
func (g *Generator) Size() int { return g.size }

// Rates returns the rate table.
func (g *Generator) Rates() rarity.Rates { return g.rates }

// Generate fills Size slots. Each slot maps a uniform draw to a tier through
// the cumulative rate table and takes a uniform card from that tier's pool.
// If the tier's pool is empty the card comes from the whole catalog and the
// slot is reported as Common. The last slot is forced to rare-or-better when
// no earlier slot was rare.
func (g *Generator) Generate(pools Pools) (Pack, error) {
	if pools.Len() == 0 {
		return Pack{}, ErrEmptyCatalog
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	slots := make([]Slot, 0, g.size)
	hasRare := false
	for i := 0; i < g.size; i++ {
		u := g.rng.Float64()

		var s Slot
		if i == g.size-1 && !hasRare {
			s = g.forced(pools)
		} else {
			s = g.weighted(pools, u)
		}

		s.Position = i
		s.IsRare = s.Tier.IsRare()
		if s.IsRare {
			hasRare = true
		}
		slots = append(slots, s)
	}

	return Pack{Slots: slots}, nil
}

func (g *Generator) weighted(pools Pools, u float64) Slot {
	tier := g.rates.Pick(u)
	if pool := pools.Tier(tier); len(pool) > 0 {
		return Slot{Card: g.pick(pool), Tier: tier}
	}
	return Slot{Card: g.pick(pools.All()), Tier: rarity.Common, Fallback: true}
}

// forced draws uniformly over the union of the rare-or-better pools. With no
// rare-or-better card in the catalog it takes the highest non-empty lower
// tier; that slot is still marked Forced but is not rare.
func (g *Generator) forced(pools Pools) Slot {
	total := 0
	for _, t := range rarity.RareTiers() {
		total += len(pools.Tier(t))
	}
	if total > 0 {
		n := g.rng.IntN(total)
		for _, t := range rarity.RareTiers() {
			pool := pools.Tier(t)
			if n < len(pool) {
				return Slot{Card: pool[n], Tier: t, Forced: true}
			}
			n -= len(pool)
		}
	}

	for _, t := range []rarity.Tier{rarity.Uncommon, rarity.Common} {
		if pool := pools.Tier(t); len(pool) > 0 {
			return Slot{Card: g.pick(pool), Tier: t, Forced: true}
		}
	}

	// Unreachable: Generate rejects empty pools and every card has a tier.
	return Slot{Card: g.pick(pools.All()), Tier: rarity.Common, Forced: true, Fallback: true}
}

func (g *Generator) pick(cards []card.Card) card.Card {
	return cards[g.rng.IntN(len(cards))]
}
