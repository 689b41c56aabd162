package pack

import (
	"github.com/arcanaland/boosterpack/internal/card"
	"github.com/arcanaland/boosterpack/internal/rarity"
)

// Pools is a catalog split into one card pool per rarity tier. An empty pool
// is valid.
type Pools struct {
	tiers   [rarity.NumTiers][]card.Card
	catalog []card.Card
}

// Partition classifies every card of catalog into exactly one tier using the
// default ordered rules.
func Partition(catalog []card.Card) Pools {
	return PartitionWith(catalog, rarity.DefaultRules())
}

// PartitionWith classifies cards with a custom ordered rule list.
func PartitionWith(catalog []card.Card, rules []rarity.Rule) Pools {
	p := Pools{catalog: make([]card.Card, len(catalog))}
	copy(p.catalog, catalog)
	for _, c := range p.catalog {
		t := rarity.ClassifyWith(rules, c.Rarity)
		p.tiers[t] = append(p.tiers[t], c)
	}
	return p
}

// Tier returns the pool for t.
func (p Pools) Tier(t rarity.Tier) []card.Card {
	if !t.Valid() {
		return nil
	}
	return p.tiers[t]
}

// All returns the whole catalog the pools were built from.
func (p Pools) All() []card.Card {
	return p.catalog
}

// Len returns the number of cards across all pools.
func (p Pools) Len() int {
	return len(p.catalog)
}

// Counts returns the pool size of each tier.
func (p Pools) Counts() map[rarity.Tier]int {
	out := make(map[rarity.Tier]int, rarity.NumTiers)
	for _, t := range rarity.Tiers() {
		out[t] = len(p.tiers[t])
	}
	return out
}

// HasRare reports whether any rare-or-better pool has cards.
func (p Pools) HasRare() bool {
	for _, t := range rarity.RareTiers() {
		if len(p.tiers[t]) > 0 {
			return true
		}
	}
	return false
}
