package pack_test

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/boosterpack/internal/card"
	"github.com/arcanaland/boosterpack/internal/pack"
	"github.com/arcanaland/boosterpack/internal/rarity"
)

// scriptedRNG returns Float64 values from a fixed sequence; IntN always
// returns the same index modulo n.
type scriptedRNG struct {
	floats []float64
	idx    int
	intn   int
}

func (r *scriptedRNG) Float64() float64 {
	v := r.floats[r.idx%len(r.floats)]
	r.idx++
	return v
}

func (r *scriptedRNG) IntN(n int) int { return r.intn % n }

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func cards(prefix, label string, n int) []card.Card {
	out := make([]card.Card, n)
	for i := range n {
		out[i] = card.Card{
			ID:     fmt.Sprintf("%s-%03d", prefix, i),
			Name:   fmt.Sprintf("%s %d", label, i),
			Rarity: label,
		}
	}
	return out
}

func evenCatalog(perTier int) []card.Card {
	var out []card.Card
	out = append(out, cards("sec", "Secret Rare", perTier)...)
	out = append(out, cards("ult", "Ultra Rare", perTier)...)
	out = append(out, cards("hol", "Rare Holo", perTier)...)
	out = append(out, cards("rar", "Rare", perTier)...)
	out = append(out, cards("unc", "Uncommon", perTier)...)
	out = append(out, cards("com", "Common", perTier)...)
	return out
}

func newGenerator(t *testing.T, rng pack.RNG) *pack.Generator {
	t.Helper()
	g, err := pack.NewGenerator(rarity.DefaultRates(), pack.DefaultSize, rng)
	require.NoError(t, err)
	return g
}

func TestPartition_EachCardInExactlyOneTier(t *testing.T) {
	catalog := evenCatalog(3)
	catalog = append(catalog, card.Card{ID: "odd", Name: "Odd", Rarity: "Promo"})

	pools := pack.Partition(catalog)

	assert.Equal(t, len(catalog), pools.Len())
	total := 0
	for _, tier := range rarity.Tiers() {
		for _, c := range pools.Tier(tier) {
			assert.Equal(t, tier, rarity.Classify(c.Rarity))
		}
		total += len(pools.Tier(tier))
	}
	assert.Equal(t, len(catalog), total)
	assert.Len(t, pools.Tier(rarity.Common), 4, "unrecognized labels fall into Common")
	assert.True(t, pools.HasRare())
}

func TestPartition_EmptyBucketsAllowed(t *testing.T) {
	pools := pack.Partition(cards("com", "Common", 4))
	assert.Empty(t, pools.Tier(rarity.Secret))
	assert.False(t, pools.HasRare())
	assert.Equal(t, 4, pools.Counts()[rarity.Common])
}

func TestNewGenerator_Validation(t *testing.T) {
	_, err := pack.NewGenerator(rarity.DefaultRates(), 0, seeded(1))
	assert.ErrorIs(t, err, pack.ErrInvalidPackSize)

	_, err = pack.NewGenerator(rarity.DefaultRates(), 5, nil)
	assert.ErrorIs(t, err, pack.ErrNilRNG)

	bad := rarity.DefaultRates()
	bad[rarity.Common] = 0
	_, err = pack.NewGenerator(bad, 5, seeded(1))
	assert.ErrorIs(t, err, rarity.ErrRatesSum)
}

func TestGenerate_EmptyCatalog(t *testing.T) {
	g := newGenerator(t, seeded(1))
	_, err := g.Generate(pack.Partition(nil))
	assert.ErrorIs(t, err, pack.ErrEmptyCatalog)
}

func TestGenerate_PackSizeAlwaysExact(t *testing.T) {
	catalogs := map[string][]card.Card{
		"even":        evenCatalog(4),
		"commonsOnly": cards("com", "Common", 2),
		"single":      cards("rar", "Rare", 1),
	}
	for name, catalog := range catalogs {
		for size := 1; size <= 8; size++ {
			g, err := pack.NewGenerator(rarity.DefaultRates(), size, seeded(uint64(size)))
			require.NoError(t, err)
			p, err := g.Generate(pack.Partition(catalog))
			require.NoErrorf(t, err, "%s size %d", name, size)
			require.Lenf(t, p.Slots, size, "%s size %d", name, size)
			for i, s := range p.Slots {
				assert.Equal(t, i, s.Position)
				assert.NotEmpty(t, s.Card.ID)
			}
		}
	}
}

func TestGenerate_GuaranteedRare(t *testing.T) {
	catalog := append(cards("com", "Common", 60), cards("rar", "Rare", 1)...)
	pools := pack.Partition(catalog)
	g := newGenerator(t, seeded(7))

	for i := range 5000 {
		p, err := g.Generate(pools)
		require.NoError(t, err)
		require.Truef(t, p.HasRare(), "pack %d has no rare: %+v", i, p.Slots)
	}
}

func TestGenerate_ForcedOnlyWhenNoEarlierRare(t *testing.T) {
	pools := pack.Partition(evenCatalog(5))
	g := newGenerator(t, seeded(11))

	for range 2000 {
		p, err := g.Generate(pools)
		require.NoError(t, err)
		earlierRare := false
		for _, s := range p.Slots[:len(p.Slots)-1] {
			assert.False(t, s.Forced)
			earlierRare = earlierRare || s.IsRare
		}
		last := p.Slots[len(p.Slots)-1]
		assert.Equal(t, !earlierRare, last.Forced)
		if last.Forced {
			assert.True(t, last.IsRare)
		}
	}
}

func TestGenerate_DistributionMatchesRates(t *testing.T) {
	pools := pack.Partition(evenCatalog(20))
	g := newGenerator(t, seeded(42))
	rates := rarity.DefaultRates()

	counts := make(map[rarity.Tier]int)
	total := 0
	for range 10000 {
		p, err := g.Generate(pools)
		require.NoError(t, err)
		for _, s := range p.Slots {
			if s.Forced {
				continue
			}
			require.False(t, s.Fallback)
			counts[s.Tier]++
			total++
		}
	}

	for _, tier := range rarity.Tiers() {
		got := float64(counts[tier]) / float64(total)
		assert.InDeltaf(t, rates[tier], got, 0.015, "tier %s: want %.3f got %.3f", tier, rates[tier], got)
	}
}

func TestGenerate_EmptyTierNeverReported(t *testing.T) {
	// No Secret or Ultra cards at all.
	var catalog []card.Card
	catalog = append(catalog, cards("hol", "Rare Holo", 5)...)
	catalog = append(catalog, cards("rar", "Rare", 5)...)
	catalog = append(catalog, cards("unc", "Uncommon", 5)...)
	catalog = append(catalog, cards("com", "Common", 5)...)
	pools := pack.Partition(catalog)
	g := newGenerator(t, seeded(3))

	fallbacks := 0
	for range 5000 {
		p, err := g.Generate(pools)
		require.NoError(t, err)
		for _, s := range p.Slots {
			assert.NotEqual(t, rarity.Secret, s.Tier)
			assert.NotEqual(t, rarity.Ultra, s.Tier)
			if s.Fallback {
				fallbacks++
				assert.Equal(t, rarity.Common, s.Tier)
				assert.False(t, s.IsRare)
			}
		}
	}
	assert.Positive(t, fallbacks, "2.5% of draws hit the empty tiers")
}

func TestGenerate_ScenarioA_CommonsAndFewRares(t *testing.T) {
	catalog := append(cards("com", "Common", 100), cards("rar", "Rare", 5)...)
	pools := pack.Partition(catalog)

	for seed := range uint64(500) {
		g := newGenerator(t, seeded(seed))
		p, err := g.Generate(pools)
		require.NoError(t, err)
		require.Len(t, p.Slots, 5)

		earlierRare := false
		for _, s := range p.Slots[:4] {
			assert.Contains(t, []rarity.Tier{rarity.Rare, rarity.Common}, s.Tier)
			earlierRare = earlierRare || s.IsRare
		}
		if !earlierRare {
			last := p.Slots[4]
			assert.True(t, last.Forced)
			assert.Equal(t, rarity.Rare, last.Tier)
			assert.Equal(t, "Rare", last.Card.Rarity)
		}
	}
}

func TestGenerate_ScenarioA_Scripted(t *testing.T) {
	catalog := append(cards("com", "Common", 100), cards("rar", "Rare", 5)...)
	// 0.9 maps to Common, 0.3 to Uncommon (empty here, so fallback).
	rng := &scriptedRNG{floats: []float64{0.9, 0.3, 0.9, 0.9, 0.9}, intn: 2}
	g := newGenerator(t, rng)

	p, err := g.Generate(pack.Partition(catalog))
	require.NoError(t, err)

	assert.Equal(t, rarity.Common, p.Slots[0].Tier)
	assert.True(t, p.Slots[1].Fallback)
	assert.Equal(t, rarity.Common, p.Slots[1].Tier)
	assert.Equal(t, "com-002", p.Slots[1].Card.ID)
	last := p.Slots[4]
	assert.True(t, last.Forced)
	assert.True(t, last.IsRare)
	assert.Equal(t, "rar-002", last.Card.ID)
}

func TestGenerate_ScenarioB_NoRaresForcesHighestAvailable(t *testing.T) {
	catalog := append(cards("com", "Common", 10), cards("unc", "Uncommon", 3)...)
	rng := &scriptedRNG{floats: []float64{0.9}}
	g := newGenerator(t, rng)

	p, err := g.Generate(pack.Partition(catalog))
	require.NoError(t, err)
	require.Len(t, p.Slots, 5)

	last := p.Slots[4]
	assert.True(t, last.Forced)
	assert.Equal(t, rarity.Uncommon, last.Tier)
	assert.False(t, last.IsRare)
	assert.False(t, p.HasRare())
}

func TestGenerate_ScenarioB_CommonsOnly(t *testing.T) {
	g := newGenerator(t, &scriptedRNG{floats: []float64{0.01}})

	p, err := g.Generate(pack.Partition(cards("com", "Common", 3)))
	require.NoError(t, err)

	for _, s := range p.Slots[:4] {
		// 0.01 draws Ultra, which is empty.
		assert.True(t, s.Fallback)
	}
	assert.True(t, p.Slots[4].Forced)
	assert.Equal(t, rarity.Common, p.Slots[4].Tier)
}

func TestGenerate_SizeOneAlwaysForced(t *testing.T) {
	g, err := pack.NewGenerator(rarity.DefaultRates(), 1, seeded(5))
	require.NoError(t, err)

	p, err := g.Generate(pack.Partition(evenCatalog(2)))
	require.NoError(t, err)
	require.Len(t, p.Slots, 1)
	assert.True(t, p.Slots[0].Forced)
	assert.True(t, p.Slots[0].IsRare)
}

func TestPack_Cards(t *testing.T) {
	p := pack.Pack{Slots: []pack.Slot{
		{Card: card.Card{ID: "a"}},
		{Card: card.Card{ID: "b"}},
	}}
	got := p.Cards()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[1].ID)
}
