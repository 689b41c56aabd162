package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/boosterpack/internal/card"
	"github.com/arcanaland/boosterpack/internal/pack"
	"github.com/arcanaland/boosterpack/internal/rarity"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return s
}

func slot(pos int, id string, tier rarity.Tier) pack.Slot {
	return pack.Slot{
		Position: pos,
		Card:     card.Card{ID: id, Name: "Card " + id},
		Tier:     tier,
		IsRare:   tier.IsRare(),
	}
}

func TestRecordPack_AndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := pack.Pack{ID: "p1", Expansion: "mewtwo", Slots: []pack.Slot{
		slot(0, "a", rarity.Common), slot(1, "b", rarity.Rare),
	}}
	second := pack.Pack{Expansion: "pikachu", Slots: []pack.Slot{
		slot(0, "a", rarity.Common), slot(1, "c", rarity.Uncommon),
	}}

	id, err := s.RecordPack(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "p1", id)

	id2, err := s.RecordPack(ctx, second)
	require.NoError(t, err)
	assert.NotEmpty(t, id2)

	recent, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, id2, recent[0].ID, "newest first")
	assert.False(t, recent[0].HasRare)
	assert.Equal(t, "p1", recent[1].ID)
	assert.True(t, recent[1].HasRare)
	assert.Equal(t, "mewtwo", recent[1].Expansion)
	assert.Equal(t, rarity.Rare, recent[1].Slots[1].Tier)
	assert.Equal(t, time.Date(2025, 3, 1, 12, 1, 0, 0, time.UTC), recent[1].OpenedAt)

	limited, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	total, err := s.TotalPacks(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestRecordPack_DuplicateIDRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := pack.Pack{ID: "dup", Slots: []pack.Slot{slot(0, "a", rarity.Common)}}

	_, err := s.RecordPack(ctx, p)
	require.NoError(t, err)
	_, err = s.RecordPack(ctx, p)
	assert.Error(t, err)

	total, err := s.TotalPacks(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, p := range []pack.Pack{
		{Expansion: "mewtwo", Slots: []pack.Slot{slot(0, "a", rarity.Common), slot(1, "b", rarity.RareHolo)}},
		{Expansion: "mewtwo", Slots: []pack.Slot{slot(0, "a", rarity.Common), slot(1, "a", rarity.Common)}},
		{Expansion: "pikachu", Slots: []pack.Slot{slot(0, "z", rarity.Ultra)}},
	} {
		_, err := s.RecordPack(ctx, p)
		require.NoError(t, err)
	}

	all, err := s.Counts(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, CardCount{CardID: "a", Name: "Card a", Tier: rarity.Common, Count: 3}, all[0])
	assert.Equal(t, "b", all[1].CardID)
	assert.Equal(t, rarity.RareHolo, all[1].Tier)

	mewtwo, err := s.Counts(ctx, "mewtwo")
	require.NoError(t, err)
	require.Len(t, mewtwo, 2)
	for _, c := range mewtwo {
		assert.NotEqual(t, "z", c.CardID)
	}

	none, err := s.Counts(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, none)

	for expansion, want := range map[string]int{"": 3, "mewtwo": 2, "pikachu": 1, "unknown": 0} {
		total, err := s.TotalPacks(ctx, expansion)
		require.NoError(t, err)
		assert.Equal(t, want, total, expansion)
	}
}
