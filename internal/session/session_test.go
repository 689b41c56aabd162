package session_test

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/boosterpack/internal/card"
	"github.com/arcanaland/boosterpack/internal/pack"
	"github.com/arcanaland/boosterpack/internal/rarity"
	"github.com/arcanaland/boosterpack/internal/reveal"
	"github.com/arcanaland/boosterpack/internal/reveal/revealtest"
	"github.com/arcanaland/boosterpack/internal/session"
)

type openedLog struct {
	mu    sync.Mutex
	packs []pack.Pack
}

func (o *openedLog) add(p pack.Pack) {
	o.mu.Lock()
	o.packs = append(o.packs, p)
	o.mu.Unlock()
}

func (o *openedLog) all() []pack.Pack {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]pack.Pack(nil), o.packs...)
}

func testPools() pack.Pools {
	var catalog []card.Card
	for i := range 20 {
		catalog = append(catalog, card.Card{ID: fmt.Sprintf("c%d", i), Name: "Common", Rarity: "Common"})
	}
	for i := range 3 {
		catalog = append(catalog, card.Card{ID: fmt.Sprintf("r%d", i), Name: "Rare", Rarity: "Rare"})
	}
	return pack.Partition(catalog)
}

func newController(t *testing.T, pools pack.Pools, clock reveal.Clock, opts session.Options) *session.Controller {
	t.Helper()
	gen, err := pack.NewGenerator(rarity.DefaultRates(), pack.DefaultSize, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	seq := reveal.NewSequencer(reveal.DefaultTimings(), clock, nil)
	return session.New(pools, gen, seq, opts)
}

type result struct {
	p   pack.Pack
	err error
}

func openAsync(c *session.Controller) <-chan result {
	done := make(chan result, 1)
	go func() {
		p, err := c.OpenPack(context.Background())
		done <- result{p, err}
	}()
	return done
}

func await(t *testing.T, done <-chan result) result {
	t.Helper()
	select {
	case r := <-done:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("OpenPack did not return")
		return result{}
	}
}

func TestOpenPack_CompletesAndNotifies(t *testing.T) {
	opened := &openedLog{}
	c := newController(t, testPools(), &revealtest.InstantClock{}, session.Options{
		Expansion:    "genetic-apex",
		OnPackOpened: opened.add,
	})

	p, err := c.OpenPack(context.Background())
	require.NoError(t, err)

	assert.Len(t, p.Slots, pack.DefaultSize)
	assert.True(t, p.HasRare())
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "genetic-apex", p.Expansion)
	require.Len(t, opened.all(), 1)
	assert.Equal(t, p, opened.all()[0])
	assert.Equal(t, reveal.Complete, c.Snapshot().State)
}

func TestOpenPack_OpenAnother(t *testing.T) {
	opened := &openedLog{}
	c := newController(t, testPools(), &revealtest.InstantClock{}, session.Options{OnPackOpened: opened.add})

	first, err := c.OpenPack(context.Background())
	require.NoError(t, err)
	second, err := c.OpenPack(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, opened.all(), 2)
}

// Opening again before the reveal completes is rejected and the original
// reveal finishes undisturbed.
func TestOpenPack_RejectsWhileRevealing(t *testing.T) {
	clock := revealtest.NewManualClock()
	opened := &openedLog{}
	c := newController(t, testPools(), clock, session.Options{OnPackOpened: opened.add})

	done := openAsync(c)
	clock.Await(t)
	clock.Step(t)
	clock.Await(t)
	require.Equal(t, reveal.Opening, c.Snapshot().State)

	_, err := c.OpenPack(context.Background())
	assert.ErrorIs(t, err, reveal.ErrSequenceActive)
	assert.Equal(t, reveal.Opening, c.Snapshot().State)

	for range 1 + pack.DefaultSize {
		clock.Step(t)
	}
	r := await(t, done)
	require.NoError(t, r.err)
	assert.Len(t, r.p.Slots, pack.DefaultSize)
	require.Len(t, opened.all(), 1)
	assert.Equal(t, r.p.ID, opened.all()[0].ID)
	assert.Equal(t, reveal.Complete, c.Snapshot().State)
}

func TestClose_DuringRevealSkipsCallback(t *testing.T) {
	clock := revealtest.NewManualClock()
	opened := &openedLog{}
	closes := 0
	c := newController(t, testPools(), clock, session.Options{
		OnPackOpened: opened.add,
		OnClose:      func() { closes++ },
	})

	done := openAsync(c)
	clock.Step(t)
	clock.Step(t)
	clock.Await(t)
	require.Equal(t, reveal.Revealing, c.Snapshot().State)

	c.Close()
	r := await(t, done)
	assert.ErrorIs(t, r.err, context.Canceled)
	assert.Empty(t, opened.all())
	assert.Equal(t, 1, closes)
	assert.Equal(t, reveal.Closed, c.Snapshot().State)

	c.Close()
	assert.Equal(t, 1, closes, "OnClose runs once")

	_, err := c.OpenPack(context.Background())
	assert.ErrorIs(t, err, session.ErrClosed)
}

func TestReset_ReturnsToClosed(t *testing.T) {
	c := newController(t, testPools(), &revealtest.InstantClock{}, session.Options{})
	_, err := c.OpenPack(context.Background())
	require.NoError(t, err)

	c.Reset()
	snap := c.Snapshot()
	assert.Equal(t, reveal.Closed, snap.State)
	assert.Equal(t, -1, snap.Revealed)

	_, err = c.OpenPack(context.Background())
	assert.NoError(t, err)
}

func TestOpenPack_EmptyCatalog(t *testing.T) {
	opened := &openedLog{}
	c := newController(t, pack.Partition(nil), &revealtest.InstantClock{}, session.Options{OnPackOpened: opened.add})

	_, err := c.OpenPack(context.Background())
	assert.ErrorIs(t, err, pack.ErrEmptyCatalog)
	assert.Empty(t, opened.all())
	assert.Equal(t, reveal.Closed, c.Snapshot().State)
}

func TestOpenPack_CustomIDs(t *testing.T) {
	n := 0
	c := newController(t, testPools(), &revealtest.InstantClock{}, session.Options{
		NewID: func() string { n++; return fmt.Sprintf("pack-%d", n) },
	})
	p, err := c.OpenPack(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pack-1", p.ID)
	assert.NotEmpty(t, c.ID())
}

func TestClose_BeforeRevealStartsPlaysNothing(t *testing.T) {
	gen, err := pack.NewGenerator(rarity.DefaultRates(), pack.DefaultSize, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	clock := &revealtest.InstantClock{}
	rec := &revealtest.Recorder{}
	seq := reveal.NewSequencer(reveal.DefaultTimings(), clock, rec.Observe)

	opened := &openedLog{}
	var c *session.Controller
	c = session.New(testPools(), gen, seq, session.Options{
		OnPackOpened: opened.add,
		NewID:        func() string { c.Close(); return "p1" },
	})

	_, err = c.OpenPack(context.Background())
	assert.ErrorIs(t, err, session.ErrClosed)
	assert.Empty(t, rec.Events())
	assert.Empty(t, clock.Durations())
	assert.Empty(t, opened.all())
	assert.Equal(t, reveal.Closed, c.Snapshot().State)
}

func TestReset_BeforeRevealStartsPlaysNothing(t *testing.T) {
	gen, err := pack.NewGenerator(rarity.DefaultRates(), pack.DefaultSize, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	rec := &revealtest.Recorder{}
	seq := reveal.NewSequencer(reveal.DefaultTimings(), &revealtest.InstantClock{}, rec.Observe)

	resets := 0
	var c *session.Controller
	c = session.New(testPools(), gen, seq, session.Options{
		NewID: func() string {
			resets++
			if resets == 1 {
				c.Reset()
			}
			return fmt.Sprintf("p%d", resets)
		},
	})

	_, err = c.OpenPack(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.Events())
	assert.Equal(t, reveal.Closed, c.Snapshot().State)

	p, err := c.OpenPack(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "p2", p.ID)
	assert.Equal(t, reveal.Complete, c.Snapshot().State)
}
