// Package session runs pack-opening sessions: generate a pack, play its
// reveal and hand the finished pack to the caller.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arcanaland/boosterpack/internal/pack"
	"github.com/arcanaland/boosterpack/internal/reveal"
)

var ErrClosed = errors.New("session is closed")

// Options configures a Controller. Every field is optional.
type Options struct {
	// Expansion is stamped on every generated pack.
	Expansion string
	// OnPackOpened is called once per pack whose reveal completed.
	OnPackOpened func(pack.Pack)
	// OnClose is called once when the session is closed.
	OnClose func()
	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger
	// NewID returns pack IDs. Defaults to random UUIDs.
	NewID func() string
}

// Controller owns one sequencer and opens packs on it one at a time.
type Controller struct {
	id    string
	pools pack.Pools
	gen   *pack.Generator
	seq   *reveal.Sequencer
	opts  Options
	log   zerolog.Logger

	mu        sync.Mutex
	busy      bool
	closed    bool
	cancelRun context.CancelFunc
	closeOnce sync.Once
}

// New returns a controller over pools. The sequencer must not be shared with
// another controller.
func New(pools pack.Pools, gen *pack.Generator, seq *reveal.Sequencer, opts Options) *Controller {
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	base := zerolog.Nop()
	if opts.Logger != nil {
		base = *opts.Logger
	}
	id := uuid.NewString()
	return &Controller{
		id:    id,
		pools: pools,
		gen:   gen,
		seq:   seq,
		opts:  opts,
		log: base.With().
			Str("session", id).
			Str("expansion", opts.Expansion).
			Logger(),
	}
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.id }

// Expansion returns the expansion packs are stamped with.
func (c *Controller) Expansion() string { return c.opts.Expansion }

// OpenPack generates a pack, plays its full reveal and returns it. It is
// also how another pack is opened after the previous one completed. While a
// pack is being opened further calls fail with reveal.ErrSequenceActive and
// leave the running reveal alone.
func (c *Controller) OpenPack(ctx context.Context) (pack.Pack, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return pack.Pack{}, ErrClosed
	}
	if c.busy {
		c.mu.Unlock()
		c.log.Debug().Msg("open rejected, reveal in progress")
		return pack.Pack{}, fmt.Errorf("open pack: %w", reveal.ErrSequenceActive)
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.busy = true
	c.cancelRun = cancel
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.cancelRun = nil
		c.mu.Unlock()
		cancel()
	}()

	p, err := c.gen.Generate(c.pools)
	if err != nil {
		return pack.Pack{}, fmt.Errorf("open pack: %w", err)
	}
	p.ID = c.opts.NewID()
	p.Expansion = c.opts.Expansion

	log := c.log.With().Str("pack", p.ID).Logger()
	log.Debug().Bool("has_rare", p.HasRare()).Msg("pack generated")

	if err := c.seq.Run(runCtx, p); err != nil {
		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if closed && errors.Is(err, context.Canceled) {
			log.Info().Msg("reveal discarded, session closed")
			return pack.Pack{}, fmt.Errorf("%w: %w", ErrClosed, err)
		}
		if errors.Is(err, context.Canceled) {
			log.Info().Msg("reveal cancelled")
		} else {
			log.Error().Err(err).Msg("reveal failed")
		}
		return pack.Pack{}, err
	}

	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return pack.Pack{}, ErrClosed
	}

	log.Info().Int("slots", len(p.Slots)).Msg("pack opened")
	if c.opts.OnPackOpened != nil {
		c.opts.OnPackOpened(p)
	}
	return p, nil
}

// Reset aborts any reveal in progress, including one whose pack is still
// being generated, and returns to closed with nothing revealed.
func (c *Controller) Reset() {
	c.abortRun()
	c.seq.Reset()
}

// abortRun cancels the context of the pack being opened so a reveal that
// has not started yet never starts.
func (c *Controller) abortRun() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelRun != nil {
		c.cancelRun()
	}
}

// Snapshot returns the sequencer state.
func (c *Controller) Snapshot() reveal.Snapshot {
	return c.seq.Snapshot()
}

// Close aborts any reveal in progress and tears the session down. Later
// OpenPack calls fail with ErrClosed.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		c.abortRun()
		if c.seq.Cancel() {
			c.log.Info().Msg("session closed during reveal")
		} else {
			c.log.Debug().Msg("session closed")
		}
		if c.opts.OnClose != nil {
			c.opts.OnClose()
		}
	})
}
