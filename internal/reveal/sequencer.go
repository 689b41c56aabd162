package reveal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/arcanaland/boosterpack/internal/pack"
)

var (
	ErrSequenceActive    = errors.New("a reveal sequence is already running")
	ErrStaleRun          = errors.New("reveal run was superseded")
	ErrInvalidTransition = errors.New("invalid reveal transition")
	ErrNegativeDwell     = errors.New("dwell must not be negative")
)

// Event describes one applied step of a run. Revealed is the index of the
// last revealed slot, or -1 before the first card.
type Event struct {
	Token    uint64
	State    State
	Revealed int
	Pack     pack.Pack
}

// Observer receives events in order. It is called with the sequencer lock
// held and must not call back into the sequencer.
type Observer func(Event)

// Snapshot is a point-in-time copy of the sequencer state.
type Snapshot struct {
	State    State     `json:"state"`
	Revealed int       `json:"revealed"`
	Active   bool      `json:"active"`
	Pack     pack.Pack `json:"pack"`
}

// Sequencer runs at most one reveal at a time. Every run holds a token; a
// timer effect whose token no longer matches the current generation is
// dropped.
type Sequencer struct {
	mu       sync.Mutex
	timings  Timings
	clock    Clock
	observer Observer

	gen      uint64
	active   bool
	cancel   context.CancelFunc
	state    State
	revealed int
	pack     pack.Pack
}

// NewSequencer returns a closed sequencer. A nil clock uses RealClock and a
// nil observer discards events.
func NewSequencer(timings Timings, clock Clock, observer Observer) *Sequencer {
	if clock == nil {
		clock = RealClock()
	}
	if observer == nil {
		observer = func(Event) {}
	}
	return &Sequencer{
		timings:  timings,
		clock:    clock,
		observer: observer,
		state:    Closed,
		revealed: -1,
	}
}

// Timings returns the configured dwells.
func (s *Sequencer) Timings() Timings { return s.timings }

// Run plays the full sequence for p and blocks until it completes, ctx is
// done or the run is cancelled. A run may start from Closed or Complete;
// while another run is active it returns ErrSequenceActive and changes
// nothing. A ctx that is already done starts nothing.
func (s *Sequencer) Run(ctx context.Context, p pack.Pack) error {
	token, runCtx, cancel, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	defer s.finish(token)

	if err := s.transition(token, Shaking, nil); err != nil {
		return err
	}
	if err := s.wait(runCtx, s.timings.Shake); err != nil {
		return err
	}
	if err := s.transition(token, Opening, nil); err != nil {
		return err
	}
	if err := s.wait(runCtx, s.timings.Open); err != nil {
		return err
	}
	if err := s.transition(token, Revealing, &p); err != nil {
		return err
	}
	for i, slot := range p.Slots {
		if err := s.advance(token, i); err != nil {
			return err
		}
		if err := s.wait(runCtx, s.timings.CardDwell(slot)); err != nil {
			return err
		}
	}
	return s.transition(token, Complete, nil)
}

// Cancel aborts the active run, if any, and returns to Closed with nothing
// revealed. It reports whether a run was active. No event from the aborted
// run is delivered after Cancel returns.
func (s *Sequencer) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasActive := s.active
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.active = false
	s.clear()
	return wasActive
}

// Reset returns to Closed, aborting any active run.
func (s *Sequencer) Reset() {
	s.Cancel()
}

// Snapshot returns the current state.
func (s *Sequencer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{State: s.state, Revealed: s.revealed, Active: s.active, Pack: s.pack}
}

// Active reports whether a run is in progress.
func (s *Sequencer) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// IsRevealed reports whether slot i is visible: the pointer has reached it
// or the sequence is complete.
func (s *Sequencer) IsRevealed(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.pack.Slots) {
		return false
	}
	switch s.state {
	case Complete:
		return true
	case Revealing:
		return i <= s.revealed
	}
	return false
}

func (s *Sequencer) begin(ctx context.Context) (uint64, context.Context, context.CancelFunc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return 0, nil, nil, ErrSequenceActive
	}
	if err := ctx.Err(); err != nil {
		return 0, nil, nil, err
	}
	if s.state != Closed && s.state != Complete {
		return 0, nil, nil, fmt.Errorf("%w: cannot start from %s", ErrInvalidTransition, s.state)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.gen++
	s.active = true
	s.cancel = cancel
	s.revealed = -1
	s.pack = pack.Pack{}
	return s.gen, runCtx, cancel, nil
}

// finish releases the run. A run that ends short of Complete without being
// superseded (its context was cancelled by the caller) leaves the sequencer
// Closed.
func (s *Sequencer) finish(token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.gen {
		return
	}
	s.active = false
	s.cancel = nil
	if s.state != Complete {
		s.clear()
	}
}

func (s *Sequencer) transition(token uint64, to State, p *pack.Pack) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.gen {
		return fmt.Errorf("%w: %w", ErrStaleRun, context.Canceled)
	}
	if !CanTransition(s.state, to) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, s.state, to)
	}
	s.state = to
	if p != nil {
		s.pack = *p
	}
	s.emit(token)
	return nil
}

func (s *Sequencer) advance(token uint64, i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token != s.gen {
		return fmt.Errorf("%w: %w", ErrStaleRun, context.Canceled)
	}
	if s.state != Revealing {
		return fmt.Errorf("%w: reveal card in %s", ErrInvalidTransition, s.state)
	}
	s.revealed = i
	s.emit(token)
	return nil
}

func (s *Sequencer) wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := s.clock.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C():
		return nil
	}
}

func (s *Sequencer) emit(token uint64) {
	s.observer(Event{Token: token, State: s.state, Revealed: s.revealed, Pack: s.pack})
}

func (s *Sequencer) clear() {
	s.state = Closed
	s.revealed = -1
	s.pack = pack.Pack{}
}
