// Package revealtest provides fake clocks for driving a reveal.Sequencer in
// tests.
package revealtest

import (
	"sync"
	"testing"
	"time"

	"github.com/arcanaland/boosterpack/internal/reveal"
)

// InstantClock fires every timer immediately and records the requested
// durations.
type InstantClock struct {
	mu        sync.Mutex
	durations []time.Duration
}

func (c *InstantClock) NewTimer(d time.Duration) reveal.Timer {
	c.mu.Lock()
	c.durations = append(c.durations, d)
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return &instantTimer{c: ch}
}

// Durations returns the dwells requested so far.
func (c *InstantClock) Durations() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.durations))
	copy(out, c.durations)
	return out
}

type instantTimer struct {
	c chan time.Time
}

func (t *instantTimer) C() <-chan time.Time { return t.c }

func (t *instantTimer) Stop() bool { return false }

// ManualClock holds timers until the test fires them with Step.
type ManualClock struct {
	mu      sync.Mutex
	pending []*manualTimer
	elapsed time.Duration
}

// NewManualClock returns a clock with no pending timers.
func NewManualClock() *ManualClock {
	return &ManualClock{}
}

func (c *ManualClock) NewTimer(d time.Duration) reveal.Timer {
	t := &manualTimer{clock: c, d: d, c: make(chan time.Time, 1)}
	c.mu.Lock()
	c.pending = append(c.pending, t)
	c.mu.Unlock()
	return t
}

// Pending returns the number of timers waiting to fire.
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Elapsed returns the sum of all fired durations.
func (c *ManualClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

// Await blocks until a timer is pending and returns its duration without
// firing it. It fails the test after a second.
func (c *ManualClock) Await(tb testing.TB) time.Duration {
	tb.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		c.mu.Lock()
		if len(c.pending) > 0 {
			d := c.pending[0].d
			c.mu.Unlock()
			return d
		}
		c.mu.Unlock()
		if time.Now().After(deadline) {
			tb.Fatalf("revealtest: no timer scheduled")
		}
		time.Sleep(time.Millisecond)
	}
}

// Step waits for the oldest pending timer, fires it and returns its duration.
func (c *ManualClock) Step(tb testing.TB) time.Duration {
	tb.Helper()
	c.Await(tb)

	c.mu.Lock()
	t := c.pending[0]
	c.pending = c.pending[1:]
	c.elapsed += t.d
	c.mu.Unlock()

	t.c <- time.Time{}
	return t.d
}

type manualTimer struct {
	clock *ManualClock
	d     time.Duration
	c     chan time.Time
}

func (t *manualTimer) C() <-chan time.Time { return t.c }

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	for i, p := range t.clock.pending {
		if p == t {
			t.clock.pending = append(t.clock.pending[:i], t.clock.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Recorder collects sequencer events.
type Recorder struct {
	mu     sync.Mutex
	events []reveal.Event
}

// Observe is a reveal.Observer.
func (r *Recorder) Observe(e reveal.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []reveal.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]reveal.Event, len(r.events))
	copy(out, r.events)
	return out
}

// States returns the distinct consecutive states seen, so repeated
// revealing events collapse into one.
func (r *Recorder) States() []reveal.State {
	var out []reveal.State
	for _, e := range r.Events() {
		if len(out) == 0 || out[len(out)-1] != e.State {
			out = append(out, e.State)
		}
	}
	return out
}
