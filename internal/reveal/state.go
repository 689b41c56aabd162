// Package reveal drives the timed pack reveal: a fixed state machine with a
// dwell per phase and per card, cancellable at any point.
package reveal

import (
	"fmt"
	"strings"
	"time"

	"github.com/arcanaland/boosterpack/internal/pack"
)

// State is a phase of the reveal sequence.
type State int

const (
	Closed State = iota
	Shaking
	Opening
	Revealing
	Complete
)

var stateNames = map[State]string{
	Closed:    "closed",
	Shaking:   "shaking",
	Opening:   "opening",
	Revealing: "revealing",
	Complete:  "complete",
}

// transitions maps each state to the only state it may advance to.
var transitions = map[State]State{
	Closed:    Shaking,
	Shaking:   Opening,
	Opening:   Revealing,
	Revealing: Complete,
	Complete:  Shaking,
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name.
func (s *State) UnmarshalText(b []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(b)))
	for st, n := range stateNames {
		if n == name {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown reveal state: %q", string(b))
}

// Next returns the state that follows s. The second result is false for an
// unknown state.
func Next(s State) (State, bool) {
	n, ok := transitions[s]
	return n, ok
}

// CanTransition reports whether from may advance directly to to.
func CanTransition(from, to State) bool {
	n, ok := transitions[from]
	return ok && n == to
}

// Timings holds the dwell of each timed phase.
type Timings struct {
	Shake     time.Duration
	Open      time.Duration
	Card      time.Duration
	RareBonus time.Duration
}

// DefaultTimings returns the standard reveal pacing.
func DefaultTimings() Timings {
	return Timings{
		Shake:     1500 * time.Millisecond,
		Open:      1000 * time.Millisecond,
		Card:      800 * time.Millisecond,
		RareBonus: 1200 * time.Millisecond,
	}
}

// Validate rejects negative dwells.
func (t Timings) Validate() error {
	for name, d := range map[string]time.Duration{
		"shake":      t.Shake,
		"open":       t.Open,
		"card":       t.Card,
		"rare_bonus": t.RareBonus,
	} {
		if d < 0 {
			return fmt.Errorf("%w: %s=%s", ErrNegativeDwell, name, d)
		}
	}
	return nil
}

// CardDwell returns how long slot s stays on screen before the next card.
func (t Timings) CardDwell(s pack.Slot) time.Duration {
	if s.IsRare {
		return t.Card + t.RareBonus
	}
	return t.Card
}

// Total returns the full duration of a reveal of p.
func (t Timings) Total(p pack.Pack) time.Duration {
	total := t.Shake + t.Open
	for _, s := range p.Slots {
		total += t.CardDwell(s)
	}
	return total
}
