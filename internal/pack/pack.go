// Package pack partitions a card catalog into rarity pools and generates
// booster packs with a guaranteed rare slot.
package pack

import (
	"errors"

	"github.com/arcanaland/boosterpack/internal/card"
	"github.com/arcanaland/boosterpack/internal/rarity"
)

// DefaultSize is the number of slots in a standard pocket pack.
const DefaultSize = 5

var (
	ErrEmptyCatalog    = errors.New("catalog has no cards")
	ErrInvalidPackSize = errors.New("pack size must be at least 1")
	ErrNilRNG          = errors.New("random source is required")
)

// Slot is one position in a generated pack.
type Slot struct {
	Position int         `json:"position"`
	Card     card.Card   `json:"card"`
	Tier     rarity.Tier `json:"tier"`
	IsRare   bool        `json:"is_rare"`
	// Forced is set on the last slot when the guaranteed-rare rule picked it.
	Forced bool `json:"forced,omitempty"`
	// Fallback is set when the drawn tier had no cards and the slot was
	// filled from the whole catalog instead.
	Fallback bool `json:"fallback,omitempty"`
}

// Pack is an ordered, immutable set of slots.
type Pack struct {
	ID        string `json:"id,omitempty"`
	Expansion string `json:"expansion,omitempty"`
	Slots     []Slot `json:"slots"`
}

// HasRare reports whether any slot is rare-or-better.
func (p Pack) HasRare() bool {
	for _, s := range p.Slots {
		if s.IsRare {
			return true
		}
	}
	return false
}

// Cards returns the pack's cards in slot order.
func (p Pack) Cards() []card.Card {
	out := make([]card.Card, len(p.Slots))
	for i, s := range p.Slots {
		out[i] = s.Card
	}
	return out
}
