// Package rarity classifies free-text rarity labels into draw tiers and holds
// the per-tier draw rates.
package rarity

import (
	"fmt"
	"strings"
)

// Tier is a rarity bucket used for weighted drawing. Tiers are ordered from
// rarest to most common; the rate table accumulates in this order.
type Tier int

const (
	Secret Tier = iota
	Ultra
	RareHolo
	Rare
	Uncommon
	Common
)

// NumTiers is the number of tiers.
const NumTiers = int(Common) + 1

var tierNames = [NumTiers]string{
	Secret:   "secret",
	Ultra:    "ultra",
	RareHolo: "holo",
	Rare:     "rare",
	Uncommon: "uncommon",
	Common:   "common",
}

var displayNames = [NumTiers]string{
	Secret:   "Secret Rare",
	Ultra:    "Ultra Rare",
	RareHolo: "Rare Holo",
	Rare:     "Rare",
	Uncommon: "Uncommon",
	Common:   "Common",
}

// Tiers returns all tiers from rarest to most common.
func Tiers() []Tier {
	return []Tier{Secret, Ultra, RareHolo, Rare, Uncommon, Common}
}

// RareTiers returns the rare-or-better tiers in forced-draw preference order.
func RareTiers() []Tier {
	return []Tier{Rare, RareHolo, Ultra, Secret}
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t >= Secret && t <= Common
}

// IsRare reports whether t counts toward the guaranteed-rare rule.
func (t Tier) IsRare() bool {
	return t >= Secret && t <= Rare
}

func (t Tier) String() string {
	if !t.Valid() {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return tierNames[t]
}

// DisplayName returns a human-readable label for the tier.
func (t Tier) DisplayName() string {
	if !t.Valid() {
		return t.String()
	}
	return displayNames[t]
}

// MarshalText encodes the tier as its short name.
func (t Tier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid tier %d", int(t))
	}
	return []byte(tierNames[t]), nil
}

// UnmarshalText accepts a short name ("holo") or a display name ("Rare Holo").
func (t *Tier) UnmarshalText(b []byte) error {
	parsed, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTier resolves a tier by short or display name, case-insensitively.
func ParseTier(s string) (Tier, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range Tiers() {
		if s == tierNames[t] || s == strings.ToLower(displayNames[t]) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown tier %q", s)
}
