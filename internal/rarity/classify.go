package rarity

import "strings"

// Rule maps a rarity label to a tier when Match returns true. Match receives
// the normalized (trimmed, lower-cased) label.
type Rule struct {
	Tier  Tier
	Match func(label string) bool
}

// containsAny returns a matcher for labels containing any of terms.
func containsAny(terms ...string) func(string) bool {
	return func(label string) bool {
		for _, term := range terms {
			if strings.Contains(label, term) {
				return true
			}
		}
		return false
	}
}

// defaultRules is evaluated top to bottom; the first match wins. Symbol
// rules follow Pocket notation: ★★★ secret, ★★ ultra, ★ holo, ◊◊◊ uncommon,
// ◊ common. Longer runs of a symbol are checked before shorter ones.
var defaultRules = []Rule{
	{Tier: Secret, Match: containsAny("secret", "rainbow", "★★★")},
	{Tier: Ultra, Match: containsAny("ultra", "full art", "★★")},
	{Tier: RareHolo, Match: containsAny("holo", "★")},
	{Tier: Rare, Match: containsAny("rare")},
	{Tier: Uncommon, Match: containsAny("uncommon", "◊◊◊")},
	{Tier: Common, Match: containsAny("common", "◊")},
}

// DefaultRules returns a copy of the ordered classification rules.
func DefaultRules() []Rule {
	rules := make([]Rule, len(defaultRules))
	copy(rules, defaultRules)
	return rules
}

// Normalize trims and lower-cases a rarity label.
func Normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// Classify resolves a free-text rarity label to exactly one tier. Labels no
// rule recognizes are Common.
func Classify(label string) Tier {
	return ClassifyWith(defaultRules, label)
}

// ClassifyWith applies rules in order and returns the first matching tier.
func ClassifyWith(rules []Rule, label string) Tier {
	normalized := Normalize(label)
	for _, r := range rules {
		if r.Match(normalized) {
			return r.Tier
		}
	}
	return Common
}
