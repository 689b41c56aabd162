package catalog

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/arcanaland/boosterpack/internal/card"
)

// FeaturedLimit is the number of showcase cards per expansion.
const FeaturedLimit = 6

// promoTerms mark packs that are never opened from boosters.
var promoTerms = []string{"promo", "promotional", "special", "shop", "campaign", "premium", "wonder"}

// Expansion is an openable booster: the cards sharing one pack name.
type Expansion struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	DisplayName string      `json:"display_name"`
	SetCode     string      `json:"set_code,omitempty"`
	SetName     string      `json:"set_name,omitempty"`
	Image       string      `json:"image,omitempty"`
	Description string      `json:"description,omitempty"`
	TotalCards  int         `json:"total_cards"`
	Types       []string    `json:"types"`
	Rarities    []string    `json:"rarities"`
	Featured    []card.Card `json:"featured"`
	Cards       []card.Card `json:"-"`
}

// IsPromoPack reports whether a pack name belongs to a promo, shop or
// otherwise unopenable set.
func IsPromoPack(pack string) bool {
	p := strings.ToLower(strings.TrimSpace(pack))
	if p == "" || p == "unknown" {
		return true
	}
	for _, term := range promoTerms {
		if strings.Contains(p, term) {
			return true
		}
	}
	return false
}

// Slug turns a pack name into an expansion ID.
func Slug(name string) string {
	return strings.Join(strings.FieldsFunc(strings.ToLower(name), unicode.IsSpace), "-")
}

// Redistribute returns the pack a card of a shared pack belongs to: the
// affinity target of its type (an exact key wins over a case-insensitive
// match), else a target picked by the first rune of its name.
func (s SharedSection) Redistribute(c card.Card) string {
	if target, ok := s.Affinity[c.Type]; ok {
		return target
	}
	types := make([]string, 0, len(s.Affinity))
	for typ := range s.Affinity {
		types = append(types, typ)
	}
	sort.Strings(types)
	for _, typ := range types {
		if strings.EqualFold(typ, c.Type) {
			return s.Affinity[typ]
		}
	}
	if len(s.Targets) == 0 {
		return c.Pack
	}
	r, _ := utf8.DecodeRuneInString(c.Name)
	if r == utf8.RuneError {
		return s.Targets[0]
	}
	return s.Targets[int(r)%len(s.Targets)]
}

// Featured returns up to FeaturedLimit showcase cards: the ones marked with
// a star or three diamonds, else the first cards.
func Featured(cards []card.Card) []card.Card {
	var out []card.Card
	for _, c := range cards {
		if strings.Contains(c.Rarity, "★") || strings.Contains(c.Rarity, "◊◊◊") {
			out = append(out, c)
			if len(out) == FeaturedLimit {
				return out
			}
		}
	}
	if len(out) > 0 {
		return out
	}
	if len(cards) > FeaturedLimit {
		cards = cards[:FeaturedLimit]
	}
	return append([]card.Card(nil), cards...)
}

// Expansions groups the catalog's cards by pack. Promo and excluded packs
// are dropped, shared packs are redistributed to their targets and packs
// below the manifest's min_cards are hidden. Expansions listed in the
// manifest come first, in manifest order, then the rest by name.
func (c *Catalog) Expansions() []Expansion {
	m := c.manifest
	if m == nil {
		m = &Manifest{}
	}

	excluded := make(map[string]bool)
	for _, p := range m.Catalog.ExcludePacks {
		excluded[strings.ToLower(p)] = true
	}
	shared := make(map[string]SharedSection)
	for _, s := range m.Shared {
		shared[s.Pack] = s
	}

	groups := make(map[string][]card.Card)
	var names []string
	for _, cd := range c.Cards {
		if IsPromoPack(cd.Pack) || excluded[strings.ToLower(cd.Pack)] {
			continue
		}
		name := cd.Pack
		if s, ok := shared[name]; ok {
			name = s.Redistribute(cd)
		}
		if _, seen := groups[name]; !seen {
			names = append(names, name)
		}
		groups[name] = append(groups[name], cd)
	}

	meta := make(map[string]int)
	for i, e := range m.Expansions {
		meta[e.Name] = i
	}

	var out []Expansion
	for _, name := range names {
		cards := groups[name]
		if _, isShared := shared[name]; isShared || strings.HasPrefix(name, "Shared(") {
			continue
		}
		if len(cards) < m.Catalog.MinCards {
			continue
		}
		exp := newExpansion(name, cards)
		if i, ok := meta[name]; ok {
			exp.apply(m.Expansions[i])
		}
		out = append(out, exp)
	}

	sort.SliceStable(out, func(i, j int) bool {
		mi, iok := meta[out[i].Name]
		mj, jok := meta[out[j].Name]
		switch {
		case iok && jok:
			return mi < mj
		case iok != jok:
			return iok
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Expansion finds an expansion by ID or name.
func (c *Catalog) Expansion(id string) (Expansion, error) {
	for _, e := range c.Expansions() {
		if e.ID == id || strings.EqualFold(e.Name, id) {
			return e, nil
		}
	}
	return Expansion{}, fmt.Errorf("%w: %s", ErrExpansionNotFound, id)
}

func newExpansion(name string, cards []card.Card) Expansion {
	exp := Expansion{
		ID:          Slug(name),
		Name:        name,
		DisplayName: name,
		TotalCards:  len(cards),
		Cards:       cards,
		Featured:    Featured(cards),
	}
	seenType := make(map[string]bool)
	seenRarity := make(map[string]bool)
	for _, c := range cards {
		if c.Type != "" && !seenType[c.Type] {
			seenType[c.Type] = true
			exp.Types = append(exp.Types, c.Type)
		}
		if c.Rarity != "" && !seenRarity[c.Rarity] {
			seenRarity[c.Rarity] = true
			exp.Rarities = append(exp.Rarities, c.Rarity)
		}
	}
	return exp
}

func (e *Expansion) apply(s ExpansionSection) {
	if s.DisplayName != "" {
		e.DisplayName = s.DisplayName
	}
	e.SetCode = s.SetCode
	e.SetName = s.SetName
	e.Image = s.Image
	e.Description = s.Description
}

// WholeCatalogID is the expansion ID of a catalog opened as one pack.
const WholeCatalogID = "all"

// Whole returns the entire catalog as a single expansion.
func (c *Catalog) Whole() Expansion {
	name := c.Name
	if name == "" {
		name = c.ID
	}
	exp := newExpansion(name, c.Cards)
	exp.ID = WholeCatalogID
	return exp
}

// Openable returns the catalog's expansions, or the whole catalog when no
// card names an openable pack.
func (c *Catalog) Openable() []Expansion {
	if exps := c.Expansions(); len(exps) > 0 {
		return exps
	}
	return []Expansion{c.Whole()}
}

// Find looks an expansion up among Openable by ID or name.
func (c *Catalog) Find(id string) (Expansion, error) {
	for _, e := range c.Openable() {
		if e.ID == id || strings.EqualFold(e.Name, id) {
			return e, nil
		}
	}
	return Expansion{}, fmt.Errorf("%w: %s", ErrExpansionNotFound, id)
}
