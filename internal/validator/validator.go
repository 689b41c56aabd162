package validator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arcanaland/boosterpack/internal/card"
	"github.com/arcanaland/boosterpack/internal/catalog"
	"github.com/arcanaland/boosterpack/internal/pack"
	"github.com/arcanaland/boosterpack/internal/rarity"
)

type ValidationResults struct {
	Errors   []string
	Warnings []string
}

// OK reports whether validation found no errors.
func (r ValidationResults) OK() bool {
	return len(r.Errors) == 0
}

type Validator struct {
	CatalogPath string
	Results     ValidationResults

	manifest *catalog.Manifest
	cards    []card.Card
}

func NewValidator(catalogPath string) *Validator {
	return &Validator{
		CatalogPath: catalogPath,
		Results:     ValidationResults{},
	}
}

// Validate checks the catalog directory. A missing or unparsable manifest
// is returned as an error; every other problem is collected in the results.
func (v *Validator) Validate() (ValidationResults, error) {
	if err := v.validateManifest(); err != nil {
		return v.Results, err
	}

	if !v.loadCards() {
		return v.Results, nil
	}
	v.validateCards()
	v.validateShared()
	v.validateExpansions()
	v.validateImages()

	return v.Results, nil
}

func (v *Validator) errorf(format string, args ...any) {
	v.Results.Errors = append(v.Results.Errors, fmt.Sprintf(format, args...))
}

func (v *Validator) warnf(format string, args ...any) {
	v.Results.Warnings = append(v.Results.Warnings, fmt.Sprintf(format, args...))
}

func (v *Validator) validateManifest() error {
	m, err := catalog.LoadManifest(v.CatalogPath)
	if err != nil {
		return err
	}
	v.manifest = m

	if m.Catalog.ID == "" {
		v.errorf("catalog.id is required in catalog.toml")
	}
	if m.Catalog.Name == "" {
		v.errorf("catalog.name is required in catalog.toml")
	}
	if m.Catalog.Version == "" {
		v.errorf("catalog.version is required in catalog.toml")
	}
	if m.Catalog.Cards == "" {
		v.errorf("catalog.cards is required in catalog.toml")
	}
	if m.Catalog.MinCards < 0 {
		v.errorf("catalog.min_cards must not be negative")
	}
	return nil
}

// loadCards reads the card file and reports whether there is anything left
// to validate.
func (v *Validator) loadCards() bool {
	if v.manifest.Catalog.Cards == "" {
		return false
	}
	path := v.manifest.Catalog.Cards
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.CatalogPath, path)
	}

	cards, err := catalog.LoadCards(path)
	if err != nil {
		v.errorf("error reading card file %s: %v", v.manifest.Catalog.Cards, err)
		return false
	}
	if len(cards) == 0 {
		v.errorf("card file %s has no cards", v.manifest.Catalog.Cards)
		return false
	}
	v.cards = cards
	return true
}

// validateCards checks every card has an identity and a rarity label
func (v *Validator) validateCards() {
	seen := make(map[string]int)
	var noRarity []string
	for i, c := range v.cards {
		if c.ID == "" {
			v.errorf("card #%d has no id", i+1)
		} else if first, dup := seen[c.ID]; dup {
			v.errorf("duplicate card id %s (cards #%d and #%d)", c.ID, first+1, i+1)
		} else {
			seen[c.ID] = i
		}
		if c.Name == "" {
			v.errorf("card #%d (%s) has no name", i+1, c.ID)
		}
		if strings.TrimSpace(c.Rarity) == "" {
			noRarity = append(noRarity, c.ID)
		}
	}
	if len(noRarity) > 0 {
		v.warnf("cards without rarity are drawn as common: %s", strings.Join(noRarity, ", "))
	}
}

// validateShared checks redistribution targets
func (v *Validator) validateShared() {
	for _, s := range v.manifest.Shared {
		if s.Pack == "" {
			v.errorf("shared.pack is required")
			continue
		}
		if len(s.Targets) == 0 && len(s.Affinity) == 0 {
			v.warnf("shared pack %s has no targets; its cards are not offered", s.Pack)
		}
		targets := make(map[string]bool)
		for _, t := range s.Targets {
			targets[t] = true
		}
		for typ, t := range s.Affinity {
			if len(s.Targets) > 0 && !targets[t] {
				v.warnf("shared pack %s sends %s cards to %s, which is not a target", s.Pack, typ, t)
			}
		}
	}
}

// validateExpansions checks each openable expansion can fill its guaranteed
// rare slot and reports empty tiers
func (v *Validator) validateExpansions() {
	c := catalog.New(v.manifest, v.CatalogPath, v.cards)
	exps := c.Expansions()

	known := make(map[string]bool)
	for _, e := range exps {
		known[e.Name] = true
	}
	for _, e := range v.manifest.Expansions {
		if !known[e.Name] {
			v.warnf("expansions entry %s matches no openable pack", e.Name)
		}
	}

	if len(exps) == 0 {
		v.warnf("no openable expansions; packs are drawn from the whole catalog")
		v.checkPools("catalog", pack.Partition(v.cards))
		return
	}
	for _, e := range exps {
		v.checkPools("expansion "+e.Name, pack.Partition(e.Cards))
	}
}

func (v *Validator) checkPools(label string, pools pack.Pools) {
	if !pools.HasRare() {
		v.warnf("%s has no rare-or-better cards; the guaranteed rare slot falls back to a lower tier", label)
	}
	var empty []string
	for _, t := range rarity.Tiers() {
		if len(pools.Tier(t)) == 0 {
			empty = append(empty, t.DisplayName())
		}
	}
	if len(empty) > 0 {
		v.warnf("%s has no cards in: %s", label, strings.Join(empty, ", "))
	}
}

// validateImages checks local image paths exist
func (v *Validator) validateImages() {
	c := catalog.New(v.manifest, v.CatalogPath, v.cards)
	var missing []string
	for _, cd := range v.cards {
		if cd.Image == "" || strings.HasPrefix(cd.Image, "http://") || strings.HasPrefix(cd.Image, "https://") {
			continue
		}
		if _, err := os.Stat(c.ImagePath(cd)); os.IsNotExist(err) {
			missing = append(missing, cd.ID)
		}
	}
	if len(missing) > 0 {
		v.warnf("missing card images for: %s", strings.Join(missing, ", "))
	}
}
