// Package catalog loads card catalogs from disk and groups their cards into
// openable expansions.
package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/arcanaland/boosterpack/internal/card"
)

// ManifestFile is the file every catalog directory must contain.
const ManifestFile = "catalog.toml"

var (
	ErrManifestNotFound  = errors.New("catalog.toml not found")
	ErrUnsupportedFormat = errors.New("unsupported card file format")
	ErrCardNotFound      = errors.New("card not found")
	ErrExpansionNotFound = errors.New("expansion not found")
)

// Catalog represents a card catalog loaded from a directory
type Catalog struct {
	ID          string
	Name        string
	Version     string
	Author      string
	Description string
	Path        string

	Cards []card.Card

	byID     map[string]int
	manifest *Manifest
}

// Load loads a catalog from a directory
func Load(dir string) (*Catalog, error) {
	m, err := LoadManifest(dir)
	if err != nil {
		return nil, err
	}

	cardsPath := m.Catalog.Cards
	if cardsPath == "" {
		return nil, fmt.Errorf("catalog.cards is not set in %s", filepath.Join(dir, ManifestFile))
	}
	if !filepath.IsAbs(cardsPath) {
		cardsPath = filepath.Join(dir, cardsPath)
	}

	cards, err := LoadCards(cardsPath)
	if err != nil {
		return nil, fmt.Errorf("error loading cards: %w", err)
	}

	return New(m, dir, cards), nil
}

// New builds a catalog from an already decoded manifest and card list. A nil
// manifest is treated as empty.
func New(m *Manifest, dir string, cards []card.Card) *Catalog {
	if m == nil {
		m = &Manifest{}
	}
	c := &Catalog{
		ID:          m.Catalog.ID,
		Name:        m.Catalog.Name,
		Version:     m.Catalog.Version,
		Author:      m.Catalog.Author,
		Description: m.Catalog.Description,
		Path:        dir,
		Cards:       cards,
		byID:        make(map[string]int, len(cards)),
		manifest:    m,
	}
	for i, cd := range cards {
		if _, dup := c.byID[cd.ID]; !dup {
			c.byID[cd.ID] = i
		}
	}
	return c
}

// LoadManifest decodes catalog.toml from dir
func LoadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w in %s", ErrManifestNotFound, dir)
	}

	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, fmt.Errorf("error parsing catalog.toml: %w", err)
	}
	return &m, nil
}

// Manifest returns the decoded catalog.toml.
func (c *Catalog) Manifest() *Manifest {
	return c.manifest
}

// Card gets a card by its ID
func (c *Catalog) Card(id string) (card.Card, error) {
	i, ok := c.byID[id]
	if !ok {
		return card.Card{}, fmt.Errorf("%w: %s", ErrCardNotFound, id)
	}
	return c.Cards[i], nil
}

// ImagePath resolves a card image against the catalog directory. URLs are
// returned unchanged.
func (c *Catalog) ImagePath(cd card.Card) string {
	if cd.Image == "" || isURL(cd.Image) || filepath.IsAbs(cd.Image) {
		return cd.Image
	}
	return filepath.Join(c.Path, cd.Image)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// cardFile is the document form of a card file.
type cardFile struct {
	Cards []card.Card `json:"cards" yaml:"cards" toml:"cards"`
}

// LoadCards reads a card file. JSON and YAML files may hold either a bare
// list of cards or a document with a cards key; TOML files use [[cards]].
func LoadCards(path string) ([]card.Card, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeCards(filepath.Ext(path), data)
}

// DecodeCards decodes card file contents by extension.
func DecodeCards(ext string, data []byte) ([]card.Card, error) {
	switch strings.ToLower(ext) {
	case ".json":
		if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
			var cards []card.Card
			if err := json.Unmarshal(trimmed, &cards); err != nil {
				return nil, fmt.Errorf("error parsing card list: %w", err)
			}
			return cards, nil
		}
		var f cardFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("error parsing card file: %w", err)
		}
		return f.Cards, nil

	case ".yaml", ".yml":
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, fmt.Errorf("error parsing card file: %w", err)
		}
		if len(node.Content) == 0 {
			return nil, nil
		}
		if node.Content[0].Kind == yaml.SequenceNode {
			var cards []card.Card
			if err := node.Decode(&cards); err != nil {
				return nil, fmt.Errorf("error parsing card list: %w", err)
			}
			return cards, nil
		}
		var f cardFile
		if err := node.Decode(&f); err != nil {
			return nil, fmt.Errorf("error parsing card file: %w", err)
		}
		return f.Cards, nil

	case ".toml":
		var f cardFile
		if _, err := toml.Decode(string(data), &f); err != nil {
			return nil, fmt.Errorf("error parsing card file: %w", err)
		}
		return f.Cards, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

// Catalog configuration structures
type Manifest struct {
	Catalog    CatalogSection     `toml:"catalog"`
	Shared     []SharedSection    `toml:"shared"`
	Expansions []ExpansionSection `toml:"expansions"`
}

type CatalogSection struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	Author      string `toml:"author"`
	Description string `toml:"description"`
	// Card file, relative to the catalog directory
	Cards string `toml:"cards"`
	// Expansions with fewer cards are not offered
	MinCards int `toml:"min_cards"`
	// Extra pack names never offered as expansions
	ExcludePacks []string `toml:"exclude_packs"`
}

// SharedSection moves cards of a shared pack into its sibling packs.
type SharedSection struct {
	Pack    string   `toml:"pack"`
	Targets []string `toml:"targets"`
	// Card type -> target pack
	Affinity map[string]string `toml:"affinity"`
}

type ExpansionSection struct {
	Name        string `toml:"name"`
	DisplayName string `toml:"display_name"`
	SetCode     string `toml:"set_code"`
	SetName     string `toml:"set_name"`
	Image       string `toml:"image"`
	Description string `toml:"description"`
}
