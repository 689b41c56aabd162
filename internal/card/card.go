package card

// Card represents a single trading card from a catalog
type Card struct {
	// Catalog-unique ID (e.g., a1-001)
	ID string `json:"id" yaml:"id" toml:"id" jsonschema:"required"`
	// Display name
	Name string `json:"name" yaml:"name" toml:"name" jsonschema:"required"`
	// Image URL or path relative to the catalog directory
	Image string `json:"image,omitempty" yaml:"image" toml:"image"`
	// Free-text rarity label (e.g., "Rare Holo", "◊◊◊")
	Rarity string `json:"rarity" yaml:"rarity" toml:"rarity"`
	// Booster pack the card is pulled from
	Pack string `json:"pack,omitempty" yaml:"pack" toml:"pack"`
	// Energy type (grass, fire, ...)
	Type string `json:"type,omitempty" yaml:"type" toml:"type"`
}
