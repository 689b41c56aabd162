package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/arcanaland/boosterpack/internal/pack"
	"github.com/arcanaland/boosterpack/internal/rarity"
	"github.com/arcanaland/boosterpack/internal/reveal"
)

const appName = "boosterpack"

var ErrCatalogNotFound = errors.New("catalog not found")

// Config represents the application configuration
type Config struct {
	DefaultCatalog string `toml:"default_catalog"`
	LogLevel       string `toml:"log_level"`
	LogFormat      string `toml:"log_format"`

	Pack    PackConfig    `toml:"pack"`
	Rates   RatesConfig   `toml:"rates"`
	Timings TimingsConfig `toml:"timings"`
	Server  ServerConfig  `toml:"server"`
	History HistoryConfig `toml:"history"`
}

type PackConfig struct {
	Size int `toml:"size"`
	// 0 seeds from the clock
	Seed uint64 `toml:"seed"`
}

type RatesConfig struct {
	Secret   float64 `toml:"secret"`
	Ultra    float64 `toml:"ultra"`
	Holo     float64 `toml:"holo"`
	Rare     float64 `toml:"rare"`
	Uncommon float64 `toml:"uncommon"`
	Common   float64 `toml:"common"`
}

type TimingsConfig struct {
	Shake     Duration `toml:"shake"`
	Open      Duration `toml:"open"`
	Card      Duration `toml:"card"`
	RareBonus Duration `toml:"rare_bonus"`
}

type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type HistoryConfig struct {
	// Empty uses the data directory
	Path string `toml:"path"`
}

// Duration is a time.Duration written as a string like "1.5s"
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the configuration written on first run
func Default() *Config {
	r := rarity.DefaultRates()
	t := reveal.DefaultTimings()
	return &Config{
		DefaultCatalog: "",
		LogLevel:       "info",
		LogFormat:      "console",
		Pack:           PackConfig{Size: pack.DefaultSize},
		Rates: RatesConfig{
			Secret:   r[rarity.Secret],
			Ultra:    r[rarity.Ultra],
			Holo:     r[rarity.RareHolo],
			Rare:     r[rarity.Rare],
			Uncommon: r[rarity.Uncommon],
			Common:   r[rarity.Common],
		},
		Timings: TimingsConfig{
			Shake:     Duration{t.Shake},
			Open:      Duration{t.Open},
			Card:      Duration{t.Card},
			RareBonus: Duration{t.RareBonus},
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
	}
}

// RarityRates converts the [rates] table
func (c *Config) RarityRates() rarity.Rates {
	var r rarity.Rates
	r[rarity.Secret] = c.Rates.Secret
	r[rarity.Ultra] = c.Rates.Ultra
	r[rarity.RareHolo] = c.Rates.Holo
	r[rarity.Rare] = c.Rates.Rare
	r[rarity.Uncommon] = c.Rates.Uncommon
	r[rarity.Common] = c.Rates.Common
	return r
}

// RevealTimings converts the [timings] table
func (c *Config) RevealTimings() reveal.Timings {
	return reveal.Timings{
		Shake:     c.Timings.Shake.Duration,
		Open:      c.Timings.Open.Duration,
		Card:      c.Timings.Card.Duration,
		RareBonus: c.Timings.RareBonus.Duration,
	}
}

// Validate checks the values the pack generator and sequencer depend on
func (c *Config) Validate() error {
	if c.Pack.Size < 1 {
		return fmt.Errorf("pack.size must be at least 1, got %d", c.Pack.Size)
	}
	if err := c.RarityRates().Validate(); err != nil {
		return fmt.Errorf("invalid [rates]: %w", err)
	}
	if err := c.RevealTimings().Validate(); err != nil {
		return fmt.Errorf("invalid [timings]: %w", err)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	return nil
}

// HistoryPath returns the pack history database path
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(GetXDGDataHome(), appName, "history.db")
}

// GetXDGDataHome returns XDG_DATA_HOME or default path
func GetXDGDataHome() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return xdgData
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".local", "share")
}

// GetXDGConfigHome returns XDG_CONFIG_HOME or default path
func GetXDGConfigHome() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return xdgConfig
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config")
}

// GetXDGCacheHome returns XDG_CACHE_HOME or default path
func GetXDGCacheHome() string {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return xdgCache
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".cache")
}

// GetCatalogLibraryPath returns the path to the catalog library
func GetCatalogLibraryPath() string {
	return filepath.Join(GetXDGDataHome(), appName, "catalogs")
}

// GetCacheDir returns the cache directory
func GetCacheDir() string {
	return filepath.Join(GetXDGCacheHome(), appName)
}

// GetConfigFilePath returns the path to the config file
func GetConfigFilePath() string {
	return filepath.Join(GetXDGConfigHome(), appName, "config.toml")
}

// LoadConfig loads the config file. Keys missing from the file keep their
// defaults.
func LoadConfig() (*Config, error) {
	configPath := GetConfigFilePath()

	// Create default config if it doesn't exist
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig()
	}

	config := Default()
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return nil, fmt.Errorf("error decoding config file: %w", err)
	}

	return config, nil
}

// createDefaultConfig creates a default config file
func createDefaultConfig() (*Config, error) {
	config := Default()
	if err := Save(config); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes the config file
func Save(config *Config) error {
	configPath := GetConfigFilePath()

	// Ensure the config directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}

	return nil
}

// GetCatalogPath returns the path to a catalog, either in the catalog library or a relative path
func GetCatalogPath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: no catalog given and no default_catalog set", ErrCatalogNotFound)
	}

	// First, try to find the catalog in the catalog library
	catalogPath := filepath.Join(GetCatalogLibraryPath(), name)
	if _, err := os.Stat(catalogPath); err == nil {
		return catalogPath, nil
	}

	// If not found in the library, treat as a relative path
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	return "", fmt.Errorf("%w: %s", ErrCatalogNotFound, name)
}

// GetDefaultCatalog returns the default catalog name from config
func GetDefaultCatalog() (string, error) {
	config, err := LoadConfig()
	if err != nil {
		return "", err
	}

	return config.DefaultCatalog, nil
}

// SetDefaultCatalog sets the default catalog in the config
func SetDefaultCatalog(name string) error {
	config, err := LoadConfig()
	if err != nil {
		return err
	}

	config.DefaultCatalog = name
	return Save(config)
}
