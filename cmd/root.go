package cmd

import (
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	colorize "github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/arcanaland/boosterpack/internal/catalog"
	"github.com/arcanaland/boosterpack/internal/config"
	"github.com/arcanaland/boosterpack/internal/logging"
	"github.com/arcanaland/boosterpack/internal/pack"
	"github.com/arcanaland/boosterpack/internal/rarity"
)

var (
	cfg    *config.Config
	logger = zerolog.Nop()

	catalogFlag  string
	logLevelFlag string
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "boosterpack",
	Short: "Open booster packs from a card catalog",
	Long: `Boosterpack is a command-line booster pack simulator.
It splits a card catalog into rarity tiers, opens packs with a guaranteed rare
slot and plays the reveal card by card, in the terminal or over a websocket.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadConfig()
		if err != nil {
			return err
		}
		if logLevelFlag != "" {
			c.LogLevel = logLevelFlag
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid config %s: %w", config.GetConfigFilePath(), err)
		}

		logger, err = logging.New(c.LogLevel, c.LogFormat, os.Stderr)
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&catalogFlag, "catalog", "c", "", "Catalog from your catalog library or a path to a catalog")
	RootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override the configured log level")

	RootCmd.AddCommand(validateCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return RootCmd.Execute()
}

// loadCatalog loads the --catalog flag or the default catalog
func loadCatalog() (*catalog.Catalog, error) {
	name := catalogFlag
	if name == "" {
		name = cfg.DefaultCatalog
	}
	path, err := config.GetCatalogPath(name)
	if err != nil {
		return nil, err
	}
	c, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("error loading catalog: %w", err)
	}
	logger.Debug().Str("catalog", c.ID).Int("cards", len(c.Cards)).Msg("catalog loaded")
	return c, nil
}

// resolveExpansion picks the expansion named id, or the only openable one
// when id is empty.
func resolveExpansion(c *catalog.Catalog, id string) (catalog.Expansion, error) {
	if id != "" {
		return c.Find(id)
	}
	exps := c.Openable()
	if len(exps) == 1 {
		return exps[0], nil
	}
	ids := make([]string, len(exps))
	for i, e := range exps {
		ids[i] = e.ID
	}
	return catalog.Expansion{}, fmt.Errorf("catalog has %d expansions, pick one with --expansion: %s",
		len(exps), strings.Join(ids, ", "))
}

// newGenerator builds a generator from the config. A zero seed falls back to
// the configured seed, then to the clock.
func newGenerator(seed uint64) (*pack.Generator, error) {
	if seed == 0 {
		seed = cfg.Pack.Seed
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return pack.NewGenerator(cfg.RarityRates(), cfg.Pack.Size, rng)
}

// tierColor returns the display colour of a tier
func tierColor(t rarity.Tier) *colorize.Color {
	switch t {
	case rarity.Secret:
		return colorize.New(colorize.FgHiMagenta, colorize.Bold)
	case rarity.Ultra:
		return colorize.New(colorize.FgHiYellow, colorize.Bold)
	case rarity.RareHolo:
		return colorize.New(colorize.FgHiCyan, colorize.Bold)
	case rarity.Rare:
		return colorize.New(colorize.FgHiBlue)
	case rarity.Uncommon:
		return colorize.New(colorize.FgGreen)
	default:
		return colorize.New(colorize.FgWhite)
	}
}

// tierSymbol returns the marker printed next to a card of tier t
func tierSymbol(t rarity.Tier) string {
	switch t {
	case rarity.Secret:
		return "★★★"
	case rarity.Ultra:
		return "★★"
	case rarity.RareHolo:
		return "★"
	case rarity.Rare:
		return "♦"
	case rarity.Uncommon:
		return "◊◊◊"
	default:
		return "◊"
	}
}
