package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arcanaland/boosterpack/internal/art"
	"github.com/arcanaland/boosterpack/internal/card"
	"github.com/arcanaland/boosterpack/internal/catalog"
	"github.com/arcanaland/boosterpack/internal/config"
	"github.com/arcanaland/boosterpack/internal/rarity"
)

var showCmd = &cobra.Command{
	Use:   "show [card_id]",
	Short: "Display information about a specific card with ANSI art",
	Long: `Show displays a card with its rarity tier and, when the card has an image,
ANSI terminal art rendered from it. Rendered art is cached under
XDG_CACHE_HOME/boosterpack/ansi_cache.

You can specify a catalog using the --catalog flag, which will look for the
catalog in your catalog library (XDG_DATA_HOME/boosterpack/catalogs) or as a
relative path. If no catalog is specified, the default catalog from your
config will be used.

Examples:
  boosterpack show a1-001
  boosterpack show --catalog ./genetic-apex a1-129`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog()
		if err != nil {
			return err
		}

		cd, err := c.Card(args[0])
		if err != nil {
			return err
		}

		noArt, _ := cmd.Flags().GetBool("no-art")
		ansiArt := ""
		if !noArt {
			ansiArt = cardArt(cmd, c, cd)
		}

		fmt.Fprint(cmd.OutOrStdout(), renderCard(cd, c.Name, ansiArt, terminalWidth()))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(showCmd)

	showCmd.Flags().Bool("no-art", false, "Do not render the card image")
}

// cardArt renders the card image, or returns "" when it has none or it
// cannot be rendered.
func cardArt(cmd *cobra.Command, c *catalog.Catalog, cd card.Card) string {
	src := c.ImagePath(cd)
	if src == "" {
		return ""
	}
	cache := art.NewCache(filepath.Join(config.GetCacheDir(), "ansi_cache"), trueColor())
	out, err := cache.Load(cmd.Context(), src)
	if err != nil {
		logger.Warn().Err(err).Str("card", cd.ID).Msg("could not render card art")
		return ""
	}
	return out
}

// renderCard lays out card info beside its art
func renderCard(cd card.Card, catalogName, ansiArt string, width int) string {
	tier := rarity.Classify(cd.Rarity)
	label := colorize.CyanString

	info := []string{
		label("Card:    ") + colorize.HiWhiteString("%s", cd.Name),
		label("Catalog: ") + colorize.HiWhiteString("%s", catalogName),
		label("ID:      ") + colorize.HiWhiteString("%s", cd.ID),
		label("Tier:    ") + tierColor(tier).Sprintf("%s %s", tierSymbol(tier), tier.DisplayName()),
	}
	if cd.Rarity != "" {
		info = append(info, label("Rarity:  ")+colorize.HiWhiteString("%s", cd.Rarity))
	}
	if cd.Pack != "" {
		info = append(info, label("Pack:    ")+colorize.HiWhiteString("%s", cd.Pack))
	}
	if cd.Type != "" {
		info = append(info, label("Type:    ")+colorize.HiWhiteString("%s", cd.Type))
	}

	artWidth := 0
	for _, line := range strings.Split(ansiArt, "\n") {
		artWidth = max(artWidth, art.VisibleWidth(line))
	}
	if cd.Image != "" && ansiArt == "" {
		info = append(info, "")
		for _, line := range art.WrapText("Image: "+cd.Image, art.InfoWidth(width, artWidth)) {
			info = append(info, colorize.HiBlackString("%s", line))
		}
	}

	return "\n" + art.SideBySide(ansiArt, info) + "\n"
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

func trueColor() bool {
	ct := strings.ToLower(os.Getenv("COLORTERM"))
	return ct == "truecolor" || ct == "24bit"
}
