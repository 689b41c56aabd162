package cmd

import (
	"fmt"
	"io"

	colorize "github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/arcanaland/boosterpack/internal/pack"
	"github.com/arcanaland/boosterpack/internal/rarity"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Open many packs at once and compare tier frequencies with the rates",
	Long: `Simulate generates packs without a reveal and reports how often each tier came
up in the freely drawn slots next to the configured rate. Slots filled by the
guaranteed-rare rule are counted separately.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		expansionID, _ := cmd.Flags().GetString("expansion")
		n, _ := cmd.Flags().GetInt("packs")
		seed, _ := cmd.Flags().GetUint64("seed")
		if n < 1 {
			return fmt.Errorf("--packs must be at least 1")
		}

		c, err := loadCatalog()
		if err != nil {
			return err
		}
		exp, err := resolveExpansion(c, expansionID)
		if err != nil {
			return err
		}
		gen, err := newGenerator(seed)
		if err != nil {
			return err
		}

		report, err := simulate(gen, pack.Partition(exp.Cards), n)
		if err != nil {
			return err
		}
		report.print(cmd.OutOrStdout(), exp.DisplayName, gen.Rates())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringP("expansion", "e", "", "Expansion to open (required when the catalog has several)")
	simulateCmd.Flags().IntP("packs", "n", 1000, "Number of packs to generate")
	simulateCmd.Flags().Uint64("seed", 0, "Random seed (0 uses the configured seed or the clock)")
}

// simulation tallies generated packs
type simulation struct {
	Packs     int
	Drawn     int
	Forced    int
	Fallback  int
	WithRare  int
	Tiers     map[rarity.Tier]int
	PoolSizes map[rarity.Tier]int
}

func simulate(gen *pack.Generator, pools pack.Pools, n int) (simulation, error) {
	s := simulation{
		Tiers:     make(map[rarity.Tier]int),
		PoolSizes: pools.Counts(),
	}
	for i := 0; i < n; i++ {
		p, err := gen.Generate(pools)
		if err != nil {
			return s, err
		}
		s.Packs++
		if p.HasRare() {
			s.WithRare++
		}
		for _, slot := range p.Slots {
			switch {
			case slot.Forced:
				s.Forced++
			case slot.Fallback:
				s.Fallback++
			default:
				s.Drawn++
				s.Tiers[slot.Tier]++
			}
		}
	}
	return s, nil
}

// share returns part/whole as a percentage rounded to two places
func share(part, whole int) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(part)).Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(whole))).Round(2)
}

func (s simulation) print(out io.Writer, expansion string, rates rarity.Rates) {
	fmt.Fprintf(out, "%s %s, %d packs\n\n", colorize.CyanString("Simulated:"),
		colorize.HiWhiteString("%s", expansion), s.Packs)
	fmt.Fprintf(out, "  %-12s %8s %9s %8s %6s\n", "Tier", "Rate %", "Pulled %", "Pulled", "Pool")
	for _, t := range rarity.Tiers() {
		rate := decimal.NewFromFloat(rates[t]).Mul(decimal.NewFromInt(100)).Round(2)
		fmt.Fprintf(out, "  %s %8s %9s %8d %6d\n",
			tierColor(t).Sprintf("%-12s", t.DisplayName()),
			rate.StringFixed(2), share(s.Tiers[t], s.Drawn).StringFixed(2), s.Tiers[t], s.PoolSizes[t])
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  Packs with a rare:    %d (%s%%)\n", s.WithRare, share(s.WithRare, s.Packs).StringFixed(2))
	fmt.Fprintf(out, "  Guaranteed slots:     %d (%s%% of packs)\n", s.Forced, share(s.Forced, s.Packs).StringFixed(2))
	if s.Fallback > 0 {
		fmt.Fprintf(out, "  Empty-tier fallbacks: %d\n", s.Fallback)
	}
}
