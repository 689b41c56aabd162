package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/boosterpack/internal/history"
	"github.com/arcanaland/boosterpack/internal/pack"
	"github.com/arcanaland/boosterpack/internal/reveal"
	"github.com/arcanaland/boosterpack/internal/session"
)

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open booster packs and watch the reveal",
	Long: `Open generates a pack from an expansion and plays its reveal: the pack shakes,
tears open and the cards are flipped one by one, with rare cards held a little
longer. Every pack holds at least one rare card.

Press Ctrl+C to abort the reveal. Opened packs are recorded in your history
unless --no-history is given.

Examples:
  boosterpack open --expansion mewtwo
  boosterpack open -e pikachu -n 3 --instant
  boosterpack open --seed 42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		expansionID, _ := cmd.Flags().GetString("expansion")
		count, _ := cmd.Flags().GetInt("count")
		seed, _ := cmd.Flags().GetUint64("seed")
		instant, _ := cmd.Flags().GetBool("instant")
		noHistory, _ := cmd.Flags().GetBool("no-history")

		if count < 1 {
			return fmt.Errorf("--count must be at least 1")
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

		timings := cfg.RevealTimings()
		if instant {
			timings = reveal.Timings{}
		}

		var store *history.Store
		if !noHistory {
			store, err = history.New(cfg.HistoryPath())
			if err != nil {
				return err
			}
			defer store.Close()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		out := cmd.OutOrStdout()
		printer := &revealPrinter{out: out, expansion: exp.DisplayName}
		seq := reveal.NewSequencer(timings, nil, printer.observe)
		ctrl := session.New(pack.Partition(exp.Cards), gen, seq, session.Options{
			Expansion: exp.ID,
			Logger:    &logger,
			OnPackOpened: func(p pack.Pack) {
				if store == nil {
					return
				}
				if _, err := store.RecordPack(context.Background(), p); err != nil {
					logger.Warn().Err(err).Str("pack", p.ID).Msg("failed to record pack")
				}
			},
		})
		defer ctrl.Close()

		for i := 0; i < count; i++ {
			if _, err := ctrl.OpenPack(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					fmt.Fprintln(out, colorize.YellowString("\nPack opening aborted."))
					return nil
				}
				return err
			}
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(openCmd)

	openCmd.Flags().StringP("expansion", "e", "", "Expansion to open (required when the catalog has several)")
	openCmd.Flags().IntP("count", "n", 1, "Number of packs to open")
	openCmd.Flags().Uint64("seed", 0, "Random seed (0 uses the configured seed or the clock)")
	openCmd.Flags().Bool("instant", false, "Skip the reveal animation")
	openCmd.Flags().Bool("no-history", false, "Do not record opened packs")
}

// revealPrinter writes sequencer events to the terminal
type revealPrinter struct {
	out       io.Writer
	expansion string
}

func (p *revealPrinter) observe(e reveal.Event) {
	switch e.State {
	case reveal.Shaking:
		fmt.Fprintf(p.out, "\n%s %s\n", colorize.CyanString("Pack:"), colorize.HiWhiteString("%s", p.expansion))
		fmt.Fprintln(p.out, colorize.HiBlackString("  shaking the pack..."))
	case reveal.Opening:
		fmt.Fprintln(p.out, colorize.HiBlackString("  tearing it open..."))
	case reveal.Revealing:
		if e.Revealed < 0 {
			fmt.Fprintln(p.out)
			return
		}
		fmt.Fprintln(p.out, slotLine(e.Pack.Slots[e.Revealed]))
	case reveal.Complete:
		summary := "no rare"
		if e.Pack.HasRare() {
			summary = "rare pulled"
		}
		fmt.Fprintf(p.out, "\n  %s %s\n", colorize.GreenString("Pack complete:"), summary)
	}
}

// slotLine formats one revealed card
func slotLine(s pack.Slot) string {
	c := tierColor(s.Tier)
	line := fmt.Sprintf("  %d. %s %s %s", s.Position+1,
		c.Sprintf("%-4s", tierSymbol(s.Tier)),
		c.Sprint(s.Card.Name),
		colorize.HiBlackString("(%s)", s.Tier.DisplayName()))
	if s.Forced {
		line += colorize.HiBlackString(" guaranteed")
	}
	if s.Fallback {
		line += colorize.HiBlackString(" fallback")
	}
	return line
}
