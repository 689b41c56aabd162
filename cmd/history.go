package cmd

import (
	"fmt"
	"time"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/boosterpack/internal/history"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently opened packs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		out := cmd.OutOrStdout()

		store, err := history.New(cfg.HistoryPath())
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.Recent(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("error reading history: %w", err)
		}
		if len(records) == 0 {
			fmt.Fprintln(out, "No packs opened yet. Try 'boosterpack open'.")
			return nil
		}

		for _, r := range records {
			rare := ""
			if r.HasRare {
				rare = colorize.HiYellowString(" ★")
			}
			fmt.Fprintf(out, "%s  %s%s  %s\n",
				colorize.HiBlackString("%s", r.OpenedAt.Local().Format(time.DateTime)),
				colorize.HiWhiteString("%s", r.Expansion), rare,
				colorize.HiBlackString("%s", r.ID))
			for _, s := range r.Slots {
				fmt.Fprintln(out, slotLine(s))
			}
		}
		return nil
	},
}

// historyCountsCmd represents the history counts command
var historyCountsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Show how often each card was pulled",
	RunE: func(cmd *cobra.Command, args []string) error {
		expansion, _ := cmd.Flags().GetString("expansion")
		out := cmd.OutOrStdout()

		store, err := history.New(cfg.HistoryPath())
		if err != nil {
			return err
		}
		defer store.Close()

		total, err := store.TotalPacks(cmd.Context(), expansion)
		if err != nil {
			return fmt.Errorf("error reading history: %w", err)
		}
		counts, err := store.Counts(cmd.Context(), expansion)
		if err != nil {
			return fmt.Errorf("error reading history: %w", err)
		}

		fmt.Fprintf(out, "%s %d\n\n", colorize.CyanString("Packs opened:"), total)
		for _, c := range counts {
			fmt.Fprintf(out, "  %5d  %s %s %s\n", c.Count,
				tierColor(c.Tier).Sprintf("%-4s", tierSymbol(c.Tier)),
				c.Name, colorize.HiBlackString("(%s)", c.CardID))
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyCountsCmd)

	historyCmd.Flags().IntP("limit", "l", 10, "Number of packs to show")
	historyCountsCmd.Flags().StringP("expansion", "e", "", "Only count packs of this expansion")
}
