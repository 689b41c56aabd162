package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/boosterpack/internal/catalog"
	"github.com/arcanaland/boosterpack/internal/config"
	"github.com/arcanaland/boosterpack/internal/pack"
	"github.com/arcanaland/boosterpack/internal/rarity"
)

// catalogCmd represents the catalog command group
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage card catalogs in your catalog library",
	Long:  `Commands for managing card catalogs in your catalog library.`,
}

// catalogListCmd represents the catalog ls command
var catalogListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List available catalogs in your catalog library",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		libraryPath := config.GetCatalogLibraryPath()

		if _, err := os.Stat(libraryPath); os.IsNotExist(err) {
			fmt.Fprintf(out, "Catalog library at %s does not exist.\n", libraryPath)
			fmt.Fprintln(out, "Run 'boosterpack catalog init' to create it.")
			return nil
		}

		libraryPath, err := filepath.EvalSymlinks(libraryPath)
		if err != nil {
			return fmt.Errorf("error resolving symbolic link: %w", err)
		}

		entries, err := os.ReadDir(libraryPath)
		if err != nil {
			return fmt.Errorf("error reading catalog library: %w", err)
		}

		found := 0
		for _, entry := range entries {
			entryPath := filepath.Join(libraryPath, entry.Name())
			info, err := os.Stat(entryPath)
			if err != nil || !info.IsDir() {
				continue
			}

			c, err := catalog.Load(entryPath)
			if err != nil {
				logger.Debug().Err(err).Str("path", entryPath).Msg("skipping non-catalog directory")
				continue
			}
			found++

			if entry.Name() == cfg.DefaultCatalog {
				fmt.Fprintf(out, "* %s (%s, %d cards) [DEFAULT]\n", entry.Name(), c.Name, len(c.Cards))
			} else {
				fmt.Fprintf(out, "  %s (%s, %d cards)\n", entry.Name(), c.Name, len(c.Cards))
			}
		}

		if found == 0 {
			fmt.Fprintln(out, "No catalogs found in your catalog library.")
			fmt.Fprintln(out, "You can add catalogs by copying them to:", libraryPath)
		}
		return nil
	},
}

// catalogSetDefaultCmd represents the catalog set-default command
var catalogSetDefaultCmd = &cobra.Command{
	Use:   "set-default [catalog_name]",
	Short: "Set the default catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		path, err := config.GetCatalogPath(name)
		if err != nil {
			return err
		}
		if _, err := catalog.Load(path); err != nil {
			return fmt.Errorf("not a valid catalog: %w", err)
		}
		if err := config.SetDefaultCatalog(name); err != nil {
			return fmt.Errorf("error setting default catalog: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Default catalog set to: %s\n", name)
		return nil
	},
}

// catalogInitCmd represents the catalog init command
var catalogInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the catalog library",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		libraryPath := config.GetCatalogLibraryPath()

		if err := os.MkdirAll(libraryPath, 0755); err != nil {
			return fmt.Errorf("error creating catalog library: %w", err)
		}

		fmt.Fprintln(out, "Catalog library initialized at:", libraryPath)
		fmt.Fprintln(out, "You can now add catalogs by copying them to this directory.")
		fmt.Fprintln(out, "Config file initialized at:", config.GetConfigFilePath())
		return nil
	},
}

// catalogExpansionsCmd represents the catalog expansions command
var catalogExpansionsCmd = &cobra.Command{
	Use:   "expansions",
	Short: "List the openable expansions of a catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		c, err := loadCatalog()
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "%s %s\n\n", colorize.CyanString("Catalog:"), colorize.HiWhiteString(c.Name))
		for _, exp := range c.Openable() {
			counts := pack.Partition(exp.Cards).Counts()
			fmt.Fprintf(out, "  %s  %s (%d cards)\n",
				colorize.HiWhiteString("%-20s", exp.ID), exp.DisplayName, exp.TotalCards)
			fmt.Fprint(out, "      ")
			for _, t := range rarity.Tiers() {
				fmt.Fprintf(out, "%s %d  ", tierColor(t).Sprint(tierSymbol(t)), counts[t])
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

// catalogSchemaCmd represents the catalog schema command
var catalogSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of card files",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := catalog.Schema()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(schema))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogSetDefaultCmd)
	catalogCmd.AddCommand(catalogInitCmd)
	catalogCmd.AddCommand(catalogExpansionsCmd)
	catalogCmd.AddCommand(catalogSchemaCmd)
}
