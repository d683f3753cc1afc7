// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/medscan/internal/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the reference catalog of medication locations",
	Long: `Catalog maintains the SQLite reference table mapping canonical
(name, dose, form) triples to storage locations. Use subcommands to load
the pharmacy's location CSV, look up a medication, or export the table.`,
}

// --- load subcommand ---

var catalogLoadCmd = &cobra.Command{
	Use:   "load <csv>",
	Short: "Ingest a medication-locations CSV into the catalog",
	Long: `Load reads a CSV of medication locations (columns: name, dose, form,
general, specific, notes) and upserts each row into the catalog database.
Names are canonicalized on the way in; re-loading updates existing entries.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogLoad,
}

func runCatalogLoad(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), args[0], os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d row(s) failed to load", summary.Failed)
	}
	return nil
}

// --- lookup subcommand ---

var catalogLookupCmd = &cobra.Command{
	Use:   "lookup <name>",
	Short: "Resolve a medication's storage location",
	Long: `Lookup resolves a medication against the catalog the same way a scan
does: exact triple first, fuzzy scoring second. An unmatched medication
prints the NOT ASSIGNED sentinel.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogLookup,
}

func runCatalogLookup(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	index, err := catalog.LoadIndex(context.Background(), store, 0)
	if err != nil {
		return err
	}

	dose, _ := cmd.Flags().GetString("dose")
	form, _ := cmd.Flags().GetString("form")

	loc := index.Lookup(args[0], dose, form)
	fmt.Printf("%s\n", locationString(loc))
	if loc.Notes != "" {
		fmt.Printf("notes: %s\n", loc.Notes)
	}
	return nil
}

// --- export subcommand ---

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalog as YAML or JSON",
	RunE:  runCatalogExport,
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	format, _ := cmd.Flags().GetString("format")
	return store.Export(context.Background(), os.Stdout, format)
}

// --- shared helpers ---

func openStore(cmd *cobra.Command) (*catalog.Store, error) {
	cfg := pipelineConfig(cmd)
	store, err := catalog.NewStore(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	return store, nil
}

func init() {
	for _, cmd := range []*cobra.Command{catalogLoadCmd, catalogLookupCmd, catalogExportCmd} {
		cmd.Flags().String("catalog-db", "", "catalog database path (default: catalog/medscan.db)")
	}
	catalogLookupCmd.Flags().String("dose", "", "dose strength (e.g. \"10 mg\")")
	catalogLookupCmd.Flags().String("form", "", "dosage form (e.g. tablet)")
	catalogExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	catalogCmd.AddCommand(catalogLoadCmd, catalogLookupCmd, catalogExportCmd)
	rootCmd.AddCommand(catalogCmd)
}
