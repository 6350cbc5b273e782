// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/papertex/internal/catalog"
	"github.com/pdiddy/papertex/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List recorded conversion outcomes",
	Long: `Catalog reads the SQLite ledger that convert and run write to and
prints one line per source document: paper, document, status, and title.
Filter by paper, status, or run, and export with --format json or yaml.`,
	RunE: runCatalog,
}

func init() {
	catalogCmd.Flags().String("dest-dir", "", "directory holding the catalog (default markdown_papers)")
	catalogCmd.Flags().String("paper", "", "filter by paper ID")
	catalogCmd.Flags().String("status", "", "filter by status: converted, failed, none")
	catalogCmd.Flags().String("run", "", "filter by run ID")
	catalogCmd.Flags().String("format", "table", "output format: table, json, or yaml")

	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	if err := bindFlags(v, cmd.Flags(), map[string]string{"dest-dir": "dest_dir"}); err != nil {
		return err
	}
	cfg, err := pipelineConfig(v)
	if err != nil {
		return err
	}

	store, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		return err
	}
	defer store.Close()

	paper, _ := cmd.Flags().GetString("paper")
	status, _ := cmd.Flags().GetString("status")
	runID, _ := cmd.Flags().GetString("run")
	filter := catalog.Filter{PaperID: paper, RunID: runID, Status: types.ConversionStatus(status)}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	format, _ := cmd.Flags().GetString("format")

	switch format {
	case "yaml":
		return store.ExportYAML(ctx, filter, out)
	case "json":
		records, err := store.List(ctx, filter)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "table", "":
	default:
		return fmt.Errorf("unsupported format %q: use table, json, or yaml", format)
	}

	records, err := store.List(ctx, filter)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No conversions recorded.")
		return nil
	}
	if err := catalog.WriteTable(out, records); err != nil {
		return err
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		return err
	}
	statuses := make([]string, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)
	fmt.Fprintf(out, "\n%d records shown. Catalog totals:", len(records))
	for _, s := range statuses {
		fmt.Fprintf(out, " %s: %d", s, counts[types.ConversionStatus(s)])
	}
	fmt.Fprintln(out)
	return nil
}
