// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/papertex/internal/fetch"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Search arXiv and download PDFs, abstracts, and LaTeX sources",
	Long: `Fetch queries the arXiv API with the configured topic (optionally
restricted to a category) and downloads each result. PDFs go to
fetch.full_paper_path, abstracts to fetch.abstract_path, and source
archives with their metadata.json to fetch.source_path, where extract and
run pick them up. Files that already exist are skipped.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("topic", "", "arXiv search query (overrides fetch.topic)")
	fetchCmd.Flags().String("category", "", "restrict results to an arXiv category, e.g. cs.CL")
	fetchCmd.Flags().String("sort-by", "", "Relevance, LastUpdatedDate, or SubmittedDate")
	fetchCmd.Flags().Int("max-results", 0, "maximum number of papers (default 30)")
	fetchCmd.Flags().Duration("delay", 0, "delay between consecutive downloads (default 3s)")
	fetchCmd.Flags().Bool("pdf", true, "download full-text PDFs")
	fetchCmd.Flags().Bool("abstracts", false, "write each abstract to a text file")
	fetchCmd.Flags().Bool("source", true, "download LaTeX source archives")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	if err := bindFlags(v, cmd.Flags(), map[string]string{
		"topic":       "fetch.topic",
		"category":    "fetch.category",
		"sort-by":     "fetch.sort_by",
		"max-results": "fetch.max_results",
		"delay":       "fetch.download_delay",
	}); err != nil {
		return err
	}
	cfg, err := fetchConfig(v)
	if err != nil {
		return err
	}

	wantPDF, _ := cmd.Flags().GetBool("pdf")
	wantAbstracts, _ := cmd.Flags().GetBool("abstracts")
	wantSource, _ := cmd.Flags().GetBool("source")

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	client := &fetch.Client{
		HTTP:   &http.Client{Timeout: cfg.Timeout},
		Config: cfg.HTTPConfig,
	}

	query := fetch.BuildQuery(cfg.Topic, cfg.Category)
	results, err := client.Search(ctx, query, cfg.SortBy, cfg.MaxResults)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Found %d papers for %q\n", len(results), query)
	if len(results) == 0 {
		return nil
	}

	f := &fetch.Fetcher{Client: client, Config: cfg}
	failed := 0
	if wantPDF {
		failed += f.FetchPDFs(ctx, results, out).Failed
	}
	if wantAbstracts {
		failed += f.FetchAbstracts(ctx, results, out).Failed
	}
	if wantSource {
		r, err := f.FetchSources(ctx, results, out)
		if err != nil {
			return err
		}
		failed += r.Failed
	}

	if failed > 0 {
		return fmt.Errorf("%d download(s) failed", failed)
	}
	return nil
}
