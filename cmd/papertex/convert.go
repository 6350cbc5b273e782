// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/papertex/internal/convert"
	"github.com/pdiddy/papertex/internal/pipeline"
	"github.com/pdiddy/papertex/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert extracted LaTeX bundles to Markdown with pandoc",
	Long: `Convert runs pandoc on the LaTeX documents of every paper directory
under dest_dir, writing <name>.md next to each <name>.tex. Each output
starts with the paper title and a link to its arXiv page, taken from the
metadata.json in source_dir.

The pandoc backend runs a local binary; the container backend runs the
pandoc/latex image through docker or podman.`,
	RunE: runConvert,
}

// addConvertFlags registers the flags shared by convert and run.
func addConvertFlags(flags *pflag.FlagSet) {
	flags.String("source-dir", "", "directory holding metadata.json (default latex_papers)")
	flags.String("dest-dir", "", "directory of extracted paper bundles (default markdown_papers)")
	flags.String("backend", "", "conversion backend: pandoc or container")
	flags.Duration("timeout", 0, "limit for a single pandoc run (0 = none)")
	flags.Bool("main-only", false, "convert only the main document of each paper")
	flags.Bool("clean", false, "strip leftover LaTeX commands from each converted file")
	flags.Bool("skip-existing", false, "leave documents whose Markdown already exists")
	flags.Bool("no-catalog", false, "do not record outcomes in the catalog")
}

var convertFlagKeys = map[string]string{
	"source-dir":    "source_dir",
	"dest-dir":      "dest_dir",
	"backend":       "convert.backend",
	"timeout":       "convert.timeout",
	"main-only":     "convert.main_only",
	"clean":         "convert.clean",
	"skip-existing": "skip_existing",
}

func init() {
	addConvertFlags(convertCmd.Flags())
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	return runStage(cmd, pipeline.Convert)
}

// stageFunc is pipeline.Run or pipeline.Convert.
type stageFunc = func(ctx context.Context, cfg types.PipelineConfig, c convert.Converter, rec pipeline.Recorder, w io.Writer) (pipeline.Result, error)

// runStage resolves config, converter, and catalog for convert and run,
// then executes stage.
func runStage(cmd *cobra.Command, stage stageFunc) error {
	v := viper.GetViper()
	if err := bindFlags(v, cmd.Flags(), convertFlagKeys); err != nil {
		return err
	}
	cfg, err := pipelineConfig(v)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	c, err := newConverter(ctx, cfg.Conversion)
	if err != nil {
		return err
	}

	noCatalog, _ := cmd.Flags().GetBool("no-catalog")
	store, err := openCatalog(cfg.CatalogPath, noCatalog)
	if err != nil {
		return err
	}
	var rec pipeline.Recorder
	if store != nil {
		defer store.Close()
		rec = store
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Converting with %s\n", convert.BackendName(c))
	result, err := stage(ctx, cfg, c, rec, out)
	if err != nil {
		return err
	}
	if store != nil {
		fmt.Fprintf(out, "Recorded run %s in %s\n", result.RunID, cfg.CatalogPath)
	}
	if result.HasFailures() {
		return fmt.Errorf("%d archive(s) and %d document(s) failed",
			result.Extract.Failed, result.Convert.Failed)
	}
	return nil
}
