// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/papertex/internal/pipeline"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Unpack LaTeX source archives into per-paper directories",
	Long: `Extract unpacks every <paper_id>.tar.gz in the source directory into
<dest_dir>/<paper_id>/. A corrupt archive is reported and the remaining
archives are still extracted.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("source-dir", "", "directory holding the .tar.gz archives (default latex_papers)")
	extractCmd.Flags().String("dest-dir", "", "directory receiving one subdirectory per paper (default markdown_papers)")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	if err := bindFlags(v, cmd.Flags(), map[string]string{
		"source-dir": "source_dir",
		"dest-dir":   "dest_dir",
	}); err != nil {
		return err
	}
	cfg, err := pipelineConfig(v)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DestDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", cfg.DestDir, err)
	}
	result, err := pipeline.ExtractAll(cfg.SourceDir, cfg.DestDir, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d archive(s) failed extraction", result.Failed)
	}
	return nil
}
