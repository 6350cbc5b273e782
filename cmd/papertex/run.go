// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/papertex/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract and convert every source archive in one batch",
	Long: `Run performs the whole LaTeX-to-Markdown batch: it loads metadata.json
from source_dir, extracts every archive into dest_dir, converts each paper
bundle, optionally cleans the results, and records every outcome in the
catalog. Failed archives and documents are reported and counted; the
command exits non-zero when any occurred.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(cmd, pipeline.Run)
	},
}

func init() {
	addConvertFlags(runCmd.Flags())
	rootCmd.AddCommand(runCmd)
}
