// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/papertex/internal/clean"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [paths...]",
	Short: "Strip leftover LaTeX commands from converted Markdown",
	Long: `Clean rewrites Markdown files in place, removing preamble lines
(\usepackage, \documentclass, \begin{document}, \end{document}), \label
commands, and any other single-argument command such as \cite{...}.

Arguments may be files or directories; directories are cleaned
recursively. Without arguments dest_dir is cleaned.`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{viper.GetString("dest_dir")}
	}
	out := cmd.OutOrStdout()

	var total clean.Result
	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(out, "failed:  %s (%v)\n", path, err)
			total.Failed++
			continue
		}

		if !info.IsDir() {
			if err := clean.File(path); err != nil {
				fmt.Fprintf(out, "failed:  %s (%v)\n", path, err)
				total.Failed++
				continue
			}
			fmt.Fprintf(out, "cleaned: %s\n", path)
			total.Cleaned++
			continue
		}

		r, err := clean.Dir(path, out)
		if err != nil {
			return err
		}
		total.Cleaned += r.Cleaned
		total.Failed += r.Failed
	}

	fmt.Fprintf(out, "\nClean summary: %d cleaned, %d failed\n", total.Cleaned, total.Failed)
	if total.HasFailures() {
		return fmt.Errorf("%d file(s) failed cleaning", total.Failed)
	}
	return nil
}
