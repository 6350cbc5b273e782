// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/papertex/internal/locate"
)

var locateCmd = &cobra.Command{
	Use:   "locate <dir>",
	Short: "Print the main LaTeX document of a paper directory",
	Long: `Locate searches a paper directory recursively for .tex files that
contain \documentclass. A file whose name contains "main" or "paper" is
preferred; otherwise the largest one is chosen. With --all every .tex file
is listed, root documents marked with an asterisk.`,
	Args: cobra.ExactArgs(1),
	RunE: runLocate,
}

func init() {
	locateCmd.Flags().Bool("all", false, "list every .tex file instead of only the main document")

	rootCmd.AddCommand(locateCmd)
}

func runLocate(cmd *cobra.Command, args []string) error {
	dir := args[0]
	out := cmd.OutOrStdout()

	if all, _ := cmd.Flags().GetBool("all"); all {
		for _, path := range locate.SourceFiles(dir) {
			mark := " "
			if locate.IsRootDocument(path) {
				mark = "*"
			}
			fmt.Fprintf(out, "%s %s\n", mark, path)
		}
		return nil
	}

	doc, ok := locate.MainDocument(dir)
	if !ok {
		return fmt.Errorf("no main document in %s", dir)
	}
	fmt.Fprintln(out, doc)
	return nil
}
