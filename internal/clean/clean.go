// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package clean strips LaTeX control sequences that survive pandoc's
// conversion from the generated Markdown.
//
// The substitutions are regular expressions, not a parser: a directive whose
// argument contains nested braces is cut at the first closing brace, and
// multi-argument directives lose only their first argument.
package clean

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// preamblePattern removes whole lines carrying preamble and document
	// boundary directives.
	preamblePattern = regexp.MustCompile(`\\(usepackage|documentclass|begin\{document\}|end\{document\})[^\n]*\n`)

	labelPattern = regexp.MustCompile(`\\label\{[^}]+\}`)

	// commandPattern removes any remaining \name{arg}.
	commandPattern = regexp.MustCompile(`\\[a-zA-Z]+\{[^}]*\}`)
)

// Markdown applies the three substitutions in order: preamble lines,
// \label directives, then generic single-argument directives.
func Markdown(text string) string {
	text = preamblePattern.ReplaceAllString(text, "")
	text = labelPattern.ReplaceAllString(text, "")
	return commandPattern.ReplaceAllString(text, "")
}

// File cleans the Markdown file at path in place.
func File(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(Markdown(string(data))), info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Result counts files processed by Dir.
type Result struct {
	Cleaned int
	Failed  int
}

// HasFailures reports whether any file could not be cleaned.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// Dir cleans every .md file under root, printing one status line per file
// to w. A failure on one file does not stop the walk.
func Dir(root string, w io.Writer) (Result, error) {
	var result Result
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}
		if err := File(path); err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", path, err)
			result.Failed++
			return nil
		}
		fmt.Fprintf(w, "cleaned: %s\n", path)
		result.Cleaned++
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("walking %s: %w", root, err)
	}
	return result, nil
}
