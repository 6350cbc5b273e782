// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package locate identifies the primary LaTeX document in an extracted
// paper bundle.
package locate

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// TexExt is the extension of LaTeX source documents.
	TexExt = ".tex"

	// rootMarker marks a compilable top-level document as opposed to a
	// fragment pulled in with \input or \include.
	rootMarker = `\documentclass`
)

// nameHints are conventional substrings of a main document's file name.
var nameHints = []string{"main", "paper"}

// SourceFiles returns the .tex files under dir, recursively, sorted
// lexicographically by path. Unreadable subtrees are skipped.
func SourceFiles(dir string) []string {
	var paths []string
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), TexExt) {
			paths = append(paths, path)
		}
		return nil
	})
	sort.Strings(paths)
	return paths
}

// IsRootDocument reports whether the file at path contains the
// \documentclass directive. Unreadable files are not root documents.
func IsRootDocument(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return bytes.Contains(data, []byte(rootMarker))
}

// MainDocument returns the primary .tex file under dir.
//
// Candidates are files containing \documentclass, visited in sorted path
// order. The first candidate whose base name contains "main" or "paper"
// (case-insensitive) wins. Otherwise the largest candidate by byte size is
// returned, ties going to the first in path order. The boolean is false
// when no file carries the marker.
func MainDocument(dir string) (string, bool) {
	var (
		best     string
		bestSize int64 = -1
	)
	for _, path := range SourceFiles(dir) {
		if !IsRootDocument(path) {
			continue
		}
		if hasNameHint(filepath.Base(path)) {
			return path, true
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.Size() > bestSize {
			best, bestSize = path, info.Size()
		}
	}
	return best, best != ""
}

func hasNameHint(name string) bool {
	lower := strings.ToLower(name)
	for _, h := range nameHints {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}
