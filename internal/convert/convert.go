// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns the LaTeX documents of an extracted paper bundle
// into Markdown with an external converter and prefixes each result with a
// title and source-link header.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/papertex/internal/locate"
	"github.com/pdiddy/papertex/internal/metadata"
	"github.com/pdiddy/papertex/pkg/types"
)

// MarkdownExt replaces the .tex extension of converted documents.
const MarkdownExt = ".md"

// Converter transforms a LaTeX document into Markdown. Implementations
// write the full body to dstPath, replacing anything already there.
type Converter interface {
	Convert(ctx context.Context, srcPath, dstPath string) error
}

// BackendName returns the name a converter reports through a Name method,
// or "custom" when it has none.
func BackendName(c Converter) string {
	if n, ok := c.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "custom"
}

// Options controls which documents of a bundle are converted.
type Options struct {
	// MainOnly converts only the bundle's main document.
	MainOnly bool
	// SkipExisting leaves documents whose Markdown output already exists.
	SkipExisting bool
}

// BundleResult holds the outcome of converting one paper bundle.
type BundleResult struct {
	Converted int
	Skipped   int
	Failed    int
	Records   []types.ConversionRecord
}

// Total returns the number of documents processed.
func (r BundleResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any document failed conversion.
func (r BundleResult) HasFailures() bool {
	return r.Failed > 0
}

// Header renders the two-line title and source-link header.
func Header(title, url string) string {
	return fmt.Sprintf("# %s\n\n[Source: %s](%s)\n\n", title, url, url)
}

// OutputPath returns the Markdown sibling of a .tex document.
func OutputPath(srcPath string) string {
	return strings.TrimSuffix(srcPath, filepath.Ext(srcPath)) + MarkdownExt
}

// Sources lists the .tex documents directly inside dir (not recursive),
// sorted by name.
func Sources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), locate.TexExt) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// ConvertDocument converts srcPath into its Markdown sibling and writes the
// header in front of the converter's output. The header is added after the
// converter runs because converters truncate their target. On failure any
// partial output is removed.
func ConvertDocument(ctx context.Context, c Converter, srcPath, title, url string) (string, error) {
	dstPath := OutputPath(srcPath)

	if err := c.Convert(ctx, srcPath, dstPath); err != nil {
		removePartial(dstPath)
		return "", err
	}

	body, err := os.ReadFile(dstPath)
	if err != nil {
		return "", fmt.Errorf("reading converter output %s: %w", dstPath, err)
	}

	content := Header(title, url) + string(body)
	if err := os.WriteFile(dstPath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", dstPath, err)
	}
	return dstPath, nil
}

// ConvertBundle converts the documents of the paper bundle in dir,
// printing one status line per document to w. Every top-level .tex file is
// converted unless opts.MainOnly is set, in which case only the document
// chosen by locate.MainDocument is. Failures are recorded and do not stop
// the remaining documents.
func ConvertBundle(ctx context.Context, c Converter, dir, paperID string, lookup metadata.Lookup, opts Options, w io.Writer) BundleResult {
	var result BundleResult
	title, url := lookup.TitleURL(paperID)

	record := func(src string, status types.ConversionStatus, output string, err error) {
		rec := types.ConversionRecord{
			PaperID:     paperID,
			Source:      src,
			Output:      output,
			Title:       title,
			URL:         url,
			Status:      status,
			ConvertedAt: time.Now().UTC(),
		}
		if err != nil {
			rec.Error = err.Error()
		}
		result.Records = append(result.Records, rec)
	}

	sources, err := bundleSources(dir, opts)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", paperID, err)
		result.Failed++
		record(dir, types.ConversionFailed, "", err)
		return result
	}
	if len(sources) == 0 {
		fmt.Fprintf(w, "skipped: %s (no .tex documents)\n", paperID)
		return result
	}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			fmt.Fprintf(w, "failed:  %s/%s (%v)\n", paperID, relName(dir, src), err)
			result.Failed++
			record(src, types.ConversionFailed, "", err)
			continue
		}

		if opts.SkipExisting {
			if _, err := os.Stat(OutputPath(src)); err == nil {
				fmt.Fprintf(w, "skipped: %s/%s (already exists)\n", paperID, relName(dir, src))
				result.Skipped++
				record(src, types.ConversionNone, OutputPath(src), nil)
				continue
			}
		}

		out, err := ConvertDocument(ctx, c, src, title, url)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s/%s (%v)\n", paperID, relName(dir, src), err)
			result.Failed++
			record(src, types.ConversionFailed, "", err)
			continue
		}
		fmt.Fprintf(w, "converted: %s/%s -> %s\n", paperID, relName(dir, src), filepath.Base(out))
		result.Converted++
		record(src, types.ConversionDone, out, nil)
	}
	return result
}

// ErrNoMainDocument is returned when MainOnly is set and the bundle has no
// file carrying \documentclass.
var ErrNoMainDocument = errors.New("no main document found")

func bundleSources(dir string, opts Options) ([]string, error) {
	if opts.MainOnly {
		main, ok := locate.MainDocument(dir)
		if !ok {
			return nil, ErrNoMainDocument
		}
		return []string{main}, nil
	}
	return Sources(dir)
}

func relName(dir, path string) string {
	if rel, err := filepath.Rel(dir, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

func removePartial(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: could not remove partial output %s: %v\n", path, err)
	}
}
