// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"golang.org/x/time/rate"

	"github.com/pdiddy/papertex/internal/archive"
	"github.com/pdiddy/papertex/internal/httputil"
	"github.com/pdiddy/papertex/internal/metadata"
	"github.com/pdiddy/papertex/pkg/types"
)

// Defaults for the download directories and pacing.
const (
	DefaultFullPaperPath = "./full_papers"
	DefaultAbstractPath  = "./abstracts"
	DefaultSourcePath    = "./latex_papers"
	DefaultDownloadDelay = 3 * time.Second
)

// ApplyDefaults fills unset fields of cfg. A non-positive max_results
// means unset.
func ApplyDefaults(cfg *types.FetchConfig) {
	if cfg.SortBy == "" {
		cfg.SortBy = types.SortRelevance
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.FullPaperPath == "" {
		cfg.FullPaperPath = DefaultFullPaperPath
	}
	if cfg.AbstractPath == "" {
		cfg.AbstractPath = DefaultAbstractPath
	}
	if cfg.SourcePath == "" {
		cfg.SourcePath = DefaultSourcePath
	}
}

// SanitizeFilename keeps letters, digits, spaces, underscores and hyphens
// and replaces every other rune with an underscore.
func SanitizeFilename(title string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, title)
}

// fileStem is the identifier part of a download's file name. Old-style
// arXiv IDs contain a slash ("hep-th/9901001v1").
func fileStem(shortID string) string {
	return strings.ReplaceAll(shortID, "/", "_")
}

// PDFFileName is "<short_id>_<title>.pdf".
func PDFFileName(r types.SearchResult) string {
	return fmt.Sprintf("%s_%s.pdf", fileStem(r.ShortID), SanitizeFilename(r.Title))
}

// AbstractFileName is "<short_id>_<title>_abstract.txt".
func AbstractFileName(r types.SearchResult) string {
	return fmt.Sprintf("%s_%s_abstract.txt", fileStem(r.ShortID), SanitizeFilename(r.Title))
}

// SourceFileName is "<short_id>.tar.gz", the archive name the conversion
// pipeline turns into a paper ID.
func SourceFileName(r types.SearchResult) string {
	return fileStem(r.ShortID) + archive.Suffix
}

// BatchResult holds the outcome of a batch download.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Total returns the number of papers processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any download failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Fetcher downloads artifacts for search results.
type Fetcher struct {
	Client *Client
	Config types.FetchConfig
}

// task is one artifact to produce for a search result.
type task struct {
	name  string
	fetch func(dest string) error
}

// FetchPDFs downloads the PDF of every result into cfg.FullPaperPath.
func (f *Fetcher) FetchPDFs(ctx context.Context, results []types.SearchResult, w io.Writer) BatchResult {
	result, _ := f.each(ctx, results, f.Config.FullPaperPath, "full text", true, w, func(r types.SearchResult) task {
		pdfURL := r.PDFURL
		if pdfURL == "" {
			pdfURL = strings.Replace(r.AbsURL, "/abs/", "/pdf/", 1)
		}
		return task{name: PDFFileName(r), fetch: func(dest string) error {
			return f.download(ctx, pdfURL, dest, "application/pdf")
		}}
	})
	return result
}

// FetchAbstracts writes the abstract of every result into cfg.AbstractPath.
// The summary comes with the search result, so nothing is downloaded.
func (f *Fetcher) FetchAbstracts(ctx context.Context, results []types.SearchResult, w io.Writer) BatchResult {
	result, _ := f.each(ctx, results, f.Config.AbstractPath, "abstract", false, w, func(r types.SearchResult) task {
		return task{name: AbstractFileName(r), fetch: func(dest string) error {
			return os.WriteFile(dest, []byte(r.Summary), 0o644)
		}}
	})
	return result
}

// FetchSources downloads the LaTeX source archive of every result into
// cfg.SourcePath and merges a metadata.json entry for each archive that
// is now present.
func (f *Fetcher) FetchSources(ctx context.Context, results []types.SearchResult, w io.Writer) (BatchResult, error) {
	result, present := f.each(ctx, results, f.Config.SourcePath, "source", true, w, func(r types.SearchResult) task {
		return task{name: SourceFileName(r), fetch: func(dest string) error {
			return f.download(ctx, arxivEprintBase+r.ShortID, dest, "application/gzip")
		}}
	})
	if len(present) == 0 {
		return result, nil
	}

	entries := make([]types.MetadataEntry, 0, len(present))
	for _, r := range present {
		entries = append(entries, types.MetadataEntry{
			SourceFile: SourceFileName(r),
			ID:         r.ShortID,
			Title:      r.Title,
			URL:        r.AbsURL,
			Authors:    r.Authors,
			Summary:    r.Summary,
			Published:  formatTime(r.Published),
		})
	}
	existing, err := metadata.ReadEntries(f.Config.SourcePath)
	if err != nil {
		return result, err
	}
	if err := metadata.Write(f.Config.SourcePath, metadata.Merge(existing, entries)); err != nil {
		return result, err
	}
	return result, nil
}

// each produces one artifact per result in dir, skipping files that
// already exist. When paced is set downloads are spaced at least
// cfg.DownloadDelay apart. It returns the results whose artifact is present
// afterwards.
func (f *Fetcher) each(ctx context.Context, results []types.SearchResult, dir, label string, paced bool, w io.Writer, plan func(types.SearchResult) task) (BatchResult, []types.SearchResult) {
	var (
		result  BatchResult
		present []types.SearchResult
	)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(w, "failed:  creating %s (%v)\n", dir, err)
		result.Failed = len(results)
		return result, nil
	}
	limiter := newLimiter(f.Config.DownloadDelay)

	for _, r := range results {
		t := plan(r)
		dest := filepath.Join(dir, t.name)

		if _, err := os.Stat(dest); err == nil {
			fmt.Fprintf(w, "skipped: %s (already exists)\n", t.name)
			result.Skipped++
			present = append(present, r)
			continue
		}

		if paced {
			if err := limiter.Wait(ctx); err != nil {
				fmt.Fprintf(w, "failed:  %s (%v)\n", t.name, err)
				result.Failed++
				continue
			}
		}

		if err := t.fetch(dest); err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", t.name, err)
			result.Failed++
			continue
		}
		fmt.Fprintf(w, "Downloaded %s: %s\n", label, t.name)
		result.Downloaded++
		present = append(present, r)
	}

	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result, present
}

// download fetches url to destPath through a temporary file that is
// renamed into place only after the body has been fully written.
func (f *Fetcher) download(ctx context.Context, url, destPath, accept string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.Client.Config.UserAgent)
	req.Header.Set("Accept", accept)

	resp, err := httputil.DoWithRetry(ctx, f.Client.HTTP, req, f.Client.Config.MaxRetries)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// newLimiter allows one download per delay. The first download in a
// batch goes out immediately.
func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
