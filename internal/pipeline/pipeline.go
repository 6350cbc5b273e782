// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline drives a batch run: extract every source archive of a
// directory into per-paper bundles, convert each bundle to Markdown, and
// optionally clean the results. One bad archive or document is reported
// and counted; it never stops the rest of the batch.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/pdiddy/papertex/internal/archive"
	"github.com/pdiddy/papertex/internal/clean"
	"github.com/pdiddy/papertex/internal/convert"
	"github.com/pdiddy/papertex/internal/metadata"
	"github.com/pdiddy/papertex/pkg/types"
)

// ExtractResult holds the outcome of ExtractAll.
type ExtractResult struct {
	Extracted int
	Failed    int
	// PaperDirs lists the bundle directories written, in archive order.
	PaperDirs []string
}

// HasFailures reports whether any archive failed to extract.
func (r ExtractResult) HasFailures() bool {
	return r.Failed > 0
}

// ExtractAll extracts every .tar.gz in srcDir into destDir/<paper_id>,
// in name order, printing one status line per archive to w. It returns an
// error only when srcDir cannot be listed.
func ExtractAll(srcDir, destDir string, w io.Writer) (ExtractResult, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return ExtractResult{}, fmt.Errorf("reading source directory %s: %w", srcDir, err)
	}

	var result ExtractResult
	for _, e := range entries {
		if e.IsDir() || !archive.IsArchive(e.Name()) {
			continue
		}
		paperID := archive.PaperID(e.Name())
		src := filepath.Join(srcDir, e.Name())
		target := filepath.Join(destDir, paperID)

		slog.Debug("extracting archive", "archive", src, "dest", target)
		files, err := archive.ExtractTarGz(src, target)
		if err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", e.Name(), err)
			result.Failed++
			continue
		}
		fmt.Fprintf(w, "extracted: %s (%d files)\n", paperID, len(files))
		result.Extracted++
		result.PaperDirs = append(result.PaperDirs, target)
	}

	fmt.Fprintf(w, "\nExtract summary: %d extracted, %d failed\n", result.Extracted, result.Failed)
	return result, nil
}

// Options configures ConvertAll.
type Options struct {
	convert.Options
	// Clean runs the Markdown cleaner on each converted document.
	Clean bool
}

// ConvertResult aggregates the per-bundle conversion results.
type ConvertResult struct {
	Papers    int
	Converted int
	Skipped   int
	Failed    int
	Cleaned   int
	Records   []types.ConversionRecord
}

// Total returns the number of documents processed.
func (r ConvertResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any document failed conversion or cleaning.
func (r ConvertResult) HasFailures() bool {
	return r.Failed > 0
}

// PaperDirs lists the immediate subdirectories of dir, sorted by name.
func PaperDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// ConvertAll converts every paper bundle directly under dir. The bundle's
// directory name is its paper ID, which keys the metadata lookup.
func ConvertAll(ctx context.Context, c convert.Converter, dir string, lookup metadata.Lookup, opts Options, w io.Writer) (ConvertResult, error) {
	dirs, err := PaperDirs(dir)
	if err != nil {
		return ConvertResult{}, err
	}

	var result ConvertResult
	for _, paperDir := range dirs {
		paperID := filepath.Base(paperDir)
		slog.Debug("converting bundle", "paper", paperID, "dir", paperDir)

		br := convert.ConvertBundle(ctx, c, paperDir, paperID, lookup, opts.Options, w)
		if len(br.Records) == 0 {
			continue
		}
		result.Papers++
		result.Converted += br.Converted
		result.Skipped += br.Skipped
		result.Failed += br.Failed

		if opts.Clean {
			cleanRecords(br.Records, &result, w)
		}
		result.Records = append(result.Records, br.Records...)
	}

	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d, papers: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total(), result.Papers)
	return result, nil
}

// cleanRecords cleans the output of every successful conversion in recs.
// A cleaning failure turns the record into a failure.
func cleanRecords(recs []types.ConversionRecord, result *ConvertResult, w io.Writer) {
	for i := range recs {
		r := &recs[i]
		if r.Status != types.ConversionDone {
			continue
		}
		if err := clean.File(r.Output); err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", r.Output, err)
			r.Status = types.ConversionFailed
			r.Error = err.Error()
			result.Converted--
			result.Failed++
			continue
		}
		r.Cleaned = true
		result.Cleaned++
	}
}

// Recorder persists conversion records. *catalog.Store implements it.
type Recorder interface {
	Record(ctx context.Context, records ...types.ConversionRecord) error
}

// Result holds the outcome of a full Run.
type Result struct {
	// RunID is stamped on every conversion record of the run.
	RunID   string
	Extract ExtractResult
	Convert ConvertResult
}

// HasFailures reports whether any archive or document failed.
func (r Result) HasFailures() bool {
	return r.Extract.HasFailures() || r.Convert.HasFailures()
}

// Run executes a full batch: it creates cfg.DestDir, loads the metadata
// side-file from cfg.SourceDir once, extracts every archive, converts
// every bundle, and hands the conversion records to rec when rec is not
// nil. A malformed metadata file aborts the run before any work is done.
func Run(ctx context.Context, cfg types.PipelineConfig, c convert.Converter, rec Recorder, w io.Writer) (Result, error) {
	if err := os.MkdirAll(cfg.DestDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating %s: %w", cfg.DestDir, err)
	}

	lookup, err := metadata.Load(cfg.SourceDir)
	if err != nil {
		return Result{}, err
	}
	slog.Debug("metadata loaded", "entries", lookup.Len(), "dir", cfg.SourceDir)

	result := Result{RunID: uuid.New().String()}
	slog.Debug("starting run", "run", result.RunID, "source", cfg.SourceDir, "dest", cfg.DestDir)

	result.Extract, err = ExtractAll(cfg.SourceDir, cfg.DestDir, w)
	if err != nil {
		return result, err
	}

	err = convertStage(ctx, cfg, lookup, c, rec, w, &result)
	return result, err
}

// Convert converts the bundles already extracted under cfg.DestDir, using
// the metadata side-file in cfg.SourceDir, and records the outcomes like
// Run does.
func Convert(ctx context.Context, cfg types.PipelineConfig, c convert.Converter, rec Recorder, w io.Writer) (Result, error) {
	lookup, err := metadata.Load(cfg.SourceDir)
	if err != nil {
		return Result{}, err
	}

	result := Result{RunID: uuid.New().String()}
	slog.Debug("starting conversion", "run", result.RunID, "dest", cfg.DestDir, "metadata", lookup.Len())

	err = convertStage(ctx, cfg, lookup, c, rec, w, &result)
	return result, err
}

func convertStage(ctx context.Context, cfg types.PipelineConfig, lookup metadata.Lookup, c convert.Converter, rec Recorder, w io.Writer, result *Result) error {
	opts := Options{
		Options: convert.Options{MainOnly: cfg.Conversion.MainOnly, SkipExisting: cfg.SkipExisting},
		Clean:   cfg.Conversion.Clean,
	}
	var err error
	result.Convert, err = ConvertAll(ctx, c, cfg.DestDir, lookup, opts, w)
	if err != nil {
		return err
	}

	for i := range result.Convert.Records {
		result.Convert.Records[i].RunID = result.RunID
	}
	if rec != nil {
		if err := rec.Record(ctx, result.Convert.Records...); err != nil {
			fmt.Fprintf(w, "warning: catalog update failed: %v\n", err)
		}
	}
	return nil
}
