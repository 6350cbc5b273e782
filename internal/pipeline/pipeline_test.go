// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/papertex/internal/convert"
	"github.com/pdiddy/papertex/internal/metadata"
	"github.com/pdiddy/papertex/pkg/types"
)

// writeArchive builds srcDir/name containing files (path -> content).
func writeArchive(t *testing.T, srcDir, name string, files map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for path, body := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: path, Mode: 0o644, Size: int64(len(body)), Typeflag: tar.TypeReg}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, name), buf.Bytes(), 0o644))
}

// echoConverter copies the LaTeX source into the Markdown output, standing
// in for pandoc. Sources containing "FAIL" are rejected.
type echoConverter struct{}

func (echoConverter) Convert(_ context.Context, srcPath, dstPath string) error {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return err
	}
	if bytes.Contains(data, []byte("FAIL")) {
		return errors.New("exit status 1")
	}
	return os.WriteFile(dstPath, data, 0o644)
}

type fakeRecorder struct {
	records []types.ConversionRecord
	err     error
}

func (f *fakeRecorder) Record(_ context.Context, records ...types.ConversionRecord) error {
	f.records = append(f.records, records...)
	return f.err
}

func TestExtractAll_IsolatesBadArchives(t *testing.T) {
	src, dest := t.TempDir(), t.TempDir()
	writeArchive(t, src, "1111.tar.gz", map[string]string{"main.tex": "x"})
	require.NoError(t, os.WriteFile(filepath.Join(src, "2222.tar.gz"), []byte("corrupt"), 0o644))
	writeArchive(t, src, "3333.tar.gz", map[string]string{"paper.tex": "y", "figs/a.png": "png"})
	require.NoError(t, os.WriteFile(filepath.Join(src, metadata.FileName), []byte("[]"), 0o644))

	var log bytes.Buffer
	result, err := ExtractAll(src, dest, &log)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Extracted)
	assert.Equal(t, 1, result.Failed)
	assert.True(t, result.HasFailures())
	assert.Equal(t, []string{filepath.Join(dest, "1111"), filepath.Join(dest, "3333")}, result.PaperDirs)
	assert.FileExists(t, filepath.Join(dest, "3333", "figs", "a.png"))
	assert.Contains(t, log.String(), "failed:  2222.tar.gz")
	assert.Contains(t, log.String(), "extracted: 3333 (2 files)")
}

// writeTruncatedArchive writes srcDir/name as a .tar.gz holding main.tex and
// a large incompressible member, cut off halfway through the stream.
func writeTruncatedArchive(t *testing.T, srcDir, name string) {
	t.Helper()
	big := make([]byte, 100<<10)
	rand.New(rand.NewSource(1)).Read(big)

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	doc := []byte("\\documentclass{article}\nPartial\n")
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "main.tex", Mode: 0o644, Size: int64(len(doc)), Typeflag: tar.TypeReg}))
	_, err := tw.Write(doc)
	require.NoError(t, err)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "data.bin", Mode: 0o644, Size: int64(len(big)), Typeflag: tar.TypeReg}))
	_, err = tw.Write(big)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	data := buf.Bytes()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, name), data[:len(data)/2], 0o644))
}

func TestExtractAll_TruncatedArchiveLeavesNoBundle(t *testing.T) {
	src, dest := t.TempDir(), t.TempDir()
	writeTruncatedArchive(t, src, "bad.tar.gz")

	var log bytes.Buffer
	result, err := ExtractAll(src, dest, &log)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Failed)
	assert.Empty(t, result.PaperDirs)
	assert.NoDirExists(t, filepath.Join(dest, "bad"))
	assert.Contains(t, log.String(), "failed:  bad.tar.gz")
}

func TestExtractAll_MissingSource(t *testing.T) {
	var log bytes.Buffer
	_, err := ExtractAll(filepath.Join(t.TempDir(), "absent"), t.TempDir(), &log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading source directory")
}

func TestConvertAll_WithClean(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "1234"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1234", "main.tex"),
		[]byte("\\usepackage{amsmath}\nHello \\cite{foo} world\n\\label{sec1}\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0o755))

	lookup := metadata.NewLookup([]types.MetadataEntry{{SourceFile: "1234.tar.gz", Title: "T", URL: "U"}})

	var log bytes.Buffer
	result, err := ConvertAll(context.Background(), echoConverter{}, dir, lookup, Options{Clean: true}, &log)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Papers)
	assert.Equal(t, 1, result.Converted)
	assert.Equal(t, 1, result.Cleaned)
	require.Len(t, result.Records, 1)
	assert.True(t, result.Records[0].Cleaned)

	data, err := os.ReadFile(filepath.Join(dir, "1234", "main.md"))
	require.NoError(t, err)
	assert.Equal(t, convert.Header("T", "U")+"Hello  world\n\n", string(data))
	assert.Contains(t, log.String(), "Batch summary: 1 converted, 0 skipped, 0 failed")
}

func TestConvertAll_WithoutCleanKeepsDirectives(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "p"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p", "main.tex"), []byte("a \\cite{b}\n"), 0o644))

	var log bytes.Buffer
	result, err := ConvertAll(context.Background(), echoConverter{}, dir, metadata.Lookup{}, Options{}, &log)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Cleaned)

	data, err := os.ReadFile(filepath.Join(dir, "p", "main.md"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "a \\cite{b}\n"))
}

func TestRun(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "markdown_papers")

	writeArchive(t, src, "1234.tar.gz", map[string]string{
		"main.tex":  "\\documentclass{article}\nBody \\ref{x}\n",
		"extra.tex": "FAIL",
	})
	writeArchive(t, src, "5678.tar.gz", map[string]string{"paper.tex": "Other"})
	require.NoError(t, os.WriteFile(filepath.Join(src, "bad.tar.gz"), []byte("nope"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, metadata.FileName),
		[]byte(`[{"source_file": "1234.tar.gz", "title": "Known", "url": "http://arxiv.org/abs/1234"}]`), 0o644))

	cfg := types.PipelineConfig{
		SourceDir:  src,
		DestDir:    dest,
		Conversion: types.ConversionConfig{Clean: true},
	}
	rec := &fakeRecorder{}

	var log bytes.Buffer
	result, err := Run(context.Background(), cfg, echoConverter{}, rec, &log)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Extract.Extracted)
	assert.Equal(t, 1, result.Extract.Failed)
	assert.Equal(t, 2, result.Convert.Converted)
	assert.Equal(t, 1, result.Convert.Failed)
	assert.True(t, result.HasFailures())
	require.Len(t, rec.records, 3)
	assert.NotEmpty(t, result.RunID)
	for _, r := range rec.records {
		assert.Equal(t, result.RunID, r.RunID)
	}

	known, err := os.ReadFile(filepath.Join(dest, "1234", "main.md"))
	require.NoError(t, err)
	assert.Equal(t, convert.Header("Known", "http://arxiv.org/abs/1234")+"Body \n", string(known))

	unknown, err := os.ReadFile(filepath.Join(dest, "5678", "paper.md"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(unknown), convert.Header(metadata.DefaultTitle, metadata.DefaultURL)))

	assert.NoFileExists(t, filepath.Join(dest, "1234", "extra.md"))
}

func TestRun_TruncatedArchiveIsNotConverted(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "markdown_papers")
	writeArchive(t, src, "1234.tar.gz", map[string]string{"main.tex": "Good"})
	writeTruncatedArchive(t, src, "bad.tar.gz")
	rec := &fakeRecorder{}

	var log bytes.Buffer
	result, err := Run(context.Background(), types.PipelineConfig{SourceDir: src, DestDir: dest}, echoConverter{}, rec, &log)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Extract.Extracted)
	assert.Equal(t, 1, result.Extract.Failed)
	assert.Equal(t, 1, result.Convert.Papers)
	assert.Equal(t, 1, result.Convert.Converted)
	require.Len(t, rec.records, 1)
	assert.Equal(t, "1234", rec.records[0].PaperID)
	assert.NoDirExists(t, filepath.Join(dest, "bad"))
	assert.NotContains(t, log.String(), "converted: bad/")
}

func TestRun_MalformedMetadata(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, metadata.FileName), []byte("{"), 0o644))

	var log bytes.Buffer
	_, err := Run(context.Background(), types.PipelineConfig{SourceDir: src, DestDir: t.TempDir()}, echoConverter{}, nil, &log)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestRun_RecorderFailureIsAWarning(t *testing.T) {
	src := t.TempDir()
	writeArchive(t, src, "1.tar.gz", map[string]string{"main.tex": "x"})

	var log bytes.Buffer
	result, err := Run(context.Background(), types.PipelineConfig{SourceDir: src, DestDir: t.TempDir()},
		echoConverter{}, &fakeRecorder{err: errors.New("disk full")}, &log)
	require.NoError(t, err)
	assert.False(t, result.HasFailures())
	assert.Contains(t, log.String(), "warning: catalog update failed: disk full")
}

func TestConvert_ResumesExtractedBundles(t *testing.T) {
	src, dest := t.TempDir(), t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dest, "1234"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "1234", "main.tex"), []byte("one"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "1234", "done.tex"), []byte("two"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "1234", "done.md"), []byte("kept"), 0o644))

	cfg := types.PipelineConfig{SourceDir: src, DestDir: dest, SkipExisting: true}
	rec := &fakeRecorder{}

	var log bytes.Buffer
	result, err := Convert(context.Background(), cfg, echoConverter{}, rec, &log)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Convert.Converted)
	assert.Equal(t, 1, result.Convert.Skipped)
	assert.Zero(t, result.Extract.Extracted)
	require.Len(t, rec.records, 2)
	assert.Equal(t, result.RunID, rec.records[0].RunID)

	kept, err := os.ReadFile(filepath.Join(dest, "1234", "done.md"))
	require.NoError(t, err)
	assert.Equal(t, "kept", string(kept))
}
