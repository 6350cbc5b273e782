// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type member struct {
	name string
	body string
	dir  bool
}

// writeArchive builds a .tar.gz at path containing members.
func writeArchive(t *testing.T, path string, members []member) {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, m := range members {
		hdr := &tar.Header{Name: m.name, Mode: 0o644, Size: int64(len(m.body)), Typeflag: tar.TypeReg}
		if m.dir {
			hdr = &tar.Header{Name: m.name, Mode: 0o755, Typeflag: tar.TypeDir}
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if !m.dir {
			_, err := tw.Write([]byte(m.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func listFiles(t *testing.T, root string) []string {
	t.Helper()
	var got []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		got = append(got, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err)
	sort.Strings(got)
	return got
}

func TestExtractTarGz_FileSetMatchesMembers(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "2301.07041.tar.gz")
	writeArchive(t, archivePath, []member{
		{name: "figures/", dir: true},
		{name: "main.tex", body: `\documentclass{article}`},
		{name: "sections/intro.tex", body: "Intro"},
		{name: "figures/plot.pdf", body: "%PDF"},
		{name: "refs.bib", body: "@article{x}"},
	})

	dest := filepath.Join(dir, "out", "2301.07041")
	files, err := ExtractTarGz(archivePath, dest)
	require.NoError(t, err)

	want := []string{"figures/plot.pdf", "main.tex", "refs.bib", "sections/intro.tex"}
	sort.Strings(files)
	assert.Equal(t, want, files)
	assert.Equal(t, want, listFiles(t, dest))

	data, err := os.ReadFile(filepath.Join(dest, "sections", "intro.tex"))
	require.NoError(t, err)
	assert.Equal(t, "Intro", string(data))
}

func TestExtractTarGz_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, path string)
		wantErr string
	}{
		{
			name:    "missing archive",
			setup:   func(t *testing.T, path string) {},
			wantErr: "opening archive",
		},
		{
			name: "not gzip",
			setup: func(t *testing.T, path string) {
				require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))
			},
			wantErr: "reading gzip stream",
		},
		{
			name: "gzip but not tar",
			setup: func(t *testing.T, path string) {
				var buf bytes.Buffer
				gz := gzip.NewWriter(&buf)
				_, err := gz.Write(bytes.Repeat([]byte("not a tar header "), 64))
				require.NoError(t, err)
				require.NoError(t, gz.Close())
				require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
			},
			wantErr: "reading tar entry",
		},
		{
			name: "member escapes destination",
			setup: func(t *testing.T, path string) {
				writeArchive(t, path, []member{{name: "../evil.tex", body: "x"}})
			},
			wantErr: "illegal member path",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "bad.tar.gz")
			tt.setup(t, path)

			dest := filepath.Join(dir, "dest")
			files, err := ExtractTarGz(path, dest)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Nil(t, files)
			assert.NoDirExists(t, dest)
			_, statErr := os.Stat(filepath.Join(dir, "evil.tex"))
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestExtractTarGz_FailureRemovesPartialBundle(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "2301.07041.tar.gz")
	writeArchive(t, archivePath, []member{
		{name: "main.tex", body: `\documentclass{article}`},
		{name: "sections/intro.tex", body: "Intro"},
		{name: "../escape.tex", body: "x"},
	})

	dest := filepath.Join(dir, "out", "2301.07041")
	_, err := ExtractTarGz(archivePath, dest)
	require.Error(t, err)
	assert.NoDirExists(t, dest)
	assert.DirExists(t, filepath.Join(dir, "out"))
}

func TestPaperID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2301.07041.tar.gz", "2301.07041"},
		{"/data/latex/1234.tar.gz", "1234"},
		{"notes.txt", "notes.txt"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PaperID(tt.in), tt.in)
	}
	assert.True(t, IsArchive("1234.tar.gz"))
	assert.False(t, IsArchive("metadata.json"))
}
