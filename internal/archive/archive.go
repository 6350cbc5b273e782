// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive unpacks gzip-compressed tar archives of paper sources
// into per-paper directories.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Suffix is the file name suffix of a source archive.
const Suffix = ".tar.gz"

// IsArchive reports whether name looks like a source archive.
func IsArchive(name string) bool {
	return strings.HasSuffix(name, Suffix)
}

// PaperID derives the paper identifier from an archive file name
// ("2301.07041.tar.gz" becomes "2301.07041").
func PaperID(name string) string {
	return strings.TrimSuffix(filepath.Base(name), Suffix)
}

// ExtractTarGz writes every member of the archive at archivePath under
// destDir, preserving internal paths and creating directories as needed.
// It returns the slash-separated relative paths of the regular files
// written, in archive order. Members that would land outside destDir are
// rejected; symlinks and device entries are skipped. When extraction fails
// partway, destDir is removed so no partial bundle is left behind.
func ExtractTarGz(archivePath, destDir string) (files []string, err error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", archivePath, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading gzip stream %s: %w", archivePath, err)
	}
	defer gz.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", destDir, err)
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(destDir)
			files = nil
		}
	}()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return files, fmt.Errorf("reading tar entry in %s: %w", archivePath, err)
		}

		rel, err := memberPath(hdr.Name)
		if err != nil {
			return files, fmt.Errorf("%s: %w", archivePath, err)
		}
		if rel == "" {
			continue
		}
		target := filepath.Join(destDir, rel)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return files, fmt.Errorf("creating directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := writeMember(tr, target, hdr.FileInfo().Mode().Perm()); err != nil {
				return files, err
			}
			files = append(files, filepath.ToSlash(rel))
		default:
			// Links, devices and FIFOs are never part of a paper source.
		}
	}
	return files, nil
}

// memberPath cleans a tar member name and checks that it stays inside the
// extraction root. It returns "" for entries naming the root itself.
func memberPath(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("illegal member path %q", name)
	}
	if clean == "." {
		return "", nil
	}
	return clean, nil
}

func writeMember(r io.Reader, target string, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", filepath.Dir(target), err)
	}
	// Owner read/write is always granted so later stages can write siblings.
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0o600)
	if err != nil {
		return fmt.Errorf("creating %s: %w", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", target, err)
	}
	return out.Close()
}
