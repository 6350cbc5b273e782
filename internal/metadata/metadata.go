// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metadata loads the metadata.json side-file that annotates a
// directory of source archives with titles and links.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pdiddy/papertex/internal/archive"
	"github.com/pdiddy/papertex/pkg/types"
)

// FileName is the side-file name looked up in a source directory.
const FileName = "metadata.json"

// Defaults used when a paper has no metadata entry.
const (
	DefaultTitle = "Unknown Title"
	DefaultURL   = "Unknown URL"
)

// Lookup maps archive file names to metadata entries. It is built once
// per batch and only read afterwards. The zero value is an empty lookup.
type Lookup struct {
	entries map[string]types.MetadataEntry
}

// NewLookup indexes entries by SourceFile. Later duplicates win.
func NewLookup(entries []types.MetadataEntry) Lookup {
	m := make(map[string]types.MetadataEntry, len(entries))
	for _, e := range entries {
		if e.SourceFile == "" {
			continue
		}
		m[e.SourceFile] = e
	}
	return Lookup{entries: m}
}

// Load reads dir/metadata.json. A missing file yields an empty Lookup;
// an unreadable or malformed file is an error.
func Load(dir string) (Lookup, error) {
	entries, err := ReadEntries(dir)
	if err != nil {
		return Lookup{}, err
	}
	return NewLookup(entries), nil
}

// ReadEntries returns the raw entries of dir/metadata.json in file order,
// or nil when the file does not exist.
func ReadEntries(dir string) ([]types.MetadataEntry, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var entries []types.MetadataEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return entries, nil
}

// Merge replaces entries of existing that share a SourceFile with the
// matching update and appends the rest, preserving order.
func Merge(existing, updates []types.MetadataEntry) []types.MetadataEntry {
	index := make(map[string]int, len(existing))
	merged := make([]types.MetadataEntry, 0, len(existing)+len(updates))
	for _, e := range existing {
		index[e.SourceFile] = len(merged)
		merged = append(merged, e)
	}
	for _, u := range updates {
		if i, ok := index[u.SourceFile]; ok {
			merged[i] = u
			continue
		}
		index[u.SourceFile] = len(merged)
		merged = append(merged, u)
	}
	return merged
}

// Write stores entries as an indented JSON array in dir/metadata.json.
func Write(dir string, entries []types.MetadataEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Len returns the number of indexed entries.
func (l Lookup) Len() int { return len(l.entries) }

// Entry returns the entry for the given paper ID, matched through its
// archive name (paperID + ".tar.gz").
func (l Lookup) Entry(paperID string) (types.MetadataEntry, bool) {
	e, ok := l.entries[paperID+archive.Suffix]
	return e, ok
}

// TitleURL returns the title and source link for paperID, substituting
// DefaultTitle and DefaultURL for a missing entry or empty field.
func (l Lookup) TitleURL(paperID string) (title, url string) {
	title, url = DefaultTitle, DefaultURL
	e, ok := l.Entry(paperID)
	if !ok {
		return title, url
	}
	if e.Title != "" {
		title = e.Title
	}
	if e.URL != "" {
		url = e.URL
	}
	return title, url
}
