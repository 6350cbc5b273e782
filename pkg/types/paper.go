// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ConversionStatus indicates the state of LaTeX-to-Markdown conversion for
// a single source document.
type ConversionStatus string

const (
	ConversionNone   ConversionStatus = "none"
	ConversionDone   ConversionStatus = "converted"
	ConversionFailed ConversionStatus = "failed"
)

// MetadataEntry is one element of the metadata.json side-file that sits
// next to the downloaded source archives. SourceFile matches an archive's
// base name (e.g. "2301.07041.tar.gz").
type MetadataEntry struct {
	// SourceFile is the archive file name this entry describes.
	SourceFile string `json:"source_file" yaml:"source_file"`

	// ID is the arXiv short ID (e.g. "2301.07041v2").
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// URL is the abstract page of the paper.
	URL string `json:"url" yaml:"url"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Summary is the paper abstract.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// Published is the first submission date in RFC 3339 form. Kept as
	// text so side-files written by other tools load without conversion.
	Published string `json:"published,omitempty" yaml:"published,omitempty"`
}

// ConversionRecord is the outcome of converting one source document.
type ConversionRecord struct {
	// RunID groups the records written by one pipeline run.
	RunID       string           `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	PaperID     string           `json:"paper_id" yaml:"paper_id"`
	Source      string           `json:"source" yaml:"source"`
	Output      string           `json:"output,omitempty" yaml:"output,omitempty"`
	Title       string           `json:"title" yaml:"title"`
	URL         string           `json:"url" yaml:"url"`
	Status      ConversionStatus `json:"status" yaml:"status"`
	Error       string           `json:"error,omitempty" yaml:"error,omitempty"`
	Cleaned     bool             `json:"cleaned" yaml:"cleaned"`
	ConvertedAt time.Time        `json:"converted_at" yaml:"converted_at"`
}
