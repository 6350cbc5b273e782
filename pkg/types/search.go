// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the papertex pipeline:
// search results from arXiv, metadata side-file entries, conversion records,
// and per-stage configuration.
package types

import "time"

// SearchResult represents a paper returned by an arXiv API query.
type SearchResult struct {
	// ShortID is the arXiv identifier including version (e.g. "2301.07041v2").
	ShortID string `json:"short_id" yaml:"short_id"`

	// Title is the paper title with whitespace collapsed.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Summary is the paper abstract.
	Summary string `json:"summary" yaml:"summary"`

	// Published is the first submission date.
	Published time.Time `json:"published" yaml:"published"`

	// Updated is the date of the latest version.
	Updated time.Time `json:"updated" yaml:"updated"`

	// AbsURL is the abstract page (e.g. "http://arxiv.org/abs/2301.07041v2").
	AbsURL string `json:"abs_url" yaml:"abs_url"`

	// PDFURL is the PDF link advertised by the feed.
	PDFURL string `json:"pdf_url" yaml:"pdf_url"`

	// Categories lists the arXiv subject categories, primary first.
	Categories []string `json:"categories" yaml:"categories"`
}
