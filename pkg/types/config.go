// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "papertex/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on HTTP 429 (0 uses the default).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// SortBy selects the ordering of arXiv search results.
type SortBy string

const (
	SortRelevance       SortBy = "Relevance"
	SortLastUpdatedDate SortBy = "LastUpdatedDate"
	SortSubmittedDate   SortBy = "SubmittedDate"
)

// FetchConfig holds settings for the fetch stage. It mirrors the
// download_topics section of the search configuration file.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Topic is the free-text arXiv query.
	Topic string `json:"topic" yaml:"topic" mapstructure:"topic"`

	// Category optionally restricts results to an arXiv category (e.g. "cs.CL").
	Category string `json:"category,omitempty" yaml:"category,omitempty" mapstructure:"category"`

	// SortBy is one of Relevance, LastUpdatedDate, SubmittedDate.
	SortBy SortBy `json:"sort_by" yaml:"sort_by" mapstructure:"sort_by"`

	// MaxResults is the maximum number of papers to fetch (default 30).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// FullPaperPath is the directory for downloaded PDFs.
	FullPaperPath string `json:"full_paper_path" yaml:"full_paper_path" mapstructure:"full_paper_path"`

	// AbstractPath is the directory for downloaded abstracts.
	AbstractPath string `json:"abstract_path" yaml:"abstract_path" mapstructure:"abstract_path"`

	// SourcePath is the directory for downloaded LaTeX source archives
	// and their metadata.json side-file.
	SourcePath string `json:"source_path" yaml:"source_path" mapstructure:"source_path"`

	// DownloadDelay is the delay between consecutive downloads (default 3s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay" mapstructure:"download_delay"`
}

// ConversionBackend identifies how pandoc is executed.
type ConversionBackend string

const (
	BackendPandoc    ConversionBackend = "pandoc"
	BackendContainer ConversionBackend = "container"
)

// ConversionConfig holds settings for the convert stage.
type ConversionConfig struct {
	// Backend selects a local pandoc binary or a pandoc container image.
	Backend ConversionBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// PandocPath is the pandoc executable for the local backend.
	PandocPath string `json:"pandoc_path" yaml:"pandoc_path" mapstructure:"pandoc_path"`

	// Image is the container image for the container backend.
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// Runtime forces "docker" or "podman" for the container backend.
	// Empty picks the first one that works.
	Runtime string `json:"runtime,omitempty" yaml:"runtime,omitempty" mapstructure:"runtime"`

	// Timeout bounds a single pandoc run. Zero means no timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// MainOnly converts only the main document of each bundle instead of
	// every top-level .tex file.
	MainOnly bool `json:"main_only" yaml:"main_only" mapstructure:"main_only"`

	// Clean runs the Markdown cleaner on each converted file.
	Clean bool `json:"clean" yaml:"clean" mapstructure:"clean"`
}

// PipelineConfig holds settings for a full extract-and-convert run.
type PipelineConfig struct {
	Conversion ConversionConfig `json:"convert" yaml:"convert" mapstructure:"convert"`

	// SourceDir holds the .tar.gz archives and optional metadata.json.
	SourceDir string `json:"source_dir" yaml:"source_dir" mapstructure:"source_dir"`

	// DestDir receives one subdirectory per archive. Converted Markdown is
	// written next to the extracted sources.
	DestDir string `json:"dest_dir" yaml:"dest_dir" mapstructure:"dest_dir"`

	// CatalogPath is the SQLite ledger of conversion outcomes. Empty disables it.
	CatalogPath string `json:"catalog_path" yaml:"catalog_path" mapstructure:"catalog_path"`

	// SkipExisting leaves documents whose Markdown already exists, so an
	// interrupted batch can be resumed.
	SkipExisting bool `json:"skip_existing" yaml:"skip_existing" mapstructure:"skip_existing"`
}
