// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"

	"github.com/pdiddy/papertex/internal/catalog"
	"github.com/pdiddy/papertex/internal/container"
	"github.com/pdiddy/papertex/internal/convert"
	"github.com/pdiddy/papertex/internal/fetch"
	"github.com/pdiddy/papertex/pkg/types"
)

// pipelineConfig decodes the top-level keys and the convert section. An
// empty catalog_path puts the catalog inside dest_dir.
func pipelineConfig(v *viper.Viper) (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if err := validatePipeline(cfg); err != nil {
		return cfg, err
	}
	if cfg.CatalogPath == "" {
		cfg.CatalogPath = filepath.Join(cfg.DestDir, catalog.DefaultFile)
	}
	return cfg, nil
}

func validatePipeline(cfg types.PipelineConfig) error {
	if err := validation.ValidateStruct(&cfg,
		validation.Field(&cfg.SourceDir, validation.Required),
		validation.Field(&cfg.DestDir, validation.Required),
	); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	conv := cfg.Conversion
	if err := validation.ValidateStruct(&conv,
		validation.Field(&conv.Backend, validation.In(types.BackendPandoc, types.BackendContainer)),
		validation.Field(&conv.Runtime, validation.In("docker", "podman")),
		validation.Field(&conv.Timeout, validation.Min(time.Duration(0))),
	); err != nil {
		return fmt.Errorf("invalid convert config: %w", err)
	}
	return nil
}

// fetchConfig decodes and validates the fetch section. It goes through
// Unmarshal rather than UnmarshalKey so nested defaults and env overrides
// are merged key by key.
func fetchConfig(v *viper.Viper) (types.FetchConfig, error) {
	var section struct {
		Fetch types.FetchConfig `mapstructure:"fetch"`
	}
	if err := v.Unmarshal(&section); err != nil {
		return section.Fetch, fmt.Errorf("decoding fetch config: %w", err)
	}
	cfg := section.Fetch
	cfg.Topic = strings.TrimSpace(cfg.Topic)
	if err := validateFetch(cfg); err != nil {
		return cfg, err
	}
	fetch.ApplyDefaults(&cfg)
	return cfg, nil
}

func validateFetch(cfg types.FetchConfig) error {
	if err := validation.ValidateStruct(&cfg,
		validation.Field(&cfg.Topic, validation.Required),
		validation.Field(&cfg.SortBy, validation.In(types.SortRelevance, types.SortLastUpdatedDate, types.SortSubmittedDate)),
		validation.Field(&cfg.MaxResults, validation.Min(0)),
		validation.Field(&cfg.DownloadDelay, validation.Min(time.Duration(0))),
	); err != nil {
		return fmt.Errorf("invalid fetch config: %w", err)
	}
	return nil
}

// newConverter builds the converter selected by cfg.Backend.
func newConverter(ctx context.Context, cfg types.ConversionConfig) (convert.Converter, error) {
	switch cfg.Backend {
	case types.BackendPandoc, "":
		p, err := convert.NewPandocConverter(cfg.PandocPath, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return p, nil
	case types.BackendContainer:
		rt, err := container.Select(ctx, cfg.Runtime)
		if err != nil {
			return nil, err
		}
		c, err := convert.NewContainerConverter(ctx, rt, cfg.Image, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported backend %q: use %s or %s", cfg.Backend, types.BackendPandoc, types.BackendContainer)
	}
}

// openCatalog opens the catalog unless disabled is set, in which case it
// returns nil and the caller skips recording.
func openCatalog(path string, disabled bool) (*catalog.Store, error) {
	if disabled {
		return nil, nil
	}
	return catalog.Open(path)
}
