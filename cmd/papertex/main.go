// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the papertex CLI. Each stage of the
// paper pipeline is a subcommand: fetch, extract, convert, clean, and run
// for the whole batch.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/papertex/internal/fetch"
	"github.com/pdiddy/papertex/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Config defaults. Directory names follow the layout the pipeline has
// always used: archives in latex_papers, bundles in markdown_papers.
const (
	defaultSourceDir = "latex_papers"
	defaultDestDir   = "markdown_papers"
	defaultUserAgent = "papertex/0.1"
)

// rootCmd is the base command for the papertex CLI.
var rootCmd = &cobra.Command{
	Use:   "papertex",
	Short: "Fetch arXiv papers and convert their LaTeX sources to Markdown",
	Long: `papertex downloads papers from arXiv and turns their LaTeX source
bundles into Markdown.

The pipeline runs in stages that can be invoked on their own: fetch
downloads PDFs, abstracts, and source archives; extract unpacks the
archives into one directory per paper; convert runs pandoc on each
bundle; clean strips leftover LaTeX commands from the Markdown. The run
command performs extract and convert as one batch.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		setupLogging(viper.GetString("log_level"), verbose)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./papertex.yaml or ~/.config/papertex/papertex.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging on stderr")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("papertex")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "papertex"))
		}
	}

	// A .env file in the working directory may carry PAPERTEX_ overrides.
	_ = godotenv.Load()

	viper.SetEnvPrefix("PAPERTEX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so that AutomaticEnv can resolve
// it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "warn")
	v.SetDefault("source_dir", defaultSourceDir)
	v.SetDefault("dest_dir", defaultDestDir)
	v.SetDefault("catalog_path", "")
	v.SetDefault("skip_existing", false)

	v.SetDefault("fetch.topic", "")
	v.SetDefault("fetch.category", "")
	v.SetDefault("fetch.sort_by", string(types.SortRelevance))
	v.SetDefault("fetch.max_results", fetch.DefaultMaxResults)
	v.SetDefault("fetch.full_paper_path", fetch.DefaultFullPaperPath)
	v.SetDefault("fetch.abstract_path", fetch.DefaultAbstractPath)
	v.SetDefault("fetch.source_path", fetch.DefaultSourcePath)
	v.SetDefault("fetch.download_delay", fetch.DefaultDownloadDelay)
	v.SetDefault("fetch.timeout", "60s")
	v.SetDefault("fetch.user_agent", defaultUserAgent)
	v.SetDefault("fetch.max_retries", 0)

	v.SetDefault("convert.backend", "pandoc")
	v.SetDefault("convert.pandoc_path", "pandoc")
	v.SetDefault("convert.image", "pandoc/latex:3.6")
	v.SetDefault("convert.runtime", "")
	v.SetDefault("convert.timeout", "0s")
	v.SetDefault("convert.main_only", false)
	v.SetDefault("convert.clean", false)
}

// bindFlags binds flags to config keys (flag name to key). Commands call
// it when they run because several commands bind flags to the same key.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

// setupLogging installs the default slog logger. Status lines go to
// stdout; slog carries diagnostics on stderr.
func setupLogging(level string, verbose bool) {
	lvl := parseLevel(level)
	if verbose {
		lvl = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
