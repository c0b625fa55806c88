// Package main provides the bibnet CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/genai-ethics/bibnet/internal/config"
	"github.com/genai-ethics/bibnet/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool

	configPath string
	logLevel   string
	logFormat  string

	// cfg and logger are set by the root PersistentPreRunE.
	cfg    *config.Config
	logger = zerolog.Nop()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// run executes the CLI with args and returns the process exit code.
func run(ctx context.Context, args []string) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn().Msg("interrupted")
		}
		return reportError(err)
	}
	return ExitSuccess
}

var rootCmd = &cobra.Command{
	Use:   "bibnet",
	Short: "Bibliometric toolkit for citation and topic networks",
	Long: `bibnet builds citation and topic networks from scholarly metadata.

Pipeline:
  fetch      search Crossref and save DOI, title and abstract
  screen     drop rows with placeholder values, optionally dedupe
  refs       walk the reference lists of seed DOIs into citation edges
  reconcile  map DOI edges onto integer node ids
  topics     fit, assign and build topic co-occurrence graphs

Helpers: seeds (DOIs from PDFs), join, query (SQL over CSVs), viz.

Results are printed as JSON on stdout; logs go to stderr.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/bibnet/config.yml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json")
	rootCmd.Version = Version
}

// setup loads configuration and builds the logger for every command.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return withCode(ExitConfigError, err)
	}

	path := configPath
	if path == "" {
		path = config.Path()
	}
	c, err := config.Load(path)
	if err != nil {
		return withCode(ExitConfigError, err)
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if logFormat != "" {
		c.LogFormat = logFormat
	}
	if err := c.Validate(); err != nil {
		return withCode(ExitConfigError, err)
	}

	l, err := logging.New(logging.Config{Level: c.LogLevel, Format: c.LogFormat, Output: os.Stderr})
	if err != nil {
		return withCode(ExitConfigError, fmt.Errorf("logging: %w", err))
	}

	cfg = c
	logger = l
	logger.Debug().Str("command", cmd.CommandPath()).Str("config", path).Msg("starting")
	return nil
}
