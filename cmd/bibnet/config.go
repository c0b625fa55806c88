package main

import (
	"fmt"
	"os"

	"github.com/genai-ethics/bibnet/internal/config"
	"github.com/spf13/cobra"
)

var configForce bool

// ConfigResponse is the JSON form of the effective configuration.
type ConfigResponse struct {
	Path            string `json:"path"`
	Mailto          string `json:"mailto"`
	CrossrefURL     string `json:"crossref_url"`
	RequestDelay    string `json:"request_delay"`
	Rows            int    `json:"rows"`
	OllamaURL       string `json:"ollama_url"`
	EmbedModel      string `json:"embed_model"`
	EmbedDimensions int    `json:"embed_dimensions"`
	CachePath       string `json:"cache_path"`
	LogLevel        string `json:"log_level"`
	LogFormat       string `json:"log_format"`
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configPathCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the configuration after defaults, the config file, .env and the
environment (BIBNET_MAILTO, CROSSREF_URL, OLLAMA_URL) are applied.

Usage:
  bibnet config          # Show effective config
  bibnet config path     # Print the config file path
  bibnet config init     # Write a config file with the defaults

Keys (config.yml):
  mailto            Contact email sent to Crossref (polite pool)
  crossref_url      Crossref API base URL
  request_delay     Pause between Crossref requests, e.g. 1s
  rows              Crossref page size
  ollama_url        Ollama server for embeddings
  embed_model       Embedding model name
  embed_dimensions  Expected embedding size (0 = any)
  cache_path        Embedding cache file
  log_level         trace, debug, info, warn or error
  log_format        console or json`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := effectiveConfigPath()
		return outputResult(map[string]string{"path": path}, func() {
			outputHuman("%s\n", path)
		})
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := effectiveConfigPath()
		if _, err := os.Stat(path); err == nil && !configForce {
			return withCode(ExitConfigError, fmt.Errorf("%s already exists (use --force to overwrite)", path))
		}
		if err := config.Default().Save(path); err != nil {
			return withCode(ExitConfigError, err)
		}
		return outputResult(map[string]string{"path": path}, func() {
			outputHuman("Wrote %s\n", path)
		})
	},
}

func effectiveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.Path()
}

func runConfig(cmd *cobra.Command, args []string) error {
	resp := ConfigResponse{
		Path:            effectiveConfigPath(),
		Mailto:          cfg.Mailto,
		CrossrefURL:     cfg.CrossrefURL,
		RequestDelay:    cfg.RequestDelay.String(),
		Rows:            cfg.Rows,
		OllamaURL:       cfg.OllamaURL,
		EmbedModel:      cfg.EmbedModel,
		EmbedDimensions: cfg.EmbedDimensions,
		CachePath:       cfg.CachePath,
		LogLevel:        cfg.LogLevel,
		LogFormat:       cfg.LogFormat,
	}
	return outputResult(resp, func() {
		outputHuman("path:             %s\n", resp.Path)
		outputHuman("mailto:           %s\n", resp.Mailto)
		outputHuman("crossref_url:     %s\n", resp.CrossrefURL)
		outputHuman("request_delay:    %s\n", resp.RequestDelay)
		outputHuman("rows:             %d\n", resp.Rows)
		outputHuman("ollama_url:       %s\n", resp.OllamaURL)
		outputHuman("embed_model:      %s\n", resp.EmbedModel)
		outputHuman("embed_dimensions: %d\n", resp.EmbedDimensions)
		outputHuman("cache_path:       %s\n", resp.CachePath)
		outputHuman("log_level:        %s\n", resp.LogLevel)
		outputHuman("log_format:       %s\n", resp.LogFormat)
	})
}
