// Package config loads bibnet's global settings from
// $XDG_CONFIG_HOME/bibnet/config.yml, a .env file, and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/genai-ethics/bibnet/internal/embedding"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// Dir is the directory name under XDG_CONFIG_HOME.
	Dir = "bibnet"
	// File is the config file name.
	File = "config.yml"
)

// Environment variables that override the file.
const (
	EnvMailto      = "BIBNET_MAILTO"
	EnvCrossrefURL = "CROSSREF_URL"
	EnvOllamaURL   = "OLLAMA_URL"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every setting a command may need. Zero values are replaced
// by defaults on load.
type Config struct {
	Mailto          string        `yaml:"mailto,omitempty"`
	CrossrefURL     string        `yaml:"crossref_url,omitempty"`
	RequestDelay    time.Duration `yaml:"request_delay,omitempty"`
	Rows            int           `yaml:"rows,omitempty"`
	OllamaURL       string        `yaml:"ollama_url,omitempty"`
	EmbedModel      string        `yaml:"embed_model,omitempty"`
	EmbedDimensions int           `yaml:"embed_dimensions,omitempty"`
	CachePath       string        `yaml:"cache_path,omitempty"`
	LogLevel        string        `yaml:"log_level,omitempty"`
	LogFormat       string        `yaml:"log_format,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		CrossrefURL:     "https://api.crossref.org",
		RequestDelay:    time.Second,
		Rows:            100,
		OllamaURL:       embedding.DefaultOllamaURL,
		EmbedModel:      embedding.DefaultModel,
		EmbedDimensions: embedding.DefaultDimensions,
		CachePath:       filepath.Join(cacheHome(), Dir, "embeddings.gob"),
		LogLevel:        "info",
		LogFormat:       "console",
	}
}

// Path returns the config file path, honoring XDG_CONFIG_HOME.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, Dir, File)
}

func cacheHome() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache")
	}
	return os.TempDir()
}

// LoadDotEnv loads .env from the working directory when present. Variables
// already set in the environment win.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}

// Load reads the config at path over the defaults and then applies
// environment overrides. An empty path means Path(). A missing file is not
// an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			var file Config
			if err := yaml.Unmarshal(data, &file); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", path, err)
			}
			cfg.merge(&file)
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.CachePath = ExpandPath(cfg.CachePath)
	return cfg, nil
}

// merge copies the non-zero fields of o into c.
func (c *Config) merge(o *Config) {
	setString(&c.Mailto, o.Mailto)
	setString(&c.CrossrefURL, o.CrossrefURL)
	setString(&c.OllamaURL, o.OllamaURL)
	setString(&c.EmbedModel, o.EmbedModel)
	setString(&c.CachePath, o.CachePath)
	setString(&c.LogLevel, o.LogLevel)
	setString(&c.LogFormat, o.LogFormat)
	if o.RequestDelay != 0 {
		c.RequestDelay = o.RequestDelay
	}
	if o.Rows != 0 {
		c.Rows = o.Rows
	}
	if o.EmbedDimensions != 0 {
		c.EmbedDimensions = o.EmbedDimensions
	}
}

func (c *Config) applyEnv() {
	setString(&c.Mailto, os.Getenv(EnvMailto))
	setString(&c.CrossrefURL, os.Getenv(EnvCrossrefURL))
	setString(&c.OllamaURL, os.Getenv(EnvOllamaURL))
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// Validate checks the values a command is about to use.
func (c *Config) Validate() error {
	var problems []string
	for name, raw := range map[string]string{"crossref_url": c.CrossrefURL, "ollama_url": c.OllamaURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, fmt.Sprintf("%s %q is not an absolute URL", name, raw))
		}
	}
	if c.RequestDelay < 0 {
		problems = append(problems, "request_delay must not be negative")
	}
	if c.Rows < 1 || c.Rows > 1000 {
		problems = append(problems, fmt.Sprintf("rows %d outside 1..1000", c.Rows))
	}
	if c.EmbedDimensions < 0 {
		problems = append(problems, "embed_dimensions must not be negative")
	}
	if c.Mailto != "" && !strings.Contains(c.Mailto, "@") {
		problems = append(problems, fmt.Sprintf("mailto %q is not an email address", c.Mailto))
	}
	if len(problems) == 0 {
		return nil
	}
	sort.Strings(problems)
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
}

// Save writes c as YAML to path, creating the directory.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
