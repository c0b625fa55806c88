package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvMailto, EnvCrossrefURL, EnvOllamaURL} {
		t.Setenv(k, "")
	}
}

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got, want := Path(), "/custom/config/bibnet/config.yml"; got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got, want := Path(), filepath.Join(home, ".config", "bibnet", "config.yml"); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	def := Default()
	if cfg.CrossrefURL != def.CrossrefURL || cfg.RequestDelay != time.Second || cfg.Rows != 100 {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `mailto: file@example.org
request_delay: 250ms
rows: 500
embed_model: nomic-embed-text
embed_dimensions: 768
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvMailto, "env@example.org")
	t.Setenv(EnvOllamaURL, "http://gpu:11434")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"mailto from env", cfg.Mailto, "env@example.org"},
		{"ollama from env", cfg.OllamaURL, "http://gpu:11434"},
		{"delay from file", cfg.RequestDelay, 250 * time.Millisecond},
		{"rows from file", cfg.Rows, 500},
		{"model from file", cfg.EmbedModel, "nomic-embed-text"},
		{"dims from file", cfg.EmbedDimensions, 768},
		{"crossref default", cfg.CrossrefURL, "https://api.crossref.org"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestLoadMalformed(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("rows: [not an int"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"relative crossref url", func(c *Config) { c.CrossrefURL = "api.crossref.org" }, "crossref_url"},
		{"negative delay", func(c *Config) { c.RequestDelay = -time.Second }, "request_delay"},
		{"too many rows", func(c *Config) { c.Rows = 5000 }, "rows"},
		{"bad mailto", func(c *Config) { c.Mailto = "nobody" }, "mailto"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalid) || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bibnet", "config.yml")
	cfg := Default()
	cfg.Mailto = "me@example.org"
	cfg.RequestDelay = 2 * time.Second

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Mailto != cfg.Mailto || got.RequestDelay != cfg.RequestDelay {
		t.Errorf("Load() = %+v, want %+v", got, cfg)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	if err := LoadDotEnv(); err != nil {
		t.Errorf("LoadDotEnv() without file error = %v", err)
	}

	t.Setenv(EnvCrossrefURL, "")
	os.Unsetenv(EnvCrossrefURL)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CROSSREF_URL=http://mirror.local\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := LoadDotEnv(); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv(EnvCrossrefURL); got != "http://mirror.local" {
		t.Errorf("CROSSREF_URL = %q", got)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}
	if got := ExpandPath("~/x.gob"); got != filepath.Join(home, "x.gob") {
		t.Errorf("ExpandPath() = %q", got)
	}
	if got := ExpandPath("/abs"); got != "/abs" {
		t.Errorf("ExpandPath(/abs) = %q", got)
	}
}
