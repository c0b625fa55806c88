package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/genai-ethics/bibnet/internal/table"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// isolate points config, cache and environment lookups at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("BIBNET_MAILTO", "")
	t.Setenv("CROSSREF_URL", "")
	t.Setenv("OLLAMA_URL", "")
	return dir
}

// resetFlags restores every flag of cmd and its children to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// runCLI runs bibnet in-process and returns stdout and the exit code.
func runCLI(t *testing.T, args ...string) (string, int) {
	t.Helper()
	resetFlags(rootCmd)

	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	defer func() { stdout = old }()

	code := run(context.Background(), append([]string{"--log-level", "error"}, args...))
	return buf.String(), code
}

// decode unmarshals command output into v.
func decode(t *testing.T, out string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("decoding output %q: %v", out, err)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func readCSV(t *testing.T, path string) *table.Table {
	t.Helper()
	tbl, err := table.Read(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return tbl
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain", errors.New("boom"), ExitError},
		{"tagged", withCode(ExitAPIError, errors.New("api")), ExitAPIError},
		{"wrapped tag", fmt.Errorf("outer: %w", withCode(ExitConfigError, errors.New("cfg"))), ExitConfigError},
		{"missing column", fmt.Errorf("edge table: %w", table.ErrMissingColumn), ExitDataError},
		{"data errorf", dataErrorf("bad %s", "row"), ExitDataError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode = %d, want %d", got, tt.want)
			}
		})
	}
	if withCode(ExitError, nil) != nil {
		t.Error("withCode(nil) should be nil")
	}
}

func TestConfigCommand(t *testing.T) {
	isolate(t)

	out, code := runCLI(t, "config")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, output %s", code, out)
	}
	var resp ConfigResponse
	decode(t, out, &resp)
	if resp.CrossrefURL != "https://api.crossref.org" {
		t.Errorf("crossref_url = %q", resp.CrossrefURL)
	}
	if resp.RequestDelay != "1s" {
		t.Errorf("request_delay = %q, want 1s", resp.RequestDelay)
	}
	if !strings.HasSuffix(resp.Path, filepath.Join("bibnet", "config.yml")) {
		t.Errorf("path = %q", resp.Path)
	}
}

func TestConfigInitThenLoad(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bibnet.yml")

	if out, code := runCLI(t, "--config", path, "config", "init"); code != ExitSuccess {
		t.Fatalf("init exit code = %d, output %s", code, out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if _, code := runCLI(t, "--config", path, "config", "init"); code != ExitConfigError {
		t.Errorf("second init exit code = %d, want %d", code, ExitConfigError)
	}
	if _, code := runCLI(t, "--config", path, "config", "init", "--force"); code != ExitSuccess {
		t.Errorf("forced init exit code = %d", code)
	}

	t.Setenv("BIBNET_MAILTO", "me@example.org")
	out, code := runCLI(t, "--config", path, "config")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	var resp ConfigResponse
	decode(t, out, &resp)
	if resp.Mailto != "me@example.org" {
		t.Errorf("mailto = %q, want env override", resp.Mailto)
	}
}

func TestInvalidConfig(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "bad.yml", "rows: 5000\ncrossref_url: not a url\n")

	out, code := runCLI(t, "--config", path, "config")
	if code != ExitConfigError {
		t.Fatalf("exit code = %d, want %d", code, ExitConfigError)
	}
	var resp ErrorResponse
	decode(t, out, &resp)
	if !strings.Contains(resp.Error, "rows") || resp.Code != ExitConfigError {
		t.Errorf("error response = %+v", resp)
	}
}

func TestUnknownLogFormat(t *testing.T) {
	isolate(t)
	if _, code := runCLI(t, "--log-format", "xml", "config"); code != ExitConfigError {
		t.Errorf("exit code = %d, want %d", code, ExitConfigError)
	}
}

func TestHumanErrorsGoToStderr(t *testing.T) {
	dir := isolate(t)
	out, code := runCLI(t, "--human", "screen", filepath.Join(dir, "missing.csv"))
	if code != ExitError {
		t.Errorf("exit code = %d, want %d", code, ExitError)
	}
	if out != "" {
		t.Errorf("stdout = %q, want nothing in human mode", out)
	}
}
