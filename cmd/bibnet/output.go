package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/genai-ethics/bibnet/internal/table"
)

// stdout receives command results. Tests replace it.
var stdout io.Writer = os.Stdout

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...any) {
	fmt.Fprintf(stdout, format, args...)
}

// outputResult prints v as JSON, or calls human in --human mode.
func outputResult(v any, human func()) error {
	if humanOutput {
		human()
		return nil
	}
	return outputJSON(v)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// withCode tags err with an exit code.
func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// dataErrorf builds an ExitDataError error.
func dataErrorf(format string, args ...any) error {
	return withCode(ExitDataError, fmt.Errorf(format, args...))
}

// exitCode returns the exit code attached to err, ExitDataError for missing
// columns, or ExitError.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, table.ErrMissingColumn) {
		return ExitDataError
	}
	return ExitError
}

// reportError prints err in the selected output mode and returns its exit code.
func reportError(err error) int {
	code := exitCode(err)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
	} else {
		outputJSON(ErrorResponse{Error: err.Error(), Code: code})
	}
	return code
}

// readTable loads a CSV, turning parse failures into data errors.
func readTable(path string) (*table.Table, error) {
	t, err := table.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if err != nil {
		return nil, withCode(ExitDataError, err)
	}
	return t, nil
}

// writeTable writes t to path and logs where it went.
func writeTable(path string, t *table.Table) error {
	if err := t.Write(path); err != nil {
		return err
	}
	logger.Info().Str("path", path).Int("rows", t.Len()).Msg("wrote table")
	return nil
}
