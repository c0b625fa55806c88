// Package table reads and writes the comma-separated tables that every
// bibnet command consumes and produces. Column names are the contract
// between commands, so lookups are always by header name.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ErrMissingColumn is returned when a required column is absent from a header.
var ErrMissingColumn = errors.New("missing required column")

// Table is an in-memory CSV table with a header row.
type Table struct {
	Header []string
	Rows   [][]string
}

// New creates an empty table with the given header.
func New(header ...string) *Table {
	h := make([]string, len(header))
	copy(h, header)
	return &Table{Header: h}
}

// Read loads a CSV file with a header row.
func Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}

// ReadFrom parses CSV from r. The first record is the header.
// Rows shorter than the header are padded with empty cells; longer rows
// are rejected.
func ReadFrom(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty table: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("parsing header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &Table{Header: header}
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("parsing row %d: %w", line, err)
		}
		if len(rec) > len(header) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", line, len(rec), len(header))
		}
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// Write saves the table to path, replacing any existing file.
func (t *Table) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := t.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// WriteTo writes the table as CSV to w.
func (t *Table) WriteTo(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// Index returns the position of a column, or -1 if it is absent.
func (t *Table) Index(col string) int {
	for i, h := range t.Header {
		if h == col {
			return i
		}
	}
	return -1
}

// Has reports whether the header contains col.
func (t *Table) Has(col string) bool {
	return t.Index(col) >= 0
}

// Require returns an error wrapping ErrMissingColumn for the first column
// that is not present in the header.
func (t *Table) Require(cols ...string) error {
	for _, c := range cols {
		if t.Index(c) < 0 {
			return fmt.Errorf("%w: %q (have %s)", ErrMissingColumn, c, strings.Join(t.Header, ","))
		}
	}
	return nil
}

// Get returns the value of col in row i, or "" if the column is absent.
func (t *Table) Get(i int, col string) string {
	idx := t.Index(col)
	if idx < 0 {
		return ""
	}
	return t.Rows[i][idx]
}

// Column returns all values of col in row order.
func (t *Table) Column(col string) ([]string, error) {
	idx := t.Index(col)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, col)
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// AddColumn appends a column and fills it with values. values may be nil
// or shorter than the table, in which case the remaining cells are empty.
// If the column already exists its values are overwritten.
func (t *Table) AddColumn(col string, values []string) {
	idx := t.Index(col)
	if idx < 0 {
		t.Header = append(t.Header, col)
		idx = len(t.Header) - 1
		for i := range t.Rows {
			t.Rows[i] = append(t.Rows[i], "")
		}
	}
	for i := range t.Rows {
		if i < len(values) {
			t.Rows[i][idx] = values[i]
		} else {
			t.Rows[i][idx] = ""
		}
	}
}

// Append adds a row built from a column-name map. Unknown names are ignored.
func (t *Table) Append(values map[string]string) {
	row := make([]string, len(t.Header))
	for i, h := range t.Header {
		row[i] = values[h]
	}
	t.Rows = append(t.Rows, row)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Filter returns a new table containing the rows for which keep returns true.
func (t *Table) Filter(keep func(row []string) bool) *Table {
	out := New(t.Header...)
	for _, row := range t.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// ParseInt parses an integer cell. The float form "3.0" that pandas writes
// for integer columns holding NaN is accepted when it is integral and fits
// in an int.
func ParseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.Trunc(f) != f || f < math.MinInt || f >= math.MaxInt {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return int(f), nil
}
