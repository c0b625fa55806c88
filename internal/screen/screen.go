// Package screen drops rows whose fields carry missing or placeholder
// values, and removes duplicate rows by key. Screening happens in its own
// pass after ingestion, so fetched data is never rejected at the source.
package screen

import (
	"fmt"
	"strings"

	"github.com/genai-ethics/bibnet/internal/citation"
	"github.com/genai-ethics/bibnet/internal/table"
)

// placeholders are compared case-insensitively after trimming: N/A from the
// fetcher, NaN from pandas.
var placeholders = map[string]bool{
	"n/a": true,
	"nan": true,
}

// Stats reports what a screening pass removed.
type Stats struct {
	Input   int `json:"input"`
	Kept    int `json:"kept"`
	Dropped int `json:"dropped"`
}

// IsPlaceholder reports whether v is blank or one of the placeholder
// markers. The walker's unknown target is not a placeholder; see Rows.
func IsPlaceholder(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	return placeholders[strings.ToLower(v)]
}

// Rows returns a copy of t without rows that have a placeholder in any of
// the named columns. In the edge target column the citation.Unknown
// sentinel is dropped too. A missing column is an error. Applying Rows to
// its own output removes nothing.
func Rows(t *table.Table, columns ...string) (*table.Table, Stats, error) {
	if len(columns) == 0 {
		return nil, Stats{}, fmt.Errorf("no columns to screen")
	}
	if err := t.Require(columns...); err != nil {
		return nil, Stats{}, err
	}

	idx := make([]int, len(columns))
	sentinel := -1
	for i, c := range columns {
		idx[i] = t.Index(c)
		if c == citation.ColTarget {
			sentinel = idx[i]
		}
	}

	out := t.Filter(func(row []string) bool {
		for _, i := range idx {
			if IsPlaceholder(row[i]) {
				return false
			}
		}
		return sentinel < 0 || strings.TrimSpace(row[sentinel]) != citation.Unknown
	})

	return out, Stats{Input: t.Len(), Kept: out.Len(), Dropped: t.Len() - out.Len()}, nil
}

// Dedupe keeps the first row for each value of column, comparing keys
// case-insensitively after trimming. Rows with a blank key are kept, since
// they cannot be told apart.
func Dedupe(t *table.Table, column string) (*table.Table, Stats, error) {
	if err := t.Require(column); err != nil {
		return nil, Stats{}, err
	}
	idx := t.Index(column)

	seen := make(map[string]bool, t.Len())
	out := t.Filter(func(row []string) bool {
		key := strings.ToLower(strings.TrimSpace(row[idx]))
		if key == "" {
			return true
		}
		if seen[key] {
			return false
		}
		seen[key] = true
		return true
	})

	return out, Stats{Input: t.Len(), Kept: out.Len(), Dropped: t.Len() - out.Len()}, nil
}
