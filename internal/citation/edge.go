// Package citation builds raw citation edge lists by walking the reference
// lists of seed works.
package citation

import (
	"fmt"

	"github.com/genai-ethics/bibnet/internal/table"
)

// Unknown is the target written for a seed whose references could not be
// found or fetched.
const Unknown = "unknown"

// Column names of an edge table.
const (
	ColSource = "source"
	ColTarget = "target"
)

// Edge is a directed citation from Source to Target.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// IsUnknown reports whether the edge carries the sentinel target.
func (e Edge) IsUnknown() bool {
	return e.Target == Unknown
}

// OrphanedEdge describes an edge with an endpoint that is not in a node set.
type OrphanedEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Reason string `json:"reason"` // "missing_source", "missing_target", or "missing_both"
}

// DetectOrphanedEdges splits edges into those whose endpoints are both in
// valid and those that are not.
func DetectOrphanedEdges(edges []Edge, valid func(string) bool) (orphaned []OrphanedEdge, kept []Edge) {
	for _, e := range edges {
		sourceOK := valid(e.Source)
		targetOK := valid(e.Target)

		if sourceOK && targetOK {
			kept = append(kept, e)
			continue
		}

		info := OrphanedEdge{Source: e.Source, Target: e.Target}
		switch {
		case !sourceOK && !targetOK:
			info.Reason = "missing_both"
		case !sourceOK:
			info.Reason = "missing_source"
		default:
			info.Reason = "missing_target"
		}
		orphaned = append(orphaned, info)
	}
	return orphaned, kept
}

// ToTable renders edges as a source,target table.
func ToTable(edges []Edge) *table.Table {
	t := table.New(ColSource, ColTarget)
	t.Rows = make([][]string, 0, len(edges))
	for _, e := range edges {
		t.Rows = append(t.Rows, []string{e.Source, e.Target})
	}
	return t
}

// FromTable reads edges from a table. The source and target columns are
// required. When the columns are named source_doi/target_doi, as in older
// walker output, those are accepted too.
func FromTable(t *table.Table) ([]Edge, error) {
	src, dst := ColSource, ColTarget
	if !t.Has(src) && !t.Has(dst) && t.Has("source_doi") && t.Has("target_doi") {
		src, dst = "source_doi", "target_doi"
	}
	if err := t.Require(src, dst); err != nil {
		return nil, fmt.Errorf("edge table: %w", err)
	}

	si, ti := t.Index(src), t.Index(dst)
	edges := make([]Edge, len(t.Rows))
	for i, row := range t.Rows {
		edges[i] = Edge{Source: row[si], Target: row[ti]}
	}
	return edges, nil
}
