package viz

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/genai-ethics/bibnet/internal/table"
)

// Column names read by FromTables.
const (
	ColID     = "id"
	ColLabel  = "label"
	ColDOI    = "doi"
	ColSize   = "size"
	ColSource = "source"
	ColTarget = "target"
	ColWeight = "weight"
)

// GraphOptions configures FromTables.
type GraphOptions struct {
	// LabelColumn overrides the label column. By default label is used,
	// then doi, then the id.
	LabelColumn string

	// SizeByDegree sizes nodes by their edge count when the node table
	// has no size column.
	SizeByDegree bool
}

// BuildStats reports what FromTables dropped.
type BuildStats struct {
	Nodes         int `json:"nodes"`
	Edges         int `json:"edges"`
	DroppedEdges  int `json:"dropped_edges"`
	DuplicateIDs  int `json:"duplicate_ids"`
	InvalidValues int `json:"invalid_values"`
}

// FromTables builds a graph from an id-keyed node table and a
// source,target[,weight] edge table. Edges whose endpoints are not nodes are
// dropped and counted.
func FromTables(nodes, edges *table.Table, opts GraphOptions) (*GraphData, BuildStats, error) {
	var stats BuildStats
	if err := nodes.Require(ColID); err != nil {
		return nil, stats, fmt.Errorf("node table: %w", err)
	}
	if err := edges.Require(ColSource, ColTarget); err != nil {
		return nil, stats, fmt.Errorf("edge table: %w", err)
	}

	labelCol := opts.LabelColumn
	if labelCol == "" {
		for _, c := range []string{ColLabel, ColDOI} {
			if nodes.Has(c) {
				labelCol = c
				break
			}
		}
	} else if !nodes.Has(labelCol) {
		return nil, stats, fmt.Errorf("node table: %w: %s", table.ErrMissingColumn, labelCol)
	}

	g := &GraphData{}
	index := make(map[string]int, nodes.Len())
	hasSize := nodes.Has(ColSize)
	for i := range nodes.Rows {
		id := strings.TrimSpace(nodes.Get(i, ColID))
		if id == "" {
			continue
		}
		if _, dup := index[id]; dup {
			stats.DuplicateIDs++
			continue
		}
		n := Node{ID: id, Label: id, Size: 1}
		if labelCol != "" {
			if l := strings.TrimSpace(nodes.Get(i, labelCol)); l != "" {
				n.Label = l
			}
		}
		if hasSize {
			if v, ok := parseNumber(nodes.Get(i, ColSize)); ok {
				n.Size = v
			} else {
				stats.InvalidValues++
			}
		}
		index[id] = len(g.Nodes)
		g.Nodes = append(g.Nodes, n)
	}

	hasWeight := edges.Has(ColWeight)
	for i := range edges.Rows {
		src := strings.TrimSpace(edges.Get(i, ColSource))
		dst := strings.TrimSpace(edges.Get(i, ColTarget))
		si, okS := index[src]
		di, okD := index[dst]
		if !okS || !okD {
			stats.DroppedEdges++
			continue
		}
		e := Edge{Source: src, Target: dst, Weight: 1}
		if hasWeight {
			if v, ok := parseNumber(edges.Get(i, ColWeight)); ok {
				e.Weight = v
			} else {
				stats.InvalidValues++
			}
		}
		g.Nodes[si].Degree++
		if di != si {
			g.Nodes[di].Degree++
		}
		g.Edges = append(g.Edges, e)
	}

	if opts.SizeByDegree && !hasSize {
		for i := range g.Nodes {
			g.Nodes[i].Size = float64(g.Nodes[i].Degree)
		}
	}

	stats.Nodes = len(g.Nodes)
	stats.Edges = len(g.Edges)
	return g, stats, nil
}

// parseNumber reads a float. Blank cells are not numbers.
func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}
