package reconcile

import (
	"fmt"
	"strconv"

	"github.com/genai-ethics/bibnet/internal/citation"
	"github.com/genai-ethics/bibnet/internal/table"
)

// Node table column names.
const (
	ColID    = "id"
	ColDOI   = "doi"
	ColLabel = "label"
)

// NewNodeLabel is written to the label column of rows created for newly
// discovered identifiers when label is not itself the key column.
const NewNodeLabel = "New Node"

// NodesFromTable reads (id, key) pairs from a node table. Both columns are
// required and every id must be an integer.
func NodesFromTable(t *table.Table, keyCol string) ([]Node, error) {
	if err := t.Require(ColID, keyCol); err != nil {
		return nil, fmt.Errorf("node table: %w", err)
	}
	idIdx, keyIdx := t.Index(ColID), t.Index(keyCol)

	nodes := make([]Node, len(t.Rows))
	for i, row := range t.Rows {
		id, err := table.ParseInt(row[idIdx])
		if err != nil {
			return nil, fmt.Errorf("node table row %d: invalid id %q", i+2, row[idIdx])
		}
		nodes[i] = Node{ID: id, Key: row[keyIdx]}
	}
	return nodes, nil
}

// UpdateNodeTable returns a copy of t with one row appended per added node.
// The key column holds the identifier; a label column that is not the key
// gets NewNodeLabel; every other column is left empty.
func UpdateNodeTable(t *table.Table, keyCol string, added []Node) *table.Table {
	out := table.New(t.Header...)
	out.Rows = make([][]string, 0, len(t.Rows)+len(added))
	out.Rows = append(out.Rows, t.Rows...)

	for _, n := range added {
		values := map[string]string{
			ColID:  strconv.Itoa(n.ID),
			keyCol: n.Key,
		}
		if keyCol != ColLabel && out.Has(ColLabel) {
			values[ColLabel] = NewNodeLabel
		}
		out.Append(values)
	}
	return out
}

// EdgesToTable renders mapped edges as a source,target table.
func EdgesToTable(edges []MappedEdge) *table.Table {
	t := table.New(citation.ColSource, citation.ColTarget)
	t.Rows = make([][]string, 0, len(edges))
	for _, e := range edges {
		t.Rows = append(t.Rows, []string{strconv.Itoa(e.Source), strconv.Itoa(e.Target)})
	}
	return t
}
