package viz

import (
	"encoding/json"
	"fmt"
)

// element is one entry of a Cytoscape.js elements array.
type element struct {
	Group string `json:"group"` // "nodes" or "edges"
	Data  any    `json:"data"`
}

type edgeData struct {
	ID string `json:"id"`
	Edge
}

// ToCytoscapeJSON renders the graph as a flat Cytoscape.js elements array,
// nodes before edges. Edge ids are positional: e0, e1 and so on.
func (g *GraphData) ToCytoscapeJSON() (string, error) {
	els := make([]element, 0, len(g.Nodes)+len(g.Edges))
	for _, n := range g.Nodes {
		els = append(els, element{Group: "nodes", Data: n})
	}
	for i, e := range g.Edges {
		els = append(els, element{Group: "edges", Data: edgeData{ID: fmt.Sprintf("e%d", i), Edge: e}})
	}

	buf, err := json.Marshal(els)
	if err != nil {
		return "", fmt.Errorf("encoding graph elements: %w", err)
	}
	return string(buf), nil
}
