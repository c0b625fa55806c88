// Package viz renders node and edge tables as an interactive Cytoscape.js
// page.
package viz

// GraphData contains all data needed to render the visualization.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is one graph vertex. Size drives the rendered diameter.
type Node struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Size   float64 `json:"size"`
	Degree int     `json:"degree"`
}

// Edge is an undirected or directed link. Weight drives the line width.
type Edge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
}

// IsEmpty returns true if the graph has no nodes.
func (g *GraphData) IsEmpty() bool {
	return len(g.Nodes) == 0
}

// sizeRange returns the smallest and largest node size.
func (g *GraphData) sizeRange() (float64, float64) {
	return minMax(len(g.Nodes), func(i int) float64 { return g.Nodes[i].Size })
}

// weightRange returns the smallest and largest edge weight.
func (g *GraphData) weightRange() (float64, float64) {
	return minMax(len(g.Edges), func(i int) float64 { return g.Edges[i].Weight })
}

func minMax(n int, at func(int) float64) (float64, float64) {
	if n == 0 {
		return 0, 0
	}
	lo, hi := at(0), at(0)
	for i := 1; i < n; i++ {
		v := at(i)
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
