// Package reconcile maps free-text identifiers (DOIs or labels) onto small
// integer surrogate ids and rewrites citation edges to use them.
//
// A Reconciler carries the lookup table and the next-id counter for one
// reconciliation. Ids handed out for new identifiers depend on the order in
// which edges are visited; the mapping itself does not.
package reconcile

import (
	"errors"
	"fmt"

	"github.com/genai-ethics/bibnet/internal/citation"
	"github.com/genai-ethics/bibnet/internal/screen"
)

// ErrDuplicateID is returned when two node rows share an id but name
// different identifiers.
var ErrDuplicateID = errors.New("duplicate node id")

// Node is one row of a node table.
type Node struct {
	ID  int    `json:"id"`
	Key string `json:"key"`
}

// MappedEdge is a citation edge rewritten to surrogate ids.
type MappedEdge struct {
	Source int `json:"source"`
	Target int `json:"target"`
}

// Duplicate records an identifier that appears on more than one node row.
// The lookup resolves it to Winner, the id of the last such row.
type Duplicate struct {
	Key    string `json:"key"`
	IDs    []int  `json:"ids"`
	Winner int    `json:"winner"`
}

// Reconciler holds the identifier-to-id mapping and the next id to assign.
type Reconciler struct {
	lookup     map[string]int
	nodes      []Node
	added      []Node
	nextID     int
	duplicates []Duplicate
}

// New builds a reconciler from an existing node table. The next id starts
// one past the largest existing id (1 for an empty table). If an identifier
// appears on several rows, the last row wins and the collision is reported
// by Duplicates.
func New(nodes []Node) (*Reconciler, error) {
	r := &Reconciler{
		lookup: make(map[string]int, len(nodes)),
		nodes:  make([]Node, len(nodes)),
		nextID: 1,
	}
	copy(r.nodes, nodes)

	byID := make(map[int]string, len(nodes))
	seen := make(map[string][]int)
	for _, n := range nodes {
		if key, ok := byID[n.ID]; ok && key != n.Key {
			return nil, fmt.Errorf("%w: %d used for %q and %q", ErrDuplicateID, n.ID, key, n.Key)
		}
		byID[n.ID] = n.Key

		seen[n.Key] = append(seen[n.Key], n.ID)
		r.lookup[n.Key] = n.ID
		if n.ID >= r.nextID {
			r.nextID = n.ID + 1
		}
	}

	for _, n := range nodes {
		ids := seen[n.Key]
		if len(ids) > 1 && ids[0] == n.ID {
			r.duplicates = append(r.duplicates, Duplicate{Key: n.Key, IDs: ids, Winner: r.lookup[n.Key]})
			seen[n.Key] = nil
		}
	}

	return r, nil
}

// Lookup returns the id for key without allocating.
func (r *Reconciler) Lookup(key string) (int, bool) {
	id, ok := r.lookup[key]
	return id, ok
}

// Resolve returns the id for key, assigning the next unused id if key has
// not been seen before.
func (r *Reconciler) Resolve(key string) int {
	if id, ok := r.lookup[key]; ok {
		return id
	}
	id := r.nextID
	r.nextID++
	r.lookup[key] = id
	n := Node{ID: id, Key: key}
	r.nodes = append(r.nodes, n)
	r.added = append(r.added, n)
	return id
}

// MapEdges rewrites every edge endpoint to its id, visiting edges in order
// and the source before the target.
func (r *Reconciler) MapEdges(edges []citation.Edge) []MappedEdge {
	out := make([]MappedEdge, len(edges))
	for i, e := range edges {
		out[i] = MappedEdge{
			Source: r.Resolve(e.Source),
			Target: r.Resolve(e.Target),
		}
	}
	return out
}

// Nodes returns the original rows followed by the rows added so far.
func (r *Reconciler) Nodes() []Node {
	out := make([]Node, len(r.nodes))
	copy(out, r.nodes)
	return out
}

// Added returns the rows created for previously unseen identifiers.
func (r *Reconciler) Added() []Node {
	out := make([]Node, len(r.added))
	copy(out, r.added)
	return out
}

// Duplicates returns identifiers that appeared on more than one input row.
func (r *Reconciler) Duplicates() []Duplicate {
	return r.duplicates
}

// NextID returns the id the next new identifier would receive.
func (r *Reconciler) NextID() int {
	return r.nextID
}

// Options controls Reconcile.
type Options struct {
	// Frozen disables id allocation. Edges touching identifiers outside the
	// node table are reported as orphaned instead of mapped.
	Frozen bool
}

// Result is the outcome of Reconcile.
type Result struct {
	Edges      []MappedEdge            `json:"edges"`
	Nodes      []Node                  `json:"nodes"`
	Added      []Node                  `json:"added"`
	Duplicates []Duplicate             `json:"duplicates"`
	Skipped    int                     `json:"skipped"`
	Orphaned   []citation.OrphanedEdge `json:"orphaned,omitempty"`
}

// Reconcile maps edges onto the node table and returns the rewritten edges
// together with the updated node table. Edges with a placeholder endpoint,
// such as the walker's unknown target, are skipped and counted rather than
// turned into nodes. Reconcile does not modify its inputs.
func Reconcile(nodes []Node, edges []citation.Edge, opts Options) (*Result, error) {
	r, err := New(nodes)
	if err != nil {
		return nil, err
	}

	res := &Result{Duplicates: r.Duplicates()}

	usable := make([]citation.Edge, 0, len(edges))
	for _, e := range edges {
		if e.IsUnknown() || screen.IsPlaceholder(e.Source) || screen.IsPlaceholder(e.Target) {
			res.Skipped++
			continue
		}
		usable = append(usable, e)
	}

	if opts.Frozen {
		var kept []citation.Edge
		res.Orphaned, kept = citation.DetectOrphanedEdges(usable, func(k string) bool {
			_, ok := r.Lookup(k)
			return ok
		})
		usable = kept
	}

	res.Edges = r.MapEdges(usable)
	res.Nodes = r.Nodes()
	res.Added = r.Added()
	return res, nil
}
