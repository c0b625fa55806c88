package main

import (
	"errors"
	"strings"

	"github.com/genai-ethics/bibnet/internal/citation"
	"github.com/genai-ethics/bibnet/internal/reconcile"
	"github.com/spf13/cobra"
)

var (
	reconcileNodes    string
	reconcileEdges    string
	reconcileKey      string
	reconcileFrozen   bool
	reconcileFoldCase bool
	reconcileNodesOut string
	reconcileEdgesOut string
)

// ReconcileResult is the JSON summary of bibnet reconcile.
type ReconcileResult struct {
	NodesOut   string                  `json:"nodes_out"`
	EdgesOut   string                  `json:"edges_out"`
	Nodes      int                     `json:"nodes"`
	Edges      int                     `json:"edges"`
	Added      int                     `json:"added"`
	Skipped    int                     `json:"skipped"`
	Orphaned   []citation.OrphanedEdge `json:"orphaned,omitempty"`
	Duplicates []reconcile.Duplicate   `json:"duplicates,omitempty"`
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Map DOI or label edges onto integer node ids",
	Long: `Rewrite a source,target edge table to the integer ids of a node table
(columns id and the key column). Identifiers missing from the node table get
new ids, one past the largest existing id, and are appended to the node table.
The node table is written on every run, even when nothing was added, so the
two outputs always belong together. Edges to "unknown" or with a blank or
N/A endpoint are skipped.

With --frozen no ids are allocated: edges with an endpoint outside the node
table are dropped and reported as orphaned.

Examples:
  bibnet reconcile --nodes nodes.csv --edges citations_screened.csv
  bibnet reconcile --nodes topics.csv --edges topic_edges.csv --key label --frozen`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileNodes, "nodes", "", "Node CSV with id and key columns (required)")
	reconcileCmd.Flags().StringVar(&reconcileEdges, "edges", "", "Edge CSV with source and target columns (required)")
	reconcileCmd.Flags().StringVar(&reconcileKey, "key", reconcile.ColDOI, "Node column holding identifiers: doi or label")
	reconcileCmd.Flags().BoolVar(&reconcileFrozen, "frozen", false, "Do not allocate ids; report edges outside the node table")
	reconcileCmd.Flags().BoolVar(&reconcileFoldCase, "fold-case", false, "Compare identifiers case-insensitively")
	reconcileCmd.Flags().StringVar(&reconcileNodesOut, "nodes-out", "updated_nodes.csv", "Updated node CSV")
	reconcileCmd.Flags().StringVar(&reconcileEdgesOut, "edges-out", "edges_mapped.csv", "Mapped edge CSV")
	reconcileCmd.MarkFlagRequired("nodes")
	reconcileCmd.MarkFlagRequired("edges")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	if reconcileKey != reconcile.ColDOI && reconcileKey != reconcile.ColLabel {
		return dataErrorf("--key must be %s or %s, got %q", reconcile.ColDOI, reconcile.ColLabel, reconcileKey)
	}

	nodeTable, err := readTable(reconcileNodes)
	if err != nil {
		return err
	}
	edgeTable, err := readTable(reconcileEdges)
	if err != nil {
		return err
	}

	nodes, err := reconcile.NodesFromTable(nodeTable, reconcileKey)
	if err != nil {
		return withCode(ExitDataError, err)
	}
	edges, err := citation.FromTable(edgeTable)
	if err != nil {
		return withCode(ExitDataError, err)
	}

	if reconcileFoldCase {
		for i := range nodes {
			nodes[i].Key = strings.ToLower(nodes[i].Key)
		}
		for i := range edges {
			edges[i].Source = strings.ToLower(edges[i].Source)
			edges[i].Target = strings.ToLower(edges[i].Target)
		}
	}

	res, err := reconcile.Reconcile(nodes, edges, reconcile.Options{Frozen: reconcileFrozen})
	if errors.Is(err, reconcile.ErrDuplicateID) {
		return withCode(ExitDataError, err)
	}
	if err != nil {
		return err
	}

	for _, d := range res.Duplicates {
		logger.Warn().Str("key", d.Key).Ints("ids", d.IDs).Int("winner", d.Winner).Msg("identifier on several node rows")
	}
	for _, o := range res.Orphaned {
		logger.Debug().Str("source", o.Source).Str("target", o.Target).Str("reason", o.Reason).Msg("orphaned edge")
	}

	result := ReconcileResult{
		NodesOut:   reconcileNodesOut,
		EdgesOut:   reconcileEdgesOut,
		Nodes:      len(res.Nodes),
		Edges:      len(res.Edges),
		Added:      len(res.Added),
		Skipped:    res.Skipped,
		Orphaned:   res.Orphaned,
		Duplicates: res.Duplicates,
	}

	// Both tables are rewritten together so the edge ids always resolve
	// against the node file next to them.
	if err := writeTable(reconcileNodesOut, reconcile.UpdateNodeTable(nodeTable, reconcileKey, res.Added)); err != nil {
		return err
	}
	if err := writeTable(reconcileEdgesOut, reconcile.EdgesToTable(res.Edges)); err != nil {
		return err
	}

	return outputResult(result, func() {
		outputHuman("Mapped %d edges onto %d nodes (%d new, %d skipped)\n",
			result.Edges, result.Nodes, result.Added, result.Skipped)
		if len(result.Orphaned) > 0 {
			outputHuman("Dropped %d edges outside the frozen node table\n", len(result.Orphaned))
		}
		if len(result.Duplicates) > 0 {
			outputHuman("Warning: %d identifiers appear on several node rows\n", len(result.Duplicates))
		}
		outputHuman("Wrote %s\n", result.NodesOut)
		outputHuman("Wrote %s\n", result.EdgesOut)
	})
}
