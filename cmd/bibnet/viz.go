package main

import (
	"fmt"
	"os"

	"github.com/genai-ethics/bibnet/internal/viz"
	"github.com/spf13/cobra"
)

var (
	vizNodes        string
	vizEdges        string
	vizOutput       string
	vizLayout       string
	vizTitle        string
	vizOffline      bool
	vizCytoscapeJS  string
	vizDirected     bool
	vizLabelColumn  string
	vizSizeByDegree bool
)

// VizResult is the JSON summary of bibnet viz when writing to a file.
type VizResult struct {
	Output string `json:"output"`
	viz.BuildStats
}

func init() {
	vizCmd.Flags().StringVar(&vizNodes, "nodes", "", "Node CSV with an id column (required)")
	vizCmd.Flags().StringVar(&vizEdges, "edges", "", "Edge CSV with source and target columns (required)")
	vizCmd.Flags().StringVarP(&vizOutput, "output", "o", "", "Output file path (default: stdout)")
	vizCmd.Flags().StringVar(&vizLayout, "layout", "force", "Layout algorithm: force, circle, grid or concentric")
	vizCmd.Flags().StringVar(&vizTitle, "title", "", "Page title")
	vizCmd.Flags().BoolVar(&vizOffline, "offline", false, "Inline Cytoscape.js instead of loading it from a CDN")
	vizCmd.Flags().StringVar(&vizCytoscapeJS, "cytoscape-js", "", "Path to cytoscape.min.js for --offline")
	vizCmd.Flags().BoolVar(&vizDirected, "directed", false, "Draw arrow heads (citation graphs)")
	vizCmd.Flags().StringVar(&vizLabelColumn, "label-column", "", "Node label column (default label, then doi)")
	vizCmd.Flags().BoolVar(&vizSizeByDegree, "size-by-degree", false, "Size nodes by degree when there is no size column")
	vizCmd.MarkFlagRequired("nodes")
	vizCmd.MarkFlagRequired("edges")
	rootCmd.AddCommand(vizCmd)
}

var vizCmd = &cobra.Command{
	Use:   "viz",
	Short: "Render a node and edge table as an interactive graph",
	Long: `Generate an interactive HTML visualization of a citation or topic network.

Nodes are sized by the size column (or degree with --size-by-degree) and
edges are drawn thicker for larger weights. Edges whose endpoints are not in
the node table are dropped.

Examples:
  # Topic network to stdout
  bibnet viz --nodes topic_nodes.csv --edges topic_edges.csv > topics.html

  # Citation network with arrows and a concentric layout
  bibnet viz --nodes updated_nodes.csv --edges edges_mapped.csv --directed \
      --layout concentric --size-by-degree -o citations.html

  # Offline-capable HTML
  bibnet viz --nodes n.csv --edges e.csv --offline --cytoscape-js cytoscape.min.js -o graph.html`,
	Args: cobra.NoArgs,
	RunE: runViz,
}

func runViz(cmd *cobra.Command, args []string) error {
	nodes, err := readTable(vizNodes)
	if err != nil {
		return err
	}
	edges, err := readTable(vizEdges)
	if err != nil {
		return err
	}

	graph, stats, err := viz.FromTables(nodes, edges, viz.GraphOptions{
		LabelColumn:  vizLabelColumn,
		SizeByDegree: vizSizeByDegree,
	})
	if err != nil {
		return withCode(ExitDataError, fmt.Errorf("building graph data: %w", err))
	}
	if stats.DroppedEdges > 0 || stats.DuplicateIDs > 0 || stats.InvalidValues > 0 {
		logger.Warn().
			Int("dropped_edges", stats.DroppedEdges).
			Int("duplicate_ids", stats.DuplicateIDs).
			Int("invalid_values", stats.InvalidValues).
			Msg("graph input had problems")
	}

	opts := viz.HTMLOptions{
		Layout:   vizLayout,
		Title:    vizTitle,
		Offline:  vizOffline,
		Directed: vizDirected,
	}
	if vizOffline {
		if vizCytoscapeJS == "" {
			return fmt.Errorf("--offline needs --cytoscape-js")
		}
		src, err := os.ReadFile(vizCytoscapeJS)
		if err != nil {
			return fmt.Errorf("reading Cytoscape.js: %w", err)
		}
		opts.CytoscapeJS = string(src)
	}

	html, err := viz.GenerateHTML(graph, opts)
	if err != nil {
		return fmt.Errorf("generating HTML: %w", err)
	}

	if vizOutput == "" {
		_, err := fmt.Fprint(stdout, html)
		return err
	}
	if err := os.WriteFile(vizOutput, []byte(html), 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}

	result := VizResult{Output: vizOutput, BuildStats: stats}
	return outputResult(result, func() {
		outputHuman("Wrote %d nodes and %d edges to %s\n", stats.Nodes, stats.Edges, vizOutput)
	})
}
