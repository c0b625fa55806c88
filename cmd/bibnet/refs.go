package main

import (
	"fmt"
	"time"

	"github.com/genai-ethics/bibnet/internal/citation"
	"github.com/genai-ethics/bibnet/internal/pdf"
	"github.com/genai-ethics/bibnet/internal/screen"
	"github.com/spf13/cobra"
)

var (
	refsInput  string
	refsColumn string
	refsPDFs   string
	refsOutput string
	refsDelay  time.Duration
)

// RefsResult is the JSON summary of bibnet refs.
type RefsResult struct {
	Output string `json:"output"`
	citation.WalkStats
	Interrupted bool `json:"interrupted,omitempty"`
}

var refsCmd = &cobra.Command{
	Use:   "refs [doi...]",
	Short: "Walk seed reference lists into citation edges",
	Long: `Look up the reference list of every seed DOI on Crossref and write one
source,target edge per cited DOI. A seed whose lookup fails or that lists no
references gets a single edge to "unknown". Seeds come from the DOI column of
--input, from DOIs found in the PDFs under --pdfs, and from arguments, in
that order.

Requests are sequential with a fixed pause between them. Interrupting the
walk writes the edges gathered so far.

Examples:
  bibnet refs --input works.csv -o citations.csv
  bibnet refs 10.1038/nature14539 10.1145/3442188.3445922`,
	RunE: runRefs,
}

func init() {
	refsCmd.Flags().StringVarP(&refsInput, "input", "i", "", "CSV with seed DOIs")
	refsCmd.Flags().StringVar(&refsColumn, "column", "DOI", "Seed column in --input")
	refsCmd.Flags().StringVar(&refsPDFs, "pdfs", "", "Directory of PDFs to take seed DOIs from")
	refsCmd.Flags().StringVarP(&refsOutput, "output", "o", "citations.csv", "Output edge CSV")
	addDelayFlag(refsCmd, &refsDelay)
	rootCmd.AddCommand(refsCmd)
}

func runRefs(cmd *cobra.Command, args []string) error {
	seeds, err := loadSeeds(refsInput, refsColumn, refsPDFs, args)
	if err != nil {
		return err
	}
	if len(seeds) == 0 {
		return fmt.Errorf("no seeds: pass DOIs as arguments or --input")
	}

	walker := citation.NewWalker(newCrossrefClient(cmd, refsDelay), logger)
	walker.SetProgress(func(current, total int, seed string) {
		logger.Debug().Int("current", current).Int("total", total).Str("doi", seed).Msg("progress")
	})

	edges, stats, walkErr := walker.Walk(cmd.Context(), seeds)
	if walkErr != nil && cmd.Context().Err() == nil {
		return walkErr
	}

	if err := writeTable(refsOutput, citation.ToTable(edges)); err != nil {
		return err
	}
	if walkErr != nil {
		return fmt.Errorf("walk interrupted after %d edges (written to %s): %w", len(edges), refsOutput, walkErr)
	}

	result := RefsResult{Output: refsOutput, WalkStats: stats}
	return outputResult(result, func() {
		outputHuman("Walked %d seeds: %d edges (%d unknown, %d skipped) -> %s\n",
			stats.Seeds, stats.Edges, stats.Unknown, stats.Skipped, refsOutput)
	})
}

// loadSeeds gathers seed DOIs from a CSV column, a PDF directory and args.
// Each seed is normalized; placeholder values become blank so the walker
// skips them.
func loadSeeds(path, column, pdfDir string, args []string) ([]string, error) {
	var raw []string
	if path != "" {
		t, err := readTable(path)
		if err != nil {
			return nil, err
		}
		col, err := t.Column(column)
		if err != nil {
			return nil, err
		}
		raw = append(raw, col...)
	}
	if pdfDir != "" {
		found, err := pdf.ScanDir(pdfDir)
		if err != nil {
			return nil, err
		}
		for _, s := range found {
			if s.Err != "" {
				logger.Warn().Str("path", s.Path).Str("error", s.Err).Msg("unreadable PDF")
			}
		}
		raw = append(raw, pdf.UniqueDOIs(found)...)
	}
	raw = append(raw, args...)

	seeds := make([]string, len(raw))
	for i, s := range raw {
		if screen.IsPlaceholder(s) {
			continue
		}
		seeds[i] = pdf.CleanDOI(s)
	}
	return seeds, nil
}
