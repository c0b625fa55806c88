package main

import (
	"github.com/genai-ethics/bibnet/internal/pdf"
	"github.com/genai-ethics/bibnet/internal/table"
	"github.com/genai-ethics/bibnet/internal/work"
	"github.com/spf13/cobra"
)

var seedsOutput string

// SeedsResult is the JSON summary of bibnet seeds.
type SeedsResult struct {
	Output string     `json:"output"`
	Files  int        `json:"files"`
	DOIs   int        `json:"dois"`
	Failed []pdf.Seed `json:"failed,omitempty"`
}

var seedsCmd = &cobra.Command{
	Use:   "seeds <dir>",
	Short: "Extract seed DOIs from a directory of PDFs",
	Long: `Search the first pages of every PDF under dir for a DOI and write the
distinct DOIs, in path order, to a CSV with the columns DOI and path. The
output feeds bibnet refs --input.

Example:
  bibnet seeds papers/ -o seeds.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runSeeds,
}

func init() {
	seedsCmd.Flags().StringVarP(&seedsOutput, "output", "o", "seeds.csv", "Output CSV")
	rootCmd.AddCommand(seedsCmd)
}

func runSeeds(cmd *cobra.Command, args []string) error {
	found, err := pdf.ScanDir(args[0])
	if err != nil {
		return err
	}

	result := SeedsResult{Output: seedsOutput, Files: len(found)}
	t := table.New(work.ColDOI, "path")
	seen := make(map[string]bool)
	for _, s := range found {
		switch {
		case s.Err != "":
			logger.Warn().Str("path", s.Path).Str("error", s.Err).Msg("unreadable PDF")
			result.Failed = append(result.Failed, s)
		case s.DOI == "":
			logger.Info().Str("path", s.Path).Msg("no DOI found")
		case !seen[s.DOI]:
			seen[s.DOI] = true
			t.Rows = append(t.Rows, []string{s.DOI, s.Path})
		}
	}
	result.DOIs = t.Len()

	if err := writeTable(seedsOutput, t); err != nil {
		return err
	}
	return outputResult(result, func() {
		outputHuman("Found %d DOIs in %d PDFs -> %s\n", result.DOIs, result.Files, result.Output)
		for _, f := range result.Failed {
			outputHuman("  unreadable: %s (%s)\n", f.Path, f.Err)
		}
	})
}
