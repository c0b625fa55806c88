package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/genai-ethics/bibnet/internal/citation"
	"github.com/genai-ethics/bibnet/internal/screen"
	"github.com/genai-ethics/bibnet/internal/work"
	"github.com/spf13/cobra"
)

var (
	screenColumns []string
	screenDedupe  string
	screenOutput  string
)

// ScreenResult is the JSON summary of bibnet screen.
type ScreenResult struct {
	Input   string        `json:"input"`
	Output  string        `json:"output"`
	Columns []string      `json:"columns"`
	Screen  screen.Stats  `json:"screen"`
	Dedupe  *screen.Stats `json:"dedupe,omitempty"`
}

var screenCmd = &cobra.Command{
	Use:   "screen <input.csv>",
	Short: "Drop rows with missing or placeholder values",
	Long: `Remove every row that has a blank or placeholder value (N/A, NaN) in any
of the screened columns. In an edge table's target column the "unknown"
sentinel written by refs is removed too. Without --column, a works table is
screened on Abstract and an edge table on target.

--dedupe additionally keeps only the first row per value of a column,
compared case-insensitively.

Examples:
  bibnet screen works.csv -o works_screened.csv
  bibnet screen citations.csv --column target --dedupe target`,
	Args: cobra.ExactArgs(1),
	RunE: runScreen,
}

func init() {
	screenCmd.Flags().StringSliceVarP(&screenColumns, "column", "c", nil, "Column to screen (repeatable)")
	screenCmd.Flags().StringVar(&screenDedupe, "dedupe", "", "Keep the first row per value of this column")
	screenCmd.Flags().StringVarP(&screenOutput, "output", "o", "", "Output CSV (default <input>_screened.csv)")
	rootCmd.AddCommand(screenCmd)
}

func runScreen(cmd *cobra.Command, args []string) error {
	input := args[0]
	t, err := readTable(input)
	if err != nil {
		return err
	}

	columns := screenColumns
	if len(columns) == 0 {
		switch {
		case t.Has(work.ColAbstract):
			columns = []string{work.ColAbstract}
		case t.Has(citation.ColTarget):
			columns = []string{citation.ColTarget}
		default:
			return dataErrorf("no %s or %s column in %s; pass --column", work.ColAbstract, citation.ColTarget, input)
		}
	}

	out, stats, err := screen.Rows(t, columns...)
	if err != nil {
		return withCode(ExitDataError, err)
	}
	result := ScreenResult{Input: input, Columns: columns, Screen: stats}

	if screenDedupe != "" {
		deduped, dstats, err := screen.Dedupe(out, screenDedupe)
		if err != nil {
			return withCode(ExitDataError, err)
		}
		out = deduped
		result.Dedupe = &dstats
	}

	result.Output = screenOutput
	if result.Output == "" {
		result.Output = screenedPath(input)
	}
	if err := writeTable(result.Output, out); err != nil {
		return err
	}

	return outputResult(result, func() {
		outputHuman("Screened %s on %s: kept %d of %d rows\n",
			input, strings.Join(columns, ", "), stats.Kept, stats.Input)
		if result.Dedupe != nil {
			outputHuman("Deduplicated on %s: kept %d of %d rows\n",
				screenDedupe, result.Dedupe.Kept, result.Dedupe.Input)
		}
		outputHuman("Wrote %s\n", result.Output)
	})
}

// screenedPath derives the default output name: works.csv -> works_screened.csv.
func screenedPath(input string) string {
	ext := filepath.Ext(input)
	return fmt.Sprintf("%s_screened%s", strings.TrimSuffix(input, ext), ext)
}
