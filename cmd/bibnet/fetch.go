package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/genai-ethics/bibnet/internal/crossref"
	"github.com/genai-ethics/bibnet/internal/work"
	"github.com/spf13/cobra"
)

var (
	fetchQuery         string
	fetchBibliographic string
	fetchFilter        string
	fetchSort          string
	fetchOrder         string
	fetchRows          int
	fetchMax           int
	fetchOutput        string
	fetchDelay         time.Duration
)

// FetchResult is the JSON summary of bibnet fetch.
type FetchResult struct {
	Output       string `json:"output"`
	Works        int    `json:"works"`
	WithAbstract int    `json:"with_abstract"`
	Partial      bool   `json:"partial,omitempty"`
	Error        string `json:"error,omitempty"`
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Search Crossref and save DOI, title and abstract",
	Long: `Search the Crossref /works endpoint and write one row per work to a CSV
with the columns DOI, Title and Abstract. Missing titles and abstracts are
written as N/A; abstracts are stripped of JATS markup.

Examples:
  bibnet fetch --query "generative AI ethics" --max 500
  bibnet fetch --bibliographic "large language models" --filter from-pub-date:2023 -o works.csv`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchQuery, "query", "", "Free-text query")
	fetchCmd.Flags().StringVar(&fetchBibliographic, "bibliographic", "", "Bibliographic query (titles, authors, years)")
	fetchCmd.Flags().StringVar(&fetchFilter, "filter", "", "Crossref filter, e.g. type:journal-article,from-pub-date:2020")
	fetchCmd.Flags().StringVar(&fetchSort, "sort", "", "Sort field, e.g. relevance or published")
	fetchCmd.Flags().StringVar(&fetchOrder, "order", "", "Sort order: asc or desc")
	fetchCmd.Flags().IntVar(&fetchRows, "rows", 0, "Page size (default from config)")
	fetchCmd.Flags().IntVar(&fetchMax, "max", 1000, "Maximum number of works (0 = no limit)")
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "works.csv", "Output CSV")
	addDelayFlag(fetchCmd, &fetchDelay)
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(fetchQuery) == "" && strings.TrimSpace(fetchBibliographic) == "" {
		return fmt.Errorf("one of --query or --bibliographic is required")
	}
	rows := fetchRows
	if rows <= 0 {
		rows = cfg.Rows
	}

	client := newCrossrefClient(cmd, fetchDelay)
	q := crossref.Query{
		Query:         fetchQuery,
		Bibliographic: fetchBibliographic,
		Filter:        fetchFilter,
		Sort:          fetchSort,
		Order:         fetchOrder,
		Select:        []string{"DOI", "title", "abstract"},
		Rows:          rows,
	}

	var works []work.Work
	fetchErr := client.Works(cmd.Context(), q, fetchMax, func(items []crossref.Work) error {
		for _, it := range items {
			works = append(works, work.FromCrossref(it))
		}
		logger.Debug().Int("fetched", len(works)).Msg("page")
		return nil
	})

	if fetchErr != nil && len(works) == 0 {
		if cmd.Context().Err() != nil {
			return fetchErr
		}
		return withCode(ExitAPIError, fetchErr)
	}
	if fetchErr != nil {
		logger.Warn().Err(fetchErr).Int("works", len(works)).Msg("fetch stopped early; writing partial results")
	}

	if err := writeTable(fetchOutput, work.ToTable(works)); err != nil {
		return err
	}

	result := FetchResult{Output: fetchOutput, Works: len(works), Partial: fetchErr != nil}
	for _, w := range works {
		if w.HasAbstract() {
			result.WithAbstract++
		}
	}
	if fetchErr != nil {
		result.Error = fetchErr.Error()
	}

	return outputResult(result, func() {
		outputHuman("Wrote %d works to %s (%d with abstracts)\n", result.Works, result.Output, result.WithAbstract)
		if result.Partial {
			outputHuman("Stopped early: %s\n", result.Error)
		}
	})
}
