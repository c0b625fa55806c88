package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/genai-ethics/bibnet/internal/storage"
	"github.com/spf13/cobra"
)

var (
	queryDB    string
	queryCSV   bool
	queryJSONL bool
)

var queryCmd = &cobra.Command{
	Use:   "query <sql> <table.csv|name=table.csv>...",
	Short: "Run SQL over CSV files",
	Long: `Load each CSV into SQLite as a table of TEXT columns and run a SQL
statement over them. A table is named after its file (works.csv -> works)
unless given as name=path. Empty cells are NULL.

Examples:
  bibnet query "SELECT COUNT(*) AS n FROM works WHERE Abstract IS NOT NULL" works.csv
  bibnet query "SELECT n.label, COUNT(*) AS cited FROM e JOIN n ON n.id = e.target GROUP BY n.label ORDER BY cited DESC" \
      e=edges_mapped.csv n=updated_nodes.csv --csv`,
	Args: cobra.MinimumNArgs(2),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryDB, "db", "", "SQLite file to load into (default in-memory)")
	queryCmd.Flags().BoolVar(&queryCSV, "csv", false, "Output CSV")
	queryCmd.Flags().BoolVar(&queryJSONL, "jsonl", false, "Output JSONL")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	sql := args[0]

	db, err := storage.Open(queryDB)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, spec := range args[1:] {
		name, path := tableSpec(spec)
		t, err := readTable(path)
		if err != nil {
			return err
		}
		n, err := db.LoadTable(name, t)
		if err != nil {
			return withCode(ExitDataError, fmt.Errorf("loading %s: %w", path, err))
		}
		logger.Debug().Str("table", name).Str("path", path).Int("rows", n).Msg("loaded table")
	}

	records, cols, err := db.Query(sql)
	if err != nil {
		return err
	}

	switch {
	case queryCSV:
		return storage.ToTable(records, cols).WriteTo(stdout)
	case queryJSONL:
		enc := json.NewEncoder(stdout)
		for _, r := range records {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	case humanOutput:
		return printRecords(records, cols)
	default:
		if records == nil {
			records = []storage.Record{}
		}
		return outputJSON(records)
	}
}

// tableSpec splits name=path. Without a name the file's base name is used.
func tableSpec(spec string) (name, path string) {
	if i := strings.Index(spec, "="); i > 0 {
		return spec[:i], spec[i+1:]
	}
	base := filepath.Base(spec)
	return strings.TrimSuffix(base, filepath.Ext(base)), spec
}

// printRecords writes records as aligned columns.
func printRecords(records []storage.Record, cols []string) error {
	t := storage.ToTable(records, cols)
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(t.Header, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	outputHuman("(%d rows)\n", len(records))
	return nil
}
