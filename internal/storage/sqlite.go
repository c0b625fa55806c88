// Package storage loads CSV tables into SQLite so they can be queried with
// ad-hoc SQL.
package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/genai-ethics/bibnet/internal/table"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Record is one result row keyed by column name.
type Record map[string]any

// DB wraps a SQLite database connection.
type DB struct {
	db     *sql.DB
	tables []string
}

// Open opens or creates a SQLite database at path. An empty path means
// MemoryPath.
func Open(path string) (*DB, error) {
	if path == "" {
		path = MemoryPath
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A second connection to :memory: would see an empty database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Tables returns the names loaded with LoadTable, in load order.
func (d *DB) Tables() []string {
	return append([]string(nil), d.tables...)
}

// QuoteIdent quotes a table or column name for SQLite.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// columnNames returns the SQL column names for a header. Blank names become
// column_<n>.
func columnNames(header []string) ([]string, error) {
	cols := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		seen[key] = true
		cols[i] = name
	}
	return cols, nil
}

// LoadTable replaces table name with the contents of t. Every column is
// TEXT and empty cells are stored as NULL.
func (d *DB) LoadTable(name string, t *table.Table) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("table name is empty")
	}
	cols, err := columnNames(t.Header)
	if err != nil {
		return 0, fmt.Errorf("loading %s: %w", name, err)
	}
	if len(cols) == 0 {
		return 0, fmt.Errorf("loading %s: table has no columns", name)
	}

	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = QuoteIdent(c) + " TEXT"
		marks[i] = "?"
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DROP TABLE IF EXISTS " + QuoteIdent(name)); err != nil {
		return 0, fmt.Errorf("dropping %s: %w", name, err)
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", QuoteIdent(name), strings.Join(quoted, ", "))
	if _, err := tx.Exec(create); err != nil {
		return 0, fmt.Errorf("creating %s: %w", name, err)
	}

	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s VALUES (%s)", QuoteIdent(name), strings.Join(marks, ", ")))
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for r, row := range t.Rows {
		for i := range cols {
			args[i] = nil
			if i < len(row) && row[i] != "" {
				args[i] = row[i]
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			return 0, fmt.Errorf("inserting row %d into %s: %w", r+1, name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing %s: %w", name, err)
	}
	d.tables = append(d.tables, name)
	return len(t.Rows), nil
}

// Query runs a SQL statement and returns its rows plus the column order.
func (d *DB) Query(query string) ([]Record, []string, error) {
	rows, err := d.db.Query(query)
	if err != nil {
		return nil, nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var records []Record
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}

		record := make(Record, len(cols))
		for i, col := range cols {
			if b, ok := values[i].([]byte); ok {
				record[col] = string(b)
			} else {
				record[col] = values[i]
			}
		}
		records = append(records, record)
	}
	return records, cols, rows.Err()
}

// ToTable renders query results as a table in column order. NULL becomes
// an empty cell.
func ToTable(records []Record, cols []string) *table.Table {
	t := table.New(cols...)
	for _, rec := range records {
		row := make([]string, len(cols))
		for i, c := range cols {
			if v := rec[c]; v != nil {
				row[i] = fmt.Sprint(v)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
