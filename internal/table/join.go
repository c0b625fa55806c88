package table

import "fmt"

// Suffixes appended to overlapping non-key columns by LeftJoin.
const (
	LeftSuffix  = "_x"
	RightSuffix = "_y"
)

// LeftJoin joins right onto left on the column named on. Every left row is
// kept in order. A left row with several matches in right yields one output
// row per match; a row with no match gets empty right-hand cells. Non-key
// columns present in both tables are renamed with LeftSuffix and RightSuffix.
func LeftJoin(left, right *Table, on string) (*Table, error) {
	if err := left.Require(on); err != nil {
		return nil, fmt.Errorf("left table: %w", err)
	}
	if err := right.Require(on); err != nil {
		return nil, fmt.Errorf("right table: %w", err)
	}

	leftKey := left.Index(on)
	rightKey := right.Index(on)

	overlap := make(map[string]bool)
	for _, h := range right.Header {
		if h != on && left.Has(h) {
			overlap[h] = true
		}
	}

	header := make([]string, 0, len(left.Header)+len(right.Header)-1)
	for _, h := range left.Header {
		if overlap[h] {
			h += LeftSuffix
		}
		header = append(header, h)
	}
	var rightCols []int
	for i, h := range right.Header {
		if i == rightKey {
			continue
		}
		if overlap[h] {
			h += RightSuffix
		}
		header = append(header, h)
		rightCols = append(rightCols, i)
	}

	matches := make(map[string][]int)
	for i, row := range right.Rows {
		k := row[rightKey]
		matches[k] = append(matches[k], i)
	}

	out := New(header...)
	for _, lrow := range left.Rows {
		hits := matches[lrow[leftKey]]
		if len(hits) == 0 {
			row := make([]string, 0, len(header))
			row = append(row, lrow...)
			row = append(row, make([]string, len(rightCols))...)
			out.Rows = append(out.Rows, row)
			continue
		}
		for _, ri := range hits {
			row := make([]string, 0, len(header))
			row = append(row, lrow...)
			for _, c := range rightCols {
				row = append(row, right.Rows[ri][c])
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}
