package topic

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/genai-ethics/bibnet/internal/table"
)

// Column names of the topic CSVs.
const (
	ColID     = "id"
	ColSize   = "size"
	ColLabel  = "label"
	ColSource = "source"
	ColTarget = "target"
	ColWeight = "weight"

	ColTopicNumber = "topic_number"
	ColTopicName   = "topic_name"

	// ColDoc and ColTopic are the optional non-probability columns of a
	// probability matrix.
	ColDoc   = "doc"
	ColTopic = "topic"

	// Topic info columns, as written by BERTopic's get_topic_info.
	ColInfoTopic = "Topic"
	ColInfoCount = "Count"
	ColInfoName  = "Name"
)

// NodesToTable renders nodes as id,size,label.
func NodesToTable(nodes []Node) *table.Table {
	t := table.New(ColID, ColSize, ColLabel)
	for _, n := range nodes {
		t.Rows = append(t.Rows, []string{strconv.Itoa(n.ID), strconv.Itoa(n.Size), n.Label})
	}
	return t
}

// EdgesToTable renders edges as source,target,weight.
func EdgesToTable(edges []Edge) *table.Table {
	t := table.New(ColSource, ColTarget, ColWeight)
	for _, e := range edges {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(e.Source),
			strconv.Itoa(e.Target),
			strconv.FormatFloat(e.Weight, 'g', -1, 64),
		})
	}
	return t
}

// InfoToTable renders topic infos in get_topic_info layout.
func InfoToTable(infos []Info) *table.Table {
	t := table.New(ColInfoTopic, ColInfoCount, ColInfoName)
	for _, info := range infos {
		t.Rows = append(t.Rows, []string{strconv.Itoa(info.ID), strconv.Itoa(info.Count), info.Name})
	}
	return t
}

// LoadInfo reads a Topic,Count,Name table.
func LoadInfo(t *table.Table) ([]Info, error) {
	if err := t.Require(ColInfoTopic, ColInfoName); err != nil {
		return nil, fmt.Errorf("reading topic info: %w", err)
	}
	infos := make([]Info, 0, t.Len())
	for i := range t.Rows {
		id, err := parseTopicID(t.Get(i, ColInfoTopic))
		if err != nil {
			return nil, fmt.Errorf("topic info row %d: %w", i+1, err)
		}
		count := 0
		if c := strings.TrimSpace(t.Get(i, ColInfoCount)); c != "" {
			if count, err = strconv.Atoi(c); err != nil {
				return nil, fmt.Errorf("topic info row %d: invalid count %q", i+1, c)
			}
		}
		infos = append(infos, Info{ID: id, Count: count, Name: t.Get(i, ColInfoName)})
	}
	return infos, nil
}

// ProbabilitiesToTable renders a transform as doc,topic,<topic id>...
func ProbabilitiesToTable(tr *Transform) *table.Table {
	header := []string{ColDoc, ColTopic}
	for _, id := range tr.TopicIDs {
		header = append(header, strconv.Itoa(id))
	}
	t := table.New(header...)
	for i, row := range tr.Probs {
		rec := make([]string, 0, len(header))
		rec = append(rec, strconv.Itoa(i), strconv.Itoa(tr.Topics[i]))
		for _, p := range row {
			rec = append(rec, strconv.FormatFloat(p, 'g', -1, 64))
		}
		t.Rows = append(t.Rows, rec)
	}
	return t
}

// LoadProbabilities reads a probability matrix: one row per document and
// one column per topic, the column name being the topic id. A "doc" column
// is ignored. A "topic" column gives the assigned topic; without it each
// document gets its most probable topic, or the outlier topic when every
// probability is zero. Blank cells count as zero.
func LoadProbabilities(t *table.Table) (*Transform, error) {
	tr := &Transform{}
	var cols []int
	for i, name := range t.Header {
		name = strings.TrimSpace(name)
		if name == ColDoc || name == ColTopic {
			continue
		}
		id, err := parseTopicID(name)
		if err != nil {
			return nil, fmt.Errorf("probability column %q is not a topic id", name)
		}
		cols = append(cols, i)
		tr.TopicIDs = append(tr.TopicIDs, id)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("probability matrix has no topic columns")
	}

	hasTopic := t.Has(ColTopic)
	for r, rec := range t.Rows {
		row := make([]float64, len(cols))
		for j, c := range cols {
			cell := strings.TrimSpace(rec[c])
			if cell == "" {
				continue
			}
			p, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: invalid probability %q", r+1, t.Header[c], cell)
			}
			row[j] = p
		}

		assigned := argmax(row, tr.TopicIDs)
		if hasTopic {
			cell := strings.TrimSpace(t.Get(r, ColTopic))
			if cell != "" {
				id, err := parseTopicID(cell)
				if err != nil {
					return nil, fmt.Errorf("row %d: %w", r+1, err)
				}
				assigned = id
			}
		}

		tr.Probs = append(tr.Probs, row)
		tr.Topics = append(tr.Topics, assigned)
	}
	return tr, nil
}

// AddAssignments writes topic_number and topic_name onto t. rows[i] is the
// table row of assignment i. Rows without an assignment stay blank.
func AddAssignments(t *table.Table, rows []int, as []Assignment) error {
	if len(rows) != len(as) {
		return fmt.Errorf("%d rows for %d assignments", len(rows), len(as))
	}
	numbers := make([]string, t.Len())
	names := make([]string, t.Len())
	for i, r := range rows {
		if r < 0 || r >= t.Len() {
			return fmt.Errorf("assignment %d points at row %d of %d", i, r, t.Len())
		}
		numbers[r] = strconv.Itoa(as[i].Topic)
		names[r] = as[i].Label
	}
	t.AddColumn(ColTopicNumber, numbers)
	t.AddColumn(ColTopicName, names)
	return nil
}

func argmax(row []float64, ids []int) int {
	best, bestP := OutlierTopic, 0.0
	for i, p := range row {
		if p > bestP {
			best, bestP = ids[i], p
		}
	}
	return best
}

func parseTopicID(s string) (int, error) {
	id, err := table.ParseInt(s)
	if err != nil {
		return 0, fmt.Errorf("invalid topic id %q", strings.TrimSpace(s))
	}
	return id, nil
}
