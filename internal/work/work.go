// Package work holds the flat work records written by the fetcher.
package work

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/genai-ethics/bibnet/internal/crossref"
	"github.com/genai-ethics/bibnet/internal/table"
)

// Placeholder stands in for a missing title or abstract.
const Placeholder = "N/A"

// Column names of the works CSV.
const (
	ColDOI      = "DOI"
	ColTitle    = "Title"
	ColAbstract = "Abstract"
)

// Work is one row of the works CSV.
type Work struct {
	DOI      string
	Title    string
	Abstract string
}

// HasAbstract reports whether the abstract is present.
func (w Work) HasAbstract() bool {
	return w.Abstract != "" && w.Abstract != Placeholder
}

// FromCrossref flattens a Crossref record. Missing fields become Placeholder.
func FromCrossref(cw crossref.Work) Work {
	w := Work{
		DOI:      strings.TrimSpace(cw.DOI),
		Title:    strings.TrimSpace(cw.FirstTitle()),
		Abstract: CleanAbstract(cw.Abstract),
	}
	if w.Title == "" {
		w.Title = Placeholder
	}
	if w.Abstract == "" {
		w.Abstract = Placeholder
	}
	return w
}

// ToTable renders works as a DOI,Title,Abstract table.
func ToTable(works []Work) *table.Table {
	t := table.New(ColDOI, ColTitle, ColAbstract)
	for _, w := range works {
		t.Rows = append(t.Rows, []string{w.DOI, w.Title, w.Abstract})
	}
	return t
}

// FromTable reads works from a table. DOI is required; Title and Abstract
// are read when present.
func FromTable(t *table.Table) ([]Work, error) {
	if err := t.Require(ColDOI); err != nil {
		return nil, fmt.Errorf("reading works: %w", err)
	}
	works := make([]Work, 0, t.Len())
	for i := range t.Rows {
		works = append(works, Work{
			DOI:      t.Get(i, ColDOI),
			Title:    t.Get(i, ColTitle),
			Abstract: t.Get(i, ColAbstract),
		})
	}
	return works, nil
}

// CleanAbstract strips JATS or HTML markup from a Crossref abstract and
// returns its plain text. A leading "Abstract" heading is dropped and runs
// of whitespace collapse to one space.
func CleanAbstract(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	text := s
	if strings.Contains(s, "<") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			// Headings run straight into the body text once tags are gone.
			doc.Find("jats\\:title, title, h1, h2, h3, h4").Each(func(_ int, sel *goquery.Selection) {
				if strings.EqualFold(strings.TrimSpace(sel.Text()), "abstract") {
					sel.Remove()
				}
			})
			doc.Find("jats\\:p, p, br").AfterHtml(" ")
			text = doc.Text()
		}
	}

	text = strings.Join(strings.Fields(text), " ")
	if len(text) >= len("abstract") && strings.EqualFold(text[:len("abstract")], "abstract") {
		rest := text[len("abstract"):]
		if rest == "" || rest[0] == ' ' || rest[0] == ':' || rest[0] == '.' {
			text = strings.TrimLeft(rest, " :.")
		}
	}
	return text
}
