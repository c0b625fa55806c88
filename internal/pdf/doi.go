// Package pdf pulls seed DOIs out of a folder of PDF papers.
package pdf

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// MaxPages is how many leading pages are searched for a DOI.
const MaxPages = 3

var doiPattern = regexp.MustCompile(`(?i)10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// doiPrefixes are stripped before matching so resolver URLs yield the bare DOI.
var doiPrefixes = []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"}

// Seed is a PDF and the DOI found in it. Err is set when the file could
// not be read.
type Seed struct {
	Path string `json:"path"`
	DOI  string `json:"doi,omitempty"`
	Err  string `json:"error,omitempty"`
}

// ExtractDOI returns the first DOI on the first MaxPages pages of the PDF,
// lowercased. No DOI is not an error.
func ExtractDOI(path string) (doi string, err error) {
	// The PDF parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parsing %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	pages := r.NumPage()
	if pages > MaxPages {
		pages = MaxPages
	}
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if doi := FindDOI(text); doi != "" {
			return doi, nil
		}
	}
	return "", nil
}

// FindDOI returns the first plausible DOI in text, lowercased with
// trailing punctuation removed.
func FindDOI(text string) string {
	for _, match := range doiPattern.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:)]")
		if isValidDOI(match) {
			return NormalizeDOI(match)
		}
	}
	return ""
}

// CleanDOI trims a DOI and strips resolver prefixes. Case is kept.
func CleanDOI(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, p := range doiPrefixes {
		if strings.HasPrefix(lower, p) {
			s = s[len(p):]
			break
		}
	}
	return strings.TrimSpace(s)
}

// NormalizeDOI is CleanDOI followed by lowercasing.
func NormalizeDOI(s string) string {
	return strings.ToLower(CleanDOI(s))
}

func isValidDOI(doi string) bool {
	if len(doi) < 10 || !strings.HasPrefix(doi, "10.") {
		return false
	}
	slash := strings.Index(doi, "/")
	return slash != -1 && slash < len(doi)-1
}

// ScanDir walks dir for *.pdf files and extracts a DOI from each. Files
// that fail to parse are returned with Err set. Results are sorted by path.
func ScanDir(dir string) ([]Seed, error) {
	var seeds []Seed
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}
		doi, err := ExtractDOI(path)
		s := Seed{Path: path, DOI: doi}
		if err != nil {
			s.Err = err.Error()
		}
		seeds = append(seeds, s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Slice(seeds, func(i, j int) bool { return seeds[i].Path < seeds[j].Path })
	return seeds, nil
}

// UniqueDOIs returns the distinct DOIs of seeds in first-seen order.
func UniqueDOIs(seeds []Seed) []string {
	seen := make(map[string]bool, len(seeds))
	var out []string
	for _, s := range seeds {
		if s.DOI == "" || seen[s.DOI] {
			continue
		}
		seen[s.DOI] = true
		out = append(out, s.DOI)
	}
	return out
}
