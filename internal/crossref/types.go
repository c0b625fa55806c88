// Package crossref is a throttled client for the Crossref REST API.
package crossref

// Envelope is the outer shape of every Crossref response.
type Envelope[T any] struct {
	Status      string `json:"status"`
	MessageType string `json:"message-type"`
	Message     *T     `json:"message"`
}

// WorksMessage is the message of a /works list response.
type WorksMessage struct {
	TotalResults int    `json:"total-results"`
	ItemsPerPage int    `json:"items-per-page"`
	Items        []Work `json:"items"`
	NextCursor   string `json:"next-cursor,omitempty"`
}

// Work is the subset of a Crossref work record bibnet uses.
type Work struct {
	DOI       string      `json:"DOI"`
	Title     []string    `json:"title,omitempty"`
	Abstract  string      `json:"abstract,omitempty"`
	Type      string      `json:"type,omitempty"`
	Publisher string      `json:"publisher,omitempty"`
	Reference []Reference `json:"reference,omitempty"`
}

// FirstTitle returns the first title, or "" when there is none.
func (w Work) FirstTitle() string {
	if len(w.Title) == 0 {
		return ""
	}
	return w.Title[0]
}

// Reference is one entry of a work's reference list. Only some entries
// carry a DOI.
type Reference struct {
	Key          string `json:"key,omitempty"`
	DOI          string `json:"DOI,omitempty"`
	Unstructured string `json:"unstructured,omitempty"`
}

// WorksPage is one page of search results.
type WorksPage struct {
	Total  int
	Offset int
	Items  []Work
}
