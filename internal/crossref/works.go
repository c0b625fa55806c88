package crossref

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultRows is the page size used when a query does not set one.
	DefaultRows = 100

	// MaxRows is the largest page Crossref serves.
	MaxRows = 1000

	// MaxOffset is the deepest offset Crossref accepts for /works.
	MaxOffset = 10000
)

// Query holds the /works search parameters. Empty fields are not sent.
type Query struct {
	Query         string
	Bibliographic string
	Filter        string
	Sort          string
	Order         string
	Select        []string
	Rows          int
	Offset        int
}

// Values encodes the query as URL parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set("query", q.Query)
	set("query.bibliographic", q.Bibliographic)
	set("filter", q.Filter)
	set("sort", q.Sort)
	set("order", q.Order)
	if len(q.Select) > 0 {
		v.Set("select", strings.Join(q.Select, ","))
	}
	if q.Rows > 0 {
		v.Set("rows", strconv.Itoa(q.Rows))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	return v
}

// SearchWorks fetches one page of /works results.
func (c *Client) SearchWorks(ctx context.Context, q Query) (*WorksPage, error) {
	var env Envelope[WorksMessage]
	if err := c.getJSON(ctx, "/works", q.Values(), &env); err != nil {
		return nil, err
	}
	if env.Message == nil {
		return nil, fmt.Errorf("%w: missing message", ErrInvalidResponse)
	}
	return &WorksPage{
		Total:  env.Message.TotalResults,
		Offset: q.Offset,
		Items:  env.Message.Items,
	}, nil
}

// Works pages through /works by offset and hands each non-empty page to fn.
// It stops on an empty page, once max items have been delivered (max <= 0
// means no limit), or when the next offset would pass MaxOffset. An error
// from fn stops the iteration and is returned as is.
func (c *Client) Works(ctx context.Context, q Query, max int, fn func([]Work) error) error {
	if q.Rows <= 0 {
		q.Rows = DefaultRows
	}
	if q.Rows > MaxRows {
		q.Rows = MaxRows
	}

	delivered := 0
	for {
		if max > 0 && max-delivered < q.Rows {
			q.Rows = max - delivered
		}

		page, err := c.SearchWorks(ctx, q)
		if err != nil {
			return fmt.Errorf("fetching offset %d: %w", q.Offset, err)
		}
		if len(page.Items) == 0 {
			return nil
		}

		items := page.Items
		if max > 0 && delivered+len(items) > max {
			items = items[:max-delivered]
		}
		if err := fn(items); err != nil {
			return err
		}
		delivered += len(items)

		if max > 0 && delivered >= max {
			return nil
		}
		q.Offset += len(page.Items)
		if q.Offset > MaxOffset {
			return nil
		}
	}
}

// GetWork fetches a single work by DOI.
func (c *Client) GetWork(ctx context.Context, doi string) (*Work, error) {
	doi = strings.TrimSpace(doi)
	if doi == "" {
		return nil, fmt.Errorf("%w: empty DOI", ErrNotFound)
	}

	var env Envelope[Work]
	if err := c.getJSON(ctx, "/works/"+url.PathEscape(doi), nil, &env); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			apiErr.DOI = doi
		}
		return nil, err
	}
	if env.Message == nil {
		return nil, fmt.Errorf("%w: missing message for %s", ErrInvalidResponse, doi)
	}
	return env.Message, nil
}

// References returns the lowercased DOIs of the work's references. Entries
// without a DOI are skipped.
func (c *Client) References(ctx context.Context, doi string) ([]string, error) {
	w, err := c.GetWork(ctx, doi)
	if err != nil {
		return nil, err
	}
	refs := make([]string, 0, len(w.Reference))
	for _, r := range w.Reference {
		d := strings.ToLower(strings.TrimSpace(r.DOI))
		if d != "" {
			refs = append(refs, d)
		}
	}
	return refs, nil
}
