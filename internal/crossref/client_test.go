package crossref

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/genai-ethics/bibnet/internal/citation"
)

var _ citation.ReferenceSource = (*Client)(nil)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(WithBaseURL(srv.URL), WithDelay(0), WithMailto("me@example.org"))
}

func TestQueryValues(t *testing.T) {
	q := Query{
		Bibliographic: "ethics generative ai",
		Filter:        "from-pub-date:2020",
		Sort:          "relevance",
		Order:         "desc",
		Select:        []string{"DOI", "title", "abstract"},
		Rows:          50,
	}
	v := q.Values()

	tests := map[string]string{
		"query.bibliographic": "ethics generative ai",
		"filter":              "from-pub-date:2020",
		"sort":                "relevance",
		"order":               "desc",
		"select":              "DOI,title,abstract",
		"rows":                "50",
		"query":               "",
		"offset":              "",
	}
	for key, want := range tests {
		if got := v.Get(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestClientSendsContactDetails(t *testing.T) {
	var ua, mailto string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		mailto = r.URL.Query().Get("mailto")
		fmt.Fprint(w, `{"status":"ok","message":{"DOI":"10.1/a"}}`)
	})

	if _, err := c.GetWork(context.Background(), "10.1/a"); err != nil {
		t.Fatalf("GetWork() error = %v", err)
	}
	if ua != "bibnet/1.0 (mailto:me@example.org)" {
		t.Errorf("User-Agent = %q", ua)
	}
	if mailto != "me@example.org" {
		t.Errorf("mailto = %q", mailto)
	}
}

func TestGetWorkEscapesDOI(t *testing.T) {
	var path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.EscapedPath()
		fmt.Fprint(w, `{"status":"ok","message":{"DOI":"10.1000/a b"}}`)
	})

	if _, err := c.GetWork(context.Background(), "10.1000/a b"); err != nil {
		t.Fatalf("GetWork() error = %v", err)
	}
	if path != "/works/10.1000%2Fa%20b" {
		t.Errorf("path = %q", path)
	}
}

func TestReferences(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ok","message":{"DOI":"10.1/a","reference":[
			{"key":"r1","DOI":"10.2/B"},
			{"key":"r2","unstructured":"Some book"},
			{"key":"r3","DOI":" 10.3/c "}
		]}}`)
	})

	refs, err := c.References(context.Background(), "10.1/a")
	if err != nil {
		t.Fatalf("References() error = %v", err)
	}
	want := []string{"10.2/b", "10.3/c"}
	if strings.Join(refs, ",") != strings.Join(want, ",") {
		t.Errorf("References() = %v, want %v", refs, want)
	}
}

func TestReferencesNone(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ok","message":{"DOI":"10.1/x"}}`)
	})

	refs, err := c.References(context.Background(), "10.1/x")
	if err != nil {
		t.Fatalf("References() error = %v", err)
	}
	if len(refs) != 0 {
		t.Errorf("References() = %v, want none", refs)
	}
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		check   func(error) bool
		checkID string
	}{
		{"not found", http.StatusNotFound, "Resource not found.", IsNotFound, "IsNotFound"},
		{"rate limited", http.StatusTooManyRequests, "", IsRateLimited, "IsRateLimited"},
		{"server error", http.StatusInternalServerError, "boom", func(err error) bool {
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.StatusCode == 500 && apiErr.DOI == "10.1/a"
		}, "APIError"},
		{"malformed json", http.StatusOK, "{not json", func(err error) bool {
			return errors.Is(err, ErrInvalidResponse)
		}, "ErrInvalidResponse"},
		{"missing message", http.StatusOK, `{"status":"ok"}`, func(err error) bool {
			return errors.Is(err, ErrInvalidResponse)
		}, "ErrInvalidResponse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})
			_, err := c.References(context.Background(), "10.1/a")
			if err == nil {
				t.Fatal("expected error")
			}
			if !tt.check(err) {
				t.Errorf("%s(%v) = false", tt.checkID, err)
			}
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(WithBaseURL(url), WithDelay(0))
	_, err := c.GetWork(context.Background(), "10.1/a")
	if !errors.Is(err, ErrNetworkError) {
		t.Errorf("GetWork() error = %v, want ErrNetworkError", err)
	}
}

// pagedHandler serves total items in pages addressed by rows/offset.
func pagedHandler(total int, calls *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		rows, _ := strconv.Atoi(r.URL.Query().Get("rows"))
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		var items []string
		for i := offset; i < offset+rows && i < total; i++ {
			items = append(items, fmt.Sprintf(`{"DOI":"10.1/%d","title":["T%d"]}`, i, i))
		}
		fmt.Fprintf(w, `{"status":"ok","message":{"total-results":%d,"items":[%s]}}`,
			total, strings.Join(items, ","))
	}
}

func TestWorksPagination(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		rows      int
		max       int
		wantItems int
		wantCalls int32
	}{
		{"until empty page", 25, 10, 0, 25, 4},
		{"stops at max", 25, 10, 15, 15, 2},
		{"max smaller than page", 25, 10, 3, 3, 1},
		{"no results", 0, 10, 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			c := newTestClient(t, pagedHandler(tt.total, &calls))

			var got []Work
			err := c.Works(context.Background(), Query{Query: "x", Rows: tt.rows}, tt.max, func(ws []Work) error {
				got = append(got, ws...)
				return nil
			})
			if err != nil {
				t.Fatalf("Works() error = %v", err)
			}
			if len(got) != tt.wantItems {
				t.Errorf("items = %d, want %d", len(got), tt.wantItems)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			for i, w := range got {
				if w.DOI != fmt.Sprintf("10.1/%d", i) {
					t.Errorf("item %d DOI = %q", i, w.DOI)
					break
				}
			}
		})
	}
}

func TestWorksCallbackError(t *testing.T) {
	var calls int32
	c := newTestClient(t, pagedHandler(100, &calls))
	stop := errors.New("stop")

	err := c.Works(context.Background(), Query{Rows: 10}, 0, func([]Work) error { return stop })
	if !errors.Is(err, stop) {
		t.Errorf("Works() error = %v, want stop", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWorksCancelled(t *testing.T) {
	var calls int32
	c := newTestClient(t, pagedHandler(100, &calls))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Works(ctx, Query{Rows: 10}, 0, func([]Work) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Works() error = %v, want context.Canceled", err)
	}
}
