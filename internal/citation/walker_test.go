package citation

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

type fakeSource struct {
	refs  map[string][]string
	errs  map[string]error
	calls []string
}

func (f *fakeSource) References(ctx context.Context, doi string) ([]string, error) {
	f.calls = append(f.calls, doi)
	if err := f.errs[doi]; err != nil {
		return nil, err
	}
	return f.refs[doi], nil
}

func TestWalker_Walk(t *testing.T) {
	src := &fakeSource{
		refs: map[string][]string{
			"10.1/a": {"10.1/B", "10.1/c", ""},
			"10.1/x": nil,
		},
		errs: map[string]error{
			"10.1/err": errors.New("connection refused"),
		},
	}

	w := NewWalker(src, zerolog.Nop())
	edges, stats, err := w.Walk(context.Background(), []string{" 10.1/a ", "10.1/x", "", "10.1/err"})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	want := []Edge{
		{Source: "10.1/a", Target: "10.1/b"},
		{Source: "10.1/a", Target: "10.1/c"},
		{Source: "10.1/x", Target: Unknown},
		{Source: "10.1/err", Target: Unknown},
	}
	if !reflect.DeepEqual(edges, want) {
		t.Errorf("Walk() edges = %v, want %v", edges, want)
	}

	wantStats := WalkStats{Seeds: 4, Edges: 4, Unknown: 2, Skipped: 1}
	if stats != wantStats {
		t.Errorf("stats = %+v, want %+v", stats, wantStats)
	}

	wantCalls := []string{"10.1/a", "10.1/x", "10.1/err"}
	if !reflect.DeepEqual(src.calls, wantCalls) {
		t.Errorf("source called with %v, want %v (one call per non-empty seed)", src.calls, wantCalls)
	}
}

func TestWalker_NoReferences(t *testing.T) {
	w := NewWalker(&fakeSource{}, zerolog.Nop())
	edges, _, err := w.Walk(context.Background(), []string{"10.1/x"})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	want := []Edge{{Source: "10.1/x", Target: "unknown"}}
	if !reflect.DeepEqual(edges, want) {
		t.Errorf("Walk() = %v, want %v", edges, want)
	}
}

func TestWalker_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &fakeSource{refs: map[string][]string{"10.1/a": {"10.1/b"}}}

	w := NewWalker(src, zerolog.Nop())
	w.SetProgress(func(current, total int, seed string) {
		if current == 1 {
			cancel()
		}
	})

	edges, _, err := w.Walk(ctx, []string{"10.1/a", "10.1/c", "10.1/d"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Walk() error = %v, want context.Canceled", err)
	}
	if len(edges) != 1 {
		t.Errorf("got %d edges before cancellation, want 1", len(edges))
	}
	if len(src.calls) != 1 {
		t.Errorf("source called %d times, want 1", len(src.calls))
	}
}

func TestWalker_Progress(t *testing.T) {
	var seen []int
	w := NewWalker(&fakeSource{}, zerolog.Nop())
	w.SetProgress(func(current, total int, seed string) {
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
		seen = append(seen, current)
	})

	if _, _, err := w.Walk(context.Background(), []string{"a", "", "b"}); err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if !reflect.DeepEqual(seen, []int{1, 2, 3}) {
		t.Errorf("progress = %v, want [1 2 3]", seen)
	}
}
