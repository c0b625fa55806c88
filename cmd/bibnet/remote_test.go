package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
)

// crossrefFake serves /works searches from items and /works/{doi} lookups
// from refs. A DOI absent from refs is a 404.
func crossrefFake(t *testing.T, items []map[string]any, refs map[string][]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/works" {
			offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
			rows, _ := strconv.Atoi(r.URL.Query().Get("rows"))
			page := []map[string]any{}
			for i := offset; i < len(items) && i < offset+rows; i++ {
				page = append(page, items[i])
			}
			json.NewEncoder(w).Encode(map[string]any{
				"status":  "ok",
				"message": map[string]any{"total-results": len(items), "items": page},
			})
			return
		}

		doi := strings.TrimPrefix(r.URL.Path, "/works/")
		list, ok := refs[doi]
		if !ok {
			http.NotFound(w, r)
			return
		}
		var reference []map[string]string
		for _, d := range list {
			reference = append(reference, map[string]string{"key": "k", "DOI": d})
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"message": map[string]any{"DOI": doi, "reference": reference},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchCommand(t *testing.T) {
	dir := isolate(t)
	var items []map[string]any
	for i := 0; i < 5; i++ {
		item := map[string]any{"DOI": fmt.Sprintf("10.1/%d", i), "title": []string{fmt.Sprintf("Title %d", i)}}
		if i%2 == 0 {
			item["abstract"] = "<jats:p>Findings on topic " + strconv.Itoa(i) + "</jats:p>"
		}
		items = append(items, item)
	}
	srv := crossrefFake(t, items, nil)
	t.Setenv("CROSSREF_URL", srv.URL)
	outPath := filepath.Join(dir, "works.csv")

	out, code := runCLI(t, "fetch", "--query", "ethics", "--rows", "2", "--max", "4", "--delay", "0", "-o", outPath)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, output %s", code, out)
	}
	var res FetchResult
	decode(t, out, &res)
	if res.Works != 4 || res.WithAbstract != 2 || res.Partial {
		t.Errorf("result = %+v", res)
	}

	got := readCSV(t, outPath)
	if !reflect.DeepEqual(got.Header, []string{"DOI", "Title", "Abstract"}) {
		t.Errorf("header = %v", got.Header)
	}
	if got.Get(0, "Abstract") != "Findings on topic 0" {
		t.Errorf("abstract = %q", got.Get(0, "Abstract"))
	}
	if got.Get(1, "Abstract") != "N/A" {
		t.Errorf("missing abstract = %q, want N/A", got.Get(1, "Abstract"))
	}
}

func TestFetchErrors(t *testing.T) {
	dir := isolate(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)
	t.Setenv("CROSSREF_URL", srv.URL)

	out, code := runCLI(t, "fetch", "--query", "ethics", "--delay", "0", "-o", filepath.Join(dir, "works.csv"))
	if code != ExitAPIError {
		t.Fatalf("exit code = %d, want %d (output %s)", code, ExitAPIError, out)
	}
	if _, err := os.Stat(filepath.Join(dir, "works.csv")); !os.IsNotExist(err) {
		t.Error("no file should be written when nothing was fetched")
	}

	if _, code := runCLI(t, "fetch", "--delay", "0"); code != ExitError {
		t.Errorf("fetch without a query: exit code = %d, want %d", code, ExitError)
	}
}

func TestFetchPartial(t *testing.T) {
	dir := isolate(t)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) > 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"message": map[string]any{"total-results": 10, "items": []map[string]any{
				{"DOI": "10.1/a", "title": []string{"A"}},
				{"DOI": "10.1/b", "title": []string{"B"}},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	t.Setenv("CROSSREF_URL", srv.URL)
	outPath := filepath.Join(dir, "works.csv")

	out, code := runCLI(t, "fetch", "--query", "ethics", "--rows", "2", "--max", "10", "--delay", "0", "-o", outPath)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, output %s", code, out)
	}
	var res FetchResult
	decode(t, out, &res)
	if !res.Partial || res.Works != 2 || res.Error == "" {
		t.Errorf("result = %+v", res)
	}
	if got := readCSV(t, outPath); got.Len() != 2 {
		t.Errorf("rows = %d, want 2", got.Len())
	}
}

func TestRefsCommand(t *testing.T) {
	dir := isolate(t)
	srv := crossrefFake(t, nil, map[string][]string{
		"10.1/SEED": {"10.2/X", "", "10.2/y"},
		"10.1/none": {},
	})
	t.Setenv("CROSSREF_URL", srv.URL)

	seeds := writeFile(t, dir, "works.csv", "DOI,Title\nhttps://doi.org/10.1/SEED,A\nN/A,B\n10.1/none,C\n")
	outPath := filepath.Join(dir, "citations.csv")

	out, code := runCLI(t, "refs", "--input", seeds, "10.1/missing", "--delay", "0", "-o", outPath)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, output %s", code, out)
	}
	var res RefsResult
	decode(t, out, &res)
	if res.Seeds != 4 || res.Edges != 4 || res.Unknown != 2 || res.Skipped != 1 {
		t.Errorf("stats = %+v", res.WalkStats)
	}

	got := readCSV(t, outPath)
	want := [][]string{
		{"10.1/SEED", "10.2/x"},
		{"10.1/SEED", "10.2/y"},
		{"10.1/none", "unknown"},
		{"10.1/missing", "unknown"},
	}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Errorf("edges = %v, want %v", got.Rows, want)
	}
}

func TestRefsKeepsSeedCaseForReconcile(t *testing.T) {
	dir := isolate(t)
	const seed = "10.1016/J.TECHFORE.2023.1"
	srv := crossrefFake(t, nil, map[string][]string{seed: {"10.1/B"}})
	t.Setenv("CROSSREF_URL", srv.URL)

	works := writeFile(t, dir, "works.csv", "DOI,Title\n"+seed+",A\n")
	citations := filepath.Join(dir, "citations.csv")
	if out, code := runCLI(t, "refs", "--input", works, "--delay", "0", "-o", citations); code != ExitSuccess {
		t.Fatalf("refs exit code = %d, output %s", code, out)
	}
	if got := readCSV(t, citations); got.Get(0, "source") != seed {
		t.Fatalf("source = %q, want %q", got.Get(0, "source"), seed)
	}

	nodes := writeFile(t, dir, "nodes.csv", "id,doi\n1,"+seed+"\n")
	out, code := runCLI(t, "reconcile", "--nodes", nodes, "--edges", citations,
		"--nodes-out", filepath.Join(dir, "updated.csv"), "--edges-out", filepath.Join(dir, "mapped.csv"))
	if code != ExitSuccess {
		t.Fatalf("reconcile exit code = %d, output %s", code, out)
	}
	var res ReconcileResult
	decode(t, out, &res)
	if res.Added != 1 {
		t.Errorf("added = %d, want only the cited work", res.Added)
	}
	if got := readCSV(t, filepath.Join(dir, "mapped.csv")).Rows; !reflect.DeepEqual(got, [][]string{{"1", "2"}}) {
		t.Errorf("edges = %v", got)
	}
}

func TestRefsNeedsSeeds(t *testing.T) {
	dir := isolate(t)
	if _, code := runCLI(t, "refs", "-o", filepath.Join(dir, "c.csv")); code != ExitError {
		t.Errorf("exit code = %d, want %d", code, ExitError)
	}
	seeds := writeFile(t, dir, "seeds.csv", "doi\n10.1/a\n")
	if _, code := runCLI(t, "refs", "--input", seeds, "-o", filepath.Join(dir, "c.csv")); code != ExitDataError {
		t.Errorf("missing DOI column: exit code = %d, want %d", code, ExitDataError)
	}
}
