package topic

import (
	"reflect"
	"strings"
	"testing"

	"github.com/genai-ethics/bibnet/internal/table"
)

func mustRead(t *testing.T, csv string) *table.Table {
	t.Helper()
	tb, err := table.ReadFrom(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ReadFrom() error = %v", err)
	}
	return tb
}

func TestLoadProbabilities(t *testing.T) {
	tests := []struct {
		name       string
		csv        string
		wantIDs    []int
		wantTopics []int
		wantErr    bool
	}{
		{
			name:       "argmax assignment",
			csv:        "doc,0,1,2\n0,0.1,0.7,0.2\n1,0.5,0.3,0.2\n",
			wantIDs:    []int{0, 1, 2},
			wantTopics: []int{1, 0},
		},
		{
			name:       "explicit topic column",
			csv:        "doc,topic,0,1\n0,-1,0.6,0.4\n",
			wantIDs:    []int{0, 1},
			wantTopics: []int{-1},
		},
		{
			name:       "all zero is outlier",
			csv:        "0,1\n0,\n",
			wantIDs:    []int{0, 1},
			wantTopics: []int{-1},
		},
		{
			name:       "float column names",
			csv:        "0.0,1.0\n0.2,0.8\n",
			wantIDs:    []int{0, 1},
			wantTopics: []int{1},
		},
		{name: "non topic column", csv: "doc,title\n0,x\n", wantErr: true},
		{name: "out of range column", csv: "0,1e30\n0.5,0.5\n", wantErr: true},
		{name: "bad probability", csv: "0,1\nabc,0.1\n", wantErr: true},
		{name: "no topic columns", csv: "doc\n0\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := LoadProbabilities(mustRead(t, tt.csv))
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadProbabilities() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(tr.TopicIDs, tt.wantIDs) {
				t.Errorf("TopicIDs = %v, want %v", tr.TopicIDs, tt.wantIDs)
			}
			if !reflect.DeepEqual(tr.Topics, tt.wantTopics) {
				t.Errorf("Topics = %v, want %v", tr.Topics, tt.wantTopics)
			}
			if err := tr.Validate(); err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestProbabilitiesRoundTrip(t *testing.T) {
	tr := &Transform{
		Topics:   []int{1, -1},
		Probs:    [][]float64{{0.25, 0.75}, {0.5, 0.5}},
		TopicIDs: []int{0, 1},
	}
	got, err := LoadProbabilities(ProbabilitiesToTable(tr))
	if err != nil {
		t.Fatalf("LoadProbabilities() error = %v", err)
	}
	if !reflect.DeepEqual(got, tr) {
		t.Errorf("round trip = %+v, want %+v", got, tr)
	}
}

func TestLoadInfo(t *testing.T) {
	tb := mustRead(t, "Topic,Count,Name\n-1,12,-1_the_of\n0,30,0_ethics_ai\n1,,1_bias\n")
	got, err := LoadInfo(tb)
	if err != nil {
		t.Fatalf("LoadInfo() error = %v", err)
	}
	want := []Info{
		{ID: -1, Count: 12, Name: "-1_the_of"},
		{ID: 0, Count: 30, Name: "0_ethics_ai"},
		{ID: 1, Count: 0, Name: "1_bias"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadInfo() = %v, want %v", got, want)
	}

	if _, err := LoadInfo(mustRead(t, "Topic,Name\nx,y\n")); err == nil {
		t.Error("expected error for non-integer topic")
	}
}

func TestGraphTables(t *testing.T) {
	nodes := NodesToTable([]Node{{ID: 0, Size: 3, Label: "0_a"}})
	if !reflect.DeepEqual(nodes.Header, []string{"id", "size", "label"}) {
		t.Errorf("node header = %v", nodes.Header)
	}
	if !reflect.DeepEqual(nodes.Rows[0], []string{"0", "3", "0_a"}) {
		t.Errorf("node row = %v", nodes.Rows[0])
	}

	edges := EdgesToTable([]Edge{{Source: 0, Target: 2, Weight: 0.5}})
	if !reflect.DeepEqual(edges.Header, []string{"source", "target", "weight"}) {
		t.Errorf("edge header = %v", edges.Header)
	}
	if !reflect.DeepEqual(edges.Rows[0], []string{"0", "2", "0.5"}) {
		t.Errorf("edge row = %v", edges.Rows[0])
	}
}

func TestAddAssignments(t *testing.T) {
	tb := mustRead(t, "DOI,Abstract\n10.1/a,text\n10.1/b,N/A\n10.1/c,more\n")
	err := AddAssignments(tb, []int{0, 2}, []Assignment{{Topic: 0, Label: "0_x"}, {Topic: -1, Label: "-1_y"}})
	if err != nil {
		t.Fatalf("AddAssignments() error = %v", err)
	}
	numbers, _ := tb.Column(ColTopicNumber)
	names, _ := tb.Column(ColTopicName)
	if !reflect.DeepEqual(numbers, []string{"0", "", "-1"}) {
		t.Errorf("topic_number = %v", numbers)
	}
	if !reflect.DeepEqual(names, []string{"0_x", "", "-1_y"}) {
		t.Errorf("topic_name = %v", names)
	}

	if err := AddAssignments(tb, []int{5}, []Assignment{{}}); err == nil {
		t.Error("expected out of range error")
	}
}
