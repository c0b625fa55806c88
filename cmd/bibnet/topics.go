package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/genai-ethics/bibnet/internal/screen"
	"github.com/genai-ethics/bibnet/internal/table"
	"github.com/genai-ethics/bibnet/internal/topic"
	"github.com/genai-ethics/bibnet/internal/work"
	"github.com/spf13/cobra"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Fit topics, assign them to documents and build topic graphs",
	Long: `Topic modelling over document abstracts.

  fit     cluster abstract embeddings into named topics and save the model
  assign  add topic_number and topic_name columns to a works table
  graph   build topic_nodes.csv and topic_edges.csv from co-occurrence

Embeddings come from Ollama and are cached on disk (cache_path).`,
}

var (
	topicsColumn        string
	topicsModel         string
	topicsCount         int
	topicsTemperature   float64
	topicsMinSimilarity float64
	topicsStopwords     []string
	topicsInfoOut       string

	assignOutput   string
	assignProbsOut string

	graphProbs     string
	graphInfo      string
	graphThreshold float64
	graphNodesOut  string
	graphEdgesOut  string
)

// FitResult is the JSON summary of bibnet topics fit.
type FitResult struct {
	Model     string       `json:"model"`
	Documents int          `json:"documents"`
	Skipped   int          `json:"skipped"`
	Topics    []topic.Info `json:"topics"`
}

// AssignResult is the JSON summary of bibnet topics assign.
type AssignResult struct {
	Output    string `json:"output"`
	ProbsOut  string `json:"probs_out,omitempty"`
	Documents int    `json:"documents"`
	Assigned  int    `json:"assigned"`
	Outliers  int    `json:"outliers"`
	Skipped   int    `json:"skipped"`
}

// GraphResult is the JSON summary of bibnet topics graph.
type GraphResult struct {
	NodesOut  string  `json:"nodes_out"`
	EdgesOut  string  `json:"edges_out"`
	Nodes     int     `json:"nodes"`
	Edges     int     `json:"edges"`
	Threshold float64 `json:"threshold"`
}

var topicsFitCmd = &cobra.Command{
	Use:   "fit <works.csv>",
	Short: "Cluster abstracts into topics and save the model",
	Long: `Embed every abstract, cluster the embeddings with spherical k-means and
name each topic from its most distinctive words (id_word1_word2_word3_word4).
Abstracts less similar than --min-similarity to every topic are outliers
(topic -1).

Example:
  bibnet topics fit works_screened.csv --topics 12 --model topics.yml`,
	Args: cobra.ExactArgs(1),
	RunE: runTopicsFit,
}

var topicsAssignCmd = &cobra.Command{
	Use:   "assign <works.csv>",
	Short: "Add topic_number and topic_name columns to a works table",
	Long: `Assign every abstract to its most probable topic of a fitted model. Rows
without a usable abstract keep blank topic columns. --probs-out also writes
the per-document probability matrix, which topics graph --probs accepts.

Example:
  bibnet topics assign works_screened.csv --model topics.yml -o works_topics.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runTopicsAssign,
}

var topicsGraphCmd = &cobra.Command{
	Use:   "graph [works.csv]",
	Short: "Build topic co-occurrence nodes and edges",
	Long: `Link two topics whenever both exceed --threshold probability in the same
document. The weight is the sum of the products of the two probabilities,
normalized so the heaviest edge is 1. The outlier topic is never a node.

Probabilities come from --model applied to works.csv, or from a precomputed
matrix (--probs, columns doc, topic and one per topic id) with topic names
from --info (columns Topic, Count, Name).

Examples:
  bibnet topics graph works_screened.csv --model topics.yml
  bibnet topics graph --probs probs.csv --info topic_info.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTopicsGraph,
}

func init() {
	topicsCmd.PersistentFlags().StringVar(&topicsColumn, "column", work.ColAbstract, "Document text column")
	topicsCmd.PersistentFlags().StringVar(&topicsModel, "model", "topics.yml", "Topic model file")

	topicsFitCmd.Flags().IntVar(&topicsCount, "topics", 10, "Number of topics")
	topicsFitCmd.Flags().Float64Var(&topicsTemperature, "temperature", topic.DefaultTemperature, "Softmax temperature for topic probabilities")
	topicsFitCmd.Flags().Float64Var(&topicsMinSimilarity, "min-similarity", topic.DefaultMinSimilarity, "Cosine below which a document is an outlier")
	topicsFitCmd.Flags().StringSliceVar(&topicsStopwords, "stopword", nil, "Extra stopword for topic names (repeatable)")
	topicsFitCmd.Flags().StringVar(&topicsInfoOut, "info-out", "", "Also write topic info (Topic,Count,Name) CSV")

	topicsAssignCmd.Flags().StringVarP(&assignOutput, "output", "o", "", "Output CSV (default <input>_with_topics.csv)")
	topicsAssignCmd.Flags().StringVar(&assignProbsOut, "probs-out", "", "Also write the probability matrix CSV")

	topicsGraphCmd.Flags().StringVar(&graphProbs, "probs", "", "Precomputed probability matrix CSV")
	topicsGraphCmd.Flags().StringVar(&graphInfo, "info", "", "Topic info CSV for --probs")
	topicsGraphCmd.Flags().Float64Var(&graphThreshold, "threshold", topic.DefaultThreshold, "Minimum probability for a topic to count as present")
	topicsGraphCmd.Flags().StringVar(&graphNodesOut, "nodes-out", "topic_nodes.csv", "Node CSV")
	topicsGraphCmd.Flags().StringVar(&graphEdgesOut, "edges-out", "topic_edges.csv", "Edge CSV")

	topicsCmd.AddCommand(topicsFitCmd, topicsAssignCmd, topicsGraphCmd)
	rootCmd.AddCommand(topicsCmd)
}

// documents holds the usable texts of a table and the rows they came from.
type documents struct {
	table   *table.Table
	rows    []int
	texts   []string
	skipped int
}

// loadDocuments reads column from path and cleans each cell. Blank and
// placeholder cells are skipped.
func loadDocuments(path, column string) (*documents, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	col, err := t.Column(column)
	if err != nil {
		return nil, withCode(ExitDataError, err)
	}

	d := &documents{table: t}
	for i, raw := range col {
		text := work.CleanAbstract(raw)
		if screen.IsPlaceholder(text) {
			d.skipped++
			continue
		}
		d.rows = append(d.rows, i)
		d.texts = append(d.texts, text)
	}
	if d.skipped > 0 {
		logger.Info().Int("skipped", d.skipped).Str("column", column).Msg("rows without usable text")
	}
	return d, nil
}

// embedProgress logs embedding progress every 50 documents.
func embedProgress(done, total int) {
	if done == total || done%50 == 0 {
		logger.Info().Int("done", done).Int("total", total).Msg("embedding")
	}
}

func runTopicsFit(cmd *cobra.Command, args []string) error {
	docs, err := loadDocuments(args[0], topicsColumn)
	if err != nil {
		return err
	}
	if len(docs.texts) == 0 {
		return dataErrorf("no usable documents in column %s of %s", topicsColumn, args[0])
	}

	ollama := newOllama()
	if err := ollama.Check(cmd.Context()); err != nil {
		return err
	}
	provider, cache, err := newEmbedder(ollama)
	if err != nil {
		return err
	}
	defer saveCache(provider, cache)

	model, err := topic.Fit(cmd.Context(), provider, docs.texts, topic.FitOptions{
		Topics:        topicsCount,
		Temperature:   topicsTemperature,
		MinSimilarity: topicsMinSimilarity,
		Stopwords:     topicsStopwords,
		Progress:      embedProgress,
	})
	if err != nil {
		return err
	}
	if err := topic.SaveModel(topicsModel, model); err != nil {
		return err
	}
	logger.Info().Str("path", topicsModel).Int("topics", len(model.Centroids())).Msg("saved model")

	if topicsInfoOut != "" {
		if err := writeTable(topicsInfoOut, topic.InfoToTable(model.Topics())); err != nil {
			return err
		}
	}

	result := FitResult{
		Model:     topicsModel,
		Documents: len(docs.texts),
		Skipped:   docs.skipped,
		Topics:    model.Topics(),
	}
	return outputResult(result, func() {
		outputHuman("Fitted %d documents into %d topics -> %s\n", result.Documents, len(model.Centroids()), result.Model)
		for _, info := range result.Topics {
			outputHuman("  %4d  %5d  %s\n", info.ID, info.Count, info.Name)
		}
	})
}

// loadModel opens the topic model with the cached embedding provider.
func loadModel() (*topic.EmbeddingModel, func(), error) {
	provider, cache, err := newEmbedder(newOllama())
	if err != nil {
		return nil, nil, err
	}
	model, err := topic.LoadModel(topicsModel, provider)
	if err != nil {
		return nil, nil, err
	}
	model.SetProgress(embedProgress)
	return model, func() { saveCache(provider, cache) }, nil
}

func runTopicsAssign(cmd *cobra.Command, args []string) error {
	docs, err := loadDocuments(args[0], topicsColumn)
	if err != nil {
		return err
	}
	model, done, err := loadModel()
	if err != nil {
		return err
	}
	defer done()

	tr, err := model.Transform(cmd.Context(), docs.texts)
	if err != nil {
		return err
	}
	assignments := topic.Assign(tr, model.Topics())
	if err := topic.AddAssignments(docs.table, docs.rows, assignments); err != nil {
		return err
	}

	result := AssignResult{
		Output:    assignOutput,
		Documents: docs.table.Len(),
		Assigned:  len(assignments),
		Skipped:   docs.skipped,
	}
	for _, a := range assignments {
		if a.Topic == topic.OutlierTopic {
			result.Outliers++
		}
	}
	if result.Output == "" {
		ext := filepath.Ext(args[0])
		result.Output = strings.TrimSuffix(args[0], ext) + "_with_topics" + ext
	}
	if err := writeTable(result.Output, docs.table); err != nil {
		return err
	}
	if assignProbsOut != "" {
		if err := writeTable(assignProbsOut, topic.ProbabilitiesToTable(tr)); err != nil {
			return err
		}
		result.ProbsOut = assignProbsOut
	}

	return outputResult(result, func() {
		outputHuman("Assigned %d of %d rows (%d outliers, %d without text) -> %s\n",
			result.Assigned, result.Documents, result.Outliers, result.Skipped, result.Output)
	})
}

func runTopicsGraph(cmd *cobra.Command, args []string) error {
	var (
		tr    *topic.Transform
		infos []topic.Info
	)

	switch {
	case graphProbs != "":
		if len(args) > 0 {
			return fmt.Errorf("pass either works.csv with --model or --probs, not both")
		}
		t, err := readTable(graphProbs)
		if err != nil {
			return err
		}
		if tr, err = topic.LoadProbabilities(t); err != nil {
			return withCode(ExitDataError, err)
		}
		names := map[int]string{}
		if graphInfo != "" {
			it, err := readTable(graphInfo)
			if err != nil {
				return err
			}
			if infos, err = topic.LoadInfo(it); err != nil {
				return withCode(ExitDataError, err)
			}
			for _, info := range infos {
				names[info.ID] = info.Name
			}
		} else {
			infos = topic.CountTopics(tr, names)
		}

	case len(args) == 1:
		docs, err := loadDocuments(args[0], topicsColumn)
		if err != nil {
			return err
		}
		model, done, err := loadModel()
		if err != nil {
			return err
		}
		defer done()
		if tr, err = model.Transform(cmd.Context(), docs.texts); err != nil {
			return err
		}
		infos = model.Topics()

	default:
		return fmt.Errorf("topics graph needs works.csv (with --model) or --probs")
	}

	if err := tr.Validate(); err != nil {
		return withCode(ExitDataError, err)
	}

	nodes := topic.BuildNodes(infos)
	edges := topic.Normalize(topic.BuildCooccurrence(tr, graphThreshold))

	if err := writeTable(graphNodesOut, topic.NodesToTable(nodes)); err != nil {
		return err
	}
	if err := writeTable(graphEdgesOut, topic.EdgesToTable(edges)); err != nil {
		return err
	}

	result := GraphResult{
		NodesOut:  graphNodesOut,
		EdgesOut:  graphEdgesOut,
		Nodes:     len(nodes),
		Edges:     len(edges),
		Threshold: graphThreshold,
	}
	return outputResult(result, func() {
		outputHuman("Topic graph: %d nodes, %d edges (threshold %g) -> %s, %s\n",
			result.Nodes, result.Edges, result.Threshold, result.NodesOut, result.EdgesOut)
	})
}
