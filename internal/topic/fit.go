package topic

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/genai-ethics/bibnet/internal/embedding"
)

// FitOptions configures Fit.
type FitOptions struct {
	// Topics is the number of clusters. It is capped at the number of
	// documents.
	Topics int

	// MaxIter bounds the k-means refinement rounds.
	MaxIter int

	Temperature   float64
	MinSimilarity float64

	// NameWords is the number of words in a topic name.
	NameWords int

	// TopWords is the number of representative words kept per topic.
	TopWords int

	// Stopwords extends the built-in stoplist.
	Stopwords []string

	Progress embedding.ProgressFunc
}

func (o *FitOptions) setDefaults() {
	if o.Topics <= 0 {
		o.Topics = 10
	}
	if o.MaxIter <= 0 {
		o.MaxIter = 100
	}
	if o.Temperature <= 0 {
		o.Temperature = DefaultTemperature
	}
	if o.NameWords <= 0 {
		o.NameWords = 4
	}
	if o.TopWords < o.NameWords {
		o.TopWords = 10
		if o.TopWords < o.NameWords {
			o.TopWords = o.NameWords
		}
	}
}

// Fit clusters docs into topics with spherical k-means over their
// embeddings and names each topic from its most distinctive words.
func Fit(ctx context.Context, p embedding.Provider, docs []string, opts FitOptions) (*EmbeddingModel, error) {
	opts.setDefaults()
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents to fit")
	}

	vecs, err := embedding.EmbedAll(ctx, p, docs, opts.Progress)
	if err != nil {
		return nil, err
	}
	for _, v := range vecs {
		embedding.Normalize(v)
	}

	k := opts.Topics
	if k > len(vecs) {
		k = len(vecs)
	}
	centers, labels := kmeans(vecs, k, opts.MaxIter)

	// Topic 0 is the largest cluster.
	order := make([]int, k)
	sizes := make([]int, k)
	for i := range order {
		order[i] = i
	}
	for _, l := range labels {
		sizes[l]++
	}
	sort.SliceStable(order, func(i, j int) bool { return sizes[order[i]] > sizes[order[j]] })
	rank := make([]int, k)
	for id, c := range order {
		rank[c] = id
	}

	topics := make([]int, len(vecs))
	for d, l := range labels {
		if embedding.Cosine(vecs[d], centers[l]) < opts.MinSimilarity {
			topics[d] = OutlierTopic
		} else {
			topics[d] = rank[l]
		}
	}

	words := classWords(docs, topics, NewTokenizer(opts.Stopwords), opts.TopWords)

	counts := make(map[int]int)
	for _, id := range topics {
		counts[id]++
	}
	var infos []Info
	if counts[OutlierTopic] > 0 {
		infos = append(infos, Info{ID: OutlierTopic, Count: counts[OutlierTopic], Name: topicName(OutlierTopic, words[OutlierTopic], opts.NameWords)})
	}
	centroids := make([]Centroid, k)
	for id, c := range order {
		info := Info{ID: id, Count: counts[id], Name: topicName(id, words[id], opts.NameWords)}
		centroids[id] = Centroid{Info: info, Words: words[id], Vector: centers[c]}
		infos = append(infos, info)
	}

	return NewEmbeddingModel(p, centroids, infos, opts.Temperature, opts.MinSimilarity)
}

// kmeans runs spherical k-means on unit vectors. Seeds are chosen farthest
// first starting from the first vector, so results are deterministic. An
// empty cluster keeps its previous center.
func kmeans(vecs [][]float64, k, maxIter int) ([][]float64, []int) {
	centers := make([][]float64, 0, k)
	centers = append(centers, clone(vecs[0]))
	nearest := make([]float64, len(vecs))
	for i := range nearest {
		nearest[i] = math.Inf(1)
	}
	for len(centers) < k {
		last := centers[len(centers)-1]
		far, farDist := 0, -1.0
		for i, v := range vecs {
			if d := 1 - embedding.Cosine(v, last); d < nearest[i] {
				nearest[i] = d
			}
			if nearest[i] > farDist {
				far, farDist = i, nearest[i]
			}
		}
		centers = append(centers, clone(vecs[far]))
	}

	labels := make([]int, len(vecs))
	for i := range labels {
		labels[i] = -1
	}
	dims := len(vecs[0])
	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, v := range vecs {
			best, bestSim := 0, math.Inf(-1)
			for c, center := range centers {
				if s := embedding.Cosine(v, center); s > bestSim {
					best, bestSim = c, s
				}
			}
			if labels[i] != best {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, dims)
		}
		members := make([]int, k)
		for i, v := range vecs {
			members[labels[i]]++
			for j, x := range v {
				sums[labels[i]][j] += x
			}
		}
		for c := range centers {
			if members[c] == 0 {
				continue
			}
			embedding.Normalize(sums[c])
			centers[c] = sums[c]
		}
	}
	return centers, labels
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

// classWords ranks the terms of each topic by class-based TF-IDF: the
// documents of a topic are treated as one document, term frequency is
// normalized by the class length, and idf is log(1 + A/f) with A the mean
// class length and f the term's frequency over all classes.
func classWords(docs []string, topics []int, tok *Tokenizer, n int) map[int][]string {
	tf := make(map[int]map[string]int)
	classLen := make(map[int]int)
	total := make(map[string]int)

	for d, doc := range docs {
		id := topics[d]
		if tf[id] == nil {
			tf[id] = make(map[string]int)
		}
		for _, term := range tok.Tokenize(doc) {
			tf[id][term]++
			total[term]++
			classLen[id]++
		}
	}

	var words int
	for _, l := range classLen {
		words += l
	}
	avg := 0.0
	if len(tf) > 0 {
		avg = float64(words) / float64(len(tf))
	}

	out := make(map[int][]string, len(tf))
	for id, terms := range tf {
		type scored struct {
			term  string
			score float64
		}
		ranked := make([]scored, 0, len(terms))
		for term, c := range terms {
			score := float64(c) / float64(classLen[id]) * math.Log(1+avg/float64(total[term]))
			ranked = append(ranked, scored{term, score})
		}
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].score != ranked[j].score {
				return ranked[i].score > ranked[j].score
			}
			return ranked[i].term < ranked[j].term
		})
		if len(ranked) > n {
			ranked = ranked[:n]
		}
		list := make([]string, len(ranked))
		for i, r := range ranked {
			list[i] = r.term
		}
		out[id] = list
	}
	return out
}

// topicName formats "<id>_<w1>_<w2>...", the same shape BERTopic uses.
func topicName(id int, words []string, n int) string {
	if len(words) > n {
		words = words[:n]
	}
	if len(words) == 0 {
		return FallbackName(id)
	}
	return strconv.Itoa(id) + "_" + strings.Join(words, "_")
}
