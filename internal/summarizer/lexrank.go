package summarizer

import (
	"math"
	"sort"

	"catchup-feed/internal/vectorindex"
)

// LexRank parameters, matching original_source's _lexrank_scores exactly
// (spec §4.3).
const (
	similarityThreshold = 0.1
	damping              = 0.85
	tolerance            = 1e-6
	maxIterations        = 100
)

// maxSentencesConsidered caps the sentence-similarity matrix size, matching
// _extractive_summarize's cap to the first 80 sentences.
const maxSentencesConsidered = 80

// LexRankTopK scores sentences by LexRank centrality over a document-local
// TF-IDF cosine-similarity matrix and returns the indices (into sentences)
// of the top k, reordered to original sentence order.
func LexRankTopK(sentences []string, k int) []int {
	if len(sentences) > maxSentencesConsidered {
		sentences = sentences[:maxSentencesConsidered]
	}
	n := len(sentences)
	if k >= n {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}

	vec := vectorindex.Fit(sentences)
	vectors := make([][]float32, n)
	for i, s := range sentences {
		vectors[i] = vec.Transform(s)
	}

	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			c := cosine(vectors[i], vectors[j])
			sim[i][j] = c
			sim[j][i] = c
		}
	}

	scores := powerIterate(sim)

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })
	top := idx[:k]
	sort.Ints(top)
	return top
}

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// powerIterate runs the damped power iteration described in spec §4.3:
// threshold edges at 0.1, zero the diagonal, row-normalize to a transition
// matrix, iterate v_new = (1-d)/n + d*P^T*v until the L1 delta < tolerance
// or maxIterations is reached.
func powerIterate(sim [][]float64) []float64 {
	n := len(sim)
	if n == 0 {
		return nil
	}

	adj := make([][]float64, n)
	for i := range adj {
		adj[i] = make([]float64, n)
		for j := range adj[i] {
			if i == j {
				continue
			}
			if sim[i][j] >= similarityThreshold {
				adj[i][j] = sim[i][j]
			}
		}
	}

	p := make([][]float64, n)
	for i := range p {
		p[i] = make([]float64, n)
		var rowSum float64
		for j := range p[i] {
			rowSum += adj[i][j]
		}
		if rowSum == 0 {
			continue
		}
		for j := range p[i] {
			p[i][j] = adj[i][j] / rowSum
		}
	}

	v := make([]float64, n)
	for i := range v {
		v[i] = 1.0 / float64(n)
	}

	for iter := 0; iter < maxIterations; iter++ {
		next := make([]float64, n)
		base := (1 - damping) / float64(n)
		for j := 0; j < n; j++ {
			var acc float64
			for i := 0; i < n; i++ {
				acc += p[i][j] * v[i]
			}
			next[j] = base + damping*acc
		}

		var delta float64
		for i := range v {
			delta += math.Abs(next[i] - v[i])
		}
		v = next
		if delta < tolerance {
			break
		}
	}
	return v
}
