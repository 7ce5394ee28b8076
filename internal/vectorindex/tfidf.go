package vectorindex

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"catchup-feed/internal/domain/entity"
)

// Hyperparameters match original_source/ai/app/services/vector_store.py's
// TfidfVectorizer call exactly (spec §4.5).
const (
	MinDF        = 3
	MaxDF        = 0.9
	NgramMin     = 1
	NgramMax     = 2
	MaxFeatures  = 20000
	SublinearTF  = true
	TitleDocBody = 400 // chars of body kept in the indexing/query document
)

var tokenRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

// tokenize lower-cases and splits on runs of letters/digits, matching the
// rough effect of scikit-learn's default analyzer for our purposes (no
// stopword list is applied upstream either).
func tokenize(doc string) []string {
	return tokenRe.FindAllString(strings.ToLower(doc), -1)
}

func ngrams(tokens []string) []string {
	out := make([]string, 0, len(tokens)*2)
	for n := NgramMin; n <= NgramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

// Vectorizer is a fitted TF-IDF model: a fixed vocabulary (term -> column
// index) and per-term IDF weights.
type Vectorizer struct {
	Vocab map[string]int
	IDF   []float64
}

// Fit builds a Vectorizer over docs, applying min_df/max_df/max_features
// exactly as spec §4.5 states.
func Fit(docs []string) *Vectorizer {
	docFreq := map[string]int{}
	tokenized := make([][]string, len(docs))
	for i, d := range docs {
		grams := ngrams(tokenize(d))
		tokenized[i] = grams
		seen := map[string]bool{}
		for _, g := range grams {
			if !seen[g] {
				seen[g] = true
				docFreq[g]++
			}
		}
	}

	n := len(docs)
	maxDocs := int(MaxDF * float64(n))

	type termCount struct {
		term string
		df   int
	}
	var candidates []termCount
	for term, df := range docFreq {
		if df < MinDF {
			continue
		}
		if n > 0 && df > maxDocs && maxDocs > 0 {
			continue
		}
		candidates = append(candidates, termCount{term, df})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].df != candidates[j].df {
			return candidates[i].df > candidates[j].df
		}
		return candidates[i].term < candidates[j].term
	})
	if len(candidates) > MaxFeatures {
		candidates = candidates[:MaxFeatures]
	}

	vocab := make(map[string]int, len(candidates))
	idf := make([]float64, len(candidates))
	for i, c := range candidates {
		vocab[c.term] = i
		// smooth IDF, matching scikit-learn's default smooth_idf=True
		idf[i] = math.Log(float64(1+n)/float64(1+c.df)) + 1
	}

	return &Vectorizer{Vocab: vocab, IDF: idf}
}

// Transform maps doc to a dense, L2-normalized TF-IDF vector over the
// fitted vocabulary.
func (v *Vectorizer) Transform(doc string) []float32 {
	grams := ngrams(tokenize(doc))
	tf := make(map[int]float64)
	for _, g := range grams {
		idx, ok := v.Vocab[g]
		if !ok {
			continue
		}
		tf[idx]++
	}

	vec := make([]float64, len(v.Vocab))
	var sumSq float64
	for idx, count := range tf {
		w := count
		if SublinearTF {
			w = 1 + math.Log(count)
		}
		w *= v.IDF[idx]
		vec[idx] = w
		sumSq += w * w
	}
	norm := math.Sqrt(sumSq)
	out := make([]float32, len(vec))
	if norm == 0 {
		return out
	}
	for i, w := range vec {
		out[i] = float32(w / norm)
	}
	return out
}

// Dim returns the fitted vocabulary size (vector dimension).
func (v *Vectorizer) Dim() int { return len(v.Vocab) }

// BuildDocument constructs the indexing/query document used by both C6
// training and C8 query construction: title doubled for weight, plus up
// to 400 characters of body, matching spec §4.5 exactly (resolving Open
// Question 3 in favor of 400 chars consistently).
func BuildDocument(title, body string) string {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if len(body) > TitleDocBody {
		body = body[:TitleDocBody]
	}
	return strings.TrimSpace(title + " " + title + " " + body)
}

// SaveAtomic persists v to path via a temp-file-then-rename so readers
// never observe a partially written artifact (spec §5's atomic swap
// requirement).
func SaveAtomic(path string, v *Vectorizer) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("vectorindex: save: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "tfidf-*.tmp")
	if err != nil {
		return fmt.Errorf("vectorindex: save: tempfile: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	enc := gob.NewEncoder(tmp)
	if err := enc.Encode(v); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("vectorindex: save: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("vectorindex: save: close: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("vectorindex: save: rename: %w", err)
	}
	return nil
}

// Load reads a Vectorizer previously written by SaveAtomic. Returns a
// *entity.KindedError with KindCorrupted if the artifact is missing,
// matching spec §4.5/§7's "missing vectorizer" Corrupted error kind.
func Load(path string) (*Vectorizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, entity.NewError("vectorindex.Load", entity.KindCorrupted, err)
	}
	defer func() { _ = f.Close() }()

	var v Vectorizer
	if err := gob.NewDecoder(f).Decode(&v); err != nil {
		return nil, entity.NewError("vectorindex.Load", entity.KindCorrupted, err)
	}
	return &v, nil
}
