package vectorindex_test

import (
	"math"
	"path/filepath"
	"testing"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/vectorindex"
)

func vecNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestFit_DropsTermsBelowMinDF(t *testing.T) {
	docs := []string{
		"apple banana cherry",
		"apple banana date",
		"apple fig grape",
	}
	v := vectorindex.Fit(docs)

	if _, ok := v.Vocab["apple"]; !ok {
		t.Fatalf("expected 'apple' (df=3) to survive min_df=3")
	}
	if _, ok := v.Vocab["banana"]; ok {
		t.Fatalf("expected 'banana' (df=2) to be dropped below min_df=3")
	}
	if _, ok := v.Vocab["cherry"]; ok {
		t.Fatalf("expected 'cherry' (df=1) to be dropped below min_df=3")
	}
}

func TestFit_RespectsMaxDF(t *testing.T) {
	// "common" appears in every doc: with MaxDF=0.9 and n=10, maxDocs=9,
	// so a term appearing in all 10 must be dropped as too frequent.
	docs := make([]string, 10)
	for i := range docs {
		docs[i] = "common unique" + string(rune('a'+i))
	}
	v := vectorindex.Fit(docs)
	if _, ok := v.Vocab["common"]; ok {
		t.Fatalf("expected 'common' (df=10 of 10) to be dropped by max_df=0.9")
	}
}

func TestTransform_ProducesUnitVectorForKnownTerms(t *testing.T) {
	docs := []string{
		"alpha beta gamma", "alpha beta delta", "alpha beta epsilon",
	}
	v := vectorindex.Fit(docs)
	out := v.Transform("alpha beta gamma")
	if len(out) != v.Dim() {
		t.Fatalf("expected output length %d, got %d", v.Dim(), len(out))
	}
	if n := vecNorm(out); n > 1e-9 && math.Abs(n-1) > 1e-6 {
		t.Fatalf("expected an L2-normalized vector, got norm %v", n)
	}
}

func TestTransform_UnknownTermsYieldZeroVector(t *testing.T) {
	docs := []string{"alpha beta gamma", "alpha beta delta", "alpha beta epsilon"}
	v := vectorindex.Fit(docs)
	out := v.Transform("zzz yyy xxx")
	for i, x := range out {
		if x != 0 {
			t.Fatalf("expected an all-zero vector for unknown terms, got nonzero at %d: %v", i, x)
		}
	}
}

func TestTransform_EmptyVocabularyYieldsEmptyVector(t *testing.T) {
	v := vectorindex.Fit(nil)
	out := v.Transform("anything at all")
	if len(out) != 0 {
		t.Fatalf("expected an empty vector from an empty vocabulary, got len %d", len(out))
	}
}

func TestBuildDocument_TruncatesBodyAndDoublesTitle(t *testing.T) {
	title := "Headline"
	body := ""
	for i := 0; i < 500; i++ {
		body += "x"
	}
	doc := vectorindex.BuildDocument(title, body)
	if got := len(doc) - len(title)*2 - 2; got != vectorindex.TitleDocBody {
		t.Fatalf("expected body truncated to %d chars, got %d extra chars", vectorindex.TitleDocBody, got)
	}
}

func TestBuildDocument_TrimsWhitespace(t *testing.T) {
	doc := vectorindex.BuildDocument("  Title  ", "  body text  ")
	if doc != "Title Title body text" {
		t.Fatalf("unexpected document: %q", doc)
	}
}

func TestSaveAtomicAndLoad_RoundTrips(t *testing.T) {
	v := vectorindex.Fit([]string{"alpha beta gamma", "alpha beta delta", "alpha beta epsilon"})
	path := filepath.Join(t.TempDir(), "tfidf.gob")

	if err := vectorindex.SaveAtomic(path, v); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}
	loaded, err := vectorindex.Load(path)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if loaded.Dim() != v.Dim() {
		t.Fatalf("expected dim %d, got %d", v.Dim(), loaded.Dim())
	}
	for term, idx := range v.Vocab {
		if loaded.Vocab[term] != idx {
			t.Fatalf("vocab mismatch for %q: want %d got %d", term, idx, loaded.Vocab[term])
		}
	}
}

func TestLoad_MissingFileReturnsCorruptedKind(t *testing.T) {
	_, err := vectorindex.Load(filepath.Join(t.TempDir(), "does-not-exist.gob"))
	if err == nil {
		t.Fatalf("expected an error for a missing artifact")
	}
	kind, ok := entity.KindOf(err)
	if !ok || kind != entity.KindCorrupted {
		t.Fatalf("expected KindCorrupted, got %v (ok=%v)", kind, ok)
	}
}
