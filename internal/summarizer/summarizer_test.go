package summarizer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"catchup-feed/internal/summarizer"
)

func TestPreclean_DropsJunkLinesAndCollapsesBlankRuns(t *testing.T) {
	text := "First paragraph line.\n사진=연합뉴스\n\n\n\nSecond paragraph line."
	got := summarizer.Preclean(text)
	if strings.Contains(got, "사진=연합뉴스") {
		t.Fatalf("expected the photo-credit line to be dropped, got %q", got)
	}
	if strings.Contains(got, "\n\n\n") {
		t.Fatalf("expected runs of blank lines collapsed to 2, got %q", got)
	}
}

func TestPreclean_StripsReporterEmailSignature(t *testing.T) {
	text := "본문 내용입니다. 홍길동 기자 (hong@example.com)"
	got := summarizer.Preclean(text)
	if strings.Contains(got, "hong@example.com") {
		t.Fatalf("expected the reporter byline/email to be stripped, got %q", got)
	}
}

func TestPreclean_UnescapesHTMLEntities(t *testing.T) {
	got := summarizer.Preclean("Tom &amp; Jerry")
	if got != "Tom & Jerry" {
		t.Fatalf("expected HTML entities unescaped, got %q", got)
	}
}

func TestSplitSentences_DropsShortAndJunkSentences(t *testing.T) {
	text := "This is a proper sentence about policy. 구독하기 좋아요 알림설정. Another real sentence follows here."
	sentences := summarizer.SplitSentences(text)
	for _, s := range sentences {
		if strings.Contains(s, "구독하기") {
			t.Fatalf("expected the junk-keyword sentence to be filtered, got %q", s)
		}
	}
	if len(sentences) == 0 {
		t.Fatalf("expected at least one surviving sentence")
	}
}

func TestSplitSentences_StripsPhotoCreditSuffix(t *testing.T) {
	text := "The policy debate continued today (사진=연합뉴스). Markets reacted calmly."
	sentences := summarizer.SplitSentences(text)
	for _, s := range sentences {
		if strings.Contains(s, "사진=연합뉴스") {
			t.Fatalf("expected the photo-credit suffix stripped from %q", s)
		}
	}
}

func TestLexRankTopK_ReturnsAllIndicesWhenKExceedsSentenceCount(t *testing.T) {
	sentences := []string{"Sentence one about topic.", "Sentence two about topic."}
	idx := summarizer.LexRankTopK(sentences, 5)
	if len(idx) != len(sentences) {
		t.Fatalf("expected all %d indices, got %d", len(sentences), len(idx))
	}
}

func TestLexRankTopK_ReturnsKIndicesInOriginalOrder(t *testing.T) {
	sentences := []string{
		"Markets rallied on trade optimism today across the board.",
		"Completely unrelated topic about gardening and soil chemistry.",
		"Markets rallied again on continued trade optimism this week.",
		"Another unrelated note about weather patterns in the region.",
	}
	idx := summarizer.LexRankTopK(sentences, 2)
	if len(idx) != 2 {
		t.Fatalf("expected 2 indices, got %d", len(idx))
	}
	if idx[0] >= idx[1] {
		t.Fatalf("expected indices reordered ascending to match original sentence order, got %v", idx)
	}
}

type stubAbstractive struct {
	out string
	err error
}

func (s stubAbstractive) Summarize(context.Context, string, int) (string, error) {
	return s.out, s.err
}

func TestService_Summarize_EmptyInputReturnsEmpty(t *testing.T) {
	svc := summarizer.New(summarizer.NoopBackend{})
	if got := svc.Summarize(context.Background(), "   \n\n  ", 3, nil); got != "" {
		t.Fatalf("expected empty summary for blank input, got %q", got)
	}
}

func TestService_Summarize_UsesAbstractiveWhenWithinBudget(t *testing.T) {
	text := strings.Repeat("This is a long sentence about the policy debate today. ", 10)
	svc := summarizer.New(stubAbstractive{out: "A short abstractive summary."})
	got := svc.Summarize(context.Background(), text, 3, nil)
	if got != "A short abstractive summary." {
		t.Fatalf("expected the abstractive output to be used, got %q", got)
	}
}

func TestService_Summarize_FallsBackToExtractiveWhenAbstractiveFails(t *testing.T) {
	text := "First sentence about the economy and trade policy today. " +
		"Second sentence discussing markets and investor sentiment broadly. " +
		"Third sentence covering central bank decisions and rate outlook. " +
		"Fourth sentence about consumer spending trends this quarter."
	svc := summarizer.New(stubAbstractive{err: errors.New("backend unavailable")})
	got := svc.Summarize(context.Background(), text, 2, nil)
	if got == "" {
		t.Fatalf("expected a non-empty extractive fallback summary")
	}
}

func TestService_Summarize_RespectsMaxChars(t *testing.T) {
	text := "First sentence about the economy and trade policy today. " +
		"Second sentence discussing markets and investor sentiment broadly. " +
		"Third sentence covering central bank decisions and rate outlook."
	svc := summarizer.New(summarizer.NoopBackend{})
	maxChars := 40
	got := svc.Summarize(context.Background(), text, 3, &maxChars)
	if len(got) > maxChars {
		t.Fatalf("expected summary capped at %d chars, got %d: %q", maxChars, len(got), got)
	}
}

func TestService_Summarize_DegenerateInputYieldsEmpty(t *testing.T) {
	svc := summarizer.New(summarizer.NoopBackend{})
	got := svc.Summarize(context.Background(), "구독하기", 3, nil)
	if got != "" {
		t.Fatalf("expected an all-junk input to summarize to empty, got %q", got)
	}
}
