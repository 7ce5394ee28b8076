// Package summarizer implements the extractive summarizer (C4): boilerplate
// removal, sentence segmentation, LexRank-style ranking with an optional
// abstractive backend and a lead fallback, plus the advisory-locked batch
// job that backfills missing summaries.
package summarizer

import (
	"html"
	"regexp"
	"strings"
)

// junkLinePatterns match boilerplate lines dropped during preclean, grounded
// on original_source/ai/app/api/summary.py's JUNK_LINE_PATTERNS: photo/byline
// captions, copyright and reprint notices, subscription prompts, and
// broadcast-script markers.
var junkLinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(사진|그래픽|영상|신문)\s*=`),
	regexp.MustCompile(`(?i)자료사진`),
	regexp.MustCompile(`(?i)ⓒ|copyright|all rights reserved`),
	regexp.MustCompile(`(?i)무단\s*전재|재배포\s*금지|ai\s*학습\s*이용\s*금지`),
	regexp.MustCompile(`(?i)구독|좋아요|알림\s*설정`),
	regexp.MustCompile(`\[(앵커|기자)\]`),
	regexp.MustCompile(`(?i)영상취재|영상편집`),
	regexp.MustCompile(`(?i)기사문의\s*및\s*제보`),
}

// reporterEmailRe matches a reporter byline followed by an email address,
// e.g. "홍길동 기자 (hong@example.com)".
var reporterEmailRe = regexp.MustCompile(`[\p{Hangul}A-Za-z]+\s*(기자|특파원)\s*\([\w.+-]+@[\w.-]+\)`)

var blankRunRe = regexp.MustCompile(`\n{3,}`)

// Preclean unescapes HTML entities, drops boilerplate lines, strips
// reporter email signatures, and collapses runs of ≥3 blank lines to 2.
func Preclean(text string) string {
	text = html.UnescapeString(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			kept = append(kept, "")
			continue
		}
		if isJunkLine(line) {
			continue
		}
		kept = append(kept, line)
	}
	cleaned := strings.Join(kept, "\n")
	cleaned = reporterEmailRe.ReplaceAllString(cleaned, "")
	cleaned = blankRunRe.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}

func isJunkLine(line string) bool {
	for _, re := range junkLinePatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
