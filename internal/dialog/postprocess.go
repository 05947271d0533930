package dialog

import (
	"regexp"
	"strings"
)

var (
	listMarkerRe   = regexp.MustCompile(`(?m)^[ \t]*([*\-•]|\d+\.)[ \t]+`)
	decorativeRe   = regexp.MustCompile("[`*_~•-]")
	egRe           = regexp.MustCompile(`(?i)\be\.g\.`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	sentenceEndsRe = regexp.MustCompile(`[.!?]+(\s+|$)`)
)

// maxReplySentences is the spec's hard cap on reply length (§4.5:
// "truncate to at most three sentences").
const maxReplySentences = 3

// Normalize applies the Dialog Manager's reply post-processing (spec §4.5):
// strip list markers, remove decorative glyphs, expand "e.g.", collapse
// whitespace, and truncate to at most three sentences. Idempotent:
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	text = listMarkerRe.ReplaceAllString(text, "")
	text = decorativeRe.ReplaceAllString(text, "")
	text = egRe.ReplaceAllString(text, "for example")
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	text = truncateSentences(text, maxReplySentences)
	return text
}

// truncateSentences keeps at most n sentences, where a sentence boundary is
// one or more of .!? followed by whitespace or end of string.
func truncateSentences(text string, n int) string {
	locs := sentenceEndsRe.FindAllStringIndex(text, -1)
	if len(locs) < n {
		return text
	}
	end := locs[n-1][1]
	return strings.TrimSpace(text[:end])
}
