package vector

import (
	"regexp"
	"strings"
)

// MaxTextRunes is the embedding input budget; longer text is cut and marked.
const MaxTextRunes = 30000

// TruncationMarker is appended to text cut at MaxTextRunes.
const TruncationMarker = "..."

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	disallowed    = regexp.MustCompile(`[^\p{L}\p{N}\s.,;:!?()'"/%&+=-]`)
)

// Preprocess normalizes text before embedding: whitespace runs collapse to one
// space, characters outside letters, digits and common punctuation are removed,
// the result is trimmed and then cut to MaxTextRunes with TruncationMarker.
func Preprocess(text string) string {
	s, _ := preprocess(text)
	return s
}

func preprocess(text string) (string, bool) {
	s := whitespaceRun.ReplaceAllString(text, " ")
	s = disallowed.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	r := []rune(s)
	if len(r) > MaxTextRunes {
		return string(r[:MaxTextRunes]) + TruncationMarker, true
	}
	return s, false
}
