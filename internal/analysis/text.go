package analysis

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// normalizer lowercases text and keeps only alphabet letters and ASCII digits.
// A cases.Caser is stateful, so one is built per call instead of shared.
type normalizer struct {
	tag     language.Tag
	letters map[rune]struct{}
}

func newNormalizer(tag language.Tag, alphabet string) normalizer {
	n := normalizer{tag: tag, letters: make(map[rune]struct{})}
	for _, r := range cases.Lower(tag).String(alphabet) {
		n.letters[r] = struct{}{}
	}
	return n
}

func (n normalizer) keep(r rune) bool {
	if r >= '0' && r <= '9' {
		return true
	}
	_, ok := n.letters[r]
	return ok
}

func (n normalizer) normalize(text string) string {
	lowered := cases.Lower(n.tag).String(text)

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if n.keep(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// phrases normalizes a word list, dropping entries that normalize to nothing.
func (n normalizer) phrases(list []string) []string {
	out := make([]string, 0, len(list))
	for _, p := range list {
		if np := n.normalize(p); np != "" {
			out = append(out, np)
		}
	}
	return out
}

func tokenize(normalized string) []string {
	return strings.Fields(normalized)
}

// countMatches counts how many phrases occur in text. A phrase repeated in the
// text still counts once.
func countMatches(text string, phrases []string) int {
	count := 0
	for _, p := range phrases {
		if strings.Contains(text, p) {
			count++
		}
	}
	return count
}
