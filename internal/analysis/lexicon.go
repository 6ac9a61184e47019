package analysis

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Lexicon is the word-list configuration behind the heuristic text analyses.
// Phrases are matched as substrings of the normalized answer, so stems such as
// "mutlu" also match "mutluyum".
type Lexicon struct {
	// Language is a BCP 47 tag used for case folding ("tr" folds I to ı).
	Language string `yaml:"language" json:"language"`
	// Alphabet lists the letters kept by normalization besides digits.
	Alphabet    string   `yaml:"alphabet" json:"alphabet"`
	Uncertainty []string `yaml:"uncertainty" json:"uncertainty"`
	Evasion     []string `yaml:"evasion" json:"evasion"`
	Positive    []string `yaml:"positive" json:"positive"`
	Negative    []string `yaml:"negative" json:"negative"`
}

const turkishAlphabet = "abcdefghijklmnopqrstuvwxyzçğıöşü"

// DefaultLexicon returns the built-in Turkish lexicon.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Language: "tr",
		Alphabet: turkishAlphabet,
		Uncertainty: []string{
			"bilmem",
			"bilmiyorum",
			"hatırlamıyorum",
			"galiba",
			"sanırım",
			"emin değilim",
			"belki",
		},
		Evasion: []string{
			"konuşmak istemiyorum",
			"bunu cevaplamak istemiyorum",
			"boşver",
			"sonra konuşalım",
		},
		Positive: []string{
			"mutlu",
			"iyiyim",
			"güzel",
			"harika",
			"sevinçli",
			"huzurlu",
			"keyifli",
			"memnun",
			"seviyorum",
			"neşeli",
			"mükemmel",
		},
		Negative: []string{
			"üzgün",
			"kötü",
			"mutsuz",
			"sinirli",
			"kızgın",
			"öfkeli",
			"endişeli",
			"gergin",
			"korkuyorum",
			"kırgın",
			"stresli",
			"berbat",
			"nefret",
			"huzursuz",
		},
	}
}

// withDefaults fills empty fields from DefaultLexicon so a partial file only
// overrides what it names.
func (l Lexicon) withDefaults() Lexicon {
	d := DefaultLexicon()
	if l.Language == "" {
		l.Language = d.Language
	}
	if l.Alphabet == "" {
		l.Alphabet = d.Alphabet
	}
	if len(l.Uncertainty) == 0 {
		l.Uncertainty = d.Uncertainty
	}
	if len(l.Evasion) == 0 {
		l.Evasion = d.Evasion
	}
	if len(l.Positive) == 0 {
		l.Positive = d.Positive
	}
	if len(l.Negative) == 0 {
		l.Negative = d.Negative
	}
	return l
}

// compiledLexicon is the normalized, read-only form used by TextAnalyzer.
type compiledLexicon struct {
	norm        normalizer
	uncertainty []string
	evasion     []string
	positive    []string
	negative    []string
}

func compileLexicon(l Lexicon) (compiledLexicon, error) {
	l = l.withDefaults()

	tag, err := language.Parse(l.Language)
	if err != nil {
		return compiledLexicon{}, fmt.Errorf("invalid lexicon language %q: %w", l.Language, err)
	}
	if strings.TrimSpace(l.Alphabet) == "" {
		return compiledLexicon{}, fmt.Errorf("lexicon alphabet is empty")
	}

	n := newNormalizer(tag, l.Alphabet)
	return compiledLexicon{
		norm:        n,
		uncertainty: n.phrases(l.Uncertainty),
		evasion:     n.phrases(l.Evasion),
		positive:    n.phrases(l.Positive),
		negative:    n.phrases(l.Negative),
	}, nil
}
