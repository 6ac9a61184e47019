package analysis

import "strings"

const maxQuestionTokens = 10

// TextAnalyzer runs the lexicon- and overlap-based text heuristics. It holds
// only read-only data and is safe for concurrent use. The scores are
// heuristic and carry no linguistic understanding.
type TextAnalyzer struct {
	lex compiledLexicon
}

// NewTextAnalyzer compiles a lexicon into an analyzer. Empty lexicon fields
// fall back to the defaults.
func NewTextAnalyzer(l Lexicon) (*TextAnalyzer, error) {
	lex, err := compileLexicon(l)
	if err != nil {
		return nil, err
	}
	return &TextAnalyzer{lex: lex}, nil
}

var defaultTextAnalyzer = mustTextAnalyzer(DefaultLexicon())

func mustTextAnalyzer(l Lexicon) *TextAnalyzer {
	ta, err := NewTextAnalyzer(l)
	if err != nil {
		panic(err)
	}
	return ta
}

// AnalyzeAnswer runs Analyze with the default lexicon.
func AnalyzeAnswer(question, answer string) NlpAnalysisResult {
	return defaultTextAnalyzer.Analyze(question, answer)
}

// Analyze scores an answer for relevance to the question, elaboration,
// hedging and evasion. It is total: an empty answer yields a low score.
func (t *TextAnalyzer) Analyze(question, answer string) NlpAnalysisResult {
	q := t.lex.norm.normalize(question)
	a := t.lex.norm.normalize(answer)

	answerLength := len(tokenize(a))
	lengthScore := lengthScore(answerLength)

	uncertaintyCount := countMatches(a, t.lex.uncertainty)
	evasiveCount := countMatches(a, t.lex.evasion)
	uncertaintyScore := clip(float64(uncertaintyCount)*3, 0, 10)
	evasivenessScore := clip(float64(evasiveCount)*4, 0, 10)

	semanticScore := clip(questionOverlap(tokenize(q), a)*10, 0, 10)

	raw := semanticScore*0.45 +
		lengthScore*0.25 +
		(10-uncertaintyScore)*0.15 +
		(10-evasivenessScore)*0.15

	return NlpAnalysisResult{
		NlpScore:         round2(clip(raw, 0, 10)),
		SemanticScore:    round2(semanticScore),
		UncertaintyScore: round2(uncertaintyScore),
		EvasivenessScore: round2(evasivenessScore),
		LengthScore:      round2(lengthScore),
		Details: NlpDetails{
			UncertaintyCount: uncertaintyCount,
			EvasiveCount:     evasiveCount,
			AnswerLength:     answerLength,
		},
	}
}

// lengthScore rewards the 8–24 token band; very short answers say little and
// very long ones read as over-explaining.
func lengthScore(tokens int) float64 {
	switch {
	case tokens < 3:
		return 2
	case tokens < 8:
		return 5
	case tokens < 25:
		return 8
	default:
		return 6
	}
}

// questionOverlap is the fraction of the first question tokens found anywhere
// in the normalized answer.
func questionOverlap(questionTokens []string, answer string) float64 {
	if len(questionTokens) > maxQuestionTokens {
		questionTokens = questionTokens[:maxQuestionTokens]
	}
	if len(questionTokens) == 0 {
		return 0
	}
	hits := 0
	for _, w := range questionTokens {
		if strings.Contains(answer, w) {
			hits++
		}
	}
	return float64(hits) / float64(len(questionTokens))
}
