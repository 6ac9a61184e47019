package analysis

import (
	"math"
	"sort"
)

// Preprocessor cleans stored answers before they are scored
type Preprocessor struct{}

// NewPreprocessor creates a new preprocessor
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{}
}

// ProcessAnswers orders answers by question number and drops resubmissions,
// keeping the latest answer per question. The input slice is not modified.
func (p *Preprocessor) ProcessAnswers(answers []AnswerInput) []AnswerInput {
	out := make([]AnswerInput, len(answers))
	copy(out, answers)

	for i := range out {
		out[i].Signals = p.sanitizeSignals(out[i].Signals)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].QuestionNumber != out[j].QuestionNumber {
			return out[i].QuestionNumber < out[j].QuestionNumber
		}
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})

	return p.keepLatest(out)
}

// keepLatest expects answers sorted by submission time within a question.
func (p *Preprocessor) keepLatest(answers []AnswerInput) []AnswerInput {
	latest := make(map[string]int, len(answers))
	for i, a := range answers {
		if a.QuestionID == "" {
			continue
		}
		latest[a.QuestionID] = i
	}

	cleaned := make([]AnswerInput, 0, len(answers))
	for i, a := range answers {
		if a.QuestionID != "" && latest[a.QuestionID] != i {
			continue
		}
		cleaned = append(cleaned, a)
	}
	return cleaned
}

// sanitizeSignals turns NaN and infinite values into absent signals.
func (p *Preprocessor) sanitizeSignals(s Signals) Signals {
	return Signals{
		Face:                 finiteOrNil(s.Face),
		Voice:                finiteOrNil(s.Voice),
		NLP:                  finiteOrNil(s.NLP),
		ReactionDelaySeconds: finiteOrNil(s.ReactionDelaySeconds),
	}
}

func finiteOrNil(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return cloneFloat(v)
}
