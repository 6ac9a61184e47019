package analysis

import "math"

const (
	neutralEmotionLevel = 5.0
	emotionStep         = 1.5
	mismatchThreshold   = 4.0
)

// AnalyzeEmotionContent runs the emotion check with the default lexicon.
func AnalyzeEmotionContent(answer string, faceStress float64) EmotionConsistencyResult {
	return defaultTextAnalyzer.AnalyzeEmotionContent(answer, faceStress)
}

// AnalyzeEmotionContent compares the stress level read from the face with the
// emotional charge of the answer wording. TextEmotionLevel runs from 0
// (positive wording) to 10 (negative wording), so it sits on the same axis as
// stress.
func (t *TextAnalyzer) AnalyzeEmotionContent(answer string, faceStress float64) EmotionConsistencyResult {
	a := t.lex.norm.normalize(answer)
	pos := countMatches(a, t.lex.positive)
	neg := countMatches(a, t.lex.negative)

	level := neutralEmotionLevel
	switch {
	case pos > neg:
		level = math.Max(0, neutralEmotionLevel-emotionStep*float64(pos))
	case neg > pos:
		level = math.Min(10, neutralEmotionLevel+emotionStep*float64(neg))
	}

	tone := ToneNeutral
	if level < 3 {
		tone = TonePositive
	} else if level > 7 {
		tone = ToneNegative
	}

	stressMismatch := math.Abs(faceStress - level)

	return EmotionConsistencyResult{
		ConsistencyScore: round2(clip(10-stressMismatch*1.2, 0, 10)),
		EmotionTone:      tone,
		FaceStressLevel:  faceStress,
		TextEmotionLevel: round2(level),
		Mismatch:         stressMismatch > mismatchThreshold,
		Details: EmotionDetails{
			PositiveWords:  pos,
			NegativeWords:  neg,
			StressMismatch: round2(stressMismatch),
		},
	}
}
