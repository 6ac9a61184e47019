package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeEmotionContent(t *testing.T) {
	tests := []struct {
		name       string
		answer     string
		faceStress float64
		expected   EmotionConsistencyResult
	}{
		{
			name:       "positive words under high stress",
			answer:     "Çok mutluyum ve huzurluyum",
			faceStress: 8,
			expected: EmotionConsistencyResult{
				ConsistencyScore: 2.8,
				EmotionTone:      TonePositive,
				FaceStressLevel:  8,
				TextEmotionLevel: 2,
				Mismatch:         true,
				Details:          EmotionDetails{PositiveWords: 2, StressMismatch: 6},
			},
		},
		{
			name:       "negative words under high stress",
			answer:     "Çok üzgünüm ve endişeliyim",
			faceStress: 8,
			expected: EmotionConsistencyResult{
				ConsistencyScore: 10,
				EmotionTone:      ToneNegative,
				FaceStressLevel:  8,
				TextEmotionLevel: 8,
				Details:          EmotionDetails{NegativeWords: 2},
			},
		},
		{
			name:       "no emotional words",
			answer:     "Bugün okula gittim",
			faceStress: 5,
			expected: EmotionConsistencyResult{
				ConsistencyScore: 10,
				EmotionTone:      ToneNeutral,
				FaceStressLevel:  5,
				TextEmotionLevel: 5,
			},
		},
		{
			name:       "tie stays neutral",
			answer:     "mutluyum ama biraz üzgünüm",
			faceStress: 5,
			expected: EmotionConsistencyResult{
				ConsistencyScore: 10,
				EmotionTone:      ToneNeutral,
				FaceStressLevel:  5,
				TextEmotionLevel: 5,
				Details:          EmotionDetails{PositiveWords: 1, NegativeWords: 1},
			},
		},
		{
			name:       "level floors at zero",
			answer:     "mutlu harika güzel keyifli",
			faceStress: 0,
			expected: EmotionConsistencyResult{
				ConsistencyScore: 10,
				EmotionTone:      TonePositive,
				FaceStressLevel:  0,
				TextEmotionLevel: 0,
				Details:          EmotionDetails{PositiveWords: 4},
			},
		},
		{
			name:       "level caps at ten",
			answer:     "kötü berbat gergin stresli",
			faceStress: 10,
			expected: EmotionConsistencyResult{
				ConsistencyScore: 10,
				EmotionTone:      ToneNegative,
				FaceStressLevel:  10,
				TextEmotionLevel: 10,
				Details:          EmotionDetails{NegativeWords: 4},
			},
		},
		{
			name:       "mismatch of exactly four is not flagged",
			answer:     "Bugün okula gittim",
			faceStress: 9,
			expected: EmotionConsistencyResult{
				ConsistencyScore: 5.2,
				EmotionTone:      ToneNeutral,
				FaceStressLevel:  9,
				TextEmotionLevel: 5,
				Details:          EmotionDetails{StressMismatch: 4},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AnalyzeEmotionContent(tt.answer, tt.faceStress)
			assert.InDelta(t, tt.expected.ConsistencyScore, result.ConsistencyScore, 1e-9)
			assert.Equal(t, tt.expected.EmotionTone, result.EmotionTone)
			assert.Equal(t, tt.expected.FaceStressLevel, result.FaceStressLevel)
			assert.Equal(t, tt.expected.TextEmotionLevel, result.TextEmotionLevel)
			assert.Equal(t, tt.expected.Mismatch, result.Mismatch)
			assert.Equal(t, tt.expected.Details, result.Details)
		})
	}
}

func TestAnalyzeEmotionContent_NegationStemsDoNotCross(t *testing.T) {
	result := AnalyzeEmotionContent("mutsuzum ve huzursuzum", 5)

	assert.Equal(t, 0, result.Details.PositiveWords)
	assert.Equal(t, 2, result.Details.NegativeWords)
}
