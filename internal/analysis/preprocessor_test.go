package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func answerAt(questionID string, number int, at time.Time, face *float64) AnswerInput {
	return AnswerInput{
		AnswerIdentity: AnswerIdentity{AnswerID: questionID + at.Format("150405"), QuestionID: questionID, QuestionNumber: number},
		Signals:        Signals{Face: face},
		SubmittedAt:    at,
	}
}

func TestPreprocessor_ProcessAnswers(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	p := NewPreprocessor()

	tests := []struct {
		name      string
		input     []AnswerInput
		wantIDs   []string
		wantFaces []float64
	}{
		{
			name:    "empty input",
			input:   nil,
			wantIDs: []string{},
		},
		{
			name: "orders by question number",
			input: []AnswerInput{
				answerAt("q3", 3, base, fp(3)),
				answerAt("q1", 1, base.Add(time.Minute), fp(1)),
				answerAt("q2", 2, base.Add(2*time.Minute), fp(2)),
			},
			wantIDs:   []string{"q1", "q2", "q3"},
			wantFaces: []float64{1, 2, 3},
		},
		{
			name: "latest resubmission wins",
			input: []AnswerInput{
				answerAt("q1", 1, base.Add(time.Minute), fp(9)),
				answerAt("q1", 1, base, fp(2)),
				answerAt("q2", 2, base, fp(5)),
			},
			wantIDs:   []string{"q1", "q2"},
			wantFaces: []float64{9, 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := p.ProcessAnswers(tt.input)

			ids := make([]string, 0, len(result))
			for _, a := range result {
				ids = append(ids, a.QuestionID)
			}
			assert.Equal(t, tt.wantIDs, ids)

			for i, want := range tt.wantFaces {
				require.NotNil(t, result[i].Face)
				assert.Equal(t, want, *result[i].Face)
			}
		})
	}
}

func TestPreprocessor_KeepsAnswersWithoutQuestionID(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	input := []AnswerInput{
		answerAt("", 0, base, fp(1)),
		answerAt("", 0, base.Add(time.Second), fp(2)),
	}

	assert.Len(t, NewPreprocessor().ProcessAnswers(input), 2)
}

func TestPreprocessor_DropsNonFiniteSignals(t *testing.T) {
	input := []AnswerInput{{
		AnswerIdentity: AnswerIdentity{QuestionID: "q1", QuestionNumber: 1},
		Signals: Signals{
			Face:                 fp(math.NaN()),
			Voice:                fp(math.Inf(1)),
			NLP:                  fp(6.5),
			ReactionDelaySeconds: fp(math.Inf(-1)),
		},
	}}

	result := NewPreprocessor().ProcessAnswers(input)

	require.Len(t, result, 1)
	assert.Nil(t, result[0].Face)
	assert.Nil(t, result[0].Voice)
	assert.Nil(t, result[0].ReactionDelaySeconds)
	require.NotNil(t, result[0].NLP)
	assert.Equal(t, 6.5, *result[0].NLP)
}

func TestPreprocessor_LeavesInputUntouched(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	input := []AnswerInput{
		answerAt("q2", 2, base, fp(math.NaN())),
		answerAt("q1", 1, base, fp(1)),
	}

	NewPreprocessor().ProcessAnswers(input)

	assert.Equal(t, "q2", input[0].QuestionID)
	require.NotNil(t, input[0].Face)
	assert.True(t, math.IsNaN(*input[0].Face))
}
