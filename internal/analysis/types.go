package analysis

import "time"

// Signals holds the raw per-answer measurements. Every field is optional;
// nil means the signal was not captured, which is different from a captured 0.
type Signals struct {
	Face                 *float64 `json:"faceScore"`
	Voice                *float64 `json:"voiceScore"`
	NLP                  *float64 `json:"nlpScore"`
	ReactionDelaySeconds *float64 `json:"reactionDelay"`
}

// AnswerIdentity carries pass-through fields the scorer never interprets.
type AnswerIdentity struct {
	AnswerID       string `json:"answerId"`
	QuestionID     string `json:"questionId"`
	QuestionNumber int    `json:"questionNumber"`
	QuestionText   string `json:"questionText"`
	Category       string `json:"category"`
}

// AnswerInput is one stored answer as handed to the Engine.
type AnswerInput struct {
	AnswerIdentity
	Signals
	SubmittedAt time.Time `json:"submittedAt"`
}

type AnswerScore struct {
	AnswerIdentity
	FaceScore          *float64 `json:"faceScore"`
	VoiceScore         *float64 `json:"voiceScore"`
	NlpScore           *float64 `json:"nlpScore"`
	ReactionDelay      *float64 `json:"reactionDelay"`
	ReactionDelayScore *float64 `json:"reactionDelayScore"`
	IndividualScore    *float64 `json:"individualScore"`
}

type CategoryStats struct {
	Count        int     `json:"count"`
	AverageScore float64 `json:"averageScore"`
}

type SessionScoreResult struct {
	SessionID            string                   `json:"sessionId"`
	FinalScore           float64                  `json:"finalScore"`
	TotalQuestions       int                      `json:"totalQuestions"`
	AnsweredQuestions    int                      `json:"answeredQuestions"`
	AnswerScores         []AnswerScore            `json:"answerScores"`
	AverageFaceScore     *float64                 `json:"averageFaceScore"`
	AverageVoiceScore    *float64                 `json:"averageVoiceScore"`
	AverageNlpScore      *float64                 `json:"averageNlpScore"`
	AverageReactionDelay *float64                 `json:"averageReactionDelay"`
	CategoryBreakdown    map[string]CategoryStats `json:"categoryBreakdown"`
}

type NlpDetails struct {
	UncertaintyCount int `json:"uncertaintyCount"`
	EvasiveCount     int `json:"evasiveCount"`
	AnswerLength     int `json:"answerLength"`
}

// NlpAnalysisResult scores one answer against its question. A high NlpScore
// means a relevant, adequately long answer with little hedging or evasion.
type NlpAnalysisResult struct {
	NlpScore         float64    `json:"nlpScore"`
	SemanticScore    float64    `json:"semanticScore"`
	UncertaintyScore float64    `json:"uncertaintyScore"`
	EvasivenessScore float64    `json:"evasivenessScore"`
	LengthScore      float64    `json:"lengthScore"`
	Details          NlpDetails `json:"details"`
}

type ConsistencyDetails struct {
	AnswerCount     int     `json:"answerCount"`
	AvgLengthDiff   float64 `json:"avgLengthDiff"`
	SemanticOverlap float64 `json:"semanticOverlap"`
}

type ConsistencyAnalysisResult struct {
	ConsistencyScore   float64            `json:"consistencyScore"`
	Similarity         float64            `json:"similarity"`
	ContradictionCount int                `json:"contradictionCount"`
	Details            ConsistencyDetails `json:"details"`
}

// EmotionTone is derived from TextEmotionLevel. The scale is inverted: a low
// level means positive wording.
type EmotionTone string

const (
	TonePositive EmotionTone = "positive"
	ToneNegative EmotionTone = "negative"
	ToneNeutral  EmotionTone = "neutral"
)

type EmotionDetails struct {
	PositiveWords  int     `json:"positiveWords"`
	NegativeWords  int     `json:"negativeWords"`
	StressMismatch float64 `json:"stressMismatch"`
}

type EmotionConsistencyResult struct {
	ConsistencyScore float64        `json:"consistencyScore"`
	EmotionTone      EmotionTone    `json:"emotionTone"`
	FaceStressLevel  float64        `json:"faceStressLevel"`
	TextEmotionLevel float64        `json:"textEmotionLevel"`
	Mismatch         bool           `json:"mismatch"`
	Details          EmotionDetails `json:"details"`
}

// AnswerEvaluation bundles the per-answer text analyses. Emotion is nil when
// no face stress value was available.
type AnswerEvaluation struct {
	NLP     NlpAnalysisResult         `json:"nlp"`
	Emotion *EmotionConsistencyResult `json:"emotionAnalysis,omitempty"`
}
