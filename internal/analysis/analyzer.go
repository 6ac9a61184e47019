package analysis

import "fmt"

// Config selects the lexicon and fusion weights of an Engine. Zero values
// fall back to the defaults.
type Config struct {
	Lexicon Lexicon
	Weights Weights
}

// Engine orchestrates the full scoring pipeline. It holds no mutable state and
// may be shared between goroutines.
type Engine struct {
	text         *TextAnalyzer
	scorer       *Scorer
	preprocessor *Preprocessor
}

// NewEngine creates an engine with all components
func NewEngine(cfg Config) (*Engine, error) {
	text, err := NewTextAnalyzer(cfg.Lexicon)
	if err != nil {
		return nil, fmt.Errorf("failed to build text analyzer: %w", err)
	}

	weights := cfg.Weights
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	scorer, err := NewScorer(weights)
	if err != nil {
		return nil, fmt.Errorf("invalid scoring weights: %w", err)
	}

	return &Engine{
		text:         text,
		scorer:       scorer,
		preprocessor: NewPreprocessor(),
	}, nil
}

func (e *Engine) Text() *TextAnalyzer { return e.text }

func (e *Engine) Scorer() *Scorer { return e.scorer }

// EvaluateAnswer runs the text analysis and, when a face stress value is
// known, the emotion-content check for one answer.
func (e *Engine) EvaluateAnswer(question, answer string, faceStress *float64) AnswerEvaluation {
	eval := AnswerEvaluation{NLP: e.text.Analyze(question, answer)}
	if faceStress != nil {
		emotion := e.text.AnalyzeEmotionContent(answer, *faceStress)
		eval.Emotion = &emotion
	}
	return eval
}

// ScoreSession cleans the stored answers, scores each one and aggregates them
// under sessionID.
func (e *Engine) ScoreSession(sessionID string, answers []AnswerInput) SessionScoreResult {
	processed := e.preprocessor.ProcessAnswers(answers)

	scores := make([]AnswerScore, 0, len(processed))
	for _, a := range processed {
		scores = append(scores, e.scorer.ScoreAnswer(a.AnswerIdentity, a.Signals))
	}

	result := AggregateSession(scores)
	result.SessionID = sessionID
	return result
}
