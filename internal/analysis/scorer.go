package analysis

import (
	"fmt"
	"math"
)

// Weights are the relative contributions of each signal to an answer score.
// Only their ratios matter; missing signals are dropped and the rest
// renormalized.
type Weights struct {
	Face          float64 `yaml:"face" json:"face"`
	Voice         float64 `yaml:"voice" json:"voice"`
	NLP           float64 `yaml:"nlp" json:"nlp"`
	ReactionDelay float64 `yaml:"reaction_delay" json:"reactionDelay"`
}

func DefaultWeights() Weights {
	return Weights{
		Face:          0.35,
		Voice:         0.35,
		NLP:           0.20,
		ReactionDelay: 0.10,
	}
}

// Validate rejects negative, non-finite or all-zero weights.
func (w Weights) Validate() error {
	named := map[string]float64{
		"face":           w.Face,
		"voice":          w.Voice,
		"nlp":            w.NLP,
		"reaction_delay": w.ReactionDelay,
	}
	sum := 0.0
	for name, v := range named {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("weight %s must be a finite non-negative number, got %v", name, v)
		}
		sum += v
	}
	if sum == 0 {
		return fmt.Errorf("at least one weight must be positive")
	}
	return nil
}

// reaction delay buckets: upper bound in seconds (inclusive) -> score
var delayBuckets = []struct {
	maxSeconds float64
	score      float64
}{
	{1, 0},
	{2, 2},
	{3, 4},
	{4, 6},
	{5, 8},
}

const slowestDelayScore = 10

// ReactionDelayScore maps seconds-to-answer onto a 0–10 penalty. Negative or
// missing delays yield nil.
func ReactionDelayScore(seconds *float64) *float64 {
	if seconds == nil || *seconds < 0 || math.IsNaN(*seconds) {
		return nil
	}
	for _, b := range delayBuckets {
		if *seconds <= b.maxSeconds {
			return float64Ptr(b.score)
		}
	}
	return float64Ptr(slowestDelayScore)
}

type weightedValue struct {
	value  float64
	weight float64
}

// weightedAverage divides each weight by the sum of the present weights, so
// relative importance among the available signals is preserved. ok is false
// when nothing carries weight.
func weightedAverage(values []weightedValue) (avg float64, ok bool) {
	total := 0.0
	for _, v := range values {
		total += v.weight
	}
	if total <= 0 {
		return 0, false
	}
	for _, v := range values {
		avg += v.value * (v.weight / total)
	}
	return avg, true
}

// Scorer fuses per-answer signals into a 0–100 inconsistency score.
type Scorer struct {
	weights Weights
}

func NewScorer(w Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: w}, nil
}

func (s *Scorer) Weights() Weights { return s.weights }

var defaultScorer = &Scorer{weights: DefaultWeights()}

// ScoreAnswer scores with the default weights.
func ScoreAnswer(id AnswerIdentity, sig Signals) AnswerScore {
	return defaultScorer.ScoreAnswer(id, sig)
}

// ScoreAnswer rescales every present 0–10 signal to 0–100 and takes their
// renormalized weighted average. With no signal present the score is nil.
func (s *Scorer) ScoreAnswer(id AnswerIdentity, sig Signals) AnswerScore {
	delayScore := ReactionDelayScore(sig.ReactionDelaySeconds)

	out := AnswerScore{
		AnswerIdentity:     id,
		FaceScore:          cloneFloat(sig.Face),
		VoiceScore:         cloneFloat(sig.Voice),
		NlpScore:           cloneFloat(sig.NLP),
		ReactionDelay:      cloneFloat(sig.ReactionDelaySeconds),
		ReactionDelayScore: delayScore,
	}

	values := make([]weightedValue, 0, 4)
	add := func(v *float64, weight float64) {
		if v != nil {
			values = append(values, weightedValue{value: *v / 10 * 100, weight: weight})
		}
	}
	add(sig.Face, s.weights.Face)
	add(sig.Voice, s.weights.Voice)
	add(sig.NLP, s.weights.NLP)
	add(delayScore, s.weights.ReactionDelay)

	if len(values) == 0 {
		return out
	}
	avg, ok := weightedAverage(values)
	if !ok {
		return out
	}
	out.IndividualScore = float64Ptr(round2(clip(avg, 0, 100)))
	return out
}
