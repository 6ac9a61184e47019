package analysis

// AggregateSession summarizes the answer scores of one session. The session id
// is left empty for the caller to fill in.
//
// FinalScore and CategoryBreakdown use only answers with an individual score.
// Each per-metric average uses every answer where that raw metric is present,
// whether or not the answer itself could be scored.
func AggregateSession(scores []AnswerScore) SessionScoreResult {
	var (
		scored    []float64
		faces     = make([]*float64, 0, len(scores))
		voices    = make([]*float64, 0, len(scores))
		nlps      = make([]*float64, 0, len(scores))
		delays    = make([]*float64, 0, len(scores))
		catSums   = make(map[string]float64)
		catCounts = make(map[string]int)
	)

	for _, s := range scores {
		faces = append(faces, s.FaceScore)
		voices = append(voices, s.VoiceScore)
		nlps = append(nlps, s.NlpScore)
		delays = append(delays, s.ReactionDelay)

		if s.IndividualScore == nil {
			continue
		}
		scored = append(scored, *s.IndividualScore)
		catSums[s.Category] += *s.IndividualScore
		catCounts[s.Category]++
	}

	breakdown := make(map[string]CategoryStats, len(catCounts))
	for cat, n := range catCounts {
		breakdown[cat] = CategoryStats{
			Count:        n,
			AverageScore: round2(catSums[cat] / float64(n)),
		}
	}

	answerScores := make([]AnswerScore, len(scores))
	copy(answerScores, scores)

	return SessionScoreResult{
		FinalScore:           round2(mean(scored)),
		TotalQuestions:       len(scores),
		AnsweredQuestions:    len(scored),
		AnswerScores:         answerScores,
		AverageFaceScore:     meanPresent(faces),
		AverageVoiceScore:    meanPresent(voices),
		AverageNlpScore:      meanPresent(nlps),
		AverageReactionDelay: meanPresent(delays),
		CategoryBreakdown:    breakdown,
	}
}
