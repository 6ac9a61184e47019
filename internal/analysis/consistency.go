package analysis

// AnalyzeAcrossAnswers runs the cross-answer check with the default lexicon.
func AnalyzeAcrossAnswers(question string, answers []string) ConsistencyAnalysisResult {
	return defaultTextAnalyzer.AnalyzeAcrossAnswers(question, answers)
}

// AnalyzeAcrossAnswers compares answers given to the same question. Fewer than
// two answers cannot be judged inconsistent and score a full 10.
//
// Each unordered pair where one answer uses positive wording and the other
// negative wording counts as one contradiction and costs 2 points.
func (t *TextAnalyzer) AnalyzeAcrossAnswers(_ string, answers []string) ConsistencyAnalysisResult {
	if len(answers) < 2 {
		return ConsistencyAnalysisResult{
			ConsistencyScore:   10,
			Similarity:         1,
			ContradictionCount: 0,
			Details: ConsistencyDetails{
				AnswerCount:     len(answers),
				AvgLengthDiff:   0,
				SemanticOverlap: 1,
			},
		}
	}

	normalized := make([]string, len(answers))
	tokenSets := make([]map[string]struct{}, len(answers))
	lengths := make([]float64, len(answers))
	for i, ans := range answers {
		normalized[i] = t.lex.norm.normalize(ans)
		tokens := tokenize(normalized[i])
		lengths[i] = float64(len(tokens))
		set := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			set[tok] = struct{}{}
		}
		tokenSets[i] = set
	}

	overlap := setOverlap(tokenSets)
	avgLengthDiff := meanAbsDeviation(lengths)
	contradictions := t.countContradictions(normalized)

	similarity := overlap*0.7 + (1-clip(avgLengthDiff/20, 0, 1))*0.3
	score := clip(similarity*10-float64(contradictions)*2, 0, 10)

	return ConsistencyAnalysisResult{
		ConsistencyScore:   round2(score),
		Similarity:         round2(similarity),
		ContradictionCount: contradictions,
		Details: ConsistencyDetails{
			AnswerCount:     len(answers),
			AvgLengthDiff:   round2(avgLengthDiff),
			SemanticOverlap: round2(overlap),
		},
	}
}

// setOverlap is |tokens in every set| / |tokens in any set|.
func setOverlap(sets []map[string]struct{}) float64 {
	union := make(map[string]struct{})
	for _, s := range sets {
		for tok := range s {
			union[tok] = struct{}{}
		}
	}
	if len(union) == 0 {
		return 0
	}

	common := 0
	for tok := range sets[0] {
		inAll := true
		for _, s := range sets[1:] {
			if _, ok := s[tok]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			common++
		}
	}
	return float64(common) / float64(len(union))
}

func (t *TextAnalyzer) countContradictions(normalized []string) int {
	positive := make([]bool, len(normalized))
	negative := make([]bool, len(normalized))
	for i, a := range normalized {
		positive[i] = countMatches(a, t.lex.positive) > 0
		negative[i] = countMatches(a, t.lex.negative) > 0
	}

	count := 0
	for i := 0; i < len(normalized); i++ {
		for j := i + 1; j < len(normalized); j++ {
			if (positive[i] && negative[j]) || (negative[i] && positive[j]) {
				count++
			}
		}
	}
	return count
}
