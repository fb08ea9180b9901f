package analyzer

import "math"

// Keyword rank buckets: the better the position, the more of the 100 points
// per keyword the practice earns.
func keywordPoints(rank int) int {
	switch {
	case rank <= 3:
		return 100
	case rank <= 10:
		return 70
	case rank <= 20:
		return 40
	case rank <= 50:
		return 20
	default:
		return 10
	}
}

// calculateScores computes the four report scores from reconciled metrics.
// Pure: no I/O, total for well-formed input. All rounding is math.Round
// (half away from zero).
func calculateScores(practice DomainMetrics, competitors []DomainMetrics, keywords []string) Scores {
	// Keyword visibility: earned points over the maximum possible.
	earned := 0
	for _, keyword := range keywords {
		if rank, ok := practice.Rankings[keyword]; ok {
			earned += keywordPoints(rank)
		}
	}
	keywordScore := 0
	if len(keywords) > 0 {
		maxPoints := len(keywords) * 100
		keywordScore = int(math.Round(float64(earned) / float64(maxPoints) * 100))
	}

	// Backlinks: practice domain rank relative to the best rank in the field.
	maxRank := practice.Backlinks.Rank
	for _, c := range competitors {
		if c.Backlinks.Rank > maxRank {
			maxRank = c.Backlinks.Rank
		}
	}
	backlinksScore := 0
	if maxRank > 0 {
		backlinksScore = int(math.Round(float64(practice.Backlinks.Rank) / float64(maxRank) * 100))
	}

	technicalScore := int(math.Round(practice.OnPage.Score))

	overall := int(math.Round(
		float64(keywordScore)*0.4 +
			float64(backlinksScore)*0.3 +
			float64(technicalScore)*0.3))

	return Scores{
		Overall:   overall,
		Keywords:  keywordScore,
		Backlinks: backlinksScore,
		Technical: technicalScore,
	}
}

// buildKeywordComparisons produces one row per tracked keyword, in tracked
// order. Averages cover only competitors that actually rank; nil means no
// one ranked.
func buildKeywordComparisons(keywords []string, practice DomainMetrics, competitors []DomainMetrics) []KeywordComparison {
	comparisons := make([]KeywordComparison, 0, len(keywords))
	for _, keyword := range keywords {
		cmp := KeywordComparison{Keyword: keyword}

		if rank, ok := practice.Rankings[keyword]; ok {
			r := rank
			cmp.PracticeRank = &r
		}

		totalRank := 0
		rankedCount := 0
		for i := range competitors {
			rank, ok := competitors[i].Rankings[keyword]
			if !ok {
				continue
			}
			totalRank += rank
			rankedCount++
			if cmp.BestCompetitorRank == nil || rank < *cmp.BestCompetitorRank {
				r := rank
				name := competitors[i].Name
				cmp.BestCompetitorRank = &r
				cmp.BestCompetitor = &name
			}
		}
		if rankedCount > 0 {
			avg := int(math.Round(float64(totalRank) / float64(rankedCount)))
			cmp.AvgCompetitorRank = &avg
		}

		comparisons = append(comparisons, cmp)
	}
	return comparisons
}
