package analyzer

import (
	"fmt"
	"math"
	"sort"
)

var priorityOrder = map[string]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
}

// generateRecommendations applies the fixed rule set against the practice's
// metrics and competitor averages. Every applicable rule fires; the result is
// sorted most severe first, stable within a priority.
func generateRecommendations(practice DomainMetrics, competitors []DomainMetrics) []Recommendation {
	recommendations := []Recommendation{}

	// Domain authority vs the competitor average.
	avgRank := 0.0
	avgReferring := 0.0
	if len(competitors) > 0 {
		for _, c := range competitors {
			avgRank += float64(c.Backlinks.Rank)
			avgReferring += float64(c.Backlinks.ReferringDomains)
		}
		avgRank /= float64(len(competitors))
		avgReferring /= float64(len(competitors))
	}

	if float64(practice.Backlinks.Rank) < avgRank*0.5 {
		recommendations = append(recommendations, Recommendation{
			Priority: PriorityHigh,
			Category: CategoryBacklinks,
			Title:    "Build Domain Authority",
			Description: fmt.Sprintf(
				"Your domain rank (%d) is below the competitor average (%d). Focus on acquiring quality backlinks from dental directories, local business listings, and community organizations.",
				practice.Backlinks.Rank, int(math.Round(avgRank))),
		})
	}

	if practice.OnPage.Score < 70 {
		recommendations = append(recommendations, Recommendation{
			Priority: PriorityCritical,
			Category: CategoryTechnical,
			Title:    "Improve Technical SEO",
			Description: fmt.Sprintf(
				"Your on-page SEO score is %d/100. Address technical issues like page speed, meta tags, and mobile optimization.",
				int(math.Round(practice.OnPage.Score))),
		})
	}

	top10 := 0
	for _, rank := range practice.Rankings {
		if rank <= 10 {
			top10++
		}
	}
	if top10 == 0 {
		recommendations = append(recommendations, Recommendation{
			Priority: PriorityCritical,
			Category: CategoryKeywords,
			Title:    "No Keywords in Top 10",
			Description: "You have no dental keywords ranking in the top 10 search results. " +
				"Focus on optimizing your homepage and service pages for key terms like " +
				`"dentist [your city]" and "family dentist [your city]".`,
		})
	} else if top10 < 5 {
		recommendations = append(recommendations, Recommendation{
			Priority: PriorityHigh,
			Category: CategoryKeywords,
			Title:    "Improve Keyword Rankings",
			Description: fmt.Sprintf(
				"You have %d keywords in the top 10. Target additional dental service keywords with dedicated landing pages.",
				top10),
		})
	}

	if practice.OnPage.LoadTime > 3000 {
		recommendations = append(recommendations, Recommendation{
			Priority: PriorityHigh,
			Category: CategoryTechnical,
			Title:    "Improve Page Speed",
			Description: fmt.Sprintf(
				"Your page loads in %.1f seconds. Aim for under 3 seconds by optimizing images, enabling caching, and minimizing scripts.",
				float64(practice.OnPage.LoadTime)/1000),
		})
	}

	if float64(practice.Backlinks.ReferringDomains) < avgReferring*0.5 {
		recommendations = append(recommendations, Recommendation{
			Priority: PriorityMedium,
			Category: CategoryBacklinks,
			Title:    "Increase Referring Domains",
			Description: fmt.Sprintf(
				"You have %d referring domains vs competitor average of %d. Pursue link building through local partnerships and dental industry directories.",
				practice.Backlinks.ReferringDomains, int(math.Round(avgReferring))),
		})
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return priorityOrder[recommendations[i].Priority] < priorityOrder[recommendations[j].Priority]
	})

	return recommendations
}
