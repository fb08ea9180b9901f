package analyzer

import (
	"strings"
	"testing"
)

func findRecommendation(recs []Recommendation, title string) (Recommendation, bool) {
	for _, r := range recs {
		if r.Title == title {
			return r, true
		}
	}
	return Recommendation{}, false
}

func TestGenerateRecommendations(t *testing.T) {
	t.Run("DomainAuthorityRule", func(t *testing.T) {
		practice := DomainMetrics{
			Backlinks: BacklinkProfile{Rank: 10, ReferringDomains: 500},
			OnPage:    OnPageProfile{Score: 85},
			Rankings:  map[string]int{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5},
		}
		competitors := []DomainMetrics{
			{Backlinks: BacklinkProfile{Rank: 40, ReferringDomains: 100}},
			{Backlinks: BacklinkProfile{Rank: 60, ReferringDomains: 100}},
		}

		recs := generateRecommendations(practice, competitors)
		rec, ok := findRecommendation(recs, "Build Domain Authority")
		if !ok {
			t.Fatal("expected Build Domain Authority recommendation")
		}
		if rec.Priority != PriorityHigh || rec.Category != CategoryBacklinks {
			t.Errorf("got priority %q category %q", rec.Priority, rec.Category)
		}
		// Both the practice value and the competitor average appear.
		if !strings.Contains(rec.Description, "(10)") || !strings.Contains(rec.Description, "(50)") {
			t.Errorf("description missing interpolated values: %s", rec.Description)
		}
	})

	t.Run("TechnicalAndSpeedRules", func(t *testing.T) {
		practice := DomainMetrics{
			Backlinks: BacklinkProfile{Rank: 50, ReferringDomains: 500},
			OnPage:    OnPageProfile{Score: 55.4, LoadTime: 4500},
			Rankings:  map[string]int{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5},
		}
		competitors := []DomainMetrics{
			{Backlinks: BacklinkProfile{Rank: 50, ReferringDomains: 400}},
		}

		recs := generateRecommendations(practice, competitors)

		tech, ok := findRecommendation(recs, "Improve Technical SEO")
		if !ok {
			t.Fatal("expected Improve Technical SEO recommendation")
		}
		if tech.Priority != PriorityCritical {
			t.Errorf("technical priority = %q, want critical", tech.Priority)
		}
		if !strings.Contains(tech.Description, "55/100") {
			t.Errorf("technical description missing rounded score: %s", tech.Description)
		}

		speed, ok := findRecommendation(recs, "Improve Page Speed")
		if !ok {
			t.Fatal("expected Improve Page Speed recommendation")
		}
		if !strings.Contains(speed.Description, "4.5 seconds") {
			t.Errorf("speed description missing seconds: %s", speed.Description)
		}
	})

	t.Run("KeywordRules", func(t *testing.T) {
		base := DomainMetrics{
			Backlinks: BacklinkProfile{Rank: 50, ReferringDomains: 500},
			OnPage:    OnPageProfile{Score: 85},
		}
		competitors := []DomainMetrics{
			{Backlinks: BacklinkProfile{Rank: 50, ReferringDomains: 400}},
		}

		none := base
		none.Rankings = map[string]int{"a": 15, "b": 18}
		recs := generateRecommendations(none, competitors)
		if rec, ok := findRecommendation(recs, "No Keywords in Top 10"); !ok {
			t.Error("expected No Keywords in Top 10")
		} else if rec.Priority != PriorityCritical || rec.Category != CategoryKeywords {
			t.Errorf("got priority %q category %q", rec.Priority, rec.Category)
		}

		few := base
		few.Rankings = map[string]int{"a": 3, "b": 8, "c": 15}
		recs = generateRecommendations(few, competitors)
		rec, ok := findRecommendation(recs, "Improve Keyword Rankings")
		if !ok {
			t.Fatal("expected Improve Keyword Rankings")
		}
		if !strings.Contains(rec.Description, "You have 2 keywords") {
			t.Errorf("count not interpolated: %s", rec.Description)
		}
		if _, ok := findRecommendation(recs, "No Keywords in Top 10"); ok {
			t.Error("rules 3a and 3b must be mutually exclusive")
		}

		plenty := base
		plenty.Rankings = map[string]int{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5}
		recs = generateRecommendations(plenty, competitors)
		if _, ok := findRecommendation(recs, "Improve Keyword Rankings"); ok {
			t.Error("no keyword recommendation expected with 5 top-10 rankings")
		}
	})

	t.Run("PriorityOrdering", func(t *testing.T) {
		// Trip the critical technical rule, the high speed rule and the
		// medium referring-domains rule at once.
		practice := DomainMetrics{
			Backlinks: BacklinkProfile{Rank: 100, ReferringDomains: 10},
			OnPage:    OnPageProfile{Score: 50, LoadTime: 5000},
			Rankings:  map[string]int{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5},
		}
		competitors := []DomainMetrics{
			{Backlinks: BacklinkProfile{Rank: 100, ReferringDomains: 400}},
		}

		recs := generateRecommendations(practice, competitors)
		if len(recs) < 3 {
			t.Fatalf("expected at least 3 recommendations, got %d", len(recs))
		}
		lastRank := -1
		for _, rec := range recs {
			rank := priorityOrder[rec.Priority]
			if rank < lastRank {
				t.Fatalf("recommendations out of priority order: %+v", recs)
			}
			lastRank = rank
		}
		if recs[0].Priority != PriorityCritical {
			t.Errorf("first recommendation priority = %q, want critical", recs[0].Priority)
		}
	})

	t.Run("NoCompetitors", func(t *testing.T) {
		practice := DomainMetrics{
			Backlinks: BacklinkProfile{Rank: 10, ReferringDomains: 5},
			OnPage:    OnPageProfile{Score: 90},
			Rankings:  map[string]int{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5},
		}
		recs := generateRecommendations(practice, nil)
		if _, ok := findRecommendation(recs, "Build Domain Authority"); ok {
			t.Error("authority rule must not fire without competitors")
		}
		if _, ok := findRecommendation(recs, "Increase Referring Domains"); ok {
			t.Error("referring-domains rule must not fire without competitors")
		}
	})
}
