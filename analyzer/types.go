package analyzer

import "time"

// Competitor selection modes.
const (
	ModeAuto   = "auto"
	ModeManual = "manual"
)

// AnalysisRequest describes one analysis run. Immutable once accepted.
type AnalysisRequest struct {
	PracticeName      string   `json:"practiceName"`
	Address           string   `json:"address"`
	WebsiteURL        string   `json:"websiteUrl"`
	CompetitorMode    string   `json:"competitorMode"`
	ManualCompetitors []string `json:"manualCompetitors,omitempty"`
	City              string   `json:"city,omitempty"`
}

// BacklinkProfile summarizes a domain's link authority.
type BacklinkProfile struct {
	Rank             int `json:"rank"`
	Backlinks        int `json:"backlinks"`
	ReferringDomains int `json:"referringDomains"`
}

// OnPageProfile summarizes a domain's technical audit.
type OnPageProfile struct {
	Score    float64 `json:"score"`
	Title    string  `json:"title"`
	LoadTime int     `json:"loadTime"`
}

// DomainMetrics unifies every data category for one analyzed domain, practice
// or competitor. Domain is the join key across all sources and is unique
// within a report. Rankings maps keyword to 1-based position; a missing key
// means the domain was not found within the queried SERP depth.
type DomainMetrics struct {
	Name      string          `json:"name"`
	Domain    string          `json:"domain"`
	Website   string          `json:"website"`
	Backlinks BacklinkProfile `json:"backlinks"`
	OnPage    OnPageProfile   `json:"onPage"`
	Rankings  map[string]int  `json:"rankings"`
}

// Scores are the four normalized 0-100 report scores.
type Scores struct {
	Overall   int `json:"overall"`
	Keywords  int `json:"keywords"`
	Backlinks int `json:"backlinks"`
	Technical int `json:"technical"`
}

// Recommendation priorities, most severe first.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// Recommendation categories.
const (
	CategoryKeywords  = "keywords"
	CategoryBacklinks = "backlinks"
	CategoryTechnical = "technical"
	CategoryContent   = "content"
)

// Recommendation is one prioritized action item.
type Recommendation struct {
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// KeywordComparison compares practice and competitor positions for one
// tracked keyword. Nil pointers render as JSON null, meaning unranked.
type KeywordComparison struct {
	Keyword            string  `json:"keyword"`
	PracticeRank       *int    `json:"practiceRank"`
	BestCompetitorRank *int    `json:"bestCompetitorRank"`
	BestCompetitor     *string `json:"bestCompetitor"`
	AvgCompetitorRank  *int    `json:"avgCompetitorRank"`
}

// AnalysisReport is the terminal artifact of a successful run.
type AnalysisReport struct {
	ID              string              `json:"id"`
	PracticeName    string              `json:"practiceName"`
	PracticeWebsite string              `json:"practiceWebsite"`
	CreatedAt       time.Time           `json:"createdAt"`
	PracticeData    DomainMetrics       `json:"practiceData"`
	Competitors     []DomainMetrics     `json:"competitors"`
	Scores          Scores              `json:"scores"`
	Recommendations []Recommendation    `json:"recommendations"`
	KeywordData     []KeywordComparison `json:"keywordData"`
}
