// Package analyzer implements the competitive SEO analysis engine: it
// resolves competitors, fans out to the ranking and places providers, merges
// the results by domain key and produces a scored report.
package analyzer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dentistenvy/backend/dataforseo"
	"github.com/dentistenvy/backend/domains"
	"github.com/dentistenvy/backend/places"
)

// keywordConcurrency bounds parallel SERP calls during the keyword phase.
const keywordConcurrency = 5

// RankSource supplies search-ranking, backlink and on-page data.
type RankSource interface {
	BacklinksSummary(ctx context.Context, targets []string) ([]dataforseo.BacklinksResult, error)
	OnPageAnalysis(ctx context.Context, urls []string) ([]dataforseo.OnPageResult, error)
	KeywordRankings(ctx context.Context, keyword string) (dataforseo.SerpResult, error)
}

// PlacesSource supplies geocoding and competitor discovery.
type PlacesSource interface {
	Geocode(ctx context.Context, address string) (places.GeoPoint, error)
	FindDentalCompetitors(ctx context.Context, lat, lng float64) ([]places.Competitor, error)
}

// ProgressFunc observes analysis progress. It is advisory only: the engine
// calls it at fixed checkpoints and never waits on it or lets it alter
// control flow. A nil callback is fine.
type ProgressFunc func(message string, percent int)

// Engine orchestrates a full analysis run.
type Engine struct {
	rank   RankSource
	places PlacesSource
	log    *zap.Logger
}

// New creates an Engine.
func New(rank RankSource, placesSource PlacesSource, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{rank: rank, places: placesSource, log: log}
}

// competitorRef pairs a normalized domain with its display name, in
// resolution order.
type competitorRef struct {
	domain string
	name   string
}

// Analyze runs the full pipeline and returns the report. Any error aborts
// the run; no partial report is produced.
func (e *Engine) Analyze(ctx context.Context, req AnalysisRequest, progress ProgressFunc) (*AnalysisReport, error) {
	report := func(message string, percent int) {
		if progress != nil {
			progress(message, percent)
		}
		e.log.Info("analysis progress", zap.Int("percent", percent), zap.String("step", message))
	}

	practiceDomain := domains.Normalize(req.WebsiteURL)

	report("Finding competitors...", 10)
	competitors, err := e.resolveCompetitors(ctx, req)
	if err != nil {
		return nil, err
	}

	city := req.City
	if city == "" {
		city = ExtractCity(req.Address)
	}
	keywords := TrackedKeywords(city)

	allDomains := make([]string, 0, len(competitors)+1)
	allDomains = append(allDomains, practiceDomain)
	for _, c := range competitors {
		allDomains = append(allDomains, c.domain)
	}

	report("Analyzing domain authority...", 25)
	backlinks, err := e.rank.BacklinksSummary(ctx, allDomains)
	if err != nil {
		return nil, err
	}

	report("Analyzing technical SEO...", 40)
	allURLs := make([]string, 0, len(allDomains))
	allURLs = append(allURLs, req.WebsiteURL)
	for _, c := range competitors {
		allURLs = append(allURLs, "https://"+c.domain)
	}
	onPage, err := e.rank.OnPageAnalysis(ctx, allURLs)
	if err != nil {
		return nil, err
	}

	report("Checking keyword rankings...", 60)
	serpResults, err := e.fetchKeywordRankings(ctx, keywords)
	if err != nil {
		return nil, err
	}

	report("Processing rankings...", 80)
	practiceRankings, competitorRankings := reconcileRankings(serpResults, practiceDomain, competitors)

	report("Generating report...", 90)
	practiceData := DomainMetrics{
		Name:    req.PracticeName,
		Domain:  practiceDomain,
		Website: req.WebsiteURL,
		Backlinks: BacklinkProfile{
			Rank:             backlinks[0].Rank,
			Backlinks:        backlinks[0].Backlinks,
			ReferringDomains: backlinks[0].ReferringDomains,
		},
		OnPage: OnPageProfile{
			Score:    onPage[0].Score,
			Title:    onPage[0].Title,
			LoadTime: onPage[0].LoadTime,
		},
		Rankings: practiceRankings,
	}

	competitorData := make([]DomainMetrics, len(competitors))
	for i, c := range competitors {
		bl := backlinks[i+1]
		op := onPage[i+1]
		competitorData[i] = DomainMetrics{
			Name:    c.name,
			Domain:  c.domain,
			Website: "https://" + c.domain,
			Backlinks: BacklinkProfile{
				Rank:             bl.Rank,
				Backlinks:        bl.Backlinks,
				ReferringDomains: bl.ReferringDomains,
			},
			OnPage: OnPageProfile{
				Score:    op.Score,
				Title:    op.Title,
				LoadTime: op.LoadTime,
			},
			Rankings: competitorRankings[c.domain],
		}
	}

	scores := calculateScores(practiceData, competitorData, keywords)
	recommendations := generateRecommendations(practiceData, competitorData)
	comparisons := buildKeywordComparisons(keywords, practiceData, competitorData)

	report("Analysis complete!", 100)

	return &AnalysisReport{
		ID:              "analysis_" + uuid.NewString(),
		PracticeName:    req.PracticeName,
		PracticeWebsite: req.WebsiteURL,
		CreatedAt:       time.Now().UTC(),
		PracticeData:    practiceData,
		Competitors:     competitorData,
		Scores:          scores,
		Recommendations: recommendations,
		KeywordData:     comparisons,
	}, nil
}

// resolveCompetitors produces the ordered competitor list. Manual mode takes
// the caller's URLs as-is (the domain doubles as display name); auto mode
// geocodes the address and discovers nearby practices.
func (e *Engine) resolveCompetitors(ctx context.Context, req AnalysisRequest) ([]competitorRef, error) {
	if req.CompetitorMode == ModeManual && len(req.ManualCompetitors) > 0 {
		refs := make([]competitorRef, 0, len(req.ManualCompetitors))
		for _, raw := range req.ManualCompetitors {
			d := domains.Normalize(raw)
			refs = append(refs, competitorRef{domain: d, name: d})
		}
		return refs, nil
	}

	geo, err := e.places.Geocode(ctx, req.Address)
	if err != nil {
		return nil, err
	}
	discovered, err := e.places.FindDentalCompetitors(ctx, geo.Lat, geo.Lng)
	if err != nil {
		return nil, err
	}

	refs := make([]competitorRef, 0, len(discovered))
	for _, c := range discovered {
		if c.Website == "" {
			continue
		}
		refs = append(refs, competitorRef{domain: domains.Normalize(c.Website), name: c.Name})
	}
	return refs, nil
}

// fetchKeywordRankings issues one SERP call per keyword, bounded by a
// semaphore, and waits for all of them. Results keep keyword order. Any
// whole-call provider failure aborts the phase.
func (e *Engine) fetchKeywordRankings(ctx context.Context, keywords []string) ([]dataforseo.SerpResult, error) {
	results := make([]dataforseo.SerpResult, len(keywords))

	var wg sync.WaitGroup
	sem := make(chan struct{}, keywordConcurrency)
	var mu sync.Mutex
	var firstErr error

	for i, keyword := range keywords {
		wg.Add(1)
		go func(i int, keyword string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := e.rank.KeywordRankings(ctx, keyword)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("keyword %q: %w", keyword, err)
				}
				mu.Unlock()
				return
			}
			results[i] = res
		}(i, keyword)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// reconcileRankings turns the flat per-keyword SERP lists into per-domain
// keyword->position maps. Entries are matched by normalized domain; anything
// that is neither the practice nor a known competitor is discarded. A domain
// absent from a keyword's results gets no entry for that keyword.
func reconcileRankings(serpResults []dataforseo.SerpResult, practiceDomain string, competitors []competitorRef) (map[string]int, map[string]map[string]int) {
	practiceRankings := make(map[string]int)
	competitorRankings := make(map[string]map[string]int, len(competitors))
	for _, c := range competitors {
		if _, ok := competitorRankings[c.domain]; !ok {
			competitorRankings[c.domain] = make(map[string]int)
		}
	}

	for _, result := range serpResults {
		for _, ranking := range result.Rankings {
			d := domains.Normalize(ranking.Domain)

			if d == practiceDomain {
				if _, seen := practiceRankings[result.Keyword]; !seen {
					practiceRankings[result.Keyword] = ranking.Position
				}
				continue
			}
			if m, ok := competitorRankings[d]; ok {
				if _, seen := m[result.Keyword]; !seen {
					m[result.Keyword] = ranking.Position
				}
			}
		}
	}

	return practiceRankings, competitorRankings
}
