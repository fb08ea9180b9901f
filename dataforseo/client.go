// Package dataforseo wraps the DataForSEO v3 batch APIs used for keyword
// rankings, backlink summaries and on-page audits.
package dataforseo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.dataforseo.com/v3"

	// taskOK is DataForSEO's per-task success status code.
	taskOK = 20000

	// locationUS is the Google location code for the United States.
	locationUS = 2840

	// serpDepth is how deep each SERP query looks. A domain missing from the
	// results means "not ranked within this depth", not "ranked low".
	serpDepth = 20
)

// ErrNoCredentials is returned by New when login or password is unset.
var ErrNoCredentials = errors.New("DataForSEO credentials not configured")

// DataSourceError reports a whole-call provider failure (network, auth, bad
// payload). Individual failed tasks inside a batch never produce one; those
// degrade to zero values instead.
type DataSourceError struct {
	Endpoint string
	Err      error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("dataforseo %s: %v", e.Endpoint, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// RankingItem is one organic SERP entry. Position is the absolute rank.
type RankingItem struct {
	Position int    `json:"position"`
	Domain   string `json:"domain"`
	URL      string `json:"url"`
	Title    string `json:"title"`
}

// SerpResult holds the organic results for a single keyword. The list covers
// whichever domains the provider found, not only the ones we care about.
type SerpResult struct {
	Keyword  string        `json:"keyword"`
	Rankings []RankingItem `json:"rankings"`
}

// BacklinksResult is a domain's backlink summary.
type BacklinksResult struct {
	Domain           string `json:"domain"`
	Rank             int    `json:"rank"`
	Backlinks        int    `json:"backlinks"`
	ReferringDomains int    `json:"referringDomains"`
	ReferringIPs     int    `json:"referringIps"`
}

// OnPageResult is an instant on-page audit of a single URL.
type OnPageResult struct {
	URL         string          `json:"url"`
	StatusCode  int             `json:"statusCode"`
	Score       float64         `json:"onpageScore"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Checks      map[string]bool `json:"checks"`
	LoadTime    int             `json:"loadTime"`
	ContentSize int             `json:"contentSize"`
}

// Client talks to the DataForSEO API with HTTP basic auth.
type Client struct {
	login    string
	password string
	baseURL  string
	client   *http.Client
	log      *zap.Logger
}

// New creates a Client. Both credentials are mandatory.
func New(login, password string, log *zap.Logger) (*Client, error) {
	if login == "" || password == "" {
		return nil, ErrNoCredentials
	}
	if log == nil {
		log = zap.NewNop()
	}
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		login:    login,
		password: password,
		baseURL:  defaultBaseURL,
		client: &http.Client{
			Timeout:   60 * time.Second,
			Transport: transport,
		},
		log: log,
	}, nil
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

type taskEnvelope struct {
	StatusCode    int               `json:"status_code"`
	StatusMessage string            `json:"status_message"`
	Result        []json.RawMessage `json:"result"`
}

type apiResponse struct {
	Tasks []taskEnvelope `json:"tasks"`
}

func (c *Client) post(ctx context.Context, path string, tasks any) (*apiResponse, error) {
	body, err := json.Marshal(tasks)
	if err != nil {
		return nil, &DataSourceError{Endpoint: path, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, &DataSourceError{Endpoint: path, Err: err}
	}
	req.SetBasicAuth(c.login, c.password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &DataSourceError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &DataSourceError{Endpoint: path, Err: fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)}
	}

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &DataSourceError{Endpoint: path, Err: err}
	}
	return &out, nil
}

type serpTask struct {
	Keyword      string `json:"keyword"`
	LocationCode int    `json:"location_code"`
	LanguageCode string `json:"language_code"`
	Depth        int    `json:"depth"`
}

type serpResultBlock struct {
	Items []struct {
		Type         string `json:"type"`
		RankAbsolute int    `json:"rank_absolute"`
		Domain       string `json:"domain"`
		URL          string `json:"url"`
		Title        string `json:"title"`
	} `json:"items"`
}

// KeywordRankings fetches the top organic results for one keyword. A task
// rejected by the provider degrades to an empty ranking list; only transport
// level failures return an error.
func (c *Client) KeywordRankings(ctx context.Context, keyword string) (SerpResult, error) {
	tasks := []serpTask{{
		Keyword:      keyword,
		LocationCode: locationUS,
		LanguageCode: "en",
		Depth:        serpDepth,
	}}

	resp, err := c.post(ctx, "/serp/google/organic/live/advanced", tasks)
	if err != nil {
		return SerpResult{}, err
	}

	out := SerpResult{Keyword: keyword, Rankings: []RankingItem{}}
	if len(resp.Tasks) == 0 {
		c.log.Warn("SERP response contained no tasks", zap.String("keyword", keyword))
		return out, nil
	}

	task := resp.Tasks[0]
	if task.StatusCode != taskOK {
		c.log.Warn("SERP task failed",
			zap.String("keyword", keyword),
			zap.Int("status_code", task.StatusCode),
			zap.String("status_message", task.StatusMessage))
		return out, nil
	}

	var block serpResultBlock
	if len(task.Result) > 0 {
		if err := json.Unmarshal(task.Result[0], &block); err != nil {
			c.log.Warn("SERP result unreadable", zap.String("keyword", keyword), zap.Error(err))
			return out, nil
		}
	}
	for _, item := range block.Items {
		if item.Type != "organic" {
			continue
		}
		out.Rankings = append(out.Rankings, RankingItem{
			Position: item.RankAbsolute,
			Domain:   item.Domain,
			URL:      item.URL,
			Title:    item.Title,
		})
	}
	return out, nil
}

type backlinksTask struct {
	Target string `json:"target"`
}

type backlinksResultBlock struct {
	Target           string `json:"target"`
	Rank             int    `json:"rank"`
	Backlinks        int    `json:"backlinks"`
	ReferringDomains int    `json:"referring_domains"`
	ReferringIPs     int    `json:"referring_ips"`
}

// BacklinksSummary fetches backlink summaries for the given domains in one
// batch call. The returned slice is positional: result i belongs to domain i.
// Failed tasks within the batch degrade to zero values.
func (c *Client) BacklinksSummary(ctx context.Context, targets []string) ([]BacklinksResult, error) {
	tasks := make([]backlinksTask, len(targets))
	for i, d := range targets {
		tasks[i] = backlinksTask{Target: d}
	}

	resp, err := c.post(ctx, "/backlinks/summary/live", tasks)
	if err != nil {
		return nil, err
	}

	results := make([]BacklinksResult, len(targets))
	for i, domain := range targets {
		results[i] = BacklinksResult{Domain: domain}
		if i >= len(resp.Tasks) {
			c.log.Warn("backlinks response missing task", zap.String("domain", domain))
			continue
		}
		task := resp.Tasks[i]
		if task.StatusCode != taskOK {
			c.log.Warn("backlinks task failed",
				zap.String("domain", domain),
				zap.Int("status_code", task.StatusCode),
				zap.String("status_message", task.StatusMessage))
			continue
		}
		if len(task.Result) == 0 {
			continue
		}
		var block backlinksResultBlock
		if err := json.Unmarshal(task.Result[0], &block); err != nil {
			c.log.Warn("backlinks result unreadable", zap.String("domain", domain), zap.Error(err))
			continue
		}
		results[i] = BacklinksResult{
			Domain:           block.Target,
			Rank:             block.Rank,
			Backlinks:        block.Backlinks,
			ReferringDomains: block.ReferringDomains,
			ReferringIPs:     block.ReferringIPs,
		}
		if results[i].Domain == "" {
			results[i].Domain = domain
		}
	}
	return results, nil
}

type onPageTask struct {
	URL              string `json:"url"`
	EnableJavascript bool   `json:"enable_javascript"`
}

type onPageResultBlock struct {
	Items []struct {
		URL        string  `json:"url"`
		StatusCode int     `json:"status_code"`
		Score      float64 `json:"onpage_score"`
		Meta       struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"meta"`
		Checks     map[string]bool `json:"checks"`
		PageTiming struct {
			TimeToInteractive int `json:"time_to_interactive"`
		} `json:"page_timing"`
		Size int `json:"size"`
	} `json:"items"`
}

// OnPageAnalysis audits the given URLs in one batch call. Positional, with
// the same per-task degradation policy as BacklinksSummary.
func (c *Client) OnPageAnalysis(ctx context.Context, urls []string) ([]OnPageResult, error) {
	tasks := make([]onPageTask, len(urls))
	for i, u := range urls {
		tasks[i] = onPageTask{URL: u, EnableJavascript: true}
	}

	resp, err := c.post(ctx, "/on_page/instant_pages", tasks)
	if err != nil {
		return nil, err
	}

	results := make([]OnPageResult, len(urls))
	for i, u := range urls {
		results[i] = OnPageResult{URL: u, Checks: map[string]bool{}}
		if i >= len(resp.Tasks) {
			c.log.Warn("on-page response missing task", zap.String("url", u))
			continue
		}
		task := resp.Tasks[i]
		if task.StatusCode != taskOK {
			c.log.Warn("on-page task failed",
				zap.String("url", u),
				zap.Int("status_code", task.StatusCode),
				zap.String("status_message", task.StatusMessage))
			continue
		}
		if len(task.Result) == 0 {
			continue
		}
		var block onPageResultBlock
		if err := json.Unmarshal(task.Result[0], &block); err != nil {
			c.log.Warn("on-page result unreadable", zap.String("url", u), zap.Error(err))
			continue
		}
		if len(block.Items) == 0 {
			continue
		}
		item := block.Items[0]
		results[i] = OnPageResult{
			URL:         item.URL,
			StatusCode:  item.StatusCode,
			Score:       item.Score,
			Title:       item.Meta.Title,
			Description: item.Meta.Description,
			Checks:      item.Checks,
			LoadTime:    item.PageTiming.TimeToInteractive,
			ContentSize: item.Size,
		}
		if results[i].URL == "" {
			results[i].URL = u
		}
		if results[i].Checks == nil {
			results[i].Checks = map[string]bool{}
		}
	}
	return results, nil
}
