// Package pagecheck performs quick best-effort probes of candidate
// competitor URLs: is the page reachable, and what is its title. Used to
// enrich URL validation before a full analysis is started.
package pagecheck

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Result of probing a single URL. Never carries an error; an unreachable or
// unparseable page just reports Reachable=false.
type Result struct {
	URL       string `json:"url"`
	Reachable bool   `json:"reachable"`
	Title     string `json:"title,omitempty"`
}

// Checker probes URLs with a short per-request timeout.
type Checker struct {
	client *http.Client
}

// New creates a Checker.
func New() *Checker {
	return &Checker{
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
			},
		},
	}
}

// Check fetches the URL and extracts the page title. Best-effort and total:
// every failure path yields Reachable=false.
func (c *Checker) Check(ctx context.Context, rawURL string) Result {
	out := Result{URL: rawURL}

	target := rawURL
	if !strings.Contains(target, "://") {
		target = "https://" + target
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return out
	}
	req.Header.Set("User-Agent", "DentistEnvy/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return out
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return out
	}
	out.Reachable = true

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return out
	}
	out.Title = strings.TrimSpace(doc.Find("title").First().Text())
	return out
}
