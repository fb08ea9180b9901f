package dataforseo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New("login", "password", nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	c.SetBaseURL(srv.URL)
	return c, srv
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New("", "password", nil); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("missing login: got %v, want ErrNoCredentials", err)
	}
	if _, err := New("login", "", nil); !errors.Is(err, ErrNoCredentials) {
		t.Errorf("missing password: got %v, want ErrNoCredentials", err)
	}
}

func TestKeywordRankings(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/serp/google/organic/live/advanced" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "login" || pass != "password" {
			t.Error("basic auth not forwarded")
		}

		var tasks []map[string]any
		if err := json.NewDecoder(r.Body).Decode(&tasks); err != nil {
			t.Fatalf("decoding task payload: %v", err)
		}
		if len(tasks) != 1 || tasks[0]["keyword"] != "dentist Austin" {
			t.Errorf("unexpected task payload: %+v", tasks)
		}
		if tasks[0]["location_code"] != float64(2840) || tasks[0]["depth"] != float64(20) {
			t.Errorf("unexpected location/depth: %+v", tasks[0])
		}

		json.NewEncoder(w).Encode(map[string]any{
			"tasks": []map[string]any{{
				"status_code": 20000,
				"result": []map[string]any{{
					"items": []map[string]any{
						{"type": "paid", "rank_absolute": 1, "domain": "ads.example.com"},
						{"type": "organic", "rank_absolute": 2, "domain": "brightsmiles.com", "url": "https://brightsmiles.com", "title": "Bright Smiles"},
						{"type": "local_pack", "rank_absolute": 3, "domain": "maps.google.com"},
						{"type": "organic", "rank_absolute": 4, "domain": "competitor.com"},
					},
				}},
			}},
		})
	})

	res, err := c.KeywordRankings(context.Background(), "dentist Austin")
	if err != nil {
		t.Fatalf("KeywordRankings failed: %v", err)
	}
	if res.Keyword != "dentist Austin" {
		t.Errorf("keyword = %q", res.Keyword)
	}
	// Only organic items survive the filter.
	if len(res.Rankings) != 2 {
		t.Fatalf("expected 2 organic rankings, got %d: %+v", len(res.Rankings), res.Rankings)
	}
	if res.Rankings[0].Domain != "brightsmiles.com" || res.Rankings[0].Position != 2 {
		t.Errorf("first ranking = %+v", res.Rankings[0])
	}
}

func TestKeywordRankingsTaskFailureDegrades(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"tasks": []map[string]any{{
				"status_code":    40501,
				"status_message": "Invalid Field",
			}},
		})
	})

	res, err := c.KeywordRankings(context.Background(), "dentist Austin")
	if err != nil {
		t.Fatalf("task-level failure must not surface an error, got %v", err)
	}
	if len(res.Rankings) != 0 {
		t.Errorf("expected empty rankings, got %+v", res.Rankings)
	}
}

func TestKeywordRankingsTransportFailure(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv.Close()

	_, err := c.KeywordRankings(context.Background(), "dentist Austin")
	if err == nil {
		t.Fatal("expected transport failure")
	}
	var dsErr *DataSourceError
	if !errors.As(err, &dsErr) {
		t.Errorf("error %v is not a DataSourceError", err)
	}
}

func TestKeywordRankingsHTTPError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.KeywordRankings(context.Background(), "dentist Austin")
	var dsErr *DataSourceError
	if !errors.As(err, &dsErr) {
		t.Fatalf("error %v is not a DataSourceError", err)
	}
}

func TestBacklinksSummary(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/backlinks/summary/live" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"tasks": []map[string]any{
				{
					"status_code": 20000,
					"result": []map[string]any{{
						"target": "brightsmiles.com", "rank": 25,
						"backlinks": 1500, "referring_domains": 80, "referring_ips": 60,
					}},
				},
				{
					// One failed task in the batch degrades, not aborts.
					"status_code":    40400,
					"status_message": "Not Found",
				},
				{
					"status_code": 20000,
					"result": []map[string]any{{
						"target": "competitor-c.com", "rank": 55,
						"backlinks": 9000, "referring_domains": 400, "referring_ips": 300,
					}},
				},
			},
		})
	})

	results, err := c.BacklinksSummary(context.Background(), []string{"brightsmiles.com", "competitor-b.com", "competitor-c.com"})
	if err != nil {
		t.Fatalf("BacklinksSummary failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 positional results, got %d", len(results))
	}
	if results[0].Rank != 25 || results[0].ReferringDomains != 80 {
		t.Errorf("first result = %+v", results[0])
	}
	if results[1].Domain != "competitor-b.com" || results[1].Rank != 0 || results[1].Backlinks != 0 {
		t.Errorf("failed task must degrade to zero values, got %+v", results[1])
	}
	if results[2].Rank != 55 {
		t.Errorf("third result = %+v", results[2])
	}
}

func TestBacklinksSummaryShortResponse(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"tasks": []map[string]any{{
				"status_code": 20000,
				"result": []map[string]any{{
					"target": "brightsmiles.com", "rank": 25,
				}},
			}},
		})
	})

	results, err := c.BacklinksSummary(context.Background(), []string{"brightsmiles.com", "competitor-b.com"})
	if err != nil {
		t.Fatalf("BacklinksSummary failed: %v", err)
	}
	if results[1].Domain != "competitor-b.com" || results[1].Rank != 0 {
		t.Errorf("missing task must degrade to zero values, got %+v", results[1])
	}
}

func TestOnPageAnalysis(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/on_page/instant_pages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"tasks": []map[string]any{
				{
					"status_code": 20000,
					"result": []map[string]any{{
						"items": []map[string]any{{
							"url":          "https://brightsmiles.com",
							"status_code":  200,
							"onpage_score": 82.5,
							"meta": map[string]any{
								"title":       "Bright Smiles Dental",
								"description": "Family dentistry in Austin",
							},
							"checks":      map[string]bool{"canonical": true},
							"page_timing": map[string]any{"time_to_interactive": 1350},
							"size":        45000,
						}},
					}},
				},
				{
					"status_code":    40000,
					"status_message": "Fetch Failed",
				},
			},
		})
	})

	results, err := c.OnPageAnalysis(context.Background(), []string{"https://brightsmiles.com", "https://competitor-b.com"})
	if err != nil {
		t.Fatalf("OnPageAnalysis failed: %v", err)
	}

	first := results[0]
	if first.Score != 82.5 || first.Title != "Bright Smiles Dental" {
		t.Errorf("first result = %+v", first)
	}
	if first.LoadTime != 1350 || first.ContentSize != 45000 {
		t.Errorf("timing/size not mapped: %+v", first)
	}
	if !first.Checks["canonical"] {
		t.Errorf("checks not mapped: %+v", first.Checks)
	}

	second := results[1]
	if second.URL != "https://competitor-b.com" || second.Score != 0 {
		t.Errorf("failed task must degrade to zero values, got %+v", second)
	}
	if second.Checks == nil {
		t.Error("degraded result must keep a non-nil checks map")
	}
}
