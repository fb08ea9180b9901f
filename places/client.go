// Package places wraps the Google Geocoding and Places APIs used for
// competitor auto-discovery.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://maps.googleapis.com"

	metersPerMile = 1609.34

	// maxPages caps nearby-search pagination: 3 pages of 20 = 60 raw candidates.
	maxPages = 3

	// pageTokenDelay is mandated by Google: a next_page_token is not valid
	// until roughly two seconds after it is issued.
	pageTokenDelay = 2 * time.Second

	detailsConcurrency = 10
)

// excludedChains are large dental chains filtered out of discovery; a solo
// practice is not competing with them on local SEO terms.
var excludedChains = []string{"aspen dental", "heartland dental", "pacific dental"}

// ErrNoAPIKey means the Places API key is not configured. Auto-discovery
// cannot run without it; manual competitor mode is unaffected.
var ErrNoAPIKey = errors.New("Google Places API key not configured")

// GeocodingError reports a failed address lookup.
type GeocodingError struct {
	Status string
}

func (e *GeocodingError) Error() string {
	return fmt.Sprintf("geocoding failed: %s", e.Status)
}

// PlacesError reports a fatal Places API failure (nearby search or a details
// lookup the caller chose not to swallow).
type PlacesError struct {
	Op     string
	Status string
}

func (e *PlacesError) Error() string {
	return fmt.Sprintf("places %s error: %s", e.Op, e.Status)
}

// GeoPoint is a geocoded address.
type GeoPoint struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formattedAddress"`
}

// Competitor is a discovered dental practice near the target address.
type Competitor struct {
	PlaceID     string  `json:"placeId"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Website     string  `json:"website,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	ReviewCount int     `json:"reviewCount"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
}

// PlaceDetails is the subset of place details we request.
type PlaceDetails struct {
	Website string `json:"website,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// Client calls the Google Maps web APIs.
type Client struct {
	apiKey      string
	baseURL     string
	client      *http.Client
	log         *zap.Logger
	radiusMiles float64
	limit       int
	pageDelay   time.Duration
}

// New creates a Client. An empty key is tolerated here (the server can still
// serve manual-mode analyses); calls fail with ErrNoAPIKey instead.
func New(apiKey string, radiusMiles float64, limit int, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if apiKey == "" {
		log.Warn("Google Places API key not configured - competitor auto-discovery disabled")
	}
	if radiusMiles <= 0 {
		radiusMiles = 15
	}
	if limit <= 0 {
		limit = 10
	}
	return &Client{
		apiKey:      apiKey,
		baseURL:     defaultBaseURL,
		client:      &http.Client{Timeout: 15 * time.Second},
		log:         log,
		radiusMiles: radiusMiles,
		limit:       limit,
		pageDelay:   pageTokenDelay,
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (c *Client) SetBaseURL(u string) { c.baseURL = u }

// SetPageDelay overrides the pagination delay. Used by tests.
func (c *Client) SetPageDelay(d time.Duration) { c.pageDelay = d }

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves a free-text address to coordinates.
func (c *Client) Geocode(ctx context.Context, address string) (GeoPoint, error) {
	if c.apiKey == "" {
		return GeoPoint{}, ErrNoAPIKey
	}

	params := url.Values{}
	params.Set("address", address)
	params.Set("key", c.apiKey)

	var resp geocodeResponse
	if err := c.get(ctx, "/maps/api/geocode/json", params, &resp); err != nil {
		return GeoPoint{}, fmt.Errorf("geocode request: %w", err)
	}
	if resp.Status != "OK" || len(resp.Results) == 0 {
		return GeoPoint{}, &GeocodingError{Status: resp.Status}
	}

	first := resp.Results[0]
	return GeoPoint{
		Lat:              first.Geometry.Location.Lat,
		Lng:              first.Geometry.Location.Lng,
		FormattedAddress: first.FormattedAddress,
	}, nil
}

type nearbyResponse struct {
	Status        string `json:"status"`
	NextPageToken string `json:"next_page_token"`
	Results       []struct {
		PlaceID  string `json:"place_id"`
		Name     string `json:"name"`
		Vicinity string `json:"vicinity"`
		Rating   float64 `json:"rating"`
		Reviews  int     `json:"user_ratings_total"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// FindDentalCompetitors discovers dental practices around a point: up to
// three pages of nearby results, chain names excluded, websites resolved via
// best-effort details lookups, sorted by review count and truncated to the
// configured limit. Candidates without a resolvable website are dropped.
func (c *Client) FindDentalCompetitors(ctx context.Context, lat, lng float64) ([]Competitor, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	radiusMeters := c.radiusMiles * metersPerMile

	var raw []Competitor
	pageToken := ""
	for page := 0; page < maxPages; page++ {
		params := url.Values{}
		params.Set("location", fmt.Sprintf("%f,%f", lat, lng))
		params.Set("radius", fmt.Sprintf("%.0f", radiusMeters))
		params.Set("type", "dentist")
		params.Set("key", c.apiKey)
		if pageToken != "" {
			params.Set("pagetoken", pageToken)
			// The token is not usable immediately; skipping this wait makes
			// Google reject the request with INVALID_REQUEST.
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.pageDelay):
			}
		}

		var resp nearbyResponse
		if err := c.get(ctx, "/maps/api/place/nearbysearch/json", params, &resp); err != nil {
			return nil, fmt.Errorf("nearby search request: %w", err)
		}
		if resp.Status != "OK" && resp.Status != "ZERO_RESULTS" {
			return nil, &PlacesError{Op: "nearby search", Status: resp.Status}
		}

		for _, r := range resp.Results {
			raw = append(raw, Competitor{
				PlaceID:     r.PlaceID,
				Name:        r.Name,
				Address:     r.Vicinity,
				Rating:      r.Rating,
				ReviewCount: r.Reviews,
				Lat:         r.Geometry.Location.Lat,
				Lng:         r.Geometry.Location.Lng,
			})
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	candidates := filterChains(raw)
	c.resolveWebsites(ctx, candidates)

	// Keep only candidates whose website resolved, preserving input order for
	// equal review counts.
	kept := candidates[:0]
	for _, cand := range candidates {
		if cand.Website != "" {
			kept = append(kept, cand)
		}
	}
	sortByReviewCount(kept)

	if len(kept) > c.limit {
		kept = kept[:c.limit]
	}
	return kept, nil
}

func filterChains(in []Competitor) []Competitor {
	out := make([]Competitor, 0, len(in))
	for _, cand := range in {
		if isExcludedChain(cand.Name) {
			continue
		}
		out = append(out, cand)
	}
	return out
}

// resolveWebsites looks up place details for every candidate concurrently.
// Failures are swallowed: a candidate whose lookup fails simply keeps an
// empty website and gets filtered out later.
func (c *Client) resolveWebsites(ctx context.Context, candidates []Competitor) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, detailsConcurrency)

	for i := range candidates {
		wg.Add(1)
		go func(cand *Competitor) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			details, err := c.Details(ctx, cand.PlaceID)
			if err != nil {
				c.log.Debug("place details unavailable",
					zap.String("place_id", cand.PlaceID),
					zap.Error(err))
				return
			}
			cand.Website = details.Website
		}(&candidates[i])
	}
	wg.Wait()
}

type detailsResponse struct {
	Status string `json:"status"`
	Result struct {
		Website string `json:"website"`
		Phone   string `json:"formatted_phone_number"`
	} `json:"result"`
}

// Details fetches a place's website and phone number.
func (c *Client) Details(ctx context.Context, placeID string) (PlaceDetails, error) {
	if c.apiKey == "" {
		return PlaceDetails{}, ErrNoAPIKey
	}

	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "website,formatted_phone_number")
	params.Set("key", c.apiKey)

	var resp detailsResponse
	if err := c.get(ctx, "/maps/api/place/details/json", params, &resp); err != nil {
		return PlaceDetails{}, fmt.Errorf("place details request: %w", err)
	}
	if resp.Status != "OK" {
		return PlaceDetails{}, &PlacesError{Op: "details", Status: resp.Status}
	}
	return PlaceDetails{Website: resp.Result.Website, Phone: resp.Result.Phone}, nil
}

func isExcludedChain(name string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range excludedChains {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

func sortByReviewCount(competitors []Competitor) {
	sort.SliceStable(competitors, func(i, j int) bool {
		return competitors[i].ReviewCount > competitors[j].ReviewCount
	})
}
