// Package geocode resolves place names to coordinates via the Census
// Geocoder (primary) and Google (fallback), for backfilling records
// that carry a city but no latitude/longitude.
package geocode

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Client resolves places to coordinates.
type Client interface {
	// Geocode resolves a single place.
	Geocode(ctx context.Context, place Place) (*Result, error)

	// BatchGeocode resolves multiple places.
	BatchGeocode(ctx context.Context, places []Place) ([]Result, error)
}

// Place is a location to resolve. City is required; Region narrows the
// match when the dataset mapped one.
type Place struct {
	ID     string // Optional identifier for batch correlation
	City   string
	Region string
}

// Result holds the resolution output for a place.
type Result struct {
	Latitude  float64
	Longitude float64
	Source    string // "census" or "google"
	Quality   string // "rooftop", "range", "centroid", "approximate"
	Matched   bool
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithBaseURL overrides the Census Geocoder base URL.
func WithBaseURL(baseURL string) Option {
	return func(g *geocoder) {
		g.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithGoogleAPIKey enables Google Geocoding API as a fallback.
func WithGoogleAPIKey(key string) Option {
	return func(g *geocoder) {
		g.googleKey = key
	}
}

// WithHTTPClient sets a custom HTTP client for both Census and Google requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		g.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second rate limit for Census API calls.
func WithRateLimit(rps float64) Option {
	return func(g *geocoder) {
		g.limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}
}

// WithGoogleURL overrides the Google Geocoding API endpoint.
func WithGoogleURL(u string) Option {
	return func(g *geocoder) {
		g.googleOverride = u
	}
}

type geocoder struct {
	httpClient     *http.Client
	baseURL        string
	googleKey      string
	googleOverride string
	limiter        *rate.Limiter
	cache          *resultCache
}

// NewClient creates a new geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://geocoding.geo.census.gov/geocoder",
		limiter:    rate.NewLimiter(50, 50), // Census default: 50 req/s
		cache:      newResultCache(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Geocode resolves a single place, trying Census first, then Google if
// configured. Non-matches are cached too, so a city the providers don't
// know is only asked about once per process.
func (g *geocoder) Geocode(ctx context.Context, place Place) (*Result, error) {
	key := cacheKey(place)
	if cached := g.cache.get(key); cached != nil {
		return cached, nil
	}

	result, censusErr := g.geocodeCensus(ctx, place)
	if censusErr == nil && result.Matched {
		g.cache.put(key, result)
		return result, nil
	}

	if g.googleKey != "" {
		googleResult, googleErr := g.geocodeGoogle(ctx, place)
		if googleErr == nil && googleResult.Matched {
			g.cache.put(key, googleResult)
			return googleResult, nil
		}
	}

	// No match from any provider — this is not an error, just unmatched.
	noMatch := &Result{Matched: false}
	g.cache.put(key, noMatch)
	return noMatch, nil
}

// BatchGeocode resolves multiple places using the Census batch API,
// falling back to per-place resolution when the batch call fails.
func (g *geocoder) BatchGeocode(ctx context.Context, places []Place) ([]Result, error) {
	if len(places) == 0 {
		return nil, nil
	}

	// Assign IDs for batch correlation if not set.
	for i := range places {
		if places[i].ID == "" {
			places[i].ID = fmt.Sprintf("%d", i)
		}
	}

	results, err := g.batchGeocodeCensus(ctx, places)
	if err != nil {
		results = make([]Result, len(places))
		for i, place := range places {
			r, geocodeErr := g.Geocode(ctx, place)
			if geocodeErr != nil {
				results[i] = Result{Matched: false}
				continue
			}
			results[i] = *r
		}
		return results, nil
	}

	// For unmatched Census results, try Google individually if configured.
	if g.googleKey != "" {
		for i, r := range results {
			if !r.Matched {
				googleResult, googleErr := g.geocodeGoogle(ctx, places[i])
				if googleErr == nil && googleResult.Matched {
					results[i] = *googleResult
				}
			}
		}
	}

	return results, nil
}
