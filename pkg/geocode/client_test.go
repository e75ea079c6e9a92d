package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeocode_CensusMatchSkipsGoogle(t *testing.T) {
	var googleCalls atomic.Int64

	census := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"result":{"addressMatches":[{"coordinates":{"x":-97.74,"y":30.27}}]}}`)
	}))
	defer census.Close()
	google := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		googleCalls.Add(1)
		_, _ = io.WriteString(w, `{"status":"OK","results":[]}`)
	}))
	defer google.Close()

	c := NewClient(
		WithBaseURL(census.URL),
		WithGoogleAPIKey("key"),
		WithGoogleURL(google.URL),
		WithRateLimit(1000),
	)

	result, err := c.Geocode(context.Background(), Place{City: "Austin", Region: "TX"})
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, "census", result.Source)
	assert.Equal(t, int64(0), googleCalls.Load())
}

func TestGeocode_FallsBackToGoogle(t *testing.T) {
	census := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"result":{"addressMatches":[]}}`)
	}))
	defer census.Close()
	google := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":"OK","results":[{"geometry":{"location":{"lat":30.27,"lng":-97.74},"location_type":"APPROXIMATE"}}]}`)
	}))
	defer google.Close()

	c := NewClient(
		WithBaseURL(census.URL),
		WithGoogleAPIKey("key"),
		WithGoogleURL(google.URL),
		WithRateLimit(1000),
	)

	result, err := c.Geocode(context.Background(), Place{City: "Austin", Region: "TX"})
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, "google", result.Source)
	assert.Equal(t, "approximate", result.Quality)
}

func TestGeocode_UnmatchedEverywhere(t *testing.T) {
	census := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"result":{"addressMatches":[]}}`)
	}))
	defer census.Close()

	c := NewClient(WithBaseURL(census.URL), WithRateLimit(1000))

	result, err := c.Geocode(context.Background(), Place{City: "Faketown"})
	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestGeocode_CachesRepeatedPlaces(t *testing.T) {
	var calls atomic.Int64
	census := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `{"result":{"addressMatches":[{"coordinates":{"x":-97.74,"y":30.27}}]}}`)
	}))
	defer census.Close()

	c := NewClient(WithBaseURL(census.URL), WithRateLimit(1000))

	for i := 0; i < 3; i++ {
		result, err := c.Geocode(context.Background(), Place{City: "Austin", Region: "TX"})
		require.NoError(t, err)
		assert.True(t, result.Matched)
	}
	// Case and whitespace differences hit the same entry.
	_, err := c.Geocode(context.Background(), Place{City: " austin ", Region: "tx"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), calls.Load())
}

func TestBatchGeocode_FallsBackToSingles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/locations/addressbatch" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, `{"result":{"addressMatches":[{"coordinates":{"x":-97.74,"y":30.27}}]}}`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))

	results, err := c.BatchGeocode(context.Background(), []Place{
		{City: "Austin", Region: "TX"},
		{City: "Dallas", Region: "TX"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Matched)
	assert.True(t, results[1].Matched)
}

func TestBatchGeocode_Empty(t *testing.T) {
	c := NewClient()
	results, err := c.BatchGeocode(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestCacheKey_Normalization(t *testing.T) {
	a := cacheKey(Place{City: "Austin", Region: "TX"})
	b := cacheKey(Place{City: "  AUSTIN  ", Region: "tx"})
	c := cacheKey(Place{City: "Dallas", Region: "TX"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestGoogleLocationTypeToQuality(t *testing.T) {
	assert.Equal(t, "rooftop", googleLocationTypeToQuality("ROOFTOP"))
	assert.Equal(t, "range", googleLocationTypeToQuality("RANGE_INTERPOLATED"))
	assert.Equal(t, "centroid", googleLocationTypeToQuality("GEOMETRIC_CENTER"))
	assert.Equal(t, "approximate", googleLocationTypeToQuality("something-new"))
}

func TestGeocodeGoogle_KeyRequired(t *testing.T) {
	g := newTestGeocoder("http://unused.invalid")
	_, err := g.geocodeGoogle(context.Background(), Place{City: "Austin"})
	assert.Error(t, err)
}
