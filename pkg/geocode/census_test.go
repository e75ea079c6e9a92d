package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

func newTestGeocoder(baseURL string) *geocoder {
	return &geocoder{
		httpClient: http.DefaultClient,
		baseURL:    baseURL,
		limiter:    newTestLimiter(),
		cache:      newResultCache(),
	}
}

func TestCensusGeocode_Match(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/locations/onelineaddress", r.URL.Path)
		assert.Equal(t, "Austin, TX", r.URL.Query().Get("address"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"result": {
				"addressMatches": [{
					"coordinates": {"x": -97.7431, "y": 30.2672},
					"matchedAddress": "Austin, TX"
				}]
			}
		}`)
	}))
	defer srv.Close()

	g := newTestGeocoder(srv.URL)
	result, err := g.geocodeCensus(context.Background(), Place{City: "Austin", Region: "TX"})
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.InDelta(t, 30.2672, result.Latitude, 0.0001)
	assert.InDelta(t, -97.7431, result.Longitude, 0.0001)
	assert.Equal(t, "census", result.Source)
	assert.Equal(t, "centroid", result.Quality)
}

func TestCensusGeocode_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"result": {"addressMatches": []}}`)
	}))
	defer srv.Close()

	g := newTestGeocoder(srv.URL)
	result, err := g.geocodeCensus(context.Background(), Place{City: "Faketown", Region: "XX"})
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Equal(t, "census", result.Source)
}

func TestCensusGeocode_EmptyPlace(t *testing.T) {
	g := newTestGeocoder("http://unused.invalid")
	result, err := g.geocodeCensus(context.Background(), Place{})
	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestCensusBatch_MixedResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/locations/addressbatch", r.URL.Path)
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, `"0",", Austin, TX,","Match","Exact","AUSTIN, TX","-97.7431,30.2672","123","L"
"1",", Faketown, XX,","No_Match"`)
	}))
	defer srv.Close()

	g := newTestGeocoder(srv.URL)
	places := []Place{
		{ID: "0", City: "Austin", Region: "TX"},
		{ID: "1", City: "Faketown", Region: "XX"},
	}

	results, err := g.batchGeocodeCensus(context.Background(), places)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results[0].Matched)
	assert.InDelta(t, 30.2672, results[0].Latitude, 0.0001)
	assert.Equal(t, "rooftop", results[0].Quality)
	assert.False(t, results[1].Matched)
}

func TestParseCensusCoords(t *testing.T) {
	lon, lat, err := parseCensusCoords("-97.7431,30.2672")
	require.NoError(t, err)
	assert.InDelta(t, -97.7431, lon, 0.0001)
	assert.InDelta(t, 30.2672, lat, 0.0001)

	_, _, err = parseCensusCoords("not-coords")
	assert.Error(t, err)
}

func TestSplitCSVLine_QuotedCommas(t *testing.T) {
	fields := splitCSVLine(`"0","Austin, TX","Match"`)
	require.Len(t, fields, 3)
	assert.Equal(t, `"Austin, TX"`, fields[1])
}

func TestFormatOneLine(t *testing.T) {
	assert.Equal(t, "Austin, TX", formatOneLine(Place{City: "Austin", Region: "TX"}))
	assert.Equal(t, "Austin", formatOneLine(Place{City: " Austin "}))
	assert.Equal(t, "", formatOneLine(Place{}))
}
