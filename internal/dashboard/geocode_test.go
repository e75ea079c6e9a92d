package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insight-cli/pkg/geocode"
)

const geoCSV = "name,city,region,spend\nA,Austin,TX,100\nB,,TX,50\nC,Faketown,TX,25\n"

// mapGeocoder resolves known cities from a fixed table.
type mapGeocoder struct {
	mu     sync.Mutex
	known  map[string]geocode.Result
	calls  []string
	errOut error
}

var _ geocode.Client = (*mapGeocoder)(nil)

func (m *mapGeocoder) Geocode(_ context.Context, place geocode.Place) (*geocode.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errOut != nil {
		return nil, m.errOut
	}
	m.calls = append(m.calls, place.City)
	if r, ok := m.known[place.City]; ok {
		return &r, nil
	}
	return &geocode.Result{Matched: false}, nil
}

func (m *mapGeocoder) BatchGeocode(ctx context.Context, places []geocode.Place) ([]geocode.Result, error) {
	results := make([]geocode.Result, len(places))
	for i, p := range places {
		r, err := m.Geocode(ctx, p)
		if err != nil {
			return nil, err
		}
		results[i] = *r
	}
	return results, nil
}

func TestGeocodeBackfill(t *testing.T) {
	gc := &mapGeocoder{known: map[string]geocode.Result{
		"Austin": {Latitude: 30.27, Longitude: -97.74, Matched: true},
	}}
	d := New(Options{Geocoder: gc})
	loadCSV(t, d, geoCSV)

	filled, err := d.GeocodeBackfill(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, filled)

	records := d.FilteredRecords()
	require.Len(t, records, 3)

	require.NotNil(t, records[0].Coordinates)
	assert.Equal(t, 30.27, records[0].Coordinates.Lat)
	assert.Equal(t, -97.74, records[0].Coordinates.Lon)

	// B has no city, C's city is unknown: neither gains coordinates.
	assert.Nil(t, records[1].Coordinates)
	assert.Nil(t, records[2].Coordinates)

	// Only records with a city are queried at all.
	assert.ElementsMatch(t, []string{"Austin", "Faketown"}, gc.calls)
}

func TestGeocodeBackfill_SkipsExistingCoordinates(t *testing.T) {
	gc := &mapGeocoder{known: map[string]geocode.Result{}}
	d := New(Options{Geocoder: gc})
	loadCSV(t, d, "name,city,lat,lon,spend\nA,Austin,30.27,-97.74,100\n")

	filled, err := d.GeocodeBackfill(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, filled)
	assert.Empty(t, gc.calls, "geolocated records are not re-resolved")
}

func TestGeocodeBackfill_ProviderError(t *testing.T) {
	gc := &mapGeocoder{errOut: errors.New("census unreachable")}
	d := New(Options{Geocoder: gc})
	loadCSV(t, d, geoCSV)

	_, err := d.GeocodeBackfill(context.Background())
	require.Error(t, err)

	// Failed backfill never half-applies coordinates.
	for _, rec := range d.FilteredRecords() {
		assert.Nil(t, rec.Coordinates)
	}
}

func TestGeocodeBackfill_NoGeocoder(t *testing.T) {
	d := New(Options{})
	loadCSV(t, d, geoCSV)

	_, err := d.GeocodeBackfill(context.Background())
	assert.Error(t, err)
}

func TestGeocodeBackfill_NoDataset(t *testing.T) {
	d := New(Options{Geocoder: &mapGeocoder{}})
	_, err := d.GeocodeBackfill(context.Background())
	assert.ErrorIs(t, err, ErrNoDataset)
}
