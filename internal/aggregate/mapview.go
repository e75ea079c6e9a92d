package aggregate

import (
	"github.com/twpayne/go-geom"

	"github.com/sells-group/insight-cli/internal/model"
)

// MapPoint is one renderable map marker. Only records carrying
// coordinates produce markers; the rest of the record set still feeds
// table and chart aggregations.
type MapPoint struct {
	RecordID int     `json:"recordId"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Name     string  `json:"name"`
	City     string  `json:"city"`
	Spend    float64 `json:"spend"`
}

// MapBounds is the padded bounding box the renderer fits its viewport
// to.
type MapBounds struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// MapView is the map-bound aggregation: markers plus their bounding
// box. An empty view (no geolocated records) is valid, not an error.
type MapView struct {
	Points []MapPoint `json:"points"`
	Bounds *MapBounds `json:"bounds,omitempty"`
}

// boundsPad widens the fitted bounding box by 20% per side, matching
// the viewport padding renderers apply around marker groups.
const boundsPad = 0.2

// MapMarkers projects the geolocated subset of records into markers
// with a padded bounding box.
func MapMarkers(records []model.Record) MapView {
	var view MapView
	bounds := geom.NewBounds(geom.XY)

	for _, rec := range records {
		if rec.Coordinates == nil {
			continue
		}
		view.Points = append(view.Points, MapPoint{
			RecordID: rec.ID,
			Lat:      rec.Coordinates.Lat,
			Lon:      rec.Coordinates.Lon,
			Name:     rec.Name,
			City:     rec.Categorical[model.FieldCity],
			Spend:    rec.NumericValue(model.FieldSpend),
		})
		bounds.Extend(geom.NewPointFlat(geom.XY, []float64{rec.Coordinates.Lon, rec.Coordinates.Lat}))
	}

	if len(view.Points) == 0 {
		return view
	}

	padLon := (bounds.Max(0) - bounds.Min(0)) * boundsPad
	padLat := (bounds.Max(1) - bounds.Min(1)) * boundsPad
	view.Bounds = &MapBounds{
		MinLat: bounds.Min(1) - padLat,
		MinLon: bounds.Min(0) - padLon,
		MaxLat: bounds.Max(1) + padLat,
		MaxLon: bounds.Max(0) + padLon,
	}
	return view
}
