// Package normalize converts raw rows into typed records using a
// resolved field mapping. All coercion happens here, exactly once;
// coercion failures are expected input noise and default silently
// rather than erroring.
package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/insight-cli/internal/model"
)

// Normalize converts every raw row into a Record. It is a pure function
// of its inputs: same rows and mapping always yield the same records.
func Normalize(rows []model.RawRow, mapping model.FieldMapping) []model.Record {
	records := make([]model.Record, 0, len(rows))
	for i, row := range rows {
		records = append(records, normalizeRow(i, row, mapping))
	}
	return records
}

func normalizeRow(id int, row model.RawRow, mapping model.FieldMapping) model.Record {
	rec := model.Record{
		ID:          id,
		Numeric:     make(map[model.Field]float64),
		Categorical: make(map[model.Field]string),
		Raw:         row,
	}

	rec.Name = categoricalValue(row, mapping, model.FieldName, model.CategoryUnknown)

	for _, f := range model.NumericFields {
		if src, ok := mapping.Source(f); ok {
			rec.Numeric[f] = ParseNumber(row[src])
		}
	}

	// Category fields default to "Unknown" so they form their own
	// bucket; city is display-only and defaults to "".
	rec.Categorical[model.FieldPaymentType] = categoricalValue(row, mapping, model.FieldPaymentType, model.CategoryUnknown)
	rec.Categorical[model.FieldRegion] = categoricalValue(row, mapping, model.FieldRegion, model.CategoryUnknown)
	rec.Categorical[model.FieldCity] = categoricalValue(row, mapping, model.FieldCity, "")

	if src, ok := mapping.Source(model.FieldHasPO); ok {
		rec.HasPO = ParseBool(row[src])
	}

	if src, ok := mapping.Source(model.FieldDate); ok {
		if ts, ok := ParseDate(row[src]); ok {
			rec.Date = &ts
		}
	}

	if mapping.HasCoordinates() {
		latSrc, _ := mapping.Source(model.FieldLatitude)
		lonSrc, _ := mapping.Source(model.FieldLongitude)
		lat, latOK := parseFinite(row[latSrc])
		lon, lonOK := parseFinite(row[lonSrc])
		if latOK && lonOK {
			rec.Coordinates = &model.Coordinates{Lat: lat, Lon: lon}
		}
	}

	return rec
}

func categoricalValue(row model.RawRow, mapping model.FieldMapping, f model.Field, fallback string) string {
	src, ok := mapping.Source(f)
	if !ok {
		return fallback
	}
	v := strings.TrimSpace(row[src])
	if v == "" {
		return fallback
	}
	return v
}

// ParseNumber coerces a raw cell to a float64, stripping thousands
// separators and one of a small fixed set of currency symbols first.
// Failures coerce to 0, never to a null marker.
func ParseNumber(v string) float64 {
	f, ok := parseFinite(v)
	if !ok {
		return 0
	}
	return f
}

const currencySymbols = "$€£¥₹"

func parseFinite(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	for _, c := range currencySymbols {
		v = strings.ReplaceAll(v, string(c), "")
	}
	v = strings.ReplaceAll(v, ",", "")
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// truthyPrefixes is the set of case-insensitive prefixes accepted as
// true for boolean-like fields. Anything else is false.
var truthyPrefixes = []string{"t", "true", "yes"}

// ParseBool coerces a raw cell to a bool.
func ParseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return false
	}
	for _, p := range truthyPrefixes {
		if strings.HasPrefix(v, p) {
			return true
		}
	}
	return false
}

// dateLayouts are tried in order. ISO shapes first, then slashed US
// dates, then EU dotted dates.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02.01.2006",
	"2.1.2006",
}

// ParseDate attempts generic date parsing. Unparseable input yields
// ok=false, an explicit absent value — never a default epoch date.
func ParseDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
