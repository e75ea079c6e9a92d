package model

import "time"

// Coordinates is a parsed latitude/longitude pair. A Record carries one
// only when both components parsed as finite numbers.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Record is the normalized unit of work. All coercion happens exactly
// once, during normalization; downstream stages never mutate a Record.
type Record struct {
	// ID is the zero-based row index in arrival order, stable for the
	// lifetime of the loaded dataset so UI selections can key off it.
	ID int `json:"id"`

	Name string `json:"name"`

	// Numeric holds mapped numeric fields. Coercion failures default to
	// 0, never to a null marker, so aggregation needs no missing-value
	// special case.
	Numeric map[Field]float64 `json:"numeric"`

	// Categorical holds mapped string fields. Category fields default
	// missing values to "Unknown"; display-only fields default to "".
	Categorical map[Field]string `json:"categorical"`

	HasPO bool `json:"hasPurchaseOrder"`

	// Date is absent (nil) when the source value was missing or
	// unparseable; temporal aggregations skip absent dates rather than
	// binning them at an epoch.
	Date *time.Time `json:"date,omitempty"`

	Coordinates *Coordinates `json:"coordinates,omitempty"`

	// Raw is the original source row, retained for display and
	// free-text search.
	Raw RawRow `json:"raw"`
}

// NumericValue returns the record's value for a numeric field, 0 when
// the field is unmapped.
func (r Record) NumericValue(f Field) float64 {
	return r.Numeric[f]
}

// CategoryValue returns the record's grouping value for a category
// field. Unmapped category fields group under "Unknown".
func (r Record) CategoryValue(f Field) string {
	if f == FieldName {
		return r.Name
	}
	if v, ok := r.Categorical[f]; ok {
		return v
	}
	return CategoryUnknown
}

// MonthBucket returns the record's YYYY-MM aggregation bucket, or ""
// when the date is absent. Lexicographic order of buckets is
// chronological for this format.
func (r Record) MonthBucket() string {
	if r.Date == nil {
		return ""
	}
	return r.Date.Format("2006-01")
}

// CategoryUnknown is the placeholder bucket for missing category values.
const CategoryUnknown = "Unknown"
