package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insight-cli/internal/model"
)

func vendorMapping() model.FieldMapping {
	return model.FieldMapping{
		model.FieldName:        "VendorName",
		model.FieldSpend:       "TotalSpend",
		model.FieldPayments:    "TotalPayments",
		model.FieldPaymentType: "PaymentType",
		model.FieldHasPO:       "HasPO",
		model.FieldDate:        "InvoiceDate",
		model.FieldLatitude:    "Lat",
		model.FieldLongitude:   "Lon",
		model.FieldCity:        "City",
	}
}

func TestNormalize_CoercionRules(t *testing.T) {
	rows := []model.RawRow{
		{
			"VendorName": "Acme", "TotalSpend": "$1,250,000", "TotalPayments": "n/a",
			"PaymentType": "Credit", "HasPO": "TRUE", "InvoiceDate": "2024-02-10",
			"Lat": "37.7749", "Lon": "-122.4194", "City": "San Francisco",
		},
		{
			"VendorName": "", "TotalSpend": "", "TotalPayments": "50",
			"PaymentType": "", "HasPO": "nope", "InvoiceDate": "soon",
			"Lat": "", "Lon": "20", "City": "",
		},
	}

	records := Normalize(rows, vendorMapping())
	require.Len(t, records, 2)

	a, b := records[0], records[1]

	assert.Equal(t, 0, a.ID)
	assert.Equal(t, 1, b.ID)
	assert.Equal(t, "Acme", a.Name)
	assert.Equal(t, model.CategoryUnknown, b.Name)

	// Currency and thousands separators stripped; failures default to 0.
	assert.Equal(t, 1250000.0, a.NumericValue(model.FieldSpend))
	assert.Equal(t, 0.0, a.NumericValue(model.FieldPayments))
	assert.Equal(t, 0.0, b.NumericValue(model.FieldSpend))
	assert.Equal(t, 50.0, b.NumericValue(model.FieldPayments))

	assert.True(t, a.HasPO)
	assert.False(t, b.HasPO)

	require.NotNil(t, a.Date)
	assert.Equal(t, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), *a.Date)
	assert.Nil(t, b.Date)

	// Coordinates only when both components parse as finite numbers.
	require.NotNil(t, a.Coordinates)
	assert.Equal(t, 37.7749, a.Coordinates.Lat)
	assert.Nil(t, b.Coordinates)

	assert.Equal(t, "Credit", a.CategoryValue(model.FieldPaymentType))
	assert.Equal(t, model.CategoryUnknown, b.CategoryValue(model.FieldPaymentType))
	assert.Equal(t, "", b.Categorical[model.FieldCity])
}

func TestNormalize_UnmappedFieldsAbsent(t *testing.T) {
	mapping := model.FieldMapping{model.FieldName: "n"}
	records := Normalize([]model.RawRow{{"n": "A", "x": "9"}}, mapping)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, 0.0, rec.NumericValue(model.FieldSpend))
	assert.Equal(t, model.CategoryUnknown, rec.CategoryValue(model.FieldRegion))
	assert.Nil(t, rec.Coordinates)
	assert.Nil(t, rec.Date)
}

func TestNormalize_Deterministic(t *testing.T) {
	rows := []model.RawRow{
		{"VendorName": "Acme", "TotalSpend": "100", "Lat": "1", "Lon": "2"},
		{"VendorName": "Globex", "TotalSpend": "200", "Lat": "3", "Lon": "4"},
	}
	first := Normalize(rows, vendorMapping())
	second := Normalize(rows, vendorMapping())
	assert.Equal(t, first, second)
}

func TestParseNumber(t *testing.T) {
	tests := map[string]float64{
		"$1,250.50": 1250.50,
		"€980":      980,
		" 42 ":      42,
		"-3.5":      -3.5,
		"abc":       0,
		"":          0,
		"NaN":       0,
		"+Inf":      0,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseNumber(in), "%q", in)
	}
}

func TestParseBool(t *testing.T) {
	truthy := []string{"t", "T", "TRUE", "true", "yes", "Yes"}
	for _, v := range truthy {
		assert.True(t, ParseBool(v), v)
	}
	falsy := []string{"", "f", "false", "no", "0", "maybe"}
	for _, v := range falsy {
		assert.False(t, ParseBool(v), v)
	}
}

func TestParseBool_OnlyTruthyPrefixes(t *testing.T) {
	// Shorthand flags outside the truthy-prefix set stay false, so
	// datasets using 1/0 or y/n columns never inflate the PO share.
	for _, v := range []string{"1", "y", "Y", "ja", "on"} {
		assert.False(t, ParseBool(v), v)
	}
	// "yes" is a prefix match, so longer variants still pass.
	assert.True(t, ParseBool("yessir"))
}

func TestParseDate(t *testing.T) {
	ts, ok := ParseDate("2024-05-12")
	require.True(t, ok)
	assert.Equal(t, 2024, ts.Year())

	ts, ok = ParseDate("3/14/2024")
	require.True(t, ok)
	assert.Equal(t, time.March, ts.Month())

	_, ok = ParseDate("yesterday")
	assert.False(t, ok)
	_, ok = ParseDate("")
	assert.False(t, ok)
}
