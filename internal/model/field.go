// Package model holds the shared data model for the dashboard core:
// raw rows, column profiles, canonical field mappings, normalized
// records, and chart specifications.
package model

// RawRow is one untyped source row, keyed by header name. Rows are
// ephemeral: they exist between ingestion and normalization, and are
// kept on the Record afterwards only for display.
type RawRow map[string]string

// Field is a canonical semantic field that source columns are mapped
// onto. The set is fixed; source headers resolve to at most one field.
type Field string

const (
	FieldName         Field = "name"
	FieldSpend        Field = "spend"
	FieldPayments     Field = "payments"
	FieldInvoiceCount Field = "invoiceCount"
	FieldPaymentType  Field = "paymentType"
	FieldHasPO        Field = "hasPurchaseOrder"
	FieldDate         Field = "date"
	FieldLatitude     Field = "latitude"
	FieldLongitude    Field = "longitude"
	FieldCity         Field = "city"
	FieldRegion       Field = "region"
)

// Fields lists every canonical field in declaration order. Resolution
// ties between fields are broken by this order, not by column order.
var Fields = []Field{
	FieldName,
	FieldSpend,
	FieldPayments,
	FieldInvoiceCount,
	FieldPaymentType,
	FieldHasPO,
	FieldDate,
	FieldLatitude,
	FieldLongitude,
	FieldCity,
	FieldRegion,
}

// NumericFields lists the canonical fields that normalize to float64,
// in declaration order.
var NumericFields = []Field{FieldSpend, FieldPayments, FieldInvoiceCount}

// CategoryFields lists the canonical fields usable as chart categories,
// in declaration order. Missing values for these coerce to "Unknown";
// display-only string fields (city) coerce to "".
var CategoryFields = []Field{FieldName, FieldPaymentType, FieldRegion}

// FieldMapping maps canonical fields to the source column chosen for
// each. Absent keys mean the field is unmapped for this dataset.
type FieldMapping map[Field]string

// Source returns the source column mapped to f.
func (m FieldMapping) Source(f Field) (string, bool) {
	col, ok := m[f]
	return col, ok
}

// Has reports whether f is mapped.
func (m FieldMapping) Has(f Field) bool {
	_, ok := m[f]
	return ok
}

// MappedNumeric returns the mapped numeric fields in declaration order.
func (m FieldMapping) MappedNumeric() []Field {
	var out []Field
	for _, f := range NumericFields {
		if m.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// MappedCategories returns the mapped category fields in declaration order.
func (m FieldMapping) MappedCategories() []Field {
	var out []Field
	for _, f := range CategoryFields {
		if m.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// HasCoordinates reports whether both coordinate fields are mapped. An
// unmapped coordinate pair means no record in the dataset carries
// coordinates; map aggregations become empty, not erroneous.
func (m FieldMapping) HasCoordinates() bool {
	return m.Has(FieldLatitude) && m.Has(FieldLongitude)
}
