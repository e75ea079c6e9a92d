package schema

import (
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/insight-cli/internal/model"
)

// SynonymTable resolves source headers to canonical fields. The table
// is consulted in canonical field declaration order; within a field,
// the first matching header in column order wins.
type SynonymTable struct {
	entries []synonymEntry
}

type synonymEntry struct {
	field model.Field
	keys  map[string]bool
}

// defaultSynonyms lists the built-in synonym sets, keyed by canonical
// field, in normalized form (lower-cased, punctuation stripped).
var defaultSynonyms = map[model.Field][]string{
	model.FieldName:         {"vendor", "vendorname", "name", "supplier"},
	model.FieldSpend:        {"spend", "totalspend", "sales", "amount"},
	model.FieldPayments:     {"payments", "totalpayments", "paid"},
	model.FieldInvoiceCount: {"invoicecount", "invoices", "invoice"},
	model.FieldPaymentType:  {"paymenttype", "paymentmethod", "payment"},
	model.FieldHasPO:        {"haspo", "po", "purchaseorder", "haspurchaseorder"},
	model.FieldDate:         {"date", "invoicedate"},
	model.FieldLatitude:     {"lat", "latitude", "y"},
	model.FieldLongitude:    {"lon", "lng", "longitude", "x"},
	model.FieldCity:         {"city", "town"},
	model.FieldRegion:       {"region", "country", "area"},
}

// DefaultSynonyms returns the built-in synonym table.
func DefaultSynonyms() *SynonymTable {
	t := &SynonymTable{}
	for _, f := range model.Fields {
		keys := make(map[string]bool)
		for _, s := range defaultSynonyms[f] {
			keys[s] = true
		}
		t.entries = append(t.entries, synonymEntry{field: f, keys: keys})
	}
	return t
}

// MergeYAML adds synonyms from a YAML document of the form
// `spend: [expenditure, outlay]`. Unknown field keys are rejected so a
// typo in an override file fails loudly.
func (t *SynonymTable) MergeYAML(r io.Reader) error {
	var extra map[string][]string
	if err := yaml.NewDecoder(r).Decode(&extra); err != nil {
		return eris.Wrap(err, "schema: decode synonym overrides")
	}

	for key, syns := range extra {
		entry := t.entry(model.Field(key))
		if entry == nil {
			return eris.Errorf("schema: unknown canonical field %q in synonym overrides", key)
		}
		for _, s := range syns {
			entry.keys[NormalizeHeader(s)] = true
		}
	}
	return nil
}

func (t *SynonymTable) entry(f model.Field) *synonymEntry {
	for i := range t.entries {
		if t.entries[i].field == f {
			return &t.entries[i]
		}
	}
	return nil
}

// Fallback regexes for fields the original implementations recover via
// header search when no synonym matches.
var (
	nameFallback = regexp.MustCompile(`(?i)name|vendor|supplier`)
	latFallback  = regexp.MustCompile(`(?i)lat|latitude`)
	lonFallback  = regexp.MustCompile(`(?i)lon|lng|longitude`)
)

// Resolve maps headers to canonical fields. Unresolved fields are left
// out of the mapping; the normalizer treats them as absent.
func (t *SynonymTable) Resolve(headers []string) model.FieldMapping {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}

	mapping := make(model.FieldMapping)
	for _, entry := range t.entries {
		for i, key := range normalized {
			if entry.keys[key] {
				mapping[entry.field] = headers[i]
				break
			}
		}
	}

	// Regex fallbacks for the fields the charts and map cannot live
	// without.
	fallbacks := []struct {
		field model.Field
		re    *regexp.Regexp
	}{
		{model.FieldName, nameFallback},
		{model.FieldLatitude, latFallback},
		{model.FieldLongitude, lonFallback},
	}
	for _, fb := range fallbacks {
		if mapping.Has(fb.field) {
			continue
		}
		for _, h := range headers {
			if fb.re.MatchString(h) {
				mapping[fb.field] = h
				break
			}
		}
	}

	return mapping
}

// headerFold strips diacritics so "Ciudád" and "Ciudad" normalize the
// same way.
var headerFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeHeader canonicalizes a raw header for synonym lookup:
// trimmed, lower-cased, accents folded, all whitespace and punctuation
// removed.
func NormalizeHeader(h string) string {
	h = strings.TrimSpace(strings.ToLower(h))
	if folded, _, err := transform.String(headerFold, h); err == nil {
		h = folded
	}
	var b strings.Builder
	b.Grow(len(h))
	for _, r := range h {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
