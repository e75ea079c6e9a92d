// Package schema samples raw rows to classify columns into semantic
// roles and resolves canonical fields via fuzzy header matching.
// Inference is best-effort and deterministic for a given row sample and
// header order; it never fails a load.
package schema

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/insight-cli/internal/model"
)

// Default classification constants. They are deliberately configurable:
// the exact cutoffs are not load-bearing.
const (
	DefaultSampleSize        = 200
	DefaultNumericThreshold  = 0.6
	DefaultTemporalThreshold = 0.5

	// identifierMinSample is the minimum number of non-empty sampled
	// values before a fully-unique text column is tagged Identifier
	// instead of Categorical.
	identifierMinSample = 10
)

// Options configures inference.
type Options struct {
	SampleSize        int
	NumericThreshold  float64
	TemporalThreshold float64
	Synonyms          *SynonymTable
}

func (o Options) withDefaults() Options {
	if o.SampleSize <= 0 {
		o.SampleSize = DefaultSampleSize
	}
	if o.NumericThreshold <= 0 {
		o.NumericThreshold = DefaultNumericThreshold
	}
	if o.TemporalThreshold <= 0 {
		o.TemporalThreshold = DefaultTemporalThreshold
	}
	if o.Synonyms == nil {
		o.Synonyms = DefaultSynonyms()
	}
	return o
}

// Inference is the result of one schema inference pass. It is computed
// once per dataset load and immutable for that dataset's lifetime.
type Inference struct {
	Profiles []model.ColumnProfile
	Mapping  model.FieldMapping
}

// dateRegexes match the ISO/US/EU date shapes the sampler recognizes.
var dateRegexes = []*regexp.Regexp{
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}([T ].*)?$`), // ISO, optional time
	regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`),
	regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`), // US
	regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4}$`), // EU
	regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{4}$`),
}

// Infer samples rows to profile every column, then resolves canonical
// fields over the header via the synonym table.
func Infer(header []string, rows []model.RawRow, opts Options) *Inference {
	opts = opts.withDefaults()

	sample := rows
	if len(sample) > opts.SampleSize {
		sample = sample[:opts.SampleSize]
	}

	profiles := make([]model.ColumnProfile, len(header))
	for i, col := range header {
		profiles[i] = profileColumn(col, sample, opts)
	}

	mapping := opts.Synonyms.Resolve(header)

	// Coordinate columns get their dedicated roles once resolution has
	// picked them, keeping the numeric confidence already measured.
	for i := range profiles {
		if src, ok := mapping.Source(model.FieldLatitude); ok && profiles[i].Name == src && profiles[i].Role == model.RoleNumeric {
			profiles[i].Role = model.RoleLatitude
		}
		if src, ok := mapping.Source(model.FieldLongitude); ok && profiles[i].Name == src && profiles[i].Role == model.RoleNumeric {
			profiles[i].Role = model.RoleLongitude
		}
	}

	return &Inference{Profiles: profiles, Mapping: mapping}
}

func profileColumn(col string, sample []model.RawRow, opts Options) model.ColumnProfile {
	var nonEmpty, numeric, temporal int
	values := make(map[string]bool)

	for _, row := range sample {
		v := strings.TrimSpace(row[col])
		if v == "" {
			continue
		}
		nonEmpty++
		values[v] = true
		if isNumericValue(v) {
			numeric++
		}
		if isDateValue(v) {
			temporal++
		}
	}

	if nonEmpty == 0 {
		return model.ColumnProfile{Name: col, Role: model.RoleUnknown}
	}

	n := float64(nonEmpty)
	switch {
	case float64(numeric)/n >= opts.NumericThreshold:
		return model.ColumnProfile{Name: col, Role: model.RoleNumeric, Confidence: float64(numeric) / n}
	case float64(temporal)/n >= opts.TemporalThreshold:
		return model.ColumnProfile{Name: col, Role: model.RoleTemporal, Confidence: float64(temporal) / n}
	case nonEmpty >= identifierMinSample && len(values) == nonEmpty:
		return model.ColumnProfile{Name: col, Role: model.RoleIdentifier, Confidence: 1}
	default:
		return model.ColumnProfile{Name: col, Role: model.RoleCategorical, Confidence: 1 - float64(numeric)/n}
	}
}

// isNumericValue reports whether v parses as a finite number after
// stripping thousands separators and a currency symbol.
func isNumericValue(v string) bool {
	v = stripNumericNoise(v)
	if v == "" {
		return false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return false
	}
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func isDateValue(v string) bool {
	for _, re := range dateRegexes {
		if re.MatchString(v) {
			return true
		}
	}
	return false
}

// currencyRunes is the small fixed set of currency symbols stripped
// before numeric parsing.
const currencyRunes = "$€£¥₹"

func stripNumericNoise(v string) string {
	v = strings.TrimSpace(v)
	for _, c := range currencyRunes {
		v = strings.ReplaceAll(v, string(c), "")
	}
	v = strings.ReplaceAll(v, ",", "")
	return strings.TrimSpace(v)
}
