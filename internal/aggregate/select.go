// Package aggregate selects chart archetypes and computes the exact
// series, bins, points, and correlation matrices that renderers need.
// Aggregation failures are reported, recoverable values: callers fall
// back to a placeholder without touching the rest of the dashboard
// state.
package aggregate

import (
	"fmt"

	"github.com/sells-group/insight-cli/internal/model"
)

// ErrorKind classifies aggregation failures.
type ErrorKind string

const (
	KindInsufficientFields ErrorKind = "insufficient_fields"
	KindEmptyRecordSet     ErrorKind = "empty_record_set"
)

// AggregationError is a reported, recoverable aggregation failure.
type AggregationError struct {
	Kind   ErrorKind
	Detail string
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregate: %s: %s", e.Kind, e.Detail)
}

func insufficient(detail string) *AggregationError {
	return &AggregationError{Kind: KindInsufficientFields, Detail: detail}
}

// Options carries the tunable aggregation constants. Zero values take
// the defaults below.
type Options struct {
	TopN          int
	ScatterCap    int
	HistogramBins int
	RadiusMin     float64
	RadiusMax     float64
}

const (
	DefaultTopN          = 10
	MinTopN              = 5
	DefaultScatterCap    = 500
	DefaultHistogramBins = 20
	DefaultRadiusMin     = 2
	DefaultRadiusMax     = 40
)

func (o Options) withDefaults() Options {
	if o.TopN <= 0 {
		o.TopN = DefaultTopN
	}
	if o.TopN < MinTopN {
		o.TopN = MinTopN
	}
	if o.ScatterCap <= 0 {
		o.ScatterCap = DefaultScatterCap
	}
	if o.HistogramBins <= 0 {
		o.HistogramBins = DefaultHistogramBins
	}
	if o.RadiusMin <= 0 {
		o.RadiusMin = DefaultRadiusMin
	}
	if o.RadiusMax <= o.RadiusMin {
		o.RadiusMax = DefaultRadiusMax
	}
	return o
}

// Select resolves a requested chart type (or ChartAuto) into a concrete
// ChartSpec against the dataset's field mapping. Requests the mapping
// cannot satisfy return an *AggregationError; the active spec is left
// for the caller to keep.
func Select(mapping model.FieldMapping, requested model.ChartType, opts Options) (model.ChartSpec, error) {
	opts = opts.withDefaults()

	if requested == model.ChartAuto || requested == "" {
		return autoSelect(mapping, opts), nil
	}

	numeric := mapping.MappedNumeric()
	categories := mapping.MappedCategories()
	spec := model.ChartSpec{Type: requested, TopN: opts.TopN}

	switch requested {
	case model.ChartBar, model.ChartTreemap:
		if len(categories) == 0 || len(numeric) == 0 {
			return spec, insufficient(string(requested) + " requires a categorical and a numeric field")
		}
		spec.Category, spec.Value = categories[0], numeric[0]

	case model.ChartPie:
		if len(categories) == 0 {
			return spec, insufficient("pie requires a categorical field")
		}
		spec.Category = categories[0]

	case model.ChartLine:
		if !mapping.Has(model.FieldDate) || len(numeric) == 0 {
			return spec, insufficient("line requires a temporal and a numeric field")
		}
		spec.Value = lineValueField(mapping)

	case model.ChartScatter:
		if len(numeric) < 2 {
			return spec, insufficient("scatter requires two numeric fields")
		}
		spec.X, spec.Y = numeric[0], numeric[1]

	case model.ChartBubble:
		if len(numeric) == 0 {
			return spec, insufficient("bubble requires a numeric field")
		}
		// Bubble degrades gracefully: with fewer than three numeric
		// fields the last one is reused for the remaining channels.
		spec.X = numeric[0]
		spec.Y = numeric[min(1, len(numeric)-1)]
		spec.Size = numeric[min(2, len(numeric)-1)]

	case model.ChartHistogram:
		if len(numeric) == 0 {
			return spec, insufficient("histogram requires a numeric field")
		}
		spec.Value = numeric[0]

	case model.ChartHeatmap:
		if len(numeric) < 2 {
			return spec, insufficient("heatmap requires two numeric fields")
		}

	case model.ChartTable:
		// Always renderable.

	default:
		return spec, insufficient("unknown chart type " + string(requested))
	}

	return spec, nil
}

// autoSelect applies the auto-detection priority order: bubble when the
// dataset is rich in numeric fields, bar for the common
// categorical+numeric case, line for temporal data, pie for
// categorical-only data, and a raw table when nothing else fits.
func autoSelect(mapping model.FieldMapping, opts Options) model.ChartSpec {
	numeric := mapping.MappedNumeric()
	categories := mapping.MappedCategories()

	switch {
	case len(numeric) >= 3:
		return model.ChartSpec{
			Type: model.ChartBubble,
			X:    numeric[0], Y: numeric[1], Size: numeric[2],
			TopN: opts.TopN,
		}
	case len(categories) >= 1 && len(numeric) >= 1:
		return model.ChartSpec{
			Type:     model.ChartBar,
			Category: categories[0],
			Value:    numeric[0],
			TopN:     opts.TopN,
		}
	case mapping.Has(model.FieldDate) && len(numeric) >= 1:
		return model.ChartSpec{
			Type:  model.ChartLine,
			Value: lineValueField(mapping),
			TopN:  opts.TopN,
		}
	case len(categories) >= 1:
		return model.ChartSpec{
			Type:     model.ChartPie,
			Category: categories[0],
			TopN:     opts.TopN,
		}
	default:
		return model.ChartSpec{Type: model.ChartTable, TopN: opts.TopN}
	}
}

// lineValueField picks the series metric for line charts: payments when
// mapped, else the first mapped numeric field.
func lineValueField(mapping model.FieldMapping) model.Field {
	if mapping.Has(model.FieldPayments) {
		return model.FieldPayments
	}
	numeric := mapping.MappedNumeric()
	if len(numeric) > 0 {
		return numeric[0]
	}
	return ""
}
