package aggregate

import (
	"fmt"
	"sort"

	"github.com/sells-group/insight-cli/internal/model"
)

// Aggregate computes the rendering-ready payload for a chart spec over
// the filtered record set. Results are derived fresh on every call and
// never mutated in place.
func Aggregate(records []model.Record, spec model.ChartSpec, mapping model.FieldMapping, opts Options) (*model.AggregationResult, error) {
	opts = opts.withDefaults()
	if spec.TopN <= 0 {
		spec.TopN = opts.TopN
	} else if spec.TopN < MinTopN {
		spec.TopN = MinTopN
	}

	if len(records) == 0 && spec.Type != model.ChartTable {
		return nil, &AggregationError{Kind: KindEmptyRecordSet, Detail: "no records after filtering"}
	}

	result := &model.AggregationResult{Spec: spec}
	switch spec.Type {
	case model.ChartBar, model.ChartTreemap:
		result.Series = truncateTopN(groupSum(records, spec.Category, spec.Value), spec.TopN)

	case model.ChartPie:
		result.Series = truncateTopN(groupCount(records, spec.Category), spec.TopN)

	case model.ChartLine:
		result.Series = monthlySeries(records, spec.Value)

	case model.ChartScatter:
		result.Points = scatterPoints(records, spec, opts, false)

	case model.ChartBubble:
		result.Points = scatterPoints(records, spec, opts, true)

	case model.ChartHistogram:
		result.Series = histogram(records, spec.Value, opts.HistogramBins)

	case model.ChartHeatmap:
		matrix, err := correlationMatrix(records, mapping.MappedNumeric())
		if err != nil {
			return nil, err
		}
		result.Matrix = matrix

	case model.ChartTable:
		// Raw row display; renderers read the filtered records directly.

	default:
		return nil, insufficient("unknown chart type " + string(spec.Type))
	}

	return result, nil
}

// groupSum buckets records by category value and sums the metric.
// Buckets keep first-encountered order so equal-value ties sort stably.
func groupSum(records []model.Record, category, value model.Field) []model.SeriesPoint {
	return groupBy(records, category, func(rec model.Record) float64 {
		return rec.NumericValue(value)
	})
}

// groupCount buckets records by category value and counts occurrences.
func groupCount(records []model.Record, category model.Field) []model.SeriesPoint {
	return groupBy(records, category, func(model.Record) float64 { return 1 })
}

func groupBy(records []model.Record, category model.Field, metric func(model.Record) float64) []model.SeriesPoint {
	index := make(map[string]int)
	var series []model.SeriesPoint
	for _, rec := range records {
		label := rec.CategoryValue(category)
		i, ok := index[label]
		if !ok {
			i = len(series)
			index[label] = i
			series = append(series, model.SeriesPoint{Label: label})
		}
		series[i].Value += metric(rec)
	}
	return series
}

// truncateTopN sorts descending by value (stable, so ties preserve
// first-encountered order) and keeps the first n buckets.
func truncateTopN(series []model.SeriesPoint, n int) []model.SeriesPoint {
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Value > series[j].Value
	})
	if len(series) > n {
		series = series[:n]
	}
	return series
}

// monthlySeries sums the metric per YYYY-MM bucket. Records with an
// absent date are skipped, never binned at an epoch. Lexicographic
// label order is chronological for this format.
func monthlySeries(records []model.Record, value model.Field) []model.SeriesPoint {
	totals := make(map[string]float64)
	for _, rec := range records {
		bucket := rec.MonthBucket()
		if bucket == "" {
			continue
		}
		totals[bucket] += rec.NumericValue(value)
	}

	labels := make([]string, 0, len(totals))
	for label := range totals {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	series := make([]model.SeriesPoint, len(labels))
	for i, label := range labels {
		series[i] = model.SeriesPoint{Label: label, Value: totals[label]}
	}
	return series
}

// scatterPoints emits one point per record, capped in record order (not
// randomly sampled) to bound rendering cost. Bubble points additionally
// carry a radius scaled into [RadiusMin, RadiusMax].
func scatterPoints(records []model.Record, spec model.ChartSpec, opts Options, bubble bool) []model.XYPoint {
	capped := records
	if len(capped) > opts.ScatterCap {
		capped = capped[:opts.ScatterCap]
	}

	points := make([]model.XYPoint, len(capped))
	for i, rec := range capped {
		points[i] = model.XYPoint{
			RecordID: rec.ID,
			X:        rec.NumericValue(spec.X),
			Y:        rec.NumericValue(spec.Y),
		}
	}

	if bubble {
		sizes := make([]float64, len(capped))
		for i, rec := range capped {
			sizes[i] = rec.NumericValue(spec.Size)
		}
		radii := scaleRadii(sizes, opts.RadiusMin, opts.RadiusMax)
		for i := range points {
			points[i].R = radii[i]
		}
	}
	return points
}

// scaleRadii maps raw size values linearly into [lo, hi]. Negative and
// zero sizes floor at lo so no bubble renders with a zero or negative
// radius; a constant column renders every bubble at lo.
func scaleRadii(sizes []float64, lo, hi float64) []float64 {
	if len(sizes) == 0 {
		return nil
	}
	min, max := sizes[0], sizes[0]
	for _, s := range sizes[1:] {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}

	radii := make([]float64, len(sizes))
	span := max - min
	for i, s := range sizes {
		if span == 0 {
			radii[i] = lo
			continue
		}
		r := lo + (hi-lo)*(s-min)/span
		if r < lo {
			r = lo
		}
		radii[i] = r
	}
	return radii
}

// histogram computes equal-width bins spanning [min, max); the last bin
// is inclusive of max. Values are never dropped: post-normalization
// numerics are always finite.
func histogram(records []model.Record, value model.Field, bins int) []model.SeriesPoint {
	min, max := records[0].NumericValue(value), records[0].NumericValue(value)
	for _, rec := range records[1:] {
		v := rec.NumericValue(value)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	if min == max {
		return []model.SeriesPoint{{
			Label: fmt.Sprintf("[%g, %g]", min, max),
			Value: float64(len(records)),
		}}
	}

	width := (max - min) / float64(bins)
	counts := make([]float64, bins)
	for _, rec := range records {
		idx := int((rec.NumericValue(value) - min) / width)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}

	series := make([]model.SeriesPoint, bins)
	for i := range counts {
		lo := min + float64(i)*width
		hi := lo + width
		series[i] = model.SeriesPoint{
			Label: fmt.Sprintf("[%g, %g)", lo, hi),
			Value: counts[i],
		}
	}
	series[bins-1].Label = fmt.Sprintf("[%g, %g]", min+float64(bins-1)*width, max)
	return series
}
