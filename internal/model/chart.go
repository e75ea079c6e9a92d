package model

// ChartType identifies a chart archetype.
type ChartType string

const (
	ChartBar       ChartType = "bar"
	ChartPie       ChartType = "pie"
	ChartLine      ChartType = "line"
	ChartScatter   ChartType = "scatter"
	ChartBubble    ChartType = "bubble"
	ChartHistogram ChartType = "histogram"
	ChartHeatmap   ChartType = "heatmap"
	ChartTreemap   ChartType = "treemap"
	ChartTable     ChartType = "table"

	// ChartAuto asks the aggregation engine to pick an archetype from
	// the field mapping.
	ChartAuto ChartType = "auto"
)

// ChartSpec describes a concrete, renderable chart: the archetype plus
// the canonical fields feeding each visual channel. Only the fields
// applicable to the type are set.
type ChartSpec struct {
	Type     ChartType `json:"type"`
	Category Field     `json:"category,omitempty"`
	Value    Field     `json:"value,omitempty"`
	X        Field     `json:"x,omitempty"`
	Y        Field     `json:"y,omitempty"`
	Size     Field     `json:"size,omitempty"`

	// TopN caps the number of aggregated buckets retained after the
	// descending sort. Minimum enforced at 5.
	TopN int `json:"topN"`
}

// SeriesPoint is one (label, value) pair of a categorical series.
type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// XYPoint is one point of a coordinate chart. R is the scaled bubble
// radius; it is 0 for scatter points.
type XYPoint struct {
	RecordID int     `json:"recordId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	R        float64 `json:"r,omitempty"`
}

// CorrelationMatrix is a square Pearson correlation matrix over numeric
// fields. Values[i][j] correlates Fields[i] with Fields[j].
type CorrelationMatrix struct {
	Fields []Field     `json:"fields"`
	Values [][]float64 `json:"values"`
}

// AggregationResult is the rendering-ready payload for one chart.
// Exactly one of Series, Points, or Matrix is populated, matching the
// spec type; Table results carry none of them and renderers display the
// filtered records directly. Results are always derived fresh from the
// current filtered record set and never mutated in place.
type AggregationResult struct {
	Spec   ChartSpec          `json:"spec"`
	Series []SeriesPoint      `json:"series,omitempty"`
	Points []XYPoint          `json:"points,omitempty"`
	Matrix *CorrelationMatrix `json:"matrix,omitempty"`
}
