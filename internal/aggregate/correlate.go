package aggregate

import (
	"math"

	"github.com/sells-group/insight-cli/internal/model"
)

// correlationMatrix computes pairwise Pearson coefficients over every
// mapped numeric field, including the diagonal. A zero-variance field
// correlates as 0 with everything (itself included) so no NaN reaches
// the renderer.
func correlationMatrix(records []model.Record, fields []model.Field) (*model.CorrelationMatrix, error) {
	if len(fields) < 2 {
		return nil, insufficient("heatmap requires two numeric fields")
	}

	columns := make([][]float64, len(fields))
	for i, f := range fields {
		col := make([]float64, len(records))
		for j, rec := range records {
			col[j] = rec.NumericValue(f)
		}
		columns[i] = col
	}

	values := make([][]float64, len(fields))
	for i := range fields {
		values[i] = make([]float64, len(fields))
		for j := range fields {
			values[i][j] = pearson(columns[i], columns[j])
		}
	}

	return &model.CorrelationMatrix{Fields: fields, Values: values}, nil
}

// pearson computes the Pearson correlation coefficient of two
// equal-length series. When either series has zero variance the result
// is defined as 0, not NaN. A non-constant series correlated with
// itself yields exactly 1.
func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	if n == 0 {
		return 0
	}

	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}
