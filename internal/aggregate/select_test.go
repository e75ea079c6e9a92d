package aggregate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insight-cli/internal/model"
)

func TestSelect_AutoPriority(t *testing.T) {
	tests := []struct {
		name    string
		mapping model.FieldMapping
		want    model.ChartType
	}{
		{
			"three numerics pick bubble",
			model.FieldMapping{
				model.FieldSpend: "s", model.FieldPayments: "p", model.FieldInvoiceCount: "i",
				model.FieldName: "n",
			},
			model.ChartBubble,
		},
		{
			"categorical plus numeric pick bar",
			model.FieldMapping{model.FieldRegion: "region", model.FieldSpend: "spend"},
			model.ChartBar,
		},
		{
			"temporal plus numeric pick line",
			model.FieldMapping{model.FieldDate: "d", model.FieldSpend: "s"},
			model.ChartLine,
		},
		{
			"categorical only picks pie",
			model.FieldMapping{model.FieldPaymentType: "pt"},
			model.ChartPie,
		},
		{
			"nothing usable picks table",
			model.FieldMapping{},
			model.ChartTable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := Select(tt.mapping, model.ChartAuto, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec.Type)
		})
	}
}

func TestSelect_AutoBarFields(t *testing.T) {
	mapping := model.FieldMapping{model.FieldRegion: "region", model.FieldSpend: "spend"}
	spec, err := Select(mapping, model.ChartAuto, Options{})
	require.NoError(t, err)
	assert.Equal(t, model.ChartBar, spec.Type)
	assert.Equal(t, model.FieldRegion, spec.Category)
	assert.Equal(t, model.FieldSpend, spec.Value)
}

func TestSelect_ExplicitScatterNeedsTwoNumerics(t *testing.T) {
	mapping := model.FieldMapping{model.FieldSpend: "s"}
	_, err := Select(mapping, model.ChartScatter, Options{})

	var ae *AggregationError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, KindInsufficientFields, ae.Kind)
}

func TestSelect_BubbleDegradesFieldReuse(t *testing.T) {
	mapping := model.FieldMapping{model.FieldSpend: "s"}
	spec, err := Select(mapping, model.ChartBubble, Options{})
	require.NoError(t, err)
	assert.Equal(t, model.FieldSpend, spec.X)
	assert.Equal(t, model.FieldSpend, spec.Y)
	assert.Equal(t, model.FieldSpend, spec.Size)
}

func TestSelect_TopNFloor(t *testing.T) {
	mapping := model.FieldMapping{model.FieldRegion: "r", model.FieldSpend: "s"}
	spec, err := Select(mapping, model.ChartBar, Options{TopN: 2})
	require.NoError(t, err)
	assert.Equal(t, MinTopN, spec.TopN)

	spec, err = Select(mapping, model.ChartBar, Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultTopN, spec.TopN)
}
