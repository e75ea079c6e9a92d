package export

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/insight-cli/internal/model"
)

func exportMapping() model.FieldMapping {
	return model.FieldMapping{
		model.FieldName:  "vendor",
		model.FieldSpend: "total",
		model.FieldDate:  "paid_on",
		model.FieldCity:  "city",
	}
}

func exportRecords() []model.Record {
	date := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	return []model.Record{
		{
			ID:          0,
			Name:        "Acme",
			Numeric:     map[model.Field]float64{model.FieldSpend: 120.5},
			Categorical: map[model.Field]string{model.FieldCity: "Austin"},
			Date:        &date,
			Coordinates: &model.Coordinates{Lat: 30.27, Lon: -97.74},
		},
		{
			ID:          1,
			Name:        "Globex",
			Numeric:     map[model.Field]float64{model.FieldSpend: 75},
			Categorical: map[model.Field]string{model.FieldCity: ""},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, exportRecords(), exportMapping()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Canonical columns in declaration order, only the mapped ones.
	assert.Equal(t, []string{"name", "spend", "date", "city"}, rows[0])
	assert.Equal(t, []string{"Acme", "120.5", "2024-02-10", "Austin"}, rows[1])
	// Absent date and empty city render as empty cells.
	assert.Equal(t, []string{"Globex", "75", "", ""}, rows[2])
}

func TestWriteCSV_NoRecords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil, exportMapping()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1, "header only")
	assert.Equal(t, "name,spend,date,city", lines[0])
}

func TestWriteXLSX_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "vendors", exportRecords(), exportMapping()))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)

	sheet := file.Sheets[0]
	assert.Equal(t, "vendors", sheet.Name)
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, "name", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "Acme", sheet.Rows[1].Cells[0].String())

	spend, err := sheet.Rows[1].Cells[1].Float()
	require.NoError(t, err)
	assert.Equal(t, 120.5, spend)
}

func TestWriteShapefile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vendors.shp")

	n, err := WriteShapefile(path, exportRecords())
	require.NoError(t, err)
	// Globex has no coordinates and is skipped.
	assert.Equal(t, 1, n)

	reader, err := shp.Open(path)
	require.NoError(t, err)
	defer reader.Close()

	require.True(t, reader.Next())
	_, shape := reader.Shape()
	point, ok := shape.(*shp.Point)
	require.True(t, ok)
	assert.InDelta(t, -97.74, point.X, 1e-9)
	assert.InDelta(t, 30.27, point.Y, 1e-9)

	attr := strings.TrimRight(reader.Attribute(0), "\x00")
	assert.Equal(t, "Acme", strings.TrimSpace(attr))

	assert.False(t, reader.Next())
}

func TestWriteShapefile_NoGeolocatedRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.shp")

	n, err := WriteShapefile(path, []model.Record{{ID: 0, Name: "A"}})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
