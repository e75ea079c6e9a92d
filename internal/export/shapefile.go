package export

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/model"
)

// shapeAttrs are the DBF columns written alongside each point.
var shapeAttrs = []shp.Field{
	shp.StringField("NAME", 80),
	shp.StringField("CITY", 64),
	shp.FloatField("SPEND", 16, 2),
}

// WriteShapefile writes the geolocated subset of records as a point
// shapefile at path (the .shp extension is expected; go-shp derives the
// .dbf and .shx siblings from it). Records without coordinates are
// skipped, not written at the origin. Returns the number of points
// written.
func WriteShapefile(path string, records []model.Record) (int, error) {
	writer, err := shp.Create(path, shp.POINT)
	if err != nil {
		return 0, eris.Wrapf(err, "export: create shapefile %s", path)
	}
	defer writer.Close()

	if err := writer.SetFields(shapeAttrs); err != nil {
		return 0, eris.Wrap(err, "export: set shapefile fields")
	}

	var written, skipped int
	for _, rec := range records {
		if rec.Coordinates == nil {
			skipped++
			continue
		}

		row := int(writer.Write(&shp.Point{X: rec.Coordinates.Lon, Y: rec.Coordinates.Lat}))
		attrs := []any{rec.Name, rec.Categorical[model.FieldCity], rec.NumericValue(model.FieldSpend)}
		for i, v := range attrs {
			if err := writer.WriteAttribute(row, i, v); err != nil {
				return written, eris.Wrapf(err, "export: write attribute %d for record %d", i, rec.ID)
			}
		}
		written++
	}

	if skipped > 0 {
		zap.L().Debug("export: skipped records without coordinates",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}

	return written, nil
}
