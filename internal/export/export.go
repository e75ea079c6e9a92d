// Package export writes the filtered record set out as CSV, XLSX, or a
// point shapefile. Exports always reflect the canonical columns the
// dataset actually mapped, in declaration order, so every format shows
// the same table.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/insight-cli/internal/model"
)

// columns returns the mapped canonical fields in declaration order.
func columns(mapping model.FieldMapping) []model.Field {
	var out []model.Field
	for _, f := range model.Fields {
		if mapping.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// cellText renders one field of a record for textual formats. Absent
// values render empty, matching the CSV convention for missing data.
func cellText(rec model.Record, f model.Field) string {
	switch f {
	case model.FieldName:
		return rec.Name
	case model.FieldSpend, model.FieldPayments, model.FieldInvoiceCount:
		return strconv.FormatFloat(rec.NumericValue(f), 'f', -1, 64)
	case model.FieldHasPO:
		return strconv.FormatBool(rec.HasPO)
	case model.FieldDate:
		if rec.Date == nil {
			return ""
		}
		return rec.Date.Format("2006-01-02")
	case model.FieldLatitude:
		if rec.Coordinates == nil {
			return ""
		}
		return strconv.FormatFloat(rec.Coordinates.Lat, 'f', -1, 64)
	case model.FieldLongitude:
		if rec.Coordinates == nil {
			return ""
		}
		return strconv.FormatFloat(rec.Coordinates.Lon, 'f', -1, 64)
	default:
		return rec.Categorical[f]
	}
}

// WriteCSV writes records as CSV with a canonical header row.
func WriteCSV(w io.Writer, records []model.Record, mapping model.FieldMapping) error {
	cols := columns(mapping)
	cw := csv.NewWriter(w)

	header := make([]string, len(cols))
	for i, f := range cols {
		header[i] = string(f)
	}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}

	row := make([]string, len(cols))
	for _, rec := range records {
		for i, f := range cols {
			row[i] = cellText(rec, f)
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrapf(err, "export: write csv row %d", rec.ID)
		}
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// WriteXLSX writes records as a single-sheet workbook. Numeric and
// boolean fields keep their types so spreadsheet formulas work on the
// exported data.
func WriteXLSX(w io.Writer, sheetName string, records []model.Record, mapping model.FieldMapping) error {
	cols := columns(mapping)

	file := xlsx.NewFile()
	sheet, err := file.AddSheet(sheetName)
	if err != nil {
		return eris.Wrapf(err, "export: add sheet %s", sheetName)
	}

	header := sheet.AddRow()
	for _, f := range cols {
		header.AddCell().SetString(string(f))
	}

	for _, rec := range records {
		row := sheet.AddRow()
		for _, f := range cols {
			cell := row.AddCell()
			switch f {
			case model.FieldSpend, model.FieldPayments, model.FieldInvoiceCount:
				cell.SetFloat(rec.NumericValue(f))
			case model.FieldHasPO:
				cell.SetBool(rec.HasPO)
			default:
				cell.SetString(cellText(rec, f))
			}
		}
	}

	return eris.Wrap(file.Write(w), "export: write xlsx")
}
