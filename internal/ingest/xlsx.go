package ingest

import (
	"github.com/tealeg/xlsx/v2"
)

// parseXLSX parses an XLSX workbook. Every sheet is exposed; the first
// row of each sheet is its header. Sheets without a header row are
// carried with zero rows so callers can still list them.
func parseXLSX(data []byte, _ Options) (*Dataset, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, parseFailure("corrupt workbook", err)
	}

	ds := &Dataset{}
	for _, sheet := range f.Sheets {
		var header []string
		var rows [][]string
		for i, row := range sheet.Rows {
			cells := make([]string, len(row.Cells))
			for j, cell := range row.Cells {
				cells[j] = cell.String()
			}
			if i == 0 {
				header = dedupeHeader(cells)
				continue
			}
			rows = append(rows, cells)
		}

		s := Sheet{Name: sheet.Name, Header: header}
		if header != nil {
			s.Rows = rowsToRaw(header, rows)
		}
		ds.Sheets = append(ds.Sheets, s)
	}

	if len(ds.Sheets) == 0 {
		return nil, &IngestError{Kind: KindEmptyDataset, Detail: "workbook has no sheets"}
	}
	return ds, nil
}
