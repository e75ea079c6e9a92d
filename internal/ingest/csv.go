package ingest

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// parseCSV parses CSV bytes into a single implicit sheet. The first row
// is always treated as the header; headerless input is not supported.
func parseCSV(data []byte, opts Options) (*Dataset, error) {
	var src io.Reader = bytes.NewReader(data)

	if opts.Encoding != "" {
		enc, err := htmlindex.Get(opts.Encoding)
		if err != nil {
			return nil, parseFailure("unknown charset "+opts.Encoding, err)
		}
		src = transform.NewReader(src, enc.NewDecoder())
	}

	reader := csv.NewReader(src)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1 // allow variable fields

	var header []string
	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, parseFailure("malformed csv", err)
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		if header == nil {
			header = dedupeHeader(record)
			continue
		}
		rows = append(rows, record)
	}

	if header == nil {
		return nil, &IngestError{Kind: KindEmptyDataset, Detail: "no header row"}
	}

	return &Dataset{Sheets: []Sheet{{
		Name:   "Sheet1",
		Header: header,
		Rows:   rowsToRaw(header, rows),
	}}}, nil
}
