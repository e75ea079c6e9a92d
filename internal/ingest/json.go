package ingest

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/sells-group/insight-cli/internal/model"
)

// parseJSON parses a JSON array of flat objects into a single sheet.
// Column order follows first appearance across the array, so the header
// is deterministic for a given input.
func parseJSON(data []byte, _ Options) (*Dataset, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, parseFailure("read opening token", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, parseFailure("expected a JSON array of objects", nil)
	}

	var header []string
	seen := make(map[string]bool)
	var rows []model.RawRow

	for dec.More() {
		row, order, err := decodeObject(dec)
		if err != nil {
			return nil, err
		}
		for _, k := range order {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, &IngestError{Kind: KindEmptyDataset, Detail: "empty JSON array"}
	}

	// Backfill keys absent from individual objects.
	for _, row := range rows {
		for _, h := range header {
			if _, ok := row[h]; !ok {
				row[h] = ""
			}
		}
	}

	return &Dataset{Sheets: []Sheet{{
		Name:   "Sheet1",
		Header: header,
		Rows:   rows,
	}}}, nil
}

// decodeObject reads one object from the decoder, preserving key order.
func decodeObject(dec *json.Decoder) (model.RawRow, []string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, parseFailure("read object", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, parseFailure("array element is not an object", nil)
	}

	row := make(model.RawRow)
	var order []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, nil, parseFailure("read object key", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, nil, parseFailure("object key is not a string", nil)
		}

		var val any
		if err := dec.Decode(&val); err != nil {
			return nil, nil, parseFailure("decode value for "+key, err)
		}
		row[key] = stringifyCell(val)
		order = append(order, key)
	}

	if _, err := dec.Token(); err != nil { // closing '}'
		return nil, nil, parseFailure("read object end", err)
	}
	return row, order, nil
}

func stringifyCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		// Nested structures are kept as compact JSON for display.
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
