// Package ingest turns raw tabular input (CSV text, XLSX binary, JSON
// arrays) into ordered sequences of untyped rows keyed by header name.
// It owns no side effects beyond returning data.
package ingest

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/insight-cli/internal/model"
)

// Format identifies a supported input format.
type Format string

const (
	FormatAuto Format = "auto"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// ErrorKind classifies ingestion failures.
type ErrorKind string

const (
	KindParseFailure      ErrorKind = "parse_failure"
	KindEmptyDataset      ErrorKind = "empty_dataset"
	KindUnsupportedFormat ErrorKind = "unsupported_format"
)

// IngestError is a reported, recoverable ingestion failure. Callers keep
// the previous dataset active and surface the kind to the user.
type IngestError struct {
	Kind   ErrorKind
	Detail string
	cause  error
}

func (e *IngestError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("ingest: %s: %s: %v", e.Kind, e.Detail, e.cause)
	}
	return fmt.Sprintf("ingest: %s: %s", e.Kind, e.Detail)
}

func (e *IngestError) Unwrap() error { return e.cause }

func parseFailure(detail string, cause error) *IngestError {
	return &IngestError{Kind: KindParseFailure, Detail: detail, cause: cause}
}

// Options configures parsing.
type Options struct {
	// Format is the caller-declared format. FormatAuto (or empty) sniffs
	// from Name's extension, then from leading bytes.
	Format Format
	// Name is the source file name, used for format detection and as
	// the dataset name.
	Name string
	// Delimiter overrides the CSV delimiter (default ',').
	Delimiter rune
	// Encoding is an optional IANA charset name for CSV input; empty
	// means UTF-8.
	Encoding string
}

// Sheet is one ordered row sequence. CSV and JSON sources produce a
// single implicit sheet; XLSX exposes every sheet by name.
type Sheet struct {
	Name   string
	Header []string
	Rows   []model.RawRow
}

// Dataset is the parsed result of one source.
type Dataset struct {
	Name   string
	Format Format
	Sheets []Sheet
}

// ActiveSheet returns the sheet with the given name, or the first
// non-empty sheet when name is "".
func (d *Dataset) ActiveSheet(name string) (*Sheet, error) {
	if name != "" {
		for i := range d.Sheets {
			if d.Sheets[i].Name == name {
				return &d.Sheets[i], nil
			}
		}
		return nil, eris.Errorf("ingest: sheet %q not found", name)
	}
	for i := range d.Sheets {
		if len(d.Sheets[i].Rows) > 0 {
			return &d.Sheets[i], nil
		}
	}
	return nil, &IngestError{Kind: KindEmptyDataset, Detail: "no sheet contains data rows"}
}

// Ingest parses r into a Dataset. Failures surface as *IngestError; the
// function never panics on malformed input.
func Ingest(r io.Reader, opts Options) (*Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, parseFailure("read source", err)
	}

	format := opts.Format
	if format == "" || format == FormatAuto {
		format = DetectFormat(opts.Name, data)
	}

	var ds *Dataset
	switch format {
	case FormatCSV:
		ds, err = parseCSV(data, opts)
	case FormatXLSX:
		ds, err = parseXLSX(data, opts)
	case FormatJSON:
		ds, err = parseJSON(data, opts)
	default:
		return nil, &IngestError{Kind: KindUnsupportedFormat, Detail: string(format)}
	}
	if err != nil {
		return nil, err
	}

	if !hasDataRows(ds) {
		return nil, &IngestError{Kind: KindEmptyDataset, Detail: "no data rows after header"}
	}
	ds.Name = opts.Name
	ds.Format = format
	return ds, nil
}

func hasDataRows(ds *Dataset) bool {
	for _, s := range ds.Sheets {
		if len(s.Rows) > 0 {
			return true
		}
	}
	return false
}

// DetectFormat sniffs the input format from the file extension, falling
// back to content inspection.
func DetectFormat(name string, head []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".txt":
		return FormatCSV
	case ".xlsx", ".xls":
		return FormatXLSX
	case ".json":
		return FormatJSON
	}

	// XLSX files are ZIP archives.
	if bytes.HasPrefix(head, []byte("PK")) {
		return FormatXLSX
	}
	trimmed := bytes.TrimLeft(head, " \t\r\n")
	if bytes.HasPrefix(trimmed, []byte("[")) || bytes.HasPrefix(trimmed, []byte("{")) {
		return FormatJSON
	}
	return FormatCSV
}

// rowsToRaw zips header and cell slices into RawRows. Short rows pad
// with ""; long rows drop trailing cells beyond the header width.
func rowsToRaw(header []string, rows [][]string) []model.RawRow {
	out := make([]model.RawRow, 0, len(rows))
	for _, cells := range rows {
		row := make(model.RawRow, len(header))
		for i, h := range header {
			if i < len(cells) {
				row[h] = cells[i]
			} else {
				row[h] = ""
			}
		}
		out = append(out, row)
	}
	return out
}

// dedupeHeader suffixes repeated header names so RawRow keys stay
// unique ("Total", "Total (2)", ...). Blank headers become positional
// names.
func dedupeHeader(header []string) []string {
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		if n := seen[h]; n > 0 {
			seen[h] = n + 1
			h = fmt.Sprintf("%s (%d)", h, n+1)
		}
		seen[h]++
		out[i] = h
	}
	return out
}
