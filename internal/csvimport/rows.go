// Package csvimport turns vendor CSV invoice exports into canonical line items.
// Headers are never fixed: columns are recognised by keyword, footer rows are
// filtered out, and unparsable values fall back to safe defaults that are
// reported as warnings instead of errors.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrEmptyFile = errors.New("csv file is empty")
	ErrNoHeader  = errors.New("csv file has no header row")
)

var numericCell = regexp.MustCompile(`^\s*-?(\d+\.?|\.\d+|\d+\.\d+)([eE][-+]?\d+)?\s*$`)

// Cell is one value of a row. Value is nil for blank cells, float64 for
// numeric text, bool for true/false and string otherwise; Raw keeps the
// original text.
type Cell struct {
	Header string
	Raw    string
	Value  any
}

// Row keeps cells in the original column order of the file.
type Row struct {
	Line  int
	Cells []Cell
}

func (r Row) Headers() []string {
	headers := make([]string, len(r.Cells))
	for i, cell := range r.Cells {
		headers[i] = cell.Header
	}
	return headers
}

// Get returns the first cell whose header equals name, ignoring case.
func (r Row) Get(name string) (Cell, bool) {
	for _, cell := range r.Cells {
		if strings.EqualFold(cell.Header, name) {
			return cell, true
		}
	}
	return Cell{}, false
}

// ReadRows parses a CSV document whose first record is the header row.
// Blank lines are skipped, short rows are padded with blank cells and extra
// trailing fields are ignored.
func ReadRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	headers := make([]string, len(header))
	named := 0
	for i, h := range header {
		headers[i] = cleanHeader(h)
		if headers[i] != "" {
			named++
		}
	}
	if named == 0 {
		return nil, ErrNoHeader
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if blankRecord(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		row := Row{Line: line, Cells: make([]Cell, 0, len(headers))}
		for i, h := range headers {
			raw := ""
			if i < len(record) {
				raw = record[i]
			}
			row.Cells = append(row.Cells, Cell{Header: h, Raw: raw, Value: typedValue(raw)})
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cleanHeader(raw string) string {
	value := strings.TrimPrefix(raw, "\ufeff")
	return strings.TrimSpace(value)
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func typedValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	switch trimmed {
	case "true", "TRUE", "True":
		return true
	case "false", "FALSE", "False":
		return false
	}
	if numericCell.MatchString(trimmed) {
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return f
		}
	}
	return raw
}

// cellText renders a cell as display text, preferring the original file text
// so identifiers like serial numbers keep their leading zeros.
func cellText(c Cell) string {
	if raw := strings.TrimSpace(c.Raw); raw != "" {
		return raw
	}
	switch v := c.Value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
