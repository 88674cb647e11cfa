package csvimport

import (
	"time"

	"atlasinvoice/internal/domain"
)

// Source describes the upload a set of rows came from.
type Source struct {
	Month      string
	FileName   string
	UploadedAt time.Time
}

type Result struct {
	Invoice     domain.Invoice     `json:"invoice"`
	Delta       domain.Delta       `json:"delta"`
	Warnings    []Warning          `json:"warnings,omitempty"`
	RowsTotal   int                `json:"rows_total"`
	RowsDropped int                `json:"rows_dropped"`
	Drops       map[DropReason]int `json:"drops,omitempty"`
}

// Normalize classifies and resolves the rows of one file and folds them into
// a new invoice. It does not touch any store: the caller applies Delta.
func Normalize(rows []Row, src Source) Result {
	kept, drops := Classify(rows)
	fileDate, hasFileDate := DateFromFilename(src.FileName)

	items := make([]domain.LineItem, 0, len(kept))
	var warnings []Warning
	for _, row := range kept {
		draft := ResolveRow(row)
		if draft.Item.Date == "" && hasFileDate {
			draft.Item.Date = fileDate.Format(time.DateOnly)
		}
		items = append(items, draft.Item)
		warnings = append(warnings, draft.Warnings...)
	}

	invoice := domain.NewInvoice(src.FileName, src.UploadedAt, items)
	return Result{
		Invoice:     invoice,
		Delta:       invoice.Delta(src.Month),
		Warnings:    warnings,
		RowsTotal:   len(rows),
		RowsDropped: len(rows) - len(kept),
		Drops:       drops,
	}
}

var itemHeaders = []string{"Model", "Quantity", "IMEI", "Date", "Line Amount"}

// ItemRows renders canonical items as rows that normalize back to the same
// items. Exports use the same headers so they can be re-imported.
func ItemRows(items []domain.LineItem) []Row {
	rows := make([]Row, 0, len(items))
	for i, item := range items {
		values := []any{
			item.Model,
			item.Quantity.InexactFloat64(),
			item.IMEI,
			item.Date,
			item.Price.InexactFloat64(),
		}
		raws := ItemRecord(item)
		row := Row{Line: i + 2, Cells: make([]Cell, len(itemHeaders))}
		for j, header := range itemHeaders {
			value := values[j]
			if s, ok := value.(string); ok && s == "" {
				value = nil
			}
			row.Cells[j] = Cell{Header: header, Raw: raws[j], Value: value}
		}
		rows = append(rows, row)
	}
	return rows
}

// ItemHeaders returns the export header row.
func ItemHeaders() []string {
	return append([]string(nil), itemHeaders...)
}

// ItemRecord renders one item in the export column order.
func ItemRecord(item domain.LineItem) []string {
	return []string{item.Model, item.Quantity.String(), item.IMEI, item.Date, item.Price.String()}
}
