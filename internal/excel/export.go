package excel

import (
	"encoding/csv"
	"fmt"
	"io"

	"atlasinvoice/internal/csvimport"
	"atlasinvoice/internal/domain"

	"github.com/xuri/excelize/v2"
)

const (
	InvoicesSheet = "Invoices"
	ItemsSheet    = "Items"
)

var invoiceHeaders = []string{"File Name", "Uploaded", "Invoice ID", "Devices", "Total"}

// WriteMonthWorkbook writes one month as an xlsx workbook. The Items sheet uses
// the import column layout so it can be saved as CSV and uploaded again.
func WriteMonthWorkbook(w io.Writer, month string, bucket domain.MonthBucket) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName(file.GetSheetName(0), InvoicesSheet); err != nil {
		return fmt.Errorf("rename first sheet: %w", err)
	}
	if _, err := file.NewSheet(ItemsSheet); err != nil {
		return fmt.Errorf("create items sheet: %w", err)
	}
	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeRow(file, InvoicesSheet, 1, stringsToCells(invoiceHeaders)); err != nil {
		return err
	}
	row := 2
	for _, inv := range bucket.Invoices {
		if err := writeRow(file, InvoicesSheet, row, []any{
			inv.FileName,
			inv.UploadedAt.Format("2006-01-02 15:04"),
			inv.ID.String(),
			inv.DeviceCount.InexactFloat64(),
			inv.TotalAmount.InexactFloat64(),
		}); err != nil {
			return err
		}
		row++
	}
	if err := writeRow(file, InvoicesSheet, row, []any{
		month + " total",
		"",
		"",
		bucket.TotalDevices.InexactFloat64(),
		bucket.TotalPaid.InexactFloat64(),
	}); err != nil {
		return err
	}
	if err := file.SetRowStyle(InvoicesSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("style invoices header: %w", err)
	}
	if err := file.SetRowStyle(InvoicesSheet, row, row, bold); err != nil {
		return fmt.Errorf("style invoices total: %w", err)
	}

	if err := writeRow(file, ItemsSheet, 1, stringsToCells(csvimport.ItemHeaders())); err != nil {
		return err
	}
	row = 2
	for _, inv := range bucket.Invoices {
		for _, item := range inv.Items {
			if err := writeRow(file, ItemsSheet, row, []any{
				item.Model,
				item.Quantity.InexactFloat64(),
				item.IMEI,
				item.Date,
				item.Price.InexactFloat64(),
			}); err != nil {
				return err
			}
			row++
		}
	}
	if err := file.SetRowStyle(ItemsSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("style items header: %w", err)
	}

	file.SetActiveSheet(0)
	if _, err := file.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteItemsCSV writes every line item of the bucket in the import column
// layout.
func WriteItemsCSV(w io.Writer, bucket domain.MonthBucket) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvimport.ItemHeaders()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, inv := range bucket.Invoices {
		for _, item := range inv.Items {
			if err := writer.Write(csvimport.ItemRecord(item)); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func writeRow(file *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name for row %d: %w", row, err)
	}
	if err := file.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func stringsToCells(values []string) []any {
	out := make([]any, len(values))
	for i, value := range values {
		out[i] = value
	}
	return out
}
