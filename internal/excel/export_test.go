package excel

import (
	"bytes"
	"testing"
	"time"

	"atlasinvoice/internal/csvimport"
	"atlasinvoice/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleBucket() domain.MonthBucket {
	bucket := domain.EmptyBucket()
	bucket.Invoices = append(bucket.Invoices,
		domain.NewInvoice("vendor-a.csv", time.Date(2024, 3, 2, 9, 15, 0, 0, time.UTC), []domain.LineItem{
			{Model: "iPhone 12", Quantity: decimal.NewFromInt(2), Price: decimal.RequireFromString("410.5"), IMEI: "0035", Date: "2024-03-01"},
			{Model: "Galaxy S21", Quantity: decimal.NewFromInt(1), Price: decimal.RequireFromString("199.99")},
		}),
		domain.NewInvoice("vendor-b.csv", time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), []domain.LineItem{
			{Model: "Pixel 7", Quantity: decimal.NewFromInt(3), Price: decimal.NewFromInt(300), IMEI: "9911"},
		}),
	)
	bucket.Recompute()
	return bucket
}

func TestWriteMonthWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMonthWorkbook(&buf, "March", sampleBucket()))

	file, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, []string{InvoicesSheet, ItemsSheet}, file.GetSheetList())

	invoices, err := file.GetRows(InvoicesSheet)
	require.NoError(t, err)
	require.Len(t, invoices, 4)
	assert.Equal(t, invoiceHeaders, invoices[0])
	assert.Equal(t, "vendor-a.csv", invoices[1][0])
	assert.Equal(t, "March total", invoices[3][0])
	assert.Equal(t, "6", invoices[3][3])
	assert.Equal(t, "910.49", invoices[3][4])

	items, err := file.GetRows(ItemsSheet)
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, csvimport.ItemHeaders(), items[0])
	assert.Equal(t, []string{"iPhone 12", "2", "0035", "2024-03-01", "410.5"}, items[1])
}

func TestWriteItemsCSV_Reimports(t *testing.T) {
	bucket := sampleBucket()
	var buf bytes.Buffer
	require.NoError(t, WriteItemsCSV(&buf, bucket))

	rows, err := csvimport.ReadRows(&buf)
	require.NoError(t, err)
	result := csvimport.Normalize(rows, csvimport.Source{Month: "March", FileName: "march-export.csv", UploadedAt: time.Now()})

	assert.Equal(t, 0, result.RowsDropped)
	assert.True(t, result.Invoice.TotalAmount.Equal(bucket.TotalPaid))
	assert.True(t, result.Invoice.DeviceCount.Equal(bucket.TotalDevices))
	require.Len(t, result.Invoice.Items, 3)
	assert.Equal(t, "0035", result.Invoice.Items[0].IMEI)
	assert.Equal(t, "2024-03-01", result.Invoice.Items[0].Date)
	assert.Equal(t, "Pixel 7", result.Invoice.Items[2].Model)
}
