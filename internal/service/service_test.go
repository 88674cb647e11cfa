package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"atlasinvoice/internal/csvimport"
	"atlasinvoice/internal/domain"
	"atlasinvoice/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingBackend struct{}

func (failingBackend) Name() string { return "broken" }

func (failingBackend) Load(context.Context) (map[string]domain.MonthBucket, error) {
	return map[string]domain.MonthBucket{}, nil
}

func (failingBackend) SaveMonth(context.Context, string, domain.MonthBucket) error {
	return errors.New("backend offline")
}

const vendorCSV = "Model,Qty,Unit Price,IMEI\n" +
	"iPhone 12,2,$100,0012\n" +
	"Galaxy S21,1,\"$1,050.25\",3344\n" +
	"Total,,$1250.25,\n"

func newService(backend store.Backend) *Service {
	svc := New(store.New(backend, nil), nil, "USD")
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC) }
	return svc
}

func upload(t *testing.T, svc *Service, month, name, body string) UploadResult {
	t.Helper()
	result, err := svc.Upload(context.Background(), UploadInput{
		Month:       month,
		FileName:    name,
		ContentType: "text/csv",
		Body:        strings.NewReader(body),
	})
	require.NoError(t, err)
	return result
}

func TestUpload_NormalizesAndStores(t *testing.T) {
	svc := newService(nil)
	result := upload(t, svc, "march", "vendor.csv", vendorCSV)

	assert.True(t, result.Saved)
	assert.Equal(t, "March", result.Month)
	assert.Equal(t, 3, result.RowsTotal)
	assert.Equal(t, 1, result.RowsDropped)
	assert.Equal(t, 1, result.Drops[csvimport.DropSummary])
	require.Len(t, result.Invoice.Items, 2)
	assert.Equal(t, "0012", result.Invoice.Items[0].IMEI)
	assert.True(t, result.Invoice.Items[0].Price.Equal(decimal.NewFromInt(200)))
	assert.True(t, result.Invoice.TotalAmount.Equal(decimal.RequireFromString("1250.25")))
	assert.True(t, result.Delta.Devices.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, 1, result.Totals.InvoiceCount)
	assert.Empty(t, result.Warnings)

	detail, err := svc.MonthDetail("March")
	require.NoError(t, err)
	require.Len(t, detail.Items, 2)
	assert.Equal(t, "2024-03-10", detail.Items[0].DisplayDate)
	assert.Equal(t, "$1,250.25", detail.Display.TotalPaid)
}

func TestUpload_RejectsNonCSV(t *testing.T) {
	svc := newService(nil)
	_, err := svc.Upload(context.Background(), UploadInput{
		Month:       "March",
		FileName:    "photo.png",
		ContentType: "image/png",
		Body:        strings.NewReader(vendorCSV),
	})
	assert.ErrorIs(t, err, ErrNotCSV)

	detail, err := svc.MonthDetail("March")
	require.NoError(t, err)
	assert.Empty(t, detail.Invoices)
}

func TestUpload_UnknownMonthAndEmptyFile(t *testing.T) {
	svc := newService(nil)
	_, err := svc.Upload(context.Background(), UploadInput{Month: "Smarch", FileName: "a.csv", Body: strings.NewReader(vendorCSV)})
	assert.ErrorIs(t, err, store.ErrUnknownMonth)

	_, err = svc.Upload(context.Background(), UploadInput{Month: "May", FileName: "a.csv", Body: strings.NewReader("")})
	assert.ErrorIs(t, err, ErrInvalidCSV)
}

func TestUpload_PersistFailureKeepsInvoice(t *testing.T) {
	svc := newService(failingBackend{})
	result := upload(t, svc, "April", "vendor.csv", vendorCSV)

	assert.False(t, result.Saved)
	assert.Contains(t, result.SaveError, "backend offline")

	months := svc.Months()
	require.Len(t, months, 12)
	assert.Equal(t, "April", months[3].Month)
	assert.Equal(t, 1, months[3].InvoiceCount)
}

func TestDeleteAndClear(t *testing.T) {
	svc := newService(nil)
	first := upload(t, svc, "June", "a.csv", "Model,Qty,Total\nA,2,100\n")
	upload(t, svc, "June", "b.csv", "Model,Qty,Total\nB,1,50\n")

	result, err := svc.DeleteInvoice(context.Background(), "june", first.Invoice.ID.String())
	require.NoError(t, err)
	assert.True(t, result.Saved)
	assert.Equal(t, 1, result.Totals.InvoiceCount)
	assert.True(t, result.Totals.TotalPaid.Equal(decimal.NewFromInt(50)))
	assert.True(t, result.Totals.TotalDevices.Equal(decimal.NewFromInt(1)))

	_, err = svc.DeleteInvoice(context.Background(), "June", "not-a-uuid")
	assert.ErrorIs(t, err, store.ErrInvoiceNotFound)

	cleared, err := svc.ClearMonth(context.Background(), "June")
	require.NoError(t, err)
	assert.Equal(t, 0, cleared.Totals.InvoiceCount)
}

func TestDashboard(t *testing.T) {
	svc := newService(nil)
	upload(t, svc, "January", "a.csv", "Model,Qty,Total\niPhone 12,2,300\nPixel 7,1,100\n")
	upload(t, svc, "February", "b.csv", "Model,Qty,Total\niPhone 12,1,150\n")
	_, err := svc.store.AddInvoice(context.Background(), "February", domain.NewInvoice("manual.csv", time.Now(), []domain.LineItem{
		{Model: "  ", Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(10)},
	}))
	require.NoError(t, err)

	year, err := svc.Dashboard("year")
	require.NoError(t, err)
	assert.Equal(t, "year", year.Filter)
	assert.True(t, year.TotalDevices.Equal(decimal.NewFromInt(5)))
	assert.True(t, year.TotalRevenue.Equal(decimal.NewFromInt(560)))
	assert.True(t, year.AveragePrice.Equal(decimal.NewFromInt(112)))
	assert.Equal(t, 3, year.InvoiceCount)
	assert.Equal(t, "$560.00", year.Display.TotalRevenue)

	require.Len(t, year.Series, 12)
	assert.Equal(t, "Jan", year.Series[0].Label)
	assert.True(t, year.Series[1].Revenue.Equal(decimal.NewFromInt(160)))

	require.Len(t, year.TopDevices, 3)
	assert.Equal(t, "iPhone 12", year.TopDevices[0].Model)
	assert.True(t, year.TopDevices[0].Units.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, "$450.00", year.TopDevices[0].Display)
	assert.Equal(t, "Unknown", year.TopDevices[2].Model)

	feb, err := svc.Dashboard("feb")
	require.NoError(t, err)
	assert.Equal(t, "February", feb.Filter)
	assert.Equal(t, 2, feb.InvoiceCount)

	empty, err := svc.Dashboard("December")
	require.NoError(t, err)
	assert.True(t, empty.AveragePrice.IsZero())
	assert.Empty(t, empty.TopDevices)

	_, err = svc.Dashboard("someday")
	assert.ErrorIs(t, err, store.ErrUnknownMonth)
}

func TestDashboard_TopDevicesLimit(t *testing.T) {
	svc := newService(nil)
	upload(t, svc, "May", "a.csv", "Model,Total\nA,10\nB,20\nC,30\nD,40\nE,50\nF,60\n")

	dash, err := svc.Dashboard("")
	require.NoError(t, err)
	require.Len(t, dash.TopDevices, 5)
	assert.Equal(t, "F", dash.TopDevices[0].Model)
	assert.Equal(t, "B", dash.TopDevices[4].Model)
}

func TestSearch(t *testing.T) {
	svc := newService(nil)
	upload(t, svc, "March", "vendor.csv", vendorCSV)
	upload(t, svc, "July", "july.csv", "Model,IMEI,Total\nIPHONE 13,990012,500\n")

	hits, err := svc.Search("  iphone ")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "March", hits[0].Month)
	assert.Equal(t, "July", hits[1].Month)
	assert.Equal(t, "july.csv", hits[1].FileName)
	assert.Equal(t, "$500.00", hits[1].Display)

	hits, err = svc.Search("0012")
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	_, err = svc.Search("   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestExportMonth(t *testing.T) {
	svc := newService(nil)
	upload(t, svc, "March", "vendor.csv", vendorCSV)

	var buf bytes.Buffer
	month, err := svc.ExportMonth(&buf, "mar", ExportCSV)
	require.NoError(t, err)
	assert.Equal(t, "March", month)
	assert.True(t, strings.HasPrefix(buf.String(), "Model,Quantity,IMEI,Date,Line Amount\n"))
	assert.Contains(t, buf.String(), "iPhone 12,2,0012,,200\n")

	buf.Reset()
	_, err = svc.ExportMonth(&buf, "March", ExportXLSX)
	require.NoError(t, err)
	assert.NotZero(t, buf.Len())

	_, err = ParseExportFormat("pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)
	format, err := ParseExportFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, "march-items.xlsx", format.FileName("March"))
}

func TestIsCSV(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		want        bool
	}{
		{"invoice.csv", "", true},
		{"INVOICE.CSV", "application/octet-stream", true},
		{"export", "text/csv; charset=utf-8", true},
		{"invoice.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", false},
		{"notes.txt", "text/plain", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsCSV(tt.name, tt.contentType), tt.name)
	}
}

func TestFormatMoney(t *testing.T) {
	svc := New(store.New(nil, nil), nil, "usd")
	assert.Equal(t, "$1,234.50", svc.FormatMoney(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "$0.01", svc.FormatMoney(decimal.RequireFromString("0.005")))

	unknown := New(store.New(nil, nil), nil, "ZZZ")
	assert.Equal(t, "12.30 ZZZ", unknown.FormatMoney(decimal.RequireFromString("12.3")))
}
