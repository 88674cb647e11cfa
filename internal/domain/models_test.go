package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(model string, qty, price string) LineItem {
	return LineItem{Model: model, Quantity: decimal.RequireFromString(qty), Price: decimal.RequireFromString(price)}
}

func TestNewInvoice_SumsItems(t *testing.T) {
	uploaded := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	inv := NewInvoice("may.csv", uploaded, []LineItem{
		item("iPhone 12", "2", "100.10"),
		item("iPhone 13", "1", "0.20"),
	})

	assert.True(t, inv.DeviceCount.Equal(decimal.NewFromInt(3)))
	assert.True(t, inv.TotalAmount.Equal(decimal.RequireFromString("100.3")))
	assert.Equal(t, "may.csv", inv.FileName)
	assert.Len(t, inv.Items, 2)

	delta := inv.Delta("May")
	assert.Equal(t, "May", delta.Month)
	assert.True(t, delta.Paid.Equal(inv.TotalAmount))
}

func TestNewInvoice_Empty(t *testing.T) {
	inv := NewInvoice("empty.csv", time.Now(), nil)
	assert.NotNil(t, inv.Items)
	assert.True(t, inv.DeviceCount.IsZero())
	assert.True(t, inv.TotalAmount.IsZero())
}

func TestMonthBucket_Recompute(t *testing.T) {
	bucket := EmptyBucket()
	bucket.Invoices = append(bucket.Invoices,
		NewInvoice("a.csv", time.Now(), []LineItem{item("A", "2", "100")}),
		NewInvoice("b.csv", time.Now(), []LineItem{item("B", "1", "50")}),
	)
	bucket.TotalPaid = decimal.NewFromInt(999)
	bucket.Recompute()

	assert.True(t, bucket.TotalDevices.Equal(decimal.NewFromInt(3)))
	assert.True(t, bucket.TotalPaid.Equal(decimal.NewFromInt(150)))
}

func TestMonthBucket_CloneIsDeep(t *testing.T) {
	bucket := EmptyBucket()
	bucket.Invoices = append(bucket.Invoices, NewInvoice("a.csv", time.Now(), []LineItem{item("A", "1", "1")}))
	bucket.Recompute()

	clone := bucket.Clone()
	clone.Invoices[0].Items[0].Model = "changed"

	assert.Equal(t, "A", bucket.Invoices[0].Items[0].Model)
}

func TestParseMonth(t *testing.T) {
	tests := map[string]string{
		"march":    "March",
		"MARCH":    "March",
		" Sep ":    "September",
		"december": "December",
	}
	for input, want := range tests {
		got, ok := ParseMonth(input)
		require.True(t, ok, input)
		assert.Equal(t, want, got)
	}

	for _, input := range []string{"", "dashboard", "Marc", "13"} {
		_, ok := ParseMonth(input)
		assert.False(t, ok, input)
	}
}

func TestDisplayDate(t *testing.T) {
	inv := Invoice{UploadedAt: time.Date(2024, 2, 3, 23, 0, 0, 0, time.UTC)}
	assert.Equal(t, "2024-02-03", DisplayDate(LineItem{}, inv))
	assert.Equal(t, "2024-01-31", DisplayDate(LineItem{Date: "2024-01-31"}, inv))
	assert.Equal(t, "April", MonthOf(time.Date(2024, 4, 9, 0, 0, 0, 0, time.UTC)))
}
