package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const UnknownDevice = "Unknown Device"

// Months lists the calendar month names in order. Every store holds exactly
// one bucket per entry.
var Months = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

type LineItem struct {
	Model     string          `json:"model"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	IMEI      string          `json:"imei"`
	Date      string          `json:"date,omitempty"`
	Defaulted []string        `json:"defaulted,omitempty"`
}

type Invoice struct {
	ID          uuid.UUID       `json:"id"`
	FileName    string          `json:"file_name"`
	UploadedAt  time.Time       `json:"upload_date"`
	DeviceCount decimal.Decimal `json:"device_count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []LineItem      `json:"items"`
}

type MonthBucket struct {
	Invoices     []Invoice       `json:"invoices"`
	TotalDevices decimal.Decimal `json:"total_devices"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
}

// Delta is the change a single invoice applies to its month bucket.
type Delta struct {
	Month   string          `json:"month"`
	Devices decimal.Decimal `json:"devices"`
	Paid    decimal.Decimal `json:"paid"`
}

type MonthTotals struct {
	Month        string          `json:"month"`
	InvoiceCount int             `json:"invoice_count"`
	TotalDevices decimal.Decimal `json:"total_devices"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
}

type ItemRow struct {
	Month       string          `json:"month"`
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	FileName    string          `json:"file_name"`
	DisplayDate string          `json:"display_date"`
	Model       string          `json:"model"`
	IMEI        string          `json:"imei"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type TopDevice struct {
	Model   string          `json:"model"`
	Units   decimal.Decimal `json:"units"`
	Revenue decimal.Decimal `json:"revenue"`
	Display string          `json:"revenue_display"`
}

type SearchHit struct {
	Month    string          `json:"month"`
	Model    string          `json:"model"`
	IMEI     string          `json:"imei"`
	Price    decimal.Decimal `json:"price"`
	Display  string          `json:"price_display"`
	FileName string          `json:"file_name"`
}

// NewInvoice folds normalized line items into an invoice. Totals are exact
// sums of the item quantities and prices.
func NewInvoice(fileName string, uploadedAt time.Time, items []LineItem) Invoice {
	inv := Invoice{
		ID:          uuid.New(),
		FileName:    fileName,
		UploadedAt:  uploadedAt.UTC(),
		DeviceCount: decimal.Zero,
		TotalAmount: decimal.Zero,
		Items:       items,
	}
	if inv.Items == nil {
		inv.Items = []LineItem{}
	}
	for _, item := range items {
		inv.DeviceCount = inv.DeviceCount.Add(item.Quantity)
		inv.TotalAmount = inv.TotalAmount.Add(item.Price)
	}
	return inv
}

func (inv Invoice) Delta(month string) Delta {
	return Delta{Month: month, Devices: inv.DeviceCount, Paid: inv.TotalAmount}
}

func EmptyBucket() MonthBucket {
	return MonthBucket{
		Invoices:     []Invoice{},
		TotalDevices: decimal.Zero,
		TotalPaid:    decimal.Zero,
	}
}

// Recompute resets the bucket totals from its invoice list.
func (b *MonthBucket) Recompute() {
	devices := decimal.Zero
	paid := decimal.Zero
	for _, inv := range b.Invoices {
		devices = devices.Add(inv.DeviceCount)
		paid = paid.Add(inv.TotalAmount)
	}
	b.TotalDevices = devices
	b.TotalPaid = paid
	if b.Invoices == nil {
		b.Invoices = []Invoice{}
	}
}

// Clone returns a deep copy so callers can read a bucket without holding the
// store lock.
func (b MonthBucket) Clone() MonthBucket {
	out := MonthBucket{
		Invoices:     make([]Invoice, len(b.Invoices)),
		TotalDevices: b.TotalDevices,
		TotalPaid:    b.TotalPaid,
	}
	for i, inv := range b.Invoices {
		items := make([]LineItem, len(inv.Items))
		for j, item := range inv.Items {
			item.Defaulted = append([]string(nil), item.Defaulted...)
			items[j] = item
		}
		inv.Items = items
		out.Invoices[i] = inv
	}
	return out
}

// DisplayDate is the item's resolved date, falling back to the upload date of
// its invoice.
func DisplayDate(item LineItem, inv Invoice) string {
	if item.Date != "" {
		return item.Date
	}
	return inv.UploadedAt.Format(time.DateOnly)
}

// ParseMonth resolves a month name case-insensitively. Three-letter
// abbreviations are accepted.
func ParseMonth(raw string) (string, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return "", false
	}
	for _, month := range Months {
		lower := strings.ToLower(month)
		if value == lower || value == lower[:3] {
			return month, true
		}
	}
	return "", false
}

func MonthOf(t time.Time) string {
	return Months[int(t.Month())-1]
}
