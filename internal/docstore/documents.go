package docstore

import (
	"fmt"
	"time"

	"atlasinvoice/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Document field layout. Field names match the documents the browser
// dashboard wrote, so existing inventories load unchanged.

type itemDoc struct {
	Model     string   `firestore:"model"`
	Quantity  float64  `firestore:"quantity"`
	Price     float64  `firestore:"price"`
	IMEI      string   `firestore:"imei"`
	Date      string   `firestore:"date,omitempty"`
	Defaulted []string `firestore:"defaulted,omitempty"`
}

type invoiceDoc struct {
	ID          string    `firestore:"id"`
	FileName    string    `firestore:"fileName"`
	UploadDate  string    `firestore:"uploadDate"`
	DeviceCount float64   `firestore:"deviceCount"`
	TotalAmount float64   `firestore:"totalAmount"`
	Items       []itemDoc `firestore:"items"`
}

type bucketDoc struct {
	Invoices     []invoiceDoc `firestore:"invoices"`
	TotalDevices float64      `firestore:"totalDevices"`
	TotalPaid    float64      `firestore:"totalPaid"`
}

func toBucketDoc(bucket domain.MonthBucket) bucketDoc {
	out := bucketDoc{
		Invoices:     make([]invoiceDoc, 0, len(bucket.Invoices)),
		TotalDevices: bucket.TotalDevices.InexactFloat64(),
		TotalPaid:    bucket.TotalPaid.InexactFloat64(),
	}
	for _, inv := range bucket.Invoices {
		doc := invoiceDoc{
			ID:          inv.ID.String(),
			FileName:    inv.FileName,
			UploadDate:  inv.UploadedAt.UTC().Format(time.RFC3339Nano),
			DeviceCount: inv.DeviceCount.InexactFloat64(),
			TotalAmount: inv.TotalAmount.InexactFloat64(),
			Items:       make([]itemDoc, 0, len(inv.Items)),
		}
		for _, item := range inv.Items {
			doc.Items = append(doc.Items, itemDoc{
				Model:     item.Model,
				Quantity:  item.Quantity.InexactFloat64(),
				Price:     item.Price.InexactFloat64(),
				IMEI:      item.IMEI,
				Date:      item.Date,
				Defaulted: item.Defaulted,
			})
		}
		out.Invoices = append(out.Invoices, doc)
	}
	return out
}

// fromBucketDoc converts a stored month back into the domain bucket. Invoices
// written without an id get a stable one derived from their month, position,
// file name and upload date.
func fromBucketDoc(month string, doc bucketDoc) (domain.MonthBucket, error) {
	bucket := domain.EmptyBucket()
	for i, invDoc := range doc.Invoices {
		inv := domain.Invoice{
			FileName:    invDoc.FileName,
			DeviceCount: decimal.NewFromFloat(invDoc.DeviceCount),
			TotalAmount: decimal.NewFromFloat(invDoc.TotalAmount),
			Items:       make([]domain.LineItem, 0, len(invDoc.Items)),
		}

		if invDoc.UploadDate != "" {
			uploaded, err := time.Parse(time.RFC3339Nano, invDoc.UploadDate)
			if err != nil {
				return domain.MonthBucket{}, fmt.Errorf("%s invoice %d upload date: %w", month, i, err)
			}
			inv.UploadedAt = uploaded.UTC()
		}

		if invDoc.ID != "" {
			id, err := uuid.Parse(invDoc.ID)
			if err != nil {
				return domain.MonthBucket{}, fmt.Errorf("%s invoice %d id: %w", month, i, err)
			}
			inv.ID = id
		} else {
			inv.ID = legacyID(month, i, invDoc)
		}

		for _, itemDoc := range invDoc.Items {
			item := domain.LineItem{
				Model:    itemDoc.Model,
				Quantity: decimal.NewFromFloat(itemDoc.Quantity),
				Price:    decimal.NewFromFloat(itemDoc.Price),
				IMEI:     itemDoc.IMEI,
				Date:     itemDoc.Date,
			}
			if len(itemDoc.Defaulted) > 0 {
				item.Defaulted = append([]string(nil), itemDoc.Defaulted...)
			}
			inv.Items = append(inv.Items, item)
		}
		bucket.Invoices = append(bucket.Invoices, inv)
	}
	bucket.Recompute()
	return bucket, nil
}

func legacyID(month string, position int, doc invoiceDoc) uuid.UUID {
	key := fmt.Sprintf("%s/%d/%s/%s", month, position, doc.FileName, doc.UploadDate)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key))
}
