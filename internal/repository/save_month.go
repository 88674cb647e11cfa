package repository

import (
	"context"
	"fmt"

	"atlasinvoice/internal/domain"
)

const (
	upsertBucketQuery = `
		INSERT INTO month_buckets (month, total_devices, total_paid, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (month) DO UPDATE SET
			total_devices = EXCLUDED.total_devices,
			total_paid = EXCLUDED.total_paid,
			updated_at = NOW()
	`
	deleteMonthInvoicesQuery = "DELETE FROM invoices WHERE month = $1"
	insertInvoiceQuery       = `
		INSERT INTO invoices (
			id,
			month,
			position,
			file_name,
			uploaded_at,
			device_count,
			total_amount
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	insertItemQuery = `
		INSERT INTO invoice_items (
			invoice_id,
			position,
			model,
			quantity,
			price,
			imei,
			item_date,
			defaulted
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
)

// SaveMonth replaces the stored invoices of one month with bucket inside a
// single transaction. Items are removed by the invoices foreign key cascade.
func (r *Repository) SaveMonth(ctx context.Context, month string, bucket domain.MonthBucket) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save month tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, upsertBucketQuery,
		month,
		bucket.TotalDevices.String(),
		bucket.TotalPaid.String(),
	); err != nil {
		return fmt.Errorf("upsert bucket %s: %w", month, err)
	}
	if _, err := tx.Exec(ctx, deleteMonthInvoicesQuery, month); err != nil {
		return fmt.Errorf("clear invoices of %s: %w", month, err)
	}

	for i, inv := range bucket.Invoices {
		if _, err := tx.Exec(ctx, insertInvoiceQuery,
			inv.ID,
			month,
			i,
			inv.FileName,
			inv.UploadedAt,
			inv.DeviceCount.String(),
			inv.TotalAmount.String(),
		); err != nil {
			return fmt.Errorf("insert invoice %s: %w", inv.ID, err)
		}
		for j, item := range inv.Items {
			defaulted := item.Defaulted
			if defaulted == nil {
				defaulted = []string{}
			}
			if _, err := tx.Exec(ctx, insertItemQuery,
				inv.ID,
				j,
				item.Model,
				item.Quantity.String(),
				item.Price.String(),
				item.IMEI,
				item.Date,
				defaulted,
			); err != nil {
				return fmt.Errorf("insert item %d of invoice %s: %w", j, inv.ID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save month tx: %w", err)
	}
	return nil
}
