package repository

import (
	"context"
	"fmt"
	"time"

	"atlasinvoice/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PgxPool is the subset of pgxpool.Pool the repository uses, so tests can run
// against pgxmock.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ PgxPool = (*pgxpool.Pool)(nil)

// Repository stores month buckets in PostgreSQL. It implements store.Backend.
type Repository struct {
	pool PgxPool
}

func New(pool PgxPool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Name() string { return "postgres" }

const (
	loadInvoicesQuery = `
		SELECT
			id,
			month,
			file_name,
			uploaded_at,
			device_count::text,
			total_amount::text
		FROM invoices
		ORDER BY month ASC, position ASC
	`
	loadItemsQuery = `
		SELECT
			invoice_id,
			model,
			quantity::text,
			price::text,
			imei,
			item_date,
			defaulted
		FROM invoice_items
		ORDER BY invoice_id ASC, position ASC
	`
)

// Load returns every stored invoice grouped by month. Bucket totals are left
// for the caller to recompute.
func (r *Repository) Load(ctx context.Context) (map[string]domain.MonthBucket, error) {
	invoices, order, err := r.loadInvoices(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, invoices); err != nil {
		return nil, err
	}

	out := make(map[string]domain.MonthBucket)
	for _, ref := range order {
		bucket, ok := out[ref.month]
		if !ok {
			bucket = domain.EmptyBucket()
		}
		bucket.Invoices = append(bucket.Invoices, *invoices[ref.id])
		out[ref.month] = bucket
	}
	return out, nil
}

type invoiceRef struct {
	id    uuid.UUID
	month string
}

func (r *Repository) loadInvoices(ctx context.Context) (map[uuid.UUID]*domain.Invoice, []invoiceRef, error) {
	rows, err := r.pool.Query(ctx, loadInvoicesQuery)
	if err != nil {
		return nil, nil, fmt.Errorf("load invoices: %w", err)
	}
	defer rows.Close()

	invoices := make(map[uuid.UUID]*domain.Invoice)
	order := make([]invoiceRef, 0)
	for rows.Next() {
		var (
			inv            domain.Invoice
			month          string
			uploadedAt     time.Time
			devices, total string
		)
		if err := rows.Scan(&inv.ID, &month, &inv.FileName, &uploadedAt, &devices, &total); err != nil {
			return nil, nil, fmt.Errorf("scan invoice: %w", err)
		}
		inv.UploadedAt = uploadedAt.UTC()
		if inv.DeviceCount, err = parseNumeric(devices); err != nil {
			return nil, nil, fmt.Errorf("invoice %s device_count: %w", inv.ID, err)
		}
		if inv.TotalAmount, err = parseNumeric(total); err != nil {
			return nil, nil, fmt.Errorf("invoice %s total_amount: %w", inv.ID, err)
		}
		inv.Items = []domain.LineItem{}
		invoices[inv.ID] = &inv
		order = append(order, invoiceRef{id: inv.ID, month: month})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate invoices: %w", err)
	}
	return invoices, order, nil
}

func (r *Repository) loadItems(ctx context.Context, invoices map[uuid.UUID]*domain.Invoice) error {
	rows, err := r.pool.Query(ctx, loadItemsQuery)
	if err != nil {
		return fmt.Errorf("load invoice items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			invoiceID       uuid.UUID
			item            domain.LineItem
			quantity, price string
		)
		if err := rows.Scan(&invoiceID, &item.Model, &quantity, &price, &item.IMEI, &item.Date, &item.Defaulted); err != nil {
			return fmt.Errorf("scan invoice item: %w", err)
		}
		if item.Quantity, err = parseNumeric(quantity); err != nil {
			return fmt.Errorf("item of invoice %s quantity: %w", invoiceID, err)
		}
		if item.Price, err = parseNumeric(price); err != nil {
			return fmt.Errorf("item of invoice %s price: %w", invoiceID, err)
		}
		if len(item.Defaulted) == 0 {
			item.Defaulted = nil
		}
		inv, ok := invoices[invoiceID]
		if !ok {
			continue
		}
		inv.Items = append(inv.Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate invoice items: %w", err)
	}
	return nil
}

func parseNumeric(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(value)
}
