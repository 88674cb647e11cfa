package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"atlasinvoice/internal/csvimport"
	"atlasinvoice/internal/domain"
	"atlasinvoice/internal/metrics"
	"atlasinvoice/internal/store"

	"github.com/google/uuid"
)

var (
	ErrNotCSV     = errors.New("only CSV files are accepted")
	ErrInvalidCSV = errors.New("unreadable CSV file")
	ErrEmptyQuery = errors.New("search query is empty")
)

type Service struct {
	store    *store.Store
	logger   *slog.Logger
	currency string
	now      func() time.Time
}

func New(st *store.Store, logger *slog.Logger, currency string) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(currency) == "" {
		currency = "USD"
	}
	return &Service{
		store:    st,
		logger:   logger,
		currency: strings.ToUpper(strings.TrimSpace(currency)),
		now:      time.Now,
	}
}

type UploadInput struct {
	Month       string
	FileName    string
	ContentType string
	Body        io.Reader
}

type UploadResult struct {
	Month       string                       `json:"month"`
	Invoice     domain.Invoice               `json:"invoice"`
	Delta       domain.Delta                 `json:"delta"`
	Totals      domain.MonthTotals           `json:"totals"`
	Warnings    []csvimport.Warning          `json:"warnings"`
	RowsTotal   int                          `json:"rows_total"`
	RowsDropped int                          `json:"rows_dropped"`
	Drops       map[csvimport.DropReason]int `json:"drops,omitempty"`
	Saved       bool                         `json:"saved"`
	SaveError   string                       `json:"error,omitempty"`
}

// MutationResult reports the month state after a delete or clear.
type MutationResult struct {
	Totals    domain.MonthTotals `json:"totals"`
	Saved     bool               `json:"saved"`
	SaveError string             `json:"error,omitempty"`
}

type MonthDetail struct {
	Totals   domain.MonthTotals `json:"totals"`
	Invoices []domain.Invoice   `json:"invoices"`
	Items    []domain.ItemRow   `json:"items"`
	Display  MonthDisplay       `json:"display"`
}

type MonthDisplay struct {
	TotalPaid string `json:"total_paid"`
}

// IsCSV accepts a text/csv content type or a .csv file name.
func IsCSV(fileName, contentType string) bool {
	if strings.EqualFold(filepath.Ext(strings.TrimSpace(fileName)), ".csv") {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && strings.EqualFold(mediaType, "text/csv")
}

// Upload normalizes one CSV file into a new invoice of month. When the backend
// save fails the invoice stays in memory and the result reports Saved=false.
func (s *Service) Upload(ctx context.Context, in UploadInput) (UploadResult, error) {
	month, ok := domain.ParseMonth(in.Month)
	if !ok {
		return UploadResult{}, fmt.Errorf("%w: %q", store.ErrUnknownMonth, in.Month)
	}
	if !IsCSV(in.FileName, in.ContentType) {
		return UploadResult{}, fmt.Errorf("%w: %s", ErrNotCSV, in.FileName)
	}

	rows, err := csvimport.ReadRows(in.Body)
	if err != nil {
		return UploadResult{}, fmt.Errorf("%w: %w", ErrInvalidCSV, err)
	}

	normalized := csvimport.Normalize(rows, csvimport.Source{
		Month:      month,
		FileName:   filepath.Base(in.FileName),
		UploadedAt: s.now(),
	})

	result := UploadResult{
		Month:       month,
		Invoice:     normalized.Invoice,
		Delta:       normalized.Delta,
		Warnings:    normalized.Warnings,
		RowsTotal:   normalized.RowsTotal,
		RowsDropped: normalized.RowsDropped,
		Drops:       normalized.Drops,
		Saved:       true,
	}
	if result.Warnings == nil {
		result.Warnings = []csvimport.Warning{}
	}

	bucket, err := s.store.AddInvoice(ctx, month, normalized.Invoice)
	if err != nil {
		if !errors.Is(err, store.ErrNotPersisted) {
			return UploadResult{}, err
		}
		metrics.PersistFailures.WithLabelValues(s.store.BackendName()).Inc()
		result.Saved = false
		result.SaveError = err.Error()
	}
	result.Totals = totalsOf(month, bucket)

	s.recordUpload(result)
	return result, nil
}

func (s *Service) recordUpload(result UploadResult) {
	metrics.InvoicesIngested.WithLabelValues(result.Month).Inc()
	for reason, count := range result.Drops {
		metrics.RowsDropped.WithLabelValues(string(reason)).Add(float64(count))
	}
	defaulted := map[csvimport.Field]int{}
	for _, warning := range result.Warnings {
		defaulted[warning.Field]++
		metrics.ValuesDefaulted.WithLabelValues(string(warning.Field)).Inc()
	}

	s.logger.Info("invoice ingested",
		slog.String("month", result.Month),
		slog.String("file", result.Invoice.FileName),
		slog.String("invoice_id", result.Invoice.ID.String()),
		slog.Int("items", len(result.Invoice.Items)),
		slog.Int("rows_dropped", result.RowsDropped),
		slog.Bool("saved", result.Saved),
	)
	if len(defaulted) > 0 {
		attrs := make([]any, 0, len(defaulted)+1)
		attrs = append(attrs, slog.String("file", result.Invoice.FileName))
		for field, count := range defaulted {
			attrs = append(attrs, slog.Int(string(field), count))
		}
		s.logger.Warn("values defaulted during import", attrs...)
	}
}

func (s *Service) DeleteInvoice(ctx context.Context, rawMonth, rawID string) (MutationResult, error) {
	month, ok := domain.ParseMonth(rawMonth)
	if !ok {
		return MutationResult{}, fmt.Errorf("%w: %q", store.ErrUnknownMonth, rawMonth)
	}
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return MutationResult{}, fmt.Errorf("%w: %q", store.ErrInvoiceNotFound, rawID)
	}

	removed, bucket, err := s.store.DeleteInvoice(ctx, month, id)
	result, err := s.mutationResult(month, bucket, err)
	if err != nil {
		return MutationResult{}, err
	}
	s.logger.Info("invoice deleted",
		slog.String("month", month),
		slog.String("invoice_id", removed.ID.String()),
		slog.String("file", removed.FileName),
	)
	return result, nil
}

func (s *Service) ClearMonth(ctx context.Context, rawMonth string) (MutationResult, error) {
	month, ok := domain.ParseMonth(rawMonth)
	if !ok {
		return MutationResult{}, fmt.Errorf("%w: %q", store.ErrUnknownMonth, rawMonth)
	}
	bucket, err := s.store.ClearMonth(ctx, month)
	result, err := s.mutationResult(month, bucket, err)
	if err != nil {
		return MutationResult{}, err
	}
	s.logger.Info("month cleared", slog.String("month", month))
	return result, nil
}

func (s *Service) mutationResult(month string, bucket domain.MonthBucket, err error) (MutationResult, error) {
	result := MutationResult{Saved: true}
	if err != nil {
		if !errors.Is(err, store.ErrNotPersisted) {
			return MutationResult{}, err
		}
		metrics.PersistFailures.WithLabelValues(s.store.BackendName()).Inc()
		result.Saved = false
		result.SaveError = err.Error()
	}
	result.Totals = totalsOf(month, bucket)
	return result, nil
}

// Months returns the totals of all twelve months in calendar order.
func (s *Service) Months() []domain.MonthTotals {
	snapshot := s.store.Snapshot()
	out := make([]domain.MonthTotals, 0, len(domain.Months))
	for _, month := range domain.Months {
		out = append(out, totalsOf(month, snapshot[month]))
	}
	return out
}

func (s *Service) MonthDetail(rawMonth string) (MonthDetail, error) {
	month, ok := domain.ParseMonth(rawMonth)
	if !ok {
		return MonthDetail{}, fmt.Errorf("%w: %q", store.ErrUnknownMonth, rawMonth)
	}
	bucket, err := s.store.Month(month)
	if err != nil {
		return MonthDetail{}, err
	}

	items := make([]domain.ItemRow, 0)
	for _, inv := range bucket.Invoices {
		for _, item := range inv.Items {
			items = append(items, domain.ItemRow{
				Month:       month,
				InvoiceID:   inv.ID,
				FileName:    inv.FileName,
				DisplayDate: domain.DisplayDate(item, inv),
				Model:       item.Model,
				IMEI:        item.IMEI,
				Quantity:    item.Quantity,
				Price:       item.Price,
			})
		}
	}
	return MonthDetail{
		Totals:   totalsOf(month, bucket),
		Invoices: bucket.Invoices,
		Items:    items,
		Display:  MonthDisplay{TotalPaid: s.formatMoney(bucket.TotalPaid)},
	}, nil
}

func totalsOf(month string, bucket domain.MonthBucket) domain.MonthTotals {
	return domain.MonthTotals{
		Month:        month,
		InvoiceCount: len(bucket.Invoices),
		TotalDevices: bucket.TotalDevices,
		TotalPaid:    bucket.TotalPaid,
	}
}
