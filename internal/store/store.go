// Package store keeps the twelve month buckets in memory and writes every
// change through to a persistence backend.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"atlasinvoice/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrUnknownMonth    = errors.New("unknown month")
	ErrInvoiceNotFound = errors.New("invoice not found")
	// ErrNotPersisted means the in-memory change was applied but the backend
	// write failed. Memory and backend disagree until the next successful save.
	ErrNotPersisted = errors.New("change not persisted")
)

// Backend persists month buckets keyed by month name.
type Backend interface {
	Name() string
	Load(ctx context.Context) (map[string]domain.MonthBucket, error)
	SaveMonth(ctx context.Context, month string, bucket domain.MonthBucket) error
}

type Store struct {
	mu      sync.Mutex
	months  map[string]*domain.MonthBucket
	backend Backend
	logger  *slog.Logger
}

// New returns a store with twelve empty buckets. backend may be nil, in which
// case nothing is persisted.
func New(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		months:  make(map[string]*domain.MonthBucket, len(domain.Months)),
		backend: backend,
		logger:  logger,
	}
	for _, month := range domain.Months {
		bucket := domain.EmptyBucket()
		s.months[month] = &bucket
	}
	return s
}

// Open loads the persisted buckets. Months the backend does not know stay
// empty, and stored totals are recomputed from the invoice lists.
func Open(ctx context.Context, backend Backend, logger *slog.Logger) (*Store, error) {
	s := New(backend, logger)
	if backend == nil {
		return s, nil
	}

	loaded, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s backend: %w", backend.Name(), err)
	}
	for name, bucket := range loaded {
		month, ok := domain.ParseMonth(name)
		if !ok {
			s.logger.Warn("ignoring unknown month in backend", slog.String("month", name))
			continue
		}
		bucket = bucket.Clone()
		bucket.Recompute()
		s.months[month] = &bucket
	}
	return s, nil
}

func (s *Store) BackendName() string {
	if s.backend == nil {
		return "none"
	}
	return s.backend.Name()
}

// AddInvoice appends inv to the month and returns the updated bucket.
func (s *Store) AddInvoice(ctx context.Context, month string, inv domain.Invoice) (domain.MonthBucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.months[month]
	if !ok {
		return domain.MonthBucket{}, fmt.Errorf("%w: %q", ErrUnknownMonth, month)
	}
	bucket.Invoices = append(bucket.Invoices, inv)
	bucket.Recompute()

	return bucket.Clone(), s.persistLocked(ctx, month)
}

// DeleteInvoice removes one invoice and recomputes the month totals from the
// remaining invoices.
func (s *Store) DeleteInvoice(ctx context.Context, month string, id uuid.UUID) (domain.Invoice, domain.MonthBucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.months[month]
	if !ok {
		return domain.Invoice{}, domain.MonthBucket{}, fmt.Errorf("%w: %q", ErrUnknownMonth, month)
	}
	index := -1
	for i, inv := range bucket.Invoices {
		if inv.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return domain.Invoice{}, domain.MonthBucket{}, fmt.Errorf("%w: %s in %s", ErrInvoiceNotFound, id, month)
	}

	removed := bucket.Invoices[index]
	bucket.Invoices = append(bucket.Invoices[:index], bucket.Invoices[index+1:]...)
	bucket.Recompute()

	return removed, bucket.Clone(), s.persistLocked(ctx, month)
}

// ClearMonth drops every invoice of the month.
func (s *Store) ClearMonth(ctx context.Context, month string) (domain.MonthBucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.months[month]; !ok {
		return domain.MonthBucket{}, fmt.Errorf("%w: %q", ErrUnknownMonth, month)
	}
	bucket := domain.EmptyBucket()
	s.months[month] = &bucket

	return bucket.Clone(), s.persistLocked(ctx, month)
}

func (s *Store) Month(month string) (domain.MonthBucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.months[month]
	if !ok {
		return domain.MonthBucket{}, fmt.Errorf("%w: %q", ErrUnknownMonth, month)
	}
	return bucket.Clone(), nil
}

// Snapshot returns a deep copy of all twelve buckets.
func (s *Store) Snapshot() map[string]domain.MonthBucket {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]domain.MonthBucket, len(s.months))
	for month, bucket := range s.months {
		out[month] = bucket.Clone()
	}
	return out
}

// persistLocked saves one month while the caller holds s.mu, so saves reach
// the backend in the order the mutations happened. Failures are not retried
// and the in-memory change is kept.
func (s *Store) persistLocked(ctx context.Context, month string) error {
	if s.backend == nil {
		return nil
	}
	if err := s.backend.SaveMonth(ctx, month, s.months[month].Clone()); err != nil {
		s.logger.Error("save month failed",
			slog.String("backend", s.backend.Name()),
			slog.String("month", month),
			slog.Any("error", err),
		)
		return fmt.Errorf("%w: save %s to %s: %w", ErrNotPersisted, month, s.backend.Name(), err)
	}
	return nil
}
