package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"atlasinvoice/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Name() string { return "mock" }

func (m *mockBackend) Load(ctx context.Context) (map[string]domain.MonthBucket, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.MonthBucket), args.Error(1)
}

func (m *mockBackend) SaveMonth(ctx context.Context, month string, bucket domain.MonthBucket) error {
	args := m.Called(ctx, month, bucket)
	return args.Error(0)
}

func invoice(devices int64, paid string) domain.Invoice {
	return domain.NewInvoice("test.csv", time.Now(), []domain.LineItem{{
		Model:    "iPhone",
		Quantity: decimal.NewFromInt(devices),
		Price:    decimal.RequireFromString(paid),
	}})
}

func TestStore_StartsWithTwelveEmptyBuckets(t *testing.T) {
	s := New(nil, nil)
	snapshot := s.Snapshot()

	require.Len(t, snapshot, 12)
	for _, month := range domain.Months {
		bucket, ok := snapshot[month]
		require.True(t, ok, month)
		assert.Empty(t, bucket.Invoices)
		assert.True(t, bucket.TotalPaid.IsZero())
	}
}

func TestStore_DeleteRecomputesFromRemainingInvoices(t *testing.T) {
	ctx := context.Background()
	backend := &mockBackend{}
	backend.On("SaveMonth", ctx, "June", mock.Anything).Return(nil)
	s := New(backend, nil)

	first := invoice(2, "100")
	second := invoice(1, "50")
	_, err := s.AddInvoice(ctx, "June", first)
	require.NoError(t, err)
	bucket, err := s.AddInvoice(ctx, "June", second)
	require.NoError(t, err)
	assert.True(t, bucket.TotalPaid.Equal(decimal.NewFromInt(150)))
	assert.True(t, bucket.TotalDevices.Equal(decimal.NewFromInt(3)))

	removed, bucket, err := s.DeleteInvoice(ctx, "June", first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, removed.ID)
	require.Len(t, bucket.Invoices, 1)
	assert.True(t, bucket.TotalPaid.Equal(decimal.NewFromInt(50)))
	assert.True(t, bucket.TotalDevices.Equal(decimal.NewFromInt(1)))

	backend.AssertNumberOfCalls(t, "SaveMonth", 3)
}

func TestStore_DeleteUnknownInvoice(t *testing.T) {
	s := New(nil, nil)
	_, _, err := s.DeleteInvoice(context.Background(), "June", uuid.New())
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestStore_UnknownMonth(t *testing.T) {
	s := New(nil, nil)
	_, err := s.AddInvoice(context.Background(), "Smarch", invoice(1, "1"))
	assert.ErrorIs(t, err, ErrUnknownMonth)
	_, err = s.Month("Smarch")
	assert.ErrorIs(t, err, ErrUnknownMonth)
	_, err = s.ClearMonth(context.Background(), "Smarch")
	assert.ErrorIs(t, err, ErrUnknownMonth)
}

func TestStore_PersistFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	backend := &mockBackend{}
	backend.On("SaveMonth", ctx, "July", mock.Anything).Return(errors.New("network down"))
	s := New(backend, nil)

	inv := invoice(4, "400")
	bucket, err := s.AddInvoice(ctx, "July", inv)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotPersisted)
	assert.Contains(t, err.Error(), "network down")
	require.Len(t, bucket.Invoices, 1)

	current, err := s.Month("July")
	require.NoError(t, err)
	require.Len(t, current.Invoices, 1)
	assert.True(t, current.TotalPaid.Equal(decimal.NewFromInt(400)))
}

func TestStore_ClearMonth(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil)
	_, err := s.AddInvoice(ctx, "August", invoice(1, "10"))
	require.NoError(t, err)

	bucket, err := s.ClearMonth(ctx, "August")
	require.NoError(t, err)
	assert.Empty(t, bucket.Invoices)
	assert.True(t, bucket.TotalDevices.IsZero())
}

func TestOpen_RecomputesAndFillsMonths(t *testing.T) {
	ctx := context.Background()
	stale := domain.EmptyBucket()
	stale.Invoices = append(stale.Invoices, invoice(2, "30"), invoice(1, "20"))
	stale.TotalPaid = decimal.NewFromInt(999)
	stale.TotalDevices = decimal.NewFromInt(999)

	backend := &mockBackend{}
	backend.On("Load", ctx).Return(map[string]domain.MonthBucket{
		"march":  stale,
		"Smarch": domain.EmptyBucket(),
	}, nil)

	s, err := Open(ctx, backend, nil)
	require.NoError(t, err)

	march, err := s.Month("March")
	require.NoError(t, err)
	assert.True(t, march.TotalPaid.Equal(decimal.NewFromInt(50)))
	assert.True(t, march.TotalDevices.Equal(decimal.NewFromInt(3)))
	assert.Len(t, s.Snapshot(), 12)
	assert.Equal(t, "mock", s.BackendName())
}

func TestOpen_LoadError(t *testing.T) {
	ctx := context.Background()
	backend := &mockBackend{}
	backend.On("Load", ctx).Return(nil, errors.New("boom"))

	_, err := Open(ctx, backend, nil)
	assert.ErrorContains(t, err, "boom")
}

func TestStore_ConcurrentAddsAreSerialized(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddInvoice(ctx, "October", invoice(1, "10.10"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	bucket, err := s.Month("October")
	require.NoError(t, err)
	assert.Len(t, bucket.Invoices, 50)
	assert.True(t, bucket.TotalDevices.Equal(decimal.NewFromInt(50)))
	assert.True(t, bucket.TotalPaid.Equal(decimal.RequireFromString("505")))
}

func TestFileBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "inventory.json")
	backend := NewFileBackend(path)

	empty, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	s, err := Open(ctx, backend, nil)
	require.NoError(t, err)
	inv := invoice(2, "199.99")
	_, err = s.AddInvoice(ctx, "May", inv)
	require.NoError(t, err)
	_, err = s.AddInvoice(ctx, "June", invoice(1, "5"))
	require.NoError(t, err)

	reopened, err := Open(ctx, NewFileBackend(path), nil)
	require.NoError(t, err)
	may, err := reopened.Month("May")
	require.NoError(t, err)
	require.Len(t, may.Invoices, 1)
	assert.Equal(t, inv.ID, may.Invoices[0].ID)
	assert.True(t, may.TotalPaid.Equal(decimal.RequireFromString("199.99")))
	june, err := reopened.Month("June")
	require.NoError(t, err)
	assert.Len(t, june.Invoices, 1)
}
