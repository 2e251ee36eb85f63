package services_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stockledger/internal/adapters/memory"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/test/helpers"
	"github.com/ammerola/stockledger/test/mocks"
)

var baseTime = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func newLedger(t *testing.T, quantity int, opts ...services.LedgerOption) (*services.StockLedger, *memory.Store, *domain.Variant) {
	t.Helper()
	store := memory.NewStore(helpers.TestLogger())
	v := helpers.SeedVariant(t, store, quantity)
	opts = append([]services.LedgerOption{services.WithClock(helpers.FixedClock(baseTime, time.Second))}, opts...)
	return services.NewStockLedger(store, helpers.TestLogger(), opts...), store, v
}

func currentQuantity(t *testing.T, store *memory.Store, id int64) int {
	t.Helper()
	v, err := store.GetVariant(context.Background(), id)
	require.NoError(t, err)
	return v.StockQuantity
}

func history(t *testing.T, ledger *services.StockLedger, id int64) []domain.Movement {
	t.Helper()
	ms, err := ledger.ListMovements(context.Background(), id, ports.MovementFilter{})
	require.NoError(t, err)
	return ms
}

func TestStockLedger_Sell(t *testing.T) {
	tests := []struct {
		name         string
		initial      int
		quantity     int
		wantQuantity int
		wantErr      error
	}{
		{name: "partial_sale", initial: 10, quantity: 3, wantQuantity: 7},
		{name: "sells_last_unit", initial: 1, quantity: 1, wantQuantity: 0},
		{name: "exact_stock", initial: 5, quantity: 5, wantQuantity: 0},
		{name: "more_than_available", initial: 2, quantity: 3, wantQuantity: 2, wantErr: domain.ErrOutOfStock},
		{name: "empty_stock", initial: 0, quantity: 1, wantQuantity: 0, wantErr: domain.ErrOutOfStock},
		{name: "zero_quantity", initial: 4, quantity: 0, wantQuantity: 4, wantErr: domain.ErrInvalidArgument},
		{name: "negative_quantity", initial: 4, quantity: -2, wantQuantity: 4, wantErr: domain.ErrInvalidArgument},
		{name: "quantity_beyond_max", initial: 4, quantity: math.MaxInt, wantQuantity: 4, wantErr: domain.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger, store, v := newLedger(t, tt.initial)

			change, err := ledger.Sell(context.Background(), v.ID, tt.quantity)

			assert.Equal(t, tt.wantQuantity, currentQuantity(t, store, v.ID))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, change)
				assert.Empty(t, history(t, ledger, v.ID))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.initial, change.PreviousQuantity)
			assert.Equal(t, tt.wantQuantity, change.Quantity)
			require.NotNil(t, change.Movement)
			assert.Equal(t, domain.MovementOut, change.Movement.Type)
			assert.Equal(t, -tt.quantity, change.Movement.QuantityChange)
			assert.Equal(t, domain.ReasonSale, change.Movement.Reason)
			assert.Equal(t, v.ID, change.Movement.VariantID)
			assert.NotZero(t, change.Movement.ID)

			ms := history(t, ledger, v.ID)
			require.Len(t, ms, 1)
			assert.Equal(t, *change.Movement, ms[0])
		})
	}
}

func TestStockLedger_Sell_OutOfStockDetails(t *testing.T) {
	ledger, _, v := newLedger(t, 2)

	_, err := ledger.Sell(context.Background(), v.ID, 3)

	var oos *domain.OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, v.ID, oos.VariantID)
	assert.Equal(t, 3, oos.Requested)
	assert.Equal(t, 2, oos.Available)
}

func TestStockLedger_Sell_UnknownVariant(t *testing.T) {
	ledger, _, _ := newLedger(t, 1)

	_, err := ledger.Sell(context.Background(), 9999, 1)
	assert.ErrorIs(t, err, domain.ErrVariantNotFound)
}

func TestStockLedger_AdjustStock(t *testing.T) {
	tests := []struct {
		name         string
		initial      int
		delta        int
		reason       string
		wantQuantity int
		wantReason   string
		wantErr      error
	}{
		{name: "restock", initial: 10, delta: 5, reason: "RESTOCK", wantQuantity: 15, wantReason: "RESTOCK"},
		{name: "shrinkage", initial: 10, delta: -4, reason: "damaged", wantQuantity: 6, wantReason: "damaged"},
		{name: "down_to_zero", initial: 10, delta: -10, reason: "write-off", wantQuantity: 0, wantReason: "write-off"},
		{name: "reason_is_trimmed", initial: 1, delta: 1, reason: "  recount \n", wantQuantity: 2, wantReason: "recount"},
		{name: "empty_reason_allowed", initial: 1, delta: 2, reason: "", wantQuantity: 3, wantReason: ""},
		{name: "below_zero", initial: 10, delta: -11, reason: "oops", wantQuantity: 10, wantErr: domain.ErrOutOfStock},
		{name: "largest_shortfall", initial: 3, delta: -domain.MaxStockQuantity, reason: "oops", wantQuantity: 3, wantErr: domain.ErrOutOfStock},
		{name: "up_to_max", initial: 0, delta: domain.MaxStockQuantity, reason: "RESTOCK", wantQuantity: domain.MaxStockQuantity, wantReason: "RESTOCK"},
		{name: "delta_above_range", initial: 5, delta: math.MaxInt, reason: "huge", wantQuantity: 5, wantErr: domain.ErrInvalidArgument},
		{name: "delta_below_range", initial: 3, delta: math.MinInt, reason: "huge", wantQuantity: 3, wantErr: domain.ErrInvalidArgument},
		{name: "result_above_max", initial: 10, delta: domain.MaxStockQuantity, reason: "huge", wantQuantity: 10, wantErr: domain.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger, store, v := newLedger(t, tt.initial)

			change, err := ledger.AdjustStock(context.Background(), v.ID, tt.delta, tt.reason)

			assert.Equal(t, tt.wantQuantity, currentQuantity(t, store, v.ID))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, change)
				assert.Empty(t, history(t, ledger, v.ID))

				var oos *domain.OutOfStockError
				if errors.As(err, &oos) {
					assert.Positive(t, oos.Requested)
					assert.Equal(t, -tt.delta, oos.Requested)
					assert.Equal(t, tt.initial, oos.Available)
				} else {
					var verr *domain.ValidationError
					require.ErrorAs(t, err, &verr)
					assert.Equal(t, "quantity_change", verr.Field)
				}
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantQuantity, change.Quantity)
			require.NotNil(t, change.Movement)
			assert.Equal(t, domain.MovementAdjustment, change.Movement.Type)
			assert.Equal(t, tt.delta, change.Movement.QuantityChange)
			assert.Equal(t, tt.wantReason, change.Movement.Reason)
		})
	}
}

func TestStockLedger_AdjustStock_ZeroDelta(t *testing.T) {
	t.Run("existing_variant_writes_nothing", func(t *testing.T) {
		ledger, store, v := newLedger(t, 7)

		change, err := ledger.AdjustStock(context.Background(), v.ID, 0, "noop")
		require.NoError(t, err)
		assert.Nil(t, change.Movement)
		assert.Equal(t, 7, currentQuantity(t, store, v.ID))
		assert.Empty(t, history(t, ledger, v.ID))
	})

	t.Run("unknown_variant_is_not_looked_up", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStockStore(ctrl)
		ledger := services.NewStockLedger(store, helpers.TestLogger())

		change, err := ledger.AdjustStock(context.Background(), 424242, 0, "")
		require.NoError(t, err)
		assert.Equal(t, int64(424242), change.VariantID)
	})
}

func TestStockLedger_AdjustStock_UnknownVariant(t *testing.T) {
	ledger, _, _ := newLedger(t, 1)

	_, err := ledger.AdjustStock(context.Background(), 9999, 3, "restock")
	assert.ErrorIs(t, err, domain.ErrVariantNotFound)
}

func TestStockLedger_ConcurrentSalesNeverOversell(t *testing.T) {
	const stock = 50
	ledger, store, v := newLedger(t, stock)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		oos       atomic.Int32
		start     = make(chan struct{})
	)
	for i := 0; i < stock+1; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := ledger.Sell(context.Background(), v.ID, 1)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, domain.ErrOutOfStock):
				oos.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(stock), succeeded.Load())
	assert.Equal(t, int32(1), oos.Load())
	assert.Equal(t, 0, currentQuantity(t, store, v.ID))
	assert.Len(t, history(t, ledger, v.ID), stock)
}

func TestStockLedger_ConcurrentMixedMutationsBalance(t *testing.T) {
	const initial = 20
	ledger, store, v := newLedger(t, initial)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx := context.Background()
			switch i % 3 {
			case 0:
				_, _ = ledger.Sell(ctx, v.ID, 2)
			case 1:
				_, _ = ledger.AdjustStock(ctx, v.ID, 3, "restock")
			default:
				_, _ = ledger.AdjustStock(ctx, v.ID, -5, "shrinkage")
			}
		}(i)
	}
	wg.Wait()

	sum := 0
	for _, m := range history(t, ledger, v.ID) {
		sum += m.QuantityChange
	}
	final := currentQuantity(t, store, v.ID)
	assert.GreaterOrEqual(t, final, 0)
	assert.Equal(t, initial+sum, final)
}

func TestStockLedger_IndependentVariantsDoNotBlock(t *testing.T) {
	store := memory.NewStore(helpers.TestLogger())
	a := helpers.SeedVariant(t, store, 1)
	b := helpers.SeedVariant(t, store, 1)
	ledger := services.NewStockLedger(store, helpers.TestLogger())

	inside := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- store.WithStockLock(context.Background(), a.ID, func(ctx context.Context, tx ports.StockTx) error {
			close(inside)
			<-release
			return nil
		})
	}()
	<-inside

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := ledger.Sell(ctx, b.ID, 1)
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-done)
}

func TestStockLedger_ListMovements_Ordering(t *testing.T) {
	t.Run("newest_first", func(t *testing.T) {
		ledger, _, v := newLedger(t, 10)
		ctx := context.Background()

		_, err := ledger.Sell(ctx, v.ID, 1)
		require.NoError(t, err)
		_, err = ledger.AdjustStock(ctx, v.ID, 4, "restock")
		require.NoError(t, err)
		_, err = ledger.Sell(ctx, v.ID, 2)
		require.NoError(t, err)

		ms := history(t, ledger, v.ID)
		require.Len(t, ms, 3)
		assert.Equal(t, -2, ms[0].QuantityChange)
		assert.Equal(t, 4, ms[1].QuantityChange)
		assert.Equal(t, -1, ms[2].QuantityChange)
		assert.True(t, ms[0].CreatedAt.After(ms[1].CreatedAt))
	})

	t.Run("timestamp_ties_by_id", func(t *testing.T) {
		ledger, _, v := newLedger(t, 10, services.WithClock(func() time.Time { return baseTime }))
		ctx := context.Background()

		for i := 0; i < 4; i++ {
			_, err := ledger.Sell(ctx, v.ID, 1)
			require.NoError(t, err)
		}

		ms := history(t, ledger, v.ID)
		require.Len(t, ms, 4)
		for i := 1; i < len(ms); i++ {
			assert.Equal(t, ms[i-1].CreatedAt, ms[i].CreatedAt)
			assert.Less(t, ms[i-1].ID, ms[i].ID)
		}
	})

	t.Run("unknown_variant_is_empty", func(t *testing.T) {
		ledger, _, _ := newLedger(t, 1)
		ms, err := ledger.ListMovements(context.Background(), 9999, ports.MovementFilter{})
		require.NoError(t, err)
		assert.NotNil(t, ms)
		assert.Empty(t, ms)
	})
}

func TestStockLedger_ListMovements_Filters(t *testing.T) {
	ledger, _, v := newLedger(t, 10)
	ctx := context.Background()

	_, err := ledger.Sell(ctx, v.ID, 1) // baseTime
	require.NoError(t, err)
	_, err = ledger.AdjustStock(ctx, v.ID, 2, "restock") // +1s
	require.NoError(t, err)
	_, err = ledger.Sell(ctx, v.ID, 3) // +2s
	require.NoError(t, err)

	since := baseTime.Add(time.Second)
	until := baseTime.Add(time.Second)

	tests := []struct {
		name       string
		filter     ports.MovementFilter
		wantDeltas []int
		wantErr    error
	}{
		{name: "all", filter: ports.MovementFilter{}, wantDeltas: []int{-3, 2, -1}},
		{name: "only_sales", filter: ports.MovementFilter{Type: domain.MovementOut}, wantDeltas: []int{-3, -1}},
		{name: "since", filter: ports.MovementFilter{Since: &since}, wantDeltas: []int{-3, 2}},
		{name: "window", filter: ports.MovementFilter{Since: &since, Until: &until}, wantDeltas: []int{2}},
		{name: "page", filter: ports.MovementFilter{Limit: 1, Offset: 1}, wantDeltas: []int{2}},
		{name: "offset_past_end", filter: ports.MovementFilter{Offset: 10}, wantDeltas: []int{}},
		{name: "bad_type", filter: ports.MovementFilter{Type: "IN"}, wantErr: domain.ErrInvalidArgument},
		{name: "negative_limit", filter: ports.MovementFilter{Limit: -1}, wantErr: domain.ErrInvalidArgument},
		{
			name:    "inverted_window",
			filter:  ports.MovementFilter{Since: &since, Until: ptr(baseTime)},
			wantErr: domain.ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms, err := ledger.ListMovements(ctx, v.ID, tt.filter)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			deltas := make([]int, 0, len(ms))
			for _, m := range ms {
				deltas = append(deltas, m.QuantityChange)
			}
			assert.Equal(t, tt.wantDeltas, deltas)
		})
	}
}

func ptr[T any](v T) *T { return &v }

// runWithTx hands tx straight to the ledger callback.
func runWithTx(tx ports.StockTx) func(ctx context.Context, id int64, fn func(context.Context, ports.StockTx) error) error {
	return func(ctx context.Context, id int64, fn func(context.Context, ports.StockTx) error) error {
		return fn(ctx, tx)
	}
}

func TestStockLedger_StorageFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStockStore(ctrl)
	tx := mocks.NewMockStockTx(ctrl)
	cache := mocks.NewMockVariantCache(ctrl)
	tasks := mocks.NewMockTaskEnqueuer(ctrl)

	ledger := services.NewStockLedger(store, helpers.TestLogger(),
		services.WithVariantCache(cache),
		services.WithLowStockAlerts(tasks, 100))

	diskFull := errors.New("disk full")
	store.EXPECT().WithStockLock(gomock.Any(), int64(7), gomock.Any()).DoAndReturn(
		func(ctx context.Context, id int64, fn func(context.Context, ports.StockTx) error) error {
			return domain.NewStorageError("stock transaction", fn(ctx, tx))
		})
	tx.EXPECT().GetStockRecord(gomock.Any()).Return(&domain.StockRecord{VariantID: 7, Quantity: 5}, nil)
	tx.EXPECT().CommitQuantityAndMovement(gomock.Any(), 4, gomock.Any()).
		Return(domain.NewStorageError("insert movement", diskFull))

	_, err := ledger.Sell(context.Background(), 7, 1)

	require.ErrorIs(t, err, domain.ErrStorage)
	assert.ErrorIs(t, err, diskFull)
	assert.False(t, errors.Is(err, domain.ErrOutOfStock))
}

func TestStockLedger_AfterCommitEffects(t *testing.T) {
	tests := []struct {
		name       string
		stock      int
		sell       int
		threshold  int
		wantAlert  bool
		enqueueErr error
		cacheErr   error
	}{
		{name: "above_threshold", stock: 10, sell: 1, threshold: 3},
		{name: "reaches_threshold", stock: 10, sell: 7, threshold: 3, wantAlert: true},
		{name: "sold_out", stock: 2, sell: 2, threshold: 0, wantAlert: true},
		{name: "enqueue_failure_is_swallowed", stock: 2, sell: 1, threshold: 5, wantAlert: true, enqueueErr: errors.New("redis down")},
		{name: "cache_failure_is_swallowed", stock: 9, sell: 1, threshold: 1, cacheErr: errors.New("redis down")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mocks.NewMockStockStore(ctrl)
			tx := mocks.NewMockStockTx(ctrl)
			cache := mocks.NewMockVariantCache(ctrl)
			tasks := mocks.NewMockTaskEnqueuer(ctrl)

			ledger := services.NewStockLedger(store, helpers.TestLogger(),
				services.WithVariantCache(cache),
				services.WithLowStockAlerts(tasks, tt.threshold),
				services.WithClock(func() time.Time { return baseTime }))

			remaining := tt.stock - tt.sell
			store.EXPECT().WithStockLock(gomock.Any(), int64(3), gomock.Any()).DoAndReturn(runWithTx(tx))
			tx.EXPECT().GetStockRecord(gomock.Any()).Return(&domain.StockRecord{VariantID: 3, Quantity: tt.stock}, nil)
			tx.EXPECT().CommitQuantityAndMovement(gomock.Any(), remaining, gomock.Any()).DoAndReturn(
				func(ctx context.Context, q int, m *domain.Movement) error {
					m.ID = 99
					return nil
				})
			cache.EXPECT().InvalidateVariant(gomock.Any(), int64(3)).Return(tt.cacheErr)

			if tt.wantAlert {
				tasks.EXPECT().EnqueueLowStockAlert(gomock.Any(), ports.LowStockAlert{
					VariantID:  3,
					Quantity:   remaining,
					Threshold:  tt.threshold,
					MovementID: 99,
					OccurredAt: baseTime,
				}).Return(tt.enqueueErr)
			}

			change, err := ledger.Sell(context.Background(), 3, tt.sell)
			require.NoError(t, err)
			assert.Equal(t, remaining, change.Quantity)
			assert.Equal(t, int64(99), change.Movement.ID)
		})
	}
}

func TestStockLedger_RejectedCallsHaveNoSideEffects(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStockStore(ctrl)
	tx := mocks.NewMockStockTx(ctrl)
	cache := mocks.NewMockVariantCache(ctrl)
	tasks := mocks.NewMockTaskEnqueuer(ctrl)

	ledger := services.NewStockLedger(store, helpers.TestLogger(),
		services.WithVariantCache(cache),
		services.WithLowStockAlerts(tasks, 100))

	store.EXPECT().WithStockLock(gomock.Any(), int64(1), gomock.Any()).DoAndReturn(runWithTx(tx)).Times(2)
	tx.EXPECT().GetStockRecord(gomock.Any()).Return(&domain.StockRecord{VariantID: 1, Quantity: 1}, nil).Times(2)

	_, err := ledger.Sell(context.Background(), 1, 2)
	require.ErrorIs(t, err, domain.ErrOutOfStock)

	_, err = ledger.AdjustStock(context.Background(), 1, -2, "recount")
	require.ErrorIs(t, err, domain.ErrOutOfStock)
}

func TestStockLedger_ContextCancelledWhileWaiting(t *testing.T) {
	store := memory.NewStore(helpers.TestLogger())
	v := helpers.SeedVariant(t, store, 3)
	ledger := services.NewStockLedger(store, helpers.TestLogger())

	inside := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.WithStockLock(context.Background(), v.ID, func(ctx context.Context, tx ports.StockTx) error {
			close(inside)
			<-release
			return nil
		})
	}()
	<-inside

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := ledger.Sell(ctx, v.ID, 1)
	require.ErrorIs(t, err, domain.ErrStorage)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 3, currentQuantity(t, store, v.ID))
}
