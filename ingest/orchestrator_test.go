package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sig-0/krwrates/storage/mock"
	"github.com/sig-0/krwrates/storage/types"
)

func testSnapshot(t *testing.T) *types.Snapshot {
	t.Helper()

	buckets := make(map[types.RateType]map[types.Currency]float64)

	for _, rateType := range types.RateTypes() {
		buckets[rateType] = map[types.Currency]float64{
			types.CurrencyKRW: 1.0,
			types.CurrencyUSD: 1350.00,
		}
	}

	snapshot := &types.Snapshot{
		RatesByType: buckets,
		FetchedAt:   time.Now().UTC(),
	}

	require.NoError(t, snapshot.Validate())

	return snapshot
}

// validProvider creates a mock provider with the given fetch delegate
func validProvider(fetchFn fetchDelegate) *mockProvider {
	return &mockProvider{
		nameFn: func() string {
			return "mock provider"
		},
		intervalFn: func() time.Duration {
			return time.Minute
		},
		fetchFn: fetchFn,
	}
}

func TestOrchestrator_Register(t *testing.T) {
	t.Parallel()

	t.Run("nil provider", func(t *testing.T) {
		t.Parallel()

		o := New(&mock.Storage{})

		assert.ErrorIs(t, o.Register(nil), errInvalidProvider)
	})

	t.Run("empty provider name", func(t *testing.T) {
		t.Parallel()

		o := New(&mock.Storage{})

		p := &mockProvider{
			intervalFn: func() time.Duration {
				return time.Minute
			},
		}

		assert.ErrorIs(t, o.Register(p), errInvalidProvider)
	})

	t.Run("invalid interval", func(t *testing.T) {
		t.Parallel()

		o := New(&mock.Storage{})

		p := &mockProvider{
			nameFn: func() string {
				return "mock provider"
			},
		}

		assert.ErrorIs(t, o.Register(p), errInvalidInterval)
	})

	t.Run("valid provider is queued immediately", func(t *testing.T) {
		t.Parallel()

		o := New(&mock.Storage{})

		require.NoError(t, o.Register(validProvider(nil)))

		o.qMux.Lock()
		defer o.qMux.Unlock()

		assert.Equal(t, 1, o.q.Len())
	})
}

func TestOrchestrator_Start(t *testing.T) {
	t.Parallel()

	t.Run("fetched snapshot is saved", func(t *testing.T) {
		t.Parallel()

		var (
			snapshot = testSnapshot(t)
			savedCh  = make(chan *types.Snapshot, 1)
		)

		store := &mock.Storage{
			SaveSnapshotFn: func(_ context.Context, s *types.Snapshot) error {
				select {
				case savedCh <- s:
				default:
				}

				return nil
			},
		}

		o := New(store, WithQueryInterval(10*time.Millisecond))

		provider := validProvider(
			func(_ context.Context) (*types.Snapshot, error) {
				return snapshot, nil
			},
		)

		require.NoError(t, o.Register(provider))

		ctx, cancelFn := context.WithTimeout(context.Background(), time.Second*5)
		defer cancelFn()

		doneCh := make(chan error, 1)

		go func() {
			doneCh <- o.Start(ctx)
		}()

		select {
		case saved := <-savedCh:
			assert.Equal(t, snapshot, saved)
		case <-ctx.Done():
			t.Fatal("snapshot was never saved")
		}

		cancelFn()
		assert.NoError(t, <-doneCh)
	})

	t.Run("successful fetch is rescheduled", func(t *testing.T) {
		t.Parallel()

		savedCh := make(chan struct{}, 1)

		store := &mock.Storage{
			SaveSnapshotFn: func(_ context.Context, _ *types.Snapshot) error {
				select {
				case savedCh <- struct{}{}:
				default:
				}

				return nil
			},
		}

		o := New(store, WithQueryInterval(10*time.Millisecond))

		snapshot := testSnapshot(t)

		require.NoError(t, o.Register(validProvider(
			func(_ context.Context) (*types.Snapshot, error) {
				return snapshot, nil
			},
		)))

		ctx, cancelFn := context.WithTimeout(context.Background(), time.Second*5)
		defer cancelFn()

		doneCh := make(chan error, 1)

		go func() {
			doneCh <- o.Start(ctx)
		}()

		select {
		case <-savedCh:
		case <-ctx.Done():
			t.Fatal("snapshot was never saved")
		}

		// A follow-up fetch lands back in the queue
		require.Eventually(t, func() bool {
			o.qMux.Lock()
			defer o.qMux.Unlock()

			return o.q.Len() == 1
		}, time.Second*5, 10*time.Millisecond)

		cancelFn()
		assert.NoError(t, <-doneCh)
	})

	t.Run("failed fetch is retried, nothing saved", func(t *testing.T) {
		t.Parallel()

		store := &mock.Storage{
			SaveSnapshotFn: func(_ context.Context, _ *types.Snapshot) error {
				t.Error("nothing should be saved")

				return nil
			},
		}

		o := New(store, WithQueryInterval(10*time.Millisecond))

		require.NoError(t, o.Register(validProvider(
			func(_ context.Context) (*types.Snapshot, error) {
				return nil, errors.New("upstream exploded")
			},
		)))

		ctx, cancelFn := context.WithTimeout(context.Background(), time.Second*5)
		defer cancelFn()

		doneCh := make(chan error, 1)

		go func() {
			doneCh <- o.Start(ctx)
		}()

		// The retry job lands back in the queue
		require.Eventually(t, func() bool {
			o.qMux.Lock()
			defer o.qMux.Unlock()

			return o.q.Len() == 1
		}, time.Second*5, 10*time.Millisecond)

		cancelFn()
		assert.NoError(t, <-doneCh)
	})
}

func TestScheduledFetch_Ordering(t *testing.T) {
	t.Parallel()

	var (
		now   = time.Now().UTC()
		early = scheduledFetch{at: now}
		late  = scheduledFetch{at: now.Add(time.Minute)}
	)

	assert.True(t, early.Less(late))
	assert.False(t, late.Less(early))
}
