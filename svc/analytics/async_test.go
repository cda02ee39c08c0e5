package analytics_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t333watch/t333watch/pkg/logger"
	"github.com/t333watch/t333watch/svc/analytics"
)

type memWriter struct {
	mu      sync.Mutex
	events  []analytics.Event
	batches int
	err     error
	block   chan struct{}
}

func (w *memWriter) WriteBatch(ctx context.Context, events []analytics.Event) error {
	if w.block != nil {
		<-w.block
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.batches++
	if w.err != nil {
		return w.err
	}
	w.events = append(w.events, events...)
	return nil
}

func (w *memWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.events)
}

func event(name string) analytics.Event {
	return analytics.New(analytics.CategoryFunnel, name, uuid.New(), nil)
}

func TestAsyncRecorder_FlushesOnBatchSize(t *testing.T) {
	t.Parallel()

	w := &memWriter{}
	r := analytics.NewAsyncRecorder(w, logger.Discard(), analytics.AsyncOptions{BatchSize: 3, BatchTimeout: time.Hour})
	defer r.Close(context.Background())

	for range 3 {
		r.Record(context.Background(), event(analytics.FunnelPurchase))
	}
	require.Eventually(t, func() bool { return w.count() == 3 }, time.Second, 5*time.Millisecond)
}

func TestAsyncRecorder_FlushesOnTimeout(t *testing.T) {
	t.Parallel()

	w := &memWriter{}
	r := analytics.NewAsyncRecorder(w, logger.Discard(), analytics.AsyncOptions{BatchSize: 100, BatchTimeout: 10 * time.Millisecond})
	defer r.Close(context.Background())

	r.Record(context.Background(), event(analytics.RetentionInit))
	require.Eventually(t, func() bool { return w.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestAsyncRecorder_NeverBlocks(t *testing.T) {
	t.Parallel()

	w := &memWriter{block: make(chan struct{})}
	r := analytics.NewAsyncRecorder(w, logger.Discard(), analytics.AsyncOptions{BufferSize: 2, BatchSize: 1, BatchTimeout: time.Hour})

	start := time.Now()
	for range 50 {
		r.Record(context.Background(), event(analytics.PaymentFailed))
	}
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Positive(t, r.Dropped())

	close(w.block)
	require.NoError(t, r.Close(context.Background()))
	assert.Equal(t, int64(50), r.Dropped()+int64(w.count()))
}

func TestAsyncRecorder_CloseDrainsAndRejects(t *testing.T) {
	t.Parallel()

	w := &memWriter{}
	r := analytics.NewAsyncRecorder(w, logger.Discard(), analytics.AsyncOptions{BatchSize: 100, BatchTimeout: time.Hour})
	for range 10 {
		r.Record(context.Background(), event(analytics.SubscriptionCreated))
	}
	require.NoError(t, r.Close(context.Background()))
	assert.Equal(t, 10, w.count())

	r.Record(context.Background(), event(analytics.SubscriptionCreated))
	assert.Equal(t, int64(1), r.Dropped())
	require.NoError(t, r.Close(context.Background()), "second close is a no-op")
}

func TestAsyncRecorder_WriterErrorIsAbsorbed(t *testing.T) {
	t.Parallel()

	w := &memWriter{err: errors.New("db down")}
	r := analytics.NewAsyncRecorder(w, logger.Discard(), analytics.AsyncOptions{BatchSize: 2, BatchTimeout: time.Hour})
	r.Record(context.Background(), event(analytics.PaymentSucceeded))
	r.Record(context.Background(), event(analytics.PaymentSucceeded))
	require.NoError(t, r.Close(context.Background()))
	assert.Equal(t, int64(2), r.Failed())
}
