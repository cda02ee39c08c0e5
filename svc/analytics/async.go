package analytics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/t333watch/t333watch/pkg/logger"
)

// BatchWriter persists events in bulk.
type BatchWriter interface {
	WriteBatch(ctx context.Context, events []Event) error
}

type AsyncOptions struct {
	BufferSize   int           `env:"ANALYTICS_BUFFER_SIZE" envDefault:"1024"`
	BatchSize    int           `env:"ANALYTICS_BATCH_SIZE" envDefault:"100"`
	BatchTimeout time.Duration `env:"ANALYTICS_BATCH_TIMEOUT" envDefault:"500ms"`
	WriteTimeout time.Duration `env:"ANALYTICS_WRITE_TIMEOUT" envDefault:"5s"`
}

// AsyncRecorder queues events in a bounded channel and writes them in
// batches from a single worker. When the queue is full or the recorder is
// closed, events are dropped and counted.
type AsyncRecorder struct {
	w    BatchWriter
	log  *slog.Logger
	opts AsyncOptions

	queue chan Event
	done  chan struct{}
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	dropped atomic.Int64
	failed  atomic.Int64
}

func NewAsyncRecorder(w BatchWriter, log *slog.Logger, opts AsyncOptions) *AsyncRecorder {
	if w == nil {
		panic("analytics: batch writer cannot be nil")
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1024
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = 500 * time.Millisecond
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}

	r := &AsyncRecorder{
		w:     w,
		log:   log.With(logger.Component("analytics")),
		opts:  opts,
		queue: make(chan Event, opts.BufferSize),
		done:  make(chan struct{}),
	}
	r.wg.Add(1)
	go r.worker()
	return r
}

func (r *AsyncRecorder) Record(ctx context.Context, e Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.drop(ctx, e, "recorder closed")
		return
	}
	select {
	case r.queue <- e:
	default:
		r.drop(ctx, e, "queue full")
	}
}

func (r *AsyncRecorder) drop(ctx context.Context, e Event, reason string) {
	r.dropped.Add(1)
	r.log.WarnContext(ctx, "analytics event dropped",
		slog.String("event", e.Name),
		slog.String("reason", reason),
	)
}

// Dropped reports how many events never reached the writer queue.
func (r *AsyncRecorder) Dropped() int64 { return r.dropped.Load() }

// Failed reports how many queued events were lost to writer errors.
func (r *AsyncRecorder) Failed() int64 { return r.failed.Load() }

func (r *AsyncRecorder) worker() {
	defer r.wg.Done()

	batch := make([]Event, 0, r.opts.BatchSize)
	ticker := time.NewTicker(r.opts.BatchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), r.opts.WriteTimeout)
		defer cancel()
		if err := r.w.WriteBatch(ctx, batch); err != nil {
			r.failed.Add(int64(len(batch)))
			r.log.ErrorContext(ctx, "analytics batch write failed", slog.Int("events", len(batch)), logger.Error(err))
		}
		clear(batch)
		batch = batch[:0]
	}

	for {
		select {
		case e := <-r.queue:
			batch = append(batch, e)
			if len(batch) >= r.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-r.done:
			for {
				select {
				case e := <-r.queue:
					batch = append(batch, e)
					if len(batch) >= r.opts.BatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

// Close stops accepting events and waits for the queue to drain.
func (r *AsyncRecorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.done)
	r.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
