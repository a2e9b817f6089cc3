package queue

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/courierdesk/ops-dashboard/internal/api/metrics"
	"github.com/courierdesk/ops-dashboard/internal/core/domain"
	"github.com/courierdesk/ops-dashboard/internal/core/ports"
)

const (
	defaultWorkers      = 4
	defaultBuffer       = 256
	defaultWriteTimeout = 5 * time.Second
)

var (
	ErrQueueFull    = errors.New("audit queue full")
	ErrQueueStopped = errors.New("audit queue stopped")
)

// AuditDispatcher is an asynchronous ports.AuditSink. InsertAuditEntry only
// enqueues; a fixed set of workers writes to the backing sink. Entries are
// sharded by actor so one actor's entries are written in order.
type AuditDispatcher struct {
	workers []chan *domain.AuditEntry
	sink    ports.AuditSink
	timeout time.Duration
	log     zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	pending atomic.Int64
	wg      sync.WaitGroup
}

// NewAuditDispatcher creates a dispatcher with numWorkers workers, each with a
// buffer of size buffer. Non-positive values fall back to the defaults.
func NewAuditDispatcher(sink ports.AuditSink, numWorkers, buffer int, timeout time.Duration, log zerolog.Logger) *AuditDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	d := &AuditDispatcher{
		workers: make([]chan *domain.AuditEntry, numWorkers),
		sink:    sink,
		timeout: timeout,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan *domain.AuditEntry, buffer)
	}
	return d
}

// Start launches the worker goroutines. Workers exit once Stop closes their queues.
func (d *AuditDispatcher) Start() {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(i, ch)
	}
}

// InsertAuditEntry enqueues entry without blocking. It fails when the queue
// for the entry's shard is full or the dispatcher has stopped.
func (d *AuditDispatcher) InsertAuditEntry(_ context.Context, entry *domain.AuditEntry) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		metrics.AuditDroppedTotal.Inc()
		return ErrQueueStopped
	}

	select {
	case d.workers[d.shardIndex(entry.ActorUsername)] <- entry:
		metrics.AuditQueueDepth.Set(float64(d.pending.Add(1)))
		return nil
	default:
		metrics.AuditDroppedTotal.Inc()
		return ErrQueueFull
	}
}

// Stop closes the queues and waits for the workers to drain them or for ctx to end.
func (d *AuditDispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("audit dispatcher stop: %w", ctx.Err())
	}
}

// Pending returns the number of entries waiting to be written.
func (d *AuditDispatcher) Pending() int64 {
	return d.pending.Load()
}

// shardIndex maps an actor deterministically to a worker index.
func (d *AuditDispatcher) shardIndex(actor string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(actor))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *AuditDispatcher) runWorker(id int, ch <-chan *domain.AuditEntry) {
	defer d.wg.Done()
	for entry := range ch {
		metrics.AuditQueueDepth.Set(float64(d.pending.Add(-1)))

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := d.sink.InsertAuditEntry(ctx, entry)
		cancel()

		if err != nil {
			metrics.AuditWriteFailuresTotal.WithLabelValues(string(entry.Action)).Inc()
			d.log.Error().Err(err).
				Str("action", string(entry.Action)).
				Str("actor", entry.ActorUsername).
				Int("worker_id", id).
				Msg("audit write failed")
		}
	}
}
