package queue

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Handler processes one dequeued item.
type Handler[T any] func(ctx context.Context, item T) error

// Dispatcher routes items to a fixed set of workers by hashing a key, so
// items sharing a key are handled in enqueue order.
type Dispatcher[T any] struct {
	workers []chan T
	key     func(T) string
	handle  Handler[T]
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher[T any](numWorkers int, key func(T) string, handle Handler[T], log zerolog.Logger) *Dispatcher[T] {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher[T]{
		workers: make([]chan T, numWorkers),
		key:     key,
		handle:  handle,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan T, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. After Close, workers drain their
// channel and return. Cancelling ctx stops them immediately and drops
// whatever is still queued, so callers that need a full drain pass a
// context that outlives Close.
func (d *Dispatcher[T]) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// TryEnqueue never blocks. It reports false when the worker's buffer is
// full or the dispatcher is closed.
func (d *Dispatcher[T]) TryEnqueue(item T) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}
	select {
	case d.workers[d.shardIndex(d.key(item))] <- item:
		return true
	default:
		return false
	}
}

// Depth returns the number of items waiting across all workers.
func (d *Dispatcher[T]) Depth() int {
	n := 0
	for _, ch := range d.workers {
		n += len(ch)
	}
	return n
}

// Close stops accepting items and lets workers drain what is queued.
func (d *Dispatcher[T]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	for _, ch := range d.workers {
		close(ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher[T]) Wait() {
	d.wg.Wait()
}

// shardIndex maps a key deterministically to a worker index.
func (d *Dispatcher[T]) shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher[T]) runWorker(ctx context.Context, id int, ch <-chan T) {
	defer d.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case item, ok := <-ch:
			if !ok {
				return
			}
			if err := d.handle(ctx, item); err != nil {
				d.log.Error().Err(err).
					Str("key", d.key(item)).
					Int("worker_id", id).
					Msg("queued item processing failed")
			}
		}
	}
}
