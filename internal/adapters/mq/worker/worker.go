// Package worker defines the persistence workers that drain score
// snapshots off the queue and write them to the store.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/pugil/internal/adapters/mq/queue"
	"github.com/okian/pugil/pkg/logger"
	"github.com/okian/pugil/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount    = 2
	saveTimeout           = 5 * time.Second
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Record abstracts what workers read off the queue.
type Record = queue.Record

// Saver persists a score record.
type Saver interface {
	Save(ctx context.Context, rec Record) error
}

// Queue defines how workers receive records.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Record
}

// Worker drains records and writes them using the provided Saver.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// StoreWorker implements Worker by saving each record to a store.
type StoreWorker struct {
	queue Queue
	saver Saver
	name  string

	// Shutdown control
	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	// Logging
	logger logger.Logger
}

// NewStoreWorker creates a new worker with configuration options.
func NewStoreWorker(q Queue, saver Saver, opts ...Option) *StoreWorker {
	w := &StoreWorker{
		queue:    q,
		saver:    saver,
		name:     "worker", // default name
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"), // will be updated by options
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	// Set up logger with worker name if not already set
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *StoreWorker) Run(ctx context.Context) {
	defer func() {
		close(w.done)
	}()

	recordChan := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case rec, ok := <-recordChan:
			if !ok {
				// Channel closed, worker should stop
				return
			}

			if err := w.processRecord(ctx, rec); err != nil {
				w.logger.Error(ctx, "error persisting snapshot", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *StoreWorker) Shutdown(ctx context.Context) error {
	// Signal shutdown
	w.stopOnce.Do(func() { close(w.shutdown) })

	// Wait for worker to finish or context to timeout
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processRecord persists a single snapshot. Each save gets its own
// timeout so a stuck store cannot wedge the drain loop.
func (w *StoreWorker) processRecord(ctx context.Context, rec Record) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	saveCtx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()

	if err := w.saver.Save(saveCtx, rec); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "save_error")
		return fmt.Errorf("save score record: %w", err)
	}

	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*StoreWorker
	queue   Queue
	saver   Saver

	// Logging
	logger logger.Logger
}

// NewPool creates a new worker pool.
func NewPool(workerCount int, q Queue, saver Saver) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	pool := &Pool{
		workers: make([]*StoreWorker, workerCount),
		queue:   q,
		saver:   saver,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewStoreWorker(
			q,
			saver,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	// Initialize worker metrics
	metrics.UpdateWorkerActiveCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop stops all workers without closing the queue.
func (p *Pool) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
	defer cancel()

	for _, w := range p.workers {
		_ = w.Shutdown(ctx)
	}
}

// Shutdown gracefully shuts down the entire worker pool.
func (p *Pool) Shutdown(ctx context.Context) error {
	// Close the queue first so the drain loop sees the end of input
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	// Wait for all workers to finish or the timeout to lapse
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
