package async

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/adelaunay/paperbase/internal/observability/metrics"
	"github.com/adelaunay/paperbase/internal/pipeline"
	"github.com/adelaunay/paperbase/internal/resilience"
)

type ProcessorQueue struct {
	proc    *pipeline.Processor
	metrics *metrics.Pipeline
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}
func WithMetrics(m *metrics.Pipeline) Option {
	return func(q *ProcessorQueue) {
		q.metrics = m
	}
}

func NewProcessorQueue(proc *pipeline.Processor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 5 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.observeDepth()
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					err := q.proc.Process(ctx, job.DocID, job.Raw, job.Snapshot)
					cancel()

					switch {
					case err != nil && resilience.IsCircuitOpen(err):
						q.logger.Warn("engine circuit open, document left unprocessed", "worker_id", workerID, "doc_id", job.DocID)
					case err != nil:
						q.logger.Error("processing failed", "worker_id", workerID, "doc_id", job.DocID, "error", err)
					default:
						q.logger.Info("processed document", "worker_id", workerID, "doc_id", job.DocID,
							"wait_ms", time.Since(job.SubmittedAt).Milliseconds())
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue holds only a read lock so a producer blocked on a full channel
// cannot stall Shutdown. The send still completes: Shutdown closes the
// channel only after taking the write lock, and workers keep draining until
// then.
func (q *ProcessorQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "doc_id", job.DocID)
		return nil
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued document for processing", "doc_id", job.DocID)
	default:
		q.logger.Warn("queue full, applying backpressure", "doc_id", job.DocID)
		q.ch <- job
	}
	q.observeDepth()
	return nil
}

func (q *ProcessorQueue) observeDepth() {
	if q.metrics != nil {
		q.metrics.SetQueueDepth(len(q.ch))
	}
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
