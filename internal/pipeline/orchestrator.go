package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/dxfnet/internal/config"
	"github.com/dgallion1/dxfnet/internal/convert"
	"github.com/dgallion1/dxfnet/internal/metrics"
)

var (
	// ErrQueueFull is returned by Submit when no queue slot is free.
	ErrQueueFull = errors.New("job queue is full")

	// ErrStopped is returned by Submit after Stop, and recorded on jobs
	// still queued at shutdown.
	ErrStopped = errors.New("orchestrator stopped")
)

// Orchestrator owns the job store and the worker pool.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	conv  *convert.Converter
	stats *ConversionStats
	log   *slog.Logger
	cfg   config.Config

	mu      sync.Mutex // guards stopped and sends on queue
	stopped bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Submit may be called before Start;
// jobs wait in the queue until workers run.
func NewOrchestrator(cfg config.Config, conv *convert.Converter, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		conv:  conv,
		stats: NewConversionStats(cfg.StatsWindow),
		log:   log,
		cfg:   cfg,
	}
}

// Start launches worker goroutines and the job store janitor.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for id := range o.cfg.WorkerCount {
		o.wg.Add(1)
		go o.work(workerCtx, id)
	}

	o.wg.Add(1)
	go o.janitor(workerCtx, cleanupInterval(o.cfg.JobTTL))
}

func (o *Orchestrator) work(ctx context.Context, id int) {
	defer o.wg.Done()
	w := NewWorker(o.conv, o.stats, o.log.With("worker", id))
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-o.queue:
			if !ok {
				return
			}
			metrics.QueueDepth.Set(float64(len(o.queue)))
			w.Process(ctx, job)
		}
	}
}

func (o *Orchestrator) janitor(ctx context.Context, every time.Duration) {
	defer o.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.jobs.Cleanup()
		}
	}
}

// cleanupInterval sweeps four times per TTL, between one minute and five.
func cleanupInterval(ttl time.Duration) time.Duration {
	return min(max(ttl/4, time.Minute), 5*time.Minute)
}

// Stop cancels running conversions, waits for workers to exit and fails
// every job that never left the queue. It is safe to call more than once.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()

	for job := range o.queue {
		job.Fail(ErrStopped, "shutdown")
	}
	metrics.QueueDepth.Set(0)
}

// Submit queues a job for a worker.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped {
		job.Fail(ErrStopped, "shutdown")
		return ErrStopped
	}
	select {
	case o.queue <- job:
		metrics.QueueDepth.Set(float64(len(o.queue)))
		return nil
	default:
		job.Fail(ErrQueueFull, "queue_full")
		return fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// Run converts job on the calling goroutine and keeps it in the store so
// its artifacts can be downloaded later.
func (o *Orchestrator) Run(ctx context.Context, job *Job) (*convert.Result, error) {
	o.jobs.Put(job)
	NewWorker(o.conv, o.stats, o.log).Process(ctx, job)
	return job.Result()
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats returns rolling conversion statistics.
func (o *Orchestrator) Stats() StatsSnapshot {
	return o.stats.Snapshot()
}

// Converter returns the converter jobs run with.
func (o *Orchestrator) Converter() *convert.Converter {
	return o.conv
}
