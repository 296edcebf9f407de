package scanjob

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/domain/scan"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/prometheus"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/errors"
	"github.com/themastyogi/Counterfeit-Detector-sub000/pkg/types/common"
)

// Pool defaults.
const (
	DefaultWorkers      = 4
	DefaultQueueSize    = 256
	DefaultJobTimeout   = 2 * time.Minute
	DefaultRecoverBatch = 500
)

// PoolConfig sizes the in-process worker pool.
type PoolConfig struct {
	Name         string        `mapstructure:"name"`
	Workers      int           `mapstructure:"workers"`
	QueueSize    int           `mapstructure:"queue_size"`
	JobTimeout   time.Duration `mapstructure:"job_timeout"`
	RecoverBatch int           `mapstructure:"recover_batch"`
}

func (c *PoolConfig) applyDefaults() {
	if c.Name == "" {
		c.Name = "scan"
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = DefaultJobTimeout
	}
	if c.RecoverBatch <= 0 {
		c.RecoverBatch = DefaultRecoverBatch
	}
}

// Pool is a bounded in-process queue with a fixed number of workers. It is
// the Dispatcher used when no broker is configured. Enqueue never blocks: a
// full queue is reported to the caller so the submitting request can fail
// fast instead of stalling.
type Pool struct {
	cfg     PoolConfig
	jobs    scan.JobRepository
	metrics *prometheus.ScanMetrics
	logger  logging.Logger

	queue   chan common.ID
	mu      sync.RWMutex
	started bool
	stopped bool
	active  atomic.Int64
	wg      sync.WaitGroup
}

// NewPool builds a stopped pool. jobs may be nil, in which case pending jobs
// left by a previous process are not recovered on Start.
func NewPool(cfg PoolConfig, jobs scan.JobRepository, metrics *prometheus.ScanMetrics, logger logging.Logger) *Pool {
	cfg.applyDefaults()
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Pool{
		cfg:     cfg,
		jobs:    jobs,
		metrics: metrics,
		logger:  logger.Named("pool").With(logging.String("pool", cfg.Name)),
		queue:   make(chan common.ID, cfg.QueueSize),
	}
}

// Start launches the workers and re-enqueues PENDING jobs found in the
// repository. proc is passed here rather than to NewPool because the
// service that processes jobs also dispatches through the pool.
func (p *Pool) Start(ctx context.Context, proc Processor) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return errors.New(errors.ErrCodeConflict, "scan pool already started")
	}
	if p.stopped {
		p.mu.Unlock()
		return errors.New(errors.ErrCodeScanDispatcherStopped, "scan pool is stopped")
	}
	p.started = true
	p.mu.Unlock()

	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i, proc)
	}
	p.logger.Info("scan pool started",
		logging.Int("workers", p.cfg.Workers),
		logging.Int("queue_size", p.cfg.QueueSize))

	p.recoverPending(ctx)
	return nil
}

func (p *Pool) recoverPending(ctx context.Context) {
	if p.jobs == nil {
		return
	}
	pending, err := p.jobs.ListPending(ctx, p.cfg.RecoverBatch)
	if err != nil {
		p.logger.Warn("could not list pending scan jobs", logging.Err(err))
		return
	}
	requeued := 0
	for _, job := range pending {
		if err := p.Enqueue(job.ID); err != nil {
			p.logger.Warn("pending scan job not requeued", logging.JobID(string(job.ID)), logging.Err(err))
			continue
		}
		requeued++
	}
	if requeued > 0 {
		p.logger.Info("requeued pending scan jobs", logging.Int("count", requeued))
	}
}

// Dispatch implements Dispatcher.
func (p *Pool) Dispatch(_ context.Context, job *scan.ScanJob) error {
	if job == nil {
		return errors.InvalidParam("scan job is nil")
	}
	return p.Enqueue(job.ID)
}

// Enqueue adds a job id without blocking.
func (p *Pool) Enqueue(id common.ID) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return errors.New(errors.ErrCodeScanDispatcherStopped, "scan pool is stopped")
	}
	select {
	case p.queue <- id:
		p.report()
		return nil
	default:
		return errors.New(errors.ErrCodeScanJobQueueFull,
			fmt.Sprintf("scan queue is full (%d jobs)", p.cfg.QueueSize))
	}
}

// Queued is the number of jobs waiting for a worker.
func (p *Pool) Queued() int { return len(p.queue) }

// Active is the number of jobs being processed.
func (p *Pool) Active() int { return int(p.active.Load()) }

func (p *Pool) worker(ctx context.Context, n int, proc Processor) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case id, ok := <-p.queue:
			if !ok {
				return
			}
			p.handle(ctx, n, proc, id)
		}
	}
}

func (p *Pool) handle(ctx context.Context, n int, proc Processor, id common.ID) {
	p.active.Add(1)
	p.report()
	defer func() {
		p.active.Add(-1)
		p.report()
		if r := recover(); r != nil {
			p.logger.Error("scan worker recovered from panic",
				logging.Int("worker", n), logging.JobID(string(id)), logging.Any("panic", r))
		}
	}()

	jobCtx, cancel := context.WithTimeout(ctx, p.cfg.JobTimeout)
	defer cancel()
	if err := proc.Process(jobCtx, id); err != nil {
		p.logger.Warn("scan job processing failed",
			logging.Int("worker", n), logging.JobID(string(id)), logging.Err(err))
	}
}

func (p *Pool) report() {
	p.metrics.SetPoolState(p.cfg.Name, len(p.queue), int(p.active.Load()))
}

// Shutdown stops accepting work, lets the workers drain the queue and waits
// for them until ctx expires.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.queue)
	started := p.started
	p.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.logger.Info("scan pool drained")
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), errors.ErrCodeTimeout,
			fmt.Sprintf("scan pool shutdown timed out with %d queued", len(p.queue)))
	}
}

//Personal.AI order the ending
