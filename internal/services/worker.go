package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"alfredoptarigan/profile-matcher/internal/repositories"
)

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(jobID uuid.UUID)
}

type worker struct {
	jobRepo      repositories.EmbeddingJobRepository
	runner       JobRunner
	pool         *ants.Pool
	pollInterval time.Duration
	inFlight     sync.Map
	ctx          context.Context
	wg           sync.WaitGroup
	stopChan     chan struct{}
	stopOnce     sync.Once
	logger       *zap.Logger
}

func NewWorker(
	jobRepo repositories.EmbeddingJobRepository,
	runner JobRunner,
	concurrency int,
	pollInterval time.Duration,
	logger *zap.Logger,
) (Worker, error) {
	pool, err := ants.NewPool(concurrency, ants.WithNonblocking(false))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}

	return &worker{
		jobRepo:      jobRepo,
		runner:       runner,
		pool:         pool,
		pollInterval: pollInterval,
		ctx:          context.Background(),
		stopChan:     make(chan struct{}),
		logger:       logger.Named("worker"),
	}, nil
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	w.ctx = ctx
	w.logger.Info("starting worker", zap.Int("concurrency", w.pool.Cap()))

	w.wg.Add(1)
	go w.pollPendingJobs()
}

// Stop implements Worker.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("stopping worker")
		close(w.stopChan)
		w.wg.Wait()
		if err := w.pool.ReleaseTimeout(30 * time.Second); err != nil {
			w.logger.Warn("worker pool did not drain", zap.Error(err))
		}
		w.logger.Info("worker stopped")
	})
}

// EnqueueJob implements Worker. A job already queued or running is ignored.
func (w *worker) EnqueueJob(jobID uuid.UUID) {
	select {
	case <-w.stopChan:
		w.logger.Warn("worker stopped, cannot enqueue job", zap.String("job_id", jobID.String()))
		return
	default:
	}

	if _, loaded := w.inFlight.LoadOrStore(jobID, struct{}{}); loaded {
		return
	}

	err := w.pool.Submit(func() {
		defer w.inFlight.Delete(jobID)
		w.process(jobID)
	})
	if err != nil {
		w.inFlight.Delete(jobID)
		w.logger.Error("failed to submit job", zap.String("job_id", jobID.String()), zap.Error(err))
		return
	}
	w.logger.Debug("job enqueued", zap.String("job_id", jobID.String()))
}

func (w *worker) process(jobID uuid.UUID) {
	log := w.logger.With(zap.String("job_id", jobID.String()))
	log.Info("processing job")

	if err := w.runner.Run(w.ctx, jobID); err != nil {
		log.Error("job failed", zap.Error(err))
		return
	}
	log.Info("job completed")
}

func (w *worker) pollPendingJobs() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("starting pending jobs poller", zap.Duration("interval", w.pollInterval))

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("pending jobs poller stopped")
			return
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			pendingJobs, err := w.jobRepo.FindPendingJobs(10)
			if err != nil {
				w.logger.Warn("failed to fetch pending jobs", zap.Error(err))
				continue
			}

			if len(pendingJobs) > 0 {
				w.logger.Info("found pending jobs", zap.Int("count", len(pendingJobs)))
			}

			for _, job := range pendingJobs {
				w.EnqueueJob(job.ID)
			}
		}
	}
}
