// Package service owns the download worker pool: jobs are enqueued by the
// HTTP layer and picked up by a bounded set of workers.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"vidgrab/internal/config"
	"vidgrab/internal/download"
	"vidgrab/internal/entity"
	"vidgrab/internal/errs"
	"vidgrab/internal/observability"
	"vidgrab/internal/storage"
)

// Downloads accepts and processes download jobs.
type Downloads interface {
	Start(ctx context.Context)
	Enqueue(ctx context.Context, job download.Job) error
}

type service struct {
	log          *slog.Logger
	cfg          *config.Config
	orchestrator *download.Orchestrator
	store        storage.Storer
	metrics      *observability.Metrics

	queue     chan download.Job
	wg        sync.WaitGroup
	closed    atomic.Bool
	startOnce sync.Once
}

var _ Downloads = (*service)(nil)

// New creates the download service.
func New(
	log *slog.Logger,
	cfg *config.Config,
	orchestrator *download.Orchestrator,
	store storage.Storer,
	metrics *observability.Metrics,
) Downloads {
	return &service{
		log:          log.With(slog.String("package", "service")),
		cfg:          cfg,
		orchestrator: orchestrator,
		store:        store,
		metrics:      metrics,
		queue:        make(chan download.Job, cfg.Job.QueueSize),
	}
}

// Start launches the worker pool. Safe to call once; subsequent calls are no-ops.
func (svc *service) Start(ctx context.Context) {
	svc.startOnce.Do(func() {
		for i := range svc.cfg.Job.Workers {
			svc.wg.Add(1)
			go svc.worker(ctx, i)
		}
	})
}

// Enqueue accepts a job and writes its initial starting record. The caller
// returns immediately; all further state flows through progress records.
func (svc *service) Enqueue(ctx context.Context, job download.Job) error {
	if svc.closed.Load() {
		return errs.ErrServiceClosed
	}

	svc.store.SetProgress(ctx, job.JobID, entity.Progress{Status: entity.StatusStarting, Percent: 0})

	select {
	case svc.queue <- job:
		if svc.metrics != nil {
			svc.metrics.RecordJobCreated()
		}

		return nil
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	default:
		svc.store.SetProgress(ctx, job.JobID, entity.Progress{
			Status:  entity.StatusError,
			Message: errs.ErrJobQueueFull.Error(),
		})

		return fmt.Errorf("%w: %d/%d", errs.ErrJobQueueFull, len(svc.queue), cap(svc.queue))
	}
}

func (svc *service) worker(ctx context.Context, workerID int) {
	defer svc.wg.Done()

	log := svc.log.With(slog.Int("worker_id", workerID))

	for {
		select {
		case job, ok := <-svc.queue:
			if !ok {
				log.WarnContext(ctx, "job queue closed")

				return
			}

			svc.processJob(ctx, job)
		case <-ctx.Done():
			svc.closed.Store(true)
			log.InfoContext(ctx, "got ctx done signal", slog.Any("error", ctx.Err()))

			return
		}
	}
}

func (svc *service) processJob(ctx context.Context, job download.Job) {
	log := svc.log.With("job", job)

	jobCtx, cancel := context.WithTimeout(ctx, svc.cfg.Job.Timeout)
	defer cancel()

	// Retained so cancellation can be exposed later without restructuring.
	svc.store.RegisterCancelFunc(job.JobID, cancel)
	defer svc.store.UnregisterCancelFunc(job.JobID)

	err := svc.orchestrator.Run(jobCtx, job)
	if err != nil {
		log.ErrorContext(ctx, "orchestrator run", slog.Any("error", err))

		return
	}

	log.DebugContext(ctx, "job processed")
}
