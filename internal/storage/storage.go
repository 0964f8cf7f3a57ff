// Package storage provides the process-wide media registry and progress
// tracker shared by handlers and download workers.
package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"vidgrab/internal/config"
	"vidgrab/internal/entity"
	"vidgrab/internal/errs"
	"vidgrab/internal/observability"
)

// Storer defines the interface for registry and progress operations.
type Storer interface {
	SetMedia(ctx context.Context, media *entity.Media)
	GetMedia(ctx context.Context, id string) (*entity.Media, error)

	// SetProgress replaces the progress record for a job id wholesale.
	// Exactly one orchestrator task writes per job id at a time.
	SetProgress(ctx context.Context, jobID string, progress entity.Progress)
	// GetProgress returns the current record, or the not_started default
	// when nothing has been written yet.
	GetProgress(ctx context.Context, jobID string) entity.Progress

	SetPreview(ctx context.Context, jobID, formatID, filename string) error
	GetPreview(ctx context.Context, jobID, formatID string) (string, bool)

	// SetDownload records the completed output filename for one format
	// variant of a media record. GetDownload backs the duplicate-download
	// short circuit, keyed on the media id rather than the bare filename.
	SetDownload(ctx context.Context, jobID, fileKey, filename string) error
	GetDownload(ctx context.Context, jobID, fileKey string) (string, bool)

	// RegisterCancelFunc retains a job's cancel handle. Nothing calls these
	// handles yet; they exist so cancellation can be added without
	// restructuring the registry.
	RegisterCancelFunc(jobID string, cancelFunc context.CancelFunc)
	UnregisterCancelFunc(jobID string)

	CleanupExpired(ctx context.Context, interval time.Duration)
}

type storage struct {
	log     *slog.Logger
	cfg     *config.Config
	metrics *observability.Metrics

	mu       sync.RWMutex
	media    map[string]*entity.Media   // media id : record
	progress map[string]entity.Progress // job id : progress

	cancelMu    sync.RWMutex
	cancelFuncs map[string]context.CancelFunc // job id : cancel func
}

// New creates a new in-memory store and starts its TTL cleanup loop.
func New(ctx context.Context, log *slog.Logger, cfg *config.Config, metrics *observability.Metrics) Storer {
	stg := &storage{
		log:         log.With(slog.String("package", "storage")),
		cfg:         cfg,
		metrics:     metrics,
		media:       make(map[string]*entity.Media),
		progress:    make(map[string]entity.Progress),
		cancelFuncs: make(map[string]context.CancelFunc),
	}

	go stg.CleanupExpired(ctx, cfg.Storage.CleanupInterval)

	return stg
}

func (stg *storage) SetMedia(ctx context.Context, media *entity.Media) {
	if media == nil || media.ID == "" {
		stg.log.ErrorContext(ctx, "set media: nil or unidentified media")

		return
	}

	stg.mu.Lock()
	defer stg.mu.Unlock()

	stg.media[media.ID] = media

	if stg.metrics != nil {
		stg.metrics.SetStoredMedia(len(stg.media))
	}
}

func (stg *storage) GetMedia(_ context.Context, id string) (*entity.Media, error) {
	stg.mu.RLock()
	defer stg.mu.RUnlock()

	media := stg.media[id]
	if media == nil {
		return nil, errs.ErrMediaNotFound
	}

	return media, nil
}

func (stg *storage) SetProgress(ctx context.Context, jobID string, progress entity.Progress) {
	if jobID == "" {
		stg.log.ErrorContext(ctx, "set progress: empty job id")

		return
	}

	stg.mu.Lock()
	defer stg.mu.Unlock()

	stg.progress[jobID] = progress

	stg.log.DebugContext(ctx, "progress updated", slog.String("job_id", jobID), "progress", progress)
}

func (stg *storage) GetProgress(_ context.Context, jobID string) entity.Progress {
	stg.mu.RLock()
	defer stg.mu.RUnlock()

	progress, ok := stg.progress[jobID]
	if !ok {
		return entity.Progress{Status: entity.StatusNotStarted, Percent: 0}
	}

	return progress
}

func (stg *storage) SetPreview(_ context.Context, jobID, formatID, filename string) error {
	stg.mu.Lock()
	defer stg.mu.Unlock()

	media := stg.media[jobID]
	if media == nil {
		return errs.ErrMediaNotFound
	}

	if media.Previews == nil {
		media.Previews = make(map[string]string)
	}

	media.Previews[formatID] = filename

	return nil
}

func (stg *storage) GetPreview(_ context.Context, jobID, formatID string) (string, bool) {
	stg.mu.RLock()
	defer stg.mu.RUnlock()

	media := stg.media[jobID]
	if media == nil || media.Previews == nil {
		return "", false
	}

	filename, ok := media.Previews[formatID]

	return filename, ok
}

func (stg *storage) SetDownload(_ context.Context, jobID, fileKey, filename string) error {
	stg.mu.Lock()
	defer stg.mu.Unlock()

	media := stg.media[jobID]
	if media == nil {
		return errs.ErrMediaNotFound
	}

	if media.Files == nil {
		media.Files = make(map[string]string)
	}

	media.Files[fileKey] = filename

	return nil
}

func (stg *storage) GetDownload(_ context.Context, jobID, fileKey string) (string, bool) {
	stg.mu.RLock()
	defer stg.mu.RUnlock()

	media := stg.media[jobID]
	if media == nil || media.Files == nil {
		return "", false
	}

	filename, ok := media.Files[fileKey]

	return filename, ok
}

// RegisterCancelFunc stores a cancel function for a job.
func (stg *storage) RegisterCancelFunc(jobID string, cancelFunc context.CancelFunc) {
	stg.cancelMu.Lock()
	defer stg.cancelMu.Unlock()

	stg.cancelFuncs[jobID] = cancelFunc
}

// UnregisterCancelFunc removes the cancel function for a job.
func (stg *storage) UnregisterCancelFunc(jobID string) {
	stg.cancelMu.Lock()
	defer stg.cancelMu.Unlock()

	delete(stg.cancelFuncs, jobID)
}
