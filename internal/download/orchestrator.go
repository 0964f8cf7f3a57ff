// Package download runs download jobs: it drives the extraction engine,
// applies optional trimming, retries transient failures and reports
// progress through the store.
package download

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"vidgrab/internal/config"
	"vidgrab/internal/consts"
	"vidgrab/internal/engine"
	"vidgrab/internal/entity"
	"vidgrab/internal/errs"
	"vidgrab/internal/observability"
	"vidgrab/internal/storage"
	"vidgrab/internal/transcoder"
	"vidgrab/pkg/calc"
	"vidgrab/pkg/fsname"
	"vidgrab/pkg/human"
	"vidgrab/pkg/ptr"
)

const fullProgress = 100

// Job describes one download to run.
type Job struct {
	JobID     string
	URL       string
	FormatID  string
	Title     string
	Height    *int // nil for audio-only formats
	AudioOnly bool
	StartTime string // optional trim marker, validated upstream
	EndTime   string
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (j Job) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("job_id", j.JobID),
		slog.String("url", j.URL),
		slog.String("format_id", j.FormatID),
		slog.Bool("audio_only", j.AudioOnly),
	)
}

// OutputName composes the final filename for a job: sanitized title,
// resolution-or-format-id suffix, extension from the audio-only flag.
func OutputName(title, formatID string, height *int, audioOnly bool) string {
	resolution := formatID
	if height != nil {
		resolution = fmt.Sprintf("%dp", *height)
	}

	ext := "mp4"
	if audioOnly {
		ext = "mp3"
	}

	return fmt.Sprintf("%s_%s.%s", fsname.Sanitize(title), resolution, ext)
}

// FileKey identifies one downloadable variant of a media record: the chosen
// format, with an audio marker since extraction changes the output.
func FileKey(formatID string, audioOnly bool) string {
	if audioOnly {
		return formatID + ":audio"
	}

	return formatID
}

// Orchestrator runs download jobs. One orchestrator task owns a job id at a
// time; it is the only writer of that job's progress record.
type Orchestrator struct {
	log        *slog.Logger
	cfg        *config.Config
	engine     engine.Engine
	transcoder transcoder.Transcoder
	store      storage.Storer
	metrics    *observability.Metrics
}

// New creates a new orchestrator.
func New(
	log *slog.Logger,
	cfg *config.Config,
	eng engine.Engine,
	trc transcoder.Transcoder,
	store storage.Storer,
	metrics *observability.Metrics,
) *Orchestrator {
	return &Orchestrator{
		log:        log.With(slog.String("package", "download")),
		cfg:        cfg,
		engine:     eng,
		transcoder: trc,
		store:      store,
		metrics:    metrics,
	}
}

// Run executes one job to completion or retry exhaustion. It communicates
// exclusively through progress records; the returned error is for logging.
func (o *Orchestrator) Run(ctx context.Context, job Job) error {
	log := o.log.With("job", job)

	if o.metrics != nil {
		defer o.metrics.JobTimer()()
	}

	// Audio extraction re-encodes; without the transcoder there is no
	// point starting the download.
	if job.AudioOnly && !o.transcoder.Available() {
		o.store.SetProgress(ctx, job.JobID, entity.Progress{
			Status:  entity.StatusError,
			Message: "ffmpeg not found - cannot extract audio (mp3)",
		})

		o.recordFailed()

		return errs.ErrFFmpegUnavailable
	}

	finalPath := o.uniquePath(OutputName(job.Title, job.FormatID, job.Height, job.AudioOnly))
	outputName := filepath.Base(finalPath)

	req := engine.Request{
		URL:            job.URL,
		FormatID:       job.FormatID,
		OutputTemplate: templateFor(finalPath),
		AudioOnly:      job.AudioOnly,
		Progress:       o.progressWriter(ctx, job.JobID, outputName),
	}

	var lastErr error

	for attempt := 1; attempt <= consts.DownloadAttempts; attempt++ {
		err := o.engine.Download(ctx, req)
		if err == nil {
			o.maybeTrim(ctx, job, finalPath)

			// The collision-probed name, not the predicted one; clients
			// follow this and the Files record to the real file.
			fileKey := FileKey(job.FormatID, job.AudioOnly)
			if err := o.store.SetDownload(ctx, job.JobID, fileKey, outputName); err != nil {
				log.WarnContext(ctx, "record output filename", slog.Any("error", err))
			}

			// Trim-then-finish: this write is always the terminal one.
			o.store.SetProgress(ctx, job.JobID, finishedRecord(outputName))

			if o.metrics != nil {
				o.metrics.RecordJobCompleted()
			}

			log.InfoContext(ctx, "job finished", slog.String("file", outputName))

			return nil
		}

		lastErr = err

		log.WarnContext(ctx, "download attempt failed",
			slog.Int("attempt", attempt),
			slog.Any("error", err))

		o.store.SetProgress(ctx, job.JobID, entity.Progress{
			Status:  entity.StatusError,
			Message: err.Error(),
			Attempt: attempt,
		})

		if attempt == consts.DownloadAttempts {
			break
		}

		backoff := time.Duration(attempt) * consts.BackoffStep

		select {
		case <-ctx.Done():
			o.store.SetProgress(ctx, job.JobID, entity.Progress{
				Status:  entity.StatusError,
				Message: ctx.Err().Error(),
				Attempt: attempt,
			})

			o.recordFailed()

			return fmt.Errorf("backoff interrupted: %w", ctx.Err())
		case <-time.After(backoff):
		}

		if o.metrics != nil {
			o.metrics.JobRetries.Inc()
		}

		o.store.SetProgress(ctx, job.JobID, entity.Progress{Status: entity.StatusStarting, Percent: 0})
	}

	o.recordFailed()

	return fmt.Errorf("%w after %d attempts: %w", errs.ErrDownloadFailed, consts.DownloadAttempts, lastErr)
}

func (o *Orchestrator) recordFailed() {
	if o.metrics != nil {
		o.metrics.RecordJobFailed()
	}
}

// uniquePath resolves title collisions between distinct jobs by probing
// " (n)" suffixes. Returns the absolute output path.
func (o *Orchestrator) uniquePath(filename string) string {
	path := filepath.Join(o.cfg.Dir.Downloads, filename)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	ext := filepath.Ext(filename)
	base := filename[:len(filename)-len(ext)]

	for n := 1; ; n++ {
		candidate := filepath.Join(o.cfg.Dir.Downloads, fmt.Sprintf("%s (%d)%s", base, n, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// templateFor swaps the concrete extension for the engine's extension slot.
func templateFor(finalPath string) string {
	ext := filepath.Ext(finalPath)

	return finalPath[:len(finalPath)-len(ext)] + ".%(ext)s"
}

// maybeTrim applies trim markers to the finished download. Best effort: a
// failed trim leaves the untrimmed file in place and the job still succeeds.
func (o *Orchestrator) maybeTrim(ctx context.Context, job Job, finalPath string) {
	if job.AudioOnly || (job.StartTime == "" && job.EndTime == "") {
		return
	}

	if !o.transcoder.Available() {
		o.log.WarnContext(ctx, "trim requested but ffmpeg unavailable, keeping untrimmed output",
			slog.String("job_id", job.JobID))

		return
	}

	ext := filepath.Ext(finalPath)
	trimmedPath := finalPath[:len(finalPath)-len(ext)] + "_trimmed" + ext

	err := o.transcoder.Trim(ctx, finalPath, trimmedPath, job.StartTime, job.EndTime)
	if err != nil {
		o.log.WarnContext(ctx, "trim failed, keeping untrimmed output",
			slog.String("job_id", job.JobID),
			slog.Any("error", err))

		return
	}

	if err := os.Rename(trimmedPath, finalPath); err != nil {
		o.log.WarnContext(ctx, "trimmed file replace failed",
			slog.String("job_id", job.JobID),
			slog.Any("error", err))
	}
}

// progressWriter maps engine events onto progress records for one job id.
func (o *Orchestrator) progressWriter(ctx context.Context, jobID, outputName string) engine.ProgressFunc {
	return func(event engine.ProgressEvent) {
		switch event.Status {
		case engine.EventFinished:
			// May be overwritten by the orchestrator's own terminal
			// write after trimming; last write wins.
			o.store.SetProgress(ctx, jobID, finishedRecord(outputName))
		case engine.EventError:
			o.store.SetProgress(ctx, jobID, entity.Progress{
				Status:  entity.StatusError,
				Message: event.Message,
			})
		default:
			o.store.SetProgress(ctx, jobID, downloadingRecord(event))
		}
	}
}

func downloadingRecord(event engine.ProgressEvent) entity.Progress {
	progress := entity.Progress{
		Status:    entity.StatusDownloading,
		Percent:   calc.Progress(event.Downloaded, event.Total),
		SpeedText: "0 B/s",
		ETAText:   "Unknown",
	}

	if event.Speed > 0 {
		progress.Speed = ptr.Of(event.Speed)
		progress.SpeedText = human.Size(event.Speed) + "/s"
	}

	if event.Total > 0 && event.Speed > 0 {
		remain := event.Total - event.Downloaded
		if remain < 0 {
			remain = 0
		}

		progress.ETA = ptr.Of(int(float64(remain) / event.Speed))
	} else if event.ETA != nil {
		progress.ETA = event.ETA
	}

	if progress.ETA != nil {
		progress.ETAText = human.Time(*progress.ETA)
	}

	return progress
}

func finishedRecord(outputName string) entity.Progress {
	return entity.Progress{
		Status:    entity.StatusFinished,
		Percent:   fullProgress,
		Speed:     ptr.Of(0.0),
		SpeedText: "0 B/s",
		ETA:       ptr.Of(0),
		ETAText:   "0s",
		Filename:  outputName,
	}
}
