// Package preview generates short re-encoded sample clips for a chosen
// format, memoized per (job, format) pair.
package preview

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"vidgrab/internal/config"
	"vidgrab/internal/engine"
	"vidgrab/internal/entity"
	"vidgrab/internal/errs"
	"vidgrab/internal/observability"
	"vidgrab/internal/storage"
	"vidgrab/internal/transcoder"
	"vidgrab/pkg/fsname"
)

// Service generates and memoizes preview clips.
type Service struct {
	log        *slog.Logger
	cfg        *config.Config
	store      storage.Storer
	engine     engine.Engine
	transcoder transcoder.Transcoder
	metrics    *observability.Metrics
}

// New creates a new preview service.
func New(
	log *slog.Logger,
	cfg *config.Config,
	store storage.Storer,
	eng engine.Engine,
	trc transcoder.Transcoder,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		log:        log.With(slog.String("package", "preview")),
		cfg:        cfg,
		store:      store,
		engine:     eng,
		transcoder: trc,
		metrics:    metrics,
	}
}

// Filename returns the deterministic preview filename for a media/format pair.
func Filename(title, jobID, formatID string) string {
	name := title
	if name == "" {
		name = jobID
	}

	return fmt.Sprintf("%s_%s_preview.mp4", fsname.Sanitize(name), formatID)
}

// Generate returns the relative filename of a preview clip for the given
// job and format, producing it on first request.
func (s *Service) Generate(ctx context.Context, jobID, formatID string) (string, error) {
	media, err := s.store.GetMedia(ctx, jobID)
	if err != nil {
		return "", fmt.Errorf("get media: %w", err)
	}

	filename := Filename(media.Title, jobID, formatID)
	path := filepath.Join(s.cfg.Dir.Previews, filename)

	// Memoized: recorded for this job+format, or already on disk from a
	// previous process lifetime.
	if recorded, ok := s.store.GetPreview(ctx, jobID, formatID); ok {
		s.recordCacheHit()

		return recorded, nil
	}

	if _, err := os.Stat(path); err == nil {
		s.recordCacheHit()

		if err := s.store.SetPreview(ctx, jobID, formatID, filename); err != nil {
			s.log.WarnContext(ctx, "record existing preview", slog.Any("error", err))
		}

		return filename, nil
	}

	streamURL, err := s.streamURL(ctx, media, formatID)
	if err != nil {
		s.recordFailure()

		return "", err
	}

	if !s.transcoder.Available() {
		s.recordFailure()

		return "", errs.ErrFFmpegUnavailable
	}

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.Preview.Timeout)
	defer cancel()

	err = s.transcoder.Preview(genCtx, streamURL, path, s.cfg.Preview.Duration)
	if err != nil {
		// Drop any partial output before reporting failure.
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			s.log.WarnContext(ctx, "remove partial preview", slog.Any("error", rmErr))
		}

		s.recordFailure()

		return "", fmt.Errorf("%w: %w", errs.ErrPreviewFailed, err)
	}

	if err := s.store.SetPreview(ctx, jobID, formatID, filename); err != nil {
		s.log.WarnContext(ctx, "record preview", slog.Any("error", err))
	}

	if s.metrics != nil {
		s.metrics.PreviewsGenerated.Inc()
	}

	s.log.InfoContext(ctx, "preview generated",
		slog.String("job_id", jobID),
		slog.String("format_id", formatID),
		slog.String("file", filename))

	return filename, nil
}

func (s *Service) recordCacheHit() {
	if s.metrics != nil {
		s.metrics.PreviewCacheHits.Inc()
	}
}

func (s *Service) recordFailure() {
	if s.metrics != nil {
		s.metrics.PreviewFailures.Inc()
	}
}

// streamURL finds a direct stream URL for the format, re-resolving the
// source URL when the stored record lacks one.
func (s *Service) streamURL(ctx context.Context, media *entity.Media, formatID string) (string, error) {
	format, ok := media.FormatByID(formatID)
	if !ok {
		return "", errs.ErrFormatNotFound
	}

	if format.URL != "" {
		return format.URL, nil
	}

	info, err := s.engine.Resolve(ctx, media.SourceURL)
	if err != nil {
		s.log.WarnContext(ctx, "re-resolve for preview failed", slog.Any("error", err))

		return "", fmt.Errorf("%w: %s", errs.ErrNoStreamURL, formatID)
	}

	for _, raw := range info.RawFormats {
		if raw.FormatID == formatID && raw.URL != "" {
			return raw.URL, nil
		}
	}

	return "", fmt.Errorf("%w: %s", errs.ErrNoStreamURL, formatID)
}
