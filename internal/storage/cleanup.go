package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"vidgrab/internal/entity"
)

// CleanupExpired evicts expired media records, their progress entries and
// their generated preview files on the given interval, until ctx is done.
func (stg *storage) CleanupExpired(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log := stg.log.With(slog.String("action", "cleanup_expired"), slog.Duration("interval", interval))

	for {
		select {
		case <-ticker.C:
			stg.performCleanup(ctx)
		case <-ctx.Done():
			log.Info("cleanup stopped")

			return
		}
	}
}

func (stg *storage) performCleanup(ctx context.Context) {
	now := time.Now()

	stg.mu.Lock()
	expired := stg.getExpired(now)
	stg.mu.Unlock()

	if len(expired) == 0 {
		stg.log.DebugContext(ctx, "no expired media to clean up")

		return
	}

	stg.log.InfoContext(ctx, "about to evict expired media", slog.Int("count", len(expired)))

	for _, media := range expired {
		stg.cleanupMedia(ctx, media)
	}
}

func (stg *storage) getExpired(now time.Time) []*entity.Media {
	var expired []*entity.Media

	for _, media := range stg.media {
		if media.ExpiresAt.Before(now) {
			expired = append(expired, media)
		}
	}

	return expired
}

// cleanupMedia drops one record and its preview files. Downloaded media
// files stay on disk; the downloads directory outlives registry entries.
func (stg *storage) cleanupMedia(ctx context.Context, media *entity.Media) {
	if media == nil {
		return
	}

	// Snapshot the previews under the lock: SetPreview writes this map and
	// may race the eviction. Dropping the registry entry first means any
	// later SetPreview fails with ErrMediaNotFound instead of resurrecting
	// a file we never delete.
	stg.mu.Lock()

	previews := media.Previews
	media.Previews = nil

	delete(stg.media, media.ID)
	delete(stg.progress, media.ID)
	mediaCount := len(stg.media)

	stg.mu.Unlock()

	deletedFiles := 0

	for _, filename := range previews {
		path := filepath.Join(stg.cfg.Dir.Previews, filename)

		err := os.Remove(path)
		if err != nil && !os.IsNotExist(err) {
			stg.log.ErrorContext(ctx, "failed to delete preview", slog.String("path", path), slog.Any("error", err))

			continue
		}

		deletedFiles++
	}

	if stg.metrics != nil {
		stg.metrics.RecordCleanup(1, deletedFiles)
		stg.metrics.SetStoredMedia(mediaCount)
	}

	stg.log.DebugContext(ctx, "media evicted",
		slog.String("media_id", media.ID),
		slog.Int("deleted_previews", deletedFiles))
}
