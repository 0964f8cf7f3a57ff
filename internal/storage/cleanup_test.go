package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"vidgrab/internal/config"
	"vidgrab/internal/entity"
	"vidgrab/internal/errs"
)

func TestCleanupEvictsExpired(t *testing.T) {
	previewDir := t.TempDir()

	synctest.Test(t, func(t *testing.T) {
		log := slog.New(slog.NewTextHandler(os.Stdout, nil))

		cfg, err := config.New()
		if err != nil {
			t.Fatalf("config new: %v", err)
		}

		cfg.Dir.Previews = previewDir
		cfg.Storage.CleanupInterval = 10 * time.Minute

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		store := New(ctx, log, cfg, nil)

		now := time.Now()

		expired := &entity.Media{
			ID:        "old",
			SourceURL: "https://example.com/old",
			CreatedAt: now.Add(-2 * time.Hour),
			ExpiresAt: now.Add(5 * time.Minute),
		}
		fresh := &entity.Media{
			ID:        "fresh",
			SourceURL: "https://example.com/fresh",
			CreatedAt: now,
			ExpiresAt: now.Add(24 * time.Hour),
		}

		store.SetMedia(ctx, expired)
		store.SetMedia(ctx, fresh)
		store.SetProgress(ctx, "old", entity.Progress{Status: entity.StatusFinished, Percent: 100})

		previewPath := filepath.Join(previewDir, "old_22_preview.mp4")
		if err := os.WriteFile(previewPath, nil, 0o644); err != nil {
			t.Fatalf("write preview: %v", err)
		}

		if err := store.SetPreview(ctx, "old", "22", "old_22_preview.mp4"); err != nil {
			t.Fatalf("set preview: %v", err)
		}

		// cross the expiry and one cleanup tick
		time.Sleep(15 * time.Minute)
		synctest.Wait()

		if _, err := store.GetMedia(ctx, "old"); !errors.Is(err, errs.ErrMediaNotFound) {
			t.Errorf("expected expired media evicted, got %v", err)
		}

		if got := store.GetProgress(ctx, "old"); got.Status != entity.StatusNotStarted {
			t.Errorf("expected progress evicted, got %q", got.Status)
		}

		if _, err := store.GetMedia(ctx, "fresh"); err != nil {
			t.Errorf("fresh media must survive cleanup: %v", err)
		}

		if _, err := os.Stat(previewPath); !os.IsNotExist(err) {
			t.Errorf("expected preview file removed, stat err: %v", err)
		}
	})
}

// Eviction must not touch the previews map without the lock: a preview
// finishing on the same tick its media expires would otherwise race the
// cleanup iteration. Run with -race.
func TestCleanupRacesPreviewWrites(t *testing.T) {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.New()
	if err != nil {
		t.Fatalf("config new: %v", err)
	}

	cfg.Dir.Previews = t.TempDir()
	cfg.Storage.CleanupInterval = time.Hour

	ctx := t.Context()
	stg, ok := New(ctx, log, cfg, nil).(*storage)
	if !ok {
		t.Fatal("expected concrete storage")
	}

	stg.SetMedia(ctx, &entity.Media{
		ID:        "doomed",
		SourceURL: "https://example.com/doomed",
		CreatedAt: time.Now().Add(-2 * time.Hour),
		ExpiresAt: time.Now().Add(-time.Minute),
	})

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		// keeps writing until the eviction drops the record
		for i := range 200 {
			_ = stg.SetPreview(ctx, "doomed", strconv.Itoa(i), "p.mp4")
		}
	}()

	stg.performCleanup(ctx)
	wg.Wait()

	if _, err := stg.GetMedia(ctx, "doomed"); !errors.Is(err, errs.ErrMediaNotFound) {
		t.Errorf("expected media evicted, got %v", err)
	}
}

func TestCleanupStopsOnContextDone(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		log := slog.New(slog.NewTextHandler(os.Stdout, nil))

		cfg, err := config.New()
		if err != nil {
			t.Fatalf("config new: %v", err)
		}

		cfg.Dir.Previews = "unused"
		cfg.Storage.CleanupInterval = time.Minute

		ctx, cancel := context.WithCancel(t.Context())

		New(ctx, log, cfg, nil)

		cancel()
		synctest.Wait()
		// the cleanup goroutine must have exited; synctest would report a
		// leaked goroutine otherwise when the bubble ends
	})
}
