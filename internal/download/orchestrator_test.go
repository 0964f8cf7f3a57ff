package download

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"testing/synctest"
	"time"

	"vidgrab/internal/config"
	"vidgrab/internal/engine"
	"vidgrab/internal/entity"
	"vidgrab/internal/errs"
	"vidgrab/internal/storage"
	"vidgrab/internal/transcoder"
	"vidgrab/pkg/ptr"
)

func newTestOrchestrator(
	t *testing.T,
	downloadsDir string,
	eng engine.Engine,
	trc transcoder.Transcoder,
) (*Orchestrator, storage.Storer) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.New()
	if err != nil {
		t.Fatalf("config new: %v", err)
	}

	cfg.Dir.Downloads = downloadsDir
	cfg.Dir.Previews = downloadsDir

	store := storage.New(t.Context(), log, cfg, nil)

	return New(log, cfg, eng, trc, store, nil), store
}

// recordingStore keeps every progress write so tests can assert on the
// observed sequence, not just the final record.
type recordingStore struct {
	storage.Storer

	writes []entity.Progress
}

func (r *recordingStore) SetProgress(ctx context.Context, jobID string, progress entity.Progress) {
	r.writes = append(r.writes, progress)
	r.Storer.SetProgress(ctx, jobID, progress)
}

func testJob() Job {
	return Job{
		JobID:    "job1",
		URL:      "https://example.com/watch?v=abc",
		FormatID: "22",
		Title:    "Test Clip",
		Height:   ptr.Of(720),
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		formatID  string
		height    *int
		audioOnly bool
		want      string
	}{
		{"video_with_height", "My Clip", "22", ptr.Of(720), false, "My Clip_720p.mp4"},
		{"audio_only", "My Clip", "140", nil, true, "My Clip_140.mp3"},
		{"no_height_video", "My Clip", "hls-1", nil, false, "My Clip_hls-1.mp4"},
		{"unsafe_title", "a/b:c", "22", ptr.Of(1080), false, "a_b_c_1080p.mp4"},
		{"empty_title", "", "22", ptr.Of(360), false, "_360p.mp4"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := OutputName(tc.title, tc.formatID, tc.height, tc.audioOnly)
			if got != tc.want {
				t.Fatalf("OutputName() = %q; want %q", got, tc.want)
			}
		})
	}
}

func TestRunFirstAttemptSucceeds(t *testing.T) {
	dir := t.TempDir()

	eng := &engine.Mock{
		Events: []engine.ProgressEvent{
			{Status: engine.EventDownloading, Downloaded: 512, Total: 1024, Speed: 256},
			{Status: engine.EventFinished},
		},
	}
	orch, store := newTestOrchestrator(t, dir, eng, &transcoder.Mock{})

	if err := orch.Run(t.Context(), testJob()); err != nil {
		t.Fatalf("run: %v", err)
	}

	got := store.GetProgress(t.Context(), "job1")
	if got.Status != entity.StatusFinished {
		t.Errorf("expected finished, got %q", got.Status)
	}

	if got.Percent != 100 {
		t.Errorf("expected 100 percent, got %d", got.Percent)
	}

	if got.Filename != "Test Clip_720p.mp4" {
		t.Errorf("expected output filename on terminal record, got %q", got.Filename)
	}

	if eng.Downloads() != 1 {
		t.Errorf("expected 1 download call, got %d", eng.Downloads())
	}
}

func TestRunRetriesThenSucceeds(t *testing.T) {
	dir := t.TempDir()

	synctest.Test(t, func(t *testing.T) {
		eng := &engine.Mock{
			FailAttempts: 2,
			Events:       []engine.ProgressEvent{{Status: engine.EventFinished}},
		}
		orch, inner := newTestOrchestrator(t, dir, eng, &transcoder.Mock{})
		store := &recordingStore{Storer: inner}
		orch.store = store

		if err := orch.Run(t.Context(), testJob()); err != nil {
			t.Fatalf("run: %v", err)
		}

		if eng.Downloads() != 3 {
			t.Errorf("expected 3 download calls, got %d", eng.Downloads())
		}

		got := store.GetProgress(t.Context(), "job1")
		if got.Status != entity.StatusFinished {
			t.Errorf("expected finished after retries, got %q", got.Status)
		}

		var errAttempts []int

		for _, rec := range store.writes {
			if rec.Status == entity.StatusError {
				errAttempts = append(errAttempts, rec.Attempt)
			}
		}

		if len(errAttempts) != 2 || errAttempts[0] != 1 || errAttempts[1] != 2 {
			t.Errorf("expected error records for attempts 1 and 2, got %v", errAttempts)
		}
	})
}

func TestRunExhaustsRetries(t *testing.T) {
	dir := t.TempDir()

	synctest.Test(t, func(t *testing.T) {
		eng := &engine.Mock{FailAttempts: 3}
		orch, store := newTestOrchestrator(t, dir, eng, &transcoder.Mock{})

		err := orch.Run(t.Context(), testJob())
		if !errors.Is(err, errs.ErrDownloadFailed) {
			t.Fatalf("expected ErrDownloadFailed, got %v", err)
		}

		// exactly three attempts, never a fourth
		if eng.Downloads() != 3 {
			t.Errorf("expected 3 download calls, got %d", eng.Downloads())
		}

		got := store.GetProgress(t.Context(), "job1")
		if got.Status != entity.StatusError {
			t.Errorf("expected error status, got %q", got.Status)
		}

		if got.Attempt != 3 {
			t.Errorf("expected attempt 3 in final record, got %d", got.Attempt)
		}
	})
}

func TestRunBackoffInterrupted(t *testing.T) {
	dir := t.TempDir()

	synctest.Test(t, func(t *testing.T) {
		eng := &engine.Mock{FailAttempts: 3}
		orch, store := newTestOrchestrator(t, dir, eng, &transcoder.Mock{})

		// dies inside the first 3s backoff window
		ctx, cancel := context.WithTimeout(t.Context(), time.Second)
		defer cancel()

		err := orch.Run(ctx, testJob())
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline exceeded, got %v", err)
		}

		if eng.Downloads() != 1 {
			t.Errorf("expected 1 download call, got %d", eng.Downloads())
		}

		got := store.GetProgress(ctx, "job1")
		if got.Status != entity.StatusError {
			t.Errorf("expected error status, got %q", got.Status)
		}
	})
}

func TestRunAudioOnlyWithoutFFmpeg(t *testing.T) {
	dir := t.TempDir()

	eng := &engine.Mock{}
	orch, store := newTestOrchestrator(t, dir, eng, &transcoder.Mock{Unavailable: true})

	job := testJob()
	job.AudioOnly = true
	job.Height = nil

	err := orch.Run(t.Context(), job)
	if !errors.Is(err, errs.ErrFFmpegUnavailable) {
		t.Fatalf("expected ErrFFmpegUnavailable, got %v", err)
	}

	// no download should even start
	if eng.Downloads() != 0 {
		t.Errorf("expected 0 download calls, got %d", eng.Downloads())
	}

	got := store.GetProgress(t.Context(), "job1")
	if got.Status != entity.StatusError {
		t.Errorf("expected error status, got %q", got.Status)
	}
}

func TestRunTrimApplied(t *testing.T) {
	dir := t.TempDir()

	eng := &engine.Mock{Events: []engine.ProgressEvent{{Status: engine.EventFinished}}}
	trc := &transcoder.Mock{}
	orch, store := newTestOrchestrator(t, dir, eng, trc)

	job := testJob()
	job.StartTime = "0:10"
	job.EndTime = "0:20"

	if err := orch.Run(t.Context(), job); err != nil {
		t.Fatalf("run: %v", err)
	}

	if trc.Trims() != 1 {
		t.Errorf("expected 1 trim call, got %d", trc.Trims())
	}

	if _, err := os.Stat(filepath.Join(dir, "Test Clip_720p.mp4")); err != nil {
		t.Errorf("expected trimmed output in place: %v", err)
	}

	got := store.GetProgress(t.Context(), "job1")
	if got.Status != entity.StatusFinished {
		t.Errorf("expected finished, got %q", got.Status)
	}
}

func TestRunTrimFailureKeepsJobFinished(t *testing.T) {
	dir := t.TempDir()

	eng := &engine.Mock{Events: []engine.ProgressEvent{{Status: engine.EventFinished}}}
	trc := &transcoder.Mock{TrimErr: errors.New("moov atom not found")}
	orch, store := newTestOrchestrator(t, dir, eng, trc)

	job := testJob()
	job.EndTime = "0:10"

	if err := orch.Run(t.Context(), job); err != nil {
		t.Fatalf("trim failure must not fail the job: %v", err)
	}

	got := store.GetProgress(t.Context(), "job1")
	if got.Status != entity.StatusFinished {
		t.Errorf("expected finished despite trim failure, got %q", got.Status)
	}
}

func TestRunRecordsFinalFilename(t *testing.T) {
	dir := t.TempDir()

	eng := &engine.Mock{Events: []engine.ProgressEvent{{Status: engine.EventFinished}}}
	orch, store := newTestOrchestrator(t, dir, eng, &transcoder.Mock{})

	store.SetMedia(t.Context(), &entity.Media{
		ID:        "job1",
		SourceURL: "https://example.com/watch?v=abc",
		Title:     "Test Clip",
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	})

	// a colliding file from an unrelated job with the same title
	if err := os.WriteFile(filepath.Join(dir, "Test Clip_720p.mp4"), nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := orch.Run(t.Context(), testJob()); err != nil {
		t.Fatalf("run: %v", err)
	}

	// the terminal record must name the probed output, not the predicted one
	got := store.GetProgress(t.Context(), "job1")
	if got.Filename != "Test Clip_720p (1).mp4" {
		t.Errorf("expected collision-suffixed filename in terminal record, got %q", got.Filename)
	}

	name, ok := store.GetDownload(t.Context(), "job1", FileKey("22", false))
	if !ok || name != "Test Clip_720p (1).mp4" {
		t.Errorf("expected recorded download filename, got %q (ok=%v)", name, ok)
	}
}

func TestFileKey(t *testing.T) {
	if got := FileKey("22", false); got != "22" {
		t.Errorf("unexpected key %q", got)
	}

	if got := FileKey("140", true); got != "140:audio" {
		t.Errorf("unexpected audio key %q", got)
	}
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()

	orch, _ := newTestOrchestrator(t, dir, &engine.Mock{}, &transcoder.Mock{})

	first := orch.uniquePath("clip_720p.mp4")
	if first != filepath.Join(dir, "clip_720p.mp4") {
		t.Fatalf("unexpected path %q", first)
	}

	if err := os.WriteFile(first, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	second := orch.uniquePath("clip_720p.mp4")
	if second != filepath.Join(dir, "clip_720p (1).mp4") {
		t.Fatalf("expected \" (1)\" suffix, got %q", second)
	}

	if err := os.WriteFile(second, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	third := orch.uniquePath("clip_720p.mp4")
	if third != filepath.Join(dir, "clip_720p (2).mp4") {
		t.Fatalf("expected \" (2)\" suffix, got %q", third)
	}
}

func TestDownloadingRecord(t *testing.T) {
	tests := []struct {
		name      string
		event     engine.ProgressEvent
		percent   int
		speedText string
		etaText   string
	}{
		{
			name:      "mid_download",
			event:     engine.ProgressEvent{Status: engine.EventDownloading, Downloaded: 512, Total: 1024, Speed: 256},
			percent:   50,
			speedText: "256.0 B/s",
			etaText:   "2s",
		},
		{
			name:      "unknown_total_with_engine_eta",
			event:     engine.ProgressEvent{Status: engine.EventDownloading, Downloaded: 512, Speed: 256, ETA: ptr.Of(90)},
			percent:   0,
			speedText: "256.0 B/s",
			etaText:   "1m 30s",
		},
		{
			name:      "nothing_known",
			event:     engine.ProgressEvent{Status: engine.EventDownloading},
			percent:   0,
			speedText: "0 B/s",
			etaText:   "Unknown",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := downloadingRecord(tc.event)

			if got.Status != entity.StatusDownloading {
				t.Errorf("expected downloading status, got %q", got.Status)
			}

			if got.Percent != tc.percent {
				t.Errorf("expected %d percent, got %d", tc.percent, got.Percent)
			}

			if got.SpeedText != tc.speedText {
				t.Errorf("expected speed %q, got %q", tc.speedText, got.SpeedText)
			}

			if got.ETAText != tc.etaText {
				t.Errorf("expected eta %q, got %q", tc.etaText, got.ETAText)
			}
		})
	}
}
