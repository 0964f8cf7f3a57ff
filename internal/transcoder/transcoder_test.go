package transcoder

import (
	"errors"
	"log/slog"
	"os"
	"slices"
	"testing"
	"time"

	"vidgrab/internal/errs"
)

func TestTrimArgs(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		want       []string
	}{
		{
			name: "both markers use absolute bound",
			start: "0:10", end: "0:30",
			want: []string{"-y", "-i", "in.mp4", "-ss", "0:10", "-to", "0:30", "out.mp4"},
		},
		{
			name: "start only",
			start: "0:10",
			want: []string{"-y", "-i", "in.mp4", "-ss", "0:10", "out.mp4"},
		},
		{
			name: "end only becomes duration",
			end:  "0:30",
			want: []string{"-y", "-i", "in.mp4", "-t", "0:30", "out.mp4"},
		},
		{
			name: "no markers",
			want: []string{"-y", "-i", "in.mp4", "out.mp4"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := TrimArgs("in.mp4", "out.mp4", tc.start, tc.end)
			if !slices.Equal(got, tc.want) {
				t.Fatalf("TrimArgs() = %v; want %v", got, tc.want)
			}
		})
	}
}

func TestPreviewArgs(t *testing.T) {
	got := PreviewArgs("https://cdn.example.com/22", "clip_preview.mp4", 10*time.Second)

	want := []string{
		"-y", "-i", "https://cdn.example.com/22",
		"-t", "10",
		"-c:v", "libx264", "-preset", "veryfast",
		"-c:a", "aac", "-b:a", "128k",
		"clip_preview.mp4",
	}

	if !slices.Equal(got, want) {
		t.Fatalf("PreviewArgs() = %v; want %v", got, want)
	}
}

func TestUnavailableFailsFast(t *testing.T) {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	f := NewFFmpeg(log, "")

	if f.Available() {
		t.Fatal("expected unavailable")
	}

	if err := f.Trim(t.Context(), "in", "out", "", "0:10"); !errors.Is(err, errs.ErrFFmpegUnavailable) {
		t.Errorf("expected ErrFFmpegUnavailable, got %v", err)
	}

	if err := f.Preview(t.Context(), "url", "out", 10*time.Second); !errors.Is(err, errs.ErrFFmpegUnavailable) {
		t.Errorf("expected ErrFFmpegUnavailable, got %v", err)
	}
}
