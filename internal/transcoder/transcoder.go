// Package transcoder defines the boundary to the external ffmpeg process
// used for trimming and preview generation.
package transcoder

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"vidgrab/internal/errs"
	"vidgrab/pkg/shellquote"
)

// Transcoder re-encodes media via an external process.
type Transcoder interface {
	// Available reports whether the transcoder binary was discovered.
	Available() bool
	// Path returns the binary path, empty when unavailable.
	Path() string
	// Trim writes a copy of input bounded by the optional start/end
	// markers. With a start marker the end marker is an absolute bound,
	// without one it is a duration.
	Trim(ctx context.Context, input, output, start, end string) error
	// Preview re-encodes up to duration seconds of streamURL into a
	// browser-compatible clip at output.
	Preview(ctx context.Context, streamURL, output string, duration time.Duration) error
}

// FFmpeg implements Transcoder by invoking the ffmpeg binary.
type FFmpeg struct {
	log  *slog.Logger
	path string
}

var _ Transcoder = (*FFmpeg)(nil)

// NewFFmpeg creates a transcoder for the given binary path. An empty path
// produces an unavailable transcoder whose operations fail fast.
func NewFFmpeg(log *slog.Logger, path string) *FFmpeg {
	return &FFmpeg{
		log:  log.With(slog.String("package", "transcoder")),
		path: path,
	}
}

// Available reports whether an ffmpeg binary was discovered.
func (f *FFmpeg) Available() bool {
	return f.path != ""
}

// Path returns the discovered ffmpeg binary path.
func (f *FFmpeg) Path() string {
	return f.path
}

// TrimArgs builds the ffmpeg argument list for a trim invocation.
func TrimArgs(input, output, start, end string) []string {
	args := []string{"-y", "-i", input}

	if start != "" {
		args = append(args, "-ss", start)
	}

	if end != "" {
		if start != "" {
			args = append(args, "-to", end)
		} else {
			args = append(args, "-t", end)
		}
	}

	return append(args, output)
}

// PreviewArgs builds the ffmpeg argument list for a preview invocation.
// Re-encodes to h264/aac to maximize browser compatibility.
func PreviewArgs(streamURL, output string, duration time.Duration) []string {
	return []string{
		"-y", "-i", streamURL,
		"-t", fmt.Sprintf("%d", int(duration.Seconds())),
		"-c:v", "libx264", "-preset", "veryfast",
		"-c:a", "aac", "-b:a", "128k",
		output,
	}
}

func (f *FFmpeg) Trim(ctx context.Context, input, output, start, end string) error {
	return f.run(ctx, TrimArgs(input, output, start, end))
}

func (f *FFmpeg) Preview(ctx context.Context, streamURL, output string, duration time.Duration) error {
	return f.run(ctx, PreviewArgs(streamURL, output, duration))
}

func (f *FFmpeg) run(ctx context.Context, args []string) error {
	if !f.Available() {
		return errs.ErrFFmpegUnavailable
	}

	f.log.DebugContext(ctx, "ffmpeg run", slog.String("cmd", shellquote.Join(f.path, args)))

	out, err := exec.CommandContext(ctx, f.path, args...).CombinedOutput()
	if err != nil {
		f.log.ErrorContext(ctx, "ffmpeg failed",
			slog.Any("error", err),
			slog.String("output", string(out)))

		return fmt.Errorf("ffmpeg: %w", err)
	}

	return nil
}
