package transcoder

import (
	"context"
	"os"
	"sync"
	"time"

	"vidgrab/internal/errs"
)

// Mock is a scriptable Transcoder for tests. Successful previews create an
// empty file at the output path so disk memoization can be exercised.
type Mock struct {
	Unavailable bool
	TrimErr     error
	PreviewErr  error

	mu       sync.Mutex
	trims    int
	previews int
}

var _ Transcoder = (*Mock)(nil)

func (m *Mock) Available() bool { return !m.Unavailable }

func (m *Mock) Path() string {
	if m.Unavailable {
		return ""
	}

	return "ffmpeg-mock"
}

func (m *Mock) Trim(_ context.Context, _, output, _, _ string) error {
	m.mu.Lock()
	m.trims++
	m.mu.Unlock()

	if m.Unavailable {
		return errs.ErrFFmpegUnavailable
	}

	if m.TrimErr != nil {
		return m.TrimErr
	}

	return os.WriteFile(output, nil, 0o644)
}

func (m *Mock) Preview(_ context.Context, _, output string, _ time.Duration) error {
	m.mu.Lock()
	m.previews++
	m.mu.Unlock()

	if m.Unavailable {
		return errs.ErrFFmpegUnavailable
	}

	if m.PreviewErr != nil {
		return m.PreviewErr
	}

	return os.WriteFile(output, nil, 0o644)
}

// Trims reports how many Trim calls were made.
func (m *Mock) Trims() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.trims
}

// Previews reports how many Preview calls were made.
func (m *Mock) Previews() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.previews
}
