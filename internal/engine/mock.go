package engine

import (
	"context"
	"sync"
	"time"

	"vidgrab/internal/errs"
)

// Mock is a scriptable Engine for tests. Download fails for the first
// FailAttempts calls, then emits Events and succeeds.
type Mock struct {
	Info         *Info
	ResolveErr   error
	FailAttempts int
	Events       []ProgressEvent
	SimulateTime time.Duration

	mu        sync.Mutex
	downloads int
	resolves  int
}

var _ Engine = (*Mock)(nil)

// Resolve returns the scripted Info.
func (m *Mock) Resolve(_ context.Context, _ string) (*Info, error) {
	m.mu.Lock()
	m.resolves++
	m.mu.Unlock()

	if m.ResolveErr != nil {
		return nil, m.ResolveErr
	}

	return m.Info, nil
}

// Download fails the first FailAttempts calls, then replays Events.
func (m *Mock) Download(ctx context.Context, req Request) error {
	m.mu.Lock()
	m.downloads++
	attempt := m.downloads
	m.mu.Unlock()

	if attempt <= m.FailAttempts {
		if req.Progress != nil {
			req.Progress(ProgressEvent{Status: EventError, Message: "simulated network failure"})
		}

		return errs.ErrDownloadFailed
	}

	for _, event := range m.Events {
		if m.SimulateTime > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.SimulateTime / time.Duration(len(m.Events))):
			}
		}

		if req.Progress != nil {
			req.Progress(event)
		}
	}

	return nil
}

// Downloads reports how many Download calls were made.
func (m *Mock) Downloads() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.downloads
}

// Resolves reports how many Resolve calls were made.
func (m *Mock) Resolves() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.resolves
}
