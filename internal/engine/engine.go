// Package engine defines the boundary to the external media extraction and
// download engine.
package engine

import (
	"context"

	"vidgrab/internal/entity"
)

// EventStatus classifies one progress tick from the engine.
type EventStatus string

const (
	// EventDownloading is a regular transfer tick.
	EventDownloading EventStatus = "downloading"
	// EventFinished signals the engine considers the transfer complete.
	EventFinished EventStatus = "finished"
	// EventError signals an engine-reported failure.
	EventError EventStatus = "error"
)

// ProgressEvent is one progress tick. Total and Speed are 0 when unknown;
// ETA is nil when the engine has no estimate.
type ProgressEvent struct {
	Status     EventStatus
	Downloaded int64
	Total      int64
	Speed      float64 // bytes/sec
	ETA        *int    // seconds
	Message    string  // set on error events
}

// ProgressFunc receives progress events during a download.
type ProgressFunc func(ProgressEvent)

// Info is the result of resolving a source URL: identity metadata plus the
// raw format descriptors the normalizer works from.
type Info struct {
	ID         string
	Title      string
	Thumbnail  string
	Duration   int
	RawFormats []entity.RawFormat
}

// Request describes one download invocation.
type Request struct {
	URL            string
	FormatID       string
	OutputTemplate string // path ending in the engine's extension slot
	AudioOnly      bool   // extract and transcode to mp3
	Progress       ProgressFunc
}

// Engine resolves URLs to formats and performs downloads. It manages its own
// protocol-level retries and fragmentation internally.
type Engine interface {
	Resolve(ctx context.Context, url string) (*Info, error)
	Download(ctx context.Context, req Request) error
}
