// Package entity defines the core entities used in the application.
package entity

import (
	"fmt"
	"log/slog"
	"time"
)

// Status represents the state of a download job as seen by polling clients.
type Status string

const (
	// StatusNotStarted is the default state for a job id nothing has written to yet.
	StatusNotStarted Status = "not_started"
	// StatusStarting indicates that the job is accepted and is about to start.
	StatusStarting Status = "starting"
	// StatusDownloading indicates that the job is in progress.
	StatusDownloading Status = "downloading"
	// StatusFinished indicates that the job has finished successfully.
	StatusFinished Status = "finished"
	// StatusError indicates that the job has encountered an error.
	StatusError Status = "error"
)

// RawFormat is one encoded format descriptor as reported by the extraction
// engine. Nullable engine fields stay pointers; a nil Height means audio-only.
type RawFormat struct {
	FormatID       string
	Ext            string
	Height         *int
	TBR            *float64
	ABR            *float64
	Filesize       *int64
	FilesizeApprox *int64
	FormatNote     string
	URL            string
}

// DisplayFormat is a normalized, deduplicated format ready for selection.
// Immutable once computed.
type DisplayFormat struct {
	FormatID string  `json:"format_id"`
	Ext      string  `json:"ext"`
	Height   *int    `json:"height,omitempty"`
	Bitrate  float64 `json:"bitrate"`
	Filesize int64   `json:"filesize"`
	Note     string  `json:"note"`
	Label    string  `json:"label"`

	// URL is a direct stream URL valid for a limited time. Never exposed
	// to clients; previews are generated server-side from it.
	URL string `json:"-"`
}

// Resolution returns the "{height}p" form for video formats and falls back
// to the format id for audio-only entries. Used for output filenames.
func (f DisplayFormat) Resolution() string {
	if f.Height != nil {
		return fmt.Sprintf("%dp", *f.Height)
	}

	return f.FormatID
}

// Media is the job-scoped record created when a URL is first resolved.
// One Media per distinct extracted media id, owned by the registry.
type Media struct {
	ID        string          `json:"id"`
	SourceURL string          `json:"source_url"`
	Title     string          `json:"title"`
	Duration  int             `json:"duration"`
	Thumbnail string          `json:"thumbnail"`
	Formats   []DisplayFormat `json:"formats"`

	// Previews maps format id to a generated preview filename.
	Previews map[string]string `json:"previews,omitempty"`

	// Files maps a format key to the completed download filename, as
	// chosen by the orchestrator after collision probing.
	Files map[string]string `json:"files,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// FormatByID returns the display format with the given id.
func (m *Media) FormatByID(id string) (DisplayFormat, bool) {
	for _, f := range m.Formats {
		if f.FormatID == id {
			return f, true
		}
	}

	return DisplayFormat{}, false
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (m Media) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", m.ID),
		slog.String("source_url", m.SourceURL),
		slog.String("title", m.Title),
		slog.Int("duration", m.Duration),
		slog.Int("formats", len(m.Formats)),
	)
}

// Progress is the record polled by clients for a job id. Written only by the
// orchestrator task that owns the job; replaced wholesale on every update.
type Progress struct {
	Status    Status   `json:"status"`
	Percent   int      `json:"percent"`
	Speed     *float64 `json:"speed,omitempty"` // bytes/sec
	SpeedText string   `json:"speed_text,omitempty"`
	ETA       *int     `json:"eta,omitempty"` // seconds
	ETAText   string   `json:"eta_text,omitempty"`
	Message   string   `json:"message,omitempty"`
	Attempt   int      `json:"attempt,omitempty"`

	// Filename is the actual output name, set on the terminal finished
	// record. It may differ from the name predicted at submission when
	// collision probing appended a " (n)" suffix.
	Filename string `json:"filename,omitempty"`
}

// LogValue implements the slog.LogValuer interface for structured logging.
func (p Progress) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("status", string(p.Status)),
		slog.Int("percent", p.Percent),
	}

	if p.Message != "" {
		attrs = append(attrs, slog.String("message", p.Message))
	}

	if p.Attempt > 0 {
		attrs = append(attrs, slog.Int("attempt", p.Attempt))
	}

	return slog.GroupValue(attrs...)
}
