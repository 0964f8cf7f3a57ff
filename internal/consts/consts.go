// Package consts defines application-wide constants.
package consts

import "time"

const (
	// DefaultHandlerTimeout is the default timeout for HTTP handlers.
	DefaultHandlerTimeout = 30 * time.Second
	// DefaultJobWorkers is the default number of workers for job processing.
	DefaultJobWorkers = 2
	// DefaultQueueSize is the default size of the job queue.
	DefaultQueueSize = 50
	// DefaultMediaTTL is the default time-to-live for stored media records.
	DefaultMediaTTL = 7 * 24 * time.Hour
	// DefaultSimulateTime is the default time to simulate processing in the mock engine.
	DefaultSimulateTime = 1 * time.Second
)

// Download resilience defaults passed to the extraction engine.
const (
	// DownloadAttempts is the whole-operation retry budget.
	DownloadAttempts = 3
	// BackoffStep is multiplied by the attempt number between retries.
	BackoffStep = 3 * time.Second
	// FragmentRetries is the per-fragment retry count the engine manages itself.
	FragmentRetries = 10
	// SocketTimeout is the engine's per-socket timeout.
	SocketTimeout = 15 * time.Second
	// HTTPChunkSize is the engine's download chunk size.
	HTTPChunkSize = 1024 * 1024
	// UserAgent identifies download requests to upstream servers.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
)

// Preview generation defaults.
const (
	// PreviewDuration caps the length of generated preview clips.
	PreviewDuration = 10 * time.Second
	// PreviewTimeout bounds the wall clock of one preview transcode.
	PreviewTimeout = 120 * time.Second
)

// HTTP response messages.
const (
	// RespInvalidRequestBody is returned when the request body is invalid.
	RespInvalidRequestBody = "invalid request body"
	// RespInvalidURL is returned when the submitted URL is invalid.
	RespInvalidURL = "please enter a valid video URL"
	// RespInvalidTrimTime is returned when a trim marker fails validation.
	RespInvalidTrimTime = "invalid time format, use seconds or HH:MM:SS"
	// RespResolveFail is returned when the extraction engine cannot resolve a URL.
	RespResolveFail = "error fetching video info"
	// RespNoMediaSelected is returned when no media is associated with the session.
	RespNoMediaSelected = "no video selected, paste a URL first"
	// RespJobEnqueueFail is returned when a download job cannot be started.
	RespJobEnqueueFail = "download could not be started"
	// RespMediaNotFound is returned when a media record is not found.
	RespMediaNotFound = "media not found"
	// RespPreviewFail is returned when preview generation fails.
	RespPreviewFail = "could not generate preview"
	// RespFileNotFound is returned when a file is not found.
	RespFileNotFound = "file not found"
)

// Engine identifiers.
const (
	// EngineYTdlp is the yt-dlp extraction engine identifier.
	EngineYTdlp = "ytdlp"
	// EngineMock is the mock engine identifier for testing.
	EngineMock = "mock"
)
