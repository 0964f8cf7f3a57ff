// Package errs defines common error variables used across the application.
package errs

import "errors"

var (
	// ErrServiceClosed indicates that the service is closed and cannot accept new jobs.
	ErrServiceClosed = errors.New("service is closed")
	// ErrJobQueueFull indicates that the job queue is full.
	ErrJobQueueFull = errors.New("job queue is full")
)

// Request validation errors.
var (
	// ErrInvalidURL indicates that the submitted URL is invalid.
	ErrInvalidURL = errors.New("invalid url field")
	// ErrInvalidFormatID indicates that the format id field is missing or unknown.
	ErrInvalidFormatID = errors.New("invalid format_id field")
	// ErrInvalidTimeFormat indicates that a trim marker is not plain seconds or HH:MM:SS.
	ErrInvalidTimeFormat = errors.New("invalid time format, use seconds or HH:MM:SS")
)

// Media registry errors.
var (
	// ErrMediaNotFound indicates that no media record exists for the job id.
	ErrMediaNotFound = errors.New("media not found")
	// ErrFormatNotFound indicates that the media has no format with the given id.
	ErrFormatNotFound = errors.New("format not found")
)

// Download and preview errors.
var (
	// ErrDownloadFailed indicates that the download failed.
	ErrDownloadFailed = errors.New("download failed")
	// ErrFFmpegUnavailable indicates that ffmpeg is required but was not found.
	ErrFFmpegUnavailable = errors.New("ffmpeg not found")
	// ErrNoStreamURL indicates that no direct stream URL could be resolved for a preview.
	ErrNoStreamURL = errors.New("no stream url for format")
	// ErrPreviewFailed indicates that preview generation failed.
	ErrPreviewFailed = errors.New("preview generation failed")
)

// Binary management errors.
var (
	// ErrBinaryNotFound indicates that the required binary was not found.
	ErrBinaryNotFound = errors.New("binary not found")
	// ErrUnsupportedPlatform indicates that the current platform is not supported.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)
