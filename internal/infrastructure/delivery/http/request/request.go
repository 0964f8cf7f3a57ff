// Package request defines and validates incoming form payloads.
package request

import (
	"net/http"

	"vidgrab/internal/errs"
	"vidgrab/pkg/timefmt"
	"vidgrab/pkg/urls"
)

// Submit is the URL submission form on the index page.
type Submit struct {
	URL string
}

// SubmitFromForm extracts the submission from a request form.
func SubmitFromForm(r *http.Request) Submit {
	return Submit{URL: urls.Normalize(r.FormValue("url"))}
}

// Validate checks the submitted URL.
func (s Submit) Validate() error {
	if !urls.IsURLValid(s.URL) {
		return errs.ErrInvalidURL
	}

	return nil
}

// StartDownload is the format selection form.
type StartDownload struct {
	FormatID     string
	ExtractAudio bool
	StartTime    string
	EndTime      string
}

// StartDownloadFromForm extracts the download request from a request form.
func StartDownloadFromForm(r *http.Request) StartDownload {
	return StartDownload{
		FormatID:     r.FormValue("format_id"),
		ExtractAudio: r.FormValue("extract_audio") == "yes",
		StartTime:    r.FormValue("start_time"),
		EndTime:      r.FormValue("end_time"),
	}
}

// Validate rejects malformed trim markers before any job starts.
func (s StartDownload) Validate() error {
	if s.FormatID == "" {
		return errs.ErrInvalidFormatID
	}

	if s.StartTime != "" && !timefmt.Valid(s.StartTime) {
		return errs.ErrInvalidTimeFormat
	}

	if s.EndTime != "" && !timefmt.Valid(s.EndTime) {
		return errs.ErrInvalidTimeFormat
	}

	return nil
}
